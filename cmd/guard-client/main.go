package main

import "github.com/oshokin/movement-guard/cmd/guard-client/cmd"

func main() {
	cmd.Execute()
}
