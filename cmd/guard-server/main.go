package main

import "github.com/oshokin/movement-guard/cmd/guard-server/cmd"

func main() {
	cmd.Execute()
}
