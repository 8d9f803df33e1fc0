package version

import (
	"bytes"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// TestVersionStrings ensures Short and Full return non-empty consistent information.
func TestVersionStrings(t *testing.T) {
	t.Parallel()

	require.NotEmpty(t, Short())
	require.Contains(t, Full(), Short())

	info := Resolve()
	require.Equal(t, Version, info.Version)
	require.NotEmpty(t, info.Commit)
	require.NotEmpty(t, info.GoVersion)
	require.Contains(t, Full(), info.GoVersion)
}

// TestAttachCobraVersionCommand prints the binary name with the build metadata.
func TestAttachCobraVersionCommand(t *testing.T) {
	t.Parallel()

	root := &cobra.Command{Use: "guard-test", Run: func(*cobra.Command, []string) {}}
	AttachCobraVersionCommand(root)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), "guard-test version: "+Short())
}
