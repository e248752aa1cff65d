package command

import (
	"runtime"

	"github.com/spf13/cobra"
)

// SetCommon configures cmd and its subcommands with the behavior every
// dexkeep command shares: errors are returned rather than printed and
// version reports the Go runtime too.
func SetCommon(cmd *cobra.Command, version string) *cobra.Command {
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	for _, sub := range cmd.Commands() {
		SetCommon(sub, version)
	}

	cmd.Version = version
	cmd.SetVersionTemplate("{{ .Name }}{{ .Version }} " + runtime.Version() + "\n")

	return cmd
}
