package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/zkgen/internal/version"
)

func newVersionCommand(s Streams) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the zkgen version",
		Args:  cobra.NoArgs,
		Run: func(*cobra.Command, []string) {
			fmt.Fprintln(s.Out, version.String())
		},
	}
}
