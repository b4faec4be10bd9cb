package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// VersionInfo carries the build metadata stamped into the binary.
type VersionInfo struct {
	Version string
	Commit  string
}

func NewVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(cmd.Root().Version)
			return nil
		},
	}

	return cmd
}
