package commands

import (
	"github.com/spf13/cobra"

	"github.com/qaops/gridctl/cmd/gridctl/handlers"
)

// Cleanup returns the command that deletes all deployed resources.
//
// Deletion is a single namespace removal and is safe to run at any time,
// including after a failed deployment or when nothing was ever deployed.
func Cleanup() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Delete all grid resources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Cleanup(cmd.Context())
		},
	}
}
