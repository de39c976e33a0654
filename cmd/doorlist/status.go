package main

import (
	"context"
	"fmt"

	"github.com/showtimehq/doorlist/internal/ui"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show the server's sync status",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, err := apiClient.Status(context.Background())
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(status)
			return nil
		}

		if status.Offline {
			fmt.Printf("Connection:  %s\n", ui.RenderDenied("offline"))
		} else {
			fmt.Printf("Connection:  %s\n", ui.RenderSuccess("online"))
		}
		fmt.Printf("Pending:     %d mutations\n", status.PendingMutations)
		if !status.LastSyncedAt.IsZero() {
			fmt.Printf("Last sync:   %s\n", status.LastSyncedAt.Format("2006-01-02 15:04:05"))
		}
		if !status.LastMutatedAt.IsZero() {
			fmt.Printf("Last write:  %s\n", status.LastMutatedAt.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:     "health",
	Short:   "Check whether the server is reachable",
	GroupID: "system",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		state, err := apiClient.Health(context.Background())
		if err != nil {
			return err
		}
		fmt.Println(state)
		return nil
	},
}
