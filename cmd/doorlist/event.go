package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:     "event",
	Short:   "Manage events",
	GroupID: "roster",
}

var eventCreateCmd = &cobra.Command{
	Use:     "create <name>",
	Aliases: []string{"new"},
	Short:   "Create an event",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := strings.Join(args, " ")

		event, err := apiClient.CreateEvent(context.Background(), name)
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(event)
			return nil
		}
		fmt.Printf("event %s created: %s\n", event.ID, event.Name)
		return nil
	},
}

var eventListCmd = &cobra.Command{
	Use:   "list",
	Short: "List events with guest counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		summaries, err := apiClient.ListEvents(context.Background())
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(summaries)
			return nil
		}
		printEventTable(summaries)
		return nil
	},
}

var eventDeleteCmd = &cobra.Command{
	Use:   "delete <event-id>",
	Short: "Delete an event and its guest list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]
		yes, _ := cmd.Flags().GetBool("yes")

		if !yes {
			fmt.Printf("delete event %s and every guest on its list? [y/N] ", id)
			var answer string
			fmt.Scanln(&answer)
			if !strings.EqualFold(strings.TrimSpace(answer), "y") {
				fmt.Println("aborted")
				return nil
			}
		}

		if err := apiClient.DeleteEvent(context.Background(), id); err != nil {
			return err
		}
		fmt.Printf("event %s deleted\n", id)
		return nil
	},
}

func init() {
	eventDeleteCmd.Flags().BoolP("yes", "y", false, "skip the confirmation prompt")

	eventCmd.AddCommand(eventCreateCmd)
	eventCmd.AddCommand(eventListCmd)
	eventCmd.AddCommand(eventDeleteCmd)
}
