package main

import (
	"context"
	"fmt"

	"github.com/showtimehq/doorlist/internal/client"
	"github.com/spf13/cobra"
)

var guestCmd = &cobra.Command{
	Use:     "guest",
	Short:   "Manage guest lists",
	GroupID: "roster",
}

var guestAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a guest and mint their token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eventID, _ := cmd.Flags().GetString("event")
		company, _ := cmd.Flags().GetString("company")
		level, _ := cmd.Flags().GetInt("level")
		invitedBy, _ := cmd.Flags().GetString("invited-by")

		if eventID == "" {
			eventID = activeRemoteEventID()
		}
		if eventID == "" {
			return fmt.Errorf("no event: pass --event or pin one with `doorlist remote event`")
		}

		guest, err := apiClient.CreateGuest(context.Background(), &client.CreateGuestRequest{
			Name:        args[0],
			Company:     company,
			AccessLevel: level,
			EventID:     eventID,
			InvitedBy:   invitedBy,
		})
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(guest)
			return nil
		}
		fmt.Printf("guest %s added with token %s\n", guest.Name, guest.ID)
		return nil
	},
}

var guestListCmd = &cobra.Command{
	Use:   "list",
	Short: "List guests",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eventID, _ := cmd.Flags().GetString("event")
		if eventID == "" {
			eventID = activeRemoteEventID()
		}

		req := &client.ListGuestsRequest{EventID: eventID}
		if cmd.Flags().Changed("checked-in") {
			v, _ := cmd.Flags().GetBool("checked-in")
			req.CheckedIn = &v
		}

		resp, err := apiClient.ListGuests(context.Background(), req)
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(resp)
			return nil
		}
		printGuestTable(resp.Guests, resp.Total)
		return nil
	},
}

var guestShowCmd = &cobra.Command{
	Use:   "show <token>",
	Short: "Show a guest by token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		guest, err := apiClient.GetGuest(context.Background(), args[0])
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(guest)
			return nil
		}
		printGuestDetail(guest)
		return nil
	},
}

var guestRemoveCmd = &cobra.Command{
	Use:   "remove <token>",
	Short: "Remove a guest from the list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := apiClient.DeleteGuest(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Printf("guest %s removed\n", args[0])
		return nil
	},
}

func init() {
	guestAddCmd.Flags().String("event", "", "event the guest is invited to")
	guestAddCmd.Flags().String("company", "", "guest's company")
	guestAddCmd.Flags().Int("level", 1, "access level (1, 2, or 3)")
	guestAddCmd.Flags().String("invited-by", "", "who added this guest")

	guestListCmd.Flags().String("event", "", "filter by event")
	guestListCmd.Flags().Bool("checked-in", false, "filter by check-in state")

	guestCmd.AddCommand(guestAddCmd)
	guestCmd.AddCommand(guestListCmd)
	guestCmd.AddCommand(guestShowCmd)
	guestCmd.AddCommand(guestRemoveCmd)
}
