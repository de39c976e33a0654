package main

import (
	"context"
	"fmt"

	"github.com/showtimehq/doorlist/internal/model"
	"github.com/showtimehq/doorlist/internal/ui"
	"github.com/spf13/cobra"
)

var checkinCmd = &cobra.Command{
	Use:   "checkin <payload>",
	Short: "Check a guest in at the door",
	Long: `Check a guest in by their token. The payload may be the bare token or the
JSON envelope produced by badge scanners ({"id":"K7M2P9"}); whitespace and
case are normalized server-side. Checking in is at-most-once: a second scan
of the same token reports when the guest was first admitted.`,
	GroupID: "door",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eventID, _ := cmd.Flags().GetString("event")
		if eventID == "" {
			eventID = activeRemoteEventID()
		}
		if eventID == "" {
			return fmt.Errorf("no event selected: pass --event or pin one with `doorlist remote event`")
		}

		result, err := apiClient.CheckIn(context.Background(), args[0], eventID)
		if err != nil {
			return err
		}

		if jsonOutput {
			printJSON(result)
			return nil
		}
		printCheckInResult(result)
		return nil
	},
}

func printCheckInResult(result *model.CheckInResult) {
	switch result.Status {
	case model.CheckInSuccess:
		fmt.Printf("%s  %s", ui.RenderSuccess("ADMIT"), result.Guest.Name)
		if result.Guest.Company != "" {
			fmt.Printf(" (%s)", result.Guest.Company)
		}
		fmt.Printf("  level %d\n", result.Guest.AccessLevel)
	case model.CheckInDuplicate:
		fmt.Printf("%s  %s already checked in", ui.RenderWarn("DUPLICATE"), result.Guest.Name)
		if result.Guest.CheckedInAt != nil {
			fmt.Printf(" at %s", result.Guest.CheckedInAt.Format("15:04:05"))
		}
		fmt.Println()
	case model.CheckInNotFound:
		if result.CrossEvent {
			// Company carries the guest's true event name on this path.
			fmt.Printf("%s  %s is on the list for %s\n",
				ui.RenderDenied("WRONG EVENT"), result.Guest.Name, result.Guest.Company)
			return
		}
		fmt.Printf("%s  token not on the list\n", ui.RenderDenied("DENY"))
	default:
		fmt.Printf("unexpected status %q\n", result.Status)
	}
}

func init() {
	checkinCmd.Flags().String("event", "", "event the door is controlling")
}
