package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/showtimehq/doorlist/internal/model"
)

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling JSON: %v\n", err)
		return
	}
	fmt.Println(string(data))
}

func printEventTable(summaries []*model.EventSummary) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tGUESTS\tCHECKED IN\tCREATED")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n",
			s.ID,
			s.Name,
			s.GuestCount,
			s.CheckedInCount,
			s.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	w.Flush()
	fmt.Printf("\n%d events\n", len(summaries))
}

func printGuestTable(guests []*model.Guest, total int) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TOKEN\tNAME\tCOMPANY\tLEVEL\tCHECKED IN")
	for _, g := range guests {
		name := g.Name
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		checkedIn := "-"
		if g.CheckedInAt != nil {
			checkedIn = g.CheckedInAt.Format("15:04:05")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			g.ID,
			name,
			g.Company,
			g.AccessLevel,
			checkedIn,
		)
	}
	w.Flush()
	fmt.Printf("\n%d guests (%d total)\n", len(guests), total)
}

func printGuestDetail(g *model.Guest) {
	fmt.Printf("Token:        %s\n", g.ID)
	fmt.Printf("Name:         %s\n", g.Name)
	if g.Company != "" {
		fmt.Printf("Company:      %s\n", g.Company)
	}
	fmt.Printf("Access Level: %d\n", g.AccessLevel)
	fmt.Printf("Event:        %s\n", g.EventID)
	if g.InvitedBy != "" {
		fmt.Printf("Invited By:   %s\n", g.InvitedBy)
	}
	if g.CheckedInAt != nil {
		fmt.Printf("Checked In:   %s\n", g.CheckedInAt.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Printf("Checked In:   no\n")
	}
	fmt.Printf("Created At:   %s\n", g.CreatedAt.Format("2006-01-02 15:04:05"))
}
