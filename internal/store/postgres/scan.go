package postgres

import (
	"database/sql"
	"time"

	"github.com/showtimehq/doorlist/internal/model"
)

// scannable is the interface satisfied by both *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

// scanEvent scans a single row into a model.Event.
// The row must contain columns in the order defined by eventColumns.
func scanEvent(row scannable) (*model.Event, error) {
	var e model.Event
	if err := row.Scan(&e.ID, &e.Name, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// scanGuest scans a single row into a model.Guest.
// The row must contain columns in the order defined by guestColumns.
func scanGuest(row scannable) (*model.Guest, error) {
	var (
		g           model.Guest
		accessLevel int
		checkedInAt sql.NullTime
		invitedBy   sql.NullString
	)

	err := row.Scan(
		&g.ID,
		&g.EventID,
		&g.Name,
		&g.Company,
		&accessLevel,
		&checkedInAt,
		&invitedBy,
		&g.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	g.AccessLevel = model.AccessLevel(accessLevel)
	g.InvitedBy = invitedBy.String
	if checkedInAt.Valid {
		t := checkedInAt.Time
		g.CheckedInAt = &t
	}
	return &g, nil
}

// scanGuestWithTotal scans a row of total_count + guestColumns.
func scanGuestWithTotal(row scannable) (*model.Guest, int, error) {
	var (
		total       int
		g           model.Guest
		accessLevel int
		checkedInAt sql.NullTime
		invitedBy   sql.NullString
	)

	err := row.Scan(
		&total,
		&g.ID,
		&g.EventID,
		&g.Name,
		&g.Company,
		&accessLevel,
		&checkedInAt,
		&invitedBy,
		&g.CreatedAt,
	)
	if err != nil {
		return nil, 0, err
	}

	g.AccessLevel = model.AccessLevel(accessLevel)
	g.InvitedBy = invitedBy.String
	if checkedInAt.Valid {
		t := checkedInAt.Time
		g.CheckedInAt = &t
	}
	return &g, total, nil
}

// nullString converts an empty string to a SQL NULL.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// nullTimePtr converts a nil *time.Time to a SQL NULL.
func nullTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
