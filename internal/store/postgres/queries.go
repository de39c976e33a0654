package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/showtimehq/doorlist/internal/model"
	"github.com/showtimehq/doorlist/internal/store"
)

// eventColumns is the column list used for SELECT statements on the events table.
const eventColumns = `id, name, created_at`

// guestColumns is the column list used for SELECT statements on the guests table.
const guestColumns = `id, event_id, name, company, access_level, checked_in_at, invited_by, created_at`

// executor is the interface satisfied by both *sql.DB and *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func queryCreateEvent(ctx context.Context, db executor, e *model.Event) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO events (id, name, created_at)
		VALUES ($1, $2, $3)`,
		e.ID, e.Name, e.CreatedAt,
	)
	return err
}

func queryGetEvent(ctx context.Context, db executor, id string) (*model.Event, error) {
	row := db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
	return scanEvent(row)
}

func queryListEvents(ctx context.Context, db executor) ([]*model.Event, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+eventColumns+` FROM events ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func queryListEventSummaries(ctx context.Context, db executor) ([]*model.EventSummary, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT e.id, e.name, e.created_at,
			COUNT(g.id) AS guest_count,
			COUNT(g.checked_in_at) AS checked_in_count
		FROM events e
		LEFT JOIN guests g ON g.event_id = e.id
		GROUP BY e.id, e.name, e.created_at
		ORDER BY e.created_at, e.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []*model.EventSummary
	for rows.Next() {
		var s model.EventSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.CreatedAt, &s.GuestCount, &s.CheckedInCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, &s)
	}
	return summaries, rows.Err()
}

// queryDeleteEvent deletes the event's guests, then the event itself.
// Intended to run inside a transaction.
func queryDeleteEvent(ctx context.Context, db executor, id string) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM guests WHERE event_id = $1`, id); err != nil {
		return err
	}
	res, err := db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func queryCreateGuest(ctx context.Context, db executor, g *model.Guest) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO guests (id, event_id, name, company, access_level, checked_in_at, invited_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		g.ID,
		g.EventID,
		g.Name,
		g.Company,
		int(g.AccessLevel),
		nullTimePtr(g.CheckedInAt),
		nullString(g.InvitedBy),
		g.CreatedAt,
	)
	return err
}

func queryGetGuest(ctx context.Context, db executor, id string) (*model.Guest, error) {
	row := db.QueryRowContext(ctx, `SELECT `+guestColumns+` FROM guests WHERE id = $1`, id)
	return scanGuest(row)
}

func queryListGuests(ctx context.Context, db executor, filter model.GuestFilter) ([]*model.Guest, int, error) {
	var (
		conds []string
		args  []any
	)
	if filter.EventID != "" {
		args = append(args, filter.EventID)
		conds = append(conds, "event_id = $"+strconv.Itoa(len(args)))
	}
	if filter.CheckedIn != nil {
		if *filter.CheckedIn {
			conds = append(conds, "checked_in_at IS NOT NULL")
		} else {
			conds = append(conds, "checked_in_at IS NULL")
		}
	}

	query := `SELECT COUNT(*) OVER() AS total_count, ` + guestColumns + ` FROM guests`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at, id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += " OFFSET $" + strconv.Itoa(len(args))
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		guests []*model.Guest
		total  int
	)
	for rows.Next() {
		g, n, err := scanGuestWithTotal(rows)
		if err != nil {
			return nil, 0, err
		}
		total = n
		guests = append(guests, g)
	}
	return guests, total, rows.Err()
}

func queryDeleteGuest(ctx context.Context, db executor, id string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM guests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// queryMarkCheckedIn is the check-in CAS. The WHERE clause carries the
// precondition; a row comes back only when this statement is the one that
// set the timestamp.
func queryMarkCheckedIn(ctx context.Context, db executor, id string, at time.Time) (*model.Guest, error) {
	row := db.QueryRowContext(ctx, `
		UPDATE guests
		SET checked_in_at = $2
		WHERE id = $1 AND checked_in_at IS NULL
		RETURNING `+guestColumns,
		id, at,
	)
	return scanGuest(row)
}
