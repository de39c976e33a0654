// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"

	"github.com/showtimehq/doorlist/internal/idgen"
	"github.com/showtimehq/doorlist/internal/model"
	"github.com/showtimehq/doorlist/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) CreateEvent(ctx context.Context, event *model.Event) error {
	if event.ID == "" {
		id, err := idgen.NewEventID()
		if err != nil {
			return err
		}
		event.ID = id
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	return queryCreateEvent(ctx, s.db, event)
}

func (s *PostgresStore) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	event, err := queryGetEvent(ctx, s.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return event, err
}

func (s *PostgresStore) ListEvents(ctx context.Context) ([]*model.Event, error) {
	return queryListEvents(ctx, s.db)
}

func (s *PostgresStore) ListEventSummaries(ctx context.Context) ([]*model.EventSummary, error) {
	return queryListEventSummaries(ctx, s.db)
}

// DeleteEvent removes the event and its guests in one transaction. The
// guests table also carries ON DELETE CASCADE, so a crash between the two
// deletes cannot orphan guests either way.
func (s *PostgresStore) DeleteEvent(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := queryDeleteEvent(ctx, tx, id); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// CreateGuest inserts the guest, minting a fresh token on each attempt and
// relying on the primary-key constraint to catch a collision with a token
// minted concurrently by another writer.
func (s *PostgresStore) CreateGuest(ctx context.Context, guest *model.Guest) error {
	if guest.CreatedAt.IsZero() {
		guest.CreatedAt = time.Now().UTC()
	}

	// A preset token (a record replicated from another store) is inserted
	// as-is, without the redraw loop.
	if guest.ID != "" {
		return mapInsertGuestErr(queryCreateGuest(ctx, s.db, guest))
	}

	for attempt := 0; attempt < idgen.MaxAttempts; attempt++ {
		id, err := idgen.Generate()
		if err != nil {
			return err
		}
		guest.ID = id

		err = queryCreateGuest(ctx, s.db, guest)
		if isUniqueViolation(err) {
			guest.ID = ""
			continue
		}
		return mapInsertGuestErr(err)
	}
	return fmt.Errorf("create guest: %w", idgen.ErrCapacityExceeded)
}

func (s *PostgresStore) GetGuest(ctx context.Context, id string) (*model.Guest, error) {
	guest, err := queryGetGuest(ctx, s.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return guest, err
}

func (s *PostgresStore) ListGuests(ctx context.Context, filter model.GuestFilter) ([]*model.Guest, int, error) {
	return queryListGuests(ctx, s.db, filter)
}

func (s *PostgresStore) DeleteGuest(ctx context.Context, id string) error {
	return queryDeleteGuest(ctx, s.db, id)
}

// MarkCheckedIn performs the check-in compare-and-swap as a single
// conditional UPDATE keyed on `checked_in_at IS NULL`. Two controllers
// scanning the same token race on this statement; exactly one wins, and the
// loser gets the winner's row back with ErrAlreadyCheckedIn.
func (s *PostgresStore) MarkCheckedIn(ctx context.Context, id string, at time.Time) (*model.Guest, error) {
	guest, err := queryMarkCheckedIn(ctx, s.db, id, at.UTC())
	if err == nil {
		return guest, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// The CAS matched nothing: either the guest does not exist or it is
	// already checked in. Re-read to tell the two apart.
	existing, err := queryGetGuest(ctx, s.db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return existing, store.ErrAlreadyCheckedIn
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (token collision).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// mapInsertGuestErr converts a foreign-key violation on event_id into
// store.ErrNotFound (the owning event does not exist).
func mapInsertGuestErr(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return store.ErrNotFound
	}
	return err
}
