// Package journal persists turret events (pan commands, safety stops, pass
// gestures) to SQLite so a session can be reviewed after the game.
package journal

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/teslashibe/go-turret/internal/log"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Kind classifies an event.
type Kind string

const (
	KindCommand     Kind = "command"
	KindStop        Kind = "stop"
	KindPassGesture Kind = "pass_gesture"
)

// DefaultRecentLimit caps Recent when no limit is given.
const DefaultRecentLimit = 100

// Event is one journal row.
type Event struct {
	ID        string    `json:"id"`
	Kind      Kind      `json:"kind"`
	Frame     uint64    `json:"frame"`
	Pan       float64   `json:"pan"`
	TargetX   *float64  `json:"target_x,omitempty"` // Nil when no target was tracked
	CreatedAt time.Time `json:"created_at"`
}

// Journal is a SQLite-backed event store.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the database at path and applies migrations.
// Use ":memory:" for a throwaway journal.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure journal: %w", err)
	}

	j := &Journal{db: db, logger: log.Component("journal")}
	if err := j.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// migrateUp runs all pending migrations up to the latest version.
func (j *Journal) migrateUp() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(j.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	// m is not closed: that would close the shared connection.

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	version, _, err := m.Version()
	if err == nil {
		j.logger.Debug("journal schema ready", "version", version)
	}
	return nil
}

// Record stores e. Missing ID and CreatedAt are filled in and the stored
// event is returned.
func (j *Journal) Record(ctx context.Context, e Event) (Event, error) {
	if e.Kind == "" {
		return e, fmt.Errorf("journal: event kind required")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	var targetX sql.NullFloat64
	if e.TargetX != nil {
		targetX = sql.NullFloat64{Float64: *e.TargetX, Valid: true}
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO events (id, kind, frame, pan, target_x, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Kind), int64(e.Frame), e.Pan, targetX, e.CreatedAt.UnixNano(),
	)
	if err != nil {
		return e, fmt.Errorf("record %s event: %w", e.Kind, err)
	}
	return e, nil
}

// Recent returns up to limit events, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, kind, frame, pan, target_x, created_at FROM events
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var (
			e         Event
			kind      string
			frame     int64
			targetX   sql.NullFloat64
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &kind, &frame, &e.Pan, &targetX, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Kind = Kind(kind)
		e.Frame = uint64(frame)
		if targetX.Valid {
			x := targetX.Float64
			e.TargetX = &x
		}
		e.CreatedAt = time.Unix(0, createdAt)
		events = append(events, e)
	}
	return events, rows.Err()
}

// CountByKind returns the number of stored events per kind.
func (j *Journal) CountByKind(ctx context.Context) (map[Kind]int, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT kind, COUNT(*) FROM events GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	defer rows.Close()

	counts := make(map[Kind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[Kind(kind)] = n
	}
	return counts, rows.Err()
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}
