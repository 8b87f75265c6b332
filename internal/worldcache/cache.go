// Package worldcache persists the last successful Worlds fetch in a local
// SQLite database so the dashboard can render offline and degrade
// gracefully when the API is unreachable.
package worldcache

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite" // Pure Go SQLite driver, registers as "sqlite".

	"github.com/tidegate/worldctl/internal/worlds"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// fetchedAtKey is the cache_meta key holding the snapshot timestamp.
const fetchedAtKey = "fetched_at"

// Store holds the worlds snapshot cache.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New opens the cache database at dbPath, applying pragmas and pending
// migrations.
func New(dbPath string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("worldcache: open sqlite: %w", err)
	}

	if err := setPragmas(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}

	if err := runMigrations(context.Background(), db, logger); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// setPragmas configures WAL mode and a busy timeout.
func setPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return fmt.Errorf("worldcache: %s: %w", p, err)
		}
	}

	return nil
}

// runMigrations applies all pending schema migrations. Uses the goose v3
// Provider API (no global state, context-aware).
func runMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	subFS, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("worldcache: creating migration sub-filesystem: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, subFS)
	if err != nil {
		return fmt.Errorf("worldcache: creating migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("worldcache: running migrations: %w", err)
	}

	for _, r := range results {
		logger.Debug("applied cache migration",
			slog.String("source", r.Source.Path),
			slog.Int64("duration_ms", r.Duration.Milliseconds()),
		)
	}

	return nil
}

// Replace swaps the cached snapshot for the given worlds list and stamps
// the fetch time. The whole swap is one transaction — readers never see a
// half-replaced snapshot.
func (s *Store) Replace(ctx context.Context, list []worlds.World) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("worldcache: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `DELETE FROM worlds`); err != nil {
		return fmt.Errorf("worldcache: clearing snapshot: %w", err)
	}

	for i, w := range list {
		createdAt := ""
		if !w.CreatedAt.IsZero() {
			createdAt = w.CreatedAt.UTC().Format(time.RFC3339)
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO worlds (id, name, status, players, created_at, position) VALUES (?, ?, ?, ?, ?, ?)`,
			w.ID, w.Name, w.Status, w.Players, createdAt, i,
		)
		if err != nil {
			return fmt.Errorf("worldcache: inserting world %s: %w", w.ID, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO cache_meta (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		fetchedAtKey, now,
	)
	if err != nil {
		return fmt.Errorf("worldcache: stamping fetch time: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("worldcache: commit: %w", err)
	}

	s.logger.Debug("cached worlds snapshot", slog.Int("count", len(list)))

	return nil
}

// List returns the cached snapshot in the order it was fetched.
func (s *Store) List(ctx context.Context) ([]worlds.World, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, status, players, created_at FROM worlds ORDER BY position`,
	)
	if err != nil {
		return nil, fmt.Errorf("worldcache: querying snapshot: %w", err)
	}
	defer rows.Close()

	var list []worlds.World

	for rows.Next() {
		var (
			w         worlds.World
			createdAt string
		)

		if err := rows.Scan(&w.ID, &w.Name, &w.Status, &w.Players, &createdAt); err != nil {
			return nil, fmt.Errorf("worldcache: scanning row: %w", err)
		}

		if createdAt != "" {
			if t, parseErr := time.Parse(time.RFC3339, createdAt); parseErr == nil {
				w.CreatedAt = t
			}
		}

		list = append(list, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("worldcache: reading snapshot: %w", err)
	}

	return list, nil
}

// FetchedAt returns when the snapshot was taken, or the zero time if no
// snapshot exists.
func (s *Store) FetchedAt(ctx context.Context) (time.Time, error) {
	var value string

	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM cache_meta WHERE key = ?`, fetchedAtKey,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}

	if err != nil {
		return time.Time{}, fmt.Errorf("worldcache: reading fetch time: %w", err)
	}

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("worldcache: parsing fetch time: %w", err)
	}

	return t, nil
}
