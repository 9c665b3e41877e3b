package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"

	"moviecase/internal/config"
)

// Store persists the library, poster blobs, and preference overrides in a
// SQLite database or on a libsql server.
type Store struct {
	db     *sql.DB
	url    string
	remote bool
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open connects to the configured library database and applies migrations.
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	if !cfg.IsRemoteDatabase() {
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, fmt.Errorf("ensure directories: %w", err)
		}
	}
	return OpenURL(ctx, cfg.Library.DatabaseURL)
}

// OpenURL connects to a local SQLite path or a libsql:// / wss:// URL.
func OpenURL(ctx context.Context, url string) (*Store, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, errors.New("database url is empty")
	}
	remote := config.IsRemoteDatabaseURL(url)
	driverName := "sqlite"
	if remote {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, url)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", driverName, err)
	}

	pragmas := []string{"PRAGMA foreign_keys = ON"}
	if !remote {
		// Pragmas are per connection; one connection keeps them in force.
		db.SetMaxOpenConns(1)
		pragmas = append(pragmas,
			"PRAGMA journal_mode=WAL",
			"PRAGMA busy_timeout = 5000",
		)
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, url: url, remote: remote}
	if err := store.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Remote reports whether the store talks to a libsql server.
func (s *Store) Remote() bool {
	return s.remote
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

// inTx runs fn in a transaction, retrying the whole transaction while the
// database reports busy.
func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()
		if err := fn(tx); err != nil {
			return err
		}
		return tx.Commit()
	})
}
