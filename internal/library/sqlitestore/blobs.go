package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// GetBlob returns the stored poster bytes for key.
func (s *Store) GetBlob(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM poster_blobs WHERE url = ?`, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get blob: %w", err)
	}
	return data, true, nil
}

// PutBlob stores poster bytes under key, replacing any previous value.
func (s *Store) PutBlob(ctx context.Context, key string, data []byte) error {
	err := s.execWithRetry(ctx,
		`INSERT INTO poster_blobs (url, data, stored_at) VALUES (?, ?, ?)
         ON CONFLICT(url) DO UPDATE SET data = excluded.data, stored_at = excluded.stored_at`,
		key, data, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("put blob: %w", err)
	}
	return nil
}

// ClearBlobs deletes every stored poster.
func (s *Store) ClearBlobs(ctx context.Context) error {
	if err := s.execWithRetry(ctx, `DELETE FROM poster_blobs`); err != nil {
		return fmt.Errorf("clear blobs: %w", err)
	}
	return nil
}

// CountBlobs returns the number of stored posters.
func (s *Store) CountBlobs(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM poster_blobs`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count blobs: %w", err)
	}
	return count, nil
}
