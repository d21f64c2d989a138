package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewRequestID returns a collision-resistant request identifier.
func NewRequestID() string {
	return uuid.NewString()
}

// Create inserts a RECEIVED request. An empty ID is replaced with a fresh one.
func (s *Store) Create(ctx context.Context, req *Request) (*Request, error) {
	if req == nil {
		return nil, errors.New("request is nil")
	}
	input := strings.TrimSpace(req.Artifacts.InputAudio)
	if input == "" {
		return nil, errors.New("input audio path required")
	}
	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = NewRequestID()
	} else if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("request id %q: %w", id, err)
	}

	now := time.Now().UTC()
	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO requests (id, status, original_name, background_path, input_audio, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id,
		StatusReceived,
		nullableString(req.OriginalName),
		nullableString(req.BackgroundPath),
		input,
		formatTime(now),
		formatTime(now),
	); err != nil {
		return nil, fmt.Errorf("insert request: %w", err)
	}
	return s.Get(ctx, id)
}

// Get fetches a request by ID. A missing request yields (nil, nil).
func (s *Store) Get(ctx context.Context, id string) (*Request, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+requestColumns+` FROM requests WHERE id = ?`, id)
	req, err := scanRequest(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	return req, nil
}

// List returns requests ordered by creation time, optionally filtered by status.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, status)
		}
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	defer rows.Close()

	var out []*Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// ClaimNext marks the oldest unclaimed RECEIVED request as taken and returns
// it. It returns (nil, nil) when nothing is waiting.
func (s *Store) ClaimNext(ctx context.Context) (*Request, error) {
	ctx = ensureContext(ctx)
	now := formatTime(time.Now())
	req, err := withBusyRetry(ctx, func() (*Request, error) {
		row := s.db.QueryRowContext(
			ctx,
			`UPDATE requests SET claimed_at = ?, updated_at = ?
             WHERE id = (
                 SELECT id FROM requests
                 WHERE status = ? AND claimed_at IS NULL
                 ORDER BY created_at, id LIMIT 1
             )
             RETURNING `+requestColumns,
			now,
			now,
			StatusReceived,
		)
		return scanRequest(row)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim request: %w", err)
	}
	return req, nil
}

// SetPublished records where a finished video was published.
func (s *Store) SetPublished(ctx context.Context, id, url string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE requests SET published_url = ?, updated_at = ? WHERE id = ?`,
		nullableString(url),
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return fmt.Errorf("set published url: %w", err)
	}
	return requireRow(res, id)
}

// Remove deletes a request row. Files on disk are left alone.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.execWithRetry(ctx, `DELETE FROM requests WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("remove request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func requireRow(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
