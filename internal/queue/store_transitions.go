package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tunely/internal/services"
)

// Transition moves a request to the next status, recording any artifact paths
// that are now known. Moving to FAILED requires a failure surface. Artifact
// fields left empty keep their stored value.
func (s *Store) Transition(ctx context.Context, id string, to Status, artifacts Artifacts, failure *Failure) error {
	ctx = ensureContext(ctx)
	if to == StatusFailed && failure == nil {
		return errors.New("failed transition requires a failure")
	}
	if to != StatusFailed {
		failure = nil
	}
	_, err := withBusyRetry(ctx, func() (struct{}, error) {
		return struct{}{}, s.transition(ctx, id, to, artifacts, failure)
	})
	return err
}

func (s *Store) transition(ctx context.Context, id string, to Status, artifacts Artifacts, failure *Failure) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transition tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current string
	if err := tx.QueryRowContext(ctx, `SELECT status FROM requests WHERE id = ?`, id).Scan(&current); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("read status: %w", err)
	}
	from := Status(current)
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	now := time.Now()
	var finished any
	if to.IsTerminal() {
		finished = formatTime(now)
	}
	stage, kind, reason, recoverable := failureColumns(failure)
	if _, err := tx.ExecContext(
		ctx,
		`UPDATE requests SET
             status = ?,
             instrumental_audio = COALESCE(?, instrumental_audio),
             vocal_audio = COALESCE(?, vocal_audio),
             subtitle_file = COALESCE(?, subtitle_file),
             output_video = COALESCE(?, output_video),
             failure_stage = ?, failure_kind = ?, failure_reason = ?, failure_recoverable = ?,
             finished_at = COALESCE(?, finished_at),
             updated_at = ?
         WHERE id = ?`,
		to,
		nullableString(artifacts.InstrumentalAudio),
		nullableString(artifacts.VocalAudio),
		nullableString(artifacts.SubtitleFile),
		nullableString(artifacts.OutputVideo),
		stage, kind, reason, recoverable,
		finished,
		formatTime(now),
		id,
	); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	return tx.Commit()
}

// FailInterrupted marks every request left in a stage state as FAILED in that
// stage with a recoverable DaemonStopReason, and releases RECEIVED requests
// that were claimed but never started. It runs once when the daemon starts.
func (s *Store) FailInterrupted(ctx context.Context) (int64, error) {
	processing := ProcessingStatuses()
	args := make([]any, 0, len(processing)+4)
	now := formatTime(time.Now())
	args = append(args, StatusFailed, services.KindCanceled, DaemonStopReason, now, now)
	for _, status := range processing {
		args = append(args, status)
	}
	res, err := s.execWithRetry(
		ctx,
		`UPDATE requests SET
             failure_stage = lower(status),
             status = ?,
             failure_kind = ?,
             failure_reason = ?,
             failure_recoverable = 1,
             finished_at = ?,
             updated_at = ?
         WHERE status IN (`+makePlaceholders(len(processing))+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("fail interrupted requests: %w", err)
	}
	failed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if _, err := s.execWithRetry(
		ctx,
		`UPDATE requests SET claimed_at = NULL, updated_at = ? WHERE status = ? AND claimed_at IS NOT NULL`,
		now,
		StatusReceived,
	); err != nil {
		return failed, fmt.Errorf("release claims: %w", err)
	}
	return failed, nil
}
