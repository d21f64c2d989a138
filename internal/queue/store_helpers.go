package queue

import (
	"database/sql"
	"errors"
	"time"
)

const requestColumns = "id, status, original_name, background_path, input_audio, instrumental_audio, vocal_audio, subtitle_file, output_video, failure_stage, failure_kind, failure_reason, failure_recoverable, published_url, claimed_at, created_at, updated_at, finished_at"

func scanRequest(scanner interface{ Scan(dest ...any) error }) (*Request, error) {
	var (
		id                 string
		statusStr          string
		originalName       sql.NullString
		backgroundPath     sql.NullString
		inputAudio         string
		instrumentalAudio  sql.NullString
		vocalAudio         sql.NullString
		subtitleFile       sql.NullString
		outputVideo        sql.NullString
		failureStage       sql.NullString
		failureKind        sql.NullString
		failureReason      sql.NullString
		failureRecoverable sql.NullInt64
		publishedURL       sql.NullString
		claimedRaw         sql.NullString
		createdRaw         sql.NullString
		updatedRaw         sql.NullString
		finishedRaw        sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&statusStr,
		&originalName,
		&backgroundPath,
		&inputAudio,
		&instrumentalAudio,
		&vocalAudio,
		&subtitleFile,
		&outputVideo,
		&failureStage,
		&failureKind,
		&failureReason,
		&failureRecoverable,
		&publishedURL,
		&claimedRaw,
		&createdRaw,
		&updatedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	req := &Request{
		ID:             id,
		Status:         Status(statusStr),
		OriginalName:   originalName.String,
		BackgroundPath: backgroundPath.String,
		Artifacts: Artifacts{
			InputAudio:        inputAudio,
			InstrumentalAudio: instrumentalAudio.String,
			VocalAudio:        vocalAudio.String,
			SubtitleFile:      subtitleFile.String,
			OutputVideo:       outputVideo.String,
		},
		PublishedURL: publishedURL.String,
	}
	if failureKind.Valid && failureKind.String != "" {
		req.Failure = &Failure{
			Stage:       failureStage.String,
			Kind:        failureKind.String,
			Reason:      failureReason.String,
			Recoverable: failureRecoverable.Valid && failureRecoverable.Int64 != 0,
		}
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		req.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		req.UpdatedAt = updated
	}
	req.ClaimedAt = parseOptionalTime(claimedRaw)
	req.FinishedAt = parseOptionalTime(finishedRaw)
	return req, nil
}

func failureColumns(f *Failure) (stage, kind, reason any, recoverable int) {
	if f == nil {
		return nil, nil, nil, 0
	}
	return nullableString(f.Stage), nullableString(f.Kind), nullableString(f.Reason), boolToInt(f.Recoverable)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

func formatTime(value time.Time) string {
	return value.UTC().Format(time.RFC3339Nano)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func parseOptionalTime(raw sql.NullString) *time.Time {
	if !raw.Valid {
		return nil
	}
	parsed, err := parseTimeString(raw.String)
	if err != nil {
		return nil
	}
	return &parsed
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
