package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"helixprint/internal/helix"
	"helixprint/internal/services"
)

const jobColumns = "job_id, filename, status, start_time, end_time, print_filename, modifications_json"

// UpsertJob records a job reported by the host. A job whose filename was
// already rewritten to the original keeps that filename.
func (s *Store) UpsertJob(ctx context.Context, job helix.JobRecord) error {
	if strings.TrimSpace(job.JobID) == "" {
		return services.Wrap(services.ErrValidation, "history", "upsert job", "job id is required", nil)
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO jobs (job_id, filename, status, start_time, end_time, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(job_id) DO UPDATE SET
            filename = CASE WHEN jobs.print_filename IS NULL THEN excluded.filename ELSE jobs.filename END,
            status = excluded.status,
            start_time = COALESCE(excluded.start_time, jobs.start_time),
            end_time = COALESCE(excluded.end_time, jobs.end_time),
            updated_at = excluded.updated_at`,
		job.JobID,
		job.Filename,
		job.Status,
		nullableTime(job.StartTime),
		nullableTime(job.EndTime),
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("upsert job: %w", err)
	}
	return nil
}

// GetJob returns one job by id.
func (s *Store) GetJob(ctx context.Context, jobID string) (helix.JobRecord, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), "SELECT "+jobColumns+" FROM jobs WHERE job_id = ?", jobID)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return helix.JobRecord{}, services.Wrap(services.ErrNotFound, "history", "get job", "job "+jobID, nil)
	}
	if err != nil {
		return helix.JobRecord{}, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// ModifyJob points a job at the user's original file. The name the host
// actually printed is kept as print_filename.
func (s *Store) ModifyJob(ctx context.Context, jobID string, update helix.JobUpdate) error {
	res, err := s.execWithRetry(ctx,
		`UPDATE jobs SET
            print_filename = COALESCE(print_filename, filename),
            filename = ?,
            modifications_json = ?,
            updated_at = ?
        WHERE job_id = ?`,
		update.Filename,
		encodeList(update.Modifications),
		formatTime(time.Now()),
		jobID,
	)
	if err != nil {
		return fmt.Errorf("modify job: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.Wrap(services.ErrNotFound, "history", "modify job", "job "+jobID, nil)
	}
	return nil
}

// ListJobs returns the most recent jobs first.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]helix.JobRecord, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT "+jobColumns+" FROM jobs ORDER BY start_time DESC, job_id DESC LIMIT ?",
		limitOrDefault(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var out []helix.JobRecord
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (helix.JobRecord, error) {
	var (
		job      helix.JobRecord
		startRaw sql.NullString
		endRaw   sql.NullString
		printed  sql.NullString
		mods     sql.NullString
	)
	if err := scanner.Scan(&job.JobID, &job.Filename, &job.Status, &startRaw, &endRaw, &printed, &mods); err != nil {
		return helix.JobRecord{}, err
	}
	if t, err := parseTimeString(startRaw.String); err == nil {
		job.StartTime = t
	}
	if t, err := parseTimeString(endRaw.String); err == nil {
		job.EndTime = t
	}
	job.PrintFilename = printed.String
	job.Modifications = decodeList(mods.String)
	return job, nil
}
