package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"helixprint/internal/helix"
	"helixprint/internal/services"
)

// PrintRecord is a persisted modified print.
type PrintRecord struct {
	ID               int64      `json:"id"`
	SymlinkFilename  string     `json:"symlink_filename"`
	OriginalFilename string     `json:"original_filename"`
	TempFilename     string     `json:"temp_filename"`
	Modifications    []string   `json:"modifications"`
	JobID            string     `json:"job_id,omitempty"`
	Status           string     `json:"status"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       *time.Time `json:"finished_at,omitempty"`
}

const printColumns = "id, symlink_filename, original_filename, temp_filename, modifications_json, job_id, status, started_at, finished_at"

// RecordPrint stores info as a running print and returns its row id.
func (s *Store) RecordPrint(ctx context.Context, info helix.PrintInfo) (int64, error) {
	sec, frac := math.Modf(info.StartTime)
	started := time.Unix(int64(sec), int64(frac*1e9))
	if info.StartTime == 0 {
		started = time.Now()
	}
	res, err := s.execWithRetry(ctx,
		`INSERT INTO prints (
            symlink_filename, original_filename, temp_filename, modifications_json, job_id, status, started_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		info.SymlinkFilename,
		info.OriginalFilename,
		info.TempFilename,
		encodeList(info.Modifications),
		nullableString(info.JobID),
		helix.StatePrinting,
		formatTime(started),
	)
	if err != nil {
		return 0, fmt.Errorf("insert print: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	return id, nil
}

// FinishPrint records the terminal status of a print.
func (s *Store) FinishPrint(ctx context.Context, dbID int64, status string, end time.Time) error {
	res, err := s.execWithRetry(ctx,
		"UPDATE prints SET status = ?, finished_at = ? WHERE id = ?",
		status, formatTime(end), dbID,
	)
	if err != nil {
		return fmt.Errorf("finish print: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return services.Wrap(services.ErrNotFound, "history", "finish print", fmt.Sprintf("print %d", dbID), nil)
	}
	return nil
}

// GetPrint returns one print by row id.
func (s *Store) GetPrint(ctx context.Context, id int64) (PrintRecord, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), "SELECT "+printColumns+" FROM prints WHERE id = ?", id)
	record, err := scanPrint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return PrintRecord{}, services.Wrap(services.ErrNotFound, "history", "get print", fmt.Sprintf("print %d", id), nil)
	}
	return record, err
}

// ListPrints returns the most recent prints first.
func (s *Store) ListPrints(ctx context.Context, limit int) ([]PrintRecord, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT "+printColumns+" FROM prints ORDER BY started_at DESC, id DESC LIMIT ?",
		limitOrDefault(limit),
	)
	if err != nil {
		return nil, fmt.Errorf("list prints: %w", err)
	}
	defer rows.Close()

	var out []PrintRecord
	for rows.Next() {
		record, err := scanPrint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

func scanPrint(scanner interface{ Scan(dest ...any) error }) (PrintRecord, error) {
	var (
		record      PrintRecord
		mods        string
		jobID       sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&record.ID,
		&record.SymlinkFilename,
		&record.OriginalFilename,
		&record.TempFilename,
		&mods,
		&jobID,
		&record.Status,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return PrintRecord{}, err
	}
	record.Modifications = decodeList(mods)
	record.JobID = jobID.String
	if started, err := parseTimeString(startedRaw); err == nil {
		record.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			record.FinishedAt = &finished
		}
	}
	return record, nil
}
