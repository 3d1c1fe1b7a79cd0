package api

import (
	"encoding/json"
	"time"

	"helixprint/internal/helix"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Envelope wraps every response body.
type Envelope struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorBody      `json:"error,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    int    `json:"code"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// PrintModifiedRequest is the body of POST /server/helix/print_modified.
type PrintModifiedRequest struct {
	OriginalFilename string   `json:"original_filename"`
	TempFilePath     string   `json:"temp_file_path"`
	Modifications    []string `json:"modifications"`
}

// PrintModifiedResult reports a started modified print.
type PrintModifiedResult struct {
	OriginalFilename string `json:"original_filename"`
	Status           string `json:"status"`
	TempFilename     string `json:"temp_filename"`
	PrintFilename    string `json:"print_filename"`
}

// Status is the body of GET /server/helix/status.
type Status struct {
	Enabled      bool   `json:"enabled"`
	TempDir      string `json:"temp_dir"`
	SymlinkDir   string `json:"symlink_dir"`
	CleanupDelay int    `json:"cleanup_delay"`
	Version      string `json:"version"`
	ActivePrints int    `json:"active_prints"`
}

// PhaseTracking reports whether phase tracking is on.
type PhaseTracking struct {
	Enabled bool `json:"enabled"`
}

// ActivePrint is one tracked modified print.
type ActivePrint struct {
	OriginalFilename string   `json:"original_filename"`
	TempFilename     string   `json:"temp_filename"`
	SymlinkFilename  string   `json:"symlink_filename"`
	Modifications    []string `json:"modifications"`
	StartTime        string   `json:"start_time"`
	JobID            string   `json:"job_id,omitempty"`
	DBID             int64    `json:"db_id,omitempty"`
	CleanupScheduled bool     `json:"cleanup_scheduled"`
}

// ActivePrintsResponse lists tracked prints, oldest first.
type ActivePrintsResponse struct {
	Prints []ActivePrint `json:"prints"`
}

// CleanupRequest selects one print to clean up; empty means all.
type CleanupRequest struct {
	PrintFilename string `json:"print_filename,omitempty"`
}

// CleanupResponse lists the symlink names that were cleaned up.
type CleanupResponse struct {
	Cleaned []string `json:"cleaned"`
}

// Gcode carries gcode text for the instrument and strip routes.
type Gcode struct {
	Gcode string `json:"gcode"`
}

// HistoryJob is one entry of the job ledger.
type HistoryJob struct {
	JobID         string   `json:"job_id"`
	Filename      string   `json:"filename"`
	Status        string   `json:"status"`
	StartTime     string   `json:"start_time,omitempty"`
	EndTime       string   `json:"end_time,omitempty"`
	PrintFilename string   `json:"print_filename,omitempty"`
	Modifications []string `json:"modifications,omitempty"`
}

// HistoryResponse lists jobs, newest first.
type HistoryResponse struct {
	Jobs []HistoryJob `json:"jobs"`
}

// FromPrintResult converts a dispatcher result.
func FromPrintResult(res helix.PrintResult) PrintModifiedResult {
	return PrintModifiedResult{
		OriginalFilename: res.OriginalFilename,
		Status:           res.Status,
		TempFilename:     res.TempFilename,
		PrintFilename:    res.PrintFilename,
	}
}

// FromEngineStatus converts the engine summary.
func FromEngineStatus(s helix.EngineStatus) Status {
	return Status{
		Enabled:      s.Enabled,
		TempDir:      s.TempDir,
		SymlinkDir:   s.SymlinkDir,
		CleanupDelay: s.CleanupDelay,
		Version:      s.Version,
		ActivePrints: s.ActivePrints,
	}
}

// FromPrintInfo converts a registry entry.
func FromPrintInfo(info helix.PrintInfo) ActivePrint {
	mods := info.Modifications
	if mods == nil {
		mods = []string{}
	}
	return ActivePrint{
		OriginalFilename: info.OriginalFilename,
		TempFilename:     info.TempFilename,
		SymlinkFilename:  info.SymlinkFilename,
		Modifications:    mods,
		StartTime:        formatEpoch(info.StartTime),
		JobID:            info.JobID,
		DBID:             info.DBID,
		CleanupScheduled: info.CleanupScheduled,
	}
}

// FromJobRecord converts a ledger row.
func FromJobRecord(job helix.JobRecord) HistoryJob {
	return HistoryJob{
		JobID:         job.JobID,
		Filename:      job.Filename,
		Status:        job.Status,
		StartTime:     formatTime(job.StartTime),
		EndTime:       formatTime(job.EndTime),
		PrintFilename: job.PrintFilename,
		Modifications: job.Modifications,
	}
}

func formatEpoch(seconds float64) string {
	if seconds <= 0 {
		return ""
	}
	return formatTime(time.UnixMilli(int64(seconds * 1000)))
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
