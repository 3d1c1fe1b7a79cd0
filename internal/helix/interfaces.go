package helix

import (
	"context"
	"time"
)

// ConfigSource reads engine options.
type ConfigSource interface {
	Get(key, def string) string
	GetInt(key string, def int) (int, error)
	GetBool(key string, def bool) (bool, error)
}

// PrintHost issues commands to the printer and reads macro variables.
type PrintHost interface {
	SendCommand(ctx context.Context, script string) error
	// QueryVariable reads "<macro>.<variable>". An undefined variable
	// returns an error wrapping ErrNotFound.
	QueryVariable(ctx context.Context, name string) (any, error)
}

// JobRecord is one entry of the host's job history. PrintFilename keeps the
// symlink name the host ran once Filename has been rewritten to the original.
type JobRecord struct {
	JobID         string    `json:"job_id"`
	Filename      string    `json:"filename"`
	Status        string    `json:"status"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time,omitempty"`
	PrintFilename string    `json:"print_filename,omitempty"`
	Modifications []string  `json:"modifications,omitempty"`
}

// JobUpdate lists fields ModifyJob rewrites.
type JobUpdate struct {
	Filename      string
	Modifications []string
}

// JobHistory reads and rewrites persisted job records.
type JobHistory interface {
	GetJob(ctx context.Context, jobID string) (JobRecord, error)
	ModifyJob(ctx context.Context, jobID string, update JobUpdate) error
}

// PrintRecorder persists modified prints beyond the in-memory registry.
type PrintRecorder interface {
	RecordPrint(ctx context.Context, info PrintInfo) (int64, error)
	FinishPrint(ctx context.Context, dbID int64, status string, end time.Time) error
}

// PrintNotifier is told when modified prints start and finish. Calls run on
// their own goroutine.
type PrintNotifier interface {
	PrintStarted(ctx context.Context, info PrintInfo)
	PrintFinished(ctx context.Context, info PrintInfo, state string)
}

// FileRoots maps registered root names such as "gcodes" to directories.
type FileRoots interface {
	RootDir(name string) (string, error)
}
