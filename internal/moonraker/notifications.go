package moonraker

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// PrintStats mirrors Klipper's print_stats object.
type PrintStats struct {
	State    string `json:"state"`
	Filename string `json:"filename"`
}

// HistoryJob is a job entry from Moonraker's history component.
type HistoryJob struct {
	JobID     string  `json:"job_id"`
	Filename  string  `json:"filename"`
	Status    string  `json:"status"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// Start converts the epoch seconds start time.
func (j HistoryJob) Start() time.Time { return epoch(j.StartTime) }

// End converts the epoch seconds end time; zero when unset.
func (j HistoryJob) End() time.Time { return epoch(j.EndTime) }

// HistoryChange is the payload of notify_history_changed.
type HistoryChange struct {
	Action string     `json:"action"`
	Job    HistoryJob `json:"job"`
}

// DecodeHistoryChange parses notify_history_changed params.
func DecodeHistoryChange(params json.RawMessage) (HistoryChange, error) {
	var args []HistoryChange
	if err := json.Unmarshal(params, &args); err != nil {
		return HistoryChange{}, fmt.Errorf("decode history change: %w", err)
	}
	if len(args) == 0 {
		return HistoryChange{}, fmt.Errorf("decode history change: empty params")
	}
	return args[0], nil
}

// DecodePrintStats extracts print_stats from notify_status_update params.
// ok is false when the update does not touch print_stats.
func DecodePrintStats(params json.RawMessage) (stats PrintStats, fields map[string]bool, ok bool, err error) {
	var args []json.RawMessage
	if err := json.Unmarshal(params, &args); err != nil {
		return PrintStats{}, nil, false, fmt.Errorf("decode status update: %w", err)
	}
	if len(args) == 0 {
		return PrintStats{}, nil, false, nil
	}
	var status map[string]json.RawMessage
	if err := json.Unmarshal(args[0], &status); err != nil {
		return PrintStats{}, nil, false, fmt.Errorf("decode status update: %w", err)
	}
	raw, found := status["print_stats"]
	if !found {
		return PrintStats{}, nil, false, nil
	}
	var present map[string]json.RawMessage
	if err := json.Unmarshal(raw, &present); err != nil {
		return PrintStats{}, nil, false, fmt.Errorf("decode print_stats: %w", err)
	}
	if err := json.Unmarshal(raw, &stats); err != nil {
		return PrintStats{}, nil, false, fmt.Errorf("decode print_stats: %w", err)
	}
	fields = make(map[string]bool, len(present))
	for key := range present {
		fields[key] = true
	}
	return stats, fields, true, nil
}

func epoch(seconds float64) time.Time {
	if seconds <= 0 {
		return time.Time{}
	}
	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC()
}
