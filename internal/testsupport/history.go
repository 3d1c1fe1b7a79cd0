package testsupport

import (
	"context"
	"sync"
	"time"

	"helixprint/internal/helix"
	"helixprint/internal/services"
)

// FakeHistory is an in-memory helix.JobHistory and helix.PrintRecorder.
type FakeHistory struct {
	mu       sync.Mutex
	jobs     map[string]helix.JobRecord
	updates  map[string]helix.JobUpdate
	prints   map[int64]string
	nextID   int64
	finished map[int64]string
}

// NewFakeHistory returns an empty history.
func NewFakeHistory() *FakeHistory {
	return &FakeHistory{
		jobs:     make(map[string]helix.JobRecord),
		updates:  make(map[string]helix.JobUpdate),
		prints:   make(map[int64]string),
		finished: make(map[int64]string),
	}
}

// AddJob seeds a job record.
func (h *FakeHistory) AddJob(job helix.JobRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.jobs[job.JobID] = job
}

func (h *FakeHistory) GetJob(_ context.Context, jobID string) (helix.JobRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	job, ok := h.jobs[jobID]
	if !ok {
		return helix.JobRecord{}, services.Wrap(services.ErrNotFound, "fake history", "", jobID, nil)
	}
	return job, nil
}

func (h *FakeHistory) ModifyJob(_ context.Context, jobID string, update helix.JobUpdate) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	job, ok := h.jobs[jobID]
	if !ok {
		return services.Wrap(services.ErrNotFound, "fake history", "", jobID, nil)
	}
	job.PrintFilename = job.Filename
	job.Filename = update.Filename
	job.Modifications = update.Modifications
	h.jobs[jobID] = job
	h.updates[jobID] = update
	return nil
}

// Update returns the last ModifyJob call for jobID.
func (h *FakeHistory) Update(jobID string) (helix.JobUpdate, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	update, ok := h.updates[jobID]
	return update, ok
}

func (h *FakeHistory) RecordPrint(_ context.Context, info helix.PrintInfo) (int64, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	h.prints[h.nextID] = info.SymlinkFilename
	return h.nextID, nil
}

func (h *FakeHistory) FinishPrint(_ context.Context, dbID int64, status string, _ time.Time) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.finished[dbID] = status
	return nil
}

// Finished returns the terminal status recorded for dbID.
func (h *FakeHistory) Finished(dbID int64) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	status, ok := h.finished[dbID]
	return status, ok
}
