package history_test

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"helixprint/internal/helix"
	"helixprint/internal/history"
	"helixprint/internal/services"
	"helixprint/internal/testsupport"
)

func TestRecordAndFinishPrint(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	id, err := store.RecordPrint(ctx, helix.PrintInfo{
		OriginalFilename: "benchy.gcode",
		TempFilename:     ".helix_temp/mod_benchy.gcode",
		SymlinkFilename:  ".helix_print/benchy.gcode",
		Modifications:    []string{"bed_mesh_disabled"},
		StartTime:        1700000000.25,
		JobID:            "00000A",
	})
	if err != nil {
		t.Fatalf("RecordPrint: %v", err)
	}

	record, err := store.GetPrint(ctx, id)
	if err != nil {
		t.Fatalf("GetPrint: %v", err)
	}
	if record.OriginalFilename != "benchy.gcode" || record.SymlinkFilename != ".helix_print/benchy.gcode" {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.Status != helix.StatePrinting || record.FinishedAt != nil {
		t.Fatalf("expected running print, got %+v", record)
	}
	if !slices.Equal(record.Modifications, []string{"bed_mesh_disabled"}) {
		t.Fatalf("unexpected modifications: %v", record.Modifications)
	}
	if record.StartedAt.Unix() != 1700000000 {
		t.Fatalf("unexpected start: %v", record.StartedAt)
	}

	end := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := store.FinishPrint(ctx, id, helix.StateComplete, end); err != nil {
		t.Fatalf("FinishPrint: %v", err)
	}
	record, err = store.GetPrint(ctx, id)
	if err != nil {
		t.Fatalf("GetPrint: %v", err)
	}
	if record.Status != helix.StateComplete || record.FinishedAt == nil || !record.FinishedAt.Equal(end) {
		t.Fatalf("expected finished print, got %+v", record)
	}

	if err := store.FinishPrint(ctx, id+100, helix.StateError, end); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := store.GetPrint(ctx, id+100); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	prints, err := store.ListPrints(ctx, 0)
	if err != nil {
		t.Fatalf("ListPrints: %v", err)
	}
	if len(prints) != 1 || prints[0].ID != id {
		t.Fatalf("unexpected prints: %+v", prints)
	}
}

func TestModifyJobRewritesFilename(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	start := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	if err := store.UpsertJob(ctx, helix.JobRecord{
		JobID:     "000001",
		Filename:  ".helix_print/benchy.gcode",
		Status:    "in_progress",
		StartTime: start,
	}); err != nil {
		t.Fatalf("UpsertJob: %v", err)
	}

	err := store.ModifyJob(ctx, "000001", helix.JobUpdate{
		Filename:      "benchy.gcode",
		Modifications: []string{"purge_disabled"},
	})
	if err != nil {
		t.Fatalf("ModifyJob: %v", err)
	}

	job, err := store.GetJob(ctx, "000001")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.Filename != "benchy.gcode" || job.PrintFilename != ".helix_print/benchy.gcode" {
		t.Fatalf("unexpected job filenames: %+v", job)
	}
	if !slices.Equal(job.Modifications, []string{"purge_disabled"}) {
		t.Fatalf("unexpected modifications: %v", job.Modifications)
	}
	if !job.StartTime.Equal(start) {
		t.Fatalf("unexpected start time: %v", job.StartTime)
	}

	// A late host report must not undo the rewrite.
	end := start.Add(time.Hour)
	if err := store.UpsertJob(ctx, helix.JobRecord{
		JobID:    "000001",
		Filename: ".helix_print/benchy.gcode",
		Status:   "completed",
		EndTime:  end,
	}); err != nil {
		t.Fatalf("UpsertJob: %v", err)
	}
	job, err = store.GetJob(ctx, "000001")
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if job.Filename != "benchy.gcode" || job.Status != "completed" {
		t.Fatalf("expected rewritten filename to survive, got %+v", job)
	}
	if !job.StartTime.Equal(start) || !job.EndTime.Equal(end) {
		t.Fatalf("unexpected times: %v %v", job.StartTime, job.EndTime)
	}

	// Modifying twice keeps the first printed name.
	if err := store.ModifyJob(ctx, "000001", helix.JobUpdate{Filename: "benchy.gcode"}); err != nil {
		t.Fatalf("ModifyJob: %v", err)
	}
	job, _ = store.GetJob(ctx, "000001")
	if job.PrintFilename != ".helix_print/benchy.gcode" {
		t.Fatalf("print filename changed: %+v", job)
	}
}

func TestJobErrors(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, err := store.GetJob(ctx, "missing"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.ModifyJob(ctx, "missing", helix.JobUpdate{Filename: "a.gcode"}); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := store.UpsertJob(ctx, helix.JobRecord{Filename: "a.gcode"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListJobsNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"000001", "000002", "000003"} {
		if err := store.UpsertJob(ctx, helix.JobRecord{
			JobID:     id,
			Filename:  id + ".gcode",
			Status:    "completed",
			StartTime: base.Add(time.Duration(i) * time.Hour),
		}); err != nil {
			t.Fatalf("UpsertJob: %v", err)
		}
	}

	jobs, err := store.ListJobs(ctx, 2)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(jobs) != 2 || jobs[0].JobID != "000003" || jobs[1].JobID != "000002" {
		t.Fatalf("unexpected order: %+v", jobs)
	}
}

func TestReopenKeepsData(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx := context.Background()

	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if store.Path() != filepath.Join(cfg.Paths.DataDir, "history.db") {
		t.Fatalf("unexpected path %q", store.Path())
	}
	if err := store.UpsertJob(ctx, helix.JobRecord{JobID: "000009", Filename: "a.gcode", Status: "completed"}); err != nil {
		t.Fatalf("UpsertJob: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	store = testsupport.MustOpenStore(t, cfg)
	if _, err := store.GetJob(ctx, "000009"); err != nil {
		t.Fatalf("GetJob after reopen: %v", err)
	}
}
