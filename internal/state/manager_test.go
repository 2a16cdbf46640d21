package state

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	manager, err := NewManager(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	t.Cleanup(func() { manager.Close() })
	return manager
}

func TestNewManager(t *testing.T) {
	tmpDir := t.TempDir()

	manager, err := NewManager(tmpDir)
	if err != nil {
		t.Fatalf("Failed to create manager: %v", err)
	}
	defer manager.Close()

	if _, err := os.Stat(filepath.Join(tmpDir, DBFileName)); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
}

func TestNewManager_EmptyDir(t *testing.T) {
	if _, err := NewManager(""); err == nil {
		t.Error("Expected error for empty directory, got nil")
	}
}

func TestSaveAndGetExecution(t *testing.T) {
	manager := newTestManager(t)

	record := &ExecutionRecord{
		JobName:   "dotfiles",
		StartTime: time.Now().Add(-10 * time.Second),
		EndTime:   time.Now(),
		Status:    StatusSuccess,
		Installed: 12,
		Protected: 1,
		Backups:   11,
		Bytes:     4096,
	}
	if err := manager.SaveExecution(record); err != nil {
		t.Fatalf("Failed to save execution: %v", err)
	}
	if record.ID == 0 {
		t.Error("ID not set after save")
	}
	if _, err := uuid.Parse(record.RunID); err != nil {
		t.Errorf("RunID %q is not a uuid: %v", record.RunID, err)
	}

	history, err := manager.GetHistory("dotfiles", 10)
	if err != nil {
		t.Fatalf("Failed to get history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(history))
	}

	got := history[0]
	if got.RunID != record.RunID || got.Installed != 12 || got.Protected != 1 || got.Backups != 11 || got.Bytes != 4096 {
		t.Errorf("unexpected record %+v", got)
	}
	if got.Duration() <= 0 {
		t.Errorf("Duration() = %v", got.Duration())
	}
}

func TestGetRun(t *testing.T) {
	manager := newTestManager(t)
	runID := NewRunID()
	now := time.Now()

	for i, job := range []string{"dotfiles", "config", "scripts"} {
		status := StatusSuccess
		if job == "scripts" {
			status = StatusSkipped
		}
		err := manager.SaveExecution(&ExecutionRecord{
			RunID:     runID,
			JobName:   job,
			StartTime: now.Add(time.Duration(i) * time.Second),
			EndTime:   now.Add(time.Duration(i+1) * time.Second),
			Status:    status,
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	manager.SaveExecution(&ExecutionRecord{JobName: "dotfiles", StartTime: now, EndTime: now, Status: StatusFailed, Error: "boom"})

	run, err := manager.GetRun(runID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if len(run) != 3 {
		t.Fatalf("expected 3 records, got %d", len(run))
	}
	if run[0].JobName != "dotfiles" || run[2].JobName != "scripts" || run[2].Status != StatusSkipped {
		t.Errorf("unexpected run order %+v", run)
	}
}

func TestGetLastSuccess(t *testing.T) {
	manager := newTestManager(t)
	now := time.Now()

	records := []ExecutionRecord{
		{JobName: "config", StartTime: now.Add(-3 * time.Hour), EndTime: now.Add(-3 * time.Hour), Status: StatusSuccess, Installed: 1},
		{JobName: "config", StartTime: now.Add(-2 * time.Hour), EndTime: now.Add(-2 * time.Hour), Status: StatusSuccess, Installed: 2},
		{JobName: "config", StartTime: now.Add(-1 * time.Hour), EndTime: now.Add(-1 * time.Hour), Status: StatusFailed, Error: "disk full"},
	}
	for i := range records {
		if err := manager.SaveExecution(&records[i]); err != nil {
			t.Fatal(err)
		}
	}

	last, err := manager.GetLastSuccess("config")
	if err != nil {
		t.Fatalf("GetLastSuccess failed: %v", err)
	}
	if last == nil || last.Installed != 2 {
		t.Errorf("expected the second record, got %+v", last)
	}

	none, err := manager.GetLastSuccess("never-ran")
	if err != nil || none != nil {
		t.Errorf("GetLastSuccess(never-ran) = %+v, %v", none, err)
	}
}

func TestGetAllHistory_Limit(t *testing.T) {
	manager := newTestManager(t)
	now := time.Now()

	for i := 0; i < 5; i++ {
		manager.SaveExecution(&ExecutionRecord{
			JobName:   "job",
			StartTime: now.Add(time.Duration(i) * time.Minute),
			EndTime:   now.Add(time.Duration(i) * time.Minute),
			Status:    StatusSuccess,
			Installed: i,
		})
	}

	history, err := manager.GetAllHistory(3)
	if err != nil {
		t.Fatalf("GetAllHistory failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 records, got %d", len(history))
	}
	if history[0].Installed != 4 {
		t.Errorf("expected newest first, got Installed=%d", history[0].Installed)
	}
}

func TestSaveExecution_Invalid(t *testing.T) {
	manager := newTestManager(t)

	tests := []struct {
		name   string
		record ExecutionRecord
	}{
		{"bad status", ExecutionRecord{JobName: "j", Status: "partial"}},
		{"empty job", ExecutionRecord{Status: StatusSuccess}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := manager.SaveExecution(&tt.record); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestHistory_InvalidLimit(t *testing.T) {
	manager := newTestManager(t)

	if _, err := manager.GetHistory("j", 0); err == nil {
		t.Error("GetHistory(0) should fail")
	}
	if _, err := manager.GetAllHistory(-1); err == nil {
		t.Error("GetAllHistory(-1) should fail")
	}
}
