package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Ning0612/Treemirror/internal/config"
	"github.com/Ning0612/Treemirror/internal/core/backup"
	"github.com/Ning0612/Treemirror/internal/core/mirror"
	"github.com/Ning0612/Treemirror/internal/domain"
	"github.com/Ning0612/Treemirror/internal/hooks"
	"github.com/Ning0612/Treemirror/internal/lock"
	"github.com/Ning0612/Treemirror/internal/logger"
	"github.com/Ning0612/Treemirror/internal/progress"
	"github.com/Ning0612/Treemirror/internal/state"
)

// lockAllJobs is the holder name while a multi-job run is starting
const lockAllJobs = "*"

// JobReport is the outcome of one job within a run
type JobReport struct {
	Job        string
	BestEffort bool
	Result     *domain.MirrorResult
	Err        error
}

// RunReport collects the job reports of one run
type RunReport struct {
	RunID string
	Jobs  []JobReport
}

// Failed returns the reports of jobs that ended with an error
func (r *RunReport) Failed() []JobReport {
	var failed []JobReport
	for _, j := range r.Jobs {
		if j.Err != nil {
			failed = append(failed, j)
		}
	}
	return failed
}

// MirrorService runs configured mirror jobs under the run lock and records history
type MirrorService struct {
	config   *config.Config
	lock     *lock.FileLock
	history  *state.Manager
	clock    backup.Clock
	reporter progress.Reporter
}

// NewMirrorService creates a new mirror service
func NewMirrorService(cfg *config.Config) (*MirrorService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	stateDir := cfg.GetStateDir()
	fileLock, err := lock.NewFileLock(stateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create file lock: %w", err)
	}

	history, err := state.NewManager(stateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	return &MirrorService{
		config:  cfg,
		lock:    fileLock,
		history: history,
	}, nil
}

// SetClock sets the clock used for backup names
func (s *MirrorService) SetClock(clock backup.Clock) {
	s.clock = clock
}

// SetProgressReporter sets the progress reporter for mirror runs
func (s *MirrorService) SetProgressReporter(reporter progress.Reporter) {
	s.reporter = reporter
}

func (s *MirrorService) installer() *mirror.Installer {
	opts := []mirror.Option{mirror.WithReporter(s.reporter)}
	if s.clock != nil {
		opts = append(opts, mirror.WithClock(s.clock))
	}
	return mirror.New(opts...)
}

// Jobs returns the configured jobs in order
func (s *MirrorService) Jobs() []config.JobConfig {
	return s.config.Jobs
}

// PlanJob computes what RunJob would do without writing anything
func (s *MirrorService) PlanJob(ctx context.Context, name string) (*domain.MirrorPlan, error) {
	return PlanJob(ctx, s.config, name)
}

// PlanJob plans one configured job. It needs neither the run lock nor the
// history store, so a dry run leaves the state directory untouched.
func PlanJob(ctx context.Context, cfg *config.Config, name string) (*domain.MirrorPlan, error) {
	logger.Get().Debug("planning job", "job", name)

	jc, err := cfg.GetJob(name)
	if err != nil {
		return nil, err
	}
	job, err := cfg.BuildJob(*jc)
	if err != nil {
		return nil, err
	}

	plan, err := mirror.New().Plan(ctx, job)
	if err != nil {
		logger.Get().Error("plan failed", "job", name, "error", err)
		return nil, err
	}

	logger.Get().Info("mirror plan created",
		"job", name,
		"skipped", plan.Skipped,
		"files_to_install", plan.Stats.FilesToInstall,
		"backups", plan.Stats.Backups,
		"protected", plan.Stats.Protected,
		"bytes", plan.Stats.BytesToCopy,
	)
	return plan, nil
}

// RunJob mirrors one job under the run lock
func (s *MirrorService) RunJob(ctx context.Context, name string) (*domain.MirrorResult, error) {
	jc, err := s.config.GetJob(name)
	if err != nil {
		return nil, err
	}

	if err := s.acquire(name); err != nil {
		return nil, err
	}
	defer s.release()

	report := s.runJob(ctx, state.NewRunID(), *jc)
	return report.Result, report.Err
}

// RunAll mirrors the named jobs in order, or every enabled job when names is empty.
// A failing job stops the run unless it is marked best_effort.
func (s *MirrorService) RunAll(ctx context.Context, names ...string) (*RunReport, error) {
	jobs, err := s.selectJobs(names)
	if err != nil {
		return nil, err
	}

	report := &RunReport{RunID: state.NewRunID()}
	if len(jobs) == 0 {
		logger.Get().Info("no jobs to run")
		return report, nil
	}

	if err := s.acquire(lockAllJobs); err != nil {
		return nil, err
	}
	defer s.release()

	for _, jc := range jobs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		// Re-acquire only updates the holder's job name
		if err := s.lock.Acquire(jc.Name); err != nil {
			return report, fmt.Errorf("failed to update lock: %w", err)
		}

		jr := s.runJob(ctx, report.RunID, jc)
		report.Jobs = append(report.Jobs, jr)

		if jr.Err == nil {
			continue
		}
		if jc.BestEffort && !errors.Is(jr.Err, context.Canceled) {
			logger.Get().Warn("best-effort job failed, continuing", "job", jc.Name, "error", jr.Err)
			continue
		}
		return report, fmt.Errorf("job %s: %w", jc.Name, jr.Err)
	}

	return report, nil
}

func (s *MirrorService) selectJobs(names []string) ([]config.JobConfig, error) {
	if len(names) == 0 {
		return s.config.GetEnabledJobs(), nil
	}

	jobs := make([]config.JobConfig, 0, len(names))
	for _, name := range names {
		jc, err := s.config.GetJob(name)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *jc)
	}
	return jobs, nil
}

// runJob mirrors one job and records it; the lock must be held
func (s *MirrorService) runJob(ctx context.Context, runID string, jc config.JobConfig) JobReport {
	jr := JobReport{Job: jc.Name, BestEffort: jc.BestEffort}
	record := &state.ExecutionRecord{
		RunID:     runID,
		JobName:   jc.Name,
		StartTime: time.Now(),
	}

	job, err := s.config.BuildJob(jc)
	if err == nil {
		logger.Get().Info("mirroring", "job", jc.Name, "source", job.SourceRoot, "target", job.DestRoot, "mode", fmt.Sprintf("%04o", job.FileMode))
		jr.Result, err = s.installer().Mirror(ctx, job)
	}
	jr.Err = err
	record.EndTime = time.Now()

	if res := jr.Result; res != nil {
		record.Installed = res.Count(domain.OutcomeInstalled)
		record.Protected = res.Count(domain.OutcomeSkippedProtected)
		record.Missing = res.Count(domain.OutcomeSkippedMissing)
		record.Backups = res.Backups()
		record.Bytes = res.BytesInstalled()
	}

	switch {
	case err != nil:
		record.Status = state.StatusFailed
		record.Error = err.Error()
		logger.Get().Error("job failed", "job", jc.Name, "error", err)
	case jr.Result.Skipped:
		record.Status = state.StatusSkipped
		record.Error = jr.Result.SkipReason
	default:
		record.Status = state.StatusSuccess
	}

	if err := s.history.SaveExecution(record); err != nil {
		logger.Get().Warn("failed to record execution", "job", jc.Name, "error", err)
	}
	return jr
}

// InstallHooks writes every configured session hook
func (s *MirrorService) InstallHooks(ctx context.Context) ([]hooks.InstallResult, error) {
	if len(s.config.Hooks.Entries) == 0 {
		return nil, nil
	}

	w := hooks.NewWriter(config.ExpandPath(s.config.Hooks.Dir), s.config.GetHookBackupDir(), s.clock)
	results := make([]hooks.InstallResult, 0, len(s.config.Hooks.Entries))
	for _, entry := range s.config.Hooks.Entries {
		res, err := w.Install(ctx, entry)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// ListHooks returns installed fragments in execution order
func (s *MirrorService) ListHooks(ctx context.Context) ([]string, error) {
	if s.config.Hooks.Dir == "" {
		return nil, nil
	}
	return hooks.NewWriter(config.ExpandPath(s.config.Hooks.Dir), "", nil).List(ctx)
}

// History returns recent executions; an empty job name means all jobs
func (s *MirrorService) History(job string, limit int) ([]state.ExecutionRecord, error) {
	if job == "" {
		return s.history.GetAllHistory(limit)
	}
	return s.history.GetHistory(job, limit)
}

// Run returns every job record of one run in execution order
func (s *MirrorService) Run(runID string) ([]state.ExecutionRecord, error) {
	return s.history.GetRun(runID)
}

// LastSuccess returns the last successful execution of a job, or nil
func (s *MirrorService) LastSuccess(job string) (*state.ExecutionRecord, error) {
	return s.history.GetLastSuccess(job)
}

func (s *MirrorService) acquire(name string) error {
	logger.Get().Debug("acquiring lock", "job", name, "path", s.lock.Path())
	if err := s.lock.Acquire(name); err != nil {
		logger.Get().Error("failed to acquire run lock", "job", name, "error", err)
		return fmt.Errorf("failed to acquire run lock: %w", err)
	}
	return nil
}

func (s *MirrorService) release() {
	if err := s.lock.Release(); err != nil {
		logger.Get().Error("failed to release run lock", "error", err)
	}
}

// IsLocked checks if another run is in progress
func (s *MirrorService) IsLocked() bool {
	return s.lock.IsLocked()
}

// GetLockHolder returns information about the current lock holder
func (s *MirrorService) GetLockHolder() (*lock.LockInfo, error) {
	return s.lock.GetHolder()
}

// ForceUnlock forcibly releases the lock (use with caution)
func (s *MirrorService) ForceUnlock() error {
	return s.lock.ForceRelease()
}

// Close releases the history database
func (s *MirrorService) Close() error {
	return s.history.Close()
}

var _ io.Closer = (*MirrorService)(nil)
