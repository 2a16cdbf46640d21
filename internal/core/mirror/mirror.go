package mirror

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Ning0612/Treemirror/internal/adapter"
	"github.com/Ning0612/Treemirror/internal/adapter/local"
	"github.com/Ning0612/Treemirror/internal/core/backup"
	"github.com/Ning0612/Treemirror/internal/core/planner"
	"github.com/Ning0612/Treemirror/internal/domain"
	"github.com/Ning0612/Treemirror/internal/logger"
	"github.com/Ning0612/Treemirror/internal/progress"
)

// SkipReasonNoSource is reported when a job's source root does not exist
const SkipReasonNoSource = "source directory does not exist"

// Installer mirrors a source tree onto a destination tree
type Installer struct {
	planner  planner.Planner
	namer    *backup.Namer
	reporter progress.Reporter
}

// Option configures an Installer
type Option func(*Installer)

// WithClock sets the clock used for backup timestamps
func WithClock(clock backup.Clock) Option {
	return func(i *Installer) {
		i.namer = backup.NewNamer(clock)
	}
}

// WithReporter sets the progress reporter
func WithReporter(r progress.Reporter) Option {
	return func(i *Installer) {
		if r != nil {
			i.reporter = r
		}
	}
}

// WithPlanner replaces the default planner
func WithPlanner(p planner.Planner) Option {
	return func(i *Installer) {
		if p != nil {
			i.planner = p
		}
	}
}

// New creates an Installer
func New(opts ...Option) *Installer {
	i := &Installer{
		planner:  planner.NewDefaultPlanner(),
		namer:    backup.NewNamer(nil),
		reporter: progress.NullReporter{},
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Mirror copies every regular file under job.SourceRoot to the same relative
// path under job.DestRoot with mode job.FileMode.
// Existing destinations are backed up first; protected ones are left alone.
// A missing source root is not an error: the result is marked Skipped and
// nothing is written.
func (i *Installer) Mirror(ctx context.Context, job domain.MirrorJob) (*domain.MirrorResult, error) {
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", err, job.Name)
	}

	log := logger.With("job", job.Name)
	result := &domain.MirrorResult{JobName: job.Name}

	src, err := openSource(job.SourceRoot)
	if err != nil {
		return nil, err
	}
	if src == nil {
		log.Info("source missing, skipping", "source", job.SourceRoot)
		result.Skipped = true
		result.SkipReason = SkipReasonNoSource
		return result, nil
	}
	defer src.Close()

	entries, err := planner.Collect(ctx, src, job.Ignore)
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", job.SourceRoot, err)
	}

	dst, err := openDestination(job.DestRoot)
	if err != nil {
		return nil, err
	}
	defer dst.Close()

	plan, err := i.planner.Plan(ctx, job, entries, src, dst)
	if err != nil {
		return nil, fmt.Errorf("plan %s: %w", job.Name, err)
	}

	if err := precheck(dst, plan.Stats.BytesToCopy); err != nil {
		return nil, err
	}

	log.Debug("plan ready",
		"files", plan.Stats.TotalFiles,
		"install", plan.Stats.FilesToInstall,
		"backups", plan.Stats.Backups,
		"protected", plan.Stats.Protected,
	)

	if err := i.Execute(ctx, job, plan, src, dst, result); err != nil {
		return result, err
	}

	log.Info("mirror complete",
		"installed", result.Count(domain.OutcomeInstalled),
		"protected", result.Count(domain.OutcomeSkippedProtected),
		"missing", result.Count(domain.OutcomeSkippedMissing),
		"backups", result.Backups(),
	)
	return result, nil
}

// Plan computes what Mirror would do without writing anything
// The destination root is not created
func (i *Installer) Plan(ctx context.Context, job domain.MirrorJob) (*domain.MirrorPlan, error) {
	if err := job.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", err, job.Name)
	}

	src, err := openSource(job.SourceRoot)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return &domain.MirrorPlan{JobName: job.Name, Skipped: true, SkipReason: SkipReasonNoSource}, nil
	}
	defer src.Close()

	entries, err := planner.Collect(ctx, src, job.Ignore)
	if err != nil {
		return nil, fmt.Errorf("enumerate %s: %w", job.SourceRoot, err)
	}

	var dst adapter.Adapter
	d, err := local.New(job.DestRoot)
	switch {
	case err == nil:
		dst = d
		defer d.Close()
	case errors.Is(err, domain.ErrNotFound):
	default:
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDestinationUnavailable, job.DestRoot, err)
	}

	return i.planner.Plan(ctx, job, entries, src, dst)
}

// Execute carries out a plan, appending one outcome per action to result
// Protection and existence are checked again at write time
func (i *Installer) Execute(ctx context.Context, job domain.MirrorJob, plan *domain.MirrorPlan, src, dst adapter.Adapter, result *domain.MirrorResult) error {
	log := logger.With("job", job.Name)
	i.reporter.SetTotal(plan.Stats.TotalFiles, plan.Stats.BytesToCopy)

	for _, action := range plan.Actions {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel := action.Entry.RelPath
		destPath := filepath.Join(dst.Root(), filepath.FromSlash(rel))

		exists, err := dst.Exists(ctx, rel)
		if err != nil {
			return fmt.Errorf("check %s: %w", destPath, err)
		}

		if exists && (action.Type == domain.ActionSkipProtected || job.IsProtected(rel)) {
			log.Warn("protected file exists, not overwriting", "path", destPath)
			i.reporter.Skip(rel, "protected")
			result.Outcomes = append(result.Outcomes, domain.FileOutcome{
				RelPath:  rel,
				DestPath: destPath,
				Kind:     domain.OutcomeSkippedProtected,
			})
			continue
		}

		outcome, err := i.install(ctx, job, action.Entry, src, dst, exists)
		if err != nil {
			i.reporter.Error(err)
			return err
		}
		outcome.DestPath = destPath
		result.Outcomes = append(result.Outcomes, outcome)
	}

	return nil
}

func (i *Installer) install(ctx context.Context, job domain.MirrorJob, entry domain.FileEntry, src, dst adapter.Adapter, exists bool) (domain.FileOutcome, error) {
	rel := entry.RelPath
	outcome := domain.FileOutcome{RelPath: rel}

	// Open the source before touching the destination so a vanished file leaves no backup behind
	r, err := src.Read(ctx, rel)
	if errors.Is(err, domain.ErrNotFound) {
		logger.Get().Warn("source file vanished, skipping", "job", job.Name, "path", entry.AbsPath)
		i.reporter.Skip(rel, "missing source")
		outcome.Kind = domain.OutcomeSkippedMissing
		return outcome, nil
	}
	if err != nil {
		return outcome, fmt.Errorf("read %s: %w", entry.AbsPath, err)
	}
	defer r.Close()

	if exists {
		backupPath, err := i.backup(ctx, dst, rel)
		if err != nil {
			return outcome, err
		}
		outcome.BackupPath = backupPath
	}

	i.reporter.Start(rel, entry.Size)
	n, err := dst.Install(ctx, rel, progress.NewProgressReader(r, i.reporter), job.FileMode)
	if err != nil {
		return outcome, fmt.Errorf("install %s: %w", rel, err)
	}
	i.reporter.Complete()

	logger.Get().Debug("installed", "job", job.Name, "path", rel, "bytes", n, "backup", outcome.BackupPath != "")
	outcome.Kind = domain.OutcomeInstalled
	outcome.Bytes = n
	return outcome, nil
}

// backup preserves the current destination under a fresh backup name
// Regular files are copied; directories and links are moved aside
func (i *Installer) backup(ctx context.Context, dst adapter.Adapter, rel string) (string, error) {
	info, err := dst.Stat(ctx, rel)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", rel, err)
	}

	name := i.namer.Name(rel, func(candidate string) bool {
		ok, err := dst.Exists(ctx, candidate)
		return ok || err != nil
	})

	if info.IsRegular {
		err = dst.CopyPreserving(ctx, rel, name)
	} else {
		err = dst.Rename(ctx, rel, name)
	}
	if err != nil {
		return "", fmt.Errorf("backup %s: %w", rel, err)
	}

	return filepath.Join(dst.Root(), filepath.FromSlash(name)), nil
}

// openSource returns nil, nil when the root does not exist
func openSource(root string) (*local.Adapter, error) {
	src, err := local.New(root)
	switch {
	case err == nil:
		return src, nil
	case errors.Is(err, domain.ErrNotFound):
		return nil, nil
	case errors.Is(err, domain.ErrNotDirectory):
		return nil, fmt.Errorf("source %s: %w", root, err)
	default:
		return nil, fmt.Errorf("open source %s: %w", root, err)
	}
}

func openDestination(root string) (*local.Adapter, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDestinationUnavailable, root, err)
	}
	dst, err := local.New(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrDestinationUnavailable, root, err)
	}
	return dst, nil
}

// precheck fails early when the destination cannot take the planned bytes
func precheck(dst adapter.Adapter, need int64) error {
	pc, ok := dst.(adapter.Prechecker)
	if !ok {
		return nil
	}
	if err := pc.Writable(); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrDestinationUnavailable, dst.Root(), err)
	}
	free, err := pc.FreeBytes()
	if err != nil {
		logger.Get().Debug("free space unknown", "root", dst.Root(), "error", err)
		return nil
	}
	if free >= 0 && free < need {
		return fmt.Errorf("%w: %s has %d bytes free, need %d", domain.ErrInsufficientSpace, dst.Root(), free, need)
	}
	return nil
}
