package planner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Ning0612/Treemirror/internal/adapter"
	"github.com/Ning0612/Treemirror/internal/core/checksum"
	"github.com/Ning0612/Treemirror/internal/domain"
	"github.com/Ning0612/Treemirror/internal/logger"
)

// Planner generates mirror plans
type Planner interface {
	// Plan decides what to do with every source entry
	// dest may be nil when the destination root does not exist yet
	Plan(ctx context.Context, job domain.MirrorJob, entries []domain.FileEntry, source, dest adapter.Adapter) (*domain.MirrorPlan, error)
}

// DefaultPlanner compares source entries against the destination tree
type DefaultPlanner struct {
	Calculator *checksum.DefaultCalculator
}

// NewDefaultPlanner creates a new planner with default components
func NewDefaultPlanner() *DefaultPlanner {
	return &DefaultPlanner{
		Calculator: checksum.NewDefaultCalculator(),
	}
}

// Plan implements the Planner interface
func (p *DefaultPlanner) Plan(ctx context.Context, job domain.MirrorJob, entries []domain.FileEntry, source, dest adapter.Adapter) (*domain.MirrorPlan, error) {
	plan := &domain.MirrorPlan{
		JobName: job.Name,
		Actions: make([]domain.PlanAction, 0, len(entries)),
	}

	for _, entry := range entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		var (
			existing domain.FileInfo
			exists   bool
		)
		if dest != nil {
			info, err := dest.Stat(ctx, entry.RelPath)
			switch {
			case err == nil:
				existing, exists = info, true
			case errors.Is(err, domain.ErrNotFound):
			default:
				return nil, fmt.Errorf("stat destination %s: %w", entry.RelPath, err)
			}
		}

		if !exists {
			plan.Actions = append(plan.Actions, domain.PlanAction{
				Type:   domain.ActionInstall,
				Entry:  entry,
				Reason: "file does not exist",
			})
			continue
		}

		if job.IsProtected(entry.RelPath) {
			plan.Actions = append(plan.Actions, domain.PlanAction{
				Type:   domain.ActionSkipProtected,
				Entry:  entry,
				Reason: "protected file already exists",
			})
			continue
		}

		action := domain.PlanAction{
			Type:   domain.ActionInstall,
			Entry:  entry,
			Backup: true,
		}
		switch {
		case existing.IsDir:
			action.Reason = "destination is a directory"
		case !existing.IsRegular:
			action.Reason = "replace non-regular file"
		default:
			identical, err := p.sameContent(ctx, entry, existing, source, dest)
			if err != nil {
				return nil, err
			}
			action.Identical = identical
			if identical {
				action.Reason = "replace existing file (content identical)"
			} else {
				action.Reason = "replace existing file (content differs)"
			}
		}
		plan.Actions = append(plan.Actions, action)
	}

	sortActions(plan.Actions)
	calculateStats(plan)
	return plan, nil
}

// sameContent compares digests; files above the calculator limit compare by size only
func (p *DefaultPlanner) sameContent(ctx context.Context, entry domain.FileEntry, existing domain.FileInfo, source, dest adapter.Adapter) (bool, error) {
	if entry.Size != existing.Size {
		return false, nil
	}
	if p.Calculator == nil || source == nil {
		return false, nil
	}
	if limit := p.Calculator.MaxSize(); limit > 0 && entry.Size > limit {
		logger.Get().Debug("comparing by size only", "path", entry.RelPath, "size", entry.Size)
		return true, nil
	}

	srcSum, err := p.digest(ctx, source, entry.RelPath)
	if errors.Is(err, domain.ErrNotFound) {
		// Vanished since enumeration; the executor reports it
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checksum source %s: %w", entry.RelPath, err)
	}
	dstSum, err := p.digest(ctx, dest, entry.RelPath)
	if err != nil {
		return false, fmt.Errorf("checksum destination %s: %w", entry.RelPath, err)
	}
	return srcSum == dstSum, nil
}

func (p *DefaultPlanner) digest(ctx context.Context, a adapter.Adapter, path string) (string, error) {
	r, err := a.Read(ctx, path)
	if err != nil {
		return "", err
	}
	defer r.Close()
	return p.Calculator.Sum(ctx, r)
}

// Collect recursively lists every regular file under the adapter root
// Symlinks and special files are skipped
func Collect(ctx context.Context, src adapter.Adapter, ignorePatterns []string) ([]domain.FileEntry, error) {
	var entries []domain.FileEntry
	if err := collect(ctx, src, "", ignorePatterns, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func collect(ctx context.Context, src adapter.Adapter, prefix string, ignorePatterns []string, out *[]domain.FileEntry) error {
	items, err := src.List(ctx, prefix)
	if err != nil {
		return err
	}

	for _, item := range items {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if ShouldIgnore(item.Path, ignorePatterns) {
			continue
		}

		switch {
		case item.IsDir:
			if err := collect(ctx, src, item.Path, ignorePatterns, out); err != nil {
				return err
			}
		case item.IsRegular:
			*out = append(*out, domain.FileEntry{
				AbsPath: filepath.Join(src.Root(), filepath.FromSlash(item.Path)),
				RelPath: item.Path,
				Size:    item.Size,
				Mode:    item.Mode,
			})
		default:
			logger.Get().Debug("skipping non-regular file", "path", item.Path, "mode", item.Mode.String())
		}
	}

	return nil
}

// sortActions orders installs shallow-first, then skips, then by path
func sortActions(actions []domain.PlanAction) {
	sort.SliceStable(actions, func(i, j int) bool {
		oi, oj := actionTypeOrder(actions[i].Type), actionTypeOrder(actions[j].Type)
		if oi != oj {
			return oi < oj
		}

		di := strings.Count(actions[i].Entry.RelPath, "/")
		dj := strings.Count(actions[j].Entry.RelPath, "/")
		if di != dj {
			return di < dj
		}

		return actions[i].Entry.RelPath < actions[j].Entry.RelPath
	})
}

// actionTypeOrder returns the sort priority for action types
func actionTypeOrder(t domain.ActionType) int {
	switch t {
	case domain.ActionInstall:
		return 1
	case domain.ActionSkipProtected:
		return 2
	default:
		return 99
	}
}

// ShouldIgnore checks if a path matches any ignore pattern
func ShouldIgnore(path string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, filepath.Base(path))
		if err == nil && matched {
			return true
		}
		matched, err = filepath.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// calculateStats computes summary statistics for a plan
func calculateStats(plan *domain.MirrorPlan) {
	for _, action := range plan.Actions {
		plan.Stats.TotalFiles++
		switch action.Type {
		case domain.ActionInstall:
			plan.Stats.FilesToInstall++
			plan.Stats.BytesToCopy += action.Entry.Size
			if action.Backup {
				plan.Stats.Backups++
			}
			if action.Identical {
				plan.Stats.Identical++
			}
		case domain.ActionSkipProtected:
			plan.Stats.Protected++
		}
	}
}
