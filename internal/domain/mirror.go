package domain

// ActionType represents the type of a planned mirror action
type ActionType string

const (
	ActionInstall       ActionType = "install"
	ActionSkipProtected ActionType = "skip-protected"
)

// PlanAction is a single planned operation on one source file
type PlanAction struct {
	Type ActionType

	// Entry is the source file
	Entry FileEntry

	// Backup is true when a file already exists at the destination
	Backup bool

	// Identical is true when the existing destination already has the same content
	Identical bool

	// Reason explains why this action was chosen
	Reason string
}

// MirrorPlan is the ordered list of actions for one job
type MirrorPlan struct {
	JobName string

	// Skipped mirrors MirrorResult.Skipped for a dry run
	Skipped    bool
	SkipReason string

	Actions []PlanAction
	Stats   MirrorPlanStats
}

// MirrorPlanStats provides summary statistics for a plan
type MirrorPlanStats struct {
	TotalFiles     int
	FilesToInstall int
	Backups        int
	Protected      int
	Identical      int
	BytesToCopy    int64
}

// OutcomeKind classifies what happened to one file
type OutcomeKind string

const (
	OutcomeInstalled        OutcomeKind = "installed"
	OutcomeSkippedMissing   OutcomeKind = "skipped-missing-source"
	OutcomeSkippedProtected OutcomeKind = "skipped-protected"
)

// FileOutcome records the result of mirroring one file
type FileOutcome struct {
	RelPath  string
	DestPath string
	Kind     OutcomeKind

	// BackupPath is set when an existing destination was backed up first
	BackupPath string

	Bytes int64
}

// MirrorResult is the outcome of one mirror operation
type MirrorResult struct {
	JobName string

	// Skipped is true when the whole job was a no-op
	Skipped    bool
	SkipReason string

	Outcomes []FileOutcome
}

// Count returns the number of outcomes of the given kind
func (r *MirrorResult) Count(kind OutcomeKind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

// Backups returns the number of backup files created
func (r *MirrorResult) Backups() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.BackupPath != "" {
			n++
		}
	}
	return n
}

// BytesInstalled sums the bytes written to the destination
func (r *MirrorResult) BytesInstalled() int64 {
	var total int64
	for _, o := range r.Outcomes {
		if o.Kind == OutcomeInstalled {
			total += o.Bytes
		}
	}
	return total
}
