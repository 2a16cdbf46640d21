package progress

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Reporter handles progress reporting for mirror runs
type Reporter interface {
	// SetTotal sets the number of files and bytes the run will install
	SetTotal(totalFiles int, totalBytes int64)
	// Start begins tracking a new file install
	Start(path string, totalBytes int64)
	// Update reports bytes written for the current file
	Update(bytesTransferred int64)
	// Complete marks the current file as installed
	Complete()
	// Skip reports a file left untouched
	Skip(path, reason string)
	// Error reports an error on the current file
	Error(err error)
}

// Callback is a function that receives progress updates
type Callback func(update Update)

// Update represents a progress update
type Update struct {
	Type           UpdateType
	CurrentFile    string
	CurrentBytes   int64
	CurrentTotal   int64
	FilesCompleted int
	FilesSkipped   int
	FilesTotal     int
	BytesCompleted int64
	BytesTotal     int64
	BytesPerSecond float64
	Reason         string
	Error          error
}

// UpdateType indicates the type of progress update
type UpdateType int

const (
	UpdateStart UpdateType = iota
	UpdateProgress
	UpdateComplete
	UpdateSkip
	UpdateError
)

func (t UpdateType) String() string {
	switch t {
	case UpdateStart:
		return "start"
	case UpdateProgress:
		return "progress"
	case UpdateComplete:
		return "complete"
	case UpdateSkip:
		return "skip"
	case UpdateError:
		return "error"
	default:
		return "unknown"
	}
}

// CallbackReporter implements Reporter with a callback function
type CallbackReporter struct {
	callback       Callback
	mu             sync.Mutex
	currentFile    string
	currentTotal   int64
	currentBytes   int64
	filesTotal     int
	bytesTotal     int64
	filesCompleted int
	filesSkipped   int
	bytesCompleted int64
	startTime      time.Time
}

// NewCallbackReporter creates a new CallbackReporter
func NewCallbackReporter(callback Callback) *CallbackReporter {
	return &CallbackReporter{
		callback: callback,
	}
}

// snapshot must be called with r.mu held
func (r *CallbackReporter) snapshot(t UpdateType) Update {
	return Update{
		Type:           t,
		CurrentFile:    r.currentFile,
		CurrentBytes:   r.currentBytes,
		CurrentTotal:   r.currentTotal,
		FilesCompleted: r.filesCompleted,
		FilesSkipped:   r.filesSkipped,
		FilesTotal:     r.filesTotal,
		BytesCompleted: r.bytesCompleted,
		BytesTotal:     r.bytesTotal,
	}
}

// emit calls the callback outside the lock so it may re-enter the reporter
func (r *CallbackReporter) emit(update Update) {
	if r.callback != nil {
		r.callback(update)
	}
}

// SetTotal sets the total number of files and bytes to install
func (r *CallbackReporter) SetTotal(totalFiles int, totalBytes int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filesTotal = totalFiles
	r.bytesTotal = totalBytes
}

// Start begins tracking a new file install
func (r *CallbackReporter) Start(path string, totalBytes int64) {
	r.mu.Lock()
	r.currentFile = path
	r.currentTotal = totalBytes
	r.currentBytes = 0
	r.startTime = time.Now()
	update := r.snapshot(UpdateStart)
	r.mu.Unlock()

	r.emit(update)
}

// Update reports bytes written for the current file
func (r *CallbackReporter) Update(bytesTransferred int64) {
	r.mu.Lock()
	r.currentBytes = bytesTransferred
	update := r.snapshot(UpdateProgress)
	update.BytesCompleted += bytesTransferred
	if elapsed := time.Since(r.startTime).Seconds(); elapsed > 0 {
		update.BytesPerSecond = float64(bytesTransferred) / elapsed
	}
	r.mu.Unlock()

	r.emit(update)
}

// Complete marks the current file as installed
func (r *CallbackReporter) Complete() {
	r.mu.Lock()
	r.filesCompleted++
	r.bytesCompleted += r.currentTotal
	r.currentBytes = r.currentTotal
	update := r.snapshot(UpdateComplete)
	r.mu.Unlock()

	r.emit(update)
}

// Skip reports a file left untouched
func (r *CallbackReporter) Skip(path, reason string) {
	r.mu.Lock()
	r.filesSkipped++
	update := r.snapshot(UpdateSkip)
	update.CurrentFile = path
	update.CurrentBytes = 0
	update.CurrentTotal = 0
	update.Reason = reason
	r.mu.Unlock()

	r.emit(update)
}

// Error reports an error on the current file
func (r *CallbackReporter) Error(err error) {
	r.mu.Lock()
	update := r.snapshot(UpdateError)
	update.Error = err
	r.mu.Unlock()

	r.emit(update)
}

// NewLineReporter returns a reporter that prints one line per finished file to w
func NewLineReporter(w io.Writer) *CallbackReporter {
	return NewCallbackReporter(func(u Update) {
		width := len(fmt.Sprint(u.FilesTotal))
		switch u.Type {
		case UpdateComplete:
			fmt.Fprintf(w, "[%*d/%d] installed %s (%s)\n", width, u.FilesCompleted+u.FilesSkipped, u.FilesTotal, u.CurrentFile, FormatBytes(u.CurrentTotal))
		case UpdateSkip:
			fmt.Fprintf(w, "[%*d/%d] skipped   %s (%s)\n", width, u.FilesCompleted+u.FilesSkipped, u.FilesTotal, u.CurrentFile, u.Reason)
		case UpdateError:
			fmt.Fprintf(w, "error: %s: %v\n", u.CurrentFile, u.Error)
		}
	})
}

// ProgressReader wraps an io.Reader to track read progress
type ProgressReader struct {
	reader      io.Reader
	reporter    Reporter
	transferred int64
}

// NewProgressReader creates a new progress-tracking reader
func NewProgressReader(r io.Reader, reporter Reporter) *ProgressReader {
	return &ProgressReader{
		reader:   r,
		reporter: reporter,
	}
}

// Read implements io.Reader
func (pr *ProgressReader) Read(p []byte) (n int, err error) {
	n, err = pr.reader.Read(p)
	if n > 0 {
		pr.transferred += int64(n)
		if pr.reporter != nil {
			pr.reporter.Update(pr.transferred)
		}
	}
	return n, err
}

// NullReporter is a no-op reporter
type NullReporter struct{}

func (NullReporter) SetTotal(totalFiles int, totalBytes int64) {}
func (NullReporter) Start(path string, totalBytes int64)       {}
func (NullReporter) Update(bytesTransferred int64)             {}
func (NullReporter) Complete()                                 {}
func (NullReporter) Skip(path, reason string)                  {}
func (NullReporter) Error(err error)                           {}

// FormatBytes formats bytes into human-readable string
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
