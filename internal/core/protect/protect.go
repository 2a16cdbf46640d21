package protect

import (
	"path"
	"path/filepath"

	"github.com/Ning0612/Treemirror/internal/domain"
)

// Func adapts a plain function to domain.ProtectionPolicy
type Func func(destRoot, relPath string) bool

// IsProtected implements domain.ProtectionPolicy
func (f Func) IsProtected(destRoot, relPath string) bool {
	return f(destRoot, relPath)
}

// None protects nothing
func None() domain.ProtectionPolicy {
	return Func(func(string, string) bool { return false })
}

// HomeNames protects files whose base name is in names, but only when the
// destination root is the home directory. Other installers own these files
// (the session bootstrap and window-manager session file, typically).
type HomeNames struct {
	home  string
	names map[string]struct{}
}

// NewHomeNames creates a HomeNames policy; an empty home disables it
func NewHomeNames(home string, names []string) *HomeNames {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n == "" {
			continue
		}
		set[n] = struct{}{}
	}
	return &HomeNames{
		home:  normalize(home),
		names: set,
	}
}

// IsProtected implements domain.ProtectionPolicy
func (h *HomeNames) IsProtected(destRoot, relPath string) bool {
	if h.home == "" || len(h.names) == 0 {
		return false
	}
	if normalize(destRoot) != h.home {
		return false
	}
	_, ok := h.names[path.Base(filepath.ToSlash(relPath))]
	return ok
}

func normalize(p string) string {
	if p == "" {
		return ""
	}
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	// Resolve symlinked homes (/home -> /var/home on some distros)
	if resolved, err := filepath.EvalSymlinks(p); err == nil {
		p = resolved
	}
	return filepath.Clean(p)
}
