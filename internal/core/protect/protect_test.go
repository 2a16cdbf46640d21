package protect

import (
	"path/filepath"
	"testing"
)

func TestHomeNames_IsProtected(t *testing.T) {
	home := t.TempDir()
	policy := NewHomeNames(home, []string{".xinitrc", ".bash_profile"})

	tests := []struct {
		name     string
		destRoot string
		relPath  string
		expected bool
	}{
		{"protected name in home", home, ".xinitrc", true},
		{"second protected name", home, ".bash_profile", true},
		{"unprotected name in home", home, ".bashrc", false},
		{"protected base name in subdirectory", home, "sub/.xinitrc", true},
		{"protected name outside home", filepath.Join(home, ".config"), ".xinitrc", false},
		{"home with trailing separator", home + string(filepath.Separator), ".xinitrc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.IsProtected(tt.destRoot, tt.relPath); got != tt.expected {
				t.Errorf("IsProtected(%q, %q) = %v, want %v", tt.destRoot, tt.relPath, got, tt.expected)
			}
		})
	}
}

func TestHomeNames_EmptyHome(t *testing.T) {
	policy := NewHomeNames("", []string{".xinitrc"})
	if policy.IsProtected("/anything", ".xinitrc") {
		t.Error("policy with empty home should protect nothing")
	}
}

func TestHomeNames_SkipsEmptyNames(t *testing.T) {
	home := t.TempDir()
	policy := NewHomeNames(home, []string{"", ".xinitrc", ""})
	if !policy.IsProtected(home, ".xinitrc") {
		t.Error(".xinitrc should be protected")
	}
	if len(policy.names) != 1 {
		t.Errorf("expected 1 name, got %v", policy.names)
	}
}

func TestNone(t *testing.T) {
	if None().IsProtected("/home/user", ".xinitrc") {
		t.Error("None() should protect nothing")
	}
}

func TestFunc(t *testing.T) {
	called := false
	policy := Func(func(destRoot, relPath string) bool {
		called = true
		return relPath == "keep"
	})

	if !policy.IsProtected("/x", "keep") {
		t.Error("expected keep to be protected")
	}
	if !called {
		t.Error("function was not called")
	}
}
