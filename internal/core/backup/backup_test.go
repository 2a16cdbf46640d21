package backup

import (
	"testing"
	"time"

	"github.com/Ning0612/Treemirror/internal/testutil"
)

func TestNamer_Name(t *testing.T) {
	clock := testutil.NewStubClock(time.Date(2024, 3, 5, 7, 8, 9, 0, time.Local))
	namer := NewNamer(clock)

	got := namer.Name("/home/u/.bashrc", func(string) bool { return false })
	want := "/home/u/.bashrc.bak.20240305_070809"
	if got != want {
		t.Errorf("Name() = %q, want %q", got, want)
	}
}

func TestNamer_Collision(t *testing.T) {
	clock := testutil.NewStubClock(time.Date(2024, 3, 5, 7, 8, 9, 0, time.Local))
	namer := NewNamer(clock)

	taken := map[string]bool{
		"f.bak.20240305_070809":   true,
		"f.bak.20240305_070809.1": true,
	}

	got := namer.Name("f", func(p string) bool { return taken[p] })
	if got != "f.bak.20240305_070809.2" {
		t.Errorf("Name() = %q, want second collision suffix", got)
	}
}

func TestNamer_AdvancingClock(t *testing.T) {
	clock := testutil.NewStubClock(time.Date(2024, 3, 5, 7, 8, 9, 0, time.Local))
	namer := NewNamer(clock)

	first := namer.Name("f", nil)
	clock.Advance(time.Second)
	second := namer.Name("f", nil)

	if first == second {
		t.Errorf("expected distinct names after clock advance, both %q", first)
	}
}

func TestNewNamer_NilClock(t *testing.T) {
	namer := NewNamer(nil)
	if namer.Name("f", nil) == "" {
		t.Error("expected a name from the real clock")
	}
}
