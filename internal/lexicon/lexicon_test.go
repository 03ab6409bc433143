package lexicon

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_ReturnsIndependentCopies(t *testing.T) {
	a := Default()
	b := Default()
	a.Travel[0] = "mutated"
	if b.Travel[0] == "mutated" {
		t.Fatalf("expected Default to return a fresh copy")
	}
	if Default().Travel[0] == "mutated" {
		t.Fatalf("mutation leaked into the built-in table")
	}
}

func TestDefault_KeepsPaddedAirlineCodes(t *testing.T) {
	want := map[string]bool{"tk ": false, " pc ": false, " xq ": false}
	for _, kw := range Default().Travel {
		if _, ok := want[kw]; ok {
			want[kw] = true
		}
	}
	for kw, seen := range want {
		if !seen {
			t.Fatalf("expected travel keyword %q to keep its padding", kw)
		}
	}
}

func TestParse_PartialOverrideKeepsDefaults(t *testing.T) {
	tb, err := Parse([]byte("legal:\n  - strictly private\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(tb.Legal) != 1 || tb.Legal[0] != "strictly private" {
		t.Fatalf("legal override not applied: %v", tb.Legal)
	}
	if len(tb.Travel) != len(Default().Travel) {
		t.Fatalf("travel list should fall back to defaults")
	}
	if len(tb.Markers) != len(Default().Markers) {
		t.Fatalf("markers should fall back to defaults")
	}
}

func TestParse_RejectsBlankEntries(t *testing.T) {
	if _, err := Parse([]byte("travel:\n  - otel\n  - \"  \"\n")); err == nil {
		t.Fatalf("expected error for blank keyword")
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tenant.yaml")
	content := "markers:\n  - \"\\nvon:\"\ntravel:\n  - flug\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	tb, err := LoadFile(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tb.Markers) != 1 || tb.Markers[0] != "\nvon:" {
		t.Fatalf("unexpected markers: %q", tb.Markers)
	}
	if len(tb.Travel) != 1 || tb.Travel[0] != "flug" {
		t.Fatalf("unexpected travel: %q", tb.Travel)
	}
	if _, err := LoadFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
