package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	s, err := Parse([]byte(`
page: "<body></body>"
steps:
  - scroll: {y: 200}
  - wait: 20ms
`), ".")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if s.Viewport.Width != DefaultWidth || s.Viewport.Height != DefaultHeight {
		t.Errorf("Expected default viewport %dx%d, got %vx%v", DefaultWidth, DefaultHeight, s.Viewport.Width, s.Viewport.Height)
	}
	if len(s.Steps) != 2 {
		t.Fatalf("Expected 2 steps, got %d", len(s.Steps))
	}
	if got := s.Steps[0].Action(); got != "scroll 0,200" {
		t.Errorf("Expected 'scroll 0,200', got %q", got)
	}
	if s.Steps[1].Wait != 20*time.Millisecond {
		t.Errorf("Expected a 20ms wait, got %v", s.Steps[1].Wait)
	}
	if s.Expect != nil {
		t.Errorf("Expected no overall expectation, got %v", s.Expect)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no page", `viewport: {width: 100}`, "no page"},
		{"both pages", "page: \"<p></p>\"\npage_file: x.html", "mutually exclusive"},
		{"empty step", "page: \"<p></p>\"\nsteps:\n  - expect: [a]", "exactly one"},
		{"two actions", "page: \"<p></p>\"\nsteps:\n  - {scroll: {y: 1}, wait: 1ms}", "exactly one"},
		{"bad resize", "page: \"<p></p>\"\nsteps:\n  - resize: {width: 100}", "positive width"},
		{"bad yaml", "page: [", "failed to parse"},
	}

	for _, tt := range tests {
		_, err := Parse([]byte(tt.yaml), ".")
		if err == nil {
			t.Errorf("%s: expected an error", tt.name)
			continue
		}
		if !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: expected error containing %q, got %v", tt.name, tt.want, err)
		}
	}
}

func TestLoadFile(t *testing.T) {
	s, err := LoadFile(filepath.Join("testdata", "lazy.yaml"))
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}

	if s.Name != "lazy" {
		t.Errorf("Expected name from the file name, got %q", s.Name)
	}
	if !strings.Contains(s.Page, `id="footer"`) {
		t.Error("Expected page_file to be read relative to the scenario")
	}
	if s.Viewport.Width != 800 || s.Viewport.Height != 600 {
		t.Errorf("Expected viewport 800x600, got %vx%v", s.Viewport.Width, s.Viewport.Height)
	}
	if len(s.Steps) != 3 || s.Steps[2].Resize == nil {
		t.Fatalf("Expected 3 steps ending with a resize, got %+v", s.Steps)
	}
	if s.Steps[0].Expect == nil || len(s.Steps[0].Expect) != 0 {
		t.Errorf("Expected an explicit empty expectation, got %#v", s.Steps[0].Expect)
	}
}

func TestLoadFileErrors(t *testing.T) {
	if _, err := LoadFile(filepath.Join("testdata", "missing.yaml")); err == nil {
		t.Error("Expected an error for a missing file")
	}

	_, err := LoadFile(filepath.Join("testdata", "broken.yaml"))
	if err == nil || !strings.Contains(err.Error(), "broken.yaml") {
		t.Errorf("Expected the error to name the file, got %v", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "dangling.yaml")
	if err := os.WriteFile(path, []byte("page_file: nowhere.html\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); err == nil || !strings.Contains(err.Error(), "page_file") {
		t.Errorf("Expected a page_file error, got %v", err)
	}
}
