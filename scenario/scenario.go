// Package scenario runs pages headless against the visibility tracker.
// A scenario file names a page, a viewport size and a list of scroll,
// resize, script and wait steps; the runner loads the page, applies the
// steps and reports which callbacks fired along the way.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default viewport size, matching dom.Window.
const (
	DefaultWidth  = 1024
	DefaultHeight = 768
)

// Scenario is a parsed scenario file.
type Scenario struct {
	Name     string        `yaml:"name,omitempty"`
	Viewport Viewport      `yaml:"viewport,omitempty"`
	Page     string        `yaml:"page,omitempty"`
	PageFile string        `yaml:"page_file,omitempty"`
	Coalesce time.Duration `yaml:"coalesce,omitempty"`
	Steps    []Step        `yaml:"steps,omitempty"`
	Expect   []string      `yaml:"expect,omitempty"`

	// File is the path the scenario was loaded from, if any.
	File string `yaml:"-"`
}

// Viewport is the window's inner size.
type Viewport struct {
	Width  float64 `yaml:"width,omitempty"`
	Height float64 `yaml:"height,omitempty"`
}

// Point is a scroll position.
type Point struct {
	X float64 `yaml:"x,omitempty"`
	Y float64 `yaml:"y,omitempty"`
}

// Step is one action. Exactly one of its fields is set.
type Step struct {
	Scroll *Point        `yaml:"scroll,omitempty"`
	Resize *Viewport     `yaml:"resize,omitempty"`
	Script string        `yaml:"script,omitempty"`
	Wait   time.Duration `yaml:"wait,omitempty"`
	Expect []string      `yaml:"expect,omitempty"`
}

// Action describes the step for reports.
func (s Step) Action() string {
	switch {
	case s.Scroll != nil:
		return fmt.Sprintf("scroll %g,%g", s.Scroll.X, s.Scroll.Y)
	case s.Resize != nil:
		return fmt.Sprintf("resize %gx%g", s.Resize.Width, s.Resize.Height)
	case s.Script != "":
		return "script"
	case s.Wait > 0:
		return "wait " + s.Wait.String()
	}
	return "none"
}

func (s Step) validate() error {
	set := 0
	if s.Scroll != nil {
		set++
	}
	if s.Resize != nil {
		set++
		if s.Resize.Width <= 0 || s.Resize.Height <= 0 {
			return fmt.Errorf("resize needs a positive width and height")
		}
	}
	if strings.TrimSpace(s.Script) != "" {
		set++
	}
	if s.Wait < 0 {
		return fmt.Errorf("negative wait %v", s.Wait)
	}
	if s.Wait > 0 {
		set++
	}
	if set != 1 {
		return fmt.Errorf("step must have exactly one of scroll, resize, script or wait, got %d", set)
	}
	return nil
}

// Parse decodes a scenario and resolves its defaults. Relative page_file
// paths are resolved against dir.
func Parse(data []byte, dir string) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario: %w", err)
	}
	if err := s.resolve(dir); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadFile reads and parses the scenario at path.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario: %w", err)
	}
	s, err := Parse(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.File = path
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

func (s *Scenario) resolve(dir string) error {
	s.Name = strings.TrimSpace(s.Name)

	if s.Viewport.Width <= 0 {
		s.Viewport.Width = DefaultWidth
	}
	if s.Viewport.Height <= 0 {
		s.Viewport.Height = DefaultHeight
	}
	if s.Coalesce < 0 {
		return fmt.Errorf("negative coalesce %v", s.Coalesce)
	}

	if s.PageFile != "" {
		if s.Page != "" {
			return errors.New("page and page_file are mutually exclusive")
		}
		path := s.PageFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read page_file: %w", err)
		}
		s.Page = string(data)
	}
	if strings.TrimSpace(s.Page) == "" {
		return errors.New("scenario has no page")
	}

	for i, step := range s.Steps {
		if err := step.validate(); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return nil
}
