package expose

import (
	"log"
	"slices"

	"github.com/chrisuehlinger/expose/region"
	"github.com/samber/lo"
)

// RegionProvider measures the viewport and the targets watched against it.
// All regions must share one coordinate space.
type RegionProvider[T comparable] interface {
	// ViewportRegion returns the current visible region. It is read fresh
	// on every call and never cached.
	ViewportRegion() (region.Region, error)
	// RegionOf returns the target's current outer box. An error means the
	// target cannot be measured right now (detached, not rendered).
	RegionOf(target T) (region.Region, error)
}

// TrackResult tells the caller of Track what happened to the registration.
type TrackResult int

const (
	// Tracked means the registration was stored and waits for a later pass.
	Tracked TrackResult = iota
	// AlreadyVisible means the target is in view now; the caller dispatches
	// the registration immediately and it is never stored.
	AlreadyVisible
)

// TrackedSet holds the registrations whose targets have not been visible
// yet, each with its target's last measured region.
//
// A target appears once per pending registration. Found-visible entries are
// marked during a pass and compacted out after it, so a pass never skips or
// revisits an entry.
type TrackedSet[T comparable] struct {
	provider RegionProvider[T]
	items    []*Registration[T]
	logger   *log.Logger
}

// NewTrackedSet creates an empty set measuring targets with provider.
func NewTrackedSet[T comparable](provider RegionProvider[T], logger *log.Logger) *TrackedSet[T] {
	return &TrackedSet[T]{
		provider: provider,
		logger:   logger,
	}
}

// Track checks reg's target against viewport. A visible target is reported
// as AlreadyVisible and not stored. Otherwise the target's region is cached
// and reg is stored. A target that cannot be measured is stored unmeasured
// and measured again on the next pass.
func (s *TrackedSet[T]) Track(reg *Registration[T], viewport region.Region) TrackResult {
	r, err := s.provider.RegionOf(reg.Target)
	if err == nil && region.Overlaps(viewport, r, region.Any) {
		return AlreadyVisible
	}
	if err != nil {
		s.logger.Printf("expose: tracking %s unmeasured: %v", reg.ID, UnmeasurableTarget("cannot measure target", err))
	} else {
		reg.region, reg.measured = r, true
	}
	reg.state = StateTracked
	s.items = append(s.items, reg)
	return Tracked
}

// ProcessOnce checks every registration present when the pass starts
// against viewport and returns the ones found visible, in visit order.
// Those are removed from the set. The others get their cached region
// refreshed from the live target.
func (s *TrackedSet[T]) ProcessOnce(viewport region.Region) []*Registration[T] {
	snapshot := slices.Clone(s.items)
	var visible []*Registration[T]

	for _, reg := range snapshot {
		if reg.removed || reg.state != StateTracked {
			continue
		}
		if !reg.measured && !s.measure(reg) {
			continue
		}
		if region.Overlaps(viewport, reg.region, region.Any) {
			reg.removed = true
			visible = append(visible, reg)
			continue
		}
		s.measure(reg)
	}

	if len(visible) > 0 {
		s.items = lo.Filter(s.items, func(reg *Registration[T], _ int) bool {
			return !reg.removed
		})
	}
	return visible
}

// measure refreshes reg's cached region. On failure the cache is dropped so
// a stale region cannot fire for a target that is no longer rendered.
func (s *TrackedSet[T]) measure(reg *Registration[T]) bool {
	r, err := s.provider.RegionOf(reg.Target)
	if err != nil {
		reg.measured = false
		s.logger.Printf("expose: skipping %s this pass: %v", reg.ID, UnmeasurableTarget("cannot measure target", err))
		return false
	}
	reg.region, reg.measured = r, true
	return true
}

// Len returns the number of pending registrations.
func (s *TrackedSet[T]) Len() int {
	return len(s.items)
}

// Contains reports whether target has at least one pending registration.
func (s *TrackedSet[T]) Contains(target T) bool {
	return s.Count(target) > 0
}

// Count returns the number of pending registrations for target.
func (s *TrackedSet[T]) Count(target T) int {
	return lo.CountBy(s.items, func(reg *Registration[T]) bool {
		return reg.Target == target
	})
}

// Registrations returns a snapshot of the pending registrations.
func (s *TrackedSet[T]) Registrations() []*Registration[T] {
	return slices.Clone(s.items)
}
