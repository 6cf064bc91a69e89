package mesh

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/paulmach/orb"

	"github.com/kwv/lloydmesh/lloyd"
)

// Session is a relaxation run shared between the HTTP handlers and the
// publisher. It keeps the input points so the run can be restarted.
type Session struct {
	mu       sync.RWMutex
	field    *lloyd.Field
	original []orb.Point
	opts     []lloyd.Option
	runID    string
}

// NewSession creates a field over points with opts and assigns a fresh run id
func NewSession(points []orb.Point, opts ...lloyd.Option) (*Session, error) {
	field, err := lloyd.New(points, opts...)
	if err != nil {
		return nil, err
	}

	original := make([]orb.Point, len(points))
	copy(original, points)

	s := &Session{
		field:    field,
		original: original,
		opts:     opts,
		runID:    uuid.NewString(),
	}
	log.Debug("Session started", "run", s.runID, "points", len(points))
	return s, nil
}

// Relax runs n more iterations and returns the resulting snapshot
func (s *Session) Relax(n int) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.field.Relax(n); err != nil {
		return Snapshot{}, fmt.Errorf("run %s: %w", s.runID, err)
	}
	return s.snapshotLocked(), nil
}

// Reset restores the input points and starts a new run
func (s *Session) Reset() error {
	field, err := lloyd.New(s.original, s.opts...)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.runID
	s.field = field
	s.runID = uuid.NewString()
	log.Info("Session reset", "previous", previous, "run", s.runID)
	return nil
}

// Snapshot returns the current state for publishing
func (s *Session) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		RunID:        s.runID,
		Iteration:    s.field.Iterations(),
		Displacement: s.field.Displacement(),
		Points:       pairs(s.field.Points()),
		Timestamp:    time.Now().Unix(),
	}
}

// Points returns a copy of the current positions
func (s *Session) Points() []orb.Point {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.field.Points()
}

// Cells returns the clipped cells of the last iteration
func (s *Session) Cells() map[int]orb.Ring {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.field.Cells()
}

// Region returns the bounding region of the run
func (s *Session) Region() *lloyd.Region {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.field.Region()
}

// RunID returns the identifier of the current run
func (s *Session) RunID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runID
}

// Iterations returns how many iterations the current run has completed
func (s *Session) Iterations() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.field.Iterations()
}
