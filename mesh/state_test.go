package mesh

import (
	"sync"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwv/lloydmesh/lloyd"
)

func sessionPoints() []orb.Point {
	return []orb.Point{{0.1, 0.1}, {0.2, 0.15}, {0.15, 0.3}, {0.8, 0.9}, {0.5, 0.5}, {0.9, 0.2}}
}

func unitSession(t *testing.T) *Session {
	t.Helper()
	region, err := lloyd.FromBound(orb.Bound{Max: orb.Point{1, 1}})
	require.NoError(t, err)
	s, err := NewSession(sessionPoints(), lloyd.WithRegion(region), lloyd.WithWorkers(2))
	require.NoError(t, err)
	return s
}

// ---------------------------------------------------------------------------
// NewSession
// ---------------------------------------------------------------------------

func TestNewSession(t *testing.T) {
	s := unitSession(t)

	assert.NotEmpty(t, s.RunID())
	assert.Equal(t, 0, s.Iterations())
	assert.Equal(t, sessionPoints(), s.Points())
	assert.Empty(t, s.Cells(), "no cells before the first iteration")
	assert.InDelta(t, 1.0, s.Region().Area(), 1e-12)
}

func TestNewSession_Errors(t *testing.T) {
	_, err := NewSession([]orb.Point{{0, 0}, {1, 1}})
	assert.ErrorIs(t, err, lloyd.ErrInsufficientPoints)

	region, err := lloyd.FromBound(orb.Bound{Max: orb.Point{1, 1}})
	require.NoError(t, err)
	_, err = NewSession([]orb.Point{{0.5, 0.5}, {0.2, 0.2}, {3, 3}}, lloyd.WithRegion(region))
	assert.ErrorIs(t, err, lloyd.ErrInvalidRegion)
}

// ---------------------------------------------------------------------------
// Relax / Snapshot
// ---------------------------------------------------------------------------

func TestSession_Relax(t *testing.T) {
	s := unitSession(t)

	snap, err := s.Relax(3)
	require.NoError(t, err)

	assert.Equal(t, s.RunID(), snap.RunID)
	assert.Equal(t, 3, snap.Iteration)
	assert.Greater(t, snap.Displacement, 0.0)
	assert.NotZero(t, snap.Timestamp)
	require.Len(t, snap.Points, len(sessionPoints()))

	current := s.Points()
	for i, p := range snap.Points {
		assert.Equal(t, [2]float64{current[i][0], current[i][1]}, p)
	}
	assert.Len(t, s.Cells(), len(sessionPoints()))
}

func TestSession_RelaxNegative(t *testing.T) {
	s := unitSession(t)
	_, err := s.Relax(-1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), s.RunID())
}

func TestSession_SnapshotMatchesState(t *testing.T) {
	s := unitSession(t)
	_, err := s.Relax(1)
	require.NoError(t, err)

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.Iteration)
	assert.Equal(t, len(sessionPoints()), snap.Status().Count)
}

// ---------------------------------------------------------------------------
// Reset
// ---------------------------------------------------------------------------

func TestSession_Reset(t *testing.T) {
	s := unitSession(t)
	firstRun := s.RunID()

	_, err := s.Relax(5)
	require.NoError(t, err)
	require.NotEqual(t, sessionPoints(), s.Points())

	require.NoError(t, s.Reset())

	assert.NotEqual(t, firstRun, s.RunID(), "reset starts a new run")
	assert.Equal(t, 0, s.Iterations())
	assert.Equal(t, sessionPoints(), s.Points())
	assert.Empty(t, s.Cells())
}

func TestSession_InputIsCopied(t *testing.T) {
	points := sessionPoints()
	s, err := NewSession(points)
	require.NoError(t, err)

	points[0] = orb.Point{42, 42}
	require.NoError(t, s.Reset())
	assert.Equal(t, sessionPoints(), s.Points())
}

// ---------------------------------------------------------------------------
// Concurrency: readers and writers under -race
// ---------------------------------------------------------------------------

func TestSession_Concurrency(t *testing.T) {
	s := unitSession(t)

	const goroutines = 8
	var wg sync.WaitGroup
	wg.Add(goroutines * 2)

	for g := 0; g < goroutines; g++ {
		go func() {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				if _, err := s.Relax(1); err != nil {
					t.Errorf("Relax: %v", err)
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				_ = s.Points()
				_ = s.Cells()
				_ = s.Snapshot()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, goroutines*5, s.Iterations())
}
