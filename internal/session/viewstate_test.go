package session

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/diffdeck/internal/config"
)

func TestAutoCollapse_AtThreshold_StaysExpanded(t *testing.T) {
	s := newTestSession(t, Options{})
	s.SetDiff(diffWithFiles(10))

	require.True(t, s.IsAllExpanded())
	require.False(t, s.IsAllCollapsed())
}

func TestAutoCollapse_AboveThreshold_CollapsesAll(t *testing.T) {
	s := newTestSession(t, Options{})
	s.SetDiff(diffWithFiles(11))

	require.True(t, s.IsAllCollapsed())
	require.False(t, s.IsAllExpanded())
}

func TestAutoCollapse_ConfigurableThreshold(t *testing.T) {
	s := newTestSession(t, Options{
		Engine: engineWith(func(e *config.EngineConfig) { e.AutoCollapseThreshold = 2 }),
	})
	s.SetDiff(diffWithFiles(3))
	require.True(t, s.IsAllCollapsed())
}

func TestAutoCollapse_OnlyReevaluatedWhenKeySetChanges(t *testing.T) {
	s := newTestSession(t, Options{})
	s.SetDiff(diffWithFiles(11))
	require.True(t, s.IsAllCollapsed())

	s.ExpandAll()
	require.True(t, s.IsAllExpanded())

	// Refresh with the same files: the user's expansion survives.
	s.SetDiff(diffWithFiles(11))
	require.True(t, s.IsAllExpanded())

	// A different file set re-triggers the policy.
	s.SetDiff(diffWithFiles(12))
	require.True(t, s.IsAllCollapsed())
}

func TestToggleCollapsed(t *testing.T) {
	s := newTestSession(t, Options{})
	s.SetDiff(diffWithFiles(2))
	key := s.Records()[0].Key

	s.ToggleCollapsed(key)
	require.True(t, s.ViewState(key).Collapsed)
	require.False(t, s.IsAllCollapsed())
	require.False(t, s.IsAllExpanded())

	s.ToggleCollapsed(key)
	require.False(t, s.ViewState(key).Collapsed)

	// Unknown keys are ignored.
	s.ToggleCollapsed("no-such-key")
	require.Equal(t, ViewState{}, s.ViewState("no-such-key"))
}

func TestToggleFullyExpanded_IndependentOfCollapse(t *testing.T) {
	s := newTestSession(t, Options{})
	s.SetDiff(diffWithFiles(1))
	key := s.Records()[0].Key

	s.ToggleFullyExpanded(key)
	s.ToggleCollapsed(key)
	require.Equal(t, ViewState{Collapsed: true, FullyExpanded: true}, s.ViewState(key))

	// Reopening the file restores the full view.
	s.ToggleCollapsed(key)
	require.Equal(t, ViewState{FullyExpanded: true}, s.ViewState(key))
}

func TestCollapseAll_ThenExpandAll_SmallSetIsSynchronous(t *testing.T) {
	yielder := &CountingYielder{}
	s := newTestSession(t, Options{Yielder: yielder})
	s.SetDiff(diffWithFiles(4))

	s.CollapseAll()
	require.True(t, s.IsAllCollapsed())

	s.ExpandAll()
	require.True(t, s.IsAllExpanded())
	require.Empty(t, yielder.Pending, "small sets must not batch")
}

func TestExpandAll_LargeSetExpandsInBatches(t *testing.T) {
	yielder := &CountingYielder{}
	s := newTestSession(t, Options{Yielder: yielder})
	s.SetDiff(diffWithFiles(12))
	require.True(t, s.IsAllCollapsed())

	s.ExpandAll()
	require.Equal(t, 5, expandedCount(s), "first batch runs inline")

	require.True(t, yielder.Step())
	require.Equal(t, 10, expandedCount(s))

	require.True(t, yielder.Step())
	require.Equal(t, 12, expandedCount(s))
	require.True(t, s.IsAllExpanded())
	require.False(t, yielder.Step(), "no work left after the final batch")
}

func TestExpandAll_BatchSizeConfigurable(t *testing.T) {
	yielder := &CountingYielder{}
	s := newTestSession(t, Options{
		Yielder: yielder,
		Engine:  engineWith(func(e *config.EngineConfig) { e.ExpandBatchSize = 3 }),
	})
	s.SetDiff(diffWithFiles(11))

	s.ExpandAll()
	require.Equal(t, 3, expandedCount(s))
	yielder.Drain()
	require.True(t, s.IsAllExpanded())
}

func TestExpandAll_CancelledByCollapseAll(t *testing.T) {
	yielder := &CountingYielder{}
	s := newTestSession(t, Options{Yielder: yielder})
	s.SetDiff(diffWithFiles(12))

	s.ExpandAll()
	s.CollapseAll()
	yielder.Drain()

	require.True(t, s.IsAllCollapsed(), "stale batches must not expand after collapse-all")
}

func TestExpandAll_CancelledByRecordReplacement(t *testing.T) {
	yielder := &CountingYielder{}
	s := newTestSession(t, Options{Yielder: yielder})
	s.SetDiff(diffWithFiles(12))

	s.ExpandAll()
	s.SetDiff(diffWithFiles(13))
	yielder.Drain()

	require.True(t, s.IsAllCollapsed(), "batches from the old record set must be discarded")
}

func TestExpandAll_RestartSupersedesPreviousRun(t *testing.T) {
	yielder := &CountingYielder{}
	s := newTestSession(t, Options{Yielder: yielder})
	s.SetDiff(diffWithFiles(12))

	s.ExpandAll()
	first := len(yielder.Pending)
	require.Equal(t, 1, first)

	s.CollapseAll()
	s.ExpandAll()
	yielder.Drain()
	require.True(t, s.IsAllExpanded())
}

func TestIsAllCollapsed_EmptySession_VacuouslyBothTrue(t *testing.T) {
	s := newTestSession(t, Options{})
	require.True(t, s.IsAllCollapsed())
	require.True(t, s.IsAllExpanded())
}

// expandedCount counts records not currently collapsed.
func expandedCount(s *Session) int {
	n := 0
	for _, rec := range s.Records() {
		if !s.ViewState(rec.Key).Collapsed {
			n++
		}
	}
	return n
}
