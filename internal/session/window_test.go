package session

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/diffdeck/internal/cachemanager"
	"github.com/zjrosen/diffdeck/internal/config"
)

// newFileDiff builds a created-file diff with the given number of
// added lines.
func newFileDiff(path string, added int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "diff --git a/%s b/%s\n", path, path)
	b.WriteString("new file mode 100644\nindex 0000000..2222222\n")
	fmt.Fprintf(&b, "--- /dev/null\n+++ b/%s\n", path)
	fmt.Fprintf(&b, "@@ -0,0 +1,%d @@\n", added)
	for i := 0; i < added; i++ {
		fmt.Fprintf(&b, "+line %d\n", i)
	}
	return b.String()
}

func TestEstimateHeight_CollapsedIsFixed(t *testing.T) {
	s := newTestSession(t, Options{})
	s.SetDiff(newFileDiff("big.go", 500) + fileDiff("small.go"))

	s.CollapseAll()
	require.Equal(t, 40, s.EstimateHeight(0))
	require.Equal(t, 40, s.EstimateHeight(1))
}

func TestEstimateHeight_ClampedToBounds(t *testing.T) {
	s := newTestSession(t, Options{})
	s.SetDiff(fileDiff("tiny.go") + newFileDiff("huge.go", 500))

	// 1 changed line estimates below the floor; 500 above the ceiling.
	require.Equal(t, 150, s.EstimateHeight(0))
	require.Equal(t, 800, s.EstimateHeight(1))
}

func TestEstimateHeight_ScalesWithChangeCount(t *testing.T) {
	s := newTestSession(t, Options{})
	s.SetDiff(newFileDiff("mid.go", 20))

	// header 40 + 20 lines * 18.
	require.Equal(t, 400, s.EstimateHeight(0))
}

func TestEstimateHeight_MeasuredOverridesEstimate(t *testing.T) {
	s := newTestSession(t, Options{})
	s.SetDiff(fileDiff("a.go"))
	key := s.Records()[0].Key

	require.Equal(t, 150, s.EstimateHeight(0))

	s.SetMeasuredHeight(key, 222)
	require.Equal(t, 222, s.EstimateHeight(0))

	// Measured heights even override the collapsed height.
	s.ToggleCollapsed(key)
	require.Equal(t, 222, s.EstimateHeight(0))

	s.InvalidateHeights()
	require.Equal(t, 40, s.EstimateHeight(0))
}

func TestSetMeasuredHeight_IgnoresUnknownKeysAndBadValues(t *testing.T) {
	s := newTestSession(t, Options{})
	s.SetDiff(fileDiff("a.go"))
	key := s.Records()[0].Key

	s.SetMeasuredHeight("no-such-key", 100)
	s.SetMeasuredHeight(key, 0)
	s.SetMeasuredHeight(key, -5)
	require.Equal(t, 150, s.EstimateHeight(0))
}

func TestEstimateHeight_FullyExpandedUsesCachedContent(t *testing.T) {
	cache := cachemanager.NewInMemoryCacheManager[string, string]("test", time.Minute, time.Minute)
	s := newTestSession(t, Options{Cache: cache})
	s.SetDiff(fileDiff("a.go"))
	key := s.Records()[0].Key

	s.ToggleFullyExpanded(key)
	// Not cached yet: falls back to the change-count estimate.
	require.Equal(t, 150, s.EstimateHeight(0))

	cache.Set(context.Background(), key, strings.Repeat("x\n", 29)+"x", 0)
	// header 40 + 30 content lines * 18.
	require.Equal(t, 580, s.EstimateHeight(0))
}

func TestEstimateHeight_OutOfRange(t *testing.T) {
	s := newTestSession(t, Options{})
	s.SetDiff(fileDiff("a.go"))
	require.Equal(t, 0, s.EstimateHeight(-1))
	require.Equal(t, 0, s.EstimateHeight(5))
}

func TestTotalHeightAndOffsets(t *testing.T) {
	s := newTestSession(t, Options{})
	s.SetDiff(diffWithFiles(3))
	s.CollapseAll()

	require.Equal(t, 120, s.TotalHeight())
	require.Equal(t, 0, s.OffsetOf(0))
	require.Equal(t, 40, s.OffsetOf(1))
	require.Equal(t, 80, s.OffsetOf(2))
}

func TestVisibleRange(t *testing.T) {
	s := newTestSession(t, Options{
		Engine: engineWith(func(e *config.EngineConfig) { e.Overscan = 0 }),
	})
	s.SetDiff(diffWithFiles(10))
	s.CollapseAll() // 10 records, 40 units each

	first, last := s.VisibleRange(0, 100)
	require.Equal(t, 0, first)
	require.Equal(t, 2, last)

	first, last = s.VisibleRange(200, 100)
	require.Equal(t, 5, first)
	require.Equal(t, 7, last)
}

func TestVisibleRange_OverscanWidensWindow(t *testing.T) {
	s := newTestSession(t, Options{
		Engine: engineWith(func(e *config.EngineConfig) { e.Overscan = 80 }),
	})
	s.SetDiff(diffWithFiles(10))
	s.CollapseAll()

	first, last := s.VisibleRange(200, 100)
	require.Equal(t, 3, first)
	require.Equal(t, 9, last)
}

func TestVisibleRange_Empty(t *testing.T) {
	s := newTestSession(t, Options{})
	first, last := s.VisibleRange(0, 100)
	require.Equal(t, 0, first)
	require.Equal(t, -1, last)
}

func TestVisibleRange_ScrolledPastEnd(t *testing.T) {
	s := newTestSession(t, Options{
		Engine: engineWith(func(e *config.EngineConfig) { e.Overscan = 0 }),
	})
	s.SetDiff(diffWithFiles(3))
	s.CollapseAll()

	first, last := s.VisibleRange(10_000, 100)
	require.Equal(t, 2, first)
	require.Equal(t, 2, last)
}

func TestVisibleRange_Property_CoversViewport(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := New(Options{Yielder: ImmediateYielder{}})
		defer s.Close()

		n := rapid.IntRange(1, 40).Draw(rt, "files")
		s.SetDiff(diffWithFiles(n))

		total := s.TotalHeight()
		scrollTop := rapid.IntRange(0, total).Draw(rt, "scrollTop")
		viewport := rapid.IntRange(1, 1000).Draw(rt, "viewport")

		first, last := s.VisibleRange(scrollTop, viewport)
		require.GreaterOrEqual(rt, first, 0)
		require.Less(rt, last, n)
		require.LessOrEqual(rt, first, last)

		// Everything strictly inside the viewport is inside the range.
		offset := 0
		for i := 0; i < n; i++ {
			h := s.EstimateHeight(i)
			if offset < scrollTop+viewport && offset+h > scrollTop {
				require.GreaterOrEqual(rt, i, first, "record %d visible but below range start", i)
				require.LessOrEqual(rt, i, last, "record %d visible but past range end", i)
			}
			offset += h
		}
	})
}
