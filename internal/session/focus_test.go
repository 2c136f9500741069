package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/diffdeck/internal/config"
)

func TestLocate_ExactMatch(t *testing.T) {
	s := newTestSession(t, Options{})
	s.SetDiff(fileDiff("internal/api/handlers/user.go") + fileDiff("internal/api/router.go"))

	key, ok := s.Locate("internal/api/router.go")
	require.True(t, ok)
	require.Equal(t, s.Records()[1].Key, key)
}

func TestLocate_SuffixMatch(t *testing.T) {
	s := newTestSession(t, Options{})
	s.SetDiff(fileDiff("internal/api/handlers/user.go"))
	want := s.Records()[0].Key

	// Query shorter than the recorded path.
	key, ok := s.Locate("handlers/user.go")
	require.True(t, ok)
	require.Equal(t, want, key)

	// Query longer than the recorded path.
	s.SetDiff(fileDiff("user.go"))
	want = s.Records()[0].Key
	key, ok = s.Locate("some/other/prefix/user.go")
	require.True(t, ok)
	require.Equal(t, want, key)
}

func TestLocate_ExactMatchWinsOverSuffix(t *testing.T) {
	s := newTestSession(t, Options{})
	s.SetDiff(fileDiff("vendor/pkg/util.go") + fileDiff("pkg/util.go"))

	key, ok := s.Locate("pkg/util.go")
	require.True(t, ok)
	require.Equal(t, s.Records()[1].Key, key, "exact match beats an earlier suffix match")
}

func TestLocate_MatchesOldPathOfDeletedFile(t *testing.T) {
	s := newTestSession(t, Options{})
	s.SetDiff(`diff --git a/pkg/gone.go b/pkg/gone.go
deleted file mode 100644
index 1111111..0000000
--- a/pkg/gone.go
+++ /dev/null
@@ -1,1 +0,0 @@
-one
`)

	_, ok := s.Locate("pkg/gone.go")
	require.True(t, ok)
}

func TestLocate_Miss(t *testing.T) {
	s := newTestSession(t, Options{})
	s.SetDiff(fileDiff("a.go"))

	_, ok := s.Locate("unrelated.go")
	require.False(t, ok)
	_, ok = s.Locate("")
	require.False(t, ok)
	require.Empty(t, s.HighlightedKey())
}

func TestLocate_ExpandsCollapsedMatch(t *testing.T) {
	s := newTestSession(t, Options{})
	s.SetDiff(diffWithFiles(11))
	require.True(t, s.IsAllCollapsed())

	key, ok := s.Locate("pkg/file003.go")
	require.True(t, ok)
	require.False(t, s.ViewState(key).Collapsed)
}

func TestConsumeFocus_OneShot(t *testing.T) {
	s := newTestSession(t, Options{})
	s.SetDiff(fileDiff("a.go"))

	key, ok := s.Locate("a.go")
	require.True(t, ok)

	req, ok := s.ConsumeFocus()
	require.True(t, ok)
	require.Equal(t, key, req.Key)

	_, ok = s.ConsumeFocus()
	require.False(t, ok, "a focus request is delivered once")

	// The highlight outlives the consumed scroll request.
	require.Equal(t, key, s.HighlightedKey())
}

func TestFocus_HighlightExpires(t *testing.T) {
	s := newTestSession(t, Options{
		Engine: engineWith(func(e *config.EngineConfig) { e.HighlightMS = 10 }),
	})
	s.SetDiff(fileDiff("a.go"))

	key, ok := s.Locate("a.go")
	require.True(t, ok)
	require.Equal(t, key, s.HighlightedKey())

	require.Eventually(t, func() bool {
		return s.HighlightedKey() == ""
	}, time.Second, 5*time.Millisecond)
}

func TestFocus_NewLocateSupersedesOldTimer(t *testing.T) {
	s := newTestSession(t, Options{
		Engine: engineWith(func(e *config.EngineConfig) { e.HighlightMS = 30 }),
	})
	s.SetDiff(fileDiff("a.go") + fileDiff("b.go"))

	_, ok := s.Locate("a.go")
	require.True(t, ok)
	time.Sleep(10 * time.Millisecond)

	keyB, ok := s.Locate("b.go")
	require.True(t, ok)

	// The first timer firing must not clear the second highlight.
	time.Sleep(25 * time.Millisecond)
	require.Equal(t, keyB, s.HighlightedKey())
}

func TestClearFocus_Immediate(t *testing.T) {
	s := newTestSession(t, Options{})
	s.SetDiff(fileDiff("a.go"))

	_, ok := s.Locate("a.go")
	require.True(t, ok)

	s.ClearFocus()
	require.Empty(t, s.HighlightedKey())
	_, ok = s.ConsumeFocus()
	require.False(t, ok)
}

func TestFocus_ClearedByRecordReplacement(t *testing.T) {
	s := newTestSession(t, Options{})
	s.SetDiff(fileDiff("a.go"))

	_, ok := s.Locate("a.go")
	require.True(t, ok)

	s.SetDiff(fileDiff("a.go") + fileDiff("b.go"))
	require.Empty(t, s.HighlightedKey())
	_, ok = s.ConsumeFocus()
	require.False(t, ok)
}
