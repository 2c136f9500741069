package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/diffdeck/internal/config"
)

// sourceWithFiles seeds a fake source so every file in diffWithFiles(n)
// has readable content.
func sourceWithFiles(n int) *fakeSource {
	src := newFakeSource()
	src.diff = diffWithFiles(n)
	for i := 0; i < n; i++ {
		path := fmt.Sprintf("pkg/file%03d.go", i)
		src.files[path] = fmt.Sprintf("content of %s\n", path)
	}
	return src
}

func cachedCount(s *Session) int {
	n := 0
	for _, rec := range s.Records() {
		if _, ok := s.Content(rec.Key); ok {
			n++
		}
	}
	return n
}

func TestPrefetch_BoundedToMaxPrefetch(t *testing.T) {
	src := sourceWithFiles(50)
	s := newTestSession(t, Options{Source: src})
	require.NoError(t, s.Load(context.Background()))

	s.PrefetchContents(context.Background())

	require.Len(t, src.readFilesReqs, 20)
	require.Equal(t, 20, cachedCount(s))

	// The bound selects in list order: the first 20 records are the
	// ones cached.
	for i, rec := range s.Records() {
		_, ok := s.Content(rec.Key)
		require.Equal(t, i < 20, ok, "record %d", i)
	}
}

func TestPrefetch_BoundConfigurable(t *testing.T) {
	src := sourceWithFiles(10)
	s := newTestSession(t, Options{
		Source: src,
		Engine: engineWith(func(e *config.EngineConfig) { e.MaxPrefetch = 3 }),
	})
	require.NoError(t, s.Load(context.Background()))

	s.PrefetchContents(context.Background())
	require.Equal(t, 3, cachedCount(s))
}

func TestPrefetch_SkipsBinaryFiles(t *testing.T) {
	src := newFakeSource()
	src.diff = "diff --git a/img.png b/img.png\n" +
		"index 1111111..2222222 100644\n" +
		"Binary files a/img.png and b/img.png differ\n" +
		fileDiff("pkg/a.go")
	src.files["pkg/a.go"] = "text\n"
	src.files["img.png"] = "\x89PNG"

	s := newTestSession(t, Options{Source: src})
	require.NoError(t, s.Load(context.Background()))
	require.Equal(t, 2, s.Count())

	s.PrefetchContents(context.Background())

	require.Len(t, src.readFilesReqs, 1)
	require.Equal(t, "pkg/a.go", src.readFilesReqs[0].Path)
}

func TestPrefetch_SkipsAlreadyCachedKeys(t *testing.T) {
	src := sourceWithFiles(3)
	s := newTestSession(t, Options{Source: src})
	require.NoError(t, s.Load(context.Background()))

	s.PrefetchContents(context.Background())
	require.Equal(t, 3, cachedCount(s))

	src.mu.Lock()
	src.readFilesReqs = nil
	src.mu.Unlock()

	// Everything is cached: the second pass issues no reads at all.
	s.PrefetchContents(context.Background())
	require.Empty(t, src.readFilesReqs)
}

func TestPrefetch_DeletedFileReadsOldPath(t *testing.T) {
	src := newFakeSource()
	src.diff = `diff --git a/pkg/gone.go b/pkg/gone.go
deleted file mode 100644
index 1111111..0000000
--- a/pkg/gone.go
+++ /dev/null
@@ -1,2 +0,0 @@
-one
-two
`
	src.files["pkg/gone.go"] = "one\ntwo\n"

	s := newTestSession(t, Options{Source: src})
	require.NoError(t, s.Load(context.Background()))

	s.PrefetchContents(context.Background())
	require.Len(t, src.readFilesReqs, 1)
	require.Equal(t, "pkg/gone.go", src.readFilesReqs[0].Path)
	require.Equal(t, 1, cachedCount(s))
}

func TestPrefetch_FailureIsolation(t *testing.T) {
	src := sourceWithFiles(3)
	delete(src.files, "pkg/file001.go")

	s := newTestSession(t, Options{Source: src})
	require.NoError(t, s.Load(context.Background()))

	s.PrefetchContents(context.Background())

	records := s.Records()
	_, ok := s.Content(records[0].Key)
	require.True(t, ok)
	_, ok = s.Content(records[1].Key)
	require.False(t, ok, "unreadable file is omitted, not fatal")
	_, ok = s.Content(records[2].Key)
	require.True(t, ok)
}

func TestPrefetch_BatchMissFallsBackToPerFileFetch(t *testing.T) {
	src := sourceWithFiles(2)
	src.batchMiss["pkg/file000.go"] = true

	s := newTestSession(t, Options{Source: src})
	require.NoError(t, s.Load(context.Background()))

	s.PrefetchContents(context.Background())
	require.Equal(t, 2, cachedCount(s), "per-file retry resolves batch misses")
}

func TestPrefetch_SlowFileTimesOutWithoutStallingOthers(t *testing.T) {
	src := sourceWithFiles(3)
	src.batchMiss["pkg/file001.go"] = true
	src.slow["pkg/file001.go"] = true

	s := newTestSession(t, Options{
		Source: src,
		Engine: engineWith(func(e *config.EngineConfig) { e.FetchTimeoutMS = 10 }),
	})
	require.NoError(t, s.Load(context.Background()))

	s.PrefetchContents(context.Background())

	records := s.Records()
	_, ok := s.Content(records[1].Key)
	require.False(t, ok, "timed-out file is omitted")
	require.Equal(t, 2, cachedCount(s))
}

func TestPrefetch_StaleEpochDiscarded(t *testing.T) {
	src := sourceWithFiles(2)
	s := newTestSession(t, Options{Source: src})
	require.NoError(t, s.Load(context.Background()))

	// Replace the records while the batch read is in flight: the
	// prefetch started under the old epoch and must discard everything.
	src.onReadFiles = func() {
		s.SetDiff(diffWithFiles(2))
	}

	s.PrefetchContents(context.Background())
	require.Equal(t, 0, cachedCount(s))
}
