package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/diffdeck/internal/config"
	"github.com/zjrosen/diffdeck/internal/git"
	"github.com/zjrosen/diffdeck/internal/pubsub"
)

// fakeSource is an in-memory git.Source for engine tests.
type fakeSource struct {
	mu sync.Mutex

	diff        string
	diffErr     error
	commitDiffs map[string]string
	fullDiff    string
	untracked   []string
	files       map[string]string

	// batchMiss paths report OK=false from ReadFiles, forcing the
	// per-file fallback.
	batchMiss map[string]bool
	// slow paths block FileContent until the context expires.
	slow map[string]bool
	// onReadFiles runs inside ReadFiles, before it returns.
	onReadFiles func()
	// onCommitDiff runs inside CommitDiff, before it returns.
	onCommitDiff func()

	readFilesReqs []git.FileRequest
}

var _ git.Source = (*fakeSource)(nil)

func newFakeSource() *fakeSource {
	return &fakeSource{
		commitDiffs: map[string]string{},
		files:       map[string]string{},
		batchMiss:   map[string]bool{},
		slow:        map[string]bool{},
	}
}

func (f *fakeSource) IsGitRepo() bool                 { return true }
func (f *fakeSource) RepoRoot() (string, error)       { return "/repo", nil }
func (f *fakeSource) CurrentBranch() (string, error)  { return "feature", nil }
func (f *fakeSource) MainBranch() (string, error)     { return "main", nil }

func (f *fakeSource) Diff(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.diff, f.diffErr
}

func (f *fakeSource) CommitDiff(ctx context.Context, hash string) (string, error) {
	f.mu.Lock()
	d, ok := f.commitDiffs[hash]
	cb := f.onCommitDiff
	f.mu.Unlock()

	if cb != nil {
		cb()
	}
	if !ok {
		return "", git.ErrBadRevision
	}
	return d, nil
}

func (f *fakeSource) FullDiff(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fullDiff, nil
}

func (f *fakeSource) UntrackedFiles(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.untracked, nil
}

func (f *fakeSource) FileContent(ctx context.Context, path string) (string, error) {
	f.mu.Lock()
	isSlow := f.slow[path]
	content, ok := f.files[path]
	f.mu.Unlock()

	if isSlow {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if !ok {
		return "", fmt.Errorf("no such file: %s", path)
	}
	return content, nil
}

func (f *fakeSource) ReadFiles(ctx context.Context, reqs []git.FileRequest) map[string]git.FileResult {
	f.mu.Lock()
	f.readFilesReqs = append([]git.FileRequest(nil), reqs...)
	cb := f.onReadFiles
	f.mu.Unlock()

	if cb != nil {
		cb()
	}

	results := make(map[string]git.FileResult, len(reqs))
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range reqs {
		if f.batchMiss[req.Path] {
			results[req.Key] = git.FileResult{}
			continue
		}
		content, ok := f.files[req.Path]
		if !ok {
			results[req.Key] = git.FileResult{}
			continue
		}
		results[req.Key] = git.FileResult{OK: true, Content: content}
	}
	return results
}

func (f *fakeSource) CommitLog(ctx context.Context, limit int) ([]git.CommitInfo, error) {
	return nil, nil
}

// fileDiff builds one valid diff segment for a modified file.
func fileDiff(path string) string {
	return fmt.Sprintf(`diff --git a/%[1]s b/%[1]s
index 1111111..2222222 100644
--- a/%[1]s
+++ b/%[1]s
@@ -1,2 +1,3 @@
 one
+added
 two
`, path)
}

// diffWithFiles builds a diff touching n distinct files.
func diffWithFiles(n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteString(fileDiff(fmt.Sprintf("pkg/file%03d.go", i)))
	}
	return b.String()
}

// newTestSession builds a session with an immediate yielder and the
// default engine tunables.
func newTestSession(t *testing.T, opts Options) *Session {
	t.Helper()
	if opts.Yielder == nil {
		opts.Yielder = ImmediateYielder{}
	}
	s := New(opts)
	t.Cleanup(s.Close)
	return s
}

func TestSession_SetDiff_ReplacesRecordsAndStats(t *testing.T) {
	s := newTestSession(t, Options{})

	s.SetDiff(diffWithFiles(3))
	require.Equal(t, 3, s.Count())

	stats := s.Stats()
	require.Equal(t, 3, stats.FileCount)
	require.Equal(t, 3, stats.Additions)
	require.Equal(t, 0, stats.Deletions)
	require.True(t, stats.HasChanges())

	s.SetDiff("")
	require.Equal(t, 0, s.Count())
	require.False(t, s.Stats().HasChanges())
}

func TestSession_SetDiff_BumpsEpoch(t *testing.T) {
	s := newTestSession(t, Options{})
	before := s.Epoch()
	s.SetDiff(diffWithFiles(1))
	require.Greater(t, s.Epoch(), before)
}

func TestSession_Load_Uncommitted_IncludesUntracked(t *testing.T) {
	src := newFakeSource()
	src.diff = fileDiff("pkg/tracked.go")
	src.untracked = []string{"pkg/new.go"}
	src.files["pkg/new.go"] = "package pkg\n"

	s := newTestSession(t, Options{Source: src})
	require.NoError(t, s.Load(context.Background()))

	records := s.Records()
	require.Len(t, records, 2)
	require.Equal(t, "pkg/tracked.go", records[0].DisplayPath())
	require.Equal(t, "pkg/new.go", records[1].DisplayPath())
	require.True(t, records[1].Untracked)
	require.True(t, records[1].Created())
}

func TestSession_Load_CommitMode_SkipsUntracked(t *testing.T) {
	src := newFakeSource()
	src.commitDiffs["abc"] = fileDiff("pkg/a.go")
	src.untracked = []string{"pkg/new.go"}
	src.files["pkg/new.go"] = "x\n"

	s := newTestSession(t, Options{Source: src})
	require.NoError(t, s.SwitchMode(context.Background(), Commit("abc", "subject")))
	require.Equal(t, 1, s.Count())
}

func TestSession_Load_Failure_YieldsEmptyRecords(t *testing.T) {
	src := newFakeSource()
	src.diffErr = errors.New("git exploded")

	s := newTestSession(t, Options{Source: src})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := s.Subscribe(ctx)

	require.Error(t, s.Load(context.Background()))
	require.Equal(t, 0, s.Count())
	require.False(t, s.Loading())
	require.False(t, s.Stats().Loading)

	kinds := drainKinds(t, events, 2)
	require.Contains(t, kinds, UpdateRecords)
	require.Contains(t, kinds, UpdateLoadFailed)
}

func TestSession_SwitchMode_ClearsViewStateAndCache(t *testing.T) {
	src := newFakeSource()
	src.diff = fileDiff("pkg/a.go")
	src.files["pkg/a.go"] = "content\n"
	src.commitDiffs["abc"] = fileDiff("pkg/a.go")

	s := newTestSession(t, Options{Source: src})
	require.NoError(t, s.Load(context.Background()))

	key := s.Records()[0].Key
	s.ToggleCollapsed(key)
	require.True(t, s.ViewState(key).Collapsed)

	s.PrefetchContents(context.Background())
	_, cached := s.Content(key)
	require.True(t, cached)

	epochBefore := s.Epoch()
	require.NoError(t, s.SwitchMode(context.Background(), Commit("abc", "subject")))

	require.Greater(t, s.Epoch(), epochBefore)
	require.Equal(t, ModeCommit, s.Mode().Kind)

	// Same file, same key: state and cache must still be gone.
	key = s.Records()[0].Key
	require.False(t, s.ViewState(key).Collapsed)
	_, cached = s.Content(key)
	require.False(t, cached)
}

func TestSession_KeySetChange_ResetsViewState(t *testing.T) {
	s := newTestSession(t, Options{})

	s.SetDiff(diffWithFiles(11))
	require.True(t, s.IsAllCollapsed())

	survivor := s.Records()[2].Key

	// Shrinking below the threshold re-decides the policy for the new
	// set: files carried over default to expanded like everything else.
	s.SetDiff(diffWithFiles(5))
	require.True(t, s.IsAllExpanded())
	require.Equal(t, ViewState{}, s.ViewState(survivor))
}

func TestSession_KeySetChange_DropsSurvivorToggles(t *testing.T) {
	s := newTestSession(t, Options{})
	s.SetDiff(diffWithFiles(3))

	key := s.Records()[0].Key
	s.ToggleCollapsed(key)
	s.ToggleFullyExpanded(key)

	s.SetDiff(diffWithFiles(4))
	require.Equal(t, ViewState{}, s.ViewState(key))
}

func TestSession_SwitchMode_FencesInflightPrefetch(t *testing.T) {
	src := newFakeSource()
	src.diff = fileDiff("pkg/a.go")
	src.files["pkg/a.go"] = "old content\n"
	src.commitDiffs["abc"] = fileDiff("pkg/b.go")

	s := newTestSession(t, Options{Source: src})
	require.NoError(t, s.Load(context.Background()))
	oldKey := s.Records()[0].Key

	readEntered := make(chan struct{})
	readRelease := make(chan struct{})
	prefetchDone := make(chan struct{})
	src.mu.Lock()
	src.onReadFiles = func() {
		close(readEntered)
		<-readRelease
	}
	src.onCommitDiff = func() {
		// The switch has already flushed the cache; let the stale
		// prefetch finish while the reload is still in flight.
		close(readRelease)
		<-prefetchDone
	}
	src.mu.Unlock()

	go func() {
		s.PrefetchContents(context.Background())
		close(prefetchDone)
	}()
	<-readEntered

	require.NoError(t, s.SwitchMode(context.Background(), Commit("abc", "subject")))

	_, cached := s.Content(oldKey)
	require.False(t, cached, "stale prefetch repopulated the flushed cache")
}

func TestSession_Refresh_SameKeys_PreservesViewState(t *testing.T) {
	s := newTestSession(t, Options{})
	s.SetDiff(diffWithFiles(3))

	key := s.Records()[1].Key
	s.ToggleCollapsed(key)
	s.ToggleFullyExpanded(key)

	s.SetDiff(diffWithFiles(3))
	require.Equal(t, ViewState{Collapsed: true, FullyExpanded: true}, s.ViewState(key))
}

func TestSession_Subscribe_ObservesRecordReplacement(t *testing.T) {
	s := newTestSession(t, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := s.Subscribe(ctx)

	s.SetDiff(diffWithFiles(1))

	select {
	case ev := <-events:
		require.Equal(t, UpdateRecords, ev.Payload.Kind)
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}
}

func TestMode_String(t *testing.T) {
	require.Equal(t, "uncommitted", Uncommitted().String())
	require.Equal(t, "full diff", Full().String())
	require.Equal(t, "commit abc1234", Commit("abc1234def", "subject").String())
}

// drainKinds collects n update kinds from an event channel.
func drainKinds(t *testing.T, events <-chan pubsub.Event[Update], n int) []UpdateKind {
	t.Helper()
	kinds := make([]UpdateKind, 0, n)
	for i := 0; i < n; i++ {
		select {
		case ev := <-events:
			kinds = append(kinds, ev.Payload.Kind)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d of %d", i+1, n)
		}
	}
	return kinds
}

// engineWith returns the default tunables with overrides applied.
func engineWith(mutate func(*config.EngineConfig)) config.EngineConfig {
	engine := config.Defaults().Engine
	mutate(&engine)
	return engine
}
