package git

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// initTestRepo creates a throwaway repository with one committed file.
func initTestRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, "git %v: %s", args, out)
	}

	run("init", "-b", "main")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "Test")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "tracked.txt"), []byte("one\ntwo\n"), 0o644))
	run("add", ".")
	run("commit", "-m", "initial commit")

	return dir
}

func TestRealSource_IsGitRepo(t *testing.T) {
	dir := initTestRepo(t)
	require.True(t, NewRealSource(dir).IsGitRepo())
	require.False(t, NewRealSource(t.TempDir()).IsGitRepo())
}

func TestRealSource_Diff_Uncommitted(t *testing.T) {
	dir := initTestRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tracked.txt"), []byte("one\nchanged\n"), 0o644))

	out, err := NewRealSource(dir).Diff(context.Background())
	require.NoError(t, err)
	require.Contains(t, out, "diff --git a/tracked.txt b/tracked.txt")
	require.Contains(t, out, "+changed")
	require.Contains(t, out, "-two")
}

func TestRealSource_Diff_Clean(t *testing.T) {
	dir := initTestRepo(t)
	out, err := NewRealSource(dir).Diff(context.Background())
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestRealSource_CommitDiff(t *testing.T) {
	dir := initTestRepo(t)
	src := NewRealSource(dir)

	commits, err := src.CommitLog(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	require.Equal(t, "initial commit", commits[0].Subject)

	out, err := src.CommitDiff(context.Background(), commits[0].Hash)
	require.NoError(t, err)
	require.Contains(t, out, "tracked.txt")
	require.Contains(t, out, "+one")
}

func TestRealSource_CommitDiff_BadHash(t *testing.T) {
	dir := initTestRepo(t)
	_, err := NewRealSource(dir).CommitDiff(context.Background(), "deadbeef")
	require.Error(t, err)
}

func TestRealSource_UntrackedFiles(t *testing.T) {
	dir := initTestRepo(t)
	src := NewRealSource(dir)

	files, err := src.UntrackedFiles(context.Background())
	require.NoError(t, err)
	require.Empty(t, files)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("hi\n"), 0o644))
	files, err = src.UntrackedFiles(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"new.txt"}, files)
}

func TestRealSource_FileContent_FallsBackToCommitted(t *testing.T) {
	dir := initTestRepo(t)
	src := NewRealSource(dir)

	content, err := src.FileContent(context.Background(), "tracked.txt")
	require.NoError(t, err)
	require.Equal(t, "one\ntwo\n", content)

	// Delete from disk: the committed version is still readable.
	require.NoError(t, os.Remove(filepath.Join(dir, "tracked.txt")))
	content, err = src.FileContent(context.Background(), "tracked.txt")
	require.NoError(t, err)
	require.Equal(t, "one\ntwo\n", content)
}

func TestRealSource_ReadFiles_IsolatesFailures(t *testing.T) {
	dir := initTestRepo(t)
	src := NewRealSource(dir)

	results := src.ReadFiles(context.Background(), []FileRequest{
		{Key: "k1", Path: "tracked.txt"},
		{Key: "k2", Path: "does-not-exist.txt"},
	})

	require.True(t, results["k1"].OK)
	require.Equal(t, "one\ntwo\n", results["k1"].Content)
	require.False(t, results["k2"].OK)
}

func TestClassifyGitError(t *testing.T) {
	err := classifyGitError("fatal: not a git repository (or any parent)", errors.New("exit 128"))
	require.ErrorIs(t, err, ErrNotGitRepo)

	err = classifyGitError("fatal: bad revision 'nope^!'", errors.New("exit 128"))
	require.ErrorIs(t, err, ErrBadRevision)

	err = classifyGitError("fatal: something else", errors.New("exit 1"))
	require.NotErrorIs(t, err, ErrNotGitRepo)
}

func TestParseCommitLog(t *testing.T) {
	raw := "abc123\x00abc\x00subject line\x00Alice\x002026-01-02T10:00:00+00:00\x00body text\x1e"
	commits := parseCommitLog(raw)
	require.Len(t, commits, 1)
	require.Equal(t, "abc123", commits[0].Hash)
	require.Equal(t, "subject line", commits[0].Subject)
	require.Equal(t, "Alice", commits[0].Author)
	require.Equal(t, "body text", commits[0].Body)
	require.False(t, commits[0].Date.IsZero())
}
