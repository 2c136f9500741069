package paths

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveDataDir_AppendsSuffix(t *testing.T) {
	require.Equal(t, filepath.Join("/some/project", ".diffdeck"),
		ResolveDataDir("/some/project"))
}

func TestResolveDataDir_AcceptsDataDirItself(t *testing.T) {
	require.Equal(t, "/some/project/.diffdeck",
		ResolveDataDir("/some/project/.diffdeck"))
}

func TestResolveDataDir_EmptyMeansCwd(t *testing.T) {
	require.Equal(t, ".diffdeck", ResolveDataDir(""))
}

func TestResolveDataDir_FollowsRedirect(t *testing.T) {
	main := t.TempDir()
	mainData := filepath.Join(main, ".diffdeck")
	require.NoError(t, os.MkdirAll(mainData, 0o750))

	worktree := t.TempDir()
	wtData := filepath.Join(worktree, ".diffdeck")
	require.NoError(t, os.MkdirAll(wtData, 0o750))

	// Redirects are relative to the directory holding the file.
	rel, err := filepath.Rel(wtData, mainData)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(
		filepath.Join(wtData, "redirect"), []byte(rel+"\n"), 0o600))

	require.Equal(t, mainData, ResolveDataDir(worktree))
}

func TestResolveDataDir_EmptyRedirectIgnored(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, ".diffdeck")
	require.NoError(t, os.MkdirAll(data, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(data, "redirect"), []byte("  \n"), 0o600))

	require.Equal(t, data, ResolveDataDir(dir))
}
