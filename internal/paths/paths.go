// Package paths provides path resolution utilities.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolveDataDir resolves the .diffdeck directory for a worktree.
// It normalizes the input (accepting either the project dir or the
// .diffdeck dir itself) and follows redirect files for git worktrees.
//
// Input normalization:
//   - "/path/to/project" -> "/path/to/project/.diffdeck"
//   - "/path/to/project/.diffdeck" -> "/path/to/project/.diffdeck"
//   - "" -> "./.diffdeck"
//
// Redirect handling:
//   - If .diffdeck/redirect exists, follows it to the actual location.
//   - This supports git worktrees that share the main worktree's
//     config, prefs and debug logs.
func ResolveDataDir(path string) string {
	if path == "" {
		path = "."
	}
	path = filepath.Clean(path)

	if filepath.Base(path) == ".diffdeck" {
		return followRedirect(path)
	}

	return followRedirect(filepath.Join(path, ".diffdeck"))
}

// followRedirect checks for a redirect file and follows it if present.
// Redirect files let git worktrees point at the main worktree's data.
func followRedirect(dataDir string) string {
	content, err := os.ReadFile(filepath.Join(dataDir, "redirect")) //nolint:gosec // redirect path is within the data dir
	if err != nil {
		return dataDir
	}

	target := strings.TrimSpace(string(content))
	if target == "" {
		return dataDir
	}

	return filepath.Clean(filepath.Join(dataDir, target))
}
