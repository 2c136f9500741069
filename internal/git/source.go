// Package git implements the version-control query service the diff
// engine reads from: diff text for the three viewing modes, file
// contents for prefetching, and commit history for the commit picker.
package git

import (
	"context"
	"time"
)

// CommitInfo holds information about a git commit.
type CommitInfo struct {
	Hash      string    // Full 40-char SHA
	ShortHash string    // 7-char abbreviated hash
	Subject   string    // First line of commit message
	Body      string    // Remaining commit message (markdown-ish)
	Author    string    // Author name
	Date      time.Time // Commit timestamp
}

// FileRequest identifies one file content to resolve: the diff record
// key it belongs to and the repo-relative path to read.
type FileRequest struct {
	Key  string
	Path string
}

// FileResult is the outcome of a single file read. OK=false means the
// content is unavailable; the cause is intentionally not propagated
// since one failed file must not affect the rest of a batch.
type FileResult struct {
	OK      bool
	Content string
}

// Source defines the version-control query surface the diff engine
// depends on. The abstraction keeps the engine testable with fake
// sources and isolates it from git process details.
type Source interface {
	IsGitRepo() bool
	RepoRoot() (string, error)
	CurrentBranch() (string, error)
	MainBranch() (string, error)

	// Diff returns the unified diff of uncommitted changes
	// (staged + unstaged vs HEAD).
	Diff(ctx context.Context) (string, error)
	// CommitDiff returns the diff introduced by a single commit.
	CommitDiff(ctx context.Context, hash string) (string, error)
	// FullDiff returns the diff of the whole branch: merge-base with
	// the main branch through the working tree.
	FullDiff(ctx context.Context) (string, error)

	// UntrackedFiles returns paths of files not yet known to git.
	UntrackedFiles(ctx context.Context) ([]string, error)
	// FileContent reads one file from the working tree, falling back
	// to the last committed version when the path is gone from disk.
	FileContent(ctx context.Context, path string) (string, error)
	// ReadFiles resolves a batch of file contents. Failures are
	// isolated per key: a missing or unreadable file yields OK=false
	// for that key only, never an error for the batch.
	ReadFiles(ctx context.Context, reqs []FileRequest) map[string]FileResult

	// CommitLog returns the most recent commits, up to limit.
	CommitLog(ctx context.Context, limit int) ([]CommitInfo, error)
}
