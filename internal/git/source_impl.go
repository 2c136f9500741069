package git

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/diffdeck/internal/log"
)

// Git-specific errors surfaced to callers.
var (
	// ErrNotGitRepo indicates the directory is not a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrBadRevision indicates an unknown commit hash or ref.
	ErrBadRevision = errors.New("bad revision")

	// ErrDetachedHead indicates HEAD is not on a branch.
	ErrDetachedHead = errors.New("detached HEAD")
)

// Compile-time check that RealSource implements Source.
var _ Source = (*RealSource)(nil)

// RealSource implements Source by executing git against a worktree.
type RealSource struct {
	workDir string
}

// NewRealSource creates a Source rooted at workDir.
func NewRealSource(workDir string) *RealSource {
	return &RealSource{workDir: workDir}
}

// WorkDir returns the worktree path this source reads from.
func (s *RealSource) WorkDir() string {
	return s.workDir
}

// runGit executes a git command and returns stdout and any error.
// Unlike most helpers it does NOT trim trailing whitespace: diff
// output is returned verbatim.
func (s *RealSource) runGit(ctx context.Context, args ...string) (string, error) {
	//nolint:gosec // G204: args come from controlled sources
	cmd := exec.CommandContext(ctx, "git", args...)
	if s.workDir != "" {
		cmd.Dir = s.workDir
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("git %s: %w", args[0], ctx.Err())
		}
		stderrStr := strings.TrimSpace(stderr.String())
		if stderrStr != "" {
			return "", classifyGitError(stderrStr, err)
		}
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}

	return stdout.String(), nil
}

// runGitTrimmed runs git and trims surrounding whitespace, for
// commands whose output is a single value.
func (s *RealSource) runGitTrimmed(ctx context.Context, args ...string) (string, error) {
	out, err := s.runGit(ctx, args...)
	return strings.TrimSpace(out), err
}

// classifyGitError converts git stderr messages to sentinel errors.
func classifyGitError(stderr string, originalErr error) error {
	stderrLower := strings.ToLower(stderr)

	if strings.Contains(stderrLower, "not a git repository") {
		return fmt.Errorf("%w: %s", ErrNotGitRepo, stderr)
	}
	if strings.Contains(stderrLower, "bad revision") ||
		strings.Contains(stderrLower, "unknown revision") {
		return fmt.Errorf("%w: %s", ErrBadRevision, stderr)
	}

	return fmt.Errorf("git error: %s: %w", stderr, originalErr)
}

// IsGitRepo checks if the work dir is inside a git repository.
func (s *RealSource) IsGitRepo() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.runGitTrimmed(ctx, "rev-parse", "--git-dir")
	return err == nil
}

// RepoRoot returns the top-level directory of the repository.
func (s *RealSource) RepoRoot() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.runGitTrimmed(ctx, "rev-parse", "--show-toplevel")
}

// CurrentBranch returns the checked-out branch name.
func (s *RealSource) CurrentBranch() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	branch, err := s.runGitTrimmed(ctx, "branch", "--show-current")
	if err != nil {
		return "", err
	}
	if branch == "" {
		return "", ErrDetachedHead
	}
	return branch, nil
}

// MainBranch determines the repository's main branch, preferring the
// remote HEAD, then falling back to main/master existence checks.
func (s *RealSource) MainBranch() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ref, err := s.runGitTrimmed(ctx, "symbolic-ref", "refs/remotes/origin/HEAD", "--short")
	if err == nil && ref != "" {
		return strings.TrimPrefix(ref, "origin/"), nil
	}

	for _, candidate := range []string{"main", "master"} {
		_, err := s.runGitTrimmed(ctx, "rev-parse", "--verify", "refs/heads/"+candidate)
		if err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("could not determine main branch")
}

// Diff returns the unified diff of uncommitted changes, staged and
// unstaged, against HEAD.
func (s *RealSource) Diff(ctx context.Context) (string, error) {
	return s.runGit(ctx, "diff", "HEAD")
}

// CommitDiff returns what changed in the given commit.
func (s *RealSource) CommitDiff(ctx context.Context, hash string) (string, error) {
	return s.runGit(ctx, "diff", hash+"^!", "--")
}

// FullDiff returns the branch's entire diff: merge-base with the main
// branch through the current working tree. Falls back to the
// uncommitted diff when no main branch can be determined (fresh repo).
func (s *RealSource) FullDiff(ctx context.Context) (string, error) {
	main, err := s.MainBranch()
	if err != nil {
		log.Warn(log.CatGit, "full diff falling back to HEAD", "reason", err.Error())
		return s.Diff(ctx)
	}

	base, err := s.runGitTrimmed(ctx, "merge-base", main, "HEAD")
	if err != nil {
		return s.Diff(ctx)
	}
	return s.runGit(ctx, "diff", base)
}

// UntrackedFiles returns paths git does not know about yet.
func (s *RealSource) UntrackedFiles(ctx context.Context) ([]string, error) {
	out, err := s.runGit(ctx, "ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// FileContent reads a file from the working tree, falling back to the
// committed version for paths deleted from disk.
func (s *RealSource) FileContent(ctx context.Context, path string) (string, error) {
	full := filepath.Join(s.workDir, path)
	data, err := os.ReadFile(full) //nolint:gosec // G304: path comes from git's own diff output
	if err == nil {
		return string(data), nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	// Deleted from the working tree: show the last committed version.
	return s.runGit(ctx, "show", "HEAD:"+path)
}

// ReadFiles resolves a batch of file contents with per-key isolation.
// A file that cannot be read simply reports OK=false; the rest of the
// batch is unaffected.
func (s *RealSource) ReadFiles(ctx context.Context, reqs []FileRequest) map[string]FileResult {
	results := make(map[string]FileResult, len(reqs))
	for _, req := range reqs {
		if ctx.Err() != nil {
			// Cancelled mid-batch: report the remainder unavailable.
			results[req.Key] = FileResult{}
			continue
		}
		content, err := s.FileContent(ctx, req.Path)
		if err != nil {
			log.Debug(log.CatGit, "file content unavailable", "path", req.Path, "error", err.Error())
			results[req.Key] = FileResult{}
			continue
		}
		results[req.Key] = FileResult{OK: true, Content: content}
	}
	return results
}

// commitLogFormat uses NUL field separators and a record separator so
// subjects and bodies can contain anything.
const commitLogFormat = "%H%x00%h%x00%s%x00%an%x00%aI%x00%b%x1e"

// CommitLog returns the most recent commits, up to limit.
// Returns an empty slice for repositories without commits.
func (s *RealSource) CommitLog(ctx context.Context, limit int) ([]CommitInfo, error) {
	out, err := s.runGit(ctx, "log", fmt.Sprintf("-%d", limit), "--pretty=format:"+commitLogFormat)
	if err != nil {
		// An empty repository has no HEAD to log from.
		if errors.Is(err, ErrBadRevision) || strings.Contains(err.Error(), "does not have any commits") {
			return []CommitInfo{}, nil
		}
		return nil, err
	}

	return parseCommitLog(out), nil
}

// parseCommitLog parses the NUL/RS-delimited log format.
func parseCommitLog(out string) []CommitInfo {
	records := strings.Split(out, "\x1e")
	commits := make([]CommitInfo, 0, len(records))
	for _, record := range records {
		record = strings.TrimLeft(record, "\n")
		if strings.TrimSpace(record) == "" {
			continue
		}
		fields := strings.SplitN(record, "\x00", 6)
		if len(fields) < 5 {
			continue
		}
		commit := CommitInfo{
			Hash:      fields[0],
			ShortHash: fields[1],
			Subject:   fields[2],
			Author:    fields[3],
		}
		if t, err := time.Parse(time.RFC3339, fields[4]); err == nil {
			commit.Date = t
		}
		if len(fields) == 6 {
			commit.Body = strings.TrimSpace(fields[5])
		}
		commits = append(commits, commit)
	}
	return commits
}
