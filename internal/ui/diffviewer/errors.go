package diffviewer

import (
	"context"
	"errors"
	"fmt"

	"github.com/zjrosen/diffdeck/internal/git"
)

// ErrorCategory classifies a viewer error for recovery guidance.
type ErrorCategory int

const (
	// ErrCategoryGitOp indicates a git operation error.
	ErrCategoryGitOp ErrorCategory = iota
	// ErrCategoryRevision indicates an unknown or unreachable revision.
	ErrCategoryRevision
	// ErrCategoryTimeout indicates a timed-out operation.
	ErrCategoryTimeout
)

// String returns a human-readable name for the error category.
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryGitOp:
		return "Git Operation Error"
	case ErrCategoryRevision:
		return "Revision Error"
	case ErrCategoryTimeout:
		return "Timeout Error"
	default:
		return "Unknown Error"
	}
}

// ViewerError carries recovery guidance alongside the failure.
type ViewerError struct {
	Category ErrorCategory
	Message  string
	HelpText string
	Err      error // wrapped cause
}

// Error implements the error interface.
func (e ViewerError) Error() string {
	return e.Message
}

// Unwrap exposes the cause for errors.Is/As.
func (e ViewerError) Unwrap() error {
	return e.Err
}

// classifyError wraps a failure with a category and help text the
// error pane can show. Returns nil for nil.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, git.ErrNotGitRepo):
		return ViewerError{
			Category: ErrCategoryGitOp,
			Message:  "not inside a git repository",
			HelpText: "run diffdeck from a worktree, or pass --work-dir",
			Err:      err,
		}
	case errors.Is(err, git.ErrBadRevision):
		return ViewerError{
			Category: ErrCategoryRevision,
			Message:  "revision not found",
			HelpText: "the commit may have been rewritten; press 2 to pick another",
			Err:      err,
		}
	case errors.Is(err, git.ErrDetachedHead):
		return ViewerError{
			Category: ErrCategoryRevision,
			Message:  "detached HEAD",
			HelpText: "full branch diff needs a branch; check out one or use 1/2",
			Err:      err,
		}
	case errors.Is(err, context.DeadlineExceeded):
		return ViewerError{
			Category: ErrCategoryTimeout,
			Message:  "git operation timed out",
			HelpText: "press r to retry, or raise engine.fetch_timeout_ms",
			Err:      err,
		}
	}
	return ViewerError{
		Category: ErrCategoryGitOp,
		Message:  fmt.Sprintf("load failed: %v", err),
		HelpText: "press r to retry",
		Err:      err,
	}
}
