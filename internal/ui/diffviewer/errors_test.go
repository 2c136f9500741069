package diffviewer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/diffdeck/internal/git"
)

func TestClassifyError_NilStaysNil(t *testing.T) {
	require.NoError(t, classifyError(nil))
}

func TestClassifyError_Sentinels(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		category ErrorCategory
	}{
		{"not a repo", git.ErrNotGitRepo, ErrCategoryGitOp},
		{"bad revision", fmt.Errorf("loading: %w", git.ErrBadRevision), ErrCategoryRevision},
		{"detached head", git.ErrDetachedHead, ErrCategoryRevision},
		{"timeout", context.DeadlineExceeded, ErrCategoryTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var verr ViewerError
			require.ErrorAs(t, classifyError(tt.err), &verr)
			require.Equal(t, tt.category, verr.Category)
			require.NotEmpty(t, verr.HelpText)
		})
	}
}

func TestClassifyError_PreservesCause(t *testing.T) {
	err := classifyError(fmt.Errorf("commit diff: %w", git.ErrBadRevision))
	require.ErrorIs(t, err, git.ErrBadRevision)
}

func TestClassifyError_UnknownGetsRetryGuidance(t *testing.T) {
	var verr ViewerError
	require.ErrorAs(t, classifyError(errors.New("git exploded")), &verr)
	require.Equal(t, ErrCategoryGitOp, verr.Category)
	require.Contains(t, verr.Message, "git exploded")
}
