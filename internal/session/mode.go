package session

import "fmt"

// ModeKind identifies which diff range a session is viewing.
type ModeKind int

const (
	// ModeUncommitted shows staged and unstaged changes against HEAD.
	ModeUncommitted ModeKind = iota
	// ModeCommit shows what a single commit changed.
	ModeCommit
	// ModeFull shows the branch's entire diff from the merge base
	// with the main branch through the working tree.
	ModeFull
)

// Mode is a tagged variant over the viewing modes. Hash and Subject
// are only meaningful for ModeCommit.
type Mode struct {
	Kind    ModeKind
	Hash    string
	Subject string
}

// Uncommitted returns the default mode.
func Uncommitted() Mode {
	return Mode{Kind: ModeUncommitted}
}

// Commit returns a mode pinned to one commit.
func Commit(hash, subject string) Mode {
	return Mode{Kind: ModeCommit, Hash: hash, Subject: subject}
}

// Full returns the whole-branch mode.
func Full() Mode {
	return Mode{Kind: ModeFull}
}

func (m Mode) String() string {
	switch m.Kind {
	case ModeCommit:
		short := m.Hash
		if len(short) > 7 {
			short = short[:7]
		}
		return fmt.Sprintf("commit %s", short)
	case ModeFull:
		return "full diff"
	default:
		return "uncommitted"
	}
}
