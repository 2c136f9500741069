package session

import (
	"strings"
	"time"

	"github.com/zjrosen/diffdeck/internal/log"
	"github.com/zjrosen/diffdeck/internal/pubsub"
)

// FocusRequest asks the renderer to scroll one record into view and
// highlight it briefly. The scroll is one-shot: ConsumeFocus hands it
// out once. The highlight outlives the scroll and clears itself after
// the configured duration.
type FocusRequest struct {
	Key      string
	consumed bool
}

// Locate finds the record for a file path and focuses it. Matching
// tries the exact new path, then the exact old path, then suffix
// matches in both directions, so "handlers/user.go" finds
// "internal/api/handlers/user.go" and vice versa. A collapsed match is
// expanded. Returns the matched key, or false when nothing matched.
func (s *Session) Locate(path string) (string, bool) {
	if path == "" {
		return "", false
	}

	s.mu.Lock()
	key, ok := s.matchLocked(path)
	if !ok {
		s.mu.Unlock()
		log.Debug(log.CatSession, "locate missed", "path", path)
		return "", false
	}

	state := s.view[key]
	wasCollapsed := state.Collapsed
	if wasCollapsed {
		state.Collapsed = false
		s.view[key] = state
	}

	s.focus = &FocusRequest{Key: key}
	s.focusGen++
	gen := s.focusGen
	mode := s.mode
	highlight := s.engine.HighlightDuration()
	s.mu.Unlock()

	if wasCollapsed {
		s.publishViewState(key)
	}
	s.broker.Publish(pubsub.UpdatedEvent, Update{Kind: UpdateFocus, Mode: mode, Keys: []string{key}})

	time.AfterFunc(highlight, func() {
		s.clearFocus(gen)
	})
	return key, true
}

// matchLocked resolves a path to a record key.
func (s *Session) matchLocked(path string) (string, bool) {
	for _, rec := range s.records {
		if rec.NewPath == path || rec.OldPath == path {
			return rec.Key, true
		}
	}
	for _, rec := range s.records {
		if suffixMatch(rec.NewPath, path) || suffixMatch(rec.OldPath, path) {
			return rec.Key, true
		}
	}
	return "", false
}

// suffixMatch reports whether one path ends with the other at a
// component boundary.
func suffixMatch(recorded, query string) bool {
	if recorded == "" || query == "" {
		return false
	}
	if strings.HasSuffix(recorded, "/"+query) {
		return true
	}
	return strings.HasSuffix(query, "/"+recorded)
}

// ConsumeFocus returns the pending focus request once. Subsequent
// calls return false until a new Locate succeeds. The highlight is not
// affected; HighlightedKey keeps reporting it until expiry.
func (s *Session) ConsumeFocus() (FocusRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.focus == nil || s.focus.consumed {
		return FocusRequest{}, false
	}
	s.focus.consumed = true
	return *s.focus, true
}

// HighlightedKey returns the key currently carrying the transient
// focus highlight, or "" when none does.
func (s *Session) HighlightedKey() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.focus == nil {
		return ""
	}
	return s.focus.Key
}

// ClearFocus drops the focus and its highlight immediately.
func (s *Session) ClearFocus() {
	s.mu.Lock()
	gen := s.focusGen
	s.mu.Unlock()
	s.clearFocus(gen)
}

// clearFocus removes the highlight if no newer focus replaced it.
func (s *Session) clearFocus(gen uint64) {
	s.mu.Lock()
	if gen != s.focusGen || s.focus == nil {
		s.mu.Unlock()
		return
	}
	s.focus = nil
	mode := s.mode
	s.mu.Unlock()

	s.broker.Publish(pubsub.UpdatedEvent, Update{Kind: UpdateFocusCleared, Mode: mode})
}
