package session

import "github.com/zjrosen/diffdeck/internal/pubsub"

// ViewState is the per-file display state. Collapsed hides everything
// but the header line; FullyExpanded shows the whole file instead of
// changed hunks only. The two are independent flags: a file can be
// marked fully expanded while collapsed, and regains the full view
// when reopened.
type ViewState struct {
	Collapsed     bool
	FullyExpanded bool
}

// ViewState returns the display state for a record key. Unknown keys
// report the default (expanded, changes only).
func (s *Session) ViewState(key string) ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view[key]
}

// ToggleCollapsed flips the collapsed flag for one record.
func (s *Session) ToggleCollapsed(key string) {
	s.mu.Lock()
	if _, ok := s.index[key]; !ok {
		s.mu.Unlock()
		return
	}
	state := s.view[key]
	state.Collapsed = !state.Collapsed
	s.view[key] = state
	s.mu.Unlock()

	s.publishViewState(key)
}

// SetCollapsed sets the collapsed flag for one record.
func (s *Session) SetCollapsed(key string, collapsed bool) {
	s.mu.Lock()
	if _, ok := s.index[key]; !ok {
		s.mu.Unlock()
		return
	}
	state := s.view[key]
	if state.Collapsed == collapsed {
		s.mu.Unlock()
		return
	}
	state.Collapsed = collapsed
	s.view[key] = state
	s.mu.Unlock()

	s.publishViewState(key)
}

// ToggleFullyExpanded flips between changes-only and full-file display
// for one record.
func (s *Session) ToggleFullyExpanded(key string) {
	s.mu.Lock()
	if _, ok := s.index[key]; !ok {
		s.mu.Unlock()
		return
	}
	state := s.view[key]
	state.FullyExpanded = !state.FullyExpanded
	s.view[key] = state
	s.mu.Unlock()

	s.publishViewState(key)
}

// CollapseAll collapses every record immediately. Collapsing is cheap
// so it never batches, and it cancels any batched expansion in flight.
func (s *Session) CollapseAll() {
	s.mu.Lock()
	s.expandGen++
	for _, rec := range s.records {
		state := s.view[rec.Key]
		state.Collapsed = true
		s.view[rec.Key] = state
	}
	s.mu.Unlock()

	s.publishViewState()
}

// ExpandAll expands every record. Small sets expand synchronously;
// sets above the auto-collapse threshold expand in batches through the
// yielder so rendering stays responsive. A newer ExpandAll/CollapseAll
// or a record replacement cancels the remaining batches.
func (s *Session) ExpandAll() {
	s.mu.Lock()
	s.expandGen++
	gen := s.expandGen
	epoch := s.epoch

	if len(s.records) <= s.engine.AutoCollapseThreshold {
		for _, rec := range s.records {
			state := s.view[rec.Key]
			state.Collapsed = false
			s.view[rec.Key] = state
		}
		s.mu.Unlock()
		s.publishViewState()
		return
	}

	pending := make([]string, 0, len(s.records))
	for _, rec := range s.records {
		if s.view[rec.Key].Collapsed {
			pending = append(pending, rec.Key)
		}
	}
	s.mu.Unlock()

	s.expandBatch(pending, gen, epoch)
}

// expandBatch expands the next slice of keys, then yields and
// reschedules itself for the remainder.
func (s *Session) expandBatch(pending []string, gen, epoch uint64) {
	s.mu.Lock()
	if gen != s.expandGen || epoch != s.epoch {
		s.mu.Unlock()
		return
	}

	batch := s.engine.ExpandBatchSize
	if batch > len(pending) {
		batch = len(pending)
	}
	expanded := pending[:batch]
	for _, key := range expanded {
		if _, ok := s.index[key]; !ok {
			continue
		}
		state := s.view[key]
		state.Collapsed = false
		s.view[key] = state
	}
	rest := pending[batch:]
	s.mu.Unlock()

	s.publishViewState(expanded...)

	if len(rest) > 0 {
		s.yielder.AfterYield(func() {
			s.expandBatch(rest, gen, epoch)
		})
	}
}

// IsAllCollapsed reports whether every record is collapsed. An empty
// session reports true, as does IsAllExpanded: with nothing to show,
// both descriptions hold vacuously.
func (s *Session) IsAllCollapsed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if !s.view[rec.Key].Collapsed {
			return false
		}
	}
	return true
}

// IsAllExpanded reports whether no record is collapsed. True for an
// empty session.
func (s *Session) IsAllExpanded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if s.view[rec.Key].Collapsed {
			return false
		}
	}
	return true
}

func (s *Session) publishViewState(keys ...string) {
	s.broker.Publish(pubsub.UpdatedEvent, Update{Kind: UpdateViewState, Mode: s.Mode(), Keys: keys})
}
