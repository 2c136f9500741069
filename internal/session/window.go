package session

import (
	"context"
	"strings"

	"github.com/zjrosen/diffdeck/internal/pubsub"
)

// EstimateHeight returns the expected render height of the record at
// index i, in render units. A height the renderer actually measured
// wins over any estimate. Collapsed files have a fixed header height;
// expanded files scale with their change count, clamped to the
// configured bounds; fully-expanded files use the prefetched content's
// line count when it is cached.
func (s *Session) EstimateHeight(i int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.estimateHeightLocked(i)
}

func (s *Session) estimateHeightLocked(i int) int {
	if i < 0 || i >= len(s.records) {
		return 0
	}
	rec := s.records[i]

	if h, ok := s.measured[rec.Key]; ok && h > 0 {
		return h
	}

	state := s.view[rec.Key]
	if state.Collapsed {
		return s.engine.CollapsedHeight
	}

	lines := rec.Additions + rec.Deletions
	if state.FullyExpanded {
		if content, ok := s.cache.Get(context.Background(), rec.Key); ok {
			lines = strings.Count(content, "\n") + 1
		}
	}

	h := s.engine.HeaderHeight + lines*s.engine.PerLineHeight
	if h < s.engine.MinFileHeight {
		h = s.engine.MinFileHeight
	}
	if h > s.engine.MaxFileHeight {
		h = s.engine.MaxFileHeight
	}
	return h
}

// SetMeasuredHeight records the height the renderer actually produced
// for a record. Subsequent estimates return it verbatim. Unknown keys
// are ignored.
func (s *Session) SetMeasuredHeight(key string, height int) {
	s.mu.Lock()
	if _, ok := s.index[key]; !ok || height <= 0 {
		s.mu.Unlock()
		return
	}
	if s.measured[key] == height {
		s.mu.Unlock()
		return
	}
	s.measured[key] = height
	mode := s.mode
	s.mu.Unlock()

	s.broker.Publish(pubsub.UpdatedEvent, Update{Kind: UpdateHeights, Mode: mode, Keys: []string{key}})
}

// InvalidateHeights drops measured heights so the next layout pass
// re-measures, e.g. after a terminal resize.
func (s *Session) InvalidateHeights() {
	s.mu.Lock()
	s.measured = map[string]int{}
	mode := s.mode
	s.mu.Unlock()

	s.broker.Publish(pubsub.UpdatedEvent, Update{Kind: UpdateHeights, Mode: mode})
}

// TotalHeight returns the summed height of every record.
func (s *Session) TotalHeight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for i := range s.records {
		total += s.estimateHeightLocked(i)
	}
	return total
}

// OffsetOf returns the cumulative height above the record at index i,
// i.e. the scroll position that puts it at the top of the viewport.
func (s *Session) OffsetOf(i int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	offset := 0
	for j := 0; j < i && j < len(s.records); j++ {
		offset += s.estimateHeightLocked(j)
	}
	return offset
}

// VisibleRange returns the first and last record indices that
// intersect the viewport [scrollTop, scrollTop+viewportHeight),
// widened by the configured overscan margin on both sides. Returns
// (0, -1) when nothing is visible.
func (s *Session) VisibleRange(scrollTop, viewportHeight int) (first, last int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.records) == 0 || viewportHeight <= 0 {
		return 0, -1
	}

	top := scrollTop - s.engine.Overscan
	bottom := scrollTop + viewportHeight + s.engine.Overscan

	first, last = -1, -1
	offset := 0
	for i := range s.records {
		h := s.estimateHeightLocked(i)
		if offset+h > top && offset < bottom {
			if first == -1 {
				first = i
			}
			last = i
		}
		offset += h
		if offset >= bottom {
			break
		}
	}
	if first == -1 {
		// Scrolled past the end: keep the final record renderable.
		return len(s.records) - 1, len(s.records) - 1
	}
	return first, last
}
