// Package session implements the diff session engine: it owns the
// parsed record list, per-file view state, the content cache, focus
// and height bookkeeping, and notifies observers of state changes
// through a pub/sub broker. All mutations happen under one mutex and
// replace snapshots wholesale; readers get copies and never see a
// partially updated session.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/diffdeck/internal/cachemanager"
	"github.com/zjrosen/diffdeck/internal/config"
	"github.com/zjrosen/diffdeck/internal/diff"
	"github.com/zjrosen/diffdeck/internal/git"
	"github.com/zjrosen/diffdeck/internal/log"
	"github.com/zjrosen/diffdeck/internal/pubsub"
	"github.com/zjrosen/diffdeck/internal/tracing"
)

// contentCacheTTL keeps prefetched file contents alive for the
// practical lifetime of one viewing session.
const contentCacheTTL = 30 * time.Minute

// Options configures a Session. Zero-value fields get working
// defaults; Source may be nil for sessions fed through SetDiff.
type Options struct {
	Source  git.Source
	Engine  config.EngineConfig
	Yielder Yielder
	Cache   cachemanager.CacheManager[string, string]
	Broker  *pubsub.Broker[Update]
	Tracer  trace.Tracer
}

// Session is the owned state object for one diff view. It is safe for
// concurrent use.
type Session struct {
	mu sync.Mutex

	source  git.Source
	engine  config.EngineConfig
	yielder Yielder
	cache   cachemanager.CacheManager[string, string]
	broker  *pubsub.Broker[Update]
	tracer  trace.Tracer

	mode    Mode
	epoch   uint64
	loading bool

	records []diff.FileRecord
	index   map[string]int
	stats   diff.Stats

	view      map[string]ViewState
	expandGen uint64

	measured map[string]int

	focus    *FocusRequest
	focusGen uint64
}

// New creates a session in Uncommitted mode with no records loaded.
func New(opts Options) *Session {
	engine := opts.Engine
	if engine == (config.EngineConfig{}) {
		engine = config.Defaults().Engine
	}
	yielder := opts.Yielder
	if yielder == nil {
		yielder = TimerYielder{}
	}
	cache := opts.Cache
	if cache == nil {
		cache = cachemanager.NewInMemoryCacheManager[string, string](
			"file-content", contentCacheTTL, cachemanager.DefaultCleanupInterval)
	}
	broker := opts.Broker
	if broker == nil {
		broker = pubsub.NewBroker[Update]()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("diffdeck")
	}

	return &Session{
		source:   opts.Source,
		engine:   engine,
		yielder:  yielder,
		cache:    cache,
		broker:   broker,
		tracer:   tracer,
		mode:     Uncommitted(),
		index:    map[string]int{},
		view:     map[string]ViewState{},
		measured: map[string]int{},
	}
}

// Subscribe returns a channel of session updates. The subscription
// ends when ctx is cancelled.
func (s *Session) Subscribe(ctx context.Context) <-chan pubsub.Event[Update] {
	return s.broker.Subscribe(ctx)
}

// Close shuts down the observer broker.
func (s *Session) Close() {
	s.broker.Close()
}

// Mode returns the current viewing mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// Epoch returns the current session epoch. The epoch advances on every
// record replacement; async work captures it at start and discards its
// results when the session has moved on.
func (s *Session) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// Loading reports whether a load is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Records returns a snapshot copy of the ordered record list.
func (s *Session) Records() []diff.FileRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]diff.FileRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Record looks up one record by key.
func (s *Session) Record(key string) (diff.FileRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[key]
	if !ok {
		return diff.FileRecord{}, false
	}
	return s.records[i], true
}

// Count returns the number of records.
func (s *Session) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Stats returns the aggregated totals for the current record set.
func (s *Session) Stats() diff.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := s.stats
	stats.Loading = s.loading
	return stats
}

// Content returns the prefetched content for a record key, if cached.
func (s *Session) Content(key string) (string, bool) {
	return s.cache.Get(context.Background(), key)
}

// SetDiff parses raw diff text and replaces the session's records.
// Used by tests and by feeds that already hold diff text.
func (s *Session) SetDiff(raw string) {
	s.replaceRecords(diff.Parse(raw))
}

// SwitchMode changes the viewing mode and reloads. The content cache,
// view state and focus are cleared, and the epoch advances immediately
// so in-flight async work from the old mode discards instead of
// repopulating the just-flushed cache while the reload is still
// running.
func (s *Session) SwitchMode(ctx context.Context, mode Mode) error {
	s.mu.Lock()
	s.mode = mode
	s.epoch++
	s.view = map[string]ViewState{}
	s.measured = map[string]int{}
	s.focus = nil
	s.mu.Unlock()

	if err := s.cache.Flush(ctx); err != nil {
		log.ErrorErr(log.CatSession, "content cache flush failed", err)
	}
	log.Info(log.CatSession, "mode switched", "mode", mode.String())
	return s.Load(ctx)
}

// Load queries the git source for the current mode and replaces the
// records. A failed load leaves the session with empty records and
// publishes UpdateLoadFailed.
func (s *Session) Load(ctx context.Context) error {
	if s.source == nil {
		return fmt.Errorf("session has no git source")
	}

	s.mu.Lock()
	s.loading = true
	mode := s.mode
	s.mu.Unlock()

	ctx, span := tracing.StartSpan(ctx, s.tracer, tracing.SpanLoad,
		attribute.String("mode", mode.String()))

	raw, err := s.queryDiff(ctx, mode)
	if err != nil {
		tracing.EndSpan(span, err)
		log.ErrorErr(log.CatSession, "diff load failed", err, "mode", mode.String())
		s.replaceRecords(nil)
		s.broker.Publish(pubsub.UpdatedEvent, Update{Kind: UpdateLoadFailed, Mode: mode, Err: err})
		return err
	}

	_, parseSpan := tracing.StartSpan(ctx, s.tracer, tracing.SpanParse,
		attribute.Int("bytes", len(raw)))
	records := diff.Parse(raw)
	parseSpan.SetAttributes(attribute.Int("files", len(records)))
	tracing.EndSpan(parseSpan, nil)

	if mode.Kind == ModeUncommitted {
		records = append(records, s.untrackedRecords(ctx)...)
	}
	s.replaceRecords(records)
	tracing.EndSpan(span, nil)
	return nil
}

// queryDiff dispatches to the right git query for a mode.
func (s *Session) queryDiff(ctx context.Context, mode Mode) (string, error) {
	switch mode.Kind {
	case ModeCommit:
		return s.source.CommitDiff(ctx, mode.Hash)
	case ModeFull:
		return s.source.FullDiff(ctx)
	default:
		return s.source.Diff(ctx)
	}
}

// untrackedRecords builds synthetic created-file records for files git
// does not track yet. Failures degrade to an empty list: untracked
// files are an enrichment, never a reason to fail the load.
func (s *Session) untrackedRecords(ctx context.Context) []diff.FileRecord {
	paths, err := s.source.UntrackedFiles(ctx)
	if err != nil {
		log.Warn(log.CatSession, "untracked file listing failed", "error", err.Error())
		return nil
	}

	records := make([]diff.FileRecord, 0, len(paths))
	for _, path := range paths {
		content, err := s.source.FileContent(ctx, path)
		if err != nil {
			log.Debug(log.CatSession, "untracked file unreadable", "path", path, "error", err.Error())
			continue
		}
		records = append(records, diff.UntrackedRecord(path, content))
	}
	return records
}

// replaceRecords installs a new record list, advances the epoch, and
// re-derives dependent state. View state is rebuilt from defaults and
// the auto-collapse policy re-decided whenever the key set changes
// identity; a refresh that produces the same files keeps the user's
// expand/collapse choices.
func (s *Session) replaceRecords(records []diff.FileRecord) {
	s.mu.Lock()

	s.epoch++
	s.loading = false
	s.expandGen++ // cancel any batched expansion over the old set

	oldIndex := s.index
	s.records = records
	s.index = make(map[string]int, len(records))
	for i, rec := range records {
		s.index[rec.Key] = i
	}

	keysChanged := len(oldIndex) != len(s.index)
	if !keysChanged {
		for key := range s.index {
			if _, ok := oldIndex[key]; !ok {
				keysChanged = true
				break
			}
		}
	}

	if keysChanged {
		// A new file set starts from defaults; surviving keys do not
		// carry toggles made against the old set.
		s.view = make(map[string]ViewState, len(records))
		if len(records) > s.engine.AutoCollapseThreshold {
			for _, rec := range records {
				s.view[rec.Key] = ViewState{Collapsed: true}
			}
		}
		for key := range s.measured {
			if _, ok := s.index[key]; !ok {
				delete(s.measured, key)
			}
		}
	}

	s.focus = nil
	s.stats = diff.Aggregate(records, false)
	mode := s.mode
	s.mu.Unlock()

	log.Debug(log.CatSession, "records replaced",
		"files", len(records), "keysChanged", keysChanged)
	s.broker.Publish(pubsub.UpdatedEvent, Update{Kind: UpdateRecords, Mode: mode})
}
