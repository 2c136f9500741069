package session

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"github.com/zjrosen/diffdeck/internal/diff"
	"github.com/zjrosen/diffdeck/internal/git"
	"github.com/zjrosen/diffdeck/internal/log"
	"github.com/zjrosen/diffdeck/internal/pubsub"
	"github.com/zjrosen/diffdeck/internal/tracing"
)

// PrefetchContents loads file contents for the first MaxPrefetch
// eligible records, in list order. Binary files, records with no
// on-disk side, and already-cached keys are skipped. Contents are
// fetched as a batch first; files the batch could not resolve are
// retried individually and concurrently, each bounded by the fetch
// timeout, and individual failures are simply omitted.
//
// Results are installed only if the session is still at the epoch the
// prefetch started under; a mode switch or reload in between discards
// the whole pass.
func (s *Session) PrefetchContents(ctx context.Context) {
	if s.source == nil {
		return
	}

	ctx, span := tracing.StartSpan(ctx, s.tracer, tracing.SpanPrefetch)
	defer tracing.EndSpan(span, nil)

	s.mu.Lock()
	epoch := s.epoch
	reqs := make([]git.FileRequest, 0, s.engine.MaxPrefetch)
	for _, rec := range s.records {
		if len(reqs) >= s.engine.MaxPrefetch {
			break
		}
		if rec.Binary {
			continue
		}
		path := rec.FetchPath()
		if path == diff.NoFile {
			continue
		}
		reqs = append(reqs, git.FileRequest{Key: rec.Key, Path: path})
	}
	s.mu.Unlock()

	// Filter out keys already cached this session.
	eligible := reqs[:0]
	for _, req := range reqs {
		if _, ok := s.cache.Get(ctx, req.Key); ok {
			continue
		}
		eligible = append(eligible, req)
	}
	if len(eligible) == 0 {
		return
	}
	span.SetAttributes(attribute.Int("files", len(eligible)))

	results := s.source.ReadFiles(ctx, eligible)

	// Retry batch misses one by one. A miss usually means the file only
	// exists in the object store (deleted from the worktree) or a
	// transient read error; per-file fetches get their own timeout so
	// one slow path cannot stall the rest.
	var retries []git.FileRequest
	for _, req := range eligible {
		if res, ok := results[req.Key]; !ok || !res.OK {
			retries = append(retries, req)
		}
	}
	if len(retries) > 0 {
		var mu sync.Mutex
		var wg sync.WaitGroup
		for _, req := range retries {
			wg.Add(1)
			go func(req git.FileRequest) {
				defer wg.Done()
				fetchCtx, cancel := context.WithTimeout(ctx, s.engine.FetchTimeout())
				defer cancel()
				content, err := s.source.FileContent(fetchCtx, req.Path)
				if err != nil {
					log.Debug(log.CatPrefetch, "prefetch miss", "path", req.Path, "error", err.Error())
					return
				}
				mu.Lock()
				results[req.Key] = git.FileResult{OK: true, Content: content}
				mu.Unlock()
			}(req)
		}
		wg.Wait()
	}

	// Install under the lock so a record replacement cannot interleave
	// between the epoch check and the cache writes.
	s.mu.Lock()
	if s.epoch != epoch {
		now := s.epoch
		s.mu.Unlock()
		log.Debug(log.CatPrefetch, "stale prefetch discarded",
			"startedAt", epoch, "now", now)
		return
	}
	mode := s.mode
	loaded := make([]string, 0, len(eligible))
	for _, req := range eligible {
		res := results[req.Key]
		if !res.OK {
			continue
		}
		s.cache.Set(ctx, req.Key, res.Content, contentCacheTTL)
		loaded = append(loaded, req.Key)
	}
	s.mu.Unlock()

	if len(loaded) > 0 {
		log.Debug(log.CatPrefetch, "prefetch complete",
			"requested", len(eligible), "loaded", len(loaded))
		s.broker.Publish(pubsub.UpdatedEvent, Update{Kind: UpdateContent, Mode: mode, Keys: loaded})
	}
}
