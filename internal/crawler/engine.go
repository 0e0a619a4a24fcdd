package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const defaultConcurrency = 8

// EngineConfig holds the per-run knobs for the orchestrator. It is built
// from the application configuration once and passed in at construction.
type EngineConfig struct {
	SeedURL         string
	Concurrency     int
	MaxListingPages int           // 0 = walk the whole chain
	RunTimeout      time.Duration // 0 = no overall deadline
}

// Engine drives the crawl: a sequential listing walk feeding a frontier of
// detail targets, then a bounded worker pool that fetches, extracts, and
// streams records into the sink.
type Engine struct {
	cfg       EngineConfig
	fetcher   Fetcher
	parser    Parser
	navigator Navigator
	harvester Harvester
	extractor Extractor
	sink      RecordSink
	logger    *zap.Logger
}

// NewEngine wires the collaborators together.
func NewEngine(
	cfg EngineConfig,
	fetcher Fetcher,
	parser Parser,
	navigator Navigator,
	harvester Harvester,
	extractor Extractor,
	sink RecordSink,
	logger *zap.Logger,
) *Engine {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cfg:       cfg,
		fetcher:   fetcher,
		parser:    parser,
		navigator: navigator,
		harvester: harvester,
		extractor: extractor,
		sink:      sink,
		logger:    logger,
	}
}

// Run executes one crawl and always returns a report. The returned error is
// non-nil only when the seed listing page is unreachable; every per-item
// failure is tallied in the report instead.
func (e *Engine) Run(ctx context.Context) (RunReport, error) {
	report := RunReport{
		RunID:   uuid.NewString(),
		State:   StateInit,
		Started: time.Now().UTC(),
	}
	if e.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.RunTimeout)
		defer cancel()
	}

	e.logger.Info("run starting",
		zap.String("run_id", report.RunID),
		zap.String("seed", e.cfg.SeedURL),
		zap.Int("concurrency", e.cfg.Concurrency),
	)

	frontier := NewFrontier()
	if err := e.walkListings(ctx, frontier, &report); err != nil {
		report.State = StateFailed
		report.Finished = time.Now().UTC()
		return report, err
	}

	e.drainDetails(ctx, frontier, &report)

	if ctx.Err() != nil && frontier.PendingLen() > 0 {
		report.Partial = true
	}
	report.State = StateDone
	report.Finished = time.Now().UTC()
	e.logger.Info("run finished",
		zap.String("run_id", report.RunID),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.Bool("partial", report.Partial),
		zap.Duration("took", report.Duration()),
	)
	return report, nil
}

// walkListings follows the next-page chain sequentially, harvesting detail
// targets into the frontier. Only an unreachable seed page is fatal.
func (e *Engine) walkListings(ctx context.Context, frontier *Frontier, report *RunReport) error {
	report.State = StateListing
	current := e.cfg.SeedURL
	for pages := 0; current != ""; pages++ {
		if e.cfg.MaxListingPages > 0 && pages >= e.cfg.MaxListingPages {
			e.logger.Info("listing page budget reached", zap.Int("pages", pages))
			return nil
		}
		if err := ctx.Err(); err != nil {
			if pages == 0 {
				return fmt.Errorf("seed listing %s: %w", current, err)
			}
			report.Partial = true
			return nil
		}

		frontier.MarkVisited(current)
		page, err := e.fetcher.Fetch(ctx, current)
		if err != nil {
			if pages == 0 {
				return fmt.Errorf("fetch seed listing %s: %w", current, err)
			}
			e.logger.Warn("listing fetch failed, stopping walk",
				zap.String("url", current), zap.Error(err))
			report.UnreachableURLs = append(report.UnreachableURLs, current)
			return nil
		}

		report.State = StateHarvest
		doc, err := e.parser.Parse(page.Body)
		if err != nil {
			if pages == 0 {
				return fmt.Errorf("parse seed listing %s: %w", current, err)
			}
			e.logger.Warn("listing parse failed, stopping walk",
				zap.String("url", current), zap.Error(err))
			return nil
		}
		base := e.pageBase(page)

		harvested := 0
		for _, entry := range e.harvester.Harvest(doc, base) {
			if frontier.Push(Target{URL: entry.DetailURL, Kind: PageDetail, Name: entry.Name}) {
				harvested++
			}
		}
		report.ListingPages++
		e.logger.Debug("listing harvested",
			zap.String("url", current),
			zap.Int("new_targets", harvested),
		)

		report.State = StateListing
		next, ok := e.navigator.NextListing(doc, base, frontier.Seen)
		if !ok {
			return nil
		}
		current = next
	}
	return nil
}

// drainDetails pulls detail targets from the frontier through a bounded
// worker pool. When the deadline fires, no new fetches start; in-flight
// ones finish and their records are flushed.
func (e *Engine) drainDetails(ctx context.Context, frontier *Frontier, report *RunReport) {
	report.State = StateDetail
	targets := make(chan Target)
	go func() {
		defer close(targets)
		for {
			if ctx.Err() != nil {
				return
			}
			t, ok := frontier.Pop()
			if !ok {
				return
			}
			select {
			case targets <- t:
			case <-ctx.Done():
				frontier.requeue(t)
				return
			}
		}
	}()

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for i := 0; i < e.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range targets {
				e.processDetail(ctx, t, report, &mu)
			}
		}()
	}
	wg.Wait()
}

func (e *Engine) processDetail(ctx context.Context, t Target, report *RunReport, mu *sync.Mutex) {
	page, err := e.fetcher.Fetch(ctx, t.URL)
	if err != nil {
		// A fetch cut short by the run deadline leaves the target
		// unprocessed, not unreachable.
		if ctx.Err() != nil {
			mu.Lock()
			report.Partial = true
			mu.Unlock()
			return
		}
		e.logger.Warn("detail fetch failed", zap.String("url", t.URL), zap.Error(err))
		RecordsSkipped.Inc()
		mu.Lock()
		report.Skipped++
		report.UnreachableURLs = append(report.UnreachableURLs, t.URL)
		mu.Unlock()
		return
	}

	doc, err := e.parser.Parse(page.Body)
	if err != nil {
		e.logger.Warn("detail parse failed", zap.String("url", t.URL), zap.Error(err))
		RecordsSkipped.Inc()
		mu.Lock()
		report.Skipped++
		mu.Unlock()
		return
	}

	rec, err := e.extractor.Extract(doc, e.pageBase(page))
	if err == nil {
		err = rec.Validate()
	}
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			e.logger.Warn("record rejected",
				zap.String("url", t.URL),
				zap.String("field", verr.Field),
				zap.String("value", verr.Value),
			)
			RecordsFailed.Inc()
			mu.Lock()
			report.Failed++
			mu.Unlock()
			return
		}
		e.logger.Warn("extraction skipped record", zap.String("url", t.URL), zap.Error(err))
		RecordsSkipped.Inc()
		mu.Lock()
		report.Skipped++
		mu.Unlock()
		return
	}

	if err := e.upsertWithRetry(ctx, rec); err != nil {
		e.logger.Error("record write failed",
			zap.String("url", t.URL),
			zap.String("title", rec.Title),
			zap.Error(err),
		)
		RecordsFailed.Inc()
		mu.Lock()
		report.Failed++
		mu.Unlock()
		return
	}

	RecordsUpserted.Inc()
	mu.Lock()
	report.Succeeded++
	mu.Unlock()
}

// upsertWithRetry retries a failed sink write exactly once before giving
// up on the record.
func (e *Engine) upsertWithRetry(ctx context.Context, rec Record) error {
	err := e.sink.Upsert(ctx, rec)
	if err == nil {
		return nil
	}
	e.logger.Warn("sink write failed, retrying once",
		zap.String("title", rec.Title), zap.Error(err))
	return e.sink.Upsert(ctx, rec)
}

func (e *Engine) pageBase(page Page) *url.URL {
	raw := page.FinalURL
	if raw == "" {
		raw = page.URL
	}
	base, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return base
}
