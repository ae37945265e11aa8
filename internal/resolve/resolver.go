package resolve

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"github.com/hlsget/hls-downloader/internal/browser"
	"github.com/hlsget/hls-downloader/internal/fetch"
	"github.com/hlsget/hls-downloader/internal/model"
)

// Defaults for the resolution race
const (
	DefaultMaxRetries    = 3
	DefaultRaceTimeout   = 10 * time.Second
	DefaultSettleTimeout = 3 * time.Second
)

// ErrNoPlayableSource is returned when every strategy and the per-part
// fallback are exhausted.
var ErrNoPlayableSource = errors.New("no playable source found")

// reMediaURL matches an embedded media URL in inline page scripts
var reMediaURL = regexp.MustCompile(`https?://[^\s"'<>\\]+?\.(?:m3u8|mp4)(?:\?[^\s"'<>\\]*)?`)

// Part is one constituent piece of a multi-part item
type Part struct {
	ID      string
	PageURL string
}

// PartsEnumerator lists the constituent parts of an item, if any
type PartsEnumerator interface {
	Parts(ctx context.Context, itemID string) ([]Part, error)
}

// Config tunes a Resolver. Zero values fall back to package defaults.
type Config struct {
	MaxRetries    int
	RaceTimeout   time.Duration
	SettleTimeout time.Duration
	CacheTTL      time.Duration

	// PageURL builds the detail-page URL for an item id. Required.
	PageURL func(itemID string) string

	// Parts enables the per-part fallback. Optional.
	Parts PartsEnumerator
}

// Resolver finds a working stream URL for an opaque item id by racing a
// direct page scrape against the scripted-browser collaborator, with
// caching, capped exponential backoff, and a last-resort per-part fallback.
type Resolver struct {
	fetcher fetch.Fetcher
	watcher browser.Watcher
	cfg     Config
	cache   *urlCache
	counts  *attemptCounters
	log     *slog.Logger
}

// NewResolver creates a new source resolution engine
func NewResolver(fetcher fetch.Fetcher, watcher browser.Watcher, cfg Config) *Resolver {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.RaceTimeout <= 0 {
		cfg.RaceTimeout = DefaultRaceTimeout
	}
	if cfg.SettleTimeout <= 0 {
		cfg.SettleTimeout = DefaultSettleTimeout
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = CacheTTL
	}
	return &Resolver{
		fetcher: fetcher,
		watcher: watcher,
		cfg:     cfg,
		cache:   newURLCache(cfg.CacheTTL),
		counts:  newAttemptCounters(),
		log:     slog.Default().With("component", "resolver"),
	}
}

// Resolve finds a playable URL for itemID. A non-empty explicitURL is
// cached and returned immediately. The per-attempt race is bounded by the
// configured timeout; the overall call is bounded only by ctx.
func (r *Resolver) Resolve(ctx context.Context, itemID, explicitURL string) (model.ResolvedSource, error) {
	start := time.Now()

	if explicitURL != "" {
		r.cache.Put(itemID, explicitURL)
		return model.ResolvedSource{
			URL:     explicitURL,
			Kind:    model.SourceKindCache,
			Elapsed: time.Since(start),
		}, nil
	}

	if url, ok := r.cache.Get(itemID); ok {
		r.log.Debug("cache hit", "item", itemID)
		return model.ResolvedSource{
			URL:     url,
			Kind:    model.SourceKindCache,
			Elapsed: time.Since(start),
		}, nil
	}

	attempts := 0
	for attempt := 0; attempt <= r.cfg.MaxRetries; attempt++ {
		if err := waitBackoff(ctx, Backoff(attempt)); err != nil {
			return model.ResolvedSource{Kind: model.SourceKindNone}, err
		}

		attempts++
		r.counts.Inc(itemID)

		url, kind := r.race(ctx, itemID)
		if url != "" {
			r.cache.Put(itemID, url)
			r.log.Info("source resolved", "item", itemID, "kind", kind, "attempts", attempts)
			return model.ResolvedSource{
				URL:      url,
				Kind:     kind,
				Attempts: attempts,
				Elapsed:  time.Since(start),
			}, nil
		}
		r.log.Debug("attempt exhausted", "item", itemID, "attempt", attempt)
	}

	if url, partAttempts := r.partFallback(ctx, itemID); url != "" {
		r.cache.Put(itemID, url)
		r.log.Info("source resolved via part fallback", "item", itemID)
		return model.ResolvedSource{
			URL:      url,
			Kind:     model.SourceKindPartFallback,
			Attempts: attempts + partAttempts,
			Elapsed:  time.Since(start),
		}, nil
	}

	if err := ctx.Err(); err != nil {
		return model.ResolvedSource{Kind: model.SourceKindNone}, err
	}
	return model.ResolvedSource{
		Kind:     model.SourceKindNone,
		Attempts: attempts,
		Elapsed:  time.Since(start),
	}, ErrNoPlayableSource
}

// Attempts returns the accumulated attempt counter for itemID
func (r *Resolver) Attempts(itemID string) int {
	return r.counts.Get(itemID)
}

// SweepCache evicts every expired cache entry in one pass
func (r *Resolver) SweepCache() {
	r.cache.Sweep()
}

type raceResult struct {
	url  string
	kind model.SourceKind
}

// race runs the direct-scrape and scripted-browser strategies concurrently
// and returns the first non-empty result. When the race times out, a late
// result already sitting in the channel is still accepted as a degraded
// fallback.
func (r *Resolver) race(ctx context.Context, itemID string) (string, model.SourceKind) {
	raceCtx, cancel := context.WithTimeout(ctx, r.cfg.RaceTimeout)
	defer cancel()

	pageURL := r.cfg.PageURL(itemID)
	results := make(chan raceResult, 2)

	go func() {
		url := r.directScrape(raceCtx, pageURL)
		results <- raceResult{url: url, kind: model.SourceKindDirectScrape}
	}()
	go func() {
		url, err := r.watcher.LoadAndWatch(raceCtx, pageURL, r.cfg.SettleTimeout)
		if err != nil {
			// Strategy errors are never fatal, only "no result".
			r.log.Debug("browser strategy failed", "item", itemID, "err", err)
			url = ""
		}
		results <- raceResult{url: url, kind: model.SourceKindScriptedBrowser}
	}()

	for i := 0; i < 2; i++ {
		select {
		case res := <-results:
			if res.url != "" {
				cancel()
				return res.url, res.kind
			}
		case <-raceCtx.Done():
			// Drain a late partial result before giving up on this attempt.
			select {
			case res := <-results:
				if res.url != "" {
					return res.url, res.kind
				}
			default:
			}
			return "", model.SourceKindNone
		}
	}
	return "", model.SourceKindNone
}

// directScrape fetches the item detail page and looks for an embedded
// media URL in inline scripts. Network errors yield an empty result.
func (r *Resolver) directScrape(ctx context.Context, pageURL string) string {
	body, err := r.fetcher.Get(ctx, pageURL)
	if err != nil {
		r.log.Debug("direct scrape failed", "url", pageURL, "err", err)
		return ""
	}
	match := reMediaURL.FindString(string(body))
	if match == "" || !browser.IsMediaURL(match) {
		return ""
	}
	return match
}

// partFallback scrapes each constituent part of the item and returns the
// first resolvable URL
func (r *Resolver) partFallback(ctx context.Context, itemID string) (string, int) {
	if r.cfg.Parts == nil {
		return "", 0
	}
	parts, err := r.cfg.Parts.Parts(ctx, itemID)
	if err != nil {
		r.log.Debug("part enumeration failed", "item", itemID, "err", err)
		return "", 0
	}

	attempts := 0
	for _, part := range parts {
		if ctx.Err() != nil {
			return "", attempts
		}
		attempts++
		if url := r.directScrape(ctx, part.PageURL); url != "" {
			return url, attempts
		}
	}
	return "", attempts
}
