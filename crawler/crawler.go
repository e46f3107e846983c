// Package crawler connects rule storage to the engine: it resolves a URL
// to the crawler rule covering it, downloads and parses the page, and
// follows __request__ fan-outs into concurrent sub-crawls whose results
// come back in input order.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/use-agent/sift/config"
	"github.com/use-agent/sift/engine"
	"github.com/use-agent/sift/fetch"
	"github.com/use-agent/sift/parser"
)

// ErrNoRuleMatched is returned when no stored rule covers a URL. A miss is
// expected control flow; match it with errors.Is.
var ErrNoRuleMatched = errors.New("crawler: no rule matched url")

// SubCrawlError reports one failed item of a __request__ fan-out. Failures
// are isolated: the error surfaces as a marker at the item's position and
// sibling sub-crawls keep running.
type SubCrawlError struct {
	Request string
	Err     error
}

func (e *SubCrawlError) Error() string {
	return fmt.Sprintf("crawler: sub-crawl %q: %v", e.Request, e.Err)
}

func (e *SubCrawlError) Unwrap() error {
	return e.Err
}

// Crawler crawls URLs by rule: resolve, download, parse, follow sub-crawl
// requests. It is safe for concurrent use; every crawl gets its own
// evaluation context.
type Crawler struct {
	engine      *engine.Engine
	storage     RuleStorage
	logger      *slog.Logger
	concurrency int
	maxDepth    int
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithEngine replaces the default engine.
func WithEngine(e *engine.Engine) Option {
	return func(c *Crawler) {
		if e != nil {
			c.engine = e
		}
	}
}

// WithLogger sets the logger; nil keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithConcurrency caps parallel sub-crawls per __request__ list.
func WithConcurrency(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithMaxDepth bounds recursive sub-crawls. Depth 0 is the top-level
// crawl; a rule chain that keeps emitting __request__ lists stops there.
func WithMaxDepth(depth int) Option {
	return func(c *Crawler) {
		if depth > 0 {
			c.maxDepth = depth
		}
	}
}

// New returns a crawler over the given rule storage.
func New(storage RuleStorage, opts ...Option) *Crawler {
	cfg := config.Load()
	c := &Crawler{
		storage:     storage,
		logger:      slog.Default(),
		concurrency: cfg.Crawl.Concurrency,
		maxDepth:    cfg.Crawl.MaxDepth,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.engine == nil {
		c.engine = engine.New()
	}
	return c
}

// Crawl resolves req (a URL, curl command, JSON object or request map) to
// a stored crawler rule, fetches and parses the page, and follows a
// __request__ result into concurrent sub-crawls collected under
// __result__ in input order. Returns ErrNoRuleMatched when no rule covers
// the URL.
func (c *Crawler) Crawl(ctx context.Context, req any) (map[string]any, error) {
	return c.crawl(ctx, req, 0)
}

func (c *Crawler) crawl(ctx context.Context, req any, depth int) (map[string]any, error) {
	args, err := fetch.EnsureRequest(req)
	if err != nil {
		return nil, err
	}

	cr, err := c.storage.FindCrawlerRule(args.URL)
	if err != nil {
		return nil, err
	}

	result, err := c.engine.Crawl(ctx, cr, args)
	if err != nil {
		return nil, err
	}

	inner, ok := result[cr.Name].(map[string]any)
	if !ok {
		return result, nil
	}
	requests, ok := inner[config.RequestKey]
	if !ok || isErrorMarker(requests) {
		return result, nil
	}
	inner[config.ResultKey] = c.subCrawl(ctx, requests, depth)
	return result, nil
}

// subCrawl crawls every entry of a __request__ result. List entries run
// concurrently under the configured limit; results keep input order and a
// failed entry yields an error marker at its position without cancelling
// siblings.
func (c *Crawler) subCrawl(ctx context.Context, requests any, depth int) any {
	if depth+1 > c.maxDepth {
		err := &SubCrawlError{
			Request: fmt.Sprint(requests),
			Err:     fmt.Errorf("max crawl depth %d exceeded", c.maxDepth),
		}
		c.logger.Warn("sub-crawl skipped", "depth", depth+1, "error", err.Err)
		return map[string]any{config.ErrorKey: err.Error()}
	}

	if !parser.IsList(requests) {
		res, err := c.crawl(ctx, requests, depth+1)
		if err != nil {
			sub := &SubCrawlError{Request: fmt.Sprint(requests), Err: err}
			c.logger.Warn("sub-crawl failed", "request", sub.Request, "error", err)
			return map[string]any{config.ErrorKey: sub.Error()}
		}
		return res
	}

	items := parser.ToList(requests)
	results := make([]any, len(items))
	sem := make(chan struct{}, c.concurrency)
	var wg sync.WaitGroup
	var completed, failed atomic.Int64

	for i, item := range items {
		wg.Add(1)
		go func(idx int, req any) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := c.crawl(ctx, req, depth+1)
			if err != nil {
				sub := &SubCrawlError{Request: fmt.Sprint(req), Err: err}
				c.logger.Warn("sub-crawl failed", "request", sub.Request, "error", err)
				results[idx] = map[string]any{config.ErrorKey: sub.Error()}
				failed.Add(1)
				return
			}
			results[idx] = res
			completed.Add(1)
		}(i, item)
	}
	wg.Wait()

	c.logger.Debug("sub-crawls finished",
		"total", len(items), "completed", completed.Load(), "failed", failed.Load())
	return results
}

// isErrorMarker reports whether v is a {__error__: ...} marker left by a
// failed parse rule, which must not be treated as sub-crawl requests.
func isErrorMarker(v any) bool {
	m, ok := v.(map[string]any)
	if !ok {
		return false
	}
	_, bad := m[config.ErrorKey]
	return bad
}
