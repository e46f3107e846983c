// Package engine evaluates parse rules against documents. It implements
// the chain evaluator with its list fan-out policy, the parent/child rule
// composition, and whole crawler-rule evaluation including the download
// step. The crawler package builds URL resolution and sub-crawl fan-out on
// top of it.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/use-agent/sift/config"
	"github.com/use-agent/sift/fetch"
	"github.com/use-agent/sift/parser"
	"github.com/use-agent/sift/rule"
)

// Engine evaluates chains, parse rules and crawler rules. It is safe for
// concurrent use; per-evaluation state lives in the Context each call
// receives or creates.
type Engine struct {
	registry   *parser.Registry
	downloader fetch.Downloader
	logger     *slog.Logger
	strict     bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry uses a custom parser registry instead of parser.Default().
func WithRegistry(r *parser.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithDownloader replaces the bundled HTTP downloader.
func WithDownloader(d fetch.Downloader) Option {
	return func(e *Engine) {
		if d != nil {
			e.downloader = d
		}
	}
}

// WithLogger sets the logger; nil keeps slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithStrict makes Parse abort on the first failed parse rule instead of
// recording an error marker and continuing with the remaining rules.
func WithStrict(strict bool) Option {
	return func(e *Engine) {
		e.strict = strict
	}
}

// New returns an engine with the default registry, the bundled HTTP
// downloader and permissive error handling, unless options say otherwise.
func New(opts ...Option) *Engine {
	cfg := config.Load()
	e := &Engine{
		registry: parser.Default(),
		logger:   slog.Default(),
		strict:   cfg.Engine.Strict,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.downloader == nil {
		e.downloader = fetch.NewHTTPDownloader(cfg.Fetch)
	}
	return e
}

// Registry returns the engine's parser registry, for registering custom
// capabilities.
func (e *Engine) Registry() *parser.Registry {
	return e.registry
}

// Download fetches the page a crawler rule describes. The rule's request
// arguments are merged with override (override wins field-wise) and the
// rule's encoding applies to response decoding unless the arguments carry
// their own.
func (e *Engine) Download(ctx context.Context, cr *rule.CrawlerRule, override *fetch.RequestArguments) (*fetch.Response, error) {
	args := e.requestArgs(cr, override)
	if args.URL == "" {
		return nil, fmt.Errorf("engine: rule %q has no url to download", cr.Name)
	}
	return e.downloader.Download(ctx, args)
}

// Crawl downloads the rule's page and parses it in one step, seeding the
// evaluation context with the request arguments and the response.
func (e *Engine) Crawl(ctx context.Context, cr *rule.CrawlerRule, override *fetch.RequestArguments) (map[string]any, error) {
	args := e.requestArgs(cr, override)
	if args.URL == "" {
		return nil, fmt.Errorf("engine: rule %q has no url to download", cr.Name)
	}
	resp, err := e.downloader.Download(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("engine: download %s: %w", args.URL, err)
	}

	pc := parser.NewContext()
	pc.Set(parser.KeyRequestArgs, args)
	pc.Set(parser.KeyResponse, resp)
	return e.Parse(pc, resp.Text, cr)
}

func (e *Engine) requestArgs(cr *rule.CrawlerRule, override *fetch.RequestArguments) *fetch.RequestArguments {
	args := fetch.Merge(&cr.RequestArgs, override)
	if args.Encoding == "" && cr.Encoding != "" {
		args.Encoding = cr.Encoding
	}
	return args
}
