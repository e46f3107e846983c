package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"

	"github.com/use-agent/sift/config"
)

// Downloader fetches a response for prepared request arguments. The rule
// engine calls it with the crawler rule's arguments merged with any
// per-call overrides. Implementations wrap browsers, caches or recorded
// fixtures; the bundled implementation is HTTPDownloader. The context
// carries cancellation for both the blocking and the goroutine-driven call
// styles.
type Downloader interface {
	Download(ctx context.Context, args *RequestArguments) (*Response, error)
}

// HTTPDownloader is a plain net/http Downloader with charset-aware body
// decoding and an optional politeness rate limiter.
type HTTPDownloader struct {
	client  *http.Client
	cfg     config.FetchConfig
	limiter *rate.Limiter
	logger  *slog.Logger
}

// DownloaderOption configures an HTTPDownloader.
type DownloaderOption func(*HTTPDownloader)

// WithRateLimit caps outgoing requests with a token bucket shared by every
// call on this downloader.
func WithRateLimit(requestsPerSecond float64, burst int) DownloaderOption {
	return func(d *HTTPDownloader) {
		d.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), burst)
	}
}

// WithClient replaces the underlying http.Client.
func WithClient(client *http.Client) DownloaderOption {
	return func(d *HTTPDownloader) {
		d.client = client
	}
}

// WithDownloadLogger sets the logger; nil keeps slog.Default().
func WithDownloadLogger(logger *slog.Logger) DownloaderOption {
	return func(d *HTTPDownloader) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewHTTPDownloader returns a downloader with the given fetch defaults.
func NewHTTPDownloader(cfg config.FetchConfig, opts ...DownloaderOption) *HTTPDownloader {
	d := &HTTPDownloader{
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.client == nil {
		maxRedirects := cfg.MaxRedirects
		if maxRedirects <= 0 {
			maxRedirects = 10
		}
		d.client = &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("fetch: more than %d redirects", maxRedirects)
				}
				return nil
			},
		}
	}
	return d
}

// Download performs the HTTP request described by args.
func (d *HTTPDownloader) Download(ctx context.Context, args *RequestArguments) (*Response, error) {
	if args == nil || args.URL == "" {
		return nil, fmt.Errorf("fetch: request has no url")
	}

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("fetch: rate limit wait: %w", err)
		}
	}

	timeout := d.cfg.Timeout
	if args.Timeout > 0 {
		timeout = time.Duration(args.Timeout * float64(time.Second))
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	method := strings.ToUpper(args.Method)
	if method == "" {
		method = http.MethodGet
	}
	var body io.Reader
	if args.Data != "" {
		body = strings.NewReader(args.Data)
	}
	req, err := http.NewRequestWithContext(ctx, method, args.URL, body)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request: %w", err)
	}

	req.Header.Set("User-Agent", d.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range args.Headers {
		req.Header.Set(k, v)
	}
	if args.Auth != "" {
		user, pass, _ := strings.Cut(args.Auth, ":")
		req.SetBasicAuth(user, pass)
	}

	client := d.client
	if args.Proxy != "" {
		proxyURL, err := url.Parse(args.Proxy)
		if err != nil {
			return nil, fmt.Errorf("fetch: parse proxy %q: %w", args.Proxy, err)
		}
		proxied := *client
		proxied.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
		client = &proxied
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: do request: %w", err)
	}
	defer resp.Body.Close()

	maxBody := d.cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 10 << 20
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("fetch: read body: %w", err)
	}

	text, usedEncoding, err := DecodeBody(raw, resp.Header.Get("Content-Type"), args.Encoding)
	if err != nil {
		d.logger.Warn("body decode failed, keeping raw bytes",
			"url", args.URL, "encoding", args.Encoding, "error", err)
		text, usedEncoding = string(raw), ""
	}

	return &Response{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       raw,
		Text:       text,
		Encoding:   usedEncoding,
	}, nil
}

// DecodeBody converts a response body to UTF-8. An explicit charset name
// wins; otherwise the charset is sniffed from the content-type header, a
// BOM or the body prefix. The returned string is the decoded text and the
// second value names the charset used.
func DecodeBody(raw []byte, contentType, explicit string) (string, string, error) {
	if explicit != "" {
		enc, err := htmlindex.Get(explicit)
		if err != nil {
			return "", "", fmt.Errorf("fetch: unknown encoding %q: %w", explicit, err)
		}
		decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
		if err != nil {
			return "", "", fmt.Errorf("fetch: decode %s body: %w", explicit, err)
		}
		return string(decoded), explicit, nil
	}

	peek := raw
	if len(peek) > 1024 {
		peek = peek[:1024]
	}
	enc, name, _ := charset.DetermineEncoding(peek, contentType)
	if name == "utf-8" {
		return string(raw), name, nil
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return "", "", fmt.Errorf("fetch: decode %s body: %w", name, err)
	}
	return string(decoded), name, nil
}
