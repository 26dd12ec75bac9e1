package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"toneexport/internal/assetcache"
	"toneexport/internal/config"
	"toneexport/internal/fileutil"
	"toneexport/internal/logging"
	"toneexport/internal/services"
)

const defaultUserAgent = "toneexport/dev"

// ProgressReporter receives body bytes as they are written.
type ProgressReporter interface {
	io.Writer
	Finish() error
}

// ProgressFunc creates a reporter for one download. total is -1 when the
// server did not send a length.
type ProgressFunc func(src string, total int64) ProgressReporter

// Client downloads assets.
type Client struct {
	httpClient   *http.Client
	maxRedirects int
	userAgent    string
	cache        *assetcache.Manager
	progress     ProgressFunc
	logger       *slog.Logger
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client. Its redirect policy is
// replaced so the client can count hops itself.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMaxRedirects bounds redirect hops per asset; 0 disables the limit.
func WithMaxRedirects(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxRedirects = n
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		if strings.TrimSpace(agent) != "" {
			c.userAgent = strings.TrimSpace(agent)
		}
	}
}

// WithCache attaches an asset cache. A nil manager disables caching.
func WithCache(cache *assetcache.Manager) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithProgress attaches a progress reporter factory.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Client) {
		c.progress = fn
	}
}

// WithLogger sets the logging destination.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "fetch")
	}
}

// NewClient constructs a client with the given options.
func NewClient(opts ...Option) *Client {
	client := &Client{
		httpClient:   &http.Client{},
		maxRedirects: 20,
		userAgent:    defaultUserAgent,
		logger:       logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	copied := *client.httpClient
	copied.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	client.httpClient = &copied
	return client
}

// NewFromConfig builds a client using the download section of cfg.
func NewFromConfig(cfg *config.Config, cache *assetcache.Manager, logger *slog.Logger, opts ...Option) *Client {
	base := []Option{
		WithHTTPClient(&http.Client{Timeout: cfg.DownloadTimeout()}),
		WithMaxRedirects(cfg.Download.MaxRedirects),
		WithUserAgent(cfg.Download.UserAgent),
		WithCache(cache),
		WithLogger(logger),
	}
	return NewClient(append(base, opts...)...)
}

// Fetch retrieves src into dest.
func (c *Client) Fetch(ctx context.Context, src, dest string) error {
	src = strings.TrimSpace(src)
	if src == "" {
		return services.Wrap(services.ErrDownload, "fetch", "resolve source", "empty source", nil)
	}
	parsed, err := url.Parse(src)
	if err != nil {
		return services.Wrap(services.ErrDownload, "fetch", "parse source", src, err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		return c.fetchRemote(ctx, parsed, dest)
	case "file":
		return c.copyLocal(parsed.Path, dest)
	case "":
		return c.copyLocal(src, dest)
	default:
		return services.Wrap(services.ErrDownload, "fetch", "resolve source", fmt.Sprintf("unsupported scheme %q", parsed.Scheme), nil)
	}
}

func (c *Client) copyLocal(path, dest string) error {
	if err := fileutil.CopyFile(path, dest); err != nil {
		_ = os.Remove(dest)
		return services.Wrap(services.ErrDownload, "fetch", "copy local source", path, err)
	}
	return nil
}

func (c *Client) fetchRemote(ctx context.Context, src *url.URL, dest string) error {
	logger := logging.WithContext(ctx, c.logger)
	original := src.String()

	if c.cache != nil {
		hit, err := c.cache.Lookup(ctx, original, dest)
		if err != nil {
			logging.WarnWithContext(logger, "asset cache lookup failed; downloading", "assetcache_lookup_failed",
				logging.String("url", original),
				logging.Error(err),
				logging.String(logging.FieldImpact, "asset fetched from network"),
			)
		} else if hit {
			logger.Info("asset restored from cache", logging.String("url", original))
			return nil
		}
	}

	started := time.Now()
	resp, err := c.follow(ctx, src)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	written, err := c.writeBody(original, resp, dest)
	if err != nil {
		_ = os.Remove(dest)
		return services.Wrap(services.ErrDownload, "fetch", "read body", original, err)
	}

	logger.Info("asset downloaded",
		logging.String("url", original),
		logging.Int64("bytes", written),
		logging.Duration("elapsed", time.Since(started)),
	)

	if c.cache != nil {
		if err := c.cache.Store(ctx, original, dest, resp.Header.Get("Content-Type")); err != nil {
			logging.WarnWithContext(logger, "asset cache store failed", "assetcache_store_failed",
				logging.String("url", original),
				logging.Error(err),
				logging.String(logging.FieldImpact, "next export downloads this asset again"),
			)
		}
	}
	return nil
}

// follow issues GET requests until a non-redirect response arrives. The
// returned response always has status 200.
func (c *Client) follow(ctx context.Context, target *url.URL) (*http.Response, error) {
	original := target.String()
	for hops := 0; ; hops++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
		if err != nil {
			return nil, services.Wrap(services.ErrDownload, "fetch", "build request", original, err)
		}
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, services.Wrap(services.ErrDownload, "fetch", "GET", original, err)
		}

		if isRedirect(resp.StatusCode) {
			location := resp.Header.Get("Location")
			drain(resp)
			if location == "" {
				return nil, services.Wrap(services.ErrDownload, "fetch", "follow redirect", original,
					fmt.Errorf("HTTP %d without Location header", resp.StatusCode))
			}
			if c.maxRedirects > 0 && hops+1 > c.maxRedirects {
				return nil, services.Wrap(services.ErrDownload, "fetch", "follow redirect", original,
					fmt.Errorf("stopped after %d redirects", c.maxRedirects))
			}
			next, err := target.Parse(location)
			if err != nil {
				return nil, services.Wrap(services.ErrDownload, "fetch", "follow redirect", original, err)
			}
			c.logger.DebugContext(ctx, "following redirect",
				logging.Int("status", resp.StatusCode),
				logging.String("location", next.String()),
			)
			target = next
			continue
		}

		if resp.StatusCode != http.StatusOK {
			drain(resp)
			return nil, services.Wrap(services.ErrDownload, "fetch", "GET", original,
				fmt.Errorf("unexpected HTTP status %s", resp.Status))
		}
		return resp, nil
	}
}

func (c *Client) writeBody(src string, resp *http.Response, dest string) (int64, error) {
	out, err := os.Create(dest)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	var w io.Writer = out
	if c.progress != nil {
		if reporter := c.progress(src, resp.ContentLength); reporter != nil {
			defer reporter.Finish()
			w = io.MultiWriter(out, reporter)
		}
	}

	written, err := io.Copy(w, resp.Body)
	if err != nil {
		return written, err
	}
	if resp.ContentLength >= 0 && written != resp.ContentLength {
		return written, fmt.Errorf("short body: got %d of %d bytes", written, resp.ContentLength)
	}
	return written, out.Close()
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64*1024))
	_ = resp.Body.Close()
}

// IsRemote reports whether src is fetched over the network.
func IsRemote(src string) bool {
	parsed, err := url.Parse(strings.TrimSpace(src))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(parsed.Scheme)
	return scheme == "http" || scheme == "https"
}
