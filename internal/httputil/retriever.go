package httputil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/prelaunch-dev/prelaunch/internal/log"
	"github.com/prelaunch-dev/prelaunch/internal/progress"
)

const (
	// DefaultMaxRedirects is the number of redirects followed before a fetch
	// fails with ErrTooManyRedirects.
	DefaultMaxRedirects = 10

	// DefaultMaxTextBytes caps bodies buffered by FetchText (1 MiB).
	DefaultMaxTextBytes = 1 << 20
)

// ErrTooManyRedirects is returned (wrapped in *RedirectError) when a fetch
// exceeds the redirect limit.
var ErrTooManyRedirects = errors.New("too many redirects")

// RedirectError reports a redirect chain that was abandoned, either because
// it was too long or because a hop violated the redirect policy.
type RedirectError struct {
	URL  string // URL the fetch started from
	Hops int    // redirects followed before giving up
	Err  error
}

func (e *RedirectError) Error() string {
	return fmt.Sprintf("fetching %s: %v (after %d redirects)", log.SanitizeURL(e.URL), e.Err, e.Hops)
}

func (e *RedirectError) Unwrap() error {
	return e.Err
}

// FetchError reports a failed GET. StatusCode is zero when no response was
// received (network, TLS or context errors); Err is nil for a plain non-2xx
// status.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("GET %s: unexpected status %d %s",
			log.SanitizeURL(e.URL), e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("GET %s: %v", log.SanitizeURL(e.URL), e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Retriever performs GET requests, walking redirects itself so every hop can
// be counted and validated.
type Retriever struct {
	client        *http.Client
	maxRedirects  int
	maxTextBytes  int64
	allowInsecure bool
	userAgent     string
	progressOut   io.Writer
	lookup        lookupFunc
	logger        log.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithClient sets the HTTP client. The client's CheckRedirect is replaced so
// that redirects always come back to the Retriever.
func WithClient(c *http.Client) Option {
	return func(r *Retriever) {
		clone := *c
		clone.CheckRedirect = noFollow
		r.client = &clone
	}
}

// WithMaxRedirects sets the redirect limit.
func WithMaxRedirects(n int) Option {
	return func(r *Retriever) {
		r.maxRedirects = n
	}
}

// WithMaxTextBytes sets the FetchText body cap.
func WithMaxTextBytes(n int64) Option {
	return func(r *Retriever) {
		r.maxTextBytes = n
	}
}

// WithAllowInsecure disables the redirect policy (HTTPS only, public
// addresses only). Mirrors on a private network need this.
func WithAllowInsecure(allow bool) Option {
	return func(r *Retriever) {
		r.allowInsecure = allow
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(r *Retriever) {
		r.userAgent = ua
	}
}

// WithProgress draws a progress bar on w during FetchFile. A nil w disables
// progress output.
func WithProgress(w io.Writer) Option {
	return func(r *Retriever) {
		r.progressOut = w
	}
}

// WithLogger sets the logger for the retriever.
func WithLogger(logger log.Logger) Option {
	return func(r *Retriever) {
		r.logger = logger
	}
}

// NewRetriever returns a Retriever with a NewSecureClient client unless
// WithClient is given.
func NewRetriever(opts ...Option) *Retriever {
	r := &Retriever{
		client:       NewSecureClient(DefaultOptions()),
		maxRedirects: DefaultMaxRedirects,
		maxTextBytes: DefaultMaxTextBytes,
		userAgent:    "prelaunch",
		lookup:       defaultLookup,
		logger:       log.NewNoop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Get issues a GET for rawURL and follows redirects until a non-redirect
// response arrives. Only 2xx responses are returned; the caller must close
// the body.
func (r *Retriever) Get(ctx context.Context, rawURL string) (*http.Response, error) {
	current, err := url.Parse(rawURL)
	if err != nil {
		return nil, &FetchError{URL: rawURL, Err: err}
	}

	for hops := 0; ; hops++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, current.String(), nil)
		if err != nil {
			return nil, &FetchError{URL: current.String(), Err: err}
		}
		if r.userAgent != "" {
			req.Header.Set("User-Agent", r.userAgent)
		}

		r.logger.Debug("http request", "url", log.SanitizeURL(current.String()), "hop", hops)
		resp, err := r.client.Do(req)
		if err != nil {
			return nil, &FetchError{URL: current.String(), Err: unwrapURLError(err)}
		}

		if !isRedirect(resp.StatusCode) {
			if resp.StatusCode < 200 || resp.StatusCode > 299 {
				drain(resp)
				return nil, &FetchError{URL: current.String(), StatusCode: resp.StatusCode}
			}
			return resp, nil
		}

		location := resp.Header.Get("Location")
		drain(resp)
		if location == "" {
			return nil, &FetchError{
				URL:        current.String(),
				StatusCode: resp.StatusCode,
				Err:        errors.New("redirect without Location header"),
			}
		}
		if hops >= r.maxRedirects {
			return nil, &RedirectError{URL: rawURL, Hops: hops, Err: ErrTooManyRedirects}
		}

		next, err := current.Parse(location)
		if err != nil {
			return nil, &RedirectError{URL: rawURL, Hops: hops, Err: fmt.Errorf("invalid Location header: %w", err)}
		}
		if !r.allowInsecure {
			if err := validateHop(ctx, next, r.lookup, r.viaProxy(next)); err != nil {
				return nil, &RedirectError{URL: rawURL, Hops: hops, Err: err}
			}
		}

		r.logger.Debug("following redirect",
			"status", resp.StatusCode,
			"from", log.SanitizeURL(current.String()),
			"to", log.SanitizeURL(next.String()))
		current = next
	}
}

// viaProxy reports whether the client sends requests for u through a proxy.
func (r *Retriever) viaProxy(u *url.URL) bool {
	tr, ok := r.client.Transport.(*http.Transport)
	if !ok || tr.Proxy == nil {
		return false
	}
	proxyURL, err := tr.Proxy(&http.Request{Method: http.MethodGet, URL: u, Header: http.Header{}})
	return err == nil && proxyURL != nil
}

// FetchText retrieves a small text document such as a checksum manifest.
// Bodies larger than the configured cap are rejected; invalid UTF-8 is
// replaced with U+FFFD.
func (r *Retriever) FetchText(ctx context.Context, rawURL string) (string, error) {
	resp, err := r.Get(ctx, rawURL)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxTextBytes+1))
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: fmt.Errorf("reading body: %w", err)}
	}
	if int64(len(data)) > r.maxTextBytes {
		return "", &FetchError{URL: rawURL, Err: fmt.Errorf("response exceeds %d bytes", r.maxTextBytes)}
	}

	text := strings.ToValidUTF8(string(data), "\uFFFD")
	return strings.TrimPrefix(text, "\ufeff"), nil
}

// FetchFile streams rawURL into dest and returns the number of bytes
// written. dest is created before the request is sent. On failure the
// partial file is left in place for the caller to remove.
func (r *Retriever) FetchFile(ctx context.Context, rawURL, dest string) (int64, error) {
	out, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer out.Close()

	resp, err := r.Get(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var w io.Writer = out
	var pw *progress.Writer
	if r.progressOut != nil {
		pw = progress.NewWriter(out, resp.ContentLength, r.progressOut).WithLabel(lastSegment(resp.Request.URL))
		w = pw
	}

	n, err := io.Copy(w, resp.Body)
	if pw != nil {
		pw.Finish()
	}
	if err != nil {
		return n, &FetchError{URL: rawURL, Err: fmt.Errorf("download interrupted: %w", err)}
	}
	if resp.ContentLength > 0 && n != resp.ContentLength {
		return n, &FetchError{URL: rawURL, Err: fmt.Errorf("short body: got %d of %d bytes", n, resp.ContentLength)}
	}

	if err := out.Close(); err != nil {
		return n, fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return n, nil
}

func isRedirect(status int) bool {
	switch status {
	case http.StatusMovedPermanently, http.StatusFound, http.StatusSeeOther,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// drain discards a bounded amount of the body so the connection can be
// reused, then closes it.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

// unwrapURLError strips the *url.Error wrapper added by http.Client, whose
// message repeats the unsanitized URL.
func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return ue.Err
	}
	return err
}

func lastSegment(u *url.URL) string {
	if u == nil {
		return ""
	}
	path := strings.TrimRight(u.Path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}
