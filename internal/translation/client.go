package translation

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"translateme/internal/langdetect"
	"translateme/internal/language"
)

const (
	// DefaultBaseURL is the public MyMemory endpoint.
	DefaultBaseURL = "https://api.mymemory.translated.net"
	// DefaultTimeout bounds a single upstream request.
	DefaultTimeout = 15 * time.Second
)

// Config configures a Client.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// ContactEmail is sent as the "de" parameter, which raises MyMemory's daily quota.
	ContactEmail string
}

// Option customizes a Client.
type Option func(*Client)

// WithMetrics records every upstream request on m.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithDetector replaces the language detector used for the "auto" source language.
func WithDetector(detect func(text string) string) Option {
	return func(c *Client) { c.detect = detect }
}

// Client calls the MyMemory /get endpoint. It is safe for concurrent use.
type Client struct {
	http    *resty.Client
	email   string
	detect  func(string) string
	metrics *Metrics
}

// NewClient builds a Client with an instrumented transport.
func NewClient(cfg Config, opts ...Option) *Client {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		http: resty.New().
			SetBaseURL(base).
			SetTimeout(timeout).
			SetTransport(otelhttp.NewTransport(http.DefaultTransport)).
			SetHeader("Accept", "application/json"),
		email:  strings.TrimSpace(cfg.ContactEmail),
		detect: langdetect.DetectISO6391,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Translate translates text from sourceLang to targetLang and returns
// responseData.translatedText. sourceLang may be "auto".
//
// Input and language checks run before any network call. Every error wraps one of
// ErrEmptyInput, ErrInputTooLarge, ErrInvalidLanguage, ErrNetwork,
// ErrMalformedResponse or ErrRejected.
func (c *Client) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	if err := ValidateInput(text); err != nil {
		return "", err
	}
	src, dst, err := c.resolvePair(text, sourceLang, targetLang)
	if err != nil {
		return "", err
	}

	started := time.Now()
	translated, err := c.get(ctx, text, src, dst)
	c.metrics.observe(err, time.Since(started))
	return translated, err
}

func (c *Client) resolvePair(text, sourceLang, targetLang string) (string, string, error) {
	dst := language.NormalizeCode(targetLang)
	if dst == "" {
		return "", "", fmt.Errorf("%w: target %q", ErrInvalidLanguage, targetLang)
	}

	src := language.NormalizeSource(sourceLang)
	switch src {
	case "":
		return "", "", fmt.Errorf("%w: source %q", ErrInvalidLanguage, sourceLang)
	case language.Auto:
		if src = c.detect(text); src == "" {
			return "", "", fmt.Errorf("%w: could not detect source language", ErrInvalidLanguage)
		}
	}

	if src == dst {
		return "", "", fmt.Errorf("%w: source and target are both %q", ErrInvalidLanguage, dst)
	}
	return src, dst, nil
}

func (c *Client) get(ctx context.Context, text, src, dst string) (string, error) {
	// resty encodes query params with url.Values, so reserved characters in text survive.
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("q", text).
		SetQueryParam("langpair", src+"|"+dst)
	if c.email != "" {
		req.SetQueryParam("de", c.email)
	}

	resp, err := req.Get("/get")
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: status %d", ErrNetwork, resp.StatusCode())
	}
	return decodeResponse(resp.Body())
}
