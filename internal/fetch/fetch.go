// Package fetch owns the outbound HTTP client shared by every scraping
// operation: fixed identification headers, a bounded retry count, a
// request timeout and a process-wide pacing limiter.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"

	"github.com/vgenov/rio-tools-server/internal/config"
)

type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	allowed []string
}

func New(cfg *config.Config) *Client {
	client := resty.New()
	client.SetHeader("user-agent", cfg.UserAgent)
	client.SetHeader("accept-language", cfg.AcceptLanguage)
	client.SetTimeout(cfg.RequestTimeout)
	client.SetRetryCount(cfg.RetryCount)

	var limiter *rate.Limiter
	if cfg.OutboundInterval > 0 {
		// Burst matches the hydration bound so a fresh batch doesn't
		// serialize entirely, while sustained traffic keeps the spacing.
		burst := cfg.HydrateConcurrency
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Every(cfg.OutboundInterval), burst)
	}

	return &Client{
		http:    client,
		limiter: limiter,
		allowed: cfg.AllowedDomains,
	}
}

// checkURL rejects non-HTTP schemes and, when an allowlist is configured,
// hosts outside it. Scraped pages control the URLs we follow, so this is
// the one place that decides where the process is willing to connect.
func (c *Client) checkURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("failed to parse URL %s: %w", rawURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme %s: only http and https allowed", parsed.Scheme)
	}
	if len(c.allowed) == 0 {
		return nil
	}
	hostname := parsed.Hostname()
	for _, domain := range c.allowed {
		if hostname == domain {
			return nil
		}
	}
	return fmt.Errorf("URL hostname %s is not in allowlist", hostname)
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// Document fetches a page and parses it into a goquery document. The
// body runs through charset detection first; the upstream site still
// serves windows-1251 on some pages.
func (c *Client) Document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	if err := c.checkURL(pageURL); err != nil {
		return nil, err
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	resp, err := c.http.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL %s: %w", pageURL, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("failed to fetch URL %s: status code %d", pageURL, resp.StatusCode())
	}

	reader, err := charset.NewReader(bytes.NewReader(resp.Body()), resp.Header().Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("failed to decode response from %s: %w", pageURL, err)
	}
	return goquery.NewDocumentFromReader(reader)
}

// PostForm sends a form-encoded POST and returns the decoded body text.
// Extra headers are forwarded verbatim (the voucher portal needs the
// caller's session cookie).
func (c *Client) PostForm(ctx context.Context, postURL string, form map[string]string, headers map[string]string) (string, error) {
	if err := c.checkURL(postURL); err != nil {
		return "", err
	}
	if err := c.wait(ctx); err != nil {
		return "", err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeaders(headers).
		SetFormData(form).
		Post(postURL)
	if err != nil {
		return "", fmt.Errorf("failed to post to %s: %w", postURL, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("failed to post to %s: status code %d", postURL, resp.StatusCode())
	}

	reader, err := charset.NewReader(bytes.NewReader(resp.Body()), resp.Header().Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("failed to decode response from %s: %w", postURL, err)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read response from %s: %w", postURL, err)
	}
	return string(body), nil
}
