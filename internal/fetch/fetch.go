// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves a URL and extracts its readable article
// text. Failures are per-URL: a FetchError never aborts the caller's
// whole batch.
package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"

	"github.com/pdiddy/brief-engine/pkg/types"
)

// Result holds the extracted content of one page.
type Result struct {
	// URL is the fetched location.
	URL string

	// Title is the extracted page title.
	Title string

	// Text is the readable article text, truncated to MaxChars.
	Text string

	// Excerpt is a short description when the page provides one.
	Excerpt string
}

// FetchError wraps a per-URL failure with its location.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher retrieves pages over plain HTTP and extracts main content
// with readability. Construct once and reuse; it is safe for
// concurrent use.
type Fetcher struct {
	UserAgent string
	// Timeout applies per URL. Zero means 30s.
	Timeout time.Duration
	// MaxChars truncates extracted text. Zero means 8000.
	MaxChars int
	Client   *http.Client
}

// NewFetcher builds a Fetcher from FetchConfig.
func NewFetcher(cfg types.FetchConfig) *Fetcher {
	return &Fetcher{
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.Timeout,
		MaxChars:  cfg.MaxChars,
	}
}

// Fetch retrieves link within the per-URL timeout and extracts its
// article text. Every failure path returns a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, link string) (Result, error) {
	if strings.TrimSpace(link) == "" {
		return Result{}, &FetchError{URL: link, Err: fmt.Errorf("empty url")}
	}

	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return Result{}, &FetchError{URL: link, Err: err}
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return Result{}, &FetchError{URL: link, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Result{}, &FetchError{URL: link, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	pageURL, err := url.Parse(link)
	if err != nil {
		return Result{}, &FetchError{URL: link, Err: err}
	}

	article, err := readability.FromReader(resp.Body, pageURL)
	if err != nil {
		return Result{}, &FetchError{URL: link, Err: fmt.Errorf("extracting content: %w", err)}
	}

	text := strings.TrimSpace(article.TextContent)
	maxChars := f.MaxChars
	if maxChars <= 0 {
		maxChars = 8000
	}
	text = truncate(text, maxChars)

	return Result{
		URL:     link,
		Title:   article.Title,
		Text:    text,
		Excerpt: article.Excerpt,
	}, nil
}

// truncate caps s at maxBytes, backing up to a rune boundary so a
// multi-byte character is never split, and marks the cut with "...".
func truncate(s string, maxBytes int) string {
	if len(s) <= maxBytes {
		return s
	}
	cut := maxBytes
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
