// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package websearch issues web search queries against a pluggable
// backend (Serper, Brave, or a deterministic simulated backend) and
// returns ranked results. The Backend contract is uniform regardless
// of whether results are live or simulated.
package websearch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pdiddy/brief-engine/pkg/types"
)

// ErrAuth marks an authentication or credential failure. It is never
// transient; callers must not retry.
var ErrAuth = errors.New("websearch: authentication failed")

// Backend searches a single web search API.
type Backend interface {
	Name() string
	Search(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error)
}

// New selects a backend from config. An explicit provider name wins;
// otherwise a configured API key selects Serper, and no key at all
// falls back to the simulated backend. Live backends carry the
// configured per-call timeout (default 30s) so a stalled API never
// blocks a node indefinitely.
func New(cfg types.SearchConfig) (Backend, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &http.Client{Timeout: timeout}

	switch cfg.Provider {
	case "serper":
		return &Serper{APIKey: cfg.APIKey, UserAgent: cfg.UserAgent, Client: client}, nil
	case "brave":
		return &Brave{APIKey: cfg.APIKey, UserAgent: cfg.UserAgent, Client: client}, nil
	case "simulated":
		return &Simulated{}, nil
	case "":
		if cfg.APIKey != "" {
			return &Serper{APIKey: cfg.APIKey, UserAgent: cfg.UserAgent, Client: client}, nil
		}
		return &Simulated{}, nil
	default:
		return nil, fmt.Errorf("unsupported search provider %q", cfg.Provider)
	}
}

// scoreResult combines rank position with query-term matches in the
// title and snippet. Position contributes a decaying base score; term
// matches add a title-weighted bonus. The result is clamped to [0,1].
func scoreResult(title, snippet, query string, position int) float64 {
	base := 1.0 - float64(position)*0.1
	if base < 0.1 {
		base = 0.1
	}

	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return base
	}
	titleLower := strings.ToLower(title)
	snippetLower := strings.ToLower(snippet)

	var titleMatches, snippetMatches int
	for _, term := range terms {
		if strings.Contains(titleLower, term) {
			titleMatches++
		}
		if strings.Contains(snippetLower, term) {
			snippetMatches++
		}
	}

	score := base +
		float64(titleMatches)/float64(len(terms))*0.3 +
		float64(snippetMatches)/float64(len(terms))*0.1
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// academicDomains, newsDomains: substrings that classify a source URL.
var (
	academicDomains = []string{
		"arxiv.org", "scholar.google", "researchgate.net",
		"academia.edu", "jstor.org", ".edu", "pubmed", "nature.com",
	}
	newsDomains = []string{
		"cnn.com", "bbc.com", "reuters.com", "ap.org",
		"nytimes.com", "washingtonpost.com", "bloomberg.com",
	}
	codeDomains = []string{"github.com", "gitlab.com", "bitbucket.org"}
)

// classifySource maps a URL to a coarse source type.
func classifySource(url string) string {
	if url == "" {
		return "unknown"
	}
	lower := strings.ToLower(url)

	for _, d := range academicDomains {
		if strings.Contains(lower, d) {
			return "academic"
		}
	}
	for _, d := range newsDomains {
		if strings.Contains(lower, d) {
			return "news"
		}
	}
	if strings.Contains(lower, ".gov") {
		return "government"
	}
	if strings.Contains(lower, "wikipedia.org") {
		return "encyclopedia"
	}
	for _, d := range codeDomains {
		if strings.Contains(lower, d) {
			return "code"
		}
	}
	return "web"
}
