// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/brief-engine/internal/httputil"
	"github.com/pdiddy/brief-engine/pkg/types"
)

// serperAPIURL is the Serper endpoint. Package-level var for test substitution.
var serperAPIURL = "https://google.serper.dev/search"

// Serper queries the Serper search API (https://serper.dev/).
type Serper struct {
	APIKey    string
	UserAgent string
	Client    *http.Client
}

// Name returns the backend identifier.
func (s *Serper) Name() string { return "serper" }

type serperRequest struct {
	Query string `json:"q"`
	Num   int    `json:"num"`
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// Search issues one query and maps organic results into SearchResults
// with position-based relevance scores.
func (s *Serper) Search(ctx context.Context, query string, maxResults int) ([]types.SearchResult, error) {
	if maxResults <= 0 || maxResults > 10 {
		maxResults = 10 // Serper caps at 10 per request
	}

	body, err := json.Marshal(serperRequest{Query: query, Num: maxResults})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serperAPIURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("X-API-KEY", s.APIKey)
	req.Header.Set("Content-Type", "application/json")
	if s.UserAgent != "" {
		req.Header.Set("User-Agent", s.UserAgent)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := httputil.DoWithRetry(ctx, client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("calling Serper API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("serper returned %d: %w", resp.StatusCode, ErrAuth)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("serper returned %d: %s", resp.StatusCode, string(body))
	}

	var raw serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding Serper response: %w", err)
	}

	var out []types.SearchResult
	for i, r := range raw.Organic {
		if i >= maxResults {
			break
		}
		out = append(out, types.SearchResult{
			Query:          query,
			URL:            r.Link,
			Title:          r.Title,
			Snippet:        r.Snippet,
			RelevanceScore: scoreResult(r.Title, r.Snippet, query, i),
			SourceType:     classifySource(r.Link),
		})
	}
	return out, nil
}
