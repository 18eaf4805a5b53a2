// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/pdiddy/brief-engine/internal/fetch"
	"github.com/pdiddy/brief-engine/internal/llm"
	"github.com/pdiddy/brief-engine/internal/schema"
	"github.com/pdiddy/brief-engine/pkg/types"
)

// Fetcher retrieves the readable text of a single page.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (fetch.Result, error)
}

// fetchConcurrency bounds the number of pages fetched and summarized
// at once.
const fetchConcurrency = 3

// errNoSources marks a fetch attempt that yielded zero usable
// sources. Unlike other retry exhaustions the orchestrator degrades
// instead of halting: synthesis still runs, with the gap recorded as
// a limitation.
var errNoSources = errors.New("no sources fetched")

// fetchNode retrieves the highest-relevance search results and
// condenses each page into a source summary. Individual pages are
// allowed to fail: a dead link becomes a recorded limitation, not a
// node failure. Only a total wipeout is retryable.
type fetchNode struct {
	fetcher Fetcher
	llm     llm.Backend
	cfg     types.FetchConfig
}

func (n *fetchNode) Name() string { return "content_fetching" }

func (n *fetchNode) Run(ctx context.Context, st State) (State, error) {
	picked := pickSources(st.Results, n.cfg.MaxSources)
	if len(picked) == 0 {
		return st, &RetryableError{Err: fmt.Errorf("%w: no search results to fetch", errNoSources)}
	}

	summaries := make([]*types.SourceSummary, len(picked))
	failures := make([]error, len(picked))
	sem := make(chan struct{}, fetchConcurrency)
	var wg sync.WaitGroup
	for i, r := range picked {
		wg.Add(1)
		go func(i int, r types.SearchResult) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			summaries[i], failures[i] = n.summarize(ctx, st, r)
		}(i, r)
	}
	wg.Wait()

	var out []types.SourceSummary
	for i := range picked {
		if failures[i] != nil {
			st = st.addLimitation(fmt.Sprintf("Could not use source %s: %v", picked[i].URL, failures[i]))
			continue
		}
		out = append(out, *summaries[i])
	}
	if len(out) == 0 {
		return st, &RetryableError{Err: fmt.Errorf("%w: all %d sources failed to fetch or summarize", errNoSources, len(picked))}
	}

	st.Summaries = out
	return st.addStep(
		fmt.Sprintf("Fetched and summarized %d of %d sources", len(out), len(picked)),
		"Content Fetching",
		fmt.Sprintf("Extracted key points from %d sources", len(out)),
	), nil
}

// summarize fetches one page and asks the model for a structured
// summary of its text.
func (n *fetchNode) summarize(ctx context.Context, st State, r types.SearchResult) (*types.SourceSummary, error) {
	page, err := n.fetcher.Fetch(ctx, r.URL)
	if err != nil {
		return nil, err
	}

	prompt, err := renderTemplate(summaryPromptTmpl, struct {
		Topic     string
		Questions []string
		Title     string
		URL       string
		Content   string
	}{st.Request.Topic, st.Plan.ResearchQuestions, page.Title, r.URL, page.Text})
	if err != nil {
		return nil, err
	}

	var out struct {
		Summary        string   `json:"summary"`
		RelevanceScore *float64 `json:"relevance_score"`
		KeyPoints      []string `json:"key_points"`
	}
	if err := llm.CompleteJSON(ctx, n.llm, prompt, &out); err != nil {
		return nil, err
	}

	title := page.Title
	if title == "" {
		title = r.Title
	}
	// The model assesses relevance against the research questions;
	// the search-rank score only stands in when the model omits it.
	score := r.RelevanceScore
	if out.RelevanceScore != nil {
		score = clamp01(*out.RelevanceScore)
	}
	summary := types.SourceSummary{
		URL:            r.URL,
		Title:          title,
		Summary:        out.Summary,
		RelevanceScore: score,
		KeyPoints:      out.KeyPoints,
	}
	if err := schema.ValidateSourceSummary(summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// clamp01 bounds v to [0,1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// pickSources keeps the top limit results by relevance, preserving
// their original ordering for the survivors.
func pickSources(results []types.SearchResult, limit int) []types.SearchResult {
	if limit <= 0 || len(results) <= limit {
		return results
	}
	order := make([]int, len(results))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return results[order[a]].RelevanceScore > results[order[b]].RelevanceScore
	})
	keep := make(map[int]bool, limit)
	for _, pos := range order[:limit] {
		keep[pos] = true
	}
	out := make([]types.SearchResult, 0, limit)
	for i, r := range results {
		if keep[i] {
			out = append(out, r)
		}
	}
	return out
}
