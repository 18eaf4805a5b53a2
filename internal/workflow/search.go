// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/pdiddy/brief-engine/internal/websearch"
	"github.com/pdiddy/brief-engine/pkg/types"
)

// searchNode fans the planned queries out to the search backend,
// merges the per-query results in query order, and deduplicates by
// URL. The node fails as a whole: any query error makes the whole
// attempt retryable so the retry covers every query again.
type searchNode struct {
	backend websearch.Backend
	cfg     types.SearchConfig
}

func (n *searchNode) Name() string { return "search" }

func (n *searchNode) Run(ctx context.Context, st State) (State, error) {
	queries := st.Plan.SearchQueries
	if len(queries) == 0 {
		return st, fatal("no search queries in plan")
	}

	perQuery := n.cfg.MaxResults / len(queries)
	if perQuery < 1 {
		perQuery = 1
	}

	batches := make([][]types.SearchResult, len(queries))
	errs := make([]error, len(queries))
	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			batches[i], errs[i] = n.backend.Search(ctx, q, perQuery)
		}(i, q)
	}
	wg.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, websearch.ErrAuth) {
			return st, fatal("search backend rejected credentials: %v", err)
		}
		return st, retryable("searching %q: %v", queries[i], err)
	}

	merged := mergeResults(batches, n.cfg.MaxResults)
	if len(merged) == 0 {
		return st, retryable("all %d queries returned zero results", len(queries))
	}

	st.Results = merged
	return st.addStep(
		fmt.Sprintf("Executed %d searches via %s", len(queries), n.backend.Name()),
		"Web Search",
		fmt.Sprintf("Collected %d unique results", len(merged)),
	), nil
}

// mergeResults concatenates per-query batches in query order,
// deduplicates by URL keeping the first occurrence (upgrading its
// relevance score if a later duplicate scored higher), and enforces
// the overall cap by evicting the lowest-scored entries while keeping
// the survivors in their original order.
func mergeResults(batches [][]types.SearchResult, limit int) []types.SearchResult {
	var merged []types.SearchResult
	index := make(map[string]int)
	for _, batch := range batches {
		for _, r := range batch {
			if at, seen := index[r.URL]; seen {
				if r.RelevanceScore > merged[at].RelevanceScore {
					merged[at].RelevanceScore = r.RelevanceScore
				}
				continue
			}
			index[r.URL] = len(merged)
			merged = append(merged, r)
		}
	}

	if limit <= 0 || len(merged) <= limit {
		return merged
	}

	// Rank positions by score and keep the top limit, then restore
	// the original ordering.
	order := make([]int, len(merged))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return merged[order[a]].RelevanceScore > merged[order[b]].RelevanceScore
	})
	keep := make(map[int]bool, limit)
	for _, pos := range order[:limit] {
		keep[pos] = true
	}
	out := make([]types.SearchResult, 0, limit)
	for i, r := range merged {
		if keep[i] {
			out = append(out, r)
		}
	}
	return out
}
