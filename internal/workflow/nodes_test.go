// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/brief-engine/pkg/types"
)

func TestMergeResults(t *testing.T) {
	batches := [][]types.SearchResult{
		{
			{URL: "https://a.example", Title: "A", RelevanceScore: 0.9},
			{URL: "https://b.example", Title: "B", RelevanceScore: 0.5},
		},
		{
			{URL: "https://a.example", Title: "A again", RelevanceScore: 0.95},
			{URL: "https://c.example", Title: "C", RelevanceScore: 0.7},
		},
	}

	merged := mergeResults(batches, 10)
	if len(merged) != 3 {
		t.Fatalf("got %d results, want 3", len(merged))
	}
	if merged[0].URL != "https://a.example" || merged[1].URL != "https://b.example" || merged[2].URL != "https://c.example" {
		t.Errorf("merge order wrong: %v %v %v", merged[0].URL, merged[1].URL, merged[2].URL)
	}
	if merged[0].Title != "A" {
		t.Errorf("duplicate replaced first occurrence, title = %q", merged[0].Title)
	}
	if merged[0].RelevanceScore != 0.95 {
		t.Errorf("duplicate did not upgrade score, got %f", merged[0].RelevanceScore)
	}
}

func TestMergeResultsCap(t *testing.T) {
	batches := [][]types.SearchResult{{
		{URL: "https://a.example", RelevanceScore: 0.3},
		{URL: "https://b.example", RelevanceScore: 0.9},
		{URL: "https://c.example", RelevanceScore: 0.6},
	}}

	merged := mergeResults(batches, 2)
	if len(merged) != 2 {
		t.Fatalf("got %d results, want 2", len(merged))
	}
	// Lowest score evicted, survivors keep original order.
	if merged[0].URL != "https://b.example" || merged[1].URL != "https://c.example" {
		t.Errorf("wrong survivors: %v %v", merged[0].URL, merged[1].URL)
	}
}

func TestPickSources(t *testing.T) {
	results := []types.SearchResult{
		{URL: "https://a.example", RelevanceScore: 0.2},
		{URL: "https://b.example", RelevanceScore: 0.8},
		{URL: "https://c.example", RelevanceScore: 0.5},
		{URL: "https://d.example", RelevanceScore: 0.9},
	}

	picked := pickSources(results, 2)
	if len(picked) != 2 {
		t.Fatalf("got %d sources, want 2", len(picked))
	}
	if picked[0].URL != "https://b.example" || picked[1].URL != "https://d.example" {
		t.Errorf("wrong picks: %v %v", picked[0].URL, picked[1].URL)
	}

	if got := pickSources(results, 10); len(got) != len(results) {
		t.Errorf("limit above length changed the slice: %d", len(got))
	}
}

func TestFetchNodePartialFailure(t *testing.T) {
	node := &fetchNode{
		fetcher: &fakeFetcher{fail: map[string]bool{"https://dead.example": true}},
		llm:     scriptedLLM(),
		cfg:     types.Defaults().Fetch,
	}

	st := State{
		Request: types.BriefRequest{Topic: "quantum computing advances in 2026"},
		Results: []types.SearchResult{
			{URL: "https://ok.example", Title: "OK", RelevanceScore: 0.9},
			{URL: "https://dead.example", Title: "Dead", RelevanceScore: 0.8},
		},
	}
	got, err := node.Run(context.Background(), st)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(got.Summaries) != 1 {
		t.Fatalf("got %d summaries, want 1", len(got.Summaries))
	}
	if got.Summaries[0].URL != "https://ok.example" {
		t.Errorf("wrong summary URL %s", got.Summaries[0].URL)
	}
	if len(got.Limitations) != 1 || !strings.Contains(got.Limitations[0], "https://dead.example") {
		t.Errorf("dropped URL not recorded as limitation: %v", got.Limitations)
	}
}

func TestFetchNodeUsesModelRelevance(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     float64
	}{
		{"model score wins over search rank",
			`{"summary":"s","relevance_score":0.4,"key_points":["k"]}`, 0.4},
		{"model score clamped to 1",
			`{"summary":"s","relevance_score":1.7,"key_points":["k"]}`, 1.0},
		{"negative model score clamped to 0",
			`{"summary":"s","relevance_score":-0.3,"key_points":["k"]}`, 0.0},
		{"omitted score falls back to search rank",
			`{"summary":"s","key_points":["k"]}`, 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &fetchNode{
				fetcher: &fakeFetcher{},
				llm:     &fakeLLM{fn: func(string) (string, error) { return tt.response, nil }},
				cfg:     types.Defaults().Fetch,
			}

			st := State{
				Request: types.BriefRequest{Topic: "quantum computing advances in 2026"},
				Results: []types.SearchResult{{URL: "https://ok.example", RelevanceScore: 0.9}},
			}
			got, err := node.Run(context.Background(), st)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}
			if len(got.Summaries) != 1 {
				t.Fatalf("got %d summaries, want 1", len(got.Summaries))
			}
			if got.Summaries[0].RelevanceScore != tt.want {
				t.Errorf("relevance = %f, want %f", got.Summaries[0].RelevanceScore, tt.want)
			}
		})
	}
}

func TestFetchNodeTotalFailure(t *testing.T) {
	node := &fetchNode{
		fetcher: &fakeFetcher{fail: map[string]bool{"https://dead.example": true}},
		llm:     scriptedLLM(),
		cfg:     types.Defaults().Fetch,
	}

	st := State{Results: []types.SearchResult{{URL: "https://dead.example"}}}
	_, err := node.Run(context.Background(), st)
	var rerr *RetryableError
	if !errors.As(err, &rerr) {
		t.Fatalf("error type %T, want *RetryableError", err)
	}
	if !errors.Is(err, errNoSources) {
		t.Error("total failure does not carry the no-sources marker")
	}
}

func TestSynthesisNodeZeroSources(t *testing.T) {
	node := &synthesisNode{llm: scriptedLLM()}

	st := State{
		Request: types.BriefRequest{Topic: "quantum computing advances in 2026", Depth: 2},
		Plan:    types.ResearchPlan{ResearchQuestions: []string{"What changed?"}},
	}
	got, err := node.Run(context.Background(), st)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.Draft.ExecutiveSummary == "" {
		t.Error("no draft produced")
	}
	found := false
	for _, l := range got.Limitations {
		if l == noSourcesLimitation {
			found = true
		}
	}
	if !found {
		t.Errorf("zero-source run missing limitation, got %v", got.Limitations)
	}
}

func TestSynthesisNodeRejectsEmptySummary(t *testing.T) {
	node := &synthesisNode{llm: &fakeLLM{fn: func(string) (string, error) {
		return `{"executive_summary":"","key_findings":["x"],"detailed_analysis":"y","recommendations":["z"],"confidence_score":0.5}`, nil
	}}}

	st := State{
		Request:   types.BriefRequest{Topic: "quantum computing advances in 2026"},
		Summaries: []types.SourceSummary{{URL: "https://a.example", Summary: "s"}},
	}
	_, err := node.Run(context.Background(), st)
	var ferr *FatalError
	if !errors.As(err, &ferr) {
		t.Fatalf("error type %T, want *FatalError", err)
	}
}

func TestPostProcessNode(t *testing.T) {
	saved := timeNow
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	timeNow = func() time.Time { return fixed }
	defer func() { timeNow = saved }()

	node := &postProcessNode{cfg: types.WorkflowConfig{MaxRetries: 3, MinRelevance: 0.4}}

	st := State{
		Request: types.BriefRequest{Topic: "quantum computing advances in 2026"},
		Draft: Synthesis{
			ExecutiveSummary: "Summary.",
			KeyFindings:      []string{"finding"},
			DetailedAnalysis: "Analysis.",
			Recommendations:  []string{"recommendation"},
			Limitations:      []string{"model limitation"},
			ConfidenceScore:  1.4,
		},
		Summaries: []types.SourceSummary{
			{URL: "https://keep.example", Summary: "s", RelevanceScore: 0.8},
			{URL: "https://drop.example", Summary: "s", RelevanceScore: 0.2},
		},
		Limitations: []string{"fetch limitation", "model limitation"},
	}
	st = st.addStep("step", "test", "findings")

	got, err := node.Run(context.Background(), st)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	brief := got.Brief
	if brief == nil {
		t.Fatal("no brief assembled")
	}
	if brief.ConfidenceScore != 1.0 {
		t.Errorf("confidence = %f, want clamped 1.0", brief.ConfidenceScore)
	}
	if len(brief.Sources) != 1 || brief.Sources[0].URL != "https://keep.example" {
		t.Errorf("relevance floor not applied: %v", brief.Sources)
	}
	if !brief.GeneratedAt.Equal(fixed) {
		t.Errorf("generated_at = %v, want %v", brief.GeneratedAt, fixed)
	}
	if brief.ID == "" {
		t.Error("no ID assigned")
	}
	if len(brief.Limitations) != 2 {
		t.Errorf("limitations not deduplicated: %v", brief.Limitations)
	}
	if len(brief.ResearchSteps) != 2 {
		t.Errorf("got %d steps, want the input step plus the validation step", len(brief.ResearchSteps))
	}
}

func TestPostProcessNodeConsistency(t *testing.T) {
	node := &postProcessNode{cfg: types.WorkflowConfig{}}

	st := State{
		Request: types.BriefRequest{Topic: "quantum computing advances in 2026"},
		Draft:   Synthesis{DetailedAnalysis: "Analysis.", KeyFindings: []string{"x"}},
	}
	_, err := node.Run(context.Background(), st)
	var cerr *ConsistencyError
	if !errors.As(err, &cerr) {
		t.Fatalf("error type %T, want *ConsistencyError", err)
	}
}

func TestContextNodeWithoutHistory(t *testing.T) {
	node := &contextNode{llm: scriptedLLM()}

	st := State{Request: types.BriefRequest{Topic: "quantum computing advances in 2026", FollowUp: true}}
	got, err := node.Run(context.Background(), st)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.Context.HasContext {
		t.Error("empty history produced context")
	}
	if len(got.Steps) != 1 {
		t.Fatalf("got %d steps, want 1", len(got.Steps))
	}
}

func TestPlanNodeNormalizesAndValidates(t *testing.T) {
	// Model returns the wrong depth and one query too many; the node
	// forces the request depth and trims to its cap.
	node := &planNode{llm: &fakeLLM{fn: func(string) (string, error) {
		return `{"topic":"quantum computing","research_questions":["q1","q2","q3"],"search_queries":["a","b","c","d","e"],"depth_level":5}`, nil
	}}}

	st := State{Request: types.BriefRequest{Topic: "quantum computing advances in 2026", Depth: 2}}
	got, err := node.Run(context.Background(), st)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got.Plan.DepthLevel != 2 {
		t.Errorf("depth_level = %d, want request depth 2", got.Plan.DepthLevel)
	}
	if len(got.Plan.SearchQueries) != 4 {
		t.Errorf("got %d queries, want trimmed to 4", len(got.Plan.SearchQueries))
	}
}

func TestPlanNodeRejectsDuplicateQuestions(t *testing.T) {
	node := &planNode{llm: &fakeLLM{fn: func(string) (string, error) {
		return `{"topic":"quantum computing","research_questions":["same","Same"],"search_queries":["a","b","c"],"depth_level":2}`, nil
	}}}

	st := State{Request: types.BriefRequest{Topic: "quantum computing advances in 2026", Depth: 2}}
	_, err := node.Run(context.Background(), st)
	var ferr *FatalError
	if !errors.As(err, &ferr) {
		t.Fatalf("error type %T, want *FatalError", err)
	}
}

func TestPlanNodeMalformedOutputIsRetryable(t *testing.T) {
	node := &planNode{llm: &fakeLLM{fn: func(string) (string, error) {
		return "not json at all", nil
	}}}

	st := State{Request: types.BriefRequest{Topic: "quantum computing advances in 2026", Depth: 2}}
	_, err := node.Run(context.Background(), st)
	var rerr *RetryableError
	if !errors.As(err, &rerr) {
		t.Fatalf("error type %T, want *RetryableError", err)
	}
}
