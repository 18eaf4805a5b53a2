// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pdiddy/brief-engine/internal/fetch"
	"github.com/pdiddy/brief-engine/internal/websearch"
	"github.com/pdiddy/brief-engine/pkg/types"
)

// fakeLLM routes prompts to canned JSON by the role line each prompt
// template opens with.
type fakeLLM struct {
	mu    sync.Mutex
	calls int
	fn    func(prompt string) (string, error)
}

func (f *fakeLLM) Complete(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.fn(prompt)
}

func scriptedLLM() *fakeLLM {
	return &fakeLLM{fn: func(prompt string) (string, error) {
		switch {
		case strings.Contains(prompt, "research context analyzer"):
			return `{"common_themes":["computing"],"relevant_context":"Prior briefs covered classical computing trends."}`, nil
		case strings.Contains(prompt, "research planning expert"):
			return `{"topic":"quantum computing advances","research_questions":["What changed recently?","Who are the key players?","What are the open problems?"],"search_queries":["quantum computing advances 2026","quantum error correction progress","quantum computing industry players"],"expected_sources":["academic papers"],"depth_level":2}`, nil
		case strings.Contains(prompt, "content summarization expert"):
			return `{"summary":"The source reviews recent hardware progress.","relevance_score":0.8,"key_points":["Error correction improved"]}`, nil
		case strings.Contains(prompt, "research synthesis expert"):
			return `{"executive_summary":"Quantum computing is advancing steadily.","key_findings":["Error correction improved"],"detailed_analysis":"Recent work shows progress across hardware and algorithms.","recommendations":["Track error-correction milestones"],"limitations":["Fast-moving field"],"confidence_score":0.7}`, nil
		}
		return "", fmt.Errorf("unexpected prompt: %.60s", prompt)
	}}
}

type fakeFetcher struct {
	fail    map[string]bool
	failAll bool
}

func (f *fakeFetcher) Fetch(ctx context.Context, pageURL string) (fetch.Result, error) {
	if f.failAll || f.fail[pageURL] {
		return fetch.Result{}, &fetch.FetchError{URL: pageURL, Err: errors.New("connection refused")}
	}
	return fetch.Result{URL: pageURL, Title: "Fetched Page", Text: "readable body text"}, nil
}

type fakeStore struct {
	mu      sync.Mutex
	briefs  map[string][]types.FinalBrief
	listErr error
	putErr  error
}

func newFakeStore() *fakeStore {
	return &fakeStore{briefs: make(map[string][]types.FinalBrief)}
}

func (s *fakeStore) List(ctx context.Context, userID string) ([]types.FinalBrief, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.briefs[userID], nil
}

func (s *fakeStore) Append(ctx context.Context, userID string, brief types.FinalBrief) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.briefs[userID] = append([]types.FinalBrief{brief}, s.briefs[userID]...)
	return nil
}

func (s *fakeStore) Ping(ctx context.Context) error { return nil }

func testConfig() types.PipelineConfig {
	cfg := types.Defaults()
	cfg.Workflow.MaxRetries = 2
	return cfg
}

func testEngine(t *testing.T, llmBackend *fakeLLM, store HistoryStore) *Engine {
	t.Helper()
	search, err := websearch.New(types.SearchConfig{Provider: "simulated", MaxResults: 10})
	if err != nil {
		t.Fatalf("building simulated search: %v", err)
	}
	return New(llmBackend, search, &fakeFetcher{}, store, testConfig(), io.Discard)
}

func quietRetries(t *testing.T) {
	t.Helper()
	saved := retryBaseDelay
	retryBaseDelay = time.Millisecond
	t.Cleanup(func() { retryBaseDelay = saved })
}

func TestGenerateBrief(t *testing.T) {
	quietRetries(t)
	store := newFakeStore()
	eng := testEngine(t, scriptedLLM(), store)

	req := types.BriefRequest{
		Topic:  "quantum computing advances in 2026",
		Depth:  2,
		UserID: "user-1",
	}
	brief, err := eng.GenerateBrief(context.Background(), req)
	if err != nil {
		t.Fatalf("GenerateBrief: %v", err)
	}

	if brief.ID == "" {
		t.Error("brief has no ID")
	}
	if brief.Topic != req.Topic {
		t.Errorf("topic = %q, want %q", brief.Topic, req.Topic)
	}
	if brief.GeneratedAt.IsZero() {
		t.Error("generated_at not stamped")
	}
	if len(brief.ResearchSteps) < 6 {
		t.Errorf("got %d research steps, want at least one per node (6)", len(brief.ResearchSteps))
	}
	for i, step := range brief.ResearchSteps {
		if step.StepNumber != i+1 {
			t.Errorf("step %d has number %d", i, step.StepNumber)
		}
	}
	if len(brief.Sources) == 0 {
		t.Error("brief has no sources")
	}
	if brief.ConfidenceScore < 0 || brief.ConfidenceScore > 1 {
		t.Errorf("confidence %f out of range", brief.ConfidenceScore)
	}

	stored, _ := store.List(context.Background(), "user-1")
	if len(stored) != 1 {
		t.Fatalf("store holds %d briefs, want 1", len(stored))
	}
	if stored[0].ID != brief.ID {
		t.Errorf("stored brief ID %s, want %s", stored[0].ID, brief.ID)
	}
}

func TestGenerateBriefInvalidRequest(t *testing.T) {
	llmBackend := scriptedLLM()
	eng := testEngine(t, llmBackend, nil)

	brief, err := eng.GenerateBrief(context.Background(), types.BriefRequest{
		Topic: "too shallow",
		Depth: 6,
	})
	if brief != nil {
		t.Fatal("invalid request produced a brief")
	}
	var werr *WorkflowError
	if !errors.As(err, &werr) {
		t.Fatalf("error type %T, want *WorkflowError", err)
	}
	if werr.Kind != KindFatal || werr.Node != "request" {
		t.Errorf("got kind %s node %s, want fatal request", werr.Kind, werr.Node)
	}
	if llmBackend.calls != 0 {
		t.Errorf("model called %d times before validation", llmBackend.calls)
	}
}

func TestGenerateBriefFollowUpUsesHistory(t *testing.T) {
	quietRetries(t)
	store := newFakeStore()
	store.briefs["user-1"] = []types.FinalBrief{{
		ID:               "prev-1",
		Topic:            "classical computing trends",
		ExecutiveSummary: "Prior summary.",
		KeyFindings:      []string{"finding"},
	}}

	var sawContextPrompt bool
	llmBackend := scriptedLLM()
	inner := llmBackend.fn
	llmBackend.fn = func(prompt string) (string, error) {
		if strings.Contains(prompt, "classical computing trends") {
			sawContextPrompt = true
		}
		return inner(prompt)
	}

	eng := testEngine(t, llmBackend, store)
	brief, err := eng.GenerateBrief(context.Background(), types.BriefRequest{
		Topic:    "quantum computing advances in 2026",
		Depth:    2,
		FollowUp: true,
		UserID:   "user-1",
	})
	if err != nil {
		t.Fatalf("GenerateBrief: %v", err)
	}
	if !sawContextPrompt {
		t.Error("prior brief never reached the context prompt")
	}
	if brief == nil {
		t.Fatal("no brief returned")
	}
}

func TestGenerateBriefDegradesWithoutSources(t *testing.T) {
	quietRetries(t)
	search, err := websearch.New(types.SearchConfig{Provider: "simulated", MaxResults: 10})
	if err != nil {
		t.Fatalf("building simulated search: %v", err)
	}
	eng := New(scriptedLLM(), search, &fakeFetcher{failAll: true}, nil, testConfig(), io.Discard)

	brief, err := eng.GenerateBrief(context.Background(), types.BriefRequest{
		Topic: "quantum computing advances in 2026",
		Depth: 2,
	})
	if err != nil {
		t.Fatalf("GenerateBrief: %v", err)
	}
	if len(brief.Sources) != 0 {
		t.Errorf("got %d sources, want 0", len(brief.Sources))
	}
	found := false
	for _, l := range brief.Limitations {
		if l == noSourcesLimitation {
			found = true
		}
	}
	if !found {
		t.Errorf("missing no-sources limitation, got %v", brief.Limitations)
	}
	if len(brief.ResearchSteps) < 6 {
		t.Errorf("got %d research steps, want at least 6", len(brief.ResearchSteps))
	}
}

func TestGenerateBriefStoreFailureIsNonFatal(t *testing.T) {
	quietRetries(t)
	store := newFakeStore()
	store.putErr = errors.New("disk full")
	eng := testEngine(t, scriptedLLM(), store)

	brief, err := eng.GenerateBrief(context.Background(), types.BriefRequest{
		Topic:  "quantum computing advances in 2026",
		Depth:  2,
		UserID: "user-1",
	})
	if err != nil {
		t.Fatalf("GenerateBrief: %v", err)
	}
	if brief == nil {
		t.Fatal("storage failure suppressed the brief")
	}
}

// stubNode counts executions and replays a fixed error sequence.
type stubNode struct {
	name  string
	runs  int
	errs  []error
	state State
}

func (n *stubNode) Name() string { return n.name }

func (n *stubNode) Run(ctx context.Context, st State) (State, error) {
	n.runs++
	if n.runs <= len(n.errs) && n.errs[n.runs-1] != nil {
		return st, n.errs[n.runs-1]
	}
	return n.state, nil
}

func TestRunNodeRetryExhaustion(t *testing.T) {
	quietRetries(t)
	eng := New(scriptedLLM(), nil, nil, nil, testConfig(), io.Discard)

	node := &stubNode{name: "search", errs: []error{
		retryable("transient one"),
		retryable("transient two"),
		retryable("transient three"),
	}}
	_, err := eng.runNode(context.Background(), node, State{})
	var werr *WorkflowError
	if !errors.As(err, &werr) {
		t.Fatalf("error type %T, want *WorkflowError", err)
	}
	if werr.Kind != KindFatal {
		t.Errorf("kind = %s, want fatal", werr.Kind)
	}
	if werr.Attempts != 2 {
		t.Errorf("attempts = %d, want 2", werr.Attempts)
	}
	if node.runs != 3 {
		t.Errorf("node ran %d times, want 3 (initial plus two retries)", node.runs)
	}
}

func TestRunNodeRecoversAfterTransient(t *testing.T) {
	quietRetries(t)
	eng := New(scriptedLLM(), nil, nil, nil, testConfig(), io.Discard)

	want := State{Limitations: []string{"marker"}}
	node := &stubNode{name: "search", errs: []error{retryable("blip")}, state: want}
	got, err := eng.runNode(context.Background(), node, State{})
	if err != nil {
		t.Fatalf("runNode: %v", err)
	}
	if node.runs != 2 {
		t.Errorf("node ran %d times, want 2", node.runs)
	}
	if len(got.Limitations) != 1 || got.Limitations[0] != "marker" {
		t.Error("recovered state was not the successful attempt's output")
	}
}

func TestRunNodeFatalStopsImmediately(t *testing.T) {
	quietRetries(t)
	eng := New(scriptedLLM(), nil, nil, nil, testConfig(), io.Discard)

	node := &stubNode{name: "planning", errs: []error{fatal("bad credentials")}}
	_, err := eng.runNode(context.Background(), node, State{})
	var werr *WorkflowError
	if !errors.As(err, &werr) {
		t.Fatalf("error type %T, want *WorkflowError", err)
	}
	if werr.Kind != KindFatal || werr.Attempts != 0 {
		t.Errorf("got kind %s attempts %d, want fatal 0", werr.Kind, werr.Attempts)
	}
	if node.runs != 1 {
		t.Errorf("fatal node ran %d times, want 1", node.runs)
	}
}

func TestRunNodeConsistency(t *testing.T) {
	quietRetries(t)
	eng := New(scriptedLLM(), nil, nil, nil, testConfig(), io.Discard)

	node := &stubNode{name: "post_processing", errs: []error{inconsistent("empty summary")}}
	_, err := eng.runNode(context.Background(), node, State{})
	var werr *WorkflowError
	if !errors.As(err, &werr) {
		t.Fatalf("error type %T, want *WorkflowError", err)
	}
	if werr.Kind != KindConsistency {
		t.Errorf("kind = %s, want consistency", werr.Kind)
	}
}

func TestGenerateBriefCancellation(t *testing.T) {
	quietRetries(t)
	eng := testEngine(t, scriptedLLM(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := eng.GenerateBrief(ctx, types.BriefRequest{
		Topic: "quantum computing advances in 2026",
		Depth: 2,
	})
	var werr *WorkflowError
	if !errors.As(err, &werr) {
		t.Fatalf("error type %T, want *WorkflowError", err)
	}
	if werr.Kind != KindCancelled {
		t.Errorf("kind = %s, want cancelled", werr.Kind)
	}
}
