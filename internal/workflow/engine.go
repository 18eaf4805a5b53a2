// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workflow orchestrates the fixed research pipeline: context
// summarization, planning, search, content fetching, synthesis, and
// post-processing. Nodes run strictly in that order; each failed node
// is retried from its own input with exponential backoff before the
// run is abandoned.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pdiddy/brief-engine/internal/llm"
	"github.com/pdiddy/brief-engine/internal/schema"
	"github.com/pdiddy/brief-engine/internal/websearch"
	"github.com/pdiddy/brief-engine/pkg/types"
)

// retryBaseDelay is the backoff unit between node retries. Tests
// shrink it.
var retryBaseDelay = 1 * time.Second

// HistoryStore persists briefs per user. A nil store disables history:
// follow-up requests then run without prior context and finished
// briefs are not recorded.
type HistoryStore interface {
	List(ctx context.Context, userID string) ([]types.FinalBrief, error)
	Append(ctx context.Context, userID string, brief types.FinalBrief) error
	Ping(ctx context.Context) error
}

// Engine wires the adapters into the pipeline.
type Engine struct {
	llm     llm.Backend
	search  websearch.Backend
	fetcher Fetcher
	store   HistoryStore
	cfg     types.PipelineConfig
	out     io.Writer
}

// New builds an engine. out receives progress lines; pass io.Discard
// to silence them.
func New(llmBackend llm.Backend, searchBackend websearch.Backend, fetcher Fetcher, store HistoryStore, cfg types.PipelineConfig, out io.Writer) *Engine {
	if out == nil {
		out = io.Discard
	}
	return &Engine{
		llm:     llmBackend,
		search:  searchBackend,
		fetcher: fetcher,
		store:   store,
		cfg:     cfg,
		out:     out,
	}
}

// GenerateBrief runs the full pipeline for one request and returns
// the assembled brief. Every failure surfaces as a *WorkflowError;
// raw adapter errors never reach the caller unwrapped. A request that
// fails validation produces no research steps at all.
func (e *Engine) GenerateBrief(ctx context.Context, req types.BriefRequest) (*types.FinalBrief, error) {
	if err := schema.ValidateRequest(req); err != nil {
		return nil, &WorkflowError{Kind: KindFatal, Node: "request", Err: err}
	}

	st := State{Request: req}
	if req.FollowUp && req.UserID != "" && e.store != nil {
		history, err := e.store.List(ctx, req.UserID)
		if err != nil {
			fmt.Fprintf(e.out, "warning: could not load history for %s: %v\n", req.UserID, err)
		} else {
			st.History = history
		}
	}

	for _, node := range e.nodes() {
		fmt.Fprintf(e.out, "running %s\n", node.Name())
		next, err := e.runNode(ctx, node, st)
		if err != nil {
			// Exhausted fetch retries with nothing usable: keep
			// going so synthesis can produce a best-effort brief
			// that names the gap.
			if errors.Is(err, errNoSources) {
				fmt.Fprintf(e.out, "warning: continuing without sources: %v\n", err)
				st = st.addStep(
					"Fetched and summarized 0 sources",
					"Content Fetching",
					"All sources failed; continuing without source material",
				)
				continue
			}
			return nil, err
		}
		st = next
	}

	if st.Brief == nil {
		return nil, &WorkflowError{Kind: KindConsistency, Node: "post_processing", Err: errors.New("pipeline finished without a brief")}
	}

	if req.UserID != "" && e.store != nil {
		if err := e.store.Append(ctx, req.UserID, *st.Brief); err != nil {
			fmt.Fprintf(e.out, "warning: could not store brief %s: %v\n", st.Brief.ID, err)
		}
	}
	return st.Brief, nil
}

// nodes returns the pipeline in execution order.
func (e *Engine) nodes() []Node {
	return []Node{
		&contextNode{llm: e.llm},
		&planNode{llm: e.llm},
		&searchNode{backend: e.search, cfg: e.cfg.Search},
		&fetchNode{fetcher: e.fetcher, llm: e.llm, cfg: e.cfg.Fetch},
		&synthesisNode{llm: e.llm},
		&postProcessNode{cfg: e.cfg.Workflow},
	}
}

// runNode executes one node, retrying transient failures from the
// node's own input state up to the configured limit with exponential
// backoff. Fatal and consistency failures stop immediately.
func (e *Engine) runNode(ctx context.Context, n Node, st State) (State, error) {
	maxRetries := e.cfg.Workflow.MaxRetries
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return st, &WorkflowError{Kind: KindCancelled, Node: n.Name(), Attempts: attempt, Err: err}
		}
		if attempt > 0 {
			delay := retryBaseDelay * time.Duration(1<<(attempt-1))
			fmt.Fprintf(e.out, "  retrying %s in %s (attempt %d of %d)\n", n.Name(), delay, attempt+1, maxRetries+1)
			select {
			case <-ctx.Done():
				return st, &WorkflowError{Kind: KindCancelled, Node: n.Name(), Attempts: attempt, Err: ctx.Err()}
			case <-time.After(delay):
			}
		}

		next, err := n.Run(ctx, st)
		if err == nil {
			return next, nil
		}
		if ctx.Err() != nil {
			return st, &WorkflowError{Kind: KindCancelled, Node: n.Name(), Attempts: attempt, Err: ctx.Err()}
		}

		var cerr *ConsistencyError
		var ferr *FatalError
		var rerr *RetryableError
		switch {
		case errors.As(err, &cerr):
			return st, &WorkflowError{Kind: KindConsistency, Node: n.Name(), Attempts: attempt, Err: cerr.Err}
		case errors.As(err, &ferr):
			return st, &WorkflowError{Kind: KindFatal, Node: n.Name(), Attempts: attempt, Err: ferr.Err}
		case errors.As(err, &rerr):
			lastErr = rerr.Err
		default:
			return st, &WorkflowError{Kind: KindFatal, Node: n.Name(), Attempts: attempt, Err: err}
		}
	}
	return st, &WorkflowError{Kind: KindFatal, Node: n.Name(), Attempts: maxRetries, Err: lastErr}
}

// HealthStatus reports one dependency check.
type HealthStatus struct {
	// Component names the dependency: llm, search, or history.
	Component string `json:"component"`

	// OK is true when the check passed.
	OK bool `json:"ok"`

	// Detail describes the failure, or the backend in use on
	// success.
	Detail string `json:"detail,omitempty"`
}

// Health probes each configured dependency with a small real call.
func (e *Engine) Health(ctx context.Context) []HealthStatus {
	var statuses []HealthStatus

	if _, err := e.llm.Complete(ctx, "Reply with the single word OK."); err != nil {
		statuses = append(statuses, HealthStatus{Component: "llm", Detail: err.Error()})
	} else {
		statuses = append(statuses, HealthStatus{Component: "llm", OK: true})
	}

	if _, err := e.search.Search(ctx, "connectivity check", 1); err != nil {
		statuses = append(statuses, HealthStatus{Component: "search", Detail: err.Error()})
	} else {
		statuses = append(statuses, HealthStatus{Component: "search", OK: true, Detail: e.search.Name()})
	}

	if e.store == nil {
		statuses = append(statuses, HealthStatus{Component: "history", OK: true, Detail: "disabled"})
	} else if err := e.store.Ping(ctx); err != nil {
		statuses = append(statuses, HealthStatus{Component: "history", Detail: err.Error()})
	} else {
		statuses = append(statuses, HealthStatus{Component: "history", OK: true})
	}

	return statuses
}
