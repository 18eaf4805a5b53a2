// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/brief-engine/internal/llm"
	"github.com/pdiddy/brief-engine/internal/schema"
	"github.com/pdiddy/brief-engine/pkg/types"
)

// Node is one stage of the fixed pipeline: a pure function of the
// accumulated state to an extended state, or a failure classified as
// retryable or fatal.
type Node interface {
	Name() string
	Run(ctx context.Context, st State) (State, error)
}

// llmFailure classifies a language-model adapter error. Timeouts,
// transport failures, and malformed completions are all transient at
// the node level; retry exhaustion escalates them.
func llmFailure(what string, err error) error {
	return retryable("%s: %v", what, err)
}

// --- context summarization ---

// contextNode condenses prior briefs into context for a follow-up
// request. Absence of history is not an error: the node emits the
// explicit empty marker and moves on.
type contextNode struct {
	llm llm.Backend
}

func (n *contextNode) Name() string { return "context_summarization" }

func (n *contextNode) Run(ctx context.Context, st State) (State, error) {
	if !st.Request.FollowUp || len(st.History) == 0 {
		st.Context = types.ContextSummary{HasContext: false}
		return st.addStep(
			"Checked for prior research context",
			"Context Summarization",
			"No prior context available",
		), nil
	}

	prompt, err := renderTemplate(contextPromptTmpl, struct {
		Topic  string
		Briefs []types.FinalBrief
	}{st.Request.Topic, st.History})
	if err != nil {
		return st, fatal("rendering context prompt: %v", err)
	}

	var out struct {
		CommonThemes    []string `json:"common_themes"`
		RelevantContext string   `json:"relevant_context"`
	}
	if err := llm.CompleteJSON(ctx, n.llm, prompt, &out); err != nil {
		return st, llmFailure("summarizing context", err)
	}

	topics := make([]string, 0, len(st.History))
	ids := make([]string, 0, len(st.History))
	for _, b := range st.History {
		topics = append(topics, b.Topic)
		if b.ID != "" {
			ids = append(ids, b.ID)
		}
	}

	st.Context = types.ContextSummary{
		PreviousTopics:  topics,
		CommonThemes:    out.CommonThemes,
		RelevantContext: out.RelevantContext,
		DerivedFrom:     ids,
		HasContext:      true,
	}
	return st.addStep(
		fmt.Sprintf("Summarized context from %d prior briefs", len(st.History)),
		"Context Summarization",
		st.Context.RelevantContext,
	), nil
}

// --- planning ---

// planNode derives research questions and search queries from the
// topic, the depth, and any prior context.
type planNode struct {
	llm llm.Backend
}

func (n *planNode) Name() string { return "planning" }

func (n *planNode) Run(ctx context.Context, st State) (State, error) {
	minQ, maxQ := schema.QueryRange(st.Request.Depth)

	var contextText string
	if st.Context.HasContext {
		contextText = st.Context.RelevantContext
	}

	prompt, err := renderTemplate(planPromptTmpl, struct {
		Topic      string
		Depth      int
		Context    string
		MinQueries int
		MaxQueries int
	}{st.Request.Topic, st.Request.Depth, contextText, minQ, maxQ})
	if err != nil {
		return st, fatal("rendering plan prompt: %v", err)
	}

	var plan types.ResearchPlan
	if err := llm.CompleteJSON(ctx, n.llm, prompt, &plan); err != nil {
		return st, llmFailure("planning research", err)
	}

	// Normalize before validating: the depth level is the caller's,
	// not the model's, and overlong query lists are trimmed to the
	// depth cap.
	plan.DepthLevel = st.Request.Depth
	if strings.TrimSpace(plan.Topic) == "" {
		plan.Topic = st.Request.Topic
	}
	plan.SearchQueries = trimNonEmpty(plan.SearchQueries)
	if len(plan.SearchQueries) > maxQ {
		plan.SearchQueries = plan.SearchQueries[:maxQ]
	}
	plan.ResearchQuestions = trimNonEmpty(plan.ResearchQuestions)

	if err := schema.ValidatePlan(plan); err != nil {
		return st, fatal("plan failed validation: %v", err)
	}

	st.Plan = plan
	return st.addStep(
		fmt.Sprintf("Planned research with %d key questions", len(plan.ResearchQuestions)),
		"Research Planning",
		fmt.Sprintf("Identified %d search queries", len(plan.SearchQueries)),
	), nil
}

// trimNonEmpty trims whitespace and drops empty entries.
func trimNonEmpty(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
