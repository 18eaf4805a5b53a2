// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/brief-engine/internal/llm"
)

// noSourcesLimitation is always present in a brief synthesized
// without any usable sources.
const noSourcesLimitation = "No sources could be retrieved; the analysis reflects the model's general knowledge only"

// synthesisNode turns the source summaries into the analytical body
// of the brief. With zero usable sources it still produces a
// best-effort brief and records the gap as a limitation.
type synthesisNode struct {
	llm llm.Backend
}

func (n *synthesisNode) Name() string { return "synthesis" }

func (n *synthesisNode) Run(ctx context.Context, st State) (State, error) {
	prompt, err := renderTemplate(synthesisPromptTmpl, struct {
		Topic     string
		Depth     int
		Questions []string
		Context   string
		Sources   []sourceView
	}{
		Topic:     st.Request.Topic,
		Depth:     st.Request.Depth,
		Questions: st.Plan.ResearchQuestions,
		Context:   st.Context.RelevantContext,
		Sources:   sourceViews(st),
	})
	if err != nil {
		return st, fatal("rendering synthesis prompt: %v", err)
	}

	var draft Synthesis
	if err := llm.CompleteJSON(ctx, n.llm, prompt, &draft); err != nil {
		return st, llmFailure("synthesizing brief", err)
	}

	if strings.TrimSpace(draft.ExecutiveSummary) == "" {
		return st, fatal("synthesis produced an empty executive summary")
	}
	if strings.TrimSpace(draft.DetailedAnalysis) == "" {
		return st, fatal("synthesis produced an empty detailed analysis")
	}
	if len(st.Summaries) > 0 {
		if len(draft.KeyFindings) == 0 {
			return st, fatal("synthesis produced no key findings despite %d sources", len(st.Summaries))
		}
		if len(draft.Recommendations) == 0 {
			return st, fatal("synthesis produced no recommendations despite %d sources", len(st.Summaries))
		}
	}

	st.Draft = draft
	if len(st.Summaries) == 0 {
		st = st.addLimitation(noSourcesLimitation)
	}
	return st.addStep(
		fmt.Sprintf("Synthesized findings from %d sources", len(st.Summaries)),
		"Synthesis",
		fmt.Sprintf("Produced %d key findings and %d recommendations", len(draft.KeyFindings), len(draft.Recommendations)),
	), nil
}

// sourceView is the prompt-facing shape of a summarized source.
type sourceView struct {
	Title     string
	URL       string
	Summary   string
	KeyPoints []string
}

func sourceViews(st State) []sourceView {
	views := make([]sourceView, 0, len(st.Summaries))
	for _, s := range st.Summaries {
		views = append(views, sourceView{
			Title:     s.Title,
			URL:       s.URL,
			Summary:   s.Summary,
			KeyPoints: s.KeyPoints,
		})
	}
	return views
}
