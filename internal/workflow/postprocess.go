// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/brief-engine/internal/schema"
	"github.com/pdiddy/brief-engine/pkg/types"
)

// timeNow stamps GeneratedAt. Tests substitute a fixed clock.
var timeNow = time.Now

// postProcessNode assembles the final brief from the accumulated
// state, enforces the output invariants, and stamps identity and
// generation time exactly once. Failures here are consistency errors:
// by this point every upstream contract has supposedly been met.
type postProcessNode struct {
	cfg types.WorkflowConfig
}

func (n *postProcessNode) Name() string { return "post_processing" }

func (n *postProcessNode) Run(ctx context.Context, st State) (State, error) {
	st = st.addStep(
		"Validated and finalized brief",
		"Post-Processing",
		"Quality checks passed",
	)

	draft := st.Draft
	if draft.ConfidenceScore < 0 {
		draft.ConfidenceScore = 0
	}
	if draft.ConfidenceScore > 1 {
		draft.ConfidenceScore = 1
	}

	limitations := appendUnique(nil, draft.Limitations...)
	limitations = appendUnique(limitations, st.Limitations...)

	brief := types.FinalBrief{
		ID:               uuid.NewString(),
		Topic:            st.Request.Topic,
		ExecutiveSummary: draft.ExecutiveSummary,
		KeyFindings:      draft.KeyFindings,
		DetailedAnalysis: draft.DetailedAnalysis,
		Recommendations:  draft.Recommendations,
		Sources:          briefSources(st.Summaries, n.cfg.MinRelevance),
		ResearchSteps:    st.Steps,
		Limitations:      limitations,
		ConfidenceScore:  draft.ConfidenceScore,
		GeneratedAt:      timeNow().UTC(),
	}

	if err := schema.ValidateBrief(brief); err != nil {
		return st, inconsistent("assembled brief failed validation: %v", err)
	}

	st.Brief = &brief
	return st, nil
}

// briefSources drops summaries below the relevance floor. Survivors
// keep their order.
func briefSources(summaries []types.SourceSummary, minRelevance float64) []types.SourceSummary {
	out := make([]types.SourceSummary, 0, len(summaries))
	for _, s := range summaries {
		if s.RelevanceScore < minRelevance {
			continue
		}
		out = append(out, s)
	}
	return out
}

// appendUnique appends values not already present, preserving order.
func appendUnique(dst []string, values ...string) []string {
	seen := make(map[string]bool, len(dst)+len(values))
	for _, v := range dst {
		seen[v] = true
	}
	for _, v := range values {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		dst = append(dst, v)
	}
	return dst
}
