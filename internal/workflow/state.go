// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import "github.com/pdiddy/brief-engine/pkg/types"

// State is the accumulated workflow state passed node to node. Nodes
// receive it by value and return an extended copy; nothing is mutated
// after the owning node completes.
type State struct {
	// Request is the validated caller input.
	Request types.BriefRequest

	// History holds the user's prior briefs, most recent first.
	// Empty except on follow-up runs with stored history.
	History []types.FinalBrief

	// Context is the context-summarization output. HasContext false
	// is the explicit empty marker.
	Context types.ContextSummary

	// Plan is the planning node output.
	Plan types.ResearchPlan

	// Results is the aggregated, deduplicated search output in
	// query order.
	Results []types.SearchResult

	// Summaries are the fetched-and-summarized sources in original
	// result order.
	Summaries []types.SourceSummary

	// Draft holds the synthesis output before assembly.
	Draft Synthesis

	// Limitations accumulates research gaps (dropped URLs, missing
	// sources) surfaced in the final brief.
	Limitations []string

	// Steps is the audit trail. Step numbers are assigned as a
	// strictly increasing counter starting at 1.
	Steps []types.ResearchStep

	// Brief is the assembled output, set by post-processing.
	Brief *types.FinalBrief
}

// Synthesis is the synthesis node's output: the brief fields the
// orchestrator does not own (sources, steps, and the timestamp are
// filled in during post-processing).
type Synthesis struct {
	ExecutiveSummary string   `json:"executive_summary"`
	KeyFindings      []string `json:"key_findings"`
	DetailedAnalysis string   `json:"detailed_analysis"`
	Recommendations  []string `json:"recommendations"`
	Limitations      []string `json:"limitations"`
	ConfidenceScore  float64  `json:"confidence_score"`
}

// addStep appends one audit-trail entry with the next step number and
// returns the extended state.
func (s State) addStep(action, source, findings string) State {
	steps := make([]types.ResearchStep, len(s.Steps), len(s.Steps)+1)
	copy(steps, s.Steps)
	s.Steps = append(steps, types.ResearchStep{
		StepNumber:  len(steps) + 1,
		Action:      action,
		Source:      source,
		KeyFindings: findings,
	})
	return s
}

// addLimitation records a research gap and returns the extended state.
func (s State) addLimitation(text string) State {
	lims := make([]string, len(s.Limitations), len(s.Limitations)+1)
	copy(lims, s.Limitations)
	s.Limitations = append(lims, text)
	return s
}
