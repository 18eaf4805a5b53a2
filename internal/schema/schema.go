// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package schema enforces the structured shapes of the workflow's
// records: the request, the research plan, source summaries, and the
// final brief. Violations are reported as a single error joining the
// field-level messages, so node output that fails validation can be
// surfaced whole.
package schema

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/brief-engine/pkg/types"
)

const (
	// TopicMinLen and TopicMaxLen bound the request topic length in
	// characters.
	TopicMinLen = 10
	TopicMaxLen = 500

	// DepthMin and DepthMax bound the request depth.
	DepthMin = 1
	DepthMax = 5
)

// queryBounds maps a depth level to the allowed search-query count.
// Upper bounds grow monotonically with depth.
var queryBounds = map[int]struct{ min, max int }{
	1: {1, 2},
	2: {3, 4},
	3: {5, 7},
	4: {8, 10},
	5: {10, 12},
}

// QueryRange returns the minimum and maximum search-query count for a
// depth level. Depth outside 1-5 returns (0, 0).
func QueryRange(depth int) (min, max int) {
	b, ok := queryBounds[depth]
	if !ok {
		return 0, 0
	}
	return b.min, b.max
}

// ValidateRequest checks a BriefRequest before any node runs.
func ValidateRequest(req types.BriefRequest) error {
	var problems []string

	topicLen := utf8.RuneCountInString(strings.TrimSpace(req.Topic))
	if topicLen < TopicMinLen || topicLen > TopicMaxLen {
		problems = append(problems, fmt.Sprintf("topic must be %d-%d characters, got %d", TopicMinLen, TopicMaxLen, topicLen))
	}
	if req.Depth < DepthMin || req.Depth > DepthMax {
		problems = append(problems, fmt.Sprintf("depth must be %d-%d, got %d", DepthMin, DepthMax, req.Depth))
	}
	if req.FollowUp && strings.TrimSpace(req.UserID) == "" {
		problems = append(problems, "follow_up requires a non-empty user_id")
	}

	return joined("request", problems)
}

// ValidatePlan checks the planning node's output against the depth
// table and basic shape requirements.
func ValidatePlan(plan types.ResearchPlan) error {
	var problems []string

	if strings.TrimSpace(plan.Topic) == "" {
		problems = append(problems, "topic is empty")
	}
	if len(plan.ResearchQuestions) == 0 {
		problems = append(problems, "no research questions")
	}
	for i, q := range plan.ResearchQuestions {
		if strings.TrimSpace(q) == "" {
			problems = append(problems, fmt.Sprintf("research question %d is empty", i))
		}
	}
	if dupes := duplicates(plan.ResearchQuestions); len(dupes) > 0 {
		problems = append(problems, fmt.Sprintf("duplicate research questions: %s", strings.Join(dupes, ", ")))
	}

	if plan.DepthLevel < DepthMin || plan.DepthLevel > DepthMax {
		problems = append(problems, fmt.Sprintf("depth_level must be %d-%d, got %d", DepthMin, DepthMax, plan.DepthLevel))
	} else {
		min, max := QueryRange(plan.DepthLevel)
		if len(plan.SearchQueries) < min || len(plan.SearchQueries) > max {
			problems = append(problems, fmt.Sprintf("depth %d requires %d-%d search queries, got %d",
				plan.DepthLevel, min, max, len(plan.SearchQueries)))
		}
	}
	for i, q := range plan.SearchQueries {
		if strings.TrimSpace(q) == "" {
			problems = append(problems, fmt.Sprintf("search query %d is empty", i))
		}
	}

	return joined("plan", problems)
}

// ValidateSourceSummary checks one content-fetching output record.
func ValidateSourceSummary(s types.SourceSummary) error {
	var problems []string

	if strings.TrimSpace(s.URL) == "" {
		problems = append(problems, "url is empty")
	}
	if strings.TrimSpace(s.Summary) == "" {
		problems = append(problems, "summary is empty")
	}
	if s.RelevanceScore < 0.0 || s.RelevanceScore > 1.0 {
		problems = append(problems, fmt.Sprintf("relevance_score %f out of range [0,1]", s.RelevanceScore))
	}

	return joined("source summary", problems)
}

// ValidateBrief checks the assembled FinalBrief after post-processing.
// Empty required fields here indicate an upstream contract violation,
// not a node-level failure.
func ValidateBrief(b types.FinalBrief) error {
	var problems []string

	if strings.TrimSpace(b.Topic) == "" {
		problems = append(problems, "topic is empty")
	}
	if strings.TrimSpace(b.ExecutiveSummary) == "" {
		problems = append(problems, "executive_summary is empty")
	}
	if len(b.KeyFindings) == 0 {
		problems = append(problems, "no key findings")
	}
	if strings.TrimSpace(b.DetailedAnalysis) == "" {
		problems = append(problems, "detailed_analysis is empty")
	}
	if b.ConfidenceScore < 0.0 || b.ConfidenceScore > 1.0 {
		problems = append(problems, fmt.Sprintf("confidence_score %f out of range [0,1]", b.ConfidenceScore))
	}
	if len(b.ResearchSteps) == 0 {
		problems = append(problems, "no research steps")
	}
	for i, step := range b.ResearchSteps {
		if step.StepNumber != i+1 {
			problems = append(problems, fmt.Sprintf("research step %d has step_number %d", i, step.StepNumber))
			break
		}
	}
	if b.GeneratedAt.IsZero() {
		problems = append(problems, "generated_at is not set")
	}

	return joined("brief", problems)
}

// duplicates returns the values that appear more than once, ignoring
// case and surrounding whitespace.
func duplicates(values []string) []string {
	seen := make(map[string]bool)
	reported := make(map[string]bool)
	var dupes []string
	for _, v := range values {
		key := strings.ToLower(strings.TrimSpace(v))
		if seen[key] && !reported[key] {
			dupes = append(dupes, v)
			reported[key] = true
		}
		seen[key] = true
	}
	return dupes
}

func joined(what string, problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("invalid %s: %s", what, strings.Join(problems, "; "))
}
