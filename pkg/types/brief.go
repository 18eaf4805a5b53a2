// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the brief-engine
// workflow: the request, the intermediate records each node produces,
// and the final research brief.
package types

import "time"

// BriefRequest is the caller's input to the workflow.
type BriefRequest struct {
	// Topic is the free-text research topic (10-500 characters).
	Topic string `json:"topic" yaml:"topic"`

	// Depth controls search breadth and source count, from 1 (basic)
	// to 5 (comprehensive).
	Depth int `json:"depth" yaml:"depth"`

	// FollowUp indicates the request should incorporate the user's
	// prior briefs as context. Requires a non-empty UserID.
	FollowUp bool `json:"follow_up" yaml:"follow_up"`

	// UserID identifies the requesting user for history lookups.
	UserID string `json:"user_id" yaml:"user_id"`
}

// ContextSummary condenses a user's prior briefs into context for a
// follow-up request. HasContext false is the explicit empty marker
// produced when no usable history exists.
type ContextSummary struct {
	// PreviousTopics lists the topics of the user's prior briefs,
	// most recent first.
	PreviousTopics []string `json:"previous_topics" yaml:"previous_topics"`

	// CommonThemes are recurring themes across the prior briefs.
	CommonThemes []string `json:"common_themes" yaml:"common_themes"`

	// RelevantContext is a bounded narrative of prior findings that
	// bear on the current topic.
	RelevantContext string `json:"relevant_context" yaml:"relevant_context"`

	// DerivedFrom lists the IDs of the briefs the summary drew on.
	DerivedFrom []string `json:"derived_from,omitempty" yaml:"derived_from,omitempty"`

	// HasContext reports whether any prior context was found.
	HasContext bool `json:"has_context" yaml:"has_context"`
}

// ResearchPlan is the planning node's output: the questions to answer
// and the queries to run.
type ResearchPlan struct {
	// Topic is the cleaned, focused research topic.
	Topic string `json:"topic" yaml:"topic"`

	// ResearchQuestions are the distinct questions to investigate.
	ResearchQuestions []string `json:"research_questions" yaml:"research_questions"`

	// SearchQueries are the web queries to execute. The count is
	// bounded by the depth table in internal/schema.
	SearchQueries []string `json:"search_queries" yaml:"search_queries"`

	// ExpectedSources describes the kinds of sources the plan expects
	// (e.g. "academic", "news").
	ExpectedSources []string `json:"expected_sources" yaml:"expected_sources"`

	// DepthLevel echoes the request depth, 1-5.
	DepthLevel int `json:"depth_level" yaml:"depth_level"`
}

// SearchResult is one ranked hit returned by a search backend.
type SearchResult struct {
	// Query is the search query that produced this result.
	Query string `json:"query" yaml:"query"`

	// URL is the result link. Results are deduplicated by URL.
	URL string `json:"url" yaml:"url"`

	// Title is the result title as returned by the backend.
	Title string `json:"title" yaml:"title"`

	// Snippet is the content excerpt from the result.
	Snippet string `json:"snippet" yaml:"snippet"`

	// RelevanceScore is a value between 0.0 and 1.0 combining rank
	// position and query-term matches.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	// SourceType classifies the source: academic, news, government,
	// encyclopedia, code, or web.
	SourceType string `json:"source_type" yaml:"source_type"`
}

// SourceSummary is the content-fetching node's digest of one source.
type SourceSummary struct {
	// URL is the source location.
	URL string `json:"url" yaml:"url"`

	// Title is the source title.
	Title string `json:"title" yaml:"title"`

	// Summary condenses the fetched content.
	Summary string `json:"summary" yaml:"summary"`

	// RelevanceScore is between 0.0 and 1.0, reflecting how well the
	// source addresses the plan's research questions.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`

	// KeyPoints are the salient points extracted from the source.
	KeyPoints []string `json:"key_points" yaml:"key_points"`
}

// ResearchStep is one audit-trail entry recorded per node execution.
type ResearchStep struct {
	// StepNumber is assigned by the orchestrator as a strictly
	// increasing counter starting at 1.
	StepNumber int `json:"step_number" yaml:"step_number"`

	// Action describes the research action taken.
	Action string `json:"action" yaml:"action"`

	// Source names the stage or tool that performed the action.
	Source string `json:"source,omitempty" yaml:"source,omitempty"`

	// KeyFindings summarizes what the step produced.
	KeyFindings string `json:"key_findings,omitempty" yaml:"key_findings,omitempty"`
}

// FinalBrief is the terminal research report.
type FinalBrief struct {
	// ID uniquely identifies the brief in the history store.
	ID string `json:"id" yaml:"id"`

	// Topic is the research topic.
	Topic string `json:"topic" yaml:"topic"`

	// ExecutiveSummary highlights the key findings.
	ExecutiveSummary string `json:"executive_summary" yaml:"executive_summary"`

	// KeyFindings lists the findings with supporting evidence.
	KeyFindings []string `json:"key_findings" yaml:"key_findings"`

	// DetailedAnalysis synthesizes all sources into a narrative.
	DetailedAnalysis string `json:"detailed_analysis" yaml:"detailed_analysis"`

	// Recommendations are actionable next steps.
	Recommendations []string `json:"recommendations" yaml:"recommendations"`

	// Sources lists the summarized sources the brief drew on.
	Sources []SourceSummary `json:"sources" yaml:"sources"`

	// ResearchSteps is the audit trail accumulated by the orchestrator.
	ResearchSteps []ResearchStep `json:"research_steps" yaml:"research_steps"`

	// Limitations records gaps in the research (e.g. sources that
	// could not be fetched).
	Limitations []string `json:"limitations" yaml:"limitations"`

	// ConfidenceScore is between 0.0 and 1.0, reflecting source
	// coverage and the relevance-score distribution.
	ConfidenceScore float64 `json:"confidence_score" yaml:"confidence_score"`

	// GeneratedAt is stamped once, when post-processing succeeds.
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
}
