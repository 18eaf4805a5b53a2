// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package websearch

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/pdiddy/brief-engine/pkg/types"
)

// resultTemplate describes one simulated result shape.
type resultTemplate struct {
	title      string
	url        string
	snippet    string
	sourceType string
}

// simulatedTemplates produce a plausible spread of source types. The
// %s/%q placeholders take the query and its slug respectively.
var simulatedTemplates = []resultTemplate{
	{
		title:      "%s - Comprehensive Guide and Analysis",
		url:        "https://research-institute.org/%s",
		snippet:    "Comprehensive analysis of %s including latest research findings, methodologies, and practical applications.",
		sourceType: "academic",
	},
	{
		title:      "Latest News and Updates on %s",
		url:        "https://news-source.com/%s-updates",
		snippet:    "Breaking news and recent developments in %s. Expert analysis, market trends, and industry insights.",
		sourceType: "news",
	},
	{
		title:      "%s: Expert Analysis and Professional Insights",
		url:        "https://professional-insights.com/%s",
		snippet:    "Professional analysis of %s with expert opinions, case studies, and data-driven insights.",
		sourceType: "analysis",
	},
	{
		title:      "Research Study: %s - Methodology and Results",
		url:        "https://academic-journal.org/studies/%s",
		snippet:    "Peer-reviewed research study on %s presenting methodology, data analysis, and conclusions.",
		sourceType: "academic",
	},
	{
		title:      "Government Report on %s - Official Data",
		url:        "https://government-reports.gov/%s-report",
		snippet:    "Official government report on %s with statistical data, policy implications, and regulatory considerations.",
		sourceType: "government",
	},
	{
		title:      "%s - Industry Best Practices and Case Studies",
		url:        "https://industry-hub.com/%s-practices",
		snippet:    "Industry best practices for %s with real-world case studies and implementation strategies.",
		sourceType: "industry",
	},
	{
		title:      "Technical Implementation of %s - Developer Guide",
		url:        "https://tech-docs.com/%s-implementation",
		snippet:    "Technical guide to implementing %s with code examples, architecture patterns, and performance considerations.",
		sourceType: "technical",
	},
}

var slugPattern = regexp.MustCompile(`[^a-zA-Z0-9-]+`)

// Simulated returns deterministic template results so the pipeline can
// run without a search API key. The Backend contract is identical to
// the live backends.
type Simulated struct{}

// Name returns the backend identifier.
func (s *Simulated) Name() string { return "simulated" }

// Search produces up to maxResults template results for the query with
// gradually decreasing relevance.
func (s *Simulated) Search(_ context.Context, query string, maxResults int) ([]types.SearchResult, error) {
	if maxResults <= 0 || maxResults > len(simulatedTemplates) {
		maxResults = len(simulatedTemplates)
	}

	slug := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(query), "-"), "-")

	var out []types.SearchResult
	for i, tmpl := range simulatedTemplates[:maxResults] {
		score := 1.0 - float64(i)*0.08
		if score < 0.6 {
			score = 0.6
		}
		out = append(out, types.SearchResult{
			Query:          query,
			URL:            fmt.Sprintf(tmpl.url, slug),
			Title:          fmt.Sprintf(tmpl.title, query),
			Snippet:        fmt.Sprintf(tmpl.snippet, query),
			RelevanceScore: score,
			SourceType:     tmpl.sourceType,
		})
	}
	return out, nil
}
