// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"

	"github.com/pdiddy/brief-engine/pkg/types"
)

// writeMarkdown renders a brief as a Markdown document.
func writeMarkdown(w io.Writer, b *types.FinalBrief) {
	fmt.Fprintf(w, "# Research Brief: %s\n\n", b.Topic)
	fmt.Fprintf(w, "Generated %s | Confidence %.2f\n\n", b.GeneratedAt.Format("2006-01-02 15:04 MST"), b.ConfidenceScore)

	fmt.Fprintf(w, "## Executive Summary\n\n%s\n\n", b.ExecutiveSummary)

	if len(b.KeyFindings) > 0 {
		fmt.Fprintf(w, "## Key Findings\n\n")
		for _, f := range b.KeyFindings {
			fmt.Fprintf(w, "- %s\n", f)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "## Detailed Analysis\n\n%s\n\n", b.DetailedAnalysis)

	if len(b.Recommendations) > 0 {
		fmt.Fprintf(w, "## Recommendations\n\n")
		for _, r := range b.Recommendations {
			fmt.Fprintf(w, "- %s\n", r)
		}
		fmt.Fprintln(w)
	}

	if len(b.Sources) > 0 {
		fmt.Fprintf(w, "## Sources\n\n")
		for _, s := range b.Sources {
			fmt.Fprintf(w, "- [%s](%s) (relevance %.2f)\n", s.Title, s.URL, s.RelevanceScore)
		}
		fmt.Fprintln(w)
	}

	if len(b.Limitations) > 0 {
		fmt.Fprintf(w, "## Limitations\n\n")
		for _, l := range b.Limitations {
			fmt.Fprintf(w, "- %s\n", l)
		}
		fmt.Fprintln(w)
	}

	if len(b.ResearchSteps) > 0 {
		fmt.Fprintf(w, "## Research Steps\n\n")
		for _, step := range b.ResearchSteps {
			fmt.Fprintf(w, "%d. %s (%s): %s\n", step.StepNumber, step.Action, step.Source, step.KeyFindings)
		}
	}
}
