// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import (
	"bytes"
	"text/template"
)

// contextPromptTmpl condenses a user's prior briefs into context for a
// follow-up request. The model must not invent facts absent from the
// inputs.
var contextPromptTmpl = template.Must(template.New("context").Parse(`You are a research context analyzer. Summarize previous research interactions as context for a new query.

Current research topic: {{.Topic}}

Previous briefs, most recent first:
{{range .Briefs}}- Topic: {{.Topic}}
  Executive summary: {{.ExecutiveSummary}}
  Key findings: {{range .KeyFindings}}{{.}}; {{end}}
{{end}}
Respond with a JSON object with these fields:
- "common_themes": recurring themes across the previous briefs (array of strings)
- "relevant_context": a concise narrative (at most 200 words) of the prior findings that bear on the current topic

Use only information present in the briefs above; do not add facts of your own. Do not include any text outside the JSON object.
`))

// planPromptTmpl asks the model for a structured research plan.
var planPromptTmpl = template.Must(template.New("plan").Parse(`You are a research planning expert. Create a research plan for the topic below.

Research topic: {{.Topic}}
Research depth level: {{.Depth}} (1=basic, 5=comprehensive)
{{if .Context}}
Previous research context to build on (avoid duplicating it):
{{.Context}}
{{end}}
Respond with a JSON object with these fields:
- "topic": the cleaned, focused research topic
- "research_questions": 3-7 distinct questions to investigate (array of strings)
- "search_queries": {{.MinQueries}}-{{.MaxQueries}} specific web search queries (array of strings)
- "expected_sources": the kinds of sources you expect to find (array of strings)
- "depth_level": {{.Depth}}

Do not include any text outside the JSON object.
`))

// summaryPromptTmpl digests one fetched source into a SourceSummary.
var summaryPromptTmpl = template.Must(template.New("summary").Parse(`You are a content summarization expert. Summarize the source below and assess its relevance to the research topic.

Topic being researched: {{.Topic}}

Research questions:
{{range .Questions}}- {{.}}
{{end}}
Source:
Title: {{.Title}}
URL: {{.URL}}
Content:
{{.Content}}

Respond with a JSON object with these fields:
- "summary": a concise summary of the content
- "relevance_score": a float between 0.0 and 1.0 reflecting how well the source addresses the research questions
- "key_points": the salient points (array of strings)

Do not include any text outside the JSON object.
`))

// synthesisPromptTmpl produces the body of the final brief from the
// plan and the summarized sources.
var synthesisPromptTmpl = template.Must(template.New("synthesis").Parse(`You are a research synthesis expert. Write a professional, evidence-based research brief from the material below.

Research topic: {{.Topic}}
Research depth level: {{.Depth}}

Research questions:
{{range .Questions}}- {{.}}
{{end}}{{if .Context}}
Previous research context to consider:
{{.Context}}
{{end}}
{{if .Sources}}Source material:
{{range .Sources}}Source: {{.Title}}
URL: {{.URL}}
Summary: {{.Summary}}
Key points: {{range .KeyPoints}}{{.}}; {{end}}

{{end}}{{else}}No sources could be retrieved. Produce a best-effort brief from general knowledge of the topic and say so plainly in the limitations.
{{end}}
Respond with a JSON object with these fields:
- "executive_summary": a paragraph highlighting the key findings
- "key_findings": findings with supporting evidence (array of strings)
- "detailed_analysis": a detailed narrative synthesizing the sources
- "recommendations": actionable recommendations (array of strings)
- "limitations": limitations of this research (array of strings)
- "confidence_score": a float between 0.0 and 1.0 reflecting source coverage and quality

Do not include any text outside the JSON object.
`))

// renderTemplate executes tmpl with data and returns the prompt text.
func renderTemplate(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
