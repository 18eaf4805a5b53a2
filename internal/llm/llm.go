// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm abstracts the Generative AI API behind a small Backend
// interface so nodes can be tested against mocks. The concrete backend
// calls the Claude Messages API.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrTimeout marks an adapter call that exceeded its deadline. Callers
// treat it as transient.
var ErrTimeout = errors.New("llm: request timed out")

// Backend prompts a generative model and returns the completion text.
type Backend interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// DecodeError reports a completion that could not be parsed into the
// requested structure. The raw completion is preserved for diagnostics.
type DecodeError struct {
	Raw string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("llm: decoding structured completion: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// CompleteJSON prompts the backend and decodes the completion into
// target. Models often wrap JSON in Markdown code fences; those are
// stripped before decoding. A completion that does not parse returns a
// *DecodeError so the caller can decide whether to retry.
func CompleteJSON(ctx context.Context, b Backend, prompt string, target any) error {
	text, err := b.Complete(ctx, prompt)
	if err != nil {
		return err
	}

	cleaned := stripFences(text)
	if err := json.Unmarshal([]byte(cleaned), target); err != nil {
		return &DecodeError{Raw: text, Err: err}
	}
	return nil
}

// stripFences removes a surrounding Markdown code fence, with or
// without a language tag, and trims to the outermost JSON object or
// array when the model added prose around it.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 && !strings.HasPrefix(s, "{") && !strings.HasPrefix(s, "[") {
			s = s[i+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}
	var end int
	if s[start] == '{' {
		end = strings.LastIndexByte(s, '}')
	} else {
		end = strings.LastIndexByte(s, ']')
	}
	if end > start {
		return s[start : end+1]
	}
	return s
}
