// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package workflow

import "fmt"

// Kind classifies a terminal WorkflowError.
type Kind string

const (
	// KindFatal covers schema validation failures, adapter auth or
	// configuration errors, and retryable failures that exhausted
	// their retries.
	KindFatal Kind = "fatal"

	// KindConsistency marks structurally invalid upstream output
	// discovered downstream: a contract violation, always fatal.
	KindConsistency Kind = "consistency"

	// KindCancelled marks an external deadline or abort signal.
	// Partial state is discarded.
	KindCancelled Kind = "cancelled"
)

// RetryableError wraps a transient node failure. The orchestrator
// re-runs the node from its own input up to the retry limit, then
// escalates to a fatal WorkflowError.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }

func (e *RetryableError) Unwrap() error { return e.Err }

// retryable is a convenience constructor.
func retryable(format string, args ...any) error {
	return &RetryableError{Err: fmt.Errorf(format, args...)}
}

// FatalError wraps a node failure that must halt the run immediately,
// with no retry.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return e.Err.Error() }

func (e *FatalError) Unwrap() error { return e.Err }

// fatal is a convenience constructor.
func fatal(format string, args ...any) error {
	return &FatalError{Err: fmt.Errorf(format, args...)}
}

// ConsistencyError wraps a contract violation found during final
// validation: upstream output that should have been impossible.
type ConsistencyError struct {
	Err error
}

func (e *ConsistencyError) Error() string { return e.Err.Error() }

func (e *ConsistencyError) Unwrap() error { return e.Err }

// inconsistent is a convenience constructor.
func inconsistent(format string, args ...any) error {
	return &ConsistencyError{Err: fmt.Errorf(format, args...)}
}

// WorkflowError is the single error callers receive. Raw adapter
// errors never leak; the orchestrator wraps them with the failing
// node, the attempt count, and the underlying cause.
type WorkflowError struct {
	// Kind classifies the failure.
	Kind Kind

	// Node names the failing node, or "request" for pre-run
	// validation failures.
	Node string

	// Attempts counts the retries performed before giving up. Zero
	// for failures that were never retryable.
	Attempts int

	// Err preserves the underlying cause for diagnostics.
	Err error
}

func (e *WorkflowError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("workflow: node %s failed after %d retries (%s): %v", e.Node, e.Attempts, e.Kind, e.Err)
	}
	return fmt.Sprintf("workflow: node %s failed (%s): %v", e.Node, e.Kind, e.Err)
}

func (e *WorkflowError) Unwrap() error { return e.Err }
