// Package ask answers one question with two LLM providers and has a third
// call judge which answer is better.
//
// A request flows Intake → Gateway → Arbiter → Aggregate. Provider
// failures become per-provider sentinel text, judge failures become a
// degraded verdict; only an empty question or a cancelled request fails
// the whole run.
package ask

import "fmt"

// Question is the caller's text, passed to providers unmodified.
type Question string

// ValidationError reports a question the pipeline refuses to run.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Validate rejects the empty question. Whitespace-only text is accepted and
// nothing is trimmed.
func (q Question) Validate() error {
	if q == "" {
		return &ValidationError{Field: "question", Reason: "is required"}
	}
	return nil
}
