package ask

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"synexis/internal/llm"
)

// noRankingText stands in for a judge that answered with no content; it then
// goes through the normal parse fallback.
const noRankingText = "Could not rank the answers."

// ArbitrationError means the judge call failed outright (transport error,
// timeout or non-2xx status), as opposed to answering in the wrong shape.
// It surfaces as the "Error" verdict. The Node service this replaces had no
// such case: a failed judge call left it without choices, so it fell back to
// "Could not rank the answers." and reported "Unknown".
type ArbitrationError struct {
	Err error
}

func (e *ArbitrationError) Error() string {
	return "arbitration failed: " + e.Err.Error()
}

func (e *ArbitrationError) Unwrap() error {
	return e.Err
}

// Arbiter asks a judge model which of two answers is better.
type Arbiter struct {
	Client    llm.Client
	Model     string
	MaxTokens int64
}

// Rank builds the judging prompt and parses the reply. The error is always
// an *ArbitrationError.
func (a *Arbiter) Rank(ctx context.Context, q Question, pa, pb Provider, ra, rb ProviderResponse) (Judgment, error) {
	prompt := BuildPrompt(q, pa.title(), ra.Text, pb.title(), rb.Text)
	raw, err := a.Client.Complete(ctx, llm.Request{
		Model:     a.Model,
		Prompt:    prompt,
		MaxTokens: a.MaxTokens,
	})
	if errors.Is(err, llm.ErrEmptyCompletion) {
		raw, err = noRankingText, nil
	}
	if err != nil {
		return nil, &ArbitrationError{Err: err}
	}
	return ParseJudgment(raw), nil
}

// BuildPrompt renders the judging prompt. Answers are embedded verbatim,
// sentinels included.
func BuildPrompt(q Question, titleA, answerA, titleB, answerB string) string {
	var sb strings.Builder
	sb.WriteString("\nYou are an expert evaluator. Given the user's question and two AI-generated answers, evaluate which answer is better and explain why.\n\n")
	fmt.Fprintf(&sb, "Question: \"%s\"\n\n", string(q))
	fmt.Fprintf(&sb, "Answer A (from %s):\n%s\n\n", titleA, answerA)
	fmt.Fprintf(&sb, "Answer B (from %s):\n%s\n\n", titleB, answerB)
	sb.WriteString(`Please answer in this format:

{
  "better": "A" or "B",
  "reason": "Your reasoning here"
}
`)
	return sb.String()
}
