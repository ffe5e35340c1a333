package ask

import (
	"encoding/json"
	"strings"
)

// Labels the judge is asked to use, plus the two the pipeline assigns itself.
const (
	LabelA       = "A"
	LabelB       = "B"
	LabelUnknown = "Unknown"
	LabelError   = "Error"
)

const rankingFailedReason = "Ranking could not be completed."

// Judgment is the arbiter outcome: Parsed, Unparsed or Failed.
type Judgment interface {
	judgment()
}

// Parsed is a judge reply that decoded as {"better": ..., "reason": ...}.
// Better is kept verbatim, even if it is neither "A" nor "B".
type Parsed struct {
	Better string
	Reason string
}

// Unparsed is a judge reply that was not the requested JSON object.
type Unparsed struct {
	Raw string
}

// Failed means the judge call itself did not complete.
type Failed struct {
	Err error
}

func (Parsed) judgment()   {}
func (Unparsed) judgment() {}
func (Failed) judgment()   {}

// ParseJudgment decodes the judge's raw reply. Only the exact, lower-case
// keys "better" and "reason" are read; a missing key reads as "". Anything
// other than a JSON object whose present keys hold strings comes back as
// Unparsed.
func ParseJudgment(raw string) Judgment {
	if !strings.HasPrefix(strings.TrimSpace(raw), "{") {
		return Unparsed{Raw: raw}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Unparsed{Raw: raw}
	}
	better, ok := stringField(fields, "better")
	if !ok {
		return Unparsed{Raw: raw}
	}
	reason, ok := stringField(fields, "reason")
	if !ok {
		return Unparsed{Raw: raw}
	}
	return Parsed{Better: better, Reason: reason}
}

// stringField reads fields[key] as a string. An absent key or JSON null is "".
func stringField(fields map[string]json.RawMessage, key string) (string, bool) {
	v, present := fields[key]
	if !present {
		return "", true
	}
	var s *string
	if err := json.Unmarshal(v, &s); err != nil {
		return "", false
	}
	if s == nil {
		return "", true
	}
	return *s, true
}

// Verdict is the wire form of a Judgment. Preferred names the provider the
// label points at and is empty when the label maps to neither.
type Verdict struct {
	Better    string `json:"better"`
	Reason    string `json:"reason"`
	Preferred string `json:"preferred,omitempty"`
}

// NewVerdict flattens j, resolving "A"/"B" against the providers that
// actually answered in those positions.
func NewVerdict(j Judgment, a, b ProviderResponse) Verdict {
	switch j := j.(type) {
	case Parsed:
		v := Verdict{Better: j.Better, Reason: j.Reason}
		switch j.Better {
		case LabelA:
			v.Preferred = a.Provider
		case LabelB:
			v.Preferred = b.Provider
		}
		return v
	case Unparsed:
		return Verdict{Better: LabelUnknown, Reason: j.Raw}
	default:
		return Verdict{Better: LabelError, Reason: rankingFailedReason}
	}
}
