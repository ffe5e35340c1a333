package ask

import "encoding/json"

// Result is what one run hands back: both provider responses and the verdict.
type Result struct {
	A        ProviderResponse
	B        ProviderResponse
	Judgment Judgment
	Verdict  Verdict
}

// Aggregate assembles a Result. A non-nil rankErr replaces j with Failed.
func Aggregate(a, b ProviderResponse, j Judgment, rankErr error) Result {
	if rankErr != nil || j == nil {
		j = Failed{Err: rankErr}
	}
	return Result{
		A:        a,
		B:        b,
		Judgment: j,
		Verdict:  NewVerdict(j, a, b),
	}
}

// MarshalJSON renders the response body the browser client reads:
// provider A under "together", provider B under "llama".
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Together string  `json:"together"`
		Llama    string  `json:"llama"`
		Ranking  Verdict `json:"ranking"`
	}{
		Together: r.A.Text,
		Llama:    r.B.Text,
		Ranking:  r.Verdict,
	})
}
