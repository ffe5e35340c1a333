package ask

import (
	"context"
	"fmt"
	"log/slog"

	"synexis/internal/auth"
)

// Pipeline runs Intake → Gateway → Arbiter → Aggregate for one question.
// It holds no per-request state and is safe for concurrent use.
type Pipeline struct {
	gateway *Gateway
	arbiter *Arbiter
	log     *slog.Logger
}

func NewPipeline(a, b Provider, judge *Arbiter, log *slog.Logger) *Pipeline {
	return &Pipeline{
		gateway: NewGateway(a, b, log),
		arbiter: judge,
		log:     log,
	}
}

// Run answers q on behalf of who. It returns a *ValidationError for an
// empty question (before any provider is called) and a context error when
// the caller went away before ranking; every other failure is folded into
// the Result.
func (p *Pipeline) Run(ctx context.Context, who auth.Principal, q Question) (Result, error) {
	if err := q.Validate(); err != nil {
		return Result{}, err
	}
	log := p.log.With("user", who.Email)

	a, b := p.gateway.Collect(ctx, q)
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("ask cancelled before ranking: %w", err)
	}

	j, err := p.arbiter.Rank(ctx, q, p.gateway.A, p.gateway.B, a, b)
	if err != nil {
		log.Error("ranking failed", "err", err)
	} else if u, ok := j.(Unparsed); ok {
		log.Debug("judge reply was not structured", "raw_len", len(u.Raw))
	}

	res := Aggregate(a, b, j, err)
	log.Info("question answered",
		"provider_a_ok", a.OK(),
		"provider_b_ok", b.OK(),
		"better", res.Verdict.Better,
	)
	return res, nil
}
