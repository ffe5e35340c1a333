package ask

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"synexis/internal/llm"
)

// Provider is one answering backend: a client bound to an endpoint and
// credential plus the fixed model, token budget and fallback sentinel.
type Provider struct {
	Name      string // stable identifier, e.g. "together"
	Title     string // shown to the judge, e.g. "Together AI"
	Client    llm.Client
	Model     string
	MaxTokens int64
	Sentinel  string
}

func (p Provider) title() string {
	if p.Title != "" {
		return p.Title
	}
	return p.Name
}

// ProviderResponse is always populated: Text is the answer, or the
// provider's sentinel when Err is set.
type ProviderResponse struct {
	Provider string
	Text     string
	Err      error
	Latency  time.Duration
}

// OK reports whether the provider produced a real answer.
func (r ProviderResponse) OK() bool {
	return r.Err == nil
}

// Gateway fans a question out to providers A and B.
type Gateway struct {
	A, B Provider
	log  *slog.Logger
}

func NewGateway(a, b Provider, log *slog.Logger) *Gateway {
	return &Gateway{A: a, B: b, log: log}
}

// Collect queries A and B concurrently and returns once both have settled,
// in (A, B) order. It never fails: each side falls back to its sentinel.
func (g *Gateway) Collect(ctx context.Context, q Question) (ProviderResponse, ProviderResponse) {
	var a, b ProviderResponse
	var eg errgroup.Group
	eg.Go(func() error {
		a = g.call(ctx, g.A, q)
		return nil
	})
	eg.Go(func() error {
		b = g.call(ctx, g.B, q)
		return nil
	})
	_ = eg.Wait()
	return a, b
}

func (g *Gateway) call(ctx context.Context, p Provider, q Question) (resp ProviderResponse) {
	start := time.Now()
	resp.Provider = p.Name
	defer func() {
		if rec := recover(); rec != nil {
			resp.Err = fmt.Errorf("provider panicked: %v", rec)
		}
		resp.Latency = time.Since(start)
		if resp.Err != nil {
			resp.Text = p.Sentinel
			g.log.Warn("provider failed, using fallback", "provider", p.Name, "err", resp.Err, "duration_ms", resp.Latency.Milliseconds())
		}
	}()

	resp.Text, resp.Err = p.Client.Complete(ctx, llm.Request{
		Model:     p.Model,
		Prompt:    string(q),
		MaxTokens: p.MaxTokens,
	})
	return resp
}
