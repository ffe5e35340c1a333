package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"synexis/internal/app"
	"synexis/internal/ask"
	"synexis/internal/events"
	"synexis/internal/httputil"
	"synexis/internal/logger"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("failed to load config", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	pub, err := app.ConnectEvents(cfg, log, "synexis-tally")
	if err != nil {
		log.Error("failed to build dependencies", "err", err)
		os.Exit(1)
	}
	defer pub.Close()
	log.Info("tally worker starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t := newTally(log)
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.TallyPort),
		Handler:           newRouter(log, t, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pub.Subscribe(ctx, events.TypeAskCompleted, t.record)
	})
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("tally service stopped", "err", err)
	}
}

func newRouter(log *slog.Logger, t *tally, allowedOrigins []string) http.Handler {
	r := httputil.NewRouter(log, allowedOrigins)
	r.Get("/healthz", httputil.HealthHandler(log))
	r.Get("/stats", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, t.snapshot())
	})
	return r
}

// summary counts ask outcomes seen on the bus since start.
type summary struct {
	Total           int            `json:"total"`
	Preferred       map[string]int `json:"preferred"`
	Labels          map[string]int `json:"labels"`
	TogetherFailed  int            `json:"together_failed"`
	LlamaFailed     int            `json:"llama_failed"`
	AvgDurationMS   int64          `json:"avg_duration_ms"`
	totalDurationMS int64
}

type tally struct {
	log *slog.Logger
	mu  sync.Mutex
	s   summary
}

func newTally(log *slog.Logger) *tally {
	return &tally{log: log, s: summary{Preferred: map[string]int{}, Labels: map[string]int{}}}
}

func (t *tally) record(ev events.Event) {
	var p events.AskCompleted
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		t.log.Error("failed to decode ask event", "id", ev.ID, "err", err)
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.s.Total++
	t.s.Labels[p.Better]++
	if p.Preferred != "" {
		t.s.Preferred[p.Preferred]++
	}
	if !p.TogetherOK {
		t.s.TogetherFailed++
	}
	if !p.LlamaOK {
		t.s.LlamaFailed++
	}
	t.s.totalDurationMS += p.DurationMS
	t.s.AvgDurationMS = t.s.totalDurationMS / int64(t.s.Total)

	if p.Better == ask.LabelError {
		t.log.Warn("ranking failed for ask", "request_id", p.RequestID)
	}
}

func (t *tally) snapshot() summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.s
	out.Preferred = make(map[string]int, len(t.s.Preferred))
	for k, v := range t.s.Preferred {
		out.Preferred[k] = v
	}
	out.Labels = make(map[string]int, len(t.s.Labels))
	for k, v := range t.s.Labels {
		out.Labels[k] = v
	}
	return out
}
