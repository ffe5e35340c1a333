package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"synexis/internal/app"
	"synexis/internal/ask"
	"synexis/internal/auth"
	"synexis/internal/events"
	"synexis/internal/extract"
	"synexis/internal/httputil"
	"synexis/internal/store"
)

const (
	shutdownTimeout = 10 * time.Second
	publishTimeout  = 2 * time.Second
)

func main() {
	if err := run(); err != nil {
		slog.Default().Error("gateway stopped", "err", err)
		os.Exit(1)
	}
}

func run() error {
	deps, err := app.Build()
	if err != nil {
		return fmt.Errorf("failed to build dependencies: %w", err)
	}
	defer deps.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pending sync.WaitGroup
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", deps.Config.Port),
		Handler:           newRouter(deps, &pending),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		deps.Log.Info("gateway listening", "addr", srv.Addr, "auth_required", deps.Config.AuthRequired)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		deps.Log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	err = g.Wait()
	// events still in flight must go out before the publisher closes
	pending.Wait()
	return err
}

// newRouter mounts every route. Background event publishes are tracked on
// pending so shutdown can wait for them.
func newRouter(deps app.Deps, pending *sync.WaitGroup) *chi.Mux {
	r := httputil.NewRouter(deps.Log, deps.Config.AllowedOrigins)

	r.Post("/api/register", registerHandler(deps))
	r.Post("/api/login", loginHandler(deps))
	r.Post("/api/logout", logoutHandler(deps))
	r.Get("/api/check-auth", checkAuthHandler(deps))
	r.Get("/healthz", httputil.HealthHandler(deps.Log))

	r.Group(func(r chi.Router) {
		if deps.Config.AuthRequired {
			r.Use(auth.RequireSession(deps.Auth, deps.Log))
		}
		r.Post("/api/ask", askHandler(deps, pending))
		r.Post("/api/upload", uploadHandler(deps))
	})
	return r
}

type askRequest struct {
	Question string `json:"question" validate:"required"`
}

func askHandler(deps app.Deps, pending *sync.WaitGroup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req askRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			httputil.Fail(deps.Log, w, "AI request failed.", err, http.StatusInternalServerError)
			return
		}
		if err := httputil.Validator.Struct(req); err != nil {
			httputil.Fail(deps.Log, w, "Question required.", err, http.StatusBadRequest)
			return
		}

		who, _ := auth.PrincipalFrom(r.Context())
		start := time.Now()
		res, err := deps.Pipeline.Run(r.Context(), who, ask.Question(req.Question))
		var verr *ask.ValidationError
		switch {
		case errors.As(err, &verr):
			httputil.Fail(deps.Log, w, "Question required.", err, http.StatusBadRequest)
			return
		case err != nil:
			httputil.Fail(deps.Log, w, "AI request failed.", err, http.StatusInternalServerError)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, res)

		reqID, took := middleware.GetReqID(r.Context()), time.Since(start)
		ctx := context.WithoutCancel(r.Context())
		pending.Add(1)
		go func() {
			defer pending.Done()
			publishAskCompleted(ctx, deps, reqID, who, res, took)
		}()
	}
}

// publishAskCompleted reports the outcome off the request path. Failures
// are only logged.
func publishAskCompleted(ctx context.Context, deps app.Deps, reqID string, who auth.Principal, res ask.Result, took time.Duration) {
	if deps.Events == nil {
		return
	}
	ev, err := events.New(events.TypeAskCompleted, events.AskCompleted{
		RequestID:  reqID,
		User:       who.Email,
		TogetherOK: res.A.OK(),
		LlamaOK:    res.B.OK(),
		Better:     res.Verdict.Better,
		Preferred:  res.Verdict.Preferred,
		DurationMS: took.Milliseconds(),
	})
	if err != nil {
		deps.Log.Error("failed to encode event", "err", err)
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := events.PublishWithRetry(ctx, deps.Events, ev, 3, 200*time.Millisecond); err != nil {
		deps.Log.Warn("failed to publish event", "type", ev.Type, "id", ev.ID, "err", err)
	}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func registerHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			httputil.Fail(deps.Log, w, "Invalid request body.", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(req); err != nil {
			httputil.ValidationError(deps.Log, w, err, "All fields are required.")
			return
		}

		user, err := deps.Auth.Register(r.Context(), req.Name, req.Email, req.Password)
		if errors.Is(err, store.ErrUserExists) {
			httputil.Fail(deps.Log, w, "User already exists.", err, http.StatusBadRequest)
			return
		}
		if err != nil {
			httputil.Fail(deps.Log, w, "Registration failed.", err, http.StatusInternalServerError)
			return
		}
		deps.Log.Info("user registered", "user_id", user.ID)
		httputil.WriteJSON(w, http.StatusCreated, httputil.Message{Message: "Registered successfully."})
	}
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Message       string          `json:"message,omitempty"`
	Authenticated bool            `json:"authenticated"`
	User          *auth.Principal `json:"user,omitempty"`
}

func loginHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			httputil.Fail(deps.Log, w, "Invalid request body.", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(req); err != nil {
			httputil.ValidationError(deps.Log, w, err, "All fields are required.")
			return
		}

		id, p, err := deps.Auth.Login(r.Context(), req.Email, req.Password)
		if errors.Is(err, auth.ErrInvalidCredentials) {
			httputil.Fail(deps.Log, w, "Invalid credentials.", err, http.StatusUnauthorized)
			return
		}
		if err != nil {
			httputil.Fail(deps.Log, w, "Login failed.", err, http.StatusInternalServerError)
			return
		}
		auth.SetSessionCookie(w, id, deps.Auth.TTL(), deps.Config.CookieSecure)
		httputil.WriteJSON(w, http.StatusOK, authResponse{Message: "Login successful.", Authenticated: true, User: &p})
	}
}

func logoutHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Auth.Logout(r.Context(), auth.SessionID(r)); err != nil {
			httputil.Fail(deps.Log, w, "Logout failed.", err, http.StatusInternalServerError)
			return
		}
		auth.ClearSessionCookie(w, deps.Config.CookieSecure)
		httputil.WriteJSON(w, http.StatusOK, httputil.Message{Message: "Logged out."})
	}
}

func checkAuthHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := deps.Auth.Authenticate(r.Context(), auth.SessionID(r))
		if errors.Is(err, auth.ErrSessionNotFound) {
			httputil.WriteJSON(w, http.StatusUnauthorized, authResponse{Authenticated: false})
			return
		}
		if err != nil {
			httputil.Fail(deps.Log, w, "Session lookup failed.", err, http.StatusInternalServerError)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, authResponse{Authenticated: true, User: &p})
	}
}

type uploadResponse struct {
	Message string `json:"message"`
	Content string `json:"content"`
}

func uploadHandler(deps app.Deps) http.HandlerFunc {
	maxFileSize := deps.Config.MaxUploadSize

	return func(w http.ResponseWriter, r *http.Request) {
		if maxFileSize > 0 {
			r.Body = http.MaxBytesReader(w, r.Body, maxFileSize)
		}
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				httputil.Fail(deps.Log, w, fmt.Sprintf("File too large (max %d bytes).", maxFileSize), err, http.StatusBadRequest)
				return
			}
			httputil.Fail(deps.Log, w, "No file uploaded.", err, http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			httputil.Fail(deps.Log, w, "No file uploaded.", err, http.StatusBadRequest)
			return
		}
		defer file.Close()

		if !extract.Supported(header.Filename) {
			httputil.Fail(deps.Log, w, "Unsupported file format.", nil, http.StatusBadRequest)
			return
		}

		content, err := io.ReadAll(file)
		if err != nil {
			httputil.Fail(deps.Log, w, "Failed to read file.", err, http.StatusInternalServerError)
			return
		}
		text, err := extract.Text(header.Filename, content)
		if err != nil {
			httputil.Fail(deps.Log.With("filename", header.Filename), w, "Failed to read file.", err, http.StatusInternalServerError)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, uploadResponse{Message: "File uploaded", Content: text})
	}
}
