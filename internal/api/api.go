// ABOUTME: HTTP handler wiring for the FitLife JSON API
// ABOUTME: Registers activity, auth, health and docs routes behind the middleware chain

package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/Vladimir-28/FitLife/internal/account"
	"github.com/Vladimir-28/FitLife/internal/activity"
	"github.com/Vladimir-28/FitLife/internal/auth"
	"github.com/Vladimir-28/FitLife/internal/store"
)

// AccountService is the account behaviour the handlers need
type AccountService interface {
	Register(ctx context.Context, in account.RegisterInput) (*account.Session, error)
	Login(ctx context.Context, in account.LoginInput) (*account.Session, error)
	ForgotPassword(ctx context.Context, email string) (*account.ResetRequest, error)
	VerifyResetToken(ctx context.Context, email, token string) error
	ResetPassword(ctx context.Context, email, token, newPassword string) error
	UnlinkDevice(ctx context.Context, email, password string) error
}

// ActivityService is the activity behaviour the handlers need
type ActivityService interface {
	List(ctx context.Context, owner *int64) ([]*store.Activity, error)
	Get(ctx context.Context, id int64) (*store.Activity, error)
	Create(ctx context.Context, f activity.Fields, owner *int64) (*store.Activity, error)
	Update(ctx context.Context, id int64, f activity.Fields) (*store.Activity, error)
	Delete(ctx context.Context, id int64) error
	Import(ctx context.Context, r io.Reader, owner *int64) ([]*store.Activity, error)
}

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of a Handler
type Deps struct {
	Accounts   AccountService
	Activities ActivityService
	Users      auth.UserLookup
	Verifier   auth.TokenVerifier
	Store      Pinger
	Logger     *slog.Logger
}

// Handler serves the HTTP API
type Handler struct {
	accounts   AccountService
	activities ActivityService
	users      auth.UserLookup
	verifier   auth.TokenVerifier
	store      Pinger
	logger     *slog.Logger
	docs       []byte
}

// NewHandler creates a Handler. The API reference page is rendered once here.
func NewHandler(d Deps) *Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		accounts:   d.Accounts,
		activities: d.Activities,
		users:      d.Users,
		verifier:   d.Verifier,
		store:      d.Store,
		logger:     logger.With("component", "api"),
	}
	h.docs = renderDocs(h.logger)
	return h
}

// Routes returns the complete HTTP handler including middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	withOwner := auth.OptionalAuthMiddleware(h.users, h.verifier, h.logger)

	mux.Handle("GET /activities", withOwner(http.HandlerFunc(h.handleListActivities)))
	mux.Handle("POST /activities", withOwner(http.HandlerFunc(h.handleCreateActivity)))
	mux.Handle("POST /activities/import", withOwner(http.HandlerFunc(h.handleImportActivities)))
	mux.Handle("PUT /activities/{id}", withOwner(http.HandlerFunc(h.handleUpdateActivity)))
	mux.Handle("DELETE /activities/{id}", withOwner(http.HandlerFunc(h.handleDeleteActivity)))

	mux.HandleFunc("POST /auth/register", h.handleRegister)
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.HandleFunc("POST /auth/forgot-password", h.handleForgotPassword)
	mux.HandleFunc("POST /auth/verify-reset-token", h.handleVerifyResetToken)
	mux.HandleFunc("POST /auth/reset-password", h.handleResetPassword)
	mux.HandleFunc("POST /auth/unlink-device", h.handleUnlinkDevice)

	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /health/ready", h.handleReady)
	mux.HandleFunc("GET /docs", h.handleDocs)

	var handler http.Handler = mux
	handler = recoverPanics(h.logger)(handler)
	handler = accessLog(h.logger)(handler)
	handler = cors(handler)
	handler = requestID(handler)
	return handler
}
