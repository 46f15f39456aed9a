// @title Quire API
// @version 1.0.0
// @description Translation workbench backend

// @license.name Apache 2.0
// @license.url https://www.apache.org/licenses/LICENSE-2.0

// @host localhost:8000
// @BasePath /api

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name quire_token

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/quirelab/quire/internal/audit"
	"github.com/quirelab/quire/internal/identity"
	"github.com/quirelab/quire/internal/observability/logger"
	"github.com/quirelab/quire/internal/observability/metrics"
	"github.com/quirelab/quire/internal/token"
	"github.com/quirelab/quire/internal/workspace"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	identityService  *identity.Service
	workspaceService *workspace.Service
	codec            *token.Codec
	lmProxy          *LMProxy
	auditLogger      audit.Logger
	authMetrics      *metrics.AuthMetrics
	authConfig       AuthConfig
}

// AuthConfig holds token cookie configuration. Path, HttpOnly and
// SameSite=Strict are fixed; only the name and the Secure flag vary by
// deployment.
type AuthConfig struct {
	CookieName   string
	CookieSecure bool
}

// NewHandler creates a new HTTP handler
func NewHandler(
	identityService *identity.Service,
	workspaceService *workspace.Service,
	codec *token.Codec,
	lmProxy *LMProxy,
	auditLogger audit.Logger,
	authMetrics *metrics.AuthMetrics,
	authConfig AuthConfig,
) *Handler {
	return &Handler{
		identityService:  identityService,
		workspaceService: workspaceService,
		codec:            codec,
		lmProxy:          lmProxy,
		auditLogger:      auditLogger,
		authMetrics:      authMetrics,
		authConfig:       authConfig,
	}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(CORSMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/healthz", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)
			r.With(h.RequireAuth).Get("/id", h.WhoAmI)
			r.With(h.RequireAdmin).Post("/users", h.CreateUser)
		})

		// Reads are open to guests; writes need an authenticated editor.
		r.Group(func(r chi.Router) {
			r.Use(h.OptionalAuth)

			r.Get("/projects", h.ListProjects)
			r.Get("/projects/{projectID}", h.GetProject)
			r.Get("/projects/{projectID}/units", h.ListUnits)

			r.Get("/units/{unitID}", h.GetUnit)
			r.Get("/units/{unitID}/sources", h.ListSources)
			r.Get("/units/{unitID}/commits", h.ListCommits)

			r.Get("/commits/{commitID}", h.GetCommit)
			r.Get("/commits/{commitID}/records", h.ListRecords)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)

			r.Post("/projects", h.CreateProject)
			r.Post("/units", h.CreateUnit)
			r.Post("/commits", h.CreateCommit)

			// Language model passthrough, POST only like the upstream API
			r.Post("/lm/*", h.lmProxy.ServeHTTP)
		})
	})

	return r
}

// HealthCheck returns the health status
// @Summary Health Check
// @Description Checks if the service is up and running
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "quire",
	})
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Name string `json:"name" binding:"required" example:"mira"`
	Pass string `json:"pass" binding:"required" example:"secret123"`
}

// Login handles user login
// @Summary Login
// @Description Authenticate and receive a signed token cookie
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.identityService.Login(r.Context(), req.Name, req.Pass)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	claim := token.NewClaim(user.ID, user.Admin)
	tok, err := h.codec.Encode(claim)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to issue token",
			logger.Error(err),
			logger.UserID(user.ID),
		)
		respondError(w, http.StatusInternalServerError, "The server has encountered an internal error")
		return
	}

	h.authMetrics.Issued(r.Context())
	h.setTokenCookie(w, tok, claim.ExpiresAt())

	respondJSON(w, http.StatusOK, map[string]any{
		"id": user.ID,
	})
}

// Logout handles user logout
// @Summary Logout
// @Description Discard the token cookie
// @Tags Auth
// @Produce json
// @Success 200 {object} map[string]string
// @Router /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	// Tokens are stateless, so logout is purely client-side: drop the
	// cookie. The audit trail still wants to know who left.
	if cookie, err := r.Cookie(h.authConfig.CookieName); err == nil {
		if claim, err := h.codec.Decode(cookie.Value); err == nil {
			h.auditLogger.Log(r.Context(), audit.Event{
				Type:      audit.TypeLogout,
				ActorID:   claim.Subject.String(),
				Resource:  "token",
				IPAddress: getIPAddress(r),
				UserAgent: r.UserAgent(),
			})
		}
	}

	h.clearTokenCookie(w)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "logged out successfully",
	})
}

// WhoAmI returns the authenticated subject's ID
// @Summary Who Am I
// @Description Return the subject ID of the presented token
// @Tags Auth
// @Produce json
// @Security CookieAuth
// @Success 200 {object} map[string]any
// @Failure 401 {object} map[string]string
// @Router /auth/id [get]
func (h *Handler) WhoAmI(w http.ResponseWriter, r *http.Request) {
	claim, _ := GetClaim(r.Context())

	respondJSON(w, http.StatusOK, map[string]any{
		"id": claim.Subject,
	})
}

// CreateUserRequest represents account creation data
type CreateUserRequest struct {
	Name string `json:"name" binding:"required" example:"mira"`
	Pass string `json:"pass" binding:"required" example:"secret123"`
}

// CreateUser provisions a new editor account
// @Summary Create User
// @Description Create a new non-admin account; admin only
// @Tags Auth
// @Accept json
// @Produce json
// @Security CookieAuth
// @Param request body CreateUserRequest true "Account Data"
// @Success 201 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /auth/users [post]
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Admin provisioning never mints another admin; the one admin account
	// comes from the bootstrap seed.
	user, err := h.identityService.CreateUser(r.Context(), req.Name, req.Pass, false)
	if err != nil {
		switch {
		case errors.Is(err, identity.ErrUserAlreadyExists):
			respondError(w, http.StatusConflict, "user already exists")
		case errors.Is(err, identity.ErrInvalidName):
			respondError(w, http.StatusBadRequest, "invalid account name")
		case errors.Is(err, identity.ErrWeakPassword):
			respondError(w, http.StatusBadRequest, "password does not meet security requirements")
		default:
			slog.ErrorContext(r.Context(), "failed to create user", logger.Error(err))
			respondError(w, http.StatusInternalServerError, "The server has encountered an internal error")
		}
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"id": user.ID,
	})
}

// Helper functions
func (h *Handler) setTokenCookie(w http.ResponseWriter, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.authConfig.CookieName,
		Value:    value,
		Path:     "/",
		Secure:   h.authConfig.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Expires:  expires,
	})
}

func (h *Handler) clearTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.authConfig.CookieName,
		Value:    "",
		Path:     "/",
		Secure:   h.authConfig.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondDomainError maps workspace errors onto protocol statuses in one
// place, so handlers never invent their own mapping
func respondDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, workspace.ErrNotFound):
		respondError(w, http.StatusNotFound, "The requested resource could not be found")
	case errors.Is(err, workspace.ErrAlreadyExists), errors.Is(err, workspace.ErrConflict):
		respondError(w, http.StatusConflict, "The requested operation cannot be completed")
	case errors.Is(err, workspace.ErrInvalidInput):
		respondError(w, http.StatusBadRequest, "invalid input")
	default:
		slog.ErrorContext(r.Context(), "request failed", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "The server has encountered an internal error")
	}
}

func getIPAddress(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
