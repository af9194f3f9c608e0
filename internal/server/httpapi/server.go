// Package httpapi exposes the CyberGuard JSON API over HTTP using chi.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/cyberguard/internal/logging"
	"github.com/dmitrijs2005/cyberguard/internal/server/auth"
	"github.com/dmitrijs2005/cyberguard/internal/server/config"
	"github.com/dmitrijs2005/cyberguard/internal/server/models"
	"github.com/dmitrijs2005/cyberguard/internal/server/ratelimit"
	"github.com/dmitrijs2005/cyberguard/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const shutdownTimeout = 10 * time.Second

// AuthService is the subset of services.AuthService used by the handlers.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*services.Session, error)
	Login(ctx context.Context, email, password string) (*services.Session, error)
	Me(ctx context.Context, userID string) (*models.PublicUser, error)
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
	Logout(ctx context.Context, token string) error
	SessionValidity() time.Duration
}

type ProgressService interface {
	GetProgress(ctx context.Context, userID string) (*models.Progress, error)
	RecordQuiz(ctx context.Context, userID, quizID string, score float64) (*models.Progress, error)
	RecordFlashcard(ctx context.Context, userID, cardID string) (*models.Progress, error)
}

// Pinger reports database reachability; *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	address      string
	cookieName   string
	cookieSecure bool
	corsOrigins  []string
	trustProxy   bool

	auth     AuthService
	progress ProgressService
	limiter  ratelimit.Limiter
	db       Pinger
	logger   logging.Logger
}

func NewServer(cfg *config.Config, l logging.Logger, as AuthService, ps ProgressService, lim ratelimit.Limiter, db Pinger) *Server {
	return &Server{
		address:      cfg.EndpointAddrHTTP,
		cookieName:   cfg.CookieName,
		cookieSecure: cfg.CookieSecure,
		corsOrigins:  cfg.CORSOrigins,
		trustProxy:   cfg.TrustProxy,
		auth:         as,
		progress:     ps,
		limiter:      lim,
		db:           db,
		logger:       l.With("module", "http_server"),
	}
}

// Router builds the chi router with all routes and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if s.trustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.With(s.loginRateLimit).Post("/login", s.handleLogin)
			r.Post("/logout", s.handleLogout)
			r.With(s.requireAuth).Get("/me", s.handleMe)
		})

		r.Route("/password", func(r chi.Router) {
			r.Post("/check", s.handlePasswordCheck)
			r.Get("/generate", s.handlePasswordGenerate)
		})

		r.Route("/progress", func(r chi.Router) {
			r.Use(s.requireAuth)
			r.Get("/", s.handleGetProgress)
			r.Post("/quiz", s.handleRecordQuiz)
			r.Post("/flashcard", s.handleRecordFlashcard)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "Stopping HTTP server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Warn(r.Context(), "health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}
