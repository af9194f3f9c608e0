// Package server wires the CyberGuard API: configuration, database and
// migrations, services, the login limiter and the HTTP server. It also
// handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/cyberguard/internal/dbx"
	"github.com/dmitrijs2005/cyberguard/internal/logging"
	"github.com/dmitrijs2005/cyberguard/internal/server/config"
	"github.com/dmitrijs2005/cyberguard/internal/server/httpapi"
	"github.com/dmitrijs2005/cyberguard/internal/server/ratelimit"
	"github.com/dmitrijs2005/cyberguard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/cyberguard/internal/server/services"
	"github.com/redis/go-redis/v9"
)

const (
	dbPingTimeout   = 5 * time.Second
	sweepInterval   = time.Minute
	revokedInterval = time.Hour
)

type App struct {
	config          *config.Config
	logger          logging.Logger
	db              *sql.DB
	redis           *redis.Client
	limiter         ratelimit.Limiter
	memLimiter      *ratelimit.MemoryLimiter
	authService     *services.AuthService
	progressService *services.ProgressService
}

// openDB and newRepoManager are seams for tests.
var (
	openDB         = dbx.Open
	newRepoManager = repomanager.NewPostgresRepositoryManager
)

func NewApp(ctx context.Context, c *config.Config, out io.Writer) (*App, error) {
	logger, err := logging.New(out, c.LogLevel, "json")
	if err != nil {
		logger.Warn(ctx, "unknown log level, using info", "level", c.LogLevel)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if c.SecretKey == config.DefaultSecretKey {
		logger.Warn(ctx, "using the default secret key, set JWT_SECRET outside development")
	}

	db, err := openDB(ctx, c.DatabaseDSN, dbPingTimeout)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := newRepoManager(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repository manager init error: %w", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	app := &App{
		config:          c,
		logger:          logger,
		db:              db,
		authService:     services.NewAuthService(db, rm, c),
		progressService: services.NewProgressService(db, rm),
	}
	app.initLimiter(ctx)

	return app, nil
}

// initLimiter uses Redis when an address is configured and reachable, and
// the in-process limiter otherwise.
func (app *App) initLimiter(ctx context.Context) {
	c := app.config

	if c.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			app.logger.Warn(ctx, "redis unavailable, counting login attempts in memory", "addr", c.RedisAddr, "error", err)
			_ = client.Close()
		} else {
			app.redis = client
			app.limiter = ratelimit.NewRedisLimiter(client, c.LoginRateLimit, c.LoginRateWindow)
			app.logger.Info(ctx, "login limiter backed by redis", "addr", c.RedisAddr)
			return
		}
	}

	app.memLimiter = ratelimit.NewMemoryLimiter(c.LoginRateLimit, c.LoginRateWindow)
	app.limiter = app.memLimiter
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config, app.logger, app.authService, app.progressService, app.limiter, app.db)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) purgeRevokedTokens(ctx context.Context) {
	ticker := time.NewTicker(revokedInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.authService.PurgeRevoked(ctx)
			if err != nil {
				app.logger.Error(ctx, "purging revoked tokens failed", "error", err)
				continue
			}
			app.logger.Debug(ctx, "purged revoked tokens", "count", n)
		}
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases the database and Redis connections.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.memLimiter != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.memLimiter.RunSweeper(ctx, sweepInterval)
		}()
	}

	if app.config.RevokeOnLogout {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.purgeRevokedTokens(ctx)
		}()
	}

	wg.Wait()
	app.close(ctx)
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "closing redis", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing database", "error", err)
	}
	app.logger.Info(ctx, "Stopped")
}
