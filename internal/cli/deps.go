package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"harmonix/internal/config"
	"harmonix/internal/studioapi"
)

func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// newLogger writes human-readable lines when console is set and JSON otherwise.
func newLogger(w io.Writer, cfg *config.Config, console bool) zerolog.Logger {
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(cfg.LogLevel()).With().Timestamp().Logger()
}

// newClient builds the studio client with the optional cache and rate limit.
// The returned func releases the Redis connection.
func newClient(cfg *config.Config, logger *zerolog.Logger) (*studioapi.Client, func()) {
	client := studioapi.NewClient(cfg.APIBaseURL(), cfg.API.APIKey, &http.Client{Timeout: cfg.APITimeout()})
	client.UseRateLimit(cfg.API.RequestsPerSecond, cfg.API.Burst)

	closeFn := func() {}
	if cfg.Redis.Address != "" && cfg.CacheTTL() > 0 {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Address, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		client.UseRedisCache(rdb, cfg.CacheTTL())
		logger.Debug().Str("address", cfg.Redis.Address).Dur("ttl", cfg.CacheTTL()).Msg("redis cache enabled")
		closeFn = func() {
			if err := rdb.Close(); err != nil {
				logger.Warn().Err(err).Msg("close redis")
			}
		}
	}
	return client, closeFn
}

// checkBackend pings the backend before a load. A failure only warns: the load
// that follows falls back to open availability on its own.
func checkBackend(ctx context.Context, client *studioapi.Client, logger *zerolog.Logger) {
	ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctxPing); err != nil {
		logger.Warn().Err(err).Msg("studio backend health check failed")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
