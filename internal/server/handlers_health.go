package server

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	goredis "github.com/redis/go-redis/v9"
)

// postgresHealthChecker is satisfied by *pgxpool.Pool.
type postgresHealthChecker interface {
	Ping(ctx context.Context) error
}

// redisHealthChecker is satisfied by *goredis.Client.
type redisHealthChecker interface {
	Ping(ctx context.Context) *goredis.StatusCmd
}

func (s *Server) handleLiveness(c echo.Context) error {
	uptime := time.Since(s.startTime).Seconds()
	return c.JSON(200, map[string]any{
		"status": "ok",
		"uptime": uptime,
	})
}

func (s *Server) handleReadiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	checks := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"postgres", s.checkPostgres},
		{"redis", s.checkRedis},
	}

	for _, check := range checks {
		if err := check.fn(ctx); err != nil {
			return c.JSON(503, map[string]any{
				"status":       "unhealthy",
				"failed_check": check.name,
				"error":        err.Error(),
			})
		}
	}

	return c.JSON(200, map[string]string{"status": "ready"})
}

func (s *Server) checkPostgres(ctx context.Context) error {
	return s.postgresHealthCheck.Ping(ctx)
}

func (s *Server) checkRedis(ctx context.Context) error {
	return s.redisHealthCheck.Ping(ctx).Err()
}
