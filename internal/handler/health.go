package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Health reports liveness plus the state of MySQL and Redis.  Redis is
// optional, so its absence only degrades the report; a failing database
// answers 503.
func Health(db Pinger, rdb *redis.Client) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()

		status, code := "ok", http.StatusOK
		dbState := "disabled"
		if db != nil {
			dbState = "up"
			if err := db.PingContext(ctx); err != nil {
				dbState, status, code = "down", "degraded", http.StatusServiceUnavailable
			}
		}
		redisState := "disabled"
		if rdb != nil {
			redisState = "up"
			if err := rdb.Ping(ctx).Err(); err != nil {
				redisState = "down"
			}
		}
		return c.JSON(code, echo.Map{"status": status, "database": dbState, "redis": redisState})
	}
}
