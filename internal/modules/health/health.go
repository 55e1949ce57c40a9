// Package health reports liveness of the server and its backing stores.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/docagent/server/internal/pkg/cron"
	"github.com/docagent/server/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by the redis client.
type Pinger interface {
	Ping(ctx context.Context) error
}

func RegisterRoutes(rg *gin.RouterGroup, db *gorm.DB, rdb Pinger, sched *cron.Scheduler, started time.Time) {
	rg.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()

		dbOK := false
		if sqlDB, err := db.DB(); err == nil {
			dbOK = sqlDB.PingContext(ctx) == nil
		}
		redisOK := rdb != nil && rdb.Ping(ctx) == nil

		status := "ok"
		code := http.StatusOK
		if !dbOK || !redisOK {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":   status,
			"database": dbOK,
			"redis":    redisOK,
			"uptime":   time.Since(started).Truncate(time.Second).String(),
		})
	})

	rg.GET("/health/cron", func(c *gin.Context) {
		response.OK(c, sched.List())
	})
}
