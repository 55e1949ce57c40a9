package middleware

import (
	"strconv"
	"time"

	pkgredis "github.com/docagent/server/internal/pkg/redis"
	"github.com/docagent/server/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const rateLimitWindow = time.Second

// RateLimit enforces a fixed one-second window of perSecond requests per
// session, falling back to the client IP before a session is known.
// Redis failures let the request through.
func RateLimit(rdb *redis.Client, perSecond int) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject := Owner(c)
		if subject == "" {
			subject = c.ClientIP()
		}
		if subject == "" || perSecond <= 0 {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := pkgredis.Key("rate_limit", subject, strconv.FormatInt(time.Now().Unix(), 10))

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			c.Next()
			return
		}
		if count == 1 {
			rdb.PExpire(ctx, key, rateLimitWindow+time.Second)
		}

		if count > int64(perSecond) {
			c.Header("Retry-After", "1")
			response.TooManyRequests(c, "too many requests, slow down")
			return
		}

		c.Next()
	}
}
