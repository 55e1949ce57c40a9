package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"time"

	pkgredis "github.com/docagent/server/internal/pkg/redis"
	"github.com/docagent/server/internal/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	idempotenceHeader = "X-Idempotence"
	idempotenceTTL    = 60 * time.Second
	// Bodies above this size are not hashed; only an explicit header applies.
	idempotenceMaxBody = 8 << 20
)

const requestFailedKey = "docagent.request_failed"

// MarkFailed flags the request as failed even though a 2xx status was
// already written, as happens once an event stream has started.
func MarkFailed(c *gin.Context) {
	c.Set(requestFailedKey, true)
}

func requestFailed(c *gin.Context) bool {
	if c.GetBool(requestFailedKey) {
		return true
	}
	status := c.Writer.Status()
	return status < 200 || status >= 300
}

type IdempotenceOption func(*idempotenceOptions)

type idempotenceOptions struct {
	headerOnly bool
}

// HeaderOnly limits deduplication to requests carrying X-Idempotence.
// Routes where repeating an identical body is a legitimate new request use it.
func HeaderOnly() IdempotenceOption {
	return func(o *idempotenceOptions) { o.headerOnly = true }
}

// Idempotence rejects a repeat of a non-GET request while the first one is in
// flight, and for 60 seconds after it succeeded. A failed request releases
// its key. Redis failures let the request through.
func Idempotence(rdb *redis.Client, opts ...IdempotenceOption) gin.HandlerFunc {
	var o idempotenceOptions
	for _, opt := range opts {
		opt(&o)
	}
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet {
			c.Next()
			return
		}
		if o.headerOnly && c.GetHeader(idempotenceHeader) == "" {
			c.Next()
			return
		}

		key, err := resolveIdempotenceKey(c)
		if err != nil || key == "" {
			c.Next()
			return
		}

		redisKey := pkgredis.Key("idempotence", key)
		ctx := c.Request.Context()

		val, err := rdb.Get(ctx, redisKey).Result()
		if err == nil {
			msg := "identical request can only be sent once within 60 seconds"
			if val == "0" {
				msg = "identical request is still being processed"
			}
			response.Conflict(c, msg)
			return
		}
		if !errors.Is(err, redis.Nil) {
			c.Next()
			return
		}

		if err := rdb.Set(ctx, redisKey, "0", idempotenceTTL).Err(); err != nil {
			c.Next()
			return
		}

		c.Next()

		// The request context may already be cancelled by a dropped client.
		ctx = context.WithoutCancel(ctx)
		if requestFailed(c) {
			rdb.Del(ctx, redisKey)
			return
		}
		rdb.Set(ctx, redisKey, "1", redis.KeepTTL)
	}
}

// resolveIdempotenceKey prefers the explicit header, then a hash of the
// request scoped to the session owner.
func resolveIdempotenceKey(c *gin.Context) (string, error) {
	if hdr := c.GetHeader(idempotenceHeader); hdr != "" {
		return Owner(c) + ":" + hdr, nil
	}
	if c.Request.ContentLength > idempotenceMaxBody {
		return "", nil
	}

	var body []byte
	if c.Request.Body != nil {
		var err error
		body, err = io.ReadAll(io.LimitReader(c.Request.Body, idempotenceMaxBody+1))
		if err != nil {
			return "", err
		}
		if len(body) > idempotenceMaxBody {
			c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), c.Request.Body))
			return "", nil
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
	}

	owner := Owner(c)
	if len(body) == 0 && owner == "" {
		return "", nil
	}

	raw := c.Request.Method + "|" + c.Request.URL.String() + "|" + string(body) + "|" + c.Request.UserAgent() + "|" + c.ClientIP() + "|" + owner
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:]), nil
}
