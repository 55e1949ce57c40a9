// Package redis holds the shared go-redis client and the key namespace used
// by the server.
package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyNamespace   = "docagent"
	connectTimeout = 5 * time.Second
)

// Key joins parts under the server's namespace, e.g. Key("rate_limit", id)
// gives "docagent:rate_limit:<id>".
func Key(parts ...string) string {
	return keyNamespace + ":" + strings.Join(parts, ":")
}

type Client struct {
	rdb *redis.Client
}

// Connect dials url and fails unless the server answers a ping.
func Connect(url string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	opts.DialTimeout = connectTimeout

	c := &Client{rdb: redis.NewClient(opts)}
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return c, nil
}

// Raw exposes the go-redis client to middleware.
func (c *Client) Raw() *redis.Client { return c.rdb }

func (c *Client) Ping(ctx context.Context) error { return c.rdb.Ping(ctx).Err() }

func (c *Client) Close() error { return c.rdb.Close() }
