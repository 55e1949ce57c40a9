package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "docagent:rate_limit:abc:17", Key("rate_limit", "abc", "17"))
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	c, err := Connect("redis://" + mr.Addr())
	require.NoError(t, err)
	assert.NoError(t, c.Ping(context.Background()))
	require.NoError(t, c.Close())

	_, err = Connect("not-a-url")
	assert.Error(t, err)
}
