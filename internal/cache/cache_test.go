package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNilClientIsNotConfigured(t *testing.T) {
	var c *Client
	ctx := context.Background()

	assert.ErrorIs(t, c.Ping(ctx), ErrNotConfigured)
	assert.ErrorIs(t, c.Set(ctx, "k", []byte("v"), time.Minute), ErrNotConfigured)

	v, err := c.GetDel(ctx, "k")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.Nil(t, v)

	assert.NoError(t, c.Close())
}

func TestUnreachableRedisReportsErrors(t *testing.T) {
	c := New("127.0.0.1:1", "", 0)
	defer c.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	assert.Error(t, c.Ping(ctx))
	assert.Error(t, c.Set(ctx, "k", []byte("v"), time.Minute))

	v, err := c.GetDel(ctx, "k")
	assert.Error(t, err)
	assert.Nil(t, v)
}
