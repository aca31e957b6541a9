package cache

import (
	"testing"
	"time"

	"clinic-appointment-service/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(config.RedisConfig{Host: mr.Host(), Port: mr.Port(), PoolSize: 3})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.Equal(t, 3, client.Options().PoolSize)
	assert.Equal(t, defaultDialTimeout, client.Options().DialTimeout)

	host, port, addr := mr.Host(), mr.Port(), mr.Addr()
	mr.Close()
	_, err = NewRedisClient(config.RedisConfig{Host: host, Port: port, DialTimeout: 200 * time.Millisecond})
	assert.ErrorContains(t, err, addr)
}
