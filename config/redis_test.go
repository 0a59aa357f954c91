package config

import (
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestConnectRedis_DisabledUnderTestEnv(t *testing.T) {
	ResetRedisClientForTest()
	defer ResetRedisClientForTest()

	rdb, err := ConnectRedis()
	assert.NoError(t, err)
	assert.Nil(t, rdb)
}

func TestConnectRedis_ConcurrentCalls(t *testing.T) {
	ResetRedisClientForTest()
	defer ResetRedisClientForTest()

	type callResult struct {
		rdb interface{}
		err error
	}
	done := make(chan callResult, 5)
	for i := 0; i < 5; i++ {
		go func() {
			rdb, err := ConnectRedis()
			done <- callResult{rdb: rdb, err: err}
		}()
	}

	for i := 0; i < 5; i++ {
		res := <-done
		assert.NoError(t, res.err)
		assert.Nil(t, res.rdb)
	}
}

func TestRedisTestHelpers_SetAndReset(t *testing.T) {
	client, _ := redismock.NewClientMock()
	defer ResetRedisClientForTest()

	SetRedisClientForTest(client)
	assert.Equal(t, client, GetRedisClient())

	ResetRedisClientForTest()
	assert.Nil(t, GetRedisClient())
}
