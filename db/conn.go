// Package db contains everything related to the Redis store backing
// room metadata and membership
package db

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// NewConn builds a Redis client from the current config and verifies
// the connection with a ping before handing it out.
func NewConn() (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     viper.GetString("redis.addr"),
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	})

	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis, %w", err)
	}

	return rdb, nil
}
