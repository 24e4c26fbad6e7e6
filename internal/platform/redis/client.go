package redis

import (
	"context"

	"fxhub/internal/config"

	goredis "github.com/redis/go-redis/v9"
)

// CreateClientAndPing connects to redis and verifies the connection.
func CreateClientAndPing(ctx context.Context, cfg config.Redis) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
