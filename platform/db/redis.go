package db

import (
	"context"
	"crypto/tls"

	"profile_portal_backend/platform/config"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to the Redis instance named by REDIS_URL and
// checks that it answers.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return nil, err
	}
	if cfg.GetRedisTLSInsecure() {
		if opt.TLSConfig != nil {
			opt.TLSConfig = opt.TLSConfig.Clone()
		} else {
			opt.TLSConfig = &tls.Config{}
		}
		opt.TLSConfig.InsecureSkipVerify = true
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Pinger is anything with a readiness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// redisPinger adapts a Redis client to Pinger.
type redisPinger struct {
	client redis.UniversalClient
}

// NewRedisAdapter wraps client for health checks.
func NewRedisAdapter(client redis.UniversalClient) Pinger {
	return redisPinger{client: client}
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// Checks is a readiness check that passes only when every check passes.
type Checks []Pinger

func (c Checks) Ping(ctx context.Context) error {
	for _, p := range c {
		if err := p.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}
