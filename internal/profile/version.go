package profile

import (
	"context"
	"errors"
	"os"
	"strconv"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

// VersionKey is the Redis key holding the catalog version counter.
const VersionKey = "condominio:profile-catalog:version"

// Version is a catalog version token that can be read and bumped.
type Version interface {
	CatalogVersion(ctx context.Context) (string, error)
	Bump(ctx context.Context) error
}

// LocalVersion is an in-process counter. Suitable for a single replica.
type LocalVersion struct {
	n atomic.Int64
}

func (v *LocalVersion) CatalogVersion(context.Context) (string, error) {
	return strconv.FormatInt(v.n.Load(), 10), nil
}

func (v *LocalVersion) Bump(context.Context) error {
	v.n.Add(1)
	return nil
}

// RedisVersion shares the counter between replicas.
type RedisVersion struct {
	client redis.UniversalClient
	key    string
}

func NewRedisVersion(client redis.UniversalClient) *RedisVersion {
	return &RedisVersion{client: client, key: VersionKey}
}

func (v *RedisVersion) CatalogVersion(ctx context.Context) (string, error) {
	s, err := v.client.Get(ctx, v.key).Result()
	if errors.Is(err, redis.Nil) {
		return "0", nil
	}
	return s, err
}

func (v *RedisVersion) Bump(ctx context.Context) error {
	return v.client.Incr(ctx, v.key).Err()
}

type VersionConfig struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// VersionConfigFromEnv reads REDIS_ADDR, REDIS_PASSWORD and REDIS_DB.
func VersionConfigFromEnv() VersionConfig {
	db, _ := strconv.Atoi(os.Getenv("REDIS_DB"))
	return VersionConfig{
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       db,
	}
}

// NewVersion returns a RedisVersion when an address is configured and a
// LocalVersion otherwise. The returned closer releases the Redis client.
func NewVersion(cfg VersionConfig) (Version, func() error) {
	if cfg.RedisAddr == "" {
		return &LocalVersion{}, func() error { return nil }
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	return NewRedisVersion(client), client.Close
}
