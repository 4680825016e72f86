// Package rediskv stores credentials in Redis, for devices that share a credential cache.
package rediskv

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/okanassist/okanassist-auth/credentials"
	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "okanassist:credentials"

var _ credentials.KV = (*Store)(nil)

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Dial connects to a single Redis node and checks it answers.
func Dial(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, fmt.Errorf("no Redis address provided")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// Store namespaces every key as prefix:key. Batches run in MULTI/EXEC.
type Store struct {
	client redis.UniversalClient
	prefix string
}

func New(client redis.UniversalClient, prefix string) *Store {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(k string) string {
	return s.prefix + ":" + k
}

func (s *Store) MultiGet(ctx context.Context, keys ...string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}

	namespaced := make([]string, len(keys))
	for i, k := range keys {
		namespaced[i] = s.key(k)
	}

	values, err := s.client.MGet(ctx, namespaced...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget credentials: %w", err)
	}
	for i, v := range values {
		if v == nil {
			continue
		}
		str, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected value type %T for %s", v, keys[i])
		}
		out[keys[i]] = str
	}
	return out, nil
}

func (s *Store) MultiSet(ctx context.Context, pairs map[string]string) error {
	if len(pairs) == 0 {
		return nil
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range pairs {
			pipe.Set(ctx, s.key(k), v, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("set credentials: %w", err)
	}
	return nil
}

func (s *Store) MultiRemove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	namespaced := make([]string, len(keys))
	for i, k := range keys {
		namespaced[i] = s.key(k)
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, namespaced...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete credentials: %w", err)
	}
	return nil
}
