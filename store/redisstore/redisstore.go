/*
Package redisstore implements a store.Store backed by a Redis DB. Entries are
kept under the key "<prefix>:<id>".
*/
package redisstore

import (
	"context"
	"fmt"

	"github.com/awojna/Rseslib-sub001/store"
	"gopkg.in/redis.v5"
)

type redisStore struct {
	rc     *redis.Client
	prefix string
}

// New builds a store.Store backed by a Redis DB.
func New(rc *redis.Client, prefix string) store.Store {
	return &redisStore{rc, prefix}
}

func (rs *redisStore) Create(ctx context.Context, data []byte) (string, error) {
	for {
		id := store.NewID()
		ok, err := rs.rc.SetNX(rs.keyFor(id), data, 0).Result()
		if err != nil {
			return "", fmt.Errorf("creating entry in redis: %v", err)
		}
		if ok {
			return id, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
	}
}

func (rs *redisStore) Get(ctx context.Context, id string) ([]byte, error) {
	data, err := rs.rc.Get(rs.keyFor(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("retrieving entry %q: %v", id, err)
	}
	return data, nil
}

func (rs *redisStore) Store(ctx context.Context, id string, data []byte) error {
	key := rs.keyFor(id)
	if _, err := rs.rc.Set(key, data, 0).Result(); err != nil {
		return fmt.Errorf("storing entry %q in redis: %v", key, err)
	}
	return nil
}

func (rs *redisStore) Delete(ctx context.Context, id string) error {
	key := rs.keyFor(id)
	if _, err := rs.rc.Del(key).Result(); err != nil {
		return fmt.Errorf("deleting entry %q from redis: %v", key, err)
	}
	return nil
}

func (rs *redisStore) Close(ctx context.Context) error {
	return rs.rc.Close()
}

func (rs *redisStore) keyFor(id string) string {
	return fmt.Sprintf("%s:%s", rs.prefix, id)
}
