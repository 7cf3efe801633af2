package redisx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

func Exists(ctx context.Context, rdb *redis.Client, key string) (bool, error) {
	n, err := rdb.Exists(ctx, key).Result()
	return n > 0, err
}

// Idempotency maps client idempotency keys to the order they created. A nil
// *Idempotency is valid and remembers nothing.
type Idempotency struct{ rdb *redis.Client }

func NewIdempotency(rdb *redis.Client) *Idempotency {
	if rdb == nil {
		return nil
	}
	return &Idempotency{rdb: rdb}
}

func (i *Idempotency) Lookup(ctx context.Context, key string) (string, bool, error) {
	if i == nil || key == "" {
		return "", false, nil
	}
	id, err := i.rdb.Get(ctx, fmt.Sprintf(KeyIdemOrderSubmit, key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// Remember stores orderID under key unless another submission already claimed it.
func (i *Idempotency) Remember(ctx context.Context, key, orderID string) error {
	if i == nil || key == "" {
		return nil
	}
	return i.rdb.SetNX(ctx, fmt.Sprintf(KeyIdemOrderSubmit, key), orderID, TTLIdempotency).Err()
}

// Dedup remembers processed event ids per consuming service. A nil *Dedup never
// reports a duplicate.
type Dedup struct {
	rdb     *redis.Client
	service string
}

func NewDedup(rdb *redis.Client, service string) *Dedup {
	if rdb == nil {
		return nil
	}
	return &Dedup{rdb: rdb, service: service}
}

func (d *Dedup) Seen(ctx context.Context, eventID string) (bool, error) {
	if d == nil {
		return false, nil
	}
	return Exists(ctx, d.rdb, fmt.Sprintf(KeyDedup, d.service, eventID))
}

func (d *Dedup) Mark(ctx context.Context, eventID string) error {
	if d == nil {
		return nil
	}
	return d.rdb.Set(ctx, fmt.Sprintf(KeyDedup, d.service, eventID), "1", TTLDedup).Err()
}
