package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Options selects and configures a slot driver.
type Options struct {
	Driver      string // file, memory, redis, postgres
	Dir         string
	RedisAddr   string
	PostgresDSN string
}

// Open builds the slot named by opts.Driver. The returned close func releases
// any connection the slot holds and is never nil.
func Open(ctx context.Context, opts Options) (Slot, func(), error) {
	noop := func() {}
	switch opts.Driver {
	case "", "file":
		s, err := NewFileSlot(opts.Dir)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case "memory":
		return NewMemorySlot(), noop, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, errors.Wrapf(err, "redis ping %s", opts.RedisAddr)
		}
		return NewRedisSlot(client), func() { _ = client.Close() }, nil
	case "postgres":
		pool, err := pgxpool.New(ctx, opts.PostgresDSN)
		if err != nil {
			return nil, noop, errors.Wrap(err, "postgres pool")
		}
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.Ping(pctx); err != nil {
			pool.Close()
			return nil, noop, errors.Wrap(err, "postgres ping")
		}
		return NewPGSlot(pool), pool.Close, nil
	}
	return nil, noop, errors.Wrapf(ErrUnknownDriver, "%q", opts.Driver)
}
