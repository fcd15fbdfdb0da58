package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Client provides prefix-scoped Redis operations on the LoRaBridge message
// queues. The client is thread-safe and can be used concurrently from multiple
// goroutines.
type Client struct {
	rdb       *redis.Client
	prefix    string
	statusKey string
}

// NewClient creates a new queue client. Context deadlines are applied to
// socket reads and writes, so a stalled store fails a command when its
// context expires instead of after the connection's read timeout.
//
// Parameters:
//   - redisOpts: Redis connection options (address, password, DB, timeouts)
//   - prefix: key namespace shared with the producers (must not be empty)
//   - statusKey: key the transmitter status token is written to (must not be empty)
func NewClient(redisOpts *redis.Options, prefix, statusKey string) (*Client, error) {
	if prefix == "" {
		return nil, fmt.Errorf("key prefix cannot be empty")
	}
	if statusKey == "" {
		return nil, fmt.Errorf("status key cannot be empty")
	}

	opts := *redisOpts
	opts.ContextTimeoutEnabled = true

	return &Client{
		rdb:       redis.NewClient(&opts),
		prefix:    prefix,
		statusKey: statusKey,
	}, nil
}

// Close closes the Redis connection. Implements io.Closer.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping verifies Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Devices returns a snapshot of the device directory (SMEMBERS).
// The order is store-defined. An empty directory is an empty Collection.
func (c *Client) Devices(ctx context.Context) Reply[[]string] {
	devices, err := c.rdb.SMembers(ctx, DeviceIndexKey(c.prefix)).Result()
	if err != nil {
		return failure[[]string](err)
	}
	return Reply[[]string]{Kind: Collection, Value: devices}
}

// PopLowest removes and returns the lowest-scored entry of a device queue
// (ZPOPMIN). Returns a Missing reply when the queue is empty.
func (c *Client) PopLowest(ctx context.Context, device string) Reply[Descriptor] {
	entries, err := c.rdb.ZPopMin(ctx, QueueKey(c.prefix, device), 1).Result()
	if err != nil {
		return failure[Descriptor](err)
	}
	if len(entries) == 0 {
		return Reply[Descriptor]{Kind: Missing}
	}

	key, ok := entries[0].Member.(string)
	if !ok {
		return Reply[Descriptor]{Kind: WrongType, Err: fmt.Errorf("unexpected queue member %T", entries[0].Member)}
	}

	return Reply[Descriptor]{
		Kind: Collection,
		Value: Descriptor{
			Device: device,
			Key:    key,
			Score:  entries[0].Score,
		},
	}
}

// FetchAndDelete atomically reads and removes a message payload (GETDEL).
// A payload can be consumed once; later calls for the same key get Missing.
func (c *Client) FetchAndDelete(ctx context.Context, device, key string) Reply[[]byte] {
	payload, err := c.rdb.GetDel(ctx, MessageKey(c.prefix, device, key)).Bytes()
	if err != nil {
		return failure[[]byte](err)
	}
	return Reply[[]byte]{Kind: Scalar, Value: payload}
}

// Enqueue stores a payload for a device and returns the generated message key.
// Payload, queue entry and directory membership are written in one
// MULTI/EXEC transaction.
func (c *Client) Enqueue(ctx context.Context, device string, payload []byte, score float64) (string, error) {
	if device == "" {
		return "", fmt.Errorf("device cannot be empty")
	}

	key := uuid.New().String()

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, MessageKey(c.prefix, device, key), payload, 0)
		pipe.ZAdd(ctx, QueueKey(c.prefix, device), redis.Z{Score: score, Member: key})
		pipe.SAdd(ctx, DeviceIndexKey(c.prefix), device)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to enqueue message: %w", err)
	}

	return key, nil
}

// Pending returns the number of queued entries for a device (ZCARD).
func (c *Client) Pending(ctx context.Context, device string) (int64, error) {
	n, err := c.rdb.ZCard(ctx, QueueKey(c.prefix, device)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count pending messages: %w", err)
	}
	return n, nil
}

// SetStatus overwrites the transmitter status token read by the UI.
func (c *Client) SetStatus(ctx context.Context, token string) error {
	if err := c.rdb.Set(ctx, c.statusKey, token, 0).Err(); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}
	return nil
}

// Status reads back the current status token.
// Returns ("", redis.Nil) if no status was written yet.
func (c *Client) Status(ctx context.Context) (string, error) {
	return c.rdb.Get(ctx, c.statusKey).Result()
}

// IsNotFound returns true if the error is a Redis "key not found" error (redis.Nil).
func IsNotFound(err error) bool {
	return errors.Is(err, redis.Nil)
}

func failure[T any](err error) Reply[T] {
	if IsNotFound(err) {
		return Reply[T]{Kind: Missing}
	}
	if isWrongType(err) {
		return Reply[T]{Kind: WrongType, Err: err}
	}
	return Reply[T]{Kind: Failed, Err: err}
}

func isWrongType(err error) bool {
	var rerr redis.Error
	return errors.As(err, &rerr) && strings.HasPrefix(rerr.Error(), "WRONGTYPE")
}
