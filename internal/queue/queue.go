package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// Scan is one decoded QR payload reported by a scanner device.
type Scan struct {
	ID       string    `json:"id"`
	DeviceID string    `json:"device_id"`
	Payload  string    `json:"payload"`
	At       time.Time `json:"at"`
}

// Queue is the abstraction over scan-event backends. Consume hands back a
// single channel so the polling loop stays the only consumer.
type Queue interface {
	Publish(ctx context.Context, scan Scan) error
	Consume(ctx context.Context) (<-chan Scan, error)
}

// InMemory is a bounded channel-backed queue for single-process runs and
// tests.
type InMemory struct {
	ch chan Scan
}

// NewInMemory creates a bounded in-memory queue.
func NewInMemory(size int) *InMemory {
	return &InMemory{ch: make(chan Scan, size)}
}

// Publish enqueues a scan.
func (q *InMemory) Publish(ctx context.Context, scan Scan) error {
	select {
	case q.ch <- scan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Consume returns the consumer channel.
func (q *InMemory) Consume(ctx context.Context) (<-chan Scan, error) {
	out := make(chan Scan)
	go func() {
		defer close(out)
		for {
			select {
			case scan := <-q.ch:
				select {
				case out <- scan:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// RedisQueue stores scans as JSON in a Redis list using LPUSH/BRPOP.
type RedisQueue struct {
	client *redis.Client
	key    string
}

// NewRedisQueue builds a Redis-backed queue.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if key == "" {
		key = "amc:scans"
	}
	return &RedisQueue{client: client, key: key}
}

// Publish enqueues a scan.
func (q *RedisQueue) Publish(ctx context.Context, scan Scan) error {
	raw, err := json.Marshal(scan)
	if err != nil {
		return err
	}
	return q.client.LPush(ctx, q.key, raw).Err()
}

// Consume streams scans until the context is cancelled.
func (q *RedisQueue) Consume(ctx context.Context) (<-chan Scan, error) {
	out := make(chan Scan)
	go func() {
		defer close(out)
		for {
			res, err := q.client.BRPop(ctx, 5*time.Second, q.key).Result()
			if err != nil {
				if err == redis.Nil {
					continue
				}
				if ctx.Err() != nil {
					return
				}
				continue
			}
			if len(res) != 2 {
				continue
			}
			var scan Scan
			if err := json.Unmarshal([]byte(res[1]), &scan); err != nil {
				continue
			}
			select {
			case out <- scan:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
