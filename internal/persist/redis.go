package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"containerboard/api/internal/tracker"
)

// RedisMirror keeps each scope's collection as one JSON blob. Keys never
// expire.
type RedisMirror struct {
	client *redis.Client
}

// NewRedisMirror connects to redisURL and checks the connection.
func NewRedisMirror(redisURL string) (*RedisMirror, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisMirrorWithClient(client), nil
}

// NewRedisMirrorWithClient creates a mirror from an existing client.
func NewRedisMirrorWithClient(client *redis.Client) *RedisMirror {
	return &RedisMirror{client: client}
}

func (m *RedisMirror) Name() string {
	return "redis"
}

// ReplaceAll overwrites the blob with records.
func (m *RedisMirror) ReplaceAll(ctx context.Context, scope Scope, records []tracker.Record) error {
	blob, err := encodeBlob(records)
	if err != nil {
		return err
	}
	if err := m.client.Set(ctx, scope.BlobKey(), blob, 0).Err(); err != nil {
		return fmt.Errorf("save containers blob: %w", err)
	}
	return nil
}

// Load returns the stored collection. A missing key is an empty collection.
func (m *RedisMirror) Load(ctx context.Context, scope Scope) ([]tracker.Record, error) {
	blob, err := m.client.Get(ctx, scope.BlobKey()).Bytes()
	if errors.Is(err, redis.Nil) {
		return []tracker.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read containers blob: %w", err)
	}
	return decodeBlob(blob)
}

func (m *RedisMirror) Ping(ctx context.Context) error {
	return m.client.Ping(ctx).Err()
}

func (m *RedisMirror) Close() error {
	return m.client.Close()
}

func encodeBlob(records []tracker.Record) ([]byte, error) {
	if records == nil {
		records = []tracker.Record{}
	}
	blob, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshal containers: %w", err)
	}
	return blob, nil
}

func decodeBlob(blob []byte) ([]tracker.Record, error) {
	if len(blob) == 0 {
		return []tracker.Record{}, nil
	}
	var records []tracker.Record
	if err := json.Unmarshal(blob, &records); err != nil {
		return nil, fmt.Errorf("unmarshal containers: %w", err)
	}
	if records == nil {
		records = []tracker.Record{}
	}
	return records, nil
}
