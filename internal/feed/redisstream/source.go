// Package redisstream consumes normalized alarm records published by vendor
// adapters onto a Redis stream. Each entry carries one JSON alarm under the
// "data" field.
package redisstream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	alarms "noc-console/internal/alarms/domain"
)

const defaultMaxBatch = 500

// Source reads the latest alarm records from a Redis stream.
type Source struct {
	client   *redis.Client
	stream   string
	maxBatch int64
	logger   *zap.Logger
}

// NewSource constructs a stream source.
func NewSource(client *redis.Client, stream string, maxBatch int64, logger *zap.Logger) *Source {
	if maxBatch <= 0 {
		maxBatch = defaultMaxBatch
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{client: client, stream: stream, maxBatch: maxBatch, logger: logger}
}

// Fetch implements feed.Source. It reads the newest entries and returns them
// oldest first, so re-published updates for the same alarm win on ingest.
func (s *Source) Fetch(ctx context.Context) ([]alarms.Alarm, error) {
	entries, err := s.client.XRevRangeN(ctx, s.stream, "+", "-", s.maxBatch).Result()
	if err != nil {
		return nil, fmt.Errorf("redis feed: %w", err)
	}

	out := make([]alarms.Alarm, 0, len(entries))
	// XRevRange yields newest first; walk backwards for ingest order.
	for i := len(entries) - 1; i >= 0; i-- {
		raw, ok := entries[i].Values["data"]
		if !ok {
			s.logger.Warn("stream entry without data field",
				zap.String("stream", s.stream),
				zap.String("id", entries[i].ID),
			)
			continue
		}
		payload, ok := raw.(string)
		if !ok {
			continue
		}
		var alarm alarms.Alarm
		if err := json.Unmarshal([]byte(payload), &alarm); err != nil {
			s.logger.Warn("undecodable stream entry",
				zap.String("stream", s.stream),
				zap.String("id", entries[i].ID),
				zap.Error(err),
			)
			continue
		}
		out = append(out, alarm)
	}
	return out, nil
}
