package redisstream

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	alarms "noc-console/internal/alarms/domain"
)

func newTestSource(t *testing.T) (*Source, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSource(client, "noc:alarms", 0, nil), client
}

func publish(t *testing.T, client *redis.Client, alarm alarms.Alarm) {
	t.Helper()
	payload, err := json.Marshal(alarm)
	require.NoError(t, err)
	err = client.XAdd(context.Background(), &redis.XAddArgs{
		Stream: "noc:alarms",
		Values: map[string]interface{}{"data": string(payload)},
	}).Err()
	require.NoError(t, err)
}

func streamAlarm(id string) alarms.Alarm {
	created := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return alarms.Alarm{
		GlobalAlarmID: id,
		SourceSystem:  "zte-netnumen",
		Severity:      alarms.SeverityMajor,
		Technologies:  []string{"5G"},
		Title:         "packet-loss on west-node-04",
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

func TestFetchReturnsEntriesOldestFirst(t *testing.T) {
	source, client := newTestSource(t)

	for i := 1; i <= 3; i++ {
		publish(t, client, streamAlarm(fmt.Sprintf("ALM-%d", i)))
	}

	out, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, "ALM-1", out[0].GlobalAlarmID)
	assert.Equal(t, "ALM-3", out[2].GlobalAlarmID)
	assert.Equal(t, alarms.SeverityMajor, out[0].Severity)
}

func TestFetchSkipsBadEntries(t *testing.T) {
	source, client := newTestSource(t)
	ctx := context.Background()

	publish(t, client, streamAlarm("ALM-1"))
	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{
		Stream: "noc:alarms",
		Values: map[string]interface{}{"data": "{not json"},
	}).Err())
	require.NoError(t, client.XAdd(ctx, &redis.XAddArgs{
		Stream: "noc:alarms",
		Values: map[string]interface{}{"other": "field"},
	}).Err())
	publish(t, client, streamAlarm("ALM-2"))

	out, err := source.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "ALM-1", out[0].GlobalAlarmID)
	assert.Equal(t, "ALM-2", out[1].GlobalAlarmID)
}

func TestFetchEmptyStream(t *testing.T) {
	source, _ := newTestSource(t)
	out, err := source.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestFetchHonorsMaxBatch(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	source := NewSource(client, "noc:alarms", 2, nil)

	for i := 1; i <= 5; i++ {
		publish(t, client, streamAlarm(fmt.Sprintf("ALM-%d", i)))
	}

	out, err := source.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 2)
	// The newest two entries, oldest of the pair first.
	assert.Equal(t, "ALM-4", out[0].GlobalAlarmID)
	assert.Equal(t, "ALM-5", out[1].GlobalAlarmID)
}
