// feed_seed publishes synthetic alarm batches onto the Redis alarm stream so
// a console configured with the redis feed has something to consume locally.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"noc-console/internal/feed/mock"
)

func main() {
	addr := flag.String("addr", "localhost:6379", "redis address")
	stream := flag.String("stream", "noc:alarms", "target stream")
	count := flag.Int("count", 80, "alarms per batch")
	critical := flag.Int("critical", 5, "forced critical alarms per batch")
	major := flag.Int("major", 10, "forced major alarms per batch")
	seed := flag.Int64("seed", 0, "generator seed")
	batches := flag.Int("batches", 1, "number of batches to publish")
	interval := flag.Duration("interval", 5*time.Second, "delay between batches")
	flag.Parse()

	client := redis.NewClient(&redis.Options{Addr: *addr})
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis ping: %v", err)
	}

	gen := mock.NewGenerator(mock.Options{
		Count:          *count,
		ForcedCritical: *critical,
		ForcedMajor:    *major,
		Seed:           *seed,
	})

	for b := 0; b < *batches; b++ {
		if b > 0 {
			time.Sleep(*interval)
		}
		batch, err := gen.Fetch(ctx)
		if err != nil {
			log.Fatalf("generate batch: %v", err)
		}
		for _, alarm := range batch {
			payload, err := json.Marshal(alarm)
			if err != nil {
				log.Fatalf("marshal alarm %s: %v", alarm.GlobalAlarmID, err)
			}
			err = client.XAdd(ctx, &redis.XAddArgs{
				Stream: *stream,
				Values: map[string]interface{}{"data": string(payload)},
			}).Err()
			if err != nil {
				log.Fatalf("publish alarm %s: %v", alarm.GlobalAlarmID, err)
			}
		}
		log.Printf("published batch %d/%d (%d alarms) to %s", b+1, *batches, len(batch), *stream)
	}
}
