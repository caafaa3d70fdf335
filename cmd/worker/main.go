package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"schoolattend/internal/config"
	"schoolattend/internal/queue"
	"schoolattend/internal/store"
)

// summaryRetention is how long per-day summary hashes stay in Redis.
const summaryRetention = 72 * time.Hour

// Worker consumes check-in events and maintains per-day summary counters in
// Redis for the attendance summary endpoint.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)
	if !redisClient.Healthy(ctx) {
		log.Printf("WARNING: redis not reachable at %s, will retry as events arrive", cfg.RedisAddr)
	}

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "attendance:events")
	}

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for check-in events...")
	for msg := range messages {
		if msg.Type != "checkin" {
			continue
		}

		var evt queue.CheckInEvent
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			log.Printf("bad event payload: %v", err)
			continue
		}
		if evt.Day == "" || evt.StaffID == "" {
			continue
		}

		key := "attendance:summary:" + evt.Day
		pipe := redisClient.Client.TxPipeline()
		pipe.HIncrBy(ctx, key, "total", 1)
		pipe.HSet(ctx, key, "staff:"+evt.StaffID, evt.RecordID)
		pipe.Expire(ctx, key, summaryRetention)
		if _, err := pipe.Exec(ctx); err != nil {
			log.Printf("summary update failed for %s: %v", key, err)
			continue
		}
		log.Printf("recorded %s for %s", evt.StaffID, evt.Day)
	}

	log.Println("worker stopped")
}
