package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"classtrack/internal/analytics"
	"classtrack/internal/config"
	"classtrack/internal/queue"
	"classtrack/internal/session"
	"classtrack/internal/store"
)

// Worker consumes check-in events and keeps the per-class counters that the
// analytics view reads.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	redisClient := store.NewRedis(cfg.RedisAddr)
	defer redisClient.Close()

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "classtrack:checkins")
	}

	recorder := analytics.NewRecorder(redisClient.Client)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for check-in events...")
	for msg := range messages {
		if msg.Type != "checkin" {
			continue
		}

		var evt session.CheckInEvent
		if err := json.Unmarshal(msg.Body, &evt); err != nil {
			log.Printf("bad check-in event: %v", err)
			continue
		}

		if err := recorder.RecordCheckIn(ctx, evt.ClassID); err != nil {
			log.Printf("record check-in for class %d failed: %v", evt.ClassID, err)
			continue
		}
		log.Printf("recorded check-in: class %d session %d %s", evt.ClassID, evt.SessionID, evt.Email)
	}

	log.Println("worker stopped")
}
