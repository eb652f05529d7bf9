//go:build ignore

// Публикует RouteSavedEvent в stream:route:saved и ждёт ответа экспорт-воркера.
// Маршрут с указанным id должен существовать в базе.
//
//	go run scripts/test_publish.go -route <uuid>
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	savedStream    = "stream:route:saved"
	exportedStream = "stream:route:exported"
)

type routeSavedEvent struct {
	RouteID   uuid.UUID `json:"route_id"`
	Overwrite bool      `json:"overwrite"`
}

type routeExportedEvent struct {
	RouteID      uuid.UUID `json:"route_id"`
	DataFilePath string    `json:"data_file_path,omitempty"`
	Error        string    `json:"error,omitempty"`
}

func main() {
	redisAddr := flag.String("redis", "localhost:6379", "Redis address for streams")
	routeFlag := flag.String("route", "", "ID of a saved route")
	timeoutFlag := flag.Duration("timeout", 30*time.Second, "How long to wait for the export result")
	flag.Parse()

	routeID, err := uuid.Parse(*routeFlag)
	if err != nil {
		log.Fatalf("Invalid -route: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: *redisAddr})
	defer client.Close()

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}

	// Запоминаем хвост стрима ответов до публикации
	lastID := "$"
	if msgs, err := client.XRevRangeN(ctx, exportedStream, "+", "-", 1).Result(); err == nil && len(msgs) > 0 {
		lastID = msgs[0].ID
	}

	data, err := json.Marshal(routeSavedEvent{RouteID: routeID})
	if err != nil {
		log.Fatalf("Failed to marshal event: %v", err)
	}

	msgID, err := client.XAdd(ctx, &redis.XAddArgs{
		Stream: savedStream,
		Values: map[string]interface{}{"data": string(data)},
	}).Result()
	if err != nil {
		log.Fatalf("Failed to publish event: %v", err)
	}

	fmt.Printf("Event published\n")
	fmt.Printf("   Stream: %s\n", savedStream)
	fmt.Printf("   Message ID: %s\n", msgID)
	fmt.Printf("   Route ID: %s\n", routeID)
	fmt.Printf("\nWaiting for response in %s...\n", exportedStream)

	deadline := time.Now().Add(*timeoutFlag)
	for time.Now().Before(deadline) {
		streams, err := client.XRead(ctx, &redis.XReadArgs{
			Streams: []string{exportedStream, lastID},
			Count:   10,
			Block:   time.Second,
		}).Result()
		if err != nil && err != redis.Nil {
			log.Fatalf("Failed to read responses: %v", err)
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				lastID = msg.ID

				raw, ok := msg.Values["data"].(string)
				if !ok {
					continue
				}
				var resp routeExportedEvent
				if err := json.Unmarshal([]byte(raw), &resp); err != nil || resp.RouteID != routeID {
					continue
				}

				pretty, _ := json.MarshalIndent(resp, "", "  ")
				fmt.Printf("\nResponse received:\n%s\n", pretty)
				return
			}
		}
	}

	fmt.Println("Timeout waiting for response")
}
