// Package jobs carries the message-passing boundary between the request path
// and deferred cleanup work. The request side enqueues intents; the worker
// consumes them out-of-band.
package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DestroyQueue is the Redis list holding classroom destruction intents.
const DestroyQueue = "classhub:jobs:destroy_classroom"

// DestroyClassroomJob asks the worker to hard-delete a soft-deleted
// classroom and everything under it.
type DestroyClassroomJob struct {
	EnqueuedAt  time.Time `json:"enqueued_at"`
	ClassroomID int64     `json:"classroom_id"`
}

type Dispatcher interface {
	EnqueueDestroyClassroom(ctx context.Context, classroomID int64) error
}

type redisDispatcher struct {
	client *redis.Client
	queue  string
}

func NewRedisDispatcher(client *redis.Client, queue string) Dispatcher {
	return &redisDispatcher{client: client, queue: queue}
}

func (d *redisDispatcher) EnqueueDestroyClassroom(ctx context.Context, classroomID int64) error {
	payload, err := json.Marshal(DestroyClassroomJob{
		ClassroomID: classroomID,
		EnqueuedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("marshaling destroy job: %w", err)
	}

	if err := d.client.LPush(ctx, d.queue, payload).Err(); err != nil {
		return fmt.Errorf("enqueueing destroy job: %w", err)
	}
	return nil
}
