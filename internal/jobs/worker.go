package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"classhub.app/api-server/internal/store"
	"github.com/redis/go-redis/v9"
)

// queueClient is the slice of the redis API the worker drives. *redis.Client
// satisfies it.
type queueClient interface {
	BLMove(ctx context.Context, source, destination, srcpos, destpos string, timeout time.Duration) *redis.StringCmd
	LMove(ctx context.Context, source, destination, srcpos, destpos string) *redis.StringCmd
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LRem(ctx context.Context, key string, count int64, value interface{}) *redis.IntCmd
}

// Worker drains the destroy queue and performs the deferred hard deletion of
// classroom resources. Handling is idempotent: a classroom that is already
// gone counts as success, so redelivered jobs are harmless.
//
// Jobs are moved onto a processing list while in flight, so a crash between
// pop and completion loses nothing; the next run reclaims them.
type Worker struct {
	client     queueClient
	tx         store.TxRunner
	queue      string
	processing string
}

func NewWorker(client queueClient, queue string, tx store.TxRunner) *Worker {
	return &Worker{
		client:     client,
		queue:      queue,
		processing: queue + ":processing",
		tx:         tx,
	}
}

// Run blocks until ctx is canceled, popping and handling jobs one at a time.
func (w *Worker) Run(ctx context.Context) error {
	slog.InfoContext(ctx, "worker started", "queue", w.queue)

	w.reclaim(ctx)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		payload, err := w.client.BLMove(ctx, w.queue, w.processing, "RIGHT", "LEFT", 5*time.Second).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			slog.ErrorContext(ctx, "failed to pop job", "error", err, "queue", w.queue)
			continue
		}

		var job DestroyClassroomJob
		if err := json.Unmarshal([]byte(payload), &job); err != nil {
			slog.ErrorContext(ctx, "dropping malformed job payload", "error", err, "queue", w.queue)
			w.ack(ctx, payload)
			continue
		}

		if err := w.HandleDestroy(ctx, job); err != nil {
			slog.ErrorContext(ctx, "destroy job failed, requeueing",
				"error", err,
				"classroom_id", job.ClassroomID,
			)
			// If the requeue fails too, leave the job on the processing
			// list so the next run reclaims it.
			if pushErr := w.client.LPush(ctx, w.queue, payload).Err(); pushErr != nil {
				slog.ErrorContext(ctx, "failed to requeue job", "error", pushErr)
				continue
			}
			w.ack(ctx, payload)
			continue
		}

		w.ack(ctx, payload)
		slog.InfoContext(ctx, "classroom destroyed", "classroom_id", job.ClassroomID)
	}
}

// reclaim moves jobs a previous run left in flight back onto the queue.
func (w *Worker) reclaim(ctx context.Context) {
	for {
		_, err := w.client.LMove(ctx, w.processing, w.queue, "RIGHT", "LEFT").Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && !errors.Is(err, context.Canceled) {
				slog.ErrorContext(ctx, "failed to reclaim in-flight jobs", "error", err)
			}
			return
		}
	}
}

func (w *Worker) ack(ctx context.Context, payload string) {
	if err := w.client.LRem(ctx, w.processing, 1, payload).Err(); err != nil {
		slog.ErrorContext(ctx, "failed to clear job from processing list", "error", err)
	}
}

// HandleDestroy removes the classroom's assignments, memberships and finally
// the classroom row itself in one transaction.
func (w *Worker) HandleDestroy(ctx context.Context, job DestroyClassroomJob) error {
	return w.tx.WithTx(ctx, func(stores store.Stores) error {
		if err := stores.Assignments().DeleteByClassroom(ctx, job.ClassroomID); err != nil {
			return fmt.Errorf("deleting assignments: %w", err)
		}
		if err := stores.Memberships().DeleteByClassroom(ctx, job.ClassroomID); err != nil {
			return fmt.Errorf("deleting memberships: %w", err)
		}
		if err := stores.Classrooms().HardDelete(ctx, job.ClassroomID); err != nil {
			return fmt.Errorf("deleting classroom: %w", err)
		}
		return nil
	})
}
