package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tunegrab/tunegrab/internal/extractor"
	"github.com/tunegrab/tunegrab/internal/job"
	"github.com/tunegrab/tunegrab/internal/store"
)

// Extractor runs the external conversion tool. *extractor.Runner implements it.
type Extractor interface {
	Extract(ctx context.Context, url, outDir string) (*extractor.Result, error)
}

// Consumer delivers queued conversion messages. *rabbitmq.Client implements it.
type Consumer interface {
	Consume(consumerTag string) (<-chan amqp.Delivery, error)
}

// Config holds worker configuration
type Config struct {
	Logger      *slog.Logger
	Store       store.Store
	Queue       Consumer
	Runner      Extractor
	WorkerID    string
	Concurrency int
	// OutputDir is the base directory; each job gets its own subdirectory.
	OutputDir string
}

// Worker consumes conversion jobs from the queue and runs them through the
// extractor on a pool of goroutines.
type Worker struct {
	logger      *slog.Logger
	store       store.Store
	queue       Consumer
	runner      Extractor
	workerID    string
	concurrency int
	outputDir   string

	jobsChan chan *task
	wg       sync.WaitGroup
	stopChan chan struct{}
}

// task pairs a decoded message with its delivery for ACK/NACK.
type task struct {
	msg      job.Message
	delivery amqp.Delivery
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Worker{
		logger:      cfg.Logger,
		store:       cfg.Store,
		queue:       cfg.Queue,
		runner:      cfg.Runner,
		workerID:    cfg.WorkerID,
		concurrency: concurrency,
		outputDir:   cfg.OutputDir,
		jobsChan:    make(chan *task),
		stopChan:    make(chan struct{}),
	}
}

// Start subscribes to the queue, spawns the worker pool, and dispatches
// deliveries until ctx is canceled or the delivery channel closes.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.String("output_dir", w.outputDir),
	)

	deliveries, err := w.queue.Consume(w.workerID)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	w.spawnWorkerPool(ctx)
	w.dispatch(ctx, deliveries)

	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}

func (w *Worker) spawnWorkerPool(ctx context.Context) {
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}

	w.logger.Info("Worker pool spawned",
		slog.Int("worker_count", w.concurrency),
	)
}

// workerLoop is the main processing loop for each pool goroutine.
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	w.logger.Info("Worker goroutine started",
		slog.String("worker_name", workerName),
	)

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("Worker goroutine stopping - stopChan closed",
				slog.String("worker_name", workerName),
			)
			return

		case <-ctx.Done():
			w.logger.Info("Worker goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return

		case t, ok := <-w.jobsChan:
			if !ok {
				return
			}

			start := time.Now()
			err := w.processJob(ctx, t.msg)

			if err != nil {
				w.logger.Error("Job processing failed",
					slog.String("worker_name", workerName),
					slog.String("job_id", t.msg.JobID),
					slog.Duration("elapsed", time.Since(start)),
					slog.String("error", err.Error()),
				)

				// One redelivery at most. A transient failure gets a single
				// second chance; if the redelivered attempt also fails, the
				// job is recorded as failed instead of looping on the broker.
				requeue := shouldRequeue(err) && !t.delivery.Redelivered
				if shouldRequeue(err) && t.delivery.Redelivered {
					if failErr := w.store.FailJob(ctx, t.msg.JobID, "conversion could not be processed"); failErr != nil {
						w.logger.Error("Failed to record job failure after redelivery",
							slog.String("job_id", t.msg.JobID),
							slog.String("error", failErr.Error()),
						)
					}
				}

				if nackErr := t.delivery.Nack(false, requeue); nackErr != nil {
					w.logger.Error("Failed to NACK message",
						slog.String("job_id", t.msg.JobID),
						slog.String("error", nackErr.Error()),
					)
				} else {
					w.logger.Info("Message NACKed",
						slog.String("job_id", t.msg.JobID),
						slog.Bool("requeue", requeue),
					)
				}
				continue
			}

			if ackErr := t.delivery.Ack(false); ackErr != nil {
				w.logger.Error("Failed to ACK message",
					slog.String("job_id", t.msg.JobID),
					slog.String("error", ackErr.Error()),
				)
			} else {
				w.logger.Info("Job finished",
					slog.String("worker_name", workerName),
					slog.String("job_id", t.msg.JobID),
					slog.Duration("elapsed", time.Since(start)),
				)
			}
		}
	}
}

// shouldRequeue reports whether a failed job goes back on the queue. Only
// transient infrastructure errors are worth redelivering; a failed extraction
// would fail the same way again.
func shouldRequeue(err error) bool {
	var retryable *job.RetryableError
	return errors.As(err, &retryable)
}
