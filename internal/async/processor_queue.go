package async

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
	"github.com/joseph-ayodele/receipt-ledger/internal/pipeline"
)

// ImageLoader fetches the image row a job points at.
type ImageLoader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Image, error)
}

// Processor runs one receipt (pipeline.Pipeline).
type Processor interface {
	Process(ctx context.Context, req pipeline.Request) entity.ProcessingReport
}

type ProcessorQueue struct {
	proc     Processor
	images   ImageLoader
	logger   *slog.Logger
	workers  int
	timeout  time.Duration
	onResult ResultFunc

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	// mu is held for reading by senders and for writing while ch is closed.
	mu       sync.RWMutex
	closed   bool
	done     chan struct{}
	doneOnce sync.Once
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithResultFunc registers a callback invoked from the worker goroutine after each job.
func WithResultFunc(fn ResultFunc) Option {
	return func(q *ProcessorQueue) {
		q.onResult = fn
	}
}

func NewProcessorQueue(proc Processor, images ImageLoader, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		images:  images,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.run(workerID, job)
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	if job.TraceID != "" {
		ctx = common.WithRequestID(ctx, job.TraceID)
	}
	if job.UploaderID != uuid.Nil {
		ctx = common.WithUploaderID(ctx, job.UploaderID.String())
	}
	log := q.logger.With("worker_id", workerID, "image_id", job.ImageID, "trace_id", job.TraceID,
		"uploader_id", common.UploaderIDFromContext(ctx))

	var (
		report entity.ProcessingReport
		err    error
	)
	img, err := q.images.GetByID(ctx, job.ImageID)
	if err != nil {
		err = fmt.Errorf("load image %s: %w", job.ImageID, err)
		log.Error("processing failed", "error", err)
	} else {
		report = q.proc.Process(ctx, pipeline.Request{Image: *img, UploaderID: job.UploaderID, RecipeID: job.RecipeID})
		if report.Success {
			log.Info("processed receipt successfully",
				"processed", report.ProcessedCount,
				"skipped", report.SkippedCount,
				"queued_ms", time.Since(job.SubmittedAt).Milliseconds(),
			)
		} else {
			log.Error("processing failed", "failure_kind", report.FailureKind, "message", report.Message)
		}
	}

	if q.onResult != nil {
		q.onResult(job, report, err)
	}
}

// Enqueue adds a job, blocking while the queue is full until ctx ends or the
// queue shuts down.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		q.logger.Warn("cannot enqueue: queue is shutting down", "image_id", job.ImageID)
		return ErrQueueClosed
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
		q.logger.Info("queued receipt for processing", "image_id", job.ImageID)
		return nil
	default:
	}

	q.logger.Warn("queue full, applying backpressure", "image_id", job.ImageID)
	select {
	case q.ch <- job:
		return nil
	case <-q.done:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops accepting jobs and waits for queued ones to finish or ctx to end.
// Senders blocked on a full queue are released with ErrQueueClosed.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.doneOnce.Do(func() { close(q.done) })

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
