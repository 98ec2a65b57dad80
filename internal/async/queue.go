// Package async processes receipts in the background with a bounded worker pool.
package async

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job asks for one receipt image to be processed.
type Job struct {
	ImageID     uuid.UUID
	UploaderID  uuid.UUID  // uuid.Nil uses the image's uploader
	RecipeID    *uuid.UUID // optional recipe scope
	SubmittedAt time.Time
	TraceID     string
}

// ResultFunc receives the outcome of a job. err is set only when the job never
// reached the pipeline (for example an unknown image).
type ResultFunc func(job Job, report entity.ProcessingReport, err error)

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}
