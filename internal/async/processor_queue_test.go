package async

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/receipt-ledger/internal/common"
	"github.com/joseph-ayodele/receipt-ledger/internal/entity"
	"github.com/joseph-ayodele/receipt-ledger/internal/pipeline"
)

type fakeImages struct {
	known map[uuid.UUID]entity.Image
}

func (f *fakeImages) GetByID(ctx context.Context, id uuid.UUID) (*entity.Image, error) {
	img, ok := f.known[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return &img, nil
}

type countingProcessor struct {
	calls atomic.Int32
	delay time.Duration
}

func (p *countingProcessor) Process(ctx context.Context, req pipeline.Request) entity.ProcessingReport {
	p.calls.Add(1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	return entity.ProcessingReport{Success: true, ProcessedCount: 1}
}

func TestProcessorQueue_ProcessesAllJobs(t *testing.T) {
	images := &fakeImages{known: map[uuid.UUID]entity.Image{}}
	var ids []uuid.UUID
	for i := 0; i < 20; i++ {
		id := uuid.New()
		images.known[id] = entity.Image{ID: id, UploaderID: uuid.New()}
		ids = append(ids, id)
	}

	var (
		mu      sync.Mutex
		results = map[uuid.UUID]entity.ProcessingReport{}
	)
	proc := &countingProcessor{delay: time.Millisecond}
	q := NewProcessorQueue(proc, images, nil,
		WithWorkers(3),
		WithQueueSize(4),
		WithResultFunc(func(job Job, report entity.ProcessingReport, err error) {
			assert.NoError(t, err)
			mu.Lock()
			results[job.ImageID] = report
			mu.Unlock()
		}),
	)

	ctx := context.Background()
	for _, id := range ids {
		require.NoError(t, q.Enqueue(ctx, Job{ImageID: id}))
	}
	q.Shutdown(ctx)

	assert.Equal(t, int32(20), proc.calls.Load())
	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, results, 20)
	for _, r := range results {
		assert.True(t, r.Success)
	}
}

func TestProcessorQueue_UnknownImage(t *testing.T) {
	proc := &countingProcessor{}
	errs := make(chan error, 1)
	q := NewProcessorQueue(proc, &fakeImages{}, nil, WithWorkers(1),
		WithResultFunc(func(job Job, report entity.ProcessingReport, err error) { errs <- err }))

	require.NoError(t, q.Enqueue(context.Background(), Job{ImageID: uuid.New()}))
	q.Shutdown(context.Background())

	assert.ErrorIs(t, <-errs, common.ErrNotFound)
	assert.Zero(t, proc.calls.Load())
}

func TestProcessorQueue_EnqueueAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(&countingProcessor{}, &fakeImages{}, nil)
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), Job{ImageID: uuid.New()})
	assert.ErrorIs(t, err, ErrQueueClosed)
}

type blockingProcessor struct {
	started chan struct{}
	release chan struct{}
}

func (p *blockingProcessor) Process(ctx context.Context, req pipeline.Request) entity.ProcessingReport {
	p.started <- struct{}{}
	<-p.release
	return entity.ProcessingReport{Success: true}
}

func TestProcessorQueue_ShutdownReleasesBlockedEnqueue(t *testing.T) {
	images := &fakeImages{known: map[uuid.UUID]entity.Image{}}
	jobs := make([]Job, 3)
	for i := range jobs {
		id := uuid.New()
		images.known[id] = entity.Image{ID: id}
		jobs[i] = Job{ImageID: id}
	}
	proc := &blockingProcessor{started: make(chan struct{}, len(jobs)), release: make(chan struct{})}
	q := NewProcessorQueue(proc, images, nil, WithWorkers(1), WithQueueSize(1))
	defer close(proc.release)

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, jobs[0]))
	<-proc.started
	require.NoError(t, q.Enqueue(ctx, jobs[1]))

	blocked := make(chan error, 1)
	go func() { blocked <- q.Enqueue(ctx, jobs[2]) }()
	time.Sleep(50 * time.Millisecond)

	shutdownCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	start := time.Now()
	q.Shutdown(shutdownCtx)
	assert.Less(t, time.Since(start), 2*time.Second, "shutdown honors its context")

	select {
	case err := <-blocked:
		assert.ErrorIs(t, err, ErrQueueClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("enqueue stayed blocked after shutdown")
	}
}

type uploaderRecorder struct {
	mu  sync.Mutex
	got []string
}

func (p *uploaderRecorder) Process(ctx context.Context, req pipeline.Request) entity.ProcessingReport {
	p.mu.Lock()
	p.got = append(p.got, common.UploaderIDFromContext(ctx))
	p.mu.Unlock()
	return entity.ProcessingReport{Success: true}
}

func TestProcessorQueue_CarriesUploaderInContext(t *testing.T) {
	id := uuid.New()
	uploader := uuid.New()
	images := &fakeImages{known: map[uuid.UUID]entity.Image{id: {ID: id, UploaderID: uploader}}}
	proc := &uploaderRecorder{}
	q := NewProcessorQueue(proc, images, nil, WithWorkers(1))

	ctx := context.Background()
	require.NoError(t, q.Enqueue(ctx, Job{ImageID: id, UploaderID: uploader}))
	q.Shutdown(ctx)

	proc.mu.Lock()
	defer proc.mu.Unlock()
	assert.Equal(t, []string{uploader.String()}, proc.got)
}
