package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/omrgrade/omr-backend/internal/grading"
	"github.com/omrgrade/omr-backend/internal/model"
	"github.com/omrgrade/omr-backend/internal/service"
	"github.com/rs/zerolog"
)

type fakeStore struct {
	bulkErr   error
	singleErr error
	bulk      int
	singles   int
}

func (s *fakeStore) BulkUpsert(_ context.Context, batch []*model.GradeResult) error {
	if s.bulkErr != nil {
		return s.bulkErr
	}
	s.bulk += len(batch)
	return nil
}

func (s *fakeStore) Upsert(_ context.Context, _ *model.GradeResult) error {
	if s.singleErr != nil {
		return s.singleErr
	}
	s.singles++
	return nil
}

type fakeQueue struct {
	err  error
	jobs []model.GradeJob
}

func (q *fakeQueue) Enqueue(_ context.Context, job *model.GradeJob) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, *job)
	return nil
}

type fakePublisher struct{ published []uuid.UUID }

func (p *fakePublisher) Publish(_ context.Context, res *model.GradeResult) {
	p.published = append(p.published, res.SheetID)
}

type fakeEvaluator struct{ err error }

func (e *fakeEvaluator) Evaluate(_ context.Context, job *model.GradeJob) (*model.GradeResult, error) {
	if e.err != nil {
		return nil, e.err
	}
	return &model.GradeResult{SheetID: uuid.MustParse(job.SheetID), Total: 1}, nil
}

func newBatch(n int) []pending {
	batch := make([]pending, n)
	for i := range batch {
		id := uuid.New()
		batch[i] = pending{
			job:    &model.GradeJob{SheetID: id.String()},
			result: &model.GradeResult{SheetID: id},
		}
	}
	return batch
}

func TestFlushSafe_Bulk(t *testing.T) {
	store := &fakeStore{}
	pub := &fakePublisher{}
	w := &GradingWorker{store: store, publisher: pub, log: zerolog.Nop()}

	w.flushSafe(context.Background(), newBatch(3))

	if store.bulk != 3 || store.singles != 0 {
		t.Errorf("Expected 3 bulk and 0 single writes, got %d and %d", store.bulk, store.singles)
	}
	if len(pub.published) != 3 {
		t.Errorf("Expected 3 published results, got %d", len(pub.published))
	}
}

func TestFlushSafe_FallbackToSingle(t *testing.T) {
	store := &fakeStore{bulkErr: errors.New("deadlock")}
	pub := &fakePublisher{}
	w := &GradingWorker{store: store, publisher: pub, log: zerolog.Nop()}

	w.flushSafe(context.Background(), newBatch(2))

	if store.singles != 2 {
		t.Errorf("Expected 2 single writes, got %d", store.singles)
	}
	if len(pub.published) != 2 {
		t.Errorf("Expected 2 published results, got %d", len(pub.published))
	}
}

func TestFlushSafe_Empty(t *testing.T) {
	store := &fakeStore{}
	w := &GradingWorker{store: store, publisher: &fakePublisher{}, log: zerolog.Nop()}

	w.flushSafe(context.Background(), nil)

	if store.bulk != 0 || store.singles != 0 {
		t.Errorf("Expected no writes for empty batch")
	}
}

func TestFlushSafe_RequeueOnStoreFailure(t *testing.T) {
	store := &fakeStore{bulkErr: errors.New("deadlock"), singleErr: errors.New("connection reset")}
	pub := &fakePublisher{}
	queue := &fakeQueue{}
	w := &GradingWorker{store: store, publisher: pub, queue: queue, log: zerolog.Nop()}

	batch := newBatch(2)
	w.flushSafe(context.Background(), batch)

	if len(pub.published) != 0 {
		t.Errorf("Expected nothing published, got %d", len(pub.published))
	}
	if len(queue.jobs) != 2 {
		t.Fatalf("Expected 2 requeued jobs, got %d", len(queue.jobs))
	}
	if queue.jobs[0].SheetID != batch[0].job.SheetID || queue.jobs[0].Attempts != 1 {
		t.Errorf("Unexpected requeued job %+v", queue.jobs[0])
	}
}

func TestFlushSafe_RequeueFailureIsSurvivable(t *testing.T) {
	store := &fakeStore{bulkErr: errors.New("deadlock"), singleErr: errors.New("connection reset")}
	queue := &fakeQueue{err: errors.New("redis down")}
	w := &GradingWorker{store: store, publisher: &fakePublisher{}, queue: queue, log: zerolog.Nop()}

	w.flushSafe(context.Background(), newBatch(1))

	if len(queue.jobs) != 0 {
		t.Errorf("Expected no queued jobs, got %d", len(queue.jobs))
	}
}

func TestProcess_Graded(t *testing.T) {
	job := &model.GradeJob{SheetID: uuid.NewString()}
	queue := &fakeQueue{}

	w := &GradingWorker{evaluator: &fakeEvaluator{}, queue: queue, log: zerolog.Nop()}
	p, ok := w.process(context.Background(), job)
	if !ok || p.result == nil || p.job != job {
		t.Fatalf("Expected job to be graded, got %+v %v", p, ok)
	}
	if len(queue.jobs) != 0 {
		t.Errorf("Expected nothing requeued, got %d", len(queue.jobs))
	}
}

func TestProcess_PermanentFailureDropped(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"missing sheet", fmt.Errorf("load sheet: %w", pgx.ErrNoRows)},
		{"bad sheet id", fmt.Errorf("%w: parse sheet id", service.ErrInvalidJob)},
		{"test mismatch", fmt.Errorf("%w: sheet x", service.ErrSheetTestMismatch)},
		{"bad scheme", fmt.Errorf("%w: parse scheme id", service.ErrInvalidScheme)},
		{"question range", fmt.Errorf("group 0: %w", grading.ErrQuestionOutOfRange)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			queue := &fakeQueue{}
			w := &GradingWorker{evaluator: &fakeEvaluator{err: tt.err}, queue: queue, log: zerolog.Nop()}

			if _, ok := w.process(context.Background(), &model.GradeJob{SheetID: uuid.NewString()}); ok {
				t.Fatalf("Expected failed job not to be batched")
			}
			if len(queue.jobs) != 0 {
				t.Errorf("Expected job to be dropped, got %d requeued", len(queue.jobs))
			}
		})
	}
}

func TestProcess_TransientFailureRequeued(t *testing.T) {
	job := &model.GradeJob{SheetID: uuid.NewString(), TestID: uuid.NewString()}
	queue := &fakeQueue{}
	evaluator := &fakeEvaluator{err: fmt.Errorf("load sheet: %w", &pgconn.PgError{Code: "57P01", Message: "terminating connection due to administrator command"})}
	w := &GradingWorker{evaluator: evaluator, queue: queue, log: zerolog.Nop()}

	if _, ok := w.process(context.Background(), job); ok {
		t.Fatalf("Expected failed job not to be batched")
	}
	if len(queue.jobs) != 1 {
		t.Fatalf("Expected 1 requeued job, got %d", len(queue.jobs))
	}
	got := queue.jobs[0]
	if got.SheetID != job.SheetID || got.TestID != job.TestID || got.Attempts != 1 {
		t.Errorf("Unexpected requeued job %+v", got)
	}
	if job.Attempts != 0 {
		t.Errorf("Expected original job untouched, got attempts %d", job.Attempts)
	}
}

func TestProcess_CanceledContextStillRequeues(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	queue := &fakeQueue{}
	w := &GradingWorker{evaluator: &fakeEvaluator{err: context.Canceled}, queue: queue, log: zerolog.Nop()}

	w.process(ctx, &model.GradeJob{SheetID: uuid.NewString()})

	if len(queue.jobs) != 1 {
		t.Fatalf("Expected 1 requeued job, got %d", len(queue.jobs))
	}
}

func TestProcess_GivesUpAfterMaxAttempts(t *testing.T) {
	queue := &fakeQueue{}
	w := &GradingWorker{evaluator: &fakeEvaluator{err: errors.New("i/o timeout")}, queue: queue, log: zerolog.Nop()}

	job := &model.GradeJob{SheetID: uuid.NewString(), Attempts: GradeMaxAttempts - 1}
	if _, ok := w.process(context.Background(), job); ok {
		t.Fatalf("Expected failed job not to be batched")
	}
	if len(queue.jobs) != 0 {
		t.Errorf("Expected job to be dropped after %d attempts, got %d requeued", GradeMaxAttempts, len(queue.jobs))
	}
}
