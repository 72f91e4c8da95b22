package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/omrgrade/omr-backend/internal/config"
	"github.com/omrgrade/omr-backend/internal/grading"
	"github.com/omrgrade/omr-backend/internal/model"
	"github.com/omrgrade/omr-backend/internal/repository"
	"github.com/omrgrade/omr-backend/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	GradeBatchSize    = 50
	GradeBatchTimeout = 2 * time.Second
	GradePollTimeout  = 1 * time.Second
	// GradeMaxAttempts bounds how often a job failing transiently is requeued.
	GradeMaxAttempts = 5
)

// Evaluator grades a queued job without persisting it.
type Evaluator interface {
	Evaluate(ctx context.Context, job *model.GradeJob) (*model.GradeResult, error)
}

// Publisher announces persisted results.
type Publisher interface {
	Publish(ctx context.Context, res *model.GradeResult)
}

// Enqueuer puts a job back on the grading queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, job *model.GradeJob) error
}

// ResultStore persists graded results.
type ResultStore interface {
	BulkUpsert(ctx context.Context, batch []*model.GradeResult) error
	Upsert(ctx context.Context, res *model.GradeResult) error
}

var _ ResultStore = (*repository.ResultRepository)(nil)
var _ Evaluator = (*service.GradingService)(nil)
var _ Enqueuer = (*service.GradingService)(nil)

type pending struct {
	job    *model.GradeJob
	result *model.GradeResult
}

type GradingWorker struct {
	rdb       *redis.Client
	evaluator Evaluator
	publisher Publisher
	queue     Enqueuer
	store     ResultStore
	log       zerolog.Logger
}

func NewGradingWorker(rdb *redis.Client, grading *service.GradingService, store ResultStore, log zerolog.Logger) *GradingWorker {
	return &GradingWorker{
		rdb:       rdb,
		evaluator: grading,
		publisher: grading,
		queue:     grading,
		store:     store,
		log:       log.With().Str("component", "grading_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *GradingWorker) Start(ctx context.Context) {
	w.log.Info().Msg("GradingWorker started")

	batch := make([]pending, 0, GradeBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= GradeBatchSize || time.Since(lastFlush) >= GradeBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, GradePollTimeout, config.WorkerKey.GradeSheetsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var job model.GradeJob
			if err := json.Unmarshal([]byte(item[1]), &job); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			if p, ok := w.process(ctx, &job); ok {
				batch = append(batch, p)
			}
		}
	}
}

// permanent reports whether a grading failure comes from the stored data or
// the job itself, so that grading it again would fail the same way.
func permanent(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) ||
		errors.Is(err, service.ErrInvalidJob) ||
		errors.Is(err, service.ErrSheetTestMismatch) ||
		errors.Is(err, service.ErrInvalidScheme) ||
		errors.Is(err, grading.ErrQuestionOutOfRange)
}

// process grades one job. Permanent failures are dropped; anything else is
// requeued until GradeMaxAttempts is reached.
func (w *GradingWorker) process(ctx context.Context, job *model.GradeJob) (pending, bool) {
	res, err := w.evaluator.Evaluate(ctx, job)
	if err == nil {
		return pending{job: job, result: res}, true
	}

	log := w.log.With().
		Str("sheet_id", job.SheetID).
		Str("scheme_id", job.SchemeID).
		Int("attempts", job.Attempts).
		Logger()

	if permanent(err) {
		log.Error().Err(err).Msg("grading failed, dropping job")
		return pending{}, false
	}
	if job.Attempts+1 >= GradeMaxAttempts {
		log.Error().Err(err).Msg("grading failed too often, dropping job")
		return pending{}, false
	}

	log.Warn().Err(err).Msg("grading failed, requeueing")
	w.requeue(ctx, job)
	return pending{}, false
}

func (w *GradingWorker) requeue(ctx context.Context, job *model.GradeJob) {
	retry := *job
	retry.Attempts++
	// Jobs popped during shutdown still go back on the queue.
	if err := w.queue.Enqueue(context.WithoutCancel(ctx), &retry); err != nil {
		w.log.Error().
			Err(err).
			Str("sheet_id", job.SheetID).
			Msg("requeue failed, job lost")
	}
}

// ----------------------------------------------------------------
// Batch Upsert Wrapper
// ----------------------------------------------------------------

func (w *GradingWorker) flushSafe(ctx context.Context, batch []pending) {
	if len(batch) == 0 {
		return
	}

	results := make([]*model.GradeResult, len(batch))
	for i, p := range batch {
		results[i] = p.result
	}

	if err := w.store.BulkUpsert(ctx, results); err != nil {
		w.log.Warn().Err(err).Msg("bulk result upsert failed, using fallback")

		for _, p := range batch {
			if err := w.store.Upsert(ctx, p.result); err != nil {
				w.log.Error().Err(err).Str("sheet_id", p.job.SheetID).Msg("single upsert failed, requeueing")
				w.requeue(ctx, p.job)
				continue
			}
			w.publisher.Publish(ctx, p.result)
		}
		return
	}

	// After a successful write → notify live subscribers.
	for _, res := range results {
		w.publisher.Publish(ctx, res)
	}

	w.log.Debug().Int("results", len(results)).Msg("Batch flushed")
}
