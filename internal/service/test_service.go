package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/omrgrade/omr-backend/internal/config"
	"github.com/omrgrade/omr-backend/internal/model"
	"github.com/omrgrade/omr-backend/internal/repository"
	"github.com/omrgrade/omr-backend/internal/response"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrInvalidAnswerKey is returned when a group's key does not fit its layout.
var ErrInvalidAnswerKey = errors.New("answer key does not match group layout")

// TestService manages answer keys.
type TestService struct {
	testRepo *repository.TestRepository
	rdb      *redis.Client
	log      zerolog.Logger
}

// NewTestService creates a new TestService.
func NewTestService(testRepo *repository.TestRepository, rdb *redis.Client, log zerolog.Logger) *TestService {
	return &TestService{
		testRepo: testRepo,
		rdb:      rdb,
		log:      log.With().Str("component", "test_service").Logger(),
	}
}

// ValidateGroups checks that every key entry addresses an existing question
// and alternative. A question may list zero, one or several correct alternatives.
func ValidateGroups(groups []model.QuestionGroupDef) error {
	for gi, g := range groups {
		if len(g.Correct) > g.Questions {
			return fmt.Errorf("%w: group %d has %d keyed questions but only %d questions",
				ErrInvalidAnswerKey, gi, len(g.Correct), g.Questions)
		}
		for q, alts := range g.Correct {
			for _, a := range alts {
				if a < 0 || a >= g.Alternatives {
					return fmt.Errorf("%w: group %d question %d alternative %d out of range",
						ErrInvalidAnswerKey, gi, q, a)
				}
			}
		}
	}
	return nil
}

// Create validates and stores a test.
func (s *TestService) Create(ctx context.Context, req *model.CreateTestRequest, operatorID int) (*model.Test, error) {
	if err := ValidateGroups(req.Groups); err != nil {
		return nil, err
	}

	t := &model.Test{Name: req.Name, Groups: req.Groups, CreatedBy: operatorID}
	if err := s.testRepo.Create(ctx, t); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("test_id", t.ID.String()).
		Int("groups", len(t.Groups)).
		Msg("Test created")
	return t, nil
}

// GetByID returns a test, reading through the Redis cache. Tests are
// immutable once created so the cache never needs invalidation.
func (s *TestService) GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	key := config.CacheKey.TestStructureKey(id.String())

	var cached model.Test
	ok, err := getCached(ctx, s.rdb, key, &cached)
	if err != nil {
		s.log.Warn().Err(err).Str("test_id", id.String()).Msg("test cache read failed")
	}
	if ok {
		return &cached, nil
	}

	t, err := s.testRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := setCached(ctx, s.rdb, key, t); err != nil {
		s.log.Warn().Err(err).Str("test_id", id.String()).Msg("failed to cache test")
	}
	return t, nil
}

// List returns a page of tests with pagination info.
func (s *TestService) List(ctx context.Context, page, perPage int) ([]model.Test, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	tests, total, err := s.testRepo.List(ctx, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}

	if tests == nil {
		tests = []model.Test{}
	}

	pagination := response.NewPagination(page, perPage, total)

	return tests, pagination, nil
}
