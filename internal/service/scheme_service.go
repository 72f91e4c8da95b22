package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/omrgrade/omr-backend/internal/config"
	"github.com/omrgrade/omr-backend/internal/grading"
	"github.com/omrgrade/omr-backend/internal/model"
	"github.com/omrgrade/omr-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// ErrInvalidScheme wraps grading scheme construction failures.
var ErrInvalidScheme = errors.New("invalid grading scheme")

// SchemeService manages stored grading schemes and the configured default.
type SchemeService struct {
	schemeRepo *repository.SchemeRepository
	rdb        *redis.Client
	defaults   grading.Scheme
	log        zerolog.Logger
}

// NewSchemeService creates a new SchemeService. defaults is the policy used
// whenever a caller does not pick a stored scheme.
func NewSchemeService(schemeRepo *repository.SchemeRepository, rdb *redis.Client, defaults grading.Scheme, log zerolog.Logger) *SchemeService {
	return &SchemeService{
		schemeRepo: schemeRepo,
		rdb:        rdb,
		defaults:   defaults,
		log:        log.With().Str("component", "scheme_service").Logger(),
	}
}

// Default returns the configured default scheme.
func (s *SchemeService) Default() grading.Scheme {
	return s.defaults
}

// Create validates and stores a scheme.
func (s *SchemeService) Create(ctx context.Context, req *model.CreateSchemeRequest) (*model.Scheme, error) {
	g, err := req.SchemeValues.ToGrading()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScheme, err)
	}

	scheme := model.SchemeFromGrading(req.Name, g)
	if err := s.schemeRepo.Create(ctx, scheme); err != nil {
		return nil, err
	}
	if err := setCached(ctx, s.rdb, config.CacheKey.SchemeKey(scheme.ID.String()), scheme); err != nil {
		s.log.Warn().Err(err).Str("scheme_id", scheme.ID.String()).Msg("failed to cache scheme")
	}
	return scheme, nil
}

// GetByID returns a stored scheme, reading through the Redis cache.
func (s *SchemeService) GetByID(ctx context.Context, id uuid.UUID) (*model.Scheme, error) {
	key := config.CacheKey.SchemeKey(id.String())

	var cached model.Scheme
	ok, err := getCached(ctx, s.rdb, key, &cached)
	if err != nil {
		s.log.Warn().Err(err).Str("scheme_id", id.String()).Msg("scheme cache read failed")
	}
	if ok {
		return &cached, nil
	}

	scheme, err := s.schemeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := setCached(ctx, s.rdb, key, scheme); err != nil {
		s.log.Warn().Err(err).Str("scheme_id", id.String()).Msg("failed to cache scheme")
	}
	return scheme, nil
}

// List returns every stored scheme.
func (s *SchemeService) List(ctx context.Context) ([]model.Scheme, error) {
	return s.schemeRepo.List(ctx)
}

// Delete removes a scheme and its cache entry.
func (s *SchemeService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.schemeRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.rdb.Del(ctx, config.CacheKey.SchemeKey(id.String()))
	return nil
}

// Resolve turns an optional scheme ID into the engine value to grade with.
// An empty ID selects the default scheme and returns a nil stored ID.
func (s *SchemeService) Resolve(ctx context.Context, schemeID string) (grading.Scheme, *uuid.UUID, error) {
	if schemeID == "" {
		return s.defaults, nil, nil
	}

	id, err := uuid.Parse(schemeID)
	if err != nil {
		return grading.Scheme{}, nil, fmt.Errorf("%w: parse scheme id: %w", ErrInvalidScheme, err)
	}

	stored, err := s.GetByID(ctx, id)
	if err != nil {
		return grading.Scheme{}, nil, err
	}

	g, err := stored.ToGrading()
	if err != nil {
		return grading.Scheme{}, nil, fmt.Errorf("%w: %v", ErrInvalidScheme, err)
	}
	return g, &stored.ID, nil
}

// PrewarmCache loads every stored scheme into Redis on startup.
func (s *SchemeService) PrewarmCache(ctx context.Context) error {
	schemes, err := s.schemeRepo.List(ctx)
	if err != nil {
		return fmt.Errorf("list schemes: %w", err)
	}
	if len(schemes) == 0 {
		s.log.Info().Msg("No stored schemes to prewarm")
		return nil
	}

	pipe := s.rdb.Pipeline()
	for i := range schemes {
		data, err := json.Marshal(&schemes[i])
		if err != nil {
			return fmt.Errorf("marshal scheme: %w", err)
		}
		pipe.Set(ctx, config.CacheKey.SchemeKey(schemes[i].ID.String()), data, cacheTTL)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Info().Int("count", len(schemes)).Msg("Scheme cache warmed")
	return nil
}
