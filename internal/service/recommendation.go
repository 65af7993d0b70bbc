package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/marketloop/recommendations/internal/domain"
	"github.com/marketloop/recommendations/internal/event"
	"github.com/marketloop/recommendations/internal/repository"
	apperrors "github.com/marketloop/recommendations/pkg/errors"
)

// RecommendationService implements the business logic for recommendation
// operations.
type RecommendationService struct {
	repo     repository.RecommendationRepository
	producer *event.Producer
	logger   *slog.Logger
}

// NewRecommendationService creates a new recommendation service.
func NewRecommendationService(repo repository.RecommendationRepository, producer *event.Producer, logger *slog.Logger) *RecommendationService {
	return &RecommendationService{
		repo:     repo,
		producer: producer,
		logger:   logger,
	}
}

// RecommendationInput holds the writable fields of a recommendation. It is
// used both for creation and for full replacement on update.
type RecommendationInput struct {
	UserID    int64
	ProductID int64
	Score     float64
	Timestamp time.Time // zero value means "now"
	NumLikes  int
}

func (s *RecommendationService) validateInput(input *RecommendationInput) error {
	if input.UserID <= 0 {
		return apperrors.InvalidInput("user_id must be a positive integer")
	}
	if input.ProductID <= 0 {
		return apperrors.InvalidInput("product_id must be a positive integer")
	}
	if !domain.IsValidScore(input.Score) {
		return apperrors.InvalidInput(fmt.Sprintf("score must be between %g and %g", domain.MinScore, domain.MaxScore))
	}
	if input.NumLikes < 0 {
		return apperrors.InvalidInput("num_likes must not be negative")
	}
	return nil
}

// CreateRecommendation creates a new recommendation. A zero timestamp is
// defaulted to the current time.
func (s *RecommendationService) CreateRecommendation(ctx context.Context, input *RecommendationInput) (*domain.Recommendation, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	timestamp := input.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	rec := &domain.Recommendation{
		UserID:    input.UserID,
		ProductID: input.ProductID,
		Score:     input.Score,
		Timestamp: timestamp,
		NumLikes:  input.NumLikes,
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create recommendation: %w", err)
	}

	if err := s.producer.PublishRecommendationCreated(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish recommendation.created event",
			slog.Int64("recommendation_id", rec.ID),
			slog.String("error", err.Error()),
		)
		// Do not fail the operation if event publishing fails.
	}

	s.logger.InfoContext(ctx, "recommendation created",
		slog.Int64("recommendation_id", rec.ID),
		slog.Int64("user_id", rec.UserID),
		slog.Int64("product_id", rec.ProductID),
	)

	return rec, nil
}

// GetRecommendation retrieves a recommendation by its ID.
func (s *RecommendationService) GetRecommendation(ctx context.Context, id int64) (*domain.Recommendation, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get recommendation by id: %w", err)
	}
	return rec, nil
}

// ListRecommendations returns recommendations matching the filter.
func (s *RecommendationService) ListRecommendations(ctx context.Context, filter repository.RecommendationFilter) ([]domain.Recommendation, error) {
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	recs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}

	return recs, nil
}

// UpdateRecommendation replaces all writable fields of an existing
// recommendation.
func (s *RecommendationService) UpdateRecommendation(ctx context.Context, id int64, input *RecommendationInput) (*domain.Recommendation, error) {
	if err := s.validateInput(input); err != nil {
		return nil, err
	}

	timestamp := input.Timestamp
	if timestamp.IsZero() {
		timestamp = time.Now().UTC()
	}

	rec := &domain.Recommendation{
		ID:        id,
		UserID:    input.UserID,
		ProductID: input.ProductID,
		Score:     input.Score,
		Timestamp: timestamp,
		NumLikes:  input.NumLikes,
	}

	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, fmt.Errorf("update recommendation: %w", err)
	}

	if err := s.producer.PublishRecommendationUpdated(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish recommendation.updated event",
			slog.Int64("recommendation_id", rec.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "recommendation updated",
		slog.Int64("recommendation_id", rec.ID),
	)

	return rec, nil
}

// DeleteRecommendation removes a recommendation. Deleting an ID that does not
// exist is not an error, so repeated deletes are safe.
func (s *RecommendationService) DeleteRecommendation(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete recommendation: %w", err)
	}

	if err := s.producer.PublishRecommendationDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish recommendation.deleted event",
			slog.Int64("recommendation_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "recommendation deleted",
		slog.Int64("recommendation_id", id),
	)

	return nil
}

// LikeRecommendation atomically increments the like counter and returns the
// updated record.
func (s *RecommendationService) LikeRecommendation(ctx context.Context, id int64) (*domain.Recommendation, error) {
	rec, err := s.repo.IncrementLikes(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("like recommendation: %w", err)
	}

	if err := s.producer.PublishRecommendationLiked(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish recommendation.liked event",
			slog.Int64("recommendation_id", rec.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "recommendation liked",
		slog.Int64("recommendation_id", rec.ID),
		slog.Int("num_likes", rec.NumLikes),
	)

	return rec, nil
}

// GetLikes returns the like count of a recommendation.
func (s *RecommendationService) GetLikes(ctx context.Context, id int64) (int, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("get likes for recommendation: %w", err)
	}
	return rec.NumLikes, nil
}

func validateFilter(filter repository.RecommendationFilter) error {
	if filter.UserID != nil && *filter.UserID <= 0 {
		return apperrors.InvalidInput("user_id must be a positive integer")
	}
	if filter.ProductID != nil && *filter.ProductID <= 0 {
		return apperrors.InvalidInput("product_id must be a positive integer")
	}
	for name, score := range map[string]*float64{
		"score":     filter.Score,
		"min_score": filter.MinScore,
		"max_score": filter.MaxScore,
	} {
		if score != nil && !domain.IsValidScore(*score) {
			return apperrors.InvalidInput(fmt.Sprintf("%s must be between %g and %g", name, domain.MinScore, domain.MaxScore))
		}
	}
	if filter.MinLikes != nil && *filter.MinLikes < 0 {
		return apperrors.InvalidInput("min_likes must not be negative")
	}
	return nil
}
