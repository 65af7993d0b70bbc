package repository

import (
	"context"

	"github.com/marketloop/recommendations/internal/domain"
)

// RecommendationFilter defines filter criteria for listing recommendations.
// Nil fields are not applied; set fields are combined with AND.
type RecommendationFilter struct {
	UserID    *int64
	ProductID *int64
	Score     *float64
	MinScore  *float64
	MaxScore  *float64
	MinLikes  *int
}

// RecommendationRepository defines the interface for recommendation persistence.
type RecommendationRepository interface {
	// Create inserts a new recommendation and assigns its generated ID.
	Create(ctx context.Context, rec *domain.Recommendation) error

	// GetByID retrieves a recommendation by its unique identifier.
	GetByID(ctx context.Context, id int64) (*domain.Recommendation, error)

	// List returns recommendations matching the given filter, newest first.
	List(ctx context.Context, filter RecommendationFilter) ([]domain.Recommendation, error)

	// Update replaces an existing recommendation's fields.
	Update(ctx context.Context, rec *domain.Recommendation) error

	// Delete removes a recommendation. Deleting an absent ID is not an error.
	Delete(ctx context.Context, id int64) error

	// IncrementLikes atomically bumps num_likes and returns the updated record.
	IncrementLikes(ctx context.Context, id int64) (*domain.Recommendation, error)
}
