package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/marketloop/recommendations/internal/domain"
	"github.com/marketloop/recommendations/internal/repository"
	"github.com/marketloop/recommendations/pkg/database"
	apperrors "github.com/marketloop/recommendations/pkg/errors"
)

const recommendationColumns = `id, user_id, product_id, score, "timestamp", num_likes`

// RecommendationRepository implements repository.RecommendationRepository
// using PostgreSQL.
type RecommendationRepository struct {
	db database.DBTX
}

// NewRecommendationRepository creates a new PostgreSQL-backed repository.
func NewRecommendationRepository(db database.DBTX) *RecommendationRepository {
	return &RecommendationRepository{db: db}
}

// Create inserts a new recommendation and fills in its generated ID.
func (r *RecommendationRepository) Create(ctx context.Context, rec *domain.Recommendation) error {
	query := `
		INSERT INTO recommendations (user_id, product_id, score, "timestamp", num_likes)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		rec.UserID,
		rec.ProductID,
		rec.Score,
		rec.Timestamp,
		rec.NumLikes,
	).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("insert recommendation: %w", err)
	}

	return nil
}

// GetByID retrieves a recommendation by its ID.
func (r *RecommendationRepository) GetByID(ctx context.Context, id int64) (*domain.Recommendation, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM recommendations
		WHERE id = $1`, recommendationColumns)

	rec, err := r.scanRecommendation(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("recommendation", id)
		}
		return nil, fmt.Errorf("get recommendation %d: %w", id, err)
	}

	return rec, nil
}

// List returns recommendations matching the filter, newest first.
func (r *RecommendationRepository) List(ctx context.Context, filter repository.RecommendationFilter) ([]domain.Recommendation, error) {
	var (
		conditions []string
		args       []any
		argIndex   = 1
	)

	addCondition := func(expr string, value any) {
		conditions = append(conditions, fmt.Sprintf(expr, argIndex))
		args = append(args, value)
		argIndex++
	}

	if filter.UserID != nil {
		addCondition("user_id = $%d", *filter.UserID)
	}
	if filter.ProductID != nil {
		addCondition("product_id = $%d", *filter.ProductID)
	}
	if filter.Score != nil {
		addCondition("score = $%d", *filter.Score)
	}
	if filter.MinScore != nil {
		addCondition("score >= $%d", *filter.MinScore)
	}
	if filter.MaxScore != nil {
		addCondition("score <= $%d", *filter.MaxScore)
	}
	if filter.MinLikes != nil {
		addCondition("num_likes >= $%d", *filter.MinLikes)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM recommendations
		%s
		ORDER BY "timestamp" DESC, id DESC`,
		recommendationColumns, whereClause,
	)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recommendations: %w", err)
	}
	defer rows.Close()

	recs := []domain.Recommendation{}
	for rows.Next() {
		var rec domain.Recommendation
		if err := rows.Scan(
			&rec.ID,
			&rec.UserID,
			&rec.ProductID,
			&rec.Score,
			&rec.Timestamp,
			&rec.NumLikes,
		); err != nil {
			return nil, fmt.Errorf("scan recommendation row: %w", err)
		}
		recs = append(recs, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recommendation rows: %w", err)
	}

	return recs, nil
}

// Update replaces the fields of an existing recommendation.
func (r *RecommendationRepository) Update(ctx context.Context, rec *domain.Recommendation) error {
	query := `
		UPDATE recommendations
		SET user_id = $1, product_id = $2, score = $3, "timestamp" = $4, num_likes = $5
		WHERE id = $6`

	ct, err := r.db.Exec(ctx, query,
		rec.UserID,
		rec.ProductID,
		rec.Score,
		rec.Timestamp,
		rec.NumLikes,
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("update recommendation: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("recommendation", rec.ID)
	}

	return nil
}

// Delete removes a recommendation. Deleting an absent ID is not an error.
func (r *RecommendationRepository) Delete(ctx context.Context, id int64) error {
	query := `DELETE FROM recommendations WHERE id = $1`

	if _, err := r.db.Exec(ctx, query, id); err != nil {
		return fmt.Errorf("delete recommendation %d: %w", id, err)
	}

	return nil
}

// IncrementLikes atomically increments num_likes and returns the updated record.
func (r *RecommendationRepository) IncrementLikes(ctx context.Context, id int64) (*domain.Recommendation, error) {
	query := fmt.Sprintf(`
		UPDATE recommendations
		SET num_likes = num_likes + 1
		WHERE id = $1
		RETURNING %s`, recommendationColumns)

	rec, err := r.scanRecommendation(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("recommendation", id)
		}
		return nil, fmt.Errorf("increment likes for recommendation %d: %w", id, err)
	}

	return rec, nil
}

func (r *RecommendationRepository) scanRecommendation(row pgx.Row) (*domain.Recommendation, error) {
	var rec domain.Recommendation
	err := row.Scan(
		&rec.ID,
		&rec.UserID,
		&rec.ProductID,
		&rec.Score,
		&rec.Timestamp,
		&rec.NumLikes,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
