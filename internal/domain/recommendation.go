package domain

import (
	"time"
)

// Score bounds for a recommendation.
const (
	MinScore = 0.0
	MaxScore = 5.0
)

// Recommendation links a user to a suggested product with a relevance score.
type Recommendation struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`
	NumLikes  int       `json:"num_likes"`
}

// IsValidScore reports whether the score falls within the allowed range.
func IsValidScore(score float64) bool {
	return score >= MinScore && score <= MaxScore
}
