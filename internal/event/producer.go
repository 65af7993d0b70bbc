package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/marketloop/recommendations/internal/domain"
	pkgkafka "github.com/marketloop/recommendations/pkg/kafka"
)

// Kafka topic constants for recommendation domain events.
const (
	TopicRecommendationCreated = "marketloop.recommendation.created"
	TopicRecommendationUpdated = "marketloop.recommendation.updated"
	TopicRecommendationDeleted = "marketloop.recommendation.deleted"
	TopicRecommendationLiked   = "marketloop.recommendation.liked"
)

// Aggregate type constant.
const AggregateTypeRecommendation = "recommendation"

// Source identifier for events originating from this service.
const SourceRecommendationService = "recommendation-service"

// RecommendationData is the payload for created and updated events.
type RecommendationData struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	Score     float64   `json:"score"`
	Timestamp time.Time `json:"timestamp"`
	NumLikes  int       `json:"num_likes"`
}

// RecommendationDeletedData is the payload for a recommendation.deleted event.
type RecommendationDeletedData struct {
	ID int64 `json:"id"`
}

// RecommendationLikedData is the payload for a recommendation.liked event.
type RecommendationLikedData struct {
	ID       int64 `json:"id"`
	NumLikes int   `json:"num_likes"`
}

// Producer publishes recommendation domain events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a new event producer for the recommendation service.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

func recommendationData(rec *domain.Recommendation) RecommendationData {
	return RecommendationData{
		ID:        rec.ID,
		UserID:    rec.UserID,
		ProductID: rec.ProductID,
		Score:     rec.Score,
		Timestamp: rec.Timestamp,
		NumLikes:  rec.NumLikes,
	}
}

// PublishRecommendationCreated publishes a recommendation.created event.
func (p *Producer) PublishRecommendationCreated(ctx context.Context, rec *domain.Recommendation) error {
	return p.publish(ctx, TopicRecommendationCreated, rec.ID, recommendationData(rec))
}

// PublishRecommendationUpdated publishes a recommendation.updated event.
func (p *Producer) PublishRecommendationUpdated(ctx context.Context, rec *domain.Recommendation) error {
	return p.publish(ctx, TopicRecommendationUpdated, rec.ID, recommendationData(rec))
}

// PublishRecommendationDeleted publishes a recommendation.deleted event.
func (p *Producer) PublishRecommendationDeleted(ctx context.Context, id int64) error {
	return p.publish(ctx, TopicRecommendationDeleted, id, RecommendationDeletedData{ID: id})
}

// PublishRecommendationLiked publishes a recommendation.liked event.
func (p *Producer) PublishRecommendationLiked(ctx context.Context, rec *domain.Recommendation) error {
	return p.publish(ctx, TopicRecommendationLiked, rec.ID, RecommendationLikedData{
		ID:       rec.ID,
		NumLikes: rec.NumLikes,
	})
}

func (p *Producer) publish(ctx context.Context, topic string, id int64, data any) error {
	aggregateID := strconv.FormatInt(id, 10)

	event, err := pkgkafka.NewEvent(topic, aggregateID, AggregateTypeRecommendation, SourceRecommendationService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("topic", topic),
		slog.String("aggregate_id", aggregateID),
	)

	return nil
}
