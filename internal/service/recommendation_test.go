package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/marketloop/recommendations/internal/domain"
	"github.com/marketloop/recommendations/internal/event"
	"github.com/marketloop/recommendations/internal/repository"
	apperrors "github.com/marketloop/recommendations/pkg/errors"
	pkgkafka "github.com/marketloop/recommendations/pkg/kafka"
)

// --- Mock Repository ---

type mockRecommendationRepository struct {
	mock.Mock
}

func (m *mockRecommendationRepository) Create(ctx context.Context, rec *domain.Recommendation) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *mockRecommendationRepository) GetByID(ctx context.Context, id int64) (*domain.Recommendation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Recommendation), args.Error(1)
}

func (m *mockRecommendationRepository) List(ctx context.Context, filter repository.RecommendationFilter) ([]domain.Recommendation, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Recommendation), args.Error(1)
}

func (m *mockRecommendationRepository) Update(ctx context.Context, rec *domain.Recommendation) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *mockRecommendationRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRecommendationRepository) IncrementLikes(ctx context.Context, id int64) (*domain.Recommendation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Recommendation), args.Error(1)
}

// --- Test Helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService(repo *mockRecommendationRepository) *RecommendationService {
	logger := newTestLogger()
	// Kafka producer that fails silently in tests (no real broker).
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	kafkaProducer := pkgkafka.NewProducer(kafkaCfg, logger)
	producer := event.NewProducer(kafkaProducer, logger)
	return NewRecommendationService(repo, producer, logger)
}

func int64Ptr(i int64) *int64 {
	return &i
}

func float64Ptr(f float64) *float64 {
	return &f
}

func intPtr(i int) *int {
	return &i
}

func validInput() *RecommendationInput {
	return &RecommendationInput{
		UserID:    10,
		ProductID: 20,
		Score:     4.5,
		Timestamp: time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC),
		NumLikes:  0,
	}
}

// --- CreateRecommendation ---

func TestCreateRecommendation_Success(t *testing.T) {
	repo := new(mockRecommendationRepository)
	svc := newTestService(repo)

	input := validInput()

	repo.On("Create", mock.Anything, mock.MatchedBy(func(rec *domain.Recommendation) bool {
		return rec.UserID == 10 && rec.ProductID == 20 && rec.Score == 4.5
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Recommendation).ID = 1
	}).Return(nil)

	rec, err := svc.CreateRecommendation(context.Background(), input)
	require.NoError(t, err)
	require.NotNil(t, rec)

	assert.Equal(t, int64(1), rec.ID)
	assert.Equal(t, input.Timestamp, rec.Timestamp)
	assert.Equal(t, 0, rec.NumLikes)
	repo.AssertExpectations(t)
}

func TestCreateRecommendation_DefaultsTimestamp(t *testing.T) {
	repo := new(mockRecommendationRepository)
	svc := newTestService(repo)

	input := validInput()
	input.Timestamp = time.Time{}

	repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	rec, err := svc.CreateRecommendation(context.Background(), input)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), rec.Timestamp, 2*time.Second)
	repo.AssertExpectations(t)
}

func TestCreateRecommendation_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RecommendationInput)
	}{
		{"missing user_id", func(in *RecommendationInput) { in.UserID = 0 }},
		{"negative user_id", func(in *RecommendationInput) { in.UserID = -1 }},
		{"missing product_id", func(in *RecommendationInput) { in.ProductID = 0 }},
		{"score below range", func(in *RecommendationInput) { in.Score = -0.5 }},
		{"score above range", func(in *RecommendationInput) { in.Score = 5.5 }},
		{"negative num_likes", func(in *RecommendationInput) { in.NumLikes = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockRecommendationRepository)
			svc := newTestService(repo)

			input := validInput()
			tt.mutate(input)

			rec, err := svc.CreateRecommendation(context.Background(), input)
			assert.Nil(t, rec)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			repo.AssertNotCalled(t, "Create")
		})
	}
}

func TestCreateRecommendation_RepoError(t *testing.T) {
	repo := new(mockRecommendationRepository)
	svc := newTestService(repo)

	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	rec, err := svc.CreateRecommendation(context.Background(), validInput())
	assert.Nil(t, rec)
	assert.Error(t, err)
	repo.AssertExpectations(t)
}

// --- GetRecommendation ---

func TestGetRecommendation_Success(t *testing.T) {
	repo := new(mockRecommendationRepository)
	svc := newTestService(repo)

	expected := &domain.Recommendation{ID: 1, UserID: 10, ProductID: 20, Score: 4.5}
	repo.On("GetByID", mock.Anything, int64(1)).Return(expected, nil)

	rec, err := svc.GetRecommendation(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, expected, rec)
	repo.AssertExpectations(t)
}

func TestGetRecommendation_NotFound(t *testing.T) {
	repo := new(mockRecommendationRepository)
	svc := newTestService(repo)

	repo.On("GetByID", mock.Anything, int64(999)).Return(nil, apperrors.NotFound("recommendation", 999))

	rec, err := svc.GetRecommendation(context.Background(), 999)
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	repo.AssertExpectations(t)
}

// --- ListRecommendations ---

func TestListRecommendations_Success(t *testing.T) {
	repo := new(mockRecommendationRepository)
	svc := newTestService(repo)

	expected := []domain.Recommendation{{ID: 1}, {ID: 2}}
	repo.On("List", mock.Anything, repository.RecommendationFilter{}).Return(expected, nil)

	recs, err := svc.ListRecommendations(context.Background(), repository.RecommendationFilter{})
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	repo.AssertExpectations(t)
}

func TestListRecommendations_FilterPassedThrough(t *testing.T) {
	repo := new(mockRecommendationRepository)
	svc := newTestService(repo)

	filter := repository.RecommendationFilter{
		UserID:    int64Ptr(10),
		ProductID: int64Ptr(20),
	}
	repo.On("List", mock.Anything, filter).Return([]domain.Recommendation{{ID: 1}}, nil)

	recs, err := svc.ListRecommendations(context.Background(), filter)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
	repo.AssertExpectations(t)
}

func TestListRecommendations_InvalidFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter repository.RecommendationFilter
	}{
		{"non-positive user_id", repository.RecommendationFilter{UserID: int64Ptr(0)}},
		{"non-positive product_id", repository.RecommendationFilter{ProductID: int64Ptr(-5)}},
		{"score out of range", repository.RecommendationFilter{Score: float64Ptr(6)}},
		{"min_score out of range", repository.RecommendationFilter{MinScore: float64Ptr(-1)}},
		{"max_score out of range", repository.RecommendationFilter{MaxScore: float64Ptr(5.1)}},
		{"negative min_likes", repository.RecommendationFilter{MinLikes: intPtr(-1)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockRecommendationRepository)
			svc := newTestService(repo)

			recs, err := svc.ListRecommendations(context.Background(), tt.filter)
			assert.Nil(t, recs)
			assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
			repo.AssertNotCalled(t, "List")
		})
	}
}

// --- UpdateRecommendation ---

func TestUpdateRecommendation_Success(t *testing.T) {
	repo := new(mockRecommendationRepository)
	svc := newTestService(repo)

	input := validInput()
	input.Score = 2.5
	input.NumLikes = 7

	repo.On("Update", mock.Anything, mock.MatchedBy(func(rec *domain.Recommendation) bool {
		return rec.ID == 1 && rec.Score == 2.5 && rec.NumLikes == 7
	})).Return(nil)

	rec, err := svc.UpdateRecommendation(context.Background(), 1, input)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rec.ID)
	assert.Equal(t, 2.5, rec.Score)
	repo.AssertExpectations(t)
}

func TestUpdateRecommendation_NotFound(t *testing.T) {
	repo := new(mockRecommendationRepository)
	svc := newTestService(repo)

	repo.On("Update", mock.Anything, mock.Anything).Return(apperrors.NotFound("recommendation", 999))

	rec, err := svc.UpdateRecommendation(context.Background(), 999, validInput())
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	repo.AssertExpectations(t)
}

func TestUpdateRecommendation_InvalidInput(t *testing.T) {
	repo := new(mockRecommendationRepository)
	svc := newTestService(repo)

	input := validInput()
	input.Score = 10

	rec, err := svc.UpdateRecommendation(context.Background(), 1, input)
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	repo.AssertNotCalled(t, "Update")
}

// --- DeleteRecommendation ---

func TestDeleteRecommendation_Success(t *testing.T) {
	repo := new(mockRecommendationRepository)
	svc := newTestService(repo)

	repo.On("Delete", mock.Anything, int64(1)).Return(nil)

	err := svc.DeleteRecommendation(context.Background(), 1)
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestDeleteRecommendation_AbsentID(t *testing.T) {
	repo := new(mockRecommendationRepository)
	svc := newTestService(repo)

	// The repository treats absent IDs as a no-op; the service propagates that.
	repo.On("Delete", mock.Anything, int64(999)).Return(nil)

	err := svc.DeleteRecommendation(context.Background(), 999)
	assert.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestDeleteRecommendation_RepoError(t *testing.T) {
	repo := new(mockRecommendationRepository)
	svc := newTestService(repo)

	repo.On("Delete", mock.Anything, int64(1)).Return(errors.New("connection refused"))

	err := svc.DeleteRecommendation(context.Background(), 1)
	assert.Error(t, err)
	repo.AssertExpectations(t)
}

// --- LikeRecommendation ---

func TestLikeRecommendation_Success(t *testing.T) {
	repo := new(mockRecommendationRepository)
	svc := newTestService(repo)

	liked := &domain.Recommendation{ID: 1, UserID: 10, ProductID: 20, Score: 4.5, NumLikes: 4}
	repo.On("IncrementLikes", mock.Anything, int64(1)).Return(liked, nil)

	rec, err := svc.LikeRecommendation(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 4, rec.NumLikes)
	repo.AssertExpectations(t)
}

func TestLikeRecommendation_NotFound(t *testing.T) {
	repo := new(mockRecommendationRepository)
	svc := newTestService(repo)

	repo.On("IncrementLikes", mock.Anything, int64(999)).Return(nil, apperrors.NotFound("recommendation", 999))

	rec, err := svc.LikeRecommendation(context.Background(), 999)
	assert.Nil(t, rec)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	repo.AssertExpectations(t)
}

// --- GetLikes ---

func TestGetLikes_Success(t *testing.T) {
	repo := new(mockRecommendationRepository)
	svc := newTestService(repo)

	repo.On("GetByID", mock.Anything, int64(1)).Return(&domain.Recommendation{ID: 1, NumLikes: 3}, nil)

	likes, err := svc.GetLikes(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, likes)
	repo.AssertExpectations(t)
}

func TestGetLikes_NotFound(t *testing.T) {
	repo := new(mockRecommendationRepository)
	svc := newTestService(repo)

	repo.On("GetByID", mock.Anything, int64(999)).Return(nil, apperrors.NotFound("recommendation", 999))

	likes, err := svc.GetLikes(context.Background(), 999)
	assert.Zero(t, likes)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	repo.AssertExpectations(t)
}
