package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marketloop/recommendations/internal/repository"
	"github.com/marketloop/recommendations/internal/service"
	apperrors "github.com/marketloop/recommendations/pkg/errors"
	"github.com/marketloop/recommendations/pkg/httputil"
	"github.com/marketloop/recommendations/pkg/validator"
)

// RecommendationHandler handles HTTP requests for recommendation endpoints.
type RecommendationHandler struct {
	service *service.RecommendationService
	logger  *slog.Logger
}

// NewRecommendationHandler creates a new recommendation HTTP handler.
func NewRecommendationHandler(svc *service.RecommendationService, logger *slog.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		service: svc,
		logger:  logger,
	}
}

// --- Request DTOs ---

// RecommendationRequest is the JSON request body for creating or replacing a
// recommendation. Score is a pointer so an explicit 0 passes "required".
type RecommendationRequest struct {
	UserID    int64    `json:"user_id" validate:"required,gt=0"`
	ProductID int64    `json:"product_id" validate:"required,gt=0"`
	Score     *float64 `json:"score" validate:"required,gte=0,lte=5"`
	Timestamp string   `json:"timestamp"`
	NumLikes  *int     `json:"num_likes" validate:"omitempty,gte=0"`
}

// LikesResponse is the JSON body for the likes count endpoint.
type LikesResponse struct {
	ID    int64 `json:"id"`
	Likes int   `json:"likes"`
}

// --- Handlers ---

// Create handles POST /recommendations
func (h *RecommendationHandler) Create(w http.ResponseWriter, r *http.Request) {
	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	rec, err := h.service.CreateRecommendation(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/recommendations/%d", rec.ID))
	httputil.WriteJSON(w, http.StatusCreated, rec)
}

// Get handles GET /recommendations/{id}
func (h *RecommendationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	rec, err := h.service.GetRecommendation(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, rec)
}

// List handles GET /recommendations with optional user_id and product_id
// exact-match filters.
func (h *RecommendationHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter repository.RecommendationFilter

	if v := r.URL.Query().Get("user_id"); v != "" {
		userID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("user_id must be an integer"), h.logger)
			return
		}
		filter.UserID = &userID
	}
	if v := r.URL.Query().Get("product_id"); v != "" {
		productID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("product_id must be an integer"), h.logger)
			return
		}
		filter.ProductID = &productID
	}

	recs, err := h.service.ListRecommendations(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, recs)
}

// Filter handles GET /recommendations/filter with exact-match and range
// parameters.
func (h *RecommendationHandler) Filter(w http.ResponseWriter, r *http.Request) {
	var filter repository.RecommendationFilter
	q := r.URL.Query()

	if v := q.Get("user_id"); v != "" {
		userID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("user_id must be an integer"), h.logger)
			return
		}
		filter.UserID = &userID
	}
	if v := q.Get("product_id"); v != "" {
		productID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("product_id must be an integer"), h.logger)
			return
		}
		filter.ProductID = &productID
	}

	for name, target := range map[string]**float64{
		"score":     &filter.Score,
		"min_score": &filter.MinScore,
		"max_score": &filter.MaxScore,
	} {
		if v := q.Get(name); v != "" {
			score, err := strconv.ParseFloat(v, 64)
			if err != nil {
				httputil.WriteError(w, r, apperrors.InvalidInput(name+" must be a number"), h.logger)
				return
			}
			*target = &score
		}
	}

	if v := q.Get("min_likes"); v != "" {
		minLikes, err := strconv.Atoi(v)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("min_likes must be an integer"), h.logger)
			return
		}
		filter.MinLikes = &minLikes
	}

	recs, err := h.service.ListRecommendations(r.Context(), filter)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, recs)
}

// Update handles PUT /recommendations/{id} as a full replacement.
func (h *RecommendationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	input, ok := h.decodeInput(w, r)
	if !ok {
		return
	}

	rec, err := h.service.UpdateRecommendation(r.Context(), id, input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, rec)
}

// Delete handles DELETE /recommendations/{id}. Always responds 204, whether
// the record existed or not.
func (h *RecommendationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteRecommendation(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusNoContent, nil)
}

// Like handles POST /recommendations/{id}/likes
func (h *RecommendationHandler) Like(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	rec, err := h.service.LikeRecommendation(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, rec)
}

// GetLikes handles GET /recommendations/{id}/likes
func (h *RecommendationHandler) GetLikes(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	likes, err := h.service.GetLikes(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, LikesResponse{ID: id, Likes: likes})
}

// --- Helpers ---

func (h *RecommendationHandler) parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput(fmt.Sprintf("invalid ID format: %q", raw)), h.logger)
		return 0, false
	}
	return id, true
}

func (h *RecommendationHandler) decodeInput(w http.ResponseWriter, r *http.Request) (*service.RecommendationInput, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1 MB limit
	var req RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid request body: "+err.Error()), h.logger)
		return nil, false
	}

	if err := validator.Validate(req); err != nil {
		httputil.WriteValidationError(w, err)
		return nil, false
	}

	input := &service.RecommendationInput{
		UserID:    req.UserID,
		ProductID: req.ProductID,
		Score:     *req.Score,
	}

	if req.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("timestamp must be in RFC3339 format"), h.logger)
			return nil, false
		}
		input.Timestamp = ts
	}

	if req.NumLikes != nil {
		input.NumLikes = *req.NumLikes
	}

	return input, true
}
