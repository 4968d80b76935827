package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/quickcommerce/internal/model"
)

// ReviewServiceInterface はレビューハンドラーが必要とするサービスインターフェース。
type ReviewServiceInterface interface {
	AddReview(ctx context.Context, userID, productID int64, rating int, text string) (*model.Review, error)
	UpdateReview(ctx context.Context, userID, reviewID int64, rating int, text string) (*model.Review, error)
	DeleteReview(ctx context.Context, userID, reviewID int64) error
	Get(ctx context.Context, reviewID int64) (*model.Review, error)
	ListByProduct(ctx context.Context, productID int64) ([]*model.Review, error)
	ListAll(ctx context.Context) ([]*model.Review, error)
}

// ReviewHandler は商品レビューのHTTPハンドラー。
type ReviewHandler struct {
	service ReviewServiceInterface
}

// NewReviewHandler はReviewHandlerを生成する。
func NewReviewHandler(service ReviewServiceInterface) *ReviewHandler {
	return &ReviewHandler{service: service}
}

type createReviewRequest struct {
	ProductID int64  `json:"product_id"`
	Rating    int    `json:"rating"`
	Text      string `json:"text"`
}

type updateReviewRequest struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

// List は全レビューを返す。
// GET /api/reviews
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.service.ListAll(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toReviewResponses(reviews))
}

// Get は指定レビューを返す。
// GET /api/reviews/{id}
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	review, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toReviewResponse(review))
}

// ListByProduct は商品に付いたレビューを返す。
// GET /api/products/{id}/reviews
func (h *ReviewHandler) ListByProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	reviews, err := h.service.ListByProduct(r.Context(), productID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toReviewResponses(reviews))
}

// Create はレビューを投稿する。同じ商品への2件目は409を返す。
// POST /api/reviews
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	review, err := h.service.AddReview(r.Context(), userID, req.ProductID, req.Rating, req.Text)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toReviewResponse(review))
}

// Update は自分のレビューを更新する。
// PUT /api/reviews/{id}
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	var req updateReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	review, err := h.service.UpdateReview(r.Context(), userID, id, req.Rating, req.Text)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toReviewResponse(review))
}

// Delete は自分のレビューを削除する。
// DELETE /api/reviews/{id}
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteReview(r.Context(), userID, id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
