package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/quickcommerce/internal/address"
	"github.com/hitoshi/quickcommerce/internal/model"
)

// AddressServiceInterface は住所ハンドラーが必要とするサービスインターフェース。
type AddressServiceInterface interface {
	AddForUser(ctx context.Context, userID int64, in address.Input) (*model.Address, error)
	UpdateForUser(ctx context.Context, userID int64, in address.Input) (*model.Address, error)
	GetForUser(ctx context.Context, userID int64) (*model.Address, error)
	Get(ctx context.Context, userID, id int64) (*model.Address, error)
	Delete(ctx context.Context, userID, id int64) error
}

// AddressHandler は配送先住所のHTTPハンドラー。
type AddressHandler struct {
	service AddressServiceInterface
}

// NewAddressHandler はAddressHandlerを生成する。
func NewAddressHandler(service AddressServiceInterface) *AddressHandler {
	return &AddressHandler{service: service}
}

type addressRequest struct {
	House    string `json:"house"`
	Street   string `json:"street"`
	Landmark string `json:"landmark"`
	City     string `json:"city"`
	State    string `json:"state"`
	Pincode  string `json:"pincode"`
	Phone    string `json:"phone"`
}

func (req addressRequest) toInput() address.Input {
	return address.Input{
		House:    req.House,
		Street:   req.Street,
		Landmark: req.Landmark,
		City:     req.City,
		State:    req.State,
		Pincode:  req.Pincode,
		Phone:    req.Phone,
	}
}

// Create はログイン中のユーザーの住所を登録する。
// POST /api/addresses
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req addressRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	addr, err := h.service.AddForUser(r.Context(), userID, req.toInput())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAddressResponse(addr))
}

// Mine はログイン中のユーザーの住所を返す。
// GET /api/addresses/me
func (h *AddressHandler) Mine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	addr, err := h.service.GetForUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAddressResponse(addr))
}

// UpdateMine はログイン中のユーザーの住所を更新する。
// PUT /api/addresses/me
func (h *AddressHandler) UpdateMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req addressRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	addr, err := h.service.UpdateForUser(r.Context(), userID, req.toInput())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAddressResponse(addr))
}

// Get は指定IDの住所を返す。他人の住所は存在しないものとして扱う。
// GET /api/addresses/{id}
func (h *AddressHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	addr, err := h.service.Get(r.Context(), userID, id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toAddressResponse(addr))
}

// Delete は指定IDの住所を削除する。
// DELETE /api/addresses/{id}
func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
