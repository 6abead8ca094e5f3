package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/cardoctor/internal/metrics"
	"github.com/hitoshi/cardoctor/internal/middleware"
	"github.com/hitoshi/cardoctor/internal/model"
	"github.com/hitoshi/cardoctor/internal/repository"
)

// OrderAuthorizer は注文一覧の参照可否を判定するインターフェース。
// policy.OrderAccessPolicyが実装する。
type OrderAuthorizer interface {
	Authorize(claim model.IdentityClaim, filter string, present bool) (model.OrderFilter, error)
}

// OrderHandler は注文管理のHTTPハンドラー。
type OrderHandler struct {
	orders     repository.OrderRepository
	authorizer OrderAuthorizer
	recorder   metrics.Recorder
}

// NewOrderHandler はOrderHandlerを生成する。
func NewOrderHandler(orders repository.OrderRepository, authorizer OrderAuthorizer, recorder metrics.Recorder) *OrderHandler {
	return &OrderHandler{
		orders:     orders,
		authorizer: authorizer,
		recorder:   recorder,
	}
}

// updateStatusRequest は注文ステータス更新リクエストのボディ。
type updateStatusRequest struct {
	Status *string `json:"status"`
}

// CreateOrder はリクエストボディの注文ドキュメントをそのまま保存する。
// POST /service/order
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var order model.Order
	if err := decodeJSONBody(w, r, &order); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	result, err := h.orders.Create(r.Context(), &order)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ListOrders はトークンのemailで認可した注文一覧を返す。
// GET /service/orders?email=xxx
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	claim, ok := middleware.ClaimFromContext(r.Context())
	if !ok {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingCredentialError())
		return
	}

	values, present := r.URL.Query()["email"]
	var email string
	if present {
		email = values[0]
	}

	filter, err := h.authorizer.Authorize(*claim, email, present)
	if err != nil {
		h.recorder.RecordAuthOutcome(metrics.AuthDenied)
		handleServiceError(w, r, err)
		return
	}
	h.recorder.RecordAuthOutcome(metrics.AuthAllowed)

	orders, err := h.orders.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if orders == nil {
		orders = []*model.Order{}
	}

	writeJSON(w, http.StatusOK, orders)
}

// UpdateOrderStatus は注文のstatusを更新する。
// PATCH /service/orders/{id}
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := decodeJSONBody(w, r, &req); err != nil || req.Status == nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
		return
	}

	result, err := h.orders.UpdateStatus(r.Context(), chi.URLParam(r, "id"), model.OrderStatus(*req.Status))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// DeleteOrder は注文を削除する。
// DELETE /service/orders/{id}
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	result, err := h.orders.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
