package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/cardoctor/internal/middleware"
	"github.com/hitoshi/cardoctor/internal/model"
	"github.com/hitoshi/cardoctor/internal/repository"
)

// ServiceHandler は整備サービスカタログのHTTPハンドラー。
type ServiceHandler struct {
	services repository.ServiceRepository
}

// NewServiceHandler はServiceHandlerを生成する。
func NewServiceHandler(services repository.ServiceRepository) *ServiceHandler {
	return &ServiceHandler{services: services}
}

// ListServices は全サービスを返す。
// GET /services
func (h *ServiceHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.services.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if services == nil {
		services = []*model.Service{}
	}
	writeJSON(w, http.StatusOK, services)
}

// GetService は指定IDのサービスをtitle・price・imgに絞って返す。
// GET /services/{id}
func (h *ServiceHandler) GetService(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	service, err := h.services.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if service == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewServiceNotFoundError(id))
		return
	}

	writeJSON(w, http.StatusOK, service.Summary())
}

// urlID はルートパラメータのIDを返す。エラーメッセージ用。
func urlID(r *http.Request) string {
	return chi.URLParam(r, "id")
}
