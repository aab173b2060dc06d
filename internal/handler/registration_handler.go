package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/confhub/internal/middleware"
	"github.com/hitoshi/confhub/internal/model"
)

// RegistrationServiceInterface は登録ハンドラーが必要とするサービスインターフェース。
type RegistrationServiceInterface interface {
	// Register は呼び出し元を指定会議に登録する。
	Register(ctx context.Context, ident model.Identity, websafeKey string) (bool, error)
	// Unregister は呼び出し元の登録を解除する。未登録の場合はfalseを返す。
	Unregister(ctx context.Context, ident model.Identity, websafeKey string) (bool, error)
}

// RegistrationHandler は会議登録のHTTPハンドラー。
type RegistrationHandler struct {
	service RegistrationServiceInterface
}

// NewRegistrationHandler はRegistrationHandlerを生成する。
func NewRegistrationHandler(service RegistrationServiceInterface) *RegistrationHandler {
	return &RegistrationHandler{
		service: service,
	}
}

// registrationResponse は登録・登録解除のAPIレスポンス。
type registrationResponse struct {
	Registered bool `json:"registered"`
}

// Register は会議への登録を処理する。
// POST /api/conferences/{key}/registration
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	ident, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	websafeKey := chi.URLParam(r, "key")

	ok, err := h.service.Register(r.Context(), ident, websafeKey)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, registrationResponse{Registered: ok})
}

// Unregister は会議の登録解除を処理する。
// DELETE /api/conferences/{key}/registration
func (h *RegistrationHandler) Unregister(w http.ResponseWriter, r *http.Request) {
	ident, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	websafeKey := chi.URLParam(r, "key")

	ok, err := h.service.Unregister(r.Context(), ident, websafeKey)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, registrationResponse{Registered: ok})
}
