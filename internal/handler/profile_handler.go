package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/hitoshi/confhub/internal/middleware"
	"github.com/hitoshi/confhub/internal/model"
	"github.com/hitoshi/confhub/internal/profile"
)

// ProfileServiceInterface はプロフィールハンドラーが必要とするサービスインターフェース。
type ProfileServiceInterface interface {
	// GetOrCreate はプロフィールを取得する。存在しない場合は遅延作成する。
	GetOrCreate(ctx context.Context, ident model.Identity) (*model.Profile, error)
	// Save はプロフィールの部分更新を行う。
	Save(ctx context.Context, ident model.Identity, patch profile.SavePatch) (*model.Profile, error)
}

// ProfileHandler はプロフィール管理のHTTPハンドラー。
type ProfileHandler struct {
	service ProfileServiceInterface
}

// NewProfileHandler はProfileHandlerを生成する。
func NewProfileHandler(service ProfileServiceInterface) *ProfileHandler {
	return &ProfileHandler{
		service: service,
	}
}

// saveProfileRequest はプロフィール更新リクエストのボディ。
type saveProfileRequest struct {
	DisplayName  string `json:"display_name"`
	TeeShirtSize string `json:"tee_shirt_size"`
}

// profileResponse はプロフィール情報のAPIレスポンス。
type profileResponse struct {
	UserID                 string   `json:"user_id"`
	DisplayName            string   `json:"display_name"`
	MainEmail              string   `json:"main_email"`
	TeeShirtSize           string   `json:"tee_shirt_size"`
	ConferenceKeysToAttend []string `json:"conference_keys_to_attend"`
}

func toProfileResponse(p *model.Profile) profileResponse {
	keys := p.ConferenceKeysToAttend
	if keys == nil {
		keys = []string{}
	}
	return profileResponse{
		UserID:                 p.UserID,
		DisplayName:            p.DisplayName,
		MainEmail:              p.MainEmail,
		TeeShirtSize:           string(p.TeeShirtSize),
		ConferenceKeysToAttend: keys,
	}
}

// Get は呼び出し元のプロフィールを返す。存在しない場合は遅延作成する。
// GET /api/profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	ident, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	prof, err := h.service.GetOrCreate(r.Context(), ident)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(prof))
}

// Save はプロフィールの部分更新を処理する。
// POST /api/profile
func (h *ProfileHandler) Save(w http.ResponseWriter, r *http.Request) {
	ident, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req saveProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	prof, err := h.service.Save(r.Context(), ident, profile.SavePatch{
		DisplayName:  req.DisplayName,
		TeeShirtSize: req.TeeShirtSize,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toProfileResponse(prof))
}
