package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/confhub/internal/middleware"
	"github.com/hitoshi/confhub/internal/model"
	"github.com/hitoshi/confhub/internal/profile"
)

// --- テストヘルパー ---

var testIdent = model.Identity{ID: "user-1", DisplayName: "Taro", Email: "taro@example.com"}

// withIdent は認証済みユーザーをリクエストコンテキストに注入する。
func withIdent(r *http.Request, ident model.Identity) *http.Request {
	return r.WithContext(middleware.ContextWithIdentity(r.Context(), ident))
}

// withURLParam はchiのURLパラメータをリクエストコンテキストに注入する。
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func decodeErrorResponse(t *testing.T, rec *httptest.ResponseRecorder) apiErrorResponse {
	t.Helper()
	var resp apiErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp
}

// --- モック ---

type mockProfileService struct {
	getOrCreateFn func(ctx context.Context, ident model.Identity) (*model.Profile, error)
	saveFn        func(ctx context.Context, ident model.Identity, patch profile.SavePatch) (*model.Profile, error)
}

func (m *mockProfileService) GetOrCreate(ctx context.Context, ident model.Identity) (*model.Profile, error) {
	return m.getOrCreateFn(ctx, ident)
}

func (m *mockProfileService) Save(ctx context.Context, ident model.Identity, patch profile.SavePatch) (*model.Profile, error) {
	return m.saveFn(ctx, ident, patch)
}

// --- テスト ---

// TestProfileHandler_Get はプロフィール取得の正常系を検証する。
func TestProfileHandler_Get(t *testing.T) {
	svc := &mockProfileService{
		getOrCreateFn: func(ctx context.Context, ident model.Identity) (*model.Profile, error) {
			if ident.ID != "user-1" {
				t.Errorf("ident.ID = %q, want user-1", ident.ID)
			}
			return &model.Profile{
				UserID:       "user-1",
				DisplayName:  "Taro",
				MainEmail:    "taro@example.com",
				TeeShirtSize: model.TeeShirtNotSpecified,
			}, nil
		},
	}
	h := NewProfileHandler(svc)

	req := withIdent(httptest.NewRequest(http.MethodGet, "/api/profile", nil), testIdent)
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp profileResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.UserID != "user-1" || resp.DisplayName != "Taro" {
		t.Errorf("response = %+v", resp)
	}
	// 参加予定リストはnullではなく空配列で返す
	if resp.ConferenceKeysToAttend == nil {
		t.Error("ConferenceKeysToAttend = nil, want empty slice")
	}
}

// TestProfileHandler_Get_Unauthenticated は認証なしリクエストが401になることを検証する。
func TestProfileHandler_Get_Unauthenticated(t *testing.T) {
	h := NewProfileHandler(&mockProfileService{})

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if resp := decodeErrorResponse(t, rec); resp.Code != model.ErrCodeUnauthorized {
		t.Errorf("code = %q, want %q", resp.Code, model.ErrCodeUnauthorized)
	}
}

// TestProfileHandler_Save はプロフィール更新の正常系を検証する。
func TestProfileHandler_Save(t *testing.T) {
	var gotPatch profile.SavePatch
	svc := &mockProfileService{
		saveFn: func(ctx context.Context, ident model.Identity, patch profile.SavePatch) (*model.Profile, error) {
			gotPatch = patch
			return &model.Profile{
				UserID:       "user-1",
				DisplayName:  patch.DisplayName,
				TeeShirtSize: model.TeeShirtXLM,
			}, nil
		},
	}
	h := NewProfileHandler(svc)

	body := `{"display_name": "Hanako", "tee_shirt_size": "XL_M"}`
	req := withIdent(httptest.NewRequest(http.MethodPost, "/api/profile", strings.NewReader(body)), testIdent)
	rec := httptest.NewRecorder()

	h.Save(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotPatch.DisplayName != "Hanako" || gotPatch.TeeShirtSize != "XL_M" {
		t.Errorf("patch = %+v", gotPatch)
	}
}

// TestProfileHandler_Save_InvalidBody は不正なJSONボディが400になることを検証する。
func TestProfileHandler_Save_InvalidBody(t *testing.T) {
	h := NewProfileHandler(&mockProfileService{})

	req := withIdent(httptest.NewRequest(http.MethodPost, "/api/profile", strings.NewReader("{broken")), testIdent)
	rec := httptest.NewRecorder()

	h.Save(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

// TestProfileHandler_Save_ValidationError はサービス層の検証エラーが
// 400にマップされることを検証する。
func TestProfileHandler_Save_ValidationError(t *testing.T) {
	svc := &mockProfileService{
		saveFn: func(ctx context.Context, ident model.Identity, patch profile.SavePatch) (*model.Profile, error) {
			return nil, model.NewValidationError("不明なTシャツサイズです")
		},
	}
	h := NewProfileHandler(svc)

	body := `{"tee_shirt_size": "HUGE"}`
	req := withIdent(httptest.NewRequest(http.MethodPost, "/api/profile", strings.NewReader(body)), testIdent)
	rec := httptest.NewRecorder()

	h.Save(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if resp := decodeErrorResponse(t, rec); resp.Code != model.ErrCodeValidation {
		t.Errorf("code = %q, want %q", resp.Code, model.ErrCodeValidation)
	}
}
