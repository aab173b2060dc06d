package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/confhub/internal/model"
)

// --- モック ---

type mockSessionFinder struct {
	findByIDFn func(ctx context.Context, id string) (*model.Session, error)
}

func (m *mockSessionFinder) FindByID(ctx context.Context, id string) (*model.Session, error) {
	return m.findByIDFn(ctx, id)
}

// --- テスト ---

// TestSessionMiddleware_InjectsIdentity は有効なセッションCookieから
// 認証済みユーザーがコンテキストに注入されることを検証する。
func TestSessionMiddleware_InjectsIdentity(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			if id != "sess-1" {
				t.Errorf("session id = %q, want sess-1", id)
			}
			return &model.Session{
				ID:          "sess-1",
				UserID:      "user-1",
				Email:       "taro@example.com",
				DisplayName: "Taro",
			}, nil
		},
	}

	var got model.Identity
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ident, err := IdentityFromContext(r.Context())
		if err != nil {
			t.Fatalf("IdentityFromContext() error = %v", err)
		}
		got = ident
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	rec := httptest.NewRecorder()

	NewSessionMiddleware(finder)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got.ID != "user-1" || got.DisplayName != "Taro" || got.Email != "taro@example.com" {
		t.Errorf("identity = %+v", got)
	}
}

// TestSessionMiddleware_NoCookie はCookieなしのリクエストが401になることを検証する。
func TestSessionMiddleware_NoCookie(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			t.Fatal("FindByID must not be called without a cookie")
			return nil, nil
		},
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	rec := httptest.NewRecorder()

	NewSessionMiddleware(finder)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// TestSessionMiddleware_SessionNotFound は期限切れ・不明なセッションIDが
// 401になることを検証する。
func TestSessionMiddleware_SessionNotFound(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, nil
		},
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "expired"})
	rec := httptest.NewRecorder()

	NewSessionMiddleware(finder)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// TestSessionMiddleware_RepositoryError はセッション検索失敗時に401になることを検証する。
func TestSessionMiddleware_RepositoryError(t *testing.T) {
	finder := &mockSessionFinder{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, errors.New("connection refused")
		},
	}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("next handler must not be called")
	})

	req := httptest.NewRequest(http.MethodGet, "/api/profile", nil)
	req.AddCookie(&http.Cookie{Name: "session_id", Value: "sess-1"})
	rec := httptest.NewRecorder()

	NewSessionMiddleware(finder)(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

// TestIdentityFromContext_Missing は未注入コンテキストでのエラーを検証する。
func TestIdentityFromContext_Missing(t *testing.T) {
	if _, err := IdentityFromContext(context.Background()); err == nil {
		t.Error("IdentityFromContext() error = nil, want error")
	}
}
