package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/confhub/internal/model"
)

// --- モック ---

type mockOAuthProvider struct {
	getLoginURLFn  func(state string) string
	exchangeCodeFn func(ctx context.Context, code string) (*OAuthUserInfo, error)
}

func (m *mockOAuthProvider) GetLoginURL(state string) string {
	return m.getLoginURLFn(state)
}

func (m *mockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error) {
	return m.exchangeCodeFn(ctx, code)
}

type mockSessionRepo struct {
	createFn   func(ctx context.Context, session *model.Session) error
	findByIDFn func(ctx context.Context, id string) (*model.Session, error)
	deletedIDs []string
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	m.deletedIDs = append(m.deletedIDs, id)
	return nil
}

func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	return nil
}

// --- テスト ---

// TestService_HandleCallback はコールバック処理でセッションが
// 発行されることを検証する。
func TestService_HandleCallback(t *testing.T) {
	oauth := &mockOAuthProvider{
		exchangeCodeFn: func(ctx context.Context, code string) (*OAuthUserInfo, error) {
			if code != "auth-code" {
				t.Errorf("code = %q, want auth-code", code)
			}
			return &OAuthUserInfo{
				ProviderUserID: "sub-123",
				Email:          "taro@example.com",
				Name:           "Taro",
			}, nil
		},
	}
	var created *model.Session
	sessionRepo := &mockSessionRepo{
		createFn: func(ctx context.Context, session *model.Session) error {
			created = session
			return nil
		},
	}
	svc := NewService(oauth, sessionRepo, ServiceConfig{SessionMaxAge: 3600})

	session, err := svc.HandleCallback(context.Background(), "auth-code")
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}

	if created == nil {
		t.Fatal("expected session to be persisted")
	}
	if session.UserID != "sub-123" {
		t.Errorf("UserID = %q, want sub-123", session.UserID)
	}
	// プロフィール遅延作成に必要な情報がセッションに載ること
	if session.Email != "taro@example.com" || session.DisplayName != "Taro" {
		t.Errorf("session = %+v", session)
	}
	if len(session.ID) != 64 {
		t.Errorf("session ID length = %d, want 64 hex chars", len(session.ID))
	}
	wantExpiry := time.Now().Add(time.Hour)
	if session.ExpiresAt.Before(wantExpiry.Add(-time.Minute)) || session.ExpiresAt.After(wantExpiry.Add(time.Minute)) {
		t.Errorf("ExpiresAt = %v, want around %v", session.ExpiresAt, wantExpiry)
	}
}

// TestService_HandleCallback_ExchangeError はコード交換失敗時にエラーを返すことを検証する。
func TestService_HandleCallback_ExchangeError(t *testing.T) {
	oauth := &mockOAuthProvider{
		exchangeCodeFn: func(ctx context.Context, code string) (*OAuthUserInfo, error) {
			return nil, errors.New("invalid_grant")
		},
	}
	svc := NewService(oauth, &mockSessionRepo{}, ServiceConfig{SessionMaxAge: 3600})

	if _, err := svc.HandleCallback(context.Background(), "bad-code"); err == nil {
		t.Fatal("HandleCallback() error = nil, want error")
	}
}

// TestService_GetIdentity はセッションからの認証済みユーザー取得を検証する。
func TestService_GetIdentity(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{
				ID:          id,
				UserID:      "sub-123",
				Email:       "taro@example.com",
				DisplayName: "Taro",
			}, nil
		},
	}
	svc := NewService(&mockOAuthProvider{}, sessionRepo, ServiceConfig{})

	ident, err := svc.GetIdentity(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("GetIdentity() error = %v", err)
	}
	if ident == nil {
		t.Fatal("identity = nil")
	}
	if ident.ID != "sub-123" || ident.DisplayName != "Taro" || ident.Email != "taro@example.com" {
		t.Errorf("identity = %+v", ident)
	}
}

// TestService_GetIdentity_SessionNotFound は期限切れ・不明なセッションで
// nilが返ることを検証する。
func TestService_GetIdentity_SessionNotFound(t *testing.T) {
	svc := NewService(&mockOAuthProvider{}, &mockSessionRepo{}, ServiceConfig{})

	ident, err := svc.GetIdentity(context.Background(), "expired")
	if err != nil {
		t.Fatalf("GetIdentity() error = %v", err)
	}
	if ident != nil {
		t.Errorf("identity = %+v, want nil", ident)
	}
}

// TestService_Logout はセッション破棄を検証する。
func TestService_Logout(t *testing.T) {
	sessionRepo := &mockSessionRepo{}
	svc := NewService(&mockOAuthProvider{}, sessionRepo, ServiceConfig{})

	if err := svc.Logout(context.Background(), "sess-1"); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if len(sessionRepo.deletedIDs) != 1 || sessionRepo.deletedIDs[0] != "sess-1" {
		t.Errorf("deletedIDs = %v, want [sess-1]", sessionRepo.deletedIDs)
	}

	// 空のセッションIDは拒否される
	if err := svc.Logout(context.Background(), ""); err == nil {
		t.Error("Logout(\"\") error = nil, want error")
	}
}
