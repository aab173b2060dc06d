package profile

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hitoshi/confhub/internal/model"
)

// --- モック ---

type mockProfileRepo struct {
	findByIDFn func(ctx context.Context, userID string) (*model.Profile, error)
	createFn   func(ctx context.Context, profile *model.Profile) error
	updateFn   func(ctx context.Context, profile *model.Profile) error
}

func (m *mockProfileRepo) FindByID(ctx context.Context, userID string) (*model.Profile, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, userID)
	}
	return nil, nil
}
func (m *mockProfileRepo) FindByIDs(ctx context.Context, userIDs []string) (map[string]*model.Profile, error) {
	return nil, nil
}
func (m *mockProfileRepo) Create(ctx context.Context, profile *model.Profile) error {
	if m.createFn != nil {
		return m.createFn(ctx, profile)
	}
	return nil
}
func (m *mockProfileRepo) Update(ctx context.Context, profile *model.Profile) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, profile)
	}
	return nil
}

type passthroughSanitizer struct{}

func (passthroughSanitizer) Sanitize(raw string) string { return strings.TrimSpace(raw) }
func (passthroughSanitizer) SanitizeAll(raw []string) []string {
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if cleaned := strings.TrimSpace(v); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

var testIdent = model.Identity{ID: "user-1", DisplayName: "Taro", Email: "taro@example.com"}

// --- テスト ---

// TestService_GetOrCreate_CreatesLazily は未作成プロフィールが
// IdP由来の情報から遅延作成されることを検証する。
func TestService_GetOrCreate_CreatesLazily(t *testing.T) {
	var created *model.Profile
	repo := &mockProfileRepo{
		createFn: func(ctx context.Context, profile *model.Profile) error {
			created = profile
			return nil
		},
	}
	svc := NewService(repo, passthroughSanitizer{})

	prof, err := svc.GetOrCreate(context.Background(), testIdent)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}

	if created == nil {
		t.Fatal("expected profile to be persisted")
	}
	if prof.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", prof.UserID, "user-1")
	}
	if prof.DisplayName != "Taro" {
		t.Errorf("DisplayName = %q, want %q", prof.DisplayName, "Taro")
	}
	if prof.MainEmail != "taro@example.com" {
		t.Errorf("MainEmail = %q, want %q", prof.MainEmail, "taro@example.com")
	}
	if prof.TeeShirtSize != model.TeeShirtNotSpecified {
		t.Errorf("TeeShirtSize = %q, want %q", prof.TeeShirtSize, model.TeeShirtNotSpecified)
	}
}

// TestService_GetOrCreate_ReturnsExisting は既存プロフィールがそのまま
// 返され、作成が走らないことを検証する。
func TestService_GetOrCreate_ReturnsExisting(t *testing.T) {
	existing := &model.Profile{UserID: "user-1", DisplayName: "Custom Name"}
	repo := &mockProfileRepo{
		findByIDFn: func(ctx context.Context, userID string) (*model.Profile, error) {
			return existing, nil
		},
		createFn: func(ctx context.Context, profile *model.Profile) error {
			t.Fatal("Create must not be called for existing profile")
			return nil
		},
	}
	svc := NewService(repo, passthroughSanitizer{})

	prof, err := svc.GetOrCreate(context.Background(), testIdent)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if prof.DisplayName != "Custom Name" {
		t.Errorf("DisplayName = %q, want %q", prof.DisplayName, "Custom Name")
	}
}

// TestService_GetOrCreate_Unauthenticated は未認証リクエストの拒否を検証する。
func TestService_GetOrCreate_Unauthenticated(t *testing.T) {
	svc := NewService(&mockProfileRepo{}, passthroughSanitizer{})

	_, err := svc.GetOrCreate(context.Background(), model.Identity{})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeUnauthorized {
		t.Fatalf("GetOrCreate() error = %v, want UNAUTHORIZED", err)
	}
}

// TestService_Save_PartialPatch は非空フィールドのみが更新されることを検証する。
func TestService_Save_PartialPatch(t *testing.T) {
	existing := &model.Profile{
		UserID:       "user-1",
		DisplayName:  "Taro",
		MainEmail:    "taro@example.com",
		TeeShirtSize: model.TeeShirtNotSpecified,
	}
	var updated *model.Profile
	repo := &mockProfileRepo{
		findByIDFn: func(ctx context.Context, userID string) (*model.Profile, error) {
			return existing, nil
		},
		updateFn: func(ctx context.Context, profile *model.Profile) error {
			updated = profile
			return nil
		},
	}
	svc := NewService(repo, passthroughSanitizer{})

	prof, err := svc.Save(context.Background(), testIdent, SavePatch{TeeShirtSize: "XL_M"})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if updated == nil {
		t.Fatal("expected Update to be called")
	}
	if prof.TeeShirtSize != model.TeeShirtXLM {
		t.Errorf("TeeShirtSize = %q, want %q", prof.TeeShirtSize, model.TeeShirtXLM)
	}
	// 表示名は未指定のため変更されない
	if prof.DisplayName != "Taro" {
		t.Errorf("DisplayName = %q, want unchanged", prof.DisplayName)
	}
	// メインメールアドレスは不変
	if prof.MainEmail != "taro@example.com" {
		t.Errorf("MainEmail = %q, want unchanged", prof.MainEmail)
	}
}

// TestService_Save_UnknownTeeShirtSize は定義外Tシャツサイズの拒否を検証する。
func TestService_Save_UnknownTeeShirtSize(t *testing.T) {
	repo := &mockProfileRepo{
		findByIDFn: func(ctx context.Context, userID string) (*model.Profile, error) {
			return &model.Profile{UserID: "user-1"}, nil
		},
		updateFn: func(ctx context.Context, profile *model.Profile) error {
			t.Fatal("Update must not be called for invalid size")
			return nil
		},
	}
	svc := NewService(repo, passthroughSanitizer{})

	_, err := svc.Save(context.Background(), testIdent, SavePatch{TeeShirtSize: "HUGE"})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeValidation {
		t.Fatalf("Save() error = %v, want VALIDATION_FAILED", err)
	}
}

// TestService_Save_EmptyPatchSkipsUpdate は変更なしの保存が
// 書き込みを行わないことを検証する。
func TestService_Save_EmptyPatchSkipsUpdate(t *testing.T) {
	repo := &mockProfileRepo{
		findByIDFn: func(ctx context.Context, userID string) (*model.Profile, error) {
			return &model.Profile{UserID: "user-1", DisplayName: "Taro"}, nil
		},
		updateFn: func(ctx context.Context, profile *model.Profile) error {
			t.Fatal("Update must not be called for empty patch")
			return nil
		},
	}
	svc := NewService(repo, passthroughSanitizer{})

	if _, err := svc.Save(context.Background(), testIdent, SavePatch{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
}
