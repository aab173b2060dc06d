// Package profile はユーザープロフィールのドメインロジックを提供する。
// プロフィールは初回アクセス時にIdP由来の情報から遅延作成される。
package profile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/confhub/internal/model"
	"github.com/hitoshi/confhub/internal/repository"
	"github.com/hitoshi/confhub/internal/security"
)

// SavePatch はプロフィールの部分更新リクエストを表す。
// 空のフィールドは変更しない。
type SavePatch struct {
	DisplayName  string
	TeeShirtSize string
}

// Service はプロフィール管理のサービス層。
type Service struct {
	profileRepo repository.ProfileRepository
	sanitizer   security.TextSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(profileRepo repository.ProfileRepository, sanitizer security.TextSanitizerService) *Service {
	return &Service{
		profileRepo: profileRepo,
		sanitizer:   sanitizer,
	}
}

// GetOrCreate は呼び出し元のプロフィールを取得する。
// 存在しない場合はIdP由来の表示名・メールアドレスとデフォルトの
// TシャツサイズNOT_SPECIFIEDで作成して返す。
func (s *Service) GetOrCreate(ctx context.Context, ident model.Identity) (*model.Profile, error) {
	if ident.ID == "" {
		return nil, model.NewUnauthorizedError()
	}

	prof, err := s.profileRepo.FindByID(ctx, ident.ID)
	if err != nil {
		return nil, fmt.Errorf("プロフィールの取得に失敗しました: %w", err)
	}
	if prof != nil {
		return prof, nil
	}

	now := time.Now()
	prof = &model.Profile{
		UserID:       ident.ID,
		DisplayName:  s.sanitizer.Sanitize(ident.DisplayName),
		MainEmail:    ident.Email,
		TeeShirtSize: model.TeeShirtNotSpecified,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.profileRepo.Create(ctx, prof); err != nil {
		return nil, fmt.Errorf("プロフィールの作成に失敗しました: %w", err)
	}

	slog.Info("プロフィールを作成しました",
		slog.String("user_id", ident.ID),
	)

	return prof, nil
}

// Save はプロフィールの部分更新を行う。
// patchに含まれる非空フィールドのみを適用し、それ以外は変更しない。
// メインメールアドレスは作成後不変のため更新対象外。
func (s *Service) Save(ctx context.Context, ident model.Identity, patch SavePatch) (*model.Profile, error) {
	prof, err := s.GetOrCreate(ctx, ident)
	if err != nil {
		return nil, err
	}

	changed := false

	if patch.DisplayName != "" {
		prof.DisplayName = s.sanitizer.Sanitize(patch.DisplayName)
		changed = true
	}

	if patch.TeeShirtSize != "" {
		size, err := model.ParseTeeShirtSize(patch.TeeShirtSize)
		if err != nil {
			return nil, model.NewValidationError(fmt.Sprintf("未定義のTシャツサイズです: %s", patch.TeeShirtSize))
		}
		prof.TeeShirtSize = size
		changed = true
	}

	if !changed {
		return prof, nil
	}

	prof.UpdatedAt = time.Now()
	if err := s.profileRepo.Update(ctx, prof); err != nil {
		return nil, fmt.Errorf("プロフィールの更新に失敗しました: %w", err)
	}

	return prof, nil
}
