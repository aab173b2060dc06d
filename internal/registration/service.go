// Package registration は会議登録・登録解除のトランザクションエンジンを提供する。
//
// 1回の登録/解除は、呼び出し元のProfile（参加予定リスト）と対象の
// Conference（空席数）にまたがる単一のアトミックトランザクションとして
// 実行される。両エンティティへの書き込みは一緒にコミットされるか、
// どちらもされない。二重登録の防止と売り過ぎの防止は、試行ごとに
// 新鮮な状態を読み直すストア層のリトライ付きアトミック境界に依存する。
package registration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/confhub/internal/model"
	"github.com/hitoshi/confhub/internal/repository"
)

// Metrics は登録エンジンのメトリクス記録インターフェース。
type Metrics interface {
	RecordRegistration()
	RecordUnregistration()
	RecordRegistrationConflict(reason string)
}

// Service は登録エンジンのサービス層。
type Service struct {
	store   repository.RegistrationStore
	metrics Metrics
}

// NewService はServiceの新しいインスタンスを生成する。metricsはnilでもよい。
func NewService(store repository.RegistrationStore, metrics Metrics) *Service {
	return &Service{
		store:   store,
		metrics: metrics,
	}
}

// Register は呼び出し元を指定会議に登録する。
//
// トランザクション内の手順:
//  1. プロフィールを解決する（存在しない場合は作成する）。
//  2. 会議を解決する。存在しない、または主催者がキーと一致しない場合は
//     CONFERENCE_NOT_FOUND。
//  3. 既に参加予定リストに含まれる場合はALREADY_REGISTERED。
//  4. 空席がない場合はNO_SEATS_AVAILABLE。
//  5. キーを参加予定リストに追加し、空席数を1減らして両方を書き戻す。
//
// 参加予定リストには常に会議エンティティから導出した正規形のキーを
// 格納する。同じ会議を指す別表現のキーで重複登録できてはならない。
func (s *Service) Register(ctx context.Context, ident model.Identity, websafeKey string) (bool, error) {
	if ident.ID == "" {
		return false, model.NewUnauthorizedError()
	}

	organizerID, confID, err := model.DecodeConferenceKey(websafeKey)
	if err != nil {
		return false, model.NewInvalidKeyError(websafeKey)
	}

	err = s.store.RunInTx(ctx, func(tx repository.RegistrationTx) error {
		prof, err := s.profileInTx(ctx, tx, ident)
		if err != nil {
			return err
		}

		conf, err := tx.FindConference(ctx, confID)
		if err != nil {
			return err
		}
		if conf == nil || conf.OrganizerUserID != organizerID {
			return model.NewConferenceNotFoundError(websafeKey)
		}

		key := conf.WebsafeKey()
		if prof.HasConferenceKey(key) {
			return model.NewAlreadyRegisteredError()
		}

		if conf.SeatsAvailable <= 0 {
			return model.NewNoSeatsAvailableError()
		}

		prof.AddConferenceKey(key)
		conf.SeatsAvailable--

		return tx.SaveAttendance(ctx, prof, conf)
	})
	if err != nil {
		s.recordConflict(err)
		return false, err
	}

	if s.metrics != nil {
		s.metrics.RecordRegistration()
	}
	slog.Info("会議に登録しました",
		slog.String("user_id", ident.ID),
		slog.String("conference_key", websafeKey),
	)
	return true, nil
}

// Unregister は呼び出し元の登録を解除する。
//
// 登録と異なり、会議エンティティの存在は要求しない。参加予定リストに
// キーが含まれる場合のみ取り除き、会議が存在すれば空席数を1増やす。
// 登録されていなかった場合はエラーではなくfalseを返す（冪等）。
func (s *Service) Unregister(ctx context.Context, ident model.Identity, websafeKey string) (bool, error) {
	if ident.ID == "" {
		return false, model.NewUnauthorizedError()
	}

	organizerID, confID, err := model.DecodeConferenceKey(websafeKey)
	if err != nil {
		return false, model.NewInvalidKeyError(websafeKey)
	}
	// 参加予定リストには正規形のキーのみが格納されている
	key := model.EncodeConferenceKey(organizerID, confID)

	removed := false
	err = s.store.RunInTx(ctx, func(tx repository.RegistrationTx) error {
		removed = false

		prof, err := s.profileInTx(ctx, tx, ident)
		if err != nil {
			return err
		}

		if !prof.RemoveConferenceKey(key) {
			return nil
		}
		removed = true

		conf, err := tx.FindConference(ctx, confID)
		if err != nil {
			return err
		}
		// 主催者がキーと一致しない会議はこのキーの対象ではない
		if conf != nil && conf.OrganizerUserID != organizerID {
			conf = nil
		}
		if conf != nil {
			conf.SeatsAvailable++
		}

		return tx.SaveAttendance(ctx, prof, conf)
	})
	if err != nil {
		return false, err
	}
	if !removed {
		return false, nil
	}

	if s.metrics != nil {
		s.metrics.RecordUnregistration()
	}
	slog.Info("会議の登録を解除しました",
		slog.String("user_id", ident.ID),
		slog.String("conference_key", websafeKey),
	)
	return true, nil
}

// profileInTx はトランザクション内でプロフィールを解決する。
// 存在しない場合はIdP由来の情報から遅延作成する。
func (s *Service) profileInTx(ctx context.Context, tx repository.RegistrationTx, ident model.Identity) (*model.Profile, error) {
	prof, err := tx.FindProfile(ctx, ident.ID)
	if err != nil {
		return nil, err
	}
	if prof != nil {
		return prof, nil
	}

	now := time.Now()
	prof = &model.Profile{
		UserID:       ident.ID,
		DisplayName:  ident.DisplayName,
		MainEmail:    ident.Email,
		TeeShirtSize: model.TeeShirtNotSpecified,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.CreateProfile(ctx, prof); err != nil {
		return nil, fmt.Errorf("プロフィールの作成に失敗しました: %w", err)
	}
	return prof, nil
}

// recordConflict は業務ルール違反による登録拒否をメトリクスに記録する。
func (s *Service) recordConflict(err error) {
	if s.metrics == nil {
		return
	}
	if apiErr, ok := err.(*model.APIError); ok {
		switch apiErr.Code {
		case model.ErrCodeAlreadyRegistered:
			s.metrics.RecordRegistrationConflict("already_registered")
		case model.ErrCodeNoSeatsAvailable:
			s.metrics.RecordRegistrationConflict("no_seats")
		}
	}
}
