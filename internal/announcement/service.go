// Package announcement は残席わずかの会議アナウンスの計算と配信を提供する。
package announcement

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hitoshi/confhub/internal/cache"
	"github.com/hitoshi/confhub/internal/repository"
)

// cacheKey はアナウンス文字列のキャッシュキー。
const cacheKey = "announcement:near_sold_out"

// nearSoldOutMaxSeats は「残席わずか」とみなす空席数の上限。
const nearSoldOutMaxSeats = 5

// announcementTemplate はアナウンス本文のテンプレート。
const announcementTemplate = "Last chance to attend! The following conferences are nearly sold out: %s"

// RecomputeRecorder はアナウンス再計算メトリクスの記録インターフェース。
type RecomputeRecorder interface {
	RecordAnnouncementRecompute(nearSoldOutCount int)
}

// Service はアナウンスのサービス層。
// Getはキャッシュを読むだけで、再計算はRecomputeのみが行う。
type Service struct {
	confRepo repository.ConferenceRepository
	store    cache.Store
	metrics  RecomputeRecorder
}

// NewService はServiceの新しいインスタンスを生成する。metricsはnilでもよい。
func NewService(confRepo repository.ConferenceRepository, store cache.Store, metrics RecomputeRecorder) *Service {
	return &Service{
		confRepo: confRepo,
		store:    store,
		metrics:  metrics,
	}
}

// Recompute は残席わずか（0 < 空席数 <= 5）の会議を集計し、
// アナウンス文字列を再構築してキャッシュを更新する。
// 該当がない場合はキャッシュを削除し、空文字列を返す。
func (s *Service) Recompute(ctx context.Context) (string, error) {
	names, err := s.confRepo.ListNearSoldOutNames(ctx, nearSoldOutMaxSeats)
	if err != nil {
		return "", fmt.Errorf("残席わずかの会議の取得に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordAnnouncementRecompute(len(names))
	}

	if len(names) == 0 {
		s.store.Delete(cacheKey)
		slog.Info("残席わずかの会議はありません。アナウンスを削除しました")
		return "", nil
	}

	msg := fmt.Sprintf(announcementTemplate, strings.Join(names, ", "))
	s.store.Set(cacheKey, msg)

	slog.Info("アナウンスを更新しました",
		slog.Int("near_sold_out_count", len(names)),
	)

	return msg, nil
}

// Get は現在のアナウンス文字列を返す。
// キャッシュに存在しない場合は空文字列を返す（再計算はしない）。
func (s *Service) Get() string {
	msg, ok := s.store.Get(cacheKey)
	if !ok {
		return ""
	}
	return msg
}
