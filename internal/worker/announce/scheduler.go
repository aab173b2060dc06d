// Package announce はアナウンスの定期再計算処理を提供する。
// ジョブ経由の再計算が失われた場合の補償として、一定間隔で
// キャッシュを再構築する。
package announce

import (
	"context"
	"log/slog"
	"time"
)

// Recomputer はアナウンス再計算の実行インターフェース。
type Recomputer interface {
	// Recompute は残席わずかの会議を集計し、アナウンスキャッシュを更新する。
	Recompute(ctx context.Context) (string, error)
}

// Scheduler はアナウンス再計算の定期実行を行う。
type Scheduler struct {
	recomputer Recomputer
	logger     *slog.Logger
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
func NewScheduler(recomputer Recomputer, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		recomputer: recomputer,
		logger:     logger,
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("アナウンススケジューラを開始しました",
		slog.Duration("interval", interval),
	)

	// 起動直後に1回実行し、再起動でキャッシュが空になった状態を解消する
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("アナウンス再計算に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("アナウンススケジューラを停止しました")
			return
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logger.Error("アナウンス再計算に失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// RunOnce はアナウンス再計算を1回実行する。
func (s *Scheduler) RunOnce(ctx context.Context) error {
	start := time.Now()

	msg, err := s.recomputer.Recompute(ctx)
	if err != nil {
		return err
	}

	s.logger.Info("アナウンス再計算が完了しました",
		slog.Bool("has_announcement", msg != ""),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}
