// Package queue はプロセス内の非同期ジョブディスパッチャを提供する。
// 投入はfire-and-forgetで、呼び出し元はジョブの完了を待たない。
// ハンドラ失敗時は1回だけ再実行するat-least-once配送を行う。
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Job は投入されるジョブを表す。
type Job struct {
	Name string
	Args map[string]string
}

// Handler はジョブ名に対応する処理関数。
type Handler func(ctx context.Context, job Job) error

// Dispatcher は名前付きジョブのバッファ付きディスパッチャ。
// Run中のゴルーチンが投入順にジョブを処理する。
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]Handler
	jobs     chan Job
	logger   *slog.Logger
}

// NewDispatcher はDispatcherを生成する。
// bufferSizeが0以下の場合はデフォルト値64を使用する。
func NewDispatcher(logger *slog.Logger, bufferSize int) *Dispatcher {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	return &Dispatcher{
		handlers: make(map[string]Handler),
		jobs:     make(chan Job, bufferSize),
		logger:   logger,
	}
}

// RegisterHandler はジョブ名にハンドラを登録する。Run開始前に呼ぶこと。
func (d *Dispatcher) RegisterHandler(name string, h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = h
}

// Enqueue はジョブを投入する。呼び出し元をブロックしない。
// バッファが満杯の場合はジョブを破棄してエラーを返す。投入失敗が
// 呼び出し元の操作を失敗させてはならないため、呼び出し側はエラーを
// ログに残すだけでよい。
func (d *Dispatcher) Enqueue(job Job) error {
	select {
	case d.jobs <- job:
		return nil
	default:
		return fmt.Errorf("job queue is full, dropping job: %s", job.Name)
	}
}

// Run はジョブループを実行する。コンテキストがキャンセルされると
// バッファに残ったジョブを処理し切ってから返る。
func (d *Dispatcher) Run(ctx context.Context) {
	d.logger.Info("ジョブディスパッチャを開始しました")

	for {
		select {
		case <-ctx.Done():
			d.drain()
			d.logger.Info("ジョブディスパッチャを停止しました")
			return
		case job := <-d.jobs:
			d.process(ctx, job)
		}
	}
}

// drain はシャットダウン時にバッファに残ったジョブを処理する。
func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for {
		select {
		case job := <-d.jobs:
			d.process(ctx, job)
		default:
			return
		}
	}
}

// process は1件のジョブを実行する。失敗時は1回だけ再実行する。
func (d *Dispatcher) process(ctx context.Context, job Job) {
	d.mu.RLock()
	h, ok := d.handlers[job.Name]
	d.mu.RUnlock()

	if !ok {
		d.logger.Error("未登録のジョブを受信しました",
			slog.String("job", job.Name),
		)
		return
	}

	start := time.Now()
	err := h(ctx, job)
	if err != nil {
		d.logger.Warn("ジョブが失敗しました。再実行します",
			slog.String("job", job.Name),
			slog.String("error", err.Error()),
		)
		if err = h(ctx, job); err != nil {
			d.logger.Error("ジョブの再実行も失敗しました",
				slog.String("job", job.Name),
				slog.String("error", err.Error()),
			)
			return
		}
	}

	d.logger.Info("ジョブが完了しました",
		slog.String("job", job.Name),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
}
