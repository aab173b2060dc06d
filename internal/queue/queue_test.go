package queue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// TestDispatcher_ProcessesJob はジョブが登録済みハンドラで処理されることを検証する。
func TestDispatcher_ProcessesJob(t *testing.T) {
	d := NewDispatcher(testLogger(), 4)

	done := make(chan Job, 1)
	d.RegisterHandler("test.job", func(ctx context.Context, job Job) error {
		done <- job
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	if err := d.Enqueue(Job{Name: "test.job", Args: map[string]string{"k": "v"}}); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	select {
	case job := <-done:
		if job.Args["k"] != "v" {
			t.Errorf("Args = %v, want k=v", job.Args)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}
}

// TestDispatcher_RetriesOnce は失敗したジョブが1回だけ再実行されることを検証する。
func TestDispatcher_RetriesOnce(t *testing.T) {
	d := NewDispatcher(testLogger(), 4)

	var mu sync.Mutex
	calls := 0
	done := make(chan struct{})
	d.RegisterHandler("flaky.job", func(ctx context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return errors.New("transient failure")
		}
		close(done)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	if err := d.Enqueue(Job{Name: "flaky.job"}); err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job was not retried")
	}

	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

// TestDispatcher_EnqueueFullBuffer はバッファ満杯時にEnqueueが
// ブロックせずエラーを返すことを検証する。
func TestDispatcher_EnqueueFullBuffer(t *testing.T) {
	// Runを開始しないため、バッファに積まれたまま消費されない
	d := NewDispatcher(testLogger(), 1)
	d.RegisterHandler("test.job", func(ctx context.Context, job Job) error { return nil })

	if err := d.Enqueue(Job{Name: "test.job"}); err != nil {
		t.Fatalf("first Enqueue() error = %v", err)
	}
	if err := d.Enqueue(Job{Name: "test.job"}); err == nil {
		t.Error("second Enqueue() error = nil, want buffer full error")
	}
}

// TestDispatcher_DrainsOnShutdown はキャンセル後もバッファ残ジョブが
// 処理されることを検証する。
func TestDispatcher_DrainsOnShutdown(t *testing.T) {
	d := NewDispatcher(testLogger(), 4)

	var mu sync.Mutex
	processed := 0
	d.RegisterHandler("test.job", func(ctx context.Context, job Job) error {
		mu.Lock()
		processed++
		mu.Unlock()
		return nil
	})

	for i := 0; i < 3; i++ {
		if err := d.Enqueue(Job{Name: "test.job"}); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // 即座にキャンセルしてdrain経路に入れる

	finished := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	mu.Lock()
	defer mu.Unlock()
	if processed != 3 {
		t.Errorf("processed = %d, want 3", processed)
	}
}
