package announcement

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/confhub/internal/model"
	"github.com/hitoshi/confhub/internal/repository"
)

// --- モック ---

type mockConfRepo struct {
	listNearSoldOutNamesFn func(ctx context.Context, maxSeats int) ([]string, error)
}

func (m *mockConfRepo) FindByID(ctx context.Context, id string) (*model.Conference, error) {
	return nil, nil
}
func (m *mockConfRepo) FindByIDs(ctx context.Context, ids []string) ([]*model.Conference, error) {
	return nil, nil
}
func (m *mockConfRepo) Create(ctx context.Context, conf *model.Conference) error { return nil }
func (m *mockConfRepo) Update(ctx context.Context, conf *model.Conference) error { return nil }
func (m *mockConfRepo) ListByOrganizer(ctx context.Context, organizerUserID string) ([]*model.Conference, error) {
	return nil, nil
}
func (m *mockConfRepo) Query(ctx context.Context, filters []repository.Filter) ([]*model.Conference, error) {
	return nil, nil
}
func (m *mockConfRepo) ListNearSoldOutNames(ctx context.Context, maxSeats int) ([]string, error) {
	return m.listNearSoldOutNamesFn(ctx, maxSeats)
}

// fakeCache はインメモリのcache.Store実装。
type fakeCache struct {
	data map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string)}
}

func (c *fakeCache) Set(key, value string) { c.data[key] = value }
func (c *fakeCache) Get(key string) (string, bool) {
	v, ok := c.data[key]
	return v, ok
}
func (c *fakeCache) Delete(key string) { delete(c.data, key) }

// --- テスト ---

// TestService_Recompute_SetsAnnouncement は残席わずかの会議がある場合に
// アナウンスが構築・キャッシュされることを検証する。
func TestService_Recompute_SetsAnnouncement(t *testing.T) {
	confRepo := &mockConfRepo{
		listNearSoldOutNamesFn: func(ctx context.Context, maxSeats int) ([]string, error) {
			if maxSeats != 5 {
				t.Errorf("maxSeats = %d, want 5", maxSeats)
			}
			return []string{"GopherCon", "RustConf"}, nil
		},
	}
	store := newFakeCache()
	svc := NewService(confRepo, store, nil)

	msg, err := svc.Recompute(context.Background())
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}

	want := "Last chance to attend! The following conferences are nearly sold out: GopherCon, RustConf"
	if msg != want {
		t.Errorf("msg = %q, want %q", msg, want)
	}
	if got := svc.Get(); got != want {
		t.Errorf("Get() = %q, want %q", got, want)
	}
}

// TestService_Recompute_ClearsWhenEmpty は該当会議がない場合に
// キャッシュが削除され空文字列になることを検証する。
func TestService_Recompute_ClearsWhenEmpty(t *testing.T) {
	names := []string{"GopherCon"}
	confRepo := &mockConfRepo{
		listNearSoldOutNamesFn: func(ctx context.Context, maxSeats int) ([]string, error) {
			return names, nil
		},
	}
	store := newFakeCache()
	svc := NewService(confRepo, store, nil)

	if _, err := svc.Recompute(context.Background()); err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if svc.Get() == "" {
		t.Fatal("expected announcement to be set")
	}

	// 全会議が満席または十分な空席になった
	names = nil
	msg, err := svc.Recompute(context.Background())
	if err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if msg != "" {
		t.Errorf("msg = %q, want empty", msg)
	}
	if got := svc.Get(); got != "" {
		t.Errorf("Get() = %q, want empty", got)
	}
}

// TestService_Get_EmptyWhenAbsent はキャッシュ未設定時に空文字列を
// 返すことを検証する（再計算は行わない）。
func TestService_Get_EmptyWhenAbsent(t *testing.T) {
	svc := NewService(&mockConfRepo{}, newFakeCache(), nil)

	if got := svc.Get(); got != "" {
		t.Errorf("Get() = %q, want empty", got)
	}
}

// TestService_Recompute_RepoError はリポジトリエラー時にキャッシュが
// 変更されないことを検証する。
func TestService_Recompute_RepoError(t *testing.T) {
	confRepo := &mockConfRepo{
		listNearSoldOutNamesFn: func(ctx context.Context, maxSeats int) ([]string, error) {
			return nil, errors.New("connection refused")
		},
	}
	store := newFakeCache()
	store.Set(cacheKey, "previous announcement")
	svc := NewService(confRepo, store, nil)

	if _, err := svc.Recompute(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if got := svc.Get(); got != "previous announcement" {
		t.Errorf("Get() = %q, want previous announcement preserved", got)
	}
}

// TestService_Recompute_RecordsMetrics は再計算メトリクスの記録を検証する。
func TestService_Recompute_RecordsMetrics(t *testing.T) {
	confRepo := &mockConfRepo{
		listNearSoldOutNamesFn: func(ctx context.Context, maxSeats int) ([]string, error) {
			return []string{"GopherCon", "RustConf", "PyCon"}, nil
		},
	}
	var recorded []int
	svc := NewService(confRepo, newFakeCache(), recomputeRecorderFunc(func(n int) {
		recorded = append(recorded, n)
	}))

	if _, err := svc.Recompute(context.Background()); err != nil {
		t.Fatalf("Recompute() error = %v", err)
	}
	if len(recorded) != 1 || recorded[0] != 3 {
		t.Errorf("recorded = %v, want [3]", recorded)
	}
}

type recomputeRecorderFunc func(nearSoldOutCount int)

func (f recomputeRecorderFunc) RecordAnnouncementRecompute(n int) { f(n) }
