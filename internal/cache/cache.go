// Package cache はキー・バリュー形式の文字列キャッシュを提供する。
// アナウンスなどの導出データの保持に使用し、永続化はしない。
package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Store は文字列キャッシュのインターフェース。
// テストではインメモリのフェイクに差し替え可能にする。
type Store interface {
	// Set はキーに値を保存する。既存の値は上書きされる。
	Set(key, value string)
	// Get はキーの値を取得する。存在しない場合はok=falseを返す。
	Get(key string) (value string, ok bool)
	// Delete はキーを削除する。存在しないキーの削除は何もしない。
	Delete(key string)
}

// MemoryStore はgo-cacheを使用したインメモリ実装。
// デフォルトTTLなし（明示的に上書き・削除されるまで保持）で、
// 期限付きエントリのクリーンアップをバックグラウンドで行う。
type MemoryStore struct {
	cache *gocache.Cache
}

// NewMemoryStore はMemoryStoreを生成する。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cache: gocache.New(gocache.NoExpiration, 10*time.Minute),
	}
}

// Set はキーに値を保存する。
func (s *MemoryStore) Set(key, value string) {
	s.cache.Set(key, value, gocache.NoExpiration)
}

// Get はキーの値を取得する。
func (s *MemoryStore) Get(key string) (string, bool) {
	v, found := s.cache.Get(key)
	if !found {
		return "", false
	}
	value, ok := v.(string)
	if !ok {
		return "", false
	}
	return value, true
}

// Delete はキーを削除する。
func (s *MemoryStore) Delete(key string) {
	s.cache.Delete(key)
}

// compile-time interface check
var _ Store = (*MemoryStore)(nil)
