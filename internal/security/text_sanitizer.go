// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService はユーザー入力テキスト（表示名、会議名、説明等）を
// サニタイズし、XSS攻撃などのセキュリティリスクからユーザーを保護する。
// これらのフィールドはプレーンテキストとして扱うため、bluemondayの
// StrictPolicyで全HTMLタグを除去する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService はテキストサニタイズ機能のインターフェースを定義する。
// プロフィール・会議の保存前に使用される。
type TextSanitizerService interface {
	// Sanitize は入力テキストから全てのHTMLタグを除去し、前後の空白を
	// 取り除いて返す。空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string

	// SanitizeAll は文字列スライスの各要素をSanitizeし、
	// 空になった要素を取り除いた新しいスライスを返す。
	SanitizeAll(raw []string) []string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
// StrictPolicy（全タグ除去）を使用する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力テキストから全てのHTMLタグを除去して返す。
func (s *textSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}

// SanitizeAll は文字列スライスの各要素をサニタイズする。
func (s *textSanitizer) SanitizeAll(raw []string) []string {
	if raw == nil {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if cleaned := s.Sanitize(v); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}
