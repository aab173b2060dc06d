// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, conference, registration, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeConferenceNotFound = "CONFERENCE_NOT_FOUND"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeAlreadyRegistered  = "ALREADY_REGISTERED"
	ErrCodeNoSeatsAvailable   = "NO_SEATS_AVAILABLE"
	ErrCodeBadFilter          = "BAD_FILTER"
	ErrCodeInvalidKey         = "INVALID_KEY"
	ErrCodeValidation         = "VALIDATION_FAILED"
	ErrCodeTxRetryExhausted   = "TX_RETRY_EXHAUSTED"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewConferenceNotFoundError は会議未検出エラーを生成する。
func NewConferenceNotFoundError(key string) *APIError {
	return &APIError{
		Code:     ErrCodeConferenceNotFound,
		Message:  fmt.Sprintf("指定された会議が見つかりません: %s", key),
		Category: "conference",
		Action:   "会議キーを確認してください。",
	}
}

// NewForbiddenError は主催者以外による更新エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この会議を更新できるのは主催者のみです。",
		Category: "conference",
		Action:   "主催者アカウントでログインしてください。",
	}
}

// NewAlreadyRegisteredError は重複登録エラーを生成する。
func NewAlreadyRegisteredError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyRegistered,
		Message:  "この会議には既に登録済みです。",
		Category: "registration",
		Action:   "参加予定一覧を確認してください。",
	}
}

// NewNoSeatsAvailableError は満席エラーを生成する。
func NewNoSeatsAvailableError() *APIError {
	return &APIError{
		Code:     ErrCodeNoSeatsAvailable,
		Message:  "この会議は満席です。",
		Category: "registration",
		Action:   "空席が出るまでお待ちください。",
	}
}

// NewBadFilterError はサポート外のフィルタ組み合わせエラーを生成する。
func NewBadFilterError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeBadFilter,
		Message:  fmt.Sprintf("無効なフィルタです: %s", reason),
		Category: "validation",
		Action:   "不等号演算子を使用できるのは1つのフィールドのみです。",
	}
}

// NewInvalidKeyError は不正なwebsafeキーのエラーを生成する。
func NewInvalidKeyError(key string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidKey,
		Message:  fmt.Sprintf("会議キーの形式が不正です: %s", key),
		Category: "validation",
		Action:   "会議キーを確認してください。",
	}
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力が不正です: %s", reason),
		Category: "validation",
		Action:   "リクエスト内容を確認してください。",
	}
}

// NewTxRetryExhaustedError はトランザクション競合のリトライ上限到達エラーを生成する。
// ストア層のリトライは呼び出し元から観測されず、上限到達時のみこのエラーが表面化する。
func NewTxRetryExhaustedError() *APIError {
	return &APIError{
		Code:     ErrCodeTxRetryExhausted,
		Message:  "一時的な競合により処理を完了できませんでした。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
