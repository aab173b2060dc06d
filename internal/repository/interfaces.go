// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/confhub/internal/model"
)

// FilterOp はクエリフィルタの比較演算子。
type FilterOp string

// フィルタ演算子の定義。
const (
	FilterOpEq   FilterOp = "="
	FilterOpNe   FilterOp = "!="
	FilterOpGt   FilterOp = ">"
	FilterOpGtEq FilterOp = ">="
	FilterOpLt   FilterOp = "<"
	FilterOpLtEq FilterOp = "<="
)

// IsInequality は不等号演算子かどうかを返す。
func (op FilterOp) IsInequality() bool {
	return op != FilterOpEq
}

// フィルタ対象フィールドの定義。
const (
	FilterFieldCity         = "city"
	FilterFieldTopics       = "topics"
	FilterFieldMonth        = "month"
	FilterFieldMaxAttendees = "maxAttendees"
)

// Filter は会議クエリの単一フィルタ条件を表す。
// Valueはフィールドに応じてstring（city, topics）またはint（month, maxAttendees）。
// サービス層で検証・変換済みの値のみがリポジトリに渡される。
type Filter struct {
	Field string
	Op    FilterOp
	Value any
}

// ProfileRepository はプロフィールデータの永続化インターフェース。
type ProfileRepository interface {
	// FindByID は指定ユーザーIDのプロフィールを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID string) (*model.Profile, error)

	// FindByIDs は複数ユーザーIDのプロフィールを一括取得する。
	// 見つかったものだけをユーザーIDをキーとするマップで返す。
	FindByIDs(ctx context.Context, userIDs []string) (map[string]*model.Profile, error)

	// Create はプロフィールを作成する。
	Create(ctx context.Context, profile *model.Profile) error

	// Update はプロフィールを更新する。
	Update(ctx context.Context, profile *model.Profile) error
}

// ConferenceRepository は会議データの永続化インターフェース。
type ConferenceRepository interface {
	// FindByID は指定IDの会議を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Conference, error)

	// FindByIDs は複数IDの会議を一括取得する。入力順を保持し、
	// 見つからないIDはスキップする。
	FindByIDs(ctx context.Context, ids []string) ([]*model.Conference, error)

	// Create は会議を作成する。
	Create(ctx context.Context, conference *model.Conference) error

	// Update は会議の記述フィールドを更新する。
	// seats_availableは登録トランザクションのみが変更するため対象外。
	Update(ctx context.Context, conference *model.Conference) error

	// ListByOrganizer は指定ユーザーが主催する会議一覧を返す。
	ListByOrganizer(ctx context.Context, organizerUserID string) ([]*model.Conference, error)

	// Query は検証済みフィルタ列を適用して会議を検索する。
	// 結果はname, idの順で安定ソートされる。
	Query(ctx context.Context, filters []Filter) ([]*model.Conference, error)

	// ListNearSoldOutNames は 0 < seats_available <= maxSeats の会議の
	// 名前のみを射影して返す。
	ListNearSoldOutNames(ctx context.Context, maxSeats int) ([]string, error)
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
}

// RegistrationTx は登録トランザクション内で使用できる操作の集合。
// 各読み取りはトランザクションのリトライ試行ごとに新鮮な状態を返す。
type RegistrationTx interface {
	// FindProfile は指定ユーザーIDのプロフィールを取得する。見つからない場合はnilを返す。
	FindProfile(ctx context.Context, userID string) (*model.Profile, error)

	// CreateProfile はプロフィールを作成する。
	CreateProfile(ctx context.Context, profile *model.Profile) error

	// FindConference は指定IDの会議を取得する。見つからない場合はnilを返す。
	FindConference(ctx context.Context, id string) (*model.Conference, error)

	// SaveAttendance はプロフィールの参加予定リストと会議の空席数を
	// 同一トランザクション内で書き戻す。conferenceがnilの場合は
	// プロフィールのみを書き戻す。
	SaveAttendance(ctx context.Context, profile *model.Profile, conference *model.Conference) error
}

// RegistrationStore は登録エンジンのトランザクション境界を提供する。
// fnが返したAPIError以外の書き込み競合は内部でリトライされ、
// 上限到達時のみTX_RETRY_EXHAUSTEDとして表面化する。
type RegistrationStore interface {
	RunInTx(ctx context.Context, fn func(tx RegistrationTx) error) error
}

// TxRetryRecorder はトランザクションリトライのメトリクス記録インターフェース。
type TxRetryRecorder interface {
	RecordTxRetry()
}
