package model

import (
	"fmt"
	"slices"
	"time"
)

// Identity は認証済みユーザーを表す。
// IDはIdP（Google）が発行する安定識別子（subクレーム）。
type Identity struct {
	ID          string
	DisplayName string
	Email       string
}

// Session はログインセッションを表す。
// プロフィールの遅延作成に必要なIdP由来の情報を保持する。
type Session struct {
	ID          string
	UserID      string
	Email       string
	DisplayName string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

// TeeShirtSize はプロフィールのTシャツサイズ。
type TeeShirtSize string

// Tシャツサイズの定義。末尾の_M/_Wはメンズ/ウィメンズを表す。
const (
	TeeShirtNotSpecified TeeShirtSize = "NOT_SPECIFIED"
	TeeShirtXSM          TeeShirtSize = "XS_M"
	TeeShirtXSW          TeeShirtSize = "XS_W"
	TeeShirtSM           TeeShirtSize = "S_M"
	TeeShirtSW           TeeShirtSize = "S_W"
	TeeShirtMM           TeeShirtSize = "M_M"
	TeeShirtMW           TeeShirtSize = "M_W"
	TeeShirtLM           TeeShirtSize = "L_M"
	TeeShirtLW           TeeShirtSize = "L_W"
	TeeShirtXLM          TeeShirtSize = "XL_M"
	TeeShirtXLW          TeeShirtSize = "XL_W"
	TeeShirtXXLM         TeeShirtSize = "XXL_M"
	TeeShirtXXLW         TeeShirtSize = "XXL_W"
	TeeShirtXXXLM        TeeShirtSize = "XXXL_M"
	TeeShirtXXXLW        TeeShirtSize = "XXXL_W"
)

var teeShirtSizes = map[TeeShirtSize]bool{
	TeeShirtNotSpecified: true,
	TeeShirtXSM:          true,
	TeeShirtXSW:          true,
	TeeShirtSM:           true,
	TeeShirtSW:           true,
	TeeShirtMM:           true,
	TeeShirtMW:           true,
	TeeShirtLM:           true,
	TeeShirtLW:           true,
	TeeShirtXLM:          true,
	TeeShirtXLW:          true,
	TeeShirtXXLM:         true,
	TeeShirtXXLW:         true,
	TeeShirtXXXLM:        true,
	TeeShirtXXXLW:        true,
}

// ParseTeeShirtSize は文字列をTeeShirtSizeに変換する。
// 定義外の値はエラーを返す。
func ParseTeeShirtSize(s string) (TeeShirtSize, error) {
	size := TeeShirtSize(s)
	if !teeShirtSizes[size] {
		return "", fmt.Errorf("unknown tee shirt size: %q", s)
	}
	return size, nil
}

// Profile はユーザープロフィールを表す。
// 初回アクセス時にIdP由来の情報から遅延作成される。
type Profile struct {
	UserID                 string
	DisplayName            string
	MainEmail              string
	TeeShirtSize           TeeShirtSize
	ConferenceKeysToAttend []string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// HasConferenceKey は参加予定リストにキーが含まれるかを返す。
func (p *Profile) HasConferenceKey(key string) bool {
	return slices.Contains(p.ConferenceKeysToAttend, key)
}

// AddConferenceKey は参加予定リストにキーを追加する。
// 既に含まれる場合は何もしない。
func (p *Profile) AddConferenceKey(key string) {
	if p.HasConferenceKey(key) {
		return
	}
	p.ConferenceKeysToAttend = append(p.ConferenceKeysToAttend, key)
}

// RemoveConferenceKey は参加予定リストからキーを取り除く。
// 取り除いた場合はtrue、含まれていなかった場合はfalseを返す。
func (p *Profile) RemoveConferenceKey(key string) bool {
	i := slices.Index(p.ConferenceKeysToAttend, key)
	if i < 0 {
		return false
	}
	p.ConferenceKeysToAttend = slices.Delete(p.ConferenceKeysToAttend, i, i+1)
	return true
}

// Conference は会議を表す。
// MonthはStartDateから導出され、クエリ用に非正規化して保持する。
// SeatsAvailableは登録トランザクションのみが変更する。
type Conference struct {
	ID              string
	OrganizerUserID string
	Name            string
	Description     string
	Topics          []string
	City            string
	StartDate       *time.Time
	EndDate         *time.Time
	Month           int
	MaxAttendees    int
	SeatsAvailable  int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// WebsafeKey はこの会議のwebsafeキーを返す。
func (c *Conference) WebsafeKey() string {
	return EncodeConferenceKey(c.OrganizerUserID, c.ID)
}
