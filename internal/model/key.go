package model

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// websafeキーは主催者ユーザーIDと会議IDを "organizer/conference" の形で
// 連結しbase64url化したもの。キーだけから所有Profileを解決できる。

// EncodeConferenceKey は主催者ユーザーIDと会議IDからwebsafeキーを生成する。
func EncodeConferenceKey(organizerUserID, conferenceID string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(organizerUserID + "/" + conferenceID))
}

// DecodeConferenceKey はwebsafeキーを主催者ユーザーIDと会議IDに分解する。
// 形式が不正な場合はエラーを返す。
func DecodeConferenceKey(key string) (organizerUserID, conferenceID string, err error) {
	raw, err := base64.RawURLEncoding.DecodeString(key)
	if err != nil {
		return "", "", fmt.Errorf("invalid conference key encoding: %w", err)
	}

	organizerUserID, conferenceID, ok := strings.Cut(string(raw), "/")
	if !ok || organizerUserID == "" || conferenceID == "" {
		return "", "", fmt.Errorf("invalid conference key format: %q", key)
	}

	return organizerUserID, conferenceID, nil
}
