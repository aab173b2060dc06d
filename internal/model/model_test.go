package model

import "testing"

// TestEncodeDecodeConferenceKey はwebsafeキーの往復変換を検証する。
func TestEncodeDecodeConferenceKey(t *testing.T) {
	key := EncodeConferenceKey("user-1", "conf-1")

	organizer, confID, err := DecodeConferenceKey(key)
	if err != nil {
		t.Fatalf("DecodeConferenceKey() error = %v", err)
	}
	if organizer != "user-1" {
		t.Errorf("organizer = %q, want %q", organizer, "user-1")
	}
	if confID != "conf-1" {
		t.Errorf("conferenceID = %q, want %q", confID, "conf-1")
	}
}

// TestDecodeConferenceKey_Invalid は不正なキーの拒否を検証する。
func TestDecodeConferenceKey_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"base64ではない", "!!not-base64!!"},
		{"区切りなし", EncodeConferenceKey("", "")},
		{"会議ID欠落", "dXNlci0xLw"}, // "user-1/"
		{"空文字列", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := DecodeConferenceKey(tt.key); err == nil {
				t.Errorf("DecodeConferenceKey(%q) error = nil, want error", tt.key)
			}
		})
	}
}

// TestParseTeeShirtSize は定義済みサイズの受理と定義外の拒否を検証する。
func TestParseTeeShirtSize(t *testing.T) {
	got, err := ParseTeeShirtSize("XL_M")
	if err != nil {
		t.Fatalf("ParseTeeShirtSize(XL_M) error = %v", err)
	}
	if got != TeeShirtXLM {
		t.Errorf("got = %q, want %q", got, TeeShirtXLM)
	}

	if _, err := ParseTeeShirtSize("HUGE"); err == nil {
		t.Error("ParseTeeShirtSize(HUGE) error = nil, want error")
	}
	if _, err := ParseTeeShirtSize("xl_m"); err == nil {
		t.Error("ParseTeeShirtSize(xl_m) error = nil, want error")
	}
}

// TestProfile_ConferenceKeys は参加予定リスト操作を検証する。
func TestProfile_ConferenceKeys(t *testing.T) {
	p := &Profile{}

	if p.HasConferenceKey("key-1") {
		t.Error("HasConferenceKey on empty list = true, want false")
	}

	p.AddConferenceKey("key-1")
	p.AddConferenceKey("key-2")
	// 重複追加は無視される
	p.AddConferenceKey("key-1")

	if len(p.ConferenceKeysToAttend) != 2 {
		t.Errorf("len = %d, want 2", len(p.ConferenceKeysToAttend))
	}
	if !p.HasConferenceKey("key-1") {
		t.Error("HasConferenceKey(key-1) = false, want true")
	}

	if !p.RemoveConferenceKey("key-1") {
		t.Error("RemoveConferenceKey(key-1) = false, want true")
	}
	if p.HasConferenceKey("key-1") {
		t.Error("key-1 still present after removal")
	}
	// 存在しないキーの削除はfalse
	if p.RemoveConferenceKey("key-1") {
		t.Error("RemoveConferenceKey(key-1) second call = true, want false")
	}
}

// TestConference_WebsafeKey は会議エンティティからのキー導出を検証する。
func TestConference_WebsafeKey(t *testing.T) {
	c := &Conference{ID: "conf-1", OrganizerUserID: "user-1"}

	organizer, confID, err := DecodeConferenceKey(c.WebsafeKey())
	if err != nil {
		t.Fatalf("DecodeConferenceKey() error = %v", err)
	}
	if organizer != "user-1" || confID != "conf-1" {
		t.Errorf("decoded = (%q, %q), want (user-1, conf-1)", organizer, confID)
	}
}
