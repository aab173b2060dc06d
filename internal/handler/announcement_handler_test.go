package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticAnnouncement string

func (s staticAnnouncement) Get() string { return string(s) }

// TestAnnouncementHandler_Get はキャッシュ済みアナウンスの返却を検証する。
func TestAnnouncementHandler_Get(t *testing.T) {
	h := NewAnnouncementHandler(staticAnnouncement("Last chance to attend! The following conferences are nearly sold out: GopherCon"))

	req := httptest.NewRequest(http.MethodGet, "/api/announcement", nil)
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp announcementResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Announcement == "" {
		t.Error("Announcement is empty")
	}
}

// TestAnnouncementHandler_Get_Empty はアナウンスがない場合に
// 空文字列を返すことを検証する。
func TestAnnouncementHandler_Get_Empty(t *testing.T) {
	h := NewAnnouncementHandler(staticAnnouncement(""))

	req := httptest.NewRequest(http.MethodGet, "/api/announcement", nil)
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp announcementResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Announcement != "" {
		t.Errorf("Announcement = %q, want empty", resp.Announcement)
	}
}
