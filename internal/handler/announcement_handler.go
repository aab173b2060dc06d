package handler

import "net/http"

// AnnouncementGetter はアナウンスハンドラーが必要とするインターフェース。
type AnnouncementGetter interface {
	// Get は現在のアナウンス文字列を返す。存在しない場合は空文字列。
	Get() string
}

// AnnouncementHandler はアナウンスのHTTPハンドラー。
type AnnouncementHandler struct {
	service AnnouncementGetter
}

// NewAnnouncementHandler はAnnouncementHandlerを生成する。
func NewAnnouncementHandler(service AnnouncementGetter) *AnnouncementHandler {
	return &AnnouncementHandler{
		service: service,
	}
}

// announcementResponse はアナウンスのAPIレスポンス。
type announcementResponse struct {
	Announcement string `json:"announcement"`
}

// Get は現在のアナウンスを返す。アナウンスがない場合は空文字列を返す。
// GET /api/announcement
func (h *AnnouncementHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, announcementResponse{
		Announcement: h.service.Get(),
	})
}
