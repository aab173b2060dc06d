package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/confhub/internal/conference"
	"github.com/hitoshi/confhub/internal/middleware"
	"github.com/hitoshi/confhub/internal/model"
)

// 日付フィールドのワイヤーフォーマット。
const dateLayout = "2006-01-02"

// ConferenceServiceInterface は会議ハンドラーが必要とするサービスインターフェース。
type ConferenceServiceInterface interface {
	Create(ctx context.Context, ident model.Identity, in conference.CreateInput) (*model.Conference, error)
	Update(ctx context.Context, ident model.Identity, websafeKey string, patch conference.UpdatePatch) (*model.Conference, error)
	Get(ctx context.Context, websafeKey string) (*conference.WithOrganizer, error)
	ListCreated(ctx context.Context, ident model.Identity) ([]conference.WithOrganizer, error)
	ListToAttend(ctx context.Context, ident model.Identity) ([]conference.WithOrganizer, error)
	Query(ctx context.Context, filters []conference.QueryFilter) ([]conference.WithOrganizer, error)
}

// ConferenceHandler は会議管理のHTTPハンドラー。
type ConferenceHandler struct {
	service ConferenceServiceInterface
}

// NewConferenceHandler はConferenceHandlerを生成する。
func NewConferenceHandler(service ConferenceServiceInterface) *ConferenceHandler {
	return &ConferenceHandler{
		service: service,
	}
}

// createConferenceRequest は会議作成リクエストのボディ。
// 日付はYYYY-MM-DD形式。
type createConferenceRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Topics       []string `json:"topics"`
	City         string   `json:"city"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	MaxAttendees int      `json:"max_attendees"`
}

// updateConferenceRequest は会議更新リクエストのボディ。
// 未指定（null・空）のフィールドは変更しない。
type updateConferenceRequest struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Topics       []string `json:"topics"`
	City         string   `json:"city"`
	StartDate    string   `json:"start_date"`
	EndDate      string   `json:"end_date"`
	MaxAttendees *int     `json:"max_attendees"`
}

// queryConferencesRequest は会議検索リクエストのボディ。
type queryConferencesRequest struct {
	Filters []queryFilterRequest `json:"filters"`
}

// queryFilterRequest は検索フィルタ1件。
type queryFilterRequest struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    string `json:"value"`
}

// conferenceResponse は会議情報のAPIレスポンス。
type conferenceResponse struct {
	WebsafeKey           string   `json:"websafe_key"`
	Name                 string   `json:"name"`
	Description          string   `json:"description"`
	Topics               []string `json:"topics"`
	City                 string   `json:"city"`
	StartDate            string   `json:"start_date,omitempty"`
	EndDate              string   `json:"end_date,omitempty"`
	Month                int      `json:"month"`
	MaxAttendees         int      `json:"max_attendees"`
	SeatsAvailable       int      `json:"seats_available"`
	OrganizerDisplayName string   `json:"organizer_display_name,omitempty"`
}

func toConferenceResponse(c *model.Conference, organizerName string) conferenceResponse {
	resp := conferenceResponse{
		WebsafeKey:           c.WebsafeKey(),
		Name:                 c.Name,
		Description:          c.Description,
		Topics:               c.Topics,
		City:                 c.City,
		Month:                c.Month,
		MaxAttendees:         c.MaxAttendees,
		SeatsAvailable:       c.SeatsAvailable,
		OrganizerDisplayName: organizerName,
	}
	if c.StartDate != nil {
		resp.StartDate = c.StartDate.Format(dateLayout)
	}
	if c.EndDate != nil {
		resp.EndDate = c.EndDate.Format(dateLayout)
	}
	return resp
}

func toConferenceListResponse(results []conference.WithOrganizer) []conferenceResponse {
	resp := make([]conferenceResponse, 0, len(results))
	for _, r := range results {
		resp = append(resp, toConferenceResponse(r.Conference, r.OrganizerDisplayName))
	}
	return resp
}

// parseDate はYYYY-MM-DD形式の日付文字列を解析する。空文字列はnilを返す。
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create は会議作成を処理する。
// POST /api/conferences
func (h *ConferenceHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createConferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("開始日はYYYY-MM-DD形式で指定してください"))
		return
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("終了日はYYYY-MM-DD形式で指定してください"))
		return
	}

	conf, err := h.service.Create(r.Context(), ident, conference.CreateInput{
		Name:         req.Name,
		Description:  req.Description,
		Topics:       req.Topics,
		City:         req.City,
		StartDate:    startDate,
		EndDate:      endDate,
		MaxAttendees: req.MaxAttendees,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toConferenceResponse(conf, ""))
}

// Update は会議の部分更新を処理する。主催者のみが更新できる。
// PUT /api/conferences/{key}
func (h *ConferenceHandler) Update(w http.ResponseWriter, r *http.Request) {
	ident, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	websafeKey := chi.URLParam(r, "key")

	var req updateConferenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	startDate, err := parseDate(req.StartDate)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("開始日はYYYY-MM-DD形式で指定してください"))
		return
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("終了日はYYYY-MM-DD形式で指定してください"))
		return
	}

	conf, err := h.service.Update(r.Context(), ident, websafeKey, conference.UpdatePatch{
		Name:         req.Name,
		Description:  req.Description,
		Topics:       req.Topics,
		City:         req.City,
		StartDate:    startDate,
		EndDate:      endDate,
		MaxAttendees: req.MaxAttendees,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toConferenceResponse(conf, ""))
}

// Get は会議詳細を取得する。
// GET /api/conferences/{key}
func (h *ConferenceHandler) Get(w http.ResponseWriter, r *http.Request) {
	websafeKey := chi.URLParam(r, "key")

	result, err := h.service.Get(r.Context(), websafeKey)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toConferenceResponse(result.Conference, result.OrganizerDisplayName))
}

// ListCreated は呼び出し元が主催する会議一覧を返す。
// GET /api/conferences/created
func (h *ConferenceHandler) ListCreated(w http.ResponseWriter, r *http.Request) {
	ident, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	results, err := h.service.ListCreated(r.Context(), ident)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toConferenceListResponse(results))
}

// ListToAttend は呼び出し元の参加予定会議一覧を返す。
// GET /api/conferences/attending
func (h *ConferenceHandler) ListToAttend(w http.ResponseWriter, r *http.Request) {
	ident, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	results, err := h.service.ListToAttend(r.Context(), ident)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toConferenceListResponse(results))
}

// Query はフィルタ付きの会議検索を処理する。
// POST /api/conferences/query
func (h *ConferenceHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req queryConferencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	filters := make([]conference.QueryFilter, 0, len(req.Filters))
	for _, f := range req.Filters {
		filters = append(filters, conference.QueryFilter{
			Field:    f.Field,
			Operator: f.Operator,
			Value:    f.Value,
		})
	}

	results, err := h.service.Query(r.Context(), filters)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toConferenceListResponse(results))
}
