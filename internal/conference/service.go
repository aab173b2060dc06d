// Package conference は会議のCRUDと構造化クエリのドメインロジックを提供する。
package conference

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/confhub/internal/model"
	"github.com/hitoshi/confhub/internal/queue"
	"github.com/hitoshi/confhub/internal/repository"
	"github.com/hitoshi/confhub/internal/security"
)

// JobAnnounceRecompute はアナウンス再計算ジョブの名前。
const JobAnnounceRecompute = "announcement.recompute"

// 未指定フィールドに適用されるデフォルト値。
var (
	defaultCity   = "Default City"
	defaultTopics = []string{"Default", "Topic"}
)

// JobEnqueuer は非同期ジョブの投入インターフェース。
type JobEnqueuer interface {
	Enqueue(job queue.Job) error
}

// ProfileProvider はプロフィールの取得（なければ作成）インターフェース。
type ProfileProvider interface {
	GetOrCreate(ctx context.Context, ident model.Identity) (*model.Profile, error)
}

// CreationRecorder は会議作成メトリクスの記録インターフェース。
type CreationRecorder interface {
	RecordConferenceCreated()
}

// CreateInput は会議作成リクエストを表す。
type CreateInput struct {
	Name         string
	Description  string
	Topics       []string
	City         string
	StartDate    *time.Time
	EndDate      *time.Time
	MaxAttendees int
}

// UpdatePatch は会議の部分更新リクエストを表す。
// nil・空のフィールドは変更しない。
type UpdatePatch struct {
	Name         string
	Description  string
	Topics       []string
	City         string
	StartDate    *time.Time
	EndDate      *time.Time
	MaxAttendees *int
}

// WithOrganizer は会議と主催者表示名の組。
type WithOrganizer struct {
	Conference           *model.Conference
	OrganizerDisplayName string
}

// Service は会議管理のサービス層。
type Service struct {
	confRepo    repository.ConferenceRepository
	profileRepo repository.ProfileRepository
	profiles    ProfileProvider
	sanitizer   security.TextSanitizerService
	enqueuer    JobEnqueuer
	metrics     CreationRecorder
}

// NewService はServiceの新しいインスタンスを生成する。
// enqueuerとmetricsはnilでもよい。
func NewService(
	confRepo repository.ConferenceRepository,
	profileRepo repository.ProfileRepository,
	profiles ProfileProvider,
	sanitizer security.TextSanitizerService,
	enqueuer JobEnqueuer,
	metrics CreationRecorder,
) *Service {
	return &Service{
		confRepo:    confRepo,
		profileRepo: profileRepo,
		profiles:    profiles,
		sanitizer:   sanitizer,
		enqueuer:    enqueuer,
		metrics:     metrics,
	}
}

// Create は会議を作成する。
// 名前は必須。未指定の任意フィールドにはデフォルト値を適用し、
// 開始日からmonthを導出、seatsAvailableをmaxAttendeesに設定する。
// 作成後にアナウンス再計算ジョブをfire-and-forgetで投入する。
// ジョブ投入の失敗は会議作成を失敗させない。
func (s *Service) Create(ctx context.Context, ident model.Identity, in CreateInput) (*model.Conference, error) {
	if ident.ID == "" {
		return nil, model.NewUnauthorizedError()
	}

	name := s.sanitizer.Sanitize(in.Name)
	if name == "" {
		return nil, model.NewValidationError("会議名は必須です")
	}
	if in.MaxAttendees < 0 {
		return nil, model.NewValidationError("最大参加者数は0以上で指定してください")
	}

	city := s.sanitizer.Sanitize(in.City)
	if city == "" {
		city = defaultCity
	}
	topics := s.sanitizer.SanitizeAll(in.Topics)
	if len(topics) == 0 {
		topics = append([]string(nil), defaultTopics...)
	}

	now := time.Now()
	conf := &model.Conference{
		ID:              uuid.New().String(),
		OrganizerUserID: ident.ID,
		Name:            name,
		Description:     s.sanitizer.Sanitize(in.Description),
		Topics:          topics,
		City:            city,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		Month:           monthOf(in.StartDate),
		MaxAttendees:    in.MaxAttendees,
		SeatsAvailable:  in.MaxAttendees,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.confRepo.Create(ctx, conf); err != nil {
		return nil, fmt.Errorf("会議の作成に失敗しました: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordConferenceCreated()
	}

	slog.Info("会議を作成しました",
		slog.String("conference_id", conf.ID),
		slog.String("organizer_user_id", ident.ID),
	)

	// 満席間近リストが変わる可能性があるため再計算を予約する
	if s.enqueuer != nil {
		if err := s.enqueuer.Enqueue(queue.Job{Name: JobAnnounceRecompute}); err != nil {
			slog.Warn("アナウンス再計算ジョブの投入に失敗しました",
				slog.String("error", err.Error()),
			)
		}
	}

	return conf, nil
}

// Update は会議の部分更新を行う。主催者のみが更新できる。
// patchの非空フィールドのみを適用し、開始日が変わった場合はmonthを
// 再導出する。seatsAvailableとmaxAttendeesの整合は再検証しない
// （既存挙動の維持）。
func (s *Service) Update(ctx context.Context, ident model.Identity, websafeKey string, patch UpdatePatch) (*model.Conference, error) {
	if ident.ID == "" {
		return nil, model.NewUnauthorizedError()
	}

	conf, err := s.findByKey(ctx, websafeKey)
	if err != nil {
		return nil, err
	}

	if conf.OrganizerUserID != ident.ID {
		return nil, model.NewForbiddenError()
	}

	if name := s.sanitizer.Sanitize(patch.Name); name != "" {
		conf.Name = name
	}
	if desc := s.sanitizer.Sanitize(patch.Description); desc != "" {
		conf.Description = desc
	}
	if city := s.sanitizer.Sanitize(patch.City); city != "" {
		conf.City = city
	}
	if topics := s.sanitizer.SanitizeAll(patch.Topics); len(topics) > 0 {
		conf.Topics = topics
	}
	if patch.StartDate != nil {
		conf.StartDate = patch.StartDate
		conf.Month = monthOf(patch.StartDate)
	}
	if patch.EndDate != nil {
		conf.EndDate = patch.EndDate
	}
	if patch.MaxAttendees != nil {
		if *patch.MaxAttendees < 0 {
			return nil, model.NewValidationError("最大参加者数は0以上で指定してください")
		}
		conf.MaxAttendees = *patch.MaxAttendees
	}

	conf.UpdatedAt = time.Now()
	if err := s.confRepo.Update(ctx, conf); err != nil {
		return nil, fmt.Errorf("会議の更新に失敗しました: %w", err)
	}

	return conf, nil
}

// Get はwebsafeキーで会議を取得し、主催者表示名を解決して返す。
func (s *Service) Get(ctx context.Context, websafeKey string) (*WithOrganizer, error) {
	conf, err := s.findByKey(ctx, websafeKey)
	if err != nil {
		return nil, err
	}

	results, err := s.withOrganizerNames(ctx, []*model.Conference{conf})
	if err != nil {
		return nil, err
	}
	return &results[0], nil
}

// ListCreated は呼び出し元が主催する会議一覧を返す。
func (s *Service) ListCreated(ctx context.Context, ident model.Identity) ([]WithOrganizer, error) {
	if ident.ID == "" {
		return nil, model.NewUnauthorizedError()
	}

	conferences, err := s.confRepo.ListByOrganizer(ctx, ident.ID)
	if err != nil {
		return nil, fmt.Errorf("主催会議一覧の取得に失敗しました: %w", err)
	}

	return s.withOrganizerNames(ctx, conferences)
}

// ListToAttend は呼び出し元の参加予定リストを会議エンティティに解決して返す。
// プロフィールが未作成の場合は作成する（遅延作成の不変条件）。
func (s *Service) ListToAttend(ctx context.Context, ident model.Identity) ([]WithOrganizer, error) {
	prof, err := s.profiles.GetOrCreate(ctx, ident)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(prof.ConferenceKeysToAttend))
	for _, key := range prof.ConferenceKeysToAttend {
		_, confID, err := model.DecodeConferenceKey(key)
		if err != nil {
			slog.Warn("参加予定リストに不正なキーが含まれています",
				slog.String("user_id", prof.UserID),
				slog.String("key", key),
			)
			continue
		}
		ids = append(ids, confID)
	}

	conferences, err := s.confRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("参加予定会議の取得に失敗しました: %w", err)
	}

	return s.withOrganizerNames(ctx, conferences)
}

// Query はフィルタ列を検証・変換して会議を検索する。
// 不等号演算子を使用できるフィールドは最大1つ。
func (s *Service) Query(ctx context.Context, filters []QueryFilter) ([]WithOrganizer, error) {
	formatted, err := formatFilters(filters)
	if err != nil {
		return nil, err
	}

	conferences, err := s.confRepo.Query(ctx, formatted)
	if err != nil {
		return nil, fmt.Errorf("会議の検索に失敗しました: %w", err)
	}

	return s.withOrganizerNames(ctx, conferences)
}

// findByKey はwebsafeキーを解決して会議を取得する。
// キーの主催者部分が会議の主催者と一致しない場合も存在しない扱いにする。
func (s *Service) findByKey(ctx context.Context, websafeKey string) (*model.Conference, error) {
	organizerID, confID, err := model.DecodeConferenceKey(websafeKey)
	if err != nil {
		return nil, model.NewInvalidKeyError(websafeKey)
	}

	conf, err := s.confRepo.FindByID(ctx, confID)
	if err != nil {
		return nil, fmt.Errorf("会議の取得に失敗しました: %w", err)
	}
	if conf == nil || conf.OrganizerUserID != organizerID {
		return nil, model.NewConferenceNotFoundError(websafeKey)
	}
	return conf, nil
}

// withOrganizerNames は会議列の主催者表示名を一括解決する。
// 主催者プロフィールが見つからない場合は空文字列のままにする。
func (s *Service) withOrganizerNames(ctx context.Context, conferences []*model.Conference) ([]WithOrganizer, error) {
	organizerIDs := make([]string, 0, len(conferences))
	seen := make(map[string]bool, len(conferences))
	for _, conf := range conferences {
		if !seen[conf.OrganizerUserID] {
			seen[conf.OrganizerUserID] = true
			organizerIDs = append(organizerIDs, conf.OrganizerUserID)
		}
	}

	profiles, err := s.profileRepo.FindByIDs(ctx, organizerIDs)
	if err != nil {
		return nil, fmt.Errorf("主催者プロフィールの取得に失敗しました: %w", err)
	}

	results := make([]WithOrganizer, 0, len(conferences))
	for _, conf := range conferences {
		w := WithOrganizer{Conference: conf}
		if prof, ok := profiles[conf.OrganizerUserID]; ok {
			w.OrganizerDisplayName = prof.DisplayName
		}
		results = append(results, w)
	}
	return results, nil
}

// monthOf は開始日から月（1-12）を導出する。未設定の場合は0。
func monthOf(startDate *time.Time) int {
	if startDate == nil {
		return 0
	}
	return int(startDate.Month())
}
