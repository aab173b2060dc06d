package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/confhub/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// ドメインサービス
	ProfileService      ProfileServiceInterface
	ConferenceService   ConferenceServiceInterface
	RegistrationService RegistrationServiceInterface
	AnnouncementService AnnouncementGetter

	// 運用エンドポイント
	MetricsHandler http.Handler
	HealthHandler  http.HandlerFunc
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → [Session → RateLimit(General)]
//
// 会議詳細・検索・アナウンスは未認証でも参照できるため、
// セッションミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	profileHandler := NewProfileHandler(deps.ProfileService)
	confHandler := NewConferenceHandler(deps.ConferenceService)
	regHandler := NewRegistrationHandler(deps.RegistrationService)
	announceHandler := NewAnnouncementHandler(deps.AnnouncementService)

	// --- 認証不要のルート ---

	if deps.HealthHandler != nil {
		r.Get("/health", deps.HealthHandler)
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// 認証ルート（OAuthフロー）
	r.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.Login)
		r.Get("/google/callback", authHandler.Callback)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// 公開API（閲覧系）
	r.Get("/api/announcement", announceHandler.Get)
	r.Post("/api/conferences/query", confHandler.Query)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Session → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// プロフィール管理
		r.Route("/api/profile", func(r chi.Router) {
			r.Get("/", profileHandler.Get)
			r.Post("/", profileHandler.Save)
		})

		// 会議管理
		// POST /api/conferences - 会議作成（作成専用レート制限を追加）
		r.With(deps.RateLimiter.ConferenceCreationMiddleware()).Post("/api/conferences", confHandler.Create)
		r.Get("/api/conferences/created", confHandler.ListCreated)
		r.Get("/api/conferences/attending", confHandler.ListToAttend)
		r.Put("/api/conferences/{key}", confHandler.Update)

		// 会議登録
		r.Route("/api/conferences/{key}/registration", func(r chi.Router) {
			r.Post("/", regHandler.Register)
			r.Delete("/", regHandler.Unregister)
		})
	})

	// 会議詳細は未認証でも参照できる。固定パス（created等）が
	// 優先されるよう、パラメータ付きルートは最後に登録する。
	r.Get("/api/conferences/{key}", confHandler.Get)

	return r
}
