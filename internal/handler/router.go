package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/cardoctor/internal/metrics"
	"github.com/hitoshi/cardoctor/internal/middleware"
	"github.com/hitoshi/cardoctor/internal/repository"
)

// csrfExemptPaths はログイン状態に関係なく呼ばれるためCSRF検証を行わないパス。
var csrfExemptPaths = []string{"/jwtToken", "/logout"}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ストア
	Services repository.ServiceRepository
	Orders   repository.OrderRepository
	Pinger   repository.Pinger

	// 認証
	Issuer     TokenIssuerInterface
	Verifier   middleware.TokenVerifier
	Authorizer OrderAuthorizer
	AuthConfig AuthHandlerConfig

	// ミドルウェア依存
	Logger             *slog.Logger
	CORSAllowedOrigins []string
	CSRFEnabled        bool

	// メトリクス。Recorderがnilの場合は記録しない
	Recorder       metrics.Recorder
	MetricsHandler http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → RequestID → Logging → Metrics → SecurityHeaders → CORS → CSRF(任意)
//
// 注文の参照・更新・削除ルート（/service/orders）にはAccessGateを適用する。
func NewRouter(deps *RouterDeps) http.Handler {
	recorder := deps.Recorder
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewLoggingMiddleware(logger))
	r.Use(middleware.NewMetricsMiddleware(recorder))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigins))

	csrfConfig := middleware.CSRFConfig{
		CookieSecure:   deps.AuthConfig.CookieSecure,
		CookieDomain:   deps.AuthConfig.CookieDomain,
		CookieSameSite: deps.AuthConfig.CookieSameSite,
		ExemptPaths:    csrfExemptPaths,
	}
	if deps.CSRFEnabled {
		r.Use(middleware.NewCSRFMiddleware(csrfConfig))
		r.Get("/csrf-token", middleware.NewCSRFTokenHandler(csrfConfig).ServeHTTP)
	}

	authHandler := NewAuthHandler(deps.Issuer, deps.AuthConfig, recorder)
	serviceHandler := NewServiceHandler(deps.Services)
	orderHandler := NewOrderHandler(deps.Orders, deps.Authorizer, recorder)

	// --- 認証不要のルート ---

	r.Get("/", Root)
	r.Get("/health", NewHealthHandler(deps.Pinger))
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	r.Post("/jwtToken", authHandler.IssueToken)
	r.Post("/logout", authHandler.Logout)

	r.Get("/services", serviceHandler.ListServices)
	r.Get("/services/{id}", serviceHandler.GetService)

	r.Post("/service/order", orderHandler.CreateOrder)

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAccessGate(deps.Verifier, recorder))

		r.Get("/service/orders", orderHandler.ListOrders)
		r.Patch("/service/orders/{id}", orderHandler.UpdateOrderStatus)
		r.Delete("/service/orders/{id}", orderHandler.DeleteOrder)
	})

	return r
}
