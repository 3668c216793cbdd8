// Package http wires the service onto net/http. Handlers translate between
// the wire shapes in pkg/api and the services; everything behind /api/v1 runs
// through AuthMiddleware.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/bot"
	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/service"
	"github.com/plantbuddy/plantbuddy/internal/plantbuddy/store"
	"github.com/plantbuddy/plantbuddy/pkg/httpx"
	"github.com/plantbuddy/plantbuddy/pkg/initdata"
	"github.com/plantbuddy/plantbuddy/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	verifier      *initdata.Verifier
	webhookSecret string
	buildVersion  string
	startTime     time.Time
	logger        *slog.Logger

	store           store.Store
	SessionService  *service.SessionService
	ScheduleService *service.ScheduleService
	PlantService    *service.PlantService
	Dispatcher      *bot.Dispatcher
}

func NewRouter(
	verifier *initdata.Verifier,
	webhookSecret, buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:           http.NewServeMux(),
		verifier:      verifier,
		webhookSecret: webhookSecret,
		buildVersion:  buildVersion,
		startTime:     time.Now(),
		store:         st,
		logger:        logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSession()
	r.registerPlants()
	r.registerWebhook()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSession() {
	sessionHandler := &SessionHandler{
		Verifier: r.verifier,
		Sessions: r.SessionService,
	}

	// Token exchange does HMAC verification on every call, keep it strict.
	r.Mux.Handle("POST /api/v1/session",
		httpx.Chain(sessionHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerPlants() {
	authn := AuthMiddleware(r.verifier, r.SessionService)

	todayHandler := &TodayHandler{Schedule: r.ScheduleService}
	waterHandler := &WaterHandler{Schedule: r.ScheduleService}
	plantsHandler := &PlantsHandler{Plants: r.PlantService}

	handle := func(pattern string, h http.Handler, limit httpx.RateLimitConfig) {
		r.Mux.Handle(pattern, httpx.Chain(h,
			authn,
			httpx.RateLimitByUser(limit),
		))
	}

	handle("GET /api/v1/today", todayHandler, httpx.LenientLimit)
	handle("POST /api/v1/water", waterHandler, httpx.ModerateLimit)

	handle("GET /api/v1/plants", http.HandlerFunc(plantsHandler.HandleList), httpx.LenientLimit)
	handle("POST /api/v1/plants", http.HandlerFunc(plantsHandler.HandleCreate), httpx.ModerateLimit)
	handle("PATCH /api/v1/plants/{id}", http.HandlerFunc(plantsHandler.HandleUpdate), httpx.ModerateLimit)
	handle("POST /api/v1/plants/{id}/archive", http.HandlerFunc(plantsHandler.HandleArchive), httpx.ModerateLimit)
	handle("POST /api/v1/plants/{id}/restore", http.HandlerFunc(plantsHandler.HandleRestore), httpx.ModerateLimit)
	handle("GET /api/v1/plants/{id}/log", http.HandlerFunc(plantsHandler.HandleLog), httpx.LenientLimit)
}

func (r *Router) registerWebhook() {
	webhookHandler := &WebhookHandler{
		Dispatcher: r.Dispatcher,
		Secret:     r.webhookSecret,
	}

	// The secret token gates this route; the limit only caps floods.
	r.Mux.Handle("POST /webhook",
		httpx.Chain(webhookHandler,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
