package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/service-center/internal/metrics"
	"github.com/ukydev/service-center/internal/middleware"
	"github.com/ukydev/service-center/internal/models"
	"github.com/ukydev/service-center/internal/ratelimit"
)

// RouterConfig holds what the HTTP surface is built from. Limiter, Metrics
// and Gatherer are optional. TrustProxy takes the client address from
// forwarding headers and must only be set behind a proxy that overwrites them.
type RouterConfig struct {
	Auth          *AuthHandler
	Workflow      *WorkflowHandler
	Authenticator *middleware.AuthMiddleware
	Limiter       ratelimit.Limiter
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	Logger        log.FieldLogger
	TrustProxy    bool
}

// NewRouter builds the HTTP routes. Registration, login and the probes are
// public; everything else requires a bearer token.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	r := chi.NewRouter()
	if cfg.TrustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(logger))
	r.Use(chimw.Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	if cfg.Limiter != nil {
		r.Use(middleware.RateLimit(cfg.Limiter))
	}

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, message{"message": "Vehicle Service Center API is live"})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, message{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	wf := cfg.Workflow
	authed := cfg.Authenticator.Authenticate

	r.Route("/customer", func(r chi.Router) {
		r.Post("/register", cfg.Auth.Register(models.RoleCustomer))
		r.Post("/login", cfg.Auth.Login(models.RoleCustomer))
		r.Group(func(r chi.Router) {
			r.Use(authed)
			r.Post("/schedule_service", wf.ScheduleService)
			r.Get("/service_requests", wf.CustomerServiceRequests)
			r.Post("/initiate_payment", wf.InitiatePayment)
			r.Get("/completed_transactions", wf.CustomerTransactions)
		})
	})

	r.Route("/mechanic", func(r chi.Router) {
		r.Post("/register", cfg.Auth.Register(models.RoleMechanic))
		r.Post("/login", cfg.Auth.Login(models.RoleMechanic))
		r.Group(func(r chi.Router) {
			r.Use(authed)
			r.Get("/assigned_requests", wf.AssignedRequests)
			r.Post("/update_request_status/{request_id}", wf.UpdateRequestStatus)
			r.Post("/mark_complete/{request_id}", wf.MarkComplete)
			r.Post("/submit_update/{request_id}", wf.SubmitUpdate)
			r.Post("/record_inventory/{request_id}", wf.RecordInventory)
		})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Post("/register", cfg.Auth.Register(models.RoleAdmin))
		r.Post("/login", cfg.Auth.Login(models.RoleAdmin))
		r.Group(func(r chi.Router) {
			r.Use(authed)
			r.Get("/service_requests", wf.AllServiceRequests)
			r.Post("/update_service_status/{request_id}", wf.UpdateServiceStatus)
			r.Post("/verify_update/{request_id}", wf.VerifyUpdate)
			r.Post("/generate_bill", wf.GenerateBill)
			r.Get("/completed_transactions", wf.AllTransactions)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	})
	return r
}
