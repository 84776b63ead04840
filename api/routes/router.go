package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jgstylez/blackowndemand-backend/api/controllers"
	paymentcontrollers "github.com/jgstylez/blackowndemand-backend/api/controllers/payments"
	"github.com/jgstylez/blackowndemand-backend/api/middleware"
	"github.com/jgstylez/blackowndemand-backend/api/responses"
	"github.com/jgstylez/blackowndemand-backend/pkg/config"
	"github.com/jgstylez/blackowndemand-backend/pkg/db"
	"github.com/jgstylez/blackowndemand-backend/pkg/logger"
	"github.com/jgstylez/blackowndemand-backend/pkg/redis"
)

// NewRouter assembles the HTTP surface: health probes, metrics, and the
// payment endpoint with its CORS and rate-limit envelope.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	paymentService paymentcontrollers.PaymentService,
	promRegistry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		responses.WriteJSON(w, http.StatusMethodNotAllowed, responses.ErrorBody{Error: "Method not allowed"})
	})

	var redisPinger redis.Pinger
	if redisClient != nil {
		redisPinger = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	paymentPolicy := middleware.NewPaymentRateLimitPolicy(
		"payments",
		cfg.RateLimit.PaymentWindow,
		cfg.RateLimit.PaymentIPLimit,
		cfg.RateLimit.PaymentEmailLimit,
	)

	// A typed nil *redis.Client must not reach the limiter as a usable store.
	var limiterStore middleware.RateLimiterStore
	if redisClient != nil {
		limiterStore = redisClient
	}

	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Use(middleware.PaymentCORSHeaders(), middleware.PaymentCORS())
		// Preflights with Access-Control-Request-Method are answered by the
		// CORS middleware; this handler catches bare OPTIONS probes.
		r.Options("/process", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		r.With(middleware.PaymentRateLimit(paymentPolicy, limiterStore, logg)).
			Post("/process", paymentcontrollers.Process(paymentService, logg))
	})

	return r
}
