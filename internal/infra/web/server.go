package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"course-marketplace/internal/domain/ports/adapter"
	"course-marketplace/internal/infra/redis"
	"course-marketplace/internal/usecase"
)

type Server struct {
	purchaseUC    usecase.PurchaseUseCase
	gateway       adapter.PaymentGateway
	auth          *AuthManager
	limiter       *redis.RateLimiter
	checkoutLimit int
	webhookPath   string
	log           *zerolog.Logger
}

func NewServer(
	purchaseUC usecase.PurchaseUseCase,
	gateway adapter.PaymentGateway,
	auth *AuthManager,
	limiter *redis.RateLimiter,
	checkoutLimit int,
	webhookPath string,
	logger *zerolog.Logger,
) *Server {
	if webhookPath == "" {
		webhookPath = "/api/v1/webhook/paymee"
	}
	return &Server{
		purchaseUC:    purchaseUC,
		gateway:       gateway,
		auth:          auth,
		limiter:       limiter,
		checkoutLimit: checkoutLimit,
		webhookPath:   webhookPath,
		log:           logger,
	}
}

// Routes builds the router. The webhook route is deliberately outside the
// auth group: the gateway does not send credentials, only the payload
// checksum.
func (s *Server) Routes() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post(s.webhookPath, s.handleWebhook)

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/purchase/initiate", s.handleInitiate)
			r.Post("/purchase/{paymentID}/checkout", s.handleCheckout)
			r.Post("/purchase/complete", s.handleComplete)
			r.Get("/purchase/{paymentID}/status", s.handleStatus)
			r.Get("/purchase/history", s.handleHistory)
			r.Get("/plans", s.handlePlans)

			r.Group(func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Post("/admin/refund", s.handleRefund)
				r.Get("/admin/revenue", s.handleRevenue)
			})
		})
	})
	return r
}

// authMiddleware validates the bearer token and stashes the claims on the
// request context.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFrom(r.Context())
		if !ok || !claims.IsAdmin() {
			writeJSONError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}
