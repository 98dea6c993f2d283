package http

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/microlearn/payments/internal/application/checkout"
	"github.com/microlearn/payments/internal/domain/payment"
	"github.com/microlearn/payments/internal/infrastructure/config"
	"github.com/microlearn/payments/internal/infrastructure/observability"
	"github.com/microlearn/payments/internal/interfaces/http/handlers"
	custommw "github.com/microlearn/payments/internal/middleware"
)

// RouterDeps carries everything the HTTP surface needs.
type RouterDeps struct {
	Pool        *pgxpool.Pool
	RedisClient *redis.Client
	InitiateUC  *checkout.InitiatePaymentUseCase
	SuccessUC   *checkout.ProcessSuccessUseCase
	FailUC      *checkout.FailPaymentUseCase
	PaymentRepo payment.Repository
	Metrics     *observability.Metrics
	CORSConfig  config.CORSConfig
	JWTSecret   string
	FrontendURL string
	Logger      zerolog.Logger
}

// NewRouter wires the service's routes. Gateway callback endpoints carry no
// auth: the calls come from SSLCommerz, and nothing in them is trusted
// before the server-side validate call anyway.
func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(custommw.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.CORSConfig.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: deps.CORSConfig.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(custommw.Metrics(deps.Metrics))

	healthH := handlers.NewHealthHandler(deps.Pool, deps.RedisClient)
	paymentH := handlers.NewPaymentHandler(
		deps.InitiateUC,
		deps.SuccessUC,
		deps.FailUC,
		deps.PaymentRepo,
		deps.FrontendURL,
		deps.Metrics,
		deps.Logger,
	)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/courses", func(r chi.Router) {
		auth := custommw.RequireAuth(deps.JWTSecret)

		r.With(auth).Post("/payment/initiate", paymentH.Initiate)
		r.With(auth).Get("/payment/history", paymentH.History)
		r.With(auth).Get("/{courseID}/purchased", paymentH.Purchased)

		// Gateway callbacks
		r.Post("/payment/success", paymentH.Success)
		r.Post("/payment/fail", paymentH.Fail)
		r.Post("/payment/cancel", paymentH.Cancel)
		r.Post("/payment/ipn", paymentH.IPN)
	})

	return r
}
