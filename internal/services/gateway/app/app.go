// Package app è il gateway HTTP di agrisense: motore di efficienza, servizi
// di previsione, mercato, workflow, anagrafica farm e dashboard.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LeonardoBeccarini/agrisense/internal/config"
	"github.com/LeonardoBeccarini/agrisense/internal/services/crop"
	"github.com/LeonardoBeccarini/agrisense/internal/services/efficiency"
	"github.com/LeonardoBeccarini/agrisense/internal/services/market"
	"github.com/LeonardoBeccarini/agrisense/internal/services/persistence"
	"github.com/LeonardoBeccarini/agrisense/internal/services/workflow"
	"github.com/LeonardoBeccarini/agrisense/internal/services/yield"
)

type Config struct {
	RequestTimeout    time.Duration
	CORSOrigins       []string
	RateLimitRequests int
	RateLimitWindow   time.Duration

	ScoresURL       string
	UpstreamTimeout time.Duration
	Breaker         config.BreakerConfig
}

// ConfigFrom estrae dalla configurazione condivisa la parte del gateway.
func ConfigFrom(c *config.Config) Config {
	return Config{
		RequestTimeout:    c.Server.RequestTimeout,
		CORSOrigins:       c.Server.CORSOrigins,
		RateLimitRequests: c.Server.RateLimitRequests,
		RateLimitWindow:   c.Server.RateLimitWindow,
		ScoresURL:         c.Upstream.ScoresURL,
		UpstreamTimeout:   c.Upstream.Timeout,
		Breaker:           c.Upstream.Breaker,
	}
}

// Deps are the domain services behind the routes. Store may be nil, in which
// case the farm routes answer 500 and the workflow never persists.
type Deps struct {
	Engine   *efficiency.Engine
	Crops    *crop.Service
	Yields   *yield.Service
	Market   *market.Service
	Workflow *workflow.Service
	Store    *persistence.Store
}

type Gateway struct {
	cfg    Config
	deps   Deps
	scores *Upstream

	defaultUserID int64
	lastScores    *scoreCache
}

func NewGateway(cfg Config, deps Deps) *Gateway {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 15 * time.Second
	}
	if cfg.UpstreamTimeout <= 0 {
		cfg.UpstreamTimeout = 3 * time.Second
	}
	return &Gateway{
		cfg:        cfg,
		deps:       deps,
		scores:     NewUpstream("score-store", cfg.ScoresURL, "/scores/latest", cfg.UpstreamTimeout, cfg.Breaker),
		lastScores: &scoreCache{},
	}
}

// Init crea l'utente di default a cui vengono assegnate le farm senza user_id.
func (g *Gateway) Init(ctx context.Context) error {
	if g.deps.Store == nil {
		return nil
	}
	u, err := g.deps.Store.EnsureDefaultUser(ctx)
	if err != nil {
		return err
	}
	g.defaultUserID = u.ID
	return nil
}

func (g *Gateway) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(accessLog)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: g.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-Data-Source"},
		MaxAge:         300,
	}))
	r.Use(metricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/", g.handleIndex)

	r.Route("/api", func(r chi.Router) {
		if g.cfg.RateLimitRequests > 0 {
			r.Use(httprate.LimitByIP(g.cfg.RateLimitRequests, g.cfg.RateLimitWindow))
		}
		r.Use(chimiddleware.Timeout(g.cfg.RequestTimeout))

		r.Get("/health", g.handleIndex)

		r.Post("/calculate-efficiency", g.handleCalculateEfficiency)
		r.Post("/compare-benchmarks", g.handleCompareBenchmarks)
		r.Get("/benchmarks", g.handleBenchmarks)

		r.Post("/recommend-crop", g.handleRecommendCrop)
		r.Get("/crops/{crop}/requirements", g.handleCropRequirements)
		r.Post("/predict-yield", g.handlePredictYield)
		r.Post("/yield-potential", g.handleYieldPotential)

		r.Get("/market-price", g.handleMarketPrice)
		r.Post("/predict-revenue", g.handlePredictRevenue)
		r.Post("/market-prices/import", g.handleImportPrices)

		r.Post("/farmer-workflow", g.handleWorkflow)

		r.Route("/farms", func(r chi.Router) {
			r.Get("/", g.handleListFarms)
			r.Post("/", g.handleCreateFarm)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", g.handleGetFarm)
				r.Put("/", g.handleUpdateFarm)
				r.Delete("/", g.handleDeleteFarm)
				r.Get("/predictions", g.handleFarmPredictions)
				r.Get("/insights", g.handleFarmInsights)
				r.Post("/insights", g.handleAddInsight)
				r.Get("/efficiency-trend", g.handleFarmTrend)
			})
		})

		r.Get("/dashboard", g.handleDashboard)
	})
	return r
}

var endpoints = map[string]string{
	"crop_recommendation": "/api/recommend-crop",
	"yield_prediction":    "/api/predict-yield",
	"yield_potential":     "/api/yield-potential",
	"farm_efficiency":     "/api/calculate-efficiency",
	"benchmark_compare":   "/api/compare-benchmarks",
	"market_price":        "/api/market-price",
	"revenue_prediction":  "/api/predict-revenue",
	"farmer_workflow":     "/api/farmer-workflow",
	"farms":               "/api/farms",
	"dashboard":           "/api/dashboard",
}

func (g *Gateway) handleIndex(w http.ResponseWriter, _ *http.Request) {
	respond(w, http.StatusOK, "AI Agricultural Platform API", map[string]any{
		"version":   "1.0.0",
		"endpoints": endpoints,
	})
}
