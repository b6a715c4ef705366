package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/LeonardoBeccarini/agrisense/internal/config"
	"github.com/LeonardoBeccarini/agrisense/internal/logging"
	"github.com/LeonardoBeccarini/agrisense/internal/model"
	"github.com/LeonardoBeccarini/agrisense/internal/predictor"
	"github.com/LeonardoBeccarini/agrisense/internal/services/crop"
	"github.com/LeonardoBeccarini/agrisense/internal/services/efficiency"
	"github.com/LeonardoBeccarini/agrisense/internal/services/gateway/app"
	"github.com/LeonardoBeccarini/agrisense/internal/services/market"
	"github.com/LeonardoBeccarini/agrisense/internal/services/persistence"
	"github.com/LeonardoBeccarini/agrisense/internal/services/workflow"
	"github.com/LeonardoBeccarini/agrisense/internal/services/yield"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("config")
	}
	logging.Init(cfg.Logging.Logger())
	lg := logging.Component("gateway")

	store, err := persistence.OpenStore(cfg.Store.Path)
	if err != nil {
		lg.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("open store failed")
	}
	defer store.Close()

	// benchmark caricati una volta sola, poi immutabili
	engine := efficiency.NewEngine(efficiency.LoadBenchmarks(cfg.Data.BenchmarksCSV))

	// modello remoto opzionale: senza indirizzo si usano solo le regole
	var remote predictor.Predictor
	if cfg.Predictor.Addr != "" {
		c, err := predictor.Dial(cfg.Predictor.Addr, cfg.Predictor)
		if err != nil {
			lg.Warn().Err(err).Str("addr", cfg.Predictor.Addr).Msg("predictor unavailable, using fallback rules")
		} else {
			defer c.Close()
			remote = c
		}
	}

	prices := market.NewService(loadPrices(ctx, cfg, store))
	crops := crop.NewService(remote)
	yields := yield.NewService(remote)

	gw := app.NewGateway(app.ConfigFrom(cfg), app.Deps{
		Engine:   engine,
		Crops:    crops,
		Yields:   yields,
		Market:   prices,
		Workflow: workflow.NewService(crops, yields, prices, engine, store, cfg.Business.Currency),
		Store:    store,
	})
	if err := gw.Init(ctx); err != nil {
		lg.Fatal().Err(err).Msg("gateway init failed")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           gw.Router(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	go func() {
		lg.Info().Str("addr", srv.Addr).Str("benchmarks", engine.Benchmarks().Source()).Msg("gateway listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()
	stop()

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	lg.Info().Msg("gateway: shutdown complete")
}

// loadPrices: lo store ha la precedenza sul CSV; un CSV letto al primo avvio
// viene importato nello store.
func loadPrices(ctx context.Context, cfg *config.Config, store *persistence.Store) []model.PricePoint {
	lg := logging.Component("gateway")
	stored, err := store.MarketPrices(ctx)
	if err != nil {
		lg.Warn().Err(err).Msg("read stored market prices")
	}
	if len(stored) > 0 || cfg.Data.PricesCSV == "" {
		return stored
	}
	points, err := market.LoadCSV(cfg.Data.PricesCSV)
	if err != nil {
		lg.Warn().Err(err).Str("path", cfg.Data.PricesCSV).Msg("price dataset unavailable, using sample prices")
		return nil
	}
	if n, err := store.ImportMarketPrices(ctx, points); err != nil {
		lg.Warn().Err(err).Msg("import price dataset")
	} else {
		lg.Info().Int("rows", n).Msg("price dataset imported")
	}
	return points
}
