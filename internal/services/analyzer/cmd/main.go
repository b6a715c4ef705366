package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LeonardoBeccarini/agrisense/internal/config"
	"github.com/LeonardoBeccarini/agrisense/internal/logging"
	"github.com/LeonardoBeccarini/agrisense/internal/services/analyzer"
	"github.com/LeonardoBeccarini/agrisense/internal/services/efficiency"
	"github.com/LeonardoBeccarini/agrisense/pkg/dedup"
	"github.com/LeonardoBeccarini/agrisense/pkg/rabbitmq"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("config")
	}
	logging.Init(cfg.Logging.Logger())
	lg := logging.Component("analyzer")

	client, err := rabbitmq.NewRabbitMQConn(ctx, &rabbitmq.RabbitMQConfig{
		Host:     cfg.MQTT.Host,
		Port:     cfg.MQTT.Port,
		User:     cfg.MQTT.User,
		Password: cfg.MQTT.Password,
		ClientID: cfg.MQTT.ClientID + "-analyzer",
	})
	if err != nil {
		lg.Fatal().Err(err).Msg("mqtt connect failed")
	}
	defer rabbitmq.CloseRabbitMQConn(client)

	// handler iniettato dal servizio in Start
	consumer := rabbitmq.NewConsumer(client, cfg.Analyzer.ReadingTopic, nil)
	publisher := rabbitmq.NewPublisher(client, cfg.Analyzer.ScoreTopic)

	engine := efficiency.NewEngine(efficiency.LoadBenchmarks(cfg.Data.BenchmarksCSV))
	svc := analyzer.NewService(consumer, publisher, engine,
		dedup.New(cfg.Analyzer.DedupTTL, 0), cfg.Analyzer.Interval, cfg.Business.DefaultFarmArea)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if !client.IsConnectionOpen() {
			http.Error(w, "mqtt disconnected", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           mux,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Error().Err(err).Msg("metrics server error")
		}
	}()

	lg.Info().Str("readings", cfg.Analyzer.ReadingTopic).Str("scores", cfg.Analyzer.ScoreTopic).
		Dur("interval", cfg.Analyzer.Interval).Msg("analyzer running")
	if err := svc.Start(ctx); err != nil {
		lg.Error().Err(err).Msg("analyzer stopped")
	}

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	lg.Info().Msg("analyzer: shutdown complete")
}
