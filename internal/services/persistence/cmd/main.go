package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LeonardoBeccarini/agrisense/internal/config"
	"github.com/LeonardoBeccarini/agrisense/internal/logging"
	persistencepkg "github.com/LeonardoBeccarini/agrisense/internal/services/persistence"
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
	lg := logging.Component("persistence")

	// --- MQTT (RabbitMQ/MQTT) ---
	mqCfg := &rabbitmq.RabbitMQConfig{
		Host:     cfg.MQTT.Host,
		Port:     cfg.MQTT.Port,
		User:     cfg.MQTT.User,
		Password: cfg.MQTT.Password,
		ClientID: cfg.MQTT.ClientID + "-persistence",
	}
	mqClient, err := rabbitmq.NewRabbitMQConn(ctx, mqCfg)
	if err != nil {
		lg.Fatal().Err(err).Msg("mqtt connect failed")
	}
	consumer := rabbitmq.NewConsumer(mqClient, cfg.Analyzer.ScoreTopic+"/#", nil)

	// --- InfluxDB ---
	influxClient := influxdb2.NewClient(cfg.Influx.URL, cfg.Influx.Token)
	defer influxClient.Close()

	svc, err := persistencepkg.NewService(consumer, influxClient, persistencepkg.InfluxConfig{
		URL:         cfg.Influx.URL,
		Token:       cfg.Influx.Token,
		Org:         cfg.Influx.Org,
		Bucket:      cfg.Influx.Bucket,
		Measurement: cfg.Influx.Measurement,
	})
	if err != nil {
		lg.Fatal().Err(err).Msg("persistence init failed")
	}

	mux := persistencepkg.NewHTTPMux(svc,
		persistencepkg.NewHealthHandler(mqClient, influxClient, svc),
		persistencepkg.NewReadyHandler(mqClient, influxClient, svc, cfg.Server.RequestTimeout),
	)
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           mux,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	go func() {
		lg.Info().Str("addr", srv.Addr).Msg("persistence HTTP listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal().Err(err).Msg("http server error")
		}
	}()

	go func() {
		if err := svc.Start(ctx); err != nil {
			lg.Error().Err(err).Msg("consumer stopped")
			stop()
		}
	}()

	<-ctx.Done()
	stop()

	shCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	lg.Info().Msg("persistence: shutdown complete")
}
