package main

import (
	"context"
	"flag"
	"os/signal"
	"strings"
	"syscall"
	"time"

	farmSimulator "github.com/LeonardoBeccarini/agrisense/internal/farm-simulator"

	"github.com/LeonardoBeccarini/agrisense/internal/config"
	"github.com/LeonardoBeccarini/agrisense/internal/logging"
	"github.com/LeonardoBeccarini/agrisense/pkg/rabbitmq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("config")
	}

	// i flag hanno la precedenza sulla configurazione
	farms := flag.String("farms", strings.Join(cfg.Simulator.Farms, ","), "comma separated farm ids (farm-<id>)")
	interval := flag.Duration("interval", cfg.Simulator.Interval, "publish interval")
	area := flag.Float64("area", cfg.Simulator.AreaHa, "farm area in hectares")
	seed := flag.Int64("seed", cfg.Simulator.Seed, "random seed (0 = time based)")
	flag.Parse()

	logging.Init(cfg.Logging.Logger())
	lg := logging.Component("farm-simulator")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := rabbitmq.NewRabbitMQConn(ctx, &rabbitmq.RabbitMQConfig{
		Host:     cfg.MQTT.Host,
		Port:     cfg.MQTT.Port,
		User:     cfg.MQTT.User,
		Password: cfg.MQTT.Password,
		ClientID: cfg.MQTT.ClientID + "-simulator",
	})
	if err != nil {
		lg.Fatal().Err(err).Msg("mqtt connect failed")
	}
	defer rabbitmq.CloseRabbitMQConn(client)

	base := *seed
	if base == 0 {
		base = time.Now().UnixNano()
	}
	var gens []*farmSimulator.DataGenerator
	for i, id := range strings.Split(*farms, ",") {
		if id = strings.TrimSpace(id); id != "" {
			gens = append(gens, farmSimulator.NewDataGenerator(id, *area, base+int64(i)))
		}
	}
	if len(gens) == 0 {
		lg.Fatal().Msg("no farms configured")
	}

	readingBase := strings.TrimSuffix(cfg.Analyzer.ReadingTopic, "/#")
	publisher := rabbitmq.NewPublisher(client, readingBase)
	consumer := rabbitmq.NewConsumer(client, cfg.Analyzer.ScoreTopic+"/#", nil)

	sim := farmSimulator.NewFarmSimulator(consumer, publisher, gens...)
	lg.Info().Int("farms", len(gens)).Dur("interval", *interval).Str("topic", readingBase).Msg("farm simulator running")
	sim.Start(ctx, *interval)
	lg.Info().Msg("farm-simulator: stopped")
}
