// Package config carica la configurazione condivisa dai servizi agrisense.
//
// Priorità (dalla più bassa): default della struct, file YAML opzionale
// (AGRISENSE_CONFIG), variabili d'ambiente.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LeonardoBeccarini/agrisense/internal/logging"
)

const ConfigPathEnvVar = "AGRISENSE_CONFIG"

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Logging   LoggingConfig   `koanf:"logging"`
	Store     StoreConfig     `koanf:"store"`
	Data      DataConfig      `koanf:"data"`
	Predictor PredictorConfig `koanf:"predictor"`
	MQTT      MQTTConfig      `koanf:"mqtt"`
	Influx    InfluxConfig    `koanf:"influx"`
	Upstream  UpstreamConfig  `koanf:"upstream"`
	Analyzer  AnalyzerConfig  `koanf:"analyzer"`
	Simulator SimulatorConfig `koanf:"simulator"`
	Business  BusinessConfig  `koanf:"business"`
}

type ServerConfig struct {
	Port              string        `koanf:"port"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	RequestTimeout    time.Duration `koanf:"request_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

func (l LoggingConfig) Logger() logging.Config {
	c := logging.DefaultConfig()
	c.Level, c.Format, c.Caller = l.Level, l.Format, l.Caller
	return c
}

type StoreConfig struct {
	Path string `koanf:"path"`
}

// DataConfig: dataset opzionali; se mancano si usano i default.
type DataConfig struct {
	BenchmarksCSV string `koanf:"benchmarks_csv"`
	PricesCSV     string `koanf:"prices_csv"`
}

type BreakerConfig struct {
	Failures int           `koanf:"failures"`
	OpenFor  time.Duration `koanf:"open_for"`
	Interval time.Duration `koanf:"interval"`
}

// PredictorConfig: Addr vuoto = nessun modello remoto, solo regole di fallback.
type PredictorConfig struct {
	Addr    string        `koanf:"addr"`
	Timeout time.Duration `koanf:"timeout"`
	Breaker BreakerConfig `koanf:"breaker"`
}

type MQTTConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	ClientID string `koanf:"client_id"`
}

type InfluxConfig struct {
	URL         string `koanf:"url"`
	Token       string `koanf:"token"`
	Org         string `koanf:"org"`
	Bucket      string `koanf:"bucket"`
	Measurement string `koanf:"measurement"`
}

type UpstreamConfig struct {
	ScoresURL string        `koanf:"scores_url"`
	Timeout   time.Duration `koanf:"timeout"`
	Breaker   BreakerConfig `koanf:"breaker"`
}

type AnalyzerConfig struct {
	Interval     time.Duration `koanf:"interval"`
	ReadingTopic string        `koanf:"reading_topic"`
	ScoreTopic   string        `koanf:"score_topic"`
	DedupTTL     time.Duration `koanf:"dedup_ttl"`
}

type SimulatorConfig struct {
	Farms    []string      `koanf:"farms"`
	Interval time.Duration `koanf:"interval"`
	AreaHa   float64       `koanf:"area_ha"`
	Seed     int64         `koanf:"seed"`
}

type BusinessConfig struct {
	DefaultFarmArea     float64 `koanf:"default_farm_area"`
	Currency            string  `koanf:"currency"`
	ConfidenceThreshold float64 `koanf:"confidence_threshold"`
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Port:              "5000",
			ReadHeaderTimeout: 10 * time.Second,
			RequestTimeout:    15 * time.Second,
			ShutdownTimeout:   5 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Hour,
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Store:   StoreConfig{Path: "agrisense.db"},
		Predictor: PredictorConfig{
			Timeout: 2 * time.Second,
			Breaker: BreakerConfig{Failures: 3, OpenFor: 30 * time.Second, Interval: time.Minute},
		},
		MQTT: MQTTConfig{Host: "localhost", Port: 1883, User: "guest", Password: "guest", ClientID: "agrisense"},
		Influx: InfluxConfig{
			URL:         "http://localhost:8086",
			Org:         "agrisense",
			Bucket:      "farm-efficiency",
			Measurement: "farm_efficiency",
		},
		Upstream: UpstreamConfig{
			ScoresURL: "http://localhost:8080",
			Timeout:   3 * time.Second,
			Breaker:   BreakerConfig{Failures: 3, OpenFor: 10 * time.Second, Interval: time.Minute},
		},
		Analyzer: AnalyzerConfig{
			Interval:     time.Minute,
			ReadingTopic: "farm/readings/#",
			ScoreTopic:   "farm/efficiency",
			DedupTTL:     2 * time.Minute,
		},
		Simulator: SimulatorConfig{
			Farms:    []string{"farm-1"},
			Interval: 10 * time.Second,
			AreaHa:   5,
		},
		Business: BusinessConfig{DefaultFarmArea: 1.0, Currency: "EGP", ConfidenceThreshold: 0.7},
	}
}

// Validate controlla i valori che renderebbero i servizi inutilizzabili.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Port) == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.Server.RateLimitRequests < 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit_requests must be >= 0, got %d", c.Server.RateLimitRequests))
	}
	if c.Server.RateLimitRequests > 0 && c.Server.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("server.rate_limit_window must be > 0 when rate limiting is on"))
	}
	if c.MQTT.Port <= 0 || c.MQTT.Port > 65535 {
		errs = append(errs, fmt.Errorf("mqtt.port out of range: %d", c.MQTT.Port))
	}
	if c.Analyzer.Interval <= 0 {
		errs = append(errs, errors.New("analyzer.interval must be > 0"))
	}
	if c.Business.DefaultFarmArea <= 0 {
		errs = append(errs, errors.New("business.default_farm_area must be > 0"))
	}
	if c.Business.ConfidenceThreshold < 0 || c.Business.ConfidenceThreshold > 1 {
		errs = append(errs, fmt.Errorf("business.confidence_threshold must be in [0,1], got %v", c.Business.ConfidenceThreshold))
	}
	return errors.Join(errs...)
}
