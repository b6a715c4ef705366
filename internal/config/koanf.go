package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// nomi storici delle variabili d'ambiente dei servizi -> chiave koanf
var envMappings = map[string]string{
	"port":         "server.port",
	"http_port":    "server.port",
	"cors_origins": "server.cors_origins",
	"rate_limit":   "server.rate_limit_requests",
	"log_level":    "logging.level",
	"log_format":   "logging.format",
	"log_caller":   "logging.caller",
	"db_path":      "store.path",

	"efficiency_data":   "data.benchmarks_csv",
	"market_price_data": "data.prices_csv",

	"predictor_addr":    "predictor.addr",
	"predictor_timeout": "predictor.timeout",

	"mqtt_host":      "mqtt.host",
	"mqtt_port":      "mqtt.port",
	"mqtt_user":      "mqtt.user",
	"mqtt_pass":      "mqtt.password",
	"mqtt_password":  "mqtt.password",
	"mqtt_client_id": "mqtt.client_id",

	"influx_url":    "influx.url",
	"influx_token":  "influx.token",
	"influx_org":    "influx.org",
	"influx_bucket": "influx.bucket",
	"measurement":   "influx.measurement",

	"scores_url":         "upstream.scores_url",
	"upstream_timeout":   "upstream.timeout",
	"cb_rest_fails":      "upstream.breaker.failures",
	"cb_rest_open":       "upstream.breaker.open_for",
	"cb_predictor_fails": "predictor.breaker.failures",
	"cb_predictor_open":  "predictor.breaker.open_for",

	"analyzer_interval": "analyzer.interval",
	"reading_topic":     "analyzer.reading_topic",
	"score_topic":       "analyzer.score_topic",
	"dedup_ttl":         "analyzer.dedup_ttl",

	"sim_farms":    "simulator.farms",
	"sim_interval": "simulator.interval",
	"sim_area_ha":  "simulator.area_ha",
	"sim_seed":     "simulator.seed",

	"default_farm_area":    "business.default_farm_area",
	"default_currency":     "business.currency",
	"confidence_threshold": "business.confidence_threshold",
}

var sliceConfigPaths = []string{
	"server.cors_origins",
	"simulator.farms",
}

// Load legge default, file opzionale ed env, poi valida.
func Load() (*Config, error) {
	return load(os.Getenv(ConfigPathEnvVar))
}

func load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := splitSlices(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// chiavi non mappate -> "" (ignorate dal provider)
func envTransform(key string) string {
	return envMappings[strings.ToLower(key)]
}

func splitSlices(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}
