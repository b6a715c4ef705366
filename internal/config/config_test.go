package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load("")
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.Business.DefaultFarmArea != 1.0 {
		t.Errorf("DefaultFarmArea = %v, want 1.0", cfg.Business.DefaultFarmArea)
	}
	if cfg.Business.Currency != "EGP" {
		t.Errorf("Currency = %q, want EGP", cfg.Business.Currency)
	}
	if cfg.Business.ConfidenceThreshold != 0.7 {
		t.Errorf("ConfidenceThreshold = %v, want 0.7", cfg.Business.ConfidenceThreshold)
	}
	if cfg.Analyzer.ReadingTopic != "farm/readings/#" {
		t.Errorf("ReadingTopic = %q", cfg.Analyzer.ReadingTopic)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agrisense.yaml")
	yml := strings.Join([]string{
		"mqtt:",
		"  host: broker.file",
		"  port: 1884",
		"analyzer:",
		"  interval: 30s",
		"simulator:",
		"  farms: [north, south]",
	}, "\n")
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("MQTT_HOST", "broker.env")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := load(path)
	if err != nil {
		t.Fatalf("load() error = %v", err)
	}
	if cfg.MQTT.Host != "broker.env" {
		t.Errorf("MQTT.Host = %q, want env override", cfg.MQTT.Host)
	}
	if cfg.MQTT.Port != 1884 {
		t.Errorf("MQTT.Port = %d, want 1884 from file", cfg.MQTT.Port)
	}
	if cfg.Analyzer.Interval != 30*time.Second {
		t.Errorf("Analyzer.Interval = %v, want 30s", cfg.Analyzer.Interval)
	}
	if diff := cmp.Diff([]string{"north", "south"}, cfg.Simulator.Farms); diff != "" {
		t.Errorf("Simulator.Farms mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins); diff != "" {
		t.Errorf("CORSOrigins mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	cfg.MQTT.Port = 0
	cfg.Business.DefaultFarmArea = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, want := range []string{"mqtt.port", "default_farm_area"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error %q does not mention %s", err, want)
		}
	}

	ok := defaultConfig()
	if err := ok.Validate(); err != nil {
		t.Errorf("defaultConfig().Validate() = %v", err)
	}
}

func TestEnvTransform(t *testing.T) {
	if got := envTransform("INFLUX_URL"); got != "influx.url" {
		t.Errorf("envTransform(INFLUX_URL) = %q", got)
	}
	if got := envTransform("HOME"); got != "" {
		t.Errorf("envTransform(HOME) = %q, want empty", got)
	}
}

func TestLoggingConfig(t *testing.T) {
	got := LoggingConfig{Level: "debug", Format: "console", Caller: true}.Logger()
	if got.Level != "debug" || got.Format != "console" || !got.Caller || !got.Timestamp {
		t.Errorf("Logger() = %+v", got)
	}
}
