package persistence

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/LeonardoBeccarini/agrisense/internal/logging"
	"github.com/LeonardoBeccarini/agrisense/internal/metrics"
	"github.com/LeonardoBeccarini/agrisense/internal/model"
	"github.com/LeonardoBeccarini/agrisense/pkg/rabbitmq"
)

// Configurazione Influx
type InfluxConfig struct {
	URL         string
	Token       string
	Org         string
	Bucket      string
	Measurement string
}

// PointWriter è il sottoinsieme di api.WriteAPIBlocking usato dal servizio.
type PointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

type fluxQuerier interface {
	Query(ctx context.Context, query string) (*api.QueryTableResult, error)
}

// ScorePoint is one farm's efficiency score as served by /scores/*.
type ScorePoint struct {
	FarmID           string             `json:"farm_id"`
	FinalScore       float64            `json:"final_efficiency_score"`
	Rating           string             `json:"performance_rating"`
	NormalizedScores map[string]float64 `json:"normalized_scores,omitempty"`
	Readings         int                `json:"readings"`
	Degraded         bool               `json:"degraded,omitempty"`
	Timestamp        time.Time          `json:"timestamp"`
}

const scoreFieldPrefix = "score_"

// Service consuma gli EfficiencyScored, li scrive su Influx e tiene in cache
// l'ultimo punteggio per farm.
type Service struct {
	consumer    rabbitmq.IConsumer
	writer      PointWriter
	query       fluxQuerier
	bucket      string
	measurement string

	mu      sync.RWMutex
	latest  map[string]ScorePoint
	lastErr time.Time
	now     func() time.Time
}

func NewService(consumer rabbitmq.IConsumer, client influxdb2.Client, cfg InfluxConfig) (*Service, error) {
	if client == nil || cfg.Org == "" || cfg.Bucket == "" {
		return nil, errors.New("influx config incomplete")
	}
	return newService(consumer, client.WriteAPIBlocking(cfg.Org, cfg.Bucket), client.QueryAPI(cfg.Org), cfg), nil
}

func newService(consumer rabbitmq.IConsumer, w PointWriter, q fluxQuerier, cfg InfluxConfig) *Service {
	m := sanitizeMeasurement(cfg.Measurement)
	if m == "" {
		m = "farm_efficiency"
	}
	return &Service{
		consumer:    consumer,
		writer:      w,
		query:       q,
		bucket:      cfg.Bucket,
		measurement: m,
		latest:      make(map[string]ScorePoint),
		lastErr:     time.Now().Add(-24 * time.Hour),
		now:         time.Now,
	}
}

// Start blocks consuming score events until ctx is cancelled.
func (s *Service) Start(ctx context.Context) error {
	s.consumer.SetHandler(func(topic string, msg mqtt.Message) error {
		return s.Handle(ctx, topic, msg.Payload())
	})
	return s.consumer.ConsumeMessage(ctx)
}

// Handle decodes one EfficiencyScored payload, caches it and writes the point.
// Payload non validi vengono scartati senza errore per non bloccare lo stream.
func (s *Service) Handle(ctx context.Context, topic string, payload []byte) error {
	lg := logging.Component("persistence")

	var ev model.EfficiencyScored
	if err := json.Unmarshal(payload, &ev); err != nil {
		lg.Warn().Err(err).Str("topic", topic).Msg("persistence: invalid JSON")
		return nil
	}
	if ev.FarmID == "" {
		ev.FarmID = farmFromTopic(topic)
	}
	if ev.FarmID == "" {
		lg.Warn().Str("topic", topic).Msg("persistence: score without farm_id")
		return nil
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.now()
	}

	sp := ScorePoint{
		FarmID:           ev.FarmID,
		FinalScore:       ev.FinalScore,
		Rating:           ev.Rating,
		NormalizedScores: ev.NormalizedScores,
		Readings:         ev.Readings,
		Degraded:         ev.Degraded,
		Timestamp:        ev.Timestamp.UTC(),
	}
	s.remember(sp)

	if err := s.writer.WritePoint(ctx, s.point(sp)); err != nil {
		s.markError()
		metrics.StoreWriteErrorsTotal.Inc()
		lg.Error().Err(err).Str("farm_id", sp.FarmID).Msg("persistence: write error")
		return fmt.Errorf("write score for %s: %w", sp.FarmID, err)
	}
	metrics.ScoresWrittenTotal.Inc()
	lg.Debug().Str("farm_id", sp.FarmID).Float64("score", sp.FinalScore).Str("rating", sp.Rating).
		Msgf("persistence: wrote %s", s.measurement)
	return nil
}

func (s *Service) point(sp ScorePoint) *write.Point {
	fields := map[string]interface{}{
		"final_score": sp.FinalScore,
		"rating":      sp.Rating,
		"readings":    int64(sp.Readings),
		"degraded":    sp.Degraded,
	}
	for k, v := range sp.NormalizedScores {
		fields[scoreFieldPrefix+k] = v
	}
	return influxdb2.NewPoint(s.measurement, map[string]string{"farm_id": sp.FarmID}, fields, sp.Timestamp)
}

func (s *Service) remember(sp ScorePoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.latest[sp.FarmID]; ok && prev.Timestamp.After(sp.Timestamp) {
		return
	}
	s.latest[sp.FarmID] = sp
}

func (s *Service) markError() {
	s.mu.Lock()
	s.lastErr = s.now()
	s.mu.Unlock()
}

// LastErrorAge ritorna da quanto tempo non si verificano errori di scrittura.
func (s *Service) LastErrorAge() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.now().Sub(s.lastErr)
}

// LatestCache returns the cached latest score per farm, sorted by farm id.
func (s *Service) LatestCache() []ScorePoint {
	s.mu.RLock()
	out := make([]ScorePoint, 0, len(s.latest))
	for _, v := range s.latest {
		out = append(out, v)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].FarmID < out[j].FarmID })
	return out
}

// CachedHistory è il fallback di /scores/history: al massimo un punto per farm.
func (s *Service) CachedHistory(farmID string) []ScorePoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if sp, ok := s.latest[farmID]; ok {
		return []ScorePoint{sp}
	}
	return []ScorePoint{}
}

func (s *Service) buildLatestFlux(minutes int) string {
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%dm)
  |> filter(fn: (r) => r._measurement == %q)
  |> last()
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
  |> group()
  |> sort(columns: ["farm_id"])
`, s.bucket, minutes, s.measurement)
}

func (s *Service) buildHistoryFlux(farmID string, minutes, limit int) string {
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%dm)
  |> filter(fn: (r) => r._measurement == %q and r.farm_id == %q)
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
  |> group()
  |> sort(columns: ["_time"], desc: true)
  |> limit(n: %d)
`, s.bucket, minutes, s.measurement, farmID, limit)
}

// QueryLatestFromInflux returns the last point per farm within the window.
func (s *Service) QueryLatestFromInflux(ctx context.Context, minutes int) ([]ScorePoint, error) {
	return s.runQuery(ctx, s.buildLatestFlux(minutes))
}

// QueryHistory returns the farm's points, newest first.
func (s *Service) QueryHistory(ctx context.Context, farmID string, minutes, limit int) ([]ScorePoint, error) {
	return s.runQuery(ctx, s.buildHistoryFlux(farmID, minutes, limit))
}

func (s *Service) runQuery(ctx context.Context, flux string) ([]ScorePoint, error) {
	if s.query == nil {
		return nil, errors.New("influx query api not configured")
	}
	res, err := s.query.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("influx query: %w", err)
	}
	defer res.Close()

	out := []ScorePoint{}
	for res.Next() {
		rec := res.Record()
		out = append(out, recordToScore(rec.Values(), rec.Time()))
	}
	if err := res.Err(); err != nil {
		return out, fmt.Errorf("influx iterate: %w", err)
	}
	return out, nil
}

// recordToScore mappa una riga pivotata (un campo per colonna) in ScorePoint.
func recordToScore(values map[string]interface{}, t time.Time) ScorePoint {
	sp := ScorePoint{Timestamp: t.UTC()}
	for k, v := range values {
		switch {
		case k == "farm_id":
			sp.FarmID, _ = v.(string)
		case k == "final_score":
			sp.FinalScore = toFloat(v)
		case k == "rating":
			sp.Rating, _ = v.(string)
		case k == "readings":
			sp.Readings = int(toFloat(v))
		case k == "degraded":
			sp.Degraded, _ = v.(bool)
		case strings.HasPrefix(k, scoreFieldPrefix):
			if v == nil {
				continue
			}
			if sp.NormalizedScores == nil {
				sp.NormalizedScores = map[string]float64{}
			}
			sp.NormalizedScores[strings.TrimPrefix(k, scoreFieldPrefix)] = toFloat(v)
		}
	}
	return sp
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	case int:
		return float64(n)
	}
	return 0
}

// farm/efficiency/<farm> -> <farm>
func farmFromTopic(topic string) string {
	parts := strings.Split(strings.Trim(topic, "/"), "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[len(parts)-1]
}

func sanitizeMeasurement(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '_', r == ':', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
