// Package analyzer consuma le letture delle farm, le aggrega per finestra e
// pubblica il punteggio di efficienza di ogni finestra.
package analyzer

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
	"github.com/google/uuid"

	"github.com/LeonardoBeccarini/agrisense/internal/logging"
	"github.com/LeonardoBeccarini/agrisense/internal/metrics"
	"github.com/LeonardoBeccarini/agrisense/internal/model/messages"
	"github.com/LeonardoBeccarini/agrisense/internal/services/efficiency"
	"github.com/LeonardoBeccarini/agrisense/pkg/dedup"
	"github.com/LeonardoBeccarini/agrisense/pkg/rabbitmq"
)

const (
	outcomeBuffered  = "buffered"
	outcomeDuplicate = "duplicate"
	outcomeInvalid   = "invalid"
)

var errNoFarm = errors.New("reading without farm_id")

type Service struct {
	consumer  rabbitmq.IConsumer
	publisher rabbitmq.IPublisher
	engine    *efficiency.Engine
	seen      *dedup.Deduper

	interval    time.Duration
	defaultArea float64

	mu       sync.Mutex
	buffer   map[string][]messages.FarmReading // key: FarmID
	lastArea map[string]float64

	now func() time.Time
}

func NewService(consumer rabbitmq.IConsumer, publisher rabbitmq.IPublisher, engine *efficiency.Engine,
	seen *dedup.Deduper, interval time.Duration, defaultArea float64) *Service {
	if interval <= 0 {
		interval = time.Minute
	}
	if seen == nil {
		seen = dedup.New(0, 0)
	}
	return &Service{
		consumer:    consumer,
		publisher:   publisher,
		engine:      engine,
		seen:        seen,
		interval:    interval,
		defaultArea: defaultArea,
		buffer:      make(map[string][]messages.FarmReading),
		lastArea:    make(map[string]float64),
		now:         time.Now,
	}
}

func (s *Service) messageHandler(topic string, message mqtt.Message) error {
	return s.Handle(topic, message.Payload())
}

// Handle bufferizza una lettura. I duplicati (stesso payload entro il TTL
// del deduper) vengono ignorati.
func (s *Service) Handle(topic string, payload []byte) error {
	if !s.seen.ShouldProcess(dedup.Key(payload)) {
		metrics.ReadingsConsumedTotal.WithLabelValues(outcomeDuplicate).Inc()
		return nil
	}

	var r messages.FarmReading
	if err := json.Unmarshal(payload, &r); err != nil {
		metrics.ReadingsConsumedTotal.WithLabelValues(outcomeInvalid).Inc()
		return fmt.Errorf("decode reading on %s: %w", topic, err)
	}
	if r.FarmID == "" {
		r.FarmID = farmFromTopic(topic)
	}
	if r.FarmID == "" {
		metrics.ReadingsConsumedTotal.WithLabelValues(outcomeInvalid).Inc()
		return fmt.Errorf("%s: %w", topic, errNoFarm)
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = s.now().UTC()
	}

	s.mu.Lock()
	s.buffer[r.FarmID] = append(s.buffer[r.FarmID], r)
	s.mu.Unlock()

	metrics.ReadingsConsumedTotal.WithLabelValues(outcomeBuffered).Inc()
	logging.Component("analyzer").Debug().Str("farm_id", r.FarmID).Str("topic", topic).Msg("analyzer: reading buffered")
	return nil
}

// Start blocca fino alla cancellazione di ctx.
func (s *Service) Start(ctx context.Context) error {
	s.consumer.SetHandler(s.messageHandler)

	errCh := make(chan error, 1)
	go func() { errCh <- s.consumer.ConsumeMessage(ctx) }()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.publisher.Close()
			return nil
		case err := <-errCh:
			if err != nil {
				s.publisher.Close()
				return err
			}
			errCh = nil
		case <-ticker.C:
			s.AggregateAndPublish()
		}
	}
}

// AggregateAndPublish svuota il buffer e pubblica un EfficiencyScored per
// ogni farm con almeno una lettura. Ritorna i messaggi pubblicati.
func (s *Service) AggregateAndPublish() []messages.EfficiencyScored {
	lg := logging.Component("analyzer")

	s.mu.Lock()
	windows := s.buffer
	s.buffer = make(map[string][]messages.FarmReading, len(windows))
	s.mu.Unlock()

	farms := make([]string, 0, len(windows))
	for f, rs := range windows {
		if len(rs) > 0 {
			farms = append(farms, f)
		}
	}
	sort.Strings(farms)

	out := make([]messages.EfficiencyScored, 0, len(farms))
	for _, farm := range farms {
		w := Aggregate(windows[farm], s.areaFallback(farm))
		s.mu.Lock()
		s.lastArea[farm] = w.Input.FarmArea
		s.mu.Unlock()

		res := s.engine.Evaluate(w.Input)
		metrics.EfficiencyScore.Observe(res.Result.FinalScore)
		if res.Degraded() {
			metrics.EfficiencyDegradedTotal.Inc()
			lg.Warn().Err(res.Reason).Str("farm_id", farm).Msg("analyzer: degraded score")
		}

		msg := messages.EfficiencyScored{
			EventID:          uuid.NewString(),
			FarmID:           farm,
			WindowStart:      w.Start,
			WindowEnd:        w.End,
			Readings:         w.Readings,
			FinalScore:       res.Result.FinalScore,
			Rating:           string(res.Result.PerformanceRating),
			NormalizedScores: scoreMap(res.Result.NormalizedScores),
			Recommendations:  res.Result.Recommendations,
			Degraded:         res.Degraded(),
			Timestamp:        s.now().UTC(),
		}
		if err := s.publisher.PublishTo(farm, msg); err != nil {
			lg.Error().Err(err).Str("farm_id", farm).Msg("analyzer: publish failed")
			continue
		}
		lg.Info().Str("farm_id", farm).Int("readings", w.Readings).Float64("score", msg.FinalScore).
			Str("rating", msg.Rating).Msg("analyzer: window scored")
		out = append(out, msg)
	}
	return out
}

func (s *Service) areaFallback(farm string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.lastArea[farm]; ok && a > 0 {
		return a
	}
	return s.defaultArea
}

// Window è l'input aggregato di una finestra di letture.
type Window struct {
	Input    efficiency.Input
	Start    time.Time
	End      time.Time
	Readings int
}

// Aggregate somma gli usi della finestra; resa e superficie sono quelle
// dell'ultima lettura che le riporta. Senza superficie si usa fallbackArea.
func Aggregate(readings []messages.FarmReading, fallbackArea float64) Window {
	rs := append([]messages.FarmReading(nil), readings...)
	sort.SliceStable(rs, func(i, j int) bool { return rs[i].Timestamp.Before(rs[j].Timestamp) })

	w := Window{Readings: len(rs)}
	if len(rs) == 0 {
		w.Input.FarmArea = fallbackArea
		return w
	}
	w.Start, w.End = rs[0].Timestamp, rs[len(rs)-1].Timestamp
	for _, r := range rs {
		w.Input.FertilizerUsed += r.FertilizerUsed
		w.Input.PesticideUsed += r.PesticideUsed
		w.Input.WaterUsage += r.WaterUsage
		if r.Yield > 0 {
			w.Input.Yield = r.Yield
		}
		if r.AreaHa > 0 {
			w.Input.FarmArea = r.AreaHa
		}
	}
	if w.Input.FarmArea <= 0 {
		w.Input.FarmArea = fallbackArea
	}
	return w
}

func scoreMap(v efficiency.Values) map[string]float64 {
	out := make(map[string]float64, len(v))
	for m, x := range v {
		out[m.String()] = x
	}
	return out
}

// farmFromTopic: farm/readings/<farm>
func farmFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[len(parts)-1]
}
