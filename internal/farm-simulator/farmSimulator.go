// Package farm_simulator pubblica letture sintetiche di una o più farm e
// reagisce ai punteggi di efficienza ricevuti.
package farm_simulator

import (
	"context"
	"fmt"
	"sort"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/goccy/go-json"

	"github.com/LeonardoBeccarini/agrisense/internal/logging"
	"github.com/LeonardoBeccarini/agrisense/internal/model/messages"
	"github.com/LeonardoBeccarini/agrisense/pkg/dedup"
	"github.com/LeonardoBeccarini/agrisense/pkg/rabbitmq"
)

// sotto questa soglia l'agricoltore simulato riduce gli input
const adjustBelow = 0.5

type FarmSimulator struct {
	farms     map[string]*DataGenerator
	publisher rabbitmq.IPublisher
	consumer  rabbitmq.IConsumer
	deduper   *dedup.Deduper
	now       func() time.Time
}

// NewFarmSimulator: consumer può essere nil, in tal caso i punteggi non
// vengono ascoltati.
func NewFarmSimulator(consumer rabbitmq.IConsumer, publisher rabbitmq.IPublisher, gens ...*DataGenerator) *FarmSimulator {
	farms := make(map[string]*DataGenerator, len(gens))
	for _, g := range gens {
		farms[g.FarmID()] = g
	}
	return &FarmSimulator{
		farms:     farms,
		publisher: publisher,
		consumer:  consumer,
		deduper:   dedup.New(2*time.Minute, 10000), // TTL e cap
		now:       time.Now,
	}
}

// Start pubblica una lettura per farm ogni interval fino alla cancellazione di ctx.
func (s *FarmSimulator) Start(ctx context.Context, interval time.Duration) {
	if s.consumer != nil {
		s.consumer.SetHandler(s.handleMessage)
		go func() {
			if err := s.consumer.ConsumeMessage(ctx); err != nil {
				logging.Component("farm-simulator").Error().Err(err).Msg("score consumer stopped")
			}
		}()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.publisher.Close()
			return
		case <-ticker.C:
			s.PublishAll()
		}
	}
}

// PublishAll pubblica la lettura corrente di ogni farm su <topic>/<farm>.
func (s *FarmSimulator) PublishAll() int {
	lg := logging.Component("farm-simulator")
	ids := make([]string, 0, len(s.farms))
	for id := range s.farms {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	now := s.now()
	n := 0
	for _, id := range ids {
		r := s.farms[id].Next(now)
		if err := s.publisher.PublishTo(id, r); err != nil {
			lg.Error().Err(err).Str("farm_id", id).Msg("publish error")
			continue
		}
		lg.Debug().Str("farm_id", id).Float64("water", r.WaterUsage).Float64("yield", r.Yield).
			Msg("farm-simulator: reading published")
		n++
	}
	return n
}

func (s *FarmSimulator) handleMessage(_ string, msg mqtt.Message) error {
	return s.handleScore(msg.Payload())
}

func (s *FarmSimulator) handleScore(payload []byte) error {
	// Dedup a payload: redelivery QoS1 ha lo stesso payload → stesso hash
	if !s.deduper.ShouldProcess(dedup.Key(payload)) {
		return nil
	}
	var evt messages.EfficiencyScored
	if err := json.Unmarshal(payload, &evt); err != nil {
		return fmt.Errorf("invalid EfficiencyScored: %w", err)
	}
	g, ok := s.farms[evt.FarmID]
	if !ok {
		// punteggi di altre farm
		return nil
	}
	if evt.Degraded || evt.FinalScore >= adjustBelow {
		return nil
	}
	g.Adjust()
	w, c := g.factors()
	logging.Component("farm-simulator").Info().Str("farm_id", evt.FarmID).Float64("score", evt.FinalScore).
		Float64("water_factor", w).Float64("chemical_factor", c).Msg("farm-simulator: inputs reduced after low score")
	return nil
}
