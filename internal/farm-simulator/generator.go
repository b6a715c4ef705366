package farm_simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/LeonardoBeccarini/agrisense/internal/model/messages"
)

// ====== Tunables (per ettaro, per ora) ======
const (
	waterPerHaHour      = 20.0  // m³
	fertilizerPerHaHour = 0.002 // t
	pesticidePerHaHour  = 0.01  // kg
	yieldPerHaHour      = 0.004 // t, crescita della resa stimata

	noiseShare = 0.15 // rumore relativo sugli usi

	adjustStep = 0.9 // riduzione applicata dopo un punteggio basso
	minFactor  = 0.5
)

// DataGenerator mantiene lo stato di una farm e produce letture incrementali.
type DataGenerator struct {
	mu     sync.Mutex
	farmID string
	areaHa float64
	rnd    *rand.Rand

	last      time.Time
	yield     float64 // cumulativa, t
	waterF    float64 // fattore applicato agli usi d'acqua
	chemicalF float64 // fattore per fertilizzanti e pesticidi
}

func NewDataGenerator(farmID string, areaHa float64, seed int64) *DataGenerator {
	if areaHa <= 0 {
		areaHa = 1
	}
	return &DataGenerator{
		farmID:    farmID,
		areaHa:    areaHa,
		rnd:       rand.New(rand.NewSource(seed)),
		waterF:    1,
		chemicalF: 1,
	}
}

func (g *DataGenerator) FarmID() string { return g.farmID }

// Next aggiorna lo stato e restituisce gli usi trascorsi dall'ultima lettura.
// La prima chiamata non ha storia: gli usi sono quelli di un minuto.
func (g *DataGenerator) Next(now time.Time) messages.FarmReading {
	g.mu.Lock()
	defer g.mu.Unlock()

	now = now.UTC()
	hours := 1.0 / 60
	if !g.last.IsZero() {
		hours = math.Max(0, now.Sub(g.last).Hours())
	}
	g.last = now

	scale := hours * g.areaHa
	g.yield += yieldPerHaHour * scale * g.jitter()

	return messages.FarmReading{
		FarmID:         g.farmID,
		AreaHa:         g.areaHa,
		FertilizerUsed: fertilizerPerHaHour * scale * g.chemicalF * g.jitter(),
		PesticideUsed:  pesticidePerHaHour * scale * g.chemicalF * g.jitter(),
		WaterUsage:     waterPerHaHour * scale * g.waterF * g.jitter(),
		Yield:          g.yield,
		Timestamp:      now,
	}
}

// Adjust simula la reazione dell'agricoltore a un punteggio basso: riduce
// acqua e prodotti chimici del 10%, fino alla metà dei valori iniziali.
func (g *DataGenerator) Adjust() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.waterF = math.Max(minFactor, g.waterF*adjustStep)
	g.chemicalF = math.Max(minFactor, g.chemicalF*adjustStep)
}

func (g *DataGenerator) factors() (water, chemical float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.waterF, g.chemicalF
}

// jitter in [1-noiseShare, 1+noiseShare]
func (g *DataGenerator) jitter() float64 {
	return 1 + noiseShare*(2*g.rnd.Float64()-1)
}
