package farm_simulator

import (
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/LeonardoBeccarini/agrisense/internal/model/messages"
)

type published struct {
	subtopic string
	reading  messages.FarmReading
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []published
}

func (p *fakePublisher) PublishMessage(m any) error { return p.PublishTo("", m) }

func (p *fakePublisher) PublishTo(subtopic string, m any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, published{subtopic, m.(messages.FarmReading)})
	return nil
}

func (p *fakePublisher) Close() {}

var t0 = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func TestGeneratorIncrements(t *testing.T) {
	g := NewDataGenerator("farm-1", 2, 42)

	first := g.Next(t0)
	second := g.Next(t0.Add(time.Hour))

	if first.FarmID != "farm-1" || first.AreaHa != 2 || !first.Timestamp.Equal(t0) {
		t.Errorf("first reading = %+v", first)
	}
	// un'ora su 2 ha: 40 m³ ± 15%
	if second.WaterUsage < 34 || second.WaterUsage > 46 {
		t.Errorf("water after 1h = %v, want ~40", second.WaterUsage)
	}
	if second.FertilizerUsed <= 0 || second.PesticideUsed <= 0 {
		t.Errorf("chemical usage = %+v", second)
	}
	if second.Yield <= first.Yield {
		t.Errorf("yield did not grow: %v -> %v", first.Yield, second.Yield)
	}

	// tempo che torna indietro: nessun uso
	back := g.Next(t0)
	if back.WaterUsage != 0 || back.Yield != second.Yield {
		t.Errorf("reading with negative elapsed = %+v", back)
	}
}

func TestGeneratorDeterministic(t *testing.T) {
	a, b := NewDataGenerator("x", 1, 7), NewDataGenerator("x", 1, 7)
	for i := 0; i < 3; i++ {
		ra, rb := a.Next(t0.Add(time.Duration(i)*time.Minute)), b.Next(t0.Add(time.Duration(i)*time.Minute))
		if ra != rb {
			t.Fatalf("step %d: %+v != %+v", i, ra, rb)
		}
	}
}

func TestAdjustFloor(t *testing.T) {
	g := NewDataGenerator("x", 0, 1)
	if g.areaHa != 1 {
		t.Errorf("area default = %v", g.areaHa)
	}
	for i := 0; i < 20; i++ {
		g.Adjust()
	}
	if w, c := g.factors(); w != minFactor || c != minFactor {
		t.Errorf("factors = %v, %v, want %v", w, c, minFactor)
	}
}

func TestPublishAll(t *testing.T) {
	pub := &fakePublisher{}
	s := NewFarmSimulator(nil, pub, NewDataGenerator("farm-2", 1, 1), NewDataGenerator("farm-1", 1, 2))
	s.now = func() time.Time { return t0 }

	if n := s.PublishAll(); n != 2 {
		t.Fatalf("PublishAll() = %d", n)
	}
	if pub.sent[0].subtopic != "farm-1" || pub.sent[1].subtopic != "farm-2" {
		t.Errorf("publish order = %s, %s", pub.sent[0].subtopic, pub.sent[1].subtopic)
	}
	if pub.sent[0].reading.FarmID != "farm-1" {
		t.Errorf("reading = %+v", pub.sent[0].reading)
	}
}

func TestHandleScore(t *testing.T) {
	g := NewDataGenerator("farm-1", 1, 1)
	s := NewFarmSimulator(nil, &fakePublisher{}, g)

	score := func(farm string, v float64, degraded bool) []byte {
		b, _ := json.Marshal(messages.EfficiencyScored{EventID: farm + "-" + time.Now().String(), FarmID: farm, FinalScore: v, Degraded: degraded})
		return b
	}

	tests := []struct {
		name    string
		payload []byte
		want    float64
	}{
		{"good score", score("farm-1", 0.8, false), 1},
		{"other farm", score("farm-9", 0.1, false), 1},
		{"degraded", score("farm-1", 0, true), 1},
		{"low score", score("farm-1", 0.3, false), adjustStep},
	}
	for _, tt := range tests {
		if err := s.handleScore(tt.payload); err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if w, _ := g.factors(); w != tt.want {
			t.Errorf("%s: water factor = %v, want %v", tt.name, w, tt.want)
		}
	}

	// stesso payload riconsegnato: nessuna ulteriore riduzione
	p := score("farm-1", 0.2, false)
	_ = s.handleScore(p)
	_ = s.handleScore(p)
	want := 1.0 * adjustStep
	want *= adjustStep
	if w, _ := g.factors(); w != want {
		t.Errorf("after duplicate: water factor = %v, want %v", w, want)
	}

	if err := s.handleScore([]byte("nope")); err == nil {
		t.Error("expected decode error")
	}
}
