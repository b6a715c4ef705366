package analyzer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/go-cmp/cmp"

	"github.com/LeonardoBeccarini/agrisense/internal/model/messages"
	"github.com/LeonardoBeccarini/agrisense/internal/services/efficiency"
	"github.com/LeonardoBeccarini/agrisense/pkg/dedup"
	"github.com/LeonardoBeccarini/agrisense/pkg/rabbitmq"
)

type fakeConsumer struct {
	handler rabbitmq.Handler
	err     error
}

func (c *fakeConsumer) SetHandler(h rabbitmq.Handler) { c.handler = h }

func (c *fakeConsumer) ConsumeMessage(ctx context.Context) error {
	if c.err != nil {
		return c.err
	}
	<-ctx.Done()
	return nil
}

type sent struct {
	subtopic string
	msg      messages.EfficiencyScored
}

type fakePublisher struct {
	mu     sync.Mutex
	sent   []sent
	err    error
	closed bool
}

func (p *fakePublisher) PublishMessage(m any) error { return p.PublishTo("", m) }

func (p *fakePublisher) PublishTo(subtopic string, m any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.sent = append(p.sent, sent{subtopic, m.(messages.EfficiencyScored)})
	return nil
}

func (p *fakePublisher) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
}

var t0 = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

func newTestService(pub *fakePublisher) *Service {
	s := NewService(&fakeConsumer{}, pub, efficiency.NewEngine(efficiency.DefaultBenchmarks()),
		dedup.New(time.Minute, 100), time.Minute, 1.0)
	s.now = func() time.Time { return t0.Add(time.Hour) }
	return s
}

func payload(t *testing.T, r messages.FarmReading) []byte {
	t.Helper()
	b, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestAggregate(t *testing.T) {
	readings := []messages.FarmReading{
		{AreaHa: 4, FertilizerUsed: 1, PesticideUsed: 2, WaterUsage: 100, Yield: 0.5, Timestamp: t0.Add(2 * time.Minute)},
		{AreaHa: 5, FertilizerUsed: 1, PesticideUsed: 1, WaterUsage: 50, Yield: 0.4, Timestamp: t0},
		{FertilizerUsed: 0.5, WaterUsage: 25, Timestamp: t0.Add(time.Minute)},
	}
	got := Aggregate(readings, 9)
	want := Window{
		Input: efficiency.Input{
			FarmArea:       4,
			FertilizerUsed: 2.5,
			PesticideUsed:  3,
			WaterUsage:     175,
			Yield:          0.5,
		},
		Start:    t0,
		End:      t0.Add(2 * time.Minute),
		Readings: 3,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Aggregate mismatch (-want +got):\n%s", diff)
	}

	if got := Aggregate([]messages.FarmReading{{WaterUsage: 1, Timestamp: t0}}, 9); got.Input.FarmArea != 9 {
		t.Errorf("fallback area = %v, want 9", got.Input.FarmArea)
	}
	if got := Aggregate(nil, 2); got.Readings != 0 || got.Input.FarmArea != 2 {
		t.Errorf("empty window = %+v", got)
	}
}

func TestHandleAndPublish(t *testing.T) {
	pub := &fakePublisher{}
	s := newTestService(pub)

	r1 := messages.FarmReading{FarmID: "farm-1", AreaHa: 2, FertilizerUsed: 0.2, PesticideUsed: 1, WaterUsage: 400, Yield: 0.3, Timestamp: t0}
	r2 := messages.FarmReading{AreaHa: 2, FertilizerUsed: 0.2, WaterUsage: 400, Yield: 0.4, Timestamp: t0.Add(time.Minute)}

	if err := s.Handle("farm/readings/farm-1", payload(t, r1)); err != nil {
		t.Fatal(err)
	}
	// stesso payload riconsegnato: ignorato
	if err := s.Handle("farm/readings/farm-1", payload(t, r1)); err != nil {
		t.Fatal(err)
	}
	// farm_id assente: preso dal topic
	if err := s.Handle("farm/readings/farm-1", payload(t, r2)); err != nil {
		t.Fatal(err)
	}

	out := s.AggregateAndPublish()
	if len(out) != 1 || len(pub.sent) != 1 {
		t.Fatalf("published %d messages, want 1", len(pub.sent))
	}
	got := pub.sent[0]
	if got.subtopic != "farm-1" || got.msg.Readings != 2 || got.msg.EventID == "" {
		t.Errorf("published %+v", got)
	}

	want := s.engine.Evaluate(efficiency.Input{FarmArea: 2, FertilizerUsed: 0.4, PesticideUsed: 1, WaterUsage: 800, Yield: 0.4}).Result
	if got.msg.FinalScore != want.FinalScore || got.msg.Rating != string(want.PerformanceRating) {
		t.Errorf("score = %v/%s, want %v/%s", got.msg.FinalScore, got.msg.Rating, want.FinalScore, want.PerformanceRating)
	}
	if len(got.msg.NormalizedScores) != len(want.NormalizedScores) || got.msg.NormalizedScores["water_efficiency"] != want.NormalizedScores[efficiency.WaterEfficiency] {
		t.Errorf("normalized scores = %v", got.msg.NormalizedScores)
	}
	if !got.msg.WindowStart.Equal(t0) || !got.msg.WindowEnd.Equal(t0.Add(time.Minute)) {
		t.Errorf("window = %v..%v", got.msg.WindowStart, got.msg.WindowEnd)
	}

	// buffer svuotato
	if out := s.AggregateAndPublish(); len(out) != 0 {
		t.Errorf("second cycle published %d messages", len(out))
	}
}

func TestAreaCarriesOverWindows(t *testing.T) {
	pub := &fakePublisher{}
	s := newTestService(pub)

	_ = s.Handle("farm/readings/a", payload(t, messages.FarmReading{FarmID: "a", AreaHa: 8, WaterUsage: 1, Timestamp: t0}))
	s.AggregateAndPublish()
	_ = s.Handle("farm/readings/a", payload(t, messages.FarmReading{FarmID: "a", WaterUsage: 2, Timestamp: t0.Add(time.Minute)}))
	s.AggregateAndPublish()

	if got := s.areaFallback("a"); got != 8 {
		t.Errorf("area fallback = %v, want 8", got)
	}
	if got := s.areaFallback("b"); got != 1 {
		t.Errorf("default area = %v, want 1", got)
	}
}

func TestHandleRejects(t *testing.T) {
	s := newTestService(&fakePublisher{})

	if err := s.Handle("farm/readings/x", []byte("{not json")); err == nil {
		t.Error("expected decode error")
	}
	err := s.Handle("farm", payload(t, messages.FarmReading{WaterUsage: 1}))
	if !errors.Is(err, errNoFarm) {
		t.Errorf("err = %v, want errNoFarm", err)
	}
	if n := len(s.buffer); n != 0 {
		t.Errorf("buffer has %d farms, want 0", n)
	}
}

func TestPublishErrorDropsWindow(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	s := newTestService(pub)
	_ = s.Handle("farm/readings/a", payload(t, messages.FarmReading{FarmID: "a", AreaHa: 1, Timestamp: t0}))

	if out := s.AggregateAndPublish(); len(out) != 0 {
		t.Errorf("published %d messages with failing broker", len(out))
	}
}

func TestStartStopsOnCancel(t *testing.T) {
	pub := &fakePublisher{}
	s := newTestService(pub)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
	if !pub.closed {
		t.Error("publisher not closed")
	}
}

func TestStartReturnsConsumerError(t *testing.T) {
	pub := &fakePublisher{}
	s := NewService(&fakeConsumer{err: errors.New("subscribe failed")}, pub,
		efficiency.NewEngine(efficiency.DefaultBenchmarks()), nil, time.Hour, 1)
	if err := s.Start(context.Background()); err == nil {
		t.Error("expected consumer error")
	}
}

func TestFarmFromTopic(t *testing.T) {
	tests := map[string]string{
		"farm/readings/farm-3": "farm-3",
		"farm/readings":        "",
		"":                     "",
	}
	for in, want := range tests {
		if got := farmFromTopic(in); got != want {
			t.Errorf("farmFromTopic(%q) = %q, want %q", in, got, want)
		}
	}
}
