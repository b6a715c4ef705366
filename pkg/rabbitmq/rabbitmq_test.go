package rabbitmq

import (
	"context"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/go-cmp/cmp"
)

func TestQosFor(t *testing.T) {
	tests := []struct {
		topic string
		want  byte
	}{
		{"farm/efficiency", 1},
		{"farm/efficiency/farm-1", 1},
		{" farm/efficiency/# ", 1},
		{"farm/readings/farm-1", 0},
		{"other", 0},
	}
	for _, tt := range tests {
		if got := qosFor(tt.topic); got != tt.want {
			t.Errorf("qosFor(%q) = %d, want %d", tt.topic, got, tt.want)
		}
	}
}

func TestBrokerURL(t *testing.T) {
	cfg := &RabbitMQConfig{Host: "broker", Port: 1883}
	if got := cfg.BrokerURL(); got != "tcp://broker:1883" {
		t.Errorf("BrokerURL() = %q", got)
	}
}

func TestPublisher(t *testing.T) {
	c := newFakeClient()
	p := NewPublisher(c, "farm/efficiency/")

	if err := p.PublishTo("farm-1", map[string]any{"farm_id": "farm-1"}); err != nil {
		t.Fatal(err)
	}
	if err := p.PublishMessage("raw"); err != nil {
		t.Fatal(err)
	}
	if err := p.PublishTo("/", []byte("bytes")); err != nil {
		t.Fatal(err)
	}

	want := []published{
		{topic: "farm/efficiency/farm-1", qos: 1, payload: []byte(`{"farm_id":"farm-1"}`)},
		{topic: "farm/efficiency", qos: 1, payload: []byte("raw")},
		{topic: "farm/efficiency", qos: 1, payload: []byte("bytes")},
	}
	if diff := cmp.Diff(want, c.sent, cmp.AllowUnexported(published{})); diff != "" {
		t.Errorf("published mismatch (-want +got):\n%s", diff)
	}
}

func TestPublisherErrors(t *testing.T) {
	c := newFakeClient()
	p := NewPublisher(c, "farm/readings")

	if err := p.PublishMessage(make(chan int)); err == nil {
		t.Error("expected encode error")
	}
	c.pubErr = errors.New("broker down")
	if err := p.PublishMessage("x"); err == nil || !errors.Is(err, c.pubErr) {
		t.Errorf("err = %v, want wrapping broker down", err)
	}
}

func TestConsumerDispatchesActualTopic(t *testing.T) {
	c := newFakeClient()
	got := make(chan string, 1)
	cons := NewConsumer(c, "farm/readings/#", nil)
	cons.SetHandler(func(topic string, msg mqtt.Message) error {
		got <- topic + " " + string(msg.Payload())
		return errors.New("ignored")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- cons.ConsumeMessage(ctx) }()

	select {
	case <-c.subscribed:
	case <-time.After(time.Second):
		t.Fatal("consumer never subscribed")
	}
	c.deliver("farm/readings/#", "farm/readings/farm-7", []byte("{}"))
	if s := <-got; s != "farm/readings/farm-7 {}" {
		t.Errorf("handler got %q", s)
	}
	if q := c.qos["farm/readings/#"]; q != 0 {
		t.Errorf("readings qos = %d, want 0", q)
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("ConsumeMessage() = %v", err)
	}
	if diff := cmp.Diff([]string{"farm/readings/#"}, c.unsubscribed); diff != "" {
		t.Errorf("unsubscribe mismatch (-want +got):\n%s", diff)
	}
}

func TestConsumerSubscribeError(t *testing.T) {
	c := newFakeClient()
	c.subErr = errors.New("not authorized")
	cons := NewMultiConsumer(c, []string{"a", "b"}, func(string, mqtt.Message) error { return nil })
	if err := cons.ConsumeMessage(context.Background()); !errors.Is(err, c.subErr) {
		t.Errorf("ConsumeMessage() = %v, want subscribe error", err)
	}
}
