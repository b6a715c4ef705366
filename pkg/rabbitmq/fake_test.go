package rabbitmq

import (
	"errors"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct{ err error }

func (t fakeToken) Wait() bool                     { return true }
func (t fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t fakeToken) Error() error { return t.err }

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type published struct {
	topic   string
	qos     byte
	payload []byte
}

// fakeClient registra publish/subscribe in memoria.
type fakeClient struct {
	mu           sync.Mutex
	subs         map[string]mqtt.MessageHandler
	qos          map[string]byte
	unsubscribed []string
	sent         []published
	subErr       error
	pubErr       error
	subscribed   chan string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		subs:       map[string]mqtt.MessageHandler{},
		qos:        map[string]byte{},
		subscribed: make(chan string, 8),
	}
}

func (c *fakeClient) IsConnected() bool      { return true }
func (c *fakeClient) IsConnectionOpen() bool { return true }
func (c *fakeClient) Connect() mqtt.Token    { return fakeToken{} }
func (c *fakeClient) Disconnect(uint)        {}

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	if c.pubErr != nil {
		return fakeToken{err: c.pubErr}
	}
	b, ok := payload.([]byte)
	if !ok {
		return fakeToken{err: errors.New("unexpected payload type")}
	}
	c.mu.Lock()
	c.sent = append(c.sent, published{topic: topic, qos: qos, payload: b})
	c.mu.Unlock()
	return fakeToken{}
}

func (c *fakeClient) Subscribe(topic string, qos byte, cb mqtt.MessageHandler) mqtt.Token {
	if c.subErr != nil {
		return fakeToken{err: c.subErr}
	}
	c.mu.Lock()
	c.subs[topic] = cb
	c.qos[topic] = qos
	c.mu.Unlock()
	c.subscribed <- topic
	return fakeToken{}
}

func (c *fakeClient) SubscribeMultiple(map[string]byte, mqtt.MessageHandler) mqtt.Token {
	return fakeToken{}
}

func (c *fakeClient) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	c.unsubscribed = append(c.unsubscribed, topics...)
	c.mu.Unlock()
	return fakeToken{}
}

func (c *fakeClient) AddRoute(string, mqtt.MessageHandler) {}

func (c *fakeClient) OptionsReader() mqtt.ClientOptionsReader { return mqtt.ClientOptionsReader{} }

func (c *fakeClient) deliver(filter, topic string, payload []byte) {
	c.mu.Lock()
	cb := c.subs[filter]
	c.mu.Unlock()
	cb(c, fakeMessage{topic: topic, payload: payload})
}
