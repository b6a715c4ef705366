package rabbitmq

import (
	"context"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LeonardoBeccarini/agrisense/internal/logging"
)

// Handler riceve il topic effettivo del messaggio (non il filtro sottoscritto).
type Handler func(topic string, message mqtt.Message) error

type IConsumer interface {
	ConsumeMessage(ctx context.Context) error
	SetHandler(handler Handler)
}

type Consumer struct {
	client  mqtt.Client
	handler Handler
	topics  []string
}

var _ IConsumer = (*Consumer)(nil)

func NewConsumer(client mqtt.Client, topic string, handler Handler) *Consumer {
	return NewMultiConsumer(client, []string{topic}, handler)
}

func NewMultiConsumer(client mqtt.Client, topics []string, handler Handler) *Consumer {
	return &Consumer{client: client, topics: topics, handler: handler}
}

func (c *Consumer) SetHandler(handler Handler) {
	c.handler = handler
}

// i punteggi vanno consegnati almeno una volta; le letture tollerano perdite
func qosFor(topic string) byte {
	t := strings.TrimSpace(topic)
	if strings.HasPrefix(t, "farm/efficiency") {
		return 1
	}
	return 0
}

// ConsumeMessage subscribes to every topic and blocks until ctx is cancelled.
func (c *Consumer) ConsumeMessage(ctx context.Context) error {
	for _, topic := range c.topics {
		topic := topic
		token := c.client.Subscribe(topic, qosFor(topic), func(_ mqtt.Client, msg mqtt.Message) {
			c.dispatch(topic, msg)
		})
		if token.Wait() && token.Error() != nil {
			return fmt.Errorf("subscribe %s: %w", topic, token.Error())
		}
		logging.Info().Str("topic", topic).Msg("rabbitmq: subscribed")
	}

	<-ctx.Done()

	for _, topic := range c.topics {
		c.client.Unsubscribe(topic).Wait()
	}
	return nil
}

func (c *Consumer) dispatch(filter string, msg mqtt.Message) {
	if c.handler == nil {
		logging.Warn().Str("topic", filter).Msg("rabbitmq: no handler set")
		return
	}
	if err := c.handler(msg.Topic(), msg); err != nil {
		logging.Error().Err(err).Str("topic", msg.Topic()).Msg("rabbitmq: handler failed")
	}
}
