package rabbitmq

import (
	"encoding/json"
	"fmt"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LeonardoBeccarini/agrisense/internal/logging"
)

type IPublisher interface {
	PublishMessage(message any) error
	PublishTo(subtopic string, message any) error
	Close()
}

// Publisher pubblica su un topic base; PublishTo aggiunge un sotto-topic
// (es. "farm/efficiency" + "farm-1").
type Publisher struct {
	client mqtt.Client
	topic  string
}

var _ IPublisher = (*Publisher)(nil)

func NewPublisher(client mqtt.Client, topic string) *Publisher {
	return &Publisher{client: client, topic: strings.TrimSuffix(topic, "/")}
}

func (p *Publisher) PublishMessage(message any) error {
	return p.publish(p.topic, message)
}

func (p *Publisher) PublishTo(subtopic string, message any) error {
	subtopic = strings.Trim(subtopic, "/")
	if subtopic == "" {
		return p.publish(p.topic, message)
	}
	return p.publish(p.topic+"/"+subtopic, message)
}

func (p *Publisher) publish(topic string, message any) error {
	payload, err := encode(message)
	if err != nil {
		return err
	}
	token := p.client.Publish(topic, qosFor(topic), false, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish message on %s: %w", topic, token.Error())
	}
	logging.Debug().Str("topic", topic).Int("bytes", len(payload)).Msg("rabbitmq: published")
	return nil
}

// encode: string e []byte passano invariati, il resto in JSON.
func encode(message any) ([]byte, error) {
	switch m := message.(type) {
	case string:
		return []byte(m), nil
	case []byte:
		return m, nil
	default:
		b, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("invalid message format: %w", err)
		}
		return b, nil
	}
}

func (p *Publisher) Close() {
	CloseRabbitMQConn(p.client)
}
