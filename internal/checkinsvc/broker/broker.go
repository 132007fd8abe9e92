package broker

import (
	"encoding/json"
	"time"

	"github.com/avvvet/checkin-services/internal/comm"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"
)

type Broker struct {
	Conn     *nats.Conn
	Topic    string
	Instance string
}

func NewBroker(nc *nats.Conn, topic, instance string) *Broker {
	return &Broker{
		Conn:     nc,
		Topic:    topic,
		Instance: instance,
	}
}

// PublishCheckinEvent wraps ev in a comm.Message and publishes it on the
// broker topic. Failures are logged, the HTTP request that caused the event
// has already succeeded.
func (b *Broker) PublishCheckinEvent(eventType string, ev comm.CheckinEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Errorf("[PublishCheckinEvent] unable to marshal %s event: %s", eventType, err)
		return
	}

	msg := &comm.Message{
		Type:     eventType,
		Data:     data,
		Instance: b.Instance,
		SentAt:   time.Now().UTC(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Errorf("Error %s", err)
		return
	}

	b.Publish(b.Topic, payload)
}

// consume check-in events, handler gets every decodable message
func (b *Broker) Subscribe(handler func(comm.Message)) (*nats.Subscription, error) {
	sub, err := b.Conn.Subscribe(b.Topic, func(m *nats.Msg) {
		var msg comm.Message
		if err := json.Unmarshal(m.Data, &msg); err != nil {
			log.Errorf("Error nats message %s", err)
			return
		}
		handler(msg)
	})
	if err != nil {
		return nil, err
	}

	return sub, nil
}

func (b *Broker) Publish(topic string, payload []byte) error {
	err := b.Conn.Publish(topic, payload)
	if err != nil {
		log.Errorf("Error publishing to topic %s: %s", topic, err)
		return err
	}

	return nil
}
