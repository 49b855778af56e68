package statusfeed

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"github.com/ukydev/safe-route/internal/mapview"
)

const publishTimeout = 5 * time.Second

// mqttClient is the part of mqtt.Client the publisher needs.
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes board events to a topic. The last event is retained
// so new subscribers see the current status.
type MQTTPublisher struct {
	client mqttClient
	topic  string
	log    *logrus.Entry
}

// NewMQTTPublisher connects to broker and returns a publisher for topic.
func NewMQTTPublisher(broker, topic, clientID string) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(publishTimeout)
	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(publishTimeout) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect to %s: %w", broker, err)
	}
	return newMQTTPublisher(c, topic), nil
}

func newMQTTPublisher(c mqttClient, topic string) *MQTTPublisher {
	return &MQTTPublisher{
		client: c,
		topic:  topic,
		log:    logrus.WithFields(logrus.Fields{"component": "statusfeed", "topic": topic}),
	}
}

// Publish sends ev without waiting for the broker; failures are logged.
func (p *MQTTPublisher) Publish(ev mapview.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.log.WithError(err).Error("Failed to encode status event")
		return
	}
	token := p.client.Publish(p.topic, 1, true, payload)
	go func() {
		if token.WaitTimeout(publishTimeout) && token.Error() != nil {
			p.log.WithError(token.Error()).Warn("MQTT publish failed")
		}
	}()
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}
