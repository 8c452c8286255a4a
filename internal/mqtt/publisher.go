// Package mqtt publishes simulation reports to an MQTT broker.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"

	"ac_simulator/internal/config"
	"ac_simulator/internal/model"
	"ac_simulator/internal/wire"
)

const publishTimeout = 5 * time.Second

// Sender is the subset of paho.Client the publisher needs.
type Sender interface {
	Publish(topic string, qos byte, retained bool, payload any) paho.Token
}

// Publisher implements simulator.Callback. Reports go retained to
// <topic>/state, failures to <topic>/error.
type Publisher struct {
	sender Sender
	topic  string
	logger *logrus.Logger
}

func NewPublisher(sender Sender, topic string, logger *logrus.Logger) *Publisher {
	return &Publisher{sender: sender, topic: topic, logger: logger}
}

func (p *Publisher) StateTopic() string { return p.topic + "/state" }
func (p *Publisher) ErrorTopic() string { return p.topic + "/error" }

func (p *Publisher) OnReport(r model.SimulationReport) {
	p.publish(p.StateTopic(), true, wire.ReportFromModel(r))
}

func (p *Publisher) OnFailure(err error) {
	p.publish(p.ErrorTopic(), false, wire.ErrorFromErr(err))
}

func (p *Publisher) publish(topic string, retained bool, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		p.logger.Errorf("Failed to marshal MQTT payload for %s: %v", topic, err)
		return
	}

	token := p.sender.Publish(topic, 1, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		p.logger.Warnf("Timed out publishing to %s", topic)
		return
	}
	if err := token.Error(); err != nil {
		p.logger.Errorf("Failed to publish to %s: %v", topic, err)
		return
	}
	p.logger.Debugf("Published %d bytes to %s", len(payload), topic)
}

// Connect creates a paho client from cfg and connects it.
func Connect(cfg config.MQTTConfig, logger *logrus.Logger) (paho.Client, error) {
	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		logger.Errorf("MQTT connection lost: %v", err)
	})
	opts.SetOnConnectHandler(func(paho.Client) {
		logger.Infof("Connected to MQTT broker %s", cfg.Broker)
	})

	client := paho.NewClient(opts)
	logger.Info("Connecting to MQTT broker...")
	token := client.Connect()
	if !token.WaitTimeout(publishTimeout) {
		// With SetConnectRetry the client keeps trying in the background.
		logger.Warnf("MQTT broker %s not reachable yet, retrying in background", cfg.Broker)
		return client, nil
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	return client, nil
}
