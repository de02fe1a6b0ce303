package metlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"
)

// NopSender discards every message.
type NopSender struct{}

// Send implements Sender.
func (NopSender) Send(context.Context, Message) error { return nil }

// ZapSender writes each message as one structured log entry.
type ZapSender struct {
	logger *zap.Logger
}

// NewZapSender returns a sender that logs through logger.
func NewZapSender(logger *zap.Logger) *ZapSender {
	return &ZapSender{logger: logger}
}

// Send implements Sender.
func (s *ZapSender) Send(_ context.Context, msg Message) error {
	s.logger.Info(msg.Type,
		zap.String("uuid", msg.UUID),
		zap.Time("timestamp", msg.Timestamp),
		zap.String("logger", msg.Logger),
		zap.Int("severity", msg.Severity),
		zap.String("payload", msg.Payload),
		zap.String("env_version", msg.EnvVersion),
		zap.Any("fields", msg.Fields),
	)
	return nil
}

// Publisher is the part of an MQTT client the sender needs.
// mqtt.Client satisfies it.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTSender publishes each message as JSON on a topic.
type MQTTSender struct {
	client  Publisher
	topic   string
	qos     byte
	timeout time.Duration
}

// NewMQTTSender returns a sender publishing to topic with the given QoS.
func NewMQTTSender(client Publisher, topic string, qos byte, timeout time.Duration) *MQTTSender {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MQTTSender{client: client, topic: topic, qos: qos, timeout: timeout}
}

// Send implements Sender.
func (s *MQTTSender) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	token := s.client.Publish(s.topic, s.qos, false, payload)

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("publish to %s: %w", s.topic, errBrokerTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", s.topic, err)
	}
	return nil
}

var errBrokerTimeout = errors.New("timed out waiting for broker")

// ConnectMQTT connects a paho client to broker (e.g. "tcp://localhost:1883").
func ConnectMQTT(broker, clientID string, timeout time.Duration) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().AddBroker(broker)
	opts.SetClientID(clientID)
	opts.SetConnectTimeout(timeout)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(false)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("connect to %s: %w", broker, errBrokerTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect to %s: %w", broker, err)
	}
	return client, nil
}
