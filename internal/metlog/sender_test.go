package metlog

import (
	"context"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapSender(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := NewZapSender(zap.New(core))

	err := s.Send(context.Background(), Message{
		UUID:   "abc",
		Type:   "procinfo",
		Logger: "tests",
		Fields: map[string]any{"mem": map[string]any{"rss": 10}},
	})
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "procinfo", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "abc", ctx["uuid"])
	assert.Equal(t, "tests", ctx["logger"])
	assert.Contains(t, ctx, "fields")
}

// fakeToken is a completed or never-completing mqtt.Token.
type fakeToken struct {
	done chan struct{}
	err  error
}

func completedToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

type fakePublisher struct {
	token    mqtt.Token
	topic    string
	qos      byte
	payloads [][]byte
}

func (p *fakePublisher) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	p.topic = topic
	p.qos = qos
	p.payloads = append(p.payloads, payload.([]byte))
	return p.token
}

func TestMQTTSender_Publishes(t *testing.T) {
	pub := &fakePublisher{token: completedToken(nil)}
	s := NewMQTTSender(pub, "metrics/procinfo", 1, time.Second)

	msg := Message{UUID: "u-1", Type: "procinfo", Fields: map[string]any{"io": map[string]any{"read_bytes": 1}}}
	require.NoError(t, s.Send(context.Background(), msg))

	assert.Equal(t, "metrics/procinfo", pub.topic)
	assert.Equal(t, byte(1), pub.qos)
	require.Len(t, pub.payloads, 1)

	var decoded Message
	require.NoError(t, json.Unmarshal(pub.payloads[0], &decoded))
	assert.Equal(t, "u-1", decoded.UUID)
	assert.Equal(t, "procinfo", decoded.Type)
	assert.Contains(t, decoded.Fields, "io")
}

func TestMQTTSender_Errors(t *testing.T) {
	t.Run("broker error", func(t *testing.T) {
		pub := &fakePublisher{token: completedToken(errors.New("not connected"))}
		err := NewMQTTSender(pub, "t", 0, time.Second).Send(context.Background(), Message{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not connected")
	})

	t.Run("timeout", func(t *testing.T) {
		pub := &fakePublisher{token: &fakeToken{done: make(chan struct{})}}
		err := NewMQTTSender(pub, "t", 0, 20*time.Millisecond).Send(context.Background(), Message{})
		assert.ErrorIs(t, err, errBrokerTimeout)
	})

	t.Run("cancelled", func(t *testing.T) {
		pub := &fakePublisher{token: &fakeToken{done: make(chan struct{})}}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewMQTTSender(pub, "t", 0, time.Minute).Send(ctx, Message{})
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNopSender(t *testing.T) {
	assert.NoError(t, NopSender{}.Send(context.Background(), Message{}))
}
