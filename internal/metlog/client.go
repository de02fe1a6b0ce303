// Package metlog is a small metrics-logging client. Messages carry a type and
// a field-name to value mapping and are handed to a pluggable Sender.
// Extensions register named methods that build and emit their own messages.
package metlog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Syslog-style severities.
const (
	SeverityEmergency = 0
	SeverityAlert     = 1
	SeverityCritical  = 2
	SeverityError     = 3
	SeverityWarning   = 4
	SeverityNotice    = 5
	SeverityInfo      = 6
	SeverityDebug     = 7
)

// EnvVersion is the envelope format version stamped on every message.
const EnvVersion = "0.8"

var (
	// ErrMethodExists is returned when a method name is already registered.
	ErrMethodExists = errors.New("method already registered")

	// ErrUnknownMethod is returned when invoking a name nobody registered.
	ErrUnknownMethod = errors.New("unknown method")
)

// reserved names cannot be taken by extensions.
var reserved = map[string]bool{"metlog": true}

// Message is one emitted record.
type Message struct {
	UUID       string         `json:"uuid"`
	Timestamp  time.Time      `json:"timestamp"`
	Logger     string         `json:"logger"`
	Type       string         `json:"type"`
	Severity   int            `json:"severity"`
	Payload    string         `json:"payload"`
	EnvVersion string         `json:"env_version"`
	Fields     map[string]any `json:"fields"`
}

// Sender delivers messages to the metrics pipeline.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Method is an extension registered on a Client. params holds the caller's
// keyword arguments.
type Method func(ctx context.Context, c *Client, params map[string]any) error

// Client builds messages and forwards them to its Sender.
type Client struct {
	sender   Sender
	logger   string
	severity int
	now      func() time.Time

	mu      sync.RWMutex
	methods map[string]Method
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithDefaultSeverity sets the severity used when a message does not set one.
func WithDefaultSeverity(s int) ClientOption {
	return func(c *Client) { c.severity = s }
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

// New returns a Client that stamps messages with loggerName.
func New(sender Sender, loggerName string, opts ...ClientOption) *Client {
	c := &Client{
		sender:   sender,
		logger:   loggerName,
		severity: SeverityInfo,
		now:      func() time.Time { return time.Now().UTC() },
		methods:  make(map[string]Method),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sender returns the client's sender.
func (c *Client) Sender() Sender {
	return c.sender
}

// MessageOption customizes one message.
type MessageOption func(*Message)

// WithFields attaches a field-group to the message.
func WithFields(fields map[string]any) MessageOption {
	return func(m *Message) { m.Fields = fields }
}

// WithPayload sets the free-form message payload.
func WithPayload(payload string) MessageOption {
	return func(m *Message) { m.Payload = payload }
}

// WithSeverity overrides the client's default severity.
func WithSeverity(s int) MessageOption {
	return func(m *Message) { m.Severity = s }
}

// Metlog builds a message of the given type and sends it.
func (c *Client) Metlog(ctx context.Context, msgType string, opts ...MessageOption) error {
	msg := Message{
		UUID:       uuid.NewString(),
		Timestamp:  c.now(),
		Logger:     c.logger,
		Type:       msgType,
		Severity:   c.severity,
		EnvVersion: EnvVersion,
		Fields:     map[string]any{},
	}
	for _, opt := range opts {
		opt(&msg)
	}
	if err := c.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send %s message: %w", msgType, err)
	}
	return nil
}

// AddMethod registers an extension under name.
func (c *Client) AddMethod(name string, m Method) error {
	if name == "" {
		return errors.New("method name must not be empty")
	}
	if reserved[name] {
		return fmt.Errorf("method %q: name is reserved", name)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.methods[name]; exists {
		return fmt.Errorf("method %q: %w", name, ErrMethodExists)
	}
	c.methods[name] = m
	return nil
}

// Methods returns the registered extension names, sorted.
func (c *Client) Methods() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.methods))
	for name := range c.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Invoke calls the extension registered under name.
func (c *Client) Invoke(ctx context.Context, name string, params map[string]any) error {
	c.mu.RLock()
	m, ok := c.methods[name]
	c.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
	if params == nil {
		params = map[string]any{}
	}
	return m(ctx, c, params)
}
