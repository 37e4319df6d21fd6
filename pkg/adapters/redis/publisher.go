package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/rewind/internal/logging"
	"github.com/aretw0/rewind/pkg/domain"
)

// DefaultChannel is the pub/sub channel used when none is configured.
const DefaultChannel = "rewind:events"

// Message is the JSON payload published for every machine event.
type Message struct {
	Kind       string    `json:"kind"`
	Timestamp  time.Time `json:"timestamp"`
	Machine    string    `json:"machine,omitempty"`
	Op         domain.Op `json:"op"`
	From       string    `json:"from,omitempty"`
	To         string    `json:"to,omitempty"`
	Event      string    `json:"event,omitempty"`
	Position   int       `json:"position"`
	HistoryLen int       `json:"history_len"`
	Error      string    `json:"error,omitempty"`
}

// Publisher sends machine events to a Redis pub/sub channel.
type Publisher struct {
	client  *backend.Client
	channel string
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithChannel sets the pub/sub channel.
func WithChannel(channel string) Option {
	return func(p *Publisher) {
		p.channel = channel
	}
}

// WithTimeout bounds each publish issued from a hook.
func WithTimeout(d time.Duration) Option {
	return func(p *Publisher) {
		p.timeout = d
	}
}

// WithLogger sets the logger used to report failed publishes.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a publisher connected to address.
func New(address, password string, db int, opts ...Option) *Publisher {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a publisher from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Publisher {
	p := &Publisher{
		client:  client,
		channel: DefaultChannel,
		timeout: 2 * time.Second,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Channel returns the channel events are published to.
func (p *Publisher) Channel() string {
	return p.channel
}

// Publish encodes msg as JSON and publishes it.
func (p *Publisher) Publish(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("redis publish failed: %w", err)
	}
	return nil
}

// Hooks returns lifecycle hooks that publish every transition and rejection.
// Hooks cannot fail, so publish errors are logged and dropped.
func (p *Publisher) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(e *domain.TransitionEvent) {
			p.publishFromHook(Message{
				Kind:       "transition",
				Timestamp:  e.Timestamp,
				Machine:    e.Machine,
				Op:         e.Op,
				From:       e.From,
				To:         e.To,
				Event:      e.Event,
				Position:   e.Position,
				HistoryLen: e.HistoryLen,
			})
		},
		OnRejected: func(e *domain.RejectedEvent) {
			msg := Message{
				Kind:      "rejected",
				Timestamp: e.Timestamp,
				Machine:   e.Machine,
				Op:        e.Op,
				From:      e.State,
				To:        e.Target,
				Event:     e.Event,
			}
			if e.Err != nil {
				msg.Error = e.Err.Error()
			}
			p.publishFromHook(msg)
		},
	}
}

func (p *Publisher) publishFromHook(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	if err := p.Publish(ctx, msg); err != nil {
		p.logger.Warn("Failed to publish machine event",
			"channel", p.channel,
			"op", msg.Op,
			"err", err,
		)
	}
}

// Close closes the underlying client.
func (p *Publisher) Close() error {
	return p.client.Close()
}
