package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/sleep909/multipage/internal/config"
	ferrors "github.com/sleep909/multipage/internal/foundation/errors"
	"github.com/sleep909/multipage/internal/retry"
)

// Publisher delivers build events.
type Publisher interface {
	PublishBuild(ctx context.Context, ev *BuildEvent) error
	Close()
}

// NoopPublisher drops every event. It is used when no NATS URL is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishBuild(context.Context, *BuildEvent) error { return nil }
func (NoopPublisher) Close()                                          {}

// conn is the subset of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// NATSPublisher publishes JSON encoded events on a NATS subject.
type NATSPublisher struct {
	conn    conn
	subject string
	policy  retry.Policy
	logger  *slog.Logger
	once    sync.Once
}

// New returns a NATS publisher when cfg names a server, otherwise a NoopPublisher.
func New(cfg config.EventsConfig, logger *slog.Logger) (Publisher, error) {
	if cfg.NATSURL == "" {
		return NoopPublisher{}, nil
	}
	return NewNATSPublisher(cfg, logger)
}

// NewNATSPublisher connects to cfg.NATSURL.
func NewNATSPublisher(cfg config.EventsConfig, logger *slog.Logger) (*NATSPublisher, error) {
	if cfg.Subject == "" {
		return nil, ferrors.ConfigError("events subject is required").Build()
	}
	if logger == nil {
		logger = slog.Default()
	}

	nc, err := nats.Connect(cfg.NATSURL,
		nats.Name("multipage"),
		nats.Timeout(5*time.Second),
		nats.MaxReconnects(3),
	)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to connect to NATS").
			Retryable().
			WithContext("url", cfg.NATSURL).
			Build()
	}

	logger.Info("NATS event publisher connected", "url", cfg.NATSURL, "subject", cfg.Subject)
	return newNATSPublisher(nc, cfg, logger), nil
}

func newNATSPublisher(c conn, cfg config.EventsConfig, logger *slog.Logger) *NATSPublisher {
	return &NATSPublisher{
		conn:    c,
		subject: cfg.Subject,
		policy:  retry.FromConfig(cfg.Retry),
		logger:  logger,
	}
}

// PublishBuild publishes ev and flushes, retrying transient failures per the
// configured policy. A zero Timestamp is set to now.
func (p *NATSPublisher) PublishBuild(ctx context.Context, ev *BuildEvent) error {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	err = p.policy.Do(ctx, isTransient, func(ctx context.Context) error {
		if err := p.conn.Publish(p.subject, data); err != nil {
			return err
		}
		flushCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return p.conn.FlushWithContext(flushCtx)
	})
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryNetwork, "failed to publish build event").
			WithContext("subject", p.subject).
			WithContext("build_id", ev.BuildID).
			Build()
	}

	p.logger.Debug("Published build event", "subject", p.subject, "build_id", ev.BuildID, "status", ev.Status)
	return nil
}

// Close closes the underlying connection. It is safe to call more than once.
func (p *NATSPublisher) Close() {
	p.once.Do(p.conn.Close)
}

func isTransient(err error) bool {
	switch {
	case errors.Is(err, nats.ErrConnectionClosed),
		errors.Is(err, nats.ErrBadSubject),
		errors.Is(err, nats.ErrMaxPayload),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}
