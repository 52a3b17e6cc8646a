package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/menusync/internal/config"
	"git.home.luguber.info/inful/menusync/internal/foundation/errors"
	"git.home.luguber.info/inful/menusync/internal/logfields"
)

const publishTimeout = 5 * time.Second

type sendFunc func(ctx context.Context, subject string, data []byte) error

// NATSPublisher publishes change events as JSON on <subject>.<blog_id>,
// through JetStream when configured and core NATS otherwise.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
	send    sendFunc
	now     func() time.Time
}

// NewNATSPublisher connects to cfg.NATSURL. With cfg.JetStream set, the
// stream cfg.Stream is created or updated to capture <subject>.>.
func NewNATSPublisher(ctx context.Context, cfg *config.NotifyConfig) (*NATSPublisher, error) {
	if cfg == nil || cfg.NATSURL == "" {
		return nil, errors.ConfigError("notify.nats_url is required").Build()
	}

	conn, err := nats.Connect(cfg.NATSURL, nats.Name("menusync"))
	if err != nil {
		return nil, errors.NotifyError("failed to connect to NATS").
			WithCause(err).
			WithContext("url", cfg.NATSURL).
			Build()
	}

	p := &NATSPublisher{conn: conn, subject: cfg.Subject, now: time.Now}
	p.send = func(_ context.Context, subject string, data []byte) error {
		return conn.Publish(subject, data)
	}

	if cfg.JetStream {
		js, err := jetstream.New(conn)
		if err != nil {
			conn.Close()
			return nil, errors.NotifyError("failed to create JetStream context").WithCause(err).Build()
		}
		streamCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		_, err = js.CreateOrUpdateStream(streamCtx, jetstream.StreamConfig{
			Name:        cfg.Stream,
			Description: "menusync change notifications",
			Subjects:    []string{cfg.Subject + ".>"},
			MaxAge:      7 * 24 * time.Hour,
		})
		if err != nil {
			conn.Close()
			return nil, errors.NotifyError("failed to ensure JetStream stream").
				WithCause(err).
				WithContext("stream", cfg.Stream).
				Build()
		}
		p.send = func(ctx context.Context, subject string, data []byte) error {
			_, err := js.Publish(ctx, subject, data)
			return err
		}
	}

	slog.Info("NATS publisher initialized",
		logfields.URL(cfg.NATSURL),
		slog.String("subject", cfg.Subject),
		slog.Bool("jetstream", cfg.JetStream))

	return p, nil
}

// Publish sends event on the blog's subject.
func (p *NATSPublisher) Publish(ctx context.Context, event ChangeEvent) error {
	if event.At.IsZero() {
		event.At = p.now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return errors.NotifyError("failed to marshal change event").WithCause(err).Build()
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	subject := Subject(p.subject, event.BlogID)
	if err := p.send(ctx, subject, data); err != nil {
		return errors.NotifyError("failed to publish change event").
			WithCause(err).
			WithContext("subject", subject).
			Build()
	}

	slog.Debug("Published change event",
		slog.String("type", event.Type),
		logfields.BlogID(event.BlogID),
		slog.String("subject", subject))
	return nil
}

// Close drains and closes the NATS connection.
func (p *NATSPublisher) Close() error {
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return errors.NotifyError("failed to drain NATS connection").WithCause(err).Build()
	}
	return nil
}
