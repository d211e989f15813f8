// Package natsbridge mirrors session notifications to NATS subjects of the
// form "<prefix>.<kind>.<action>" with a JSON body.
package natsbridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/gsit/internal/attach"
	"git.home.luguber.info/inful/gsit/internal/events"
	ferrors "git.home.luguber.info/inful/gsit/internal/foundation/errors"
	"git.home.luguber.info/inful/gsit/internal/logfields"
	"git.home.luguber.info/inful/gsit/internal/retry"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "gsit"

// Publisher is the part of *nats.Conn the bridge uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Message is the JSON body published for every notification.
type Message struct {
	PlayerID   string            `json:"player_id"`
	PlayerName string            `json:"player_name"`
	Kind       attach.Kind       `json:"kind"`
	Action     events.Action     `json:"action"`
	Reason     attach.StopReason `json:"reason,omitempty"`
	Cell       string            `json:"cell,omitempty"`
	Variant    attach.Variant    `json:"variant,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// Bridge publishes notifications to NATS.
type Bridge struct {
	pub    Publisher
	prefix string
	clock  clockwork.Clock
	logger *slog.Logger
	conn   *nats.Conn
}

// New wraps an existing publisher.
func New(pub Publisher, prefix string, clock clockwork.Clock, logger *slog.Logger) *Bridge {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{pub: pub, prefix: prefix, clock: clock, logger: logger}
}

// Connect dials url, retrying the initial connection according to policy,
// and returns a bridge that owns the connection.
func Connect(ctx context.Context, url, prefix string, policy retry.Policy, logger *slog.Logger) (*Bridge, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var conn *nats.Conn
	err := policy.Do(ctx, nil, func(attempt int) error {
		var err error
		conn, err = nats.Connect(url,
			nats.Name("gsit"),
			nats.MaxReconnects(-1),
			nats.ReconnectWait(2*time.Second),
		)
		if err != nil && attempt < policy.MaxRetries {
			logger.Warn("NATS connection failed, retrying",
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", policy.Delay(attempt+1)),
				logfields.Error(err))
		}
		return err
	})
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryTransport, "failed to connect to NATS").
			WithContext("url", url).
			Build()
	}
	b := New(conn, prefix, nil, logger)
	b.conn = conn
	b.logger.Info("NATS bridge connected", slog.String("url", url), logfields.Subject(prefix))
	return b, nil
}

// Subject returns the subject a notification is published on.
func (b *Bridge) Subject(kind attach.Kind, action events.Action) string {
	return b.prefix + "." + string(kind) + "." + string(action)
}

// Subscribe attaches the bridge to every notification on bus.
func (b *Bridge) Subscribe(bus *events.Bus) func() {
	return events.Subscribe(bus, func(_ context.Context, n events.Notification) {
		if err := b.Publish(n); err != nil {
			b.logger.Warn("Failed to mirror notification", logfields.Error(err))
		}
	})
}

// Publish sends one notification.
func (b *Bridge) Publish(n events.Notification) error {
	msg := Message{
		PlayerID:   n.Player().ID().String(),
		PlayerName: n.Player().Name(),
		Kind:       n.Kind(),
		Action:     n.Action(),
		Reason:     n.StopReason(),
		Timestamp:  b.clock.Now(),
	}
	switch e := n.(type) {
	case *events.PoseStarted:
		msg.Cell, msg.Variant = e.Pose.Cell().String(), e.Pose.Variant()
	case *events.PoseStopped:
		msg.Cell, msg.Variant = e.Pose.Cell().String(), e.Pose.Variant()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryTransport, "failed to marshal notification").Build()
	}
	subject := b.Subject(msg.Kind, msg.Action)
	if err := b.pub.Publish(subject, data); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryTransport, "failed to publish notification").
			WithContext("subject", subject).
			Build()
	}
	b.logger.Debug("Mirrored notification", logfields.Subject(subject), logfields.PlayerName(msg.PlayerName))
	return nil
}

// Close drains the owned connection, if any.
func (b *Bridge) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Drain()
}
