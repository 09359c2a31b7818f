// Package events announces newly logged workouts to other consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/briangreenhill/mapty/internal/workout"
)

// Publisher is notified after a workout has been saved.
type Publisher interface {
	WorkoutLogged(ctx context.Context, w workout.Workout) error
	Close()
}

// Noop discards every event.
type Noop struct{}

func (Noop) WorkoutLogged(context.Context, workout.Workout) error { return nil }
func (Noop) Close()                                               {}

// conn is the part of *nats.Conn the publisher uses.
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATSPublisher publishes each workout as JSON on "<subject>.<kind>".
type NATSPublisher struct {
	conn    conn
	subject string
}

func NewNATSPublisher(url, subject string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("mapty"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSPublisher{conn: nc, subject: subject}, nil
}

func Subject(prefix string, kind workout.Kind) string {
	return prefix + "." + string(kind)
}

func (p *NATSPublisher) WorkoutLogged(ctx context.Context, w workout.Workout) error {
	data, err := json.Marshal(w)
	if err != nil {
		return err
	}
	return p.conn.Publish(Subject(p.subject, w.Kind()), data)
}

// Close drains and closes the connection.
func (p *NATSPublisher) Close() {
	_ = p.conn.Drain()
}
