// Package events publishes best-effort lifecycle notifications after a
// controller commits a metadata mutation.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cloudemu/engine/pkg/logger"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const subjectPrefix = "cloudemu"

// Event describes one committed lifecycle transition.
type Event struct {
	Kind       string    `json:"kind"` // ec2 or rds
	Op         string    `json:"op"`
	ID         string    `json:"instance_id"`
	Identifier string    `json:"identifier"`
	Status     string    `json:"status,omitempty"`
	At         time.Time `json:"at"`
}

// Subject is the NATS subject an event is published on.
func (e Event) Subject() string {
	return fmt.Sprintf("%s.%s.%s", subjectPrefix, e.Kind, e.Op)
}

// Publisher delivers lifecycle events. Publish failures never fail the request.
type Publisher interface {
	Publish(ctx context.Context, e Event)
	Close()
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) {}
func (Nop) Close()                         {}

// NATS publishes events as JSON on a NATS connection.
type NATS struct {
	nc *nats.Conn
}

func NewNATS(url string) (*NATS, error) {
	opts := []nats.Option{
		nats.Name("cloudemu-api"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.L().Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.L().Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &NATS{nc: nc}, nil
}

func (p *NATS) Publish(_ context.Context, e Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		logger.L().Warn("marshal event failed", zap.Error(err))
		return
	}
	if p.nc == nil || p.nc.IsClosed() {
		logger.L().Warn("nats not connected, dropping event", zap.String("subject", e.Subject()))
		return
	}
	if err := p.nc.Publish(e.Subject(), payload); err != nil {
		logger.L().Warn("publish event failed", zap.String("subject", e.Subject()), zap.Error(err))
	}
}

func (p *NATS) Close() {
	if p.nc != nil {
		_ = p.nc.Drain()
		p.nc.Close()
	}
}
