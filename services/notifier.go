package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"turbineops/models"
	"turbineops/storage"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// PlanNotifier tells the outside world that a repair plan was generated.
type PlanNotifier interface {
	NotifyPlan(ctx context.Context, event models.PlanEvent) error
}

const planEventName = "plan"

// HubNotifier publishes straight into the local SSE hub.
type HubNotifier struct {
	hub *Hub
}

func NewHubNotifier(hub *Hub) *HubNotifier {
	return &HubNotifier{hub: hub}
}

func (n *HubNotifier) NotifyPlan(_ context.Context, event models.PlanEvent) error {
	payload, err := encodePlanEvent(event)
	if err != nil {
		return err
	}
	n.hub.Publish(Event{Name: planEventName, Data: payload})
	return nil
}

// PGNotifier sends plan events through pg_notify. RelayPlans delivers them
// to the hub of every instance, this one included.
type PGNotifier struct {
	db *gorm.DB
}

func NewPGNotifier(db *gorm.DB) *PGNotifier {
	return &PGNotifier{db: db}
}

func (n *PGNotifier) NotifyPlan(ctx context.Context, event models.PlanEvent) error {
	payload, err := encodePlanEvent(event)
	if err != nil {
		return err
	}
	return storage.NotifyPlan(ctx, n.db, payload)
}

// RelayPlans feeds PostgreSQL plan notifications into hub until ctx is done.
func RelayPlans(ctx context.Context, dsn string, hub *Hub, log zerolog.Logger) error {
	log = log.With().Str("component", "plan-listener").Logger()
	return storage.ListenPlans(ctx, dsn, log, func(payload string) {
		hub.Publish(Event{Name: planEventName, Data: payload})
	})
}

// NATSPublisher publishes plan events on a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to url. Reconnects are handled by the client.
func NewNATSPublisher(url, subject string, log zerolog.Logger) (*NATSPublisher, error) {
	log = log.With().Str("component", "nats").Logger()
	conn, err := nats.Connect(url,
		nats.Name("turbineops"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.Timeout(5*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

func (p *NATSPublisher) NotifyPlan(_ context.Context, event models.PlanEvent) error {
	payload, err := encodePlanEvent(event)
	if err != nil {
		return err
	}
	return p.conn.Publish(p.subject, []byte(payload))
}

// Close flushes pending messages and closes the connection.
func (p *NATSPublisher) Close() {
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
	}
}

// MultiNotifier notifies every member and joins their errors.
type MultiNotifier []PlanNotifier

func (m MultiNotifier) NotifyPlan(ctx context.Context, event models.PlanEvent) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.NotifyPlan(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
