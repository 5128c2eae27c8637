package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/campus-gate-api/internal/models"
)

// Gate event types.
const (
	GateEventIssued   = "issued"
	GateEventExit     = "exit"
	GateEventEnter    = "enter"
	GateEventOverride = "override"
)

// GateEvent is broadcast whenever a pass is issued or a holder crosses the gate.
type GateEvent struct {
	Type        string              `json:"type"`
	PassID      uint                `json:"pass_id"`
	StudentID   uint                `json:"student_id"`
	Action      models.PassAction   `json:"action"`
	Destination string              `json:"destination"`
	Status      models.CampusStatus `json:"status"`
	OperatorID  *uint               `json:"operator_id,omitempty"`
	OccurredAt  time.Time           `json:"occurred_at"`
}

// GateEventPublisher fans gate events out to subscribers.
type GateEventPublisher interface {
	Publish(ctx context.Context, event GateEvent) error
}

type gateEventBus struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
}

// NewGateEventBus publishes gate events on "<channel>:events" in Redis and
// "<channel>.events" in NATS. Either client may be nil.
func NewGateEventBus(redisClient *redis.Client, natsConn *nats.Conn, channelBase string) GateEventPublisher {
	bus := &gateEventBus{redis: redisClient, nats: natsConn}
	if channelBase != "" {
		bus.redisChannel = channelBase + ":events"
		bus.natsSubject = strings.ReplaceAll(channelBase, ":", ".") + ".events"
	}
	return bus
}

func (b *gateEventBus) Publish(ctx context.Context, event GateEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	var errs []error
	if b.redis != nil && b.redisChannel != "" {
		if err := b.redis.Publish(ctx, b.redisChannel, payload).Err(); err != nil {
			errs = append(errs, err)
		}
	}
	if b.nats != nil && b.natsSubject != "" {
		if err := b.nats.Publish(b.natsSubject, payload); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
