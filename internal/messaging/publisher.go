package messaging

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/l1jgo/worldhost/internal/core/event"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Subjects, relative to the configured prefix.
const (
	SubjectWorldMode   = "world.mode"
	SubjectWorldJoin   = "world.join"
	SubjectWorldLeave  = "world.leave"
	SubjectWorldClosed = "world.closed"
)

// WorldEvent is the JSON payload of every published world event.
type WorldEvent struct {
	Kind    string    `json:"kind"`
	WorldID uuid.UUID `json:"world_id"`
	HostUID uint32    `json:"host_uid"`
	UID     uint32    `json:"uid,omitempty"`
	PeerID  uint32    `json:"peer_id,omitempty"`
	Mp      bool      `json:"mp,omitempty"`
	Fresh   bool      `json:"fresh,omitempty"`
	At      int64     `json:"at"`
}

// EventPublisher forwards world events from the bus to NATS subjects.
// Publishing is buffered by the client and never blocks the game loop.
type EventPublisher struct {
	conn   *nats.Conn
	prefix string
	log    *zap.Logger
	now    func() time.Time
}

func NewEventPublisher(conn *nats.Conn, prefix string, log *zap.Logger) *EventPublisher {
	return &EventPublisher{conn: conn, prefix: prefix, log: log, now: time.Now}
}

// Subject returns the full subject for a relative one.
func (p *EventPublisher) Subject(rel string) string {
	if p.prefix == "" {
		return rel
	}
	return p.prefix + "." + rel
}

// Attach subscribes the publisher to world events on bus.
func (p *EventPublisher) Attach(bus *event.Bus) {
	event.Subscribe(bus, func(e event.WorldModeChanged) {
		p.publish(SubjectWorldMode, WorldEvent{Kind: "mode", WorldID: e.WorldID, HostUID: e.HostUID, Mp: e.Mp})
	})
	event.Subscribe(bus, func(e event.PlayerJoinedWorld) {
		p.publish(SubjectWorldJoin, WorldEvent{
			Kind: "join", WorldID: e.WorldID, HostUID: e.HostUID,
			UID: e.UID, PeerID: e.PeerID, Fresh: e.Fresh,
		})
	})
	event.Subscribe(bus, func(e event.PlayerLeftWorld) {
		p.publish(SubjectWorldLeave, WorldEvent{Kind: "leave", WorldID: e.WorldID, HostUID: e.HostUID, UID: e.UID})
	})
	event.Subscribe(bus, func(e event.WorldClosed) {
		p.publish(SubjectWorldClosed, WorldEvent{Kind: "close", WorldID: e.WorldID, HostUID: e.HostUID})
	})
}

func (p *EventPublisher) publish(rel string, ev WorldEvent) {
	ev.At = p.now().UnixMilli()
	if err := p.send(p.Subject(rel), ev); err != nil {
		p.log.Warn("世界事件發佈失敗", zap.String("subject", rel), zap.Error(err))
	}
}

func (p *EventPublisher) send(subject string, ev WorldEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", ev.Kind, err)
	}
	return p.conn.Publish(subject, data)
}
