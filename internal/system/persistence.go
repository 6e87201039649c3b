package system

import (
	"context"
	"time"

	"github.com/l1jgo/worldhost/internal/core/event"
	coresys "github.com/l1jgo/worldhost/internal/core/system"
	"github.com/l1jgo/worldhost/internal/persist"
	"go.uber.org/zap"
)

// SessionJournal stores world session history. persist.SessionLogRepo
// implements it.
type SessionJournal interface {
	WriteBatch(ctx context.Context, entries []persist.SessionLogEntry) error
}

// maxPendingEntries bounds the journal backlog while the database is down.
const maxPendingEntries = 10000

// PersistenceSystem records world joins, leaves, mode changes and closes,
// writing them in one transaction every interval ticks. Phase 5 (Persist).
type PersistenceSystem struct {
	journal   SessionJournal
	pending   []persist.SessionLogEntry
	log       *zap.Logger
	now       func() time.Time
	tickCount int
	interval  int
}

func NewPersistenceSystem(journal SessionJournal, bus *event.Bus, intervalTicks int, log *zap.Logger) *PersistenceSystem {
	s := &PersistenceSystem{
		journal:  journal,
		log:      log,
		now:      time.Now,
		interval: max(1, intervalTicks),
	}
	s.subscribe(bus)
	return s
}

func (s *PersistenceSystem) subscribe(bus *event.Bus) {
	event.Subscribe(bus, func(e event.PlayerJoinedWorld) {
		s.record(persist.SessionLogEntry{Kind: "join", UID: e.UID, HostUID: e.HostUID, WorldID: e.WorldID, PeerID: e.PeerID})
	})
	event.Subscribe(bus, func(e event.PlayerLeftWorld) {
		s.record(persist.SessionLogEntry{Kind: "leave", UID: e.UID, HostUID: e.HostUID, WorldID: e.WorldID})
	})
	event.Subscribe(bus, func(e event.WorldModeChanged) {
		s.record(persist.SessionLogEntry{Kind: "mode", UID: e.HostUID, HostUID: e.HostUID, WorldID: e.WorldID, Mp: e.Mp})
	})
	event.Subscribe(bus, func(e event.WorldClosed) {
		s.record(persist.SessionLogEntry{Kind: "close", UID: e.HostUID, HostUID: e.HostUID, WorldID: e.WorldID})
	})
}

func (s *PersistenceSystem) record(e persist.SessionLogEntry) {
	e.At = s.now()
	if len(s.pending) >= maxPendingEntries {
		s.pending = s.pending[1:]
	}
	s.pending = append(s.pending, e)
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.Flush()
}

// Flush writes every pending entry now. Failed batches stay pending for the
// next flush. Called once more during graceful shutdown.
func (s *PersistenceSystem) Flush() {
	if len(s.pending) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.journal.WriteBatch(ctx, s.pending); err != nil {
		s.log.Error("世界紀錄寫入失敗", zap.Int("entries", len(s.pending)), zap.Error(err))
		return
	}
	s.pending = s.pending[:0]
}

// Pending returns the number of entries not yet written.
func (s *PersistenceSystem) Pending() int { return len(s.pending) }
