package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SessionLogEntry records one world membership or mode change.
type SessionLogEntry struct {
	Kind    string // "join", "leave", "mode", "close"
	UID     uint32
	HostUID uint32
	WorldID uuid.UUID
	PeerID  uint32
	Mp      bool
	At      time.Time
}

// SessionLogRepo appends world session history.
type SessionLogRepo struct {
	db *DB
}

func NewSessionLogRepo(db *DB) *SessionLogRepo {
	return &SessionLogRepo{db: db}
}

// WriteBatch writes entries in one transaction, queued as a single pgx batch.
func (r *SessionLogRepo) WriteBatch(ctx context.Context, entries []SessionLogEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.InTx(ctx, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, e := range entries {
			batch.Queue(
				`INSERT INTO world_session_log (kind, uid, host_uid, world_id, peer_id, mp, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				e.Kind, int32(e.UID), int32(e.HostUID), e.WorldID, int32(e.PeerID), e.Mp, e.At,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("session log insert: %w", err)
		}
		return nil
	})
}
