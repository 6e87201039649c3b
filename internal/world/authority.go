package world

import (
	"github.com/l1jgo/worldhost/internal/core/ecs"
	"github.com/l1jgo/worldhost/internal/metrics"
)

// AuthorityChange is one entry of an authority change notification.
type AuthorityChange struct {
	EntityID ecs.EntityID
	PeerID   uint32
	Info     AuthorityInfo
}

// AuthorityBatch collects entities whose authority changed since the last
// flush. Each entity appears at most once.
type AuthorityBatch struct {
	entities []*Entity
}

// Add queues e unless it is already queued. Reports whether it was added.
func (b *AuthorityBatch) Add(e *Entity) bool {
	if b.Contains(e) {
		return false
	}
	b.entities = append(b.entities, e)
	return true
}

func (b *AuthorityBatch) Contains(e *Entity) bool {
	for _, q := range b.entities {
		if q == e {
			return true
		}
	}
	return false
}

func (b *AuthorityBatch) Len() int { return len(b.entities) }

// Take empties the batch and returns the queued entities' current authority,
// in the order they were added.
func (b *AuthorityBatch) Take() []AuthorityChange {
	if len(b.entities) == 0 {
		return nil
	}
	changes := make([]AuthorityChange, len(b.entities))
	for i, e := range b.entities {
		changes[i] = AuthorityChange{
			EntityID: e.ID,
			PeerID:   e.AuthorityPeerID,
			Info:     e.AuthorityInfo(),
		}
	}
	b.entities = b.entities[:0]
	return changes
}

// Tracker holds the authority of every entity in one world and batches the
// changes into one notification per flush.
type Tracker struct {
	world *World
	batch AuthorityBatch
}

func newTracker(w *World) *Tracker {
	return &Tracker{world: w}
}

// Owner returns the peer simulating e.
func (t *Tracker) Owner(e *Entity) uint32 {
	return e.AuthorityPeerID
}

// Set moves e's authority to peerID. If a change to e is still pending, the
// batch is flushed first so clients observe every owner in order.
func (t *Tracker) Set(e *Entity, peerID uint32) {
	if e.AuthorityPeerID == peerID {
		return
	}
	if t.batch.Contains(e) {
		t.Flush()
	}
	e.AuthorityPeerID = peerID
	t.batch.Add(e)
}

// Reassign moves every entity owned by fromPeer to toPeer.
func (t *Tracker) Reassign(fromPeer, toPeer uint32) int {
	owned := t.world.entities.OwnedBy(fromPeer)
	for _, e := range owned {
		t.Set(e, toPeer)
	}
	return len(owned)
}

// Pending returns the number of queued changes.
func (t *Tracker) Pending() int { return t.batch.Len() }

// Flush sends queued changes to every world member as one notification.
// An empty batch sends nothing.
func (t *Tracker) Flush() {
	changes := t.batch.Take()
	if len(changes) == 0 {
		return
	}
	metrics.AuthorityChanges.Add(float64(len(changes)))
	t.world.state.notify.AuthorityChanged(t.world.Members(), changes)
}
