package world

import (
	"context"

	"github.com/l1jgo/worldhost/internal/core/ecs"
	"go.uber.org/zap"
)

// EntityRegistry is the canonical add/remove of entities in a scene.
// Add and Remove are idempotent.
type EntityRegistry interface {
	Add(ctx context.Context, e *Entity, vision VisionType) error
	Remove(ctx context.Context, e *Entity, vision VisionType) error
}

// EntityManager is the per-world EntityRegistry. It assigns ids, gives new
// entities an authority and tells world members what appeared or vanished.
// Accessed only from the game loop goroutine.
type EntityManager struct {
	world    *World
	pools    map[Kind]*ecs.EntityPool
	entities *ecs.Store[Entity]
	log      *zap.Logger
}

func newEntityManager(w *World, log *zap.Logger) *EntityManager {
	return &EntityManager{
		world: w,
		pools: map[Kind]*ecs.EntityPool{
			KindAvatar:  ecs.NewEntityPool(uint8(KindAvatar)),
			KindMonster: ecs.NewEntityPool(uint8(KindMonster)),
			KindNpc:     ecs.NewEntityPool(uint8(KindNpc)),
			KindGadget:  ecs.NewEntityPool(uint8(KindGadget)),
		},
		entities: ecs.NewStore[Entity](),
		log:      log,
	}
}

// Add registers e. An entity keeps its id across remove/add, so revived
// entities reappear under the id clients already know.
func (m *EntityManager) Add(ctx context.Context, e *Entity, vision VisionType) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.registered {
		return nil
	}
	if e.ID.IsZero() {
		pool, ok := m.pools[e.Kind]
		if !ok {
			pool = ecs.NewEntityPool(uint8(e.Kind))
			m.pools[e.Kind] = pool
		}
		e.ID = pool.Create()
	}
	if e.AuthorityPeerID == 0 || m.world.Member(e.AuthorityPeerID) == nil {
		e.AuthorityPeerID = m.world.authorityPeer()
	}
	e.registered = true
	m.entities.Set(e.ID, e)
	m.world.state.notify.EntityAppear(m.world.Members(), []*Entity{e}, vision)
	return nil
}

// Remove unregisters e and keeps its id for a later Add.
func (m *EntityManager) Remove(ctx context.Context, e *Entity, vision VisionType) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !e.registered {
		return nil
	}
	e.registered = false
	m.entities.Remove(e.ID)
	m.world.state.notify.EntityDisappear(m.world.Members(), []ecs.EntityID{e.ID}, vision)
	return nil
}

// Release frees the id of an unregistered entity. Used for avatars, which
// get a fresh id in every world they enter.
func (m *EntityManager) Release(e *Entity) {
	if e.registered || e.ID.IsZero() {
		return
	}
	if pool, ok := m.pools[e.Kind]; ok {
		pool.Destroy(e.ID)
	}
	e.ID = 0
}

func (m *EntityManager) Get(id ecs.EntityID) *Entity {
	e, _ := m.entities.Get(id)
	return e
}

func (m *EntityManager) Len() int {
	return m.entities.Len()
}

// Each visits every registered entity in id order.
func (m *EntityManager) Each(fn func(*Entity)) {
	m.entities.Each(func(_ ecs.EntityID, e *Entity) { fn(e) })
}

// OwnedBy returns the entities whose authority is peerID, in id order.
func (m *EntityManager) OwnedBy(peerID uint32) []*Entity {
	var out []*Entity
	m.entities.Each(func(_ ecs.EntityID, e *Entity) {
		if e.AuthorityPeerID == peerID {
			out = append(out, e)
		}
	})
	return out
}
