package world

import "github.com/l1jgo/worldhost/internal/core/ecs"

// Notifier encodes and delivers world changes to clients. The handler
// package implements it on top of the packet delivery primitives; the world
// package only decides who is told what.
type Notifier interface {
	PlayerData(p *Player)
	PlayerEnterScene(p *Player, w *World)
	EntityAppear(to []*Player, entities []*Entity, vision VisionType)
	EntityDisappear(to []*Player, ids []ecs.EntityID, vision VisionType)
	AuthorityChanged(to []*Player, changes []AuthorityChange)
	TeamUpdate(to []*Player, w *World)
	ForwardBatch(to *Player, entries []ForwardEntry)
}

// nopNotifier discards every notification.
type nopNotifier struct{}

func (nopNotifier) PlayerData(*Player)                                    {}
func (nopNotifier) PlayerEnterScene(*Player, *World)                      {}
func (nopNotifier) EntityAppear([]*Player, []*Entity, VisionType)         {}
func (nopNotifier) EntityDisappear([]*Player, []ecs.EntityID, VisionType) {}
func (nopNotifier) AuthorityChanged([]*Player, []AuthorityChange)         {}
func (nopNotifier) TeamUpdate([]*Player, *World)                          {}
func (nopNotifier) ForwardBatch(*Player, []ForwardEntry)                  {}
