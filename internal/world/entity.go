package world

import (
	"fmt"

	"github.com/l1jgo/worldhost/internal/core/ecs"
	"github.com/l1jgo/worldhost/internal/data"
)

// Kind is the entity type, stored in the upper bits of the entity id.
type Kind uint8

const (
	KindAvatar Kind = iota + 1
	KindMonster
	KindNpc
	KindGadget
)

var kindNames = [...]string{
	KindAvatar:  "avatar",
	KindMonster: "monster",
	KindNpc:     "npc",
	KindGadget:  "gadget",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// VisionType tells clients why an entity appeared or disappeared.
type VisionType uint8

const (
	VisionNone    VisionType = iota
	VisionMeet               // came into view (already existed)
	VisionReborn             // revived
	VisionReplace            // replaced another entity
	VisionMiss               // went out of view
	VisionDie                // died
	VisionRemove             // removed from the scene
	VisionBorn               // freshly created
)

// Motion is an entity's position and euler rotation.
type Motion struct {
	Pos data.Vec3
	Rot data.Vec3
}

// AuthorityInfo is the simulation hand-off data sent with an authority change.
type AuthorityInfo struct {
	AIOpen  bool
	BornPos data.Vec3
}

// Entity is a simulated object in a scene. Kind-specific fields are only
// meaningful for their kind.
type Entity struct {
	ID        ecs.EntityID
	Kind      Kind
	ContentID uint32 // monster, npc or gadget id
	ConfigID  uint32
	GroupID   uint32
	BlockID   uint32

	Motion  Motion
	BornPos data.Vec3
	Dead    bool

	AuthorityPeerID uint32
	AIOpen          bool

	// monster
	Level   int32
	PoseID  uint32
	IsElite bool

	// npc
	SuiteIDs []uint32

	// gadget (Level shared with monster)
	InteractID uint32

	// avatar
	OwnerUID uint32

	registered bool
}

func NewMonster(monsterID uint32) *Entity {
	return &Entity{Kind: KindMonster, ContentID: monsterID, AIOpen: true}
}

func NewNpc(npcID uint32) *Entity {
	return &Entity{Kind: KindNpc, ContentID: npcID, AIOpen: true}
}

func NewGadget(gadgetID uint32) *Entity {
	return &Entity{Kind: KindGadget, ContentID: gadgetID}
}

func NewAvatar(uid uint32) *Entity {
	return &Entity{Kind: KindAvatar, OwnerUID: uid}
}

// place sets position, rotation and born position from static config.
func (e *Entity) place(pos, rot data.Vec3) {
	e.Motion.Pos = pos
	e.Motion.Rot = rot
	e.BornPos = pos
}

// Registered reports whether the entity is currently in a scene registry.
func (e *Entity) Registered() bool { return e.registered }

// AuthorityInfo exports the data a new authority needs to take over.
func (e *Entity) AuthorityInfo() AuthorityInfo {
	return AuthorityInfo{AIOpen: e.AIOpen, BornPos: e.BornPos}
}

func (e *Entity) String() string {
	return fmt.Sprintf("%s#%d(cfg=%d group=%d)", e.Kind, e.ID.Index(), e.ConfigID, e.GroupID)
}

// clampLevel bounds a scaled monster level to [1, 100].
func clampLevel(level int32) int32 {
	return max(1, min(100, level))
}
