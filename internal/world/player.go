package world

import (
	"fmt"

	"github.com/l1jgo/worldhost/internal/data"
	"github.com/l1jgo/worldhost/internal/net/packet"
)

// Membership is a player's relation to the world it is in.
type Membership uint8

const (
	MembershipNone Membership = iota // not in any world (before login)
	SoloHost                         // alone in its own world
	MpMember                         // in a shared world, as host or guest
	Transitioning                    // between worlds during a join
)

func (m Membership) String() string {
	switch m {
	case SoloHost:
		return "SoloHost"
	case MpMember:
		return "MpMember"
	case Transitioning:
		return "Transitioning"
	default:
		return "None"
	}
}

// Player is an online player. Accessed only from the game loop goroutine.
type Player struct {
	UID  uint32
	Name string
	Conn packet.Conn

	HostWorld    *World
	CurrentWorld *World
	PeerID       uint32 // peer id in CurrentWorld, 0 when in none
	Avatar       *Entity

	// Pos is the last reported avatar position; kept across worlds.
	Pos data.Vec3

	Forward *ForwardBuffer

	transitioning bool
	removed       bool
}

func (p *Player) Membership() Membership {
	switch {
	case p.transitioning:
		return Transitioning
	case p.CurrentWorld == nil:
		return MembershipNone
	case p.CurrentWorld.mpMode:
		return MpMember
	default:
		return SoloHost
	}
}

// IsInMp reports whether the player is in a shared world.
func (p *Player) IsInMp() bool {
	return p.CurrentWorld != nil && p.CurrentWorld.mpMode
}

// Online reports whether the player is still registered with the game state.
func (p *Player) Online() bool {
	return !p.removed && (p.Conn == nil || !p.Conn.IsClosed())
}

func (p *Player) String() string {
	return fmt.Sprintf("player(%d)", p.UID)
}
