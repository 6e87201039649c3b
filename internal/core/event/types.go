package event

import "github.com/google/uuid"

// World-level events. Emitted by the world package from the game loop and
// delivered one tick later by EventSystem.

type WorldModeChanged struct {
	WorldID uuid.UUID
	HostUID uint32
	Mp      bool
}

type PlayerJoinedWorld struct {
	UID     uint32
	WorldID uuid.UUID
	HostUID uint32
	PeerID  uint32
	Fresh   bool // joined through the login sequence rather than as a guest
}

type PlayerLeftWorld struct {
	UID     uint32
	WorldID uuid.UUID
	HostUID uint32
}

type WorldClosed struct {
	WorldID uuid.UUID
	HostUID uint32
}
