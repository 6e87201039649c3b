package world

import "github.com/l1jgo/worldhost/internal/net/packet"

// ForwardType selects who receives a relayed client notification.
type ForwardType uint8

const (
	ForwardLocal          ForwardType = 0
	ForwardToAll          ForwardType = 1
	ForwardToAllExceptCur ForwardType = 2
	ForwardToHost         ForwardType = 3
	ForwardToAllGuest     ForwardType = 4
	ForwardOnlyServer     ForwardType = 7
)

// ForwardEntry is one queued notification to relay.
type ForwardEntry struct {
	Desc *packet.Descriptor
	Type ForwardType
	Body []byte
	Seq  uint32
}

// ForwardBuffer queues notifications a player's client asked to relay to the
// other members of its current world.
type ForwardBuffer struct {
	owner   *Player
	entries []ForwardEntry
}

func newForwardBuffer(owner *Player) *ForwardBuffer {
	return &ForwardBuffer{owner: owner}
}

// AddEntry queues one notification.
func (b *ForwardBuffer) AddEntry(desc *packet.Descriptor, ft ForwardType, body []byte, seq uint32) {
	b.entries = append(b.entries, ForwardEntry{Desc: desc, Type: ft, Body: body, Seq: seq})
}

func (b *ForwardBuffer) Len() int { return len(b.entries) }

// SendAll empties the buffer and delivers its entries, one batch per
// recipient with entry order preserved. It returns the number of batches.
func (b *ForwardBuffer) SendAll() int {
	entries := b.entries
	b.entries = nil
	if len(entries) == 0 {
		return 0
	}
	w := b.owner.CurrentWorld
	if w == nil {
		return 0
	}

	var order []*Player
	batches := make(map[*Player][]ForwardEntry)
	for _, entry := range entries {
		for _, to := range b.recipients(w, entry.Type) {
			if _, ok := batches[to]; !ok {
				order = append(order, to)
			}
			batches[to] = append(batches[to], entry)
		}
	}
	for _, to := range order {
		w.state.notify.ForwardBatch(to, batches[to])
	}
	return len(order)
}

func (b *ForwardBuffer) recipients(w *World, ft ForwardType) []*Player {
	members := w.Members()
	var out []*Player
	switch ft {
	case ForwardToAll:
		out = members
	case ForwardToAllExceptCur:
		for _, m := range members {
			if m != b.owner {
				out = append(out, m)
			}
		}
	case ForwardToHost:
		if host := w.Member(HostPeerID); host != nil {
			out = append(out, host)
		}
	case ForwardToAllGuest:
		for _, m := range members {
			if m.PeerID != HostPeerID {
				out = append(out, m)
			}
		}
	}
	// ForwardLocal and ForwardOnlyServer stop at the server.
	return out
}
