package world

import (
	"context"
	"testing"

	"github.com/l1jgo/worldhost/internal/core/sched"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorityBatchDeduplicates(t *testing.T) {
	var b AuthorityBatch
	e := &Entity{ID: 7, AuthorityPeerID: 2}
	assert.True(t, b.Add(e))
	assert.False(t, b.Add(e))
	assert.Equal(t, 1, b.Len())

	changes := b.Take()
	require.Len(t, changes, 1)
	assert.Equal(t, uint32(2), changes[0].PeerID)
	assert.Zero(t, b.Len())
	assert.Nil(t, b.Take())
}

// sharedWorld logs in a host and a guest and puts the guest in the host's
// world with the static group loaded.
func sharedWorld(t *testing.T, f *stateFixture) (*World, *Player, *Player) {
	t.Helper()
	host, _ := f.login(t, 1)
	guest, _ := f.login(t, 2)
	w := host.CurrentWorld
	ctx := context.Background()

	require.NoError(t, w.Scene().Group(101).Load(ctx, sched.Immediate{}))
	w.ChangeToMp()
	require.NoError(t, guest.CurrentWorld.Leave(ctx, guest))
	require.NoError(t, w.Join(ctx, guest, false))
	w.SceneReady(guest)
	w.Authority().Flush()
	f.notify.authority = nil
	return w, host, guest
}

func TestGroupEntitiesOwnedByHost(t *testing.T) {
	f := newStateFixture(t)
	w, _, _ := sharedWorld(t, f)
	for _, e := range w.Scene().Group(101).Monsters() {
		assert.Equal(t, HostPeerID, e.AuthorityPeerID)
		assert.True(t, e.Registered())
	}
}

func TestTrackerFlushBatchesChanges(t *testing.T) {
	f := newStateFixture(t)
	w, _, guest := sharedWorld(t, f)
	tr := w.Authority()
	monsters := w.Scene().Group(101).Monsters()

	tr.Flush()
	assert.Empty(t, f.notify.authority, "empty batch sends nothing")

	tr.Set(monsters[0], guest.PeerID)
	tr.Set(monsters[1], guest.PeerID)
	tr.Set(monsters[1], guest.PeerID)
	assert.Equal(t, 2, tr.Pending())

	tr.Flush()
	require.Len(t, f.notify.authority, 1)
	changes := f.notify.authority[0]
	require.Len(t, changes, 2)
	assert.Equal(t, monsters[0].ID, changes[0].EntityID)
	assert.Equal(t, guest.PeerID, changes[0].PeerID)
	assert.True(t, changes[0].Info.AIOpen)
	assert.Equal(t, monsters[0].BornPos, changes[0].Info.BornPos)
}

func TestTrackerFlushesBeforeSecondChange(t *testing.T) {
	f := newStateFixture(t)
	w, _, guest := sharedWorld(t, f)
	tr := w.Authority()
	m := w.Scene().Group(101).Monsters()[0]

	tr.Set(m, guest.PeerID)
	tr.Set(m, HostPeerID)
	require.Len(t, f.notify.authority, 1, "pending change observed before the next one")
	assert.Equal(t, guest.PeerID, f.notify.authority[0][0].PeerID)

	tr.Flush()
	require.Len(t, f.notify.authority, 2)
	assert.Equal(t, HostPeerID, f.notify.authority[1][0].PeerID)
}

func TestLeaveReassignsAuthorityToHost(t *testing.T) {
	f := newStateFixture(t)
	w, _, guest := sharedWorld(t, f)
	tr := w.Authority()
	npcs := w.Scene().Group(101).Npcs()
	for _, e := range npcs {
		tr.Set(e, guest.PeerID)
	}
	tr.Flush()

	require.NoError(t, w.Leave(context.Background(), guest))
	for _, e := range npcs {
		assert.Equal(t, HostPeerID, e.AuthorityPeerID)
	}
	assert.Equal(t, len(npcs), tr.Pending())
	assert.False(t, w.IsMp())
}

func TestKillEntityRequiresAuthority(t *testing.T) {
	f := newStateFixture(t)
	w, host, guest := sharedWorld(t, f)
	ctx := context.Background()
	m := w.Scene().Group(101).Monsters()[0]

	killed, err := w.KillEntity(ctx, guest, m.ID)
	require.NoError(t, err)
	assert.False(t, killed)

	killed, err = w.KillEntity(ctx, host, m.ID)
	require.NoError(t, err)
	assert.True(t, killed)
	assert.True(t, m.Dead)
	assert.False(t, m.Registered())
	assert.Equal(t, VisionDie, f.notify.disappears[len(f.notify.disappears)-1])
}
