package world

import (
	"context"
	"testing"

	"github.com/l1jgo/worldhost/internal/net/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForwardBufferGroupsPerRecipient(t *testing.T) {
	f := newStateFixture(t)
	w, host, guest := sharedWorld(t, f)
	third, _ := f.login(t, 3)
	ctx := context.Background()
	require.NoError(t, third.CurrentWorld.Leave(ctx, third))
	require.NoError(t, w.Join(ctx, third, false))

	buf := guest.Forward
	buf.AddEntry(packet.EvtCreateGadget, ForwardToAllExceptCur, []byte{1}, 10)
	buf.AddEntry(packet.EvtDestroyGadget, ForwardToHost, []byte{2}, 11)
	buf.AddEntry(packet.EntityMove, ForwardOnlyServer, []byte{3}, 12)
	buf.AddEntry(packet.EntityMove, ForwardLocal, []byte{4}, 13)
	buf.AddEntry(packet.EvtCreateGadget, ForwardToAllGuest, []byte{5}, 14)

	assert.Equal(t, 3, buf.SendAll())
	assert.Zero(t, buf.Len())

	hostBatches := f.notify.forwards[host.UID]
	require.Len(t, hostBatches, 1)
	require.Len(t, hostBatches[0], 2)
	assert.Equal(t, uint32(10), hostBatches[0][0].Seq)
	assert.Equal(t, uint32(11), hostBatches[0][1].Seq)

	thirdBatches := f.notify.forwards[third.UID]
	require.Len(t, thirdBatches, 1)
	require.Len(t, thirdBatches[0], 2)
	assert.Equal(t, uint32(14), thirdBatches[0][1].Seq)

	guestBatches := f.notify.forwards[guest.UID]
	require.Len(t, guestBatches, 1, "ToAllGuest includes the sender")
	assert.Equal(t, uint32(14), guestBatches[0][0].Seq)

	assert.Zero(t, buf.SendAll(), "empty buffer sends nothing")
}

func TestForwardBufferOutsideWorld(t *testing.T) {
	p := &Player{UID: 5}
	p.Forward = newForwardBuffer(p)
	p.Forward.AddEntry(packet.EvtCreateGadget, ForwardToAll, nil, 1)
	assert.Zero(t, p.Forward.SendAll())
	assert.Zero(t, p.Forward.Len())
}
