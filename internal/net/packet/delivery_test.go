package packet_test

import (
	"errors"
	"testing"

	"github.com/l1jgo/worldhost/internal/net/packet"
	"github.com/l1jgo/worldhost/internal/net/packet/packettest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRespondOnlyOnce(t *testing.T) {
	reg := packet.NewRegistry(zap.NewNop())
	var second error
	reg.Register(packet.Ping, func(ctx *packet.Context, r *packet.Reader) {
		require.NoError(t, ctx.Respond(packet.RetcodeBody(packet.RetSucc)))
		second = ctx.Respond(packet.RetcodeBody(packet.RetFail))
	})
	conn := packettest.NewConn(1, packet.StateInGame)
	require.NoError(t, reg.Dispatch(conn, packet.Encode(packet.C_OPCODE_PING, 11, nil)))

	assert.ErrorIs(t, second, packet.ErrAlreadyResponded)
	require.Len(t, conn.Frames, 1)
	assert.Equal(t, packet.S_OPCODE_PING, conn.Frames[0].Opcode)
	assert.Equal(t, uint32(11), conn.Frames[0].Seq)
}

func TestNotifyChecksOutboundState(t *testing.T) {
	conn := packettest.NewConn(1, packet.StatePostLogin)
	sent, err := packet.Notify(conn, packet.SceneEntityAppear, []byte{1})
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Empty(t, conn.Frames)

	conn.SetState(packet.StateInGame)
	sent, err = packet.Notify(conn, packet.SceneEntityAppear, []byte{1})
	require.NoError(t, err)
	assert.True(t, sent)
	sent, err = packet.Notify(conn, packet.SceneEntityAppear, []byte{2})
	require.NoError(t, err)
	assert.True(t, sent)
	require.Len(t, conn.Frames, 2)
	assert.Equal(t, uint32(1), conn.Frames[0].Seq)
	assert.Equal(t, uint32(2), conn.Frames[1].Seq)
}

type panicConn struct{ *packettest.Conn }

func (panicConn) Send([]byte) error { panic("broken pipe") }

func TestBroadcastIsolatesRecipients(t *testing.T) {
	ok1 := packettest.NewConn(1, packet.StateInGame)
	failing := packettest.NewConn(2, packet.StateInGame)
	failing.SendErr = errors.New("queue full")
	panicking := panicConn{packettest.NewConn(3, packet.StateInGame)}
	early := packettest.NewConn(4, packet.StateWaitLogin)
	ok2 := packettest.NewConn(5, packet.StateEnterScene)

	conns := []packet.Conn{ok1, failing, panicking, early, ok2}
	sent, err := packet.Broadcast(conns, packet.SceneTeamUpdate, []byte{9})

	assert.Equal(t, 2, sent)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue full")
	assert.Contains(t, err.Error(), "broken pipe")
	assert.Len(t, ok1.Frames, 1)
	assert.Len(t, ok2.Frames, 1)
	assert.Empty(t, early.Frames)
}
