package net

import (
	"bytes"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/l1jgo/worldhost/internal/net/packet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte{1, 2, 3}))
	assert.Equal(t, []byte{5, 0, 1, 2, 3}, buf.Bytes())

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)
}

func TestReadFrameRejectsEmpty(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{2, 0}))
	assert.Error(t, err)
}

func TestSessionOptions(t *testing.T) {
	limited := newSession(&streamTransport{addr: "x"}, 1, ServerOptions{PacketsPerSec: 2}, zap.NewNop())
	require.NotNil(t, limited.limiter)
	assert.True(t, limited.limiter.Allow())
	assert.True(t, limited.limiter.Allow())
	assert.False(t, limited.limiter.Allow(), "burst is one second of packets")
	assert.Equal(t, defaultWriteTimeout, limited.writeTimeout)
	assert.Equal(t, 1, cap(limited.InQueue))

	unlimited := newSession(&streamTransport{addr: "x"}, 2, ServerOptions{WriteTimeout: time.Second}, zap.NewNop())
	assert.Nil(t, unlimited.limiter)
	assert.Equal(t, time.Second, unlimited.writeTimeout)
}

func newTestServer(t *testing.T, bind string) *Server {
	t.Helper()
	srv, err := NewServer(bind, ServerOptions{InQueueSize: 8, OutQueueSize: 8}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(srv.Shutdown)
	return srv
}

func nextSession(t *testing.T, srv *Server) *Session {
	t.Helper()
	select {
	case sess := <-srv.NewSessions():
		return sess
	case <-time.After(2 * time.Second):
		t.Fatal("no session accepted")
		return nil
	}
}

func TestTCPSessionExchange(t *testing.T) {
	srv := newTestServer(t, "127.0.0.1:0")
	go srv.AcceptLoop()

	client, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	sess := nextSession(t, srv)
	defer sess.Close()
	assert.Equal(t, packet.StateWaitToken, sess.State())

	require.NoError(t, WriteFrame(client, packet.Encode(packet.C_OPCODE_PING, 1, nil)))
	select {
	case data := <-sess.InQueue:
		op, seq, _, err := packet.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, packet.C_OPCODE_PING, op)
		assert.Equal(t, uint32(1), seq)
	case <-time.After(2 * time.Second):
		t.Fatal("frame not delivered")
	}

	require.NoError(t, sess.Send(packet.Encode(packet.S_OPCODE_PING, 1, nil)))
	assert.Equal(t, 1, sess.Pending())
	sess.FlushOutput()
	assert.Equal(t, 0, sess.Pending())

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	got, err := ReadFrame(client)
	require.NoError(t, err)
	op, _, _, err := packet.Decode(got)
	require.NoError(t, err)
	assert.Equal(t, packet.S_OPCODE_PING, op)
}

func TestWebsocketSessionExchange(t *testing.T) {
	srv := newTestServer(t, "")
	hs := httptest.NewServer(srv)
	defer hs.Close()

	url := "ws" + strings.TrimPrefix(hs.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer client.Close()

	sess := nextSession(t, srv)
	defer sess.Close()

	require.NoError(t, client.WriteMessage(websocket.BinaryMessage, packet.Encode(packet.C_OPCODE_GET_PLAYER_TOKEN, 3, []byte{0})))
	select {
	case data := <-sess.InQueue:
		op, _, _, err := packet.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, packet.C_OPCODE_GET_PLAYER_TOKEN, op)
	case <-time.After(2 * time.Second):
		t.Fatal("frame not delivered")
	}

	require.NoError(t, sess.Send(packet.Encode(packet.S_OPCODE_GET_PLAYER_TOKEN, 3, nil)))
	sess.FlushOutput()
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	kind, msg, err := client.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, kind)
	op, seq, _, err := packet.Decode(msg)
	require.NoError(t, err)
	assert.Equal(t, packet.S_OPCODE_GET_PLAYER_TOKEN, op)
	assert.Equal(t, uint32(3), seq)
}

func TestClosedSessionRejectsSend(t *testing.T) {
	srv := newTestServer(t, "127.0.0.1:0")
	go srv.AcceptLoop()
	client, err := net.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	sess := nextSession(t, srv)
	sess.Close()
	assert.True(t, sess.IsClosed())
	assert.Equal(t, packet.StateDisconnecting, sess.State())
	assert.ErrorIs(t, sess.Send([]byte{1}), ErrSessionClosed)

	sess.SetState(packet.StateInGame)
	assert.Equal(t, packet.StateDisconnecting, sess.State(), "closed session never leaves Disconnecting")
}

func TestSessionStore(t *testing.T) {
	store := NewSessionStore()
	sess := newSession(&streamTransport{addr: "x"}, 9, ServerOptions{}, zap.NewNop())
	store.Add(sess)
	assert.Same(t, sess, store.Get(9))
	assert.Equal(t, 1, store.Len())
	store.Remove(9)
	assert.Nil(t, store.Get(9))
	assert.Zero(t, store.Len())

	for _, id := range []uint64{5, 2, 8} {
		store.Add(newSession(&streamTransport{addr: "x"}, id, ServerOptions{}, zap.NewNop()))
	}
	store.Remove(7)
	var ids []uint64
	store.ForEach(func(s *Session) { ids = append(ids, s.ID()) })
	assert.Equal(t, []uint64{2, 5, 8}, ids)
}
