package net

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gorilla/websocket"
)

// MaxFrameSize bounds one framed packet on either transport.
const MaxFrameSize = 65533

// ReadFrame reads one length-prefixed frame from r.
// Wire format: [2 bytes LE: total length including header][payload].
// Returns the payload bytes (without the 2-byte length header).
func ReadFrame(r io.Reader) ([]byte, error) {
	var header [2]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}

	totalLen := int(binary.LittleEndian.Uint16(header[:]))
	payloadLen := totalLen - 2
	if payloadLen <= 0 || payloadLen > MaxFrameSize {
		return nil, fmt.Errorf("invalid frame length: %d", totalLen)
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload (%d bytes): %w", payloadLen, err)
	}
	return payload, nil
}

// WriteFrame writes one length-prefixed frame to w.
// Wire format: [2 bytes LE: len(data)+2][data].
func WriteFrame(w io.Writer, data []byte) error {
	if len(data) > MaxFrameSize {
		return fmt.Errorf("frame too large: %d", len(data))
	}
	buf := make([]byte, 2, len(data)+2)
	binary.LittleEndian.PutUint16(buf, uint16(len(data)+2))
	buf = append(buf, data...)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// transport moves whole frames for one connection. Implementations are used
// by exactly one reader and one writer goroutine.
type transport interface {
	ReadFrame() ([]byte, error)
	WriteFrame(data []byte, deadline time.Time) error
	RemoteAddr() string
	Close() error
}

// streamTransport frames a byte stream (TCP) with the 2-byte length prefix.
type streamTransport struct {
	conn interface {
		io.ReadWriteCloser
		SetWriteDeadline(time.Time) error
	}
	addr string
}

func (t *streamTransport) ReadFrame() ([]byte, error) { return ReadFrame(t.conn) }

func (t *streamTransport) WriteFrame(data []byte, deadline time.Time) error {
	t.conn.SetWriteDeadline(deadline)
	return WriteFrame(t.conn, data)
}

func (t *streamTransport) RemoteAddr() string { return t.addr }
func (t *streamTransport) Close() error       { return t.conn.Close() }

// wsTransport carries one frame per binary websocket message.
type wsTransport struct {
	conn *websocket.Conn
}

var errTextMessage = errors.New("websocket: text messages are not supported")

func (t *wsTransport) ReadFrame() ([]byte, error) {
	kind, payload, err := t.conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	if kind != websocket.BinaryMessage {
		return nil, errTextMessage
	}
	if len(payload) == 0 || len(payload) > MaxFrameSize {
		return nil, fmt.Errorf("invalid frame length: %d", len(payload))
	}
	return payload, nil
}

func (t *wsTransport) WriteFrame(data []byte, deadline time.Time) error {
	t.conn.SetWriteDeadline(deadline)
	return t.conn.WriteMessage(websocket.BinaryMessage, data)
}

func (t *wsTransport) RemoteAddr() string { return t.conn.RemoteAddr().String() }

func (t *wsTransport) Close() error {
	t.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return t.conn.Close()
}
