// Package packettest provides an in-memory packet.Conn for tests.
package packettest

import (
	"errors"

	"github.com/l1jgo/worldhost/internal/net/packet"
)

// ErrClosed is returned by Send after Close.
var ErrClosed = errors.New("packettest: conn closed")

// Frame is one packet captured by Conn.
type Frame struct {
	Opcode uint16
	Seq    uint32
	Body   []byte
}

// Conn records every frame sent to it.
type Conn struct {
	id     uint64
	state  packet.SessionState
	seq    uint32
	closed bool

	// SendErr, when set, is returned by every Send.
	SendErr error
	Frames  []Frame
}

func NewConn(id uint64, state packet.SessionState) *Conn {
	return &Conn{id: id, state: state}
}

func (c *Conn) ID() uint64                      { return c.id }
func (c *Conn) State() packet.SessionState      { return c.state }
func (c *Conn) SetState(st packet.SessionState) { c.state = st }
func (c *Conn) IsClosed() bool                  { return c.closed }

func (c *Conn) NextSeq() uint32 {
	c.seq++
	return c.seq
}

func (c *Conn) Send(data []byte) error {
	if c.closed {
		return ErrClosed
	}
	if c.SendErr != nil {
		return c.SendErr
	}
	opcode, seq, body, err := packet.Decode(data)
	if err != nil {
		return err
	}
	c.Frames = append(c.Frames, Frame{Opcode: opcode, Seq: seq, Body: append([]byte(nil), body...)})
	return nil
}

// Close marks the connection closed and moves it to StateDisconnecting.
func (c *Conn) Close() {
	c.closed = true
	c.state = packet.StateDisconnecting
}

// Opcodes returns the opcodes of every captured frame in send order.
func (c *Conn) Opcodes() []uint16 {
	out := make([]uint16, len(c.Frames))
	for i, f := range c.Frames {
		out[i] = f.Opcode
	}
	return out
}

// Count returns how many captured frames carry opcode.
func (c *Conn) Count(opcode uint16) int {
	n := 0
	for _, f := range c.Frames {
		if f.Opcode == opcode {
			n++
		}
	}
	return n
}

// Last returns the most recent frame with opcode.
func (c *Conn) Last(opcode uint16) (Frame, bool) {
	for i := len(c.Frames) - 1; i >= 0; i-- {
		if c.Frames[i].Opcode == opcode {
			return c.Frames[i], true
		}
	}
	return Frame{}, false
}

// Reset drops captured frames.
func (c *Conn) Reset() {
	c.Frames = c.Frames[:0]
}
