package packet

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyResponded is returned by a second Respond for the same request.
	ErrAlreadyResponded = errors.New("request already answered")
	// ErrNoResponse is returned when responding to a packet with no response opcode.
	ErrNoResponse = errors.New("packet has no response")
)

// Conn is the connection context the gate and the delivery primitives work
// against. net.Session implements it; tests use packettest.Conn.
type Conn interface {
	ID() uint64
	State() SessionState
	SetState(SessionState)
	// NextSeq returns the next outbound sequence number for notifications.
	NextSeq() uint32
	// Send queues one encoded packet. Fails once the connection is closed.
	Send(data []byte) error
	IsClosed() bool
}

// Context carries one inbound packet through its handler.
type Context struct {
	Conn Conn
	Seq  uint32
	Desc *Descriptor

	responded bool
}

func newContext(conn Conn, seq uint32, desc *Descriptor) *Context {
	return &Context{Conn: conn, Seq: seq, Desc: desc}
}

// Respond sends the reply to this request tagged with the request's seq.
// At most one response is sent per request.
func (c *Context) Respond(body []byte) error {
	if c.responded {
		return ErrAlreadyResponded
	}
	if c.Desc.RspOpcode() == 0 {
		return ErrNoResponse
	}
	c.responded = true
	return c.Conn.Send(Encode(c.Desc.RspOpcode(), c.Seq, body))
}

// Responded reports whether Respond has been called.
func (c *Context) Responded() bool {
	return c.responded
}

// Notify sends a notification to one connection if its state admits the
// descriptor's notify requirement. It reports whether the packet was sent;
// a state mismatch drops the packet without error.
func Notify(conn Conn, desc *Descriptor, body []byte) (bool, error) {
	if !desc.AcceptsNotify(conn.State()) {
		return false, nil
	}
	if err := conn.Send(Encode(desc.Opcode(), conn.NextSeq(), body)); err != nil {
		return false, fmt.Errorf("notify %s to session %d: %w", desc, conn.ID(), err)
	}
	return true, nil
}

// Broadcast notifies every connection independently: a failed or panicking
// recipient does not stop delivery to the rest. It returns the number of
// connections that received the packet and the joined per-recipient errors.
func Broadcast(conns []Conn, desc *Descriptor, body []byte) (int, error) {
	var errs []error
	sent := 0
	for _, conn := range conns {
		ok, err := notifyIsolated(conn, desc, body)
		if err != nil {
			errs = append(errs, err)
		}
		if ok {
			sent++
		}
	}
	return sent, errors.Join(errs...)
}

func notifyIsolated(conn Conn, desc *Descriptor, body []byte) (ok bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			ok = false
			err = fmt.Errorf("notify %s to session %d: panic: %v", desc, conn.ID(), rec)
		}
	}()
	return Notify(conn, desc, body)
}
