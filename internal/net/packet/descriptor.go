package packet

import "fmt"

// SessionState represents the connection's current protocol phase. States are
// ordered: a "pass" requirement admits the required state and every state
// after it, except StateDisconnecting.
type SessionState int

const (
	StateNone       SessionState = iota
	StateWaitToken               // connected, awaiting GetPlayerToken
	StateWaitLogin               // token accepted, awaiting PlayerLogin
	StatePostLogin               // player created, not yet in a scene
	StateEnterScene              // entering a scene
	StateInGame                  // playing
	StateDisconnecting
)

func (s SessionState) String() string {
	switch s {
	case StateNone:
		return "None"
	case StateWaitToken:
		return "WaitToken"
	case StateWaitLogin:
		return "WaitLogin"
	case StatePostLogin:
		return "PostLogin"
	case StateEnterScene:
		return "EnterScene"
	case StateInGame:
		return "InGame"
	case StateDisconnecting:
		return "Disconnecting"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// statePasses reports whether cur satisfies a requirement of req.
func statePasses(cur, req SessionState, pass bool) bool {
	if cur == StateDisconnecting {
		return false
	}
	if pass {
		return cur >= req
	}
	return cur == req
}

// Kind distinguishes request/response packets from notifications.
type Kind uint8

const (
	KindRequest Kind = iota
	KindNotify
)

func (k Kind) String() string {
	if k == KindRequest {
		return "request"
	}
	return "notify"
}

// Descriptor is the static metadata of one packet type. Descriptors are
// built once at package init and shared by every connection; all fields are
// read-only after construction.
type Descriptor struct {
	name        string
	opcode      uint16
	rspOpcode   uint16
	kind        Kind
	reqState    SessionState
	reqPass     bool
	notifyState SessionState
	notifyPass  bool
}

// Option configures a Descriptor at construction.
type Option func(*Descriptor)

// WithReqState sets the state an inbound request requires.
func WithReqState(st SessionState, pass bool) Option {
	return func(d *Descriptor) {
		d.reqState = st
		d.reqPass = pass
	}
}

// WithNotifyState sets the state required to receive or send this notification.
func WithNotifyState(st SessionState, pass bool) Option {
	return func(d *Descriptor) {
		d.notifyState = st
		d.notifyPass = pass
	}
}

func newDescriptor(name string, kind Kind, opcode, rspOpcode uint16, opts []Option) *Descriptor {
	d := &Descriptor{
		name:        name,
		opcode:      opcode,
		rspOpcode:   rspOpcode,
		kind:        kind,
		reqState:    StateInGame,
		reqPass:     true,
		notifyState: StateInGame,
		notifyPass:  true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewRequest describes a request answered on rspOpcode.
func NewRequest(name string, opcode, rspOpcode uint16, opts ...Option) *Descriptor {
	return newDescriptor(name, KindRequest, opcode, rspOpcode, opts)
}

// NewNotify describes a notification.
func NewNotify(name string, opcode uint16, opts ...Option) *Descriptor {
	return newDescriptor(name, KindNotify, opcode, 0, opts)
}

func (d *Descriptor) Name() string              { return d.name }
func (d *Descriptor) Opcode() uint16            { return d.opcode }
func (d *Descriptor) RspOpcode() uint16         { return d.rspOpcode }
func (d *Descriptor) Kind() Kind                { return d.kind }
func (d *Descriptor) ReqState() SessionState    { return d.reqState }
func (d *Descriptor) NotifyState() SessionState { return d.notifyState }

// AcceptsRequest reports whether a connection in st may issue this request.
func (d *Descriptor) AcceptsRequest(st SessionState) bool {
	return statePasses(st, d.reqState, d.reqPass)
}

// AcceptsNotify reports whether a connection in st may send or receive this
// notification.
func (d *Descriptor) AcceptsNotify(st SessionState) bool {
	return statePasses(st, d.notifyState, d.notifyPass)
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s(%d)", d.name, d.opcode)
}
