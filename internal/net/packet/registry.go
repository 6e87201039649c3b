package packet

import (
	"errors"
	"fmt"

	"github.com/l1jgo/worldhost/internal/metrics"
	"go.uber.org/zap"
)

// ErrStateRejected is returned by Dispatch when a request arrives in a state
// its descriptor does not admit.
var ErrStateRejected = errors.New("packet not allowed in session state")

// HandlerFunc is the callback signature for packet handlers. It runs only
// after the gate has admitted the packet.
type HandlerFunc func(ctx *Context, r *Reader)

type handlerEntry struct {
	desc *Descriptor
	fn   HandlerFunc
}

// Registry maps opcodes to handlers with state-based access control.
type Registry struct {
	handlers map[uint16]*handlerEntry
	log      *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		handlers: make(map[uint16]*handlerEntry),
		log:      log,
	}
}

// Register maps the descriptor's opcode to a handler. Requests are admitted
// by the descriptor's request state, notifications by its notify state.
func (reg *Registry) Register(desc *Descriptor, fn HandlerFunc) {
	reg.handlers[desc.Opcode()] = &handlerEntry{desc: desc, fn: fn}
}

// Descriptor returns the descriptor registered for an opcode.
func (reg *Registry) Descriptor(opcode uint16) (*Descriptor, bool) {
	entry, ok := reg.handlers[opcode]
	if !ok {
		return nil, false
	}
	return entry.desc, true
}

// Dispatch decodes the frame header, validates the connection state against
// the packet's descriptor and calls the handler. A request refused by the gate
// is answered with RetClientStateInvalid and reported as ErrStateRejected; a
// refused notification is dropped silently.
func (reg *Registry) Dispatch(conn Conn, data []byte) error {
	opcode, seq, body, err := Decode(data)
	if err != nil {
		return err
	}
	state := conn.State()
	reg.log.Debug("收到封包",
		zap.Uint16("opcode", opcode),
		zap.Uint32("seq", seq),
		zap.Int("size", len(body)),
		zap.String("state", state.String()),
	)

	entry, ok := reg.handlers[opcode]
	if !ok {
		reg.log.Debug("未知操作碼", zap.Uint16("opcode", opcode), zap.String("state", state.String()))
		return nil // silently ignore unknown opcodes
	}
	desc := entry.desc

	switch desc.Kind() {
	case KindRequest:
		if !desc.AcceptsRequest(state) {
			metrics.PacketsRejected.WithLabelValues(desc.Name(), "request").Inc()
			reg.log.Warn("請求在此狀態下不允許",
				zap.String("packet", desc.Name()),
				zap.String("state", state.String()),
				zap.String("required", desc.ReqState().String()),
			)
			if desc.RspOpcode() != 0 {
				ctx := newContext(conn, seq, desc)
				if err := ctx.Respond(RetcodeBody(RetClientStateInvalid)); err != nil {
					reg.log.Debug("拒絕回應發送失敗", zap.Error(err))
				}
			}
			return fmt.Errorf("%s in state %s: %w", desc, state, ErrStateRejected)
		}
	case KindNotify:
		if !desc.AcceptsNotify(state) {
			metrics.PacketsRejected.WithLabelValues(desc.Name(), "notify").Inc()
			reg.log.Debug("通知在此狀態下丟棄",
				zap.String("packet", desc.Name()),
				zap.String("state", state.String()),
			)
			return nil
		}
	}

	metrics.PacketsDispatched.WithLabelValues(desc.Name()).Inc()
	return reg.safeCall(entry.fn, newContext(conn, seq, desc), NewReader(body))
}

// safeCall executes a handler with panic recovery to prevent a single
// bad packet from crashing the entire game loop.
func (reg *Registry) safeCall(fn HandlerFunc, ctx *Context, r *Reader) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("處理器 panic 已恢復",
				zap.String("packet", ctx.Desc.Name()),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic for %s: %v", ctx.Desc, rec)
		}
	}()
	fn(ctx, r)
	return nil
}
