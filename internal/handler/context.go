package handler

import (
	"context"

	"github.com/l1jgo/worldhost/internal/config"
	"github.com/l1jgo/worldhost/internal/net/packet"
	"github.com/l1jgo/worldhost/internal/world"
	"go.uber.org/zap"
)

// AccountStore authenticates an account name and token to a uid.
// persist.AccountRepo and persist.MemoryAccounts implement it.
type AccountStore interface {
	Authenticate(ctx context.Context, name, token string) (uint32, error)
}

// Deps holds shared dependencies injected into all packet handlers.
// Handlers run on the game loop goroutine only.
type Deps struct {
	Accounts AccountStore
	Config   *config.Config
	Log      *zap.Logger
	World    *world.State

	logins map[uint64]pendingLogin // session id → verified token
}

// pendingLogin is an account verified by GetPlayerToken and waiting for
// PlayerLogin on the same session.
type pendingLogin struct {
	uid   uint32
	name  string
	token string
}

func (d *Deps) rememberLogin(sessionID uint64, l pendingLogin) {
	if d.logins == nil {
		d.logins = make(map[uint64]pendingLogin)
	}
	d.logins[sessionID] = l
}

func (d *Deps) takeLogin(sessionID uint64) (pendingLogin, bool) {
	l, ok := d.logins[sessionID]
	delete(d.logins, sessionID)
	return l, ok
}

// RegisterAll registers all packet handlers into the registry.
func RegisterAll(reg *packet.Registry, deps *Deps) {
	// Login phase
	reg.Register(packet.GetPlayerToken, func(ctx *packet.Context, r *packet.Reader) {
		HandleGetPlayerToken(ctx, r, deps)
	})
	reg.Register(packet.PlayerLogin, func(ctx *packet.Context, r *packet.Reader) {
		HandlePlayerLogin(ctx, r, deps)
	})
	reg.Register(packet.Ping, func(ctx *packet.Context, r *packet.Reader) {
		HandlePing(ctx, r, deps)
	})

	// Scene entry and world sessions
	reg.Register(packet.EnterSceneDone, func(ctx *packet.Context, r *packet.Reader) {
		HandleEnterSceneDone(ctx, r, deps)
	})
	reg.Register(packet.JoinPlayerScene, func(ctx *packet.Context, r *packet.Reader) {
		HandleJoinPlayerScene(ctx, r, deps)
	})

	// In-game notifications relayed to peers
	reg.Register(packet.EvtCreateGadget, func(ctx *packet.Context, r *packet.Reader) {
		HandleForward(ctx, r, deps)
	})
	reg.Register(packet.EvtDestroyGadget, func(ctx *packet.Context, r *packet.Reader) {
		HandleForward(ctx, r, deps)
	})
	reg.Register(packet.EntityMove, func(ctx *packet.Context, r *packet.Reader) {
		HandleEntityMove(ctx, r, deps)
	})
	reg.Register(packet.EntityDie, func(ctx *packet.Context, r *packet.Reader) {
		HandleEntityDie(ctx, r, deps)
	})
}

// respondCode answers a request with a bare retcode.
func respondCode(ctx *packet.Context, code packet.Retcode, log *zap.Logger) {
	if err := ctx.Respond(packet.RetcodeBody(code)); err != nil {
		log.Debug("回應發送失敗", zap.String("packet", ctx.Desc.Name()), zap.Error(err))
	}
}

// playerOf returns the player bound to the packet's session, or nil.
func playerOf(ctx *packet.Context, deps *Deps) *world.Player {
	return deps.World.GetBySession(ctx.Conn.ID())
}
