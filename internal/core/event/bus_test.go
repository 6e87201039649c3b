package event

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBusDeliversNextTick(t *testing.T) {
	b := NewBus()
	var got []PlayerJoinedWorld
	Subscribe(b, func(ev PlayerJoinedWorld) { got = append(got, ev) })

	Emit(b, PlayerJoinedWorld{UID: 1, WorldID: uuid.New()})
	b.DispatchAll()
	assert.Empty(t, got, "events are not visible in the tick they were emitted")

	b.SwapBuffers()
	b.DispatchAll()
	assert.Len(t, got, 1)
	assert.EqualValues(t, 1, got[0].UID)

	b.SwapBuffers()
	b.DispatchAll()
	assert.Len(t, got, 1, "swapping clears delivered events")
}

func TestBusKeepsFirstEmitOrderAcrossTypes(t *testing.T) {
	b := NewBus()
	var seen []string
	Subscribe(b, func(WorldModeChanged) { seen = append(seen, "mode") })
	Subscribe(b, func(PlayerJoinedWorld) { seen = append(seen, "joined") })

	Emit(b, WorldModeChanged{Mp: true})
	Emit(b, PlayerJoinedWorld{UID: 2})
	b.SwapBuffers()
	b.DispatchAll()

	assert.Equal(t, []string{"mode", "joined"}, seen)
}

func TestEmitOnNilBus(t *testing.T) {
	assert.NotPanics(t, func() { Emit[WorldClosed](nil, WorldClosed{}) })
}

func TestBusDeliversInEmissionOrder(t *testing.T) {
	b := NewBus()
	var seen []string
	Subscribe(b, func(ev PlayerJoinedWorld) { seen = append(seen, "join") })
	Subscribe(b, func(ev PlayerLeftWorld) { seen = append(seen, "leave") })

	Emit(b, PlayerJoinedWorld{UID: 1})
	Emit(b, PlayerLeftWorld{UID: 1})
	Emit(b, PlayerJoinedWorld{UID: 1})
	assert.Equal(t, 3, b.Pending())

	b.SwapBuffers()
	assert.Zero(t, b.Pending())
	b.DispatchAll()

	assert.Equal(t, []string{"join", "leave", "join"}, seen)
}
