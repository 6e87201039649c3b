package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: drain packet queues, dispatch through the gate
	PhasePreUpdate               // 1: deliver last tick's world events
	PhaseUpdate                  // 2: resume cooperative tasks
	PhasePostUpdate              // 3: scene refresh, authority flush
	PhaseOutput                  // 4: flush session buffers
	PhasePersist                 // 5: session journal flush
	PhaseCleanup                 // 6: close abandoned worlds
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre_update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post_update"
	case PhaseOutput:
		return "output"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
