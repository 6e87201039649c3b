package system

import (
	"time"
)

// phaseCount is the number of phases a tick runs through.
const phaseCount = int(PhaseCleanup) + 1

// PhaseObserver receives the wall time spent in one phase of a tick.
type PhaseObserver func(phase Phase, elapsed time.Duration)

// Runner executes systems in phase order each tick. Systems sharing a phase
// run in registration order.
type Runner struct {
	phases  [phaseCount][]System
	observe PhaseObserver
}

func NewRunner() *Runner {
	return &Runner{}
}

// Observe installs fn to be called after every phase that has systems.
func (r *Runner) Observe(fn PhaseObserver) {
	r.observe = fn
}

// Register adds s to its phase. Systems with a phase outside the known range
// run with the cleanup phase.
func (r *Runner) Register(s System) {
	p := s.Phase()
	if p < PhaseInput || int(p) >= phaseCount {
		p = PhaseCleanup
	}
	r.phases[p] = append(r.phases[p], s)
}

// Len returns the number of registered systems.
func (r *Runner) Len() int {
	n := 0
	for _, list := range r.phases {
		n += len(list)
	}
	return n
}

func (r *Runner) Tick(dt time.Duration) {
	for p := range r.phases {
		r.runPhase(Phase(p), dt)
	}
}

// TickPhase runs only the systems of one phase. The game loop uses it to poll
// input between full ticks and to drain output on shutdown.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	if phase < PhaseInput || int(phase) >= phaseCount {
		return
	}
	r.runPhase(phase, dt)
}

func (r *Runner) runPhase(phase Phase, dt time.Duration) {
	list := r.phases[phase]
	if len(list) == 0 {
		return
	}
	start := time.Now()
	for _, s := range list {
		s.Update(dt)
	}
	if r.observe != nil {
		r.observe(phase, time.Since(start))
	}
}
