package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingSystem struct {
	name  string
	phase Phase
	log   *[]string
}

func (s *recordingSystem) Phase() Phase { return s.phase }

func (s *recordingSystem) Update(_ time.Duration) { *s.log = append(*s.log, s.name) }

func TestRunnerOrdersByPhaseThenRegistration(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(&recordingSystem{name: "output", phase: PhaseOutput, log: &log})
	r.Register(&recordingSystem{name: "refresh", phase: PhasePostUpdate, log: &log})
	r.Register(&recordingSystem{name: "input", phase: PhaseInput, log: &log})
	r.Register(&recordingSystem{name: "authority", phase: PhasePostUpdate, log: &log})

	r.Tick(time.Millisecond)

	assert.Equal(t, []string{"input", "refresh", "authority", "output"}, log)
}

func TestRunnerTickPhase(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(&recordingSystem{name: "input", phase: PhaseInput, log: &log})
	r.Register(&recordingSystem{name: "output", phase: PhaseOutput, log: &log})

	r.TickPhase(PhaseInput, time.Millisecond)

	assert.Equal(t, []string{"input"}, log)
}

func TestRunnerObservesNonEmptyPhases(t *testing.T) {
	var log []string
	var observed []Phase
	r := NewRunner()
	r.Observe(func(p Phase, _ time.Duration) { observed = append(observed, p) })
	r.Register(&recordingSystem{name: "cleanup", phase: PhaseCleanup, log: &log})
	r.Register(&recordingSystem{name: "input", phase: PhaseInput, log: &log})
	r.Register(&recordingSystem{name: "stray", phase: Phase(42), log: &log})

	r.Tick(time.Millisecond)
	r.TickPhase(Phase(-1), time.Millisecond)

	assert.Equal(t, 3, r.Len())
	assert.Equal(t, []string{"input", "cleanup", "stray"}, log)
	assert.Equal(t, []Phase{PhaseInput, PhaseCleanup}, observed)
}
