package orchestrator

import (
	"errors"
	"fmt"
	"sync"

	"viral-recipes/metrics"
)

// State 는 오케스트레이터 수명 주기 상태다. STOPPED 는 종료 상태다.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateSleeping
	StateStopping
	StateStopped
)

var ErrInvalidTransition = errors.New("invalid state transition")

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateSleeping:
		return "SLEEPING"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// machine 은 허용된 전이만 수행하는 상태 값이다.
type machine struct {
	mu    sync.RWMutex
	state State
}

func (m *machine) current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// transition 은 현재 상태가 from 중 하나일 때만 to 로 바꾼다.
func (m *machine) transition(to State, from ...State) (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range from {
		if m.state == f {
			m.state = to
			metrics.OrchestratorState.Set(float64(to))
			return to, nil
		}
	}
	return m.state, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, to)
}
