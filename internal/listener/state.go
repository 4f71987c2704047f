package listener

import (
	"sync"
	"time"
)

// State is the segmentation state of a session
type State int

const (
	// StateIdle - nothing buffered
	StateIdle State = iota

	// StateAccumulating - speech buffered, no finalize condition yet
	StateAccumulating

	// StatePendingConfirm - a finalize condition holds, confirm window open
	StatePendingConfirm
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	case StatePendingConfirm:
		return "pending-confirm"
	default:
		return "unknown"
	}
}

// StateChangeListener is called when state changes
type StateChangeListener func(oldState, newState State)

// StateMachine publishes the session state to other goroutines
type StateMachine struct {
	mu           sync.RWMutex
	currentState State
	stateTime    time.Time
	listeners    []StateChangeListener
	now          func() time.Time
}

// validTransitions lists the allowed moves
var validTransitions = map[State][]State{
	StateIdle:           {StateAccumulating},
	StateAccumulating:   {StatePendingConfirm, StateIdle},
	StatePendingConfirm: {StateAccumulating, StateIdle},
}

// NewStateMachine creates a new state machine in StateIdle
func NewStateMachine(now func() time.Time) *StateMachine {
	if now == nil {
		now = time.Now
	}
	return &StateMachine{
		currentState: StateIdle,
		stateTime:    now(),
		now:          now,
	}
}

// Current returns the current state
func (sm *StateMachine) Current() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.currentState
}

// StateTime returns when the current state was entered
func (sm *StateMachine) StateTime() time.Time {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.stateTime
}

// Transition changes to a new state. Invalid moves and moves to the
// current state return false.
func (sm *StateMachine) Transition(newState State) bool {
	sm.mu.Lock()
	oldState := sm.currentState

	if !isValidTransition(oldState, newState) {
		sm.mu.Unlock()
		return false
	}

	sm.currentState = newState
	sm.stateTime = sm.now()
	listeners := sm.listeners
	sm.mu.Unlock()

	for _, listener := range listeners {
		listener(oldState, newState)
	}

	return true
}

// AddListener adds a state change listener
func (sm *StateMachine) AddListener(listener StateChangeListener) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.listeners = append(sm.listeners, listener)
}

func isValidTransition(from, to State) bool {
	for _, valid := range validTransitions[from] {
		if valid == to {
			return true
		}
	}
	return false
}
