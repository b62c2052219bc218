package server

import "sync"

// SessionState tracks the lifecycle of a protocol session.
type SessionState int

const (
	StateUninitialized SessionState = iota
	StateInitialized
	StateShuttingDown
)

// Session holds per-connection state for the JSON-RPC server.
type Session struct {
	mu                  sync.Mutex
	state               SessionState
	sessionsCompleted   int64
	hypothesesEvaluated int64
}

// NewSession creates a Session in the uninitialized state.
func NewSession() *Session {
	return &Session{state: StateUninitialized}
}

// State returns the current session state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetState transitions the session to the given state.
func (s *Session) SetState(state SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

// IncrementHypotheses adds n to the evaluated-hypotheses counter.
func (s *Session) IncrementHypotheses(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hypothesesEvaluated += int64(n)
}
