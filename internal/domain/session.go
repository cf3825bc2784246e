package domain

// SessionState represents the lifecycle state of a server session.
//
// Transitions: Stopped -> Starting -> Running -> Stopping -> Stopped.
// Failed is terminal and reachable from Starting (start/handshake error)
// or Running (unexpected process exit).
type SessionState string

const (
	SessionStateStopped  SessionState = "stopped"
	SessionStateStarting SessionState = "starting"
	SessionStateRunning  SessionState = "running"
	SessionStateStopping SessionState = "stopping"
	SessionStateFailed   SessionState = "failed"
)
