package models

import "time"

// Session tracks one authenticated operator. At most one live session
// exists per username; creating a new one evicts the prior session.
// Sessions are never persisted — a process restart clears all of them.
type Session struct {
	Username string
	Role     Role

	LoginTime    time.Time
	LastActivity time.Time

	InvalidAttempts    int
	SuspiciousActivity int
}

// Touch advances the last-activity timestamp.
func (s *Session) Touch(now time.Time) {
	s.LastActivity = now
}

// IdleFor returns how long the session has been inactive.
func (s *Session) IdleFor(now time.Time) time.Duration {
	return now.Sub(s.LastActivity)
}

// Age returns the total session duration since login.
func (s *Session) Age(now time.Time) time.Duration {
	return now.Sub(s.LoginTime)
}

// SessionInfo is the display snapshot of a session, used by the
// operator-facing session panel.
type SessionInfo struct {
	Username           string        `json:"username"`
	Role               Role          `json:"role"`
	LoginTime          time.Time     `json:"login_time"`
	LastActivity       time.Time     `json:"last_activity"`
	IdleRemaining      time.Duration `json:"idle_remaining"`
	AbsoluteRemaining  time.Duration `json:"absolute_remaining"`
	InvalidAttempts    int           `json:"invalid_attempts"`
	SuspiciousActivity int           `json:"suspicious_activity"`
}
