// Package session holds the in-memory session registry. Sessions exist
// only for the life of the process; every state transition is written to
// the audit log.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/fleetgrid/console/internal/models"
)

// Defaults for the session invariants.
const (
	DefaultIdleTimeout     = 30 * time.Minute
	DefaultAbsoluteTimeout = 2 * time.Hour
	DefaultMaxInvalid      = 5
	DefaultMaxSuspicious   = 3
)

// Liveness-check reasons reported to callers.
const (
	ReasonNoSession       = "No active session"
	ReasonIdleExpired     = "Session expired due to inactivity"
	ReasonAbsoluteExpired = "Session expired due to maximum duration"
	ReasonValid           = "Session valid"
	ReasonNewSession      = "New session created"
	ReasonLogout          = "User logout"
)

// Recorder is the slice of the audit log the manager needs.
type Recorder interface {
	Record(username, description, detail string, suspicious bool) error
}

// Config carries the session invariants. Zero values fall back to the
// defaults.
type Config struct {
	IdleTimeout     time.Duration
	AbsoluteTimeout time.Duration
	MaxInvalid      int
	MaxSuspicious   int
}

func (c Config) withDefaults() Config {
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.AbsoluteTimeout <= 0 {
		c.AbsoluteTimeout = DefaultAbsoluteTimeout
	}
	if c.MaxInvalid <= 0 {
		c.MaxInvalid = DefaultMaxInvalid
	}
	if c.MaxSuspicious <= 0 {
		c.MaxSuspicious = DefaultMaxSuspicious
	}
	return c
}

// Manager owns the session map, keyed by username. At most one live
// session exists per username. All access is serialized so the counter
// thresholds stay exact under concurrent callers.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*models.Session
	audit    Recorder
	cfg      Config
	now      func() time.Time
}

func NewManager(audit Recorder, cfg Config) *Manager {
	return &Manager{
		sessions: make(map[string]*models.Session),
		audit:    audit,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
	}
}

// SetClock replaces the time source, for tests.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Create installs a fresh session for username, terminating any prior one
// first. Counters start at zero; a user can shed a near-threshold counter
// by logging out and back in, which is an accepted property of this model.
func (m *Manager) Create(username string, role models.Role) *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[username]; exists {
		m.terminateLocked(username, ReasonNewSession)
	}

	now := m.now()
	s := &models.Session{
		Username:     username,
		Role:         role,
		LoginTime:    now,
		LastActivity: now,
	}
	m.sessions[username] = s

	m.record(username, models.DescSessionCreated,
		fmt.Sprintf("Role: %s, Login time: %s", role, now.Format(time.RFC3339)), false)

	cp := *s
	return &cp
}

// CheckLiveness validates the session before a privileged action. Expired
// sessions are terminated with the specific reason; valid ones get their
// last-activity refreshed.
func (m *Manager) CheckLiveness(username string) (bool, string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, exists := m.sessions[username]
	if !exists {
		return false, ReasonNoSession
	}

	now := m.now()
	if s.IdleFor(now) > m.cfg.IdleTimeout {
		m.terminateLocked(username, ReasonIdleExpired)
		return false, ReasonIdleExpired
	}
	if s.Age(now) > m.cfg.AbsoluteTimeout {
		m.terminateLocked(username, ReasonAbsoluteExpired)
		return false, ReasonAbsoluteExpired
	}

	s.Touch(now)
	return true, ReasonValid
}

// RegisterInvalidAttempt bumps the invalid-input counter, terminating the
// session once it reaches the configured maximum.
func (m *Manager) RegisterInvalidAttempt(username string) (terminated bool, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, exists := m.sessions[username]
	if !exists {
		return false, ReasonNoSession
	}

	s.InvalidAttempts++
	if s.InvalidAttempts >= m.cfg.MaxInvalid {
		reason := fmt.Sprintf("Session terminated due to %d invalid attempts", s.InvalidAttempts)
		m.terminateLocked(username, reason)
		return true, reason
	}
	return false, fmt.Sprintf("Invalid attempt %d/%d", s.InvalidAttempts, m.cfg.MaxInvalid)
}

// RegisterSuspiciousActivity writes the suspicious audit entry first, then
// bumps the counter, terminating at the maximum. Logging before acting
// guarantees the trail exists even if the process exits right after.
func (m *Manager) RegisterSuspiciousActivity(username, description string) (terminated bool, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, exists := m.sessions[username]
	if !exists {
		m.record(username, models.DescSuspiciousActivity, description, true)
		return false, ReasonNoSession
	}

	m.record(username, models.DescSuspiciousActivity, description, true)

	s.SuspiciousActivity++
	if s.SuspiciousActivity >= m.cfg.MaxSuspicious {
		reason := fmt.Sprintf("Session terminated due to %d suspicious activities", s.SuspiciousActivity)
		m.terminateLocked(username, reason)
		return true, reason
	}
	return false, fmt.Sprintf("Suspicious activity %d/%d", s.SuspiciousActivity, m.cfg.MaxSuspicious)
}

// Terminate removes the session and logs the termination. Idempotent:
// terminating an absent session is a no-op, not an error.
func (m *Manager) Terminate(username, reason string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.terminateLocked(username, reason)
}

// ForceLogout terminates one user's session on administrative request.
func (m *Manager) ForceLogout(username, reason string) bool {
	if reason == "" {
		reason = "Forced logout by administrator"
	}
	return m.Terminate(username, reason)
}

// ForceLogoutAll terminates every session, returning how many were live.
func (m *Manager) ForceLogoutAll(reason string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for username := range m.sessions {
		if m.terminateLocked(username, reason) {
			count++
		}
	}
	return count
}

// Get returns a snapshot of the session, or nil.
func (m *Manager) Get(username string) *models.Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, exists := m.sessions[username]
	if !exists {
		return nil
	}
	cp := *s
	return &cp
}

// Info returns the display snapshot for the session panel, or nil.
func (m *Manager) Info(username string) *models.SessionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, exists := m.sessions[username]
	if !exists {
		return nil
	}
	return m.infoLocked(s)
}

// ActiveSessions lists display snapshots of every live session.
func (m *Manager) ActiveSessions() []models.SessionInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	infos := make([]models.SessionInfo, 0, len(m.sessions))
	for _, s := range m.sessions {
		infos = append(infos, *m.infoLocked(s))
	}
	return infos
}

func (m *Manager) infoLocked(s *models.Session) *models.SessionInfo {
	now := m.now()
	idle := m.cfg.IdleTimeout - s.IdleFor(now)
	abs := m.cfg.AbsoluteTimeout - s.Age(now)
	if idle < 0 {
		idle = 0
	}
	if abs < 0 {
		abs = 0
	}
	return &models.SessionInfo{
		Username:           s.Username,
		Role:               s.Role,
		LoginTime:          s.LoginTime,
		LastActivity:       s.LastActivity,
		IdleRemaining:      idle,
		AbsoluteRemaining:  abs,
		InvalidAttempts:    s.InvalidAttempts,
		SuspiciousActivity: s.SuspiciousActivity,
	}
}

// terminateLocked removes the session and writes the termination entry
// with elapsed duration and both counters. Caller holds m.mu.
func (m *Manager) terminateLocked(username, reason string) bool {
	s, exists := m.sessions[username]
	if !exists {
		return false
	}

	duration := m.now().Sub(s.LoginTime)
	m.record(username, models.DescSessionTerminated,
		fmt.Sprintf("Reason: %s, Duration: %ds, Invalid attempts: %d, Suspicious activities: %d",
			reason, int(duration.Seconds()), s.InvalidAttempts, s.SuspiciousActivity),
		false)

	delete(m.sessions, username)
	return true
}

func (m *Manager) record(username, description, detail string, suspicious bool) {
	if m.audit == nil {
		return
	}
	// Audit persistence failures must not block session state transitions.
	_ = m.audit.Record(username, description, detail, suspicious)
}
