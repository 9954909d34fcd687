package session

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetgrid/console/internal/models"
)

// recordedEntry captures one audit call for assertions.
type recordedEntry struct {
	Username    string
	Description string
	Detail      string
	Suspicious  bool
}

type fakeRecorder struct {
	mu      sync.Mutex
	entries []recordedEntry
}

func (r *fakeRecorder) Record(username, description, detail string, suspicious bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, recordedEntry{username, description, detail, suspicious})
	return nil
}

func (r *fakeRecorder) all() []recordedEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedEntry(nil), r.entries...)
}

func (r *fakeRecorder) last() recordedEntry {
	entries := r.all()
	if len(entries) == 0 {
		return recordedEntry{}
	}
	return entries[len(entries)-1]
}

func newTestManager(cfg Config) (*Manager, *fakeRecorder) {
	rec := &fakeRecorder{}
	return NewManager(rec, cfg), rec
}

func TestCreateRecordsSessionEntry(t *testing.T) {
	m, rec := newTestManager(Config{})

	s := m.Create("engineer1", models.RoleServiceEngineer)
	require.NotNil(t, s)
	assert.Equal(t, "engineer1", s.Username)
	assert.Equal(t, models.RoleServiceEngineer, s.Role)
	assert.Equal(t, 0, s.InvalidAttempts)
	assert.Equal(t, 0, s.SuspiciousActivity)

	entry := rec.last()
	assert.Equal(t, models.DescSessionCreated, entry.Description)
	assert.Equal(t, "engineer1", entry.Username)
	assert.False(t, entry.Suspicious)
}

func TestCreateEvictsExistingSession(t *testing.T) {
	m, rec := newTestManager(Config{})

	m.Create("engineer1", models.RoleServiceEngineer)
	m.Create("engineer1", models.RoleServiceEngineer)

	// Old session termination is logged with the new-session reason before
	// the fresh session entry.
	entries := rec.all()
	require.Len(t, entries, 3)
	assert.Equal(t, models.DescSessionTerminated, entries[1].Description)
	assert.Contains(t, entries[1].Detail, ReasonNewSession)
	assert.Equal(t, models.DescSessionCreated, entries[2].Description)

	assert.Len(t, m.ActiveSessions(), 1)
}

func TestCheckLivenessNoSession(t *testing.T) {
	m, _ := newTestManager(Config{})

	ok, reason := m.CheckLiveness("nobody")
	assert.False(t, ok)
	assert.Equal(t, ReasonNoSession, reason)
}

func TestCheckLivenessValidRefreshesActivity(t *testing.T) {
	m, _ := newTestManager(Config{})
	m.Create("engineer1", models.RoleServiceEngineer)

	current := time.Now()
	m.SetClock(func() time.Time { return current })

	current = current.Add(10 * time.Minute)
	ok, reason := m.CheckLiveness("engineer1")
	assert.True(t, ok)
	assert.Equal(t, ReasonValid, reason)

	s := m.Get("engineer1")
	require.NotNil(t, s)
	assert.Equal(t, current, s.LastActivity)
}

func TestCheckLivenessIdleExpiry(t *testing.T) {
	m, rec := newTestManager(Config{IdleTimeout: 30 * time.Minute})

	start := time.Now()
	m.SetClock(func() time.Time { return start })
	m.Create("engineer1", models.RoleServiceEngineer)

	m.SetClock(func() time.Time { return start.Add(31 * time.Minute) })
	ok, reason := m.CheckLiveness("engineer1")
	assert.False(t, ok)
	assert.Equal(t, ReasonIdleExpired, reason)
	assert.Nil(t, m.Get("engineer1"))

	entry := rec.last()
	assert.Equal(t, models.DescSessionTerminated, entry.Description)
	assert.Contains(t, entry.Detail, ReasonIdleExpired)
}

func TestCheckLivenessAbsoluteExpiry(t *testing.T) {
	m, rec := newTestManager(Config{IdleTimeout: 30 * time.Minute, AbsoluteTimeout: 2 * time.Hour})

	start := time.Now()
	current := start
	m.SetClock(func() time.Time { return current })
	m.Create("engineer1", models.RoleServiceEngineer)

	// Keep touching the session so idle never trips; absolute still does.
	for i := 0; i < 8; i++ {
		current = current.Add(15 * time.Minute)
		ok, _ := m.CheckLiveness("engineer1")
		if i < 7 {
			require.True(t, ok)
		}
	}

	current = current.Add(time.Minute)
	ok, reason := m.CheckLiveness("engineer1")
	assert.False(t, ok)
	assert.Equal(t, ReasonAbsoluteExpired, reason)
	assert.Contains(t, rec.last().Detail, ReasonAbsoluteExpired)
}

func TestInvalidAttemptsTerminateAtMax(t *testing.T) {
	m, rec := newTestManager(Config{MaxInvalid: 5})
	m.Create("engineer1", models.RoleServiceEngineer)

	for i := 1; i < 5; i++ {
		terminated, msg := m.RegisterInvalidAttempt("engineer1")
		assert.False(t, terminated)
		assert.Equal(t, fmt.Sprintf("Invalid attempt %d/5", i), msg)
	}

	terminated, msg := m.RegisterInvalidAttempt("engineer1")
	assert.True(t, terminated)
	assert.Contains(t, msg, "5 invalid attempts")

	assert.Nil(t, m.Get("engineer1"))
	ok, reason := m.CheckLiveness("engineer1")
	assert.False(t, ok)
	assert.Equal(t, ReasonNoSession, reason)

	// A further attempt lands on no session at all.
	terminated, msg = m.RegisterInvalidAttempt("engineer1")
	assert.False(t, terminated)
	assert.Equal(t, ReasonNoSession, msg)

	entry := rec.last()
	assert.Equal(t, models.DescSessionTerminated, entry.Description)
	assert.Contains(t, entry.Detail, "Invalid attempts: 5")
}

func TestSuspiciousActivityTerminatesAtMax(t *testing.T) {
	m, rec := newTestManager(Config{MaxSuspicious: 3})
	m.Create("engineer1", models.RoleServiceEngineer)

	for i := 1; i < 3; i++ {
		terminated, _ := m.RegisterSuspiciousActivity("engineer1", "Input: <script>")
		assert.False(t, terminated)
	}

	terminated, msg := m.RegisterSuspiciousActivity("engineer1", "Input: <script>")
	assert.True(t, terminated)
	assert.Contains(t, msg, "3 suspicious activities")
	assert.Nil(t, m.Get("engineer1"))

	// The suspicious entry is written before the termination entry.
	entries := rec.all()
	require.GreaterOrEqual(t, len(entries), 2)
	secondToLast := entries[len(entries)-2]
	assert.Equal(t, models.DescSuspiciousActivity, secondToLast.Description)
	assert.True(t, secondToLast.Suspicious)
	assert.Equal(t, models.DescSessionTerminated, rec.last().Description)
	assert.Contains(t, rec.last().Detail, "Suspicious activities: 3")
}

func TestSuspiciousActivityWithoutSessionStillLogged(t *testing.T) {
	m, rec := newTestManager(Config{})

	terminated, msg := m.RegisterSuspiciousActivity("ghost", "Input: ../../etc")
	assert.False(t, terminated)
	assert.Equal(t, ReasonNoSession, msg)

	entry := rec.last()
	assert.Equal(t, models.DescSuspiciousActivity, entry.Description)
	assert.True(t, entry.Suspicious)
}

func TestTerminateIsIdempotent(t *testing.T) {
	m, rec := newTestManager(Config{})
	m.Create("engineer1", models.RoleServiceEngineer)

	assert.True(t, m.Terminate("engineer1", ReasonLogout))
	before := len(rec.all())
	assert.False(t, m.Terminate("engineer1", ReasonLogout))
	assert.Len(t, rec.all(), before)
}

func TestTerminationEntryCarriesDurationAndCounters(t *testing.T) {
	m, rec := newTestManager(Config{})

	start := time.Now()
	current := start
	m.SetClock(func() time.Time { return current })
	m.Create("engineer1", models.RoleServiceEngineer)
	m.RegisterInvalidAttempt("engineer1")
	m.RegisterInvalidAttempt("engineer1")
	m.RegisterSuspiciousActivity("engineer1", "Input: x;y")

	current = current.Add(95 * time.Second)
	m.Terminate("engineer1", ReasonLogout)

	detail := rec.last().Detail
	assert.Contains(t, detail, "Reason: "+ReasonLogout)
	assert.Contains(t, detail, "Duration: 95s")
	assert.Contains(t, detail, "Invalid attempts: 2")
	assert.Contains(t, detail, "Suspicious activities: 1")
}

func TestForceLogoutAll(t *testing.T) {
	m, _ := newTestManager(Config{})
	m.Create("a", models.RoleSystemAdmin)
	m.Create("b", models.RoleServiceEngineer)
	m.Create("c", models.RoleServiceEngineer)

	assert.Equal(t, 3, m.ForceLogoutAll("Maintenance window"))
	assert.Empty(t, m.ActiveSessions())
	assert.Equal(t, 0, m.ForceLogoutAll("Maintenance window"))
}

func TestInfoReportsRemainingBudgets(t *testing.T) {
	m, _ := newTestManager(Config{IdleTimeout: 30 * time.Minute, AbsoluteTimeout: 2 * time.Hour})

	start := time.Now()
	current := start
	m.SetClock(func() time.Time { return current })
	m.Create("engineer1", models.RoleServiceEngineer)

	current = current.Add(10 * time.Minute)
	info := m.Info("engineer1")
	require.NotNil(t, info)
	assert.Equal(t, 20*time.Minute, info.IdleRemaining)
	assert.Equal(t, 110*time.Minute, info.AbsoluteRemaining)

	assert.Nil(t, m.Info("nobody"))
}

func TestNilRecorderIsTolerated(t *testing.T) {
	m := NewManager(nil, Config{})
	m.Create("engineer1", models.RoleServiceEngineer)
	assert.True(t, m.Terminate("engineer1", ReasonLogout))
}
