package audit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetgrid/console/internal/models"
)

func testTracker(t *testing.T) (*AlertTracker, *Log) {
	t.Helper()
	log, _ := testLog(t)
	path := filepath.Join(t.TempDir(), "alerts_seen.yaml")
	return NewAlertTracker(path, log), log
}

func TestUnreadCountStartsAtZero(t *testing.T) {
	tracker, _ := testTracker(t)

	count, err := tracker.UnreadSuspiciousCount("super_admin")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestUnreadCountTracksSuspiciousEntries(t *testing.T) {
	tracker, log := testTracker(t)

	require.NoError(t, log.Record("a", models.DescLoggedIn, "", false))
	require.NoError(t, log.Record(models.ActorUnauthenticated, models.DescSuspiciousActivity, "username: x;y", true))
	require.NoError(t, log.Record(models.ActorUnauthenticated, models.DescSuspiciousActivity, "username: <script>", true))

	count, err := tracker.UnreadSuspiciousCount("super_admin")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMarkAllSeenResetsUnreadCount(t *testing.T) {
	tracker, log := testTracker(t)
	require.NoError(t, log.Record("a", models.DescSuspiciousActivity, "x", true))

	require.NoError(t, tracker.MarkAllSeen("super_admin"))

	count, err := tracker.UnreadSuspiciousCount("super_admin")
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// A fresh suspicious entry shows up as unread again.
	require.NoError(t, log.Record("a", models.DescSuspiciousActivity, "y", true))
	count, err = tracker.UnreadSuspiciousCount("super_admin")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSeenStateIsPerOperator(t *testing.T) {
	tracker, log := testTracker(t)
	require.NoError(t, log.Record("a", models.DescSuspiciousActivity, "x", true))

	require.NoError(t, tracker.MarkAllSeen("super_admin"))

	count, err := tracker.UnreadSuspiciousCount("sysadmin2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSeenStatePersistsAcrossTrackers(t *testing.T) {
	log, _ := testLog(t)
	path := filepath.Join(t.TempDir(), "alerts_seen.yaml")

	require.NoError(t, log.Record("a", models.DescSuspiciousActivity, "x", true))
	require.NoError(t, NewAlertTracker(path, log).MarkAllSeen("super_admin"))

	count, err := NewAlertTracker(path, log).UnreadSuspiciousCount("super_admin")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestCorruptSeenFileTreatedAsEmpty(t *testing.T) {
	tracker, log := testTracker(t)
	require.NoError(t, log.Record("a", models.DescSuspiciousActivity, "x", true))
	require.NoError(t, os.WriteFile(tracker.path, []byte("{not yaml: ["), 0o600))

	count, err := tracker.UnreadSuspiciousCount("super_admin")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
