package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/fleetgrid/console/internal/models"
)

// AlertTracker maintains the per-operator seen-set used to compute unread
// suspicious-alert counts. This is advisory display state, not security
// data: a missing file just means every alert resurfaces as unread.
type AlertTracker struct {
	mu   sync.Mutex
	path string
	log  *Log
}

// seenFile is the on-disk shape: operator -> set of entry hashes.
type seenFile struct {
	Seen map[string][]string `yaml:"seen"`
}

func NewAlertTracker(path string, log *Log) *AlertTracker {
	return &AlertTracker{path: path, log: log}
}

// UnreadSuspiciousCount returns how many suspicious entries the operator
// has not yet reviewed.
func (t *AlertTracker) UnreadSuspiciousCount(operator string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries, err := t.log.Suspicious()
	if err != nil {
		return 0, err
	}

	seen, err := t.load()
	if err != nil {
		return 0, err
	}
	seenSet := toSet(seen.Seen[operator])

	count := 0
	for _, e := range entries {
		if !seenSet[EntryHash(e)] {
			count++
		}
	}
	return count, nil
}

// MarkAllSeen unions the current suspicious entries into the operator's
// persisted seen-set.
func (t *AlertTracker) MarkAllSeen(operator string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries, err := t.log.Suspicious()
	if err != nil {
		return err
	}

	seen, err := t.load()
	if err != nil {
		return err
	}
	seenSet := toSet(seen.Seen[operator])
	for _, e := range entries {
		seenSet[EntryHash(e)] = true
	}

	hashes := make([]string, 0, len(seenSet))
	for h := range seenSet {
		hashes = append(hashes, h)
	}
	if seen.Seen == nil {
		seen.Seen = make(map[string][]string)
	}
	seen.Seen[operator] = hashes

	return t.save(seen)
}

// EntryHash identifies an entry by content: the hash of its decrypted
// line. Collisions are accepted as negligible for alert bookkeeping.
func EntryHash(e models.AuditEntry) string {
	sum := sha256.Sum256([]byte(formatLine(e)))
	return hex.EncodeToString(sum[:])
}

// load tolerates a missing file: nothing seen yet.
func (t *AlertTracker) load() (*seenFile, error) {
	data, err := os.ReadFile(t.path)
	if os.IsNotExist(err) {
		return &seenFile{Seen: make(map[string][]string)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read seen-alerts file: %w", err)
	}

	var seen seenFile
	if err := yaml.Unmarshal(data, &seen); err != nil {
		// A corrupt file is rebuilt by treating everything as unread.
		return &seenFile{Seen: make(map[string][]string)}, nil
	}
	if seen.Seen == nil {
		seen.Seen = make(map[string][]string)
	}
	return &seen, nil
}

func (t *AlertTracker) save(seen *seenFile) error {
	data, err := yaml.Marshal(seen)
	if err != nil {
		return fmt.Errorf("failed to encode seen-alerts file: %w", err)
	}
	if dir := filepath.Dir(t.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create seen-alerts directory: %w", err)
		}
	}
	if err := os.WriteFile(t.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write seen-alerts file: %w", err)
	}
	return nil
}

func toSet(hashes []string) map[string]bool {
	set := make(map[string]bool, len(hashes))
	for _, h := range hashes {
		set[h] = true
	}
	return set
}
