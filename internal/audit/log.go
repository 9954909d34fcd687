// Package audit implements the tamper-resistant audit trail: an
// append-only file of per-entry-encrypted lines with monotonically
// increasing sequence numbers, a suspicious-input classifier, and the
// per-operator unread-alert tracker.
package audit

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fleetgrid/console/internal/crypto"
	"github.com/fleetgrid/console/internal/logging"
	"github.com/fleetgrid/console/internal/models"
)

const (
	timestampDateLayout = "02-01-2006"
	timestampTimeLayout = "15:04:05"

	// maxDetailRunes bounds the free-text detail field; raw offending input
	// is embedded there and must not balloon the log.
	maxDetailRunes = 200

	suspiciousYes = "SUSPICIOUS: Yes"
	suspiciousNo  = "SUSPICIOUS: No"
)

// Log is the append-only encrypted record store. All operations are
// serialized behind a mutex: sequence assignment is a read-then-append
// that must stay atomic.
type Log struct {
	mu     sync.Mutex
	path   string
	cipher *crypto.Cipher
	logger *slog.Logger
	now    func() time.Time
}

func New(path string, cipher *crypto.Cipher) *Log {
	return &Log{
		path:   path,
		cipher: cipher,
		logger: slog.Default(),
		now:    time.Now,
	}
}

// Record appends one entry. The line is encrypted whole before it touches
// disk; nothing is ever written to the file in clear.
func (l *Log) Record(username, description, detail string, suspicious bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	seq, err := l.nextSequence()
	if err != nil {
		return err
	}

	now := l.now()
	line := formatLine(models.AuditEntry{
		Sequence:    seq,
		Timestamp:   now,
		Username:    username,
		Description: description,
		Detail:      sanitizeDetail(detail),
		Suspicious:  suspicious,
	})

	token, err := l.cipher.Encrypt(line)
	if err != nil {
		return fmt.Errorf("failed to encrypt audit entry: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(token + "\n"); err != nil {
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	l.logger.Info("audit entry recorded",
		logging.Username(username),
		slog.String("description", description),
		slog.Int("sequence", seq),
		slog.Bool("suspicious", suspicious),
	)
	return nil
}

// Entries decrypts every line in file order. Lines that fail to decrypt
// or parse are dropped; the resulting sequence-number gap is the visible
// symptom of a corrupt line.
func (l *Log) Entries() ([]models.AuditEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readEntries()
}

// Suspicious returns only the entries carrying the trailing flag.
func (l *Log) Suspicious() ([]models.AuditEntry, error) {
	entries, err := l.Entries()
	if err != nil {
		return nil, err
	}
	var out []models.AuditEntry
	for _, e := range entries {
		if e.Suspicious {
			out = append(out, e)
		}
	}
	return out, nil
}

// CountRecentFailures counts prior failed logins for username inside the
// trailing window. It rescans and re-decrypts the whole log on every call;
// correct but slow, bounded only by the window filter.
func (l *Log) CountRecentFailures(username string, window time.Duration) int {
	entries, err := l.Entries()
	if err != nil {
		return 0
	}
	cutoff := l.now().Add(-window)
	count := 0
	for _, e := range entries {
		if e.Description != models.DescUnsuccessfulLogin {
			continue
		}
		if !strings.EqualFold(e.Detail, username) {
			continue
		}
		if e.Timestamp.Before(cutoff) {
			continue
		}
		count++
	}
	return count
}

// Clear deletes the whole log file. Individual entries are immutable; this
// administrative wipe is the only supported mutation.
func (l *Log) Clear() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear audit log: %w", err)
	}
	return nil
}

// nextSequence derives the next number from the last existing line,
// falling back to the file's line count when the last line does not parse.
// A corrupt tail degrades numbering to approximately correct instead of
// blocking writes. Caller holds l.mu.
func (l *Log) nextSequence() (int, error) {
	lines, err := l.readLines()
	if err != nil {
		return 0, err
	}
	if len(lines) == 0 {
		return 1, nil
	}

	last, outcome := l.cipher.Decrypt(lines[len(lines)-1])
	if outcome != crypto.OutcomeFailed {
		if entry, ok := parseLine(last); ok {
			return entry.Sequence + 1, nil
		}
	}
	return len(lines) + 1, nil
}

func (l *Log) readEntries() ([]models.AuditEntry, error) {
	lines, err := l.readLines()
	if err != nil {
		return nil, err
	}

	var entries []models.AuditEntry
	for _, token := range lines {
		plain, outcome := l.cipher.Decrypt(token)
		if outcome == crypto.OutcomeFailed {
			continue
		}
		entry, ok := parseLine(plain)
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (l *Log) readLines() ([]string, error) {
	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read audit log: %w", err)
	}
	return lines, nil
}

func formatLine(e models.AuditEntry) string {
	flag := suspiciousNo
	if e.Suspicious {
		flag = suspiciousYes
	}
	return fmt.Sprintf("%d | %s | %s | %s | %s | %s | %s",
		e.Sequence,
		e.Timestamp.Format(timestampDateLayout),
		e.Timestamp.Format(timestampTimeLayout),
		e.Username,
		e.Description,
		e.Detail,
		flag,
	)
}

func parseLine(line string) (models.AuditEntry, bool) {
	parts := strings.Split(line, " | ")
	if len(parts) < 7 {
		return models.AuditEntry{}, false
	}

	seq, err := strconv.Atoi(parts[0])
	if err != nil {
		return models.AuditEntry{}, false
	}
	ts, err := time.ParseInLocation(
		timestampDateLayout+" "+timestampTimeLayout,
		parts[1]+" "+parts[2],
		time.Local,
	)
	if err != nil {
		return models.AuditEntry{}, false
	}

	flag := parts[len(parts)-1]
	if flag != suspiciousYes && flag != suspiciousNo {
		return models.AuditEntry{}, false
	}

	return models.AuditEntry{
		Sequence:    seq,
		Timestamp:   ts,
		Username:    parts[3],
		Description: parts[4],
		Detail:      strings.Join(parts[5:len(parts)-1], " | "),
		Suspicious:  flag == suspiciousYes,
	}, true
}

// sanitizeDetail keeps the detail field parseable: pipes would shift the
// positional format, control characters would break the line framing.
func sanitizeDetail(detail string) string {
	detail = strings.ReplaceAll(detail, "|", "/")
	detail = strings.ReplaceAll(detail, "\n", " ")
	detail = strings.ReplaceAll(detail, "\r", " ")
	detail = strings.ReplaceAll(detail, "\x00", "")

	runes := []rune(detail)
	if len(runes) > maxDetailRunes {
		return string(runes[:maxDetailRunes]) + "..."
	}
	return detail
}
