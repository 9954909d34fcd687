package audit

import (
	"fmt"
	"strings"

	"github.com/fleetgrid/console/internal/models"
)

// DefaultPageSize is the number of entries shown per review page.
const DefaultPageSize = 10

// displayDetailRunes is the truncation point for detail text in the
// paged listing; drilling into a page shows the full detail.
const displayDetailRunes = 50

// Page is one screen of decrypted audit entries.
type Page struct {
	Number  int
	Total   int
	Entries []models.AuditEntry
}

// Paginate slices entries into the 1-based page number. Out-of-range pages
// clamp to the nearest valid page.
func Paginate(entries []models.AuditEntry, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := (len(entries) + size - 1) / size
	if total == 0 {
		total = 1
	}
	if page < 1 {
		page = 1
	}
	if page > total {
		page = total
	}

	start := (page - 1) * size
	end := start + size
	if start > len(entries) {
		start = len(entries)
	}
	if end > len(entries) {
		end = len(entries)
	}

	return Page{Number: page, Total: total, Entries: entries[start:end]}
}

// FormatEntry renders one entry for display. When full is false the detail
// is truncated for the listing view.
func FormatEntry(e models.AuditEntry, full bool) string {
	detail := e.Detail
	if !full {
		runes := []rune(detail)
		if len(runes) > displayDetailRunes {
			detail = string(runes[:displayDetailRunes]) + "..."
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "#%d  %s  %s  %s",
		e.Sequence,
		e.Timestamp.Format(timestampDateLayout+" "+timestampTimeLayout),
		e.Username,
		e.Description,
	)
	if detail != "" {
		fmt.Fprintf(&b, "  (%s)", detail)
	}
	if e.Suspicious {
		b.WriteString("  [SUSPICIOUS]")
	}
	return b.String()
}
