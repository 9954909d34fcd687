package audit

import (
	"regexp"
	"strings"
)

// FieldCategory drives the per-field exception table of the classifier.
// The universal blacklist always applies; only the extra patterns differ
// by category.
type FieldCategory int

const (
	// CategoryIdentifier covers structured fields (usernames, serials, zip
	// codes) where quote characters are never legitimate.
	CategoryIdentifier FieldCategory = iota
	// CategoryFreeText covers human names and street names, where
	// apostrophes and quotes occur in real data (O'Brien) and must not be
	// flagged.
	CategoryFreeText
	// CategoryNumeric covers numeric and coordinate inputs.
	CategoryNumeric
)

// universalPatterns are flagged in every field: script-injection markers,
// event-handler attributes, and path-traversal sequences.
var universalPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<\s*script`),
	regexp.MustCompile(`(?i)<\s*/\s*script`),
	regexp.MustCompile(`(?i)<\s*iframe`),
	regexp.MustCompile(`(?i)javascript\s*:`),
	regexp.MustCompile(`(?i)\bon[a-z]+\s*=`),
	regexp.MustCompile(`\.\./`),
	regexp.MustCompile(`\.\.\\`),
}

// identifierPatterns extend the blacklist for structured fields only.
// A single global blacklist would flag legitimate apostrophes in names,
// so these stay out of the free-text category.
var identifierPatterns = []*regexp.Regexp{
	regexp.MustCompile(`['"]`),
	regexp.MustCompile(`;`),
	regexp.MustCompile(`--`),
	regexp.MustCompile(`(?i)\bunion\s+select\b`),
	regexp.MustCompile(`(?i)\bdrop\s+table\b`),
}

// categoryPatterns maps each category to its additional pattern set,
// evaluated after the universal blacklist.
var categoryPatterns = map[FieldCategory][]*regexp.Regexp{
	CategoryIdentifier: identifierPatterns,
	CategoryNumeric:    identifierPatterns,
	CategoryFreeText:   nil,
}

// fieldCategories resolves known field names. Unknown fields default to
// the conservative identifier category.
var fieldCategories = map[string]FieldCategory{
	"first_name":  CategoryFreeText,
	"last_name":   CategoryFreeText,
	"street_name": CategoryFreeText,
	"city":        CategoryFreeText,
	"brand":       CategoryFreeText,
	"model":       CategoryFreeText,

	"username":        CategoryIdentifier,
	"email":           CategoryIdentifier,
	"zip_code":        CategoryIdentifier,
	"serial_number":   CategoryIdentifier,
	"driving_license": CategoryIdentifier,
	"menu_choice":     CategoryIdentifier,

	"phone":       CategoryNumeric,
	"coordinates": CategoryNumeric,
	"top_speed":   CategoryNumeric,
	"mileage":     CategoryNumeric,
}

// CategoryOf returns the category for a field name.
func CategoryOf(fieldName string) FieldCategory {
	if c, ok := fieldCategories[strings.ToLower(fieldName)]; ok {
		return c
	}
	return CategoryIdentifier
}

// DetectSuspiciousInput reports whether value looks like an injection
// attempt for the given field. It is a conservative classifier, not a
// sanitizer: flagged input is logged and escalated, never rewritten.
func DetectSuspiciousInput(value, fieldName string) bool {
	if value == "" {
		return false
	}
	if strings.ContainsRune(value, '\x00') {
		return true
	}

	for _, p := range universalPatterns {
		if p.MatchString(value) {
			return true
		}
	}
	for _, p := range categoryPatterns[CategoryOf(fieldName)] {
		if p.MatchString(value) {
			return true
		}
	}
	return false
}
