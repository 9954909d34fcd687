package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectSuspiciousInput(t *testing.T) {
	cases := []struct {
		name  string
		value string
		field string
		want  bool
	}{
		{"clean username", "engineer1", "username", false},
		{"clean numeric", "31.79, -0.54", "coordinates", false},
		{"empty never flagged", "", "username", false},

		{"script tag in free text", "<script>alert(1)</script>", "first_name", true},
		{"script tag spaced", "< script >x", "username", true},
		{"closing script tag", "</script>", "city", true},
		{"iframe", "<iframe src=x>", "brand", true},
		{"javascript scheme", "javascript:void(0)", "last_name", true},
		{"event handler", "x onload=alert(1)", "model", true},
		{"path traversal forward", "../../etc/passwd", "street_name", true},
		{"path traversal backward", "..\\windows\\system32", "street_name", true},
		{"nul byte", "abc\x00def", "first_name", true},

		{"apostrophe tolerated in name", "O'Brien", "last_name", false},
		{"apostrophe tolerated in street", "King's Road", "street_name", false},
		{"quoted nickname tolerated", `Jan "Sparky" Visser`, "first_name", false},

		{"apostrophe flagged in username", "o'brien", "username", true},
		{"sql comment in identifier", "a--b", "serial_number", true},
		{"semicolon in identifier", "1;DROP TABLE users", "zip_code", true},
		{"union select", "1 UNION SELECT password", "email", true},
		{"drop table in numeric", "0; drop table riders", "mileage", true},

		{"unknown field defaults to identifier", "it's fine", "nickname", true},
		{"unknown field clean value", "plainvalue", "nickname", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectSuspiciousInput(tc.value, tc.field), "value=%q field=%q", tc.value, tc.field)
		})
	}
}

func TestCategoryOf(t *testing.T) {
	assert.Equal(t, CategoryFreeText, CategoryOf("last_name"))
	assert.Equal(t, CategoryFreeText, CategoryOf("LAST_NAME"))
	assert.Equal(t, CategoryIdentifier, CategoryOf("username"))
	assert.Equal(t, CategoryNumeric, CategoryOf("phone"))
	assert.Equal(t, CategoryIdentifier, CategoryOf("never_heard_of_it"))
}
