package logging

import "log/slog"

// Common field names for consistent logging across the console.
const (
	FieldComponent = "component"
	FieldUsername  = "username"
	FieldRole      = "role"
	FieldReason    = "reason"
	FieldField     = "field"
	FieldSequence  = "sequence"
	FieldError     = "error"
)

// Component returns a slog attribute for the emitting component.
func Component(name string) slog.Attr {
	return slog.String(FieldComponent, name)
}

// Username returns a slog attribute for the operator username.
func Username(name string) slog.Attr {
	return slog.String(FieldUsername, name)
}

// Role returns a slog attribute for the operator role.
func Role(role string) slog.Attr {
	return slog.String(FieldRole, role)
}

// Reason returns a slog attribute for a termination or failure reason.
func Reason(reason string) slog.Attr {
	return slog.String(FieldReason, reason)
}

// Field returns a slog attribute for an input field name.
func Field(name string) slog.Attr {
	return slog.String(FieldField, name)
}

// Error returns a slog attribute for an error.
func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
