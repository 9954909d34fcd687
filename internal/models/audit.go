package models

import "time"

// AuditEntry is one decrypted record of the append-only audit log.
// Entries are immutable once written; sequence numbers are strictly
// increasing in file order.
type AuditEntry struct {
	Sequence    int       `json:"sequence"`
	Timestamp   time.Time `json:"timestamp"`
	Username    string    `json:"username"`
	Description string    `json:"description"`
	Detail      string    `json:"detail,omitempty"`
	Suspicious  bool      `json:"suspicious"`
}

// Audit entry descriptions produced by the security core. Consumers match
// on these strings when scanning the decrypted log.
const (
	DescLoggedIn           = "Logged in"
	DescLoggedOut          = "Logged out"
	DescUnsuccessfulLogin  = "Unsuccessful login"
	DescSessionCreated     = "Session created"
	DescSessionTerminated  = "Session terminated"
	DescInvalidInput       = "Invalid input detected"
	DescSuspiciousActivity = "Suspicious activity detected"
	DescPasswordChanged    = "Password changed"
	DescPasswordReset      = "Password reset"
	DescAccountCreated     = "Account created"
	DescAccountDeleted     = "Account deleted"
	DescRoleChanged        = "Role changed"
	DescLogsCleared        = "Audit log cleared"
)

// ActorUnauthenticated is the actor recorded for events that happen before
// any operator is authenticated, such as failed logins.
const ActorUnauthenticated = "unknown"
