// Package service is the security core's upward surface: credential
// verification, the session lifecycle commands, and the escalation path
// for suspicious input. The CRUD and menu layers call only this package.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fleetgrid/console/internal/audit"
	"github.com/fleetgrid/console/internal/crypto"
	"github.com/fleetgrid/console/internal/logging"
	"github.com/fleetgrid/console/internal/models"
	"github.com/fleetgrid/console/internal/repository"
	"github.com/fleetgrid/console/internal/session"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountNotFound    = errors.New("account not found")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrBootstrapProtected = errors.New("bootstrap account cannot be modified")
	ErrInvalidRole        = errors.New("invalid role")
	ErrNoTemporaryFlag    = errors.New("account has no temporary password set")
)

// SecurityViolationError is the fatal security signal raised when input
// matches a malicious pattern. It propagates up to the top-level command
// loop, which logs it and terminates the process; nothing below that layer
// calls process exit.
type SecurityViolationError struct {
	Username   string
	Field      string
	Terminated bool
}

func (e *SecurityViolationError) Error() string {
	return fmt.Sprintf("suspicious input detected in %s for user %s", e.Field, e.Username)
}

// Config tunes the authenticator. Zero values fall back to the defaults.
type Config struct {
	RecentFailureWindow    time.Duration
	RecentFailureThreshold int
	BcryptCost             int
}

func (c Config) withDefaults() Config {
	if c.RecentFailureWindow <= 0 {
		c.RecentFailureWindow = 10 * time.Minute
	}
	if c.RecentFailureThreshold <= 0 {
		c.RecentFailureThreshold = 3
	}
	if c.BcryptCost <= 0 {
		c.BcryptCost = bcrypt.DefaultCost
	}
	return c
}

// LoginResult is what a successful authentication hands the caller.
type LoginResult struct {
	Username string
	Role     models.Role

	// MustChangePassword is set when the account carries a temporary
	// password. The caller is required to complete ChangeTemporaryPassword
	// before any other action; if the flow is abandoned it must call
	// AbandonTemporaryPassword so no usable session is left behind.
	MustChangePassword bool
}

type AuthService struct {
	repo     repository.Repository
	cipher   *crypto.Cipher
	sessions *session.Manager
	auditLog *audit.Log
	alerts   *audit.AlertTracker
	logger   *logging.Logger
	cfg      Config
}

func NewAuthService(repo repository.Repository, cipher *crypto.Cipher, sessions *session.Manager, auditLog *audit.Log, alerts *audit.AlertTracker, cfg Config) *AuthService {
	return &AuthService{
		repo:     repo,
		cipher:   cipher,
		sessions: sessions,
		auditLog: auditLog,
		alerts:   alerts,
		logger:   logging.Default().With(logging.Component("auth")),
		cfg:      cfg.withDefaults(),
	}
}

// EnsureBootstrap seeds the hard-coded superuser row if it is missing.
// The sentinel username is stored in clear so it stays recognizable
// without a decrypt pass.
func (s *AuthService) EnsureBootstrap(ctx context.Context) error {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	for _, a := range accounts {
		if a.IsBootstrap() {
			return nil
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(models.BootstrapPassword), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash bootstrap password: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate account ID: %w", err)
	}

	account := &models.Account{
		ID:           id.String(),
		Username:     models.BootstrapUsername,
		PasswordHash: string(hash),
		Role:         models.RoleSuperAdmin,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return fmt.Errorf("failed to create bootstrap account: %w", err)
	}

	s.logger.Info("bootstrap account created", logging.Username(models.BootstrapUsername))
	return nil
}

// Login verifies the credential pair and opens a session on success.
//
// Usernames are stored encrypted and not indexed, so verification is a
// linear scan with decrypt-then-compare. On a password mismatch for a
// matched username the scan stops instead of continuing to other
// candidates; usernames are supposed to be unique and continuing would
// leak behavioral differences across accounts.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	for _, account := range accounts {
		stored, outcome := s.cipher.Decrypt(account.Username)
		if outcome == crypto.OutcomeFailed {
			// One unreadable row must not block authentication.
			continue
		}
		if !strings.EqualFold(stored, username) {
			continue
		}

		if account.IsBootstrap() {
			// The bootstrap credential pair is fixed; the stored hash is
			// intentionally ignored for this row.
			if password != models.BootstrapPassword {
				return nil, s.failLogin(username)
			}
		} else if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
			return nil, s.failLogin(username)
		}

		s.sessions.Create(stored, account.Role)
		if err := s.auditLog.Record(stored, models.DescLoggedIn, "", false); err != nil {
			s.logger.Warn("failed to record login", logging.Error(err))
		}

		return &LoginResult{
			Username:           stored,
			Role:               account.Role,
			MustChangePassword: account.TempPassword,
		}, nil
	}

	return nil, s.failLogin(username)
}

// failLogin records the unsuccessful attempt, flagging it suspicious when
// the same username has accumulated enough recent failures. The count is
// recomputed by rescanning the decrypted log inside the trailing window.
func (s *AuthService) failLogin(username string) error {
	prior := s.auditLog.CountRecentFailures(username, s.cfg.RecentFailureWindow)
	suspicious := prior >= s.cfg.RecentFailureThreshold

	if err := s.auditLog.Record(models.ActorUnauthenticated, models.DescUnsuccessfulLogin, username, suspicious); err != nil {
		s.logger.Warn("failed to record login failure", logging.Error(err))
	}
	return ErrInvalidCredentials
}

// Logout terminates the operator's session.
func (s *AuthService) Logout(username string) {
	if s.sessions.Terminate(username, session.ReasonLogout) {
		if err := s.auditLog.Record(username, models.DescLoggedOut, "", false); err != nil {
			s.logger.Warn("failed to record logout", logging.Error(err))
		}
	}
}

// AbandonTemporaryPassword is called when an operator with a forced
// password change walks away from the flow. The session is destroyed so a
// temporary credential never yields usable access.
func (s *AuthService) AbandonTemporaryPassword(username string) {
	s.sessions.Terminate(username, "Temporary password change not completed")
}

// CheckLiveness must run before every privileged action. An invalid
// result means the session is gone and the operator returns to login.
func (s *AuthService) CheckLiveness(username string) (bool, string) {
	return s.sessions.CheckLiveness(username)
}

// ChangePassword verifies the current password and installs the new one,
// clearing the temporary flag in the same update.
func (s *AuthService) ChangePassword(ctx context.Context, username, current, newPassword string) error {
	account, stored, err := s.findAccount(ctx, username)
	if err != nil {
		return err
	}
	if account.IsBootstrap() {
		return ErrBootstrapProtected
	}
	if bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(current)) != nil {
		return ErrInvalidCredentials
	}

	if err := s.setPassword(ctx, account, newPassword); err != nil {
		return err
	}
	if err := s.auditLog.Record(stored, models.DescPasswordChanged, "", false); err != nil {
		s.logger.Warn("failed to record password change", logging.Error(err))
	}
	return nil
}

// ChangeTemporaryPassword completes the forced rotation after an
// administrator reset. The flag clears atomically with the password
// update; no current password is required because possession of the
// temporary one was already proven at login.
func (s *AuthService) ChangeTemporaryPassword(ctx context.Context, username, newPassword string) error {
	account, stored, err := s.findAccount(ctx, username)
	if err != nil {
		return err
	}
	if account.IsBootstrap() {
		return ErrBootstrapProtected
	}
	if !account.TempPassword {
		return ErrNoTemporaryFlag
	}

	if err := s.setPassword(ctx, account, newPassword); err != nil {
		return err
	}
	if err := s.auditLog.Record(stored, models.DescPasswordChanged, "Temporary password rotated", false); err != nil {
		s.logger.Warn("failed to record password change", logging.Error(err))
	}
	return nil
}

// ResetPassword is the administrative reset: it installs a temporary
// password the target must rotate at next login.
func (s *AuthService) ResetPassword(ctx context.Context, actor, username, tempPassword string) error {
	account, stored, err := s.findAccount(ctx, username)
	if err != nil {
		return err
	}
	if account.IsBootstrap() {
		return ErrBootstrapProtected
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(tempPassword), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	account.PasswordHash = string(hash)
	account.TempPassword = true

	if err := s.repo.UpdateAccount(ctx, account); err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if err := s.auditLog.Record(actor, models.DescPasswordReset, "Target: "+stored, false); err != nil {
		s.logger.Warn("failed to record password reset", logging.Error(err))
	}
	return nil
}

// CreateAccount registers a new operator. The superuser role is never
// creatable at runtime; the bootstrap row is the only one that carries it.
func (s *AuthService) CreateAccount(ctx context.Context, actor, username, password string, role models.Role) (*models.Account, error) {
	if !role.Valid() || role == models.RoleSuperAdmin {
		return nil, ErrInvalidRole
	}
	if strings.EqualFold(username, models.BootstrapUsername) {
		return nil, ErrUsernameTaken
	}
	if _, _, err := s.findAccount(ctx, username); err == nil {
		return nil, ErrUsernameTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	encrypted, err := s.cipher.Encrypt(username)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt username: %w", err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate account ID: %w", err)
	}

	account := &models.Account{
		ID:           id.String(),
		Username:     encrypted,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if err := s.auditLog.Record(actor, models.DescAccountCreated,
		fmt.Sprintf("Username: %s, Role: %s", username, role), false); err != nil {
		s.logger.Warn("failed to record account creation", logging.Error(err))
	}
	return account, nil
}

// DeleteAccount removes an operator and force-closes any live session.
// The bootstrap account is protected: deletion always fails.
func (s *AuthService) DeleteAccount(ctx context.Context, actor, username string) error {
	account, stored, err := s.findAccount(ctx, username)
	if err != nil {
		return err
	}
	if account.IsBootstrap() {
		return ErrBootstrapProtected
	}

	if err := s.repo.DeleteAccount(ctx, account.ID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	s.sessions.ForceLogout(stored, "Account deleted")

	if err := s.auditLog.Record(actor, models.DescAccountDeleted, "Username: "+stored, false); err != nil {
		s.logger.Warn("failed to record account deletion", logging.Error(err))
	}
	return nil
}

// ChangeRole reassigns an operator between the two runtime roles. The
// bootstrap account's role is immutable.
func (s *AuthService) ChangeRole(ctx context.Context, actor, username string, role models.Role) error {
	if !role.Valid() || role == models.RoleSuperAdmin {
		return ErrInvalidRole
	}

	account, stored, err := s.findAccount(ctx, username)
	if err != nil {
		return err
	}
	if account.IsBootstrap() {
		return ErrBootstrapProtected
	}

	account.Role = role
	if err := s.repo.UpdateAccount(ctx, account); err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if err := s.auditLog.Record(actor, models.DescRoleChanged,
		fmt.Sprintf("Username: %s, Role: %s", stored, role), false); err != nil {
		s.logger.Warn("failed to record role change", logging.Error(err))
	}
	return nil
}

// ReportInvalidInput logs a failed validation attempt and bumps the
// session's invalid-attempt counter.
func (s *AuthService) ReportInvalidInput(username, fieldName, value string) (terminated bool, message string) {
	detail := fmt.Sprintf("Field: %s, Input: %s", fieldName, truncate(value, 50))
	if err := s.auditLog.Record(username, models.DescInvalidInput, detail, false); err != nil {
		s.logger.Warn("failed to record invalid input", logging.Error(err))
	}
	return s.sessions.RegisterInvalidAttempt(username)
}

// ReportSuspiciousInput classifies the value and, when it matches a
// malicious pattern, escalates: the suspicious entry is logged first, the
// session counter moves, and a SecurityViolationError is returned for the
// top-level loop to act on. The current operation must be aborted; the
// process exits rather than recovering.
func (s *AuthService) ReportSuspiciousInput(username, fieldName, value string) error {
	if !audit.DetectSuspiciousInput(value, fieldName) {
		return nil
	}

	description := fmt.Sprintf("Suspicious input detected in %s: %s", fieldName, truncate(value, 50))
	terminated, _ := s.sessions.RegisterSuspiciousActivity(username, description)

	return &SecurityViolationError{
		Username:   username,
		Field:      fieldName,
		Terminated: terminated,
	}
}

// UnreadSuspiciousCount returns how many suspicious alerts the operator
// has not reviewed yet.
func (s *AuthService) UnreadSuspiciousCount(username string) (int, error) {
	return s.alerts.UnreadSuspiciousCount(username)
}

// MarkAlertsSeen records the current suspicious entries as reviewed.
func (s *AuthService) MarkAlertsSeen(username string) error {
	return s.alerts.MarkAllSeen(username)
}

// findAccount is the shared linear scan: decrypt each stored username and
// compare case-insensitively. Returns the account and its cleartext name.
func (s *AuthService) findAccount(ctx context.Context, username string) (*models.Account, string, error) {
	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return nil, "", fmt.Errorf("failed to list accounts: %w", err)
	}
	for _, account := range accounts {
		stored, outcome := s.cipher.Decrypt(account.Username)
		if outcome == crypto.OutcomeFailed {
			continue
		}
		if strings.EqualFold(stored, username) {
			return account, stored, nil
		}
	}
	return nil, "", ErrAccountNotFound
}

func (s *AuthService) setPassword(ctx context.Context, account *models.Account, newPassword string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cfg.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	account.PasswordHash = string(hash)
	account.TempPassword = false

	if err := s.repo.UpdateAccount(ctx, account); err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
