// Package repository is the credential store behind the authenticator.
// Usernames are stored cipher-encrypted, so none of the backends offer an
// indexed lookup by username: callers fetch all accounts and scan with
// decrypt-then-compare.
package repository

import (
	"context"
	"errors"

	"github.com/fleetgrid/console/internal/models"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountExists   = errors.New("account already exists")
)

type Repository interface {
	CreateAccount(ctx context.Context, account *models.Account) error
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)
	ListAccounts(ctx context.Context) ([]*models.Account, error)
	UpdateAccount(ctx context.Context, account *models.Account) error
	DeleteAccount(ctx context.Context, id string) error
}
