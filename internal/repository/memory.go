package repository

import (
	"context"
	"sync"

	"github.com/fleetgrid/console/internal/models"
)

// InMemoryRepository is the development and test backend.
type InMemoryRepository struct {
	accounts map[string]*models.Account
	order    []string
	mu       sync.RWMutex
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		accounts: make(map[string]*models.Account),
	}
}

func (r *InMemoryRepository) CreateAccount(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[account.ID]; exists {
		return ErrAccountExists
	}

	cp := *account
	r.accounts[account.ID] = &cp
	r.order = append(r.order, account.ID)
	return nil
}

func (r *InMemoryRepository) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, exists := r.accounts[id]
	if !exists {
		return nil, ErrAccountNotFound
	}
	cp := *account
	return &cp, nil
}

func (r *InMemoryRepository) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]*models.Account, 0, len(r.order))
	for _, id := range r.order {
		cp := *r.accounts[id]
		accounts = append(accounts, &cp)
	}
	return accounts, nil
}

func (r *InMemoryRepository) UpdateAccount(ctx context.Context, account *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[account.ID]; !exists {
		return ErrAccountNotFound
	}

	cp := *account
	r.accounts[account.ID] = &cp
	return nil
}

func (r *InMemoryRepository) DeleteAccount(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[id]; !exists {
		return ErrAccountNotFound
	}

	delete(r.accounts, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}
