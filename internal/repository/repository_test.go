package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetgrid/console/internal/models"
)

// The same behavioral suite runs against every backend.
func backends(t *testing.T) map[string]Repository {
	t.Helper()

	sqlite, err := NewSQLiteRepository(context.Background(), filepath.Join(t.TempDir(), "console.db"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Repository{
		"memory": NewInMemoryRepository(),
		"sqlite": sqlite,
	}
}

func sampleAccount(id, username string) *models.Account {
	return &models.Account{
		ID:           id,
		Username:     username,
		PasswordHash: "$2a$10$notarealhashbutlongenough",
		Role:         models.RoleServiceEngineer,
		CreatedAt:    time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestCreateAndGetAccount(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			account := sampleAccount("id-1", "ENC:abc")
			require.NoError(t, repo.CreateAccount(ctx, account))

			got, err := repo.GetAccountByID(ctx, "id-1")
			require.NoError(t, err)
			assert.Equal(t, account.Username, got.Username)
			assert.Equal(t, account.PasswordHash, got.PasswordHash)
			assert.Equal(t, models.RoleServiceEngineer, got.Role)
			assert.False(t, got.TempPassword)
			assert.True(t, got.CreatedAt.Equal(account.CreatedAt))
		})
	}
}

func TestGetMissingAccount(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := repo.GetAccountByID(context.Background(), "nope")
			require.ErrorIs(t, err, ErrAccountNotFound)
		})
	}
}

func TestListAccountsPreservesOrder(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i, id := range []string{"id-1", "id-2", "id-3"} {
				a := sampleAccount(id, "ENC:u"+id)
				a.CreatedAt = a.CreatedAt.Add(time.Duration(i) * time.Minute)
				require.NoError(t, repo.CreateAccount(ctx, a))
			}

			accounts, err := repo.ListAccounts(ctx)
			require.NoError(t, err)
			require.Len(t, accounts, 3)
			assert.Equal(t, "id-1", accounts[0].ID)
			assert.Equal(t, "id-3", accounts[2].ID)
		})
	}
}

func TestUpdateAccount(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			account := sampleAccount("id-1", "ENC:abc")
			require.NoError(t, repo.CreateAccount(ctx, account))

			account.PasswordHash = "$2a$10$rotated"
			account.TempPassword = true
			account.Role = models.RoleSystemAdmin
			require.NoError(t, repo.UpdateAccount(ctx, account))

			got, err := repo.GetAccountByID(ctx, "id-1")
			require.NoError(t, err)
			assert.Equal(t, "$2a$10$rotated", got.PasswordHash)
			assert.True(t, got.TempPassword)
			assert.Equal(t, models.RoleSystemAdmin, got.Role)

			err = repo.UpdateAccount(ctx, sampleAccount("missing", "ENC:x"))
			require.ErrorIs(t, err, ErrAccountNotFound)
		})
	}
}

func TestDeleteAccount(t *testing.T) {
	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, repo.CreateAccount(ctx, sampleAccount("id-1", "ENC:abc")))

			require.NoError(t, repo.DeleteAccount(ctx, "id-1"))
			_, err := repo.GetAccountByID(ctx, "id-1")
			require.ErrorIs(t, err, ErrAccountNotFound)

			require.ErrorIs(t, repo.DeleteAccount(ctx, "id-1"), ErrAccountNotFound)
		})
	}
}

func TestMemoryCreateDuplicate(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.CreateAccount(ctx, sampleAccount("id-1", "a")))
	require.ErrorIs(t, repo.CreateAccount(ctx, sampleAccount("id-1", "b")), ErrAccountExists)
}

func TestMemoryReturnsCopies(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.CreateAccount(ctx, sampleAccount("id-1", "original")))

	got, err := repo.GetAccountByID(ctx, "id-1")
	require.NoError(t, err)
	got.Username = "mutated"

	again, err := repo.GetAccountByID(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Username)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.db")
	ctx := context.Background()

	repo, err := NewSQLiteRepository(ctx, path)
	require.NoError(t, err)
	require.NoError(t, repo.CreateAccount(ctx, sampleAccount("id-1", "ENC:abc")))
	require.NoError(t, repo.Close())

	reopened, err := NewSQLiteRepository(ctx, path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetAccountByID(ctx, "id-1")
	require.NoError(t, err)
	assert.Equal(t, "ENC:abc", got.Username)
}
