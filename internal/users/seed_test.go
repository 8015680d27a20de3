package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/leadbox/internal/auth"
)

func TestSeedAdmin_CreatesOnce(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	admin, created, err := SeedAdmin(ctx, repo, " Root ", "Admin@Example.com", "AdminPass123")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "admin@example.com", admin.Email)
	assert.Equal(t, "Root", admin.Name)
	assert.Equal(t, auth.RoleAdmin, admin.Role)
	assert.True(t, auth.VerifyPassword("AdminPass123", admin.PasswordHash))

	again, created, err := SeedAdmin(ctx, repo, "Root", "admin@example.com", "other")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, admin.ID, again.ID)
}

func TestSeedAdmin_RejectsClientEmail(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, &User{Name: "Jane", Email: "jane@example.com", PasswordHash: "x", Role: auth.RoleClient}))

	_, _, err := SeedAdmin(ctx, repo, "Jane", "jane@example.com", "AdminPass123")
	assert.Error(t, err)
}

func TestSeedAdmin_RequiresCredentials(t *testing.T) {
	_, _, err := SeedAdmin(context.Background(), NewInMemoryRepository(), "Root", "", "")
	assert.Error(t, err)
}
