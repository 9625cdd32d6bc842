package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"airg/internal/db/dbtest"
	"airg/internal/models"
	"airg/internal/rbac"
)

func TestFirstSetupIsIdempotent(t *testing.T) {
	gdb := dbtest.New(t)
	ctx := context.Background()
	opts := Options{AdminEmail: "admin@example.com", AdminPassword: "admin12345", BcryptCost: bcrypt.MinCost}

	require.NoError(t, FirstSetup(ctx, gdb, opts))
	require.NoError(t, FirstSetup(ctx, gdb, opts))

	for table, want := range map[string]int64{"users": 1, "organizations": 1, "memberships": 1, "projects": 1} {
		var n int64
		require.NoError(t, gdb.Table(table).Count(&n).Error)
		require.Equal(t, want, n, table)
	}

	var m models.Membership
	require.NoError(t, gdb.Preload("User").First(&m).Error)
	require.Equal(t, rbac.RoleOwner, m.Role)
	require.True(t, m.IsActive)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(m.User.PasswordHash), []byte("admin12345")))
}

func TestFirstSetupRejectsWeakPassword(t *testing.T) {
	gdb := dbtest.New(t)
	err := FirstSetup(context.Background(), gdb, Options{AdminEmail: "admin@example.com", AdminPassword: "short"})
	require.Error(t, err)
}
