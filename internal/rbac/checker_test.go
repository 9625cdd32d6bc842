package rbac_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"airg/internal/db/dbtest"
	"airg/internal/models"
	"airg/internal/rbac"
)

func TestCheckerCheckPermission(t *testing.T) {
	gdb := dbtest.New(t)
	ctx := context.Background()

	org := models.Organization{Name: "Lab", Slug: "lab"}
	require.NoError(t, gdb.Create(&org).Error)

	users := map[string]*models.User{}
	for _, name := range []string{"owner", "viewer", "inactive", "outsider"} {
		u := &models.User{Email: name + "@example.com", Name: name, PasswordHash: "x", IsActive: true, Role: models.UserRoleUser}
		require.NoError(t, gdb.Create(u).Error)
		users[name] = u
	}

	require.NoError(t, gdb.Create(&models.Membership{UserID: users["owner"].ID, OrganizationID: org.ID, Role: rbac.RoleOwner, IsActive: true}).Error)
	require.NoError(t, gdb.Create(&models.Membership{UserID: users["viewer"].ID, OrganizationID: org.ID, Role: rbac.RoleViewer, IsActive: true}).Error)
	require.NoError(t, gdb.Create(&models.Membership{UserID: users["inactive"].ID, OrganizationID: org.ID, Role: rbac.RoleAdmin, IsActive: false}).Error)

	chk := rbac.Checker{DB: gdb}

	tests := []struct {
		name     string
		user     string
		required rbac.Role
		want     bool
	}{
		{name: "owner passes admin", user: "owner", required: rbac.RoleAdmin, want: true},
		{name: "owner passes owner", user: "owner", required: rbac.RoleOwner, want: true},
		{name: "viewer passes viewer", user: "viewer", required: rbac.RoleViewer, want: true},
		{name: "viewer fails member", user: "viewer", required: rbac.RoleMember, want: false},
		{name: "inactive membership grants nothing", user: "inactive", required: rbac.RoleViewer, want: false},
		{name: "no membership", user: "outsider", required: rbac.RoleViewer, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := chk.CheckPermission(ctx, users[tt.user].ID, org.ID, tt.required)
			require.NoError(t, err)
			require.Equal(t, tt.want, ok)
		})
	}

	t.Run("invalid required role", func(t *testing.T) {
		_, err := chk.CheckPermission(ctx, users["owner"].ID, org.ID, rbac.Role("root"))
		require.Error(t, err)
	})
}

func TestCheckerRoleIn(t *testing.T) {
	gdb := dbtest.New(t)
	ctx := context.Background()

	org := models.Organization{Name: "Lab", Slug: "lab"}
	require.NoError(t, gdb.Create(&org).Error)
	u := models.User{Email: "m@example.com", Name: "m", PasswordHash: "x", IsActive: true, Role: models.UserRoleUser}
	require.NoError(t, gdb.Create(&u).Error)
	require.NoError(t, gdb.Create(&models.Membership{UserID: u.ID, OrganizationID: org.ID, Role: rbac.RoleMember, IsActive: true}).Error)

	chk := rbac.Checker{DB: gdb}

	role, ok, err := chk.RoleIn(ctx, u.ID, org.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, rbac.RoleMember, role)

	_, ok, err = chk.RoleIn(ctx, u.ID, "missing")
	require.NoError(t, err)
	require.False(t, ok)
}
