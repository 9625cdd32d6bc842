package rbac

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Checker answers "does this user hold at least this role in this
// organization" against the memberships table.
type Checker struct{ DB *gorm.DB }

// CheckPermission looks up the single active membership for the pair and
// compares its rank with required. A missing or inactive membership is
// simply false. It never writes.
func (c Checker) CheckPermission(ctx context.Context, userID, orgID string, required Role) (bool, error) {
	if !required.Valid() {
		return false, errors.New("required role is not part of the hierarchy")
	}

	var roles []string
	err := c.DB.WithContext(ctx).
		Table("memberships").
		Where("user_id = ? AND organization_id = ? AND is_active = ?", userID, orgID, true).
		Limit(1).
		Pluck("role", &roles).Error
	if err != nil {
		return false, err
	}
	if len(roles) == 0 {
		return false, nil
	}

	role, err := ParseRole(roles[0])
	if err != nil {
		// A corrupt stored role grants nothing.
		return false, nil
	}
	return role.AtLeast(required), nil
}

// RoleIn returns the active role of userID in orgID, or false when there is
// no active membership.
func (c Checker) RoleIn(ctx context.Context, userID, orgID string) (Role, bool, error) {
	var roles []string
	err := c.DB.WithContext(ctx).
		Table("memberships").
		Where("user_id = ? AND organization_id = ? AND is_active = ?", userID, orgID, true).
		Limit(1).
		Pluck("role", &roles).Error
	if err != nil || len(roles) == 0 {
		return "", false, err
	}
	role, err := ParseRole(roles[0])
	if err != nil {
		return "", false, nil
	}
	return role, true, nil
}
