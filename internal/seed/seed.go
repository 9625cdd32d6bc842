package seed

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"airg/internal/models"
	"airg/internal/rbac"
)

type Options struct {
	AdminEmail    string
	AdminPassword string
	BcryptCost    int
}

// FirstSetup ensures a default organization, an admin user owning it and a
// demo project. Running it again changes nothing.
func FirstSetup(ctx context.Context, db *gorm.DB, opts Options) error {
	if opts.AdminEmail == "" || len(opts.AdminPassword) < 8 {
		return errors.New("seed: admin email and a password of at least 8 characters are required")
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// -------------------------
		// 1) Ensure default org
		// -------------------------
		org := models.Organization{Name: "Default Organization", Slug: "default"}
		if err := tx.Where("slug = ?", org.Slug).FirstOrCreate(&org).Error; err != nil {
			return err
		}

		// -------------------------
		// 2) Ensure admin user
		// -------------------------
		passHash, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), opts.BcryptCost)
		if err != nil {
			return err
		}
		admin := models.User{
			Email:        opts.AdminEmail,
			Name:         "Admin User",
			PasswordHash: string(passHash),
			IsActive:     true,
			Role:         models.UserRoleAdmin,
		}
		if err := tx.Where("email = ?", admin.Email).FirstOrCreate(&admin).Error; err != nil {
			return err
		}

		// -------------------------
		// 3) Admin owns the org
		// -------------------------
		membership := models.Membership{
			UserID:         admin.ID,
			OrganizationID: org.ID,
			Role:           rbac.RoleOwner,
			IsActive:       true,
		}
		if err := tx.Where("user_id = ? AND organization_id = ?", admin.ID, org.ID).FirstOrCreate(&membership).Error; err != nil {
			return err
		}

		// -------------------------
		// 4) Demo project
		// -------------------------
		project := models.Project{Name: "Demo Project", OrganizationID: org.ID}
		if err := tx.Where("organization_id = ? AND name = ?", org.ID, project.Name).FirstOrCreate(&project).Error; err != nil {
			return err
		}

		zerolog.Ctx(ctx).Info().
			Str("admin", admin.Email).
			Str("org", org.Slug).
			Str("project", project.ID).
			Msg("seed OK")
		return nil
	})
}
