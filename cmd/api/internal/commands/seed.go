package commands

import (
	"context"

	"airg/internal/db"
	"airg/internal/logger"
	"airg/internal/seed"
)

type SeedCmd struct {
	AdminEmail    string `help:"Email of the seeded admin." default:"admin@example.com" env:"SEED_ADMIN_EMAIL"`
	AdminPassword string `help:"Password of the seeded admin; change it after first login." default:"admin12345" env:"SEED_ADMIN_PASSWORD"`
}

func (s *SeedCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Config.Debug)
	ctx = log.WithContext(ctx)

	gdb, err := connect(ctx, globals.Config)
	if err != nil {
		return err
	}
	defer db.Close(gdb)

	if err := db.Migrate(gdb); err != nil {
		return err
	}
	return seed.FirstSetup(ctx, gdb, seed.Options{
		AdminEmail:    s.AdminEmail,
		AdminPassword: s.AdminPassword,
		BcryptCost:    globals.Config.Auth.BcryptCost,
	})
}
