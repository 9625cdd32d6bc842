package commands

import (
	"context"

	"airg/internal/db"
	"airg/internal/logger"
)

type MigrateCmd struct{}

func (m *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
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
	log.Info().Str("driver", globals.Config.DB.Driver).Msg("schema up to date")
	return nil
}
