package main

import (
	"context"

	"github.com/alecthomas/kong"

	"airg/cmd/api/internal/commands"
	"airg/internal/config"
)

var (
	version = "dev"
	cli     struct {
		config.Config `embed:""`

		Version kong.VersionFlag
		Serve   commands.ServeCmd   `cmd:"" default:"1" help:"Start the API server"`
		Migrate commands.MigrateCmd `cmd:"" help:"Create or update the database schema"`
		Seed    commands.SeedCmd    `cmd:"" help:"Create the default organization, admin user and demo project"`
	}
)

func main() {
	config.LoadDotEnv()

	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Description("Research library API: documents, themes and exports."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	cmd.FatalIfErrorf(cli.Config.Validate())
	err := cmd.Run(&commands.Globals{Config: cli.Config, Version: version})
	cmd.FatalIfErrorf(err)
}
