package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog/log"

	"presensictl/cmd/presensictl/internal/commands"
	"presensictl/internal/logger"
	"presensictl/internal/telemetry"
)

var (
	version = "dev"
	cli     struct {
		Login      commands.LoginCmd      `cmd:"" help:"Authenticate against the presensi server"`
		Logout     commands.LogoutCmd     `cmd:"" help:"Clear the local session"`
		Whoami     commands.WhoamiCmd     `cmd:"" help:"Show the current identity"`
		Avatar     commands.AvatarCmd     `cmd:"" help:"Upload a profile picture"`
		Menu       commands.MenuCmd       `cmd:"" help:"Show the navigation menu for the current role"`
		Unit       commands.UnitCmd       `cmd:"" help:"Manage organizational units"`
		Schedule   commands.ScheduleCmd   `cmd:"" help:"Manage work-hour schedules"`
		Event      commands.EventCmd      `cmd:"" help:"Manage events"`
		Attendance commands.AttendanceCmd `cmd:"" help:"Attendance reports"`

		Config  string           `help:"Path to the config file" type:"path"`
		BaseURL string           `help:"API base URL override" env:"PRESENSI_API_URL"`
		Debug   bool             `help:"Enable debug mode."`
		Version kong.VersionFlag `help:"Print version and exit"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	log.Logger = logger.Setup(cli.Debug)

	shutdown, err := telemetry.Init(ctx, "presensictl", version)
	if err != nil {
		log.Warn().Err(err).Msg("telemetry disabled")
	} else {
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				log.Debug().Err(err).Msg("telemetry shutdown failed")
			}
		}()
	}

	err = cmd.Run(&commands.Globals{
		Debug:   cli.Debug,
		Version: version,
		Config:  cli.Config,
		BaseURL: cli.BaseURL,
	})
	cmd.FatalIfErrorf(err)
}
