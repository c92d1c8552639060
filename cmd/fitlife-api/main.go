// ABOUTME: Entry point for fitlife-api, the FitLife fitness tracking backend
// ABOUTME: Parses the command line with kong and dispatches to serve, seed, health and hash-password

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/Vladimir-28/FitLife/internal/config"
)

// Version is set at build time.
var version = "dev"

const banner = `
  __ _ _   _ _  __
 / _(_) |_| (_)/ _| ___
| |_| | __| | | |_ / _ \
|  _| | |_| | |  _|  __/
|_| |_|\__|_|_|_|  \___|
`

var cli struct {
	Version kong.VersionFlag `help:"Print version and exit."`
	Config  string           `help:"Config file (YAML or TOML). Defaults to $FITLIFE_CONFIG or ~/.config/fitlife/config.yaml." type:"path"`

	Serve        ServeCmd        `cmd:"" help:"Start the API server." default:"1"`
	Seed         SeedCmd         `cmd:"" help:"Create the admin account and sample activities, then exit."`
	Health       HealthCmd       `cmd:"" help:"Check a running server."`
	HashPassword HashPasswordCmd `cmd:"" name:"hash-password" help:"Print the bcrypt hash of a password."`
}

// app is bound into every command's Run method.
type app struct {
	ctx        context.Context
	configPath string
}

// loadConfig reads the config file, falling back to defaults when it does not exist.
func (a *app) loadConfig() (*config.Config, bool, error) {
	cfg, fromFile, err := config.LoadOrDefault(a.configPath)
	if err != nil {
		return nil, false, fmt.Errorf("loading config: %w", err)
	}
	return cfg, fromFile, nil
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("fitlife-api"),
		kong.Description("FitLife activity tracking and account API"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Vars{"version": version},
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	configPath := cli.Config
	if configPath == "" {
		configPath = config.DefaultPath()
	}

	if err := kctx.Run(&app{ctx: ctx, configPath: configPath}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}
