// ABOUTME: Subcommands of fitlife-api
// ABOUTME: serve runs the server, seed fills a fresh database, health and hash-password are operator helpers

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/Vladimir-28/FitLife/internal/auth"
	"github.com/Vladimir-28/FitLife/internal/server"
)

// ServeCmd starts the HTTP API.
type ServeCmd struct {
	NoSeed bool `help:"Skip creating the admin account and sample activities." name:"no-seed"`
}

// Run loads config, seeds and serves until interrupted.
func (c *ServeCmd) Run(a *app) error {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, fromFile, err := a.loadConfig()
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	if fromFile {
		fmt.Printf("Config:    %s\n", a.configPath)
	} else {
		fmt.Print("Config:    ")
		yellow.Println("built-in defaults")
	}
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", cfg.Server.HTTPAddr)
	if cfg.Server.GRPCAddr != "" {
		green.Print("    ▶ ")
		fmt.Printf("gRPC:      %s (health)\n", cfg.Server.GRPCAddr)
	}
	green.Print("    ▶ ")
	fmt.Printf("Mail:      %s\n", cfg.Mail.Provider)

	if cfg.Tailscale.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Tailscale: ")
		cyan.Print(cfg.Tailscale.Hostname)
		if cfg.Tailscale.Funnel {
			yellow.Print(" [funnel]")
		}
		if cfg.Tailscale.Ephemeral {
			gray.Print(" (ephemeral)")
		}
		fmt.Println()
	}
	fmt.Println()

	srv, err := server.New(a.ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	if !c.NoSeed {
		if err := srv.Seed(a.ctx); err != nil {
			_ = srv.Shutdown(context.Background())
			return err
		}
	}

	return srv.Run(a.ctx)
}

// SeedCmd fills the database and exits.
type SeedCmd struct{}

// Run creates the admin account and sample activities per the seed config.
func (c *SeedCmd) Run(a *app) error {
	cfg, _, err := a.loadConfig()
	if err != nil {
		return err
	}
	logger := setupLogger(cfg.Logging)

	srv, err := server.New(a.ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	seedErr := srv.Seed(a.ctx)
	closeErr := srv.Shutdown(context.Background())
	if seedErr != nil {
		return seedErr
	}
	if closeErr != nil {
		return closeErr
	}

	color.New(color.FgGreen).Printf("  ✓ Seeded %s\n", cfg.Database.Path)
	return nil
}

// HealthCmd probes a running server.
type HealthCmd struct {
	URL     string        `help:"Base URL of the server. Defaults to the configured http_addr."`
	Ready   bool          `help:"Check /health/ready (database reachable) instead of /health."`
	Timeout time.Duration `help:"Request timeout." default:"5s"`
}

// Run requests the health endpoint and fails unless it answers 200.
func (c *HealthCmd) Run(a *app) error {
	base := c.URL
	if base == "" {
		cfg, _, err := a.loadConfig()
		if err != nil {
			return err
		}
		base = "http://" + cfg.Server.HTTPAddr
	}

	path := "/health"
	if c.Ready {
		path = "/health/ready"
	}

	ctx, cancel := context.WithTimeout(a.ctx, c.Timeout)
	defer cancel()

	body, err := probe(ctx, strings.TrimSuffix(base, "/")+path)
	if err != nil {
		return err
	}
	fmt.Println(body)
	return nil
}

func probe(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unhealthy: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return strings.TrimSpace(string(body)), nil
}

// HashPasswordCmd prints a bcrypt hash, for seeding accounts by hand.
type HashPasswordCmd struct {
	Password string `arg:"" help:"Password to hash."`
	Cost     int    `help:"bcrypt cost (4-31, 0 for the default)." default:"0"`
}

// Run hashes the password.
func (c *HashPasswordCmd) Run(_ *app) error {
	if c.Password == "" {
		return errors.New("password must not be empty")
	}
	hasher, err := auth.NewBcryptHasher(c.Cost)
	if err != nil {
		return err
	}
	hash, err := hasher.Hash(c.Password)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}
