package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/draftsmith/internal"
	pkgconfig "github.com/starford/draftsmith/pkg/config"
)

var version = "dev"

// loadConfig reads the config file and applies command-line overrides.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if cmd.IsSet("host") {
		cfg.App.HTTP.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.App.HTTP.Port = int(cmd.Int("port"))
	}
	if cmd.IsSet("api-host") {
		cfg.Backend.Host = cmd.String("api-host")
	}
	if cmd.IsSet("api-port") {
		cfg.Backend.Port = int(cmd.Int("api-port"))
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	opts := []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}

	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}

	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx,
		internal.WithConfig(cfg),
		internal.WithVersion(version),
		internal.WithLogOutput(os.Stderr),
	)
}

func render(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	req := internal.RenderRequest{
		Full: cmd.Bool("full"),
		Dark: cmd.Bool("dark"),
	}
	switch {
	case cmd.IsSet("id") && cmd.IsSet("file"):
		return errors.New("use either --id or --file, not both")
	case cmd.IsSet("id"):
		req.ID, req.HasID = int64(cmd.Int("id")), true
	case cmd.IsSet("file"):
		data, err := os.ReadFile(cmd.String("file"))
		if err != nil {
			return fmt.Errorf("read markdown: %w", err)
		}
		req.Markdown = string(data)
	default:
		return errors.New("one of --id or --file is required")
	}

	return internal.Render(ctx, req,
		internal.WithConfig(cfg),
		internal.WithLogOutput(os.Stderr),
		internal.WithOutput(os.Stdout),
	)
}

func main() {
	cmd := &cli.Command{
		Name:    "draftsmith",
		Usage:   "Markdown renderer for Draftsmith notes with transclusion, wikilinks and math",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "HTTP listen host (overrides app.http.host)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "HTTP listen port (overrides app.http.port)",
			},
			&cli.StringFlag{
				Name:    "api-host",
				Usage:   "Notes backend host (overrides backend.host)",
				Sources: cli.EnvVars("DRAFTSMITH_API_HOST"),
			},
			&cli.IntFlag{
				Name:    "api-port",
				Usage:   "Notes backend port (overrides backend.port)",
				Sources: cli.EnvVars("DRAFTSMITH_API_PORT"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the render service",
				Action: serve,
			},
			{
				Name:  "render",
				Usage: "Render a note or Markdown file to stdout",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "id", Usage: "Note id to render"},
					&cli.StringFlag{Name: "file", Aliases: []string{"f"}, Usage: "Markdown file to render"},
					&cli.BoolFlag{Name: "full", Usage: "Emit a standalone HTML page"},
					&cli.BoolFlag{Name: "dark", Usage: "Use the dark theme"},
				},
				Action: render,
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: mcp,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
