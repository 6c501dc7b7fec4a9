// Command connect-four-arena starts the Connect Four game server.
//
// It supports two modes:
//  1. "serve" (default) runs the HTTP server exposing the REST API, the
//     WebSocket game channel, Prometheus metrics and an /mcp HTTP endpoint
//  2. "mcp" runs an MCP stdio server against a running API, or against an
//     internal one when none answers
//
// Flags and environment variables control the listener, Redis stats
// persistence, debug logging and optional ngrok tunneling.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/connect-four-arena/game/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Connect Four Arena"
)

const defaultAPIURL = "http://localhost:8080"

func main() {
	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:    "connect-four-arena",
		Usage:   "Connect Four server with matchmaking, a bot opponent and persisted stats",
		Version: Version,
		Flags:   settingsFlags(),
		Action:  runServe,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP server with API, WebSocket, metrics and MCP endpoint",
				Action: runServe,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "ngrok",
						Usage:   "Expose the server through an ngrok tunnel",
						Sources: cli.EnvVars("NGROK_ENABLED"),
					},
					&cli.StringFlag{
						Name:    "ngrok-auth",
						Usage:   "ngrok auth token",
						Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
					},
					&cli.StringFlag{
						Name:    "ngrok-domain",
						Usage:   "Custom ngrok domain",
						Sources: cli.EnvVars("NGROK_DOMAIN"),
					},
				},
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run an MCP stdio server proxying to the REST API",
				Action:  runMCP,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "api-url",
						Usage:   "REST API to proxy; an internal server starts when it does not answer",
						Value:   defaultAPIURL,
						Sources: cli.EnvVars("MCP_API_URL"),
					},
				},
			},
			{
				Name:  "version",
				Usage: "Show version information",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					_, err := fmt.Fprintf(cmd.Root().Writer, "%s v%s\n", AppName, Version)
					return err
				},
			},
		},
	}
}

// settingsFlags override values from the settings file. Unset flags keep the
// file or default value.
func settingsFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Settings file (JSON)",
			Sources: cli.EnvVars("CONFIG_FILE"),
		},
		&cli.StringFlag{
			Name:    "host",
			Usage:   "HTTP server host (default 0.0.0.0)",
			Sources: cli.EnvVars("HOST"),
		},
		&cli.IntFlag{
			Name:    "port",
			Usage:   "HTTP server port (default 8080)",
			Sources: cli.EnvVars("PORT"),
		},
		&cli.StringFlag{
			Name:    "redis-addr",
			Usage:   "Redis address for stats; empty disables persistence",
			Sources: cli.EnvVars("REDIS_ADDR"),
		},
		&cli.StringFlag{
			Name:    "redis-password",
			Usage:   "Redis password",
			Sources: cli.EnvVars("REDIS_PASSWORD"),
		},
		&cli.IntFlag{
			Name:    "redis-db",
			Usage:   "Redis database number",
			Sources: cli.EnvVars("REDIS_DB"),
		},
		&cli.BoolFlag{
			Name:    "debug",
			Usage:   "Enable debug logging",
			Sources: cli.EnvVars("DEBUG"),
		},
	}
}

// loadSettings reads the settings file, if any, and applies flag overrides
func loadSettings(cmd *cli.Command) (*config.Settings, error) {
	settings := config.Defaults()
	if path := cmd.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		settings = loaded
	}

	if host := cmd.String("host"); host != "" {
		settings.Host = host
	}
	if port := cmd.Int("port"); port != 0 {
		settings.Port = port
	}
	if addr := cmd.String("redis-addr"); addr != "" {
		settings.RedisAddr = addr
	}
	if password := cmd.String("redis-password"); password != "" {
		settings.RedisPassword = password
	}
	if db := cmd.Int("redis-db"); db != 0 {
		settings.RedisDB = db
	}
	if cmd.Bool("debug") {
		settings.Debug = true
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// setup loads settings and builds the logger shared by both modes
func setup(cmd *cli.Command) (*config.Settings, *zap.Logger, error) {
	settings, err := loadSettings(cmd)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to load settings")
	}

	logger, err := newLogger(settings.Debug)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create logger")
	}
	return settings, logger, nil
}
