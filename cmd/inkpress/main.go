package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"

	"github.com/eringen/inkpress"
)

// version is set at build time via ldflags.
var version = "dev"

const shutdownTimeout = 5 * time.Second

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("inkpress %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServe(args []string) error {
	var (
		configPath string
		addr       string
		staticDir  string
		pretty     bool
	)
	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	flags.StringVarP(&configPath, "config", "c", inkpress.EnvOr("INKPRESS_CONFIG", ""), "path to a YAML config file")
	flags.StringVar(&addr, "addr", "", "listen address (overrides config and ADDR)")
	flags.StringVar(&staticDir, "static", "public", "directory served under /public")
	flags.BoolVar(&pretty, "pretty", false, "human-readable console logs")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	log := newLogger(pretty)

	cfg, err := inkpress.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}

	app := inkpress.New(cfg,
		inkpress.WithLogger(log),
		inkpress.WithStaticDir(staticDir),
	)
	defer app.Close()

	errc := make(chan error, 1)
	go func() {
		errc <- app.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		return err
	case <-quit:
	}

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// newLogger writes JSON to stderr, or console output with --pretty. The
// level comes from LOG_LEVEL and defaults to info.
func newLogger(pretty bool) zerolog.Logger {
	level, err := zerolog.ParseLevel(inkpress.EnvOr("LOG_LEVEL", "info"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	var log zerolog.Logger
	if pretty {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(level).With().Timestamp().Logger()
}

func printUsage() {
	fmt.Println(`inkpress - A server-rendered blog front-end for Prismic, built with Go, Echo, and templ

Usage:
  inkpress <command> [flags]

Commands:
  serve         Start the web server
  version       Print the inkpress version
  help          Show this help message

Serve flags:
  -c, --config  Path to a YAML config file (INKPRESS_CONFIG)
      --addr    Listen address (default ":3000")
      --static  Directory served under /public (default "public")
      --pretty  Human-readable console logs

Environment:
  PRISMIC_ENDPOINT, PRISMIC_ACCESS_TOKEN, SESSION_SECRET, SITE_NAME, SITE_URL,
  PAGE_SIZE, PAGE_CACHE_TTL, PREVIEW_MAX_AGE, REVALIDATE_SECRET, UTTERANCES_REPO,
  COOKIE_SECURE, LOG_LEVEL

Examples:
  inkpress serve --config inkpress.yaml
  PRISMIC_ENDPOINT=https://myblog.cdn.prismic.io SESSION_SECRET=change-me inkpress serve --pretty`)
}
