package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/opflow/flatblog"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	var (
		addr        = pflag.String("addr", flatblog.EnvOr("FLATBLOG_ADDR", ":59051"), "listen address")
		root        = pflag.String("root", flatblog.EnvOr("FLATBLOG_ROOT", "."), "site root directory")
		name        = pflag.String("name", flatblog.EnvOr("FLATBLOG_NAME", ""), "site name")
		baseURL     = pflag.String("url", flatblog.EnvOr("FLATBLOG_URL", ""), "canonical base URL")
		watch       = pflag.Bool("watch", os.Getenv("FLATBLOG_WATCH") == "true", "rebuild on content changes")
		secure      = pflag.Bool("secure-cookies", os.Getenv("FLATBLOG_SECURE_COOKIES") == "true", "set the Secure flag on session cookies")
		cacheTTL    = pflag.Duration("cache-ttl", 5*time.Minute, "post cache TTL for the read API")
		logLevel    = pflag.String("log-level", flatblog.EnvOr("FLATBLOG_LOG_LEVEL", "info"), "log level (debug, info, warn, error)")
		showVersion = pflag.Bool("version", false, "print version and exit")
	)
	pflag.Parse()

	if *showVersion {
		fmt.Printf("flatblog %s\n", version)
		return
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(*logLevel),
	}))
	slog.SetDefault(logger)

	app := flatblog.New(flatblog.SiteConfig{
		Name:          *name,
		URL:           *baseURL,
		Addr:          *addr,
		RootDir:       *root,
		AdminPassword: flatblog.MustEnv("FLATBLOG_ADMIN_PASSWORD"),
		SessionSecret: flatblog.MustEnv("FLATBLOG_SESSION_SECRET"),
		CookieSecure:  *secure,
		PostCacheTTL:  *cacheTTL,
		WatchContent:  *watch,
	})
	defer app.Close()

	if err := app.Start(); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
