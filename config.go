package flatblog

import (
	"log"
	"os"
	"path/filepath"
	"time"
)

// SiteConfig holds all configuration for a flatblog site.
type SiteConfig struct {
	Name   string // Site name (default "Opflow Space")
	Slogan string // Tagline rendered in the page header
	URL    string // Canonical URL prefix, no trailing slash

	Addr    string // Listen address (default ":59051")
	RootDir string // Site root: generated output, assets, content (default ".")

	AdminPassword string // Required: admin login password
	SessionSecret string // Required: session encryption secret
	CookieSecure  bool   // Set true for HTTPS

	PostCacheTTL time.Duration // Read-API post cache TTL (default 5min)
	WatchContent bool          // Rebuild when content or assets change on disk
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Opflow Space"
	}
	if c.Slogan == "" {
		c.Slogan = "Build, reflect, and iterate with clarity."
	}
	if c.URL == "" {
		c.URL = "http://localhost:59051"
	}
	if c.Addr == "" {
		c.Addr = ":59051"
	}
	if c.RootDir == "" {
		c.RootDir = "."
	}
	if c.PostCacheTTL == 0 {
		c.PostCacheTTL = 5 * time.Minute
	}
}

// ContentPostsDir is where the Markdown source files live.
func (c SiteConfig) ContentPostsDir() string {
	return filepath.Join(c.RootDir, "content", "posts")
}

// CategoryRegistryPath is the persisted set of known category names.
func (c SiteConfig) CategoryRegistryPath() string {
	return filepath.Join(c.RootDir, "content", "categories.json")
}

// TokenStorePath is the persisted API token store.
func (c SiteConfig) TokenStorePath() string {
	return filepath.Join(c.RootDir, "content", "api-tokens.json")
}

// AssetsDir holds the shared static assets (stylesheet, script, uploads).
func (c SiteConfig) AssetsDir() string {
	return filepath.Join(c.RootDir, "assets")
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App before the server starts.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// MustEnv returns the value of the environment variable key, or fatally exits if empty.
func MustEnv(key string) string {
	v := os.Getenv(key)
	if v == "" {
		log.Fatalf("flatblog: required environment variable %s is not set", key)
	}
	return v
}
