package flatblog

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/opflow/flatblog/markdown"
)

// App is the assembled blog engine: flat-file store, static-site builder,
// admin JSON API, and public read API behind one Echo server.
type App struct {
	Config   SiteConfig
	Echo     *echo.Echo
	Store    *PostStore
	Registry *CategoryRegistry
	Tokens   *TokenStore
	Cache    *PostCache
	Service  *ContentService
	Builder  *Builder
	Logger   *slog.Logger

	loginLimiter *LoginLimiter
	customRoutes []func(*App)
	watcher      *ContentWatcher
}

// New creates an App from the given config. Call Start to build the site
// and serve it.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()
	a := &App{
		Config: cfg,
		Echo:   echo.New(),
		Logger: slog.Default(),
	}
	a.Echo.HideBanner = true
	a.Echo.HidePort = true
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Start wires up the pipeline, runs an initial build, and serves HTTP on
// the configured address. It blocks until the server stops.
func (a *App) Start() error {
	cfg := a.Config
	if cfg.AdminPassword == "" {
		return errors.New("flatblog: AdminPassword is required")
	}
	if cfg.SessionSecret == "" {
		return errors.New("flatblog: SessionSecret is required")
	}

	store, err := NewPostStore(cfg.ContentPostsDir())
	if err != nil {
		return err
	}
	a.Store = store
	a.Registry = &CategoryRegistry{Path: cfg.CategoryRegistryPath()}
	a.Tokens = NewTokenStore(cfg.TokenStorePath())
	a.Cache = NewPostCache(a.Store, cfg.PostCacheTTL)
	a.Builder = &Builder{
		RootDir: cfg.RootDir,
		Store:   a.Store,
		Renderer: &PageRenderer{
			SiteName: cfg.Name,
			Slogan:   cfg.Slogan,
			BaseURL:  cfg.URL,
		},
		Markdown: markdown.New(),
		Logger:   a.Logger,
	}
	a.Service = &ContentService{
		Store:    a.Store,
		Registry: a.Registry,
		Builder:  a.Builder,
		Cache:    a.Cache,
		Logger:   a.Logger,
	}
	a.loginLimiter = NewLoginLimiter(5, 15*time.Minute)

	posts, err := a.Store.LoadAll()
	if err != nil {
		return fmt.Errorf("load content: %w", err)
	}
	if _, err := a.Registry.Ensure(posts); err != nil {
		return fmt.Errorf("sync category registry: %w", err)
	}
	result, err := a.Builder.Build()
	if err != nil {
		return fmt.Errorf("initial build: %w", err)
	}
	a.Logger.Info("initial build complete", "posts", result.PostCount)

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}

	if cfg.WatchContent {
		w, err := NewContentWatcher(a.Service, a.Logger, cfg.ContentPostsDir(), cfg.AssetsDir())
		if err != nil {
			return fmt.Errorf("start content watcher: %w", err)
		}
		a.watcher = w
	}

	a.Logger.Info("server listening", "addr", cfg.Addr, "site", cfg.Name)
	if err := a.Echo.Start(cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases background resources. Safe to call once after Start returns.
func (a *App) Close() error {
	if a.watcher != nil {
		return a.watcher.Close()
	}
	return nil
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Generated pages and shared assets.
	e.GET("/", a.handleHome)
	e.GET("/list/", a.handleSection("list"))
	e.GET("/categories/", a.handleSection("categories"))
	e.GET("/tags/", a.handleSection("tags"))
	e.GET("/posts/:slug/", a.handlePostPage)
	e.GET("/sitemap.xml", a.handleRootFile("sitemap.xml", "application/xml"))
	e.GET("/feed.xml", a.handleRootFile("feed.xml", "application/rss+xml"))
	e.GET("/favicon.ico", func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	e.Static("/assets", a.Config.AssetsDir())
	e.Static("/content/posts", a.Config.ContentPostsDir())

	// Admin JSON API, session-guarded except login.
	admin := e.Group("/admin/api")
	admin.POST("/login", a.handleLogin)
	admin.POST("/logout", a.handleLogout)
	admin.GET("/me", a.handleMe)
	admin.GET("/posts", a.handleAdminListPosts, requireAdmin)
	admin.GET("/posts/:slug", a.handleAdminGetPost, requireAdmin)
	admin.POST("/posts", a.handleAdminCreatePost, requireAdmin)
	admin.PUT("/posts/:slug", a.handleAdminUpdatePost, requireAdmin)
	admin.DELETE("/posts/:slug", a.handleAdminDeletePost, requireAdmin)
	admin.GET("/categories", a.handleAdminListCategories, requireAdmin)
	admin.POST("/categories", a.handleAdminCreateCategory, requireAdmin)
	admin.DELETE("/categories/:name", a.handleAdminDeleteCategory, requireAdmin)
	admin.GET("/taxonomy", a.handleAdminTaxonomy, requireAdmin)
	admin.POST("/rebuild", a.handleAdminRebuild, requireAdmin)
	admin.GET("/agent-tokens", a.handleListTokens, requireAdmin)
	admin.POST("/agent-tokens", a.handleCreateToken, requireAdmin)
	admin.DELETE("/agent-tokens/:id", a.handleRevokeToken, requireAdmin)
	admin.POST("/upload-image", a.handleImageUpload, requireAdmin)

	// Public API. Reads are open, writes need an API token.
	api := e.Group("/api/v1")
	api.GET("/health", a.handleHealth)
	api.GET("/posts", a.handleAPIListPosts)
	api.GET("/posts/:slug", a.handleAPIGetPost)
	api.GET("/categories", a.handleAPICategories)
	api.GET("/tags", a.handleAPITags)
	api.GET("/taxonomy", a.handleAPITaxonomy)
	api.POST("/posts", a.handleAPICreatePost, a.requireToken)
	api.PUT("/posts/:slug", a.handleAPIUpdatePost, a.requireToken)
	api.DELETE("/posts/:slug", a.handleAPIDeletePost, a.requireToken)
	api.POST("/categories", a.handleAPICreateCategory, a.requireToken)
	api.DELETE("/categories/:name", a.handleAPIDeleteCategory, a.requireToken)
	api.POST("/tags/rename", a.handleAPIRenameTag, a.requireToken)
	api.DELETE("/tags/:name", a.handleAPIDeleteTag, a.requireToken)
	api.POST("/rebuild", a.handleAPIRebuild, a.requireToken)
}
