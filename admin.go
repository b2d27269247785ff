package flatblog

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

type loginRequest struct {
	Password string `json:"password"`
}

func (a *App) handleLogin(c echo.Context) error {
	ip := c.RealIP()
	if !a.loginLimiter.Allow(ip) {
		a.Logger.Warn("login rate limit hit", "ip", ip)
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "Too many login attempts. Try again later."})
	}

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	if !passwordsEqual(req.Password, a.Config.AdminPassword) {
		a.Logger.Warn("failed login attempt", "ip", ip)
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid password"})
	}
	if err := setAdminSession(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// passwordsEqual compares hashes so the comparison is constant-time even
// for different-length inputs.
func passwordsEqual(got, want string) bool {
	g := sha256.Sum256([]byte(got))
	w := sha256.Sum256([]byte(want))
	return subtle.ConstantTimeCompare(g[:], w[:]) == 1
}

func (a *App) handleLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (a *App) handleMe(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"authenticated": IsAdmin(c)})
}

// handleAdminListPosts returns metadata for every post, drafts included.
func (a *App) handleAdminListPosts(c echo.Context) error {
	posts, err := a.Cache.Posts()
	if err != nil {
		return writeError(c, err)
	}
	metas := make([]PostMeta, len(posts))
	for i, p := range posts {
		metas[i] = p.Meta()
	}
	return c.JSON(http.StatusOK, map[string]any{"posts": metas})
}

func (a *App) handleAdminGetPost(c echo.Context) error {
	posts, err := a.Cache.Posts()
	if err != nil {
		return writeError(c, err)
	}
	post := FindBySlug(posts, c.Param("slug"))
	if post == nil {
		return writeError(c, ErrPostNotFound)
	}
	return c.JSON(http.StatusOK, post)
}

func (a *App) handleAdminCreatePost(c echo.Context) error {
	var p Post
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	written, build, err := a.Service.CreatePost(p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"post": written, "build": build})
}

func (a *App) handleAdminUpdatePost(c echo.Context) error {
	var p Post
	if err := c.Bind(&p); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	written, build, err := a.Service.UpdatePost(c.Param("slug"), p)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"post": written, "build": build})
}

func (a *App) handleAdminDeletePost(c echo.Context) error {
	slug := c.Param("slug")
	build, err := a.Service.DeletePost(slug)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"deleted": slug, "build": build})
}

// handleAdminListCategories returns every known category with its post
// count, registry-only categories included at zero.
func (a *App) handleAdminListCategories(c echo.Context) error {
	posts, err := a.Cache.Posts()
	if err != nil {
		return writeError(c, err)
	}
	known, err := a.Registry.Ensure(posts)
	if err != nil {
		return writeError(c, err)
	}
	names := make([]string, 0, len(known))
	for name := range known {
		names = append(names, name)
	}
	return c.JSON(http.StatusOK, map[string]any{"categories": CategoryRows(names, posts)})
}

type categoryRequest struct {
	Name       string `json:"name"`
	ReassignTo string `json:"reassignTo"`
}

func (a *App) handleAdminCreateCategory(c echo.Context) error {
	var req categoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	row, err := a.Service.CreateCategory(req.Name)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]any{"category": row})
}

func (a *App) handleAdminDeleteCategory(c echo.Context) error {
	result, err := a.Service.DeleteCategory(c.Param("name"), reassignTarget(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, struct {
		OK bool `json:"ok"`
		CategoryDeleteResult
	}{true, result})
}

// reassignTarget reads the reassignment category from the request body,
// falling back to the reassignTo query parameter.
func reassignTarget(c echo.Context) string {
	var req categoryRequest
	if err := c.Bind(&req); err == nil && strings.TrimSpace(req.ReassignTo) != "" {
		return req.ReassignTo
	}
	return c.QueryParam("reassignTo")
}

func (a *App) handleAdminTaxonomy(c echo.Context) error {
	posts, err := a.Cache.Posts()
	if err != nil {
		return writeError(c, err)
	}
	known, err := a.Registry.Ensure(posts)
	if err != nil {
		return writeError(c, err)
	}
	names := make([]string, 0, len(known))
	for name := range known {
		names = append(names, name)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"categories": CategoryRows(names, posts),
		"tags":       TagRows(posts),
	})
}

func (a *App) handleAdminRebuild(c echo.Context) error {
	build, err := a.Service.Rebuild()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "build": build})
}

func (a *App) handleListTokens(c echo.Context) error {
	tokens, err := a.Tokens.List()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"tokens": tokens})
}

type tokenRequest struct {
	Name string `json:"name"`
}

func (a *App) handleCreateToken(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	plaintext, info, err := a.Tokens.Create(req.Name)
	if err != nil {
		return writeError(c, err)
	}
	// The plaintext token is returned exactly once; only its hash persists.
	return c.JSON(http.StatusCreated, map[string]any{"token": info, "secret": plaintext})
}

func (a *App) handleRevokeToken(c echo.Context) error {
	id := strings.TrimSpace(c.Param("id"))
	info, err := a.Tokens.Revoke(id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "token": info})
}
