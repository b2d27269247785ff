package flatblog

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// handleAPIListPosts serves the public post listing. Drafts are hidden
// unless the status filter asks for them explicitly; ?q= matches the
// slug, title, summary, category, and tags case-insensitively; full Markdown
// bodies are omitted unless ?includeContent=true.
func (a *App) handleAPIListPosts(c echo.Context) error {
	status := strings.TrimSpace(c.QueryParam("status"))
	if status == "" {
		status = StatusPublished
	}
	if status != StatusPublished && status != StatusDraft && status != "all" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "status must be published, draft, or all"})
	}

	posts, err := a.Cache.Posts()
	if err != nil {
		return writeError(c, err)
	}

	query := strings.ToLower(strings.TrimSpace(c.QueryParam("q")))
	filtered := make([]Post, 0, len(posts))
	for _, p := range posts {
		if status != "all" && p.Status != status {
			continue
		}
		if query != "" && !matchesQuery(p, query) {
			continue
		}
		filtered = append(filtered, p)
	}

	if c.QueryParam("includeContent") == "true" {
		return c.JSON(http.StatusOK, map[string]any{"posts": filtered, "total": len(filtered)})
	}
	metas := make([]PostMeta, len(filtered))
	for i, p := range filtered {
		metas[i] = p.Meta()
	}
	return c.JSON(http.StatusOK, map[string]any{"posts": metas, "total": len(metas)})
}

func matchesQuery(p Post, query string) bool {
	if strings.Contains(p.Slug, query) ||
		strings.Contains(strings.ToLower(p.Title), query) ||
		strings.Contains(strings.ToLower(p.Summary), query) ||
		strings.Contains(strings.ToLower(p.Category), query) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	return false
}

func (a *App) handleAPIGetPost(c echo.Context) error {
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

func (a *App) handleAPICategories(c echo.Context) error {
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

func (a *App) handleAPITags(c echo.Context) error {
	posts, err := a.Cache.Posts()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"tags": TagRows(posts)})
}

// handleAPITaxonomy returns categories and tags in one payload, with
// registry-only categories reported at count zero.
func (a *App) handleAPITaxonomy(c echo.Context) error {
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

func (a *App) handleAPICreatePost(c echo.Context) error {
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

func (a *App) handleAPIUpdatePost(c echo.Context) error {
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

func (a *App) handleAPIDeletePost(c echo.Context) error {
	slug := c.Param("slug")
	build, err := a.Service.DeletePost(slug)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"deleted": slug, "build": build})
}

func (a *App) handleAPICreateCategory(c echo.Context) error {
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

func (a *App) handleAPIDeleteCategory(c echo.Context) error {
	result, err := a.Service.DeleteCategory(c.Param("name"), reassignTarget(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, struct {
		OK bool `json:"ok"`
		CategoryDeleteResult
	}{true, result})
}

type tagRenameRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (a *App) handleAPIRenameTag(c echo.Context) error {
	var req tagRenameRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	result, err := a.Service.RenameTag(req.From, req.To)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (a *App) handleAPIDeleteTag(c echo.Context) error {
	result, err := a.Service.DeleteTag(c.Param("name"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (a *App) handleAPIRebuild(c echo.Context) error {
	build, err := a.Service.Rebuild()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "build": build})
}
