package flatblog

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
)

// httpErrorHandler renders API errors as JSON and everything else as plain
// text, keeping echo's default status resolution.
func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	message := "Internal Server Error"
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		code = httpErr.Code
		if msg, ok := httpErr.Message.(string); ok {
			message = msg
		}
	}
	if code >= 500 {
		a.Logger.Error("request failed", "method", c.Request().Method, "path", c.Request().URL.Path, "error", err)
	}
	if isAPIPath(c.Request().URL.Path) {
		_ = c.JSON(code, map[string]string{"error": message})
		return
	}
	_ = c.String(code, message)
}

func isAPIPath(path string) bool {
	return len(path) >= 5 && (path[:5] == "/api/" || (len(path) >= 11 && path[:11] == "/admin/api/"))
}

// writeError maps domain errors onto HTTP statuses for the JSON APIs.
func writeError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	message := "Internal server error"
	switch {
	case IsValidation(err):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, ErrPostNotFound),
		errors.Is(err, ErrCategoryNotFound),
		errors.Is(err, ErrTokenNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, ErrSlugExists),
		errors.Is(err, ErrCategoryExists):
		status, message = http.StatusConflict, err.Error()
	case errors.Is(err, ErrDefaultCategory),
		errors.Is(err, ErrSelfReassign):
		status, message = http.StatusBadRequest, err.Error()
	}
	return c.JSON(status, map[string]string{"error": message})
}

func (a *App) handleHome(c echo.Context) error {
	return a.servePage(c, filepath.Join(a.Config.RootDir, "index.html"))
}

// handleSection serves the generated index page of a top-level section.
func (a *App) handleSection(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return a.servePage(c, filepath.Join(a.Config.RootDir, name, "index.html"))
	}
}

// handlePostPage serves a generated post detail page. The slug parameter is
// validated against the slug and alias shapes before touching the
// filesystem, so a crafted path can never escape the posts directory.
func (a *App) handlePostPage(c echo.Context) error {
	slug := c.Param("slug")
	if !slugPattern.MatchString(slug) && !aliasNamePattern.MatchString(slug) {
		return echo.NewHTTPError(http.StatusNotFound, "Page not found")
	}
	return a.servePage(c, filepath.Join(a.Config.RootDir, "posts", slug, "index.html"))
}

// servePage streams a generated HTML file, following alias symlinks.
func (a *App) servePage(c echo.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return echo.NewHTTPError(http.StatusNotFound, "Page not found")
		}
		return err
	}
	return c.File(path)
}

func (a *App) handleRootFile(name, contentType string) echo.HandlerFunc {
	path := filepath.Join(a.Config.RootDir, name)
	return func(c echo.Context) error {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return echo.NewHTTPError(http.StatusNotFound, "Not found")
			}
			return err
		}
		return c.Blob(http.StatusOK, contentType, data)
	}
}

func (a *App) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
