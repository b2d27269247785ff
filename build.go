package flatblog

import (
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/opflow/flatblog/markdown"
)

const recentPostCount = 10

var (
	// Alias slugs look like sample-post-007; the alias drops leading zeros.
	aliasSourcePattern = regexp.MustCompile(`^sample-post-(\d{3})$`)
	aliasNamePattern   = regexp.MustCompile(`^sample-post-\d+$`)
)

// Builder regenerates the static site from the post store. Every build
// reconciles the output tree against the current published set before
// writing: stale detail directories and all aliases are removed first, so
// a rebuild only ever moves the tree towards consistency. Builds are
// idempotent; running twice with unchanged content produces identical
// bytes.
type Builder struct {
	RootDir  string // output root; posts go under RootDir/posts
	Store    *PostStore
	Renderer *PageRenderer
	Markdown *markdown.Renderer
	Logger   *slog.Logger
}

func (b *Builder) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}

func (b *Builder) postsDir() string {
	return filepath.Join(b.RootDir, "posts")
}

// assetVersion derives the cache-busting token from the modification times
// of the two shared static assets. Recomputed on every build and passed
// explicitly into every render call of that build.
func (b *Builder) assetVersion() (string, error) {
	style, err := os.Stat(filepath.Join(b.RootDir, "assets", "style.css"))
	if err != nil {
		return "", fmt.Errorf("stat stylesheet: %w", err)
	}
	script, err := os.Stat(filepath.Join(b.RootDir, "assets", "main.js"))
	if err != nil {
		return "", fmt.Errorf("stat script: %w", err)
	}
	return fmt.Sprintf("%d-%d", style.ModTime().UnixMilli(), script.ModTime().UnixMilli()), nil
}

// Build runs a full site regeneration and returns the number of published
// posts processed. Any filesystem error aborts the build; there is no
// rollback, the next build's reconciliation pass is the self-healing
// mechanism.
func (b *Builder) Build() (BuildResult, error) {
	version, err := b.assetVersion()
	if err != nil {
		return BuildResult{}, err
	}

	posts, err := b.Store.LoadAll()
	if err != nil {
		return BuildResult{}, err
	}
	published := make([]Post, 0, len(posts))
	for _, p := range posts {
		if p.Status == StatusPublished {
			published = append(published, p)
		}
	}

	if err := b.reconcilePostsDir(published); err != nil {
		return BuildResult{}, err
	}

	for _, post := range published {
		if err := b.writePostPage(post, version); err != nil {
			return BuildResult{}, err
		}
	}

	recent := published
	if len(recent) > recentPostCount {
		recent = recent[:recentPostCount]
	}

	if err := b.writePage(filepath.Join(b.RootDir, "index.html"), b.Renderer.RenderPage(Page{
		Title:         "Home",
		CanonicalPath: "/",
		Depth:         0,
		Active:        "home",
		ContentHTML:   homeContent(recent),
		AssetVersion:  version,
	})); err != nil {
		return BuildResult{}, err
	}

	if err := b.writePage(filepath.Join(b.RootDir, "list", "index.html"), b.Renderer.RenderPage(Page{
		Title:         "List",
		CanonicalPath: "/list/",
		Depth:         1,
		Active:        "list",
		ContentHTML:   "<h1>List</h1><div class=\"post-list\"><ul class=\"m-list\">" + RenderPostList(published, "../posts/") + "</ul></div>",
		AssetVersion:  version,
	})); err != nil {
		return BuildResult{}, err
	}

	if err := b.writePage(filepath.Join(b.RootDir, "categories", "index.html"), b.Renderer.RenderPage(Page{
		Title:         "Categories",
		CanonicalPath: "/categories/",
		Depth:         1,
		Active:        "categories",
		ContentHTML:   groupedContent("Categories", iconCategories, GroupByCategory(published), recent),
		AssetVersion:  version,
	})); err != nil {
		return BuildResult{}, err
	}

	if err := b.writePage(filepath.Join(b.RootDir, "tags", "index.html"), b.Renderer.RenderPage(Page{
		Title:         "Tags",
		CanonicalPath: "/tags/",
		Depth:         1,
		Active:        "tags",
		ContentHTML:   groupedContent("Tags", iconTags, GroupByTag(published), recent),
		AssetVersion:  version,
	})); err != nil {
		return BuildResult{}, err
	}

	if err := b.writeSitemap(published); err != nil {
		return BuildResult{}, err
	}
	if err := b.writeFeed(published); err != nil {
		return BuildResult{}, err
	}

	if err := b.ensureAliases(published); err != nil {
		return BuildResult{}, err
	}

	b.logger().Info("site build complete", "posts", len(published), "assetVersion", version)
	return BuildResult{PostCount: len(published)}, nil
}

// reconcilePostsDir deletes output that no longer corresponds to a
// published post: detail directories for unpublished, deleted, or renamed
// slugs, and every alias symlink regardless of target. Deletion always
// precedes regeneration within a build.
func (b *Builder) reconcilePostsDir(published []Post) error {
	dir := b.postsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create posts dir: %w", err)
	}
	current := make(map[string]struct{}, len(published))
	for _, p := range published {
		current[p.Slug] = struct{}{}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read posts dir: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		full := filepath.Join(dir, name)
		if entry.IsDir() {
			if _, ok := current[name]; !ok && slugPattern.MatchString(name) {
				b.logger().Debug("removing stale post output", "slug", name)
				if err := os.RemoveAll(full); err != nil {
					return fmt.Errorf("remove stale output %s: %w", name, err)
				}
			}
			continue
		}
		if entry.Type()&fs.ModeSymlink != 0 && aliasNamePattern.MatchString(name) {
			if err := os.Remove(full); err != nil {
				return fmt.Errorf("remove alias %s: %w", name, err)
			}
		}
	}
	return nil
}

func (b *Builder) writePostPage(post Post, version string) error {
	body, err := b.Markdown.Render(post.Content)
	if err != nil {
		return fmt.Errorf("render post %s: %w", post.Slug, err)
	}
	content := "\n<h1>" + html.EscapeString(post.Title) + "</h1>\n" +
		"<p>Published: " + html.EscapeString(post.Date) + " | Category: " + html.EscapeString(post.Category) + "</p>\n" +
		"<p>" + html.EscapeString(post.Summary) + "</p>\n" +
		body + "\n"

	doc := b.Renderer.RenderPage(Page{
		Title:         post.Title,
		Description:   post.Summary,
		CanonicalPath: "/posts/" + post.Slug + "/",
		Depth:         2,
		ContentHTML:   content,
		AssetVersion:  version,
	})
	return b.writePage(filepath.Join(b.postsDir(), post.Slug, "index.html"), doc)
}

// ensureAliases recreates symlink aliases for zero-padded numeric slugs.
// Aliases are always rebuilt from scratch (reconcilePostsDir removed all
// of them), never patched, so they cannot drift from the published set.
func (b *Builder) ensureAliases(published []Post) error {
	for _, post := range published {
		alias, ok := aliasFor(post.Slug)
		if !ok {
			continue
		}
		if err := os.Symlink(post.Slug, filepath.Join(b.postsDir(), alias)); err != nil {
			return fmt.Errorf("create alias %s: %w", alias, err)
		}
	}
	return nil
}

// aliasFor returns the short numeric alias for a slug like sample-post-007,
// and false when the slug carries no leading zeros (the alias would equal
// the slug itself).
func aliasFor(slug string) (string, bool) {
	m := aliasSourcePattern.FindStringSubmatch(slug)
	if m == nil {
		return "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	alias := "sample-post-" + strconv.Itoa(n)
	if alias == slug {
		return "", false
	}
	return alias, true
}

// RemovePostOutput deletes the generated detail directory and any alias
// for a single slug, used when a post is deleted or renamed away before
// the follow-up build runs.
func (b *Builder) RemovePostOutput(slug string) error {
	if err := os.RemoveAll(filepath.Join(b.postsDir(), slug)); err != nil {
		return fmt.Errorf("remove output %s: %w", slug, err)
	}
	if alias, ok := aliasFor(slug); ok {
		if err := os.Remove(filepath.Join(b.postsDir(), alias)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove alias %s: %w", alias, err)
		}
	}
	return nil
}

func (b *Builder) writePage(path, html string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create page dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		return fmt.Errorf("write page %s: %w", path, err)
	}
	return nil
}

func homeContent(recent []Post) string {
	var b strings.Builder
	b.WriteString("\n<h1>Home</h1>\n")
	b.WriteString("<p><img src=\"assets/hero.svg\" style=\"aspect-ratio: 426/251; width: 100%;\" alt=\"site cover\" fetchpriority=\"high\"></p>\n")
	b.WriteString("<blockquote>\n  <p>Build, test, refine, and keep shipping with intention.</p>\n</blockquote>\n")
	b.WriteString("<div class=\"post-list\">")
	b.WriteString(listHeader("", iconClock, "Recent posts"))
	b.WriteString("<ul class=\"m-list\">" + RenderPostList(recent, "posts/") + "</ul></div>\n")
	b.WriteString("<p class=\"more\"><a href=\"list/\">View all</a></p>\n")
	return b.String()
}

// groupedContent assembles the categories/tags page body: a link summary,
// the recent list, then one anchored section per bucket.
func groupedContent(title, icon string, buckets []Bucket, recent []Post) string {
	links := make([]string, 0, len(buckets))
	sections := make([]string, 0, len(buckets))
	for _, bucket := range buckets {
		anchor := SlugifyAnchor(bucket.Name)
		links = append(links, "<a href=\"#"+anchor+"\">"+html.EscapeString(bucket.Name)+" ("+strconv.Itoa(len(bucket.Posts))+")</a>")
		sections = append(sections, "<div class=\"post-list\">"+listHeader(anchor, icon, bucket.Name)+
			"<ul class=\"m-list\">"+RenderPostList(bucket.Posts, "../posts/")+"</ul></div>")
	}

	var b strings.Builder
	b.WriteString("\n<h1>" + html.EscapeString(title) + "</h1>\n")
	b.WriteString("<div class=\"tag-list\">" + strings.Join(links, " ") + "</div>\n")
	b.WriteString("<div class=\"post-list\">" + listHeader("recent", iconClock, "Recent posts") +
		"<ul class=\"m-list\">" + RenderPostList(recent, "../posts/") + "</ul></div>\n")
	b.WriteString("<div class=\"category-list\">" + strings.Join(sections, " ") + "</div>\n")
	return b.String()
}
