package flatblog

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/natefinch/atomic"
	"gopkg.in/yaml.v3"
)

var (
	slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// PostStore reads and writes posts as Markdown files with YAML frontmatter.
// It is the sole source of truth for post content; one file per slug.
type PostStore struct {
	Dir string
}

// NewPostStore returns a store rooted at dir, creating it if needed.
func NewPostStore(dir string) (*PostStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create content dir: %w", err)
	}
	return &PostStore{Dir: dir}, nil
}

// postFrontmatter is the YAML header of a post file. Field order here is
// the serialization order.
type postFrontmatter struct {
	Slug     string   `yaml:"slug"`
	Title    string   `yaml:"title"`
	Date     string   `yaml:"date"`
	Status   string   `yaml:"status"`
	Category string   `yaml:"category"`
	Tags     []string `yaml:"tags"`
	Summary  string   `yaml:"summary"`
}

// Path returns the Markdown file path for a slug.
func (s *PostStore) Path(slug string) string {
	return filepath.Join(s.Dir, slug+".md")
}

// LoadAll reads every post file, validates each record, and returns posts
// sorted by date descending with slug descending as tie-break. A single
// structurally invalid file fails the whole load with a descriptive error.
func (s *PostStore) LoadAll() ([]Post, error) {
	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read content dir: %w", err)
	}

	var posts []Post
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		post, err := s.readFile(filepath.Join(s.Dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("load post %s: %w", entry.Name(), err)
		}
		posts = append(posts, post)
	}

	SortPosts(posts)
	return posts, nil
}

// SortPosts orders posts by date descending, slug descending on ties.
func SortPosts(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool {
		if posts[i].Date != posts[j].Date {
			return posts[i].Date > posts[j].Date
		}
		return posts[i].Slug > posts[j].Slug
	})
}

func (s *PostStore) readFile(path string) (Post, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Post{}, err
	}

	var fm postFrontmatter
	body, err := frontmatter.Parse(bytes.NewReader(raw), &fm)
	if err != nil {
		return Post{}, fmt.Errorf("parse frontmatter: %w", err)
	}

	post := Post{
		Slug:     fm.Slug,
		Title:    fm.Title,
		Date:     fm.Date,
		Status:   fm.Status,
		Category: fm.Category,
		Tags:     fm.Tags,
		Summary:  fm.Summary,
		Content:  string(body),
	}
	return NormalizePost(post)
}

// NormalizePost trims and validates a post record. Tags are deduplicated
// keeping the first occurrence, status defaults to published, and an empty
// category falls back to DefaultCategory. The returned post is what gets
// persisted; any rule violation returns a ValidationError and nothing is
// written by callers.
func NormalizePost(p Post) (Post, error) {
	p.Slug = strings.TrimSpace(p.Slug)
	p.Title = strings.TrimSpace(p.Title)
	p.Date = strings.TrimSpace(p.Date)
	p.Category = strings.TrimSpace(p.Category)
	p.Summary = strings.TrimSpace(p.Summary)
	p.Content = strings.TrimSpace(strings.ReplaceAll(p.Content, "\r\n", "\n"))
	p.Tags = dedupeTags(p.Tags)

	status := strings.ToLower(strings.TrimSpace(p.Status))
	if status == "" {
		status = StatusPublished
	}
	if status != StatusPublished && status != StatusDraft {
		return Post{}, validationErr("status", "must be published or draft")
	}
	p.Status = status

	if p.Category == "" {
		p.Category = DefaultCategory
	}

	switch {
	case p.Slug == "":
		return Post{}, validationErr("slug", "is required")
	case !slugPattern.MatchString(p.Slug):
		return Post{}, validationErr("slug", "must be kebab-case lowercase")
	case p.Title == "":
		return Post{}, validationErr("title", "is required")
	case !datePattern.MatchString(p.Date):
		return Post{}, validationErr("date", "must be YYYY-MM-DD")
	case p.Summary == "":
		return Post{}, validationErr("summary", "is required")
	case p.Content == "":
		return Post{}, validationErr("content", "is required")
	}

	return p, nil
}

// dedupeTags trims tags, drops empties, and removes duplicates while
// preserving the first occurrence.
func dedupeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// Write validates, normalizes, and atomically persists a post, overwriting
// any existing file for the same slug. Existence and conflict checks are
// the caller's job. Returns the normalized record.
func (s *PostStore) Write(p Post) (Post, error) {
	normalized, err := NormalizePost(p)
	if err != nil {
		return Post{}, err
	}
	data, err := serializePost(normalized)
	if err != nil {
		return Post{}, err
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return Post{}, fmt.Errorf("create content dir: %w", err)
	}
	if err := atomic.WriteFile(s.Path(normalized.Slug), bytes.NewReader(data)); err != nil {
		return Post{}, fmt.Errorf("write post %s: %w", normalized.Slug, err)
	}
	return normalized, nil
}

// Delete removes the post file for slug. Deleting an absent file is not
// an error, so the operation is idempotent.
func (s *PostStore) Delete(slug string) error {
	if err := os.Remove(s.Path(slug)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete post %s: %w", slug, err)
	}
	return nil
}

// FindBySlug returns the post with an exactly matching slug, or nil.
func FindBySlug(posts []Post, slug string) *Post {
	for i := range posts {
		if posts[i].Slug == slug {
			return &posts[i]
		}
	}
	return nil
}

func serializePost(p Post) ([]byte, error) {
	fm := postFrontmatter{
		Slug:     p.Slug,
		Title:    p.Title,
		Date:     p.Date,
		Status:   p.Status,
		Category: p.Category,
		Tags:     p.Tags,
		Summary:  p.Summary,
	}
	header, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("marshal frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(header)
	buf.WriteString("---\n\n")
	buf.WriteString(p.Content)
	buf.WriteString("\n")
	return buf.Bytes(), nil
}
