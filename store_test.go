package flatblog

import (
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func setupTestStore(t *testing.T) *PostStore {
	t.Helper()
	s, err := NewPostStore(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return s
}

func testPost(slug, date string) Post {
	return Post{
		Slug:     slug,
		Title:    "Title for " + slug,
		Date:     date,
		Status:   StatusPublished,
		Category: "engineering",
		Tags:     []string{"go", "testing"},
		Summary:  "A summary for " + slug,
		Content:  "# Heading\n\nBody text for " + slug + ".",
	}
}

func TestWriteAndLoadRoundTrip(t *testing.T) {
	s := setupTestStore(t)

	want := testPost("round-trip", "2026-01-15")
	if _, err := s.Write(want); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	posts, err := s.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}
	if diff := cmp.Diff(want, posts[0]); diff != "" {
		t.Errorf("post mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteOverwritesExistingSlug(t *testing.T) {
	s := setupTestStore(t)

	p := testPost("overwrite", "2026-01-15")
	if _, err := s.Write(p); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	p.Title = "Updated Title"
	if _, err := s.Write(p); err != nil {
		t.Fatalf("second Write failed: %v", err)
	}

	posts, err := s.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}
	if posts[0].Title != "Updated Title" {
		t.Errorf("Title = %q, want %q", posts[0].Title, "Updated Title")
	}
}

func TestNormalizePostValidation(t *testing.T) {
	base := testPost("valid-slug", "2026-01-15")

	tests := []struct {
		name   string
		mutate func(*Post)
		field  string
	}{
		{"empty slug", func(p *Post) { p.Slug = "  " }, "slug"},
		{"uppercase slug", func(p *Post) { p.Slug = "Bad-Slug" }, "slug"},
		{"trailing hyphen", func(p *Post) { p.Slug = "bad-slug-" }, "slug"},
		{"double hyphen", func(p *Post) { p.Slug = "bad--slug" }, "slug"},
		{"empty title", func(p *Post) { p.Title = "" }, "title"},
		{"bad date", func(p *Post) { p.Date = "15/01/2026" }, "date"},
		{"short date", func(p *Post) { p.Date = "2026-1-5" }, "date"},
		{"bad status", func(p *Post) { p.Status = "archived" }, "status"},
		{"empty summary", func(p *Post) { p.Summary = "" }, "summary"},
		{"empty content", func(p *Post) { p.Content = "\n  \n" }, "content"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base
			p.Tags = append([]string(nil), base.Tags...)
			tt.mutate(&p)
			_, err := NormalizePost(p)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !IsValidation(err) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("error %q does not mention field %q", err, tt.field)
			}
		})
	}
}

func TestNormalizePostDefaults(t *testing.T) {
	p := testPost("defaults", "2026-01-15")
	p.Status = ""
	p.Category = "  "
	p.Tags = []string{" go ", "go", "", "web", "go"}
	p.Content = "line one\r\nline two\r\n"

	got, err := NormalizePost(p)
	if err != nil {
		t.Fatalf("NormalizePost failed: %v", err)
	}
	if got.Status != StatusPublished {
		t.Errorf("Status = %q, want %q", got.Status, StatusPublished)
	}
	if got.Category != DefaultCategory {
		t.Errorf("Category = %q, want %q", got.Category, DefaultCategory)
	}
	if diff := cmp.Diff([]string{"go", "web"}, got.Tags); diff != "" {
		t.Errorf("Tags mismatch (-want +got):\n%s", diff)
	}
	if strings.Contains(got.Content, "\r\n") {
		t.Error("Content still contains CRLF line endings")
	}
}

func TestLoadAllSortsByDateThenSlugDescending(t *testing.T) {
	s := setupTestStore(t)

	for _, p := range []Post{
		testPost("alpha", "2026-01-10"),
		testPost("beta", "2026-03-01"),
		testPost("gamma", "2026-03-01"),
		testPost("delta", "2025-12-31"),
	} {
		if _, err := s.Write(p); err != nil {
			t.Fatalf("Write %s failed: %v", p.Slug, err)
		}
	}

	posts, err := s.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	want := []string{"gamma", "beta", "alpha", "delta"}
	for i, slug := range want {
		if posts[i].Slug != slug {
			t.Errorf("posts[%d].Slug = %q, want %q", i, posts[i].Slug, slug)
		}
	}
}

func TestLoadAllFailsOnInvalidFile(t *testing.T) {
	s := setupTestStore(t)

	if _, err := s.Write(testPost("good", "2026-01-15")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	bad := "---\nslug: bad\ntitle: Bad\ndate: not-a-date\nsummary: s\n---\n\nbody\n"
	if err := os.WriteFile(s.Path("bad"), []byte(bad), 0o644); err != nil {
		t.Fatalf("write bad file: %v", err)
	}

	if _, err := s.LoadAll(); err == nil {
		t.Fatal("expected LoadAll to fail on invalid file")
	} else if !strings.Contains(err.Error(), "bad.md") {
		t.Errorf("error %q does not name the offending file", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s := setupTestStore(t)

	if _, err := s.Write(testPost("short-lived", "2026-01-15")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := s.Delete("short-lived"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete("short-lived"); err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}

	posts, err := s.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("got %d posts, want 0", len(posts))
	}
}

func TestSerializedFileShape(t *testing.T) {
	s := setupTestStore(t)

	if _, err := s.Write(testPost("shape", "2026-01-15")); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	raw, err := os.ReadFile(s.Path("shape"))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	text := string(raw)
	if !strings.HasPrefix(text, "---\nslug: shape\n") {
		t.Errorf("file does not start with frontmatter slug line:\n%s", text)
	}
	if !strings.Contains(text, "---\n\n# Heading") {
		t.Errorf("frontmatter is not separated from body by a blank line:\n%s", text)
	}
	if !strings.HasSuffix(text, "\n") {
		t.Error("file does not end with a newline")
	}
}

func TestFindBySlug(t *testing.T) {
	posts := []Post{testPost("one", "2026-01-01"), testPost("two", "2026-01-02")}
	if got := FindBySlug(posts, "two"); got == nil || got.Slug != "two" {
		t.Errorf("FindBySlug(two) = %v", got)
	}
	if got := FindBySlug(posts, "three"); got != nil {
		t.Errorf("FindBySlug(three) = %v, want nil", got)
	}
}
