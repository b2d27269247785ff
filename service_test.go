package flatblog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func setupTestService(t *testing.T) (*ContentService, string) {
	t.Helper()
	b, store, root := setupTestBuilder(t)
	svc := &ContentService{
		Store:    store,
		Registry: NewCategoryRegistry(filepath.Join(root, "content", "categories.json")),
		Builder:  b,
		Cache:    NewPostCache(store, time.Minute),
	}
	return svc, root
}

func TestCreatePostWritesSourceAndOutput(t *testing.T) {
	svc, root := setupTestService(t)

	written, build, err := svc.CreatePost(testPost("fresh", "2026-03-01"))
	if err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if written.Slug != "fresh" {
		t.Errorf("Slug = %q", written.Slug)
	}
	if build.PostCount != 1 {
		t.Errorf("PostCount = %d, want 1", build.PostCount)
	}
	if _, err := os.Stat(svc.Store.Path("fresh")); err != nil {
		t.Errorf("source file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "posts", "fresh", "index.html")); err != nil {
		t.Errorf("generated page missing: %v", err)
	}

	// The post's category lands in the registry.
	set, _, err := svc.Registry.Read()
	if err != nil {
		t.Fatalf("registry read failed: %v", err)
	}
	if _, ok := set["engineering"]; !ok {
		t.Errorf("category not registered: %v", set)
	}
}

func TestCreatePostRejectsDuplicateSlug(t *testing.T) {
	svc, _ := setupTestService(t)

	if _, _, err := svc.CreatePost(testPost("taken", "2026-03-01")); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	_, _, err := svc.CreatePost(testPost("taken", "2026-03-02"))
	if !errors.Is(err, ErrSlugExists) {
		t.Errorf("err = %v, want ErrSlugExists", err)
	}
}

func TestCreatePostRejectsInvalidWithoutWriting(t *testing.T) {
	svc, _ := setupTestService(t)

	bad := testPost("Bad Slug", "2026-03-01")
	if _, _, err := svc.CreatePost(bad); !IsValidation(err) {
		t.Fatalf("err = %v, want validation error", err)
	}
	posts, err := svc.Store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("invalid post was persisted: %v", posts)
	}
}

func TestUpdatePostInPlace(t *testing.T) {
	svc, _ := setupTestService(t)

	if _, _, err := svc.CreatePost(testPost("stable", "2026-03-01")); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	update := testPost("stable", "2026-03-01")
	update.Title = "Renamed Title"
	written, _, err := svc.UpdatePost("stable", update)
	if err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}
	if written.Title != "Renamed Title" {
		t.Errorf("Title = %q", written.Title)
	}
}

func TestUpdatePostRename(t *testing.T) {
	svc, root := setupTestService(t)

	if _, _, err := svc.CreatePost(testPost("old-name", "2026-03-01")); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	update := testPost("new-name", "2026-03-01")
	written, _, err := svc.UpdatePost("old-name", update)
	if err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}
	if written.Slug != "new-name" {
		t.Errorf("Slug = %q", written.Slug)
	}

	if _, err := os.Stat(svc.Store.Path("old-name")); !os.IsNotExist(err) {
		t.Error("old source file still present")
	}
	if _, err := os.Stat(filepath.Join(root, "posts", "old-name")); !os.IsNotExist(err) {
		t.Error("old generated output still present")
	}
	page, err := os.ReadFile(filepath.Join(root, "posts", "new-name", "index.html"))
	if err != nil {
		t.Fatalf("new generated output missing: %v", err)
	}
	if !strings.Contains(string(page), "/posts/new-name/") {
		t.Error("canonical link not updated for renamed slug")
	}
}

func TestUpdatePostRenameCollision(t *testing.T) {
	svc, _ := setupTestService(t)

	for _, slug := range []string{"one", "two"} {
		if _, _, err := svc.CreatePost(testPost(slug, "2026-03-01")); err != nil {
			t.Fatalf("CreatePost %s failed: %v", slug, err)
		}
	}
	update := testPost("two", "2026-03-01")
	if _, _, err := svc.UpdatePost("one", update); !errors.Is(err, ErrSlugExists) {
		t.Errorf("err = %v, want ErrSlugExists", err)
	}
}

func TestUpdatePostMissing(t *testing.T) {
	svc, _ := setupTestService(t)
	if _, _, err := svc.UpdatePost("ghost", testPost("ghost", "2026-03-01")); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("err = %v, want ErrPostNotFound", err)
	}
}

func TestDeletePost(t *testing.T) {
	svc, root := setupTestService(t)

	if _, _, err := svc.CreatePost(testPost("doomed", "2026-03-01")); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	build, err := svc.DeletePost("doomed")
	if err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if build.PostCount != 0 {
		t.Errorf("PostCount = %d, want 0", build.PostCount)
	}
	if _, err := os.Stat(filepath.Join(root, "posts", "doomed")); !os.IsNotExist(err) {
		t.Error("generated output still present")
	}

	if _, err := svc.DeletePost("doomed"); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("second delete err = %v, want ErrPostNotFound", err)
	}
}

func TestCreateCategory(t *testing.T) {
	svc, _ := setupTestService(t)

	row, err := svc.CreateCategory("field-notes")
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if row.Name != "field-notes" || row.Count != 0 {
		t.Errorf("row = %+v", row)
	}
	if _, err := svc.CreateCategory("field-notes"); !errors.Is(err, ErrCategoryExists) {
		t.Errorf("err = %v, want ErrCategoryExists", err)
	}
}

func TestDeleteCategoryReassignsMembers(t *testing.T) {
	svc, _ := setupTestService(t)

	p := testPost("member", "2026-03-01")
	p.Category = "closing-down"
	if _, _, err := svc.CreatePost(p); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	result, err := svc.DeleteCategory("closing-down", "archive")
	if err != nil {
		t.Fatalf("DeleteCategory failed: %v", err)
	}
	if result.Reassigned != 1 || result.ReassignTo != "archive" {
		t.Errorf("result = %+v", result)
	}

	posts, err := svc.Store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if posts[0].Category != "archive" {
		t.Errorf("Category = %q, want archive", posts[0].Category)
	}

	set, _, err := svc.Registry.Read()
	if err != nil {
		t.Fatalf("registry read failed: %v", err)
	}
	if _, ok := set["closing-down"]; ok {
		t.Error("deleted category still registered")
	}
	if _, ok := set["archive"]; !ok {
		t.Error("reassignment target not registered")
	}
}

func TestDeleteCategoryGuards(t *testing.T) {
	svc, _ := setupTestService(t)

	if _, err := svc.DeleteCategory(DefaultCategory, ""); !errors.Is(err, ErrDefaultCategory) {
		t.Errorf("default: err = %v, want ErrDefaultCategory", err)
	}
	if _, err := svc.DeleteCategory("never-existed", ""); !errors.Is(err, ErrCategoryNotFound) {
		t.Errorf("missing: err = %v, want ErrCategoryNotFound", err)
	}

	p := testPost("anchor", "2026-03-01")
	p.Category = "self-target"
	if _, _, err := svc.CreatePost(p); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	if _, err := svc.DeleteCategory("self-target", "self-target"); !errors.Is(err, ErrSelfReassign) {
		t.Errorf("self: err = %v, want ErrSelfReassign", err)
	}
}

func TestDeleteEmptyCategoryNeedsNoRebuild(t *testing.T) {
	svc, _ := setupTestService(t)

	if _, err := svc.CreateCategory("empty-one"); err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	result, err := svc.DeleteCategory("empty-one", "")
	if err != nil {
		t.Fatalf("DeleteCategory failed: %v", err)
	}
	if result.Reassigned != 0 || result.ReassignTo != "" {
		t.Errorf("result = %+v", result)
	}
}

func TestRenameTag(t *testing.T) {
	svc, _ := setupTestService(t)

	a := testPost("tag-a", "2026-03-01")
	a.Tags = []string{"golang", "web"}
	b := testPost("tag-b", "2026-03-02")
	b.Tags = []string{"cli"}
	for _, p := range []Post{a, b} {
		if _, _, err := svc.CreatePost(p); err != nil {
			t.Fatalf("CreatePost failed: %v", err)
		}
	}

	result, err := svc.RenameTag("golang", "go")
	if err != nil {
		t.Fatalf("RenameTag failed: %v", err)
	}
	if result.Updated != 1 || result.Failed != 0 {
		t.Errorf("result = %+v", result)
	}

	posts, err := svc.Store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	got := FindBySlug(posts, "tag-a")
	if !containsTag(got.Tags, "go") || containsTag(got.Tags, "golang") {
		t.Errorf("Tags = %v", got.Tags)
	}
	untouched := FindBySlug(posts, "tag-b")
	if !containsTag(untouched.Tags, "cli") {
		t.Errorf("unrelated post changed: %v", untouched.Tags)
	}
}

func TestRenameTagMergesDuplicates(t *testing.T) {
	svc, _ := setupTestService(t)

	p := testPost("dup-tags", "2026-03-01")
	p.Tags = []string{"golang", "go"}
	if _, _, err := svc.CreatePost(p); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	if _, err := svc.RenameTag("golang", "go"); err != nil {
		t.Fatalf("RenameTag failed: %v", err)
	}
	posts, err := svc.Store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if tags := posts[0].Tags; len(tags) != 1 || tags[0] != "go" {
		t.Errorf("Tags = %v, want [go]", tags)
	}
}

func TestRenameTagNoOpWhenEqual(t *testing.T) {
	svc, _ := setupTestService(t)
	result, err := svc.RenameTag("same", "same")
	if err != nil {
		t.Fatalf("RenameTag failed: %v", err)
	}
	if result.Updated != 0 {
		t.Errorf("Updated = %d, want 0", result.Updated)
	}
}

func TestDeleteTag(t *testing.T) {
	svc, _ := setupTestService(t)

	p := testPost("strip-tag", "2026-03-01")
	p.Tags = []string{"keep", "drop"}
	if _, _, err := svc.CreatePost(p); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}

	result, err := svc.DeleteTag("drop")
	if err != nil {
		t.Fatalf("DeleteTag failed: %v", err)
	}
	if result.Updated != 1 {
		t.Errorf("Updated = %d, want 1", result.Updated)
	}
	posts, err := svc.Store.LoadAll()
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}
	if tags := posts[0].Tags; len(tags) != 1 || tags[0] != "keep" {
		t.Errorf("Tags = %v, want [keep]", tags)
	}
}

func TestRebuildInvalidatesCache(t *testing.T) {
	svc, _ := setupTestService(t)

	if _, _, err := svc.CreatePost(testPost("cached", "2026-03-01")); err != nil {
		t.Fatalf("CreatePost failed: %v", err)
	}
	posts, err := svc.Cache.Posts()
	if err != nil {
		t.Fatalf("cache Posts failed: %v", err)
	}
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}

	if _, err := svc.DeletePost("cached"); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	posts, err = svc.Cache.Posts()
	if err != nil {
		t.Fatalf("cache Posts failed: %v", err)
	}
	if len(posts) != 0 {
		t.Errorf("cache served stale posts: %v", posts)
	}
}
