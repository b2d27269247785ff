package flatblog

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

// TagBatchResult reports the outcome of a bulk tag operation. Per-post
// failures do not abort the batch; they are collected and the remaining
// posts are still processed.
type TagBatchResult struct {
	From    string   `json:"from,omitempty"`
	To      string   `json:"to,omitempty"`
	Removed string   `json:"removedTag,omitempty"`
	Updated int      `json:"updatedPosts"`
	Failed  int      `json:"failedPosts,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// CategoryDeleteResult reports a category deletion with reassignment.
type CategoryDeleteResult struct {
	Reassigned int    `json:"reassigned"`
	ReassignTo string `json:"reassignTo,omitempty"`
}

// ContentService owns every mutation of the post corpus. All operations
// run under one mutex, so a mutating request completes its whole
// read-modify-write-rebuild sequence before the next one starts; there is
// no finer-grained locking anywhere else.
type ContentService struct {
	mu       sync.Mutex
	Store    *PostStore
	Registry *CategoryRegistry
	Builder  *Builder
	Cache    *PostCache
	Logger   *slog.Logger
}

func (s *ContentService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *ContentService) invalidate() {
	if s.Cache != nil {
		s.Cache.Invalidate()
	}
}

// CreatePost validates, persists, and publishes a new post, rejecting a
// slug that already exists. Nothing is written when validation or the
// conflict check fails.
func (s *ContentService) CreatePost(p Post) (Post, BuildResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalized, err := NormalizePost(p)
	if err != nil {
		return Post{}, BuildResult{}, err
	}
	posts, err := s.Store.LoadAll()
	if err != nil {
		return Post{}, BuildResult{}, err
	}
	if FindBySlug(posts, normalized.Slug) != nil {
		return Post{}, BuildResult{}, ErrSlugExists
	}

	written, err := s.Store.Write(normalized)
	if err != nil {
		return Post{}, BuildResult{}, err
	}
	if _, err := s.Registry.Ensure(nil, written.Category); err != nil {
		return Post{}, BuildResult{}, err
	}
	build, err := s.rebuild()
	if err != nil {
		return Post{}, BuildResult{}, err
	}
	return written, build, nil
}

// UpdatePost replaces the post stored under currentSlug. The payload may
// carry a different slug, which renames the post: the new slug must not
// collide with another post, the old file is deleted, and the old
// generated output is removed before the rebuild.
func (s *ContentService) UpdatePost(currentSlug string, p Post) (Post, BuildResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.Store.LoadAll()
	if err != nil {
		return Post{}, BuildResult{}, err
	}
	if FindBySlug(posts, currentSlug) == nil {
		return Post{}, BuildResult{}, ErrPostNotFound
	}

	if strings.TrimSpace(p.Slug) == "" {
		p.Slug = currentSlug
	}
	normalized, err := NormalizePost(p)
	if err != nil {
		return Post{}, BuildResult{}, err
	}
	if normalized.Slug != currentSlug && FindBySlug(posts, normalized.Slug) != nil {
		return Post{}, BuildResult{}, ErrSlugExists
	}

	written, err := s.Store.Write(normalized)
	if err != nil {
		return Post{}, BuildResult{}, err
	}
	if _, err := s.Registry.Ensure(nil, written.Category); err != nil {
		return Post{}, BuildResult{}, err
	}
	if written.Slug != currentSlug {
		if err := s.Store.Delete(currentSlug); err != nil {
			return Post{}, BuildResult{}, err
		}
		if err := s.Builder.RemovePostOutput(currentSlug); err != nil {
			return Post{}, BuildResult{}, err
		}
	}
	build, err := s.rebuild()
	if err != nil {
		return Post{}, BuildResult{}, err
	}
	return written, build, nil
}

// DeletePost removes a post's source file and generated output.
func (s *ContentService) DeletePost(slug string) (BuildResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	posts, err := s.Store.LoadAll()
	if err != nil {
		return BuildResult{}, err
	}
	if FindBySlug(posts, slug) == nil {
		return BuildResult{}, ErrPostNotFound
	}
	if err := s.Store.Delete(slug); err != nil {
		return BuildResult{}, err
	}
	if err := s.Builder.RemovePostOutput(slug); err != nil {
		return BuildResult{}, err
	}
	return s.rebuild()
}

// CreateCategory registers a new empty category name.
func (s *ContentService) CreateCategory(name string) (NameCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return NameCount{}, validationErr("category name", "is required")
	}
	posts, err := s.Store.LoadAll()
	if err != nil {
		return NameCount{}, err
	}
	categories, err := s.Registry.Ensure(posts)
	if err != nil {
		return NameCount{}, err
	}
	if _, ok := categories[name]; ok {
		return NameCount{}, ErrCategoryExists
	}
	categories[name] = struct{}{}
	if err := s.Registry.Write(categories); err != nil {
		return NameCount{}, err
	}
	return NameCount{Name: name, Count: 0}, nil
}

// DeleteCategory removes a category from the registry after moving its
// member posts to reassignTo (default category when empty). The default
// category itself can never be deleted, and a non-empty category cannot
// be reassigned to itself.
func (s *ContentService) DeleteCategory(target, reassignTo string) (CategoryDeleteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target = strings.TrimSpace(target)
	if target == "" {
		return CategoryDeleteResult{}, validationErr("category name", "is required")
	}
	if target == DefaultCategory {
		return CategoryDeleteResult{}, ErrDefaultCategory
	}
	if reassignTo = strings.TrimSpace(reassignTo); reassignTo == "" {
		reassignTo = DefaultCategory
	}

	posts, err := s.Store.LoadAll()
	if err != nil {
		return CategoryDeleteResult{}, err
	}
	categories, err := s.Registry.Ensure(posts)
	if err != nil {
		return CategoryDeleteResult{}, err
	}
	if _, ok := categories[target]; !ok {
		return CategoryDeleteResult{}, ErrCategoryNotFound
	}

	var members []Post
	for _, p := range posts {
		if p.Category == target {
			members = append(members, p)
		}
	}
	if len(members) > 0 && reassignTo == target {
		return CategoryDeleteResult{}, ErrSelfReassign
	}

	for _, p := range members {
		p.Category = reassignTo
		if _, err := s.Store.Write(p); err != nil {
			return CategoryDeleteResult{}, fmt.Errorf("reassign post %s: %w", p.Slug, err)
		}
	}
	if len(members) > 0 {
		if _, err := s.rebuild(); err != nil {
			return CategoryDeleteResult{}, err
		}
	}

	categories[reassignTo] = struct{}{}
	delete(categories, target)
	if err := s.Registry.Write(categories); err != nil {
		return CategoryDeleteResult{}, err
	}

	result := CategoryDeleteResult{Reassigned: len(members)}
	if len(members) > 0 {
		result.ReassignTo = reassignTo
	}
	s.invalidate()
	return result, nil
}

// RenameTag replaces a tag across every post carrying it. Individual post
// failures are collected and the batch continues; a rebuild runs only
// when at least one post changed.
func (s *ContentService) RenameTag(from, to string) (TagBatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	from, to = strings.TrimSpace(from), strings.TrimSpace(to)
	if from == "" || to == "" {
		return TagBatchResult{}, validationErr("tag name", "is required")
	}
	result := TagBatchResult{From: from, To: to}
	if from == to {
		return result, nil
	}

	posts, err := s.Store.LoadAll()
	if err != nil {
		return TagBatchResult{}, err
	}
	for _, p := range posts {
		if !containsTag(p.Tags, from) {
			continue
		}
		next := make([]string, len(p.Tags))
		for i, tag := range p.Tags {
			if tag == from {
				tag = to
			}
			next[i] = tag
		}
		p.Tags = dedupeTags(next)
		if _, err := s.Store.Write(p); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", p.Slug, err))
			s.logger().Warn("tag rename failed for post", "slug", p.Slug, "error", err)
			continue
		}
		result.Updated++
	}

	if result.Updated > 0 {
		if _, err := s.rebuild(); err != nil {
			return result, err
		}
	}
	return result, nil
}

// DeleteTag drops a tag from every post carrying it, with the same
// partial-batch semantics as RenameTag.
func (s *ContentService) DeleteTag(name string) (TagBatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return TagBatchResult{}, validationErr("tag name", "is required")
	}
	result := TagBatchResult{Removed: name}

	posts, err := s.Store.LoadAll()
	if err != nil {
		return TagBatchResult{}, err
	}
	for _, p := range posts {
		if !containsTag(p.Tags, name) {
			continue
		}
		next := make([]string, 0, len(p.Tags))
		for _, tag := range p.Tags {
			if tag != name {
				next = append(next, tag)
			}
		}
		p.Tags = next
		if _, err := s.Store.Write(p); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", p.Slug, err))
			s.logger().Warn("tag delete failed for post", "slug", p.Slug, "error", err)
			continue
		}
		result.Updated++
	}

	if result.Updated > 0 {
		if _, err := s.rebuild(); err != nil {
			return result, err
		}
	}
	return result, nil
}

// Rebuild runs a full site build on demand.
func (s *ContentService) Rebuild() (BuildResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rebuild()
}

// rebuild runs a build and invalidates the read cache. Callers hold the
// service mutex.
func (s *ContentService) rebuild() (BuildResult, error) {
	result, err := s.Builder.Build()
	if err != nil {
		return BuildResult{}, err
	}
	s.invalidate()
	return result, nil
}

func containsTag(tags []string, name string) bool {
	for _, tag := range tags {
		if tag == name {
			return true
		}
	}
	return false
}
