package flatblog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/natefinch/atomic"
)

// CategoryRegistry persists the set of known category names as JSON, so
// categories can exist with zero posts. The default category is always a
// member. The registry is derived-plus-declared state: every category used
// by a post is folded in on Ensure.
type CategoryRegistry struct {
	Path string
}

type registryFile struct {
	Categories []string `json:"categories"`
}

// NewCategoryRegistry returns a registry stored at path.
func NewCategoryRegistry(path string) *CategoryRegistry {
	return &CategoryRegistry{Path: path}
}

// Read loads the registry. A missing file is not an error: exists is false
// and the set is empty.
func (r *CategoryRegistry) Read() (map[string]struct{}, bool, error) {
	raw, err := os.ReadFile(r.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]struct{}{}, false, nil
		}
		return nil, false, fmt.Errorf("read category registry: %w", err)
	}

	var file registryFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, false, fmt.Errorf("parse category registry: %w", err)
	}
	set := make(map[string]struct{}, len(file.Categories))
	for _, name := range file.Categories {
		if name = strings.TrimSpace(name); name != "" {
			set[name] = struct{}{}
		}
	}
	return set, true, nil
}

// Write persists the set, sorted with locale collation, atomically.
func (r *CategoryRegistry) Write(categories map[string]struct{}) error {
	if err := os.MkdirAll(filepath.Dir(r.Path), 0o755); err != nil {
		return fmt.Errorf("create registry dir: %w", err)
	}
	payload := registryFile{Categories: sortedNames(categories)}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal category registry: %w", err)
	}
	data = append(data, '\n')
	if err := atomic.WriteFile(r.Path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write category registry: %w", err)
	}
	return nil
}

// Ensure reconciles the registry with the given posts and extra names:
// the default category, every category used by a post, and every extra
// name become members. The file is rewritten only when the set changed
// (or did not exist yet). Returns the resulting set.
func (r *CategoryRegistry) Ensure(posts []Post, extra ...string) (map[string]struct{}, error) {
	current, exists, err := r.Read()
	if err != nil {
		return nil, err
	}

	next := make(map[string]struct{}, len(current)+len(posts)+len(extra)+1)
	for name := range current {
		next[name] = struct{}{}
	}
	next[DefaultCategory] = struct{}{}
	for _, name := range extra {
		if name = strings.TrimSpace(name); name != "" {
			next[name] = struct{}{}
		}
	}
	for _, post := range posts {
		next[post.Category] = struct{}{}
	}

	if !exists || !setsEqual(current, next) {
		if err := r.Write(next); err != nil {
			return nil, err
		}
	}
	return next, nil
}

func sortedNames(set map[string]struct{}) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	coll := newCollator()
	sort.SliceStable(names, func(i, j int) bool {
		return coll.CompareString(names[i], names[j]) < 0
	})
	return names
}

func setsEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
