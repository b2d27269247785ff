package flatblog

// Post status values. Only published posts appear in generated output.
const (
	StatusPublished = "published"
	StatusDraft     = "draft"
)

// DefaultCategory is the bucket for posts created without a category.
// It always exists in the registry and can never be deleted.
const DefaultCategory = "uncategorized"

// Post is the core content type, stored as one Markdown file with
// frontmatter under the content directory. The slug is the primary key.
type Post struct {
	Slug     string   `json:"slug" yaml:"slug"`
	Title    string   `json:"title" yaml:"title"`
	Date     string   `json:"date" yaml:"date"` // YYYY-MM-DD
	Status   string   `json:"status" yaml:"status"`
	Category string   `json:"category" yaml:"category"`
	Tags     []string `json:"tags" yaml:"tags"`
	Summary  string   `json:"summary" yaml:"summary"`
	Content  string   `json:"content" yaml:"-"`
}

// PostMeta is the post without its body, returned by list endpoints.
type PostMeta struct {
	Slug     string   `json:"slug"`
	Title    string   `json:"title"`
	Date     string   `json:"date"`
	Status   string   `json:"status"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
	Summary  string   `json:"summary"`
}

// Meta returns the metadata projection of a post.
func (p Post) Meta() PostMeta {
	return PostMeta{
		Slug:     p.Slug,
		Title:    p.Title,
		Date:     p.Date,
		Status:   p.Status,
		Category: p.Category,
		Tags:     p.Tags,
		Summary:  p.Summary,
	}
}

// Bucket is one taxonomy group: a category or tag name with its member posts.
type Bucket struct {
	Name  string
	Posts []Post
}

// NameCount pairs a taxonomy name with its post count, for read APIs.
type NameCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Taxonomy is the reduced category/tag view exposed by the JSON API.
type Taxonomy struct {
	Categories map[string]int `json:"categories"`
	Tags       map[string]int `json:"tags"`
}

// BuildResult reports what a site build processed.
type BuildResult struct {
	PostCount int `json:"postCount"`
}
