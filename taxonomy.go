package flatblog

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// newCollator returns the collator used everywhere taxonomy names are
// ordered. Collation is deterministic for a fixed locale, which keeps
// grouping output byte-identical across runs.
func newCollator() *collate.Collator {
	return collate.New(language.MustParse("zh-Hans-CN"))
}

// GroupByCategory groups posts by category. Buckets are ordered by
// descending size, ties broken by ascending name under locale collation.
func GroupByCategory(posts []Post) []Bucket {
	order := make([]string, 0)
	groups := make(map[string][]Post)
	for _, post := range posts {
		if _, ok := groups[post.Category]; !ok {
			order = append(order, post.Category)
		}
		groups[post.Category] = append(groups[post.Category], post)
	}
	return sortBuckets(order, groups)
}

// GroupByTag groups posts by tag with the same ordering rule as
// GroupByCategory. A post appears in one bucket per tag it carries.
func GroupByTag(posts []Post) []Bucket {
	order := make([]string, 0)
	groups := make(map[string][]Post)
	for _, post := range posts {
		for _, tag := range post.Tags {
			if _, ok := groups[tag]; !ok {
				order = append(order, tag)
			}
			groups[tag] = append(groups[tag], post)
		}
	}
	return sortBuckets(order, groups)
}

func sortBuckets(names []string, groups map[string][]Post) []Bucket {
	coll := newCollator()
	buckets := make([]Bucket, 0, len(names))
	for _, name := range names {
		buckets = append(buckets, Bucket{Name: name, Posts: groups[name]})
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		if len(buckets[i].Posts) != len(buckets[j].Posts) {
			return len(buckets[i].Posts) > len(buckets[j].Posts)
		}
		return coll.CompareString(buckets[i].Name, buckets[j].Name) < 0
	})
	return buckets
}

// BuildTaxonomy reduces both groupings to name -> count maps. Registered
// but empty categories are merged in by the caller, which owns the
// registry; the aggregator only knows posts.
func BuildTaxonomy(posts []Post) Taxonomy {
	tax := Taxonomy{
		Categories: make(map[string]int),
		Tags:       make(map[string]int),
	}
	for _, b := range GroupByCategory(posts) {
		tax.Categories[b.Name] = len(b.Posts)
	}
	for _, b := range GroupByTag(posts) {
		tax.Tags[b.Name] = len(b.Posts)
	}
	return tax
}

// CategoryRows returns one row per known category (registry union posts),
// sorted by name under locale collation, with per-category post counts.
func CategoryRows(categories []string, posts []Post) []NameCount {
	counts := make(map[string]int)
	for _, post := range posts {
		counts[post.Category]++
	}
	coll := newCollator()
	names := append([]string(nil), categories...)
	sort.SliceStable(names, func(i, j int) bool {
		return coll.CompareString(names[i], names[j]) < 0
	})
	rows := make([]NameCount, 0, len(names))
	for _, name := range names {
		rows = append(rows, NameCount{Name: name, Count: counts[name]})
	}
	return rows
}

// TagRows returns tag counts ordered by count descending, then name
// ascending under locale collation.
func TagRows(posts []Post) []NameCount {
	buckets := GroupByTag(posts)
	rows := make([]NameCount, 0, len(buckets))
	for _, b := range buckets {
		rows = append(rows, NameCount{Name: b.Name, Count: len(b.Posts)})
	}
	return rows
}
