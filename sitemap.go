package flatblog

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc     string `xml:"loc"`
	LastMod string `xml:"lastmod,omitempty"`
}

// writeSitemap regenerates sitemap.xml at the output root from the
// published set. Output is deterministic for the same posts.
func (b *Builder) writeSitemap(posts []Post) error {
	base := b.Renderer.BaseURL
	urls := []sitemapURL{
		{Loc: BuildURL(base)},
		{Loc: BuildURL(base, "list")},
		{Loc: BuildURL(base, "categories")},
		{Loc: BuildURL(base, "tags")},
	}
	for _, p := range posts {
		urls = append(urls, sitemapURL{
			Loc:     BuildURL(base, "posts", p.Slug),
			LastMod: p.Date,
		})
	}
	sitemap := sitemapURLSet{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  urls,
	}

	data, err := xml.Marshal(sitemap)
	if err != nil {
		return fmt.Errorf("marshal sitemap: %w", err)
	}
	out := append([]byte(xml.Header), data...)
	out = append(out, '\n')
	if err := os.WriteFile(filepath.Join(b.RootDir, "sitemap.xml"), out, 0o644); err != nil {
		return fmt.Errorf("write sitemap: %w", err)
	}
	return nil
}
