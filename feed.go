package flatblog

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

// writeFeed regenerates feed.xml at the output root from the published
// set. Post dates are fixed calendar dates, so the feed is deterministic.
func (b *Builder) writeFeed(posts []Post) error {
	base := b.Renderer.BaseURL
	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		pubDate := ""
		if t, err := time.Parse("2006-01-02", p.Date); err == nil {
			pubDate = t.Format(time.RFC1123Z)
		}
		postURL := BuildURL(base, "posts", p.Slug)
		items = append(items, rssItem{
			Title:       p.Title,
			Link:        postURL,
			Description: p.Summary,
			PubDate:     pubDate,
			GUID:        postURL,
		})
	}
	feed := rssXML{
		Version: "2.0",
		Channel: rssChannel{
			Title:       b.Renderer.SiteName,
			Link:        base,
			Description: b.Renderer.Slogan,
			Items:       items,
		},
	}

	data, err := xml.Marshal(feed)
	if err != nil {
		return fmt.Errorf("marshal feed: %w", err)
	}
	out := append([]byte(xml.Header), data...)
	out = append(out, '\n')
	if err := os.WriteFile(filepath.Join(b.RootDir, "feed.xml"), out, 0o644); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}
	return nil
}
