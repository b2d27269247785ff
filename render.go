package flatblog

import (
	"html"
	"strings"
)

// Material icon paths used by the site chrome.
const (
	iconHome       = "M10 20v-6h4v6h5v-8h3L12 3 2 12h3v8z"
	iconList       = "M4 10.5c-.83 0-1.5.67-1.5 1.5s.67 1.5 1.5 1.5 1.5-.67 1.5-1.5-.67-1.5-1.5-1.5m0-6c-.83 0-1.5.67-1.5 1.5S3.17 7.5 4 7.5 5.5 6.83 5.5 6 4.83 4.5 4 4.5m0 12c-.83 0-1.5.68-1.5 1.5s.68 1.5 1.5 1.5 1.5-.68 1.5-1.5-.67-1.5-1.5-1.5M7 19h14v-2H7zm0-6h14v-2H7zm0-8v2h14V5z"
	iconCategories = "M10 4H4c-1.1 0-1.99.9-1.99 2L2 18c0 1.1.9 2 2 2h16c1.1 0 2-.9 2-2V8c0-1.1-.9-2-2-2h-8z"
	iconTags       = "m21.41 11.58-9-9C12.05 2.22 11.55 2 11 2H4c-1.1 0-2 .9-2 2v7c0 .55.22 1.05.59 1.42l9 9c.36.36.86.58 1.41.58s1.05-.22 1.41-.59l7-7c.37-.36.59-.86.59-1.41s-.23-1.06-.59-1.42M5.5 7C4.67 7 4 6.33 4 5.5S4.67 4 5.5 4 7 4.67 7 5.5 6.33 7 5.5 7"
	iconAbout      = "M21 16v-2l-8-5V3.5c0-.83-.67-1.5-1.5-1.5S10 2.67 10 3.5V9l-8 5v2l8-2.5V19l-2 1.5V22l3.5-1 3.5 1v-1.5L13 19v-5.5z"
	iconClock      = "M11.99 2C6.47 2 2 6.48 2 12s4.47 10 9.99 10C17.52 22 22 17.52 22 12S17.52 2 11.99 2M12 20c-4.42 0-8-3.58-8-8s3.58-8 8-8 8 3.58 8 8-3.58 8-8 8"
)

// Page is the input model for one rendered HTML document. AssetVersion is
// threaded explicitly from the build that computed it; the renderer holds
// no mutable state.
type Page struct {
	Title         string
	Description   string // defaults to Title when empty
	CanonicalPath string
	Depth         int    // relative asset prefix is "../" repeated Depth times
	Active        string // nav marker: home, list, categories, tags, about
	ContentHTML   string // already-rendered fragment, wrapped in <article>
	AssetVersion  string
}

// PageRenderer renders page models into self-contained HTML documents.
// It is a pure function of its inputs: identical pages produce identical
// bytes, which is what makes a rebuild idempotent and snapshot-testable.
type PageRenderer struct {
	SiteName string
	Slogan   string
	BaseURL  string // canonical URL prefix, no trailing slash
}

// RenderPage produces the complete HTML document for a page.
func (r *PageRenderer) RenderPage(p Page) string {
	prefix := strings.Repeat("../", p.Depth)
	desc := p.Description
	if desc == "" {
		desc = p.Title
	}

	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	b.WriteString("  <meta charset=\"utf-8\">\n")
	b.WriteString("  <meta name=\"viewport\" content=\"width=device-width,initial-scale=1\">\n")
	b.WriteString("  <link rel=\"icon\" type=\"image/x-icon\" href=\"" + prefix + "favicon.ico\">\n")
	b.WriteString("  <link rel=\"canonical\" href=\"" + r.BaseURL + p.CanonicalPath + "\">\n")
	b.WriteString("  <meta name=\"robots\" content=\"noarchive\">\n")
	b.WriteString("  <title>" + html.EscapeString(p.Title) + "</title>\n")
	b.WriteString("  <meta name=\"title\" content=\"" + html.EscapeString(p.Title) + "\">\n")
	b.WriteString("  <meta name=\"description\" content=\"" + html.EscapeString(desc) + "\">\n")
	b.WriteString("  <link rel=\"stylesheet\" href=\"" + prefix + "assets/style.css?v=" + p.AssetVersion + "\">\n")
	b.WriteString("</head>\n<body>\n")
	b.WriteString(r.renderHeader(p.Depth, p.Active))
	b.WriteString("\n  <main class=\"container wrap\">\n    <article class=\"typo\">\n")
	b.WriteString(p.ContentHTML)
	b.WriteString("\n    </article>\n  </main>\n")
	b.WriteString("  <button type=\"button\" class=\"top-btn\" id=\"top-btn\" aria-label=\"Back to top\">")
	b.WriteString("<svg focusable=\"false\" aria-hidden=\"true\" viewBox=\"0 0 24 24\"><path d=\"M7.41 15.41 12 10.83l4.59 4.58L18 14l-6-6-6 6z\"></path></svg></button>\n")
	b.WriteString("  <footer class=\"footer\"><div class=\"wrap\"><div class=\"copyright\"><p>&copy; 2026 " + html.EscapeString(r.SiteName) + "</p></div></div></footer>\n")
	b.WriteString("  <script src=\"" + prefix + "assets/main.js?v=" + p.AssetVersion + "\"></script>\n")
	b.WriteString("</body>\n</html>\n")
	return b.String()
}

func (r *PageRenderer) renderHeader(depth int, active string) string {
	prefix := strings.Repeat("../", depth)
	var b strings.Builder
	b.WriteString("  <header class=\"header\">\n    <div class=\"wrap\">\n")
	b.WriteString("      <h1 class=\"site-name\">" + html.EscapeString(r.SiteName) + "</h1>\n")
	b.WriteString("      <p class=\"site-slogan\">" + html.EscapeString(r.Slogan) + "</p>\n")
	b.WriteString("      <nav class=\"site-nav\">\n        <ul>\n")
	b.WriteString("        " + navLink(prefix, "Home", iconHome, active == "home") + "\n")
	b.WriteString("        " + navLink(prefix+"list/", "List", iconList, active == "list") + "\n")
	b.WriteString("        " + navLink(prefix+"categories/", "Categories", iconCategories, active == "categories") + "\n")
	b.WriteString("        " + navLink(prefix+"tags/", "Tags", iconTags, active == "tags") + "\n")
	b.WriteString("        " + navLink(prefix+"about/", "About", iconAbout, active == "about") + "\n")
	b.WriteString("        </ul>\n      </nav>\n    </div>\n  </header>")
	return b.String()
}

func navLink(href, label, iconPath string, active bool) string {
	activeClass := ""
	if active {
		activeClass = " class=\"active\""
	}
	return "<li><a href=\"" + href + "\"" + activeClass +
		"><svg class=\"nav-icon\" focusable=\"false\" aria-hidden=\"true\" viewBox=\"0 0 24 24\"><path d=\"" + iconPath + "\"></path></svg><span>" +
		html.EscapeString(label) + "</span></a></li>"
}

// RenderPostList renders posts as list items linking to hrefPrefix<slug>/.
func RenderPostList(posts []Post, hrefPrefix string) string {
	items := make([]string, 0, len(posts))
	for _, p := range posts {
		items = append(items, "<li class=\"list-item\"><a href=\""+hrefPrefix+p.Slug+"/\">"+
			"<span class=\"post-date\"><time datetime=\""+p.Date+"T00:00:00.000Z\">"+p.Date+"</time></span>"+
			"<p class=\"post-title\">"+html.EscapeString(p.Title)+"</p></a></li>")
	}
	return strings.Join(items, " ")
}

// listHeader renders the shared "post-list" section heading with an icon.
func listHeader(id, iconPath, label string) string {
	idAttr := ""
	if id != "" {
		idAttr = " id=\"" + id + "\""
	}
	return "<h2 class=\"post-list-header\"" + idAttr +
		"><svg class=\"list-header-icon\" focusable=\"false\" aria-hidden=\"true\" viewBox=\"0 0 24 24\"><path d=\"" + iconPath + "\"></path></svg> " +
		html.EscapeString(label) + "</h2>"
}

// SlugifyAnchor derives the URL anchor for a category or tag name:
// lowercased, whitespace collapsed to hyphens, then restricted to
// [a-z0-9-] plus CJK ideographs. Two distinct names can collapse to the
// same anchor; those links collide silently.
func SlugifyAnchor(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	var b strings.Builder
	inSpace := false
	for _, r := range value {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if !inSpace {
				b.WriteByte('-')
				inSpace = true
			}
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || (r >= 0x4e00 && r <= 0x9fff):
			b.WriteRune(r)
			inSpace = false
		default:
			inSpace = false
		}
	}
	return b.String()
}
