package models

import (
	"net/http"
	"strings"
	"time"
)

// Capture is the normalized snapshot of one fetched page. It is produced
// once by a capture strategy and never mutated afterwards; every analyzer
// reads from the same instance.
type Capture struct {
	// URL is the address the capture was requested for.
	URL string `json:"url"`

	// FinalURL is the address after following all redirects.
	FinalURL string `json:"final_url"`

	// StatusCode is the HTTP status of the main document response.
	StatusCode int `json:"status_code"`

	// Headers holds the main document's response headers. Lookups should
	// go through Header() which is case-insensitive.
	Headers map[string]string `json:"headers"`

	// HTML is the raw page markup (rendered DOM for the browser strategy,
	// response body for the HTTP strategy).
	HTML string `json:"html"`

	// Scripts is the ordered list of external script source URLs.
	Scripts []string `json:"scripts"`

	// Stylesheets is the ordered list of stylesheet hrefs.
	Stylesheets []string `json:"stylesheets"`

	// MetaTags lists <meta> name/content pairs. Open Graph "property"
	// attributes are recorded under Name as well.
	MetaTags []MetaTag `json:"meta_tags"`

	// Cookies holds the names of cookies set by the page. Only the
	// browser strategy can observe these; empty otherwise.
	Cookies []string `json:"cookies"`

	// Images lists <img> elements found in the markup.
	Images []ImageRecord `json:"images"`

	// Links holds internal/external link sets, each capped at 50 entries.
	Links PageLinks `json:"links"`

	// Robots is the body of /robots.txt, or nil when unavailable.
	Robots *string `json:"robots"`

	// Sitemap is the body of /sitemap.xml, or nil when unavailable.
	Sitemap *string `json:"sitemap"`

	// Timestamp records when the capture was taken.
	Timestamp time.Time `json:"timestamp"`

	// CaptureMethod records which strategy produced the capture
	// (e.g. "browser", "http").
	CaptureMethod string `json:"capture_method"`
}

// MetaTag is a single <meta> record.
type MetaTag struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// ImageRecord is a single <img> element.
type ImageRecord struct {
	Src    string  `json:"src"`
	Alt    *string `json:"alt"`
	Width  string  `json:"width,omitempty"`
	Height string  `json:"height,omitempty"`
}

// PageLinks separates page links into internal and external sets.
type PageLinks struct {
	Internal []string `json:"internal"`
	External []string `json:"external"`
}

// Header returns the value of a response header, matching the name
// case-insensitively. Returns "" when the header is absent.
func (c *Capture) Header(name string) string {
	if v, ok := c.Headers[name]; ok {
		return v
	}
	canonical := http.CanonicalHeaderKey(name)
	for k, v := range c.Headers {
		if http.CanonicalHeaderKey(k) == canonical {
			return v
		}
	}
	return ""
}

// MetaContent returns the content of the first meta tag whose name matches
// case-insensitively, or "" when no such tag exists.
func (c *Capture) MetaContent(name string) string {
	for _, m := range c.MetaTags {
		if strings.EqualFold(m.Name, name) {
			return m.Content
		}
	}
	return ""
}
