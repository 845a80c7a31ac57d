package capture

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/siteintel/models"
)

// maxLinks caps each of the internal/external link sets.
const maxLinks = 50

// populateFromHTML fills the markup-derived Capture fields (meta tags,
// scripts, stylesheets, images, links) from the raw HTML. Cookies and
// headers come from the strategy, not from here.
func populateFromHTML(doc *models.Capture) {
	parsed, err := goquery.NewDocumentFromReader(strings.NewReader(doc.HTML))
	if err != nil {
		// Analyzers tolerate empty containers; an unparseable document
		// simply yields no extracted assets.
		doc.Scripts = []string{}
		doc.Stylesheets = []string{}
		doc.MetaTags = []models.MetaTag{}
		doc.Images = []models.ImageRecord{}
		doc.Links = models.PageLinks{Internal: []string{}, External: []string{}}
		return
	}

	doc.MetaTags = extractMetaTags(parsed)
	doc.Scripts = extractAttrs(parsed, "script[src]", "src")
	doc.Stylesheets = extractAttrs(parsed, `link[rel="stylesheet"]`, "href")
	doc.Images = extractImages(parsed)
	doc.Links = extractLinks(parsed, doc.FinalURL)
}

// extractMetaTags records name/content pairs. Open Graph tags use the
// "property" attribute instead of "name"; both are recorded under Name.
func extractMetaTags(doc *goquery.Document) []models.MetaTag {
	tags := []models.MetaTag{}
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		name, ok := s.Attr("name")
		if !ok || name == "" {
			name, _ = s.Attr("property")
		}
		if name == "" {
			return
		}
		content, _ := s.Attr("content")
		tags = append(tags, models.MetaTag{Name: name, Content: content})
	})
	return tags
}

func extractAttrs(doc *goquery.Document, selector, attr string) []string {
	values := []string{}
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if v, ok := s.Attr(attr); ok && v != "" {
			values = append(values, v)
		}
	})
	return values
}

func extractImages(doc *goquery.Document) []models.ImageRecord {
	images := []models.ImageRecord{}
	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src, _ := s.Attr("src")
		img := models.ImageRecord{Src: src}
		if alt, ok := s.Attr("alt"); ok {
			img.Alt = &alt
		}
		img.Width, _ = s.Attr("width")
		img.Height, _ = s.Attr("height")
		images = append(images, img)
	})
	return images
}

// extractLinks separates anchors into internal and external sets based on
// host equality with the final URL, deduplicated and capped at maxLinks
// each. Non-http(s) schemes (mailto:, javascript:, tel:) are skipped.
func extractLinks(doc *goquery.Document, sourceURL string) models.PageLinks {
	links := models.PageLinks{Internal: []string{}, External: []string{}}

	base, err := url.Parse(sourceURL)
	if err != nil {
		return links
	}

	seen := make(map[string]struct{})
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok || href == "" {
			return
		}
		resolved, err := base.Parse(href)
		if err != nil {
			return
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}

		abs := resolved.String()
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}

		if strings.EqualFold(resolved.Host, base.Host) {
			if len(links.Internal) < maxLinks {
				links.Internal = append(links.Internal, abs)
			}
		} else {
			if len(links.External) < maxLinks {
				links.External = append(links.External, abs)
			}
		}
	})

	return links
}
