// Package seoaudit scores a captured page against a fixed, deterministic
// rule table. Every violated rule subtracts a fixed penalty from 100;
// the grade is a pure step function of the final score. The audit is
// side-effect free: same capture in, byte-identical report out.
package seoaudit

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/use-agent/siteintel/models"
	"golang.org/x/net/html"
)

// Audit runs every check against the capture and assembles the report.
func Audit(doc *models.Capture) models.SeoReport {
	root := parseDoc(doc.HTML)
	pageURL := doc.FinalURL
	if pageURL == "" {
		pageURL = doc.URL
	}

	score := 100
	issues := []models.Issue{}

	record := func(severity, check, detail string, penalty int) {
		score -= penalty
		issues = append(issues, models.Issue{Severity: severity, Check: check, Detail: detail})
	}

	report := models.SeoReport{}

	// Title tag. Lengths are counted in characters, not bytes, so
	// multibyte titles are judged by what a SERP actually displays.
	title := strings.TrimSpace(nodeText(queryFirst(root, selTitle)))
	titleLen := utf8.RuneCountInString(title)
	report.Title = models.TextCheck{Value: title, Length: titleLen, Status: models.CheckGood}
	switch {
	case title == "":
		report.Title.Status = models.CheckError
		report.Title.Issue = strptr("Title tag is missing")
		record(models.SeverityCritical, "Title", "Title tag is missing", 15)
	case titleLen < 30:
		report.Title.Status = models.CheckWarn
		report.Title.Issue = strptr(fmt.Sprintf("Title too short (%d chars), aim for 50-60", titleLen))
		record(models.SeverityWarning, "Title", *report.Title.Issue, 7)
	case titleLen > 65:
		report.Title.Status = models.CheckWarn
		report.Title.Issue = strptr(fmt.Sprintf("Title too long (%d chars), will be truncated in SERPs", titleLen))
		record(models.SeverityWarning, "Title", *report.Title.Issue, 5)
	}

	// Meta description.
	desc := doc.MetaContent("description")
	descLen := utf8.RuneCountInString(desc)
	report.MetaDescription = models.TextCheck{Value: desc, Length: descLen, Status: models.CheckGood}
	switch {
	case desc == "":
		report.MetaDescription.Status = models.CheckError
		report.MetaDescription.Issue = strptr("Meta description is missing")
		record(models.SeverityCritical, "Meta Description", "Meta description is missing", 15)
	case descLen < 120:
		report.MetaDescription.Status = models.CheckWarn
		report.MetaDescription.Issue = strptr(fmt.Sprintf("Meta description too short (%d chars), aim for 150-160", descLen))
		record(models.SeverityWarning, "Meta Description", *report.MetaDescription.Issue, 5)
	case descLen > 160:
		report.MetaDescription.Status = models.CheckWarn
		report.MetaDescription.Issue = strptr(fmt.Sprintf("Meta description too long (%d chars), will be cut off", descLen))
		record(models.SeverityWarning, "Meta Description", *report.MetaDescription.Issue, 3)
	}

	// Headings.
	h1s := len(queryAll(root, selH1))
	h2s := len(queryAll(root, selH2))
	h3s := len(queryAll(root, selH3))
	report.Headings = models.HeadingsCheck{H1Count: h1s, H2Count: h2s, H3Count: h3s, Issues: []string{}}
	switch {
	case h1s == 0:
		report.Headings.Issues = append(report.Headings.Issues, "No H1 tag found, critical for SEO")
		record(models.SeverityCritical, "H1 Tag", "Page has no H1 tag", 10)
	case h1s > 1:
		report.Headings.Issues = append(report.Headings.Issues, fmt.Sprintf("%d H1 tags found, should have exactly 1", h1s))
		record(models.SeverityWarning, "H1 Tag", fmt.Sprintf("Multiple H1 tags (%d) found", h1s), 5)
	}
	if h2s == 0 {
		report.Headings.Issues = append(report.Headings.Issues, "No H2 tags, consider adding subheadings for structure")
		record(models.SeverityInfo, "H2 Tags", "No H2 subheadings found", 0)
	}

	// Image alt coverage. Penalty scales with the number of bare images
	// but never beyond 10 points.
	missingAlt := 0
	for _, img := range doc.Images {
		if img.Alt == nil || *img.Alt == "" {
			missingAlt++
		}
	}
	report.Images = models.ImagesCheck{Total: len(doc.Images), MissingAlt: missingAlt}
	if missingAlt > 0 {
		penalty := missingAlt * 2
		if penalty > 10 {
			penalty = 10
		}
		record(models.SeverityWarning, "Image Alt Text",
			fmt.Sprintf("%d of %d images missing alt text", missingAlt, len(doc.Images)), penalty)
	}

	report.Links = models.LinkCounts{
		Internal: len(doc.Links.Internal),
		External: len(doc.Links.External),
	}

	// Canonical URL. A cross-domain canonical is reported but carries no
	// penalty: it may be intentional (syndicated content).
	canonical := attr(queryFirst(root, selCanonical), "href")
	if canonical == "" {
		record(models.SeverityWarning, "Canonical URL", "No canonical URL defined", 5)
	} else {
		report.CanonicalURL = &canonical
		if cu, err := url.Parse(canonical); err == nil && cu.Host != "" {
			if pu, err := url.Parse(pageURL); err == nil && !strings.EqualFold(cu.Host, pu.Host) {
				record(models.SeverityWarning, "Canonical URL",
					fmt.Sprintf("Canonical points to different domain: %s", cu.Host), 0)
			}
		}
	}

	// Robots meta.
	robotsMeta := doc.MetaContent("robots")
	if robotsMeta == "" {
		robotsMeta = "index,follow"
	}
	report.RobotsMeta = robotsMeta
	if strings.Contains(strings.ToLower(robotsMeta), "noindex") {
		record(models.SeverityCritical, "Robots Meta",
			"Page is set to noindex, search engines will ignore it", 20)
	}

	// Structured data: any JSON-LD block with a @type. A malformed block
	// is skipped, never fatal to the report.
	report.StructuredData = structuredData(root)
	if !report.StructuredData.Present {
		record(models.SeverityWarning, "Structured Data", "No JSON-LD structured data found", 10)
	}

	// Open Graph.
	report.OpenGraph = openGraph(doc)
	if !report.OpenGraph.Complete {
		record(models.SeverityWarning, "Open Graph",
			fmt.Sprintf("Missing OG tags: %s", strings.Join(report.OpenGraph.Missing, ", ")), 10)
	}

	// HTTPS.
	report.HTTPSEnabled = strings.HasPrefix(pageURL, "https://")
	if !report.HTTPSEnabled {
		record(models.SeverityCritical, "HTTPS", "Site is not using HTTPS", 10)
	}

	// Sitemap.
	report.Sitemap.Found = doc.Sitemap != nil && len(*doc.Sitemap) > 50
	if !report.Sitemap.Found {
		record(models.SeverityWarning, "Sitemap", "No sitemap.xml found", 5)
	}

	// robots.txt.
	report.RobotsTxt.Found = doc.Robots != nil && len(*doc.Robots) > 5
	report.RobotsTxt.BlocksAll = report.RobotsTxt.Found &&
		strings.Contains(strings.ToLower(*doc.Robots), "disallow: /")
	if !report.RobotsTxt.Found {
		record(models.SeverityWarning, "robots.txt", "No robots.txt found", 5)
	} else if report.RobotsTxt.BlocksAll {
		record(models.SeverityCritical, "robots.txt",
			"robots.txt blocks all crawlers (Disallow: /)", 15)
	}

	if score < 0 {
		score = 0
	}
	report.Score = score
	report.Grade = Grade(score)
	report.Issues = issues
	report.Recommendations = recommendations(issues)
	return report
}

// Grade maps a score to its letter grade. Monotonic step function.
func Grade(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 75:
		return "B"
	case score >= 60:
		return "C"
	case score >= 45:
		return "D"
	}
	return "F"
}

// structuredData collects @type values from JSON-LD blocks. Blocks that
// fail to parse are skipped individually.
func structuredData(root *html.Node) models.StructuredData {
	types := []string{}
	for _, node := range queryAll(root, selJSONLD) {
		var data map[string]any
		if err := json.Unmarshal([]byte(nodeText(node)), &data); err != nil {
			continue
		}
		if t, ok := data["@type"].(string); ok && t != "" {
			types = append(types, t)
		}
	}
	return models.StructuredData{Present: len(types) > 0, Types: types}
}

func openGraph(doc *models.Capture) models.OpenGraphCheck {
	found := map[string]string{}
	for _, m := range doc.MetaTags {
		if strings.HasPrefix(strings.ToLower(m.Name), "og:") {
			found[strings.ToLower(m.Name)] = m.Content
		}
	}

	required := []string{"og:title", "og:description", "og:image", "og:url"}
	missing := []string{}
	for _, k := range required {
		if _, ok := found[k]; !ok {
			missing = append(missing, k)
		}
	}

	return models.OpenGraphCheck{
		Complete: len(missing) == 0,
		Missing:  missing,
		Found:    found,
	}
}

// fixTexts maps each check to its remediation advice.
var fixTexts = map[string]string{
	"Title":            "Add a unique <title> tag (50-60 chars) describing the page content",
	"Meta Description": "Add a <meta name=\"description\"> tag (150-160 chars) summarizing the page",
	"H1 Tag":           "Add exactly one <h1> tag with your primary keyword",
	"H2 Tags":          "Add <h2> subheadings to structure the page content",
	"Image Alt Text":   "Add descriptive alt=\"\" attributes to all <img> tags",
	"Canonical URL":    "Add <link rel=\"canonical\" href=\"...\"> pointing to the preferred URL",
	"Robots Meta":      "Remove noindex from meta robots or change to \"index,follow\"",
	"Structured Data":  "Add JSON-LD structured data (Article, Product, Organization, etc.)",
	"Open Graph":       "Add missing og: meta tags for better social sharing",
	"HTTPS":            "Migrate to HTTPS and redirect all HTTP traffic",
	"Sitemap":          "Create and submit a sitemap.xml to Google Search Console",
	"robots.txt":       "Create a robots.txt file that allows crawler access",
}

var priorityRank = map[string]int{
	models.PriorityCritical: 1,
	models.PriorityHigh:     2,
	models.PriorityLow:      3,
}

// recommendations derives one actionable fix per issue and stable-sorts
// by priority, preserving original issue order within equal priority.
func recommendations(issues []models.Issue) []models.Recommendation {
	recs := make([]models.Recommendation, 0, len(issues))
	for _, issue := range issues {
		priority := models.PriorityLow
		switch issue.Severity {
		case models.SeverityCritical:
			priority = models.PriorityCritical
		case models.SeverityWarning:
			priority = models.PriorityHigh
		}

		fix, ok := fixTexts[issue.Check]
		if !ok {
			fix = "Investigate and fix the reported issue"
		}
		recs = append(recs, models.Recommendation{
			Priority: priority,
			Category: "seo",
			Issue:    issue.Detail,
			Fix:      fix,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return priorityRank[recs[i].Priority] < priorityRank[recs[j].Priority]
	})
	return recs
}

func strptr(s string) *string { return &s }
