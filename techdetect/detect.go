// Package techdetect fingerprints a captured page's technology stack.
//
// Each category (framework, cms, hosting, cdn, server, language) is
// resolved by an ordered rule table with first-match-wins semantics:
// later rules only fire when no earlier rule in the same category
// matched. Every rule that fires appends a Signal whether or not its
// category was already resolved, so the signal list is a complete audit
// trail. The whole pass is pure: no I/O, deterministic for a fixed
// capture.
package techdetect

import (
	"strings"

	"github.com/use-agent/siteintel/models"
)

// Confidence bounds.
const (
	confidenceFloor = 10
	confidenceCap   = 95
)

// pageView is the lowercased, pre-extracted view of a capture that the
// rule tables match against.
type pageView struct {
	html        string
	headers     map[string]string // lowercased keys and values
	scripts     []string
	stylesheets []string
	cookies     []string
	generators  []string // generator meta tag contents, lowercased

	// Resolved values for the dependent language rules.
	framework string
	server    string
}

func newPageView(doc *models.Capture) *pageView {
	v := &pageView{
		html:    strings.ToLower(doc.HTML),
		headers: make(map[string]string, len(doc.Headers)),
	}
	for k, val := range doc.Headers {
		v.headers[strings.ToLower(k)] = strings.ToLower(val)
	}
	for _, s := range doc.Scripts {
		v.scripts = append(v.scripts, strings.ToLower(s))
	}
	for _, s := range doc.Stylesheets {
		v.stylesheets = append(v.stylesheets, strings.ToLower(s))
	}
	for _, c := range doc.Cookies {
		v.cookies = append(v.cookies, strings.ToLower(c))
	}
	for _, m := range doc.MetaTags {
		if strings.EqualFold(m.Name, "generator") {
			v.generators = append(v.generators, strings.ToLower(m.Content))
		}
	}
	return v
}

func (v *pageView) htmlContains(marker string) bool { return strings.Contains(v.html, marker) }

func (v *pageView) header(name string) string { return v.headers[name] }

func (v *pageView) hasHeader(name string) bool {
	_, ok := v.headers[name]
	return ok
}

func (v *pageView) anyHeaderValueContains(marker string) bool {
	for _, val := range v.headers {
		if strings.Contains(val, marker) {
			return true
		}
	}
	return false
}

func (v *pageView) anyScriptContains(marker string) bool {
	for _, s := range v.scripts {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

func (v *pageView) anyStylesheetContains(marker string) bool {
	for _, s := range v.stylesheets {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

func (v *pageView) anyCookieContains(marker string) bool {
	for _, c := range v.cookies {
		if strings.Contains(c, marker) {
			return true
		}
	}
	return false
}

// Detect evaluates every category's rule table against the capture and
// fuses the fired signals into a TechProfile.
func Detect(doc *models.Capture) models.TechProfile {
	v := newPageView(doc)

	profile := models.TechProfile{
		Framework: models.TechUnknown,
		CMS:       models.TechNone,
		Hosting:   models.TechUnknown,
		CDN:       models.TechNone,
		Server:    models.TechUnknown,
		Language:  models.TechUnknown,
		Libraries: []string{},
		Signals:   []models.Signal{},
	}

	addSignal := func(category, value string, weight int) {
		profile.Signals = append(profile.Signals, models.Signal{
			Category: category,
			Value:    value,
			Weight:   weight,
		})
	}

	// Framework: first match wins; the header hint below supplements an
	// already-resolved value but still records its own signal.
	framework := ""
	for _, r := range frameworkRules {
		if r.match(v) {
			framework = r.label
			addSignal("framework", r.signal(), r.weight)
			break
		}
	}
	if strings.Contains(v.header("x-powered-by"), "next") {
		if framework == "" {
			framework = "Next.js"
		}
		addSignal("framework", "Next.js (header)", 20)
	}

	// CMS: generator meta tags first; markup/cookie fallback only when
	// no generator matched.
	cms := ""
	for _, r := range generatorRules {
		if r.match(v) {
			cms = r.label
			addSignal("cms", r.signal(), r.weight)
			break
		}
	}
	if cms == "" {
		for _, r := range cmsFallbackRules {
			if r.match(v) {
				cms = r.label
				addSignal("cms", r.signal(), r.weight)
				break
			}
		}
	}

	// Server: normalized from the Server header.
	server := ""
	if raw := v.header("server"); raw != "" {
		server = normalizeServer(raw)
		addSignal("server", server, 10)
	}

	hosting := ""
	for _, r := range hostingRules {
		if r.match(v) {
			hosting = r.label
			addSignal("hosting", r.signal(), r.weight)
			break
		}
	}

	cdn := ""
	for _, r := range cdnRules {
		if r.match(v) {
			cdn = r.label
			addSignal("cdn", r.signal(), r.weight)
			break
		}
	}

	// Language last: its rules correlate on framework and server.
	v.framework = framework
	v.server = server
	language := ""
	for _, r := range languageRules {
		if r.match(v) {
			language = r.label
			addSignal("language", r.signal(), r.weight)
			break
		}
	}

	// Libraries: non-exclusive membership, every match retained.
	for _, lr := range libraryRules {
		if lr.match(v) {
			profile.Libraries = append(profile.Libraries, lr.name)
		}
	}

	if framework != "" {
		profile.Framework = framework
	}
	if cms != "" {
		profile.CMS = cms
	}
	if hosting != "" {
		profile.Hosting = hosting
	}
	if cdn != "" {
		profile.CDN = cdn
	}
	if server != "" {
		profile.Server = server
	}
	if language != "" {
		profile.Language = language
	}

	profile.Confidence = confidence(profile.Signals)
	return profile
}

// confidence is min(cap, sum of weights), with the floor value when no
// rule fired at all.
func confidence(signals []models.Signal) int {
	if len(signals) == 0 {
		return confidenceFloor
	}
	total := 0
	for _, s := range signals {
		total += s.Weight
	}
	if total > confidenceCap {
		return confidenceCap
	}
	return total
}

// normalizeServer maps well-known server strings to their canonical
// names and leaves anything else as reported.
func normalizeServer(raw string) string {
	switch {
	case strings.Contains(raw, "nginx"):
		return "nginx"
	case strings.Contains(raw, "apache"):
		return "Apache"
	case strings.Contains(raw, "cloudflare"):
		return "Cloudflare"
	case strings.Contains(raw, "iis"):
		return "IIS"
	}
	return raw
}
