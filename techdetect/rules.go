package techdetect

import "strings"

// rule is one entry in an ordered, first-match-wins category table.
// match runs against the prepared page view; label is both the resolved
// category value and the signal value unless signalLabel overrides it.
type rule struct {
	label       string
	signalLabel string // defaults to label when empty
	weight      int
	match       func(*pageView) bool
}

func (r rule) signal() string {
	if r.signalLabel != "" {
		return r.signalLabel
	}
	return r.label
}

// frameworkRules resolve the frontend framework. Specific markers come
// before generic ones: a Next.js asset path must beat a bare React
// marker, since every Next.js page is also a React page.
var frameworkRules = []rule{
	{label: "Next.js", weight: 30, match: func(v *pageView) bool {
		return v.htmlContains("window.__next_data__") || v.htmlContains("/_next/static/")
	}},
	{label: "Nuxt.js", weight: 30, match: func(v *pageView) bool {
		return v.htmlContains("window.__nuxt__")
	}},
	{label: "Gatsby", weight: 30, match: func(v *pageView) bool {
		return v.htmlContains("window.__gatsby") || v.htmlContains("/gatsby-")
	}},
	{label: "Angular", weight: 25, match: func(v *pageView) bool {
		return v.htmlContains("window.angular") || v.htmlContains("ng-version")
	}},
	{label: "Vue.js", weight: 20, match: func(v *pageView) bool {
		return v.anyScriptContains("vue") || v.htmlContains("window.vue")
	}},
	{label: "React", weight: 15, match: func(v *pageView) bool {
		return v.htmlContains("window.react") || v.htmlContains("react.development.js")
	}},
}

// generatorRules resolve the CMS from the generator meta tag — the
// highest-confidence CMS source, hence the flat weight of 40.
var generatorRules = []rule{
	{label: "WordPress", weight: 40, match: metaGenerator("wordpress")},
	{label: "Shopify", weight: 40, match: metaGenerator("shopify")},
	{label: "Wix", weight: 40, match: metaGenerator("wix")},
	{label: "Squarespace", weight: 40, match: metaGenerator("squarespace")},
	{label: "Webflow", weight: 40, match: metaGenerator("webflow")},
	{label: "Drupal", weight: 40, match: metaGenerator("drupal")},
}

// cmsFallbackRules run only when no generator tag matched. Path and
// cookie markers are weaker evidence, hence the lower weights.
var cmsFallbackRules = []rule{
	{label: "WordPress", signalLabel: "WordPress (paths)", weight: 35, match: func(v *pageView) bool {
		return v.htmlContains("window.wp") || v.htmlContains("/wp-content/") || v.htmlContains("/wp-includes/")
	}},
	{label: "Shopify", signalLabel: "Shopify (global)", weight: 35, match: func(v *pageView) bool {
		return v.htmlContains("window.shopify") || v.htmlContains("cdn.shopify.com")
	}},
	{label: "Shopify", signalLabel: "Shopify (cookie)", weight: 30, match: func(v *pageView) bool {
		return v.anyCookieContains("_shopify")
	}},
	{label: "Drupal", signalLabel: "Drupal (path)", weight: 30, match: func(v *pageView) bool {
		return v.htmlContains("/sites/default/")
	}},
}

// hostingRules resolve the hosting provider from response headers.
var hostingRules = []rule{
	{label: "Vercel", weight: 20, match: func(v *pageView) bool {
		return v.hasHeader("x-vercel-id") || v.anyHeaderValueContains("vercel")
	}},
	{label: "Netlify", weight: 20, match: func(v *pageView) bool {
		return v.hasHeader("x-netlify") || v.hasHeader("netlify-vary")
	}},
	{label: "AWS", weight: 15, match: func(v *pageView) bool {
		return v.hasHeader("x-amz-cf-id") || v.hasHeader("x-amzn-requestid")
	}},
	{label: "GitHub Pages", weight: 20, match: func(v *pageView) bool {
		return v.hasHeader("x-github-request-id")
	}},
}

// cdnRules resolve the CDN from response headers, independent of hosting.
var cdnRules = []rule{
	{label: "Cloudflare", weight: 15, match: func(v *pageView) bool {
		return v.hasHeader("cf-cache-status") || v.hasHeader("cf-ray")
	}},
	{label: "AWS CloudFront", weight: 15, match: func(v *pageView) bool {
		return v.hasHeader("x-amz-cf-id")
	}},
	{label: "Fastly", weight: 15, match: func(v *pageView) bool {
		return v.hasHeader("x-fastly-request-id")
	}},
}

// languageRules run last: they may correlate on the already-resolved
// framework and server values.
var languageRules = []rule{
	{label: "PHP", weight: 20, match: func(v *pageView) bool {
		return v.anyCookieContains("phpsessid") || strings.Contains(v.header("x-powered-by"), "php")
	}},
	{label: "Java", weight: 20, match: func(v *pageView) bool {
		return v.anyCookieContains("jsessionid")
	}},
	{label: "Node.js", weight: 15, match: func(v *pageView) bool {
		switch v.framework {
		case "Next.js", "Gatsby", "Nuxt.js":
			return true
		}
		return strings.Contains(strings.ToLower(v.server), "node")
	}},
}

// libraryRules are a non-exclusive membership test: every match is kept,
// in table order. No weights; libraries do not feed confidence.
var libraryRules = []struct {
	name  string
	match func(*pageView) bool
}{
	{"jQuery", func(v *pageView) bool {
		return v.htmlContains("jquery") || v.anyScriptContains("jquery")
	}},
	{"Bootstrap", func(v *pageView) bool {
		return v.htmlContains("bootstrap") || v.anyScriptContains("bootstrap") || v.anyStylesheetContains("bootstrap")
	}},
	{"Tailwind CSS", func(v *pageView) bool {
		return v.htmlContains("tailwind") || v.anyStylesheetContains("tailwind")
	}},
	{"Lodash", func(v *pageView) bool {
		return v.htmlContains("lodash") || v.anyScriptContains("lodash")
	}},
	{"Axios", func(v *pageView) bool {
		return v.htmlContains("axios")
	}},
	{"GSAP", func(v *pageView) bool {
		return v.htmlContains("gsap") || v.anyScriptContains("gsap")
	}},
	{"Three.js", func(v *pageView) bool {
		return v.htmlContains("three.js") || v.anyScriptContains("three.min.js")
	}},
}

// metaGenerator matches when any generator meta tag content contains the
// marker.
func metaGenerator(marker string) func(*pageView) bool {
	return func(v *pageView) bool {
		for _, g := range v.generators {
			if strings.Contains(g, marker) {
				return true
			}
		}
		return false
	}
}
