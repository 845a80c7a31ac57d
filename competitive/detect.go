// Package competitive maps a page's advertising and tracking footprint.
//
// Detection is static pattern matching against the markup and script
// URLs; vendors loaded dynamically (e.g. through a tag manager) escape
// it, which is a documented coverage limitation. Traffic estimation is
// an optional enrichment behind a credential.
package competitive

import (
	"context"
	"regexp"
	"strings"

	"github.com/use-agent/siteintel/models"
)

// gtmNote is attached whenever a Tag Manager container is detected.
const gtmNote = "GTM detected, additional trackers may be loaded dynamically"

var (
	reGA4 = regexp.MustCompile(`G-[A-Z0-9]{8,}`)
	reUA  = regexp.MustCompile(`UA-\d+-\d+`)
	reGTM = regexp.MustCompile(`GTM-[A-Z0-9]+`)
)

// pageText is the pre-lowered matching corpus. Some vendor globals are
// camelCase in the wild, so the raw markup is kept alongside.
type pageText struct {
	html      string // raw markup
	htmlLower string
	scripts   string // script URLs joined, lowercased
}

// vendorRule contributes to the ad-network list, the pixel list, or
// both. A single vendor may land in both lists (a social pixel is both
// an ad platform and a tracker).
type vendorRule struct {
	adNetwork string
	pixel     string
	match     func(*pageText) bool
}

// vendorRules is evaluated in full: rules are independent booleans, not
// first-match. Order fixes the first-detection order of the output lists.
var vendorRules = []vendorRule{
	{adNetwork: "Google Ads / AdSense", match: func(t *pageText) bool {
		return strings.Contains(t.htmlLower, "adsbygoogle") ||
			strings.Contains(t.scripts, "googlesyndication.com") ||
			strings.Contains(t.scripts, "doubleclick.net") ||
			strings.Contains(t.htmlLower, "googletag.cmd") ||
			strings.Contains(t.htmlLower, "googletag.pubads")
	}},
	{adNetwork: "Facebook Ads", pixel: "Meta Pixel", match: func(t *pageText) bool {
		return strings.Contains(t.html, "fbq('init'") ||
			strings.Contains(t.html, `fbq("init"`) ||
			strings.Contains(t.scripts, "connect.facebook.net")
	}},
	{adNetwork: "TikTok Ads", pixel: "TikTok Pixel", match: func(t *pageText) bool {
		return strings.Contains(t.scripts, "analytics.tiktok.com") ||
			strings.Contains(t.htmlLower, "ttq.load")
	}},
	{adNetwork: "Taboola", match: func(t *pageText) bool {
		return strings.Contains(t.scripts, "cdn.taboola.com") ||
			strings.Contains(t.htmlLower, "window._taboola")
	}},
	{adNetwork: "Outbrain", match: func(t *pageText) bool {
		return strings.Contains(t.scripts, "widgets.outbrain.com") ||
			strings.Contains(t.html, "window.obApi")
	}},
	{adNetwork: "Criteo", match: func(t *pageText) bool {
		return strings.Contains(t.scripts, "static.criteo.net") ||
			strings.Contains(t.htmlLower, "window.criteo_q")
	}},
	{adNetwork: "X (Twitter) Ads", pixel: "Twitter Pixel", match: func(t *pageText) bool {
		return strings.Contains(t.scripts, "static.ads-twitter.com") ||
			strings.Contains(t.htmlLower, "twq(")
	}},
	{adNetwork: "LinkedIn Ads", pixel: "LinkedIn Insight Tag", match: func(t *pageText) bool {
		return strings.Contains(t.html, "_linkedin_partner_id") ||
			strings.Contains(t.scripts, "snap.licdn.com")
	}},
	{pixel: "Google Analytics", match: func(t *pageText) bool {
		return strings.Contains(t.scripts, "gtag.js") ||
			strings.Contains(t.scripts, "analytics.js") ||
			reGA4.MatchString(t.html) ||
			reUA.MatchString(t.html)
	}},
	{pixel: "GA4", match: func(t *pageText) bool {
		return reGA4.MatchString(t.html)
	}},
	{pixel: "Hotjar", match: func(t *pageText) bool {
		return strings.Contains(t.scripts, "static.hotjar.com") ||
			strings.Contains(t.htmlLower, "window.hj")
	}},
	{pixel: "Mixpanel", match: func(t *pageText) bool {
		return strings.Contains(t.scripts, "cdn.mxpnl.com") ||
			strings.Contains(t.htmlLower, "mixpanel.init")
	}},
	{pixel: "Segment", match: func(t *pageText) bool {
		return strings.Contains(t.scripts, "cdn.segment.com") ||
			strings.Contains(t.htmlLower, "analytics.load")
	}},
	{pixel: "HubSpot", match: func(t *pageText) bool {
		return strings.Contains(t.scripts, "js.hs-scripts.com") ||
			strings.Contains(t.htmlLower, "hubspot")
	}},
	{pixel: "Intercom", match: func(t *pageText) bool {
		return strings.Contains(t.scripts, "widget.intercom.io") ||
			strings.Contains(t.html, "window.intercomSettings")
	}},
}

// Detector runs the static vendor rules and, when a traffic client is
// configured, the traffic enrichment.
type Detector struct {
	traffic *TrafficClient // nil: enrichment disabled
}

// NewDetector creates a Detector. Pass a nil traffic client to disable
// traffic estimation; static detection runs regardless.
func NewDetector(traffic *TrafficClient) *Detector {
	return &Detector{traffic: traffic}
}

// Detect evaluates every vendor rule and assembles the profile. Static
// detection never fails; the traffic call degrades to an unavailability
// reason on any error.
func (d *Detector) Detect(ctx context.Context, doc *models.Capture) models.CompetitiveProfile {
	text := &pageText{
		html:      doc.HTML,
		htmlLower: strings.ToLower(doc.HTML),
		scripts:   strings.ToLower(strings.Join(doc.Scripts, " ")),
	}

	adNetworks := []string{}
	pixels := []string{}
	for _, r := range vendorRules {
		if !r.match(text) {
			continue
		}
		if r.adNetwork != "" {
			adNetworks = append(adNetworks, r.adNetwork)
		}
		if r.pixel != "" {
			pixels = append(pixels, r.pixel)
		}
	}

	gtm := reGTM.MatchString(doc.HTML)
	if gtm {
		pixels = append(pixels, "Google Tag Manager")
	}

	adNetworks = dedupe(adNetworks)
	pixels = dedupe(pixels)

	profile := models.CompetitiveProfile{
		AdsRunning:       len(adNetworks) > 0,
		AdNetworks:       adNetworks,
		TrackingPixels:   pixels,
		GoogleTagManager: gtm,
		SocialProof:      socialProof(pixels),
	}
	if gtm {
		note := gtmNote
		profile.GTMNote = &note
	}

	if d.traffic == nil {
		profile.TrafficSource = "Unavailable: SIMILARWEB_API_KEY not set"
	} else {
		profile.EstimatedMonthlyTraffic, profile.TrafficSource = d.traffic.EstimateMonthly(ctx, doc.URL)
	}

	return profile
}

// socialProof derives the social sub-record from the pixel list.
func socialProof(pixels []string) models.SocialProof {
	proof := models.SocialProof{Networks: []string{}}
	for _, p := range pixels {
		if p == "Meta Pixel" || p == "Twitter Pixel" {
			proof.HasPixel = true
		}
		if strings.Contains(p, "Pixel") || strings.Contains(p, "Insight") {
			name := p
			if i := strings.Index(p, " Pixel"); i >= 0 {
				name = p[:i]
			}
			proof.Networks = append(proof.Networks, name)
		}
	}
	return proof
}

// dedupe removes duplicates while preserving first-detection order.
func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
