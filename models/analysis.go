package models

import "time"

// Analysis run status values.
const (
	StatusDone    = "done"
	StatusBlocked = "blocked"
	StatusError   = "error"
)

// Sentinel values for unresolved tech categories.
const (
	TechUnknown = "Unknown"
	TechNone    = "None"
)

// Signal records why a detection conclusion was reached. Signals are
// append-only in evaluation order and never deduplicated.
type Signal struct {
	Category string `json:"category"`
	Value    string `json:"value"`
	Weight   int    `json:"weight"`
}

// TechProfile is the resolved technology fingerprint of a page.
type TechProfile struct {
	Framework string `json:"framework"`
	CMS       string `json:"cms"`
	Hosting   string `json:"hosting"`
	CDN       string `json:"cdn"`
	Server    string `json:"server"`
	Language  string `json:"language"`

	// Libraries is a non-exclusive membership list (detection order).
	Libraries []string `json:"libraries"`

	// Signals is the complete audit trail of every rule that fired.
	Signals []Signal `json:"signals"`

	// Confidence is min(95, sum of signal weights), or 10 when no rule
	// fired at all. Always within [10, 95].
	Confidence int `json:"confidence"`
}

// Issue severities and recommendation priorities.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
	SeverityInfo     = "info"

	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityLow      = "low"
)

// Issue is one recorded audit finding.
type Issue struct {
	Severity string `json:"severity"`
	Check    string `json:"check"`
	Detail   string `json:"detail"`
}

// Recommendation is an actionable fix derived from an issue.
type Recommendation struct {
	Priority string `json:"priority"`
	Category string `json:"category"`
	Issue    string `json:"issue"`
	Fix      string `json:"fix"`
}

// SeoReport is the deterministic audit output for one capture.
type SeoReport struct {
	// Score is within [0, 100]; Grade is a pure function of Score.
	Score int    `json:"score"`
	Grade string `json:"grade"`

	Title           TextCheck        `json:"title"`
	MetaDescription TextCheck        `json:"meta_description"`
	Headings        HeadingsCheck    `json:"headings"`
	Images          ImagesCheck      `json:"images"`
	Links           LinkCounts       `json:"links"`
	CanonicalURL    *string          `json:"canonical_url"`
	RobotsMeta      string           `json:"robots_meta"`
	StructuredData  StructuredData   `json:"structured_data"`
	OpenGraph       OpenGraphCheck   `json:"open_graph"`
	Sitemap         SitemapCheck     `json:"sitemap"`
	RobotsTxt       RobotsTxtCheck   `json:"robots_txt"`
	HTTPSEnabled    bool             `json:"https_enabled"`
	Issues          []Issue          `json:"issues"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Check status values for TextCheck.
const (
	CheckGood  = "good"
	CheckWarn  = "warn"
	CheckError = "error"
)

// TextCheck is the sub-record for a length-sensitive text element
// (title, meta description).
type TextCheck struct {
	Value  string  `json:"value"`
	Length int     `json:"length"`
	Status string  `json:"status"`
	Issue  *string `json:"issue"`
}

// HeadingsCheck summarizes the page heading structure.
type HeadingsCheck struct {
	H1Count int      `json:"h1_count"`
	H2Count int      `json:"h2_count"`
	H3Count int      `json:"h3_count"`
	Issues  []string `json:"issues"`
}

// ImagesCheck summarizes image alt-text coverage.
type ImagesCheck struct {
	Total      int `json:"total"`
	MissingAlt int `json:"missing_alt"`
}

// LinkCounts reports the capped internal/external link counts.
type LinkCounts struct {
	Internal int `json:"internal"`
	External int `json:"external"`
}

// StructuredData reports JSON-LD presence and the @type values found.
type StructuredData struct {
	Present bool     `json:"present"`
	Types   []string `json:"types"`
}

// OpenGraphCheck reports Open Graph completeness.
type OpenGraphCheck struct {
	Complete bool              `json:"complete"`
	Missing  []string          `json:"missing"`
	Found    map[string]string `json:"found"`
}

// SitemapCheck reports sitemap.xml availability.
type SitemapCheck struct {
	Found bool `json:"found"`
}

// RobotsTxtCheck reports robots.txt availability and whether it blocks
// all crawlers.
type RobotsTxtCheck struct {
	Found     bool `json:"found"`
	BlocksAll bool `json:"blocks_all"`
}

// CompetitiveProfile is the advertising and tracking footprint of a page.
type CompetitiveProfile struct {
	AdsRunning bool `json:"ads_running"`

	// AdNetworks and TrackingPixels are deduplicated, first-detection order.
	AdNetworks     []string `json:"ad_networks"`
	TrackingPixels []string `json:"tracking_pixels"`

	GoogleTagManager bool    `json:"google_tag_manager"`
	GTMNote          *string `json:"gtm_note"`

	// EstimatedMonthlyTraffic is set only when the traffic API call
	// succeeds; TrafficSource always explains where the figure came from
	// or why it is unavailable.
	EstimatedMonthlyTraffic *string `json:"estimated_monthly_traffic"`
	TrafficSource           string  `json:"traffic_source"`

	SocialProof SocialProof `json:"social_proof"`

	// Optional enrichments with explicit unavailable states; never
	// populated by static detection.
	DomainAuthority *int `json:"domain_authority"`
	Backlinks       *int `json:"backlinks"`
}

// SocialProof reports social-platform pixel presence.
type SocialProof struct {
	HasPixel bool     `json:"has_pixel"`
	Networks []string `json:"networks"`
}

// Architecture is the inferred site architecture.
type Architecture struct {
	Type    string `json:"type"`
	Diagram string `json:"diagram"`
}

// AnalysisResult is the aggregate record for one pipeline run.
type AnalysisResult struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	AnalyzedAt time.Time `json:"analyzed_at"`

	// Status is one of StatusDone, StatusBlocked, StatusError. When
	// blocked, the three profiles and all narrative fields are absent.
	Status string `json:"status"`

	// Error carries a human-readable reason for blocked/error runs.
	Error string `json:"error,omitempty"`

	Seo          *SeoReport          `json:"seo,omitempty"`
	TechStack    *TechProfile        `json:"tech_stack,omitempty"`
	Competitive  *CompetitiveProfile `json:"competitive,omitempty"`
	Architecture *Architecture       `json:"architecture,omitempty"`

	AISummary          *string          `json:"ai_summary"`
	AIRecommendations  []Recommendation `json:"ai_recommendations"`
	CompetitiveSummary *string          `json:"competitive_summary"`
}
