package narrative

import (
	"encoding/json"
	"fmt"

	"github.com/use-agent/siteintel/models"
)

const systemPrompt = `You are a senior web technology and marketing analyst. You receive the audited profiles of a website and produce a concise, actionable assessment for a non-technical stakeholder.

Rules:
- Return ONLY a valid JSON object, no markdown fences, no commentary.
- Base every statement on the provided data; never invent metrics.
- Keep the summary under 200 words and recommendations specific.`

// promptProfiles is the trimmed view of the analysis sent to the model.
// Per-issue audit detail and raw detection signals are dropped: they
// inflate the prompt without improving the narrative.
type promptProfiles struct {
	Seo         promptSeo                  `json:"seo"`
	TechStack   promptTech                 `json:"tech_stack"`
	Competitive *models.CompetitiveProfile `json:"competitive"`
}

type promptSeo struct {
	Score           int                     `json:"score"`
	Grade           string                  `json:"grade"`
	Title           models.TextCheck        `json:"title"`
	MetaDescription models.TextCheck        `json:"meta_description"`
	Headings        models.HeadingsCheck    `json:"headings"`
	Images          models.ImagesCheck      `json:"images"`
	HTTPSEnabled    bool                    `json:"https_enabled"`
	Recommendations []models.Recommendation `json:"recommendations"`
}

type promptTech struct {
	Framework  string   `json:"framework"`
	CMS        string   `json:"cms"`
	Hosting    string   `json:"hosting"`
	CDN        string   `json:"cdn"`
	Server     string   `json:"server"`
	Language   string   `json:"language"`
	Libraries  []string `json:"libraries"`
	Confidence int      `json:"confidence"`
}

// buildUserPrompt embeds the source URL, the trimmed profiles and the
// exact output schema the model must follow.
func buildUserPrompt(pageURL string, seo *models.SeoReport, tech *models.TechProfile, comp *models.CompetitiveProfile) string {
	profiles := promptProfiles{
		Seo: promptSeo{
			Score:           seo.Score,
			Grade:           seo.Grade,
			Title:           seo.Title,
			MetaDescription: seo.MetaDescription,
			Headings:        seo.Headings,
			Images:          seo.Images,
			HTTPSEnabled:    seo.HTTPSEnabled,
			Recommendations: seo.Recommendations,
		},
		TechStack: promptTech{
			Framework:  tech.Framework,
			CMS:        tech.CMS,
			Hosting:    tech.Hosting,
			CDN:        tech.CDN,
			Server:     tech.Server,
			Language:   tech.Language,
			Libraries:  tech.Libraries,
			Confidence: tech.Confidence,
		},
		Competitive: comp,
	}

	data, _ := json.MarshalIndent(profiles, "", "  ")

	return fmt.Sprintf(`Analyze this website intelligence report for: %s

%s

Return a JSON object with exactly this shape:
{
  "summary": "<under 200 words: overall assessment of the site's technology, SEO health, and marketing posture>",
  "recommendations": [
    {"priority": "critical|high|low", "category": "seo|performance|marketing|technology", "issue": "<what is wrong>", "fix": "<specific action>"}
  ],
  "competitive_summary": "<2-3 sentences on the site's advertising and tracking posture>"
}`, pageURL, string(data))
}
