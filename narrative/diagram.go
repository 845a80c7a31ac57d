package narrative

import (
	"fmt"
	"strings"

	"github.com/use-agent/siteintel/models"
)

// Diagram renders a mermaid architecture sketch from the detection
// profiles. It is generated locally and deterministically, never by the
// model, so it is present even when the narrative stage is skipped.
func Diagram(tech *models.TechProfile, seo *models.SeoReport) string {
	var b strings.Builder
	b.WriteString("graph TD\n")
	b.WriteString("    U[User / Browser]\n")

	prev := "U"
	if tech.CDN != models.TechNone && tech.CDN != "" {
		b.WriteString(fmt.Sprintf("    CDN[%s CDN]\n", tech.CDN))
		b.WriteString("    U --> CDN\n")
		prev = "CDN"
	}

	app := appLabel(tech)
	b.WriteString(fmt.Sprintf("    APP[%s]\n", app))
	b.WriteString(fmt.Sprintf("    %s --> APP\n", prev))

	if tech.Hosting != models.TechUnknown && tech.Hosting != "" {
		b.WriteString(fmt.Sprintf("    HOST[Hosted on %s]\n", tech.Hosting))
		b.WriteString("    APP --> HOST\n")
	}
	if tech.CMS != models.TechNone && tech.CMS != "" {
		b.WriteString(fmt.Sprintf("    CMS[%s CMS]\n", tech.CMS))
		b.WriteString("    APP --> CMS\n")
	}
	if seo != nil && !seo.HTTPSEnabled {
		b.WriteString("    WARN[No HTTPS]\n")
		b.WriteString("    U -.-> WARN\n")
	}

	return strings.TrimRight(b.String(), "\n")
}

func appLabel(tech *models.TechProfile) string {
	switch {
	case tech.Framework != models.TechUnknown && tech.Framework != "":
		return tech.Framework + " Application"
	case tech.Server != models.TechUnknown && tech.Server != "":
		return tech.Server + " Server"
	}
	return "Web Application"
}
