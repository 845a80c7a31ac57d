package capture

import (
	"fmt"
	"strings"
	"testing"

	"github.com/use-agent/siteintel/models"
)

func TestPopulateFromHTML(t *testing.T) {
	doc := &models.Capture{
		FinalURL: "https://example.com/blog/",
		HTML: `<html><head>
<meta name="description" content="A page">
<meta property="og:title" content="OG Title">
<meta charset="utf-8">
<link rel="stylesheet" href="/css/main.css">
<script src="/js/app.js"></script>
<script>inline();</script>
</head><body>
<img src="/hero.png" alt="Hero" width="800" height="400">
<img src="/bare.png">
<a href="/about">About</a>
<a href="post-1">Post</a>
<a href="https://example.com/about">About again</a>
<a href="https://other.example.net/ref">Elsewhere</a>
<a href="mailto:hi@example.com">Mail</a>
<a href="javascript:void(0)">JS</a>
</body></html>`,
	}

	populateFromHTML(doc)

	if len(doc.MetaTags) != 2 {
		t.Errorf("meta tags = %+v, want description and og:title only", doc.MetaTags)
	}
	if doc.MetaContent("description") != "A page" {
		t.Errorf("description = %q", doc.MetaContent("description"))
	}
	if doc.MetaContent("og:title") != "OG Title" {
		t.Errorf("og:title = %q (property attribute should be recorded)", doc.MetaContent("og:title"))
	}

	if len(doc.Scripts) != 1 || doc.Scripts[0] != "/js/app.js" {
		t.Errorf("scripts = %v (inline scripts have no src)", doc.Scripts)
	}
	if len(doc.Stylesheets) != 1 || doc.Stylesheets[0] != "/css/main.css" {
		t.Errorf("stylesheets = %v", doc.Stylesheets)
	}

	if len(doc.Images) != 2 {
		t.Fatalf("images = %+v", doc.Images)
	}
	if doc.Images[0].Alt == nil || *doc.Images[0].Alt != "Hero" {
		t.Errorf("first image alt = %v", doc.Images[0].Alt)
	}
	if doc.Images[1].Alt != nil {
		t.Errorf("bare image should have nil alt, got %q", *doc.Images[1].Alt)
	}

	// /about appears twice (relative and absolute) and must be deduped;
	// post-1 resolves against the /blog/ base; non-http schemes dropped.
	wantInternal := []string{"https://example.com/about", "https://example.com/blog/post-1"}
	if fmt.Sprint(doc.Links.Internal) != fmt.Sprint(wantInternal) {
		t.Errorf("internal links = %v, want %v", doc.Links.Internal, wantInternal)
	}
	if len(doc.Links.External) != 1 || doc.Links.External[0] != "https://other.example.net/ref" {
		t.Errorf("external links = %v", doc.Links.External)
	}
}

func TestPopulateFromHTML_LinkCap(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<html><body>`)
	for i := 0; i < maxLinks+20; i++ {
		fmt.Fprintf(&b, `<a href="/page-%d">p</a>`, i)
	}
	b.WriteString(`</body></html>`)

	doc := &models.Capture{FinalURL: "https://example.com/", HTML: b.String()}
	populateFromHTML(doc)

	if len(doc.Links.Internal) != maxLinks {
		t.Errorf("internal link count = %d, want cap %d", len(doc.Links.Internal), maxLinks)
	}
}

func TestPopulateFromHTML_EmptyMarkup(t *testing.T) {
	doc := &models.Capture{FinalURL: "https://example.com/", HTML: ""}
	populateFromHTML(doc)

	if doc.Scripts == nil || doc.MetaTags == nil || doc.Images == nil ||
		doc.Links.Internal == nil || doc.Links.External == nil {
		t.Error("empty markup must yield empty containers, not nil")
	}
}
