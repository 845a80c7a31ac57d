package capture

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/siteintel/config"
	"github.com/use-agent/siteintel/models"
	"github.com/ysmood/gson"
)

// BrowserStrategy renders pages in headless Chrome via rod. It is the
// preferred strategy: it sees the post-JS DOM, script-set cookies, and
// the real navigation chain. The browser is launched lazily on first use
// so that hosts without Chromium degrade to the HTTP strategy instead of
// failing at startup.
type BrowserStrategy struct {
	cfg        config.BrowserConfig
	navTimeout time.Duration

	once    sync.Once
	browser *rod.Browser
	initErr error
}

// NewBrowserStrategy creates the strategy without launching a browser.
func NewBrowserStrategy(cfg config.BrowserConfig, navTimeout time.Duration) *BrowserStrategy {
	return &BrowserStrategy{cfg: cfg, navTimeout: navTimeout}
}

func (s *BrowserStrategy) Name() string { return "browser" }

// connect launches and connects to the browser exactly once.
func (s *BrowserStrategy) connect() error {
	s.once.Do(func() {
		l := launcher.New().
			Headless(s.cfg.Headless).
			NoSandbox(s.cfg.NoSandbox)

		if s.cfg.BrowserBin != "" {
			l = l.Bin(s.cfg.BrowserBin)
		}
		if s.cfg.DefaultProxy != "" {
			l = l.Proxy(s.cfg.DefaultProxy)
		}

		l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
		l.Delete(flags.Flag("enable-automation"))
		l.Set(flags.Flag("disable-dev-shm-usage"))
		l.Set(flags.Flag("disable-extensions"))
		l.Set(flags.Flag("disable-default-apps"))
		l.Set(flags.Flag("no-first-run"))

		controlURL, err := l.Launch()
		if err != nil {
			s.initErr = fmt.Errorf("browser strategy: launch: %w", err)
			return
		}

		browser := rod.New().ControlURL(controlURL)
		if err := browser.Connect(); err != nil {
			s.initErr = fmt.Errorf("browser strategy: connect: %w", err)
			return
		}

		slog.Info("browser launched", "controlURL", controlURL)
		s.browser = browser
	})
	return s.initErr
}

// Close kills the browser process if one was launched.
func (s *BrowserStrategy) Close() {
	if s.browser != nil {
		s.browser.MustClose()
	}
}

// Capture renders the page and assembles a Capture from the live DOM.
//
// Order matters: the stealth script and the response listener must both
// be installed before Navigate, or they miss the main document.
func (s *BrowserStrategy) Capture(ctx context.Context, rawURL string) (*models.Capture, error) {
	if err := s.connect(); err != nil {
		return nil, err
	}

	page, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("browser strategy: create page: %w", err)
	}
	defer func() { _ = page.Close() }()

	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		slog.Warn("stealth injection failed, proceeding without it", "error", err)
	}

	// A referer from a search results page lowers bot-wall friction on
	// some hosts.
	if u, err := url.Parse(rawURL); err == nil {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: proto.NetworkHeaders{
				"Referer":         gson.New("https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())),
				"Accept-Language": gson.New("en-US,en;q=0.9"),
			},
		}.Call(page)
	}

	// Main document response listener: delivers status + headers once.
	docResp := make(chan *proto.NetworkResponseReceived, 1)
	wait := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type == proto.NetworkResourceTypeDocument {
			select {
			case docResp <- e:
			default:
			}
			return true
		}
		return false
	})
	go wait()

	navCtx, cancel := context.WithTimeout(ctx, s.navTimeout)
	defer cancel()
	p := page.Context(navCtx)

	if err := p.Navigate(rawURL); err != nil {
		return nil, fmt.Errorf("browser strategy: navigate: %w", err)
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("DOM did not stabilise, capturing current state", "error", err)
	}

	html, err := p.HTML()
	if err != nil {
		return nil, fmt.Errorf("browser strategy: extract html: %w", err)
	}

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = rawURL
	}

	statusCode := 0
	headers := map[string]string{}
	select {
	case e := <-docResp:
		statusCode = e.Response.Status
		for k, v := range e.Response.Headers {
			headers[k] = v.Str()
		}
	case <-time.After(2 * time.Second):
		// Listener missed the document response (e.g. served from the
		// back-forward cache). Fall back to the performance timeline.
		statusCode = evalNavigationStatus(p)
	}

	cookieNames := []string{}
	if cookies, err := page.Cookies(nil); err == nil {
		for _, c := range cookies {
			cookieNames = append(cookieNames, c.Name)
		}
	}

	doc := &models.Capture{
		URL:           rawURL,
		FinalURL:      finalURL,
		StatusCode:    statusCode,
		Headers:       headers,
		HTML:          html,
		Cookies:       cookieNames,
		Timestamp:     time.Now().UTC(),
		CaptureMethod: s.Name(),
	}
	populateFromHTML(doc)
	return doc, nil
}

// evalStringOrEmpty evaluates a JS expression and returns the string
// result, swallowing any errors.
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// evalNavigationStatus reads the HTTP status of the navigation from the
// performance timeline, without any CDP event listener.
func evalNavigationStatus(page *rod.Page) int {
	res, err := page.Eval(`() => {
		try {
			const entries = performance.getEntriesByType("navigation");
			if (entries.length > 0) return entries[0].responseStatus || 0;
		} catch (e) {}
		return 0;
	}`)
	if err != nil {
		return 0
	}
	return res.Value.Int()
}
