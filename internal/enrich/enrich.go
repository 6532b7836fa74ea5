// Package enrich runs the secondary extraction pass against a business's own
// website: emails (plain and obfuscated), social profile links and a
// heuristically identified contact page.
package enrich

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/idna"

	"github.com/octobees/leads-generator/worker/internal/browser"
	"github.com/octobees/leads-generator/worker/internal/entity"
	"github.com/octobees/leads-generator/worker/internal/pattern"
)

// Logger is the logging capability required at construction.
type Logger interface {
	Printf(format string, v ...any)
}

const pageHTMLScript = `document.documentElement.outerHTML`

// Config tunes the enrichment pass. InvalidEmailPatterns extends the
// pattern library's built-in list; it stays configurable because the
// boundary of that list was never validated against real-world traffic.
type Config struct {
	FollowContactPage    bool
	NavigateTimeout      time.Duration
	InvalidEmailPatterns []string
}

// Enricher fetches and mines a business website through the page handle.
type Enricher struct {
	page browser.Page
	cfg  Config
	log  Logger
}

// New wires an enricher. The logger is required.
func New(page browser.Page, cfg Config, log Logger) *Enricher {
	if cfg.NavigateTimeout <= 0 {
		cfg.NavigateTimeout = 20 * time.Second
	}
	merged := make([]string, 0, len(pattern.DefaultInvalidEmailPatterns)+len(cfg.InvalidEmailPatterns))
	merged = append(merged, pattern.DefaultInvalidEmailPatterns...)
	merged = append(merged, cfg.InvalidEmailPatterns...)
	cfg.InvalidEmailPatterns = merged
	return &Enricher{page: page, cfg: cfg, log: log}
}

// Enrich mines the website. Failures reduce to an empty or partial record;
// the returned error exists for logging only and always accompanies the best
// record assembled so far.
func (e *Enricher) Enrich(ctx context.Context, websiteURL string) (entity.Enrichment, error) {
	result := entity.Enrichment{
		EmailsFound: []string{},
		Social:      map[string]string{},
	}

	base, err := url.Parse(websiteURL)
	if err != nil || base.Host == "" {
		return result, fmt.Errorf("invalid website url %q", websiteURL)
	}

	pageData, err := e.fetch(ctx, websiteURL)
	if err != nil {
		return result, err
	}

	e.mine(pageData, base, &result)

	if e.cfg.FollowContactPage && result.ContactPageURL != nil && *result.ContactPageURL != websiteURL {
		contactData, err := e.fetch(ctx, *result.ContactPageURL)
		if err != nil {
			e.log.Printf("enrich url=%s stage=contact_page err=%v", *result.ContactPageURL, err)
			return result, nil
		}
		// Base-page social values win on conflict; emails are unioned.
		var contact entity.Enrichment
		contact.Social = map[string]string{}
		e.mine(contactData, base, &contact)
		result.EmailsFound = unionEmails(result.EmailsFound, contact.EmailsFound)
		for platform, link := range contact.Social {
			if _, exists := result.Social[platform]; !exists {
				result.Social[platform] = link
			}
		}
	}

	return result, nil
}

// pageContent is everything one fetch yields for mining.
type pageContent struct {
	html     string
	bodyText string
	links    []string
	mailtos  []string
}

// fetch navigates to a URL and pulls HTML, body text and links through the
// page handle. A navigation timeout is tolerated: whatever rendered is used.
func (e *Enricher) fetch(ctx context.Context, pageURL string) (pageContent, error) {
	if err := e.page.Navigate(ctx, pageURL, e.cfg.NavigateTimeout); err != nil {
		e.log.Printf("enrich url=%s stage=navigate result=soft_timeout err=%v", pageURL, err)
	}

	var html string
	if err := e.page.Evaluate(ctx, pageHTMLScript, &html); err != nil {
		return pageContent{}, fmt.Errorf("read page html: %w", err)
	}

	content := pageContent{html: html}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// Regex mining over raw HTML still works without a parsed document.
		e.log.Printf("enrich url=%s stage=parse err=%v", pageURL, err)
		content.bodyText = html
		return content, nil
	}

	content.bodyText = doc.Find("body").Text()
	base, _ := url.Parse(pageURL)
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		if strings.HasPrefix(strings.ToLower(href), "mailto:") {
			addr := strings.TrimPrefix(href, "mailto:")
			addr = strings.SplitN(addr, "?", 2)[0]
			content.mailtos = append(content.mailtos, addr)
			return
		}
		if base != nil {
			if abs, err := base.Parse(href); err == nil {
				content.links = append(content.links, abs.String())
				return
			}
		}
		content.links = append(content.links, href)
	})

	return content, nil
}

// mine extracts emails, social links and a contact-page candidate from one
// fetched page into out.
func (e *Enricher) mine(content pageContent, base *url.URL, out *entity.Enrichment) {
	corpus := content.bodyText + "\n" + content.html + "\n" + strings.Join(content.mailtos, "\n")
	for _, candidate := range pattern.ExtractEmails(corpus) {
		if !e.validEmail(candidate) {
			continue
		}
		out.EmailsFound = unionEmails(out.EmailsFound, []string{candidate})
	}

	socialCorpus := content.html + "\n" + strings.Join(content.links, "\n")
	for _, link := range pattern.ExtractSocialLinks(socialCorpus) {
		if _, exists := out.Social[link.Platform]; !exists {
			out.Social[link.Platform] = link.URL
		}
	}

	if out.ContactPageURL == nil {
		if contact := findContactPage(content.links, base); contact != "" {
			out.ContactPageURL = &contact
		}
	}
}

// validEmail layers the denylist check with an IDNA domain check, so
// decorated or non-ASCII domains that cannot resolve are dropped early.
func (e *Enricher) validEmail(email string) bool {
	if !pattern.ValidEmail(email, e.cfg.InvalidEmailPatterns) {
		return false
	}
	domain := email[strings.LastIndex(email, "@")+1:]
	ascii, err := idna.Lookup.ToASCII(domain)
	return err == nil && ascii != ""
}

// findContactPage returns the first same-domain link whose path matches the
// contact vocabulary.
func findContactPage(links []string, base *url.URL) string {
	baseHost := strings.TrimPrefix(strings.ToLower(base.Host), "www.")
	for _, link := range links {
		u, err := url.Parse(link)
		if err != nil || u.Host == "" {
			continue
		}
		host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
		if host != baseHost {
			continue
		}
		if pattern.IsContactPath(u.Path) {
			return link
		}
	}
	return ""
}

func unionEmails(existing, incoming []string) []string {
	seen := make(map[string]struct{}, len(existing))
	for _, e := range existing {
		seen[e] = struct{}{}
	}
	for _, e := range incoming {
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		existing = append(existing, e)
	}
	return existing
}
