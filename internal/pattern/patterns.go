package pattern

import (
	"regexp"
	"strings"
)

// Email patterns. The plain pattern covers well-formed addresses; the
// obfuscated patterns reverse the three spellings commonly used to hide
// addresses from naive harvesters ("[at]/[dot]", "(at)/(dot)" and a spaced
// "name @ domain . tld"). Reversal happens in ReverseObfuscation.
var (
	PlainEmail = regexp.MustCompile(`(?i)\b[a-z0-9][a-z0-9._%+\-']*@[a-z0-9][a-z0-9.\-]*\.[a-z]{2,}\b`)

	bracketObfuscated = regexp.MustCompile(`(?i)\b([a-z0-9][a-z0-9._%+\-]*)\s*\[\s*at\s*\]\s*([a-z0-9][a-z0-9.\-]*)\s*\[\s*dot\s*\]\s*([a-z]{2,})\b`)
	parenObfuscated   = regexp.MustCompile(`(?i)\b([a-z0-9][a-z0-9._%+\-]*)\s*\(\s*at\s*\)\s*([a-z0-9][a-z0-9.\-]*)\s*\(\s*dot\s*\)\s*([a-z]{2,})\b`)
	spacedObfuscated  = regexp.MustCompile(`(?i)\b([a-z0-9][a-z0-9._%+\-]*)\s+@\s+([a-z0-9][a-z0-9.\-]*)\s+\.\s+([a-z]{2,})\b`)
)

// DefaultInvalidEmailPatterns rejects system addresses, hosting noise and
// file-extension false positives. The boundary of this list was never
// validated against real traffic, so it stays configurable rather than
// hardcoded into the validator.
var DefaultInvalidEmailPatterns = []string{
	"example.com",
	"example.org",
	"domain.com",
	"yourdomain",
	"email.com",
	"wixpress.com",
	"sentry.io",
	"sentry-next.wixpress.com",
	"cloudflare.com",
	"godaddy.com",
	"noreply@",
	"no-reply@",
	"donotreply@",
	"@2x.",
	".png",
	".jpg",
	".jpeg",
	".gif",
	".svg",
	".webp",
	".css",
	".js",
}

const (
	minEmailLength = 6
	maxEmailLength = 254
)

// ExtractEmails runs the plain and obfuscation-reversal patterns over the
// given text and returns deduplicated lowercase candidates in first-seen
// order. Validation against the invalid list is the caller's concern.
func ExtractEmails(text string) []string {
	seen := make(map[string]struct{})
	var out []string

	add := func(email string) {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			return
		}
		if _, dup := seen[email]; dup {
			return
		}
		seen[email] = struct{}{}
		out = append(out, email)
	}

	for _, m := range PlainEmail.FindAllString(text, -1) {
		add(m)
	}
	for _, re := range []*regexp.Regexp{bracketObfuscated, parenObfuscated, spacedObfuscated} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			add(m[1] + "@" + m[2] + "." + m[3])
		}
	}
	return out
}

// ValidEmail reports whether a lowercase candidate survives the length
// bounds and the invalid-pattern denylist.
func ValidEmail(email string, invalidPatterns []string) bool {
	if len(email) < minEmailLength || len(email) > maxEmailLength {
		return false
	}
	if !PlainEmail.MatchString(email) {
		return false
	}
	if strings.Count(email, "@") != 1 {
		return false
	}
	for _, bad := range invalidPatterns {
		if strings.Contains(email, bad) {
			return false
		}
	}
	return true
}

// SocialPlatforms maps a platform name to the host fragments that identify
// its profile URLs.
var SocialPlatforms = map[string][]string{
	"facebook":  {"facebook.com", "fb.com"},
	"instagram": {"instagram.com"},
	"linkedin":  {"linkedin.com"},
	"youtube":   {"youtube.com", "youtu.be"},
	"tiktok":    {"tiktok.com"},
	"twitter":   {"twitter.com", "x.com"},
	"pinterest": {"pinterest.com"},
}

var socialURL = regexp.MustCompile(`(?i)https?://[a-z0-9.\-]+/[^\s"'<>\\)]+`)

// SocialLink represents one discovered platform profile URL.
type SocialLink struct {
	Platform string
	URL      string
}

// ExtractSocialLinks scans text for social profile URLs, keeping the first
// non-bare-domain match per platform. A link whose path is empty or "/" is a
// bare domain (a share widget, not a profile) and is skipped.
func ExtractSocialLinks(text string) []SocialLink {
	claimed := make(map[string]struct{})
	var out []SocialLink

	for _, raw := range socialURL.FindAllString(text, -1) {
		link := strings.TrimRight(raw, ".,;")
		platform := SocialPlatformFor(link)
		if platform == "" {
			continue
		}
		if IsBareDomain(link) {
			continue
		}
		if _, dup := claimed[platform]; dup {
			continue
		}
		claimed[platform] = struct{}{}
		out = append(out, SocialLink{Platform: platform, URL: link})
	}
	return out
}

// SocialPlatformFor returns the platform name a URL belongs to, or "".
func SocialPlatformFor(rawURL string) string {
	lowered := strings.ToLower(rawURL)
	for platform, hosts := range SocialPlatforms {
		for _, host := range hosts {
			if strings.Contains(lowered, host+"/") || strings.HasSuffix(lowered, host) {
				return platform
			}
		}
	}
	return ""
}

// IsBareDomain reports whether a URL carries no meaningful path component.
func IsBareDomain(rawURL string) bool {
	stripped := rawURL
	if idx := strings.Index(stripped, "://"); idx >= 0 {
		stripped = stripped[idx+3:]
	}
	slash := strings.Index(stripped, "/")
	if slash < 0 {
		return true
	}
	path := strings.Trim(stripped[slash:], "/")
	path = strings.SplitN(path, "?", 2)[0]
	return path == ""
}

// ContactPathHints is the locale-aware vocabulary used to spot a contact or
// about page among same-domain links.
var ContactPathHints = []string{
	"contact",
	"contact-us",
	"contactus",
	"kontakt",
	"contacto",
	"contatti",
	"impressum",
	"about",
	"about-us",
	"aboutus",
	"uber-uns",
	"hubungi",
	"get-in-touch",
	"reach-us",
}

// IsContactPath reports whether a URL path segment matches the contact-page
// vocabulary.
func IsContactPath(path string) bool {
	lowered := strings.ToLower(path)
	for _, hint := range ContactPathHints {
		if strings.Contains(lowered, hint) {
			return true
		}
	}
	return false
}
