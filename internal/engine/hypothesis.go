package engine

import (
	"net/url"
	"sort"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"

	"github.com/woai-art/shorts-news-us/internal/domain"
)

// Hypothesis is one structural guess about where article text lives. The
// ordered hypothesis table replaces per-site branching: specific semantic
// containers come first, generic fallbacks last, and the first hypothesis
// clearing its paragraph floor wins even if a later one would yield more.
type Hypothesis struct {
	// Container is a CSS selector for the element whose <p> children hold
	// the body text. "body" is the conventional last-resort entry.
	Container string
	// MinParagraphs is the number of accepted paragraphs the hypothesis
	// must produce to be taken. Zero means one.
	MinParagraphs int
	// ParagraphFloor is the minimum rune length of a paragraph before it
	// counts. Zero means the default floor.
	ParagraphFloor int
}

const defaultParagraphFloor = 20

// BodyText walks the hypothesis table in order and returns the concatenated
// paragraphs of the first hypothesis that clears its floor, preserving
// document order. Empty result means no hypothesis matched.
func BodyText(doc *goquery.Document, hyps []Hypothesis) string {
	for _, h := range hyps {
		paragraphs := paragraphsIn(doc.Find(h.Container).First(), h.paragraphFloor())
		min := h.MinParagraphs
		if min <= 0 {
			min = 1
		}
		if len(paragraphs) >= min {
			return strings.Join(paragraphs, " ")
		}
	}
	return ""
}

func (h Hypothesis) paragraphFloor() int {
	if h.ParagraphFloor > 0 {
		return h.ParagraphFloor
	}
	return defaultParagraphFloor
}

func paragraphsIn(scope *goquery.Selection, floor int) []string {
	var out []string
	scope.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if len([]rune(text)) < floor {
			return
		}
		if IsServiceText(text) {
			return
		}
		out = append(out, text)
	})
	return out
}

// serviceKeywords flags subscription prompts, share bars, legal footers and
// similar boilerplate that must never end up in the body text.
var serviceKeywords = []string{
	"subscribe",
	"newsletter",
	"advertisement",
	"click here",
	"read more",
	"related:",
	"follow us",
	"sign up",
	"sponsored",
	"by taboola",
	"watch live",
	"stream on",
	"turn on desktop notifications",
	"we'll notify you",
	"related topics",
	"privacy policy",
	"terms of use",
	"all rights reserved",
	"© 20",
}

// IsServiceText reports whether a paragraph is boilerplate rather than
// article prose.
func IsServiceText(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range serviceKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}

	// Very short fragments are menu items or link labels.
	if len([]rune(text)) < 30 {
		return true
	}

	// Timestamps, counters and similar all-digit fragments.
	digitsOnly := true
	for _, r := range text {
		if unicode.IsDigit(r) || unicode.IsSpace(r) || strings.ContainsRune(",.:", r) {
			continue
		}
		digitsOnly = false
		break
	}
	return digitsOnly
}

// TitleFromSelectors tries an ordered selector list; entries starting with
// "meta" read the content attribute, everything else the element text.
func TitleFromSelectors(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		var title string
		if strings.HasPrefix(sel, "meta") {
			title = strings.TrimSpace(doc.Find(sel).First().AttrOr("content", ""))
		} else {
			title = strings.TrimSpace(doc.Find(sel).First().Text())
		}
		if title != "" {
			return title
		}
	}
	return ""
}

// MetaContent returns the first non-empty content attribute among selectors.
func MetaContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if v := strings.TrimSpace(doc.Find(sel).First().AttrOr("content", "")); v != "" {
			return v
		}
	}
	return ""
}

// CleanTitle strips site-name suffixes such as " | The Hill" or " - ABC News".
func CleanTitle(title string, siteNames ...string) string {
	title = strings.TrimSpace(title)
	for _, name := range siteNames {
		for _, sep := range []string{" | ", " - ", " – ", " — "} {
			suffix := sep + name
			if strings.HasSuffix(strings.ToLower(title), strings.ToLower(suffix)) {
				title = strings.TrimSpace(title[:len(title)-len(suffix)])
			}
		}
	}
	return title
}

// adDomains lists ad networks and tracker hosts whose media must never be
// attached to a record.
var adDomains = []string{
	"flashtalking.com",
	"doubleclick.net",
	"googlesyndication.com",
	"googleadservices.com",
	"amazon-adsystem.com",
	"ads.yahoo.com",
	"advertising.com",
	"adnxs.com",
	"outbrain.com",
	"taboola.com",
	"scorecardresearch.com",
	"moatads.com",
}

var deniedURLKeywords = []string{"logo", "icon", "avatar", "favicon", "sprite", "pixel"}

// IsDeniedMediaURL screens a candidate media URL against the ad-network and
// decoration denylists. Unfetchable pseudo-schemes are denied outright.
func IsDeniedMediaURL(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	if lower == "" {
		return true
	}
	for _, prefix := range []string{"data:", "blob:", "javascript:", "#"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	for _, d := range adDomains {
		if strings.Contains(lower, d) {
			return true
		}
	}
	for _, kw := range deniedURLKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// MetaImages pulls og:image and twitter:image URLs. Metadata images are the
// strongest signal: they are curated per article and rarely decorative.
func MetaImages(doc *goquery.Document, pageURL string) []string {
	var out []string
	seen := map[string]struct{}{}

	add := func(raw string) {
		abs := AbsoluteURL(pageURL, strings.TrimSpace(raw))
		if abs == "" || IsDeniedMediaURL(abs) {
			return
		}
		if _, ok := seen[abs]; ok {
			return
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}

	doc.Find(`meta[property="og:image"], meta[name="twitter:image"], meta[name="twitter:image:src"]`).
		Each(func(_ int, s *goquery.Selection) {
			add(s.AttrOr("content", ""))
		})
	return out
}

// InlineImages collects up to limit in-body image URLs from the given scope,
// honoring lazy-load attributes and srcset.
func InlineImages(scope *goquery.Selection, pageURL string, limit int) []string {
	var out []string
	seen := map[string]struct{}{}

	scope.Find("img").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		src := img.AttrOr("src", "")
		if src == "" {
			src = img.AttrOr("data-src", "")
		}
		if src == "" {
			src = img.AttrOr("data-lazy-src", "")
		}
		if src == "" {
			if srcset := img.AttrOr("srcset", ""); srcset != "" {
				// A trailing comma or stray whitespace leaves empty entries.
				parts := strings.Split(srcset, ",")
				for i := len(parts) - 1; i >= 0 && src == ""; i-- {
					if fields := strings.Fields(parts[i]); len(fields) > 0 {
						src = fields[0]
					}
				}
			}
		}

		abs := AbsoluteURL(pageURL, strings.TrimSpace(src))
		if abs == "" || IsDeniedMediaURL(abs) {
			return true
		}
		if _, ok := seen[abs]; ok {
			return true
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
		return len(out) < limit
	})
	return out
}

// SortByImageScore orders candidate image URLs best-first using URL features:
// large rendition markers and hero keywords score up, thumbnails score down.
func SortByImageScore(urls []string) []string {
	sorted := make([]string, len(urls))
	copy(sorted, urls)
	sort.SliceStable(sorted, func(i, j int) bool {
		return imageScore(sorted[i]) > imageScore(sorted[j])
	})
	return sorted
}

func imageScore(rawURL string) int {
	s := strings.ToLower(rawURL)
	score := 0
	for _, size := range []string{"1200", "1920", "2000", "large"} {
		if strings.Contains(s, size) {
			score += 100
			break
		}
	}
	for _, kw := range []string{"feature", "hero", "main"} {
		if strings.Contains(s, kw) {
			score += 30
			break
		}
	}
	if strings.Contains(s, "thumbnail") {
		score -= 80
	}
	if strings.Contains(s, ".jpg") {
		score += 5
	}
	return score
}

// AbsoluteURL resolves ref against the page URL, returning "" when either is
// unparsable.
func AbsoluteURL(pageURL, ref string) string {
	if ref == "" {
		return ""
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

var videoExtensions = []string{".mp4", ".avi", ".mov", ".webm", ".mkv"}

// KindForURL classifies a media URL by extension and host hints so the
// acquirer can pick strategies and ceilings.
func KindForURL(rawURL string) domain.MediaKind {
	lower := strings.ToLower(rawURL)

	if strings.Contains(lower, "pbs.twimg.com") {
		switch {
		case strings.Contains(lower, "amplify_video"), strings.Contains(lower, "tweet_video"), strings.Contains(lower, ".mp4"):
			return domain.MediaVideo
		case strings.Contains(lower, ".gif"):
			return domain.MediaGIF
		default:
			return domain.MediaImage
		}
	}

	path := lower
	if u, err := url.Parse(lower); err == nil {
		path = u.Path
	}
	for _, ext := range videoExtensions {
		if strings.HasSuffix(path, ext) {
			return domain.MediaVideo
		}
	}
	if strings.HasSuffix(path, ".gif") {
		return domain.MediaGIF
	}
	return domain.MediaImage
}
