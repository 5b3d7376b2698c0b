// Package validate implements the content-quality gate applied to every
// extracted record before it is accepted. All checks are independent
// predicates; a failing check appends a reason instead of raising.
package validate

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/woai-art/shorts-news-us/internal/domain"
)

// Limits bounds the title and body length bands. Zero fields fall back to the
// defaults below.
type Limits struct {
	TitleMin int
	TitleMax int
	BodyMin  int
	BodyMax  int
}

// DefaultLimits returns the standard bands shared by most sources.
func DefaultLimits() Limits {
	return Limits{TitleMin: 10, TitleMax: 300, BodyMin: 50, BodyMax: 2000}
}

func (l Limits) withDefaults() Limits {
	d := DefaultLimits()
	if l.TitleMin <= 0 {
		l.TitleMin = d.TitleMin
	}
	if l.TitleMax <= 0 {
		l.TitleMax = d.TitleMax
	}
	if l.BodyMin <= 0 {
		l.BodyMin = d.BodyMin
	}
	if l.BodyMax <= 0 {
		l.BodyMax = d.BodyMax
	}
	return l
}

// Policy is the per-source validation policy: length bands plus the
// mandatory-media flag.
type Policy struct {
	Limits       Limits
	RequireMedia bool
}

// Verdict is the outcome of a validation pass. Reasons are human-readable and
// logged verbatim.
type Verdict struct {
	Accepted bool
	Reasons  []string
}

func (v *Verdict) reject(format string, args ...any) {
	v.Accepted = false
	v.Reasons = append(v.Reasons, fmt.Sprintf(format, args...))
}

// Reason joins all reasons for logging.
func (v Verdict) Reason() string {
	return strings.Join(v.Reasons, "; ")
}

// placeholderTitles are headlines so generic they cannot identify a story.
var placeholderTitles = map[string]struct{}{
	"breaking news": {},
	"news":          {},
	"update":        {},
	"breaking":      {},
	"live updates":  {},
}

// botChallengeSignatures mark pages served by an anti-bot interstitial
// instead of the article.
var botChallengeSignatures = []string{
	"please verify you are human",
	"checking your browser",
	"captcha",
	"cloudflare",
	"access denied",
	"verification required",
	"human verification",
	"you are blocked",
	"access blocked",
	"request blocked",
}

// llmPlaceholders catch a downstream summarizer's non-answer leaking back
// into stored content.
var llmPlaceholders = []string{
	"please provide the news article",
	"i need the text of the article",
	"i need the news story",
	"please provide the news",
	"i need the content",
	"please provide content",
	"i need more information",
	"please provide more details",
}

// Check runs every gate against the record. Checks are independent so the
// verdict carries all failures, not just the first.
func Check(record domain.ContentRecord, policy Policy) Verdict {
	verdict := Verdict{Accepted: true}
	limits := policy.Limits.withDefaults()

	title := strings.TrimSpace(record.Title)
	body := strings.TrimSpace(record.BodyText)

	switch {
	case title == "":
		verdict.reject("title is missing")
	case len([]rune(title)) < limits.TitleMin:
		verdict.reject("title is too short (%d < %d)", len([]rune(title)), limits.TitleMin)
	case len([]rune(title)) > limits.TitleMax:
		verdict.reject("title is too long (%d > %d)", len([]rune(title)), limits.TitleMax)
	}

	if _, ok := placeholderTitles[strings.ToLower(title)]; ok {
		verdict.reject("title %q is a placeholder", title)
	}
	if strings.Contains(title, "{") && strings.Contains(title, "}") {
		verdict.reject("title contains raw JSON")
	}

	switch {
	case body == "":
		verdict.reject("body text is missing")
	case len([]rune(body)) < limits.BodyMin:
		verdict.reject("body text is too short (%d < %d)", len([]rune(body)), limits.BodyMin)
	case len([]rune(body)) > limits.BodyMax:
		verdict.reject("body text is too long (%d > %d)", len([]rune(body)), limits.BodyMax)
	}

	lowerBody := strings.ToLower(body)
	for _, sig := range botChallengeSignatures {
		if strings.Contains(lowerBody, sig) {
			verdict.reject("bot challenge detected: %q", sig)
			break
		}
	}

	for _, sig := range llmPlaceholders {
		if strings.Contains(lowerBody, sig) {
			verdict.reject("llm placeholder detected: %q", sig)
			break
		}
	}

	if body != "" {
		if distinctRunes(body) < 10 {
			verdict.reject("body text is degenerate: too few distinct characters")
		}
		if ratio := nonAlnumRatio(body); ratio > 0.3 {
			verdict.reject("body text is degenerate: %.0f%% non-alphanumeric", ratio*100)
		}
	}

	if policy.RequireMedia && record.MediaCount() == 0 {
		verdict.reject("source requires media but none was acquired")
	}

	return verdict
}

// MediaOnlyFailure reports whether the verdict failed solely on the
// mandatory-media policy, which is the one gate a fallback image set can cure.
func (v Verdict) MediaOnlyFailure() bool {
	if v.Accepted || len(v.Reasons) != 1 {
		return false
	}
	return strings.Contains(v.Reasons[0], "requires media")
}

func distinctRunes(s string) int {
	set := map[rune]struct{}{}
	for _, r := range s {
		set[r] = struct{}{}
	}
	return len(set)
}

func nonAlnumRatio(s string) float64 {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}
	var special int
	for _, r := range runes {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !unicode.IsSpace(r) {
			special++
		}
	}
	return float64(special) / float64(len(runes))
}
