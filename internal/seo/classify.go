// Package seo decides, per permit record, whether the rendered page is
// indexable, and maps that decision onto the robots directive and sitemap
// priority the renderer emits. Classify and Derive are the only places the
// rule is written down; everything else imports them.
package seo

import (
	"strings"
	"unicode/utf8"

	"github.com/pkordes/permitsite/internal/domain"
)

// Thresholds of the thin-content rule. All comparisons are strict (<).
const (
	MinTotalContent   = 800
	MinCommonMistakes = 50
	MinDescription    = 200
	MinFAQs           = 3
)

// genericRequestPhrase marks boilerplate "apply for a license" permits.
const genericRequestPhrase = "apply for a business license"

// Signals holds every intermediate value of a classification so callers can
// explain why a page was or was not judged thin.
type Signals struct {
	DescriptionLength    int `json:"description_length"`
	TotalContentLength   int `json:"total_content_length"`
	CommonMistakesLength int `json:"common_mistakes_length"`
	CommunitySignalCount int `json:"community_signal_count"`
	FAQCount             int `json:"faq_count"`

	GenericRequest        bool `json:"is_generic_request"`
	MinimalContent        bool `json:"has_minimal_content"`
	MissingCommonMistakes bool `json:"missing_common_mistakes"`
	LacksCommunitySignal  bool `json:"lacks_community_signal"`
	ShortDescription      bool `json:"short_description"`

	IsThin bool `json:"is_thin"`
}

// Classify computes the thin-content verdict for one permit.
// It reads only fields of p, never fails, and returns the same value for the
// same record every time. Lengths are counted in characters, not bytes.
func Classify(p domain.Permit) Signals {
	var s Signals

	s.DescriptionLength = utf8.RuneCountInString(p.Description)
	s.CommonMistakesLength = utf8.RuneCountInString(p.CommonMistakes)
	s.TotalContentLength = s.DescriptionLength +
		utf8.RuneCountInString(p.Eligibility) +
		utf8.RuneCountInString(p.HowToDescription) +
		s.CommonMistakesLength

	s.CommunitySignalCount = len(p.CommunityFeedback) + len(p.UserTips)
	s.FAQCount = len(p.FAQs)

	s.GenericRequest = strings.Contains(strings.ToLower(p.RequestType), genericRequestPhrase)
	s.MinimalContent = s.TotalContentLength < MinTotalContent
	s.MissingCommonMistakes = s.CommonMistakesLength < MinCommonMistakes
	s.LacksCommunitySignal = s.CommunitySignalCount == 0 && s.FAQCount < MinFAQs
	s.ShortDescription = s.DescriptionLength < MinDescription

	s.IsThin = (s.GenericRequest && s.MinimalContent) ||
		(s.MinimalContent && s.MissingCommonMistakes && s.LacksCommunitySignal) ||
		s.ShortDescription

	return s
}

// Reasons lists the disqualifying conditions that fired, in rule order.
// It is empty when the page is not thin.
func (s Signals) Reasons() []string {
	var out []string
	if s.GenericRequest && s.MinimalContent {
		out = append(out, "generic request with minimal content")
	}
	if s.MinimalContent && s.MissingCommonMistakes && s.LacksCommunitySignal {
		out = append(out, "minimal content without common mistakes or community content")
	}
	if s.ShortDescription {
		out = append(out, "description shorter than 200 characters")
	}
	return out
}
