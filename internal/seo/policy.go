package seo

import "github.com/pkordes/permitsite/internal/domain"

// Robots meta directives. The policy never emits a bare "noindex": link
// equity must keep flowing through deprioritised pages.
const (
	DirectiveIndex   = "index,follow"
	DirectiveNoindex = "noindex, follow"
)

// Sitemap priorities for permit pages. Quality collapses to exactly two tiers.
const (
	PriorityThin    = 0.3
	PriorityQuality = 0.8
)

// Priorities for pages that are not permit records.
// They are static policy and sit outside the thin/quality contract.
const (
	PriorityHome  = 1.0
	PriorityState = 0.7
)

// Verdict is the publication decision for one permit page.
// IsThin, RobotsDirective and SitemapPriority always agree; a Verdict is only
// ever built by Derive.
type Verdict struct {
	IsThin          bool    `json:"is_thin"`
	RobotsDirective string  `json:"robots_directive"`
	SitemapPriority float64 `json:"sitemap_priority"`
}

// Noindex reports whether the page asks to be left out of search results.
func (v Verdict) Noindex() bool { return v.IsThin }

// Derive maps a thin-content verdict onto the page directive and the sitemap
// priority.
func Derive(isThin bool) Verdict {
	if isThin {
		return Verdict{IsThin: true, RobotsDirective: DirectiveNoindex, SitemapPriority: PriorityThin}
	}
	return Verdict{IsThin: false, RobotsDirective: DirectiveIndex, SitemapPriority: PriorityQuality}
}

// Decide classifies p and derives its verdict. The page renderer and the
// sitemap builder must both consume the value returned here for a record.
func Decide(p domain.Permit) Verdict {
	return Derive(Classify(p).IsThin)
}

// Decision pairs a verdict with the signals that produced it.
type Decision struct {
	Signals Signals  `json:"signals"`
	Verdict Verdict  `json:"verdict"`
	Reasons []string `json:"reasons,omitempty"`
}

// Explain is Decide with its working shown.
func Explain(p domain.Permit) Decision {
	s := Classify(p)
	return Decision{Signals: s, Verdict: Derive(s.IsThin), Reasons: s.Reasons()}
}
