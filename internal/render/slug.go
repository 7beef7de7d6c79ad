package render

import (
	"path"
	"regexp"
	"strings"

	"github.com/pkordes/permitsite/internal/domain"
)

var (
	nonSlug   = regexp.MustCompile(`[^\w\s-]`)
	slugSpace = regexp.MustCompile(`[-\s_]+`)

	// "within the city limits of Austin, Texas." / "Austin, Texas"
	locationPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:within the city limits of|city limits of|operating within(?:\s+the\s+(?:city\s+)?(?:limits\s+of)?)?|within)\s+([^,]+),\s*([^.]+)`),
		regexp.MustCompile(`([^,]+),\s*([^.]+)`),
	}
	cityPrefix = regexp.MustCompile(`(?i)^(the\s+)?(city and county of|city of|county of|town of|municipality of|city\s+limits\s+of)\s+`)
	citySuffix = regexp.MustCompile(`(?i)\s+city\s+limits$`)
)

// Slugify lowercases s and reduces it to letters, digits and single hyphens.
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = nonSlug.ReplaceAllString(s, "")
	s = slugSpace.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// Location is the jurisdiction a permit applies to, parsed from its free-text
// location_applicability.
type Location struct {
	City  string
	State string
}

// ParseLocation extracts city and state from text such as
// "Within the city limits of Austin, Texas." Text with no comma is taken as a
// state name on its own.
func ParseLocation(text string) Location {
	text = strings.TrimSpace(text)
	if text == "" {
		return Location{}
	}
	for _, re := range locationPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		city := strings.TrimSpace(m[1])
		city = cityPrefix.ReplaceAllString(city, "")
		city = strings.TrimSpace(citySuffix.ReplaceAllString(city, ""))
		state := strings.TrimRight(strings.TrimSpace(m[2]), ".")
		return Location{City: city, State: state}
	}
	return Location{State: strings.TrimRight(text, ".")}
}

// PagePath returns the site-relative URL path of a permit page:
// /{state}/{city}/{request-type}/, dropping the city segment when the location
// names none and falling back to the agency when it names no state either.
func PagePath(p domain.Permit) string {
	loc := ParseLocation(p.LocationApplicability)

	var segs []string
	if s := Slugify(loc.State); s != "" {
		segs = append(segs, s)
		if c := Slugify(loc.City); c != "" {
			segs = append(segs, c)
		}
	} else {
		segs = append(segs, Slugify(p.AgencyShort))
	}
	segs = append(segs, Slugify(p.RequestType))

	return "/" + path.Join(segs...) + "/"
}

// SectionPath returns the path of the listing page a permit page sits under,
// i.e. the first segment of PagePath.
func SectionPath(pagePath string) string {
	seg, _, _ := strings.Cut(strings.TrimPrefix(pagePath, "/"), "/")
	return "/" + seg + "/"
}
