package loader

import (
	"errors"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/permitsite/internal/domain"
)

// Options tunes the rules Validate applies.
type Options struct {
	// StrictRelated makes a related_pages id that is not present in the batch
	// an error. By default such references are allowed so that data split
	// across several files or shards can be validated one piece at a time.
	StrictRelated bool
}

var availabilityValues = map[string]bool{"Yes": true, "No": true, "": true}

// Validate checks every record and the batch as a whole. It returns nil or an
// error joining one *DataError per problem found, so a single run reports
// everything wrong with the data rather than the first failure.
func Validate(permits []domain.Permit, opts Options) error {
	var errs []error

	ids := make(map[string]int, len(permits))
	keys := make(map[domain.CompositeKey]int, len(permits))

	for i, p := range permits {
		errs = append(errs, validateRecord(i, p)...)

		// Ids compare case-insensitively, as the uuid column in the record store does.
		if id := strings.ToLower(strings.TrimSpace(p.ID)); id != "" {
			if first, dup := ids[id]; dup {
				de := newDataError(i, p, "id", "duplicate id, first seen at permit[%d]", first)
				de.Err = domain.ErrDuplicateKey
				errs = append(errs, de)
			} else {
				ids[id] = i
			}
		}

		k := p.Key()
		if first, dup := keys[k]; dup {
			de := newDataError(i, p, "agency_short+request_type", "duplicate composite key, first seen at permit[%d]", first)
			de.Err = domain.ErrDuplicateKey
			errs = append(errs, de)
		} else {
			keys[k] = i
		}
	}

	if opts.StrictRelated {
		for _, de := range DanglingRelated(permits) {
			errs = append(errs, de)
		}
	}

	return errors.Join(errs...)
}

// DanglingRelated returns one DataError per related_pages entry that names an
// id absent from the batch. Callers that accept partial loads log these
// instead of failing.
func DanglingRelated(permits []domain.Permit) []*DataError {
	ids := make(map[string]bool, len(permits))
	for _, p := range permits {
		ids[strings.ToLower(p.ID)] = true
	}
	var out []*DataError
	for i, p := range permits {
		for _, rel := range p.RelatedPages {
			if !ids[strings.ToLower(rel)] {
				out = append(out, newDataError(i, p, "related_pages", "references unknown permit %s", rel))
			}
		}
	}
	return out
}

func validateRecord(i int, p domain.Permit) []error {
	var errs []error
	fail := func(field, format string, args ...any) {
		errs = append(errs, newDataError(i, p, field, format, args...))
	}

	switch {
	case strings.TrimSpace(p.ID) == "":
		fail("id", "is required")
	case !isUUIDv4(p.ID):
		fail("id", "must be a UUID v4, got %q", p.ID)
	}

	if words := strings.Fields(p.Name); len(words) != 2 {
		fail("name", "must be exactly 2 words, got %q (%d words)", p.Name, len(words))
	}
	if strings.TrimSpace(p.AgencyShort) == "" {
		fail("agency_short", "is required")
	}
	if strings.TrimSpace(p.RequestType) == "" {
		fail("request_type", "is required")
	}

	for j, faq := range p.FAQs {
		if strings.TrimSpace(faq.Question) == "" {
			fail("faqs", "entry %d is missing its question", j)
		}
		if strings.TrimSpace(faq.Answer) == "" {
			fail("faqs", "entry %d is missing its answer", j)
		}
	}

	for j, rel := range p.RelatedPages {
		switch {
		case !isUUIDv4(rel):
			fail("related_pages", "entry %d must be a UUID v4, got %q", j, rel)
		case strings.EqualFold(rel, p.ID):
			fail("related_pages", "entry %d references the permit itself", j)
		}
	}

	for field, v := range map[string]string{
		"online_available": p.OnlineAvailable,
		"api_available":    p.APIAvailable,
		"mcp_available":    p.MCPAvailable,
	} {
		if !availabilityValues[v] {
			fail(field, "must be Yes, No or empty, got %q", v)
		}
	}

	if d := strings.TrimSpace(p.DateExtracted); d != "" {
		if _, err := time.Parse(time.DateOnly, d); err != nil {
			fail("date_extracted", "must be YYYY-MM-DD, got %q", d)
		}
	}

	for field, v := range map[string]string{
		"payment_form_url": p.PaymentFormURL,
		"source_url":       p.SourceURL,
	} {
		if v = strings.TrimSpace(v); v != "" && !isWebURL(v) {
			fail(field, "must be an absolute http(s) URL, got %q", v)
		}
	}

	sortByField(errs)
	return errs
}

// isUUIDv4 accepts only the canonical 36-character hyphenated form.
func isUUIDv4(s string) bool {
	if len(s) != 36 {
		return false
	}
	id, err := uuid.Parse(s)
	return err == nil && id.Version() == 4 && id.Variant() == uuid.RFC4122
}

func isWebURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// sortByField orders a record's errors by field name so output is stable
// despite the map iteration above.
func sortByField(errs []error) {
	field := func(e error) string {
		var de *DataError
		if errors.As(e, &de) {
			return de.Field
		}
		return ""
	}
	slices.SortStableFunc(errs, func(a, b error) int {
		return strings.Compare(field(a), field(b))
	})
}
