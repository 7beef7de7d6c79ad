// Package domain contains the core data types for the permit directory.
// It depends only on the standard library and is imported by every other
// internal package (loader, repo, seo, render, service, handler).
package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Permit is one government-permit offering at a jurisdiction.
// It is created by the loader or the record store and never mutated afterwards.
//
// Identity is ID (a UUID v4 string). The business key is the
// (AgencyShort, RequestType) pair, see Key.
type Permit struct {
	// Core identification
	ID          string `json:"id"`
	Name        string `json:"name"`
	AgencyShort string `json:"agency_short"`
	RequestType string `json:"request_type"`

	// Descriptive content
	Description    string `json:"description"`
	ProcessingTime Text   `json:"processing_time"`

	// Process details
	Cost             Text   `json:"cost"`
	HowToDescription string `json:"how_to_description"`
	PaymentFormURL   string `json:"payment_form_url"`

	// Volume & timing
	EstimatedMonthlyVolume Text   `json:"estimated_monthly_volume"`
	DeadlineWindow         string `json:"deadline_window"`
	EffortHours            Text   `json:"effort_hours"`

	// Availability flags: "Yes", "No" or empty.
	OnlineAvailable string `json:"online_available"`
	APIAvailable    string `json:"api_available"`
	MCPAvailable    string `json:"mcp_available"`

	// Metadata
	RelatedPages  []string `json:"related_pages"`
	DateExtracted string   `json:"date_extracted"`
	SourceURL     string   `json:"source_url"`
	AgencyFull    string   `json:"agency_full"`

	// Eligibility & scope
	Eligibility           string `json:"eligibility"`
	LocationApplicability string `json:"location_applicability"`
	DocumentRequirements  string `json:"document_requirements"`

	// Community content
	CommonMistakes    string    `json:"common_mistakes"`
	CommunityFeedback EntryList `json:"community_feedback"`
	UserTips          EntryList `json:"user_tips"`
	FAQs              FAQList   `json:"faqs"`

	// Agency contact
	AgencyPhone   string `json:"agency_phone"`
	AgencyEmail   string `json:"agency_email"`
	AgencyAddress string `json:"agency_address"`
	AgencyHours   string `json:"agency_hours"`

	VerifiedBy string `json:"verified_by"`
}

// Key returns the composite business key of the permit.
func (p Permit) Key() CompositeKey {
	return CompositeKey{AgencyShort: p.AgencyShort, RequestType: p.RequestType}
}

// CompositeKey is the (agency_short, request_type) pair that must uniquely
// identify a permit across the whole data set.
type CompositeKey struct {
	AgencyShort string
	RequestType string
}

func (k CompositeKey) String() string {
	return k.AgencyShort + "|||" + k.RequestType
}

// FAQ is a single question/answer pair shown on a permit page.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FAQList decodes from a JSON array, null, or the empty string.
// The empty string form appears in data converted from spreadsheets.
type FAQList []FAQ

func (l *FAQList) UnmarshalJSON(b []byte) error {
	if isBlankJSON(b) {
		*l = nil
		return nil
	}
	var out []FAQ
	if err := json.Unmarshal(b, &out); err != nil {
		return fmt.Errorf("faqs: %w", err)
	}
	*l = out
	return nil
}

// Entry is one free-form community contribution (a feedback note or a tip).
// In source data an entry is either a bare string or an object carrying the
// text under one of a few conventional keys plus an optional author.
type Entry struct {
	Text   string
	Author string
}

var entryTextKeys = []string{"text", "tip", "feedback", "comment", "content"}

func (e *Entry) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		return json.Unmarshal(b, &e.Text)
	}
	var obj map[string]any
	if err := json.Unmarshal(b, &obj); err != nil {
		return fmt.Errorf("entry must be a string or an object: %w", err)
	}
	for _, k := range entryTextKeys {
		if v, ok := obj[k].(string); ok {
			e.Text = v
			break
		}
	}
	for _, k := range []string{"author", "user", "name"} {
		if v, ok := obj[k].(string); ok {
			e.Author = v
			break
		}
	}
	return nil
}

func (e Entry) MarshalJSON() ([]byte, error) {
	if e.Author == "" {
		return json.Marshal(e.Text)
	}
	return json.Marshal(map[string]string{"text": e.Text, "author": e.Author})
}

// EntryList decodes from a JSON array, null, or the empty string.
type EntryList []Entry

func (l *EntryList) UnmarshalJSON(b []byte) error {
	if isBlankJSON(b) {
		*l = nil
		return nil
	}
	var out []Entry
	if err := json.Unmarshal(b, &out); err != nil {
		return err
	}
	*l = out
	return nil
}

// Text is a scalar field that is usually a string but is sometimes written
// as a JSON number or boolean (cost, effort hours, volumes).
// Non-string scalars keep their literal JSON spelling.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*t = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = Text(s)
	case len(b) > 0 && (b[0] == '[' || b[0] == '{'):
		return fmt.Errorf("expected a scalar, got %s", b[:1])
	default:
		*t = Text(b)
	}
	return nil
}

func (t Text) String() string { return string(t) }

// isBlankJSON reports whether b is null or a string containing only whitespace.
func isBlankJSON(b []byte) bool {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return true
	}
	if b[0] != '"' {
		return false
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return false
	}
	return strings.TrimSpace(s) == ""
}
