package loader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pkordes/permitsite/internal/domain"
)

// ReadJSON decodes permits from r. The document is either an array of permit
// objects or a single permit object. Each element is decoded on its own so a
// malformed record is reported with its index.
func ReadJSON(r io.Reader) ([]domain.Permit, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("loader.ReadJSON: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []domain.Permit{}, nil
	}

	var raws []json.RawMessage
	if data[0] == '{' {
		raws = []json.RawMessage{data}
	} else if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("loader.ReadJSON: document must be an array of permits: %w", err)
	}

	permits := make([]domain.Permit, 0, len(raws))
	var errs []error
	for i, raw := range raws {
		var p domain.Permit
		if err := json.Unmarshal(raw, &p); err != nil {
			errs = append(errs, &DataError{Index: i, ID: peekID(raw), Reason: err.Error(), Err: domain.ErrValidation})
			continue
		}
		normalize(&p)
		permits = append(permits, p)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return permits, nil
}

// WriteJSON encodes permits as an indented JSON array, the on-disk format of
// data/permits/permits.json.
func WriteJSON(w io.Writer, permits []domain.Permit) error {
	if permits == nil {
		permits = []domain.Permit{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(permits); err != nil {
		return fmt.Errorf("loader.WriteJSON: %w", err)
	}
	return nil
}

// LoadFile reads permits from a .json or .csv file.
func LoadFile(path string) ([]domain.Permit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loader.LoadFile: %w", err)
	}
	defer f.Close()

	var permits []domain.Permit
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		permits, err = ReadJSON(f)
	case ".csv":
		permits, err = ReadCSV(f)
	default:
		return nil, fmt.Errorf("loader.LoadFile: unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, withSource(err, path)
	}
	return permits, nil
}

// Load reads permits from path. A directory is scanned (non-recursively) for
// .json and .csv files, which are read in lexical order and concatenated.
func Load(path string) ([]domain.Permit, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("loader.Load: %w", err)
	}
	if !info.IsDir() {
		return LoadFile(path)
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("loader.Load: %w", err)
	}
	var files []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".json" || ext == ".csv") {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	slices.Sort(files)

	all := []domain.Permit{}
	for _, f := range files {
		ps, err := LoadFile(f)
		if err != nil {
			return nil, err
		}
		all = append(all, ps...)
	}
	return all, nil
}

// normalize replaces nil lists with empty ones so records round-trip to JSON
// with [] rather than null.
func normalize(p *domain.Permit) {
	if p.RelatedPages == nil {
		p.RelatedPages = []string{}
	}
	if p.CommunityFeedback == nil {
		p.CommunityFeedback = domain.EntryList{}
	}
	if p.UserTips == nil {
		p.UserTips = domain.EntryList{}
	}
	if p.FAQs == nil {
		p.FAQs = domain.FAQList{}
	}
}

// peekID best-effort extracts the id of a record that failed to decode.
func peekID(raw json.RawMessage) string {
	var probe struct {
		ID any `json:"id"`
	}
	if json.Unmarshal(raw, &probe) != nil {
		return ""
	}
	if s, ok := probe.ID.(string); ok {
		return s
	}
	return ""
}

// withSource stamps the file name onto every DataError in err.
func withSource(err error, source string) error {
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		for _, e := range joined.Unwrap() {
			var de *DataError
			if errors.As(e, &de) {
				de.Source = source
			}
		}
		return err
	}
	var de *DataError
	if errors.As(err, &de) {
		de.Source = source
		return err
	}
	return fmt.Errorf("%s: %w", source, err)
}
