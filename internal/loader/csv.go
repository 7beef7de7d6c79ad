package loader

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/pkordes/permitsite/internal/domain"
)

// arrayColumns hold JSON-encoded lists inside a single CSV cell.
var arrayColumns = map[string]bool{
	"community_feedback": true,
	"user_tips":          true,
	"faqs":               true,
	"related_pages":      true,
}

// ReadCSV decodes permits from a CSV export whose header row uses the JSON
// field names. Array columns carry JSON; related_pages may instead be a plain
// comma- or semicolon-separated list of ids. Empty cells become empty values.
// A cell holding invalid JSON is a data error for that row.
func ReadCSV(r io.Reader) ([]domain.Permit, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return []domain.Permit{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loader.ReadCSV: header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	permits := []domain.Permit{}
	var errs []error
	for idx := 0; ; idx++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("loader.ReadCSV: row %d: %w", idx+2, err)
		}

		p, err := decodeRow(header, row)
		if err != nil {
			de := &DataError{Index: idx, ID: p.ID, Key: p.Key(), Reason: err.Error(), Err: domain.ErrValidation}
			var fe *fieldError
			if errors.As(err, &fe) {
				de.Field = fe.field
				de.Reason = fe.err.Error()
			}
			errs = append(errs, de)
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

type fieldError struct {
	field string
	err   error
}

func (e *fieldError) Error() string { return e.field + ": " + e.err.Error() }
func (e *fieldError) Unwrap() error { return e.err }

// decodeRow builds a JSON object from the row and decodes it with the same
// rules as the JSON loader. Unknown columns are ignored. On error the partial
// permit still carries whatever identity fields were readable.
func decodeRow(header, row []string) (domain.Permit, error) {
	obj := make(map[string]json.RawMessage, len(header))
	var ident domain.Permit
	var firstErr error

	for i, col := range header {
		cell := ""
		if i < len(row) {
			cell = strings.TrimSpace(row[i])
		}
		switch col {
		case "id":
			ident.ID = cell
		case "agency_short":
			ident.AgencyShort = cell
		case "request_type":
			ident.RequestType = cell
		}

		if !arrayColumns[col] {
			b, _ := json.Marshal(cell)
			obj[col] = b
			continue
		}

		raw, err := arrayCell(col, cell)
		if err != nil && firstErr == nil {
			firstErr = &fieldError{field: col, err: err}
		}
		obj[col] = raw
	}
	if firstErr != nil {
		return ident, firstErr
	}

	b, err := json.Marshal(obj)
	if err != nil {
		return ident, err
	}
	var p domain.Permit
	if err := json.Unmarshal(b, &p); err != nil {
		return ident, err
	}
	return p, nil
}

func arrayCell(col, cell string) (json.RawMessage, error) {
	if cell == "" {
		return json.RawMessage("[]"), nil
	}
	if col == "related_pages" && !strings.HasPrefix(cell, "[") {
		ids := strings.FieldsFunc(cell, func(r rune) bool { return r == ',' || r == ';' || r == ' ' })
		b, _ := json.Marshal(ids)
		return b, nil
	}
	var v []json.RawMessage
	if err := json.Unmarshal([]byte(cell), &v); err != nil {
		return json.RawMessage("[]"), fmt.Errorf("invalid JSON array: %w", err)
	}
	return json.RawMessage(cell), nil
}

// ConvertCSVToJSON reads a CSV export from r and writes the equivalent JSON
// array to w. It returns the number of records converted. Conversion stops on
// the first batch containing a malformed row.
func ConvertCSVToJSON(r io.Reader, w io.Writer) (int, error) {
	permits, err := ReadCSV(r)
	if err != nil {
		return 0, err
	}
	if err := WriteJSON(w, permits); err != nil {
		return 0, err
	}
	return len(permits), nil
}
