package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	apperrors "circle/internal/errors"
)

// Columns is the number of fields every data row must carry.
const Columns = 9

// dateLayouts are tried in order when parsing the date column.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
	time.RFC3339,
}

// Row is one data row of an import file.
type Row struct {
	// Line is the 1-based line of the row in the file, header included.
	Line                int
	Date                time.Time
	Description         string
	CategoryName        string
	PayeeName           string
	Notes               string
	Cleared             bool
	AccountName         string
	TransferAccountName string
	// Amount is the raw signed decimal; its scale depends on the account currency.
	Amount string
}

func formatError(line int, format string, args ...interface{}) error {
	return apperrors.WithMessage(apperrors.ErrImportFormat, fmt.Sprintf("line %d: ", line)+fmt.Sprintf(format, args...))
}

// ParseDate parses the date column.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Parse reads the whole file. The first record is a header and is skipped.
// Fewer than two records, or any malformed row, is an ImportFormat error.
func Parse(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, formatError(parseErr.Line, "%v", parseErr.Err)
		}
		return nil, apperrors.Wrap(apperrors.ErrImportFormat, err)
	}
	if len(records) < 2 {
		return nil, apperrors.WithMessage(apperrors.ErrImportFormat,
			fmt.Sprintf("Not enough data in the file: only %d record(s)", len(records)))
	}

	rows := make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		line := i + 2
		if len(record) != Columns {
			return nil, formatError(line, "expected %d columns, got %d", Columns, len(record))
		}
		for j := range record {
			record[j] = strings.TrimSpace(record[j])
		}

		if record[0] == "" {
			return nil, formatError(line, "date is required")
		}
		date, err := ParseDate(record[0])
		if err != nil {
			return nil, formatError(line, "%v", err)
		}
		if record[6] == "" {
			return nil, formatError(line, "account name is required")
		}
		if record[8] == "" {
			return nil, formatError(line, "amount is required")
		}

		rows = append(rows, Row{
			Line:                line,
			Date:                date,
			Description:         record[1],
			CategoryName:        record[2],
			PayeeName:           record[3],
			Notes:               record[4],
			Cleared:             strings.EqualFold(record[5], "cleared"),
			AccountName:         record[6],
			TransferAccountName: record[7],
			Amount:              record[8],
		})
	}
	return rows, nil
}

// Note joins the description and notes columns.
func (r Row) Note() string {
	switch {
	case r.Notes == "":
		return r.Description
	case r.Description == "":
		return r.Notes
	default:
		return fmt.Sprintf("%s (%s)", r.Description, r.Notes)
	}
}
