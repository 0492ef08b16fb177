package csvimport

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Columns recognized in an import batch upload
const (
	ColVariantID          = "variant_id"
	ColQuantity           = "quantity"
	ColNetPrice           = "net_price"
	ColWarrantyPeriodDays = "warranty_period_days"
	ColWarrantyExpiry     = "warranty_expiry"
	ColNotes              = "notes"
)

// BatchLine is one validated line of an uploaded delivery file
type BatchLine struct {
	VariantID          uuid.UUID
	Quantity           int64
	NetPrice           decimal.Decimal
	WarrantyPeriodDays *int
	WarrantyExpiry     *time.Time
	Notes              string
}

// BatchLineReader parses and validates batch line uploads
type BatchLineReader struct {
	maxRows   int
	maxErrors int
}

// BatchLineOption configures a BatchLineReader
type BatchLineOption func(*BatchLineReader)

// WithMaxRows caps the number of data rows accepted per file
func WithMaxRows(n int) BatchLineOption {
	return func(r *BatchLineReader) {
		r.maxRows = n
	}
}

// WithMaxErrors caps how many row errors are reported
func WithMaxErrors(n int) BatchLineOption {
	return func(r *BatchLineReader) {
		r.maxErrors = n
	}
}

// NewBatchLineReader creates a reader with sane limits
func NewBatchLineReader(opts ...BatchLineOption) *BatchLineReader {
	r := &BatchLineReader{
		maxRows:   10000,
		maxErrors: 100,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Read parses the whole file. It returns the valid lines and every
// validation error found; lines is nil when any row failed so a partial
// delivery is never recorded.
func (br *BatchLineReader) Read(r io.Reader) ([]BatchLine, *ErrorCollection, error) {
	parser, err := NewParser(r)
	if err != nil {
		return nil, nil, err
	}
	if err := parser.ParseHeader(); err != nil {
		return nil, nil, err
	}
	if missing := parser.MissingHeaders([]string{ColVariantID, ColQuantity, ColNetPrice}); len(missing) > 0 {
		return nil, nil, fmt.Errorf("missing required columns: %v", missing)
	}

	errs := NewErrorCollection(br.maxErrors)
	var lines []BatchLine
	rows := 0

	for {
		row, err := parser.ReadRow()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs.Add(parser.Line(), "", ErrCodeParsing, err.Error())
			continue
		}
		if row.IsEmpty() {
			continue
		}

		rows++
		if rows > br.maxRows {
			errs.Add(row.Line, "", ErrCodeTooLarge, fmt.Sprintf("file exceeds %d rows", br.maxRows))
			break
		}

		if line, ok := br.parseLine(row, errs); ok {
			lines = append(lines, line)
		}
	}

	if rows == 0 {
		return nil, errs, fmt.Errorf("file contains no data rows")
	}
	if errs.HasErrors() {
		return nil, errs, nil
	}
	return lines, errs, nil
}

func (br *BatchLineReader) parseLine(row *Row, errs *ErrorCollection) (BatchLine, bool) {
	var line BatchLine
	ok := true

	variantID, err := uuid.Parse(row.Get(ColVariantID))
	if err != nil || variantID == uuid.Nil {
		errs.Add(row.Line, ColVariantID, ErrCodeType, "must be a valid UUID")
		ok = false
	}
	line.VariantID = variantID

	qty, err := strconv.ParseInt(row.Get(ColQuantity), 10, 64)
	switch {
	case err != nil:
		errs.Add(row.Line, ColQuantity, ErrCodeType, "must be an integer")
		ok = false
	case qty <= 0:
		errs.Add(row.Line, ColQuantity, ErrCodeRange, "must be positive")
		ok = false
	default:
		line.Quantity = qty
	}

	price, err := decimal.NewFromString(row.Get(ColNetPrice))
	switch {
	case err != nil:
		errs.Add(row.Line, ColNetPrice, ErrCodeType, "must be a decimal number")
		ok = false
	case price.IsNegative():
		errs.Add(row.Line, ColNetPrice, ErrCodeRange, "cannot be negative")
		ok = false
	default:
		line.NetPrice = price
	}

	if v := row.Get(ColWarrantyPeriodDays); v != "" {
		days, err := strconv.Atoi(v)
		switch {
		case err != nil:
			errs.Add(row.Line, ColWarrantyPeriodDays, ErrCodeType, "must be an integer")
			ok = false
		case days <= 0:
			errs.Add(row.Line, ColWarrantyPeriodDays, ErrCodeRange, "must be positive")
			ok = false
		default:
			line.WarrantyPeriodDays = &days
		}
	}

	if v := row.Get(ColWarrantyExpiry); v != "" {
		expiry, err := parseDate(v)
		if err != nil {
			errs.Add(row.Line, ColWarrantyExpiry, ErrCodeType, "must be an RFC3339 timestamp or YYYY-MM-DD date")
			ok = false
		} else {
			line.WarrantyExpiry = &expiry
		}
	}

	notes := row.Get(ColNotes)
	if len(notes) > 500 {
		errs.Add(row.Line, ColNotes, ErrCodeLength, "cannot exceed 500 characters")
		ok = false
	}
	line.Notes = notes

	return line, ok
}

func parseDate(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
