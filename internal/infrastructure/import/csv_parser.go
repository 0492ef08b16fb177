// Package csvimport parses uploaded CSV files into import batch lines.
// Input must be UTF-8; headers are matched case-insensitively.
package csvimport

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Parser reads a CSV stream with a mandatory header row
type Parser struct {
	reader    *csv.Reader
	headers   []string
	headerIdx map[string]int
	line      int
}

// ParserOption configures a Parser
type ParserOption func(*Parser)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(p *Parser) {
		p.reader.Comma = d
	}
}

// NewParser creates a parser and verifies the stream starts with valid UTF-8
func NewParser(r io.Reader, opts ...ParserOption) (*Parser, error) {
	buf := bufio.NewReader(r)
	if err := checkUTF8(buf); err != nil {
		return nil, err
	}

	cr := csv.NewReader(buf)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	p := &Parser{reader: cr}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// checkUTF8 peeks at the stream and rejects content that is not UTF-8.
// A UTF-8 BOM is tolerated and consumed.
func checkUTF8(r *bufio.Reader) error {
	bom, err := r.Peek(3)
	if err == nil && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		if _, err := r.Discard(3); err != nil {
			return err
		}
	}

	peek, err := r.Peek(1024)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return err
	}
	// Trim a possibly split trailing rune before validating
	for len(peek) > 0 && !utf8.Valid(peek) {
		peek = peek[:len(peek)-1]
		if len(peek) < 1021 {
			return fmt.Errorf("file is not valid UTF-8")
		}
	}
	return nil
}

// ParseHeader reads the header row and builds the column index
func (p *Parser) ParseHeader() error {
	record, err := p.reader.Read()
	if err == io.EOF {
		return fmt.Errorf("file is empty")
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.headers = make([]string, len(record))
	p.headerIdx = make(map[string]int, len(record))
	for i, h := range record {
		name := strings.ToLower(strings.TrimSpace(h))
		p.headers[i] = name
		p.headerIdx[name] = i
	}
	p.line = 1
	return nil
}

// Headers returns the lower-cased header names in file order
func (p *Parser) Headers() []string {
	return p.headers
}

// MissingHeaders returns which of the required columns are absent
func (p *Parser) MissingHeaders(required []string) []string {
	var missing []string
	for _, name := range required {
		if _, ok := p.headerIdx[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// Row is one data row keyed by header name
type Row struct {
	Line   int
	fields map[string]string
}

// Get returns the trimmed value for a column, or "" if absent
func (r *Row) Get(header string) string {
	return r.fields[header]
}

// IsEmpty reports whether every field is blank
func (r *Row) IsEmpty() bool {
	for _, v := range r.fields {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow reads the next data row. Returns io.EOF at end of input.
func (p *Parser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if err != nil {
		return nil, err
	}
	p.line++

	fields := make(map[string]string, len(p.headers))
	for name, idx := range p.headerIdx {
		if idx < len(record) {
			fields[name] = strings.TrimSpace(record[idx])
		}
	}
	return &Row{Line: p.line, fields: fields}, nil
}

// Line returns the current 1-based line number (header is line 1)
func (p *Parser) Line() int {
	return p.line
}
