// Package symbols validates ticker symbols against a set loaded once at startup.
package symbols

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

//go:embed valid_symbols.csv
var defaultCSV []byte

// ErrEmptySet indicates a symbol source produced no symbols.
var ErrEmptySet = errors.New("symbol set is empty")

// Set is an immutable set of upper-cased ticker symbols.
// It is safe for concurrent use.
type Set struct {
	symbols map[string]struct{}
}

// Empty returns a set that rejects every symbol.
func Empty() *Set {
	return &Set{symbols: map[string]struct{}{}}
}

// New builds a set from literal symbols.
func New(symbols ...string) *Set {
	s := Empty()
	for _, sym := range symbols {
		if n := Normalize(sym); n != "" {
			s.symbols[n] = struct{}{}
		}
	}
	return s
}

// Load parses CSV from r. The first column of each record is the symbol;
// a leading "symbol" header row and blank symbols are skipped.
func Load(r io.Reader) (*Set, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	s := Empty()
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse symbols line %d: %w", line, err)
		}
		if len(record) == 0 {
			continue
		}
		sym := Normalize(record[0])
		if sym == "" || (line == 1 && sym == "SYMBOL") {
			continue
		}
		s.symbols[sym] = struct{}{}
	}

	if len(s.symbols) == 0 {
		return nil, ErrEmptySet
	}
	return s, nil
}

// LoadFile loads symbols from a CSV file on disk.
func LoadFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open symbols file: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// LoadDefault loads the symbol list compiled into the binary.
func LoadDefault() (*Set, error) {
	return Load(bytes.NewReader(defaultCSV))
}

// IsValid reports whether symbol is in the set, ignoring case and
// surrounding whitespace.
func (s *Set) IsValid(symbol string) bool {
	if s == nil {
		return false
	}
	_, ok := s.symbols[Normalize(symbol)]
	return ok
}

// Len returns the number of symbols in the set.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.symbols)
}

// WithPrefix returns up to limit symbols starting with prefix, sorted.
func (s *Set) WithPrefix(prefix string, limit int) []string {
	if s == nil || limit <= 0 {
		return nil
	}
	prefix = Normalize(prefix)
	out := make([]string, 0, limit)
	for sym := range s.symbols {
		if strings.HasPrefix(sym, prefix) {
			out = append(out, sym)
		}
	}
	sort.Strings(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Normalize returns the canonical form of a symbol.
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
