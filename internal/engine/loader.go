package engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// --- 1. STRICT FIELD PARSERS ---

// fastCount parses "123" -> 123. Anything but ASCII digits is rejected,
// which also rejects a leading minus sign.
func fastCount(s string) (int64, bool) {
	if len(s) == 0 || len(s) > 18 {
		return 0, false
	}
	var n int64
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int64(c-'0')
	}
	return n, true
}

// fastInt parses a signed id such as "-3" or "42".
func fastInt(s string) (int, bool) {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg, s = true, s[1:]
	}
	n, ok := fastCount(s)
	if !ok {
		return 0, false
	}
	if neg {
		return -int(n), true
	}
	return int(n), true
}

// fastFlag accepts exactly the two spellings the taxonomy export uses.
func fastFlag(s string) (bool, bool) {
	switch s {
	case "TRUE":
		return true, true
	case "FALSE":
		return false, true
	}
	return false, false
}

// --- 2. CSV PLUMBING ---

type rowReader struct {
	table string
	r     *csv.Reader
	line  int
}

func newRowReader(table string, r io.Reader) *rowReader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return &rowReader{table: table, r: cr}
}

// next returns the next record, io.EOF at the end, or a SchemaError for
// malformed CSV. Blank lines are skipped by encoding/csv itself.
func (rr *rowReader) next() ([]string, error) {
	rec, err := rr.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, schemaErrorf(rr.table, pe.Line, "malformed row: %v", pe.Err)
		}
		return nil, fmt.Errorf("%s: read: %w", rr.table, err)
	}
	rr.line, _ = rr.r.FieldPos(0)
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	if rr.line == 1 && len(rec) > 0 {
		rec[0] = strings.TrimPrefix(rec[0], "\ufeff")
	}
	return rec, nil
}

// --- 3. MAIN LOADERS ---

func loggerOrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// LoadTaxonomy reads the occupation metadata table from path.
func LoadTaxonomy(path string, logger *slog.Logger) (*Taxonomy, error) {
	logger = loggerOrDefault(logger)
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open taxonomy: %w", err)
	}
	defer f.Close()

	tax, err := ParseTaxonomy(f)
	if err != nil {
		return nil, err
	}
	logger.Info("taxonomy loaded",
		"path", path,
		"occupations", tax.Len(),
		"career_areas", len(tax.CareerAreas()),
		"groups", len(tax.Groups()),
		"elapsed", time.Since(start))
	return tax, nil
}

// LoadCounts reads the per-state posting counts from path.
func LoadCounts(path string, logger *slog.Logger) (*CountStore, error) {
	logger = loggerOrDefault(logger)
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open counts: %w", err)
	}
	defer f.Close()

	store, err := ParseCounts(f, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("counts loaded",
		"path", path,
		"states", len(store.States()),
		"occupations", store.Len(),
		"elapsed", time.Since(start))
	return store, nil
}

// Load runs the whole startup pipeline: taxonomy, then counts, then the
// aggregation. Nothing is returned unless every stage succeeds.
func Load(taxonomyPath, countsPath string, logger *slog.Logger) (*Table, error) {
	logger = loggerOrDefault(logger)
	start := time.Now()

	tax, err := LoadTaxonomy(taxonomyPath, logger)
	if err != nil {
		return nil, err
	}
	store, err := LoadCounts(countsPath, logger)
	if err != nil {
		return nil, err
	}
	defer store.Release()

	table, err := Aggregate(tax, store, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("load complete",
		"career_areas", len(table.Areas()),
		"lookup_misses", store.Misses(),
		"fingerprint", table.ETag(),
		"elapsed", time.Since(start))
	return table, nil
}
