package engine

import (
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync/atomic"

	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"careermap/internal/models"
)

const countsTable = "counts"

// CountStore holds posting counts in column form: one Arrow Int64 array per
// occupation, each with one value per state.
type CountStore struct {
	states  []string // sorted by collated name
	ids     []models.OccupationID
	columns map[models.OccupationID]*array.Int64

	misses atomic.Int64
	logger *slog.Logger
}

// ParseCounts reads a table whose header is (stateColumn, id1, id2, ...) and
// whose body rows are (stateName, count1, count2, ...).
func ParseCounts(r io.Reader, logger *slog.Logger) (*CountStore, error) {
	rr := newRowReader(countsTable, r)

	header, err := rr.next()
	if errors.Is(err, io.EOF) {
		return nil, schemaErrorf(countsTable, 0, "missing header row")
	}
	if err != nil {
		return nil, err
	}
	if len(header) < 1 {
		return nil, schemaErrorf(countsTable, 1, "header has no state column")
	}

	ids := make([]models.OccupationID, len(header)-1)
	seen := make(map[models.OccupationID]bool, len(ids))
	for i, cell := range header[1:] {
		n, ok := fastInt(cell)
		if !ok {
			return nil, schemaErrorf(countsTable, 1, "column %d: occupation id %q is not an integer", i+2, cell)
		}
		id := models.OccupationID(n)
		if seen[id] {
			return nil, schemaErrorf(countsTable, 1, "duplicate occupation id %d", id)
		}
		seen[id] = true
		ids[i] = id
	}

	// A. Read rows (row-major)
	type stateRow struct {
		name   string
		counts []int64
	}
	var rows []stateRow
	seenState := make(map[string]int)
	for {
		rec, err := rr.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := rr.line
		if len(rec) != len(header) {
			return nil, schemaErrorf(countsTable, row, "expected %d fields, got %d", len(header), len(rec))
		}
		name := rec[0]
		if name == "" {
			return nil, schemaErrorf(countsTable, row, "empty state name")
		}
		if prev, dup := seenState[name]; dup {
			return nil, schemaErrorf(countsTable, row, "duplicate state %q (first seen on row %d)", name, prev)
		}
		seenState[name] = row

		counts := make([]int64, len(ids))
		for i, cell := range rec[1:] {
			n, ok := fastCount(cell)
			if !ok {
				return nil, schemaErrorf(countsTable, row, "count %q for occupation %d is not a non-negative integer", cell, ids[i])
			}
			counts[i] = n
		}
		rows = append(rows, stateRow{name: name, counts: counts})
	}

	// B. Fix state order
	col := collate.New(language.AmericanEnglish)
	sort.SliceStable(rows, func(i, j int) bool {
		return col.CompareString(rows[i].name, rows[j].name) < 0
	})

	// C. Transpose into Arrow columns
	mem := memory.NewGoAllocator()
	s := &CountStore{
		states:  make([]string, len(rows)),
		ids:     ids,
		columns: make(map[models.OccupationID]*array.Int64, len(ids)),
		logger:  loggerOrDefault(logger),
	}
	for i, r := range rows {
		s.states[i] = r.name
	}
	b := array.NewInt64Builder(mem)
	defer b.Release()
	for c, id := range ids {
		b.Reserve(len(rows))
		for _, r := range rows {
			b.Append(r.counts[c])
		}
		s.columns[id] = b.NewInt64Array()
	}
	return s, nil
}

// NewCountStore builds a store directly from vectors already in state order.
// Every vector must have len(states) entries.
func NewCountStore(states []string, counts map[models.OccupationID]models.StateCountVector, logger *slog.Logger) (*CountStore, error) {
	mem := memory.NewGoAllocator()
	s := &CountStore{
		states:  append([]string(nil), states...),
		columns: make(map[models.OccupationID]*array.Int64, len(counts)),
		logger:  loggerOrDefault(logger),
	}
	for id := range counts {
		s.ids = append(s.ids, id)
	}
	sort.Slice(s.ids, func(i, j int) bool { return s.ids[i] < s.ids[j] })

	b := array.NewInt64Builder(mem)
	defer b.Release()
	for _, id := range s.ids {
		v := counts[id]
		if len(v) != len(states) {
			s.Release()
			return nil, schemaErrorf(countsTable, 0, "occupation %d has %d counts, want %d", id, len(v), len(states))
		}
		for _, c := range v {
			if c < 0 {
				s.Release()
				return nil, schemaErrorf(countsTable, 0, "occupation %d has negative count %d", id, c)
			}
		}
		b.AppendValues(v, nil)
		s.columns[id] = b.NewInt64Array()
	}
	return s, nil
}

// States returns the state names in vector order.
func (s *CountStore) States() []string {
	return append([]string(nil), s.states...)
}

// Len is the number of occupation columns.
func (s *CountStore) Len() int { return len(s.ids) }

func (s *CountStore) Has(id models.OccupationID) bool {
	_, ok := s.columns[id]
	return ok
}

// Vector returns a copy of one occupation's counts.
func (s *CountStore) Vector(id models.OccupationID) (models.StateCountVector, bool) {
	col, ok := s.columns[id]
	if !ok {
		return nil, false
	}
	return models.StateCountVector(col.Int64Values()).Clone(), true
}

// Total sums the vectors of ids elementwise. Ids the store does not know
// contribute zero; they are logged and counted in Misses.
func (s *CountStore) Total(ids []models.OccupationID) models.StateCountVector {
	out := models.NewStateCountVector(len(s.states))
	var missing []models.OccupationID
	for _, id := range ids {
		col, ok := s.columns[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		for i, v := range col.Int64Values() {
			out[i] += v
		}
	}
	if len(missing) > 0 {
		s.misses.Add(int64(len(missing)))
		s.logger.Warn("occupation ids missing from count table", "ids", missing)
	}
	return out
}

// Misses is how many lookups Total could not resolve so far.
func (s *CountStore) Misses() int64 { return s.misses.Load() }

// Release frees the Arrow buffers. The store must not be used afterwards.
func (s *CountStore) Release() {
	for id, col := range s.columns {
		col.Release()
		delete(s.columns, id)
	}
}
