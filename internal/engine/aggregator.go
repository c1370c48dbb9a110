package engine

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"sort"
	"strconv"

	"github.com/zeebo/xxh3"
	"golang.org/x/sync/errgroup"

	"careermap/internal/models"
)

// classAgg is everything precomputed for one experience class.
type classAgg struct {
	cells    []models.StateCountVector // indexed like Table.areas
	totals   []int64                   // scalar total per area
	combined models.StateCountVector
	ranking  []int // area indexes, ascending by total
}

// Table is the immutable (experience class × career area) aggregation.
// It is safe for concurrent readers.
type Table struct {
	states    []string
	areas     []models.CareerArea
	areaIndex map[int]int

	classes  [len(classSlots)]classAgg
	baseline []int // combined cross-experience ranking

	fingerprint uint64
}

var classSlots = [...]models.ExperienceClass{models.All, models.NoExperience, models.OneYear, models.TwoYearPlus}

func slot(e models.ExperienceClass) int { return int(e) }

// Aggregate materializes Table[e, area] = store.Total(ids(area) ∩ ids(e)) for
// every class and area, then checks the sum invariants.
func Aggregate(tax *Taxonomy, store *CountStore, logger *slog.Logger) (*Table, error) {
	logger = loggerOrDefault(logger)

	t := &Table{
		states:    store.States(),
		areas:     tax.CareerAreas(),
		areaIndex: make(map[int]int),
	}
	for i, a := range t.areas {
		t.areaIndex[a.ID] = i
	}

	// 1. Parallel fan-out, one worker per class. Each writes only its own slot.
	var g errgroup.Group
	for _, e := range classSlots {
		g.Go(func() error {
			ca := &t.classes[slot(e)]
			ca.cells = make([]models.StateCountVector, len(t.areas))
			ca.totals = make([]int64, len(t.areas))
			for i, a := range t.areas {
				v := store.Total(tax.areaClassIDs(a.ID, e))
				ca.cells[i] = v
				ca.totals[i] = v.Sum()
			}
			ca.combined = store.Total(tax.ClassIDs(e))
			ca.ranking = rankAscending(t.areas, ca.totals)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// 2. Baseline order: areas ranked by their summed partition totals.
	combinedTotals := make([]int64, len(t.areas))
	for _, e := range models.PartitionClasses {
		for i, v := range t.classes[slot(e)].totals {
			combinedTotals[i] += v
		}
	}
	t.baseline = rankAscending(t.areas, combinedTotals)

	if err := t.verify(); err != nil {
		logger.Error("aggregation invariant violated", "error", err)
		return nil, err
	}

	t.fingerprint = t.hash()
	logger.Debug("aggregation complete",
		"states", len(t.states),
		"career_areas", len(t.areas),
		"fingerprint", t.ETag())
	return t, nil
}

// rankAscending orders area indexes by total, breaking ties by area ID.
func rankAscending(areas []models.CareerArea, totals []int64) []int {
	order := make([]int, len(areas))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if totals[a] != totals[b] {
			return totals[a] < totals[b]
		}
		return areas[a].ID < areas[b].ID
	})
	return order
}

// verify checks that each class's cells sum to its combined vector and that
// the partition classes sum to All.
func (t *Table) verify() error {
	n := len(t.states)
	for _, e := range classSlots {
		ca := &t.classes[slot(e)]
		sum := models.NewStateCountVector(n)
		for _, c := range ca.cells {
			sum.AddInPlace(c)
		}
		for i := range sum {
			if sum[i] != ca.combined[i] {
				return &InvariantError{Check: "career areas do not sum to class total", Class: e.String(), State: i, Want: ca.combined[i], Got: sum[i]}
			}
		}
	}

	sum := models.NewStateCountVector(n)
	for _, e := range models.PartitionClasses {
		sum.AddInPlace(t.classes[slot(e)].combined)
	}
	all := t.classes[slot(models.All)].combined
	for i := range sum {
		if sum[i] != all[i] {
			return &InvariantError{Check: "experience classes do not sum to All", Class: models.All.String(), State: i, Want: all[i], Got: sum[i]}
		}
	}
	return nil
}

func (t *Table) hash() uint64 {
	buf := make([]byte, 0, 8*len(t.states)*len(t.areas)*len(classSlots)+64)
	for _, s := range t.states {
		buf = append(buf, s...)
		buf = append(buf, 0)
	}
	for _, a := range t.areas {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(a.ID))
		buf = append(buf, a.Name...)
		buf = append(buf, 0)
	}
	for _, e := range classSlots {
		for _, c := range t.classes[slot(e)].cells {
			for _, v := range c {
				buf = binary.LittleEndian.AppendUint64(buf, uint64(v))
			}
		}
	}
	return xxh3.Hash(buf)
}

// States returns the state names in vector order.
func (t *Table) States() []string { return append([]string(nil), t.states...) }

// Areas returns every career area ordered by ID.
func (t *Table) Areas() []models.CareerArea { return append([]models.CareerArea(nil), t.areas...) }

func (t *Table) HasArea(areaID int) bool {
	_, ok := t.areaIndex[areaID]
	return ok
}

// Cell returns a copy of Table[e, area].
func (t *Table) Cell(e models.ExperienceClass, areaID int) (models.StateCountVector, error) {
	if !e.Valid() {
		return nil, ErrUnknownExperienceClass
	}
	i, ok := t.areaIndex[areaID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCareerArea, areaID)
	}
	return t.classes[slot(e)].cells[i].Clone(), nil
}

// AreaTotal is the scalar sum of Table[e, area] across states.
func (t *Table) AreaTotal(e models.ExperienceClass, areaID int) (int64, error) {
	if !e.Valid() {
		return 0, ErrUnknownExperienceClass
	}
	i, ok := t.areaIndex[areaID]
	if !ok {
		return 0, fmt.Errorf("%w: %d", ErrUnknownCareerArea, areaID)
	}
	return t.classes[slot(e)].totals[i], nil
}

// Combined returns a copy of CombinedStateVector(e).
func (t *Table) Combined(e models.ExperienceClass) (models.StateCountVector, error) {
	if !e.Valid() {
		return nil, ErrUnknownExperienceClass
	}
	return t.classes[slot(e)].combined.Clone(), nil
}

// Ranking returns e's bars in ascending order of total, none selected.
func (t *Table) Ranking(e models.ExperienceClass) ([]models.Bar, error) {
	if !e.Valid() {
		return nil, ErrUnknownExperienceClass
	}
	return t.bars(e, t.classes[slot(e)].ranking, nil), nil
}

// CombinedRanking is the baseline bar order across all experience classes.
func (t *Table) CombinedRanking() []models.Bar {
	return t.bars(models.All, t.baseline, nil)
}

func (t *Table) bars(e models.ExperienceClass, order []int, selected map[int]bool) []models.Bar {
	totals := t.classes[slot(e)].totals
	out := make([]models.Bar, len(order))
	for k, i := range order {
		a := t.areas[i]
		w := totals[i]
		b := models.Bar{
			AreaID:  a.ID,
			Tag:     a.Name,
			Width:   w,
			XOffset: float64(w) / 2,
			Color:   models.ColorDefault,
		}
		if selected[a.ID] {
			b.Selected = true
			b.Color = models.ColorSelected
		}
		out[k] = b
	}
	return out
}

// ETag is the quoted table fingerprint, suitable for an HTTP ETag header.
func (t *Table) ETag() string {
	return strconv.Quote(strconv.FormatUint(t.fingerprint, 16))
}

// cell and combined return the table's own vectors for read-only use.
func (t *Table) cell(e models.ExperienceClass, i int) models.StateCountVector {
	return t.classes[slot(e)].cells[i]
}

func (t *Table) combined(e models.ExperienceClass) models.StateCountVector {
	return t.classes[slot(e)].combined
}

func (t *Table) ranking(e models.ExperienceClass) []int {
	if e == models.All {
		return t.baseline
	}
	return t.classes[slot(e)].ranking
}
