package engine

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"careermap/internal/models"
)

const scenarioTaxonomy = `id,first_step,starter_job,group_id,group_name,career_area_id,career_area_name
1,TRUE,FALSE,10,Software Engineers,1,Information Technology
2,FALSE,TRUE,10,Software Engineers,1,Information Technology
3,FALSE,FALSE,20,Registered Nurses,2,Health Care
`

const scenarioCounts = `State,1,2,3
A,10,0,7
B,5,20,1
`

const (
	area1 = 1
	area2 = 2
)

func scenarioParts(t *testing.T) (*Taxonomy, *CountStore) {
	t.Helper()
	tax, err := ParseTaxonomy(strings.NewReader(scenarioTaxonomy))
	require.NoError(t, err)
	store, err := ParseCounts(strings.NewReader(scenarioCounts), nil)
	require.NoError(t, err)
	t.Cleanup(store.Release)
	return tax, store
}

func scenarioTable(t *testing.T) *Table {
	t.Helper()
	tax, store := scenarioParts(t)
	table, err := Aggregate(tax, store, nil)
	require.NoError(t, err)
	return table
}

// randomDataset builds matching taxonomy and count tables. A few taxonomy
// ids are left out of the count table to exercise soft misses.
func randomDataset(seed uint64, occupations, areas, states int) (taxonomy, counts string) {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	flag := func() string {
		if rng.IntN(2) == 0 {
			return "FALSE"
		}
		return "TRUE"
	}

	var tb strings.Builder
	tb.WriteString("id,first_step,starter_job,group_id,group_name,career_area_id,career_area_name\n")
	for id := 1; id <= occupations; id++ {
		aid := 1 + rng.IntN(areas)
		gid := 100 + rng.IntN(areas*2)
		fmt.Fprintf(&tb, "%d,%s,%s,%d,\"Group %d\",%d,\"Area %d, general\"\n", id, flag(), flag(), gid, gid, aid, aid)
	}

	var cb strings.Builder
	cb.WriteString("State")
	present := make([]int, 0, occupations)
	for id := 1; id <= occupations; id++ {
		if id%17 == 0 {
			continue
		}
		present = append(present, id)
		fmt.Fprintf(&cb, ",%d", id)
	}
	cb.WriteString("\n")
	// Written in reverse so the store has to reorder them.
	for s := states - 1; s >= 0; s-- {
		fmt.Fprintf(&cb, "State %02d", s)
		for range present {
			fmt.Fprintf(&cb, ",%d", rng.IntN(500))
		}
		cb.WriteString("\n")
	}
	return tb.String(), cb.String()
}

func randomParts(t *testing.T, seed uint64) (*Taxonomy, *CountStore) {
	t.Helper()
	taxCSV, countCSV := randomDataset(seed, 120, 9, 12)
	tax, err := ParseTaxonomy(strings.NewReader(taxCSV))
	require.NoError(t, err)
	store, err := ParseCounts(strings.NewReader(countCSV), nil)
	require.NoError(t, err)
	t.Cleanup(store.Release)
	return tax, store
}

// groundTruth recomputes the displayed vector from scratch.
func groundTruth(tax *Taxonomy, store *CountStore, e models.ExperienceClass, selected []int) models.StateCountVector {
	if len(selected) == 0 {
		return store.Total(tax.ClassIDs(e))
	}
	var ids []models.OccupationID
	for _, aid := range selected {
		ids = append(ids, tax.areaClassIDs(aid, e)...)
	}
	return store.Total(ids)
}
