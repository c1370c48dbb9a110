package engine

import (
	"errors"
	"io"
	"sort"

	"careermap/internal/models"
)

const taxonomyTable = "taxonomy"

// Taxonomy is the parsed occupation metadata table.
type Taxonomy struct {
	ids        []models.OccupationID
	firstStep  map[models.OccupationID]bool
	starterJob map[models.OccupationID]bool

	classIDs map[models.ExperienceClass][]models.OccupationID

	areas     []models.CareerArea // ordered by ID
	areaIndex map[int]int
	areaIDs   map[int][]models.OccupationID
	areaOf    map[models.OccupationID]int

	groups  []models.OccupationGroup // ordered by ID
	groupID map[int][]models.OccupationID
}

// ParseTaxonomy reads rows of
// (id, firstStep, starterJob, groupId, groupName, careerAreaId, careerAreaName).
// The first row is a header and is skipped.
func ParseTaxonomy(r io.Reader) (*Taxonomy, error) {
	rr := newRowReader(taxonomyTable, r)

	t := &Taxonomy{
		firstStep:  make(map[models.OccupationID]bool),
		starterJob: make(map[models.OccupationID]bool),
		classIDs:   make(map[models.ExperienceClass][]models.OccupationID),
		areaIndex:  make(map[int]int),
		areaIDs:    make(map[int][]models.OccupationID),
		areaOf:     make(map[models.OccupationID]int),
		groupID:    make(map[int][]models.OccupationID),
	}
	areaName := make(map[int]string)
	groupName := make(map[int]string)
	seenAt := make(map[models.OccupationID]int)

	if _, err := rr.next(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, schemaErrorf(taxonomyTable, 0, "empty table")
		}
		return nil, err
	}

	for {
		rec, err := rr.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := rr.line

		if len(rec) != 7 {
			return nil, schemaErrorf(taxonomyTable, row, "expected 7 fields, got %d", len(rec))
		}

		n, ok := fastInt(rec[0])
		if !ok {
			return nil, schemaErrorf(taxonomyTable, row, "occupation id %q is not an integer", rec[0])
		}
		id := models.OccupationID(n)
		if prev, dup := seenAt[id]; dup {
			return nil, schemaErrorf(taxonomyTable, row, "duplicate occupation id %d (first seen on row %d)", id, prev)
		}
		seenAt[id] = row

		firstStep, ok := fastFlag(rec[1])
		if !ok {
			return nil, schemaErrorf(taxonomyTable, row, "unrecognized first-step flag %q", rec[1])
		}
		starterJob, ok := fastFlag(rec[2])
		if !ok {
			return nil, schemaErrorf(taxonomyTable, row, "unrecognized starter-job flag %q", rec[2])
		}

		gid, ok := fastInt(rec[3])
		if !ok {
			return nil, schemaErrorf(taxonomyTable, row, "group id %q is not an integer", rec[3])
		}
		if name, seen := groupName[gid]; seen && name != rec[4] {
			return nil, schemaErrorf(taxonomyTable, row, "group %d named both %q and %q", gid, name, rec[4])
		}
		groupName[gid] = rec[4]

		aid, ok := fastInt(rec[5])
		if !ok {
			return nil, schemaErrorf(taxonomyTable, row, "career area id %q is not an integer", rec[5])
		}
		if name, seen := areaName[aid]; seen && name != rec[6] {
			return nil, schemaErrorf(taxonomyTable, row, "career area %d named both %q and %q", aid, name, rec[6])
		}
		areaName[aid] = rec[6]

		t.ids = append(t.ids, id)
		t.firstStep[id] = firstStep
		t.starterJob[id] = starterJob
		class := models.ClassifyExperience(firstStep, starterJob)
		t.classIDs[class] = append(t.classIDs[class], id)
		t.groupID[gid] = append(t.groupID[gid], id)
		t.areaIDs[aid] = append(t.areaIDs[aid], id)
		t.areaOf[id] = aid
	}

	for aid, name := range areaName {
		t.areas = append(t.areas, models.CareerArea{ID: aid, Name: name})
	}
	sort.Slice(t.areas, func(i, j int) bool { return t.areas[i].ID < t.areas[j].ID })
	for i, a := range t.areas {
		t.areaIndex[a.ID] = i
	}

	for gid, name := range groupName {
		t.groups = append(t.groups, models.OccupationGroup{ID: gid, Name: name})
	}
	sort.Slice(t.groups, func(i, j int) bool { return t.groups[i].ID < t.groups[j].ID })

	return t, nil
}

// Len is the number of occupations in the taxonomy.
func (t *Taxonomy) Len() int { return len(t.ids) }

// IDs returns every occupation id in file order.
func (t *Taxonomy) IDs() []models.OccupationID {
	return append([]models.OccupationID(nil), t.ids...)
}

func (t *Taxonomy) FirstStep(id models.OccupationID) bool  { return t.firstStep[id] }
func (t *Taxonomy) StarterJob(id models.OccupationID) bool { return t.starterJob[id] }

// ClassIDs returns the occupations in e. All returns the whole universe.
func (t *Taxonomy) ClassIDs(e models.ExperienceClass) []models.OccupationID {
	if e == models.All {
		return t.IDs()
	}
	return append([]models.OccupationID(nil), t.classIDs[e]...)
}

// CareerAreas returns every area ordered by ID.
func (t *Taxonomy) CareerAreas() []models.CareerArea {
	return append([]models.CareerArea(nil), t.areas...)
}

// CareerAreaName looks up the display name of an area.
func (t *Taxonomy) CareerAreaName(areaID int) (string, bool) {
	i, ok := t.areaIndex[areaID]
	if !ok {
		return "", false
	}
	return t.areas[i].Name, true
}

func (t *Taxonomy) CareerAreaIDs(areaID int) []models.OccupationID {
	return append([]models.OccupationID(nil), t.areaIDs[areaID]...)
}

// CareerAreaOf returns the area an occupation belongs to.
func (t *Taxonomy) CareerAreaOf(id models.OccupationID) (int, bool) {
	aid, ok := t.areaOf[id]
	return aid, ok
}

func (t *Taxonomy) Groups() []models.OccupationGroup {
	return append([]models.OccupationGroup(nil), t.groups...)
}

func (t *Taxonomy) GroupIDs(groupID int) []models.OccupationID {
	return append([]models.OccupationID(nil), t.groupID[groupID]...)
}

// areaClassIDs is ids(area) ∩ ids(e), preserving file order.
func (t *Taxonomy) areaClassIDs(areaID int, e models.ExperienceClass) []models.OccupationID {
	ids := t.areaIDs[areaID]
	if e == models.All {
		return ids
	}
	out := make([]models.OccupationID, 0, len(ids))
	for _, id := range ids {
		if models.ClassifyExperience(t.firstStep[id], t.starterJob[id]) == e {
			out = append(out, id)
		}
	}
	return out
}
