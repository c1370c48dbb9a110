package engine

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careermap/internal/models"
)

func TestSelectionScenario(t *testing.T) {
	s := NewSelectionState(scenarioTable(t))

	steps := []struct {
		name string
		ev   Event
		want models.StateCountVector
	}{
		{"all", SetExperience{Class: models.All}, models.StateCountVector{17, 26}},
		{"area1 on, first selection", ToggleArea{AreaID: area1}, models.StateCountVector{10, 25}},
		{"area2 on", ToggleArea{AreaID: area2}, models.StateCountVector{17, 26}},
		{"area1 off", ToggleArea{AreaID: area1}, models.StateCountVector{7, 1}},
		{"area2 off, none left", ToggleArea{AreaID: area2}, models.StateCountVector{17, 26}},
	}
	for _, step := range steps {
		require.NoError(t, s.Dispatch(step.ev), step.name)
		assert.Equal(t, step.want, s.CurrentVector(), step.name)
	}
	assert.Empty(t, s.SelectedCareerAreas())
}

func TestNewSelectionStateDefaults(t *testing.T) {
	s := NewSelectionState(scenarioTable(t))

	assert.Equal(t, models.All, s.ExperienceClass())
	assert.Empty(t, s.SelectedCareerAreas())
	assert.Equal(t, models.StateCountVector{17, 26}, s.CurrentVector())
	for _, b := range s.CurrentBarGeometry() {
		assert.False(t, b.Selected)
		assert.Equal(t, models.ColorDefault, b.Color)
	}
}

func TestSetExperienceClassResets(t *testing.T) {
	s := NewSelectionState(scenarioTable(t))
	require.NoError(t, s.ToggleCareerArea(area1))
	require.True(t, s.IsSelected(area1))

	require.NoError(t, s.SetExperienceClass(models.OneYear))
	assert.Equal(t, models.OneYear, s.ExperienceClass())
	assert.Empty(t, s.SelectedCareerAreas())
	assert.False(t, s.IsSelected(area1))
	assert.Equal(t, models.StateCountVector{0, 20}, s.CurrentVector())

	// Bars re-rank under the new class: area2 has nothing at one year.
	bars := s.CurrentBarGeometry()
	assert.Equal(t, []int{area2, area1}, barIDs(bars))
	assert.Equal(t, int64(0), bars[0].Width)
	assert.Equal(t, int64(20), bars[1].Width)

	require.NoError(t, s.ToggleCareerArea(area1))
	assert.Equal(t, models.StateCountVector{0, 20}, s.CurrentVector())

	err := s.SetExperienceClass(models.ExperienceClass(9))
	assert.ErrorIs(t, err, ErrUnknownExperienceClass)
	assert.Equal(t, models.OneYear, s.ExperienceClass())
}

func TestToggleUnknownArea(t *testing.T) {
	s := NewSelectionState(scenarioTable(t))
	require.NoError(t, s.ToggleCareerArea(area2))

	err := s.Dispatch(ToggleArea{AreaID: 404})
	assert.ErrorIs(t, err, ErrUnknownCareerArea)
	assert.Equal(t, []int{area2}, s.SelectedCareerAreas())
	assert.Equal(t, models.StateCountVector{7, 1}, s.CurrentVector())
}

func TestBarGeometryMarksSelection(t *testing.T) {
	s := NewSelectionState(scenarioTable(t))
	require.NoError(t, s.ToggleCareerArea(area1))

	bars := s.CurrentBarGeometry()
	require.Len(t, bars, 2)
	assert.Equal(t, area1, bars[1].AreaID)
	assert.True(t, bars[1].Selected)
	assert.Equal(t, models.ColorSelected, bars[1].Color)
	assert.False(t, bars[0].Selected)
	assert.Equal(t, models.ColorDefault, bars[0].Color)
}

func TestCurrentVectorIsACopy(t *testing.T) {
	table := scenarioTable(t)
	s := NewSelectionState(table)

	v := s.CurrentVector()
	v[0] = -1
	assert.Equal(t, models.StateCountVector{17, 26}, s.CurrentVector())

	// Mutating one session never leaks into the shared table.
	require.NoError(t, s.ToggleCareerArea(area1))
	require.NoError(t, s.ToggleCareerArea(area2))
	cell, _ := table.Cell(models.All, area1)
	assert.Equal(t, models.StateCountVector{10, 25}, cell)
	combined, _ := table.Combined(models.All)
	assert.Equal(t, models.StateCountVector{17, 26}, combined)
}

func TestToggleReversible(t *testing.T) {
	tax, store := randomParts(t, 21)
	table, err := Aggregate(tax, store, nil)
	require.NoError(t, err)

	for _, e := range models.ExperienceClasses {
		s := NewSelectionState(table)
		require.NoError(t, s.SetExperienceClass(e))
		areas := table.Areas()
		require.NoError(t, s.ToggleCareerArea(areas[0].ID))
		require.NoError(t, s.ToggleCareerArea(areas[1].ID))

		for _, a := range areas {
			before := s.CurrentVector()
			require.NoError(t, s.ToggleCareerArea(a.ID))
			require.NoError(t, s.ToggleCareerArea(a.ID))
			assert.Equal(t, before, s.CurrentVector(), "%s area %d", e, a.ID)
		}
	}
}

func TestToggleOrderIndependent(t *testing.T) {
	table := scenarioTable(t)

	ab := NewSelectionState(table)
	require.NoError(t, ab.ToggleCareerArea(area1))
	require.NoError(t, ab.ToggleCareerArea(area2))

	ba := NewSelectionState(table)
	require.NoError(t, ba.ToggleCareerArea(area2))
	require.NoError(t, ba.ToggleCareerArea(area1))

	assert.Equal(t, ab.CurrentVector(), ba.CurrentVector())
	assert.Equal(t, ab.SelectedCareerAreas(), ba.SelectedCareerAreas())
}

func TestGroundTruthEquivalence(t *testing.T) {
	tax, store := randomParts(t, 99)
	table, err := Aggregate(tax, store, nil)
	require.NoError(t, err)
	areas := table.Areas()

	rng := rand.New(rand.NewPCG(5, 8))
	s := NewSelectionState(table)
	for step := 0; step < 500; step++ {
		if rng.IntN(20) == 0 {
			e := models.ExperienceClasses[rng.IntN(len(models.ExperienceClasses))]
			require.NoError(t, s.Dispatch(SetExperience{Class: e}))
		} else {
			a := areas[rng.IntN(len(areas))]
			require.NoError(t, s.Dispatch(ToggleArea{AreaID: a.ID}))
		}
		want := groundTruth(tax, store, s.ExperienceClass(), s.SelectedCareerAreas())
		require.Equal(t, want, s.CurrentVector(), "step %d", step)
	}
}

func TestOnChange(t *testing.T) {
	s := NewSelectionState(scenarioTable(t))

	var views []models.View
	s.OnChange(func(v models.View) { views = append(views, v) })

	require.NoError(t, s.Dispatch(ToggleArea{AreaID: area2}))
	require.NoError(t, s.Dispatch(SetExperience{Class: models.TwoYearPlus}))
	assert.Error(t, s.Dispatch(ToggleArea{AreaID: 77}))

	require.Len(t, views, 2)
	assert.Equal(t, "All", views[0].ExperienceClass)
	assert.Equal(t, []int{area2}, views[0].Selected)
	assert.Equal(t, []models.StateCount{{State: "A", Count: 7}, {State: "B", Count: 1}}, views[0].States)
	assert.Equal(t, int64(1), views[0].Low)
	assert.Equal(t, int64(7), views[0].High)

	assert.Equal(t, "At least 2 year", views[1].ExperienceClass)
	assert.Empty(t, views[1].Selected)
	assert.Equal(t, int64(5), views[1].Low)
	assert.Equal(t, int64(10), views[1].High)
}
