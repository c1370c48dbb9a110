package engine

import (
	"fmt"
	"sort"

	"careermap/internal/models"
)

// SelectionState is one session's live filter over a shared Table.
// It is not safe for concurrent use; callers serialize events.
type SelectionState struct {
	table *Table

	class     models.ExperienceClass
	selected  map[int]bool
	displayed models.StateCountVector

	onChange func(models.View)
}

// Event is a user interaction applied atomically to a SelectionState.
type Event interface {
	apply(s *SelectionState) error
}

// SetExperience switches the active experience class.
type SetExperience struct {
	Class models.ExperienceClass
}

func (ev SetExperience) apply(s *SelectionState) error { return s.SetExperienceClass(ev.Class) }

// ToggleArea turns one career area on or off.
type ToggleArea struct {
	AreaID int
}

func (ev ToggleArea) apply(s *SelectionState) error { return s.ToggleCareerArea(ev.AreaID) }

// NewSelectionState starts a session on All with nothing selected.
func NewSelectionState(table *Table) *SelectionState {
	s := &SelectionState{
		table:    table,
		selected: make(map[int]bool),
	}
	s.reset(models.All)
	return s
}

// OnChange registers fn to receive a snapshot after every applied event.
func (s *SelectionState) OnChange(fn func(models.View)) {
	s.onChange = fn
}

// Dispatch applies ev and notifies the observer if it succeeded.
func (s *SelectionState) Dispatch(ev Event) error {
	if err := ev.apply(s); err != nil {
		return err
	}
	if s.onChange != nil {
		s.onChange(s.View())
	}
	return nil
}

func (s *SelectionState) reset(e models.ExperienceClass) {
	s.class = e
	clear(s.selected)
	s.displayed = s.table.combined(e).Clone()
}

// SetExperienceClass makes e active and drops the whole selection.
func (s *SelectionState) SetExperienceClass(e models.ExperienceClass) error {
	if !e.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownExperienceClass, int(e))
	}
	s.reset(e)
	return nil
}

// ToggleCareerArea flips one area. The first area selected replaces the
// unfiltered totals; deselecting the last area restores them from the table.
func (s *SelectionState) ToggleCareerArea(areaID int) error {
	i, ok := s.table.areaIndex[areaID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownCareerArea, areaID)
	}
	delta := s.table.cell(s.class, i)

	if !s.selected[areaID] {
		if len(s.selected) == 0 {
			s.displayed = delta.Clone()
		} else {
			s.displayed.AddInPlace(delta)
		}
		s.selected[areaID] = true
		return nil
	}

	delete(s.selected, areaID)
	if len(s.selected) == 0 {
		s.displayed = s.table.combined(s.class).Clone()
		return nil
	}
	s.displayed.SubFloorInPlace(delta)
	return nil
}

func (s *SelectionState) ExperienceClass() models.ExperienceClass { return s.class }

func (s *SelectionState) IsSelected(areaID int) bool { return s.selected[areaID] }

// SelectedCareerAreas returns the selected area ids in ascending order.
func (s *SelectionState) SelectedCareerAreas() []int {
	out := make([]int, 0, len(s.selected))
	for id := range s.selected {
		out = append(out, id)
	}
	sort.Ints(out)
	return out
}

// CurrentVector returns a copy of the displayed per-state counts.
func (s *SelectionState) CurrentVector() models.StateCountVector {
	return s.displayed.Clone()
}

// CurrentBarGeometry lists the bars in the active class's ranking order.
func (s *SelectionState) CurrentBarGeometry() []models.Bar {
	return s.table.bars(s.class, s.table.ranking(s.class), s.selected)
}

// View bundles the current vector with state names and bar geometry.
func (s *SelectionState) View() models.View {
	states := make([]models.StateCount, len(s.displayed))
	for i, c := range s.displayed {
		states[i] = models.StateCount{State: s.table.states[i], Count: c}
	}
	low, high := s.displayed.Bounds()
	return models.View{
		ExperienceClass: s.class.String(),
		Selected:        s.SelectedCareerAreas(),
		States:          states,
		Low:             low,
		High:            high,
		Bars:            s.CurrentBarGeometry(),
	}
}
