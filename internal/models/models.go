package models

// OccupationID is the key shared by the taxonomy and the count table.
type OccupationID int

// CareerArea is one cell of the career-area partition.
type CareerArea struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// OccupationGroup is the secondary grouping carried by the taxonomy.
type OccupationGroup struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Bar colors used by the career-area chart.
const (
	ColorDefault  = "#6baed6"
	ColorSelected = "#08519c"
)

// Bar is one row of the career-area bar chart.
type Bar struct {
	AreaID   int     `json:"area_id"`
	Tag      string  `json:"tag"`
	Width    int64   `json:"width"`
	XOffset  float64 `json:"x"`
	Selected bool    `json:"selected"`
	Color    string  `json:"color"`
}

type StateCount struct {
	State string `json:"state"`
	Count int64  `json:"count"`
}

// View is everything the presentation layer needs to redraw after an event.
type View struct {
	ExperienceClass string       `json:"experience_class"`
	Selected        []int        `json:"selected"`
	States          []StateCount `json:"states"`
	Low             int64        `json:"low"`
	High            int64        `json:"high"`
	Bars            []Bar        `json:"bars"`
}

type SessionView struct {
	ID string `json:"id"`
	View
}

type ExperienceRequest struct {
	Class string `json:"class"`
}

type Health struct {
	Status      string `json:"status"`
	States      int    `json:"states,omitempty"`
	CareerAreas int    `json:"career_areas,omitempty"`
	Sessions    int    `json:"sessions,omitempty"`
}
