package models

import (
	"fmt"
	"strings"
)

// ExperienceClass partitions occupations by the experience a posting asks for.
type ExperienceClass int

const (
	All ExperienceClass = iota
	NoExperience
	OneYear
	TwoYearPlus
)

// ExperienceClasses lists every class, All first, in selector order.
var ExperienceClasses = []ExperienceClass{All, NoExperience, OneYear, TwoYearPlus}

// PartitionClasses are the three disjoint classes whose union is All.
var PartitionClasses = []ExperienceClass{NoExperience, OneYear, TwoYearPlus}

func (e ExperienceClass) String() string {
	switch e {
	case All:
		return "All"
	case NoExperience:
		return "None"
	case OneYear:
		return "At least 1 year"
	case TwoYearPlus:
		return "At least 2 year"
	}
	return fmt.Sprintf("ExperienceClass(%d)", int(e))
}

// Key is the short form used in query strings.
func (e ExperienceClass) Key() string {
	switch e {
	case All:
		return "all"
	case NoExperience:
		return "none"
	case OneYear:
		return "1_year"
	case TwoYearPlus:
		return "2_year"
	}
	return ""
}

func (e ExperienceClass) Valid() bool {
	return e >= All && e <= TwoYearPlus
}

// ClassifyExperience maps the two taxonomy flags to a partition class.
// StarterJob is ignored when FirstStep is set.
func ClassifyExperience(firstStep, starterJob bool) ExperienceClass {
	switch {
	case firstStep:
		return TwoYearPlus
	case starterJob:
		return OneYear
	default:
		return NoExperience
	}
}

// ParseExperienceClass accepts either the selector label or the short key.
// An empty string means All.
func ParseExperienceClass(s string) (ExperienceClass, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return All, true
	}
	for _, e := range ExperienceClasses {
		if strings.EqualFold(s, e.String()) || strings.EqualFold(s, e.Key()) {
			return e, true
		}
	}
	return All, false
}
