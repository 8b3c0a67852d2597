package marketplace

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
)

// Slot is a weekly availability window of a tutor.
type Slot struct {
	Day       string `json:"day" validate:"required,weekday"`
	StartTime string `json:"startTime" validate:"required,hhmm"`
	EndTime   string `json:"endTime" validate:"required,hhmm"`
}

type Skill struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Category     string       `json:"category"`
	Description  string       `json:"description"`
	Availability []Slot       `json:"availability"`
	OfferedBy    core.UserRef `json:"offeredBy"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// SkillRef is the part of a Skill embedded in sessions.
type SkillRef struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

func (s Skill) Ref() SkillRef {
	return SkillRef{ID: s.ID, Title: s.Title, Category: s.Category}
}

type NewSkill struct {
	Title        string `json:"title" validate:"required,notblank,max=200"`
	Category     string `json:"category" validate:"required,notblank,max=100"`
	Description  string `json:"description"`
	Availability []Slot `json:"availability" validate:"required,min=1,max=21,dive"`
}

func (ns *NewSkill) Validate(validate *validator.Validate) error {
	ns.Title = core.CleanString(ns.Title)
	ns.Category = core.CleanString(ns.Category)
	ns.Description = core.CleanString(ns.Description)
	cleanSlots(ns.Availability)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	return checkSlots(ns.Availability)
}

// UpdateSkill defines what may be changed on an existing Skill. Empty fields are kept.
type UpdateSkill struct {
	Title        string `json:"title" validate:"max=200"`
	Category     string `json:"category" validate:"max=100"`
	Description  string `json:"description"`
	Availability []Slot `json:"availability" validate:"omitempty,min=1,max=21,dive"`
}

func (us *UpdateSkill) Validate(validate *validator.Validate) error {
	us.Title = core.CleanString(us.Title)
	us.Category = core.CleanString(us.Category)
	us.Description = core.CleanString(us.Description)
	cleanSlots(us.Availability)

	if err := validate.Struct(us); err != nil {
		return err
	}
	return checkSlots(us.Availability)
}

func (us UpdateSkill) apply(s *Skill) {
	if us.Title != "" {
		s.Title = us.Title
	}
	if us.Category != "" {
		s.Category = us.Category
	}
	if us.Description != "" {
		s.Description = us.Description
	}
	if len(us.Availability) > 0 {
		s.Availability = us.Availability
	}
}

func cleanSlots(slots []Slot) {
	for i := range slots {
		slots[i].Day = core.CleanString(slots[i].Day)
		slots[i].StartTime = core.CleanString(slots[i].StartTime)
		slots[i].EndTime = core.CleanString(slots[i].EndTime)
	}
}

func checkSlots(slots []Slot) error {
	for i, slot := range slots {
		if slot.EndTime <= slot.StartTime {
			return core.NewFieldError(fmt.Sprintf("availability[%d].endTime", i), errEndBeforeStart)
		}
	}
	return nil
}

type SkillFilter struct {
	OfferedBy string `query:"-"`
	Category  string `query:"category"`
	// Search does a case-insensitive match on one of Skill.Title, Skill.Description or Skill.Category.
	Search string `query:"search"`
}

func (sf *SkillFilter) Clean() {
	sf.Category = core.CleanString(sf.Category)
	sf.Search = core.CleanString(sf.Search)
}
