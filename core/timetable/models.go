package timetable

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
)

// Days lists the week days a class can be scheduled on.
var Days = core.Weekdays[:5]

const errEndBeforeStart = "end time must be after start time"

type Entry struct {
	ID        string    `json:"id"`
	DayOfWeek string    `json:"dayOfWeek"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
	Subject   string    `json:"subject"`
	Location  string    `json:"location"`
	Faculty   string    `json:"faculty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewEntry is also used for full updates.
type NewEntry struct {
	DayOfWeek string `json:"dayOfWeek" validate:"required,oneof=Monday Tuesday Wednesday Thursday Friday"`
	StartTime string `json:"startTime" validate:"required,hhmm"`
	EndTime   string `json:"endTime" validate:"required,hhmm"`
	Subject   string `json:"subject" validate:"required,notblank,max=200"`
	Location  string `json:"location" validate:"required,notblank,max=200"`
	Faculty   string `json:"faculty" validate:"required,notblank,max=200"`
}

func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.DayOfWeek = core.CleanString(ne.DayOfWeek)
	ne.StartTime = core.CleanString(ne.StartTime)
	ne.EndTime = core.CleanString(ne.EndTime)
	ne.Subject = core.CleanString(ne.Subject)
	ne.Location = core.CleanString(ne.Location)
	ne.Faculty = core.CleanString(ne.Faculty)

	if err := validate.Struct(ne); err != nil {
		return err
	}
	// HH:MM strings sort chronologically
	if ne.EndTime <= ne.StartTime {
		return core.NewFieldError("endTime", errEndBeforeStart)
	}
	return nil
}

type QueryFilter struct {
	DayOfWeek string `query:"day"`
}
