package announcement

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
)

// Categories
const (
	CategoryExam    = "Exam"
	CategoryEvent   = "Event"
	CategoryHoliday = "Holiday"
)

var Categories = []string{CategoryExam, CategoryEvent, CategoryHoliday}

type Announcement struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	Category  string       `json:"category"`
	CreatedBy core.UserRef `json:"createdBy"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

type NewAnnouncement struct {
	Title    string `json:"title" validate:"required,notblank,max=200"`
	Content  string `json:"content" validate:"required,notblank"`
	Category string `json:"category" validate:"required,oneof=Exam Event Holiday"`
}

func (na *NewAnnouncement) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Content = core.CleanString(na.Content)
	na.Category = core.CleanString(na.Category)
	return validate.Struct(na)
}

// UpdateAnnouncement defines what may be changed on an existing Announcement. Empty fields are kept.
type UpdateAnnouncement struct {
	Title    string `json:"title" validate:"max=200"`
	Content  string `json:"content"`
	Category string `json:"category" validate:"omitempty,oneof=Exam Event Holiday"`
}

func (ua *UpdateAnnouncement) Validate(validate *validator.Validate) error {
	ua.Title = core.CleanString(ua.Title)
	ua.Content = core.CleanString(ua.Content)
	ua.Category = core.CleanString(ua.Category)
	return validate.Struct(ua)
}

func (ua UpdateAnnouncement) apply(a *Announcement) {
	if ua.Title != "" {
		a.Title = ua.Title
	}
	if ua.Content != "" {
		a.Content = ua.Content
	}
	if ua.Category != "" {
		a.Category = ua.Category
	}
}

type QueryFilter struct {
	Category string `query:"category"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Category == ""
}
