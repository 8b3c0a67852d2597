package marketplace

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
)

// Session statuses
const (
	StatusPending   = "Pending"
	StatusConfirmed = "Confirmed"
	StatusCompleted = "Completed"
	StatusCancelled = "Cancelled"
)

const dateLayout = "2006-01-02"

type TimeSlot struct {
	StartTime string `json:"startTime" validate:"required,hhmm"`
	EndTime   string `json:"endTime" validate:"required,hhmm"`
}

type Session struct {
	ID            string       `json:"id"`
	Skill         SkillRef     `json:"skill"`
	Tutor         core.UserRef `json:"tutor"`
	Learner       core.UserRef `json:"learner"`
	Date          string       `json:"date"` // YYYY-MM-DD
	TimeSlot      TimeSlot     `json:"timeSlot"`
	Status        string       `json:"status"`
	FeedbackGiven bool         `json:"feedbackGiven"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

// IsParticipant reports whether userID is the tutor or the learner.
func (s Session) IsParticipant(userID string) bool {
	return s.Tutor.ID == userID || s.Learner.ID == userID
}

func (s Session) isTerminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusCancelled
}

type NewSession struct {
	SkillID  string   `json:"skillId" validate:"required"`
	Date     string   `json:"date" validate:"required,datetime=2006-01-02"`
	TimeSlot TimeSlot `json:"timeSlot"`
}

func (ns *NewSession) Validate(validate *validator.Validate) error {
	ns.SkillID = core.CleanString(ns.SkillID)
	ns.Date = core.CleanString(ns.Date)
	ns.TimeSlot.StartTime = core.CleanString(ns.TimeSlot.StartTime)
	ns.TimeSlot.EndTime = core.CleanString(ns.TimeSlot.EndTime)

	if err := validate.Struct(ns); err != nil {
		return err
	}
	if ns.TimeSlot.EndTime <= ns.TimeSlot.StartTime {
		return core.NewFieldError("timeSlot.endTime", errEndBeforeStart)
	}
	return nil
}

type UpdateSessionStatus struct {
	Status string `json:"status" validate:"required,oneof=Confirmed Completed Cancelled"`
}

func (us *UpdateSessionStatus) Validate(validate *validator.Validate) error {
	us.Status = core.CleanString(us.Status)
	return validate.Struct(us)
}

type SessionFilter struct {
	// Participant matches sessions where the user is either the tutor or the learner.
	Participant string
	Status      string
}
