package marketplace

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
)

type Review struct {
	ID        string       `json:"id"`
	SessionID string       `json:"session"`
	Reviewer  core.UserRef `json:"reviewer"`
	Reviewee  core.UserRef `json:"reviewee"`
	Rating    int          `json:"rating"`
	Comment   string       `json:"comment"`
	CreatedAt time.Time    `json:"createdAt"`
}

type NewReview struct {
	SessionID string `json:"sessionId" validate:"required"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"required,notblank,max=1000"`
}

func (nr *NewReview) Validate(validate *validator.Validate) error {
	nr.SessionID = core.CleanString(nr.SessionID)
	nr.Comment = core.CleanString(nr.Comment)
	return validate.Struct(nr)
}

type ReviewFilter struct {
	Reviewee string
	Reviewer string
}

// RatingStats summarizes the reviews received by a user.
type RatingStats struct {
	Average float64 `json:"averageRating"`
	Count   int     `json:"reviewCount"`
}
