package complaint

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
)

// Categories
const (
	CategoryWater       = "Water Issue"
	CategoryElectricity = "Electricity Problem"
	CategoryRoad        = "Road Maintenance"
	CategorySanitation  = "Sanitation"
	CategoryNoise       = "Noise Complaint"
	CategoryOther       = "Other"
)

// Statuses
const (
	StatusPending    = "Pending"
	StatusInProgress = "In-progress"
	StatusResolved   = "Resolved"
)

var (
	Categories = []string{CategoryWater, CategoryElectricity, CategoryRoad, CategorySanitation, CategoryNoise, CategoryOther}
	Statuses   = []string{StatusPending, StatusInProgress, StatusResolved}

	// OrderingFields maps the accepted ?ordering= fields to their column.
	OrderingFields = map[string]string{
		"createdAt": "created_at",
		"updatedAt": "updated_at",
		"status":    "status",
		"category":  "category",
	}
)

type Complaint struct {
	ID          string       `json:"id"`
	Title       string       `json:"complaintTitle"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Image       string       `json:"image,omitempty"`
	Status      string       `json:"status"`
	SubmittedBy core.UserRef `json:"submittedBy"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// NewComplaint is submitted as a multipart form, the image being a separate file part.
type NewComplaint struct {
	Title       string `json:"complaintTitle" form:"complaintTitle" validate:"required,notblank,max=200"`
	Description string `json:"description" form:"description" validate:"required,notblank"`
	Category    string `json:"category" form:"category" validate:"required,oneof='Water Issue' 'Electricity Problem' 'Road Maintenance' Sanitation 'Noise Complaint' Other"`
}

func (nc *NewComplaint) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.Category = core.CleanString(nc.Category)
	return validate.Struct(nc)
}

type UpdateStatus struct {
	Status string `json:"status" validate:"required,oneof=Pending In-progress Resolved"`
}

func (us *UpdateStatus) Validate(validate *validator.Validate) error {
	us.Status = core.CleanString(us.Status)
	return validate.Struct(us)
}

type QueryFilter struct {
	SubmittedBy string `query:"-"`
	Status      string `query:"status"`
	Category    string `query:"category"`
}
