package techfeed

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
)

// Categories
const (
	CategoryNews        = "Tech News"
	CategoryHackathon   = "Hackathon"
	CategoryInternship  = "Internship"
	CategoryWorkshop    = "Workshop"
	CategoryConference  = "Conference"
	CategoryScholarship = "Scholarship"
)

var Categories = []string{CategoryNews, CategoryHackathon, CategoryInternship, CategoryWorkshop, CategoryConference, CategoryScholarship}

type Post struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Content   string       `json:"content"`
	Category  string       `json:"category"`
	Link      string       `json:"link,omitempty"`
	ExpiresAt *time.Time   `json:"expiresAt,omitempty"`
	CreatedBy core.UserRef `json:"createdBy"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// IsExpired reports whether the post has an expiry at or before now.
func (p Post) IsExpired(now time.Time) bool {
	return p.ExpiresAt != nil && !now.Before(*p.ExpiresAt)
}

type SavedPost struct {
	PostID  string    `json:"postId"`
	SavedAt time.Time `json:"savedAt"`
	Post    Post      `json:"post"`
}

type NewPost struct {
	Title     string     `json:"title" validate:"required,notblank,max=200"`
	Content   string     `json:"content" validate:"required,notblank"`
	Category  string     `json:"category" validate:"required,oneof='Tech News' Hackathon Internship Workshop Conference Scholarship"`
	Link      string     `json:"link" validate:"omitempty,url"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

func (np *NewPost) Validate(validate *validator.Validate) error {
	np.Title = core.CleanString(np.Title)
	np.Content = core.CleanString(np.Content)
	np.Category = core.CleanString(np.Category)
	np.Link = core.CleanString(np.Link)
	return validate.Struct(np)
}

// UpdatePost defines what may be changed on an existing Post. Empty fields are kept.
type UpdatePost struct {
	Title     string     `json:"title" validate:"max=200"`
	Content   string     `json:"content"`
	Category  string     `json:"category" validate:"omitempty,oneof='Tech News' Hackathon Internship Workshop Conference Scholarship"`
	Link      string     `json:"link" validate:"omitempty,url"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

func (up *UpdatePost) Validate(validate *validator.Validate) error {
	up.Title = core.CleanString(up.Title)
	up.Content = core.CleanString(up.Content)
	up.Category = core.CleanString(up.Category)
	up.Link = core.CleanString(up.Link)
	return validate.Struct(up)
}

func (up UpdatePost) apply(p *Post) {
	if up.Title != "" {
		p.Title = up.Title
	}
	if up.Content != "" {
		p.Content = up.Content
	}
	if up.Category != "" {
		p.Category = up.Category
	}
	if up.Link != "" {
		p.Link = up.Link
	}
	if up.ExpiresAt != nil {
		p.ExpiresAt = up.ExpiresAt
	}
}

type QueryFilter struct {
	Category string `query:"category"`
	// Search does a case-insensitive match on one of Post.Title or Post.Content.
	Search         string `query:"search"`
	IncludeExpired bool   `query:"includeExpired"`
	// ActiveAt excludes the posts expired at that time, unless zero.
	ActiveAt time.Time `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Category = core.CleanString(qf.Category)
	qf.Search = core.CleanString(qf.Search)
}
