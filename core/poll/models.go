package poll

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/campus/core"
)

const (
	MinOptions = 2
	MaxOptions = 10
)

type Option struct {
	Text      string `json:"text"`
	VoteCount int    `json:"voteCount"`
}

type Poll struct {
	ID        string       `json:"id"`
	Question  string       `json:"question"`
	Options   []Option     `json:"options"`
	IsActive  bool         `json:"isActive"`
	ExpiresAt *time.Time   `json:"expiresAt,omitempty"`
	CreatedBy core.UserRef `json:"createdBy"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`

	// caller view
	HasVoted bool `json:"hasVoted"`
	UserVote *int `json:"userVote,omitempty"`
}

// IsOpen reports whether votes are accepted at now.
func (p Poll) IsOpen(now time.Time) bool {
	return p.IsActive && (p.ExpiresAt == nil || now.Before(*p.ExpiresAt))
}

func (p Poll) TotalVotes() int {
	var total int
	for _, opt := range p.Options {
		total += opt.VoteCount
	}
	return total
}

// SameOptions reports whether p and other list the same option texts in the same order.
func (p Poll) SameOptions(other Poll) bool {
	return equalTexts(p.optionTexts(), other.optionTexts())
}

func (p Poll) optionTexts() []string {
	texts := make([]string, 0, len(p.Options))
	for _, opt := range p.Options {
		texts = append(texts, opt.Text)
	}
	return texts
}

type Vote struct {
	PollID      string
	UserID      string
	OptionIndex int
	CreatedAt   time.Time
}

type NewPoll struct {
	Question  string     `json:"question" validate:"required,notblank,max=300"`
	Options   []string   `json:"options" validate:"required,min=2,max=10,dive,notblank,max=200"`
	IsActive  *bool      `json:"isActive"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

// Validate drops the blank options before validating.
func (np *NewPoll) Validate(validate *validator.Validate) error {
	np.Question = core.CleanString(np.Question)
	np.Options = cleanOptions(np.Options)
	return validate.Struct(np)
}

// UpdatePoll replaces the editable fields of a Poll.
// Options may only change while the poll has no votes.
type UpdatePoll struct {
	Question  string     `json:"question" validate:"required,notblank,max=300"`
	Options   []string   `json:"options" validate:"required,min=2,max=10,dive,notblank,max=200"`
	IsActive  *bool      `json:"isActive"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

func (up *UpdatePoll) Validate(validate *validator.Validate) error {
	up.Question = core.CleanString(up.Question)
	up.Options = cleanOptions(up.Options)
	return validate.Struct(up)
}

type VoteRequest struct {
	OptionIndex *int `json:"optionIndex" validate:"required,min=0"`
}

func (vr *VoteRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(vr)
}

type QueryFilter struct {
	// Active keeps the open polls when true and the closed ones when false.
	Active *bool `query:"active"`
	// Now is the time Active is evaluated at.
	Now time.Time `query:"-"`
}

type OptionResult struct {
	Text       string `json:"text"`
	VoteCount  int    `json:"voteCount"`
	Percentage int    `json:"percentage"`
}

type Results struct {
	Poll          Poll           `json:"poll"`
	TotalVotes    int            `json:"totalVotes"`
	Results       []OptionResult `json:"results"`
	WinningOption *OptionResult  `json:"winningOption,omitempty"`
}

// NewResults computes the share of each option, rounded to the nearest percent.
// The winning option is the first one with the most votes, if any vote was cast.
func NewResults(p Poll) Results {
	total := p.TotalVotes()
	res := Results{Poll: p, TotalVotes: total, Results: make([]OptionResult, 0, len(p.Options))}

	winner := -1
	for i, opt := range p.Options {
		var pct int
		if total > 0 {
			pct = int(math.Round(float64(opt.VoteCount) * 100 / float64(total)))
		}
		res.Results = append(res.Results, OptionResult{Text: opt.Text, VoteCount: opt.VoteCount, Percentage: pct})
		if total > 0 && (winner < 0 || opt.VoteCount > p.Options[winner].VoteCount) {
			winner = i
		}
	}
	if winner >= 0 {
		w := res.Results[winner]
		res.WinningOption = &w
	}
	return res
}

func cleanOptions(opts []string) []string {
	if opts == nil {
		return nil
	}
	cleaned := make([]string, 0, len(opts))
	for _, opt := range opts {
		if opt = core.CleanString(opt); opt != "" {
			cleaned = append(cleaned, opt)
		}
	}
	return cleaned
}
