package poll

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
)

var (
	// errors
	ErrNotFound      = core.NewNotFoundError("poll not found")
	ErrAlreadyVoted  = core.NewValidationError(errors.New("You have already voted on this poll"))
	ErrPollClosed    = core.NewValidationError(errors.New("This poll is no longer accepting votes"))
	ErrInvalidOption = core.NewFieldError("optionIndex", "Invalid option index")
	ErrOptionsLocked = core.NewFieldError("options", "options cannot be changed once votes have been cast")
	errPastExpiry    = "Expiry date must be in the future"
)

type (
	Repository interface {
		CreatePoll(ctx context.Context, p Poll) (Poll, error)
		GetPoll(ctx context.Context, id string) (Poll, error)
		// QueryPolls returns the matching polls, newest first.
		QueryPolls(ctx context.Context, filter QueryFilter) ([]Poll, error)
		// UpdatePoll stores the fields of p. Stored vote counts are kept unless the option texts change,
		// which fails with ErrOptionsLocked once the poll has votes.
		UpdatePoll(ctx context.Context, p Poll) (Poll, error)
		DeletePoll(ctx context.Context, id string) error

		// CreateVote records v and increments the count of its option in one step.
		// It returns ErrAlreadyVoted if the user already voted on the poll
		// and ErrInvalidOption if the poll has no option at v.OptionIndex.
		CreateVote(ctx context.Context, v Vote) (Poll, error)
		// GetUserVotes returns the option voted by userID on each of pollIDs.
		// Polls without a vote from userID are missing from the result.
		GetUserVotes(ctx context.Context, userID string, pollIDs ...string) (map[string]int, error)
	}

	Service interface {
		Create(ctx context.Context, author core.UserRef, np NewPoll) (Poll, error)
		// Get returns the poll with the voting state of userID.
		Get(ctx context.Context, userID, id string) (Poll, error)
		Query(ctx context.Context, userID string, filter QueryFilter) ([]Poll, error)
		Update(ctx context.Context, id string, up UpdatePoll) (Poll, error)
		Delete(ctx context.Context, id string) error
		Vote(ctx context.Context, userID, id string, optionIndex int) (Poll, error)
		Results(ctx context.Context, userID, id string) (Results, error)
	}

	service struct {
		repo   Repository
		cache  core.Cache
		logger core.Logger
		clock  clockwork.Clock
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, cache core.Cache, logger core.Logger, clock clockwork.Clock) Service {
	return &service{repo: repo, cache: cache, logger: logger, clock: clock}
}

func resultsCacheKey(id string) string {
	return "polls:results:" + id
}

// Create stores a new poll, active unless np.IsActive is false. NewPoll must have been validated.
func (svc *service) Create(ctx context.Context, author core.UserRef, np NewPoll) (Poll, error) {
	now := svc.clock.Now().UTC()
	if np.ExpiresAt != nil && !np.ExpiresAt.After(now) {
		return Poll{}, core.NewFieldError("expiresAt", errPastExpiry)
	}

	p := Poll{
		ID:        uuid.NewString(),
		Question:  np.Question,
		Options:   make([]Option, 0, len(np.Options)),
		IsActive:  np.IsActive == nil || *np.IsActive,
		ExpiresAt: utc(np.ExpiresAt),
		CreatedBy: author,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, text := range np.Options {
		p.Options = append(p.Options, Option{Text: text})
	}

	p, err := svc.repo.CreatePoll(ctx, p)
	return p, errors.Wrap(err, "creating poll")
}

func (svc *service) Get(ctx context.Context, userID, id string) (Poll, error) {
	p, err := svc.repo.GetPoll(ctx, id)
	if err != nil {
		return Poll{}, err
	}
	polls, err := svc.withUserVotes(ctx, userID, p)
	if err != nil {
		return Poll{}, err
	}
	return polls[0], nil
}

func (svc *service) Query(ctx context.Context, userID string, filter QueryFilter) ([]Poll, error) {
	filter.Now = svc.clock.Now().UTC()
	polls, err := svc.repo.QueryPolls(ctx, filter)
	if err != nil {
		return nil, err
	}
	return svc.withUserVotes(ctx, userID, polls...)
}

// Update replaces the poll fields. UpdatePoll must have been validated.
func (svc *service) Update(ctx context.Context, id string, up UpdatePoll) (Poll, error) {
	p, err := svc.repo.GetPoll(ctx, id)
	if err != nil {
		return Poll{}, err
	}

	now := svc.clock.Now().UTC()
	if up.ExpiresAt != nil && !up.ExpiresAt.After(now) && !sameTime(up.ExpiresAt, p.ExpiresAt) {
		return Poll{}, core.NewFieldError("expiresAt", errPastExpiry)
	}
	if !equalTexts(p.optionTexts(), up.Options) {
		if p.TotalVotes() > 0 {
			return Poll{}, ErrOptionsLocked
		}
		p.Options = make([]Option, 0, len(up.Options))
		for _, text := range up.Options {
			p.Options = append(p.Options, Option{Text: text})
		}
	}

	p.Question = up.Question
	if up.IsActive != nil {
		p.IsActive = *up.IsActive
	}
	p.ExpiresAt = utc(up.ExpiresAt)
	p.UpdatedAt = now

	p, err = svc.repo.UpdatePoll(ctx, p)
	if err != nil {
		if err == ErrOptionsLocked {
			return Poll{}, err
		}
		return Poll{}, errors.Wrap(err, "updating poll")
	}
	svc.invalidate(ctx, id)
	return p, nil
}

func (svc *service) Delete(ctx context.Context, id string) error {
	if err := svc.repo.DeletePoll(ctx, id); err != nil {
		return err
	}
	svc.invalidate(ctx, id)
	return nil
}

// Vote records the single vote of userID on poll id.
// The poll must be open and optionIndex must designate one of its options.
func (svc *service) Vote(ctx context.Context, userID, id string, optionIndex int) (Poll, error) {
	p, err := svc.repo.GetPoll(ctx, id)
	if err != nil {
		return Poll{}, err
	}

	now := svc.clock.Now().UTC()
	if !p.IsOpen(now) {
		return Poll{}, ErrPollClosed
	}
	if optionIndex < 0 || optionIndex >= len(p.Options) {
		return Poll{}, ErrInvalidOption
	}

	p, err = svc.repo.CreateVote(ctx, Vote{PollID: id, UserID: userID, OptionIndex: optionIndex, CreatedAt: now})
	if err != nil {
		if err == ErrAlreadyVoted || err == ErrInvalidOption {
			return Poll{}, err
		}
		return Poll{}, errors.Wrap(err, "creating vote")
	}
	svc.invalidate(ctx, id)

	p.HasVoted = true
	p.UserVote = &optionIndex
	return p, nil
}

// Results returns the vote breakdown of poll id. Results are cached until the next write on the poll.
func (svc *service) Results(ctx context.Context, userID, id string) (Results, error) {
	key := resultsCacheKey(id)

	var res Results
	found, err := svc.cache.Get(ctx, key, &res)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("reading %s from cache: %v", key, err), err)
	}
	if !found {
		p, err := svc.repo.GetPoll(ctx, id)
		if err != nil {
			return Results{}, err
		}
		res = NewResults(p)
		if err := svc.cache.Set(ctx, key, res, 0); err != nil {
			svc.logger.Warn(fmt.Sprintf("writing %s to cache: %v", key, err), err)
		}
	}

	polls, err := svc.withUserVotes(ctx, userID, res.Poll)
	if err != nil {
		return Results{}, err
	}
	res.Poll = polls[0]
	return res, nil
}

func (svc *service) withUserVotes(ctx context.Context, userID string, polls ...Poll) ([]Poll, error) {
	if userID == "" || len(polls) == 0 {
		return polls, nil
	}
	ids := make([]string, 0, len(polls))
	for _, p := range polls {
		ids = append(ids, p.ID)
	}
	votes, err := svc.repo.GetUserVotes(ctx, userID, ids...)
	if err != nil {
		return nil, errors.Wrap(err, "getting user votes")
	}
	for i := range polls {
		polls[i].HasVoted, polls[i].UserVote = false, nil
		if idx, ok := votes[polls[i].ID]; ok {
			idx := idx
			polls[i].HasVoted = true
			polls[i].UserVote = &idx
		}
	}
	return polls, nil
}

func (svc *service) invalidate(ctx context.Context, id string) {
	key := resultsCacheKey(id)
	if err := svc.cache.Delete(ctx, key); err != nil {
		svc.logger.Warn(fmt.Sprintf("invalidating %s: %v", key, err), err)
	}
}

func equalTexts(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
