package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/campus/core/poll"
)

type pollRepository struct {
	db *DB
}

var _ poll.Repository = (*pollRepository)(nil) // interface compliance check

func NewPollRepository(db *DB) poll.Repository {
	return &pollRepository{db: db}
}

// clone detaches the options of p from the stored ones and drops the caller view.
func clone(p poll.Poll) poll.Poll {
	p.Options = append([]poll.Option(nil), p.Options...)
	p.HasVoted, p.UserVote = false, nil
	return p
}

func (repo *pollRepository) CreatePoll(_ context.Context, p poll.Poll) (poll.Poll, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p = clone(p)
	repo.db.polls[p.ID] = &p
	return clone(p), nil
}

func (repo *pollRepository) GetPoll(_ context.Context, id string) (poll.Poll, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.polls[id]; ok {
		return clone(*p), nil
	}
	return poll.Poll{}, poll.ErrNotFound
}

func (repo *pollRepository) QueryPolls(_ context.Context, filter poll.QueryFilter) ([]poll.Poll, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	list := make([]poll.Poll, 0, len(repo.db.polls))
	for _, p := range repo.db.polls {
		if filter.Active != nil && p.IsOpen(filter.Now) != *filter.Active {
			continue
		}
		list = append(list, clone(*p))
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (repo *pollRepository) UpdatePoll(_ context.Context, p poll.Poll) (poll.Poll, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	stored, ok := repo.db.polls[p.ID]
	if !ok {
		return poll.Poll{}, poll.ErrNotFound
	}
	p = clone(p)
	if stored.SameOptions(p) {
		p.Options = stored.Options
	} else if len(repo.db.votes[p.ID]) > 0 {
		return poll.Poll{}, poll.ErrOptionsLocked
	}
	repo.db.polls[p.ID] = &p
	return clone(p), nil
}

func (repo *pollRepository) DeletePoll(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.polls[id]; !ok {
		return poll.ErrNotFound
	}
	delete(repo.db.polls, id)
	delete(repo.db.votes, id)
	return nil
}

func (repo *pollRepository) CreateVote(_ context.Context, v poll.Vote) (poll.Poll, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	p, ok := repo.db.polls[v.PollID]
	if !ok {
		return poll.Poll{}, poll.ErrNotFound
	}
	if v.OptionIndex < 0 || v.OptionIndex >= len(p.Options) {
		return poll.Poll{}, poll.ErrInvalidOption
	}
	votes, ok := repo.db.votes[v.PollID]
	if !ok {
		votes = make(map[string]int)
		repo.db.votes[v.PollID] = votes
	}
	if _, ok := votes[v.UserID]; ok {
		return poll.Poll{}, poll.ErrAlreadyVoted
	}
	votes[v.UserID] = v.OptionIndex
	p.Options[v.OptionIndex].VoteCount++
	return clone(*p), nil
}

func (repo *pollRepository) GetUserVotes(_ context.Context, userID string, pollIDs ...string) (map[string]int, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	res := make(map[string]int)
	for _, id := range pollIDs {
		if idx, ok := repo.db.votes[id][userID]; ok {
			res[id] = idx
		}
	}
	return res, nil
}
