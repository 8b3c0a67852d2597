package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/campus/core/poll"
)

const (
	selectPolls = `SELECT p.id, p.question, p.is_active, p.expires_at, p.created_at, p.updated_at,
	u.id AS "created_by.id", u.username AS "created_by.username", u.email AS "created_by.email"
	FROM polls p JOIN users u ON u.id = p.created_by`

	openPoll = "(p.is_active AND (p.expires_at IS NULL OR p.expires_at > ?))"
)

type pollRow struct {
	ID        string    `db:"id"`
	Question  string    `db:"question"`
	IsActive  bool      `db:"is_active"`
	ExpiresAt null.Time `db:"expires_at"`
	CreatedBy userRef   `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r pollRow) poll() poll.Poll {
	p := poll.Poll{
		ID:        r.ID,
		Question:  r.Question,
		Options:   []poll.Option{},
		IsActive:  r.IsActive,
		CreatedBy: r.CreatedBy.ref(),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if r.ExpiresAt.Valid {
		exp := r.ExpiresAt.Time.UTC()
		p.ExpiresAt = &exp
	}
	return p
}

type optionRow struct {
	PollID    string `db:"poll_id"`
	Position  int    `db:"position"`
	Text      string `db:"text"`
	VoteCount int    `db:"vote_count"`
}

type pollRepository struct {
	db *sqlx.DB
}

var _ poll.Repository = (*pollRepository)(nil) // interface compliance check

func NewPollRepository(db *sqlx.DB) poll.Repository {
	return &pollRepository{db: db}
}

// withOptions loads the options of polls, in position order.
func withOptions(ctx context.Context, q sqlx.QueryerContext, polls []poll.Poll) error {
	if len(polls) == 0 {
		return nil
	}
	ids := make([]string, 0, len(polls))
	idx := make(map[string]int, len(polls))
	for i, p := range polls {
		ids = append(ids, p.ID)
		idx[p.ID] = i
	}

	query, args, err := sqlx.In("SELECT * FROM poll_options WHERE poll_id IN (?) ORDER BY poll_id, position", ids)
	if err != nil {
		return errors.Wrap(err, "building options query")
	}
	var rows []optionRow
	if err = sqlx.SelectContext(ctx, q, &rows, sqlx.Rebind(sqlx.DOLLAR, query), args...); err != nil {
		return errors.Wrap(err, "querying poll options")
	}
	for _, row := range rows {
		i := idx[row.PollID]
		polls[i].Options = append(polls[i].Options, poll.Option{Text: row.Text, VoteCount: row.VoteCount})
	}
	return nil
}

func getPoll(ctx context.Context, q sqlx.QueryerContext, id string) (poll.Poll, error) {
	if !validID(id) {
		return poll.Poll{}, poll.ErrNotFound
	}
	var row pollRow
	if err := sqlx.GetContext(ctx, q, &row, selectPolls+" WHERE p.id = $1", id); err != nil {
		return poll.Poll{}, trapNoRowsErr(err, poll.ErrNotFound, "finding poll")
	}
	polls := []poll.Poll{row.poll()}
	if err := withOptions(ctx, q, polls); err != nil {
		return poll.Poll{}, err
	}
	return polls[0], nil
}

func insertOptions(ctx context.Context, tx *sqlx.Tx, p poll.Poll) error {
	for i, opt := range p.Options {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO poll_options (poll_id, position, text, vote_count) VALUES ($1, $2, $3, $4)",
			p.ID, i, opt.Text, opt.VoteCount)
		if err != nil {
			return errors.Wrap(err, "inserting poll option")
		}
	}
	return nil
}

func (repo *pollRepository) CreatePoll(ctx context.Context, p poll.Poll) (poll.Poll, error) {
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO polls (id, question, is_active, expires_at, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			p.ID, p.Question, p.IsActive, null.TimeFromPtr(p.ExpiresAt), p.CreatedBy.ID, p.CreatedAt.UTC(), p.UpdatedAt.UTC())
		if err != nil {
			return errors.Wrap(err, "inserting poll")
		}
		return insertOptions(ctx, tx, p)
	})
	if err != nil {
		return poll.Poll{}, err
	}
	return p, nil
}

func (repo *pollRepository) GetPoll(ctx context.Context, id string) (poll.Poll, error) {
	return getPoll(ctx, repo.db, id)
}

func (repo *pollRepository) QueryPolls(ctx context.Context, filter poll.QueryFilter) ([]poll.Poll, error) {
	var w where
	if filter.Active != nil {
		if *filter.Active {
			w.add(openPoll, filter.Now.UTC())
		} else {
			w.add("NOT "+openPoll, filter.Now.UTC())
		}
	}

	var rows []pollRow
	q := selectPolls + w.String() + " ORDER BY p.created_at DESC"
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying polls")
	}
	polls := make([]poll.Poll, 0, len(rows))
	for _, row := range rows {
		polls = append(polls, row.poll())
	}
	if err := withOptions(ctx, repo.db, polls); err != nil {
		return nil, err
	}
	return polls, nil
}

func lockPoll(ctx context.Context, tx *sqlx.Tx, id string) error {
	if !validID(id) {
		return poll.ErrNotFound
	}
	var locked string
	err := tx.GetContext(ctx, &locked, "SELECT id FROM polls WHERE id = $1 FOR UPDATE", id)
	return trapNoRowsErr(err, poll.ErrNotFound, "locking poll")
}

// UpdatePoll rewrites the options of p only when their texts differ from the stored ones.
func (repo *pollRepository) UpdatePoll(ctx context.Context, p poll.Poll) (poll.Poll, error) {
	var updated poll.Poll
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if err := lockPoll(ctx, tx, p.ID); err != nil {
			return err
		}
		stored, err := getPoll(ctx, tx, p.ID)
		if err != nil {
			return err
		}

		if !stored.SameOptions(p) {
			var votes int
			if err = tx.GetContext(ctx, &votes, "SELECT COUNT(*) FROM poll_votes WHERE poll_id = $1", p.ID); err != nil {
				return errors.Wrap(err, "counting poll votes")
			}
			if votes > 0 {
				return poll.ErrOptionsLocked
			}
			if _, err = tx.ExecContext(ctx, "DELETE FROM poll_options WHERE poll_id = $1", p.ID); err != nil {
				return errors.Wrap(err, "deleting poll options")
			}
			if err = insertOptions(ctx, tx, p); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE polls SET question = $2, is_active = $3, expires_at = $4, updated_at = $5 WHERE id = $1",
			p.ID, p.Question, p.IsActive, null.TimeFromPtr(p.ExpiresAt), p.UpdatedAt.UTC())
		if err != nil {
			return errors.Wrap(err, "updating poll")
		}
		updated, err = getPoll(ctx, tx, p.ID)
		return err
	})
	if err != nil {
		return poll.Poll{}, err
	}
	return updated, nil
}

func (repo *pollRepository) DeletePoll(ctx context.Context, id string) error {
	if !validID(id) {
		return poll.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM polls WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting poll")
	}
	return mustAffect(res, poll.ErrNotFound, "deleting poll")
}

func (repo *pollRepository) CreateVote(ctx context.Context, v poll.Vote) (poll.Poll, error) {
	var p poll.Poll
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		if err := lockPoll(ctx, tx, v.PollID); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO poll_votes (poll_id, user_id, option_index, created_at) VALUES ($1, $2, $3, $4)
			ON CONFLICT (poll_id, user_id) DO NOTHING`,
			v.PollID, v.UserID, v.OptionIndex, v.CreatedAt.UTC())
		if err != nil {
			return errors.Wrap(err, "inserting vote")
		}
		if err = mustAffect(res, poll.ErrAlreadyVoted, "inserting vote"); err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx,
			"UPDATE poll_options SET vote_count = vote_count + 1 WHERE poll_id = $1 AND position = $2",
			v.PollID, v.OptionIndex)
		if err != nil {
			return errors.Wrap(err, "counting vote")
		}
		if err = mustAffect(res, poll.ErrInvalidOption, "counting vote"); err != nil {
			return err
		}

		p, err = getPoll(ctx, tx, v.PollID)
		return err
	})
	if err != nil {
		return poll.Poll{}, err
	}
	return p, nil
}

func (repo *pollRepository) GetUserVotes(ctx context.Context, userID string, pollIDs ...string) (map[string]int, error) {
	votes := make(map[string]int)
	if len(pollIDs) == 0 || !validID(userID) {
		return votes, nil
	}

	q, args, err := sqlx.In("SELECT poll_id, option_index FROM poll_votes WHERE user_id = ? AND poll_id IN (?)", userID, pollIDs)
	if err != nil {
		return nil, errors.Wrap(err, "building votes query")
	}
	var rows []struct {
		PollID      string `db:"poll_id"`
		OptionIndex int    `db:"option_index"`
	}
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying votes")
	}
	for _, row := range rows {
		votes[row.PollID] = row.OptionIndex
	}
	return votes, nil
}
