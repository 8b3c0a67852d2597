package client

import (
	"context"
	"strconv"
	"time"

	"github.com/trezcool/campus/core/poll"
)

// Polls lists the polls. A nil active lists them all.
func (c *Client) Polls(ctx context.Context, active *bool) ([]poll.Poll, error) {
	var params map[string]string
	if active != nil {
		params = map[string]string{"active": strconv.FormatBool(*active)}
	}
	var polls []poll.Poll
	err := c.get(ctx, "/polls", params, &polls)
	return polls, err
}

func (c *Client) Poll(ctx context.Context, id string) (poll.Poll, error) {
	var p poll.Poll
	err := c.get(ctx, "/polls/"+id, nil, &p)
	return p, err
}

func (c *Client) PollResults(ctx context.Context, id string) (poll.Results, error) {
	var res poll.Results
	err := c.get(ctx, "/polls/"+id+"/results", nil, &res)
	return res, err
}

// Vote casts the caller's single vote and returns the updated poll.
func (c *Client) Vote(ctx context.Context, id string, optionIndex int) (poll.Poll, error) {
	vr := poll.VoteRequest{OptionIndex: &optionIndex}
	if err := checkForm(&vr); err != nil {
		return poll.Poll{}, err
	}
	var p poll.Poll
	err := c.post(ctx, "/polls/"+id+"/vote", vr, &p)
	return p, err
}

func (c *Client) CreatePoll(ctx context.Context, np poll.NewPoll) (poll.Poll, error) {
	if err := checkPoll(&np, np.ExpiresAt, time.Now()); err != nil {
		return poll.Poll{}, err
	}
	var p poll.Poll
	err := c.post(ctx, "/polls", np, &p)
	return p, err
}

func (c *Client) UpdatePoll(ctx context.Context, id string, up poll.UpdatePoll) (poll.Poll, error) {
	if err := checkForm(&up); err != nil {
		return poll.Poll{}, err
	}
	var p poll.Poll
	err := c.put(ctx, "/polls/"+id, up, &p)
	return p, err
}

func (c *Client) DeletePoll(ctx context.Context, id string) error {
	return c.delete(ctx, "/polls/"+id)
}
