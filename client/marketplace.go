package client

import (
	"context"

	"github.com/trezcool/campus/core/marketplace"
)

type SkillQuery struct {
	Search   string
	Category string
}

// Skills

func (c *Client) Skills(ctx context.Context, q SkillQuery) ([]marketplace.Skill, error) {
	var skills []marketplace.Skill
	err := c.get(ctx, "/skills", queryParams("search", q.Search, "category", q.Category), &skills)
	return skills, err
}

func (c *Client) MySkills(ctx context.Context) ([]marketplace.Skill, error) {
	var skills []marketplace.Skill
	err := c.get(ctx, "/skills/my", nil, &skills)
	return skills, err
}

func (c *Client) Skill(ctx context.Context, id string) (marketplace.Skill, error) {
	var s marketplace.Skill
	err := c.get(ctx, "/skills/"+id, nil, &s)
	return s, err
}

func (c *Client) CreateSkill(ctx context.Context, ns marketplace.NewSkill) (marketplace.Skill, error) {
	if err := checkForm(&ns); err != nil {
		return marketplace.Skill{}, err
	}
	var s marketplace.Skill
	err := c.post(ctx, "/skills", ns, &s)
	return s, err
}

func (c *Client) UpdateSkill(ctx context.Context, id string, us marketplace.UpdateSkill) (marketplace.Skill, error) {
	if err := checkForm(&us); err != nil {
		return marketplace.Skill{}, err
	}
	var s marketplace.Skill
	err := c.put(ctx, "/skills/"+id, us, &s)
	return s, err
}

func (c *Client) DeleteSkill(ctx context.Context, id string) error {
	return c.delete(ctx, "/skills/"+id)
}

// Sessions

func (c *Client) BookSession(ctx context.Context, ns marketplace.NewSession) (marketplace.Session, error) {
	if err := checkForm(&ns); err != nil {
		return marketplace.Session{}, err
	}
	var s marketplace.Session
	err := c.post(ctx, "/sessions", ns, &s)
	return s, err
}

// MySessions lists the sessions the caller teaches or attends.
func (c *Client) MySessions(ctx context.Context) ([]marketplace.Session, error) {
	var sessions []marketplace.Session
	err := c.get(ctx, "/sessions/my", nil, &sessions)
	return sessions, err
}

func (c *Client) Session(ctx context.Context, id string) (marketplace.Session, error) {
	var s marketplace.Session
	err := c.get(ctx, "/sessions/"+id, nil, &s)
	return s, err
}

func (c *Client) SetSessionStatus(ctx context.Context, id, status string) (marketplace.Session, error) {
	us := marketplace.UpdateSessionStatus{Status: status}
	if err := checkForm(&us); err != nil {
		return marketplace.Session{}, err
	}
	var s marketplace.Session
	err := c.put(ctx, "/sessions/"+id+"/status", us, &s)
	return s, err
}

// Reviews

func (c *Client) CreateReview(ctx context.Context, nr marketplace.NewReview) (marketplace.Review, error) {
	if err := checkForm(&nr); err != nil {
		return marketplace.Review{}, err
	}
	var r marketplace.Review
	err := c.post(ctx, "/reviews", nr, &r)
	return r, err
}

// MyReviews lists the reviews the caller received.
func (c *Client) MyReviews(ctx context.Context) ([]marketplace.Review, error) {
	var reviews []marketplace.Review
	err := c.get(ctx, "/reviews/my", nil, &reviews)
	return reviews, err
}

func (c *Client) UserReviews(ctx context.Context, userID string) ([]marketplace.Review, error) {
	var reviews []marketplace.Review
	err := c.get(ctx, "/reviews/user/"+userID, nil, &reviews)
	return reviews, err
}
