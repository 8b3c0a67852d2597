package client

import (
	"context"
	"strconv"

	"github.com/trezcool/campus/core/techfeed"
)

type TechPostQuery struct {
	Category string
	Search   string
	// IncludeExpired is only honoured for admins.
	IncludeExpired bool
}

func (c *Client) TechPosts(ctx context.Context, q TechPostQuery) ([]techfeed.Post, error) {
	params := queryParams("category", q.Category, "search", q.Search)
	if q.IncludeExpired {
		if params == nil {
			params = map[string]string{}
		}
		params["includeExpired"] = strconv.FormatBool(true)
	}
	var posts []techfeed.Post
	err := c.get(ctx, "/techfeed", params, &posts)
	return posts, err
}

func (c *Client) TechPost(ctx context.Context, id string) (techfeed.Post, error) {
	var p techfeed.Post
	err := c.get(ctx, "/techfeed/"+id, nil, &p)
	return p, err
}

func (c *Client) CreateTechPost(ctx context.Context, np techfeed.NewPost) (techfeed.Post, error) {
	if err := checkForm(&np); err != nil {
		return techfeed.Post{}, err
	}
	var p techfeed.Post
	err := c.post(ctx, "/techfeed", np, &p)
	return p, err
}

func (c *Client) UpdateTechPost(ctx context.Context, id string, up techfeed.UpdatePost) (techfeed.Post, error) {
	if err := checkForm(&up); err != nil {
		return techfeed.Post{}, err
	}
	var p techfeed.Post
	err := c.put(ctx, "/techfeed/"+id, up, &p)
	return p, err
}

func (c *Client) DeleteTechPost(ctx context.Context, id string) error {
	return c.delete(ctx, "/techfeed/"+id)
}

// SavePost bookmarks a post for the caller. Saving it twice is a 400.
func (c *Client) SavePost(ctx context.Context, id string) (techfeed.SavedPost, error) {
	var sp techfeed.SavedPost
	err := c.post(ctx, "/techfeed/"+id+"/save", nil, &sp)
	return sp, err
}

func (c *Client) UnsavePost(ctx context.Context, id string) error {
	return c.delete(ctx, "/techfeed/"+id+"/save")
}

func (c *Client) SavedPosts(ctx context.Context) ([]techfeed.SavedPost, error) {
	var saved []techfeed.SavedPost
	err := c.get(ctx, "/techfeed/saved/all", nil, &saved)
	return saved, err
}
