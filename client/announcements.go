package client

import (
	"context"

	"github.com/trezcool/campus/core/announcement"
)

// Announcements lists the announcements, newest first. An empty category lists them all.
func (c *Client) Announcements(ctx context.Context, category string) ([]announcement.Announcement, error) {
	var list []announcement.Announcement
	err := c.get(ctx, "/announcements", queryParams("category", category), &list)
	return list, err
}

func (c *Client) Announcement(ctx context.Context, id string) (announcement.Announcement, error) {
	var a announcement.Announcement
	err := c.get(ctx, "/announcements/"+id, nil, &a)
	return a, err
}

func (c *Client) CreateAnnouncement(ctx context.Context, na announcement.NewAnnouncement) (announcement.Announcement, error) {
	if err := checkForm(&na); err != nil {
		return announcement.Announcement{}, err
	}
	var a announcement.Announcement
	err := c.post(ctx, "/announcements", na, &a)
	return a, err
}

func (c *Client) UpdateAnnouncement(ctx context.Context, id string, ua announcement.UpdateAnnouncement) (announcement.Announcement, error) {
	if err := checkForm(&ua); err != nil {
		return announcement.Announcement{}, err
	}
	var a announcement.Announcement
	err := c.put(ctx, "/announcements/"+id, ua, &a)
	return a, err
}

func (c *Client) DeleteAnnouncement(ctx context.Context, id string) error {
	return c.delete(ctx, "/announcements/"+id)
}
