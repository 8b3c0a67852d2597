package main

import (
	"context"
	"strconv"

	"github.com/trezcool/campus/client"
	"github.com/trezcool/campus/core/complaint"
)

// dashboard shows the counts of the portal home page. Students see their own items, admins everything.
func (cli *commandLine) dashboard(ctx context.Context, _ []string) error {
	usr, err := cli.requireUser()
	if err != nil {
		return err
	}
	c := cli.session.Client()

	announcements, err := c.Announcements(ctx, "")
	if err != nil {
		return err
	}
	active := true
	polls, err := c.Polls(ctx, &active)
	if err != nil {
		return err
	}

	cli.done("Hello %s (%s)", usr.Username, usr.Role)
	if usr.IsAdmin() {
		complaints, err := c.AllComplaints(ctx, client.ComplaintQuery{})
		if err != nil {
			return err
		}
		items, err := c.LostFoundItems(ctx, client.LostFoundQuery{})
		if err != nil {
			return err
		}
		var pending int
		for _, cpl := range complaints {
			if cpl.Status == complaint.StatusPending {
				pending++
			}
		}
		cli.fields(
			"Announcements", strconv.Itoa(len(announcements)),
			"Complaints", strconv.Itoa(len(complaints)),
			"Pending complaints", strconv.Itoa(pending),
			"Lost & found items", strconv.Itoa(len(items)),
			"Active polls", strconv.Itoa(len(polls)),
		)
		return nil
	}

	complaints, err := c.MyComplaints(ctx)
	if err != nil {
		return err
	}
	items, err := c.MyLostFoundItems(ctx)
	if err != nil {
		return err
	}
	saved, err := c.SavedPosts(ctx)
	if err != nil {
		return err
	}
	var toVote int
	for _, p := range polls {
		if !p.HasVoted {
			toVote++
		}
	}
	cli.fields(
		"Announcements", strconv.Itoa(len(announcements)),
		"My complaints", strconv.Itoa(len(complaints)),
		"My lost & found items", strconv.Itoa(len(items)),
		"Active polls", strconv.Itoa(len(polls)),
		"Polls to vote on", strconv.Itoa(toVote),
		"Saved posts", strconv.Itoa(len(saved)),
	)
	return nil
}
