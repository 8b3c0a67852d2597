package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/trezcool/campus/core/poll"
)

func (cli *commandLine) polls(ctx context.Context, args []string) error {
	act, args := action(args, "list")
	if _, err := cli.requireUser(); err != nil {
		return err
	}
	c := cli.session.Client()

	switch act {
	case "list":
		fs := cli.flags("polls list")
		var active optionalBool
		fs.Var(&active, "active", "true|false")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return cli.listPolls(ctx, active.val)

	case "show":
		id, err := cli.idArg("polls show", args)
		if err != nil {
			return err
		}
		p, err := c.Poll(ctx, id)
		if err != nil {
			return err
		}
		cli.fields(
			"Question", p.Question,
			"Open", strconv.FormatBool(p.IsOpen(cli.now())),
			"Expires", fmtTimePtr(p.ExpiresAt),
			"Created by", p.CreatedBy.Username,
		)
		rows := make([][]string, 0, len(p.Options))
		for i, opt := range p.Options {
			mark := ""
			if p.UserVote != nil && *p.UserVote == i {
				mark = "<- your vote"
			}
			rows = append(rows, []string{strconv.Itoa(i), opt.Text, mark})
		}
		cli.table([]string{"#", "OPTION", ""}, rows)
		return nil

	case "results":
		id, err := cli.idArg("polls results", args)
		if err != nil {
			return err
		}
		res, err := c.PollResults(ctx, id)
		if err != nil {
			return err
		}
		cli.done("%s (%d votes)", res.Poll.Question, res.TotalVotes)
		rows := make([][]string, 0, len(res.Results))
		for _, r := range res.Results {
			rows = append(rows, []string{r.Text, strconv.Itoa(r.VoteCount), fmt.Sprintf("%d%%", r.Percentage)})
		}
		cli.table([]string{"OPTION", "VOTES", "SHARE"}, rows)
		if res.WinningOption != nil {
			cli.done("Leading: %s", res.WinningOption.Text)
		}
		return nil

	case "vote":
		fs := cli.flags("polls vote")
		id := fs.String("id", "", "poll id")
		option := fs.Int("option", -1, "option number, from 0")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id == "" || *option < 0 {
			fs.Usage()
			return errHelp
		}
		p, err := c.Vote(ctx, *id, *option)
		if err != nil {
			return err
		}
		cli.done("Vote recorded for %q.", p.Options[*option].Text)
		return cli.listPolls(ctx, nil)

	case "create":
		if _, err := cli.requireAdmin(); err != nil {
			return err
		}
		fs := cli.flags("polls create")
		var (
			question, expires string
			options           stringList
			active            optionalBool
		)
		fs.StringVar(&question, "question", "", "question")
		fs.Var(&options, "option", "answer, repeatable")
		fs.Var(&active, "active", "true|false, default true")
		fs.StringVar(&expires, "expires", "", "YYYY-MM-DD [HH:MM]")
		if err := fs.Parse(args); err != nil {
			return err
		}
		expiresAt, err := parseTime(expires)
		if err != nil {
			return err
		}
		p, err := c.CreatePoll(ctx, poll.NewPoll{Question: question, Options: options, IsActive: active.val, ExpiresAt: expiresAt})
		if err != nil {
			return err
		}
		cli.done("Poll %q created.", p.Question)
		return cli.listPolls(ctx, nil)

	case "update":
		if _, err := cli.requireAdmin(); err != nil {
			return err
		}
		fs := cli.flags("polls update")
		var (
			id, question, expires string
			options               stringList
			active                optionalBool
		)
		fs.StringVar(&id, "id", "", "poll id")
		fs.StringVar(&question, "question", "", "new question")
		fs.Var(&options, "option", "new answer, repeatable, replaces all options")
		fs.Var(&active, "active", "true|false")
		fs.StringVar(&expires, "expires", "", "YYYY-MM-DD [HH:MM]")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if id == "" {
			fs.Usage()
			return errHelp
		}
		expiresAt, err := parseTime(expires)
		if err != nil {
			return err
		}

		cur, err := c.Poll(ctx, id)
		if err != nil {
			return err
		}
		up := poll.UpdatePoll{Question: cur.Question, IsActive: active.val, ExpiresAt: cur.ExpiresAt}
		for _, opt := range cur.Options {
			up.Options = append(up.Options, opt.Text)
		}
		if strings.TrimSpace(question) != "" {
			up.Question = question
		}
		if len(options) > 0 {
			up.Options = options
		}
		if expiresAt != nil {
			up.ExpiresAt = expiresAt
		}

		p, err := c.UpdatePoll(ctx, id, up)
		if err != nil {
			return err
		}
		cli.done("Poll %q updated.", p.Question)
		return cli.listPolls(ctx, nil)

	case "delete":
		if _, err := cli.requireAdmin(); err != nil {
			return err
		}
		id, err := cli.idArg("polls delete", args)
		if err != nil {
			return err
		}
		if err = c.DeletePoll(ctx, id); err != nil {
			return err
		}
		cli.done("Poll deleted.")
		return cli.listPolls(ctx, nil)

	default:
		return cli.unknownAction("polls", act, "list", "show", "results", "vote", "create", "update", "delete")
	}
}

func (cli *commandLine) listPolls(ctx context.Context, active *bool) error {
	list, err := cli.session.Client().Polls(ctx, active)
	if err != nil {
		return err
	}
	now := cli.now()
	rows := make([][]string, 0, len(list))
	for _, p := range list {
		state := "closed"
		if p.IsOpen(now) {
			state = "open"
		}
		voted := "no"
		if p.HasVoted {
			voted = "yes"
		}
		rows = append(rows, []string{p.ID, truncate(p.Question, 40), state, strconv.Itoa(p.TotalVotes()), voted, fmtTimePtr(p.ExpiresAt)})
	}
	cli.table([]string{"ID", "QUESTION", "STATE", "VOTES", "VOTED", "EXPIRES"}, rows)
	return nil
}
