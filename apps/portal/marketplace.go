package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/trezcool/campus/client"
	"github.com/trezcool/campus/core/marketplace"
)

func (cli *commandLine) skills(ctx context.Context, args []string) error {
	act, args := action(args, "list")
	if _, err := cli.requireUser(); err != nil {
		return err
	}
	c := cli.session.Client()

	switch act {
	case "list":
		fs := cli.flags("skills list")
		var q client.SkillQuery
		fs.StringVar(&q.Search, "search", "", "title or description contains")
		fs.StringVar(&q.Category, "category", "", "category")
		if err := fs.Parse(args); err != nil {
			return err
		}
		list, err := c.Skills(ctx, q)
		if err != nil {
			return err
		}
		cli.skillTable(list)
		return nil

	case "my":
		return cli.listMySkills(ctx)

	case "show":
		id, err := cli.idArg("skills show", args)
		if err != nil {
			return err
		}
		s, err := c.Skill(ctx, id)
		if err != nil {
			return err
		}
		cli.fields(
			"Title", s.Title,
			"Category", s.Category,
			"Tutor", s.OfferedBy.Username,
			"Tutor rating", fmtRating(s.OfferedBy.AverageRating),
			"Availability", fmtSlots(s.Availability),
		)
		if s.Description != "" {
			cli.done("\n%s", s.Description)
		}
		return nil

	case "create", "update":
		fs := cli.flags("skills " + act)
		var id string
		if act == "update" {
			fs.StringVar(&id, "id", "", "skill id")
		}
		var (
			title, category, description string
			slots                        stringList
		)
		fs.StringVar(&title, "title", "", "what you teach")
		fs.StringVar(&category, "category", "", "e.g. Programming")
		fs.StringVar(&description, "description", "", "details")
		fs.Var(&slots, "slot", `availability as "DAY HH:MM-HH:MM", repeatable`)
		if err := fs.Parse(args); err != nil {
			return err
		}
		availability, err := parseSlots(slots)
		if err != nil {
			return err
		}

		var s marketplace.Skill
		if act == "create" {
			s, err = c.CreateSkill(ctx, marketplace.NewSkill{
				Title: title, Category: category, Description: description, Availability: availability,
			})
		} else {
			if id == "" {
				fs.Usage()
				return errHelp
			}
			s, err = c.UpdateSkill(ctx, id, marketplace.UpdateSkill{
				Title: title, Category: category, Description: description, Availability: availability,
			})
		}
		if err != nil {
			return err
		}
		cli.done("Skill %q saved.", s.Title)
		return cli.listMySkills(ctx)

	case "delete":
		id, err := cli.idArg("skills delete", args)
		if err != nil {
			return err
		}
		if err = c.DeleteSkill(ctx, id); err != nil {
			return err
		}
		cli.done("Skill deleted.")
		return cli.listMySkills(ctx)

	default:
		return cli.unknownAction("skills", act, "list", "my", "show", "create", "update", "delete")
	}
}

func (cli *commandLine) listMySkills(ctx context.Context) error {
	list, err := cli.session.Client().MySkills(ctx)
	if err != nil {
		return err
	}
	cli.skillTable(list)
	return nil
}

func (cli *commandLine) skillTable(list []marketplace.Skill) {
	rows := make([][]string, 0, len(list))
	for _, s := range list {
		rows = append(rows, []string{
			s.ID, truncate(s.Title, 30), s.Category, s.OfferedBy.Username, fmtRating(s.OfferedBy.AverageRating), strconv.Itoa(len(s.Availability)),
		})
	}
	cli.table([]string{"ID", "TITLE", "CATEGORY", "TUTOR", "RATING", "SLOTS"}, rows)
}

func (cli *commandLine) sessions(ctx context.Context, args []string) error {
	act, args := action(args, "list")
	usr, err := cli.requireUser()
	if err != nil {
		return err
	}
	c := cli.session.Client()

	switch act {
	case "list":
		return cli.listMySessions(ctx, usr.ID)

	case "show":
		id, err := cli.idArg("sessions show", args)
		if err != nil {
			return err
		}
		s, err := c.Session(ctx, id)
		if err != nil {
			return err
		}
		cli.fields(
			"Skill", s.Skill.Title,
			"Tutor", s.Tutor.Username,
			"Learner", s.Learner.Username,
			"Date", s.Date,
			"Time", s.TimeSlot.StartTime+" - "+s.TimeSlot.EndTime,
			"Status", s.Status,
			"Reviewed", strconv.FormatBool(s.FeedbackGiven),
		)
		return nil

	case "book":
		fs := cli.flags("sessions book")
		var ns marketplace.NewSession
		fs.StringVar(&ns.SkillID, "skill", "", "skill id")
		fs.StringVar(&ns.Date, "date", "", "YYYY-MM-DD")
		fs.StringVar(&ns.TimeSlot.StartTime, "start", "", "HH:MM")
		fs.StringVar(&ns.TimeSlot.EndTime, "end", "", "HH:MM")
		if err = fs.Parse(args); err != nil {
			return err
		}
		s, err := c.BookSession(ctx, ns)
		if err != nil {
			return err
		}
		cli.done("Session of %q with %s requested for %s.", s.Skill.Title, s.Tutor.Username, s.Date)
		return cli.listMySessions(ctx, usr.ID)

	case "status":
		fs := cli.flags("sessions status")
		id := fs.String("id", "", "session id")
		status := fs.String("status", "", "Confirmed|Completed|Cancelled")
		if err = fs.Parse(args); err != nil {
			return err
		}
		if *id == "" || *status == "" {
			fs.Usage()
			return errHelp
		}
		s, err := c.SetSessionStatus(ctx, *id, *status)
		if err != nil {
			return err
		}
		cli.done("Session is now %s.", s.Status)
		return cli.listMySessions(ctx, usr.ID)

	default:
		return cli.unknownAction("sessions", act, "list", "show", "book", "status")
	}
}

func (cli *commandLine) listMySessions(ctx context.Context, userID string) error {
	list, err := cli.session.Client().MySessions(ctx)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(list))
	for _, s := range list {
		role, with := "learner", s.Tutor.Username
		if s.Tutor.ID == userID {
			role, with = "tutor", s.Learner.Username
		}
		rows = append(rows, []string{
			s.ID, truncate(s.Skill.Title, 30), role, with, s.Date, s.TimeSlot.StartTime + "-" + s.TimeSlot.EndTime, s.Status,
		})
	}
	cli.table([]string{"ID", "SKILL", "AS", "WITH", "DATE", "TIME", "STATUS"}, rows)
	return nil
}

func (cli *commandLine) reviews(ctx context.Context, args []string) error {
	act, args := action(args, "my")
	if _, err := cli.requireUser(); err != nil {
		return err
	}
	c := cli.session.Client()

	switch act {
	case "my":
		list, err := c.MyReviews(ctx)
		if err != nil {
			return err
		}
		cli.reviewTable(list)
		return nil

	case "user":
		id, err := cli.idArg("reviews user", args)
		if err != nil {
			return err
		}
		list, err := c.UserReviews(ctx, id)
		if err != nil {
			return err
		}
		cli.reviewTable(list)
		return nil

	case "create":
		fs := cli.flags("reviews create")
		var nr marketplace.NewReview
		fs.StringVar(&nr.SessionID, "session", "", "completed session id")
		fs.IntVar(&nr.Rating, "rating", 0, "1 to 5")
		fs.StringVar(&nr.Comment, "comment", "", "how it went")
		if err := fs.Parse(args); err != nil {
			return err
		}
		r, err := c.CreateReview(ctx, nr)
		if err != nil {
			return err
		}
		cli.done("Thanks! You rated %s %d/5.", r.Reviewee.Username, r.Rating)
		return nil

	default:
		return cli.unknownAction("reviews", act, "my", "user", "create")
	}
}

func (cli *commandLine) reviewTable(list []marketplace.Review) {
	rows := make([][]string, 0, len(list))
	for _, r := range list {
		rows = append(rows, []string{
			r.Reviewer.Username, strings.Repeat("*", r.Rating), truncate(r.Comment, 50), fmtTime(r.CreatedAt),
		})
	}
	cli.table([]string{"FROM", "RATING", "COMMENT", "DATE"}, rows)
}

// parseSlots parses "Monday 09:00-11:00" values.
func parseSlots(values []string) ([]marketplace.Slot, error) {
	if len(values) == 0 {
		return nil, nil
	}
	slots := make([]marketplace.Slot, 0, len(values))
	for _, v := range values {
		parts := strings.Fields(v)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid slot %q, expected \"DAY HH:MM-HH:MM\"", v)
		}
		times := strings.SplitN(parts[1], "-", 2)
		if len(times) != 2 {
			return nil, fmt.Errorf("invalid slot %q, expected \"DAY HH:MM-HH:MM\"", v)
		}
		slots = append(slots, marketplace.Slot{Day: capitalize(parts[0]), StartTime: times[0], EndTime: times[1]})
	}
	return slots, nil
}

func fmtSlots(slots []marketplace.Slot) string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, fmt.Sprintf("%s %s-%s", s.Day, s.StartTime, s.EndTime))
	}
	return strings.Join(out, ", ")
}

func fmtRating(avg float64) string {
	if avg == 0 {
		return "-"
	}
	return strconv.FormatFloat(marketplace.RoundRating(avg), 'f', 2, 64)
}

func capitalize(s string) string {
	s = strings.ToLower(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
