package main

import (
	"context"
	"strings"

	"github.com/trezcool/campus/core/timetable"
)

func (cli *commandLine) timetable(ctx context.Context, args []string) error {
	act, args := action(args, "list")
	if _, err := cli.requireUser(); err != nil {
		return err
	}
	c := cli.session.Client()

	switch act {
	case "list":
		fs := cli.flags("timetable list")
		day := fs.String("day", "", strings.Join(timetable.Days, "|"))
		if err := fs.Parse(args); err != nil {
			return err
		}
		return cli.listTimetable(ctx, *day)

	case "show":
		id, err := cli.idArg("timetable show", args)
		if err != nil {
			return err
		}
		e, err := c.TimetableEntry(ctx, id)
		if err != nil {
			return err
		}
		cli.fields(
			"Subject", e.Subject,
			"Day", e.DayOfWeek,
			"Time", e.StartTime+" - "+e.EndTime,
			"Location", e.Location,
			"Faculty", e.Faculty,
		)
		return nil

	case "create", "update":
		if _, err := cli.requireAdmin(); err != nil {
			return err
		}
		fs := cli.flags("timetable " + act)
		var id string
		if act == "update" {
			fs.StringVar(&id, "id", "", "entry id")
		}
		var ne timetable.NewEntry
		fs.StringVar(&ne.DayOfWeek, "day", "", strings.Join(timetable.Days, "|"))
		fs.StringVar(&ne.StartTime, "start", "", "HH:MM")
		fs.StringVar(&ne.EndTime, "end", "", "HH:MM")
		fs.StringVar(&ne.Subject, "subject", "", "subject")
		fs.StringVar(&ne.Location, "location", "", "room")
		fs.StringVar(&ne.Faculty, "faculty", "", "lecturer")
		if err := fs.Parse(args); err != nil {
			return err
		}

		var (
			e   timetable.Entry
			err error
		)
		if act == "create" {
			e, err = c.CreateTimetableEntry(ctx, ne)
		} else {
			if id == "" {
				fs.Usage()
				return errHelp
			}
			e, err = c.UpdateTimetableEntry(ctx, id, ne)
		}
		if err != nil {
			return err
		}
		cli.done("%s on %s %s-%s saved.", e.Subject, e.DayOfWeek, e.StartTime, e.EndTime)
		return cli.listTimetable(ctx, "")

	case "delete":
		if _, err := cli.requireAdmin(); err != nil {
			return err
		}
		id, err := cli.idArg("timetable delete", args)
		if err != nil {
			return err
		}
		if err = c.DeleteTimetableEntry(ctx, id); err != nil {
			return err
		}
		cli.done("Entry deleted.")
		return cli.listTimetable(ctx, "")

	default:
		return cli.unknownAction("timetable", act, "list", "show", "create", "update", "delete")
	}
}

func (cli *commandLine) listTimetable(ctx context.Context, day string) error {
	entries, err := cli.session.Client().Timetable(ctx, day)
	if err != nil {
		return err
	}
	admin := cli.session.IsAdmin()
	header := []string{"DAY", "TIME", "SUBJECT", "LOCATION", "FACULTY"}
	if admin {
		header = append([]string{"ID"}, header...)
	}
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		row := []string{e.DayOfWeek, e.StartTime + "-" + e.EndTime, e.Subject, e.Location, e.Faculty}
		if admin {
			row = append([]string{e.ID}, row...)
		}
		rows = append(rows, row)
	}
	cli.table(header, rows)
	return nil
}
