package main

import (
	"context"
	"strings"

	"github.com/trezcool/campus/core/announcement"
)

func (cli *commandLine) announcements(ctx context.Context, args []string) error {
	act, args := action(args, "list")
	if _, err := cli.requireUser(); err != nil {
		return err
	}
	switch act {
	case "list":
		fs := cli.flags("announcements list")
		category := fs.String("category", "", strings.Join(announcement.Categories, "|"))
		if err := fs.Parse(args); err != nil {
			return err
		}
		return cli.listAnnouncements(ctx, *category)

	case "show":
		id, err := cli.idArg("announcements show", args)
		if err != nil {
			return err
		}
		a, err := cli.session.Client().Announcement(ctx, id)
		if err != nil {
			return err
		}
		cli.fields(
			"Title", a.Title,
			"Category", a.Category,
			"Posted by", a.CreatedBy.Username,
			"Posted at", fmtTime(a.CreatedAt),
		)
		cli.done("\n%s", a.Content)
		return nil

	case "create":
		if _, err := cli.requireAdmin(); err != nil {
			return err
		}
		fs := cli.flags("announcements create")
		var na announcement.NewAnnouncement
		fs.StringVar(&na.Title, "title", "", "title")
		fs.StringVar(&na.Content, "content", "", "content")
		fs.StringVar(&na.Category, "category", "", strings.Join(announcement.Categories, "|"))
		if err := fs.Parse(args); err != nil {
			return err
		}
		a, err := cli.session.Client().CreateAnnouncement(ctx, na)
		if err != nil {
			return err
		}
		cli.done("Announcement %q posted.", a.Title)
		return cli.listAnnouncements(ctx, "")

	case "update":
		if _, err := cli.requireAdmin(); err != nil {
			return err
		}
		fs := cli.flags("announcements update")
		id := fs.String("id", "", "announcement id")
		var ua announcement.UpdateAnnouncement
		fs.StringVar(&ua.Title, "title", "", "new title")
		fs.StringVar(&ua.Content, "content", "", "new content")
		fs.StringVar(&ua.Category, "category", "", strings.Join(announcement.Categories, "|"))
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id == "" {
			fs.Usage()
			return errHelp
		}
		a, err := cli.session.Client().UpdateAnnouncement(ctx, *id, ua)
		if err != nil {
			return err
		}
		cli.done("Announcement %q updated.", a.Title)
		return cli.listAnnouncements(ctx, "")

	case "delete":
		if _, err := cli.requireAdmin(); err != nil {
			return err
		}
		id, err := cli.idArg("announcements delete", args)
		if err != nil {
			return err
		}
		if err = cli.session.Client().DeleteAnnouncement(ctx, id); err != nil {
			return err
		}
		cli.done("Announcement deleted.")
		return cli.listAnnouncements(ctx, "")

	default:
		return cli.unknownAction("announcements", act, "list", "show", "create", "update", "delete")
	}
}

func (cli *commandLine) listAnnouncements(ctx context.Context, category string) error {
	list, err := cli.session.Client().Announcements(ctx, category)
	if err != nil {
		return err
	}
	admin := cli.session.IsAdmin()
	header := []string{"TITLE", "CATEGORY", "POSTED"}
	if admin {
		header = append([]string{"ID"}, header...)
	}
	rows := make([][]string, 0, len(list))
	for _, a := range list {
		row := []string{truncate(a.Title, 40), a.Category, fmtTime(a.CreatedAt)}
		if admin {
			row = append([]string{a.ID}, row...)
		}
		rows = append(rows, row)
	}
	cli.table(header, rows)
	return nil
}
