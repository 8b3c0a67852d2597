package main

import (
	"context"
	"strings"

	"github.com/trezcool/campus/client"
	"github.com/trezcool/campus/core/complaint"
)

func (cli *commandLine) complaints(ctx context.Context, args []string) error {
	act, args := action(args, "list")
	usr, err := cli.requireUser()
	if err != nil {
		return err
	}
	c := cli.session.Client()

	switch act {
	case "list":
		if usr.IsAdmin() {
			return cli.complaints(ctx, append([]string{"all"}, args...))
		}
		return cli.listMyComplaints(ctx)

	case "all":
		if _, err = cli.requireAdmin(); err != nil {
			return err
		}
		fs := cli.flags("complaints all")
		var q client.ComplaintQuery
		fs.StringVar(&q.Status, "status", "", strings.Join(complaint.Statuses, "|"))
		fs.StringVar(&q.Category, "category", "", "category")
		fs.StringVar(&q.Ordering, "ordering", "", "e.g. -createdAt,status")
		if err = fs.Parse(args); err != nil {
			return err
		}
		return cli.listAllComplaints(ctx, q)

	case "show":
		id, err := cli.idArg("complaints show", args)
		if err != nil {
			return err
		}
		cpl, err := c.Complaint(ctx, id)
		if err != nil {
			return err
		}
		cli.fields(
			"Title", cpl.Title,
			"Category", cpl.Category,
			"Status", cpl.Status,
			"Submitted by", cpl.SubmittedBy.Username,
			"Submitted at", fmtTime(cpl.CreatedAt),
			"Updated at", fmtTime(cpl.UpdatedAt),
			"Image", cpl.Image,
		)
		cli.done("\n%s", cpl.Description)
		return nil

	case "submit":
		fs := cli.flags("complaints submit")
		var nc complaint.NewComplaint
		fs.StringVar(&nc.Title, "title", "", "complaint title")
		fs.StringVar(&nc.Description, "description", "", "what is wrong")
		fs.StringVar(&nc.Category, "category", "", strings.Join(complaint.Categories, "|"))
		image := fs.String("image", "", "path of a picture")
		if err = fs.Parse(args); err != nil {
			return err
		}
		cpl, err := c.SubmitComplaint(ctx, nc, *image)
		if err != nil {
			return err
		}
		cli.done("Complaint %q submitted, status %s.", cpl.Title, cpl.Status)
		return cli.listMyComplaints(ctx)

	case "status":
		if _, err = cli.requireAdmin(); err != nil {
			return err
		}
		fs := cli.flags("complaints status")
		id := fs.String("id", "", "complaint id")
		status := fs.String("status", "", strings.Join(complaint.Statuses, "|"))
		if err = fs.Parse(args); err != nil {
			return err
		}
		if *id == "" || *status == "" {
			fs.Usage()
			return errHelp
		}
		cpl, err := c.SetComplaintStatus(ctx, *id, *status)
		if err != nil {
			return err
		}
		cli.done("Complaint %q is now %s.", cpl.Title, cpl.Status)
		return cli.listAllComplaints(ctx, client.ComplaintQuery{})

	case "delete":
		id, err := cli.idArg("complaints delete", args)
		if err != nil {
			return err
		}
		if err = c.DeleteComplaint(ctx, id); err != nil {
			return err
		}
		cli.done("Complaint deleted.")
		if usr.IsAdmin() {
			return cli.listAllComplaints(ctx, client.ComplaintQuery{})
		}
		return cli.listMyComplaints(ctx)

	default:
		return cli.unknownAction("complaints", act, "list", "all", "show", "submit", "status", "delete")
	}
}

func (cli *commandLine) listMyComplaints(ctx context.Context) error {
	list, err := cli.session.Client().MyComplaints(ctx)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(list))
	for _, cpl := range list {
		rows = append(rows, []string{cpl.ID, truncate(cpl.Title, 40), cpl.Category, cpl.Status, fmtTime(cpl.CreatedAt)})
	}
	cli.table([]string{"ID", "TITLE", "CATEGORY", "STATUS", "SUBMITTED"}, rows)
	return nil
}

func (cli *commandLine) listAllComplaints(ctx context.Context, q client.ComplaintQuery) error {
	list, err := cli.session.Client().AllComplaints(ctx, q)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(list))
	for _, cpl := range list {
		rows = append(rows, []string{
			cpl.ID, truncate(cpl.Title, 40), cpl.Category, cpl.Status, cpl.SubmittedBy.Username, fmtTime(cpl.CreatedAt),
		})
	}
	cli.table([]string{"ID", "TITLE", "CATEGORY", "STATUS", "BY", "SUBMITTED"}, rows)
	return nil
}
