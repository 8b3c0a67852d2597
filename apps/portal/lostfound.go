package main

import (
	"context"

	"github.com/trezcool/campus/client"
	"github.com/trezcool/campus/core/lostfound"
)

func (cli *commandLine) lostFound(ctx context.Context, args []string) error {
	act, args := action(args, "list")
	usr, err := cli.requireUser()
	if err != nil {
		return err
	}
	c := cli.session.Client()

	switch act {
	case "list":
		fs := cli.flags("lostfound list")
		var q client.LostFoundQuery
		fs.StringVar(&q.Type, "type", "", "lost|found")
		fs.StringVar(&q.Search, "search", "", "name, description or location contains")
		fs.StringVar(&q.Ordering, "ordering", "", "e.g. -createdAt,itemName")
		if err = fs.Parse(args); err != nil {
			return err
		}
		items, err := c.LostFoundItems(ctx, q)
		if err != nil {
			return err
		}
		cli.itemTable(items, true)
		return nil

	case "my":
		return cli.listMyItems(ctx)

	case "show":
		id, err := cli.idArg("lostfound show", args)
		if err != nil {
			return err
		}
		it, err := c.LostFoundItem(ctx, id)
		if err != nil {
			return err
		}
		cli.fields(
			"Item", it.ItemName,
			"Type", it.Type,
			"Category", it.Category,
			"Location", it.Location,
			"Reported by", it.ReportedBy.Username,
			"Contact", it.ReportedBy.Email,
			"Reported at", fmtTime(it.CreatedAt),
			"Image", it.Image,
		)
		cli.done("\n%s", it.Description)
		return nil

	case "report":
		fs := cli.flags("lostfound report")
		var ni lostfound.NewItem
		fs.StringVar(&ni.Type, "type", "", "lost|found")
		fs.StringVar(&ni.ItemName, "name", "", "item name")
		fs.StringVar(&ni.Description, "description", "", "description")
		fs.StringVar(&ni.Location, "location", "", "where it was lost or found")
		fs.StringVar(&ni.Category, "category", "", "e.g. Electronics")
		image := fs.String("image", "", "path of a picture")
		if err = fs.Parse(args); err != nil {
			return err
		}
		it, err := c.ReportItem(ctx, ni, *image)
		if err != nil {
			return err
		}
		cli.done("%s item %q reported.", it.Type, it.ItemName)
		return cli.listMyItems(ctx)

	case "update":
		fs := cli.flags("lostfound update")
		id := fs.String("id", "", "item id")
		var ui lostfound.UpdateItem
		fs.StringVar(&ui.Type, "type", "", "lost|found")
		fs.StringVar(&ui.ItemName, "name", "", "item name")
		fs.StringVar(&ui.Description, "description", "", "description")
		fs.StringVar(&ui.Location, "location", "", "location")
		fs.StringVar(&ui.Category, "category", "", "category")
		image := fs.String("image", "", "path of a new picture")
		if err = fs.Parse(args); err != nil {
			return err
		}
		if *id == "" {
			fs.Usage()
			return errHelp
		}
		it, err := c.UpdateItem(ctx, *id, ui, *image)
		if err != nil {
			return err
		}
		cli.done("Item %q updated.", it.ItemName)
		return cli.listMyItems(ctx)

	case "delete":
		id, err := cli.idArg("lostfound delete", args)
		if err != nil {
			return err
		}
		if err = c.DeleteItem(ctx, id); err != nil {
			return err
		}
		cli.done("Item deleted.")
		if usr.IsAdmin() {
			items, err := c.LostFoundItems(ctx, client.LostFoundQuery{})
			if err != nil {
				return err
			}
			cli.itemTable(items, true)
			return nil
		}
		return cli.listMyItems(ctx)

	default:
		return cli.unknownAction("lostfound", act, "list", "my", "show", "report", "update", "delete")
	}
}

func (cli *commandLine) listMyItems(ctx context.Context) error {
	items, err := cli.session.Client().MyLostFoundItems(ctx)
	if err != nil {
		return err
	}
	cli.itemTable(items, false)
	return nil
}

func (cli *commandLine) itemTable(items []lostfound.Item, withReporter bool) {
	header := []string{"ID", "TYPE", "ITEM", "CATEGORY", "LOCATION", "REPORTED"}
	if withReporter {
		header = append(header, "BY")
	}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		row := []string{it.ID, it.Type, truncate(it.ItemName, 30), it.Category, truncate(it.Location, 30), fmtTime(it.CreatedAt)}
		if withReporter {
			row = append(row, it.ReportedBy.Username)
		}
		rows = append(rows, row)
	}
	cli.table(header, rows)
}
