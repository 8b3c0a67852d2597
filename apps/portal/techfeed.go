package main

import (
	"context"
	"strings"

	"github.com/trezcool/campus/client"
	"github.com/trezcool/campus/core/techfeed"
)

func (cli *commandLine) techFeed(ctx context.Context, args []string) error {
	act, args := action(args, "list")
	if _, err := cli.requireUser(); err != nil {
		return err
	}
	c := cli.session.Client()

	switch act {
	case "list":
		fs := cli.flags("techfeed list")
		var q client.TechPostQuery
		fs.StringVar(&q.Category, "category", "", strings.Join(techfeed.Categories, "|"))
		fs.StringVar(&q.Search, "search", "", "title or content contains")
		fs.BoolVar(&q.IncludeExpired, "expired", false, "include expired posts (admin)")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return cli.listTechPosts(ctx, q)

	case "show":
		id, err := cli.idArg("techfeed show", args)
		if err != nil {
			return err
		}
		p, err := c.TechPost(ctx, id)
		if err != nil {
			return err
		}
		cli.fields(
			"Title", p.Title,
			"Category", p.Category,
			"Link", p.Link,
			"Expires", fmtTimePtr(p.ExpiresAt),
			"Posted at", fmtTime(p.CreatedAt),
		)
		cli.done("\n%s", p.Content)
		return nil

	case "saved":
		return cli.listSavedPosts(ctx)

	case "save":
		id, err := cli.idArg("techfeed save", args)
		if err != nil {
			return err
		}
		sp, err := c.SavePost(ctx, id)
		if err != nil {
			return err
		}
		cli.done("Saved %q.", sp.Post.Title)
		return cli.listSavedPosts(ctx)

	case "unsave":
		id, err := cli.idArg("techfeed unsave", args)
		if err != nil {
			return err
		}
		if err = c.UnsavePost(ctx, id); err != nil {
			return err
		}
		cli.done("Post removed from your saved posts.")
		return cli.listSavedPosts(ctx)

	case "create", "update":
		if _, err := cli.requireAdmin(); err != nil {
			return err
		}
		fs := cli.flags("techfeed " + act)
		var id string
		if act == "update" {
			fs.StringVar(&id, "id", "", "post id")
		}
		var title, content, category, link, expires string
		fs.StringVar(&title, "title", "", "title")
		fs.StringVar(&content, "content", "", "content")
		fs.StringVar(&category, "category", "", strings.Join(techfeed.Categories, "|"))
		fs.StringVar(&link, "link", "", "URL")
		fs.StringVar(&expires, "expires", "", "YYYY-MM-DD [HH:MM]")
		if err := fs.Parse(args); err != nil {
			return err
		}
		expiresAt, err := parseTime(expires)
		if err != nil {
			return err
		}

		var p techfeed.Post
		if act == "create" {
			p, err = c.CreateTechPost(ctx, techfeed.NewPost{
				Title: title, Content: content, Category: category, Link: link, ExpiresAt: expiresAt,
			})
		} else {
			if id == "" {
				fs.Usage()
				return errHelp
			}
			p, err = c.UpdateTechPost(ctx, id, techfeed.UpdatePost{
				Title: title, Content: content, Category: category, Link: link, ExpiresAt: expiresAt,
			})
		}
		if err != nil {
			return err
		}
		cli.done("Post %q saved.", p.Title)
		return cli.listTechPosts(ctx, client.TechPostQuery{IncludeExpired: true})

	case "delete":
		if _, err := cli.requireAdmin(); err != nil {
			return err
		}
		id, err := cli.idArg("techfeed delete", args)
		if err != nil {
			return err
		}
		if err = c.DeleteTechPost(ctx, id); err != nil {
			return err
		}
		cli.done("Post deleted.")
		return cli.listTechPosts(ctx, client.TechPostQuery{IncludeExpired: true})

	default:
		return cli.unknownAction("techfeed", act, "list", "show", "saved", "save", "unsave", "create", "update", "delete")
	}
}

func (cli *commandLine) listTechPosts(ctx context.Context, q client.TechPostQuery) error {
	posts, err := cli.session.Client().TechPosts(ctx, q)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, []string{p.ID, truncate(p.Title, 40), p.Category, fmtTimePtr(p.ExpiresAt)})
	}
	cli.table([]string{"ID", "TITLE", "CATEGORY", "EXPIRES"}, rows)
	return nil
}

func (cli *commandLine) listSavedPosts(ctx context.Context) error {
	saved, err := cli.session.Client().SavedPosts(ctx)
	if err != nil {
		return err
	}
	rows := make([][]string, 0, len(saved))
	for _, sp := range saved {
		rows = append(rows, []string{sp.PostID, truncate(sp.Post.Title, 40), sp.Post.Category, fmtTime(sp.SavedAt)})
	}
	cli.table([]string{"ID", "TITLE", "CATEGORY", "SAVED"}, rows)
	return nil
}
