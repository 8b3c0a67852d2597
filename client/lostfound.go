package client

import (
	"context"

	"github.com/sendgrid/rest"

	"github.com/trezcool/campus/core/lostfound"
)

type LostFoundQuery struct {
	Type     string // lost | found
	Search   string
	Ordering string
}

func (c *Client) LostFoundItems(ctx context.Context, q LostFoundQuery) ([]lostfound.Item, error) {
	var items []lostfound.Item
	err := c.get(ctx, "/lostfound", queryParams("type", q.Type, "search", q.Search, "ordering", q.Ordering), &items)
	return items, err
}

func (c *Client) MyLostFoundItems(ctx context.Context) ([]lostfound.Item, error) {
	var items []lostfound.Item
	err := c.get(ctx, "/lostfound/my", nil, &items)
	return items, err
}

func (c *Client) LostFoundItem(ctx context.Context, id string) (lostfound.Item, error) {
	var it lostfound.Item
	err := c.get(ctx, "/lostfound/"+id, nil, &it)
	return it, err
}

// ReportItem reports a lost or found item with the optional image at imagePath.
func (c *Client) ReportItem(ctx context.Context, ni lostfound.NewItem, imagePath string) (lostfound.Item, error) {
	if err := checkForm(&ni); err != nil {
		return lostfound.Item{}, err
	}
	var it lostfound.Item
	err := c.sendMultipart(ctx, rest.Post, "/lostfound", itemFields(ni.Type, ni.ItemName, ni.Description, ni.Location, ni.Category), imagePath, &it)
	return it, err
}

// UpdateItem changes the non-empty fields of ui, and the image when imagePath is set.
func (c *Client) UpdateItem(ctx context.Context, id string, ui lostfound.UpdateItem, imagePath string) (lostfound.Item, error) {
	if err := checkForm(&ui); err != nil {
		return lostfound.Item{}, err
	}
	var it lostfound.Item
	err := c.sendMultipart(ctx, rest.Put, "/lostfound/"+id, itemFields(ui.Type, ui.ItemName, ui.Description, ui.Location, ui.Category), imagePath, &it)
	return it, err
}

func (c *Client) DeleteItem(ctx context.Context, id string) error {
	return c.delete(ctx, "/lostfound/"+id)
}

func itemFields(typ, name, description, location, category string) map[string]string {
	return map[string]string{
		"type":        typ,
		"itemName":    name,
		"description": description,
		"location":    location,
		"category":    category,
	}
}
