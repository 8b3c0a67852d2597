package client

import (
	"context"

	"github.com/trezcool/campus/core/timetable"
)

// Timetable lists the entries by day then start time. An empty day lists the whole week.
func (c *Client) Timetable(ctx context.Context, day string) ([]timetable.Entry, error) {
	var entries []timetable.Entry
	err := c.get(ctx, "/timetable", queryParams("day", day), &entries)
	return entries, err
}

func (c *Client) TimetableEntry(ctx context.Context, id string) (timetable.Entry, error) {
	var e timetable.Entry
	err := c.get(ctx, "/timetable/"+id, nil, &e)
	return e, err
}

func (c *Client) CreateTimetableEntry(ctx context.Context, ne timetable.NewEntry) (timetable.Entry, error) {
	if err := checkForm(&ne); err != nil {
		return timetable.Entry{}, err
	}
	var e timetable.Entry
	err := c.post(ctx, "/timetable", ne, &e)
	return e, err
}

func (c *Client) UpdateTimetableEntry(ctx context.Context, id string, ne timetable.NewEntry) (timetable.Entry, error) {
	if err := checkForm(&ne); err != nil {
		return timetable.Entry{}, err
	}
	var e timetable.Entry
	err := c.put(ctx, "/timetable/"+id, ne, &e)
	return e, err
}

func (c *Client) DeleteTimetableEntry(ctx context.Context, id string) error {
	return c.delete(ctx, "/timetable/"+id)
}
