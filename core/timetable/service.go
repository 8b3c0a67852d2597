package timetable

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
)

var ErrNotFound = core.NewNotFoundError("timetable entry not found")

type (
	Repository interface {
		CreateEntry(ctx context.Context, e Entry) (Entry, error)
		GetEntry(ctx context.Context, id string) (Entry, error)
		QueryEntries(ctx context.Context, filter QueryFilter) ([]Entry, error)
		UpdateEntry(ctx context.Context, e Entry) (Entry, error)
		DeleteEntry(ctx context.Context, id string) error
	}

	Service interface {
		Create(ctx context.Context, ne NewEntry) (Entry, error)
		Get(ctx context.Context, id string) (Entry, error)
		// Query returns the entries ordered by week day then start time.
		Query(ctx context.Context, filter QueryFilter) ([]Entry, error)
		Update(ctx context.Context, id string, ne NewEntry) (Entry, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo  Repository
		clock clockwork.Clock
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, clock clockwork.Clock) Service {
	return &service{repo: repo, clock: clock}
}

func (svc *service) Create(ctx context.Context, ne NewEntry) (Entry, error) {
	now := svc.clock.Now().UTC()
	e, err := svc.repo.CreateEntry(ctx, Entry{
		ID:        uuid.NewString(),
		DayOfWeek: ne.DayOfWeek,
		StartTime: ne.StartTime,
		EndTime:   ne.EndTime,
		Subject:   ne.Subject,
		Location:  ne.Location,
		Faculty:   ne.Faculty,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return e, errors.Wrap(err, "creating timetable entry")
}

func (svc *service) Get(ctx context.Context, id string) (Entry, error) {
	return svc.repo.GetEntry(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	filter.DayOfWeek = core.CleanString(filter.DayOfWeek)
	entries, err := svc.repo.QueryEntries(ctx, filter)
	if err != nil {
		return nil, err
	}
	Sort(entries)
	return entries, nil
}

func (svc *service) Update(ctx context.Context, id string, ne NewEntry) (Entry, error) {
	e, err := svc.repo.GetEntry(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	e.DayOfWeek = ne.DayOfWeek
	e.StartTime = ne.StartTime
	e.EndTime = ne.EndTime
	e.Subject = ne.Subject
	e.Location = ne.Location
	e.Faculty = ne.Faculty
	e.UpdatedAt = svc.clock.Now().UTC()

	e, err = svc.repo.UpdateEntry(ctx, e)
	return e, errors.Wrap(err, "updating timetable entry")
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteEntry(ctx, id)
}

// Sort orders entries by week day then start time.
func Sort(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		di, dj := core.WeekdayIndex(entries[i].DayOfWeek), core.WeekdayIndex(entries[j].DayOfWeek)
		if di != dj {
			return di < dj
		}
		return entries[i].StartTime < entries[j].StartTime
	})
}
