package announcement

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
)

var ErrNotFound = core.NewNotFoundError("announcement not found")

const listCacheKey = "announcements:list"

type (
	Repository interface {
		CreateAnnouncement(ctx context.Context, a Announcement) (Announcement, error)
		GetAnnouncement(ctx context.Context, id string) (Announcement, error)
		// QueryAnnouncements returns the matching announcements, newest first.
		QueryAnnouncements(ctx context.Context, filter QueryFilter) ([]Announcement, error)
		UpdateAnnouncement(ctx context.Context, a Announcement) (Announcement, error)
		DeleteAnnouncement(ctx context.Context, id string) error
	}

	Service interface {
		Create(ctx context.Context, author core.UserRef, na NewAnnouncement) (Announcement, error)
		Get(ctx context.Context, id string) (Announcement, error)
		Query(ctx context.Context, filter QueryFilter) ([]Announcement, error)
		Update(ctx context.Context, id string, ua UpdateAnnouncement) (Announcement, error)
		Delete(ctx context.Context, id string) error
	}

	service struct {
		repo   Repository
		cache  core.Cache
		logger core.Logger
		clock  clockwork.Clock
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, cache core.Cache, logger core.Logger, clock clockwork.Clock) Service {
	return &service{repo: repo, cache: cache, logger: logger, clock: clock}
}

func (svc *service) Create(ctx context.Context, author core.UserRef, na NewAnnouncement) (Announcement, error) {
	now := svc.clock.Now().UTC()
	a, err := svc.repo.CreateAnnouncement(ctx, Announcement{
		ID:        uuid.NewString(),
		Title:     na.Title,
		Content:   na.Content,
		Category:  na.Category,
		CreatedBy: author,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return Announcement{}, errors.Wrap(err, "creating announcement")
	}
	svc.invalidate(ctx)
	return a, nil
}

func (svc *service) Get(ctx context.Context, id string) (Announcement, error) {
	return svc.repo.GetAnnouncement(ctx, id)
}

// Query returns announcements newest first. The unfiltered list is served from the cache.
func (svc *service) Query(ctx context.Context, filter QueryFilter) ([]Announcement, error) {
	if !filter.IsEmpty() {
		return svc.repo.QueryAnnouncements(ctx, filter)
	}

	var list []Announcement
	if found, err := svc.cache.Get(ctx, listCacheKey, &list); err != nil {
		svc.logger.Warn(fmt.Sprintf("reading %s from cache: %v", listCacheKey, err), err)
	} else if found {
		return list, nil
	}

	list, err := svc.repo.QueryAnnouncements(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := svc.cache.Set(ctx, listCacheKey, list, 0); err != nil {
		svc.logger.Warn(fmt.Sprintf("writing %s to cache: %v", listCacheKey, err), err)
	}
	return list, nil
}

func (svc *service) Update(ctx context.Context, id string, ua UpdateAnnouncement) (Announcement, error) {
	a, err := svc.repo.GetAnnouncement(ctx, id)
	if err != nil {
		return Announcement{}, err
	}
	ua.apply(&a)
	a.UpdatedAt = svc.clock.Now().UTC()

	a, err = svc.repo.UpdateAnnouncement(ctx, a)
	if err != nil {
		return Announcement{}, errors.Wrap(err, "updating announcement")
	}
	svc.invalidate(ctx)
	return a, nil
}

func (svc *service) Delete(ctx context.Context, id string) error {
	if err := svc.repo.DeleteAnnouncement(ctx, id); err != nil {
		return err
	}
	svc.invalidate(ctx)
	return nil
}

func (svc *service) invalidate(ctx context.Context) {
	if err := svc.cache.Delete(ctx, listCacheKey); err != nil {
		svc.logger.Warn(fmt.Sprintf("invalidating %s: %v", listCacheKey, err), err)
	}
}
