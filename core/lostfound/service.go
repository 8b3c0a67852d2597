package lostfound

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
)

var ErrNotFound = core.NewNotFoundError("item not found")

type (
	Repository interface {
		CreateItem(ctx context.Context, it Item) (Item, error)
		GetItem(ctx context.Context, id string) (Item, error)
		// QueryItems defaults to newest first.
		QueryItems(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Item, error)
		UpdateItem(ctx context.Context, it Item) (Item, error)
		DeleteItem(ctx context.Context, id string) error
	}

	Service interface {
		Create(ctx context.Context, reporter core.UserRef, ni NewItem, image string) (Item, error)
		Get(ctx context.Context, id string) (Item, error)
		Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Item, error)
		QueryMine(ctx context.Context, userID string) ([]Item, error)
		// Update applies ui to it. A non-empty image replaces the stored one.
		Update(ctx context.Context, it Item, ui UpdateItem, image string) (Item, error)
		Delete(ctx context.Context, it Item) error
	}

	service struct {
		repo   Repository
		files  core.FileStore
		logger core.Logger
		clock  clockwork.Clock
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, files core.FileStore, logger core.Logger, clock clockwork.Clock) Service {
	return &service{repo: repo, files: files, logger: logger, clock: clock}
}

func (svc *service) Create(ctx context.Context, reporter core.UserRef, ni NewItem, image string) (Item, error) {
	now := svc.clock.Now().UTC()
	it, err := svc.repo.CreateItem(ctx, Item{
		ID:          uuid.NewString(),
		Type:        ni.Type,
		ItemName:    ni.ItemName,
		Description: ni.Description,
		Location:    ni.Location,
		Category:    ni.Category,
		Image:       image,
		ReportedBy:  reporter,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	return it, errors.Wrap(err, "creating item")
}

func (svc *service) Get(ctx context.Context, id string) (Item, error) {
	return svc.repo.GetItem(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Item, error) {
	filter.Clean()
	return svc.repo.QueryItems(ctx, filter, ordering...)
}

func (svc *service) QueryMine(ctx context.Context, userID string) ([]Item, error) {
	return svc.repo.QueryItems(ctx, QueryFilter{ReportedBy: userID})
}

func (svc *service) Update(ctx context.Context, it Item, ui UpdateItem, image string) (Item, error) {
	oldImage := it.Image
	ui.apply(&it)
	if image != "" {
		it.Image = image
	}
	it.UpdatedAt = svc.clock.Now().UTC()

	it, err := svc.repo.UpdateItem(ctx, it)
	if err != nil {
		return Item{}, errors.Wrap(err, "updating item")
	}
	if image != "" && oldImage != "" && oldImage != image {
		svc.deleteImage(ctx, oldImage)
	}
	return it, nil
}

// Delete removes the item and its stored image.
func (svc *service) Delete(ctx context.Context, it Item) error {
	if err := svc.repo.DeleteItem(ctx, it.ID); err != nil {
		return err
	}
	if it.Image != "" {
		svc.deleteImage(ctx, it.Image)
	}
	return nil
}

func (svc *service) deleteImage(ctx context.Context, url string) {
	if err := svc.files.Delete(ctx, url); err != nil {
		svc.logger.Warn(fmt.Sprintf("deleting item image %s: %v", url, err), err)
	}
}
