package complaint

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
)

var ErrNotFound = core.NewNotFoundError("complaint not found")

type (
	Repository interface {
		CreateComplaint(ctx context.Context, c Complaint) (Complaint, error)
		GetComplaint(ctx context.Context, id string) (Complaint, error)
		// QueryComplaints defaults to newest first.
		QueryComplaints(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Complaint, error)
		UpdateComplaint(ctx context.Context, c Complaint) (Complaint, error)
		DeleteComplaint(ctx context.Context, id string) error
	}

	Service interface {
		Create(ctx context.Context, author core.UserRef, nc NewComplaint, image string) (Complaint, error)
		Get(ctx context.Context, id string) (Complaint, error)
		QueryMine(ctx context.Context, userID string) ([]Complaint, error)
		QueryAll(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Complaint, error)
		SetStatus(ctx context.Context, id, status string) (Complaint, error)
		Delete(ctx context.Context, c Complaint) error
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

// Create records a new Pending complaint. image is the URL of an already stored file, if any.
func (svc *service) Create(ctx context.Context, author core.UserRef, nc NewComplaint, image string) (Complaint, error) {
	now := svc.clock.Now().UTC()
	c, err := svc.repo.CreateComplaint(ctx, Complaint{
		ID:          uuid.NewString(),
		Title:       nc.Title,
		Description: nc.Description,
		Category:    nc.Category,
		Image:       image,
		Status:      StatusPending,
		SubmittedBy: author,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	return c, errors.Wrap(err, "creating complaint")
}

func (svc *service) Get(ctx context.Context, id string) (Complaint, error) {
	return svc.repo.GetComplaint(ctx, id)
}

func (svc *service) QueryMine(ctx context.Context, userID string) ([]Complaint, error) {
	return svc.repo.QueryComplaints(ctx, QueryFilter{SubmittedBy: userID})
}

func (svc *service) QueryAll(ctx context.Context, filter QueryFilter, ordering ...core.DBOrdering) ([]Complaint, error) {
	filter.SubmittedBy = ""
	return svc.repo.QueryComplaints(ctx, filter, ordering...)
}

func (svc *service) SetStatus(ctx context.Context, id, status string) (Complaint, error) {
	c, err := svc.repo.GetComplaint(ctx, id)
	if err != nil {
		return Complaint{}, err
	}
	c.Status = status
	c.UpdatedAt = svc.clock.Now().UTC()
	c, err = svc.repo.UpdateComplaint(ctx, c)
	return c, errors.Wrap(err, "updating complaint status")
}

// Delete removes the complaint and its stored image.
func (svc *service) Delete(ctx context.Context, c Complaint) error {
	if err := svc.repo.DeleteComplaint(ctx, c.ID); err != nil {
		return err
	}
	if c.Image != "" {
		if err := svc.files.Delete(ctx, c.Image); err != nil {
			svc.logger.Warn(fmt.Sprintf("deleting complaint image %s: %v", c.Image, err), err)
		}
	}
	return nil
}
