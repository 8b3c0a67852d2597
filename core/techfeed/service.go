package techfeed

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
)

var (
	// errors
	ErrNotFound     = core.NewNotFoundError("post not found")
	ErrAlreadySaved = core.NewValidationError(errors.New("Already saved"))
	ErrNotSaved     = core.NewNotFoundError("post not saved")
)

type (
	Repository interface {
		CreatePost(ctx context.Context, p Post) (Post, error)
		GetPost(ctx context.Context, id string) (Post, error)
		// QueryPosts returns the matching posts, newest first.
		QueryPosts(ctx context.Context, filter QueryFilter) ([]Post, error)
		UpdatePost(ctx context.Context, p Post) (Post, error)
		DeletePost(ctx context.Context, id string) error

		// SavePost returns ErrAlreadySaved if userID already saved postID.
		SavePost(ctx context.Context, userID, postID string, savedAt time.Time) error
		// UnsavePost returns ErrNotSaved if userID did not save postID.
		UnsavePost(ctx context.Context, userID, postID string) error
		// QuerySavedPosts returns the posts saved by userID, last saved first.
		QuerySavedPosts(ctx context.Context, userID string) ([]SavedPost, error)
	}

	Service interface {
		Create(ctx context.Context, author core.UserRef, np NewPost) (Post, error)
		Get(ctx context.Context, id string) (Post, error)
		// Query excludes expired posts unless filter.IncludeExpired is set by an admin.
		Query(ctx context.Context, filter QueryFilter, isAdmin bool) ([]Post, error)
		Update(ctx context.Context, id string, up UpdatePost) (Post, error)
		Delete(ctx context.Context, id string) error

		Save(ctx context.Context, userID, postID string) (SavedPost, error)
		Unsave(ctx context.Context, userID, postID string) error
		QuerySaved(ctx context.Context, userID string) ([]SavedPost, error)
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

func (svc *service) Create(ctx context.Context, author core.UserRef, np NewPost) (Post, error) {
	now := svc.clock.Now().UTC()
	p, err := svc.repo.CreatePost(ctx, Post{
		ID:        uuid.NewString(),
		Title:     np.Title,
		Content:   np.Content,
		Category:  np.Category,
		Link:      np.Link,
		ExpiresAt: utc(np.ExpiresAt),
		CreatedBy: author,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return p, errors.Wrap(err, "creating post")
}

func (svc *service) Get(ctx context.Context, id string) (Post, error) {
	return svc.repo.GetPost(ctx, id)
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, isAdmin bool) ([]Post, error) {
	filter.Clean()
	if !(isAdmin && filter.IncludeExpired) {
		filter.ActiveAt = svc.clock.Now().UTC()
	} else {
		filter.ActiveAt = time.Time{}
	}
	return svc.repo.QueryPosts(ctx, filter)
}

func (svc *service) Update(ctx context.Context, id string, up UpdatePost) (Post, error) {
	p, err := svc.repo.GetPost(ctx, id)
	if err != nil {
		return Post{}, err
	}
	up.ExpiresAt = utc(up.ExpiresAt)
	up.apply(&p)
	p.UpdatedAt = svc.clock.Now().UTC()

	p, err = svc.repo.UpdatePost(ctx, p)
	return p, errors.Wrap(err, "updating post")
}

func (svc *service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeletePost(ctx, id)
}

func (svc *service) Save(ctx context.Context, userID, postID string) (SavedPost, error) {
	p, err := svc.repo.GetPost(ctx, postID)
	if err != nil {
		return SavedPost{}, err
	}
	now := svc.clock.Now().UTC()
	if err := svc.repo.SavePost(ctx, userID, postID, now); err != nil {
		if err == ErrAlreadySaved {
			return SavedPost{}, err
		}
		return SavedPost{}, errors.Wrap(err, "saving post")
	}
	return SavedPost{PostID: p.ID, SavedAt: now, Post: p}, nil
}

func (svc *service) Unsave(ctx context.Context, userID, postID string) error {
	return svc.repo.UnsavePost(ctx, userID, postID)
}

func (svc *service) QuerySaved(ctx context.Context, userID string) ([]SavedPost, error) {
	return svc.repo.QuerySavedPosts(ctx, userID)
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
