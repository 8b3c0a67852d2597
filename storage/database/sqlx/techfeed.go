package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/campus/core/techfeed"
)

const selectPosts = `SELECT p.id, p.title, p.content, p.category, p.link, p.expires_at, p.created_at, p.updated_at,
	u.id AS "created_by.id", u.username AS "created_by.username", u.email AS "created_by.email"
	FROM tech_posts p JOIN users u ON u.id = p.created_by`

type postRow struct {
	ID        string      `db:"id"`
	Title     string      `db:"title"`
	Content   string      `db:"content"`
	Category  string      `db:"category"`
	Link      null.String `db:"link"`
	ExpiresAt null.Time   `db:"expires_at"`
	CreatedBy userRef     `db:"created_by"`
	CreatedAt time.Time   `db:"created_at"`
	UpdatedAt time.Time   `db:"updated_at"`
}

func (r postRow) post() techfeed.Post {
	p := techfeed.Post{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		Category:  r.Category,
		Link:      r.Link.String,
		CreatedBy: r.CreatedBy.ref(),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
	if r.ExpiresAt.Valid {
		exp := r.ExpiresAt.Time.UTC()
		p.ExpiresAt = &exp
	}
	return p
}

type savedPostRow struct {
	postRow
	SavedAt time.Time `db:"saved_at"`
}

type postRepository struct {
	db *sqlx.DB
}

var _ techfeed.Repository = (*postRepository)(nil) // interface compliance check

func NewPostRepository(db *sqlx.DB) techfeed.Repository {
	return &postRepository{db: db}
}

func (repo *postRepository) CreatePost(ctx context.Context, p techfeed.Post) (techfeed.Post, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO tech_posts (id, title, content, category, link, expires_at, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.Title, p.Content, p.Category, null.NewString(p.Link, p.Link != ""), null.TimeFromPtr(p.ExpiresAt),
		p.CreatedBy.ID, p.CreatedAt.UTC(), p.UpdatedAt.UTC())
	if err != nil {
		return techfeed.Post{}, errors.Wrap(err, "inserting post")
	}
	return p, nil
}

func (repo *postRepository) GetPost(ctx context.Context, id string) (techfeed.Post, error) {
	if !validID(id) {
		return techfeed.Post{}, techfeed.ErrNotFound
	}
	var row postRow
	if err := repo.db.GetContext(ctx, &row, selectPosts+" WHERE p.id = $1", id); err != nil {
		return techfeed.Post{}, trapNoRowsErr(err, techfeed.ErrNotFound, "finding post")
	}
	return row.post(), nil
}

func (repo *postRepository) QueryPosts(ctx context.Context, filter techfeed.QueryFilter) ([]techfeed.Post, error) {
	var w where
	if filter.Category != "" {
		w.add("p.category = ?", filter.Category)
	}
	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		w.add("(p.title ILIKE ? OR p.content ILIKE ?)", val, val)
	}
	if !filter.ActiveAt.IsZero() {
		w.add("(p.expires_at IS NULL OR p.expires_at > ?)", filter.ActiveAt.UTC())
	}

	var rows []postRow
	q := selectPosts + w.String() + " ORDER BY p.created_at DESC"
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying posts")
	}
	list := make([]techfeed.Post, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.post())
	}
	return list, nil
}

func (repo *postRepository) UpdatePost(ctx context.Context, p techfeed.Post) (techfeed.Post, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE tech_posts SET title = $2, content = $3, category = $4, link = $5, expires_at = $6, updated_at = $7
		WHERE id = $1`,
		p.ID, p.Title, p.Content, p.Category, null.NewString(p.Link, p.Link != ""), null.TimeFromPtr(p.ExpiresAt),
		p.UpdatedAt.UTC())
	if err != nil {
		return techfeed.Post{}, errors.Wrap(err, "updating post")
	}
	if err = mustAffect(res, techfeed.ErrNotFound, "updating post"); err != nil {
		return techfeed.Post{}, err
	}
	return p, nil
}

func (repo *postRepository) DeletePost(ctx context.Context, id string) error {
	if !validID(id) {
		return techfeed.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM tech_posts WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting post")
	}
	return mustAffect(res, techfeed.ErrNotFound, "deleting post")
}

func (repo *postRepository) SavePost(ctx context.Context, userID, postID string, savedAt time.Time) error {
	if !validID(postID) {
		return techfeed.ErrNotFound
	}
	_, err := repo.db.ExecContext(ctx,
		"INSERT INTO saved_posts (user_id, post_id, saved_at) VALUES ($1, $2, $3)", userID, postID, savedAt.UTC())
	if isUniqueViolation(err) {
		return techfeed.ErrAlreadySaved
	}
	return errors.Wrap(err, "saving post")
}

func (repo *postRepository) UnsavePost(ctx context.Context, userID, postID string) error {
	if !validID(postID) {
		return techfeed.ErrNotSaved
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM saved_posts WHERE user_id = $1 AND post_id = $2", userID, postID)
	if err != nil {
		return errors.Wrap(err, "unsaving post")
	}
	return mustAffect(res, techfeed.ErrNotSaved, "unsaving post")
}

func (repo *postRepository) QuerySavedPosts(ctx context.Context, userID string) ([]techfeed.SavedPost, error) {
	var rows []savedPostRow
	q := `SELECT sp.saved_at, p.id, p.title, p.content, p.category, p.link, p.expires_at, p.created_at, p.updated_at,
		u.id AS "created_by.id", u.username AS "created_by.username", u.email AS "created_by.email"
		FROM saved_posts sp
		JOIN tech_posts p ON p.id = sp.post_id
		JOIN users u ON u.id = p.created_by
		WHERE sp.user_id = $1
		ORDER BY sp.saved_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, errors.Wrap(err, "querying saved posts")
	}
	list := make([]techfeed.SavedPost, 0, len(rows))
	for _, row := range rows {
		p := row.post()
		list = append(list, techfeed.SavedPost{PostID: p.ID, SavedAt: row.SavedAt.UTC(), Post: p})
	}
	return list, nil
}
