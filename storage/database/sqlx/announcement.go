package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core/announcement"
)

const selectAnnouncements = `SELECT a.id, a.title, a.content, a.category, a.created_at, a.updated_at,
	u.id AS "created_by.id", u.username AS "created_by.username", u.email AS "created_by.email"
	FROM announcements a JOIN users u ON u.id = a.created_by`

type announcementRow struct {
	ID        string    `db:"id"`
	Title     string    `db:"title"`
	Content   string    `db:"content"`
	Category  string    `db:"category"`
	CreatedBy userRef   `db:"created_by"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r announcementRow) announcement() announcement.Announcement {
	return announcement.Announcement{
		ID:        r.ID,
		Title:     r.Title,
		Content:   r.Content,
		Category:  r.Category,
		CreatedBy: r.CreatedBy.ref(),
		CreatedAt: r.CreatedAt.UTC(),
		UpdatedAt: r.UpdatedAt.UTC(),
	}
}

type announcementRepository struct {
	db *sqlx.DB
}

var _ announcement.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *sqlx.DB) announcement.Repository {
	return &announcementRepository{db: db}
}

func (repo *announcementRepository) CreateAnnouncement(ctx context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO announcements (id, title, content, category, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.Title, a.Content, a.Category, a.CreatedBy.ID, a.CreatedAt.UTC(), a.UpdatedAt.UTC())
	if err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "inserting announcement")
	}
	return a, nil
}

func (repo *announcementRepository) GetAnnouncement(ctx context.Context, id string) (announcement.Announcement, error) {
	if !validID(id) {
		return announcement.Announcement{}, announcement.ErrNotFound
	}
	var row announcementRow
	if err := repo.db.GetContext(ctx, &row, selectAnnouncements+" WHERE a.id = $1", id); err != nil {
		return announcement.Announcement{}, trapNoRowsErr(err, announcement.ErrNotFound, "finding announcement")
	}
	return row.announcement(), nil
}

func (repo *announcementRepository) QueryAnnouncements(ctx context.Context, filter announcement.QueryFilter) ([]announcement.Announcement, error) {
	var w where
	if filter.Category != "" {
		w.add("a.category = ?", filter.Category)
	}

	var rows []announcementRow
	q := selectAnnouncements + w.String() + " ORDER BY a.created_at DESC"
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying announcements")
	}
	list := make([]announcement.Announcement, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.announcement())
	}
	return list, nil
}

func (repo *announcementRepository) UpdateAnnouncement(ctx context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	res, err := repo.db.ExecContext(ctx,
		"UPDATE announcements SET title = $2, content = $3, category = $4, updated_at = $5 WHERE id = $1",
		a.ID, a.Title, a.Content, a.Category, a.UpdatedAt.UTC())
	if err != nil {
		return announcement.Announcement{}, errors.Wrap(err, "updating announcement")
	}
	if err = mustAffect(res, announcement.ErrNotFound, "updating announcement"); err != nil {
		return announcement.Announcement{}, err
	}
	return a, nil
}

func (repo *announcementRepository) DeleteAnnouncement(ctx context.Context, id string) error {
	if !validID(id) {
		return announcement.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM announcements WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting announcement")
	}
	return mustAffect(res, announcement.ErrNotFound, "deleting announcement")
}
