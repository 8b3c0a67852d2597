package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/complaint"
)

const selectComplaints = `SELECT c.id, c.title, c.description, c.category, c.image, c.status, c.created_at, c.updated_at,
	u.id AS "submitted_by.id", u.username AS "submitted_by.username", u.email AS "submitted_by.email"
	FROM complaints c JOIN users u ON u.id = c.submitted_by`

var complaintColumns = map[string]string{
	"created_at": "c.created_at",
	"updated_at": "c.updated_at",
	"status":     "c.status",
	"category":   "c.category",
}

type complaintRow struct {
	ID          string      `db:"id"`
	Title       string      `db:"title"`
	Description string      `db:"description"`
	Category    string      `db:"category"`
	Image       null.String `db:"image"`
	Status      string      `db:"status"`
	SubmittedBy userRef     `db:"submitted_by"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (r complaintRow) complaint() complaint.Complaint {
	return complaint.Complaint{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
		Image:       r.Image.String,
		Status:      r.Status,
		SubmittedBy: r.SubmittedBy.ref(),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type complaintRepository struct {
	db *sqlx.DB
}

var _ complaint.Repository = (*complaintRepository)(nil) // interface compliance check

func NewComplaintRepository(db *sqlx.DB) complaint.Repository {
	return &complaintRepository{db: db}
}

func (repo *complaintRepository) CreateComplaint(ctx context.Context, c complaint.Complaint) (complaint.Complaint, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO complaints (id, title, description, category, image, status, submitted_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.Title, c.Description, c.Category, null.NewString(c.Image, c.Image != ""), c.Status,
		c.SubmittedBy.ID, c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	if err != nil {
		return complaint.Complaint{}, errors.Wrap(err, "inserting complaint")
	}
	return c, nil
}

func (repo *complaintRepository) GetComplaint(ctx context.Context, id string) (complaint.Complaint, error) {
	if !validID(id) {
		return complaint.Complaint{}, complaint.ErrNotFound
	}
	var row complaintRow
	if err := repo.db.GetContext(ctx, &row, selectComplaints+" WHERE c.id = $1", id); err != nil {
		return complaint.Complaint{}, trapNoRowsErr(err, complaint.ErrNotFound, "finding complaint")
	}
	return row.complaint(), nil
}

func (repo *complaintRepository) QueryComplaints(ctx context.Context, filter complaint.QueryFilter, ordering ...core.DBOrdering) ([]complaint.Complaint, error) {
	var w where
	if filter.SubmittedBy != "" {
		if !validID(filter.SubmittedBy) {
			return []complaint.Complaint{}, nil
		}
		w.add("c.submitted_by = ?", filter.SubmittedBy)
	}
	if filter.Status != "" {
		w.add("c.status = ?", filter.Status)
	}
	if filter.Category != "" {
		w.add("c.category = ?", filter.Category)
	}

	var rows []complaintRow
	q := selectComplaints + w.String() + orderBy(complaintColumns, ordering, "c.created_at DESC")
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying complaints")
	}
	list := make([]complaint.Complaint, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.complaint())
	}
	return list, nil
}

func (repo *complaintRepository) UpdateComplaint(ctx context.Context, c complaint.Complaint) (complaint.Complaint, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE complaints SET title = $2, description = $3, category = $4, image = $5, status = $6, updated_at = $7
		WHERE id = $1`,
		c.ID, c.Title, c.Description, c.Category, null.NewString(c.Image, c.Image != ""), c.Status, c.UpdatedAt.UTC())
	if err != nil {
		return complaint.Complaint{}, errors.Wrap(err, "updating complaint")
	}
	if err = mustAffect(res, complaint.ErrNotFound, "updating complaint"); err != nil {
		return complaint.Complaint{}, err
	}
	return c, nil
}

func (repo *complaintRepository) DeleteComplaint(ctx context.Context, id string) error {
	if !validID(id) {
		return complaint.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM complaints WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting complaint")
	}
	return mustAffect(res, complaint.ErrNotFound, "deleting complaint")
}
