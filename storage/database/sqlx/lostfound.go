package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/lostfound"
)

const selectItems = `SELECT i.id, i.type, i.item_name, i.description, i.location, i.category, i.image, i.created_at, i.updated_at,
	u.id AS "reported_by.id", u.username AS "reported_by.username", u.email AS "reported_by.email"
	FROM lost_found_items i JOIN users u ON u.id = i.reported_by`

var itemColumns = map[string]string{
	"created_at": "i.created_at",
	"item_name":  "i.item_name",
	"type":       "i.type",
	"category":   "i.category",
}

type itemRow struct {
	ID          string      `db:"id"`
	Type        string      `db:"type"`
	ItemName    string      `db:"item_name"`
	Description string      `db:"description"`
	Location    string      `db:"location"`
	Category    string      `db:"category"`
	Image       null.String `db:"image"`
	ReportedBy  userRef     `db:"reported_by"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func (r itemRow) item() lostfound.Item {
	return lostfound.Item{
		ID:          r.ID,
		Type:        r.Type,
		ItemName:    r.ItemName,
		Description: r.Description,
		Location:    r.Location,
		Category:    r.Category,
		Image:       r.Image.String,
		ReportedBy:  r.ReportedBy.ref(),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type itemRepository struct {
	db *sqlx.DB
}

var _ lostfound.Repository = (*itemRepository)(nil) // interface compliance check

func NewItemRepository(db *sqlx.DB) lostfound.Repository {
	return &itemRepository{db: db}
}

func (repo *itemRepository) CreateItem(ctx context.Context, it lostfound.Item) (lostfound.Item, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO lost_found_items (id, type, item_name, description, location, category, image, reported_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		it.ID, it.Type, it.ItemName, it.Description, it.Location, it.Category,
		null.NewString(it.Image, it.Image != ""), it.ReportedBy.ID, it.CreatedAt.UTC(), it.UpdatedAt.UTC())
	if err != nil {
		return lostfound.Item{}, errors.Wrap(err, "inserting item")
	}
	return it, nil
}

func (repo *itemRepository) GetItem(ctx context.Context, id string) (lostfound.Item, error) {
	if !validID(id) {
		return lostfound.Item{}, lostfound.ErrNotFound
	}
	var row itemRow
	if err := repo.db.GetContext(ctx, &row, selectItems+" WHERE i.id = $1", id); err != nil {
		return lostfound.Item{}, trapNoRowsErr(err, lostfound.ErrNotFound, "finding item")
	}
	return row.item(), nil
}

func (repo *itemRepository) QueryItems(ctx context.Context, filter lostfound.QueryFilter, ordering ...core.DBOrdering) ([]lostfound.Item, error) {
	var w where
	if filter.ReportedBy != "" {
		if !validID(filter.ReportedBy) {
			return []lostfound.Item{}, nil
		}
		w.add("i.reported_by = ?", filter.ReportedBy)
	}
	if filter.Type != "" {
		w.add("i.type = ?", filter.Type)
	}
	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		w.add("(i.item_name ILIKE ? OR i.description ILIKE ? OR i.location ILIKE ?)", val, val, val)
	}

	var rows []itemRow
	q := selectItems + w.String() + orderBy(itemColumns, ordering, "i.created_at DESC")
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying items")
	}
	list := make([]lostfound.Item, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.item())
	}
	return list, nil
}

func (repo *itemRepository) UpdateItem(ctx context.Context, it lostfound.Item) (lostfound.Item, error) {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE lost_found_items SET type = $2, item_name = $3, description = $4, location = $5, category = $6,
		image = $7, updated_at = $8 WHERE id = $1`,
		it.ID, it.Type, it.ItemName, it.Description, it.Location, it.Category,
		null.NewString(it.Image, it.Image != ""), it.UpdatedAt.UTC())
	if err != nil {
		return lostfound.Item{}, errors.Wrap(err, "updating item")
	}
	if err = mustAffect(res, lostfound.ErrNotFound, "updating item"); err != nil {
		return lostfound.Item{}, err
	}
	return it, nil
}

func (repo *itemRepository) DeleteItem(ctx context.Context, id string) error {
	if !validID(id) {
		return lostfound.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM lost_found_items WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting item")
	}
	return mustAffect(res, lostfound.ErrNotFound, "deleting item")
}
