package inmemdb

import (
	"context"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/lostfound"
)

var itemKeys = map[string]sortKey[lostfound.Item]{
	"created_at": func(it lostfound.Item) string { return timeKey(it.CreatedAt) },
	"item_name":  func(it lostfound.Item) string { return it.ItemName },
	"type":       func(it lostfound.Item) string { return it.Type },
	"category":   func(it lostfound.Item) string { return it.Category },
}

type itemRepository struct {
	db *DB
}

var _ lostfound.Repository = (*itemRepository)(nil) // interface compliance check

func NewItemRepository(db *DB) lostfound.Repository {
	return &itemRepository{db: db}
}

func (repo *itemRepository) CreateItem(_ context.Context, it lostfound.Item) (lostfound.Item, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.items[it.ID] = &it
	return it, nil
}

func (repo *itemRepository) GetItem(_ context.Context, id string) (lostfound.Item, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if it, ok := repo.db.items[id]; ok {
		return *it, nil
	}
	return lostfound.Item{}, lostfound.ErrNotFound
}

func (repo *itemRepository) QueryItems(_ context.Context, filter lostfound.QueryFilter, ordering ...core.DBOrdering) ([]lostfound.Item, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	list := make([]lostfound.Item, 0, len(repo.db.items))
	for _, it := range repo.db.items {
		if filter.ReportedBy != "" && it.ReportedBy.ID != filter.ReportedBy {
			continue
		}
		if filter.Type != "" && it.Type != filter.Type {
			continue
		}
		if filter.Search != "" &&
			!core.ContainsFold(it.ItemName, filter.Search) &&
			!core.ContainsFold(it.Description, filter.Search) &&
			!core.ContainsFold(it.Location, filter.Search) {
			continue
		}
		list = append(list, *it)
	}
	sortByColumns(list, itemKeys, ordering, core.DBOrdering{Field: "created_at"})
	return list, nil
}

func (repo *itemRepository) UpdateItem(_ context.Context, it lostfound.Item) (lostfound.Item, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.items[it.ID]; !ok {
		return lostfound.Item{}, lostfound.ErrNotFound
	}
	repo.db.items[it.ID] = &it
	return it, nil
}

func (repo *itemRepository) DeleteItem(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.items[id]; !ok {
		return lostfound.ErrNotFound
	}
	delete(repo.db.items, id)
	return nil
}
