package inmemdb

import (
	"context"

	"github.com/trezcool/campus/core/timetable"
)

type entryRepository struct {
	db *DB
}

var _ timetable.Repository = (*entryRepository)(nil) // interface compliance check

func NewEntryRepository(db *DB) timetable.Repository {
	return &entryRepository{db: db}
}

func (repo *entryRepository) CreateEntry(_ context.Context, e timetable.Entry) (timetable.Entry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.entries[e.ID] = &e
	return e, nil
}

func (repo *entryRepository) GetEntry(_ context.Context, id string) (timetable.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if e, ok := repo.db.entries[id]; ok {
		return *e, nil
	}
	return timetable.Entry{}, timetable.ErrNotFound
}

func (repo *entryRepository) QueryEntries(_ context.Context, filter timetable.QueryFilter) ([]timetable.Entry, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	list := make([]timetable.Entry, 0, len(repo.db.entries))
	for _, e := range repo.db.entries {
		if filter.DayOfWeek != "" && e.DayOfWeek != filter.DayOfWeek {
			continue
		}
		list = append(list, *e)
	}
	timetable.Sort(list)
	return list, nil
}

func (repo *entryRepository) UpdateEntry(_ context.Context, e timetable.Entry) (timetable.Entry, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.entries[e.ID]; !ok {
		return timetable.Entry{}, timetable.ErrNotFound
	}
	repo.db.entries[e.ID] = &e
	return e, nil
}

func (repo *entryRepository) DeleteEntry(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.entries[id]; !ok {
		return timetable.ErrNotFound
	}
	delete(repo.db.entries, id)
	return nil
}
