package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/campus/core/announcement"
)

type announcementRepository struct {
	db *DB
}

var _ announcement.Repository = (*announcementRepository)(nil) // interface compliance check

func NewAnnouncementRepository(db *DB) announcement.Repository {
	return &announcementRepository{db: db}
}

func (repo *announcementRepository) CreateAnnouncement(_ context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.announcements[a.ID] = &a
	return a, nil
}

func (repo *announcementRepository) GetAnnouncement(_ context.Context, id string) (announcement.Announcement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if a, ok := repo.db.announcements[id]; ok {
		return *a, nil
	}
	return announcement.Announcement{}, announcement.ErrNotFound
}

func (repo *announcementRepository) QueryAnnouncements(_ context.Context, filter announcement.QueryFilter) ([]announcement.Announcement, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	list := make([]announcement.Announcement, 0, len(repo.db.announcements))
	for _, a := range repo.db.announcements {
		if filter.Category != "" && a.Category != filter.Category {
			continue
		}
		list = append(list, *a)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (repo *announcementRepository) UpdateAnnouncement(_ context.Context, a announcement.Announcement) (announcement.Announcement, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.announcements[a.ID]; !ok {
		return announcement.Announcement{}, announcement.ErrNotFound
	}
	repo.db.announcements[a.ID] = &a
	return a, nil
}

func (repo *announcementRepository) DeleteAnnouncement(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.announcements[id]; !ok {
		return announcement.ErrNotFound
	}
	delete(repo.db.announcements, id)
	return nil
}
