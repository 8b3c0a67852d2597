package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/techfeed"
)

type postRepository struct {
	db *DB
}

var _ techfeed.Repository = (*postRepository)(nil) // interface compliance check

func NewPostRepository(db *DB) techfeed.Repository {
	return &postRepository{db: db}
}

func (repo *postRepository) CreatePost(_ context.Context, p techfeed.Post) (techfeed.Post, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.posts[p.ID] = &p
	return p, nil
}

func (repo *postRepository) GetPost(_ context.Context, id string) (techfeed.Post, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if p, ok := repo.db.posts[id]; ok {
		return *p, nil
	}
	return techfeed.Post{}, techfeed.ErrNotFound
}

func (repo *postRepository) QueryPosts(_ context.Context, filter techfeed.QueryFilter) ([]techfeed.Post, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	list := make([]techfeed.Post, 0, len(repo.db.posts))
	for _, p := range repo.db.posts {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Search != "" && !core.ContainsFold(p.Title, filter.Search) && !core.ContainsFold(p.Content, filter.Search) {
			continue
		}
		if !filter.ActiveAt.IsZero() && p.IsExpired(filter.ActiveAt) {
			continue
		}
		list = append(list, *p)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (repo *postRepository) UpdatePost(_ context.Context, p techfeed.Post) (techfeed.Post, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.posts[p.ID]; !ok {
		return techfeed.Post{}, techfeed.ErrNotFound
	}
	repo.db.posts[p.ID] = &p
	return p, nil
}

func (repo *postRepository) DeletePost(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.posts[id]; !ok {
		return techfeed.ErrNotFound
	}
	delete(repo.db.posts, id)
	for _, saved := range repo.db.saved {
		delete(saved, id)
	}
	return nil
}

func (repo *postRepository) SavePost(_ context.Context, userID, postID string, savedAt time.Time) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.posts[postID]; !ok {
		return techfeed.ErrNotFound
	}
	saved, ok := repo.db.saved[userID]
	if !ok {
		saved = make(map[string]time.Time)
		repo.db.saved[userID] = saved
	}
	if _, ok := saved[postID]; ok {
		return techfeed.ErrAlreadySaved
	}
	saved[postID] = savedAt
	return nil
}

func (repo *postRepository) UnsavePost(_ context.Context, userID, postID string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.saved[userID][postID]; !ok {
		return techfeed.ErrNotSaved
	}
	delete(repo.db.saved[userID], postID)
	return nil
}

func (repo *postRepository) QuerySavedPosts(_ context.Context, userID string) ([]techfeed.SavedPost, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	list := make([]techfeed.SavedPost, 0, len(repo.db.saved[userID]))
	for postID, savedAt := range repo.db.saved[userID] {
		if p, ok := repo.db.posts[postID]; ok {
			list = append(list, techfeed.SavedPost{PostID: postID, SavedAt: savedAt, Post: *p})
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].SavedAt.After(list[j].SavedAt) })
	return list, nil
}
