package inmemdb

import (
	"context"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/complaint"
)

var complaintKeys = map[string]sortKey[complaint.Complaint]{
	"created_at": func(c complaint.Complaint) string { return timeKey(c.CreatedAt) },
	"updated_at": func(c complaint.Complaint) string { return timeKey(c.UpdatedAt) },
	"status":     func(c complaint.Complaint) string { return c.Status },
	"category":   func(c complaint.Complaint) string { return c.Category },
}

type complaintRepository struct {
	db *DB
}

var _ complaint.Repository = (*complaintRepository)(nil) // interface compliance check

func NewComplaintRepository(db *DB) complaint.Repository {
	return &complaintRepository{db: db}
}

func (repo *complaintRepository) CreateComplaint(_ context.Context, c complaint.Complaint) (complaint.Complaint, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.complaints[c.ID] = &c
	return c, nil
}

func (repo *complaintRepository) GetComplaint(_ context.Context, id string) (complaint.Complaint, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if c, ok := repo.db.complaints[id]; ok {
		return *c, nil
	}
	return complaint.Complaint{}, complaint.ErrNotFound
}

func (repo *complaintRepository) QueryComplaints(_ context.Context, filter complaint.QueryFilter, ordering ...core.DBOrdering) ([]complaint.Complaint, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	list := make([]complaint.Complaint, 0, len(repo.db.complaints))
	for _, c := range repo.db.complaints {
		if filter.SubmittedBy != "" && c.SubmittedBy.ID != filter.SubmittedBy {
			continue
		}
		if filter.Status != "" && c.Status != filter.Status {
			continue
		}
		if filter.Category != "" && c.Category != filter.Category {
			continue
		}
		list = append(list, *c)
	}
	sortByColumns(list, complaintKeys, ordering, core.DBOrdering{Field: "created_at"})
	return list, nil
}

func (repo *complaintRepository) UpdateComplaint(_ context.Context, c complaint.Complaint) (complaint.Complaint, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.complaints[c.ID]; !ok {
		return complaint.Complaint{}, complaint.ErrNotFound
	}
	repo.db.complaints[c.ID] = &c
	return c, nil
}

func (repo *complaintRepository) DeleteComplaint(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.complaints[id]; !ok {
		return complaint.ErrNotFound
	}
	delete(repo.db.complaints, id)
	return nil
}
