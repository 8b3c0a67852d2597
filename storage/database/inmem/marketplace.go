package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/marketplace"
)

type skillRepository struct {
	db *DB
}

var _ marketplace.SkillRepository = (*skillRepository)(nil) // interface compliance check

func NewSkillRepository(db *DB) marketplace.SkillRepository {
	return &skillRepository{db: db}
}

func (repo *skillRepository) CreateSkill(_ context.Context, s marketplace.Skill) (marketplace.Skill, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s.OfferedBy.AverageRating = 0
	s.Availability = append([]marketplace.Slot(nil), s.Availability...)
	repo.db.skills[s.ID] = &s
	return s, nil
}

func (repo *skillRepository) GetSkill(_ context.Context, id string) (marketplace.Skill, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.skills[id]; ok {
		return *s, nil
	}
	return marketplace.Skill{}, marketplace.ErrSkillNotFound
}

func (repo *skillRepository) QuerySkills(_ context.Context, filter marketplace.SkillFilter) ([]marketplace.Skill, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	list := make([]marketplace.Skill, 0, len(repo.db.skills))
	for _, s := range repo.db.skills {
		if filter.OfferedBy != "" && s.OfferedBy.ID != filter.OfferedBy {
			continue
		}
		if filter.Category != "" && !core.ContainsFold(s.Category, filter.Category) {
			continue
		}
		if filter.Search != "" &&
			!core.ContainsFold(s.Title, filter.Search) &&
			!core.ContainsFold(s.Description, filter.Search) &&
			!core.ContainsFold(s.Category, filter.Search) {
			continue
		}
		list = append(list, *s)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (repo *skillRepository) UpdateSkill(_ context.Context, s marketplace.Skill) (marketplace.Skill, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.skills[s.ID]; !ok {
		return marketplace.Skill{}, marketplace.ErrSkillNotFound
	}
	s.OfferedBy.AverageRating = 0
	repo.db.skills[s.ID] = &s
	for _, sess := range repo.db.sessions {
		if sess.Skill.ID == s.ID {
			sess.Skill = s.Ref()
		}
	}
	return s, nil
}

// DeleteSkill also deletes the sessions of the skill and their reviews.
func (repo *skillRepository) DeleteSkill(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.skills[id]; !ok {
		return marketplace.ErrSkillNotFound
	}
	delete(repo.db.skills, id)
	for sid, sess := range repo.db.sessions {
		if sess.Skill.ID != id {
			continue
		}
		delete(repo.db.sessions, sid)
		for rid, r := range repo.db.reviews {
			if r.SessionID == sid {
				delete(repo.db.reviews, rid)
			}
		}
	}
	return nil
}

type sessionRepository struct {
	db *DB
}

var _ marketplace.SessionRepository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *DB) marketplace.SessionRepository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) CreateSession(_ context.Context, s marketplace.Session) (marketplace.Session, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	repo.db.sessions[s.ID] = &s
	return s, nil
}

func (repo *sessionRepository) GetSession(_ context.Context, id string) (marketplace.Session, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if s, ok := repo.db.sessions[id]; ok {
		return *s, nil
	}
	return marketplace.Session{}, marketplace.ErrSessionNotFound
}

func (repo *sessionRepository) QuerySessions(_ context.Context, filter marketplace.SessionFilter) ([]marketplace.Session, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	list := make([]marketplace.Session, 0, len(repo.db.sessions))
	for _, s := range repo.db.sessions {
		if filter.Participant != "" && !s.IsParticipant(filter.Participant) {
			continue
		}
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		list = append(list, *s)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Date != list[j].Date {
			return list[i].Date < list[j].Date
		}
		return list[i].TimeSlot.StartTime < list[j].TimeSlot.StartTime
	})
	return list, nil
}

func (repo *sessionRepository) UpdateSessionStatus(_ context.Context, id, from, to string, updatedAt time.Time) (marketplace.Session, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	s, ok := repo.db.sessions[id]
	if !ok {
		return marketplace.Session{}, marketplace.ErrSessionNotFound
	}
	if s.Status != from {
		return *s, marketplace.ErrStatusChanged
	}
	s.Status = to
	s.UpdatedAt = updatedAt
	return *s, nil
}

type reviewRepository struct {
	db *DB
}

var _ marketplace.ReviewRepository = (*reviewRepository)(nil) // interface compliance check

func NewReviewRepository(db *DB) marketplace.ReviewRepository {
	return &reviewRepository{db: db}
}

func (repo *reviewRepository) CreateReview(_ context.Context, r marketplace.Review) (marketplace.Review, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	sess, ok := repo.db.sessions[r.SessionID]
	if !ok {
		return marketplace.Review{}, marketplace.ErrSessionNotFound
	}
	if sess.FeedbackGiven {
		return marketplace.Review{}, marketplace.ErrFeedbackGiven
	}
	for _, rv := range repo.db.reviews {
		if rv.SessionID == r.SessionID {
			return marketplace.Review{}, marketplace.ErrFeedbackGiven
		}
	}

	r.Reviewer.AverageRating, r.Reviewee.AverageRating = 0, 0
	repo.db.reviews[r.ID] = &r
	sess.FeedbackGiven = true
	return r, nil
}

func (repo *reviewRepository) QueryReviews(_ context.Context, filter marketplace.ReviewFilter) ([]marketplace.Review, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	list := make([]marketplace.Review, 0, len(repo.db.reviews))
	for _, r := range repo.db.reviews {
		if filter.Reviewee != "" && r.Reviewee.ID != filter.Reviewee {
			continue
		}
		if filter.Reviewer != "" && r.Reviewer.ID != filter.Reviewer {
			continue
		}
		list = append(list, *r)
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (repo *reviewRepository) RatingStats(_ context.Context, userIDs ...string) (map[string]marketplace.RatingStats, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	wanted := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}
	sums := make(map[string]int)
	stats := make(map[string]marketplace.RatingStats)
	for _, r := range repo.db.reviews {
		id := r.Reviewee.ID
		if !wanted[id] {
			continue
		}
		st := stats[id]
		st.Count++
		sums[id] += r.Rating
		stats[id] = st
	}
	for id, st := range stats {
		st.Average = marketplace.RoundRating(float64(sums[id]) / float64(st.Count))
		stats[id] = st
	}
	return stats, nil
}
