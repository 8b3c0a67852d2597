package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/campus/core/marketplace"
)

// Skills

const selectSkills = `SELECT s.id, s.title, s.category, s.description, s.availability, s.created_at, s.updated_at,
	u.id AS "offered_by.id", u.username AS "offered_by.username", u.email AS "offered_by.email"
	FROM skills s JOIN users u ON u.id = s.offered_by`

type skillRow struct {
	ID           string    `db:"id"`
	Title        string    `db:"title"`
	Category     string    `db:"category"`
	Description  string    `db:"description"`
	Availability null.JSON `db:"availability"`
	OfferedBy    userRef   `db:"offered_by"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r skillRow) skill() (marketplace.Skill, error) {
	s := marketplace.Skill{
		ID:          r.ID,
		Title:       r.Title,
		Category:    r.Category,
		Description: r.Description,
		OfferedBy:   r.OfferedBy.ref(),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	if err := r.Availability.Unmarshal(&s.Availability); err != nil {
		return marketplace.Skill{}, errors.Wrap(err, "decoding availability")
	}
	if s.Availability == nil {
		s.Availability = []marketplace.Slot{}
	}
	return s, nil
}

func availabilityJSON(slots []marketplace.Slot) (null.JSON, error) {
	if slots == nil {
		slots = []marketplace.Slot{}
	}
	b, err := json.Marshal(slots)
	if err != nil {
		return null.JSON{}, errors.Wrap(err, "encoding availability")
	}
	return null.JSONFrom(b), nil
}

type skillRepository struct {
	db *sqlx.DB
}

var _ marketplace.SkillRepository = (*skillRepository)(nil) // interface compliance check

func NewSkillRepository(db *sqlx.DB) marketplace.SkillRepository {
	return &skillRepository{db: db}
}

func (repo *skillRepository) CreateSkill(ctx context.Context, s marketplace.Skill) (marketplace.Skill, error) {
	avail, err := availabilityJSON(s.Availability)
	if err != nil {
		return marketplace.Skill{}, err
	}
	_, err = repo.db.ExecContext(ctx,
		`INSERT INTO skills (id, title, category, description, availability, offered_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		s.ID, s.Title, s.Category, s.Description, avail, s.OfferedBy.ID, s.CreatedAt.UTC(), s.UpdatedAt.UTC())
	if err != nil {
		return marketplace.Skill{}, errors.Wrap(err, "inserting skill")
	}
	s.OfferedBy.AverageRating = 0
	return s, nil
}

func (repo *skillRepository) GetSkill(ctx context.Context, id string) (marketplace.Skill, error) {
	if !validID(id) {
		return marketplace.Skill{}, marketplace.ErrSkillNotFound
	}
	var row skillRow
	if err := repo.db.GetContext(ctx, &row, selectSkills+" WHERE s.id = $1", id); err != nil {
		return marketplace.Skill{}, trapNoRowsErr(err, marketplace.ErrSkillNotFound, "finding skill")
	}
	return row.skill()
}

func (repo *skillRepository) QuerySkills(ctx context.Context, filter marketplace.SkillFilter) ([]marketplace.Skill, error) {
	var w where
	if filter.OfferedBy != "" {
		if !validID(filter.OfferedBy) {
			return []marketplace.Skill{}, nil
		}
		w.add("s.offered_by = ?", filter.OfferedBy)
	}
	if filter.Category != "" {
		w.add("s.category ILIKE ?", "%"+filter.Category+"%")
	}
	if filter.Search != "" {
		val := "%" + filter.Search + "%"
		w.add("(s.title ILIKE ? OR s.description ILIKE ? OR s.category ILIKE ?)", val, val, val)
	}

	var rows []skillRow
	q := selectSkills + w.String() + " ORDER BY s.created_at DESC"
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying skills")
	}
	list := make([]marketplace.Skill, 0, len(rows))
	for _, row := range rows {
		s, err := row.skill()
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, nil
}

func (repo *skillRepository) UpdateSkill(ctx context.Context, s marketplace.Skill) (marketplace.Skill, error) {
	avail, err := availabilityJSON(s.Availability)
	if err != nil {
		return marketplace.Skill{}, err
	}
	res, err := repo.db.ExecContext(ctx,
		`UPDATE skills SET title = $2, category = $3, description = $4, availability = $5, updated_at = $6 WHERE id = $1`,
		s.ID, s.Title, s.Category, s.Description, avail, s.UpdatedAt.UTC())
	if err != nil {
		return marketplace.Skill{}, errors.Wrap(err, "updating skill")
	}
	if err = mustAffect(res, marketplace.ErrSkillNotFound, "updating skill"); err != nil {
		return marketplace.Skill{}, err
	}
	s.OfferedBy.AverageRating = 0
	return s, nil
}

// DeleteSkill also deletes the sessions of the skill and their reviews (ON DELETE CASCADE).
func (repo *skillRepository) DeleteSkill(ctx context.Context, id string) error {
	if !validID(id) {
		return marketplace.ErrSkillNotFound
	}
	res, err := repo.db.ExecContext(ctx, "DELETE FROM skills WHERE id = $1", id)
	if err != nil {
		return errors.Wrap(err, "deleting skill")
	}
	return mustAffect(res, marketplace.ErrSkillNotFound, "deleting skill")
}

// Sessions

const selectSessions = `SELECT se.id, to_char(se.date, 'YYYY-MM-DD') AS date, se.start_time, se.end_time, se.status,
	se.feedback_given, se.created_at, se.updated_at,
	sk.id AS "skill.id", sk.title AS "skill.title", sk.category AS "skill.category",
	t.id AS "tutor.id", t.username AS "tutor.username", t.email AS "tutor.email",
	l.id AS "learner.id", l.username AS "learner.username", l.email AS "learner.email"
	FROM sessions se
	JOIN skills sk ON sk.id = se.skill_id
	JOIN users t ON t.id = se.tutor_id
	JOIN users l ON l.id = se.learner_id`

type skillRefRow struct {
	ID       string `db:"id"`
	Title    string `db:"title"`
	Category string `db:"category"`
}

type sessionRow struct {
	ID            string      `db:"id"`
	Skill         skillRefRow `db:"skill"`
	Tutor         userRef     `db:"tutor"`
	Learner       userRef     `db:"learner"`
	Date          string      `db:"date"`
	StartTime     string      `db:"start_time"`
	EndTime       string      `db:"end_time"`
	Status        string      `db:"status"`
	FeedbackGiven bool        `db:"feedback_given"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

func (r sessionRow) session() marketplace.Session {
	return marketplace.Session{
		ID:            r.ID,
		Skill:         marketplace.SkillRef{ID: r.Skill.ID, Title: r.Skill.Title, Category: r.Skill.Category},
		Tutor:         r.Tutor.ref(),
		Learner:       r.Learner.ref(),
		Date:          r.Date,
		TimeSlot:      marketplace.TimeSlot{StartTime: r.StartTime, EndTime: r.EndTime},
		Status:        r.Status,
		FeedbackGiven: r.FeedbackGiven,
		CreatedAt:     r.CreatedAt.UTC(),
		UpdatedAt:     r.UpdatedAt.UTC(),
	}
}

type sessionRepository struct {
	db *sqlx.DB
}

var _ marketplace.SessionRepository = (*sessionRepository)(nil) // interface compliance check

func NewSessionRepository(db *sqlx.DB) marketplace.SessionRepository {
	return &sessionRepository{db: db}
}

func (repo *sessionRepository) CreateSession(ctx context.Context, s marketplace.Session) (marketplace.Session, error) {
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO sessions (id, skill_id, tutor_id, learner_id, date, start_time, end_time, status, feedback_given, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		s.ID, s.Skill.ID, s.Tutor.ID, s.Learner.ID, s.Date, s.TimeSlot.StartTime, s.TimeSlot.EndTime,
		s.Status, s.FeedbackGiven, s.CreatedAt.UTC(), s.UpdatedAt.UTC())
	if err != nil {
		return marketplace.Session{}, errors.Wrap(err, "inserting session")
	}
	return s, nil
}

func getSession(ctx context.Context, q sqlx.QueryerContext, id string) (marketplace.Session, error) {
	if !validID(id) {
		return marketplace.Session{}, marketplace.ErrSessionNotFound
	}
	var row sessionRow
	if err := sqlx.GetContext(ctx, q, &row, selectSessions+" WHERE se.id = $1", id); err != nil {
		return marketplace.Session{}, trapNoRowsErr(err, marketplace.ErrSessionNotFound, "finding session")
	}
	return row.session(), nil
}

func (repo *sessionRepository) GetSession(ctx context.Context, id string) (marketplace.Session, error) {
	return getSession(ctx, repo.db, id)
}

func (repo *sessionRepository) QuerySessions(ctx context.Context, filter marketplace.SessionFilter) ([]marketplace.Session, error) {
	var w where
	if filter.Participant != "" {
		if !validID(filter.Participant) {
			return []marketplace.Session{}, nil
		}
		w.add("(se.tutor_id = ? OR se.learner_id = ?)", filter.Participant, filter.Participant)
	}
	if filter.Status != "" {
		w.add("se.status = ?", filter.Status)
	}

	var rows []sessionRow
	q := selectSessions + w.String() + " ORDER BY se.date, se.start_time"
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying sessions")
	}
	list := make([]marketplace.Session, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.session())
	}
	return list, nil
}

func (repo *sessionRepository) UpdateSessionStatus(ctx context.Context, id, from, to string, updatedAt time.Time) (marketplace.Session, error) {
	if !validID(id) {
		return marketplace.Session{}, marketplace.ErrSessionNotFound
	}
	res, err := repo.db.ExecContext(ctx,
		"UPDATE sessions SET status = $2, updated_at = $3 WHERE id = $1 AND status = $4",
		id, to, updatedAt.UTC(), from)
	if err != nil {
		return marketplace.Session{}, errors.Wrap(err, "updating session status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return marketplace.Session{}, errors.Wrap(err, "updating session status")
	}

	s, err := getSession(ctx, repo.db, id)
	if err != nil {
		return marketplace.Session{}, err
	}
	if n == 0 {
		return s, marketplace.ErrStatusChanged
	}
	return s, nil
}

// Reviews

const selectReviews = `SELECT r.id, r.session_id, r.rating, r.comment, r.created_at,
	rr.id AS "reviewer.id", rr.username AS "reviewer.username", rr.email AS "reviewer.email",
	re.id AS "reviewee.id", re.username AS "reviewee.username", re.email AS "reviewee.email"
	FROM reviews r
	JOIN users rr ON rr.id = r.reviewer_id
	JOIN users re ON re.id = r.reviewee_id`

type reviewRow struct {
	ID        string    `db:"id"`
	SessionID string    `db:"session_id"`
	Reviewer  userRef   `db:"reviewer"`
	Reviewee  userRef   `db:"reviewee"`
	Rating    int       `db:"rating"`
	Comment   string    `db:"comment"`
	CreatedAt time.Time `db:"created_at"`
}

func (r reviewRow) review() marketplace.Review {
	return marketplace.Review{
		ID:        r.ID,
		SessionID: r.SessionID,
		Reviewer:  r.Reviewer.ref(),
		Reviewee:  r.Reviewee.ref(),
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt.UTC(),
	}
}

type reviewRepository struct {
	db *sqlx.DB
}

var _ marketplace.ReviewRepository = (*reviewRepository)(nil) // interface compliance check

func NewReviewRepository(db *sqlx.DB) marketplace.ReviewRepository {
	return &reviewRepository{db: db}
}

func (repo *reviewRepository) CreateReview(ctx context.Context, r marketplace.Review) (marketplace.Review, error) {
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE sessions SET feedback_given = TRUE WHERE id = $1 AND feedback_given = FALSE", r.SessionID)
		if err != nil {
			return errors.Wrap(err, "flagging session")
		}
		if err = mustAffect(res, marketplace.ErrFeedbackGiven, "flagging session"); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO reviews (id, session_id, reviewer_id, reviewee_id, rating, comment, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			r.ID, r.SessionID, r.Reviewer.ID, r.Reviewee.ID, r.Rating, r.Comment, r.CreatedAt.UTC())
		if isUniqueViolation(err) {
			return marketplace.ErrFeedbackGiven
		}
		return errors.Wrap(err, "inserting review")
	})
	if err != nil {
		return marketplace.Review{}, err
	}
	r.Reviewer.AverageRating, r.Reviewee.AverageRating = 0, 0
	return r, nil
}

func (repo *reviewRepository) QueryReviews(ctx context.Context, filter marketplace.ReviewFilter) ([]marketplace.Review, error) {
	var w where
	for col, id := range map[string]string{"r.reviewee_id": filter.Reviewee, "r.reviewer_id": filter.Reviewer} {
		if id == "" {
			continue
		}
		if !validID(id) {
			return []marketplace.Review{}, nil
		}
		w.add(col+" = ?", id)
	}

	var rows []reviewRow
	q := selectReviews + w.String() + " ORDER BY r.created_at DESC"
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying reviews")
	}
	list := make([]marketplace.Review, 0, len(rows))
	for _, row := range rows {
		list = append(list, row.review())
	}
	return list, nil
}

func (repo *reviewRepository) RatingStats(ctx context.Context, userIDs ...string) (map[string]marketplace.RatingStats, error) {
	ids := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if validID(id) {
			ids = append(ids, id)
		}
	}
	stats := make(map[string]marketplace.RatingStats)
	if len(ids) == 0 {
		return stats, nil
	}

	q, args, err := sqlx.In(
		"SELECT reviewee_id, AVG(rating)::float8 AS average, COUNT(*) AS count FROM reviews WHERE reviewee_id IN (?) GROUP BY reviewee_id",
		ids)
	if err != nil {
		return nil, errors.Wrap(err, "building rating stats query")
	}
	var rows []struct {
		RevieweeID string  `db:"reviewee_id"`
		Average    float64 `db:"average"`
		Count      int     `db:"count"`
	}
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying rating stats")
	}
	for _, row := range rows {
		stats[row.RevieweeID] = marketplace.RatingStats{Average: marketplace.RoundRating(row.Average), Count: row.Count}
	}
	return stats, nil
}
