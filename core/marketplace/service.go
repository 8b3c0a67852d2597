package marketplace

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
)

var (
	// errors
	ErrSkillNotFound   = core.NewNotFoundError("skill not found")
	ErrSessionNotFound = core.NewNotFoundError("session not found")
	ErrFeedbackGiven   = core.NewValidationError(errors.New("feedback already given for this session"))
	ErrStatusChanged = errors.New("session status changed")

	errEndBeforeStart   = "end time must be after start time"
	errOwnSkill         = "you cannot book your own skill"
	errPastDate         = "date cannot be in the past"
	errSessionClosed    = "session is already %s"
	errConfirmNotTutor  = core.NewPermissionError("only the tutor can confirm a session")
	errReviewNotLearner = core.NewPermissionError("only the learner of a session can review it")
	errReviewNotDone    = "only completed sessions can be reviewed"
	errBadTransition    = "cannot change status from %s to %s"
)

type (
	SkillRepository interface {
		CreateSkill(ctx context.Context, s Skill) (Skill, error)
		GetSkill(ctx context.Context, id string) (Skill, error)
		// QuerySkills returns the matching skills, newest first.
		QuerySkills(ctx context.Context, filter SkillFilter) ([]Skill, error)
		UpdateSkill(ctx context.Context, s Skill) (Skill, error)
		DeleteSkill(ctx context.Context, id string) error
	}

	SessionRepository interface {
		CreateSession(ctx context.Context, s Session) (Session, error)
		GetSession(ctx context.Context, id string) (Session, error)
		// QuerySessions returns the matching sessions, by date then start time.
		QuerySessions(ctx context.Context, filter SessionFilter) ([]Session, error)
		// UpdateSessionStatus moves the session from status from to status to.
		// It returns the current session and ErrStatusChanged if its status is no longer from.
		UpdateSessionStatus(ctx context.Context, id, from, to string, updatedAt time.Time) (Session, error)
	}

	ReviewRepository interface {
		// CreateReview stores r and flags its session as reviewed in one step.
		// It returns ErrFeedbackGiven if the session already has a review.
		CreateReview(ctx context.Context, r Review) (Review, error)
		// QueryReviews returns the matching reviews, newest first.
		QueryReviews(ctx context.Context, filter ReviewFilter) ([]Review, error)
		// RatingStats returns the stats of the reviews received by each of userIDs.
		// Users without reviews are missing from the result.
		RatingStats(ctx context.Context, userIDs ...string) (map[string]RatingStats, error)
	}

	Service interface {
		CreateSkill(ctx context.Context, tutor core.UserRef, ns NewSkill) (Skill, error)
		GetSkill(ctx context.Context, id string) (Skill, error)
		QuerySkills(ctx context.Context, filter SkillFilter) ([]Skill, error)
		UpdateSkill(ctx context.Context, s Skill, us UpdateSkill) (Skill, error)
		DeleteSkill(ctx context.Context, id string) error

		BookSession(ctx context.Context, learner core.UserRef, ns NewSession) (Session, error)
		GetSession(ctx context.Context, id string) (Session, error)
		QueryMySessions(ctx context.Context, userID string) ([]Session, error)
		SetSessionStatus(ctx context.Context, actorID string, s Session, status string) (Session, error)

		AddReview(ctx context.Context, reviewer core.UserRef, nr NewReview) (Review, error)
		QueryReviewsFor(ctx context.Context, userID string) ([]Review, error)
		UserStats(ctx context.Context, userID string) (skillIDs []string, stats RatingStats, err error)
	}

	service struct {
		skills   SkillRepository
		sessions SessionRepository
		reviews  ReviewRepository
		clock    clockwork.Clock
	}
)

var _ Service = (*service)(nil)

func NewService(skills SkillRepository, sessions SessionRepository, reviews ReviewRepository, clock clockwork.Clock) Service {
	return &service{skills: skills, sessions: sessions, reviews: reviews, clock: clock}
}

// Skills

func (svc *service) CreateSkill(ctx context.Context, tutor core.UserRef, ns NewSkill) (Skill, error) {
	now := svc.clock.Now().UTC()
	s, err := svc.skills.CreateSkill(ctx, Skill{
		ID:           uuid.NewString(),
		Title:        ns.Title,
		Category:     ns.Category,
		Description:  ns.Description,
		Availability: ns.Availability,
		OfferedBy:    tutor,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return Skill{}, errors.Wrap(err, "creating skill")
	}
	return svc.withRating(ctx, s)
}

func (svc *service) GetSkill(ctx context.Context, id string) (Skill, error) {
	s, err := svc.skills.GetSkill(ctx, id)
	if err != nil {
		return Skill{}, err
	}
	return svc.withRating(ctx, s)
}

// QuerySkills returns the matching skills with the average rating of their tutor.
func (svc *service) QuerySkills(ctx context.Context, filter SkillFilter) ([]Skill, error) {
	filter.Clean()
	skills, err := svc.skills.QuerySkills(ctx, filter)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(skills))
	for _, s := range skills {
		ids = append(ids, s.OfferedBy.ID)
	}
	stats, err := svc.reviews.RatingStats(ctx, ids...)
	if err != nil {
		return nil, errors.Wrap(err, "getting rating stats")
	}
	for i := range skills {
		skills[i].OfferedBy.AverageRating = stats[skills[i].OfferedBy.ID].Average
	}
	return skills, nil
}

func (svc *service) UpdateSkill(ctx context.Context, s Skill, us UpdateSkill) (Skill, error) {
	us.apply(&s)
	s.UpdatedAt = svc.clock.Now().UTC()
	s, err := svc.skills.UpdateSkill(ctx, s)
	if err != nil {
		return Skill{}, errors.Wrap(err, "updating skill")
	}
	return svc.withRating(ctx, s)
}

func (svc *service) DeleteSkill(ctx context.Context, id string) error {
	return svc.skills.DeleteSkill(ctx, id)
}

func (svc *service) withRating(ctx context.Context, s Skill) (Skill, error) {
	stats, err := svc.reviews.RatingStats(ctx, s.OfferedBy.ID)
	if err != nil {
		return Skill{}, errors.Wrap(err, "getting rating stats")
	}
	s.OfferedBy.AverageRating = stats[s.OfferedBy.ID].Average
	return s, nil
}

// Sessions

// BookSession creates a Pending session of ns.SkillID for learner. NewSession must have been validated.
func (svc *service) BookSession(ctx context.Context, learner core.UserRef, ns NewSession) (Session, error) {
	skill, err := svc.skills.GetSkill(ctx, ns.SkillID)
	if err != nil {
		if core.IsNotFound(err) {
			return Session{}, core.NewFieldError("skillId", ErrSkillNotFound.Error())
		}
		return Session{}, errors.Wrap(err, "finding skill")
	}
	if skill.OfferedBy.ID == learner.ID {
		return Session{}, core.NewFieldError("skillId", errOwnSkill)
	}

	now := svc.clock.Now().UTC()
	date, err := time.Parse(dateLayout, ns.Date)
	if err != nil {
		return Session{}, core.NewFieldError("date", err.Error())
	}
	if date.Before(now.Truncate(24 * time.Hour)) {
		return Session{}, core.NewFieldError("date", errPastDate)
	}

	learner.AverageRating = 0
	s, err := svc.sessions.CreateSession(ctx, Session{
		ID:        uuid.NewString(),
		Skill:     skill.Ref(),
		Tutor:     core.UserRef{ID: skill.OfferedBy.ID, Username: skill.OfferedBy.Username, Email: skill.OfferedBy.Email},
		Learner:   learner,
		Date:      ns.Date,
		TimeSlot:  ns.TimeSlot,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return s, errors.Wrap(err, "creating session")
}

func (svc *service) GetSession(ctx context.Context, id string) (Session, error) {
	return svc.sessions.GetSession(ctx, id)
}

func (svc *service) QueryMySessions(ctx context.Context, userID string) ([]Session, error) {
	return svc.sessions.QuerySessions(ctx, SessionFilter{Participant: userID})
}

// SetSessionStatus moves s to status on behalf of actorID, one of its participants:
// - Pending -> Confirmed: tutor only
// - Pending|Confirmed -> Completed|Cancelled: tutor or learner
// - Completed and Cancelled are final
func (svc *service) SetSessionStatus(ctx context.Context, actorID string, s Session, status string) (Session, error) {
	if !s.IsParticipant(actorID) {
		return Session{}, ErrSessionNotFound
	}
	if s.isTerminal() {
		return Session{}, core.NewFieldError("status", fmt.Sprintf(errSessionClosed, strings.ToLower(s.Status)))
	}

	switch status {
	case StatusConfirmed:
		if s.Status != StatusPending {
			return Session{}, core.NewFieldError("status", fmt.Sprintf(errBadTransition, s.Status, status))
		}
		if s.Tutor.ID != actorID {
			return Session{}, errConfirmNotTutor
		}
	case StatusCompleted, StatusCancelled:
	default:
		return Session{}, core.NewFieldError("status", fmt.Sprintf(errBadTransition, s.Status, status))
	}

	updated, err := svc.sessions.UpdateSessionStatus(ctx, s.ID, s.Status, status, svc.clock.Now().UTC())
	if err != nil {
		if err == ErrStatusChanged {
			// statuses only move forward, so re-checking the fresh copy terminates
			return svc.SetSessionStatus(ctx, actorID, updated, status)
		}
		return Session{}, errors.Wrap(err, "updating session status")
	}
	return updated, nil
}

// Reviews

// AddReview records the review of a completed session by its learner.
func (svc *service) AddReview(ctx context.Context, reviewer core.UserRef, nr NewReview) (Review, error) {
	s, err := svc.sessions.GetSession(ctx, nr.SessionID)
	if err != nil {
		if core.IsNotFound(err) {
			return Review{}, core.NewFieldError("sessionId", ErrSessionNotFound.Error())
		}
		return Review{}, errors.Wrap(err, "finding session")
	}
	if s.Learner.ID != reviewer.ID {
		return Review{}, errReviewNotLearner
	}
	if s.Status != StatusCompleted {
		return Review{}, core.NewFieldError("sessionId", errReviewNotDone)
	}
	if s.FeedbackGiven {
		return Review{}, ErrFeedbackGiven
	}

	r, err := svc.reviews.CreateReview(ctx, Review{
		ID:        uuid.NewString(),
		SessionID: s.ID,
		Reviewer:  s.Learner,
		Reviewee:  s.Tutor,
		Rating:    nr.Rating,
		Comment:   nr.Comment,
		CreatedAt: svc.clock.Now().UTC(),
	})
	if err != nil {
		if err == ErrFeedbackGiven {
			return Review{}, err
		}
		return Review{}, errors.Wrap(err, "creating review")
	}
	return r, nil
}

func (svc *service) QueryReviewsFor(ctx context.Context, userID string) ([]Review, error) {
	return svc.reviews.QueryReviews(ctx, ReviewFilter{Reviewee: userID})
}

// UserStats returns the ids of the skills offered by userID and the stats of the reviews they received.
func (svc *service) UserStats(ctx context.Context, userID string) ([]string, RatingStats, error) {
	skills, err := svc.skills.QuerySkills(ctx, SkillFilter{OfferedBy: userID})
	if err != nil {
		return nil, RatingStats{}, errors.Wrap(err, "querying skills")
	}
	ids := make([]string, 0, len(skills))
	for _, s := range skills {
		ids = append(ids, s.ID)
	}

	stats, err := svc.reviews.RatingStats(ctx, userID)
	if err != nil {
		return nil, RatingStats{}, errors.Wrap(err, "getting rating stats")
	}
	return ids, stats[userID], nil
}

// RoundRating rounds an average rating to 2 decimals.
func RoundRating(avg float64) float64 {
	return math.Round(avg*100) / 100
}
