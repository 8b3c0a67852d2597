package marketplace_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/marketplace"
	inmemdb "github.com/trezcool/campus/storage/database/inmem"
	"github.com/trezcool/campus/testutil"
)

func newTestService(t *testing.T) (marketplace.Service, *inmemdb.DB) {
	t.Helper()
	db := inmemdb.Open()
	svc := marketplace.NewService(
		inmemdb.NewSkillRepository(db),
		inmemdb.NewSessionRepository(db),
		inmemdb.NewReviewRepository(db),
		testutil.Clock(),
	)
	return svc, db
}

var (
	tutor   = core.UserRef{ID: "tutor-id", Username: "tutor", Email: "tutor@campus.test"}
	learner = core.UserRef{ID: "learner-id", Username: "learner", Email: "learner@campus.test"}
	other   = core.UserRef{ID: "other-id", Username: "other"}

	slot = marketplace.TimeSlot{StartTime: "10:00", EndTime: "11:00"}
)

func fieldOf(t *testing.T, err error) string {
	t.Helper()
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	require.True(t, ok, "expected a ValidationError, got %v", err)
	require.NotEmpty(t, vErr.Fields)
	return vErr.Fields[0].Field
}

func createSkill(t *testing.T, svc marketplace.Service, title string) marketplace.Skill {
	t.Helper()
	s, err := svc.CreateSkill(context.Background(), tutor, marketplace.NewSkill{
		Title:        title,
		Category:     "Programming",
		Description:  "Learn " + title,
		Availability: []marketplace.Slot{{Day: "Saturday", StartTime: "09:00", EndTime: "12:00"}},
	})
	require.NoError(t, err)
	return s
}

func TestService_Skills(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	golang := createSkill(t, svc, "Go")
	python := createSkill(t, svc, "Python")
	assert.Equal(t, tutor.ID, golang.OfferedBy.ID)

	t.Run("query", func(t *testing.T) {
		tests := []struct {
			name   string
			filter marketplace.SkillFilter
			want   int
		}{
			{name: "all", want: 2},
			{name: "search title", filter: marketplace.SkillFilter{Search: "pyth"}, want: 1},
			{name: "search description", filter: marketplace.SkillFilter{Search: "learn"}, want: 2},
			{name: "category", filter: marketplace.SkillFilter{Category: "Programming"}, want: 2},
			{name: "other category", filter: marketplace.SkillFilter{Category: "Music"}, want: 0},
			{name: "by tutor", filter: marketplace.SkillFilter{OfferedBy: learner.ID}, want: 0},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				list, err := svc.QuerySkills(ctx, tt.filter)
				require.NoError(t, err)
				assert.Len(t, list, tt.want)
			})
		}
	})

	t.Run("update keeps empty fields", func(t *testing.T) {
		got, err := svc.UpdateSkill(ctx, python, marketplace.UpdateSkill{Title: "Python 3"})
		require.NoError(t, err)
		assert.Equal(t, "Python 3", got.Title)
		assert.Equal(t, python.Availability, got.Availability)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.DeleteSkill(ctx, python.ID))
		_, err := svc.GetSkill(ctx, python.ID)
		assert.True(t, core.IsNotFound(err))
	})
}

func TestService_Sessions(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	skill := createSkill(t, svc, "Go")

	book := func(t *testing.T) marketplace.Session {
		t.Helper()
		s, err := svc.BookSession(ctx, learner, marketplace.NewSession{SkillID: skill.ID, Date: "2025-03-05", TimeSlot: slot})
		require.NoError(t, err)
		return s
	}

	t.Run("booking", func(t *testing.T) {
		s := book(t)
		assert.Equal(t, marketplace.StatusPending, s.Status)
		assert.Equal(t, tutor.ID, s.Tutor.ID)
		assert.Equal(t, learner.ID, s.Learner.ID)
		assert.Equal(t, skill.Ref(), s.Skill)

		_, err := svc.BookSession(ctx, tutor, marketplace.NewSession{SkillID: skill.ID, Date: "2025-03-05", TimeSlot: slot})
		assert.Equal(t, "skillId", fieldOf(t, err), "own skill")

		_, err = svc.BookSession(ctx, learner, marketplace.NewSession{SkillID: "unknown", Date: "2025-03-05", TimeSlot: slot})
		assert.Equal(t, "skillId", fieldOf(t, err))

		_, err = svc.BookSession(ctx, learner, marketplace.NewSession{SkillID: skill.ID, Date: "2025-03-01", TimeSlot: slot})
		assert.Equal(t, "date", fieldOf(t, err))

		_, err = svc.BookSession(ctx, learner, marketplace.NewSession{SkillID: skill.ID, Date: "2025-03-03", TimeSlot: slot})
		assert.NoError(t, err, "today is bookable")
	})

	t.Run("my sessions", func(t *testing.T) {
		for _, id := range []string{tutor.ID, learner.ID} {
			list, err := svc.QueryMySessions(ctx, id)
			require.NoError(t, err)
			assert.Len(t, list, 2)
			assert.Equal(t, "2025-03-03", list[0].Date)
		}
		list, err := svc.QueryMySessions(ctx, other.ID)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("status transitions", func(t *testing.T) {
		tests := []struct {
			name    string
			from    []string // statuses applied by the tutor beforehand
			actor   string
			status  string
			wantErr string // "field", "permission", "notfound" or ""
		}{
			{name: "tutor confirms", actor: tutor.ID, status: marketplace.StatusConfirmed},
			{name: "learner cannot confirm", actor: learner.ID, status: marketplace.StatusConfirmed, wantErr: "permission"},
			{name: "outsider", actor: other.ID, status: marketplace.StatusCancelled, wantErr: "notfound"},
			{name: "learner cancels", actor: learner.ID, status: marketplace.StatusCancelled},
			{name: "learner completes confirmed", from: []string{marketplace.StatusConfirmed}, actor: learner.ID, status: marketplace.StatusCompleted},
			{name: "confirm twice", from: []string{marketplace.StatusConfirmed}, actor: tutor.ID, status: marketplace.StatusConfirmed, wantErr: "field"},
			{name: "completed is final", from: []string{marketplace.StatusCompleted}, actor: tutor.ID, status: marketplace.StatusCancelled, wantErr: "field"},
			{name: "cancelled is final", from: []string{marketplace.StatusCancelled}, actor: learner.ID, status: marketplace.StatusCompleted, wantErr: "field"},
			{name: "back to pending", actor: tutor.ID, status: marketplace.StatusPending, wantErr: "field"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				s := book(t)
				var err error
				for _, st := range tt.from {
					s, err = svc.SetSessionStatus(ctx, tutor.ID, s, st)
					require.NoError(t, err)
				}

				got, err := svc.SetSessionStatus(ctx, tt.actor, s, tt.status)
				switch tt.wantErr {
				case "":
					require.NoError(t, err)
					assert.Equal(t, tt.status, got.Status)
				case "field":
					assert.Equal(t, "status", fieldOf(t, err))
				case "permission":
					_, ok := errors.Cause(err).(*core.PermissionError)
					assert.True(t, ok, "got %v", err)
				case "notfound":
					assert.True(t, core.IsNotFound(err))
				}
			})
		}
	})
}

func TestService_SetSessionStatus_staleCopy(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	skill := createSkill(t, svc, "Rust")

	tests := []struct {
		name      string
		applied   []string // applied by the learner on the fresh copy
		actor     string
		status    string
		wantField string
		wantMsg   string
		want      string
	}{
		{
			name:      "cancel after completion",
			applied:   []string{marketplace.StatusCompleted},
			actor:     tutor.ID,
			status:    marketplace.StatusCancelled,
			wantField: "status",
			wantMsg:   "session is already completed",
			want:      marketplace.StatusCompleted,
		},
		{
			name:      "complete after cancellation",
			applied:   []string{marketplace.StatusCancelled},
			actor:     tutor.ID,
			status:    marketplace.StatusCompleted,
			wantField: "status",
			wantMsg:   "session is already cancelled",
			want:      marketplace.StatusCancelled,
		},
		{
			name:   "cancel after confirmation",
			actor:  learner.ID,
			status: marketplace.StatusCancelled,
			want:   marketplace.StatusCancelled,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stale, err := svc.BookSession(ctx, learner, marketplace.NewSession{SkillID: skill.ID, Date: "2025-03-10", TimeSlot: slot})
			require.NoError(t, err)

			if len(tt.applied) == 0 {
				_, err = svc.SetSessionStatus(ctx, tutor.ID, stale, marketplace.StatusConfirmed)
				require.NoError(t, err)
			}
			for _, st := range tt.applied {
				_, err = svc.SetSessionStatus(ctx, learner.ID, stale, st)
				require.NoError(t, err)
			}

			_, err = svc.SetSessionStatus(ctx, tt.actor, stale, tt.status)
			if tt.wantField != "" {
				assert.Equal(t, tt.wantField, fieldOf(t, err))
				assert.EqualError(t, errors.Cause(err), tt.wantMsg)
			} else {
				require.NoError(t, err)
			}

			got, err := svc.GetSession(ctx, stale.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Status)
		})
	}
}

func TestService_Reviews(t *testing.T) {
	ctx := context.Background()
	svc, db := newTestService(t)
	skill := createSkill(t, svc, "Go")

	s, err := svc.BookSession(ctx, learner, marketplace.NewSession{SkillID: skill.ID, Date: "2025-03-05", TimeSlot: slot})
	require.NoError(t, err)

	review := marketplace.NewReview{SessionID: s.ID, Rating: 4, Comment: "Great"}

	_, err = svc.AddReview(ctx, learner, review)
	assert.Equal(t, "sessionId", fieldOf(t, err), "session not completed")

	s, err = svc.SetSessionStatus(ctx, tutor.ID, s, marketplace.StatusCompleted)
	require.NoError(t, err)

	_, err = svc.AddReview(ctx, tutor, review)
	_, ok := errors.Cause(err).(*core.PermissionError)
	assert.True(t, ok, "only the learner reviews")

	_, err = svc.AddReview(ctx, learner, marketplace.NewReview{SessionID: "unknown", Rating: 4, Comment: "x"})
	assert.Equal(t, "sessionId", fieldOf(t, err))

	r, err := svc.AddReview(ctx, learner, review)
	require.NoError(t, err)
	assert.Equal(t, tutor.ID, r.Reviewee.ID)
	assert.Equal(t, learner.ID, r.Reviewer.ID)

	got, err := svc.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.FeedbackGiven)

	_, err = svc.AddReview(ctx, learner, review)
	assert.Equal(t, marketplace.ErrFeedbackGiven, err)

	// a second completed session rated 5 -> 4.5 average
	s2, err := svc.BookSession(ctx, learner, marketplace.NewSession{SkillID: skill.ID, Date: "2025-03-06", TimeSlot: slot})
	require.NoError(t, err)
	_, err = svc.SetSessionStatus(ctx, learner.ID, s2, marketplace.StatusCompleted)
	require.NoError(t, err)
	_, err = svc.AddReview(ctx, learner, marketplace.NewReview{SessionID: s2.ID, Rating: 5, Comment: "Even better"})
	require.NoError(t, err)

	t.Run("reviews received", func(t *testing.T) {
		list, err := svc.QueryReviewsFor(ctx, tutor.ID)
		require.NoError(t, err)
		assert.Len(t, list, 2)

		list, err = svc.QueryReviewsFor(ctx, learner.ID)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("stats", func(t *testing.T) {
		ids, stats, err := svc.UserStats(ctx, tutor.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{skill.ID}, ids)
		assert.Equal(t, marketplace.RatingStats{Average: 4.5, Count: 2}, stats)

		got, err := svc.GetSkill(ctx, skill.ID)
		require.NoError(t, err)
		assert.Equal(t, 4.5, got.OfferedBy.AverageRating)

		ids, stats, err = svc.UserStats(ctx, learner.ID)
		require.NoError(t, err)
		assert.Empty(t, ids)
		assert.Zero(t, stats.Count)
	})

	t.Run("deleting the skill removes its sessions and reviews", func(t *testing.T) {
		require.NoError(t, svc.DeleteSkill(ctx, skill.ID))
		_, err := svc.GetSession(ctx, s.ID)
		assert.True(t, core.IsNotFound(err))
		list, err := svc.QueryReviewsFor(ctx, tutor.ID)
		require.NoError(t, err)
		assert.Empty(t, list)
		require.NoError(t, db.PingContext(ctx))
	})
}

func TestRoundRating(t *testing.T) {
	assert.Equal(t, 4.33, marketplace.RoundRating(13.0/3))
	assert.Equal(t, 4.67, marketplace.RoundRating(14.0/3))
	assert.Equal(t, 0.0, marketplace.RoundRating(0))
}
