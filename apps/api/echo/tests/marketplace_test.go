package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/campus/apps/api/echo"
	"github.com/trezcool/campus/core/marketplace"
	"github.com/trezcool/campus/core/user"
)

func Test_marketplaceApi(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "admin", user.RoleAdmin)
	kim := env.createUser(t, "kim", user.RoleStudent)
	bob := env.createUser(t, "bob", user.RoleStudent)
	carl := env.createUser(t, "carl", user.RoleStudent)
	adminToken, kimToken, bobToken, carlToken := env.getToken(t, admin), env.getToken(t, kim), env.getToken(t, bob), env.getToken(t, carl)

	newSkill := marketplace.NewSkill{
		Title:        "Guitar",
		Category:     "Music",
		Description:  "Acoustic basics",
		Availability: []marketplace.Slot{{Day: "Saturday", StartTime: "10:00", EndTime: "12:00"}},
	}

	env.run(t, []httpTest{
		{
			name: "skill without availability", method: http.MethodPost, path: "/api/skills", token: kimToken,
			body: []byte(`{"title":"Chess","category":"Games","availability":[]}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "incomplete slot", method: http.MethodPost, path: "/api/skills", token: kimToken,
			body: []byte(`{"title":"Chess","category":"Games","availability":[{"day":"Monday","startTime":"10:00"}]}`),
			wantCode: http.StatusBadRequest,
		},
	})

	rec := env.serve(newAuthRequest(http.MethodPost, "/api/skills", kimToken, marchallObj(t, newSkill)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	guitar := decode[marketplace.Skill](t, rec)
	assert.Equal(t, kim.ID, guitar.OfferedBy.ID)

	booking := func(date, start, end string) []byte {
		return marchallObj(t, marketplace.NewSession{
			SkillID: guitar.ID, Date: date, TimeSlot: marketplace.TimeSlot{StartTime: start, EndTime: end},
		})
	}

	env.run(t, []httpTest{
		{name: "skills", path: "/api/skills", token: bobToken, wantCode: http.StatusOK, wantData: marchallList(t, guitar)},
		{name: "search", path: "/api/skills?search=acoustic", token: bobToken, wantCode: http.StatusOK, wantData: marchallList(t, guitar)},
		{name: "category", path: "/api/skills?category=Sports", token: bobToken, wantCode: http.StatusOK, wantData: []byte(`[]`)},
		{name: "my skills", path: "/api/skills/my", token: kimToken, wantCode: http.StatusOK, wantData: marchallList(t, guitar)},
		{name: "no skills", path: "/api/skills/my", token: bobToken, wantCode: http.StatusOK, wantData: []byte(`[]`)},
		{name: "detail", path: "/api/skills/" + guitar.ID, token: bobToken, wantCode: http.StatusOK, wantData: marchallObj(t, guitar)},
		{
			name: "update not owner", method: http.MethodPut, path: "/api/skills/" + guitar.ID, token: bobToken,
			body: []byte(`{"title":"Drums"}`), wantCode: http.StatusNotFound,
		},
		{
			name: "book own skill", method: http.MethodPost, path: "/api/sessions", token: kimToken,
			body: booking("2025-03-08", "10:00", "11:00"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"skillId": "you cannot book your own skill"}),
		},
		{
			name: "book in the past", method: http.MethodPost, path: "/api/sessions", token: bobToken,
			body: booking("2025-03-02", "10:00", "11:00"), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"date": "date cannot be in the past"}),
		},
		{
			name: "end before start", method: http.MethodPost, path: "/api/sessions", token: bobToken,
			body: booking("2025-03-08", "11:00", "10:00"), wantCode: http.StatusBadRequest,
		},
	})

	rec = env.serve(newAuthRequest(http.MethodPost, "/api/sessions", bobToken, booking("2025-03-08", "10:00", "11:00")))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	session := decode[marketplace.Session](t, rec)
	assert.Equal(t, marketplace.StatusPending, session.Status)
	assert.Equal(t, kim.ID, session.Tutor.ID)
	assert.Equal(t, bob.ID, session.Learner.ID)

	statusPath := "/api/sessions/" + session.ID + "/status"
	env.run(t, []httpTest{
		{name: "tutor sessions", path: "/api/sessions/my", token: kimToken, wantCode: http.StatusOK, wantData: marchallList(t, session)},
		{name: "learner sessions", path: "/api/sessions/my", token: bobToken, wantCode: http.StatusOK, wantData: marchallList(t, session)},
		{name: "outsider sessions", path: "/api/sessions/my", token: carlToken, wantCode: http.StatusOK, wantData: []byte(`[]`)},
		{
			name: "outsider detail", path: "/api/sessions/" + session.ID, token: carlToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "session not found"}),
		},
		{
			name: "outsider status", method: http.MethodPut, path: statusPath, token: carlToken,
			body: []byte(`{"status":"Cancelled"}`), wantCode: http.StatusNotFound,
		},
		{
			name: "learner cannot confirm", method: http.MethodPut, path: statusPath, token: bobToken,
			body: []byte(`{"status":"Confirmed"}`), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "only the tutor can confirm a session"}),
		},
		{
			name: "review before completion", method: http.MethodPost, path: "/api/reviews", token: bobToken,
			body: marchallObj(t, marketplace.NewReview{SessionID: session.ID, Rating: 5, Comment: "Great"}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"sessionId": "only completed sessions can be reviewed"}),
		},
		{name: "tutor confirms", method: http.MethodPut, path: statusPath, token: kimToken, body: []byte(`{"status":"Confirmed"}`), wantCode: http.StatusOK},
		{name: "learner completes", method: http.MethodPut, path: statusPath, token: bobToken, body: []byte(`{"status":"Completed"}`), wantCode: http.StatusOK},
		{
			name: "completed is final", method: http.MethodPut, path: statusPath, token: kimToken,
			body: []byte(`{"status":"Cancelled"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"status": "session is already completed"}),
		},
		{
			name: "tutor cannot review", method: http.MethodPost, path: "/api/reviews", token: kimToken,
			body: marchallObj(t, marketplace.NewReview{SessionID: session.ID, Rating: 5, Comment: "Great"}), wantCode: http.StatusForbidden,
		},
		{
			name: "rating out of range", method: http.MethodPost, path: "/api/reviews", token: bobToken,
			body: marchallObj(t, marketplace.NewReview{SessionID: session.ID, Rating: 6, Comment: "Great"}), wantCode: http.StatusBadRequest,
		},
	})

	rec = env.serve(newAuthRequest(http.MethodPost, "/api/reviews", bobToken,
		marchallObj(t, marketplace.NewReview{SessionID: session.ID, Rating: 4, Comment: "Patient tutor"})))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	review := decode[marketplace.Review](t, rec)
	assert.Equal(t, kim.ID, review.Reviewee.ID)

	env.run(t, []httpTest{
		{
			name: "review once", method: http.MethodPost, path: "/api/reviews", token: bobToken,
			body: marchallObj(t, marketplace.NewReview{SessionID: session.ID, Rating: 1, Comment: "Changed my mind"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "feedback already given for this session"}),
		},
		{name: "received reviews", path: "/api/reviews/my", token: kimToken, wantCode: http.StatusOK, wantData: marchallList(t, review)},
		{name: "user reviews", path: "/api/reviews/user/" + kim.ID, token: carlToken, wantCode: http.StatusOK, wantData: marchallList(t, review)},
		{name: "no reviews", path: "/api/reviews/my", token: bobToken, wantCode: http.StatusOK, wantData: []byte(`[]`)},
	})

	t.Run("session flagged", func(t *testing.T) {
		rec := env.serve(newAuthRequest(http.MethodGet, "/api/sessions/"+session.ID, bobToken))
		require.Equal(t, http.StatusOK, rec.Code)
		s := decode[marketplace.Session](t, rec)
		assert.True(t, s.FeedbackGiven)
		assert.Equal(t, marketplace.StatusCompleted, s.Status)
	})

	t.Run("tutor profile", func(t *testing.T) {
		rec := env.serve(newAuthRequest(http.MethodGet, "/api/auth/me", kimToken))
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[echoapi.UserResponse](t, rec)
		assert.Equal(t, []string{guitar.ID}, resp.User.SkillsOffered)
		assert.Equal(t, 4.0, resp.User.AverageRating)
	})

	t.Run("rating on listings", func(t *testing.T) {
		rec := env.serve(newAuthRequest(http.MethodGet, "/api/skills", bobToken))
		require.Equal(t, http.StatusOK, rec.Code)
		skills := decode[[]marketplace.Skill](t, rec)
		require.Len(t, skills, 1)
		assert.Equal(t, 4.0, skills[0].OfferedBy.AverageRating)
	})

	env.run(t, []httpTest{
		{name: "admin deletes", method: http.MethodDelete, path: "/api/skills/" + guitar.ID, token: adminToken, wantCode: http.StatusNoContent},
		{name: "gone", path: "/api/skills/" + guitar.ID, token: kimToken, wantCode: http.StatusNotFound},
		{name: "sessions gone", path: "/api/sessions/my", token: bobToken, wantCode: http.StatusOK, wantData: []byte(`[]`)},
	})
}
