package main

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/client"
	"github.com/trezcool/campus/core/user"
	"github.com/trezcool/campus/testutil/apitest"
)

type portalEnv struct {
	*apitest.Env
	url string
}

func setup(t *testing.T) *portalEnv {
	t.Helper()
	env := apitest.New(t)
	srv := httptest.NewServer(env.Server)
	t.Cleanup(srv.Close)
	return &portalEnv{Env: env, url: srv.URL + "/api"}
}

// newCLI returns a command line with its own session and the buffer it prints to.
func (env *portalEnv) newCLI() (*commandLine, *bytes.Buffer) {
	out := new(bytes.Buffer)
	session := client.NewSession(client.New(env.url, client.NewMemoryTokenStore()))
	cli := newCommandLine(session, out)
	cli.now = func() time.Time { return env.Clock.Now() }
	return cli, out
}

// signedIn returns the command line of a new user, signed in.
func (env *portalEnv) signedIn(t *testing.T, uname, role string) (*commandLine, *bytes.Buffer, user.User) {
	t.Helper()
	usr := env.CreateUser(t, uname, role)
	cli, out := env.newCLI()
	_, err := cli.session.Login(context.Background(), uname, apitest.Password)
	require.NoError(t, err)
	return cli, out, usr
}

func mockPassword(t *testing.T, pwd string) {
	t.Helper()
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

func run(t *testing.T, cli *commandLine, args ...string) error {
	t.Helper()
	return cli.run(context.Background(), append([]string{"portal"}, args...))
}

func TestRun_usage(t *testing.T) {
	env := setup(t)
	cli, out := env.newCLI()

	tests := []struct {
		name string
		args []string
		want error
	}{
		{name: "no command", want: errHelp},
		{name: "unknown command", args: []string{"nope"}, want: errHelp},
		{name: "action before login", args: []string{"polls", "nope"}, want: errNotLoggedIn},
		{name: "not logged in", args: []string{"dashboard"}, want: errNotLoggedIn},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, run(t, cli, tt.args...))
		})
	}
	assert.Contains(t, out.String(), "Usage:")
}

func TestAuth(t *testing.T) {
	env := setup(t)
	env.CreateUser(t, "kim", user.RoleStudent)
	cli, out := env.newCLI()

	mockPassword(t, "wrong-password")
	err := run(t, cli, "login", "-username", "kim")
	require.Error(t, err)
	assert.Equal(t, "authentication failed", client.ErrorMessage(err))

	mockPassword(t, apitest.Password)
	require.NoError(t, run(t, cli, "login", "-username", "kim"))
	assert.Contains(t, out.String(), "Welcome back, kim!")

	out.Reset()
	require.NoError(t, run(t, cli, "me"))
	assert.Contains(t, out.String(), "kim@campus.test")
	assert.Contains(t, out.String(), user.RoleStudent)

	require.NoError(t, run(t, cli, "logout"))
	assert.Equal(t, errNotLoggedIn, run(t, cli, "me"))
	token, err := cli.session.Client().Tokens().Token()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestRegister(t *testing.T) {
	env := setup(t)
	cli, out := env.newCLI()

	mockPassword(t, "12345678")
	err := run(t, cli, "register", "-username", "newbie", "-email", "newbie@campus.test")
	var formErr *client.FormError
	require.ErrorAs(t, err, &formErr)
	assert.Equal(t, "password cannot be entirely numeric", formErr.Fields["password"])

	mockPassword(t, apitest.Password)
	require.NoError(t, run(t, cli, "register", "-username", "newbie", "-email", "newbie@campus.test"))
	assert.Contains(t, out.String(), "Welcome, newbie!")
	usr, ok := cli.session.User()
	require.True(t, ok)
	assert.Equal(t, user.RoleStudent, usr.Role)
}

func TestUsers(t *testing.T) {
	env := setup(t)
	admin, out, _ := env.signedIn(t, "boss", user.RoleAdmin)
	student, _, _ := env.signedIn(t, "kim", user.RoleStudent)

	assert.Equal(t, errAdminOnly, run(t, student, "users"))

	require.NoError(t, run(t, admin, "users", "-role", user.RoleStudent, "-active", "true"))
	assert.Contains(t, out.String(), "kim@campus.test")
	assert.NotContains(t, out.String(), "boss@campus.test")
}

func TestAnnouncements(t *testing.T) {
	env := setup(t)
	admin, adminOut, _ := env.signedIn(t, "boss", user.RoleAdmin)
	student, out, _ := env.signedIn(t, "kim", user.RoleStudent)

	assert.Equal(t, errAdminOnly, run(t, student, "announcements", "create", "-title", "x"))

	err := run(t, admin, "announcements", "create", "-title", "Exams start", "-content", "Good luck", "-category", "Bogus")
	var formErr *client.FormError
	require.ErrorAs(t, err, &formErr)
	assert.Contains(t, formErr.Fields, "category")

	require.NoError(t, run(t, admin, "announcements", "create", "-title", "Exams start", "-content", "Good luck", "-category", "Exam"))
	assert.Contains(t, adminOut.String(), `Announcement "Exams start" posted.`)
	assert.Contains(t, adminOut.String(), "ID")

	require.NoError(t, run(t, student, "announcements"))
	assert.Contains(t, out.String(), "Exams start")
	assert.NotContains(t, out.String(), "ID")

	out.Reset()
	require.NoError(t, run(t, student, "announcements", "list", "-category", "Holiday"))
	assert.Contains(t, out.String(), "Nothing to show.")
}

func TestComplaints(t *testing.T) {
	env := setup(t)
	admin, adminOut, _ := env.signedIn(t, "boss", user.RoleAdmin)
	student, out, _ := env.signedIn(t, "kim", user.RoleStudent)
	ctx := context.Background()

	require.NoError(t, run(t, student, "complaints", "submit",
		"-title", "No water", "-description", "Block B has no water", "-category", "Water Issue"))
	assert.Contains(t, out.String(), `Complaint "No water" submitted, status Pending.`)

	mine, err := student.session.Client().MyComplaints(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	assert.Equal(t, errAdminOnly, run(t, student, "complaints", "status", "-id", mine[0].ID, "-status", "Resolved"))
	require.NoError(t, run(t, admin, "complaints", "status", "-id", mine[0].ID, "-status", "Resolved"))
	assert.Contains(t, adminOut.String(), `Complaint "No water" is now Resolved.`)

	out.Reset()
	require.NoError(t, run(t, student, "complaints"))
	assert.Contains(t, out.String(), "Resolved")

	adminOut.Reset()
	require.NoError(t, run(t, admin, "complaints", "-status", "Pending"))
	assert.Contains(t, adminOut.String(), "Nothing to show.")
}

func TestLostFound(t *testing.T) {
	env := setup(t)
	student, out, _ := env.signedIn(t, "kim", user.RoleStudent)
	other, otherOut, _ := env.signedIn(t, "lee", user.RoleStudent)

	require.NoError(t, run(t, student, "lostfound", "report",
		"-type", "lost", "-name", "Blue umbrella", "-description", "Left after class",
		"-location", "Library", "-category", "Accessories"))
	assert.Contains(t, out.String(), `lost item "Blue umbrella" reported.`)

	require.NoError(t, run(t, other, "lostfound", "list", "-type", "lost"))
	assert.Contains(t, otherOut.String(), "Blue umbrella")
	assert.Contains(t, otherOut.String(), "kim")

	items, err := other.session.Client().LostFoundItems(context.Background(), client.LostFoundQuery{})
	require.NoError(t, err)
	require.Len(t, items, 1)

	err = run(t, other, "lostfound", "delete", items[0].ID)
	assert.True(t, client.IsStatus(err, 404), "got %v", err)

	require.NoError(t, run(t, student, "lostfound", "update", "-id", items[0].ID, "-type", "found"))
	require.NoError(t, run(t, student, "lostfound", "delete", items[0].ID))
	assert.Contains(t, out.String(), "Item deleted.")
}

func TestTimetable(t *testing.T) {
	env := setup(t)
	admin, _, _ := env.signedIn(t, "boss", user.RoleAdmin)
	student, out, _ := env.signedIn(t, "kim", user.RoleStudent)

	err := run(t, admin, "timetable", "create", "-day", "Monday", "-start", "10:00", "-end", "09:00",
		"-subject", "Maths", "-location", "A1", "-faculty", "Dr. Gauss")
	var formErr *client.FormError
	require.ErrorAs(t, err, &formErr)
	assert.Contains(t, formErr.Fields, "endTime")

	require.NoError(t, run(t, admin, "timetable", "create", "-day", "Monday", "-start", "09:00", "-end", "10:00",
		"-subject", "Maths", "-location", "A1", "-faculty", "Dr. Gauss"))

	require.NoError(t, run(t, student, "timetable", "-day", "Monday"))
	assert.Contains(t, out.String(), "09:00-10:00")
	assert.Contains(t, out.String(), "Dr. Gauss")
}

func TestMarketplace(t *testing.T) {
	env := setup(t)
	tutor, tutorOut, tutorUsr := env.signedIn(t, "ada", user.RoleStudent)
	learner, out, _ := env.signedIn(t, "kim", user.RoleStudent)
	ctx := context.Background()

	require.NoError(t, run(t, tutor, "skills", "create", "-title", "Go basics", "-category", "Programming",
		"-slot", "monday 14:00-16:00", "-slot", "Friday 10:00-12:00"))
	assert.Contains(t, tutorOut.String(), `Skill "Go basics" saved.`)

	skills, err := learner.session.Client().Skills(ctx, client.SkillQuery{Search: "go"})
	require.NoError(t, err)
	require.Len(t, skills, 1)
	assert.Equal(t, "Monday", skills[0].Availability[0].Day)

	require.NoError(t, run(t, learner, "sessions", "book", "-skill", skills[0].ID,
		"-date", "2025-03-10", "-start", "14:00", "-end", "15:00"))
	assert.Contains(t, out.String(), `Session of "Go basics" with ada requested for 2025-03-10.`)

	sessions, err := learner.session.Client().MySessions(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	id := sessions[0].ID

	assert.True(t, client.IsStatus(run(t, learner, "sessions", "status", "-id", id, "-status", "Confirmed"), 403))
	require.NoError(t, run(t, tutor, "sessions", "status", "-id", id, "-status", "Confirmed"))
	require.NoError(t, run(t, tutor, "sessions", "status", "-id", id, "-status", "Completed"))
	assert.Contains(t, tutorOut.String(), "Session is now Completed.")

	out.Reset()
	require.NoError(t, run(t, learner, "reviews", "create", "-session", id, "-rating", "4", "-comment", "Clear and patient"))
	assert.Contains(t, out.String(), "Thanks! You rated ada 4/5.")

	out.Reset()
	require.NoError(t, run(t, learner, "reviews", "user", tutorUsr.ID))
	assert.Contains(t, out.String(), "****")
	assert.Contains(t, out.String(), "Clear and patient")

	tutorOut.Reset()
	require.NoError(t, run(t, tutor, "me"))
	assert.Contains(t, tutorOut.String(), "4.00")
}

func TestTechFeed(t *testing.T) {
	env := setup(t)
	admin, _, _ := env.signedIn(t, "boss", user.RoleAdmin)
	student, out, _ := env.signedIn(t, "kim", user.RoleStudent)

	require.NoError(t, run(t, admin, "techfeed", "create", "-title", "Go 2 released", "-content", "Generics everywhere",
		"-category", "Tech News", "-link", "https://go.dev"))

	posts, err := student.session.Client().TechPosts(context.Background(), client.TechPostQuery{})
	require.NoError(t, err)
	require.Len(t, posts, 1)

	require.NoError(t, run(t, student, "techfeed", "save", posts[0].ID))
	assert.Contains(t, out.String(), `Saved "Go 2 released".`)
	assert.Error(t, run(t, student, "techfeed", "save", posts[0].ID))

	out.Reset()
	require.NoError(t, run(t, student, "techfeed", "unsave", posts[0].ID))
	assert.Contains(t, out.String(), "Nothing to show.")
}

func TestPolls(t *testing.T) {
	env := setup(t)
	admin, adminOut, _ := env.signedIn(t, "boss", user.RoleAdmin)
	student, out, _ := env.signedIn(t, "kim", user.RoleStudent)

	err := run(t, admin, "polls", "create", "-question", "Best day?", "-option", "Friday", "-option", " ")
	var formErr *client.FormError
	require.ErrorAs(t, err, &formErr)
	assert.Contains(t, formErr.Fields, "options")

	require.NoError(t, run(t, admin, "polls", "create", "-question", "Best day?",
		"-option", "Friday", "-option", "Saturday", "-expires", "2100-01-01"))
	assert.Contains(t, adminOut.String(), `Poll "Best day?" created.`)

	polls, err := student.session.Client().Polls(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, polls, 1)
	id := polls[0].ID

	require.NoError(t, run(t, student, "polls", "vote", "-id", id, "-option", "1"))
	assert.Contains(t, out.String(), `Vote recorded for "Saturday".`)
	assert.Error(t, run(t, student, "polls", "vote", "-id", id, "-option", "0"))

	out.Reset()
	require.NoError(t, run(t, student, "polls", "results", id))
	assert.Contains(t, out.String(), "Best day? (1 votes)")
	assert.Contains(t, out.String(), "100%")
	assert.Contains(t, out.String(), "Leading: Saturday")

	out.Reset()
	require.NoError(t, run(t, student, "polls", "show", id))
	assert.Contains(t, out.String(), "<- your vote")

	require.NoError(t, run(t, admin, "polls", "update", "-id", id, "-question", "Best weekday?"))
	assert.Contains(t, adminOut.String(), `Poll "Best weekday?" updated.`)
}

func TestDashboard(t *testing.T) {
	env := setup(t)
	admin, adminOut, _ := env.signedIn(t, "boss", user.RoleAdmin)
	student, out, _ := env.signedIn(t, "kim", user.RoleStudent)

	require.NoError(t, run(t, student, "complaints", "submit",
		"-title", "Noisy hall", "-description", "Loud music at night", "-category", "Noise Complaint"))

	out.Reset()
	require.NoError(t, run(t, student, "dashboard"))
	assert.Regexp(t, `My complaints:\s+1`, out.String())
	assert.Regexp(t, `Saved posts:\s+0`, out.String())

	require.NoError(t, run(t, admin, "dashboard"))
	assert.Regexp(t, `Complaints:\s+1`, adminOut.String())
	assert.Regexp(t, `Pending complaints:\s+1`, adminOut.String())
}

func Test_action(t *testing.T) {
	tests := []struct {
		args     []string
		wantAct  string
		wantRest []string
	}{
		{args: nil, wantAct: "list"},
		{args: []string{"-day", "Monday"}, wantAct: "list", wantRest: []string{"-day", "Monday"}},
		{args: []string{"show", "42"}, wantAct: "show", wantRest: []string{"42"}},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			act, rest := action(tt.args, "list")
			assert.Equal(t, tt.wantAct, act)
			assert.Equal(t, len(tt.wantRest), len(rest))
			for i := range tt.wantRest {
				assert.Equal(t, tt.wantRest[i], rest[i])
			}
		})
	}
}

func Test_parseSlots(t *testing.T) {
	slots, err := parseSlots([]string{"tuesday 08:00-09:30"})
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "Tuesday", slots[0].Day)
	assert.Equal(t, "08:00", slots[0].StartTime)
	assert.Equal(t, "09:30", slots[0].EndTime)

	for _, bad := range []string{"Tuesday", "Tuesday 08:00", "Tuesday 08:00 09:00"} {
		_, err = parseSlots([]string{bad})
		assert.Error(t, err, bad)
	}
}

func Test_parseTime(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantNil bool
		wantErr bool
	}{
		{in: "", wantNil: true},
		{in: "2025-03-10T12:00:00Z", want: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)},
		{in: "2025-03-10 12:30", want: time.Date(2025, 3, 10, 12, 30, 0, 0, time.Local)},
		{in: "2025-03-10", want: time.Date(2025, 3, 10, 0, 0, 0, 0, time.Local)},
		{in: "next week", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseTime(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.True(t, tt.want.Equal(*got), "got %v", got)
		})
	}
}
