package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core/timetable"
	"github.com/trezcool/campus/core/user"
)

func Test_timetableApi(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "admin", user.RoleAdmin)
	kim := env.createUser(t, "kim", user.RoleStudent)
	adminToken, kimToken := env.getToken(t, admin), env.getToken(t, kim)

	create := func(ne timetable.NewEntry) timetable.Entry {
		t.Helper()
		rec := env.serve(newAuthRequest(http.MethodPost, "/api/timetable", adminToken, marchallObj(t, ne)))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		return decode[timetable.Entry](t, rec)
	}

	friday := create(timetable.NewEntry{DayOfWeek: "Friday", StartTime: "08:00", EndTime: "10:00", Subject: "Physics", Location: "Lab 2", Faculty: "Dr. Okafor"})
	mondayLate := create(timetable.NewEntry{DayOfWeek: "Monday", StartTime: "14:00", EndTime: "15:30", Subject: "Maths", Location: "A1", Faculty: "Dr. Banda"})
	mondayEarly := create(timetable.NewEntry{DayOfWeek: "Monday", StartTime: "09:00", EndTime: "10:00", Subject: "History", Location: "B3", Faculty: "Dr. Mensah"})

	moved := friday
	moved.DayOfWeek = "Tuesday"

	env.run(t, []httpTest{
		{
			name: "ordered by day then start", path: "/api/timetable", token: kimToken,
			wantCode: http.StatusOK, wantData: marchallList(t, mondayEarly, mondayLate, friday),
		},
		{name: "by day", path: "/api/timetable?day=Friday", token: kimToken, wantCode: http.StatusOK, wantData: marchallList(t, friday)},
		{
			name: "create requires admin", method: http.MethodPost, path: "/api/timetable", token: kimToken,
			body: marchallObj(t, timetable.NewEntry{DayOfWeek: "Monday"}), wantCode: http.StatusForbidden,
		},
		{
			name: "end before start", method: http.MethodPost, path: "/api/timetable", token: adminToken,
			body: marchallObj(t, timetable.NewEntry{DayOfWeek: "Monday", StartTime: "10:00", EndTime: "09:00", Subject: "X", Location: "Y", Faculty: "Z"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"endTime": "end time must be after start time"}),
		},
		{
			name: "weekend", method: http.MethodPost, path: "/api/timetable", token: adminToken,
			body: marchallObj(t, timetable.NewEntry{DayOfWeek: "Sunday", StartTime: "09:00", EndTime: "10:00", Subject: "X", Location: "Y", Faculty: "Z"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "bad time", method: http.MethodPost, path: "/api/timetable", token: adminToken,
			body: marchallObj(t, timetable.NewEntry{DayOfWeek: "Monday", StartTime: "9am", EndTime: "10:00", Subject: "X", Location: "Y", Faculty: "Z"}),
			wantCode: http.StatusBadRequest,
		},
		{
			name: "update", method: http.MethodPut, path: "/api/timetable/" + friday.ID, token: adminToken,
			body: marchallObj(t, timetable.NewEntry{DayOfWeek: "Tuesday", StartTime: "08:00", EndTime: "10:00", Subject: "Physics", Location: "Lab 2", Faculty: "Dr. Okafor"}),
			wantCode: http.StatusOK, wantData: marchallObj(t, moved),
		},
		{
			name: "after update", path: "/api/timetable", token: kimToken,
			wantCode: http.StatusOK, wantData: marchallList(t, mondayEarly, mondayLate, moved),
		},
		{name: "delete requires admin", method: http.MethodDelete, path: "/api/timetable/" + friday.ID, token: kimToken, wantCode: http.StatusForbidden},
		{name: "delete", method: http.MethodDelete, path: "/api/timetable/" + friday.ID, token: adminToken, wantCode: http.StatusNoContent},
		{
			name: "delete unknown", method: http.MethodDelete, path: "/api/timetable/" + friday.ID, token: adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "timetable entry not found"}),
		},
	})
}
