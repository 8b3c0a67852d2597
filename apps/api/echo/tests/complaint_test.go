package tests

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/campus/core/complaint"
	"github.com/trezcool/campus/core/user"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n fake image")

func Test_complaintApi(t *testing.T) {
	env := setup(t)
	admin := env.createUser(t, "admin", user.RoleAdmin)
	kim := env.createUser(t, "kim", user.RoleStudent)
	bob := env.createUser(t, "bob", user.RoleStudent)
	adminToken, kimToken, bobToken := env.getToken(t, admin), env.getToken(t, kim), env.getToken(t, bob)

	fields := map[string]string{
		"complaintTitle": "No water",
		"description":    "Block C has had no water since Monday",
		"category":       complaint.CategoryWater,
	}

	t.Run("missing fields", func(t *testing.T) {
		rec := env.serve(newMultipartRequest(t, http.MethodPost, "/api/complaints", kimToken, map[string]string{"category": "Other"}, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		errs := decode[map[string]string](t, rec)
		assert.Contains(t, errs, "complaintTitle")
		assert.Contains(t, errs, "description")
	})

	rec := env.serve(newMultipartRequest(t, http.MethodPost, "/api/complaints", kimToken, fields, pngBytes))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	withImage := decode[complaint.Complaint](t, rec)
	assert.Equal(t, complaint.StatusPending, withImage.Status)
	assert.Equal(t, "/uploads/photo.png", withImage.Image)
	assert.Equal(t, kim.ID, withImage.SubmittedBy.ID)
	assert.Equal(t, pngBytes, env.files.Files[withImage.Image])

	fields["complaintTitle"] = "Loud music"
	fields["category"] = complaint.CategoryNoise
	rec = env.serve(newMultipartRequest(t, http.MethodPost, "/api/complaints", bobToken, fields, nil))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	noImage := decode[complaint.Complaint](t, rec)
	assert.Empty(t, noImage.Image)

	resolved := withImage
	resolved.Status = complaint.StatusResolved

	env.run(t, []httpTest{
		{name: "my complaints", path: "/api/complaints/my", token: kimToken, wantCode: http.StatusOK, wantData: marchallList(t, withImage)},
		{
			name: "all requires admin", path: "/api/complaints/all", token: kimToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "all by category", path: "/api/complaints/all?ordering=category", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, noImage, withImage),
		},
		{name: "owner sees it", path: "/api/complaints/" + withImage.ID, token: kimToken, wantCode: http.StatusOK, wantData: marchallObj(t, withImage)},
		{
			name: "others do not", path: "/api/complaints/" + withImage.ID, token: bobToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "status requires admin", method: http.MethodPut, path: "/api/complaints/" + withImage.ID + "/status", token: kimToken,
			body: []byte(`{"status":"Resolved"}`), wantCode: http.StatusForbidden,
		},
		{
			name: "bad status", method: http.MethodPut, path: "/api/complaints/" + withImage.ID + "/status", token: adminToken,
			body: []byte(`{"status":"Done"}`), wantCode: http.StatusBadRequest,
		},
		{
			name: "set status", method: http.MethodPut, path: "/api/complaints/" + withImage.ID + "/status", token: adminToken,
			body: []byte(`{"status":"Resolved"}`), wantCode: http.StatusOK, wantData: marchallObj(t, resolved),
		},
		{
			name: "all by status", path: "/api/complaints/all?status=Resolved", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, resolved),
		},
		{name: "delete not owner", method: http.MethodDelete, path: "/api/complaints/" + withImage.ID, token: bobToken, wantCode: http.StatusNotFound},
		{name: "delete", method: http.MethodDelete, path: "/api/complaints/" + withImage.ID, token: kimToken, wantCode: http.StatusNoContent},
		{name: "admin delete", method: http.MethodDelete, path: "/api/complaints/" + noImage.ID, token: adminToken, wantCode: http.StatusNoContent},
		{name: "all empty", path: "/api/complaints/all", token: adminToken, wantCode: http.StatusOK, wantData: []byte(`[]`)},
	})

	assert.Equal(t, []string{withImage.Image}, env.files.Deleted)
}
