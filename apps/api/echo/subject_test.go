package echoapi

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somaedu/soma/core/material"
	"github.com/somaedu/soma/core/subject"
	"github.com/somaedu/soma/core/user"
)

func Test_subjectApi_create(t *testing.T) {
	env := setup(t)

	admin := env.createUser(t, "Admin User", "adminuser", "admin@test.cd", "S0me-pass!", []string{user.RoleAdmin}, true)
	student := env.createUser(t, "Alex Thompson", "athompson", "student@test.cd", "S0me-pass!", []string{user.RoleStudent}, true)
	env.createSubject(t, "Matematika")

	tests := []httpTest{
		{
			name: "Auth required", body: marchallObj(t, subject.NewSubject{Name: "Fisika"}),
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Admin required", token: getToken(t, student), body: marchallObj(t, subject.NewSubject{Name: "Fisika"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Created", token: getToken(t, admin), body: marchallObj(t, subject.NewSubject{Name: "Fisika"}),
			wantCode: http.StatusCreated,
		},
		{
			name: "Duplicate name", token: getToken(t, admin), body: marchallObj(t, subject.NewSubject{Name: "matematika"}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": subject.ErrNameExists.Error()}),
		},
		{
			name: "Name required", token: getToken(t, admin), body: marchallObj(t, subject.NewSubject{}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "this field is required"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodPost, "/v1/subjects", tt.token, tt.body)
			env.server.ServeHTTP(rec, req)

			if tt.wantData != nil {
				checkCodeAndData(t, tt, rec)
				return
			}
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			var sub subject.Subject
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sub))
			assert.Equal(t, "Fisika", sub.Name)
			assert.NotEmpty(t, sub.ID)
		})
	}
}

func Test_subjectApi_queryAndUpdate(t *testing.T) {
	env := setup(t)

	admin := env.createUser(t, "Admin User", "adminuser", "admin@test.cd", "S0me-pass!", []string{user.RoleAdmin}, true)
	student := env.createUser(t, "Alex Thompson", "athompson", "student@test.cd", "S0me-pass!", []string{user.RoleStudent}, true)
	sub := env.createSubject(t, "Matematika")

	t.Run("Any authed user can list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/subjects", getToken(t, student))
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, sub)}, rec)
	})

	t.Run("Retrieve", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/subjects/"+sub.ID, getToken(t, student))
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallObj(t, sub)}, rec)
	})

	t.Run("Unknown subject", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/subjects/nope", getToken(t, student))
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})

	t.Run("Rename", func(t *testing.T) {
		body := marchallObj(t, subject.UpdateSubject{Name: "Matematika Lanjut"})
		req, rec := newAuthRequest(http.MethodPut, "/v1/subjects/"+sub.ID, getToken(t, admin), body)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var updated subject.Subject
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
		assert.Equal(t, "Matematika Lanjut", updated.Name)
	})
}

func Test_subjectApi_destroyCascades(t *testing.T) {
	env := setup(t)

	admin := env.createUser(t, "Admin User", "adminuser", "admin@test.cd", "S0me-pass!", []string{user.RoleAdmin}, true)
	teacher := env.createUser(t, "Sarah Johnson", "sjohnson", "teacher@test.cd", "S0me-pass!", []string{user.RoleTeacher}, true)
	sub := env.createSubject(t, "Matematika")

	mat, err := env.matSvc.Create(context.Background(), material.NewMaterial{
		SubjectID: sub.ID,
		TeacherID: teacher.ID,
		Title:     "Intro",
		FileName:  "intro.pdf",
		FileURL:   "/v1/media/intro.pdf",
		FileType:  material.TypePDF,
	})
	require.NoError(t, err)
	qz := env.createQuiz(t, sub.ID, teacher.ID, "Basics", true)

	req, rec := newAuthRequest(http.MethodDelete, "/v1/subjects/"+sub.ID, getToken(t, admin))
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	// the subject's materials and quizzes went with it
	req, rec = newAuthRequest(http.MethodGet, "/v1/materials/"+mat.ID, getToken(t, admin))
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req, rec = newAuthRequest(http.MethodGet, "/v1/quizzes/"+qz.ID, getToken(t, admin))
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
