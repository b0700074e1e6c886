package echoapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somaedu/soma/core/material"
	"github.com/somaedu/soma/core/user"
)

func newUploadRequest(t *testing.T, token, subjectID, title, fileName, content string) (*http.Request, *httptest.ResponseRecorder) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("subject_id", subjectID))
	require.NoError(t, w.WriteField("title", title))
	require.NoError(t, w.WriteField("description", "test upload"))
	if fileName != "" {
		fw, err := w.CreateFormFile("file", fileName)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/materials", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req, httptest.NewRecorder()
}

func Test_materialApi_upload(t *testing.T) {
	env := setup(t)

	teacher := env.createUser(t, "Sarah Johnson", "sjohnson", "teacher@test.cd", "S0me-pass!", []string{user.RoleTeacher}, true)
	student := env.createUser(t, "Alex Thompson", "athompson", "student@test.cd", "S0me-pass!", []string{user.RoleStudent}, true)
	sub := env.createSubject(t, "Matematika")

	t.Run("Teachers only", func(t *testing.T) {
		req, rec := newUploadRequest(t, getToken(t, student), sub.ID, "Intro", "intro.pdf", "%PDF-1.4")
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)
	})

	t.Run("File part required", func(t *testing.T) {
		req, rec := newUploadRequest(t, getToken(t, teacher), sub.ID, "Intro", "", "")
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"file": "this field is required"})}, rec)
	})

	t.Run("Unknown file type", func(t *testing.T) {
		req, rec := newUploadRequest(t, getToken(t, teacher), sub.ID, "Intro", "intro.exe", "MZ")
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"file_type": "file type must be one of: pdf, ppt, video"})}, rec)
	})

	t.Run("Uploaded", func(t *testing.T) {
		req, rec := newUploadRequest(t, getToken(t, teacher), sub.ID, "Introduction to Web Development", "intro.pdf", "%PDF-1.4")
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var mat material.Material
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mat))
		assert.Equal(t, teacher.ID, mat.TeacherID)
		assert.Equal(t, material.TypePDF, mat.FileType)
		assert.Equal(t, int64(len("%PDF-1.4")), mat.FileSize)
		assert.True(t, strings.HasPrefix(mat.FileURL, "/v1/media/"))
		assert.Zero(t, mat.DownloadCount)
	})
}

func Test_materialApi_download(t *testing.T) {
	env := setup(t)

	teacher := env.createUser(t, "Sarah Johnson", "sjohnson", "teacher@test.cd", "S0me-pass!", []string{user.RoleTeacher}, true)
	student := env.createUser(t, "Alex Thompson", "athompson", "student@test.cd", "S0me-pass!", []string{user.RoleStudent}, true)
	sub := env.createSubject(t, "Matematika")

	req, rec := newUploadRequest(t, getToken(t, teacher), sub.ID, "Intro", "intro.pdf", "%PDF-1.4 content")
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var mat material.Material
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mat))

	studentToken := getToken(t, student)

	t.Run("Streams the blob", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/materials/"+mat.ID+"/download", studentToken)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "%PDF-1.4 content", rec.Body.String())
		assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "attachment")
	})

	t.Run("Counts downloads", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/materials/"+mat.ID+"/download", studentToken)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, "/v1/materials/"+mat.ID, studentToken)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var got material.Material
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, 2, got.DownloadCount)
	})

	t.Run("Unknown material", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/materials/nope/download", studentToken)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}, rec)
	})
}

func Test_materialApi_queryAndDestroy(t *testing.T) {
	env := setup(t)

	teacher := env.createUser(t, "Sarah Johnson", "sjohnson", "teacher@test.cd", "S0me-pass!", []string{user.RoleTeacher}, true)
	rival := env.createUser(t, "Rival Teacher", "rivalteach", "rival@test.cd", "S0me-pass!", []string{user.RoleTeacher}, true)
	sub := env.createSubject(t, "Matematika")
	other := env.createSubject(t, "Fisika")

	req, rec := newUploadRequest(t, getToken(t, teacher), sub.ID, "Intro", "intro.pdf", "%PDF-1.4")
	env.server.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var mat material.Material
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &mat))

	teacherToken := getToken(t, teacher)

	t.Run("By subject", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/materials/subject/"+sub.ID, teacherToken)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, mat)}, rec)

		req, rec = newAuthRequest(http.MethodGet, "/v1/materials/subject/"+other.ID, teacherToken)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t)}, rec)
	})

	t.Run("By teacher", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/materials/teacher/"+teacher.ID, teacherToken)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t, mat)}, rec)
	})

	t.Run("Only the owner may delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/v1/materials/"+mat.ID, getToken(t, rival))
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"})}, rec)

		req, rec = newAuthRequest(http.MethodDelete, "/v1/materials/"+mat.ID, teacherToken)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		req, rec = newAuthRequest(http.MethodGet, "/v1/materials/"+mat.ID, teacherToken)
		env.server.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
