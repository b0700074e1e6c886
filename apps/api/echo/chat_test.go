package echoapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somaedu/soma/core/chat"
	"github.com/somaedu/soma/core/user"
)

func Test_chatApi_post(t *testing.T) {
	env := setup(t)

	teacher := env.createUser(t, "Sarah Johnson", "sjohnson", "teacher@test.cd", "S0me-pass!", []string{user.RoleTeacher}, true)
	sub := env.createSubject(t, "Matematika")

	t.Run("Auth required", func(t *testing.T) {
		body := marchallObj(t, chat.NewMessage{SubjectID: sub.ID, Body: "hello"})
		req, rec := newAuthRequest(http.MethodPost, "/v1/discussions", "", body)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("Body required", func(t *testing.T) {
		body := marchallObj(t, chat.NewMessage{SubjectID: sub.ID})
		req, rec := newAuthRequest(http.MethodPost, "/v1/discussions", getToken(t, teacher), body)
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"body": "this field is required"})}, rec)
	})

	t.Run("Author comes from the token, not the payload", func(t *testing.T) {
		// author fields in the payload must be ignored
		payload := []byte(`{"subject_id": "` + sub.ID + `", "body": "Does anyone understand question 3?", "author_id": "spoofed", "author_name": "Spoofed"}`)
		req, rec := newAuthRequest(http.MethodPost, "/v1/discussions", getToken(t, teacher), payload)
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var msg chat.Message
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
		assert.Equal(t, teacher.ID, msg.AuthorID)
		assert.Equal(t, teacher.Name, msg.AuthorName)
		assert.Equal(t, teacher.Roles, msg.AuthorRoles)
		assert.Equal(t, "Does anyone understand question 3?", msg.Body)
		assert.NotEmpty(t, msg.ID)
	})
}

func Test_chatApi_queryBySubject(t *testing.T) {
	env := setup(t)

	teacher := env.createUser(t, "Sarah Johnson", "sjohnson", "teacher@test.cd", "S0me-pass!", []string{user.RoleTeacher}, true)
	student := env.createUser(t, "Alex Thompson", "athompson", "student@test.cd", "S0me-pass!", []string{user.RoleStudent}, true)
	sub := env.createSubject(t, "Matematika")
	other := env.createSubject(t, "Fisika")

	post := func(t *testing.T, usr user.User, body string) chat.Message {
		t.Helper()
		req, rec := newAuthRequest(http.MethodPost, "/v1/discussions", getToken(t, usr), marchallObj(t, chat.NewMessage{SubjectID: sub.ID, Body: body}))
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var msg chat.Message
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
		return msg
	}

	first := post(t, student, "Does anyone understand question 3?")
	second := post(t, teacher, "Check the worked example on page 12.")

	t.Run("Oldest first", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/discussions/subject/"+sub.ID, getToken(t, student))
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var msgs []chat.Message
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msgs))
		require.Len(t, msgs, 2)
		assert.Equal(t, first.ID, msgs[0].ID)
		assert.Equal(t, second.ID, msgs[1].ID)
	})

	t.Run("Scoped to the subject", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/discussions/subject/"+other.ID, getToken(t, student))
		env.server.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: marchallList(t)}, rec)
	})
}

func Test_chatApi_stream(t *testing.T) {
	env := setup(t)

	teacher := env.createUser(t, "Sarah Johnson", "sjohnson", "teacher@test.cd", "S0me-pass!", []string{user.RoleTeacher}, true)
	student := env.createUser(t, "Alex Thompson", "athompson", "student@test.cd", "S0me-pass!", []string{user.RoleStudent}, true)
	sub := env.createSubject(t, "Matematika")
	other := env.createSubject(t, "Fisika")

	srv := httptest.NewServer(env.server)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	header := http.Header{"Authorization": []string{"Bearer " + getToken(t, student)}}
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL+"/v1/discussions/subject/"+sub.ID+"/ws", header)
	require.NoError(t, err)
	defer conn.Close()
	require.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	// the handler subscribes after the handshake; give it a beat
	time.Sleep(100 * time.Millisecond)

	t.Run("Auth required", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL+"/v1/discussions/subject/"+sub.ID+"/ws", nil)
		require.Error(t, err)
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("Posted messages are pushed", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/discussions", getToken(t, teacher), marchallObj(t, chat.NewMessage{SubjectID: sub.ID, Body: "Quiz results are up."}))
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg chat.Message
		require.NoError(t, conn.ReadJSON(&msg))
		assert.Equal(t, sub.ID, msg.SubjectID)
		assert.Equal(t, teacher.ID, msg.AuthorID)
		assert.Equal(t, "Quiz results are up.", msg.Body)
	})

	t.Run("Other subjects are not pushed", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/v1/discussions", getToken(t, teacher), marchallObj(t, chat.NewMessage{SubjectID: other.ID, Body: "Wrong room."}))
		env.server.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
		var msg chat.Message
		err := conn.ReadJSON(&msg)
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "timeout") || websocket.IsUnexpectedCloseError(err))
	})
}
