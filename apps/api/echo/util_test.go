package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	"github.com/somaedu/soma/core"
	"github.com/somaedu/soma/core/chat"
	"github.com/somaedu/soma/core/material"
	"github.com/somaedu/soma/core/quiz"
	"github.com/somaedu/soma/core/subject"
	"github.com/somaedu/soma/core/user"
	emailsvc "github.com/somaedu/soma/services/email"
	logsvc "github.com/somaedu/soma/services/logger"
	dummydb "github.com/somaedu/soma/storage/database/dummy"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type (
	httpErr struct {
		Error string `json:"error"`
	}

	httpTest struct {
		name     string
		method   string
		path     string
		body     []byte
		token    string
		wantCode int
		wantData []byte
	}

	testEnv struct {
		server  *Server
		usrSvc  user.ServiceInterface
		subSvc  subject.ServiceInterface
		matSvc  material.ServiceInterface
		quizSvc quiz.ServiceInterface
		chatSvc chat.ServiceInterface
		files   material.FileStore
	}
)

func setup(t *testing.T) *testEnv {
	t.Helper()

	// error bodies must follow the production JSON contract
	core.Conf.Debug = false
	core.Conf.TestMode = true

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}
	fileStore := dummydb.NewFileStore()

	usrSvc := user.NewService(dummydb.NewUserRepository(db), emailsvc.NewConsoleServiceMock())
	subSvc := subject.NewService(dummydb.NewSubjectRepository(db))
	matSvc := material.NewService(dummydb.NewMaterialRepository(db), fileStore)
	quizSvc := quiz.NewService(dummydb.NewQuizRepository(db))
	chatSvc := chat.NewService(dummydb.NewChatRepository(db), chat.NewHub())

	validate := validator.New()
	translator := newTestTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)
	material.RegisterValidators(validate, translator)
	quiz.RegisterValidators(validate, translator)

	server := NewServer(ServerDeps{
		Logger:         logsvc.NewConsoleLogger(log.New(ioutil.Discard, "", 0)),
		UserSvc:        usrSvc,
		SubjectSvc:     subSvc,
		MaterialSvc:    matSvc,
		QuizSvc:        quizSvc,
		ChatSvc:        chatSvc,
		FileStore:      fileStore,
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	})

	return &testEnv{
		server:  server,
		usrSvc:  usrSvc,
		subSvc:  subSvc,
		matSvc:  matSvc,
		quizSvc: quizSvc,
		chatSvc: chatSvc,
		files:   fileStore,
	}
}

func newTestTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func (env *testEnv) createUser(t *testing.T, name, uname, email, pwd string, roles []string, isActive bool) user.User {
	t.Helper()

	usr, err := env.usrSvc.Create(context.Background(), user.NewUser{
		Name:     name,
		Username: uname,
		Email:    email,
		Password: pwd,
		Roles:    roles,
	})
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	if !isActive {
		f := false
		usr, err = env.usrSvc.Update(context.Background(), usr.ID, user.UpdateUser{IsActive: &f})
		if err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	return usr
}

func (env *testEnv) createSubject(t *testing.T, name string) subject.Subject {
	t.Helper()

	sub, err := env.subSvc.Create(context.Background(), subject.NewSubject{Name: name})
	if err != nil {
		t.Fatalf("createSubject() failed: %v", err)
	}
	return sub
}

func (env *testEnv) createQuiz(t *testing.T, subjectID, teacherID, title string, published bool) quiz.Quiz {
	t.Helper()

	qz, err := env.quizSvc.Create(context.Background(), quiz.NewQuiz{
		SubjectID:   subjectID,
		TeacherID:   teacherID,
		Title:       title,
		IsPublished: published,
	})
	if err != nil {
		t.Fatalf("createQuiz() failed: %v", err)
	}
	return qz
}

func (env *testEnv) addQuestion(t *testing.T, quizID, text, correct string, points int) quiz.Question {
	t.Helper()

	q, err := env.quizSvc.AddQuestion(context.Background(), quiz.NewQuestion{
		QuizID:        quizID,
		Text:          text,
		OptionA:       "option a",
		OptionB:       "option b",
		OptionC:       "option c",
		OptionD:       "option d",
		CorrectOption: correct,
		Points:        points,
	})
	if err != nil {
		t.Fatalf("addQuestion() failed: %v", err)
	}
	return q
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()

	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()

	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	t.Helper()

	// handlers return [] for empty lists, never null
	list := append([]interface{}{}, objs...)
	data, err := json.Marshal(list)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	t.Helper()

	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()

	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body = %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
