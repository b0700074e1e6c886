package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/somaedu/soma/core"
	"github.com/somaedu/soma/core/quiz"
)

type quizApi struct {
	svc      quiz.ServiceInterface
	validate *validator.Validate
}

func registerQuizAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc quiz.ServiceInterface, validate *validator.Validate) {
	api := quizApi{svc: svc, validate: validate}

	qg := g.Group("/quizzes", jwt)
	qg.GET("", api.query)
	qg.POST("", api.create, teacherMiddleware())
	qg.GET("/teacher/:id", api.queryByTeacher, teacherMiddleware())
	qg.GET("/:id", api.retrieve)
	qg.PUT("/:id", api.update, teacherMiddleware())
	qg.DELETE("/:id", api.destroy, teacherMiddleware())

	ng := g.Group("/questions", jwt)
	ng.POST("", api.addQuestion, teacherMiddleware())
	ng.GET("/quiz/:id", api.queryQuestions)
	ng.PUT("/:id", api.updateQuestion, teacherMiddleware())
	ng.DELETE("/:id", api.destroyQuestion, teacherMiddleware())

	ag := g.Group("/answers", jwt)
	ag.POST("", api.submitAnswer, studentMiddleware())
	ag.GET("/quiz/:id/me", api.attempt, studentMiddleware())
	ag.GET("/quiz/:id", api.results, teacherMiddleware())
}

// ownedQuiz fetches the quiz and enforces write access: the owning teacher or
// an admin.
func (api *quizApi) ownedQuiz(ctx echo.Context, id string) (quiz.Quiz, error) {
	qz, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == quiz.ErrNotFound {
			return quiz.Quiz{}, errHttpNotFound
		}
		return quiz.Quiz{}, errors.Wrap(err, "finding quiz by ID")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return quiz.Quiz{}, errors.Wrap(err, "getting context claims")
	}
	if !claims.IsAdmin && qz.TeacherID != claims.Subject {
		return quiz.Quiz{}, errHttpForbidden
	}
	return qz, nil
}

// Handlers

func (api *quizApi) create(ctx echo.Context) error {
	var data quiz.NewQuiz
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuiz")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	data.TeacherID = claims.Subject

	qz, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating quiz")
	}
	return ctx.JSON(http.StatusCreated, qz)
}

// query lists quizzes per role: admins see all, teachers their own, students
// only published ones.
func (api *quizApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	c := ctx.Request().Context()
	var quizzes []quiz.Quiz
	switch {
	case claims.IsAdmin:
		quizzes, err = api.svc.QueryAll(c)
	case claims.IsTeacher:
		quizzes, err = api.svc.QueryByTeacher(c, claims.Subject)
	default:
		quizzes, err = api.svc.QueryPublished(c)
	}
	if err != nil {
		return errors.Wrap(err, "querying quizzes")
	}
	if quizzes == nil {
		quizzes = []quiz.Quiz{}
	}
	return ctx.JSON(http.StatusOK, quizzes)
}

func (api *quizApi) queryByTeacher(ctx echo.Context) error {
	quizzes, err := api.svc.QueryByTeacher(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying quizzes by teacher")
	}
	if quizzes == nil {
		quizzes = []quiz.Quiz{}
	}
	return ctx.JSON(http.StatusOK, quizzes)
}

func (api *quizApi) retrieve(ctx echo.Context) error {
	qz, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == quiz.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding quiz by ID")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	// unpublished quizzes do not exist for students
	if !qz.IsPublished && !claims.IsAdmin && qz.TeacherID != claims.Subject {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, qz)
}

func (api *quizApi) update(ctx echo.Context) error {
	qz, err := api.ownedQuiz(ctx, ctx.Param("id"))
	if err != nil {
		return err
	}

	var data quiz.UpdateQuiz
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateQuiz")
	}
	if err := data.Validate(qz, api.validate); err != nil {
		return err
	}

	qz, err = api.svc.Update(ctx.Request().Context(), qz.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating quiz")
	}
	return ctx.JSON(http.StatusOK, qz)
}

// destroy removes the quiz along with its questions and answers.
func (api *quizApi) destroy(ctx echo.Context) error {
	qz, err := api.ownedQuiz(ctx, ctx.Param("id"))
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), qz.ID); err != nil {
		return errors.Wrap(err, "deleting quiz")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *quizApi) addQuestion(ctx echo.Context) error {
	var data quiz.NewQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if _, err := api.ownedQuiz(ctx, data.QuizID); err != nil {
		return err
	}

	q, err := api.svc.AddQuestion(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding question")
	}
	return ctx.JSON(http.StatusCreated, q)
}

// queryQuestions lists a quiz's questions. Students get the shape without the
// answer key and only for published quizzes.
func (api *quizApi) queryQuestions(ctx echo.Context) error {
	c := ctx.Request().Context()

	qz, err := api.svc.GetByID(c, ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == quiz.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding quiz by ID")
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	privileged := claims.IsAdmin || qz.TeacherID == claims.Subject
	if !qz.IsPublished && !privileged {
		return errHttpNotFound
	}

	questions, err := api.svc.QuestionsForQuiz(c, qz.ID)
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}

	if privileged {
		if questions == nil {
			questions = []quiz.Question{}
		}
		return ctx.JSON(http.StatusOK, questions)
	}

	stripped := make([]quiz.StudentQuestion, 0, len(questions))
	for _, q := range questions {
		stripped = append(stripped, q.ForStudent())
	}
	return ctx.JSON(http.StatusOK, stripped)
}

func (api *quizApi) updateQuestion(ctx echo.Context) error {
	q, err := api.svc.GetQuestionByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == quiz.ErrQuestionNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding question by ID")
	}
	if _, err := api.ownedQuiz(ctx, q.QuizID); err != nil {
		return err
	}

	var data quiz.UpdateQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateQuestion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	q, err = api.svc.UpdateQuestion(ctx.Request().Context(), q.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating question")
	}
	return ctx.JSON(http.StatusOK, q)
}

func (api *quizApi) destroyQuestion(ctx echo.Context) error {
	q, err := api.svc.GetQuestionByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		if errors.Cause(err) == quiz.ErrQuestionNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding question by ID")
	}
	if _, err := api.ownedQuiz(ctx, q.QuizID); err != nil {
		return err
	}

	if err := api.svc.DeleteQuestions(ctx.Request().Context(), q.ID); err != nil {
		return errors.Wrap(err, "deleting question")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// submitAnswer grades and stores the student's answer; resubmission replaces
// the previous one.
func (api *quizApi) submitAnswer(ctx echo.Context) error {
	var data quiz.SubmitAnswer
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitAnswer")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	data.StudentID = claims.Subject

	ans, err := api.svc.SubmitAnswer(ctx.Request().Context(), data)
	if err != nil {
		switch errors.Cause(err) {
		case quiz.ErrNotFound, quiz.ErrQuestionNotFound:
			return errHttpNotFound
		}
		return errors.Wrap(err, "submitting answer")
	}
	return ctx.JSON(http.StatusCreated, ans)
}

func (api *quizApi) attempt(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	summary, err := api.svc.Attempt(ctx.Request().Context(), ctx.Param("id"), claims.Subject)
	if err != nil {
		switch errors.Cause(err) {
		case quiz.ErrNotFound:
			return errHttpNotFound
		case quiz.ErrNoQuestions:
			return core.NewValidationError(quiz.ErrNoQuestions)
		}
		return errors.Wrap(err, "summarizing attempt")
	}
	return ctx.JSON(http.StatusOK, summary)
}

func (api *quizApi) results(ctx echo.Context) error {
	if _, err := api.ownedQuiz(ctx, ctx.Param("id")); err != nil {
		return err
	}

	summaries, err := api.svc.Results(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying quiz results")
	}
	if summaries == nil {
		summaries = []quiz.AttemptSummary{}
	}
	return ctx.JSON(http.StatusOK, summaries)
}
