package echoapi

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/orbitaplataforma/orbita/core/study"
	"github.com/orbitaplataforma/orbita/core/tenant"
	"github.com/orbitaplataforma/orbita/core/user"
)

type alunoApi struct {
	svc      tenant.Service
	studySvc study.Service
	validate *validator.Validate
}

// AlunoProfile is the student's own profile with their mentor's branding.
type AlunoProfile struct {
	tenant.Student
	Branding tenant.Branding `json:"branding"`
}

func registerAlunoAPI(g *echo.Group, auth *authenticator, svc tenant.Service, studySvc study.Service, validate *validator.Validate) {
	api := alunoApi{svc: svc, studySvc: studySvc, validate: validate}

	ag := g.Group("/aluno", auth.middleware, roleMiddleware(user.RoleAluno), studentMiddleware(svc))
	ag.GET("/me", api.me)
	ag.GET("/metrics", api.metrics)

	ag.GET("/sessions", api.querySessions)
	ag.POST("/sessions", api.createSession)
	ag.PUT("/sessions/:id", api.updateSession)
	ag.DELETE("/sessions/:id", api.destroySession)

	ag.GET("/exams", api.queryExams)
	ag.POST("/exams", api.createExam)
	ag.PUT("/exams/:id", api.updateExam)
	ag.DELETE("/exams/:id", api.destroyExam)

	ag.GET("/schedule", api.querySlots)
	ag.POST("/schedule", api.createSlot)
	ag.PUT("/schedule/:id", api.updateSlot)
	ag.DELETE("/schedule/:id", api.destroySlot)
}

func (api *alunoApi) me(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	mtr, err := api.svc.MentorByID(ctx.Request().Context(), std.MentorID)
	if err != nil {
		return errors.Wrap(err, "finding mentor")
	}
	return ctx.JSON(http.StatusOK, AlunoProfile{Student: std, Branding: mtr.Branding()})
}

func (api *alunoApi) metrics(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	summary, err := api.studySvc.Metrics(ctx.Request().Context(), std.ID, time.Now())
	if err != nil {
		return errors.Wrap(err, "computing metrics")
	}
	return ctx.JSON(http.StatusOK, summary)
}

// Sessions

func (api *alunoApi) querySessions(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	sessions, err := api.studySvc.ListSessions(ctx.Request().Context(), std.ID)
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(sessions))
}

func (api *alunoApi) createSession(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	var data study.NewSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSession")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.studySvc.CreateSession(ctx.Request().Context(), std.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating session")
	}
	return ctx.JSON(http.StatusCreated, sess)
}

func (api *alunoApi) updateSession(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	var data study.UpdateSession
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSession")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	sess, err := api.studySvc.UpdateSession(ctx.Request().Context(), std.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating session")
	}
	return ctx.JSON(http.StatusOK, sess)
}

func (api *alunoApi) destroySession(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	if err := api.studySvc.DeleteSession(ctx.Request().Context(), std.ID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting session")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Exams

func (api *alunoApi) queryExams(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	exams, err := api.studySvc.ListExams(ctx.Request().Context(), std.ID)
	if err != nil {
		return errors.Wrap(err, "querying exams")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(exams))
}

func (api *alunoApi) createExam(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	var data study.NewExam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewExam")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	exam, err := api.studySvc.CreateExam(ctx.Request().Context(), std.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating exam")
	}
	return ctx.JSON(http.StatusCreated, exam)
}

func (api *alunoApi) updateExam(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	var data study.UpdateExam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateExam")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	exam, err := api.studySvc.UpdateExam(ctx.Request().Context(), std.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating exam")
	}
	return ctx.JSON(http.StatusOK, exam)
}

func (api *alunoApi) destroyExam(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	if err := api.studySvc.DeleteExam(ctx.Request().Context(), std.ID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting exam")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Schedule

func (api *alunoApi) querySlots(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	slots, err := api.studySvc.ListSlots(ctx.Request().Context(), std.ID)
	if err != nil {
		return errors.Wrap(err, "querying schedule")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(slots))
}

func (api *alunoApi) createSlot(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	var data study.NewSlot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSlot")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	slot, err := api.studySvc.CreateSlot(ctx.Request().Context(), std.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating schedule slot")
	}
	return ctx.JSON(http.StatusCreated, slot)
}

func (api *alunoApi) updateSlot(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}

	var data study.UpdateSlot
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSlot")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	slot, err := api.studySvc.UpdateSlot(ctx.Request().Context(), std.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating schedule slot")
	}
	return ctx.JSON(http.StatusOK, slot)
}

func (api *alunoApi) destroySlot(ctx echo.Context) error {
	std, err := getContextStudent(ctx)
	if err != nil {
		return err
	}
	if err := api.studySvc.DeleteSlot(ctx.Request().Context(), std.ID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting schedule slot")
	}
	return ctx.NoContent(http.StatusNoContent)
}
