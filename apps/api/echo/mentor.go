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

type mentorApi struct {
	svc      tenant.Service
	studySvc study.Service
	validate *validator.Validate
}

func registerMentorAPI(g *echo.Group, auth *authenticator, svc tenant.Service, studySvc study.Service, validate *validator.Validate) {
	api := mentorApi{svc: svc, studySvc: studySvc, validate: validate}

	mg := g.Group("/mentor", auth.middleware, roleMiddleware(user.RoleMentor), mentorMiddleware(svc))
	mg.GET("/me", api.me)
	mg.GET("/dashboard", api.dashboard)
	mg.GET("/students", api.queryStudents)
	mg.POST("/students", api.createStudent)

	// detail endpoints
	dg := mg.Group("/students/:id", ownedStudentMiddleware(svc))
	dg.GET("", api.retrieveStudent)
	dg.PUT("", api.updateStudent)
	dg.DELETE("", api.destroyStudent)
	dg.GET("/sessions", api.querySessions)
	dg.GET("/exams", api.queryExams)
	dg.GET("/schedule", api.querySlots)
	dg.GET("/metrics", api.metrics)
	dg.GET("/note", api.retrieveNote)
	dg.PUT("/note", api.saveNote)
}

func (api *mentorApi) me(ctx echo.Context) error {
	mtr, err := getContextMentor(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mtr)
}

func (api *mentorApi) dashboard(ctx echo.Context) error {
	mtr, err := getContextMentor(ctx)
	if err != nil {
		return err
	}
	dash, err := api.svc.MentorDashboard(ctx.Request().Context(), mtr.ID)
	if err != nil {
		return errors.Wrap(err, "building mentor dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}

func (api *mentorApi) queryStudents(ctx echo.Context) error {
	mtr, err := getContextMentor(ctx)
	if err != nil {
		return err
	}
	students, err := api.svc.ListStudents(ctx.Request().Context(), mtr.ID)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(students))
}

func (api *mentorApi) createStudent(ctx echo.Context) error {
	mtr, err := getContextMentor(ctx)
	if err != nil {
		return err
	}

	var data tenant.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	std, err := api.svc.CreateStudent(ctx.Request().Context(), mtr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *mentorApi) retrieveStudent(ctx echo.Context) error {
	std, err := getContextObject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *mentorApi) updateStudent(ctx echo.Context) error {
	mtr, err := getContextMentor(ctx)
	if err != nil {
		return err
	}
	std, err := getContextObject(ctx)
	if err != nil {
		return err
	}

	var data tenant.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	std, err = api.svc.UpdateStudentForMentor(ctx.Request().Context(), mtr.ID, std.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *mentorApi) destroyStudent(ctx echo.Context) error {
	mtr, err := getContextMentor(ctx)
	if err != nil {
		return err
	}
	std, err := getContextObject(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteStudentForMentor(ctx.Request().Context(), mtr.ID, std.ID); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Student records (read-only)

func (api *mentorApi) querySessions(ctx echo.Context) error {
	std, err := getContextObject(ctx)
	if err != nil {
		return err
	}
	sessions, err := api.studySvc.ListSessions(ctx.Request().Context(), std.ID)
	if err != nil {
		return errors.Wrap(err, "querying sessions")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(sessions))
}

func (api *mentorApi) queryExams(ctx echo.Context) error {
	std, err := getContextObject(ctx)
	if err != nil {
		return err
	}
	exams, err := api.studySvc.ListExams(ctx.Request().Context(), std.ID)
	if err != nil {
		return errors.Wrap(err, "querying exams")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(exams))
}

func (api *mentorApi) querySlots(ctx echo.Context) error {
	std, err := getContextObject(ctx)
	if err != nil {
		return err
	}
	slots, err := api.studySvc.ListSlots(ctx.Request().Context(), std.ID)
	if err != nil {
		return errors.Wrap(err, "querying schedule")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(slots))
}

func (api *mentorApi) metrics(ctx echo.Context) error {
	std, err := getContextObject(ctx)
	if err != nil {
		return err
	}
	summary, err := api.studySvc.Metrics(ctx.Request().Context(), std.ID, time.Now())
	if err != nil {
		return errors.Wrap(err, "computing metrics")
	}
	return ctx.JSON(http.StatusOK, summary)
}

// Notes

func (api *mentorApi) retrieveNote(ctx echo.Context) error {
	mtr, err := getContextMentor(ctx)
	if err != nil {
		return err
	}
	std, err := getContextObject(ctx)
	if err != nil {
		return err
	}
	note, err := api.studySvc.GetNote(ctx.Request().Context(), mtr.ID, std.ID)
	if err != nil {
		return errors.Wrap(err, "getting note")
	}
	return ctx.JSON(http.StatusOK, note)
}

func (api *mentorApi) saveNote(ctx echo.Context) error {
	mtr, err := getContextMentor(ctx)
	if err != nil {
		return err
	}
	std, err := getContextObject(ctx)
	if err != nil {
		return err
	}

	var data study.SaveNote
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SaveNote")
	}

	note, err := api.studySvc.SaveNote(ctx.Request().Context(), mtr.ID, std.ID, data)
	if err != nil {
		return errors.Wrap(err, "saving note")
	}
	return ctx.JSON(http.StatusOK, note)
}
