package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/orbitaplataforma/orbita/core/tenant"
	"github.com/orbitaplataforma/orbita/core/user"
)

type gestorApi struct {
	svc      tenant.Service
	validate *validator.Validate
}

func registerGestorAPI(g *echo.Group, auth *authenticator, svc tenant.Service, validate *validator.Validate) {
	api := gestorApi{svc: svc, validate: validate}

	gg := g.Group("/gestor", auth.middleware, roleMiddleware(user.RoleGestor), administratorMiddleware(svc))
	gg.GET("/me", api.me)
	gg.GET("/dashboard", api.dashboard)

	gg.GET("/mentors", api.queryMentors)
	gg.POST("/mentors", api.createMentor)
	gg.PUT("/mentors/:id", api.updateMentor)
	gg.DELETE("/mentors/:id", api.destroyMentor)

	gg.GET("/students", api.queryStudents)
	gg.PUT("/students/:id", api.updateStudent)
	gg.DELETE("/students/:id", api.destroyStudent)
}

func (api *gestorApi) me(ctx echo.Context) error {
	adm, err := getContextAdministrator(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, adm)
}

func (api *gestorApi) dashboard(ctx echo.Context) error {
	adm, err := getContextAdministrator(ctx)
	if err != nil {
		return err
	}
	dash, err := api.svc.GestorDashboard(ctx.Request().Context(), adm.ID)
	if err != nil {
		return errors.Wrap(err, "building gestor dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}

// Mentors

func (api *gestorApi) queryMentors(ctx echo.Context) error {
	adm, err := getContextAdministrator(ctx)
	if err != nil {
		return err
	}
	mentors, err := api.svc.ListMentors(ctx.Request().Context(), adm.ID)
	if err != nil {
		return errors.Wrap(err, "querying mentors")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(mentors))
}

func (api *gestorApi) createMentor(ctx echo.Context) error {
	adm, err := getContextAdministrator(ctx)
	if err != nil {
		return err
	}

	var data tenant.NewMentor
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMentor")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	mtr, err := api.svc.CreateMentor(ctx.Request().Context(), adm.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating mentor")
	}
	return ctx.JSON(http.StatusCreated, mtr)
}

func (api *gestorApi) updateMentor(ctx echo.Context) error {
	adm, err := getContextAdministrator(ctx)
	if err != nil {
		return err
	}

	var data tenant.UpdateMentor
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMentor")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	mtr, err := api.svc.UpdateMentor(ctx.Request().Context(), adm.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating mentor")
	}
	return ctx.JSON(http.StatusOK, mtr)
}

func (api *gestorApi) destroyMentor(ctx echo.Context) error {
	adm, err := getContextAdministrator(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteMentor(ctx.Request().Context(), adm.ID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting mentor")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Students

func (api *gestorApi) queryStudents(ctx echo.Context) error {
	adm, err := getContextAdministrator(ctx)
	if err != nil {
		return err
	}
	students, err := api.svc.ListAllStudents(ctx.Request().Context(), adm.ID)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, emptyIfNil(students))
}

func (api *gestorApi) updateStudent(ctx echo.Context) error {
	adm, err := getContextAdministrator(ctx)
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

	std, err := api.svc.UpdateStudentForAdministrator(ctx.Request().Context(), adm.ID, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *gestorApi) destroyStudent(ctx echo.Context) error {
	adm, err := getContextAdministrator(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteStudentForAdministrator(ctx.Request().Context(), adm.ID, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}
