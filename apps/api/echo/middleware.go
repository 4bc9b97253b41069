package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/orbitaplataforma/orbita/core/tenant"
)

const (
	contextAdministratorKey = "administrator"
	contextMentorKey        = "mentor"
	contextStudentKey       = "student"
	contextObjectKey        = "object"
)

var (
	errNoAdministratorInCtx = errors.New("administrator not found in echo.Context")
	errNoMentorInCtx        = errors.New("mentor not found in echo.Context")
	errNoStudentInCtx       = errors.New("student not found in echo.Context")
	errNoObjectInCtx        = errors.New("object not found in echo.Context")
)

func roleMiddleware(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			if usr.Role != role {
				return errHttpForbidden
			}
			return next(ctx)
		}
	}
}

// administratorMiddleware loads the gestor's Administrator, creating it on first access.
func administratorMiddleware(svc tenant.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			adm, err := svc.EnsureAdministrator(ctx.Request().Context(), usr)
			if err != nil {
				return errors.Wrap(err, "ensuring administrator")
			}
			ctx.Set(contextAdministratorKey, adm)
			return next(ctx)
		}
	}
}

func mentorMiddleware(svc tenant.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			mtr, err := svc.MentorByUserID(ctx.Request().Context(), usr.ID)
			if err != nil {
				if errors.Cause(err) == tenant.ErrNotFound {
					return errHttpForbidden
				}
				return errors.Wrap(err, "finding mentor by user ID")
			}
			if !mtr.Active {
				return errAccountDeactivated
			}
			ctx.Set(contextMentorKey, mtr)
			return next(ctx)
		}
	}
}

func studentMiddleware(svc tenant.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			usr, err := getContextUser(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context user")
			}
			std, err := svc.StudentByUserID(ctx.Request().Context(), usr.ID)
			if err != nil {
				if errors.Cause(err) == tenant.ErrNotFound {
					return errHttpForbidden
				}
				return errors.Wrap(err, "finding student by user ID")
			}
			if !std.Active {
				return errAccountDeactivated
			}
			ctx.Set(contextStudentKey, std)
			return next(ctx)
		}
	}
}

// ownedStudentMiddleware sets the mentor's student identified by the :id param as the context object.
// Students of other mentors are reported as not found.
func ownedStudentMiddleware(svc tenant.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			mtr, err := getContextMentor(ctx)
			if err != nil {
				return err
			}
			std, err := svc.GetStudentForMentor(ctx.Request().Context(), mtr.ID, ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == tenant.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding student")
			}
			ctx.Set(contextObjectKey, std)
			return next(ctx)
		}
	}
}

func getContextAdministrator(ctx echo.Context) (tenant.Administrator, error) {
	if adm, ok := ctx.Get(contextAdministratorKey).(tenant.Administrator); ok {
		return adm, nil
	}
	return tenant.Administrator{}, errors.Wrap(errNoAdministratorInCtx, "retrieving administrator from context")
}

func getContextMentor(ctx echo.Context) (tenant.Mentor, error) {
	if mtr, ok := ctx.Get(contextMentorKey).(tenant.Mentor); ok {
		return mtr, nil
	}
	return tenant.Mentor{}, errors.Wrap(errNoMentorInCtx, "retrieving mentor from context")
}

func getContextStudent(ctx echo.Context) (tenant.Student, error) {
	if std, ok := ctx.Get(contextStudentKey).(tenant.Student); ok {
		return std, nil
	}
	return tenant.Student{}, errors.Wrap(errNoStudentInCtx, "retrieving student from context")
}

func getContextObject(ctx echo.Context) (tenant.Student, error) {
	if std, ok := ctx.Get(contextObjectKey).(tenant.Student); ok {
		return std, nil
	}
	return tenant.Student{}, errors.Wrap(errNoObjectInCtx, "retrieving object from context")
}

// emptyIfNil keeps list endpoints answering [] instead of null.
func emptyIfNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
