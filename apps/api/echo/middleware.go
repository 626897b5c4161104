package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/uniasistencia/backend/core/account"
)

var (
	adminOnly      = roleMiddleware(account.RoleAdministrator)
	adminOrTeacher = roleMiddleware(account.RoleAdministrator, account.RoleTeacher)
	teacherOnly    = roleMiddleware(account.RoleTeacher)
)

// roleMiddleware lets through the requests whose token carries one of roles.
func roleMiddleware(roles ...account.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if _, err := getContextClaims(ctx); err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if contextHasAnyRole(ctx, roles) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}
