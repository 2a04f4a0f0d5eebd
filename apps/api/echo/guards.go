package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/elimu/core/user"
)

const (
	loginPath      = "/login"
	notFoundPath   = "/not-found"
	onboardingPath = "/onboarding"
)

// guard returns where to redirect the session to, or "" to let it through.
type guard func(sess *Session) string

// adminGuard keeps the admin area for admins; everyone else gets the not-found page.
func adminGuard(sess *Session) string {
	if sess == nil || sess.User.Role != user.RoleAdmin {
		return notFoundPath
	}
	return ""
}

// onboardingGuard requires a session.
func onboardingGuard(sess *Session) string {
	if sess == nil {
		return loginPath
	}
	return ""
}

// authGuard requires a session of a user who picked a role.
func authGuard(sess *Session) string {
	if sess == nil {
		return loginPath
	}
	if !sess.User.IsOnboarded() {
		return onboardingPath
	}
	return ""
}

// roleGuard requires an onboarded session with one of roles.
func roleGuard(roles ...string) guard {
	return func(sess *Session) string {
		if to := authGuard(sess); to != "" {
			return to
		}
		for _, r := range roles {
			if sess.User.Role == r {
				return ""
			}
		}
		return notFoundPath
	}
}

// dashboardRedirect is where "/dashboard" leads: the session role's dashboard.
func dashboardRedirect(sess *Session) string {
	if sess == nil {
		return loginPath
	}
	return sess.User.DashboardPath()
}

// profileRedirect is where "/profile" leads: the session user's profile.
func profileRedirect(sess *Session) string {
	if sess == nil {
		return loginPath
	}
	return sess.User.ProfilePath()
}

func redirect(ctx echo.Context, to string) error {
	return ctx.Redirect(http.StatusSeeOther, to)
}

func guardMiddleware(g guard) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if to := g(getSession(ctx)); to != "" {
				return redirect(ctx, to)
			}
			return next(ctx)
		}
	}
}

// redirectHandler always redirects, wherever the guard says.
func redirectHandler(g guard) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		return redirect(ctx, g(getSession(ctx)))
	}
}

// apiAuthMiddleware is the JSON counterpart of the guards: 401 without a session, 403 without any of roles.
func apiAuthMiddleware(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			sess := getSession(ctx)
			if sess == nil {
				return errUnauthorized
			}
			if len(roles) == 0 {
				return next(ctx)
			}
			for _, r := range roles {
				if sess.User.Role == r {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}
