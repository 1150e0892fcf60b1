package cleanblog

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/cleanblog/password"
)

// Flash messages shown on the account forms.
const (
	msgEmailTaken    = "You already have ID. Go to Login."
	msgRegistered    = "log in with registered email"
	msgMissingFields = "Please fill in your name, email and password."
	msgRecheckEmail  = "recheck your email"
	msgRecheckPasswd = "recheck your password"
)

func (a *App) handleRegisterForm(c echo.Context) error {
	return Render(c, a.Views.Register(a.page(c, "Register")))
}

func (a *App) handleRegister(c echo.Context) error {
	name := strings.TrimSpace(c.FormValue("name"))
	email := NormalizeEmail(c.FormValue("email"))
	pw := c.FormValue("password")
	if name == "" || email == "" || pw == "" {
		a.metrics.registrations.WithLabelValues("invalid").Inc()
		return a.flashRedirect(c, msgMissingFields, "/register")
	}

	u, err := a.Store.CreateUser(c.Request().Context(), name, email, password.Hash(pw))
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			a.metrics.registrations.WithLabelValues("duplicate").Inc()
			return a.flashRedirect(c, msgEmailTaken, "/register")
		}
		return err
	}
	a.metrics.registrations.WithLabelValues("ok").Inc()
	c.Logger().Infof("registered user id=%d admin=%t", u.ID, u.IsAdmin)
	return a.flashRedirect(c, msgRegistered, "/login")
}

func (a *App) handleLoginForm(c echo.Context) error {
	return Render(c, a.Views.Login(a.page(c, "Log in")))
}

func (a *App) handleLogin(c echo.Context) error {
	email := NormalizeEmail(c.FormValue("email"))
	pw := c.FormValue("password")

	u, err := a.Store.GetUserByEmail(c.Request().Context(), email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			a.metrics.loginAttempts.WithLabelValues("unknown_email").Inc()
			return a.flashRedirect(c, msgRecheckEmail, "/login")
		}
		return err
	}
	if !password.Verify(pw, u.Password) {
		a.metrics.loginAttempts.WithLabelValues("bad_password").Inc()
		return a.flashRedirect(c, msgRecheckPasswd, "/login")
	}

	if err := login(c, u); err != nil {
		return err
	}
	a.metrics.loginAttempts.WithLabelValues("ok").Inc()
	return c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) handleLogout(c echo.Context) error {
	if err := logout(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) flashRedirect(c echo.Context, msg, to string) error {
	if err := addFlash(c, msg); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, to)
}

// NormalizeEmail is the form an email is stored and looked up in.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
