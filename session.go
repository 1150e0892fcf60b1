package cleanblog

import (
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	sessionName   = "cleanblog_session"
	sessionUserID = "user_id"
	identityKey   = "identity"
)

// Identity is the user bound to the current request. The zero value is the
// anonymous visitor, so it is always safe to query.
type Identity struct {
	User *User
}

// IsAuthenticated reports whether a user is logged in.
func (i Identity) IsAuthenticated() bool {
	return i.User != nil
}

// ID returns the user's ID, or 0 when anonymous.
func (i Identity) ID() int64 {
	if i.User == nil {
		return 0
	}
	return i.User.ID
}

// IsAdmin reports whether the user may delete posts.
func (i Identity) IsAdmin() bool {
	return i.User != nil && i.User.IsAdmin
}

// Name returns the user's display name, or "" when anonymous.
func (i Identity) Name() string {
	if i.User == nil {
		return ""
	}
	return i.User.Name
}

func (a *App) newSessionStore() *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(a.Config.SecretKey))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		MaxAge:   60 * 60 * 24 * 7,
		SameSite: http.SameSiteLaxMode,
		Secure:   a.Config.CookieSecure,
	}
	return store
}

// loadIdentity resolves the session's user ID to a User row. A missing or
// unknown ID leaves the request anonymous.
func (a *App) loadIdentity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		c.Set(identityKey, Identity{})
		sess, err := currentSession(c)
		if err != nil {
			return next(c)
		}
		id, ok := sess.Values[sessionUserID].(int64)
		if !ok || id <= 0 {
			return next(c)
		}
		u, err := a.Store.GetUser(c.Request().Context(), id)
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				c.Logger().Warnf("load session user %d: %v", id, err)
			}
			return next(c)
		}
		c.Set(identityKey, Identity{User: &u})
		return next(c)
	}
}

// CurrentIdentity returns the identity resolved for this request.
func CurrentIdentity(c echo.Context) Identity {
	id, _ := c.Get(identityKey).(Identity)
	return id
}

// requireAuth rejects anonymous requests with 401; the error handler renders
// the unauthorized page.
func requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !CurrentIdentity(c).IsAuthenticated() {
			return echo.ErrUnauthorized
		}
		return next(c)
	}
}

// currentSession returns the request's session. A cookie that no longer
// decodes (rotated key, tampering) yields a fresh session, and the next Save
// replaces the bad cookie.
func currentSession(c echo.Context) (*sessions.Session, error) {
	sess, err := session.Get(sessionName, c)
	if sess == nil {
		return nil, err
	}
	if err != nil {
		c.Logger().Debugf("discarding undecodable session cookie: %v", err)
	}
	return sess, nil
}

func login(c echo.Context, u User) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	sess.Values[sessionUserID] = u.ID
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return err
	}
	c.Set(identityKey, Identity{User: &u})
	return nil
}

func logout(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	delete(sess.Values, sessionUserID)
	sess.Options.MaxAge = -1
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		return err
	}
	c.Set(identityKey, Identity{})
	return nil
}

func addFlash(c echo.Context, msg string) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}
	sess.AddFlash(msg)
	return sess.Save(c.Request(), c.Response())
}

// popFlashes returns and clears pending flash messages.
func popFlashes(c echo.Context) []string {
	sess, err := currentSession(c)
	if err != nil {
		return nil
	}
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil
	}
	if err := sess.Save(c.Request(), c.Response()); err != nil {
		c.Logger().Warnf("save session after flashes: %v", err)
	}
	msgs := make([]string, 0, len(raw))
	for _, f := range raw {
		if s, ok := f.(string); ok {
			msgs = append(msgs, s)
		}
	}
	return msgs
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
