// Package cleanblog is a server-rendered blog built with Go, Echo, and templ.
// Visitors read posts, registered users comment, and admins moderate posts.
//
// Templates are supplied through the ViewFuncs struct; cleanblog owns the
// handler logic, sessions, authorization checks, and database operations.
package cleanblog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

// ViewFuncs holds the templ components the handlers render.
type ViewFuncs struct {
	Home         func(p Page, posts []Post) templ.Component
	Post         func(p Page, post Post, comments []Comment) templ.Component
	PostForm     func(p Page, form PostForm, editing bool, errMsg string) templ.Component
	Login        func(p Page) templ.Component
	Register     func(p Page) templ.Component
	About        func(p Page) templ.Component
	Contact      func(p Page) templ.Component
	Unauthorized func(p Page) templ.Component
	NotFound     func(p Page) templ.Component
	ServerError  func(p Page) templ.Component
}

// App wires together the store, cache, handlers, middleware, and templates.
type App struct {
	Config Config
	Echo   *echo.Echo
	Store  *Store
	Cache  PostCache
	Views  ViewFuncs

	metrics *metrics
	closers []func() error
}

// New opens the store and cache named by cfg and registers every route.
// The returned App is ready to serve; call Start to listen on cfg.Addr.
func New(cfg Config, views ViewFuncs, opts ...Option) (*App, error) {
	cfg.setDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("cleanblog: %w", err)
	}

	a := &App{
		Config:  cfg,
		Echo:    echo.New(),
		Views:   views,
		metrics: newMetrics(),
	}
	a.Echo.HideBanner = true
	a.Echo.Logger.SetLevel(logLevel(strings.ToLower(cfg.LogLevel)))

	for _, opt := range opts {
		opt(a)
	}

	if a.Store == nil {
		store, err := NewStore(cfg.DatabaseURI)
		if err != nil {
			return nil, fmt.Errorf("cleanblog: init store: %w", err)
		}
		a.Store = store
		a.closers = append(a.closers, store.Close)
	}

	if a.Cache == nil {
		cache, err := a.newPostCache()
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("cleanblog: init cache: %w", err)
		}
		a.Cache = cache
	}

	a.setupMiddleware()
	a.setupRoutes()
	return a, nil
}

func (a *App) newPostCache() (PostCache, error) {
	if a.Config.RedisURL == "" {
		return NewMemoryCache(a.Store, a.Config.PostCacheTTL), nil
	}
	rc, err := NewRedisCache(a.Config.RedisURL, a.Store, a.Config.PostCacheTTL)
	if err != nil {
		return nil, err
	}
	if err := rc.Ping(context.Background()); err != nil {
		rc.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	a.closers = append(a.closers, rc.Close)
	return rc, nil
}

// Start listens on Config.Addr until the server is shut down.
func (a *App) Start() error {
	a.Echo.Logger.Infof("cleanblog listening on %s (%s store)", a.Config.Addr, a.Store.Dialect())
	if err := a.Echo.Start(a.Config.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	e.Static("/public", a.Config.StaticDir)
	e.GET("/feed.xml", a.handleFeed)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/metrics", a.metrics.handler())

	// Public pages
	e.GET("/", a.handleHome)
	e.GET("/about", a.handleAbout)
	e.GET("/contact", a.handleContact)

	// Accounts
	e.GET("/register", a.handleRegisterForm)
	e.POST("/register", a.handleRegister)
	e.GET("/login", a.handleLoginForm)
	e.POST("/login", a.handleLogin)
	e.GET("/logout", a.handleLogout)

	// Signed-in users
	e.GET("/post/:post_id", a.handleShowPost, requireAuth)
	e.POST("/post/:post_id", a.handleAddComment, requireAuth)
	e.GET("/del_comment/:post_id/:comment_id", a.handleDeleteComment, requireAuth)
	e.GET("/add/:user_id", a.handleNewPostForm, requireAuth, allowEditor)
	e.POST("/add/:user_id", a.handleCreatePost, requireAuth, allowEditor)
	e.GET("/edit/:post_id/:user_id", a.handleEditPostForm, requireAuth, allowEditor)
	e.POST("/edit/:post_id/:user_id", a.handleUpdatePost, requireAuth, allowEditor)
	e.GET("/delete/:post_id", a.handleDeletePost, requireAuth)
}

// Close releases the store and cache connections opened by New.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func logLevel(name string) log.Lvl {
	switch name {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}
