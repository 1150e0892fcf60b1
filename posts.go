package cleanblog

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// DateLayout is how a post's publication date is stored, e.g. "March 04, 2024".
const DateLayout = "January 02, 2006"

func (a *App) handleShowPost(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := pathID(c, "post_id")
	if !ok {
		return a.renderNotFound(c)
	}
	post, err := a.Store.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return a.renderNotFound(c)
		}
		return err
	}
	all, err := a.Store.ListComments(ctx)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Post(a.page(c, post.Title), post, commentsForPost(all, id)))
}

func (a *App) handleNewPostForm(c echo.Context) error {
	return Render(c, a.Views.PostForm(a.page(c, "New post"), PostForm{}, false, ""))
}

func (a *App) handleCreatePost(c echo.Context) error {
	ident := CurrentIdentity(c)
	form, img, msg, err := a.bindPostForm(c)
	if err != nil {
		return err
	}
	if msg != "" {
		return a.renderPostForm(c, form, false, msg)
	}
	if err := a.saveImage(c, img); err != nil {
		return err
	}
	_, err = a.Store.CreatePost(c.Request().Context(), Post{
		Title:    form.Title,
		Subtitle: form.Subtitle,
		Date:     time.Now().Format(DateLayout),
		Body:     form.Body,
		ImgURL:   form.ImgURL,
		AuthorID: ident.ID(),
	})
	if err != nil {
		a.rejectImage(c, img, &form)
		if errors.Is(err, ErrDuplicateTitle) {
			return a.renderPostForm(c, form, false, "A post with that title already exists.")
		}
		return err
	}
	a.invalidatePosts(c)
	return c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) handleEditPostForm(c echo.Context) error {
	id, ok := pathID(c, "post_id")
	if !ok {
		return a.renderNotFound(c)
	}
	post, err := a.Store.GetPost(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return a.renderNotFound(c)
		}
		return err
	}
	form := PostForm{
		Title:    post.Title,
		Subtitle: post.Subtitle,
		Body:     post.Body,
		ImgURL:   post.ImgURL,
	}
	return Render(c, a.Views.PostForm(a.page(c, "Edit post"), form, true, ""))
}

// handleUpdatePost lets any signed-in user edit any post; date and author are kept.
func (a *App) handleUpdatePost(c echo.Context) error {
	id, ok := pathID(c, "post_id")
	if !ok {
		return a.renderNotFound(c)
	}
	form, img, msg, err := a.bindPostForm(c)
	if err != nil {
		return err
	}
	if msg != "" {
		return a.renderPostForm(c, form, true, msg)
	}
	if err := a.saveImage(c, img); err != nil {
		return err
	}
	if err := a.Store.UpdatePost(c.Request().Context(), id, form); err != nil {
		a.rejectImage(c, img, &form)
		switch {
		case errors.Is(err, ErrNotFound):
			return a.renderNotFound(c)
		case errors.Is(err, ErrDuplicateTitle):
			return a.renderPostForm(c, form, true, "A post with that title already exists.")
		}
		return err
	}
	a.invalidatePosts(c)
	return c.Redirect(http.StatusSeeOther, postPath(id))
}

// handleDeletePost deletes only for admins. Everyone else, and unknown IDs,
// get the same redirect with nothing changed.
func (a *App) handleDeletePost(c echo.Context) error {
	ident := CurrentIdentity(c)
	id, ok := pathID(c, "post_id")
	if ok && ident.IsAdmin() {
		err := a.Store.DeletePost(c.Request().Context(), id)
		switch {
		case err == nil:
			a.invalidatePosts(c)
		case !errors.Is(err, ErrNotFound):
			return err
		}
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

func (a *App) renderPostForm(c echo.Context, form PostForm, editing bool, msg string) error {
	title := "New post"
	if editing {
		title = "Edit post"
	}
	return RenderStatus(c, http.StatusUnprocessableEntity, a.Views.PostForm(a.page(c, title), form, editing, msg))
}

// bindPostForm reads and validates the post fields. An uploaded header image
// replaces img_url; it is processed here but saved by the caller once the
// form is accepted. A non-empty message means the form must be shown again.
func (a *App) bindPostForm(c echo.Context) (PostForm, *headerImage, string, error) {
	form := PostForm{
		Title:    strings.TrimSpace(c.FormValue("title")),
		Subtitle: strings.TrimSpace(c.FormValue("subtitle")),
		Body:     strings.TrimSpace(c.FormValue("body")),
		ImgURL:   strings.TrimSpace(c.FormValue("img_url")),
	}
	img, err := a.readUploadedImage(c, form.Title)
	if err != nil {
		if errors.Is(err, errInvalidImage) {
			return form, nil, "The uploaded image could not be used: " + err.Error(), nil
		}
		return form, nil, "", err
	}
	checked := form
	if img != nil {
		checked.ImgURL = img.URL()
	}
	if msg := checked.validate(); msg != "" {
		return form, nil, msg, nil
	}
	return checked, img, "", nil
}

// rejectImage removes a saved upload whose post was not written and points
// the form back at the typed img_url.
func (a *App) rejectImage(c echo.Context, img *headerImage, form *PostForm) {
	if img == nil {
		return
	}
	a.discardImage(c, img)
	form.ImgURL = strings.TrimSpace(c.FormValue("img_url"))
}

func (f PostForm) validate() string {
	switch {
	case f.Title == "":
		return "Title is required."
	case f.Subtitle == "":
		return "Subtitle is required."
	case f.Body == "":
		return "Body is required."
	case f.ImgURL == "":
		return "Image URL is required."
	}
	return ""
}

func (a *App) invalidatePosts(c echo.Context) {
	if err := a.Cache.Invalidate(c.Request().Context()); err != nil {
		c.Logger().Errorf("invalidate post cache: %v", err)
	}
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func postPath(id int64) string {
	return "/post/" + strconv.FormatInt(id, 10)
}
