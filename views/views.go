// Package views provides the default templates for a cleanblog site. Pages
// are html/template files embedded in the binary and exposed as templ
// components through Funcs.
package views

import (
	"context"
	"embed"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/eringen/cleanblog"
)

//go:embed templates/*.html
var files embed.FS

var pages = map[string]*template.Template{}

func init() {
	for _, name := range []string{
		"home.html", "post.html", "post_form.html", "login.html", "register.html",
		"about.html", "contact.html", "unauthorized.html", "not_found.html", "server_error.html",
	} {
		pages[name] = template.Must(template.New(name).Funcs(funcs).ParseFS(files, "templates/layout.html", "templates/"+name))
	}
}

// data is the value every page template executes against.
type data struct {
	cleanblog.Page
	Posts    []cleanblog.Post
	Post     cleanblog.Post
	Comments []cleanblog.Comment
	Form     cleanblog.PostForm
	Editing  bool
	Error    string
}

func render(name string, d data) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return pages[name].ExecuteTemplate(w, "layout", d)
	})
}

// Funcs returns the view set expected by cleanblog.New.
func Funcs() cleanblog.ViewFuncs {
	return cleanblog.ViewFuncs{
		Home:         Home,
		Post:         Post,
		PostForm:     PostForm,
		Login:        simple("login.html"),
		Register:     simple("register.html"),
		About:        simple("about.html"),
		Contact:      simple("contact.html"),
		Unauthorized: simple("unauthorized.html"),
		NotFound:     simple("not_found.html"),
		ServerError:  simple("server_error.html"),
	}
}

// Home lists every post.
func Home(p cleanblog.Page, posts []cleanblog.Post) templ.Component {
	return render("home.html", data{Page: p, Posts: posts})
}

// Post shows one post with its comments and the comment form.
func Post(p cleanblog.Page, post cleanblog.Post, comments []cleanblog.Comment) templ.Component {
	return render("post.html", data{Page: p, Post: post, Comments: comments})
}

// PostForm is the add and edit form.
func PostForm(p cleanblog.Page, form cleanblog.PostForm, editing bool, errMsg string) templ.Component {
	return render("post_form.html", data{Page: p, Form: form, Editing: editing, Error: errMsg})
}

func simple(name string) func(cleanblog.Page) templ.Component {
	return func(p cleanblog.Page) templ.Component {
		return render(name, data{Page: p})
	}
}
