package views

import (
	"fmt"
	"html/template"
	"time"

	"github.com/eringen/cleanblog/markdown"
)

var funcs = template.FuncMap{
	"comment": renderComment,
	// Post bodies come from the rich-text editor as HTML.
	"richText": func(s string) template.HTML {
		return template.HTML(s)
	},
	"postPath": func(id int64) string {
		return fmt.Sprintf("/post/%d", id)
	},
	"editPath": func(postID, userID int64) string {
		return fmt.Sprintf("/edit/%d/%d", postID, userID)
	},
	"addPath": func(userID int64) string {
		return fmt.Sprintf("/add/%d", userID)
	},
	"deletePostPath": func(id int64) string {
		return fmt.Sprintf("/delete/%d", id)
	},
	"deleteCommentPath": func(postID, commentID int64) string {
		return fmt.Sprintf("/del_comment/%d/%d", postID, commentID)
	},
	"year": func() int {
		return time.Now().Year()
	},
}

// renderComment escapes comment text and applies inline markdown.
func renderComment(s string) template.HTML {
	return template.HTML(markdown.RenderString(s))
}
