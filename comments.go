package cleanblog

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

func (a *App) handleAddComment(c echo.Context) error {
	ctx := c.Request().Context()
	id, ok := pathID(c, "post_id")
	if !ok {
		return a.renderNotFound(c)
	}
	if _, err := a.Store.GetPost(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return a.renderNotFound(c)
		}
		return err
	}

	text := commentText(c.FormValue("text"))
	if text == "" {
		return a.flashRedirect(c, "Write something before submitting a comment.", postPath(id))
	}
	_, err := a.Store.CreateComment(ctx, Comment{
		Text:   text,
		PostID: id,
		UserID: CurrentIdentity(c).ID(),
	})
	if err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, postPath(id))
}

// handleDeleteComment deletes only the caller's own comments. Any other case
// redirects back to the post as if it had worked.
func (a *App) handleDeleteComment(c echo.Context) error {
	ctx := c.Request().Context()
	commentID, ok := pathID(c, "comment_id")
	if ok {
		cm, err := a.Store.GetComment(ctx, commentID)
		switch {
		case err == nil:
			if cm.UserID == CurrentIdentity(c).ID() {
				if err := a.Store.DeleteComment(ctx, commentID); err != nil && !errors.Is(err, ErrNotFound) {
					return err
				}
			}
		case !errors.Is(err, ErrNotFound):
			return err
		}
	}
	if id, ok := pathID(c, "post_id"); ok {
		return c.Redirect(http.StatusSeeOther, postPath(id))
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// commentText turns comment box HTML into the plain markup the comment
// renderer understands. Entities are decoded, paragraphs become blank lines,
// bold/italic/code/links become their markdown forms and every other tag is
// dropped. Input without tags passes through unchanged.
func commentText(raw string) string {
	z := html.NewTokenizer(strings.NewReader(raw))
	var b strings.Builder
	var links []string
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return tidyComment(b.String())
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			tok := z.Token()
			end := tt == html.EndTagToken
			switch tok.DataAtom {
			case atom.Script, atom.Style:
				if tt == html.StartTagToken {
					skip++
				} else if end && skip > 0 {
					skip--
				}
			case atom.P, atom.Div, atom.Ul, atom.Ol, atom.Blockquote:
				b.WriteString("\n\n")
			case atom.Br:
				b.WriteString("\n")
			case atom.Li:
				if !end {
					b.WriteString("\n- ")
				}
			case atom.Strong, atom.B:
				b.WriteString("**")
			case atom.Em, atom.I:
				b.WriteString("*")
			case atom.Code:
				b.WriteString("`")
			case atom.A:
				if !end {
					href := ""
					for _, attr := range tok.Attr {
						if attr.Key == "href" {
							href = strings.TrimSpace(attr.Val)
						}
					}
					links = append(links, href)
					if href != "" {
						b.WriteString("[")
					}
				} else if n := len(links); n > 0 {
					href := links[n-1]
					links = links[:n-1]
					if href != "" {
						b.WriteString("](" + href + ")")
					}
				}
			}
		}
	}
}

// tidyComment trims every line and collapses runs of blank lines.
func tidyComment(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	var out []string
	blank := false
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			blank = len(out) > 0
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// commentsForPost keeps the comments that belong to postID.
func commentsForPost(all []Comment, postID int64) []Comment {
	var out []Comment
	for _, cm := range all {
		if cm.PostID == postID {
			out = append(out, cm)
		}
	}
	return out
}
