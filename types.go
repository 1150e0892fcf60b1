package cleanblog

// User is a registered account. IsAdmin grants post deletion.
type User struct {
	ID       int64
	Email    string
	Name     string
	Password string
	IsAdmin  bool
}

// Post is a blog entry. Date is formatted once at creation and never rewritten.
type Post struct {
	ID         int64
	Title      string
	Subtitle   string
	Date       string
	Body       string
	ImgURL     string
	AuthorID   int64
	AuthorName string
}

// Comment belongs to a post and to the user who wrote it.
type Comment struct {
	ID       int64
	Text     string
	PostID   int64
	UserID   int64
	UserName string
}

// PostForm is the add/edit form shape. Editing pre-fills it from the stored row.
type PostForm struct {
	Title    string
	Subtitle string
	Body     string
	ImgURL   string
}

// Page carries the per-request values every template needs.
type Page struct {
	Site      SiteInfo
	Title     string
	Path      string
	Identity  Identity
	Flashes   []string
	CSRFToken string
}

// SiteInfo is the branding subset of Config exposed to templates.
type SiteInfo struct {
	Name        string
	URL         string
	Description string
}
