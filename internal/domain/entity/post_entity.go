package entity

import (
	"time"

	"github.com/ChaoPei/flasky/pkg/markdown"
)

// Post is a Markdown article. BodyHTML is derived from Body and only
// changes through SetBody.
type Post struct {
	ID        int64
	Body      string
	BodyHTML  string
	Timestamp time.Time
	AuthorID  int64
	Author    *User

	CommentCount int
}

func NewPost(authorID int64, body string, now time.Time) *Post {
	p := &Post{AuthorID: authorID, Timestamp: now}
	p.SetBody(body)
	return p
}

func (p *Post) SetBody(body string) {
	p.Body = body
	p.BodyHTML = markdown.RenderPost(body)
}

// EditableBy reports whether u may change the post: its author or an administrator.
func (p *Post) EditableBy(u *User) bool {
	if u == nil {
		return false
	}
	return u.ID == p.AuthorID || u.IsAdministrator()
}
