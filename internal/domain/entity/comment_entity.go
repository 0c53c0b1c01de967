package entity

import (
	"time"

	"github.com/ChaoPei/flasky/pkg/markdown"
)

// Comment belongs to a post. Same derivation rule as Post, with the inline
// only allow-list.
type Comment struct {
	ID        int64
	Body      string
	BodyHTML  string
	Timestamp time.Time
	Disabled  bool
	AuthorID  int64
	Author    *User
	PostID    int64
}

func NewComment(authorID, postID int64, body string, now time.Time) *Comment {
	c := &Comment{AuthorID: authorID, PostID: postID, Timestamp: now}
	c.SetBody(body)
	return c
}

func (c *Comment) SetBody(body string) {
	c.Body = body
	c.BodyHTML = markdown.RenderComment(body)
}
