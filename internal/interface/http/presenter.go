package handlers

import (
	"time"

	"github.com/ChaoPei/flasky/internal/application"
	"github.com/ChaoPei/flasky/internal/domain/entity"
)

// DisabledCommentText replaces the body of a disabled comment for viewers
// who cannot moderate.
const DisabledCommentText = "This comment has been disabled by a moderator."

type RoleView struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Permissions int    `json:"permissions"`
	Default     bool   `json:"default"`
}

type UserView struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email,omitempty"`
	Name        string    `json:"name"`
	Location    string    `json:"location"`
	AboutMe     string    `json:"about_me"`
	AvatarURL   string    `json:"avatar_url"`
	Confirmed   bool      `json:"confirmed"`
	Role        string    `json:"role,omitempty"`
	MemberSince time.Time `json:"member_since"`
	LastSeen    time.Time `json:"last_seen"`
}

type AuthorView struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url"`
}

type PostView struct {
	ID           int64       `json:"id"`
	Body         string      `json:"body"`
	BodyHTML     string      `json:"body_html"`
	Timestamp    time.Time   `json:"timestamp"`
	Author       *AuthorView `json:"author,omitempty"`
	CommentCount int         `json:"comment_count"`
	Editable     bool        `json:"editable"`
}

type CommentView struct {
	ID        int64       `json:"id"`
	PostID    int64       `json:"post_id"`
	Body      string      `json:"body"`
	BodyHTML  string      `json:"body_html"`
	Timestamp time.Time   `json:"timestamp"`
	Disabled  bool        `json:"disabled"`
	Author    *AuthorView `json:"author,omitempty"`
}

type FollowView struct {
	User      AuthorView `json:"user"`
	Timestamp time.Time  `json:"timestamp"`
}

type ProfileView struct {
	User           UserView   `json:"user"`
	FollowersCount int        `json:"followers_count"`
	FollowingCount int        `json:"following_count"`
	IsFollowing    bool       `json:"is_following"`
	IsFollowedBy   bool       `json:"is_followed_by"`
	Posts          []PostView `json:"posts"`
}

func roleView(r *entity.Role) RoleView {
	return RoleView{ID: r.ID, Name: r.Name, Permissions: int(r.Permissions), Default: r.IsDefault}
}

// userView hides the email address unless the viewer is the user or an administrator.
func userView(u *entity.User, viewer entity.Principal) UserView {
	v := UserView{
		ID:          u.ID,
		Username:    u.Username,
		Name:        u.Name,
		Location:    u.Location,
		AboutMe:     u.AboutMe,
		AvatarURL:   u.Avatar(256),
		Confirmed:   u.Confirmed,
		MemberSince: u.MemberSince,
		LastSeen:    u.LastSeen,
	}
	if u.Role != nil {
		v.Role = u.Role.Name
	}
	if me, ok := viewer.User(); (ok && me.ID == u.ID) || viewer.IsAdministrator() {
		v.Email = u.Email
	}
	return v
}

func authorView(u *entity.User) *AuthorView {
	if u == nil {
		return nil
	}
	return &AuthorView{ID: u.ID, Username: u.Username, AvatarURL: u.Avatar(40)}
}

func postView(p *entity.Post, viewer entity.Principal) PostView {
	me, _ := viewer.User()
	return PostView{
		ID:           p.ID,
		Body:         p.Body,
		BodyHTML:     p.BodyHTML,
		Timestamp:    p.Timestamp,
		Author:       authorView(p.Author),
		CommentCount: p.CommentCount,
		Editable:     p.EditableBy(me),
	}
}

func postViews(posts []*entity.Post, viewer entity.Principal) []PostView {
	out := make([]PostView, 0, len(posts))
	for _, p := range posts {
		out = append(out, postView(p, viewer))
	}
	return out
}

// commentView blanks disabled comments for viewers without MODERATE_COMMENTS.
func commentView(cm *entity.Comment, viewer entity.Principal) CommentView {
	v := CommentView{
		ID:        cm.ID,
		PostID:    cm.PostID,
		Body:      cm.Body,
		BodyHTML:  cm.BodyHTML,
		Timestamp: cm.Timestamp,
		Disabled:  cm.Disabled,
		Author:    authorView(cm.Author),
	}
	if cm.Disabled && !viewer.Can(entity.PermModerateComments) {
		v.Body = DisabledCommentText
		v.BodyHTML = "<p><i>" + DisabledCommentText + "</i></p>"
	}
	return v
}

func commentViews(comments []*entity.Comment, viewer entity.Principal) []CommentView {
	out := make([]CommentView, 0, len(comments))
	for _, cm := range comments {
		out = append(out, commentView(cm, viewer))
	}
	return out
}

func followViews(entries []entity.FollowEntry) []FollowView {
	out := make([]FollowView, 0, len(entries))
	for _, e := range entries {
		out = append(out, FollowView{User: *authorView(e.User), Timestamp: e.Timestamp})
	}
	return out
}

func profileView(p *application.Profile, viewer entity.Principal) ProfileView {
	return ProfileView{
		User:           userView(p.User, viewer),
		FollowersCount: p.FollowersCount,
		FollowingCount: p.FollowingCount,
		IsFollowing:    p.IsFollowing,
		IsFollowedBy:   p.IsFollowedBy,
		Posts:          postViews(p.Posts, viewer),
	}
}
