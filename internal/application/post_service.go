package application

import (
	"context"
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ChaoPei/flasky/internal/domain/entity"
	"github.com/ChaoPei/flasky/internal/domain/repository"
)

// PostService handles posts, comments and comment moderation.
type PostService struct {
	Store   repository.Store
	Indexer Indexer
	Logger  *logrus.Logger
	Now     Clock

	PostsPerPage    int
	CommentsPerPage int
}

// PostDetail is a post with one page of its comments, oldest first.
type PostDetail struct {
	Post          *entity.Post
	Comments      []*entity.Comment
	CommentsTotal int
}

func (s *PostService) log() *logrus.Logger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}

func emptyBody(body string) error {
	if strings.TrimSpace(body) == "" {
		return fieldError("body", "This field is required.")
	}
	return nil
}

// List returns all posts, or only posts of followed authors when
// showFollowed is set and the viewer is signed in.
func (s *PostService) List(ctx context.Context, p entity.Principal, page int, showFollowed bool) ([]*entity.Post, int, error) {
	if me, ok := p.User(); ok && showFollowed {
		return s.FollowedPosts(ctx, me.ID, page)
	}
	return s.Store.Posts().List(ctx, repository.NewPage(page, s.PostsPerPage))
}

// FollowedPosts returns posts by everyone userID follows, itself included,
// newest first.
func (s *PostService) FollowedPosts(ctx context.Context, userID int64, page int) ([]*entity.Post, int, error) {
	return s.Store.Posts().ListFollowed(ctx, userID, repository.NewPage(page, s.PostsPerPage))
}

func (s *PostService) Create(ctx context.Context, p entity.Principal, body string) (*entity.Post, error) {
	me, ok := p.User()
	if !ok {
		return nil, ErrUnauthenticated
	}
	if !p.Can(entity.PermWriteArticles) {
		return nil, ErrForbidden
	}
	if err := emptyBody(body); err != nil {
		return nil, err
	}
	post := entity.NewPost(me.ID, body, s.Now.now())
	if err := s.Store.Posts().Create(ctx, post); err != nil {
		return nil, err
	}
	post.Author = me
	s.index(ctx, post)
	return post, nil
}

// Edit replaces the body. Authors may edit their own posts, administrators any.
func (s *PostService) Edit(ctx context.Context, p entity.Principal, postID int64, body string) (*entity.Post, error) {
	me, ok := p.User()
	if !ok {
		return nil, ErrUnauthenticated
	}
	if err := emptyBody(body); err != nil {
		return nil, err
	}
	var post *entity.Post
	err := s.Store.WithinTx(ctx, func(tx repository.Store) error {
		cur, err := tx.Posts().GetByID(ctx, postID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrPostNotFound
			}
			return err
		}
		if !cur.EditableBy(me) {
			return ErrForbidden
		}
		cur.SetBody(body)
		post = cur
		return tx.Posts().Update(ctx, cur)
	})
	if err != nil {
		return nil, err
	}
	s.index(ctx, post)
	return post, nil
}

func (s *PostService) Get(ctx context.Context, postID int64, commentsPage int) (*PostDetail, error) {
	post, err := s.Store.Posts().GetByID(ctx, postID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	comments, total, err := s.Store.Comments().ListByPost(ctx, postID, repository.NewPage(commentsPage, s.CommentsPerPage))
	if err != nil {
		return nil, err
	}
	return &PostDetail{Post: post, Comments: comments, CommentsTotal: total}, nil
}

// LastCommentsPage is the page holding the newest comment, where a freshly
// added comment shows up.
func (s *PostService) LastCommentsPage(total int) int {
	per := s.CommentsPerPage
	if per < 1 {
		per = repository.NewPage(1, 0).Size
	}
	if total <= 0 {
		return 1
	}
	return (total-1)/per + 1
}

func (s *PostService) AddComment(ctx context.Context, p entity.Principal, postID int64, body string) (*entity.Comment, error) {
	me, ok := p.User()
	if !ok {
		return nil, ErrUnauthenticated
	}
	if !p.Can(entity.PermComment) {
		return nil, ErrForbidden
	}
	if err := emptyBody(body); err != nil {
		return nil, err
	}
	c := entity.NewComment(me.ID, postID, body, s.Now.now())
	err := s.Store.WithinTx(ctx, func(tx repository.Store) error {
		if _, err := tx.Posts().GetByID(ctx, postID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrPostNotFound
			}
			return err
		}
		return tx.Comments().Create(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	c.Author = me
	return c, nil
}

// ListComments is the moderation queue, newest first.
func (s *PostService) ListComments(ctx context.Context, p entity.Principal, page int) ([]*entity.Comment, int, error) {
	if !p.Can(entity.PermModerateComments) {
		return nil, 0, ErrForbidden
	}
	return s.Store.Comments().List(ctx, repository.NewPage(page, s.CommentsPerPage))
}

func (s *PostService) SetCommentDisabled(ctx context.Context, p entity.Principal, commentID int64, disabled bool) (*entity.Comment, error) {
	if !p.Can(entity.PermModerateComments) {
		return nil, ErrForbidden
	}
	var out *entity.Comment
	err := s.Store.WithinTx(ctx, func(tx repository.Store) error {
		c, err := tx.Comments().GetByID(ctx, commentID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrCommentNotFound
			}
			return err
		}
		c.Disabled = disabled
		out = c
		return tx.Comments().Update(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	who, _ := p.User()
	s.log().WithFields(logrus.Fields{"comment_id": commentID, "disabled": disabled, "moderator_id": who.ID}).Info("comment moderated")
	return out, nil
}

func (s *PostService) SearchPosts(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.Indexer == nil {
		return []map[string]any{}, nil
	}
	return s.Indexer.SearchPosts(ctx, q, size)
}

func (s *PostService) index(ctx context.Context, p *entity.Post) {
	if s.Indexer == nil {
		return
	}
	if err := s.Indexer.IndexPost(ctx, p); err != nil {
		s.log().WithError(err).WithField("post_id", p.ID).Warn("index post failed")
	}
}
