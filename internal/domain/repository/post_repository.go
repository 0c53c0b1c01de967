package repository

import (
	"context"

	"github.com/ChaoPei/flasky/internal/domain/entity"
)

// PostRepository lists newest first and attaches the author.
type PostRepository interface {
	Create(ctx context.Context, p *entity.Post) error
	GetByID(ctx context.Context, id int64) (*entity.Post, error)
	Update(ctx context.Context, p *entity.Post) error
	List(ctx context.Context, page Page) ([]*entity.Post, int, error)
	ListByAuthor(ctx context.Context, authorID int64, page Page) ([]*entity.Post, int, error)
	// ListFollowed returns posts by every author followerID follows.
	ListFollowed(ctx context.Context, followerID int64, page Page) ([]*entity.Post, int, error)
}

type CommentRepository interface {
	Create(ctx context.Context, c *entity.Comment) error
	GetByID(ctx context.Context, id int64) (*entity.Comment, error)
	Update(ctx context.Context, c *entity.Comment) error
	// ListByPost is oldest first.
	ListByPost(ctx context.Context, postID int64, page Page) ([]*entity.Comment, int, error)
	// List is newest first across all posts.
	List(ctx context.Context, page Page) ([]*entity.Comment, int, error)
}
