package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/ChaoPei/flasky/internal/domain/entity"
	"github.com/ChaoPei/flasky/internal/domain/repository"
)

type CommentRepository struct {
	db DBTX
}

const commentSelect = `
	SELECT c.id, c.body, c.body_html, c.timestamp, c.disabled, c.author_id, c.post_id,
	       u.id, u.email, u.username, u.name, u.avatar_hash, u.avatar_url
	FROM comments c
	JOIN users u ON u.id = c.author_id`

func scanComment(row pgx.Row) (*entity.Comment, error) {
	var (
		c entity.Comment
		u entity.User
	)
	if err := row.Scan(&c.ID, &c.Body, &c.BodyHTML, &c.Timestamp, &c.Disabled, &c.AuthorID, &c.PostID,
		&u.ID, &u.Email, &u.Username, &u.Name, &u.AvatarHash, &u.AvatarURL); err != nil {
		return nil, mapErr(err)
	}
	c.Author = &u
	return &c, nil
}

func (r *CommentRepository) query(ctx context.Context, sql string, args ...any) ([]*entity.Comment, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []*entity.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *CommentRepository) Create(ctx context.Context, c *entity.Comment) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO comments (body, body_html, timestamp, disabled, author_id, post_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, c.Body, c.BodyHTML, c.Timestamp, c.Disabled, c.AuthorID, c.PostID)
	return mapErr(row.Scan(&c.ID))
}

func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*entity.Comment, error) {
	return scanComment(r.db.QueryRow(ctx, commentSelect+` WHERE c.id = $1`, id))
}

func (r *CommentRepository) Update(ctx context.Context, c *entity.Comment) error {
	res, err := r.db.Exec(ctx, `
		UPDATE comments SET body = $1, body_html = $2, disabled = $3 WHERE id = $4
	`, c.Body, c.BodyHTML, c.Disabled, c.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID int64, page repository.Page) ([]*entity.Comment, int, error) {
	total, err := count(ctx, r.db, `SELECT count(*) FROM comments WHERE post_id = $1`, postID)
	if err != nil {
		return nil, 0, err
	}
	comments, err := r.query(ctx, commentSelect+` WHERE c.post_id = $1
		ORDER BY c.timestamp ASC, c.id ASC LIMIT $2 OFFSET $3`, postID, page.Limit(), page.Offset())
	return comments, total, err
}

func (r *CommentRepository) List(ctx context.Context, page repository.Page) ([]*entity.Comment, int, error) {
	total, err := count(ctx, r.db, `SELECT count(*) FROM comments`)
	if err != nil {
		return nil, 0, err
	}
	comments, err := r.query(ctx, commentSelect+`
		ORDER BY c.timestamp DESC, c.id DESC LIMIT $1 OFFSET $2`, page.Limit(), page.Offset())
	return comments, total, err
}

var _ repository.CommentRepository = (*CommentRepository)(nil)
