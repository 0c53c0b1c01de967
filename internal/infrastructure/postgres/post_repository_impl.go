package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/ChaoPei/flasky/internal/domain/entity"
	"github.com/ChaoPei/flasky/internal/domain/repository"
)

type PostRepository struct {
	db DBTX
}

const postSelect = `
	SELECT p.id, p.body, p.body_html, p.timestamp, p.author_id,
	       (SELECT count(*) FROM comments c WHERE c.post_id = p.id),
	       u.id, u.email, u.username, u.name, u.avatar_hash, u.avatar_url
	FROM posts p
	JOIN users u ON u.id = p.author_id`

func scanPost(row pgx.Row) (*entity.Post, error) {
	var (
		p entity.Post
		u entity.User
	)
	if err := row.Scan(&p.ID, &p.Body, &p.BodyHTML, &p.Timestamp, &p.AuthorID, &p.CommentCount,
		&u.ID, &u.Email, &u.Username, &u.Name, &u.AvatarHash, &u.AvatarURL); err != nil {
		return nil, mapErr(err)
	}
	p.Author = &u
	return &p, nil
}

func (r *PostRepository) query(ctx context.Context, sql string, args ...any) ([]*entity.Post, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*entity.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *PostRepository) Create(ctx context.Context, p *entity.Post) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO posts (body, body_html, timestamp, author_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, p.Body, p.BodyHTML, p.Timestamp, p.AuthorID)
	return mapErr(row.Scan(&p.ID))
}

func (r *PostRepository) GetByID(ctx context.Context, id int64) (*entity.Post, error) {
	return scanPost(r.db.QueryRow(ctx, postSelect+` WHERE p.id = $1`, id))
}

func (r *PostRepository) Update(ctx context.Context, p *entity.Post) error {
	res, err := r.db.Exec(ctx, `UPDATE posts SET body = $1, body_html = $2 WHERE id = $3`, p.Body, p.BodyHTML, p.ID)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PostRepository) List(ctx context.Context, page repository.Page) ([]*entity.Post, int, error) {
	total, err := count(ctx, r.db, `SELECT count(*) FROM posts`)
	if err != nil {
		return nil, 0, err
	}
	posts, err := r.query(ctx, postSelect+`
		ORDER BY p.timestamp DESC, p.id DESC LIMIT $1 OFFSET $2`, page.Limit(), page.Offset())
	return posts, total, err
}

func (r *PostRepository) ListByAuthor(ctx context.Context, authorID int64, page repository.Page) ([]*entity.Post, int, error) {
	total, err := count(ctx, r.db, `SELECT count(*) FROM posts WHERE author_id = $1`, authorID)
	if err != nil {
		return nil, 0, err
	}
	posts, err := r.query(ctx, postSelect+` WHERE p.author_id = $1
		ORDER BY p.timestamp DESC, p.id DESC LIMIT $2 OFFSET $3`, authorID, page.Limit(), page.Offset())
	return posts, total, err
}

func (r *PostRepository) ListFollowed(ctx context.Context, followerID int64, page repository.Page) ([]*entity.Post, int, error) {
	total, err := count(ctx, r.db, `
		SELECT count(*) FROM posts p
		JOIN follows f ON f.followed_id = p.author_id
		WHERE f.follower_id = $1`, followerID)
	if err != nil {
		return nil, 0, err
	}
	posts, err := r.query(ctx, postSelect+`
		JOIN follows f ON f.followed_id = p.author_id
		WHERE f.follower_id = $1
		ORDER BY p.timestamp DESC, p.id DESC LIMIT $2 OFFSET $3`, followerID, page.Limit(), page.Offset())
	return posts, total, err
}

var _ repository.PostRepository = (*PostRepository)(nil)
