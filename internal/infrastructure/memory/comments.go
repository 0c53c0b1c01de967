package memory

import (
	"context"
	"sort"

	"github.com/ChaoPei/flasky/internal/domain/entity"
	"github.com/ChaoPei/flasky/internal/domain/repository"
)

type commentRepo struct{ s *Store }

func (st *state) loadComment(c entity.Comment) *entity.Comment {
	if u, ok := st.users[c.AuthorID]; ok {
		u.Role = nil
		c.Author = &u
	}
	return &c
}

func (r *commentRepo) Create(_ context.Context, c *entity.Comment) error {
	return r.s.update(func(st *state) error {
		if _, ok := st.posts[c.PostID]; !ok {
			return repository.ErrNotFound
		}
		if _, ok := st.users[c.AuthorID]; !ok {
			return repository.ErrNotFound
		}
		st.commentSeq++
		c.ID = st.commentSeq
		cp := *c
		cp.Author = nil
		st.comments[c.ID] = cp
		return nil
	})
}

func (r *commentRepo) GetByID(_ context.Context, id int64) (*entity.Comment, error) {
	var out *entity.Comment
	err := r.s.view(func(st *state) error {
		c, ok := st.comments[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = st.loadComment(c)
		return nil
	})
	return out, err
}

func (r *commentRepo) Update(_ context.Context, c *entity.Comment) error {
	return r.s.update(func(st *state) error {
		cur, ok := st.comments[c.ID]
		if !ok {
			return repository.ErrNotFound
		}
		cur.Body = c.Body
		cur.BodyHTML = c.BodyHTML
		cur.Disabled = c.Disabled
		st.comments[c.ID] = cur
		return nil
	})
}

func (r *commentRepo) list(page repository.Page, match func(entity.Comment) bool, newestFirst bool) ([]*entity.Comment, int, error) {
	var (
		out   []*entity.Comment
		total int
	)
	err := r.s.view(func(st *state) error {
		var matched []entity.Comment
		for _, c := range st.comments {
			if match(c) {
				matched = append(matched, c)
			}
		}
		sort.Slice(matched, func(i, j int) bool {
			a, b := matched[i], matched[j]
			if !a.Timestamp.Equal(b.Timestamp) {
				return a.Timestamp.Before(b.Timestamp) != newestFirst
			}
			return (a.ID < b.ID) != newestFirst
		})
		total = len(matched)
		for _, c := range paginate(matched, page) {
			out = append(out, st.loadComment(c))
		}
		return nil
	})
	return out, total, err
}

func (r *commentRepo) ListByPost(_ context.Context, postID int64, page repository.Page) ([]*entity.Comment, int, error) {
	return r.list(page, func(c entity.Comment) bool { return c.PostID == postID }, false)
}

func (r *commentRepo) List(_ context.Context, page repository.Page) ([]*entity.Comment, int, error) {
	return r.list(page, func(entity.Comment) bool { return true }, true)
}
