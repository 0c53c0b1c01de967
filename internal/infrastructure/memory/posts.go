package memory

import (
	"context"
	"sort"

	"github.com/ChaoPei/flasky/internal/domain/entity"
	"github.com/ChaoPei/flasky/internal/domain/repository"
)

type postRepo struct{ s *Store }

func (st *state) loadPost(id int64) (*entity.Post, bool) {
	p, ok := st.posts[id]
	if !ok {
		return nil, false
	}
	if u, ok := st.users[p.AuthorID]; ok {
		u.Role = nil
		p.Author = &u
	}
	p.CommentCount = 0
	for _, c := range st.comments {
		if c.PostID == id {
			p.CommentCount++
		}
	}
	return &p, true
}

func (st *state) listPosts(page repository.Page, match func(entity.Post) bool) ([]*entity.Post, int) {
	var matched []entity.Post
	for _, p := range st.posts {
		if match(p) {
			matched = append(matched, p)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		}
		return matched[i].ID > matched[j].ID
	})
	var out []*entity.Post
	for _, p := range paginate(matched, page) {
		loaded, _ := st.loadPost(p.ID)
		out = append(out, loaded)
	}
	return out, len(matched)
}

func (r *postRepo) Create(_ context.Context, p *entity.Post) error {
	return r.s.update(func(st *state) error {
		if _, ok := st.users[p.AuthorID]; !ok {
			return repository.ErrNotFound
		}
		st.postSeq++
		p.ID = st.postSeq
		cp := *p
		cp.Author = nil
		st.posts[p.ID] = cp
		return nil
	})
}

func (r *postRepo) GetByID(_ context.Context, id int64) (*entity.Post, error) {
	var out *entity.Post
	err := r.s.view(func(st *state) error {
		p, ok := st.loadPost(id)
		if !ok {
			return repository.ErrNotFound
		}
		out = p
		return nil
	})
	return out, err
}

func (r *postRepo) Update(_ context.Context, p *entity.Post) error {
	return r.s.update(func(st *state) error {
		cur, ok := st.posts[p.ID]
		if !ok {
			return repository.ErrNotFound
		}
		cur.Body = p.Body
		cur.BodyHTML = p.BodyHTML
		st.posts[p.ID] = cur
		return nil
	})
}

func (r *postRepo) List(_ context.Context, page repository.Page) ([]*entity.Post, int, error) {
	var (
		out   []*entity.Post
		total int
	)
	err := r.s.view(func(st *state) error {
		out, total = st.listPosts(page, func(entity.Post) bool { return true })
		return nil
	})
	return out, total, err
}

func (r *postRepo) ListByAuthor(_ context.Context, authorID int64, page repository.Page) ([]*entity.Post, int, error) {
	var (
		out   []*entity.Post
		total int
	)
	err := r.s.view(func(st *state) error {
		out, total = st.listPosts(page, func(p entity.Post) bool { return p.AuthorID == authorID })
		return nil
	})
	return out, total, err
}

func (r *postRepo) ListFollowed(_ context.Context, followerID int64, page repository.Page) ([]*entity.Post, int, error) {
	var (
		out   []*entity.Post
		total int
	)
	err := r.s.view(func(st *state) error {
		out, total = st.listPosts(page, func(p entity.Post) bool {
			_, ok := st.follows[followKey{followerID, p.AuthorID}]
			return ok
		})
		return nil
	})
	return out, total, err
}
