package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/ChaoPei/flasky/internal/domain/entity"
)

// MemoryIndexer is a substring matching stand-in for the search index.
type MemoryIndexer struct {
	mu    sync.Mutex
	users map[int64]map[string]any
	posts map[int64]map[string]any
}

func NewMemoryIndexer() *MemoryIndexer {
	return &MemoryIndexer{users: map[int64]map[string]any{}, posts: map[int64]map[string]any{}}
}

func (i *MemoryIndexer) IndexUser(_ context.Context, u *entity.User) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.users[u.ID] = map[string]any{"id": u.ID, "username": u.Username, "name": u.Name, "location": u.Location, "about_me": u.AboutMe}
	return nil
}

func (i *MemoryIndexer) IndexPost(_ context.Context, p *entity.Post) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.posts[p.ID] = map[string]any{"id": p.ID, "author_id": p.AuthorID, "body": p.Body}
	return nil
}

func (i *MemoryIndexer) SearchUsers(_ context.Context, q string, size int) ([]map[string]any, error) {
	return i.search(i.users, q, size, "username", "name", "location", "about_me"), nil
}

func (i *MemoryIndexer) SearchPosts(_ context.Context, q string, size int) ([]map[string]any, error) {
	return i.search(i.posts, q, size, "body"), nil
}

func (i *MemoryIndexer) search(docs map[int64]map[string]any, q string, size int, fields ...string) []map[string]any {
	i.mu.Lock()
	defer i.mu.Unlock()
	q = strings.ToLower(q)
	out := []map[string]any{}
	for _, doc := range docs {
		for _, f := range fields {
			if s, _ := doc[f].(string); strings.Contains(strings.ToLower(s), q) {
				out = append(out, doc)
				break
			}
		}
		if size > 0 && len(out) >= size {
			break
		}
	}
	return out
}
