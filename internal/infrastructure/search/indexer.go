package search

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/ChaoPei/flasky/internal/domain/entity"
)

const requestTimeout = 3 * time.Second

// Indexer mirrors users and posts into Elasticsearch. A nil client turns
// every call into a no-op returning empty results.
type Indexer struct {
	ES         *elasticsearch.Client
	UsersIndex string
	PostsIndex string
	Logger     *logrus.Logger
}

func NewIndexer(es *elasticsearch.Client, usersIndex, postsIndex string, logger *logrus.Logger) *Indexer {
	return &Indexer{ES: es, UsersIndex: usersIndex, PostsIndex: postsIndex, Logger: logger}
}

func (i *Indexer) IndexUser(ctx context.Context, u *entity.User) error {
	return i.index(ctx, i.UsersIndex, u.ID, map[string]any{
		"id":           u.ID,
		"username":     u.Username,
		"name":         u.Name,
		"location":     u.Location,
		"about_me":     u.AboutMe,
		"avatar_url":   u.Avatar(256),
		"member_since": u.MemberSince.Format(time.RFC3339Nano),
	})
}

func (i *Indexer) IndexPost(ctx context.Context, p *entity.Post) error {
	return i.index(ctx, i.PostsIndex, p.ID, map[string]any{
		"id":        p.ID,
		"author_id": p.AuthorID,
		"body":      p.Body,
		"timestamp": p.Timestamp.Format(time.RFC3339Nano),
	})
}

// SearchUsers matches usernames, names, locations and bios.
func (i *Indexer) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	return i.search(ctx, i.UsersIndex, q, size, "username^3", "name^2", "location", "about_me")
}

func (i *Indexer) SearchPosts(ctx context.Context, q string, size int) ([]map[string]any, error) {
	return i.search(ctx, i.PostsIndex, q, size, "body")
}

func (i *Indexer) index(ctx context.Context, index string, id int64, doc map[string]any) error {
	if i == nil || i.ES == nil || index == "" {
		return nil
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      index,
		DocumentID: strconv.FormatInt(id, 10),
		Body:       strings.NewReader(string(b)),
		Refresh:    "false",
	}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, i.ES)
	if err != nil {
		i.warn(err, index, id)
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		err := fmt.Errorf("es index %s/%d: %s", index, id, res.Status())
		i.warn(err, index, id)
		return err
	}
	return nil
}

func (i *Indexer) search(ctx context.Context, index, q string, size int, fields ...string) ([]map[string]any, error) {
	if i == nil || i.ES == nil || index == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": fields,
			},
		},
		"size": size,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := i.ES.Search(i.ES.Search.WithContext(c), i.ES.Search.WithIndex(index), i.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search %s: %s", index, res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func (i *Indexer) warn(err error, index string, id int64) {
	if i.Logger == nil {
		return
	}
	i.Logger.WithError(err).WithFields(logrus.Fields{"index": index, "doc_id": id}).Warn("es index failed")
}
