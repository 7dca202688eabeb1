package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wudai/relgraph/internal/model"
	"github.com/wudai/relgraph/internal/store"
)

var errLinkIDRequired = errors.New("link id is required for the sync backend")

// Store is the sync-variant store.Store. Every mutation issues one request
// and, on success, refetches the complete state; the committed snapshot is
// untouched when the request fails, so there is nothing to roll back.
// Ownership, duplicate-pair checks and throttling are the backend's job;
// only cheap client-side validation happens here.
type Store struct {
	client *Client
	log    *zap.Logger

	mu   sync.RWMutex
	snap model.Snapshot
}

func New(client *Client, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{client: client, log: logger}
}

func (s *Store) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

// Refresh replaces the snapshot with the backend's current state. The ts
// query parameter busts caches the way the browser build did. A structurally
// invalid response is rejected and the previous snapshot kept.
func (s *Store) Refresh(ctx context.Context) error {
	var snap model.Snapshot
	path := fmt.Sprintf("/api/state?ts=%d", time.Now().UnixMilli())
	if err := s.client.do(ctx, http.MethodGet, path, nil, &snap); err != nil {
		return err
	}
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("backend returned invalid state: %w", err)
	}

	s.mu.Lock()
	s.snap = snap
	s.mu.Unlock()
	return nil
}

func (s *Store) AddNode(ctx context.Context, f store.NodeFields) (model.Node, error) {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return model.Node{}, store.ErrNameRequired
	}
	var node model.Node
	if err := s.client.do(ctx, http.MethodPost, "/api/nodes", f, &node); err != nil {
		return model.Node{}, err
	}
	return node, s.Refresh(ctx)
}

func (s *Store) UpdateNode(ctx context.Context, id string, f store.NodeFields) error {
	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return store.ErrNameRequired
	}
	path := "/api/nodes/" + url.PathEscape(id)
	if err := s.client.do(ctx, http.MethodPut, path, f, nil); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

func (s *Store) DeleteNode(ctx context.Context, id string) error {
	path := "/api/nodes/" + url.PathEscape(id)
	if err := s.client.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// AddLink sends the pair without checking for an existing connection: the
// duplicate check is deliberately left to the backend here.
func (s *Store) AddLink(ctx context.Context, source, target, relType string) (model.Link, error) {
	if source == target {
		return model.Link{}, store.ErrSelfLink
	}
	body := map[string]string{"source": source, "target": target, "type": relType}
	var link model.Link
	if err := s.client.do(ctx, http.MethodPost, "/api/links", body, &link); err != nil {
		return model.Link{}, err
	}
	return link, s.Refresh(ctx)
}

func (s *Store) DeleteLink(ctx context.Context, ref store.LinkRef) error {
	if ref.ID == "" {
		return errLinkIDRequired
	}
	path := "/api/links/" + url.PathEscape(ref.ID)
	if err := s.client.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

func (s *Store) AddComment(ctx context.Context, author, content string) (model.Comment, error) {
	author = strings.TrimSpace(author)
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Comment{}, store.ErrEmptyContent
	}
	if author == "" {
		author = model.AnonymousAuthor
	}
	body := map[string]string{"author": author, "content": content}
	var c model.Comment
	if err := s.client.do(ctx, http.MethodPost, "/api/comments", body, &c); err != nil {
		return model.Comment{}, err
	}
	return c, s.Refresh(ctx)
}

func (s *Store) AddReply(ctx context.Context, commentID, content string) (model.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Comment{}, store.ErrEmptyContent
	}
	path := "/api/comments/" + url.PathEscape(commentID) + "/replies"
	var c model.Comment
	if err := s.client.do(ctx, http.MethodPost, path, map[string]string{"content": content}, &c); err != nil {
		return model.Comment{}, err
	}
	return c, s.Refresh(ctx)
}

func (s *Store) EditComment(ctx context.Context, id, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return store.ErrEmptyContent
	}
	path := "/api/comments/" + url.PathEscape(id)
	if err := s.client.do(ctx, http.MethodPut, path, map[string]string{"content": content}, nil); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	path := "/api/comments/" + url.PathEscape(id)
	if err := s.client.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

func (s *Store) ToggleLike(ctx context.Context, commentID string) (bool, int, error) {
	path := "/api/comments/" + url.PathEscape(commentID) + "/like"
	var result struct {
		Liked bool `json:"liked"`
		Likes int  `json:"likes"`
	}
	if err := s.client.do(ctx, http.MethodPost, path, nil, &result); err != nil {
		return false, 0, err
	}
	return result.Liked, result.Likes, s.Refresh(ctx)
}

func (s *Store) Close() error { return nil }
