// Package local implements the graph store backed purely by local durable
// storage. The in-memory snapshot is the source of truth; every successful
// mutation writes the whole graph (or comment) blob back to the kv store.
package local

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wudai/relgraph/internal/filter"
	"github.com/wudai/relgraph/internal/model"
	"github.com/wudai/relgraph/internal/ratelimit"
	"github.com/wudai/relgraph/internal/store"
)

// graphBlob is the persisted shape of nodes+links, stored separately from
// comments under its own key.
type graphBlob struct {
	Nodes []model.Node `json:"nodes"`
	Links []model.Link `json:"links"`
}

// Options wires the store's collaborators.
type Options struct {
	ClientID string
	Limiter  *ratelimit.Limiter
	Filter   *filter.Filter
	Auth     store.Authorizer
	Logger   *zap.Logger
}

// Store is the local-variant store.Store. It owns the KV handle and closes it.
type Store struct {
	kv       *KV
	clientID string
	limiter  *ratelimit.Limiter
	filter   *filter.Filter
	auth     store.Authorizer
	log      *zap.Logger

	mu   sync.Mutex
	snap model.Snapshot
}

// Open loads (or seeds) the persisted state. Malformed blobs are discarded
// with a log line and replaced by the seeded center node rather than being
// allowed to crash every later operation.
func Open(kv *KV, opts Options) (*Store, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Store{
		kv:       kv,
		clientID: opts.ClientID,
		limiter:  opts.Limiter,
		filter:   opts.Filter,
		auth:     opts.Auth,
		log:      log,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load() error {
	snap, err := LoadOrSeed(s.kv, s.log)
	if err != nil {
		return err
	}
	snap.Normalize(s.clientID)

	s.snap = snap
	return s.persistGraph(snap)
}

func (s *Store) persistGraph(snap model.Snapshot) error {
	return s.kv.SaveGraph(snap.Nodes, snap.Links)
}

func (s *Store) persistComments(snap model.Snapshot) error {
	return s.kv.SaveComments(snap.Comments)
}

func (s *Store) isAdmin() bool {
	return s.auth != nil && s.auth.IsAdmin()
}

func nowMillis() int64 { return time.Now().UnixMilli() }

func (s *Store) Snapshot() model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.snap.Clone()
}

// Refresh re-reads the persisted blobs, discarding any in-memory state.
func (s *Store) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

func (s *Store) AddNode(ctx context.Context, f store.NodeFields) (model.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f = trimNodeFields(f)
	if f.Name == "" {
		return model.Node{}, store.ErrNameRequired
	}
	if s.filter.AnyBanned(f.Name, f.Position, f.BirthYear, f.DeathYear, f.Personality) {
		return model.Node{}, store.ErrBannedContent
	}
	if !s.isAdmin() {
		if err := s.limiter.CheckAction(); err != nil {
			return model.Node{}, err
		}
	}

	node := model.Node{
		ID:          uuid.NewString(),
		Name:        f.Name,
		Position:    f.Position,
		BirthYear:   f.BirthYear,
		DeathYear:   f.DeathYear,
		Personality: f.Personality,
		CreatedBy:   s.clientID,
		CreatedAt:   nowMillis(),
	}

	next := s.snap.Clone()
	next.Nodes = append(next.Nodes, node)
	if err := s.persistGraph(next); err != nil {
		return model.Node{}, err
	}
	s.snap = next
	return node, nil
}

// UpdateNode replaces the editable fields. The local variant deliberately has
// no ownership check on edits; any client may amend any person, subject to
// the rate limit.
func (s *Store) UpdateNode(ctx context.Context, id string, f store.NodeFields) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f = trimNodeFields(f)
	if f.Name == "" {
		return store.ErrNameRequired
	}
	if s.filter.AnyBanned(f.Name, f.Position, f.BirthYear, f.DeathYear, f.Personality) {
		return store.ErrBannedContent
	}
	if s.snap.FindNode(id) == nil {
		return store.ErrNotFound
	}
	if !s.isAdmin() {
		if err := s.limiter.CheckAction(); err != nil {
			return err
		}
	}

	next := s.snap.Clone()
	n := next.FindNode(id)
	n.Name = f.Name
	n.Position = f.Position
	n.BirthYear = f.BirthYear
	n.DeathYear = f.DeathYear
	n.Personality = f.Personality
	if err := s.persistGraph(next); err != nil {
		return err
	}
	s.snap = next
	return nil
}

func (s *Store) DeleteNode(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	node := s.snap.FindNode(id)
	if node == nil {
		return store.ErrNotFound
	}
	if node.IsCenter {
		return store.ErrCenterNode
	}
	admin := s.isAdmin()
	if !admin {
		if err := s.limiter.CheckTotalDelete(s.clientID); err != nil {
			return err
		}
		if err := s.limiter.CheckDelete(); err != nil {
			return err
		}
	}

	next := s.snap.Clone()
	next.RemoveNode(id)
	if err := s.persistGraph(next); err != nil {
		return err
	}
	s.snap = next

	if !admin {
		remaining, err := s.limiter.RecordDelete(s.clientID)
		if err != nil {
			return err
		}
		s.log.Info("node deleted", zap.String("id", id), zap.Int("deletes_remaining", remaining))
	} else {
		s.log.Info("node deleted by admin", zap.String("id", id))
	}
	return nil
}

func (s *Store) AddLink(ctx context.Context, source, target, relType string) (model.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	relType = strings.TrimSpace(relType)
	if relType == "" {
		return model.Link{}, store.ErrEmptyContent
	}
	if source == target {
		return model.Link{}, store.ErrSelfLink
	}
	if s.snap.FindNode(source) == nil || s.snap.FindNode(target) == nil {
		return model.Link{}, store.ErrUnknownNode
	}
	if s.snap.HasLinkBetween(source, target) {
		return model.Link{}, store.ErrDuplicateLink
	}
	if s.filter.ContainsBannedTerm(relType) {
		return model.Link{}, store.ErrBannedContent
	}
	if !s.isAdmin() {
		if err := s.limiter.CheckAction(); err != nil {
			return model.Link{}, err
		}
	}

	link := model.Link{
		Source:    source,
		Target:    target,
		Type:      relType,
		CreatedBy: s.clientID,
		CreatedAt: nowMillis(),
	}
	next := s.snap.Clone()
	next.Links = append(next.Links, link)
	if err := s.persistGraph(next); err != nil {
		return model.Link{}, err
	}
	s.snap = next
	return link, nil
}

func (s *Store) DeleteLink(ctx context.Context, ref store.LinkRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, l := range s.snap.Links {
		if ref.ID != "" && l.ID == ref.ID {
			idx = i
			break
		}
		if ref.ID == "" && l.SamePair(ref.Source, ref.Target) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return store.ErrNotFound
	}

	link := s.snap.Links[idx]
	admin := s.isAdmin()
	// Links without a recorded owner predate ownership tracking and are open
	// to anyone.
	if !admin && link.CreatedBy != "" && link.CreatedBy != s.clientID {
		return store.ErrNotOwner
	}
	if !admin {
		if err := s.limiter.CheckDelete(); err != nil {
			return err
		}
	}

	next := s.snap.Clone()
	next.Links = append(next.Links[:idx], next.Links[idx+1:]...)
	if err := s.persistGraph(next); err != nil {
		return err
	}
	s.snap = next
	return nil
}

func (s *Store) AddComment(ctx context.Context, author, content string) (model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	author = strings.TrimSpace(author)
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Comment{}, store.ErrEmptyContent
	}
	if s.filter.AnyBanned(author, content) {
		return model.Comment{}, store.ErrBannedContent
	}
	if !s.isAdmin() {
		if err := s.limiter.CheckAction(); err != nil {
			return model.Comment{}, err
		}
	}
	if author == "" {
		author = model.AnonymousAuthor
	}

	c := model.Comment{
		ID:        uuid.NewString(),
		Author:    author,
		Content:   content,
		CreatedAt: nowMillis(),
		CreatedBy: s.clientID,
	}
	next := s.snap.Clone()
	next.Comments = append(next.Comments, c)
	if err := s.persistComments(next); err != nil {
		return model.Comment{}, err
	}
	s.snap = next
	return c, nil
}

// AddReply attaches a reply one level below a top-level comment. Replies are
// always attributed to the anonymous author name.
func (s *Store) AddReply(ctx context.Context, commentID, content string) (model.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	content = strings.TrimSpace(content)
	if content == "" {
		return model.Comment{}, store.ErrEmptyContent
	}
	if s.filter.ContainsBannedTerm(content) {
		return model.Comment{}, store.ErrBannedContent
	}
	parent, outer := s.snap.FindComment(commentID)
	if parent == nil || outer != nil {
		return model.Comment{}, store.ErrNotFound
	}
	if !s.isAdmin() {
		if err := s.limiter.CheckAction(); err != nil {
			return model.Comment{}, err
		}
	}

	reply := model.Comment{
		ID:        uuid.NewString(),
		Author:    model.AnonymousAuthor,
		Content:   content,
		CreatedAt: nowMillis(),
		CreatedBy: s.clientID,
	}
	next := s.snap.Clone()
	target, _ := next.FindComment(commentID)
	target.Replies = append(target.Replies, reply)
	if err := s.persistComments(next); err != nil {
		return model.Comment{}, err
	}
	s.snap = next
	return reply, nil
}

func (s *Store) EditComment(ctx context.Context, id, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	content = strings.TrimSpace(content)
	if content == "" {
		return store.ErrEmptyContent
	}
	if s.filter.ContainsBannedTerm(content) {
		return store.ErrBannedContent
	}
	c, _ := s.snap.FindComment(id)
	if c == nil {
		return store.ErrNotFound
	}
	if !s.isAdmin() && c.CreatedBy != s.clientID {
		return store.ErrNotOwner
	}

	next := s.snap.Clone()
	target, _ := next.FindComment(id)
	target.Content = content
	target.EditedAt = nowMillis()
	if err := s.persistComments(next); err != nil {
		return err
	}
	s.snap = next
	return nil
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, _ := s.snap.FindComment(id)
	if c == nil {
		return store.ErrNotFound
	}
	if !s.isAdmin() && c.CreatedBy != s.clientID {
		return store.ErrNotOwner
	}

	next := s.snap.Clone()
	next.RemoveComment(id)
	if err := s.persistComments(next); err != nil {
		return err
	}
	s.snap = next
	return nil
}

// ToggleLike flips this client's like on a comment. The per-(comment, client)
// flag is persisted so the state survives restarts; the count never drops
// below zero even against inconsistent data.
func (s *Store) ToggleLike(ctx context.Context, commentID string) (bool, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, _ := s.snap.FindComment(commentID)
	if c == nil {
		return false, 0, store.ErrNotFound
	}

	liked, err := s.kv.LikeFlag(commentID, s.clientID)
	if err != nil {
		return false, 0, err
	}

	next := s.snap.Clone()
	target, _ := next.FindComment(commentID)
	if liked {
		target.Likes--
		if target.Likes < 0 {
			target.Likes = 0
		}
	} else {
		target.Likes++
	}

	if err := s.persistComments(next); err != nil {
		return false, 0, err
	}
	if err := s.kv.SetLikeFlag(commentID, s.clientID, !liked); err != nil {
		return false, 0, err
	}
	s.snap = next
	return !liked, target.Likes, nil
}

// HasLiked reports whether this client currently likes the comment.
func (s *Store) HasLiked(commentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.kv.LikeFlag(commentID, s.clientID)
}

// MarkBackupTime records when a backup was last exported.
func (s *Store) MarkBackupTime() error {
	return s.kv.Set(keyLastBackup, fmt.Sprintf("%d", nowMillis()))
}

func (s *Store) Close() error {
	return s.kv.Close()
}

func trimNodeFields(f store.NodeFields) store.NodeFields {
	f.Name = strings.TrimSpace(f.Name)
	f.Position = strings.TrimSpace(f.Position)
	f.BirthYear = strings.TrimSpace(f.BirthYear)
	f.DeathYear = strings.TrimSpace(f.DeathYear)
	f.Personality = strings.TrimSpace(f.Personality)
	return f
}
