package server

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wudai/relgraph/internal/model"
	"github.com/wudai/relgraph/internal/store"
	"github.com/wudai/relgraph/internal/store/local"
)

// State is the authoritative graph held by the reference backend. Unlike the
// client-side stores it is multi-tenant: every mutation names the acting
// client, and ownership checks compare against that actor instead of a fixed
// local identity.
type State struct {
	kv  *local.KV
	log *zap.Logger

	mu   sync.Mutex
	snap model.Snapshot
}

func NewState(kv *local.KV, log *zap.Logger) (*State, error) {
	if log == nil {
		log = zap.NewNop()
	}
	snap, err := local.LoadOrSeed(kv, log)
	if err != nil {
		return nil, err
	}
	snap.Normalize("")
	st := &State{kv: kv, log: log, snap: snap}
	if err := kv.SaveGraph(snap.Nodes, snap.Links); err != nil {
		return nil, err
	}
	return st, nil
}

func nowMillis() int64 { return time.Now().UnixMilli() }

func (st *State) Snapshot() model.Snapshot {
	st.mu.Lock()
	defer st.mu.Unlock()

	return st.snap.Clone()
}

func (st *State) AddNode(actor string, f store.NodeFields) (model.Node, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return model.Node{}, store.ErrNameRequired
	}

	node := model.Node{
		ID:          uuid.NewString(),
		Name:        f.Name,
		Position:    strings.TrimSpace(f.Position),
		BirthYear:   strings.TrimSpace(f.BirthYear),
		DeathYear:   strings.TrimSpace(f.DeathYear),
		Personality: strings.TrimSpace(f.Personality),
		CreatedBy:   actor,
		CreatedAt:   nowMillis(),
	}
	next := st.snap.Clone()
	next.Nodes = append(next.Nodes, node)
	if err := st.kv.SaveGraph(next.Nodes, next.Links); err != nil {
		return model.Node{}, err
	}
	st.snap = next
	return node, nil
}

func (st *State) UpdateNode(actor string, admin bool, id string, f store.NodeFields) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	f.Name = strings.TrimSpace(f.Name)
	if f.Name == "" {
		return store.ErrNameRequired
	}
	n := st.snap.FindNode(id)
	if n == nil {
		return store.ErrNotFound
	}
	if !admin && n.CreatedBy != "" && n.CreatedBy != actor {
		return store.ErrNotOwner
	}

	next := st.snap.Clone()
	target := next.FindNode(id)
	target.Name = f.Name
	target.Position = strings.TrimSpace(f.Position)
	target.BirthYear = strings.TrimSpace(f.BirthYear)
	target.DeathYear = strings.TrimSpace(f.DeathYear)
	target.Personality = strings.TrimSpace(f.Personality)
	if err := st.kv.SaveGraph(next.Nodes, next.Links); err != nil {
		return err
	}
	st.snap = next
	return nil
}

// DeleteNode removes the node and every link touching it.
func (st *State) DeleteNode(actor string, admin bool, id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	n := st.snap.FindNode(id)
	if n == nil {
		return store.ErrNotFound
	}
	if n.IsCenter {
		return store.ErrCenterNode
	}
	if !admin && n.CreatedBy != "" && n.CreatedBy != actor {
		return store.ErrNotOwner
	}

	next := st.snap.Clone()
	next.RemoveNode(id)
	if err := st.kv.SaveGraph(next.Nodes, next.Links); err != nil {
		return err
	}
	st.snap = next
	st.log.Info("node deleted", zap.String("id", id), zap.String("actor", actor))
	return nil
}

func (st *State) AddLink(actor, source, target, relType string) (model.Link, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	relType = strings.TrimSpace(relType)
	if relType == "" {
		return model.Link{}, store.ErrEmptyContent
	}
	if source == target {
		return model.Link{}, store.ErrSelfLink
	}
	if st.snap.FindNode(source) == nil || st.snap.FindNode(target) == nil {
		return model.Link{}, store.ErrUnknownNode
	}
	if st.snap.HasLinkBetween(source, target) {
		return model.Link{}, store.ErrDuplicateLink
	}

	link := model.Link{
		ID:        uuid.NewString(),
		Source:    source,
		Target:    target,
		Type:      relType,
		CreatedBy: actor,
		CreatedAt: nowMillis(),
	}
	next := st.snap.Clone()
	next.Links = append(next.Links, link)
	if err := st.kv.SaveGraph(next.Nodes, next.Links); err != nil {
		return model.Link{}, err
	}
	st.snap = next
	return link, nil
}

func (st *State) DeleteLink(actor string, admin bool, id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	idx := -1
	for i, l := range st.snap.Links {
		if l.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return store.ErrNotFound
	}
	link := st.snap.Links[idx]
	if !admin && link.CreatedBy != "" && link.CreatedBy != actor {
		return store.ErrNotOwner
	}

	next := st.snap.Clone()
	next.Links = append(next.Links[:idx], next.Links[idx+1:]...)
	if err := st.kv.SaveGraph(next.Nodes, next.Links); err != nil {
		return err
	}
	st.snap = next
	return nil
}

func (st *State) AddComment(actor, author, content string) (model.Comment, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	author = strings.TrimSpace(author)
	content = strings.TrimSpace(content)
	if content == "" {
		return model.Comment{}, store.ErrEmptyContent
	}
	if author == "" {
		author = model.AnonymousAuthor
	}

	c := model.Comment{
		ID:        uuid.NewString(),
		Author:    author,
		Content:   content,
		CreatedAt: nowMillis(),
		CreatedBy: actor,
	}
	next := st.snap.Clone()
	next.Comments = append(next.Comments, c)
	if err := st.kv.SaveComments(next.Comments); err != nil {
		return model.Comment{}, err
	}
	st.snap = next
	return c, nil
}

// AddReply nests a reply under a top-level comment. Replies to replies are
// rejected; the thread stays one level deep.
func (st *State) AddReply(actor, commentID, content string) (model.Comment, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	content = strings.TrimSpace(content)
	if content == "" {
		return model.Comment{}, store.ErrEmptyContent
	}
	parent, outer := st.snap.FindComment(commentID)
	if parent == nil || outer != nil {
		return model.Comment{}, store.ErrNotFound
	}

	reply := model.Comment{
		ID:        uuid.NewString(),
		Author:    model.AnonymousAuthor,
		Content:   content,
		CreatedAt: nowMillis(),
		CreatedBy: actor,
	}
	next := st.snap.Clone()
	target, _ := next.FindComment(commentID)
	target.Replies = append(target.Replies, reply)
	if err := st.kv.SaveComments(next.Comments); err != nil {
		return model.Comment{}, err
	}
	st.snap = next
	return reply, nil
}

func (st *State) EditComment(actor string, admin bool, id, content string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	content = strings.TrimSpace(content)
	if content == "" {
		return store.ErrEmptyContent
	}
	c, _ := st.snap.FindComment(id)
	if c == nil {
		return store.ErrNotFound
	}
	if !admin && c.CreatedBy != actor {
		return store.ErrNotOwner
	}

	next := st.snap.Clone()
	target, _ := next.FindComment(id)
	target.Content = content
	target.EditedAt = nowMillis()
	if err := st.kv.SaveComments(next.Comments); err != nil {
		return err
	}
	st.snap = next
	return nil
}

func (st *State) DeleteComment(actor string, admin bool, id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	c, _ := st.snap.FindComment(id)
	if c == nil {
		return store.ErrNotFound
	}
	if !admin && c.CreatedBy != actor {
		return store.ErrNotOwner
	}

	next := st.snap.Clone()
	next.RemoveComment(id)
	if err := st.kv.SaveComments(next.Comments); err != nil {
		return err
	}
	st.snap = next
	return nil
}

// ToggleLike flips the actor's like on a comment and returns the new state
// plus the resulting count.
func (st *State) ToggleLike(actor, commentID string) (bool, int, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	c, _ := st.snap.FindComment(commentID)
	if c == nil {
		return false, 0, store.ErrNotFound
	}
	liked, err := st.kv.LikeFlag(commentID, actor)
	if err != nil {
		return false, 0, err
	}

	next := st.snap.Clone()
	target, _ := next.FindComment(commentID)
	if liked {
		target.Likes--
		if target.Likes < 0 {
			target.Likes = 0
		}
	} else {
		target.Likes++
	}
	if err := st.kv.SaveComments(next.Comments); err != nil {
		return false, 0, err
	}
	if err := st.kv.SetLikeFlag(commentID, actor, !liked); err != nil {
		return false, 0, err
	}
	st.snap = next
	return !liked, target.Likes, nil
}
