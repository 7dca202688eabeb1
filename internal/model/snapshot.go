package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Snapshot is the full graph state. It is replaced wholesale on every reload
// from the sync backend and written wholesale to durable storage by the local
// store; there is no partial persistence.
type Snapshot struct {
	Nodes    []Node    `json:"nodes"`
	Links    []Link    `json:"links"`
	Comments []Comment `json:"comments"`
}

// Clone returns a deep copy. Callers receiving a snapshot (the layout bridge
// in particular) may mutate the copy freely without touching store state.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Nodes:    make([]Node, len(s.Nodes)),
		Links:    make([]Link, len(s.Links)),
		Comments: make([]Comment, len(s.Comments)),
	}
	copy(out.Nodes, s.Nodes)
	copy(out.Links, s.Links)
	for i, c := range s.Comments {
		cc := c
		cc.Replies = make([]Comment, len(c.Replies))
		copy(cc.Replies, c.Replies)
		out.Comments[i] = cc
	}
	return out
}

// Validate checks structural integrity of a decoded snapshot. Load paths call
// it before trusting persisted or fetched data; on failure the caller falls
// back to a seeded graph instead of propagating the bad state.
func (s Snapshot) Validate() error {
	seen := make(map[string]bool, len(s.Nodes))
	centers := 0
	for i, n := range s.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node %d: missing id", i)
		}
		if n.Name == "" {
			return fmt.Errorf("node %q: missing name", n.ID)
		}
		if seen[n.ID] {
			return fmt.Errorf("node %q: duplicate id", n.ID)
		}
		seen[n.ID] = true
		if n.IsCenter {
			centers++
		}
	}
	if centers > 1 {
		return errors.New("more than one center node")
	}
	for i, l := range s.Links {
		if l.Source == "" || l.Target == "" {
			return fmt.Errorf("link %d: missing endpoint", i)
		}
	}
	return nil
}

// Normalize back-fills fields older data may lack: comment ids, timestamps,
// like counters, and owner ids. Comments without an owner are attributed to
// the current client, so a user is never locked out of records their own
// browser created before ownership tracking existed.
func (s *Snapshot) Normalize(currentClient string) {
	now := time.Now().UnixMilli()
	fix := func(c *Comment) {
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.CreatedAt == 0 {
			c.CreatedAt = now
		}
		if c.Likes < 0 {
			c.Likes = 0
		}
		if c.CreatedBy == "" {
			c.CreatedBy = currentClient
		}
	}
	for i := range s.Comments {
		fix(&s.Comments[i])
		for j := range s.Comments[i].Replies {
			fix(&s.Comments[i].Replies[j])
		}
	}
}

// FindNode returns a pointer into the snapshot's node slice, or nil.
func (s *Snapshot) FindNode(id string) *Node {
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			return &s.Nodes[i]
		}
	}
	return nil
}

// HasLinkBetween reports whether any link already connects the unordered
// pair (a, b).
func (s *Snapshot) HasLinkBetween(a, b string) bool {
	for _, l := range s.Links {
		if l.SamePair(a, b) {
			return true
		}
	}
	return false
}

// RemoveNode deletes the node and cascades to every link touching it.
// It reports whether the node existed.
func (s *Snapshot) RemoveNode(id string) bool {
	idx := -1
	for i := range s.Nodes {
		if s.Nodes[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	s.Nodes = append(s.Nodes[:idx], s.Nodes[idx+1:]...)
	kept := s.Links[:0]
	for _, l := range s.Links {
		if !l.Touches(id) {
			kept = append(kept, l)
		}
	}
	s.Links = kept
	return true
}

// FindComment locates a comment or reply by id. parent is nil for top-level
// comments.
func (s *Snapshot) FindComment(id string) (c *Comment, parent *Comment) {
	for i := range s.Comments {
		if s.Comments[i].ID == id {
			return &s.Comments[i], nil
		}
		for j := range s.Comments[i].Replies {
			if s.Comments[i].Replies[j].ID == id {
				return &s.Comments[i].Replies[j], &s.Comments[i]
			}
		}
	}
	return nil, nil
}

// RemoveComment deletes a comment or reply by id and reports whether it was
// found.
func (s *Snapshot) RemoveComment(id string) bool {
	for i := range s.Comments {
		if s.Comments[i].ID == id {
			s.Comments = append(s.Comments[:i], s.Comments[i+1:]...)
			return true
		}
		replies := s.Comments[i].Replies
		for j := range replies {
			if replies[j].ID == id {
				s.Comments[i].Replies = append(replies[:j], replies[j+1:]...)
				return true
			}
		}
	}
	return false
}
