// Package store defines the graph store contract shared by the two backends:
// the locally persisted variant and the remote-synchronized variant.
package store

import (
	"context"
	"errors"

	"github.com/wudai/relgraph/internal/model"
)

// NodeFields are the user-editable person fields. Name is required; the rest
// are optional free text.
type NodeFields struct {
	Name        string `json:"name"`
	Position    string `json:"position"`
	BirthYear   string `json:"birthYear"`
	DeathYear   string `json:"deathYear"`
	Personality string `json:"personality"`
}

// LinkRef identifies a link for deletion. The remote backend assigns ids; the
// local backend identifies links by the unordered (Source, Target) pair.
// Exactly one form should be populated.
type LinkRef struct {
	ID     string
	Source string
	Target string
}

// Authorizer answers whether the current session holds admin privileges.
// Admins bypass ownership checks and rate limits.
type Authorizer interface {
	IsAdmin() bool
}

// Store is the one contract both variants implement. Mutations validate and
// gate before committing; on any error the committed snapshot is unchanged.
type Store interface {
	// Snapshot returns a deep copy of the current committed state.
	Snapshot() model.Snapshot
	// Refresh reloads the full state from the backing source of truth.
	Refresh(ctx context.Context) error

	AddNode(ctx context.Context, f NodeFields) (model.Node, error)
	UpdateNode(ctx context.Context, id string, f NodeFields) error
	DeleteNode(ctx context.Context, id string) error

	AddLink(ctx context.Context, source, target, relType string) (model.Link, error)
	DeleteLink(ctx context.Context, ref LinkRef) error

	AddComment(ctx context.Context, author, content string) (model.Comment, error)
	AddReply(ctx context.Context, commentID, content string) (model.Comment, error)
	EditComment(ctx context.Context, id, content string) error
	DeleteComment(ctx context.Context, id string) error
	// ToggleLike flips this client's like on the comment. Two consecutive
	// calls restore the original count and liked state.
	ToggleLike(ctx context.Context, commentID string) (liked bool, likes int, err error)

	Close() error
}

// Validation and authorization failures, rejected before any commit.
var (
	ErrNameRequired  = errors.New("name is required")
	ErrEmptyContent  = errors.New("content is required")
	ErrBannedContent = errors.New("text contains a banned term")
	ErrSelfLink      = errors.New("a relation needs two different people")
	ErrDuplicateLink = errors.New("these two people are already connected")
	ErrUnknownNode   = errors.New("unknown node")
	ErrCenterNode    = errors.New("the center node cannot be deleted")
	ErrNotOwner      = errors.New("only the creator (or an admin) may do this")
	ErrNotFound      = errors.New("not found")
)
