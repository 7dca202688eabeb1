package model

import "sort"

// AnonymousAuthor is the display name used when no author is given. Replies
// always use it regardless of the submitted name.
const AnonymousAuthor = "匿名"

// Comment is a discussion entry. Replies nest exactly one level deep: a reply
// never carries replies of its own.
type Comment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt int64     `json:"createdAt"`
	EditedAt  int64     `json:"editedAt,omitempty"`
	Likes     int       `json:"likes"`
	CreatedBy string    `json:"createdBy,omitempty"`
	Replies   []Comment `json:"replies,omitempty"`
}

// CommentSort selects a comment ordering for display.
type CommentSort string

const (
	SortHot  CommentSort = "hot"  // most liked first
	SortTime CommentSort = "time" // newest first
)

// SortedComments returns a copy of the top-level comments in the given order.
// Reply order inside each comment is always chronological (insertion order).
func (s Snapshot) SortedComments(mode CommentSort) []Comment {
	out := make([]Comment, len(s.Comments))
	copy(out, s.Comments)
	switch mode {
	case SortHot:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Likes > out[j].Likes })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	}
	return out
}

// CommentCount is the total number of comments including replies.
func (s Snapshot) CommentCount() int {
	n := 0
	for _, c := range s.Comments {
		n += 1 + len(c.Replies)
	}
	return n
}
