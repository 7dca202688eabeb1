package model

// Node is a person in the relationship graph. Free-text fields other than
// Name are optional; empty string means absent.
type Node struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Position    string `json:"position,omitempty"`
	BirthYear   string `json:"birthYear,omitempty"`
	DeathYear   string `json:"deathYear,omitempty"`
	Personality string `json:"personality,omitempty"`
	IsCenter    bool   `json:"isCenter,omitempty"`
	CreatedBy   string `json:"createdBy,omitempty"`
	CreatedAt   int64  `json:"createdAt,omitempty"` // milliseconds since epoch
}

// Link is a typed relation between two nodes. ID is assigned by the sync
// backend; the local store identifies links by the unordered (Source, Target)
// pair and leaves ID empty.
type Link struct {
	ID        string `json:"id,omitempty"`
	Source    string `json:"source"`
	Target    string `json:"target"`
	Type      string `json:"type"`
	CreatedBy string `json:"createdBy,omitempty"`
	CreatedAt int64  `json:"createdAt,omitempty"`
}

// SamePair reports whether the link connects a and b in either direction.
func (l Link) SamePair(a, b string) bool {
	return (l.Source == a && l.Target == b) || (l.Source == b && l.Target == a)
}

// Touches reports whether the link has nodeID at either end.
func (l Link) Touches(nodeID string) bool {
	return l.Source == nodeID || l.Target == nodeID
}

// SeedCenterNode returns the single node the graph is organized around. It is
// never deletable and is recreated whenever a store loads an empty graph.
func SeedCenterNode() Node {
	return Node{
		ID:          "li_cunxu",
		Name:        "李存勖",
		Position:    "后唐庄宗",
		BirthYear:   "885",
		DeathYear:   "926",
		Personality: "勇武善战，能继父志，然而沉湎戏曲，宠信伶官，终致祸败",
		IsCenter:    true,
	}
}
