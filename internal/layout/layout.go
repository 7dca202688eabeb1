// Package layout places nodes on a 2D canvas. Positions are presentation
// state and live in a side table keyed by node id, never on the graph itself,
// so a re-layout or a viewport change can't dirty persisted data.
package layout

import (
	"math"
	"sync"

	"github.com/wudai/relgraph/internal/model"
)

// Point is a canvas coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Engine computes a position for every node in the snapshot.
type Engine interface {
	Place(snap model.Snapshot, width, height float64) map[string]Point
}

// Bridge holds the current positions and reconciles them against snapshots as
// the graph changes. Known nodes keep their coordinates; new nodes are placed
// by the engine; positions of removed nodes are dropped.
type Bridge struct {
	engine Engine

	mu        sync.Mutex
	positions map[string]Point
}

func NewBridge(engine Engine) *Bridge {
	if engine == nil {
		engine = NewRing(240)
	}
	return &Bridge{engine: engine, positions: make(map[string]Point)}
}

// Apply reconciles the side table with snap and returns the resulting
// positions.
func (b *Bridge) Apply(snap model.Snapshot, width, height float64) map[string]Point {
	b.mu.Lock()
	defer b.mu.Unlock()

	placed := b.engine.Place(snap, width, height)
	next := make(map[string]Point, len(snap.Nodes))
	for _, n := range snap.Nodes {
		if p, ok := b.positions[n.ID]; ok {
			next[n.ID] = p
		} else {
			next[n.ID] = placed[n.ID]
		}
	}
	b.positions = next
	return b.copyPositions()
}

// Positions returns the current side table.
func (b *Bridge) Positions() map[string]Point {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.copyPositions()
}

// SetPosition pins a node to a coordinate, as after a user drag.
func (b *Bridge) SetPosition(nodeID string, p Point) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.positions[nodeID] = p
}

func (b *Bridge) copyPositions() map[string]Point {
	out := make(map[string]Point, len(b.positions))
	for id, p := range b.positions {
		out[id] = p
	}
	return out
}

// Ring places the center node in the middle and everyone else evenly on a
// circle around it, in snapshot order. Deterministic for a given snapshot.
type Ring struct {
	radius float64
}

func NewRing(radius float64) *Ring {
	if radius <= 0 {
		radius = 240
	}
	return &Ring{radius: radius}
}

func (r *Ring) Place(snap model.Snapshot, width, height float64) map[string]Point {
	cx, cy := width/2, height/2
	out := make(map[string]Point, len(snap.Nodes))

	var others []string
	for _, n := range snap.Nodes {
		if n.IsCenter {
			out[n.ID] = Point{X: cx, Y: cy}
		} else {
			others = append(others, n.ID)
		}
	}
	for i, id := range others {
		angle := 2 * math.Pi * float64(i) / float64(len(others))
		out[id] = Point{
			X: cx + r.radius*math.Cos(angle),
			Y: cy + r.radius*math.Sin(angle),
		}
	}
	return out
}
