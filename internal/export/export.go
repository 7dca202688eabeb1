// Package export writes graph backups as indented JSON.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/wudai/relgraph/internal/model"
)

// Backup is the file shape: the full snapshot plus an export timestamp.
type Backup struct {
	ExportedAt int64           `json:"exportedAt"`
	Nodes      []model.Node    `json:"nodes"`
	Links      []model.Link    `json:"links"`
	Comments   []model.Comment `json:"comments"`
}

// Write emits snap to w as a pretty-printed backup document.
func Write(w io.Writer, snap model.Snapshot) error {
	b := Backup{
		ExportedAt: time.Now().UnixMilli(),
		Nodes:      snap.Nodes,
		Links:      snap.Links,
		Comments:   snap.Comments,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("failed to write backup: %w", err)
	}
	return nil
}

// Filename names a backup file after the export date.
func Filename(now time.Time) string {
	return fmt.Sprintf("wudai-backup-%s.json", now.Format("2006-01-02"))
}

// Read parses a backup document back into a snapshot. The snapshot is
// validated so a truncated or hand-edited file can't smuggle in a broken
// graph.
func Read(r io.Reader) (model.Snapshot, error) {
	var b Backup
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to parse backup: %w", err)
	}
	snap := model.Snapshot{Nodes: b.Nodes, Links: b.Links, Comments: b.Comments}
	if err := snap.Validate(); err != nil {
		return model.Snapshot{}, fmt.Errorf("invalid backup: %w", err)
	}
	return snap, nil
}
