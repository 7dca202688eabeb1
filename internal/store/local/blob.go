package local

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/wudai/relgraph/internal/model"
)

// SaveGraph writes the nodes+links blob wholesale under the graph key.
func (k *KV) SaveGraph(nodes []model.Node, links []model.Link) error {
	data, err := json.Marshal(graphBlob{Nodes: nodes, Links: links})
	if err != nil {
		return fmt.Errorf("failed to encode graph: %w", err)
	}
	return k.Set(keyGraphData, string(data))
}

// SaveComments writes the comment blob wholesale under the comments key.
func (k *KV) SaveComments(comments []model.Comment) error {
	if comments == nil {
		comments = []model.Comment{}
	}
	data, err := json.Marshal(comments)
	if err != nil {
		return fmt.Errorf("failed to encode comments: %w", err)
	}
	return k.Set(keyComments, string(data))
}

// LoadOrSeed reads and validates the persisted snapshot. Malformed or invalid
// blobs are logged and discarded rather than propagated, and an empty graph
// comes back seeded with the center node so the invariant of exactly one
// center holds from the first load.
func LoadOrSeed(kv *KV, log *zap.Logger) (model.Snapshot, error) {
	if log == nil {
		log = zap.NewNop()
	}
	snap := model.Snapshot{}

	if raw, ok, err := kv.Get(keyGraphData); err != nil {
		return model.Snapshot{}, err
	} else if ok {
		var blob graphBlob
		if err := json.Unmarshal([]byte(raw), &blob); err != nil {
			log.Warn("discarding malformed graph blob", zap.Error(err))
		} else {
			snap.Nodes = blob.Nodes
			snap.Links = blob.Links
		}
	}

	if raw, ok, err := kv.Get(keyComments); err != nil {
		return model.Snapshot{}, err
	} else if ok {
		var comments []model.Comment
		if err := json.Unmarshal([]byte(raw), &comments); err != nil {
			log.Warn("discarding malformed comments blob", zap.Error(err))
		} else {
			snap.Comments = comments
		}
	}

	if err := snap.Validate(); err != nil {
		log.Warn("discarding invalid persisted graph", zap.Error(err))
		snap = model.Snapshot{}
	}

	if len(snap.Nodes) == 0 {
		snap.Nodes = []model.Node{model.SeedCenterNode()}
		snap.Links = nil
	}
	return snap, nil
}

// LikeFlag reports whether userID currently likes the comment.
func (k *KV) LikeFlag(commentID, userID string) (bool, error) {
	_, ok, err := k.Get(keyLikedP + commentID + "_" + userID)
	return ok, err
}

// SetLikeFlag records or clears the per-(comment, user) like marker.
func (k *KV) SetLikeFlag(commentID, userID string, liked bool) error {
	key := keyLikedP + commentID + "_" + userID
	if liked {
		return k.Set(key, "true")
	}
	return k.Delete(key)
}
