package services

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"

	"queue-system/internal/status"
	"queue-system/models"
)

// SnapshotCodec converts the full queue state to and from the stored JSON
// document: an object keyed by activity id. Fields written by older versions
// may be missing and decode as zero.
type SnapshotCodec struct{}

func (SnapshotCodec) Encode(snap models.Snapshot) ([]byte, error) {
	out := make(models.Snapshot, len(snap))
	for id, q := range snap {
		out[id] = q.Clone()
	}
	data, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return data, nil
}

func (SnapshotCodec) Decode(data []byte) (models.Snapshot, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("%w: empty document", status.ErrInvalidSnapshot)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", status.ErrInvalidSnapshot, err)
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: not an object", status.ErrInvalidSnapshot)
	}

	for id, q := range snap {
		snap[id] = q.Clone()
	}
	return snap, nil
}
