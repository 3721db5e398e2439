package cache

import (
	"bytes"
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/cypherlabdev/match-predictor/internal/models"
)

// entryID returns the raw JSON of an entry's id field, so numeric and string
// ids never collide. ok is false when the entry has no usable id.
func entryID(entry json.RawMessage) (string, bool) {
	var probe struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(entry, &probe); err != nil {
		return "", false
	}
	id := bytes.TrimSpace(probe.ID)
	if len(id) == 0 || bytes.Equal(id, []byte("null")) {
		return "", false
	}
	return string(id), true
}

// Merge combines a cached payload with a fresh one by id. Fresh entries replace
// cached entries with the same id in place; ids only in the fresh payload are
// appended in arrival order. Entries without an id are dropped.
func Merge(old, fresh models.Payload, logger zerolog.Logger) models.Payload {
	merged := make(models.Payload, 0, len(old)+len(fresh))
	index := make(map[string]int, len(old)+len(fresh))
	dropped := 0

	add := func(entry json.RawMessage) {
		id, ok := entryID(entry)
		if !ok {
			dropped++
			return
		}
		if i, seen := index[id]; seen {
			merged[i] = entry
			return
		}
		index[id] = len(merged)
		merged = append(merged, entry)
	}

	for _, entry := range old {
		add(entry)
	}
	for _, entry := range fresh {
		add(entry)
	}

	if dropped > 0 {
		logger.Warn().
			Int("dropped", dropped).
			Msg("dropped cache entries without id")
	}

	return merged
}
