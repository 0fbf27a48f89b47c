package store

import (
	"context"

	"github.com/rcliao/memstore/internal/config"
)

// Stats holds diagnostic counters for the memory system. Raw-event counting
// scans the whole journal; keep this off the hot path.
type Stats struct {
	TotalEntities  int            `json:"totalEntities"`
	EntitiesByType map[string]int `json:"entitiesByType"`
	TotalRelations int            `json:"totalRelations"`
	RawEventsCount int            `json:"rawEventsCount"`
	LastUpdated    string         `json:"lastUpdated"`
	Mode           config.Mode    `json:"mode"`
}

// Stats returns current store statistics.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	idx := s.loadIndex(ctx)
	g := s.loadGraph(ctx)

	byType := make(map[string]int, len(idx.ByType))
	for t, ids := range idx.ByType {
		byType[t] = len(ids)
	}

	return &Stats{
		TotalEntities:  len(idx.Entities),
		EntitiesByType: byType,
		TotalRelations: len(g.Edges),
		RawEventsCount: countLines(s.rawEventsFile),
		LastUpdated:    idx.LastUpdated,
		Mode:           s.cfg.Mode,
	}, nil
}
