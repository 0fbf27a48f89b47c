package store

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rcliao/memstore/internal/model"
)

// loadIndex returns the search index from cache or disk. Missing or corrupt
// files yield an empty versioned index, which is cached like any other read.
func (s *Store) loadIndex(ctx context.Context) *model.Index {
	if v, ok := s.cache.Get(keyIndex); ok {
		return v.(*model.Index)
	}
	idx := readIndexFile(s.indexFile)
	s.cache.Set(keyIndex, idx)
	return idx
}

func readIndexFile(path string) *model.Index {
	idx := model.NewIndex()
	if readDoc(path, idx) {
		if idx.Entities == nil {
			idx.Entities = map[string]model.IndexEntry{}
		}
		if idx.ByType == nil {
			idx.ByType = map[string][]string{}
		}
	}
	return idx
}

// searchText builds the lowercased searchable text for an entity: name,
// observations, and tag metadata.
func searchText(e model.Entity) string {
	parts := []string{e.Name}
	parts = append(parts, e.Observations...)
	parts = append(parts, e.Metadata.Tags...)
	return strings.ToLower(strings.Join(parts, " "))
}

// indexEntity writes the entity's derived entry into the index document. The
// lock covers the whole load-modify-save so a concurrent process cannot lose
// the update.
func (s *Store) indexEntity(ctx context.Context, e model.Entity) error {
	var updated *model.Index
	err := s.withLock(ctx, s.indexFile, func() error {
		idx := readIndexFile(s.indexFile)

		importance := e.Metadata.Importance
		if importance == "" {
			importance = "normal"
		}
		idx.Entities[e.ID] = model.IndexEntry{
			Name:       e.Name,
			Type:       e.EntityType,
			SearchText: searchText(e),
			Importance: importance,
			Timestamp:  model.UTCNow(),
		}

		ids := idx.ByType[e.EntityType]
		found := false
		for _, id := range ids {
			if id == e.ID {
				found = true
				break
			}
		}
		if !found {
			idx.ByType[e.EntityType] = append(ids, e.ID)
		}

		idx.LastUpdated = model.UTCNow()
		updated = idx
		return writeDoc(s.indexFile, idx)
	})
	if err != nil {
		return err
	}
	s.cache.Set(keyIndex, updated)
	return nil
}

// indexObservation folds a new observation into the matching entry's search
// text. Best-effort: an entity not yet indexed is skipped, replay through
// Reconcile will pick it up.
func (s *Store) indexObservation(ctx context.Context, data model.ObservationData) error {
	var updated *model.Index
	err := s.withLock(ctx, s.indexFile, func() error {
		idx := readIndexFile(s.indexFile)

		id, entry, ok := findByName(idx, data.EntityName)
		if !ok {
			return nil
		}
		entry.SearchText += " " + strings.ToLower(data.Observation)
		entry.Timestamp = model.UTCNow()
		idx.Entities[id] = entry

		idx.LastUpdated = model.UTCNow()
		updated = idx
		return writeDoc(s.indexFile, idx)
	})
	if err != nil {
		return err
	}
	if updated != nil {
		s.cache.Set(keyIndex, updated)
	}
	return nil
}

func findByName(idx *model.Index, name string) (string, model.IndexEntry, bool) {
	for id, entry := range idx.Entities {
		if entry.Name == name {
			return id, entry, true
		}
	}
	return "", model.IndexEntry{}, false
}

// orderedIDs returns entity ids in insertion order (index timestamp, then
// id) so scoring ties resolve the same way on every run.
func orderedIDs(idx *model.Index) []string {
	ids := make([]string, 0, len(idx.Entities))
	for id := range idx.Entities {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ti, tj := idx.Entities[ids[i]].Timestamp, idx.Entities[ids[j]].Timestamp
		if ti != tj {
			return ti < tj
		}
		return ids[i] < ids[j]
	})
	return ids
}

// Search ranks index entries against a case-insensitive substring query.
// Score is occurrence count times the importance weight; ties keep insertion
// order. Results are cached under the query+type+limit key and age out by
// TTL only.
func (s *Store) Search(ctx context.Context, p SearchParams) ([]model.SearchResult, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = 10
	}

	cacheKey := fmt.Sprintf("search:%s:%s:%d", p.Query, p.Type, limit)
	if s.cfg.SearchCache {
		if v, ok := s.cache.Get(cacheKey); ok {
			return v.([]model.SearchResult), nil
		}
	}

	idx := s.loadIndex(ctx)
	if len(idx.Entities) == 0 {
		return nil, nil
	}

	query := strings.ToLower(p.Query)
	var results []model.SearchResult
	for _, id := range orderedIDs(idx) {
		entry := idx.Entities[id]
		if p.Type != "" && entry.Type != p.Type {
			continue
		}
		count := strings.Count(entry.SearchText, query)
		if count == 0 {
			continue
		}
		results = append(results, model.SearchResult{
			ID:    id,
			Name:  entry.Name,
			Type:  entry.Type,
			Score: float64(count) * model.ImportanceWeight(entry.Importance),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}

	if s.cfg.SearchCache {
		s.cache.Set(cacheKey, results)
	}
	return results, nil
}

// EntitiesByType returns the ids of all indexed entities of a type.
func (s *Store) EntitiesByType(ctx context.Context, entityType string) []string {
	return s.loadIndex(ctx).ByType[entityType]
}
