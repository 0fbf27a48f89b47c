package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rcliao/memstore/internal/model"
)

// Reconcile replays the memory journal and rewrites the index and graph from
// scratch. This is the consistency pass for lightweight mode, and the
// recovery path for a lost or corrupt derived file: both are caches of the
// journal, never sources of truth.
func (s *Store) Reconcile(ctx context.Context) error {
	idx := model.NewIndex()
	g := model.NewGraph()
	unknown := 0

	err := s.withLock(ctx, s.memoryFile, func() error {
		f, err := os.Open(s.memoryFile)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer f.Close()

		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 64*1024), maxLineBytes)
		for sc.Scan() {
			var rec model.Record
			if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
				continue
			}
			if err := replay(idx, g, rec); err != nil {
				unknown++
			}
		}
		return sc.Err()
	})
	if err != nil {
		return fmt.Errorf("reconcile: %w", err)
	}
	if unknown > 0 {
		s.log.Warn("journal records skipped during reconcile", "count", unknown)
	}

	if err := s.withLock(ctx, s.indexFile, func() error {
		idx.LastUpdated = model.UTCNow()
		return writeDoc(s.indexFile, idx)
	}); err != nil {
		return fmt.Errorf("reconcile index: %w", err)
	}
	if err := s.withLock(ctx, s.graphFile, func() error {
		g.LastUpdated = model.UTCNow()
		return writeDoc(s.graphFile, g)
	}); err != nil {
		return fmt.Errorf("reconcile graph: %w", err)
	}

	s.cache.Set(keyIndex, idx)
	s.cache.Set(keyGraph, g)
	return nil
}

// replay applies one journal record to the in-memory rebuild. The switch is
// exhaustive over the closed set of record kinds.
func replay(idx *model.Index, g *model.Graph, rec model.Record) error {
	switch rec.Type {
	case model.RecordCreateEntity:
		var e model.Entity
		if err := json.Unmarshal(rec.Data, &e); err != nil {
			return err
		}
		importance := e.Metadata.Importance
		if importance == "" {
			importance = "normal"
		}
		idx.Entities[e.ID] = model.IndexEntry{
			Name:       e.Name,
			Type:       e.EntityType,
			SearchText: searchText(e),
			Importance: importance,
			Timestamp:  rec.Timestamp,
		}
		present := false
		for _, id := range idx.ByType[e.EntityType] {
			if id == e.ID {
				present = true
				break
			}
		}
		if !present {
			idx.ByType[e.EntityType] = append(idx.ByType[e.EntityType], e.ID)
		}
		return nil

	case model.RecordAddObservation:
		var data model.ObservationData
		if err := json.Unmarshal(rec.Data, &data); err != nil {
			return err
		}
		// Best-effort: the observation may target an entity that was never
		// indexed.
		if id, entry, ok := findByName(idx, data.EntityName); ok {
			entry.SearchText += " " + strings.ToLower(data.Observation)
			entry.Timestamp = rec.Timestamp
			idx.Entities[id] = entry
		}
		return nil

	case model.RecordCreateRelation:
		var data model.RelationData
		if err := json.Unmarshal(rec.Data, &data); err != nil {
			return err
		}
		addRelation(g, data)
		return nil

	default:
		return fmt.Errorf("unknown record kind %q", rec.Type)
	}
}
