package store

import (
	"context"

	"github.com/rcliao/memstore/internal/model"
)

// loadGraph returns the relation graph from cache or disk, defaulting to an
// empty versioned graph on missing or corrupt files.
func (s *Store) loadGraph(ctx context.Context) *model.Graph {
	if v, ok := s.cache.Get(keyGraph); ok {
		return v.(*model.Graph)
	}
	g := readGraphFile(s.graphFile)
	s.cache.Set(keyGraph, g)
	return g
}

// Graph returns the current relation graph.
func (s *Store) Graph(ctx context.Context) *model.Graph {
	return s.loadGraph(ctx)
}

func readGraphFile(path string) *model.Graph {
	g := model.NewGraph()
	if readDoc(path, g) {
		if g.Nodes == nil {
			g.Nodes = map[string]*model.GraphNode{}
		}
		if g.Edges == nil {
			g.Edges = []model.Edge{}
		}
	}
	return g
}

// graphRelation appends the relation to the source node's adjacency list and
// the flat edge list, under the graph file's lock.
func (s *Store) graphRelation(ctx context.Context, data model.RelationData) error {
	var updated *model.Graph
	err := s.withLock(ctx, s.graphFile, func() error {
		g := readGraphFile(s.graphFile)
		addRelation(g, data)
		g.LastUpdated = model.UTCNow()
		updated = g
		return writeDoc(s.graphFile, g)
	})
	if err != nil {
		return err
	}
	s.cache.Set(keyGraph, updated)
	return nil
}

func addRelation(g *model.Graph, data model.RelationData) {
	node, ok := g.Nodes[data.From]
	if !ok {
		node = &model.GraphNode{}
		g.Nodes[data.From] = node
	}
	node.Relations = append(node.Relations, model.GraphRelation{
		To:        data.To,
		Type:      data.RelationType,
		Timestamp: model.UTCNow(),
	})
	g.Edges = append(g.Edges, model.Edge{
		From: data.From,
		To:   data.To,
		Type: data.RelationType,
	})
}
