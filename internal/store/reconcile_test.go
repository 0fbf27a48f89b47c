package store

import (
	"context"
	"os"
	"testing"

	"github.com/rcliao/memstore/internal/config"
)

func TestReconcileBuildsIndexAndGraph(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, config.ModeLightweight)

	if _, err := s.CreateEntity(ctx, CreateEntityParams{
		Name:         "auth service",
		EntityType:   "component",
		Observations: []string{"handles login"},
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.CreateEntity(ctx, CreateEntityParams{
		Name:       "user db",
		EntityType: "component",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.AddObservation(ctx, "auth service", "issues JWT tokens"); err != nil {
		t.Fatalf("observe: %v", err)
	}
	if _, err := s.CreateRelation(ctx, "auth service", "user db", "reads_from"); err != nil {
		t.Fatalf("relate: %v", err)
	}

	if err := s.Reconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	results, err := s.Search(ctx, SearchParams{Query: "jwt"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 || results[0].Name != "auth service" {
		t.Fatalf("observation not replayed into index: %v", results)
	}

	g := s.Graph(ctx)
	if len(g.Edges) != 1 || g.Edges[0].Type != "reads_from" {
		t.Fatalf("relation not replayed into graph: %+v", g.Edges)
	}
}

func TestReconcileRecoversDeletedDerivedFiles(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Dir = t.TempDir()
	cfg.Mode = config.ModeEager

	s1, err := New(cfg)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	if _, err := s1.CreateEntity(ctx, CreateEntityParams{Name: "flaky test", EntityType: "issue"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s1.CreateRelation(ctx, "flaky test", "ci pipeline", "blocks"); err != nil {
		t.Fatalf("relate: %v", err)
	}

	if err := os.Remove(s1.indexFile); err != nil {
		t.Fatalf("remove index: %v", err)
	}
	if err := os.Remove(s1.graphFile); err != nil {
		t.Fatalf("remove graph: %v", err)
	}

	// A fresh store has no warm cache to mask the loss.
	s2, err := New(cfg)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	if err := s2.Reconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	results, err := s2.Search(ctx, SearchParams{Query: "flaky"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("index not recovered: %v", results)
	}
	if g := s2.Graph(ctx); len(g.Edges) != 1 {
		t.Fatalf("graph not recovered: %+v", g.Edges)
	}
}

func TestReconcileSkipsCorruptJournalLines(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, config.ModeLightweight)

	if _, err := s.CreateEntity(ctx, CreateEntityParams{Name: "one", EntityType: "note"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	f, err := os.OpenFile(s.memoryFile, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	if _, err := f.WriteString("{not json at all\n"); err != nil {
		t.Fatalf("write garbage: %v", err)
	}
	f.Close()

	if _, err := s.CreateEntity(ctx, CreateEntityParams{Name: "two", EntityType: "note"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := s.Reconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if names := s.EntitiesByType(ctx, "note"); len(names) != 2 {
		t.Fatalf("expected both valid records replayed, got %v", names)
	}
}

func TestReconcileEmptyJournal(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, config.ModeLightweight)

	if err := s.Reconcile(ctx); err != nil {
		t.Fatalf("reconcile on empty store: %v", err)
	}
	results, err := s.Search(ctx, SearchParams{Query: "anything"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %v", results)
	}
}
