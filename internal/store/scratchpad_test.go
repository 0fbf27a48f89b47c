package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/rcliao/memstore/internal/config"
	"github.com/rcliao/memstore/internal/model"
)

func TestScratchpadRecentContextBound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, config.ModeEager)

	entries := make([]model.ContextEntry, 25)
	for i := range entries {
		entries[i] = model.ContextEntry{"n": i, "tool": fmt.Sprintf("tool-%d", i)}
	}
	if err := s.UpdateScratchpad(ctx, ScratchpadUpdate{RecentContext: &entries}); err != nil {
		t.Fatalf("update: %v", err)
	}

	pad := s.GetScratchpad(ctx)
	if len(pad.RecentContext) != model.MaxRecentContext {
		t.Fatalf("expected %d entries, got %d", model.MaxRecentContext, len(pad.RecentContext))
	}
	// The last 20, in original relative order.
	for i, e := range pad.RecentContext {
		if want := fmt.Sprintf("tool-%d", i+5); e["tool"] != want {
			t.Errorf("entry %d: got %v, want tool %s", i, e, want)
		}
	}
}

func TestScratchpadTaskAndGoalBounds(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, config.ModeEager)

	tasks := make([]model.TaskRef, 12)
	for i := range tasks {
		tasks[i] = model.TaskRef{Name: fmt.Sprintf("task-%d", i), Status: "active"}
	}
	goals := make([]model.TaskRef, 7)
	for i := range goals {
		goals[i] = model.TaskRef{Name: fmt.Sprintf("goal-%d", i), Status: "active"}
	}

	if err := s.UpdateScratchpad(ctx, ScratchpadUpdate{CurrentTasks: &tasks, ActiveGoals: &goals}); err != nil {
		t.Fatalf("update: %v", err)
	}

	pad := s.GetScratchpad(ctx)
	if len(pad.CurrentTasks) != model.MaxCurrentTasks {
		t.Errorf("expected %d tasks, got %d", model.MaxCurrentTasks, len(pad.CurrentTasks))
	}
	if pad.CurrentTasks[0].Name != "task-2" {
		t.Errorf("oldest tasks must be evicted first, got %s", pad.CurrentTasks[0].Name)
	}
	if len(pad.ActiveGoals) != model.MaxActiveGoals {
		t.Errorf("expected %d goals, got %d", model.MaxActiveGoals, len(pad.ActiveGoals))
	}
	if pad.ActiveGoals[0].Name != "goal-2" {
		t.Errorf("oldest goals must be evicted first, got %s", pad.ActiveGoals[0].Name)
	}
}

func TestScratchpadShallowMerge(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, config.ModeEager)

	tasks := []model.TaskRef{{Name: "write tests", Status: "active"}}
	sessionID := "sess-1"
	if err := s.UpdateScratchpad(ctx, ScratchpadUpdate{CurrentTasks: &tasks, SessionID: &sessionID}); err != nil {
		t.Fatalf("update: %v", err)
	}

	// Touching only goals must leave tasks and session id alone.
	goals := []model.TaskRef{{Name: "ship release", Status: "active"}}
	if err := s.UpdateScratchpad(ctx, ScratchpadUpdate{ActiveGoals: &goals}); err != nil {
		t.Fatalf("second update: %v", err)
	}

	pad := s.GetScratchpad(ctx)
	if len(pad.CurrentTasks) != 1 || pad.CurrentTasks[0].Name != "write tests" {
		t.Errorf("tasks lost on unrelated update: %+v", pad.CurrentTasks)
	}
	if pad.SessionID != "sess-1" {
		t.Errorf("session id lost: %q", pad.SessionID)
	}
	if len(pad.ActiveGoals) != 1 {
		t.Errorf("goals not merged: %+v", pad.ActiveGoals)
	}
	if pad.LastUpdated == "" {
		t.Error("lastUpdated not stamped")
	}
}

func TestScratchpadSurvivesReload(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Dir = t.TempDir()
	cfg.Mode = config.ModeEager

	s1, err := New(cfg)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	sessionID := "persisted"
	if err := s1.UpdateScratchpad(ctx, ScratchpadUpdate{SessionID: &sessionID}); err != nil {
		t.Fatalf("update: %v", err)
	}

	// A second store over the same directory reads the document, not the
	// first store's cache.
	s2, err := New(cfg)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	if pad := s2.GetScratchpad(ctx); pad.SessionID != "persisted" {
		t.Errorf("scratchpad not persisted: %+v", pad)
	}
}
