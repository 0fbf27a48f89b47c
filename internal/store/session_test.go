package store

import (
	"context"
	"errors"
	"testing"

	"github.com/rcliao/memstore/internal/config"
	"github.com/rcliao/memstore/internal/model"
)

func TestAnalyzeEvents(t *testing.T) {
	events := []model.RawEvent{
		{"event_type": "tool_use", "tool_name": "Write", "tool_input": map[string]any{"file_path": "/tmp/a.go"}, "timestamp": "2026-09-01T10:00:00Z"},
		{"event_type": "tool_use", "tool_name": "Write", "tool_input": map[string]any{"file_path": "/tmp/a.go"}, "timestamp": "2026-09-01T10:01:00Z"},
		{"event_type": "tool_use", "tool_name": "Edit", "tool_input": map[string]any{"file_path": "/tmp/b.go"}, "timestamp": "2026-09-01T10:02:00Z"},
		{"event_type": "tool_use", "tool_name": "Read", "tool_input": map[string]any{"file_path": "/tmp/c.go"}},
		{"event_type": "tool_use", "tool_name": "WebFetch", "tool_input": map[string]any{"url": "https://example.com"}},
		{"event_type": "tool_use", "tool_name": "Bash", "tool_input": map[string]any{"command": "ls"}},
		{"event_type": "tool_use", "tool_name": "Bash", "had_sensitive_data": true},
		{"event_type": "user_prompt", "prompt": "do the thing", "timestamp": "2026-09-01T10:05:30Z"},
		{"event_type": "user_prompt", "had_sensitive_data": true},
	}

	sum := AnalyzeEvents(events)

	if sum.TotalEvents != 9 {
		t.Errorf("TotalEvents = %d, want 9", sum.TotalEvents)
	}
	if sum.PromptCount != 2 {
		t.Errorf("PromptCount = %d, want 2", sum.PromptCount)
	}
	if sum.CommandsRun != 2 {
		t.Errorf("CommandsRun = %d, want 2", sum.CommandsRun)
	}
	if sum.SensitiveBlocked != 2 {
		t.Errorf("SensitiveBlocked = %d, want 2", sum.SensitiveBlocked)
	}
	// /tmp/a.go counted once despite two writes.
	if sum.FilesModified != 2 {
		t.Errorf("FilesModified = %d, want 2", sum.FilesModified)
	}
	if sum.FilesRead != 1 {
		t.Errorf("FilesRead = %d, want 1", sum.FilesRead)
	}
	if sum.URLsFetched != 1 {
		t.Errorf("URLsFetched = %d, want 1", sum.URLsFetched)
	}
	if sum.ToolUsageCounts["Write"] != 2 || sum.ToolUsageCounts["Bash"] != 2 {
		t.Errorf("tool usage counts wrong: %v", sum.ToolUsageCounts)
	}
	if len(sum.ToolsUsed) == 0 || (sum.ToolsUsed[0] != "Bash" && sum.ToolsUsed[0] != "Write") {
		t.Errorf("most-used tool should rank first: %v", sum.ToolsUsed)
	}
	// 10:00:00 through 10:05:30.
	if sum.Duration != "5m 30s" {
		t.Errorf("Duration = %q, want %q", sum.Duration, "5m 30s")
	}
}

func TestAnalyzeEventsNoTimestamps(t *testing.T) {
	sum := AnalyzeEvents([]model.RawEvent{
		{"event_type": "tool_use", "tool_name": "Bash"},
	})
	if sum.Duration != "unknown" {
		t.Errorf("Duration = %q, want unknown", sum.Duration)
	}
}

func TestSessionSummaryRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, config.ModeEager)

	in := &model.SessionSummary{TotalEvents: 7, PromptCount: 3, Duration: "2m 10s"}
	if err := s.SaveSessionSummary(ctx, "abc-123", in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, err := s.GetSessionSummary(ctx, "abc-123")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out.TotalEvents != 7 || out.PromptCount != 3 || out.Duration != "2m 10s" {
		t.Errorf("summary mangled: %+v", out)
	}
	if out.SessionID != "abc-123" {
		t.Errorf("SessionID = %q, want abc-123", out.SessionID)
	}
	if out.SavedAt == "" {
		t.Error("SavedAt not stamped")
	}
}

func TestGetSessionSummaryNotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, config.ModeEager)

	if _, err := s.GetSessionSummary(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSessionIDRejectsPathSeparators(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, config.ModeEager)

	for _, id := range []string{"", "../escape", "a/b", `a\b`} {
		if err := s.SaveSessionSummary(ctx, id, &model.SessionSummary{}); err == nil {
			t.Errorf("session id %q accepted", id)
		}
		if _, err := s.GetSessionSummary(ctx, id); err == nil || errors.Is(err, ErrNotFound) {
			t.Errorf("session id %q should fail validation, got %v", id, err)
		}
	}
}

func TestEndSession(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, config.ModeEager)

	sessionID := "sess-end"
	tasks := []model.TaskRef{{Name: "refactor parser", Status: "active"}}
	if _, err := s.CreateEntity(ctx, CreateEntityParams{Name: "refactor parser", EntityType: "task"}); err != nil {
		t.Fatalf("create task entity: %v", err)
	}
	if err := s.UpdateScratchpad(ctx, ScratchpadUpdate{SessionID: &sessionID, CurrentTasks: &tasks}); err != nil {
		t.Fatalf("seed scratchpad: %v", err)
	}

	for i := 0; i < 3; i++ {
		ev := map[string]any{
			"event_type": "tool_use",
			"tool_name":  "Bash",
			"session_id": sessionID,
		}
		if _, err := s.AppendRawEvent(ctx, ev); err != nil {
			t.Fatalf("append event: %v", err)
		}
	}

	sum, err := s.EndSession(ctx, sessionID)
	if err != nil {
		t.Fatalf("end session: %v", err)
	}
	if sum.TotalEvents != 3 || sum.CommandsRun != 3 {
		t.Errorf("summary wrong: %+v", sum)
	}
	if sum.EndedAt == "" {
		t.Error("EndedAt not stamped")
	}

	// The summary is persisted and retrievable.
	if _, err := s.GetSessionSummary(ctx, sessionID); err != nil {
		t.Errorf("summary not saved: %v", err)
	}

	// A session entity was recorded and is searchable.
	if ids := s.EntitiesByType(ctx, "session"); len(ids) != 1 {
		t.Errorf("session entity missing: %v", ids)
	}
	results, err := s.Search(ctx, SearchParams{Query: "session:" + sessionID, Type: "session"})
	if err != nil {
		t.Fatalf("search session entity: %v", err)
	}
	if len(results) != 1 || results[0].Name != "session:"+sessionID {
		t.Errorf("session entity not indexed: %v", results)
	}

	// The scratchpad is cleared for the next session, keeping the summary.
	pad := s.GetScratchpad(ctx)
	if pad.SessionID != "" {
		t.Errorf("session id not cleared: %q", pad.SessionID)
	}
	if len(pad.CurrentTasks) != 0 || len(pad.RecentContext) != 0 {
		t.Errorf("scratchpad not cleared: %+v", pad)
	}
	if pad.LastSessionSummary == nil || pad.LastSessionSummary.TotalEvents != 3 {
		t.Errorf("last session summary not retained: %+v", pad.LastSessionSummary)
	}
}
