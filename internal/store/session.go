package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rcliao/memstore/internal/model"
)

// ErrNotFound is returned when a requested session summary does not exist.
var ErrNotFound = errors.New("store: not found")

func (s *Store) sessionPath(sessionID string) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("invalid session id (empty)")
	}
	if strings.ContainsAny(sessionID, "/\\") {
		return "", fmt.Errorf("invalid session id %q (contains path separator)", sessionID)
	}
	return filepath.Join(s.sessionsDir, sessionID+".json"), nil
}

// SaveSessionSummary writes the per-session summary document. A summary is
// intended to be written once at session end and treated as immutable;
// re-saving overwrites.
func (s *Store) SaveSessionSummary(ctx context.Context, sessionID string, summary *model.SessionSummary) error {
	path, err := s.sessionPath(sessionID)
	if err != nil {
		return err
	}
	summary.SessionID = sessionID
	summary.SavedAt = model.UTCNow()
	if err := writeDoc(path, summary); err != nil {
		return fmt.Errorf("save session summary: %w", err)
	}
	return nil
}

// GetSessionSummary loads one session's summary, or ErrNotFound.
func (s *Store) GetSessionSummary(ctx context.Context, sessionID string) (*model.SessionSummary, error) {
	path, err := s.sessionPath(sessionID)
	if err != nil {
		return nil, err
	}
	var summary model.SessionSummary
	if !readDoc(path, &summary) {
		return nil, fmt.Errorf("session %s: %w", sessionID, ErrNotFound)
	}
	return &summary, nil
}

// AnalyzeEvents aggregates one session's raw events into a summary: totals,
// tool usage, touched files and URLs (bounded previews), and blocked
// sensitive detections.
func AnalyzeEvents(events []model.RawEvent) *model.SessionSummary {
	summary := &model.SessionSummary{
		TotalEvents:     len(events),
		ToolsUsed:       []string{},
		ToolUsageCounts: map[string]int{},
	}

	filesModified := map[string]bool{}
	filesRead := map[string]bool{}
	urlsFetched := map[string]bool{}

	for _, ev := range events {
		switch ev.EventType() {
		case "tool_use":
			toolName, _ := ev["tool_name"].(string)
			summary.ToolUsageCounts[toolName]++

			input, _ := ev["tool_input"].(map[string]any)
			switch toolName {
			case "Write", "Edit":
				if p, _ := input["file_path"].(string); p != "" {
					filesModified[p] = true
				}
			case "Read":
				if p, _ := input["file_path"].(string); p != "" {
					filesRead[p] = true
				}
			case "WebFetch":
				if u, _ := input["url"].(string); u != "" {
					urlsFetched[u] = true
				}
			case "Bash":
				summary.CommandsRun++
			}
			if ev.HadSensitiveData() {
				summary.SensitiveBlocked++
			}
		case "user_prompt":
			summary.PromptCount++
			if ev.HadSensitiveData() {
				summary.SensitiveBlocked++
			}
		}
	}

	summary.ToolsUsed = topTools(summary.ToolUsageCounts, 10)
	summary.FilesModified = len(filesModified)
	summary.FilesRead = len(filesRead)
	summary.URLsFetched = len(urlsFetched)
	summary.ModifiedFilesList = sortedKeys(filesModified, 20)
	summary.ReadFilesList = sortedKeys(filesRead, 20)
	summary.FetchedURLsList = sortedKeys(urlsFetched, 10)
	summary.Duration = sessionDuration(events)

	return summary
}

func topTools(counts map[string]int, n int) []string {
	tools := make([]string, 0, len(counts))
	for t := range counts {
		tools = append(tools, t)
	}
	sort.Slice(tools, func(i, j int) bool {
		if counts[tools[i]] != counts[tools[j]] {
			return counts[tools[i]] > counts[tools[j]]
		}
		return tools[i] < tools[j]
	})
	if len(tools) > n {
		tools = tools[:n]
	}
	return tools
}

func sortedKeys(set map[string]bool, n int) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}

// sessionDuration derives a human-readable span from the earliest and latest
// parseable event timestamps.
func sessionDuration(events []model.RawEvent) string {
	var stamps []time.Time
	for _, ev := range events {
		if t, err := time.Parse(time.RFC3339, ev.Timestamp()); err == nil {
			stamps = append(stamps, t)
		}
	}
	if len(stamps) < 2 {
		return "unknown"
	}
	sort.Slice(stamps, func(i, j int) bool { return stamps[i].Before(stamps[j]) })

	d := stamps[len(stamps)-1].Sub(stamps[0])
	total := int(d.Seconds())
	h, rem := total/3600, total%3600
	m, sec := rem/60, rem%60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, sec)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, sec)
	default:
		return fmt.Sprintf("%ds", sec)
	}
}

// EndSession consolidates a finished session: it aggregates the session's
// raw events into a summary, saves it, records a session entity, marks the
// scratchpad's current tasks session_ended, and clears the scratchpad for
// the next session.
func (s *Store) EndSession(ctx context.Context, sessionID string) (*model.SessionSummary, error) {
	if err := s.FlushAll(ctx); err != nil {
		return nil, err
	}

	recent, err := s.GetRecentEvents(ctx, 100)
	if err != nil {
		return nil, fmt.Errorf("load recent events: %w", err)
	}
	var sessionEvents []model.RawEvent
	for _, ev := range recent {
		if ev.SessionID() == sessionID {
			sessionEvents = append(sessionEvents, ev)
		}
	}
	if len(sessionEvents) == 0 {
		sessionEvents = capTail(recent, 50)
	}

	summary := AnalyzeEvents(sessionEvents)
	summary.EndedAt = model.UTCNow()
	if err := s.SaveSessionSummary(ctx, sessionID, summary); err != nil {
		return nil, err
	}

	if _, err := s.CreateEntity(ctx, CreateEntityParams{
		Name:       "session:" + sessionID,
		EntityType: "session",
		Observations: []string{
			"Session ended at " + summary.EndedAt,
			"Tools used: " + strings.Join(capHead(summary.ToolsUsed, 5), ", "),
			fmt.Sprintf("Files modified: %d", summary.FilesModified),
			fmt.Sprintf("Total events: %d", summary.TotalEvents),
		},
		Metadata: model.Metadata{
			Importance: "normal",
			Summary:    summaryMap(summary),
			Extra:      map[string]any{"duration": summary.Duration},
		},
	}); err != nil {
		return nil, fmt.Errorf("record session entity: %w", err)
	}

	pad := s.GetScratchpad(ctx)
	endedTasks := make([]model.TaskRef, len(pad.CurrentTasks))
	for i, task := range pad.CurrentTasks {
		task.Status = "session_ended"
		task.SessionEndedAt = summary.EndedAt
		endedTasks[i] = task
	}
	for _, task := range endedTasks {
		if task.Name == "" {
			continue
		}
		if _, err := s.AddObservation(ctx, task.Name, "Task was active during session "+sessionID); err != nil {
			s.log.Warn("task observation failed", "task", task.Name, "error", err)
		}
	}

	empty := ""
	noTasks := []model.TaskRef{}
	noContext := []model.ContextEntry{}
	if err := s.UpdateScratchpad(ctx, ScratchpadUpdate{
		CurrentTasks:       &noTasks,
		RecentContext:      &noContext,
		SessionID:          &empty,
		LastSessionSummary: summary,
	}); err != nil {
		return nil, err
	}

	return summary, nil
}

func capHead[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

func summaryMap(summary *model.SessionSummary) map[string]any {
	b, err := json.Marshal(summary)
	if err != nil {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil
	}
	return m
}
