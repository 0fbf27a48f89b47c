package store

import (
	"context"
	"fmt"

	"github.com/rcliao/memstore/internal/model"
)

// ScratchpadUpdate is a shallow merge of top-level scratchpad fields: nil
// fields are left alone, set fields replace the current value wholesale.
// Last writer wins at field granularity; there is no conflict detection.
type ScratchpadUpdate struct {
	ActiveGoals        *[]model.TaskRef
	CurrentTasks       *[]model.TaskRef
	RecentContext      *[]model.ContextEntry
	SessionID          *string
	LastPrompt         *string
	LastSessionSummary *model.SessionSummary
}

// GetScratchpad returns the scratchpad from cache or disk, defaulting to an
// empty versioned document.
func (s *Store) GetScratchpad(ctx context.Context) *model.Scratchpad {
	if v, ok := s.cache.Get(keyScratchpad); ok {
		return v.(*model.Scratchpad)
	}
	pad := readScratchpadFile(s.scratchpadFile)
	s.cache.Set(keyScratchpad, pad)
	return pad
}

func readScratchpadFile(path string) *model.Scratchpad {
	pad := model.NewScratchpad()
	readDoc(path, pad)
	return pad
}

// UpdateScratchpad merges the update into the current document, enforces the
// list bounds (20 recent-context, 10 tasks, 5 goals; oldest evicted), stamps
// lastUpdated, and persists under the scratchpad lock.
func (s *Store) UpdateScratchpad(ctx context.Context, u ScratchpadUpdate) error {
	var updated *model.Scratchpad
	err := s.withLock(ctx, s.scratchpadFile, func() error {
		pad := readScratchpadFile(s.scratchpadFile)

		if u.ActiveGoals != nil {
			pad.ActiveGoals = capTail(*u.ActiveGoals, model.MaxActiveGoals)
		}
		if u.CurrentTasks != nil {
			pad.CurrentTasks = capTail(*u.CurrentTasks, model.MaxCurrentTasks)
		}
		if u.RecentContext != nil {
			pad.RecentContext = capTail(*u.RecentContext, model.MaxRecentContext)
		}
		if u.SessionID != nil {
			pad.SessionID = *u.SessionID
		}
		if u.LastPrompt != nil {
			pad.LastPrompt = s.redactAudited(*u.LastPrompt, "scratchpad_prompt")
		}
		if u.LastSessionSummary != nil {
			pad.LastSessionSummary = u.LastSessionSummary
		}
		pad.LastUpdated = model.UTCNow()

		updated = pad
		return writeDoc(s.scratchpadFile, pad)
	})
	if err != nil {
		return fmt.Errorf("update scratchpad: %w", err)
	}
	s.cache.Set(keyScratchpad, updated)
	return nil
}

// capTail keeps the last n elements in their original relative order.
func capTail[T any](items []T, n int) []T {
	if len(items) > n {
		return items[len(items)-n:]
	}
	return items
}
