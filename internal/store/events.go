package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/rcliao/memstore/internal/model"
)

// Journal lines are capped well below this; the headroom covers large
// filtered tool inputs.
const maxLineBytes = 1 << 20

// GetRecentEvents returns the last limit syntactically valid lines of the
// raw-event journal. Corrupt lines are skipped so a damaged tail never
// blocks access to the valid prefix.
func (s *Store) GetRecentEvents(ctx context.Context, limit int) ([]model.RawEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	f, err := os.Open(s.rawEventsFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var events []model.RawEvent
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	for sc.Scan() {
		var ev model.RawEvent
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			continue
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		s.log.Warn("raw event journal scan stopped early", "error", err)
	}

	if len(events) > limit {
		events = events[len(events)-limit:]
	}
	return events, nil
}

// countLines counts newline-terminated lines in a file, zero when missing.
func countLines(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), maxLineBytes)
	for sc.Scan() {
		n++
	}
	return n
}
