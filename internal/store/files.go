package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// readDoc parses a whole-document JSON file into out. A missing or
// unparseable file reports false and leaves out untouched; the caller
// substitutes a versioned empty default so the store stays usable before its
// first write.
func readDoc(path string, out any) bool {
	b, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return json.Unmarshal(b, out) == nil
}

// writeDoc saves a document as pretty-printed JSON via a temporary file and
// rename, so readers never observe a partial document.
func writeDoc(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// appendLines appends one JSON line per record under the journal's exclusive
// lock. Within a journal, append order equals lock-acquisition order equals
// on-disk line order.
func (s *Store) appendLines(ctx context.Context, path string, records ...any) error {
	encoded := make([][]byte, 0, len(records))
	for _, r := range records {
		b, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal journal line: %w", err)
		}
		encoded = append(encoded, b)
	}

	return s.withLock(ctx, path, func() error {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		for _, b := range encoded {
			if _, err := f.Write(append(b, '\n')); err != nil {
				return fmt.Errorf("append %s: %w", path, err)
			}
		}
		return nil
	})
}
