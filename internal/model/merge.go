package model

// MergeTaskRefs appends the incoming refs that are not already present by
// name, then keeps the most recent max entries. Used when folding newly
// extracted tasks and goals into the scratchpad.
func MergeTaskRefs(existing, incoming []TaskRef, max int) []TaskRef {
	seen := make(map[string]bool, len(existing))
	for _, t := range existing {
		seen[t.Name] = true
	}
	merged := existing
	for _, t := range incoming {
		if !seen[t.Name] {
			seen[t.Name] = true
			merged = append(merged, t)
		}
	}
	if len(merged) > max {
		merged = merged[len(merged)-max:]
	}
	return merged
}

// AppendContext appends an entry to the recent-context ring, evicting the
// oldest beyond MaxRecentContext.
func AppendContext(recent []ContextEntry, entry ContextEntry) []ContextEntry {
	recent = append(recent, entry)
	if len(recent) > MaxRecentContext {
		recent = recent[len(recent)-MaxRecentContext:]
	}
	return recent
}
