package store

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/memstore/internal/model"
	"github.com/rcliao/memstore/internal/secure"
)

func (s *Store) newEventID() string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// AppendRawEvent records one external occurrence (tool use, prompt) in the
// raw-event journal. The event is filtered before persisting; blocked fields
// are replaced by safe references and audited. In lightweight mode the record
// goes through the coalescer so several events share one locked append.
func (s *Store) AppendRawEvent(ctx context.Context, event map[string]any) (string, error) {
	filtered, blocked := s.filter.FilterForStorage(event)
	for _, b := range blocked {
		if err := s.LogSensitiveBlocked(strings.Join(b.Types, ","), "raw_event", "Field: "+b.Field); err != nil {
			s.log.Warn("audit log append failed", "error", err)
		}
	}

	rec := model.RawEvent{}
	for k, v := range filtered {
		rec[k] = v
	}
	id := s.newEventID()
	rec["id"] = id
	rec["timestamp"] = model.UTCNow()
	if len(blocked) > 0 {
		rec["had_sensitive_data"] = true
	} else if _, ok := rec["had_sensitive_data"]; !ok {
		rec["had_sensitive_data"] = false
	}

	if s.lightweight() {
		if due := s.buf.add(rec); due {
			if err := s.flushRawEvents(ctx); err != nil {
				return id, err
			}
		}
		return id, nil
	}

	if err := s.appendLines(ctx, s.rawEventsFile, rec); err != nil {
		return id, fmt.Errorf("append raw event: %w", err)
	}
	return id, nil
}

func (s *Store) flushRawEvents(ctx context.Context) error {
	items := s.buf.drain()
	if len(items) == 0 {
		return nil
	}
	records := make([]any, len(items))
	for i, it := range items {
		records[i] = it
	}
	if err := s.appendLines(ctx, s.rawEventsFile, records...); err != nil {
		return fmt.Errorf("flush raw events: %w", err)
	}
	s.log.Debug("flushed raw events", "count", len(items))
	return nil
}

// FlushAll writes out any buffered raw events. Call at clean shutdown to
// close the lightweight-mode durability window.
func (s *Store) FlushAll(ctx context.Context) error {
	if !s.buf.pending() {
		return nil
	}
	return s.flushRawEvents(ctx)
}

// CreateEntity appends a create_entity record to the memory journal and, in
// eager mode, updates the search index. The entity id is content-derived, so
// re-creating the same type+name yields the same id; observations are not
// merged (AddObservation is the explicit merge operation).
func (s *Store) CreateEntity(ctx context.Context, p CreateEntityParams) (string, error) {
	name := s.redactAudited(p.Name, "entity_name")
	entityType := s.redactAudited(p.EntityType, "entity_type")
	obs := make([]string, len(p.Observations))
	for i, o := range p.Observations {
		obs[i] = s.redactAudited(o, "observation")
	}
	meta := s.filterMetadata(p.Metadata)

	id := model.EntityID(entityType, name)
	now := model.UTCNow()
	entity := model.Entity{
		ID:           id,
		Name:         name,
		EntityType:   entityType,
		Observations: obs,
		CreatedAt:    now,
		UpdatedAt:    now,
		Metadata:     meta,
	}

	rec, err := model.NewRecord(model.RecordCreateEntity, entity)
	if err != nil {
		return "", err
	}
	if err := s.appendLines(ctx, s.memoryFile, rec); err != nil {
		return "", fmt.Errorf("append entity: %w", err)
	}

	if !s.lightweight() {
		if err := s.indexEntity(ctx, entity); err != nil {
			return id, fmt.Errorf("update index: %w", err)
		}
	}
	s.cache.Invalidate(keyIndex)

	return id, nil
}

// AddObservation appends an observation against whatever entity the name
// currently resolves to. The entity need not exist in the index yet; the
// eager-mode index update is best-effort.
func (s *Store) AddObservation(ctx context.Context, entityName, observation string) (bool, error) {
	data := model.ObservationData{
		EntityName:  s.redactAudited(entityName, "entity_name"),
		Observation: s.redactAudited(observation, "observation"),
	}

	rec, err := model.NewRecord(model.RecordAddObservation, data)
	if err != nil {
		return false, err
	}
	if err := s.appendLines(ctx, s.memoryFile, rec); err != nil {
		return false, fmt.Errorf("append observation: %w", err)
	}

	if !s.lightweight() {
		if err := s.indexObservation(ctx, data); err != nil {
			s.log.Warn("observation index update failed", "entity", data.EntityName, "error", err)
		}
	}
	s.cache.Invalidate(keyIndex)

	return true, nil
}

// CreateRelation appends a directed edge between two entity names. Duplicate
// relations are permitted; the journal is a log, not a set.
func (s *Store) CreateRelation(ctx context.Context, from, to, relationType string) (bool, error) {
	data := model.RelationData{
		From:         s.redactAudited(from, "relation_from"),
		To:           s.redactAudited(to, "relation_to"),
		RelationType: s.redactAudited(relationType, "relation_type"),
	}

	rec, err := model.NewRecord(model.RecordCreateRelation, data)
	if err != nil {
		return false, err
	}
	if err := s.appendLines(ctx, s.memoryFile, rec); err != nil {
		return false, fmt.Errorf("append relation: %w", err)
	}

	if !s.lightweight() {
		if err := s.graphRelation(ctx, data); err != nil {
			return false, fmt.Errorf("update graph: %w", err)
		}
	}
	s.cache.Invalidate(keyGraph)

	return true, nil
}

// redactAudited redacts sensitive spans in a string bound for the memory
// journal and records each detection in the audit log.
func (s *Store) redactAudited(text, source string) string {
	redacted, matches := s.filter.Redact(text)
	for _, m := range matches {
		if err := s.LogSensitiveBlocked(string(m.Type), source, m.PatternName); err != nil {
			s.log.Warn("audit log append failed", "error", err)
		}
	}
	return redacted
}

// filterMetadata scrubs the metadata envelope: tag strings are redacted, the
// open maps are filtered recursively.
func (s *Store) filterMetadata(m model.Metadata) model.Metadata {
	out := m
	if len(m.Tags) > 0 {
		out.Tags = make([]string, len(m.Tags))
		for i, t := range m.Tags {
			out.Tags[i] = s.redactAudited(t, "metadata_tag")
		}
	}
	if len(m.Summary) > 0 {
		filtered, blocked := s.filter.FilterForStorage(m.Summary)
		out.Summary = filtered
		s.auditBlocked(blocked, "metadata_summary")
	}
	if len(m.Extra) > 0 {
		filtered, blocked := s.filter.FilterForStorage(m.Extra)
		out.Extra = filtered
		s.auditBlocked(blocked, "metadata_extra")
	}
	return out
}

func (s *Store) auditBlocked(blocked []secure.Blocked, source string) {
	for _, b := range blocked {
		if err := s.LogSensitiveBlocked(strings.Join(b.Types, ","), source, "Field: "+b.Field); err != nil {
			s.log.Warn("audit log append failed", "error", err)
		}
	}
}

// LogSensitiveBlocked appends one human-readable line to the plain-text
// audit log. The line never contains the secret value itself.
func (s *Store) LogSensitiveBlocked(kind, source, context string) error {
	if len(context) > 100 {
		context = context[:100]
	}
	line := fmt.Sprintf("[%s] BLOCKED: %s detected in %s - Context: %s...\n",
		model.UTCNow(), kind, source, context)

	f, err := os.OpenFile(s.sensitiveLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append audit log: %w", err)
	}
	return nil
}
