// Package model defines the memory store's core data types and the
// on-disk journal record formats.
package model

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Scratchpad bounds. Oldest entries are evicted first.
const (
	MaxRecentContext = 20
	MaxCurrentTasks  = 10
	MaxActiveGoals   = 5
)

// Entity is a named, typed record with accumulated text observations.
type Entity struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	EntityType   string   `json:"entityType"`
	Observations []string `json:"observations"`
	CreatedAt    string   `json:"createdAt"`
	UpdatedAt    string   `json:"updatedAt"`
	Metadata     Metadata `json:"metadata"`
}

// Metadata is the typed envelope attached to an entity: a fixed set of
// well-known optional fields plus an opaque extension map.
type Metadata struct {
	Importance string         `json:"importance,omitempty"`
	Tags       []string       `json:"tags,omitempty"`
	Confidence float64        `json:"confidence,omitempty"`
	Source     string         `json:"source,omitempty"`
	Summary    map[string]any `json:"summary,omitempty"`
	Extra      map[string]any `json:"extra,omitempty"`
}

// importanceWeights boost search scores by entity importance.
var importanceWeights = map[string]float64{
	"critical": 3,
	"high":     2,
	"normal":   1,
	"low":      0.5,
}

// ImportanceWeight returns the search score multiplier for an importance
// level. Unrecognized levels weigh 1.
func ImportanceWeight(importance string) float64 {
	if w, ok := importanceWeights[importance]; ok {
		return w
	}
	return 1
}

// RecordKind identifies a memory journal record type.
type RecordKind string

const (
	RecordCreateEntity   RecordKind = "create_entity"
	RecordAddObservation RecordKind = "add_observation"
	RecordCreateRelation RecordKind = "create_relation"
)

// Record is one line of the memory journal: a kind tag, a timestamp, and a
// kind-specific payload.
type Record struct {
	Type      RecordKind      `json:"type"`
	Timestamp string          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewRecord builds a journal record for the given kind and payload.
func NewRecord(kind RecordKind, data any) (Record, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return Record{}, fmt.Errorf("marshal %s data: %w", kind, err)
	}
	return Record{Type: kind, Timestamp: UTCNow(), Data: b}, nil
}

// ObservationData is the payload of an add_observation record. It is applied
// against whatever entity the name resolves to at replay time.
type ObservationData struct {
	EntityName  string `json:"entityName"`
	Observation string `json:"observation"`
}

// RelationData is the payload of a create_relation record. Duplicates are
// permitted; the journal is a log, not a set.
type RelationData struct {
	From         string `json:"from"`
	To           string `json:"to"`
	RelationType string `json:"relationType"`
}

// RawEvent is one line of the raw-event journal. Beyond id, timestamp and
// event_type the fields are caller-supplied, so it stays an open map.
type RawEvent map[string]any

func (e RawEvent) str(key string) string {
	s, _ := e[key].(string)
	return s
}

// ID returns the event's id field.
func (e RawEvent) ID() string { return e.str("id") }

// Timestamp returns the event's timestamp field.
func (e RawEvent) Timestamp() string { return e.str("timestamp") }

// EventType returns the event's event_type field.
func (e RawEvent) EventType() string { return e.str("event_type") }

// SessionID returns the event's session_id field.
func (e RawEvent) SessionID() string { return e.str("session_id") }

// HadSensitiveData reports whether the event was flagged during filtering.
func (e RawEvent) HadSensitiveData() bool {
	b, _ := e["had_sensitive_data"].(bool)
	return b
}

// IndexEntry is the derived, searchable view of one entity. It is a cache of
// the journal, not a source of truth.
type IndexEntry struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	SearchText string `json:"searchText"`
	Importance string `json:"importance"`
	Timestamp  string `json:"timestamp"`
}

// Index is the on-disk search index document.
type Index struct {
	Version     int                   `json:"version"`
	Entities    map[string]IndexEntry `json:"entities"`
	ByType      map[string][]string   `json:"byType"`
	LastUpdated string                `json:"lastUpdated"`
}

// NewIndex returns an empty versioned index.
func NewIndex() *Index {
	return &Index{
		Version:     1,
		Entities:    map[string]IndexEntry{},
		ByType:      map[string][]string{},
		LastUpdated: UTCNow(),
	}
}

// GraphRelation is one outgoing edge stored under a graph node.
type GraphRelation struct {
	To        string `json:"to"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// GraphNode holds the outgoing relations of one entity.
type GraphNode struct {
	Relations []GraphRelation `json:"relations"`
}

// Edge is one entry of the graph's flat edge list, mirroring the journal.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

// Graph is the on-disk relation graph document.
type Graph struct {
	Version     int                   `json:"version"`
	Nodes       map[string]*GraphNode `json:"nodes"`
	Edges       []Edge                `json:"edges"`
	LastUpdated string                `json:"lastUpdated"`
}

// NewGraph returns an empty versioned graph.
func NewGraph() *Graph {
	return &Graph{
		Version:     1,
		Nodes:       map[string]*GraphNode{},
		Edges:       []Edge{},
		LastUpdated: UTCNow(),
	}
}

// TaskRef is a scratchpad entry for an active task or goal.
type TaskRef struct {
	ID             string `json:"id,omitempty"`
	Name           string `json:"name"`
	Status         string `json:"status"`
	CreatedAt      string `json:"createdAt,omitempty"`
	SessionEndedAt string `json:"sessionEndedAt,omitempty"`
}

// ContextEntry is one recent-context ring buffer entry. Its fields vary by
// activity type (tool, file, url, command), so it stays an open map.
type ContextEntry map[string]any

// Scratchpad is the single mutable document holding ephemeral session state.
type Scratchpad struct {
	Version            int             `json:"version"`
	ActiveGoals        []TaskRef       `json:"activeGoals"`
	CurrentTasks       []TaskRef       `json:"currentTasks"`
	RecentContext      []ContextEntry  `json:"recentContext"`
	SessionID          string          `json:"sessionId"`
	LastUpdated        string          `json:"lastUpdated"`
	LastPrompt         string          `json:"lastPrompt,omitempty"`
	LastSessionSummary *SessionSummary `json:"lastSessionSummary,omitempty"`
}

// NewScratchpad returns an empty versioned scratchpad.
func NewScratchpad() *Scratchpad {
	return &Scratchpad{
		Version:       1,
		ActiveGoals:   []TaskRef{},
		CurrentTasks:  []TaskRef{},
		RecentContext: []ContextEntry{},
		LastUpdated:   UTCNow(),
	}
}

// SessionSummary aggregates one session's raw events. It is written once at
// session end and immutable after that.
type SessionSummary struct {
	SessionID         string         `json:"sessionId"`
	SavedAt           string         `json:"savedAt,omitempty"`
	EndedAt           string         `json:"endedAt,omitempty"`
	TotalEvents       int            `json:"totalEvents"`
	ToolsUsed         []string       `json:"toolsUsed"`
	ToolUsageCounts   map[string]int `json:"toolUsageCounts"`
	FilesModified     int            `json:"filesModified"`
	FilesRead         int            `json:"filesRead"`
	URLsFetched       int            `json:"urlsFetched"`
	CommandsRun       int            `json:"commandsRun"`
	PromptCount       int            `json:"promptCount"`
	EntitiesCreated   int            `json:"entitiesCreated"`
	ErrorsEncountered int            `json:"errorsEncountered"`
	SensitiveBlocked  int            `json:"sensitiveDataBlocked"`
	ModifiedFilesList []string       `json:"modifiedFilesList,omitempty"`
	ReadFilesList     []string       `json:"readFilesList,omitempty"`
	FetchedURLsList   []string       `json:"fetchedUrlsList,omitempty"`
	Duration          string         `json:"duration,omitempty"`
}

// SearchResult is one ranked search hit.
type SearchResult struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Type  string  `json:"type"`
	Score float64 `json:"score"`
}

// EntityID derives the content-addressed entity id. Re-creating an entity
// with the same type and name yields the same id.
func EntityID(entityType, name string) string {
	sum := sha256.Sum256([]byte(entityType + ":" + name))
	return hex.EncodeToString(sum[:])[:12]
}

// UTCNow returns the current time in the store's wire format.
func UTCNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}
