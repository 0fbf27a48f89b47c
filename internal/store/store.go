// Package store implements the process-shared memory store: append-only
// journals on disk, derived search index and relation graph, a scratchpad
// document, and session summaries, guarded by a sensitive-data filter so no
// credential value is ever persisted unredacted.
package store

import (
	"context"
	"io"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rcliao/memstore/internal/cache"
	"github.com/rcliao/memstore/internal/config"
	"github.com/rcliao/memstore/internal/model"
	"github.com/rcliao/memstore/internal/secure"
)

// CreateEntityParams holds parameters for creating an entity.
type CreateEntityParams struct {
	Name         string
	EntityType   string
	Observations []string
	Metadata     model.Metadata
}

// SearchParams holds parameters for searching the index.
type SearchParams struct {
	Query string
	Type  string // optional entity type filter
	Limit int
}

// Memory is the caller-facing surface of the store.
type Memory interface {
	AppendRawEvent(ctx context.Context, event map[string]any) (string, error)
	CreateEntity(ctx context.Context, p CreateEntityParams) (string, error)
	AddObservation(ctx context.Context, entityName, observation string) (bool, error)
	CreateRelation(ctx context.Context, from, to, relationType string) (bool, error)
	Search(ctx context.Context, p SearchParams) ([]model.SearchResult, error)
	EntitiesByType(ctx context.Context, entityType string) []string
	GetScratchpad(ctx context.Context) *model.Scratchpad
	UpdateScratchpad(ctx context.Context, u ScratchpadUpdate) error
	LogSensitiveBlocked(kind, source, context string) error
	SaveSessionSummary(ctx context.Context, sessionID string, summary *model.SessionSummary) error
	GetSessionSummary(ctx context.Context, sessionID string) (*model.SessionSummary, error)
	EndSession(ctx context.Context, sessionID string) (*model.SessionSummary, error)
	GetRecentEvents(ctx context.Context, limit int) ([]model.RawEvent, error)
	Stats(ctx context.Context) (*Stats, error)
	Reconcile(ctx context.Context) error
	FlushAll(ctx context.Context) error
}

// Cache keys for derived structures. Search results use a composite key and
// expire by TTL only.
const (
	keyIndex      = "index"
	keyGraph      = "graph"
	keyScratchpad = "scratchpad"
)

// Store owns the on-disk files. It is stateless between calls; independent
// processes coordinate only through the file locks taken around each write.
type Store struct {
	cfg config.Config

	memoryFile     string
	indexFile      string
	graphFile      string
	scratchpadFile string
	rawEventsFile  string
	sensitiveLog   string
	sessionsDir    string

	filter *secure.Filter
	cache  *cache.Cache
	buf    *coalescer
	log    *slog.Logger

	idMu    sync.Mutex
	entropy *rand.Rand
}

var _ Memory = (*Store)(nil)

// Option customizes a Store.
type Option func(*Store)

// WithFilter injects a sensitive-data filter (a default one is built
// otherwise).
func WithFilter(f *secure.Filter) Option {
	return func(s *Store) { s.filter = f }
}

// WithLogger sets the store's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// New opens (or initializes) a store rooted at cfg's base directory.
func New(cfg config.Config, opts ...Option) (*Store, error) {
	dir := cfg.ResolveDir()
	memoryDir := filepath.Join(dir, "memory")

	s := &Store{
		cfg:            cfg,
		memoryFile:     filepath.Join(dir, "memory.jsonl"),
		indexFile:      filepath.Join(dir, "memory-index.json"),
		graphFile:      filepath.Join(dir, "memory-graph.json"),
		scratchpadFile: filepath.Join(dir, "scratchpad.json"),
		rawEventsFile:  filepath.Join(memoryDir, "raw-events.jsonl"),
		sensitiveLog:   filepath.Join(memoryDir, "sensitive-blocked.log"),
		sessionsDir:    filepath.Join(memoryDir, "sessions"),
		cache:          cache.New(cfg.CacheTTL),
		buf:            newCoalescer(cfg.CoalesceMaxItems, cfg.CoalesceMaxAge),
		entropy:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.filter == nil {
		s.filter = secure.NewFilter()
	}
	if s.log == nil {
		s.log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if err := os.MkdirAll(s.sessionsDir, 0o755); err != nil {
		return nil, err
	}
	return s, nil
}

// Dir returns the store's base directory.
func (s *Store) Dir() string {
	return s.cfg.ResolveDir()
}

// lightweight reports whether the store defers index/graph maintenance and
// batches raw-event appends.
func (s *Store) lightweight() bool {
	return s.cfg.Mode == config.ModeLightweight
}
