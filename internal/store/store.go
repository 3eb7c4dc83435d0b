package store

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgallion1/navflat/internal/query"
	"github.com/google/uuid"
)

var (
	ErrNotFound = errors.New("menu not found")
	ErrFull     = errors.New("menu store is full")
)

// Menu is one flattened menu together with its prebuilt index.
type Menu struct {
	ID          string
	Name        string // Source filename, or "inline".
	ContentHash string
	Options     string // Flatten options the records were produced with.
	Index       *query.Index
	Skipped     []string // Cyclic branches dropped under on_cycle=skip.
	CreatedAt   time.Time

	lastAccess time.Time
}

// Summary is a read-only, JSON-safe view of a stored menu.
type Summary struct {
	ID          string    `json:"menu_id"`
	Name        string    `json:"name"`
	ContentHash string    `json:"content_hash"`
	Options     string    `json:"options"`
	KeyField    string    `json:"key_field"`
	Records     int       `json:"records"`
	Depth       int       `json:"depth"`
	Skipped     []string  `json:"skipped_cycles"`
	CreatedAt   time.Time `json:"created_at"`
}

// Summary returns a JSON-safe description of m.
func (m *Menu) Summary() Summary {
	skipped := m.Skipped
	if skipped == nil {
		skipped = []string{}
	}
	return Summary{
		ID:          m.ID,
		Name:        m.Name,
		ContentHash: m.ContentHash,
		Options:     m.Options,
		KeyField:    m.Index.KeyField().String(),
		Records:     m.Index.Len(),
		Depth:       query.Depth(m.Index.Records()),
		Skipped:     skipped,
		CreatedAt:   m.CreatedAt,
	}
}

// MenuStore is a thread-safe in-memory menu registry with idle eviction and
// a capacity cap.
type MenuStore struct {
	mu    sync.Mutex
	menus map[string]*Menu
	ttl   time.Duration
	max   int
	now   func() time.Time
}

func New(ttl time.Duration, maxMenus int) *MenuStore {
	return &MenuStore{
		menus: make(map[string]*Menu),
		ttl:   ttl,
		max:   maxMenus,
		now:   time.Now,
	}
}

// Put stores m under a fresh id and returns it. A full store first evicts
// expired menus and fails with ErrFull if that frees nothing.
func (s *MenuStore) Put(m *Menu) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.max > 0 && len(s.menus) >= s.max {
		s.cleanupLocked()
		if len(s.menus) >= s.max {
			return "", ErrFull
		}
	}

	now := s.now()
	m.ID = uuid.NewString()
	m.CreatedAt = now
	m.lastAccess = now
	s.menus[m.ID] = m
	return m.ID, nil
}

// Get returns the menu and marks it as recently used.
func (s *MenuStore) Get(id string) (*Menu, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.menus[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.lastAccess = s.now()
	return m, nil
}

// FindDuplicate returns a stored menu built from the same content with the
// same options, if any.
func (s *MenuStore) FindDuplicate(contentHash, options string) (*Menu, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.menus {
		if m.ContentHash == contentHash && m.Options == options {
			m.lastAccess = s.now()
			return m, true
		}
	}
	return nil, false
}

// Delete removes a menu and reports whether it existed.
func (s *MenuStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.menus[id]
	delete(s.menus, id)
	return ok
}

// List returns summaries of every stored menu, oldest first.
func (s *MenuStore) List() []Summary {
	s.mu.Lock()
	menus := make([]*Menu, 0, len(s.menus))
	for _, m := range s.menus {
		menus = append(menus, m)
	}
	s.mu.Unlock()

	sort.Slice(menus, func(i, j int) bool {
		if menus[i].CreatedAt.Equal(menus[j].CreatedAt) {
			return menus[i].ID < menus[j].ID
		}
		return menus[i].CreatedAt.Before(menus[j].CreatedAt)
	})
	out := make([]Summary, len(menus))
	for i, m := range menus {
		out[i] = m.Summary()
	}
	return out
}

func (s *MenuStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.menus)
}

// Cleanup removes menus idle for longer than the TTL and returns how many
// were dropped.
func (s *MenuStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleanupLocked()
}

func (s *MenuStore) cleanupLocked() int {
	now := s.now()
	removed := 0
	for id, m := range s.menus {
		if now.Sub(m.lastAccess) > s.ttl {
			delete(s.menus, id)
			removed++
		}
	}
	return removed
}

// Run calls Cleanup every interval until ctx is done. onEvict, if non-nil,
// is told how many menus each sweep removed.
func (s *MenuStore) Run(ctx context.Context, interval time.Duration, onEvict func(int)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Cleanup(); n > 0 && onEvict != nil {
				onEvict(n)
			}
		}
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}
