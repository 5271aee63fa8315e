// Package session owns the live wizard sessions the gateway serves. Sessions
// are in-memory; an optional Postgres snapshotter lets in-flight sessions
// survive a gateway restart.
package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"buildsight/internal/wizard"
)

// Snapshotter persists session snapshots across restarts.
type Snapshotter interface {
	Save(ctx context.Context, snap wizard.Snapshot) error
	LoadAll(ctx context.Context) ([]wizard.Snapshot, error)
	Delete(ctx context.Context, id string) error
}

type entry struct {
	sess    *wizard.Session
	touched time.Time
}

// Store maps session ids to live sessions.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
	snaps    Snapshotter
}

// NewStore creates a store. ttl bounds session idle time; snaps may be nil.
func NewStore(ttl time.Duration, snaps Snapshotter) *Store {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		snaps:    snaps,
	}
}

// Create opens a new session under a fresh id. optsFor, if non-nil, builds
// the session options from the generated id, so callers can attach hooks
// that refer to the session by id.
func (s *Store) Create(platform wizard.Platform, optsFor func(id string) []wizard.Option) *wizard.Session {
	id := uuid.NewString()
	var opts []wizard.Option
	if optsFor != nil {
		opts = optsFor(id)
	}
	sess := wizard.New(id, platform, opts...)
	s.put(sess)
	return sess
}

// Get returns a live session and refreshes its idle timer.
func (s *Store) Get(id string) (*wizard.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	e.touched = time.Now()
	return e.sess, true
}

// Delete drops a session and its snapshot.
func (s *Store) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	if s.snaps != nil {
		if err := s.snaps.Delete(ctx, id); err != nil {
			log.Printf("session store: delete snapshot %s: %v", id, err)
		}
	}
}

// Persist writes a best-effort snapshot; persistence failures never block
// wizard actions.
func (s *Store) Persist(ctx context.Context, sess *wizard.Session) {
	if s.snaps == nil {
		return
	}
	if err := s.snaps.Save(ctx, sess.Snapshot()); err != nil {
		log.Printf("session store: persist %s: %v", sess.ID(), err)
	}
}

// RestoreAll rebuilds live sessions from persisted snapshots. optsFor lets
// the caller attach per-session hooks (change notifications).
func (s *Store) RestoreAll(ctx context.Context, platform wizard.Platform, optsFor func(id string) []wizard.Option) error {
	if s.snaps == nil {
		return nil
	}
	snaps, err := s.snaps.LoadAll(ctx)
	if err != nil {
		return err
	}
	for _, snap := range snaps {
		var opts []wizard.Option
		if optsFor != nil {
			opts = optsFor(snap.ID)
		}
		s.put(wizard.Restore(snap, platform, opts...))
	}
	if len(snaps) > 0 {
		log.Printf("session store: restored %d sessions", len(snaps))
	}
	return nil
}

// StartSweeper evicts idle sessions until ctx is done.
func (s *Store) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *Store) put(sess *wizard.Session) {
	s.mu.Lock()
	s.sessions[sess.ID()] = &entry{sess: sess, touched: time.Now()}
	s.mu.Unlock()
}

func (s *Store) sweep() {
	cutoff := time.Now().Add(-s.ttl)
	s.mu.Lock()
	var evicted []string
	for id, e := range s.sessions {
		if e.touched.Before(cutoff) {
			delete(s.sessions, id)
			evicted = append(evicted, id)
		}
	}
	s.mu.Unlock()
	for _, id := range evicted {
		log.Printf("session store: evicted idle session %s", id)
	}
}
