package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"

	"github.com/MokshankSoni-SDP/SamaySetu-AI/internal/service/calendar"
)

var ErrSessionNotFound = errors.New("session not found")

// SystemPromptFunc renders the instruction message for a session created at now.
type SystemPromptFunc func(now time.Time) string

// Session holds one conversation. Callers must hold Lock for the duration of
// a turn; message access is additionally guarded so readers such as the
// debug endpoint never race a turn.
type Session struct {
	ID        string
	CreatedAt time.Time
	Ledger    *calendar.Ledger

	turn sync.Mutex

	mu         sync.RWMutex
	messages   []*schema.Message
	lastActive time.Time
}

// Lock serializes turns for this session.
func (s *Session) Lock() { s.turn.Lock() }

func (s *Session) Unlock() { s.turn.Unlock() }

// Append adds messages to the history in order.
func (s *Session) Append(msgs ...*schema.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, msgs...)
	s.mu.Unlock()
}

// Messages returns a copy of the history.
func (s *Session) Messages() []*schema.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	copied := make([]*schema.Message, len(s.messages))
	copy(copied, s.messages)
	return copied
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastActive = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

// Options tunes the store. A zero TTL disables eviction.
type Options struct {
	TTL time.Duration
	Now func() time.Time
}

// Store maps session identifiers to conversations.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	prompt   SystemPromptFunc
	ttl      time.Duration
	now      func() time.Time
}

// NewStore bootstraps an in-memory store.
func NewStore(prompt SystemPromptFunc, opts Options) *Store {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Store{
		sessions: make(map[string]*Session),
		prompt:   prompt,
		ttl:      opts.TTL,
		now:      now,
	}
}

// GetOrCreate returns the session for id, seeding a new one with the system
// message rendered at creation time.
func (st *Store) GetOrCreate(id string) *Session {
	now := st.now()

	// Touch under the read lock so a concurrent Sweep cannot evict the
	// session between lookup and refresh.
	st.mu.RLock()
	sess, ok := st.sessions[id]
	if ok {
		sess.touch(now)
	}
	st.mu.RUnlock()
	if ok {
		return sess
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if sess, ok := st.sessions[id]; ok {
		sess.touch(now)
		return sess
	}

	sess = &Session{
		ID:         id,
		CreatedAt:  now,
		Ledger:     calendar.NewLedger(),
		lastActive: now,
	}
	if st.prompt != nil {
		sess.messages = append(sess.messages, schema.SystemMessage(st.prompt(now)))
	}
	st.sessions[id] = sess

	slog.Debug("session created", "session", id)
	return sess
}

// Get looks up a session without creating it.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sess, ok := st.sessions[id]
	return sess, ok
}

// History returns a copy of the stored messages for id.
func (st *Store) History(id string) ([]*schema.Message, error) {
	sess, ok := st.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess.Messages(), nil
}

func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep evicts sessions idle for longer than the TTL and returns how many
// were removed. Sessions with a turn in flight are skipped.
func (st *Store) Sweep(now time.Time) int {
	if st.ttl <= 0 {
		return 0
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	evicted := 0
	for id, sess := range st.sessions {
		if now.Sub(sess.idleSince()) <= st.ttl {
			continue
		}
		if !sess.turn.TryLock() {
			continue
		}
		delete(st.sessions, id)
		sess.turn.Unlock()
		evicted++
	}
	return evicted
}

// Run sweeps on every tick until ctx is cancelled.
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	if st.ttl <= 0 || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(st.now()); n > 0 {
				slog.Info("expired sessions evicted", "count", n, "remaining", st.Len())
			}
		}
	}
}
