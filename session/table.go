package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hexdb-io/hexdb/internal/logger"
	"github.com/hexdb-io/hexdb/internal/metrics"
)

// Table is the process-wide session table: a map from session-id to Session,
// guarded by a RWMutex, swept by a background goroutine every SweepInterval.
type Table struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	ttl         time.Duration
	interval    time.Duration
	stop        chan struct{}
	stopped     chan struct{}
	stopOnce    sync.Once
}

// NewTable creates a session table and starts its sweeper goroutine. Callers
// must call Close to stop the sweeper.
func NewTable(ttl, interval time.Duration) *Table {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if interval <= 0 {
		interval = SweepInterval
	}
	t := &Table{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		interval: interval,
		stop:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go t.sweep()
	return t
}

// Create mints a fresh UUID v4 session-id, inserts a new Session record with
// the current timestamp, and returns it.
func (t *Table) Create(database string, enc *Encryption) *Session {
	sess := &Session{
		ID:                  uuid.NewString(),
		Timestamp:           time.Now(),
		ConnectedToDatabase: database,
		Encryption:          enc,
	}

	t.mu.Lock()
	t.sessions[sess.ID] = sess
	active := len(t.sessions)
	t.mu.Unlock()

	via := "register"
	if enc != nil {
		via = "initializeencryption"
	}
	metrics.SessionsCreated.WithLabelValues(via).Inc()
	metrics.SessionsActive.Set(float64(active))

	return sess
}

// Get returns the session for id if present and not expired. An expired
// session found during Get is evicted immediately rather than waiting for
// the next sweep.
func (t *Table) Get(id string) (*Session, error) {
	t.mu.RLock()
	sess, ok := t.sessions[id]
	t.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}

	now := time.Now()
	if sess.expired(now, t.ttl) {
		t.evict(id)
		return nil, ErrExpired
	}
	return sess, nil
}

// Touch bumps a session's timestamp to now, the KeepAlive effect.
func (t *Table) Touch(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	sess, ok := t.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if sess.expired(time.Now(), t.ttl) {
		delete(t.sessions, id)
		return ErrExpired
	}
	sess.Timestamp = time.Now()
	return nil
}

// BindDatabase sets the session's connected database, the DatabaseConnect
// effect.
func (t *Table) BindDatabase(id, database string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	sess, ok := t.sessions[id]
	if !ok {
		return ErrNotFound
	}
	if sess.expired(time.Now(), t.ttl) {
		delete(t.sessions, id)
		return ErrExpired
	}
	sess.ConnectedToDatabase = database
	return nil
}

// Delete removes a session unconditionally.
func (t *Table) Delete(id string) {
	t.evict(id)
}

// Len returns the current number of sessions in the table, expired or not.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

// Close stops the sweeper goroutine and waits for it to exit.
func (t *Table) Close() {
	t.stopOnce.Do(func() { close(t.stop) })
	<-t.stopped
}

func (t *Table) evict(id string) {
	t.mu.Lock()
	delete(t.sessions, id)
	active := len(t.sessions)
	t.mu.Unlock()
	metrics.SessionsActive.Set(float64(active))
}

// sweep wakes every interval, scans the table once, and evicts every entry
// whose timestamp is more than ttl behind now — the background task
// described by the session table's TTL contract.
func (t *Table) sweep() {
	defer close(t.stopped)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.sweepOnce()
		case <-t.stop:
			return
		}
	}
}

func (t *Table) sweepOnce() {
	now := time.Now()

	t.mu.Lock()
	var expired []string
	for id, sess := range t.sessions {
		if sess.expired(now, t.ttl) {
			expired = append(expired, id)
		}
	}
	for _, id := range expired {
		delete(t.sessions, id)
	}
	active := len(t.sessions)
	t.mu.Unlock()

	if len(expired) == 0 {
		return
	}
	metrics.SessionsExpired.Add(float64(len(expired)))
	metrics.SessionsActive.Set(float64(active))
	logger.Debug("swept expired sessions", logger.Int("count", len(expired)))
}
