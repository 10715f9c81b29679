// Package session implements the server's session table: the map from
// session-id to session state shared by every accepted connection, and the
// background sweeper that evicts entries past their TTL.
package session

import "time"

// DefaultTTL is MAX_SESSION_LIVE_MILLIS: a session older than this, measured
// against its own Timestamp, is evicted by the sweeper.
const DefaultTTL = 60 * time.Second

// SweepInterval is how often the sweeper scans the table.
const SweepInterval = 500 * time.Millisecond

// Encryption holds the symmetric material negotiated during the handshake.
// A session carries one iff it was created via InitializeEncryption.
type Encryption struct {
	AESKey []byte
	Nonce  []byte
}

// Session is the per-connection record described by the data model: a
// session-id, the last-activity timestamp used by the TTL sweeper, an
// optional bound database, and optional encryption material.
type Session struct {
	ID                   string
	Timestamp            time.Time
	ConnectedToDatabase  string // empty iff unbound
	Encryption           *Encryption
}

// IsEncrypted reports whether this session negotiated a symmetric channel.
func (s *Session) IsEncrypted() bool {
	return s.Encryption != nil
}

// IsBound reports whether this session is bound to a database.
func (s *Session) IsBound() bool {
	return s.ConnectedToDatabase != ""
}

// expired reports whether the session is older than ttl as of now.
func (s *Session) expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.Timestamp) > ttl
}
