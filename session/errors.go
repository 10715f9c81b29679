package session

import "errors"

// ErrNotFound is returned by Get/Touch/BindDatabase when no session matches
// the given id, including one that has just been swept for expiry.
var ErrNotFound = errors.New("session does not exist")

// ErrExpired is returned by Get/Touch/BindDatabase when a session still in
// the table has already aged past its TTL; the entry is evicted on the spot.
// The command layer reports it on the wire as SessionTimeExpired, distinct
// from a missing session.
var ErrExpired = errors.New("session time expired")
