// Package challenge issues and validates the single-use tokens that guard
// directory admission against spoofed heartbeats.
package challenge

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"
)

// TokenLength is the length of issued challenge tokens.
const TokenLength = 11

// alphabet holds every byte legal in a challenge token: printable ASCII
// minus the characters reserved by the info-string and quoting layers
// (backslash, slash, semicolon, double quote, percent).
var alphabet = func() []byte {
	var a []byte
	for c := byte(33); c <= 126; c++ {
		switch c {
		case '\\', '/', ';', '"', '%':
			continue
		}
		a = append(a, c)
	}
	return a
}()

type record struct {
	token  string
	issued time.Time
}

// Store tracks at most one outstanding challenge per peer address. Tokens
// are consumed on first successful validation and invalid after the TTL.
type Store struct {
	mu      sync.Mutex
	ttl     time.Duration
	pending map[string]record
}

// NewStore creates a store whose tokens expire ttl after issue.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:     ttl,
		pending: make(map[string]record),
	}
}

// Issue generates a fresh token for peer and records it. Any prior
// unconsumed challenge for the same peer is replaced, so a stale token can
// never validate after a newer heartbeat.
func (s *Store) Issue(peer string, now time.Time) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.pending[peer] = record{token: token, issued: now}
	s.mu.Unlock()
	return token, nil
}

// Validate reports whether token matches the outstanding challenge for peer
// and is still within its TTL. The record is removed either way once it has
// been matched or has expired: success consumes it, expiry discards it.
func (s *Store) Validate(peer, token string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.pending[peer]
	if !ok {
		return false
	}
	if now.Sub(rec.issued) > s.ttl {
		delete(s.pending, peer)
		return false
	}
	if rec.token != token {
		return false
	}
	delete(s.pending, peer)
	return true
}

// Sweep discards expired records. Validation already ignores them; this just
// reclaims memory for peers that never answered.
func (s *Store) Sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for peer, rec := range s.pending {
		if now.Sub(rec.issued) > s.ttl {
			delete(s.pending, peer)
		}
	}
}

// Pending returns the number of outstanding challenges.
func (s *Store) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func newToken() (string, error) {
	raw := make([]byte, TokenLength)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("challenge token: %w", err)
	}
	for i, b := range raw {
		raw[i] = alphabet[int(b)%len(alphabet)]
	}
	return string(raw), nil
}
