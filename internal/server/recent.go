package server

import (
	"fmt"

	"github.com/hashicorp/golang-lru/v2/simplelru"

	"github.com/lookaround/lookaround/internal/message"
)

// DefaultRecentCapacity is how many request tokens a listener remembers
const DefaultRecentCapacity = 30

// RecentIdemSet remembers the most recently accepted request tokens so that
// retransmissions of the same request are answered only once. Lookups do not
// refresh a token; the oldest accepted token is evicted first.
//
// A RecentIdemSet is owned by a single listener and is not safe for
// concurrent use.
type RecentIdemSet struct {
	lru *simplelru.LRU[message.IdemToken, struct{}]
}

// NewRecentIdemSet creates a set holding at most capacity tokens
func NewRecentIdemSet(capacity int) (*RecentIdemSet, error) {
	lru, err := simplelru.NewLRU[message.IdemToken, struct{}](capacity, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create recent token set: %w", err)
	}
	return &RecentIdemSet{lru: lru}, nil
}

// Seen reports whether tok was accepted recently
func (s *RecentIdemSet) Seen(tok message.IdemToken) bool {
	return s.lru.Contains(tok)
}

// Accept records tok as the newest token, evicting the oldest past capacity.
// It returns false if tok was already present.
func (s *RecentIdemSet) Accept(tok message.IdemToken) bool {
	if s.lru.Contains(tok) {
		return false
	}
	s.lru.Add(tok, struct{}{})
	return true
}

// Tokens returns the remembered tokens, newest first
func (s *RecentIdemSet) Tokens() []message.IdemToken {
	keys := s.lru.Keys()
	for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
		keys[i], keys[j] = keys[j], keys[i]
	}
	return keys
}

// Len returns the number of remembered tokens
func (s *RecentIdemSet) Len() int {
	return s.lru.Len()
}
