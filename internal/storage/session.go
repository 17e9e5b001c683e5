package storage

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const handshakeTimeout = 10 * time.Second

// HandshakeFunc contacts the provider and returns the base URL used for downloads.
type HandshakeFunc func(ctx context.Context) (baseURL string, err error)

// Session is the process-wide authorization state of one blob store.
// The handshake runs at most once at a time and its result is cached until Invalidate.
// Failed handshakes are not cached, and neither is a handshake that was in flight
// when Invalidate was called.
type Session struct {
	handshake HandshakeFunc
	group     singleflight.Group

	mu      sync.RWMutex
	ready   bool
	baseURL string
	gen     uint64
}

func NewSession(handshake HandshakeFunc) *Session {
	return &Session{handshake: handshake}
}

// Authorize returns immediately once a handshake has succeeded.
// The handshake is detached from the caller's cancellation so that one caller
// giving up does not fail the others waiting on it.
func (s *Session) Authorize(ctx context.Context) error {
	if _, ok := s.BaseURL(); ok {
		return nil
	}

	_, err, _ := s.group.Do("authorize", func() (any, error) {
		if _, ok := s.BaseURL(); ok {
			return nil, nil
		}

		for attempt := 0; attempt < 2; attempt++ {
			gen := s.generation()

			base, err := s.runHandshake(ctx)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrAuth, err)
			}

			s.mu.Lock()
			if s.gen == gen {
				s.baseURL = strings.TrimRight(base, "/")
				s.ready = true
				s.mu.Unlock()
				return nil, nil
			}
			s.mu.Unlock()
		}
		return nil, fmt.Errorf("%w: session invalidated during handshake", ErrAuth)
	})
	return err
}

func (s *Session) runHandshake(ctx context.Context) (string, error) {
	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handshakeTimeout)
	defer cancel()
	return s.handshake(hctx)
}

func (s *Session) generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// BaseURL returns the cached download base and whether a handshake has completed.
func (s *Session) BaseURL() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseURL, s.ready
}

// Invalidate drops the cached handshake. The next Authorize contacts the provider again.
func (s *Session) Invalidate() {
	s.mu.Lock()
	s.ready = false
	s.baseURL = ""
	s.gen++
	s.mu.Unlock()
}
