// Package keylock provides a non-blocking single-flight gate keyed by string.
//
// A holder acquires a key with TryAcquire and receives a Token. Only the
// matching token releases the key, so a holder whose key was dropped with
// Forget cannot release whoever acquired the key afterwards.
package keylock

import (
	"errors"
	"sync"
)

// ErrConflictRejected is returned when an action is refused because the same
// key is already held. Callers wrap it with their own sentinel.
var ErrConflictRejected = errors.New("conflicting operation in progress")

// Token identifies one acquisition of a key. The zero Token is never issued.
type Token uint64

// Gate tracks which keys are held. The zero value is ready to use.
type Gate struct {
	held map[string]Token
	next Token
	mu   sync.Mutex
}

// Key joins a post ID and a resource name ("comments", "delete", "vote") into a gate key
func Key(postID, resource string) string {
	return postID + "/" + resource
}

// TryAcquire takes key if it is free. It returns ErrConflictRejected and the
// zero Token when the key is already held.
func (g *Gate) TryAcquire(key string) (Token, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.held[key]; busy {
		return 0, ErrConflictRejected
	}
	if g.held == nil {
		g.held = make(map[string]Token)
	}
	g.next++
	g.held[key] = g.next
	return g.next, nil
}

// Release frees key if it is still held by tok and reports whether it did
func (g *Gate) Release(key string, tok Token) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cur, ok := g.held[key]; !ok || cur != tok {
		return false
	}
	delete(g.held, key)
	return true
}

// Holds reports whether tok is the current holder of key
func (g *Gate) Holds(key string, tok Token) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	cur, ok := g.held[key]
	return ok && cur == tok
}

// Busy reports whether key is held by anyone
func (g *Gate) Busy(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.held[key]
	return ok
}

// Forget drops key regardless of holder. The outstanding token becomes stale.
func (g *Gate) Forget(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.held, key)
}
