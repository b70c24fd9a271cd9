// Package notify holds transient, dismissible user notifications.
package notify

import (
	"sync"
	"time"
)

// Status is the severity of a notification
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
	StatusInfo    Status = "info"
)

// Default display durations
const (
	ShortDuration = 2 * time.Second
	LongDuration  = 3 * time.Second
)

// Notification is a message shown to the user until it expires or is dismissed
type Notification struct {
	ExpiresAt   time.Time
	Title       string
	Description string
	Status      Status
	Duration    time.Duration
	ID          uint64
}

// Sink receives notifications. Presenters depend on this, not on Center.
type Sink interface {
	Push(n Notification) uint64
}

// Center keeps the active notifications. The zero value is not usable; call NewCenter.
type Center struct {
	now    func() time.Time
	active []Notification
	nextID uint64
	mu     sync.Mutex
}

// NewCenter creates an empty notification center
func NewCenter() *Center {
	return &Center{now: time.Now}
}

// Push records n and returns its ID. A zero Duration uses ShortDuration.
func (c *Center) Push(n Notification) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n.Duration <= 0 {
		n.Duration = ShortDuration
	}
	c.nextID++
	n.ID = c.nextID
	n.ExpiresAt = c.now().Add(n.Duration)
	c.active = append(c.active, n)
	return n.ID
}

// Dismiss removes a notification before it expires
func (c *Center) Dismiss(id uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, n := range c.active {
		if n.ID == id {
			c.active = append(c.active[:i:i], c.active[i+1:]...)
			return true
		}
	}
	return false
}

// Active returns unexpired notifications, oldest first, pruning expired ones
func (c *Center) Active() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	kept := c.active[:0]
	for _, n := range c.active {
		if now.Before(n.ExpiresAt) {
			kept = append(kept, n)
		}
	}
	c.active = kept
	return append([]Notification(nil), kept...)
}

// Discard drops every notification
type Discard struct{}

func (Discard) Push(Notification) uint64 { return 0 }
