package votes

import (
	"fmt"
	"time"
)

// Direction is a voter's stance on a post.
type Direction string

const (
	DirectionNone Direction = "none"
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// ParseDirection accepts "up", "down", "none" and the empty string (treated as none).
func ParseDirection(s string) (Direction, error) {
	switch Direction(s) {
	case DirectionUp, DirectionDown, DirectionNone:
		return Direction(s), nil
	case "":
		return DirectionNone, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// IsClickable reports whether d is a direction a user can click (up or down).
func (d Direction) IsClickable() bool {
	return d == DirectionUp || d == DirectionDown
}

// Tally is the pair of upvote/downvote counts for a post.
type Tally struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}

// Score returns upvotes minus downvotes.
func (t Tally) Score() int {
	return t.Upvotes - t.Downvotes
}

// Apply moves one voter from direction `from` to direction `to` and returns the adjusted tally.
// Counts never go below zero.
func (t Tally) Apply(from, to Direction) Tally {
	if from == to {
		return t
	}
	switch from {
	case DirectionUp:
		t.Upvotes = max(t.Upvotes-1, 0)
	case DirectionDown:
		t.Downvotes = max(t.Downvotes-1, 0)
	}
	switch to {
	case DirectionUp:
		t.Upvotes++
	case DirectionDown:
		t.Downvotes++
	}
	return t
}

// Transition returns the direction a voter ends up in after clicking `clicked`
// while currently holding `current`. Re-clicking the active direction retracts the vote.
func Transition(current, clicked Direction) Direction {
	if current == clicked {
		return DirectionNone
	}
	return clicked
}

// Vote is a single voter's stored stance on a post.
type Vote struct {
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
	PostID    string    `json:"postId" db:"post_id"`
	VoterID   string    `json:"voterId" db:"voter_id"`
	Direction Direction `json:"direction" db:"direction"`
}

// CastVoteRequest is the body of POST /api/posts/{postID}/vote.
// Direction is the target stance; "none" retracts.
type CastVoteRequest struct {
	Direction Direction `json:"direction"`
}

// VoteResult is the canonical state returned after a vote mutation.
type VoteResult struct {
	Upvotes   int       `json:"upvotes"`
	Downvotes int       `json:"downvotes"`
	Direction Direction `json:"callerDirection"`
}

// Tally returns the result's counts as a Tally.
func (r VoteResult) Tally() Tally {
	return Tally{Upvotes: r.Upvotes, Downvotes: r.Downvotes}
}
