// Package commentstore caches comment threads per post and keeps them in step
// with the remote service using optimistic adds and deletes.
package commentstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bluesky-social/indigo/atproto/syntax"
	"go.uber.org/zap"

	"Pixboard/internal/client/keylock"
	"Pixboard/internal/client/remote"
	"Pixboard/internal/core/comments"
)

// ProvisionalPrefix marks comment IDs generated locally before the server confirms them
const ProvisionalPrefix = "tmp-"

const (
	resourceFetch  = "comments"
	resourceDelete = "delete"
)

// IsProvisional reports whether id was generated locally
func IsProvisional(id string) bool {
	return strings.HasPrefix(id, ProvisionalPrefix)
}

// ThreadState is a snapshot of one post's thread
type ThreadState struct {
	DeletingCommentID string
	Comments          []comments.Comment
	Loading           bool
	Loaded            bool
}

type thread struct {
	deleting string
	comments []comments.Comment
	loading  bool
	loaded   bool
}

func (t *thread) snapshot() ThreadState {
	return ThreadState{
		Comments:          append([]comments.Comment(nil), t.comments...),
		Loading:           t.loading,
		Loaded:            t.loaded,
		DeletingCommentID: t.deleting,
	}
}

func (t *thread) indexOf(id string) int {
	for i, c := range t.comments {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Store holds comment threads for every post the session has expanded
type Store struct {
	remote    remote.Service
	logger    *zap.SugaredLogger
	now       func() time.Time
	threads   map[string]*thread
	removed   map[string]struct{}
	listeners map[int]func(postID string)
	gate      keylock.Gate
	nextSub   int
	mu        sync.Mutex
}

// New creates an empty store backed by svc
func New(svc remote.Service, logger *zap.SugaredLogger) *Store {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Store{
		remote:    svc,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
		threads:   make(map[string]*thread),
		removed:   make(map[string]struct{}),
		listeners: make(map[int]func(string)),
	}
}

// threadLocked returns the post's thread, creating it on first use; caller holds mu
func (s *Store) threadLocked(postID string) *thread {
	th, ok := s.threads[postID]
	if !ok {
		th = &thread{}
		s.threads[postID] = th
	}
	return th
}

// FetchComments loads a post's thread. It is a no-op while the thread is
// loading or once it has loaded.
func (s *Store) FetchComments(ctx context.Context, postID string) error {
	key := keylock.Key(postID, resourceFetch)

	s.mu.Lock()
	if _, gone := s.removed[postID]; gone {
		s.mu.Unlock()
		return ErrPostRemoved
	}
	th := s.threadLocked(postID)
	if th.loaded || th.loading {
		s.mu.Unlock()
		return nil
	}
	tok, err := s.gate.TryAcquire(key)
	if err != nil {
		s.mu.Unlock()
		return nil
	}
	th.loading = true
	s.mu.Unlock()
	s.notify(postID)

	list, err := s.remote.ListComments(ctx, postID)

	s.mu.Lock()
	if !s.gate.Release(key, tok) || s.threads[postID] != th {
		s.mu.Unlock()
		s.logger.Debugw("dropping comment fetch for forgotten thread", "post", postID)
		return err
	}
	th.loading = false
	if err != nil {
		s.mu.Unlock()
		s.notify(postID)
		s.logger.Warnw("failed to fetch comments", "post", postID, "error", err)
		return err
	}

	// adds still in flight stay after the server's thread
	fresh := make([]comments.Comment, 0, len(list))
	fresh = append(fresh, list...)
	for _, c := range th.comments {
		if IsProvisional(c.ID) {
			fresh = append(fresh, c)
		}
	}
	th.comments = fresh
	th.loaded = true
	s.mu.Unlock()
	s.notify(postID)

	s.logger.Debugw("comments loaded", "post", postID, "count", len(list))
	return nil
}

// AddComment appends a provisional comment, sends it, and swaps in the
// server's copy on success. On failure the provisional entry is removed.
func (s *Store) AddComment(ctx context.Context, postID, authorID, body string) (comments.Comment, error) {
	if err := comments.ValidateBody(body); err != nil {
		if errors.Is(err, comments.ErrContentEmpty) {
			return comments.Comment{}, ErrEmptyBody
		}
		return comments.Comment{}, ErrBodyTooLong
	}

	provisional := comments.Comment{
		ID:        ProvisionalPrefix + syntax.NewTIDNow(0).String(),
		PostID:    postID,
		AuthorID:  authorID,
		Body:      body,
		CreatedAt: s.now(),
	}

	s.mu.Lock()
	if _, gone := s.removed[postID]; gone {
		s.mu.Unlock()
		return comments.Comment{}, ErrPostRemoved
	}
	th := s.threadLocked(postID)
	th.comments = append(th.comments, provisional)
	s.mu.Unlock()
	s.notify(postID)

	created, err := s.remote.CreateComment(ctx, postID, body)

	s.mu.Lock()
	if s.threads[postID] != th {
		s.mu.Unlock()
		s.logger.Debugw("dropping comment add for forgotten thread", "post", postID)
		if err != nil {
			return comments.Comment{}, err
		}
		return created, nil
	}

	idx := th.indexOf(provisional.ID)
	if err != nil {
		if idx >= 0 {
			th.comments = append(th.comments[:idx:idx], th.comments[idx+1:]...)
		}
		s.mu.Unlock()
		s.notify(postID)
		s.logger.Warnw("failed to add comment", "post", postID, "error", err)
		return comments.Comment{}, err
	}

	switch {
	case th.indexOf(created.ID) >= 0:
		// a fetch that finished first already brought the server copy
		if idx >= 0 {
			th.comments = append(th.comments[:idx:idx], th.comments[idx+1:]...)
		}
	case idx >= 0:
		th.comments[idx] = created
	default:
		th.comments = append(th.comments, created)
	}
	s.mu.Unlock()
	s.notify(postID)

	s.logger.Debugw("comment confirmed", "post", postID, "comment", created.ID)
	return created, nil
}

// DeleteComment removes a confirmed comment optimistically. Only one delete
// per thread may be in flight; on failure the comment is restored at its index.
func (s *Store) DeleteComment(ctx context.Context, postID, commentID string) error {
	key := keylock.Key(postID, resourceDelete)

	s.mu.Lock()
	if s.gate.Busy(key) {
		s.mu.Unlock()
		return ErrDeleteInProgress
	}
	th, ok := s.threads[postID]
	if !ok || IsProvisional(commentID) || th.indexOf(commentID) < 0 {
		s.mu.Unlock()
		return ErrUnknownComment
	}
	tok, err := s.gate.TryAcquire(key)
	if err != nil {
		s.mu.Unlock()
		return ErrDeleteInProgress
	}
	idx := th.indexOf(commentID)
	removed := th.comments[idx]
	th.comments = append(th.comments[:idx:idx], th.comments[idx+1:]...)
	th.deleting = commentID
	s.mu.Unlock()
	s.notify(postID)

	err = s.remote.DeleteComment(ctx, postID, commentID)

	s.mu.Lock()
	if !s.gate.Release(key, tok) || s.threads[postID] != th {
		s.mu.Unlock()
		s.logger.Debugw("dropping comment delete for forgotten thread", "post", postID, "comment", commentID)
		return err
	}
	th.deleting = ""
	if err != nil {
		if th.indexOf(commentID) < 0 {
			at := min(idx, len(th.comments))
			th.comments = append(th.comments[:at:at], append([]comments.Comment{removed}, th.comments[at:]...)...)
		}
		s.mu.Unlock()
		s.notify(postID)
		s.logger.Warnw("failed to delete comment", "post", postID, "comment", commentID, "error", err)
		return err
	}
	// a fetch that completed meanwhile may have brought it back
	if i := th.indexOf(commentID); i >= 0 {
		th.comments = append(th.comments[:i:i], th.comments[i+1:]...)
	}
	s.mu.Unlock()
	s.notify(postID)

	s.logger.Debugw("comment deleted", "post", postID, "comment", commentID)
	return nil
}

// Thread returns a snapshot of a post's thread, false if it was never touched
func (s *Store) Thread(postID string) (ThreadState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	th, ok := s.threads[postID]
	if !ok {
		return ThreadState{}, false
	}
	return th.snapshot(), true
}

// Forget drops a post's thread. Responses still in flight for it are discarded.
func (s *Store) Forget(postID string) {
	s.mu.Lock()
	_, existed := s.threads[postID]
	delete(s.threads, postID)
	s.gate.Forget(keylock.Key(postID, resourceFetch))
	s.gate.Forget(keylock.Key(postID, resourceDelete))
	s.mu.Unlock()

	if existed {
		s.notify(postID)
	}
}

// Remove drops a deleted post's thread and refuses any later fetch or add
// for it, so no other view can bring the thread back.
func (s *Store) Remove(postID string) {
	s.mu.Lock()
	s.removed[postID] = struct{}{}
	s.mu.Unlock()

	s.Forget(postID)
}

// Len returns the number of threads held
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.threads)
}

// Subscribe registers fn to be called with a post ID whenever that post's
// thread changes. The returned func unregisters it.
func (s *Store) Subscribe(fn func(postID string)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.listeners[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.listeners, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) notify(postID string) {
	s.mu.Lock()
	fns := make([]func(string), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(postID)
	}
}

// String is used in debug logs
func (t ThreadState) String() string {
	return fmt.Sprintf("thread(comments=%d loading=%t loaded=%t deleting=%q)",
		len(t.Comments), t.Loading, t.Loaded, t.DeletingCommentID)
}
