// Package formsession keeps open forms on the server between requests.
//
// Each browser or admin (the owner) holds at most one open session per
// registry. Opening a new one closes the previous session, and any late
// result addressed to a closed session is discarded by its caller.
package formsession

import (
	"errors"
	"sync"
	"time"

	"github.com/dalemusser/eventhub/internal/app/system/formengine"
	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("form session not found")
	ErrClosed         = errors.New("form session closed")
	ErrSubmitInFlight = errors.New("a submit is already in progress")
	// ErrSuperseded is returned by Open when the same owner opened another
	// session while this one was still being built.
	ErrSuperseded = errors.New("form session superseded")
)

// Scope records what a session is for.
type Scope struct {
	Kind           string // "register" or "edit"
	OrganizationID string
	SubjectID      string // edited user, empty for registration
	PositionID     string
	RoleID         string
}

// Session is one open form. All methods are safe for concurrent use.
type Session struct {
	ID    string
	Owner string
	Scope Scope

	mu         sync.Mutex
	form       *formengine.Form
	touched    time.Time
	closed     bool
	submitting bool
	gen        uint64
}

// Ticket authorizes one submit. Form may be read by the ticket holder
// until FinishSubmit; the session rejects other access meanwhile.
type Ticket struct {
	Form *formengine.Form
	gen  uint64
}

// Do runs fn with exclusive access to the form.
func (s *Session) Do(fn func(f *formengine.Form) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.submitting {
		return ErrSubmitInFlight
	}
	return fn(s.form)
}

// BeginSubmit marks a submit in flight.
func (s *Session) BeginSubmit() (Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Ticket{}, ErrClosed
	}
	if s.submitting {
		return Ticket{}, ErrSubmitInFlight
	}
	s.submitting = true
	s.gen++
	return Ticket{Form: s.form, gen: s.gen}, nil
}

// FinishSubmit ends the submit started with t and reports whether its
// result may still be applied. It is false once the session was closed or
// replaced in the meantime.
func (s *Session) FinishSubmit(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.gen == s.gen {
		s.submitting = false
	}
	return !s.closed && t.gen == s.gen
}

// Closed reports whether the session was closed.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Registry indexes open sessions by ID and by owner.
type Registry struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	byID    map[string]*Session
	byOwner map[string]*Session
	opening map[string]uint64
	seq     uint64
}

// NewRegistry creates a registry whose sessions expire after ttl without use.
func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		ttl:     ttl,
		now:     time.Now,
		byID:    make(map[string]*Session),
		byOwner: make(map[string]*Session),
		opening: make(map[string]uint64),
	}
}

// Open builds a form and registers it as owner's only session. build runs
// without the registry lock; if owner calls Open again before it returns,
// the older call fails with ErrSuperseded and its form is dropped.
func (r *Registry) Open(owner string, scope Scope, build func() (*formengine.Form, error)) (*Session, error) {
	r.mu.Lock()
	r.seq++
	mine := r.seq
	r.opening[owner] = mine
	r.mu.Unlock()

	form, err := build()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.opening[owner] != mine {
		return nil, ErrSuperseded
	}
	delete(r.opening, owner)
	if err != nil {
		return nil, err
	}

	if prev, ok := r.byOwner[owner]; ok {
		prev.close()
		delete(r.byID, prev.ID)
	}
	s := &Session{
		ID:      uuid.NewString(),
		Owner:   owner,
		Scope:   scope,
		form:    form,
		touched: r.now(),
	}
	r.byID[s.ID] = s
	r.byOwner[owner] = s
	return s, nil
}

// Get returns the live session with id and marks it used.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := r.now()
	s.mu.Lock()
	expired := now.Sub(s.touched) > r.ttl
	if !expired {
		s.touched = now
	}
	s.mu.Unlock()
	if expired {
		r.removeLocked(s)
		return nil, ErrNotFound
	}
	return s, nil
}

// Close closes and forgets the session with id. Closing an unknown id is
// not an error.
func (r *Registry) Close(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.byID[id]; ok {
		r.removeLocked(s)
	}
}

// Sweep closes every session idle for longer than the TTL and returns how
// many it removed.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	n := 0
	for _, s := range r.byID {
		s.mu.Lock()
		idle := now.Sub(s.touched) > r.ttl
		s.mu.Unlock()
		if idle {
			r.removeLocked(s)
			n++
		}
	}
	return n
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

func (r *Registry) removeLocked(s *Session) {
	s.close()
	delete(r.byID, s.ID)
	if r.byOwner[s.Owner] == s {
		delete(r.byOwner, s.Owner)
	}
}
