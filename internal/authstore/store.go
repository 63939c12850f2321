// Package authstore keeps the client's view of who is signed in.
//
// The store is a cache of the server's session state, not a source of truth.
// After every completed operation IsAuthenticated() == (User() != nil).
package authstore

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/NicholasWachira-OSN/OSN-V2/internal/apiclient"
)

// API is the subset of the API client the store drives.
type API interface {
	Register(ctx context.Context, req apiclient.RegisterRequest) (*apiclient.User, error)
	Login(ctx context.Context, creds apiclient.Credentials) (*apiclient.User, error)
	Logout(ctx context.Context) error
	User(ctx context.Context) (*apiclient.User, error)
}

// FetchOutcome tags how a FetchUser call ended.
type FetchOutcome int

const (
	// FetchSucceeded means the server returned the current user.
	FetchSucceeded FetchOutcome = iota
	// FetchUnauthenticated means the server answered 401.
	FetchUnauthenticated
	// FetchNetworkError covers every other failure, including transport
	// errors, non-401 statuses and the caller's context ending.
	FetchNetworkError
)

func (o FetchOutcome) String() string {
	switch o {
	case FetchSucceeded:
		return "succeeded"
	case FetchUnauthenticated:
		return "unauthenticated"
	case FetchNetworkError:
		return "network_error"
	default:
		return "unknown"
	}
}

// FetchResult is what FetchUser reports. Both failure outcomes leave the
// store in the same cleared state.
type FetchResult struct {
	Outcome FetchOutcome
	User    *apiclient.User
	Err     error
}

// Snapshot is a point-in-time copy of the store state.
type Snapshot struct {
	User            *apiclient.User
	IsAuthenticated bool
	Loading         bool
}

type fetchCall struct {
	done   chan struct{}
	result FetchResult
}

// Store holds the signed-in user. It is safe for concurrent use, but
// LoginUser or LogoutUser racing a FetchUser has no defined order.
type Store struct {
	api API
	log zerolog.Logger

	mu            sync.Mutex
	user          *apiclient.User
	authenticated bool
	inflight      *fetchCall
}

// New creates an empty, signed-out store.
func New(api API, log zerolog.Logger) *Store {
	return &Store{
		api: api,
		log: log.With().Str("component", "authstore").Logger(),
	}
}

// RegisterUser creates an account. Local state is left untouched; call
// FetchUser afterwards to pick up the session the server started.
func (s *Store) RegisterUser(ctx context.Context, req apiclient.RegisterRequest) (*apiclient.User, error) {
	return s.api.Register(ctx, req)
}

// LoginUser signs in. On success the user is exactly the login payload; on
// any failure the store is cleared and the error returned.
func (s *Store) LoginUser(ctx context.Context, creds apiclient.Credentials) (*apiclient.User, error) {
	user, err := s.api.Login(ctx, creds)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.clearLocked()
		return nil, err
	}
	s.setLocked(user)
	return cloneUser(user), nil
}

// LogoutUser signs out. The store ends cleared even when the call fails; the
// failure is still returned.
func (s *Store) LogoutUser(ctx context.Context) error {
	err := s.api.Logout(ctx)

	s.mu.Lock()
	s.clearLocked()
	s.mu.Unlock()
	return err
}

// FetchUser restores the user from the server session. Concurrent callers
// share one in-flight request and receive the same result. Failures clear
// the store and are reported through the result, never as a panic or a
// separate error.
//
// The request itself is detached from ctx: once started it runs to
// completion and updates the store. A caller whose ctx ends first stops
// waiting and gets FetchNetworkError with ctx's error.
func (s *Store) FetchUser(ctx context.Context) FetchResult {
	s.mu.Lock()
	call := s.inflight
	if call == nil {
		call = &fetchCall{done: make(chan struct{})}
		s.inflight = call
		go s.runFetch(context.WithoutCancel(ctx), call)
	}
	s.mu.Unlock()

	select {
	case <-call.done:
		return call.result
	case <-ctx.Done():
		return FetchResult{Outcome: FetchNetworkError, Err: ctx.Err()}
	}
}

func (s *Store) runFetch(ctx context.Context, call *fetchCall) {
	user, err := s.api.User(ctx)

	var result FetchResult
	switch {
	case err == nil && user != nil:
		result = FetchResult{Outcome: FetchSucceeded, User: cloneUser(user)}
	case errors.Is(err, apiclient.ErrUnauthenticated):
		result = FetchResult{Outcome: FetchUnauthenticated, Err: err}
	case err == nil:
		result = FetchResult{Outcome: FetchNetworkError, Err: errors.New("authstore: empty user payload")}
	default:
		result = FetchResult{Outcome: FetchNetworkError, Err: err}
	}

	s.mu.Lock()
	if result.Outcome == FetchSucceeded {
		s.setLocked(user)
	} else {
		s.clearLocked()
	}
	s.inflight = nil
	call.result = result
	s.mu.Unlock()
	close(call.done)

	s.log.Debug().
		Stringer("outcome", result.Outcome).
		AnErr("error", result.Err).
		Msg("session restore finished")
}

func (s *Store) setLocked(user *apiclient.User) {
	s.user = cloneUser(user)
	s.authenticated = true
}

func (s *Store) clearLocked() {
	s.user = nil
	s.authenticated = false
}

// User returns a copy of the signed-in user, or nil.
func (s *Store) User() *apiclient.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneUser(s.user)
}

// HasUser reports whether a user is cached.
func (s *Store) HasUser() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// IsAuthenticated reports the authenticated flag.
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

// Loading reports whether a FetchUser request is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight != nil
}

// Snapshot reads every field under one lock.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		User:            cloneUser(s.user),
		IsAuthenticated: s.authenticated,
		Loading:         s.inflight != nil,
	}
}

func cloneUser(u *apiclient.User) *apiclient.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
