// Package session tracks the authenticated identity and keeps its profile
// document live.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/heartmarshall/interestingtome-backend/internal/docstore"
	"github.com/heartmarshall/interestingtome-backend/internal/domain"
)

type profileRepo interface {
	GetByID(ctx context.Context, id string) (*domain.UserProfile, error)
	Create(ctx context.Context, p domain.UserProfile) error
	Subscribe(ctx context.Context, id string, onData func(*domain.UserProfile), onError func(error)) (docstore.Subscription, error)
}

// State is a snapshot of the session. Identity is nil when nobody is signed
// in. Profile is nil until the profile document has been read.
type State struct {
	Identity *domain.Identity
	Profile  *domain.UserProfile
	Ready    bool
}

// UserID returns the signed-in user ID, or "".
func (s State) UserID() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.UserID
}

// HasProfile reports whether both the identity and its profile are known.
func (s State) HasProfile() bool {
	return s.Ready && s.Identity != nil && s.Profile != nil
}

// Provider publishes session state to its watchers. Watchers receive every
// change in order. A watcher must not call SignIn or SignOut.
type Provider struct {
	log      *slog.Logger
	profiles profileRepo

	// notifyMu is held while a state change is published so watchers never
	// see two changes out of order.
	notifyMu sync.Mutex

	mu       sync.Mutex
	state    State
	gen      uint64
	sub      docstore.Subscription
	watchers map[int]func(State)
	nextID   int
}

// NewProvider creates a Provider in the not-ready state.
func NewProvider(log *slog.Logger, profiles profileRepo) *Provider {
	return &Provider{
		log:      log.With("service", "session"),
		profiles: profiles,
		watchers: make(map[int]func(State)),
	}
}

// Current returns the latest state.
func (p *Provider) Current() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Watch calls fn with the current state and then with every change until
// the returned cancel function is called.
func (p *Provider) Watch(fn func(State)) (cancel func()) {
	p.notifyMu.Lock()
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.watchers[id] = fn
	st := p.state
	p.mu.Unlock()
	fn(st)
	p.notifyMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.watchers, id)
			p.mu.Unlock()
		})
	}
}

// SignIn makes identity the current user. The profile is created with
// defaults on first authentication and then followed live. A later SignIn
// or SignOut supersedes one still in progress.
func (p *Provider) SignIn(ctx context.Context, identity domain.Identity) error {
	if identity.IsZero() {
		return domain.ErrUnauthorized
	}
	id := identity

	gen := p.update(func(st *State) {
		*st = State{Identity: &id}
	})

	profile, err := p.loadOrCreate(ctx, identity)
	if err != nil {
		p.log.ErrorContext(ctx, "load profile",
			slog.String("user_id", identity.UserID),
			slog.String("error", err.Error()),
		)
		return err
	}
	if !p.isCurrent(gen) {
		return nil
	}

	sub, err := p.profiles.Subscribe(context.WithoutCancel(ctx), identity.UserID,
		func(prof *domain.UserProfile) { p.onProfile(gen, prof) },
		func(err error) { p.onProfileError(gen, err) },
	)
	if err != nil {
		p.log.ErrorContext(ctx, "subscribe profile",
			slog.String("user_id", identity.UserID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("subscribe profile: %w", err)
	}

	p.notifyMu.Lock()
	p.mu.Lock()
	if p.gen != gen {
		p.mu.Unlock()
		p.notifyMu.Unlock()
		sub.Close()
		return nil
	}
	p.sub = sub
	changed := false
	// The live subscription may already have delivered a newer profile.
	if !p.state.Ready {
		p.state.Profile = profile
		p.state.Ready = true
		changed = true
	}
	st, ws := p.state, p.watcherList()
	p.mu.Unlock()
	if changed {
		for _, fn := range ws {
			fn(st)
		}
	}
	p.notifyMu.Unlock()

	p.log.InfoContext(ctx, "signed in", slog.String("user_id", identity.UserID))
	return nil
}

// SignOut ends the session and publishes a ready, anonymous state.
func (p *Provider) SignOut() {
	p.update(func(st *State) {
		*st = State{Ready: true}
	})
}

// Close stops following the profile document. The state is left as is.
func (p *Provider) Close() {
	p.mu.Lock()
	p.gen++
	sub := p.sub
	p.sub = nil
	p.mu.Unlock()
	if sub != nil {
		sub.Close()
	}
}

func (p *Provider) loadOrCreate(ctx context.Context, identity domain.Identity) (*domain.UserProfile, error) {
	profile, err := p.profiles.GetByID(ctx, identity.UserID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	created := domain.NewProfile(identity)
	if err := p.profiles.Create(ctx, created); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	p.log.InfoContext(ctx, "profile created",
		slog.String("user_id", identity.UserID),
		slog.String("display_name", created.DisplayName),
	)
	return &created, nil
}

func (p *Provider) onProfile(gen uint64, prof *domain.UserProfile) {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	if p.gen != gen {
		p.mu.Unlock()
		return
	}
	p.state.Profile = prof
	p.state.Ready = true
	st, ws := p.state, p.watcherList()
	p.mu.Unlock()

	for _, fn := range ws {
		fn(st)
	}
}

func (p *Provider) onProfileError(gen uint64, err error) {
	if !p.isCurrent(gen) {
		return
	}
	p.log.Error("profile subscription ended", slog.String("error", err.Error()))
}

// update applies fn to the state under a new generation, closes the
// previous profile subscription and publishes the result.
func (p *Provider) update(fn func(*State)) uint64 {
	p.notifyMu.Lock()
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	p.gen++
	gen := p.gen
	old := p.sub
	p.sub = nil
	fn(&p.state)
	st, ws := p.state, p.watcherList()
	p.mu.Unlock()

	if old != nil {
		old.Close()
	}
	for _, w := range ws {
		w(st)
	}
	return gen
}

func (p *Provider) isCurrent(gen uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.gen == gen
}

// watcherList must be called with mu held.
func (p *Provider) watcherList() []func(State) {
	ws := make([]func(State), 0, len(p.watchers))
	for _, id := range slices.Sorted(maps.Keys(p.watchers)) {
		ws = append(ws, p.watchers[id])
	}
	return ws
}
