// Package session ties the core together for one signed-in user: the item
// store, the mutation engine, the subscription bridge and the view selection
// are built on SignIn and torn down on SignOut.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Makepad-fr/tada/internal/bridge"
	"github.com/Makepad-fr/tada/internal/itemstore"
	"github.com/Makepad-fr/tada/internal/migrate"
	"github.com/Makepad-fr/tada/internal/optimistic"
	"github.com/Makepad-fr/tada/internal/query"
	"github.com/Makepad-fr/tada/internal/remote"
)

var ErrNoUser = errors.New("session: user id is required")

// User identifies whose collection is open.
type User struct {
	ID    string
	Name  string
	Email string
}

// Label is the name shown for the user, falling back to email then id.
func (u User) Label() string {
	switch {
	case u.Name != "":
		return u.Name
	case u.Email != "":
		return u.Email
	default:
		return u.ID
	}
}

type settings struct {
	log        zerolog.Logger
	render     optimistic.RenderFunc
	legacy     migrate.Source
	now        func() time.Time
	live       bool
	engineOpts []optimistic.Option
}

type Option func(*settings)

func WithLogger(l zerolog.Logger) Option { return func(s *settings) { s.log = l } }

// WithRender sets the function called after every local change and every push.
func WithRender(f optimistic.RenderFunc) Option { return func(s *settings) { s.render = f } }

// WithLegacyImport imports src into the collection before the first read.
func WithLegacyImport(src migrate.Source) Option { return func(s *settings) { s.legacy = src } }

// WithoutSubscriptions skips the live bridge, for one-shot CLI commands.
func WithoutSubscriptions() Option { return func(s *settings) { s.live = false } }

func WithEngineOptions(opts ...optimistic.Option) Option {
	return func(s *settings) { s.engineOpts = append(s.engineOpts, opts...) }
}

func WithClock(now func() time.Time) Option { return func(s *settings) { s.now = now } }

// Session is one user's live state.
type Session struct {
	User      User
	Store     *itemstore.Store
	Engine    *optimistic.Engine
	Bridge    *bridge.Bridge
	Selection *query.Selection

	remote  remote.Collection
	render  optimistic.RenderFunc
	now     func() time.Time
	log     zerolog.Logger
	loadErr error
}

// SignIn opens coll for user. Read and subscription failures are logged and
// leave the store empty; they do not fail the sign-in.
func SignIn(ctx context.Context, user User, coll remote.Collection, opts ...Option) (*Session, error) {
	if user.ID == "" {
		return nil, ErrNoUser
	}
	if coll == nil {
		return nil, errors.New("session: nil collection")
	}
	st := settings{log: zerolog.Nop(), now: time.Now, live: true}
	for _, o := range opts {
		o(&st)
	}
	render := st.render
	if render == nil {
		render = func(optimistic.View) {}
	}
	log := st.log.With().Str("user", user.ID).Logger()

	store := itemstore.New()
	sel := query.NewSelection(st.now())
	engineOpts := append([]optimistic.Option{
		optimistic.WithSelection(sel),
		optimistic.WithClock(st.now),
	}, st.engineOpts...)

	s := &Session{
		User:      user,
		Store:     store,
		Engine:    optimistic.New(store, coll, render, log, engineOpts...),
		Bridge:    bridge.New(store, coll, render, log),
		Selection: sel,
		remote:    coll,
		render:    render,
		now:       st.now,
		log:       log,
	}

	if st.legacy != nil {
		if res, err := migrate.Import(ctx, st.legacy, coll, log); err != nil {
			log.Error().Err(err).Msg("legacy import failed")
		} else if res.Items > 0 || res.Categories > 0 {
			log.Info().Int("items", res.Items).Int("categories", res.Categories).Msg("legacy data imported")
		}
	}

	s.load(ctx)
	render(optimistic.ViewCategories)
	render(optimistic.ViewItems)

	if st.live {
		if err := s.Bridge.Start(ctx); err != nil {
			log.Error().Err(err).Msg("live updates unavailable")
		}
	}
	log.Debug().Int("items", store.Len()).Msg("signed in")
	return s, nil
}

func (s *Session) load(ctx context.Context) {
	items, itemsErr := s.remote.ReadAll(ctx)
	if itemsErr != nil {
		s.log.Error().Err(itemsErr).Msg("initial read failed")
	} else {
		s.Store.ReplaceItems(items)
	}
	labels, labelsErr := s.remote.ReadCategories(ctx)
	if labelsErr != nil {
		s.log.Error().Err(labelsErr).Msg("initial category read failed")
	} else {
		s.Store.ReplaceCategories(labels)
	}
	s.loadErr = errors.Join(itemsErr, labelsErr)
}

// LoadErr is the error of the one-time read at sign-in, if any. The session
// is usable either way; callers that print a snapshot, like the CLI, should
// refuse to work from an empty store that only failed to load.
func (s *Session) LoadErr() error { return s.loadErr }

// SignOut stops live updates and clears local state. Writes already issued
// still reach the remote, but a failed one no longer touches the store.
func (s *Session) SignOut() {
	s.Engine.Detach()
	s.Bridge.Stop()
	s.Store.Clear()
	s.Selection.Reset(s.now())
	s.render(optimistic.ViewCategories)
	s.render(optimistic.ViewItems)
	s.log.Debug().Msg("signed out")
}

// Close waits for in-flight writes, then signs out.
func (s *Session) Close(ctx context.Context) error {
	err := s.Engine.AwaitSettled(ctx)
	s.SignOut()
	return err
}
