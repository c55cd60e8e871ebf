package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Makepad-fr/tada/internal/auth"
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/optimistic"
	"github.com/Makepad-fr/tada/internal/remote"
	"github.com/Makepad-fr/tada/internal/remote/httpremote"
	"github.com/Makepad-fr/tada/internal/remote/jsonfile"
	"github.com/Makepad-fr/tada/internal/remote/memremote"
	"github.com/Makepad-fr/tada/internal/remote/sqlitestore"
	"github.com/Makepad-fr/tada/internal/session"
)

// localUser owns the collection of every single-user backend.
const localUser = "local"

const cloudTimeout = 15 * time.Second

var ErrNotLoggedIn = errors.New("not logged in; run `tada auth login` or set TADA_TOKEN")

// backend is an opened collection and whatever must be released with it.
type backend struct {
	coll   remote.Collection
	user   session.User
	legacy *jsonfile.Store
	close  func() error
}

func (a *App) openBackend(ctx context.Context) (*backend, error) {
	cfg := a.cfg
	nop := func() error { return nil }
	switch cfg.Backend {
	case config.BackendMemory:
		return &backend{coll: memremote.New().Collection(localUser), user: session.User{ID: localUser}, close: nop}, nil

	case config.BackendJSON:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("data dir: %w", err)
		}
		return &backend{coll: jsonfile.New(cfg.DataDir), user: session.User{ID: localUser}, close: nop}, nil

	case config.BackendSQLite:
		db, err := sqlitestore.Open(ctx, cfg.ResolvedSQLitePath())
		if err != nil {
			return nil, err
		}
		return &backend{coll: db.Collection(localUser), user: session.User{ID: localUser}, close: db.Close}, nil

	case config.BackendCloud:
		ti, err := a.credentials().Get()
		if err != nil {
			return nil, err
		}
		if ti == nil || ti.Token == "" {
			return nil, ErrNotLoggedIn
		}
		if ti.Expired(time.Now()) {
			return nil, fmt.Errorf("token expired at %s; run `tada auth login`", ti.ExpiresAt.Format(time.RFC3339))
		}
		claims, err := auth.Decode(ti.Token)
		if err != nil {
			return nil, err
		}
		if claims.Subject == "" {
			return nil, auth.ErrNoSubject
		}
		b := &backend{
			coll: httpremote.New(cfg.CloudURL, ti.Token,
				httpremote.WithLogger(a.log),
				httpremote.WithTimeout(cloudTimeout)),
			user:  session.User{ID: claims.Subject, Name: claims.Name, Email: claims.Email},
			close: nop,
		}
		if legacy := jsonfile.New(cfg.DataDir); hasData(legacy) {
			b.legacy = legacy
		}
		return b, nil
	}
	return nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
}

func hasData(s *jsonfile.Store) bool {
	ok, err := s.HasData()
	return err == nil && ok
}

func (a *App) credentials() *auth.Credentials {
	dir, err := a.cfg.ResolvedCredentialsDir()
	if err != nil {
		dir = ".tada"
	}
	return auth.NewCredentials(dir)
}

// failures collects write errors reported by the engine's settle hook.
type failures struct {
	mu   sync.Mutex
	errs []error
}

func (f *failures) hook(m optimistic.Mutation, err error, rolledBack bool) {
	if err == nil {
		return
	}
	if rolledBack {
		err = fmt.Errorf("%s was reverted: %w", m.Kind, err)
	}
	f.mu.Lock()
	f.errs = append(f.errs, err)
	f.mu.Unlock()
}

func (f *failures) err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return errors.Join(f.errs...)
}

// oneShot is a session for a single CLI command: no live updates, and
// closing it waits for every write to land.
type oneShot struct {
	*session.Session
	b        *backend
	failures *failures
}

func (a *App) openOneShot(ctx context.Context) (*oneShot, error) {
	b, err := a.openBackend(ctx)
	if err != nil {
		return nil, err
	}
	f := &failures{}
	opts := []session.Option{
		session.WithLogger(a.log),
		session.WithoutSubscriptions(),
		session.WithEngineOptions(optimistic.WithSettleHook(f.hook)),
	}
	if b.legacy != nil {
		opts = append(opts, session.WithLegacyImport(b.legacy))
	}
	s, err := session.SignIn(ctx, b.user, b.coll, opts...)
	if err != nil {
		_ = b.close()
		return nil, err
	}
	o := &oneShot{Session: s, b: b, failures: f}
	if err := s.LoadErr(); err != nil {
		_ = o.finish(ctx)
		return nil, fmt.Errorf("load todos: %w", err)
	}
	return o, nil
}

// finish waits for pending writes and reports any that failed.
func (o *oneShot) finish(ctx context.Context) error {
	waitErr := o.Close(ctx)
	closeErr := o.b.close()
	return errors.Join(waitErr, o.failures.err(), closeErr)
}
