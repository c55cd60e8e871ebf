// Package optimistic applies user changes local-first: the item store and the
// screen change immediately, the remote write follows in the background, and
// a failed write is undone by a compensating action matched by item id.
package optimistic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Makepad-fr/tada/internal/itemstore"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/query"
	"github.com/Makepad-fr/tada/internal/remote"
)

// View is the part of the screen a change affects.
type View int

const (
	ViewItems View = iota
	ViewCategories
)

func (v View) String() string {
	if v == ViewCategories {
		return "categories"
	}
	return "items"
}

// RenderFunc redraws a view. It is called outside every lock, from the
// caller's goroutine for local changes and from a write goroutine after a
// rollback.
type RenderFunc func(View)

// ErrEmptyText is wrapped by the ValidationError Create returns for blank text.
var ErrEmptyText = model.ErrEmptyText

// ErrDetached is returned by Create once the engine has been detached.
var ErrDetached = errors.New("optimistic: engine detached from its store")

// ValidationError rejects input before anything is mutated.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// SettleFunc observes every remote write once it completes. err is nil on
// success; rolledBack reports whether a compensation changed local state.
type SettleFunc func(m Mutation, err error, rolledBack bool)

type Option func(*Engine)

// WithCategoryRollback undoes category registrations and removals whose
// write failed. Without it a failed category write is only logged and the
// next category snapshot settles the list.
func WithCategoryRollback() Option {
	return func(e *Engine) { e.categoryRollback = true }
}

func WithSettleHook(f SettleFunc) Option {
	return func(e *Engine) { e.onSettle = f }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDs replaces uuid.NewString for new item ids.
func WithIDs(next func() string) Option {
	return func(e *Engine) { e.newID = next }
}

// WithSelection shares a view selection with the engine so that removing a
// category clears it from the filter and the active chip.
func WithSelection(sel *query.Selection) Option {
	return func(e *Engine) { e.sel = sel }
}

// WithContext sets the parent of every remote write's context. Its values
// are kept; its cancellation is not.
func WithContext(ctx context.Context) Option {
	return func(e *Engine) { e.ctx = ctx }
}

// Engine is the only writer of user changes into the item store.
type Engine struct {
	store  *itemstore.Store
	remote remote.Collection
	render RenderFunc
	log    zerolog.Logger

	sel              *query.Selection
	now              func() time.Time
	newID            func() string
	ctx              context.Context
	categoryRollback bool
	onSettle         SettleFunc

	mu   sync.Mutex
	tail chan struct{}
	wg   sync.WaitGroup

	// storeMu orders detach against compensations and category reads that
	// run on write goroutines.
	storeMu  sync.Mutex
	detached bool
}

func New(store *itemstore.Store, coll remote.Collection, render RenderFunc, logger zerolog.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		remote: coll,
		render: render,
		log:    logger.With().Str("component", "optimistic").Logger(),
		now:    time.Now,
		newID:  uuid.NewString,
		ctx:    context.Background(),
	}
	for _, o := range opts {
		o(e)
	}
	if e.render == nil {
		e.render = func(View) {}
	}
	return e
}

func (e *Engine) Store() *itemstore.Store { return e.store }

// Detach cuts the engine off from its store. Afterwards new changes are
// refused, and writes still in flight settle without compensating or
// rendering. Sign-out detaches before clearing the store.
func (e *Engine) Detach() {
	e.storeMu.Lock()
	e.detached = true
	e.storeMu.Unlock()
}

func (e *Engine) Detached() bool {
	e.storeMu.Lock()
	defer e.storeMu.Unlock()
	return e.detached
}

// Create adds a new open item and registers its category when it is new.
// Blank text returns a ValidationError and changes nothing.
func (e *Engine) Create(text, category string, deadline *model.Date) (model.Item, error) {
	if e.Detached() {
		return model.Item{}, ErrDetached
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Item{}, &ValidationError{Field: "text", Err: ErrEmptyText}
	}
	category = strings.TrimSpace(category)
	if category != "" && !e.store.HasCategory(category) {
		e.RegisterCategory(category)
	}

	it := model.Item{
		ID:        e.newID(),
		Text:      text,
		Category:  category,
		CreatedAt: e.now(),
	}
	if deadline != nil {
		it.Deadline = deadline.Ptr()
	}
	e.store.Append(it)
	e.applied(KindCreate, ViewItems)

	m := Mutation{Kind: KindCreate, ItemID: it.ID}
	e.dispatch(m, func(ctx context.Context) error {
		return e.remote.WriteOne(ctx, it)
	})
	return it.Clone(), nil
}

// ToggleCompletion flips an item between open and done. Unknown ids are ignored.
func (e *Engine) ToggleCompletion(id string) {
	if e.Detached() {
		return
	}
	now := e.now()
	var after model.Item
	before, ok := e.store.Update(id, func(it *model.Item) {
		it.SetCompleted(!it.Completed, now)
		after = it.Clone()
	})
	if !ok {
		return
	}
	e.applied(KindToggle, ViewItems)

	p := remote.CompletionPatch(after.Completed, after.CompletedAt)
	e.dispatch(Mutation{Kind: KindToggle, ItemID: id, Before: before}, func(ctx context.Context) error {
		return e.remote.UpdateFields(ctx, id, p)
	})
}

// Remove deletes an item. Unknown ids are ignored.
func (e *Engine) Remove(id string) {
	if e.Detached() {
		return
	}
	before, ok := e.store.Remove(id)
	if !ok {
		return
	}
	e.applied(KindRemove, ViewItems)

	e.dispatch(Mutation{Kind: KindRemove, ItemID: id, Before: before}, func(ctx context.Context) error {
		return e.remote.DeleteOne(ctx, id)
	})
}

// SetDeadline sets or, with nil, clears an item's deadline. Unknown ids are ignored.
func (e *Engine) SetDeadline(id string, deadline *model.Date) {
	if e.Detached() {
		return
	}
	var next *model.Date
	if deadline != nil && *deadline != "" {
		next = deadline.Ptr()
	}
	before, ok := e.store.Update(id, func(it *model.Item) {
		it.Deadline = next
	})
	if !ok {
		return
	}
	e.applied(KindSetDeadline, ViewItems)

	p := remote.DeadlinePatch(next)
	e.dispatch(Mutation{Kind: KindSetDeadline, ItemID: id, Before: before}, func(ctx context.Context) error {
		return e.remote.UpdateFields(ctx, id, p)
	})
}

// RegisterCategory adds name to the category set and overwrites the remote
// list. Blank or known names are ignored.
func (e *Engine) RegisterCategory(name string) {
	name = strings.TrimSpace(name)
	if e.Detached() || !e.store.AddCategory(name) {
		return
	}
	e.applied(KindRegisterCategory, ViewCategories)
	e.writeCategories(Mutation{Kind: KindRegisterCategory, Category: name})
}

// RemoveCategory drops name from the category set and from the selection.
// Items labelled name keep their label.
func (e *Engine) RemoveCategory(name string) {
	if e.Detached() || !e.store.RemoveCategory(name) {
		return
	}
	if e.sel != nil && e.sel.ClearCategory(name) {
		e.render(ViewItems)
	}
	e.applied(KindRemoveCategory, ViewCategories)
	e.writeCategories(Mutation{Kind: KindRemoveCategory, Category: name})
}

// writeCategories sends the list as it is when the write runs, so queued
// category writes always end on the latest local list. A write that runs
// after Detach sends the list as it was when queued.
func (e *Engine) writeCategories(m Mutation) {
	queued := e.store.Categories()
	e.dispatch(m, func(ctx context.Context) error {
		labels := queued
		e.storeMu.Lock()
		if !e.detached {
			labels = e.store.Categories()
		}
		e.storeMu.Unlock()
		return e.remote.WriteCategories(ctx, labels)
	})
}

// AwaitSettled blocks until every remote write issued so far has completed
// and its compensation, if any, has run.
func (e *Engine) AwaitSettled(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) applied(k Kind, v View) {
	mutationsTotal.WithLabelValues(string(k)).Inc()
	e.render(v)
}

// dispatch issues write in the background. Writes reach the remote in the
// order they were dispatched.
func (e *Engine) dispatch(m Mutation, write func(ctx context.Context) error) {
	e.wg.Add(1)
	inflightWrites.Inc()

	e.mu.Lock()
	prev := e.tail
	done := make(chan struct{})
	e.tail = done
	e.mu.Unlock()

	ctx := context.WithoutCancel(e.ctx)
	go func() {
		defer e.wg.Done()
		defer inflightWrites.Dec()
		defer close(done)
		if prev != nil {
			<-prev
		}
		e.settle(m, write(ctx))
	}()
}

func (e *Engine) settle(m Mutation, err error) {
	if err == nil {
		e.log.Debug().Str("kind", string(m.Kind)).Str("id", m.ItemID).Msg("remote write confirmed")
		if e.onSettle != nil {
			e.onSettle(m, nil, false)
		}
		return
	}

	writeFailuresTotal.WithLabelValues(string(m.Kind)).Inc()
	ev := e.log.Warn().Err(err).Str("kind", string(m.Kind))
	if m.ItemID != "" {
		ev = ev.Str("id", m.ItemID)
	}
	if m.Category != "" {
		ev = ev.Str("category", m.Category)
	}

	var view View
	rolledBack := false
	e.storeMu.Lock()
	detached := e.detached
	undo := !detached && (!m.Kind.IsCategory() || e.categoryRollback)
	if undo {
		view, rolledBack = Compensate(e.store, m)
	}
	e.storeMu.Unlock()

	switch {
	case detached:
		ev.Msg("remote write failed after sign-out; nothing to undo")
	case undo:
		if rolledBack {
			rollbacksTotal.WithLabelValues(string(m.Kind)).Inc()
			e.render(view)
		}
		ev.Bool("rolled_back", rolledBack).Msg("remote write failed")
	default:
		ev.Msg("remote category write failed; keeping local change")
	}

	if e.onSettle != nil {
		e.onSettle(m, err, rolledBack)
	}
}
