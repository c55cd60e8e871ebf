// Package sqlitestore keeps every user's items and category list in one SQLite
// database. It backs the local "sqlite" backend and the cloud document store.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/remote"
)

const schemaVersion = 1

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS meta (
		k TEXT PRIMARY KEY,
		v TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS items (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		id TEXT NOT NULL,
		json TEXT NOT NULL,
		updated_at_unixms INTEGER NOT NULL,
		UNIQUE(user_id, id)
	);`,
	`CREATE INDEX IF NOT EXISTS idx_items_user ON items(user_id, seq);`,
	`CREATE TABLE IF NOT EXISTS categories (
		user_id TEXT PRIMARY KEY,
		list_json TEXT NOT NULL,
		updated_at_unixms INTEGER NOT NULL
	);`,
}

// Backend owns the database handle and the per-user subscriber hubs.
type Backend struct {
	db *sql.DB

	mu    sync.Mutex
	users map[string]*userState
}

type userState struct {
	mu  sync.Mutex
	hub *remote.Hub
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Backend, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("mkdir: %w", err)
		}
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps the pragmas below in effect for every statement.
	db.SetMaxOpenConns(1)
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Backend{db: db, users: map[string]*userState{}}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	for _, st := range migrations {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	_, err := db.ExecContext(ctx, `INSERT OR REPLACE INTO meta(k, v) VALUES('schema_version', ?)`, fmt.Sprintf("%d", schemaVersion))
	return err
}

func (b *Backend) Close() error { return b.db.Close() }

// Ping is used by health checks.
func (b *Backend) Ping(ctx context.Context) error { return b.db.PingContext(ctx) }

// Collection returns uid's collection.
func (b *Backend) Collection(uid string) *Collection {
	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[uid]
	if !ok {
		u = &userState{hub: remote.NewHub()}
		b.users[uid] = u
	}
	return &Collection{b: b, uid: uid, u: u}
}

// Collection implements remote.Collection for one user.
type Collection struct {
	b   *Backend
	uid string
	u   *userState
}

var _ remote.Collection = (*Collection)(nil)
var _ remote.BatchWriter = (*Collection)(nil)

func (c *Collection) ReadAll(ctx context.Context) ([]model.Item, error) {
	items, err := c.readItems(ctx, c.b.db)
	if err != nil {
		return nil, &remote.ReadError{Op: remote.OpRead, Err: err}
	}
	return items, nil
}

func (c *Collection) WriteOne(ctx context.Context, it model.Item) error {
	c.u.mu.Lock()
	defer c.u.mu.Unlock()
	err := c.inTx(ctx, func(tx *sql.Tx) error { return c.upsert(ctx, tx, it) })
	if err != nil {
		return &remote.WriteError{Op: remote.OpWrite, ID: it.ID, Err: err}
	}
	c.publishItems(ctx)
	return nil
}

func (c *Collection) UpdateFields(ctx context.Context, id string, p remote.Patch) error {
	c.u.mu.Lock()
	defer c.u.mu.Unlock()
	err := c.inTx(ctx, func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRowContext(ctx, `SELECT json FROM items WHERE user_id = ? AND id = ?`, c.uid, id).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return remote.ErrNotFound
		}
		if err != nil {
			return err
		}
		var it model.Item
		if err := json.Unmarshal([]byte(raw), &it); err != nil {
			return err
		}
		p.Apply(&it)
		return c.upsert(ctx, tx, it)
	})
	if err != nil {
		return &remote.WriteError{Op: remote.OpUpdate, ID: id, Err: err}
	}
	c.publishItems(ctx)
	return nil
}

func (c *Collection) DeleteOne(ctx context.Context, id string) error {
	c.u.mu.Lock()
	defer c.u.mu.Unlock()
	if _, err := c.b.db.ExecContext(ctx, `DELETE FROM items WHERE user_id = ? AND id = ?`, c.uid, id); err != nil {
		return &remote.WriteError{Op: remote.OpDelete, ID: id, Err: err}
	}
	c.publishItems(ctx)
	return nil
}

func (c *Collection) Subscribe(ctx context.Context, h remote.ItemsHandler) (remote.Unsubscribe, error) {
	c.u.mu.Lock()
	defer c.u.mu.Unlock()
	items, err := c.readItems(ctx, c.b.db)
	if err != nil {
		return nil, &remote.ReadError{Op: remote.OpSubscribe, Err: err}
	}
	return c.u.hub.SubscribeItems(items, h), nil
}

func (c *Collection) ReadCategories(ctx context.Context) ([]string, error) {
	labels, err := c.readCategories(ctx)
	if err != nil {
		return nil, &remote.ReadError{Op: remote.OpReadCategories, Err: err}
	}
	return labels, nil
}

func (c *Collection) WriteCategories(ctx context.Context, labels []string) error {
	c.u.mu.Lock()
	defer c.u.mu.Unlock()
	err := c.inTx(ctx, func(tx *sql.Tx) error { return c.writeCategories(ctx, tx, labels) })
	if err != nil {
		return &remote.WriteError{Op: remote.OpWriteCategories, Err: err}
	}
	c.u.hub.PublishCategories(labels)
	return nil
}

func (c *Collection) SubscribeCategories(ctx context.Context, h remote.CategoriesHandler) (remote.Unsubscribe, error) {
	c.u.mu.Lock()
	defer c.u.mu.Unlock()
	labels, err := c.readCategories(ctx)
	if err != nil {
		return nil, &remote.ReadError{Op: remote.OpSubscribe, Err: err}
	}
	return c.u.hub.SubscribeCategories(labels, h), nil
}

// WriteBatch writes items and, when non-empty, the category list in one transaction.
func (c *Collection) WriteBatch(ctx context.Context, items []model.Item, labels []string) error {
	c.u.mu.Lock()
	defer c.u.mu.Unlock()
	err := c.inTx(ctx, func(tx *sql.Tx) error {
		for _, it := range items {
			if err := c.upsert(ctx, tx, it); err != nil {
				return err
			}
		}
		if len(labels) > 0 {
			return c.writeCategories(ctx, tx, labels)
		}
		return nil
	})
	if err != nil {
		return &remote.WriteError{Op: remote.OpBatch, Err: err}
	}
	c.publishItems(ctx)
	if len(labels) > 0 {
		c.u.hub.PublishCategories(labels)
	}
	return nil
}

func (c *Collection) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := c.b.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (c *Collection) upsert(ctx context.Context, tx *sql.Tx, it model.Item) error {
	raw, err := json.Marshal(it)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO items(user_id, id, json, updated_at_unixms) VALUES(?, ?, ?, ?)
		ON CONFLICT(user_id, id) DO UPDATE SET json = excluded.json, updated_at_unixms = excluded.updated_at_unixms`,
		c.uid, it.ID, string(raw), time.Now().UTC().UnixMilli())
	return err
}

func (c *Collection) writeCategories(ctx context.Context, tx *sql.Tx, labels []string) error {
	if labels == nil {
		labels = []string{}
	}
	raw, err := json.Marshal(labels)
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `INSERT OR REPLACE INTO categories(user_id, list_json, updated_at_unixms) VALUES(?, ?, ?)`,
		c.uid, string(raw), time.Now().UTC().UnixMilli())
	return err
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (c *Collection) readItems(ctx context.Context, q queryer) ([]model.Item, error) {
	rows, err := q.QueryContext(ctx, `SELECT json FROM items WHERE user_id = ? ORDER BY seq ASC`, c.uid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var it model.Item
		if err := json.Unmarshal([]byte(raw), &it); err != nil {
			return nil, fmt.Errorf("decode item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (c *Collection) readCategories(ctx context.Context) ([]string, error) {
	var raw string
	err := c.b.db.QueryRowContext(ctx, `SELECT list_json FROM categories WHERE user_id = ?`, c.uid).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	var labels []string
	if err := json.Unmarshal([]byte(raw), &labels); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}
	return labels, nil
}

// publishItems re-reads the collection after a committed write. A failed
// re-read skips this push; the next successful write publishes again.
func (c *Collection) publishItems(ctx context.Context) {
	items, err := c.readItems(ctx, c.b.db)
	if err != nil {
		return
	}
	c.u.hub.PublishItems(items)
}
