package docstore

import (
	"context"

	"github.com/Makepad-fr/tada/internal/remote"
	"github.com/Makepad-fr/tada/internal/remote/sqlitestore"
)

type sqliteBackend struct {
	db *sqlitestore.Backend
}

// SQLite serves collections out of one sqlitestore database.
func SQLite(db *sqlitestore.Backend) Backend {
	return sqliteBackend{db: db}
}

func (b sqliteBackend) Collection(uid string) remote.Collection { return b.db.Collection(uid) }

func (b sqliteBackend) Ping(ctx context.Context) error { return b.db.Ping(ctx) }
