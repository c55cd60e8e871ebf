// Package migrate moves data kept by the local-only version of the app into
// a user's remote collection the first time they sign in.
package migrate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/remote"
)

// Source is legacy local data that can be read once and then cleared.
// jsonfile.Store satisfies it.
type Source interface {
	ReadAll(ctx context.Context) ([]model.Item, error)
	ReadCategories(ctx context.Context) ([]string, error)
	Clear() error
}

// Result describes what an import did.
type Result struct {
	Items      int
	Categories int
	// Skipped is set when the remote already had items; local data was
	// cleared without being written.
	Skipped bool
}

// Import copies src into dst in one batch and clears src. Nothing happens
// when src is empty. When dst already holds items, src is cleared and
// nothing is written.
func Import(ctx context.Context, src Source, dst remote.Collection, log zerolog.Logger) (Result, error) {
	items, err := src.ReadAll(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read legacy items: %w", err)
	}
	labels, err := src.ReadCategories(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("read legacy categories: %w", err)
	}
	if len(items) == 0 && len(labels) == 0 {
		return Result{}, nil
	}

	existing, err := dst.ReadAll(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("check remote: %w", err)
	}
	if len(existing) > 0 {
		log.Info().Int("local_items", len(items)).Msg("remote already has data; discarding local copy")
		if err := src.Clear(); err != nil {
			return Result{}, fmt.Errorf("clear legacy data: %w", err)
		}
		return Result{Skipped: true}, nil
	}

	now := time.Now()
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if strings.TrimSpace(it.ID) == "" {
			it.ID = uuid.NewString()
		}
		it.Normalize(now)
		if err := it.Valid(); err != nil {
			log.Warn().Err(err).Str("id", it.ID).Msg("skipping legacy item")
			continue
		}
		out = append(out, it)
	}
	cats := model.NewCategories(labels)

	if err := remote.WriteBatch(ctx, dst, out, cats); err != nil {
		return Result{}, fmt.Errorf("write batch: %w", err)
	}
	if err := src.Clear(); err != nil {
		return Result{}, fmt.Errorf("clear legacy data: %w", err)
	}
	log.Info().Int("items", len(out)).Int("categories", len(cats)).Msg("imported local data")
	return Result{Items: len(out), Categories: len(cats)}, nil
}
