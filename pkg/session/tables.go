package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/tableorder/pkg/models"
	"github.com/example/tableorder/pkg/store"
)

var ErrInvalidTable = errors.New("table id is required")

// Tables keeps the table selected for this device. Only an explicit Clear
// removes it; completing an order does not.
type Tables struct {
	store store.Store
}

func NewTables(st store.Store) *Tables {
	return &Tables{store: st}
}

func (t *Tables) Select(ctx context.Context, sel models.TableSelection) error {
	if sel.TableID == "" {
		return ErrInvalidTable
	}
	if err := t.store.Set(ctx, store.KeyTableID, sel.TableID); err != nil {
		return fmt.Errorf("failed to save table: %w", err)
	}
	if err := t.store.Set(ctx, store.KeyTableNumber, sel.TableNumber); err != nil {
		return fmt.Errorf("failed to save table number: %w", err)
	}
	return nil
}

// Current returns the selected table, or nil when none is set.
func (t *Tables) Current(ctx context.Context) (*models.TableSelection, error) {
	id, ok, err := store.Lookup(ctx, t.store, store.KeyTableID)
	if err != nil {
		return nil, err
	}
	if !ok || id == "" {
		return nil, nil
	}
	number, _, err := store.Lookup(ctx, t.store, store.KeyTableNumber)
	if err != nil {
		return nil, err
	}
	return &models.TableSelection{TableID: id, TableNumber: number}, nil
}

func (t *Tables) Clear(ctx context.Context) error {
	return t.store.Remove(ctx, store.KeyTableID, store.KeyTableNumber)
}
