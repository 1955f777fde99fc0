// Package memstore is an in-memory, transactional twin of the Postgres
// schema. Writers work on a copy of the tables which replaces the live
// state only when the callback succeeds.
package memstore

import (
	"context"
	"maps"
	"slices"
	"sync"

	catalogtypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/catalog/domain/types"
	salestypes "github.com/Paulo-Apolinario/smartbiz-ai-managerV1/modules/sales/domain/types"
)

type Tables struct {
	Clients  map[string]catalogtypes.Client
	Products map[string]catalogtypes.Product
	Orders   map[string]salestypes.Order
	Events   []salestypes.Event
}

type DB struct {
	mu     sync.Mutex
	tables Tables
}

func New() *DB {
	return &DB{tables: Tables{
		Clients:  map[string]catalogtypes.Client{},
		Products: map[string]catalogtypes.Product{},
		Orders:   map[string]salestypes.Order{},
	}}
}

// View runs fn against the live tables. fn must not mutate them.
func (db *DB) View(ctx context.Context, fn func(t *Tables) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(&db.tables)
}

// Update serializes writers. fn sees a private copy; the copy is published
// only if fn returns nil and ctx is still live.
func (db *DB) Update(ctx context.Context, fn func(t *Tables) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	work := db.tables.clone()
	if err := fn(&work); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	db.tables = work
	return nil
}

// DrainEvents removes and returns the events appended so far.
func (db *DB) DrainEvents() []salestypes.Event {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := db.tables.Events
	db.tables.Events = nil
	return out
}

func (t Tables) clone() Tables {
	out := Tables{
		Clients:  maps.Clone(t.Clients),
		Products: maps.Clone(t.Products),
		Orders:   make(map[string]salestypes.Order, len(t.Orders)),
		Events:   slices.Clone(t.Events),
	}
	for k, v := range t.Orders {
		v.Items = slices.Clone(v.Items)
		out.Orders[k] = v
	}
	return out
}
