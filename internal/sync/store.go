// Package sync keeps every desktop instance on the same data. Exactly
// one instance runs the authoritative store (server role); the rest
// proxy reads and writes to it over HTTP and refresh their caches from
// its push stream. Clients never merge: the server's state replaces
// theirs wholesale, table by table.
package sync

import (
	"context"
	"errors"
)

// Row is the generic shape rows travel in at the transport boundary.
// Typed accessors live in the domain stores; this layer never
// interprets the values.
type Row = map[string]any

var (
	ErrOffline      = errors.New("server unreachable, edits are blocked")
	ErrUnknownTable = errors.New("unknown table")
	ErrReadOnly     = errors.New("table is not writable through the sync surface")
	ErrNotFound     = errors.New("row not found")
)

// Store is the uniform operation surface, identical in both roles. In
// server mode calls hit the embedded store and broadcast; in client
// mode they are forwarded over the wire.
type Store interface {
	GetAll(ctx context.Context, table Table) ([]Row, error)
	GetByID(ctx context.Context, table Table, id string) (Row, error)
	Insert(ctx context.Context, table Table, row Row) error
	Update(ctx context.Context, table Table, id string, patch Row) error
	Delete(ctx context.Context, table Table, id string) error
	Query(ctx context.Context, sql string, params []any) ([]Row, error)
}

const (
	ActionInsert = "insert"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionSync   = "sync"
)

// Change is a push notification that a table changed at the server.
type Change struct {
	Table  Table  `json:"table"`
	Action string `json:"action"`
	ID     string `json:"id,omitempty"`
}

// Event is what travels on the push stream: either a change
// notification or a full-table sync carrying the new authoritative
// rows.
type Event struct {
	Type   string `json:"type"` // "change" or "table_sync"
	Change Change `json:"change,omitempty"`
	Table  Table  `json:"table,omitempty"`
	Rows   []Row  `json:"rows,omitempty"`
}

const (
	EventChange    = "change"
	EventTableSync = "table_sync"
)
