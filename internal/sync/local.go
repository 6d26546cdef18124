package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// Local is the server-role store: every operation executes against the
// authoritative database and successful writes broadcast a change
// notification plus a full-table sync to all connected clients.
type Local struct {
	DB  *pgxpool.Pool
	hub *Hub
	log zerolog.Logger
}

func NewLocal(db *pgxpool.Pool, hub *Hub, log zerolog.Logger) *Local {
	return &Local{DB: db, hub: hub, log: log}
}

func (l *Local) Hub() *Hub {
	return l.hub
}

func (l *Local) GetAll(ctx context.Context, table Table) ([]Row, error) {
	if !table.Valid() {
		return nil, ErrUnknownTable
	}
	rows, err := l.DB.Query(ctx, fmt.Sprintf("SELECT to_jsonb(t) FROM %s t", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Row{}
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var row Row
		if err := json.Unmarshal(raw, &row); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (l *Local) GetByID(ctx context.Context, table Table, id string) (Row, error) {
	if !table.Valid() {
		return nil, ErrUnknownTable
	}
	var raw []byte
	err := l.DB.QueryRow(ctx, fmt.Sprintf("SELECT to_jsonb(t) FROM %s t WHERE id = $1", table), id).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var row Row
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, err
	}
	return row, nil
}

// Insert writes a generic row. The row travels as JSON and is cast
// through the table's record type, so only allowlisted columns survive
// and the database applies its own type conversions and defaults
// validation.
func (l *Local) Insert(ctx context.Context, table Table, row Row) error {
	cols, err := l.writeColumns(table, row)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(row)
	if err != nil {
		return err
	}
	colList := strings.Join(cols, ", ")
	var id string
	err = l.DB.QueryRow(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) SELECT %s FROM jsonb_populate_record(NULL::%s, $1) RETURNING id::text",
		table, colList, colList, table), payload).Scan(&id)
	if err != nil {
		return err
	}
	l.TableChanged(string(table), ActionInsert, id)
	return nil
}

func (l *Local) Update(ctx context.Context, table Table, id string, patch Row) error {
	cols, err := l.writeColumns(table, patch)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(patch)
	if err != nil {
		return err
	}
	colList := strings.Join(cols, ", ")
	tag, err := l.DB.Exec(ctx, fmt.Sprintf(
		"UPDATE %s SET (%s) = (SELECT %s FROM jsonb_populate_record(NULL::%s, $1)) WHERE id = $2",
		table, colList, colList, table), payload, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	l.TableChanged(string(table), ActionUpdate, id)
	return nil
}

func (l *Local) Delete(ctx context.Context, table Table, id string) error {
	if !table.Valid() {
		return ErrUnknownTable
	}
	if !table.Writable() {
		return ErrReadOnly
	}
	tag, err := l.DB.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	l.TableChanged(string(table), ActionDelete, id)
	return nil
}

// Query runs a read-only statement with positional parameters and
// returns generic rows.
func (l *Local) Query(ctx context.Context, sql string, params []any) ([]Row, error) {
	rows, err := l.DB.Query(ctx, sql, params...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	out := []Row{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := Row{}
		for i, field := range fields {
			row[field.Name] = values[i]
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// TableChanged implements the domain Notifier: broadcast the change,
// then push the table's full authoritative state so clients replace
// their caches instead of patching them.
func (l *Local) TableChanged(table, action, id string) {
	tbl := Table(table)
	if !tbl.Valid() {
		return
	}
	l.hub.Broadcast(Event{Type: EventChange, Change: Change{Table: tbl, Action: action, ID: id}})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rows, err := l.GetAll(ctx, tbl)
	if err != nil {
		l.log.Error().Err(err).Str("table", table).Msg("full-table sync push failed")
		return
	}
	l.hub.Broadcast(Event{Type: EventTableSync, Table: tbl, Rows: rows})
}

func (l *Local) writeColumns(table Table, row Row) ([]string, error) {
	if !table.Valid() {
		return nil, ErrUnknownTable
	}
	if !table.Writable() {
		return nil, ErrReadOnly
	}
	var cols []string
	for _, col := range writableColumns[table] {
		if _, ok := row[col]; ok {
			cols = append(cols, col)
		}
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("no writable columns in payload for %s", table)
	}
	return cols, nil
}
