package synchandler

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folha/internal/sync"
)

type fakeStore struct {
	rows    map[sync.Table][]sync.Row
	inserts []sync.Row
	err     error
}

func (f *fakeStore) GetAll(_ context.Context, table sync.Table) ([]sync.Row, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[table], nil
}

func (f *fakeStore) GetByID(_ context.Context, table sync.Table, id string) (sync.Row, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, row := range f.rows[table] {
		if row["id"] == id {
			return row, nil
		}
	}
	return nil, sync.ErrNotFound
}

func (f *fakeStore) Insert(_ context.Context, table sync.Table, row sync.Row) error {
	if f.err != nil {
		return f.err
	}
	if !table.Writable() {
		return sync.ErrReadOnly
	}
	f.inserts = append(f.inserts, row)
	return nil
}

func (f *fakeStore) Update(_ context.Context, _ sync.Table, _ string, _ sync.Row) error {
	return f.err
}

func (f *fakeStore) Delete(_ context.Context, _ sync.Table, _ string) error {
	return f.err
}

func (f *fakeStore) Query(_ context.Context, _ string, _ []any) ([]sync.Row, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []sync.Row{{"total": "1"}}, nil
}

func newTestServer(store *fakeStore, hub *sync.Hub) *httptest.Server {
	if hub == nil {
		hub = sync.NewHub()
	}
	handler := NewHandler(store, hub.Subscribe, zerolog.Nop())
	router := chi.NewRouter()
	router.Route("/api/v1", handler.RegisterRoutes)
	return httptest.NewServer(router)
}

func TestGetAllReturnsRowsEnvelope(t *testing.T) {
	store := &fakeStore{rows: map[sync.Table][]sync.Row{
		sync.TableEmployees: {{"id": "e1", "first_name": "Ana"}},
	}}
	srv := newTestServer(store, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/sync/employees")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env rowsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	require.Len(t, env.Rows, 1)
	assert.Equal(t, "Ana", env.Rows[0]["first_name"])
}

func TestUnknownTableRejected(t *testing.T) {
	store := &fakeStore{err: sync.ErrUnknownTable}
	srv := newTestServer(store, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/sync/pg_tables")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestInsertReadOnlyTableForbidden(t *testing.T) {
	store := &fakeStore{}
	srv := newTestServer(store, nil)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/sync/payroll_entries", "application/json",
		bytes.NewBufferString(`{"gross":"1"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, store.inserts)
}

func TestQueryOnlyAllowsSelect(t *testing.T) {
	store := &fakeStore{}
	srv := newTestServer(store, nil)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/v1/sync/query", "application/json",
		bytes.NewBufferString(`{"sql":"DELETE FROM employees"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/v1/sync/query", "application/json",
		bytes.NewBufferString(`{"sql":"SELECT count(1) AS total FROM employees"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStreamDeliversBroadcastEvents(t *testing.T) {
	store := &fakeStore{}
	hub := sync.NewHub()
	srv := newTestServer(store, hub)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/v1/sync/stream")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: connected", strings.TrimSpace(line))

	// drain the rest of the connected frame
	_, _ = reader.ReadString('\n')
	_, _ = reader.ReadString('\n')

	hub.Broadcast(sync.Event{Type: sync.EventChange, Change: sync.Change{
		Table: sync.TableEmployees, Action: sync.ActionUpdate, ID: "e1",
	}})

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: change", strings.TrimSpace(line))

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(line, "data: "))

	var evt sync.Event
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &evt))
	assert.Equal(t, sync.TableEmployees, evt.Change.Table)
	assert.Equal(t, "e1", evt.Change.ID)
}
