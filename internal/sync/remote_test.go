package sync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRemote(t *testing.T, handler http.Handler) (*Remote, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewRemote(srv.URL, "", zerolog.Nop()), srv
}

func TestRemoteGetAllCachesRows(t *testing.T) {
	hits := 0
	remote, _ := newTestRemote(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/sync/employees", r.URL.Path)
		hits++
		json.NewEncoder(w).Encode(rowsEnvelope{Rows: []Row{{"id": "e1", "first_name": "Ana"}}})
	}))

	rows, err := remote.GetAll(context.Background(), TableEmployees)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ana", rows[0]["first_name"])

	// second read is served from the cache
	_, err = remote.GetAll(context.Background(), TableEmployees)
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
}

func TestRemoteGetByIDFromCache(t *testing.T) {
	remote, _ := newTestRemote(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(rowsEnvelope{Rows: []Row{{"id": "e1"}, {"id": "e2"}}})
	}))
	_, err := remote.GetAll(context.Background(), TableEmployees)
	require.NoError(t, err)

	row, err := remote.GetByID(context.Background(), TableEmployees, "e2")
	require.NoError(t, err)
	assert.Equal(t, "e2", row["id"])

	_, err = remote.GetByID(context.Background(), TableEmployees, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoteWritesBlockedWhileOffline(t *testing.T) {
	called := false
	remote, _ := newTestRemote(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	err := remote.Insert(context.Background(), TableEmployees, Row{"first_name": "Ana"})
	assert.ErrorIs(t, err, ErrOffline)
	err = remote.Update(context.Background(), TableEmployees, "e1", Row{"first_name": "Ana"})
	assert.ErrorIs(t, err, ErrOffline)
	err = remote.Delete(context.Background(), TableEmployees, "e1")
	assert.ErrorIs(t, err, ErrOffline)
	assert.False(t, called, "no request may leave the client while offline")
}

func TestRemoteForwardsWritesWhenOnline(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody Row
	remote, _ := newTestRemote(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			json.NewEncoder(w).Encode(rowsEnvelope{})
			return
		}
		gotMethod, gotPath = r.Method, r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))

	// a successful read marks the server reachable
	_, err := remote.GetAll(context.Background(), TableBranches)
	require.NoError(t, err)
	require.True(t, remote.Online())

	err = remote.Insert(context.Background(), TableBranches, Row{"name": "Luanda Sede"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/v1/sync/branches", gotPath)
	assert.Equal(t, "Luanda Sede", gotBody["name"])

	err = remote.Update(context.Background(), TableBranches, "b1", Row{"city": "Benguela"})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/api/v1/sync/branches/b1", gotPath)
}

func TestRemoteMapsErrorStatuses(t *testing.T) {
	remote, _ := newTestRemote(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/sync/employees/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/api/v1/sync/payroll_entries":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(errorEnvelope{Error: "unknown table"})
		}
	}))
	remote.online.Store(true)

	err := remote.Delete(context.Background(), TableEmployees, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = remote.do(context.Background(), http.MethodPost, remote.tableURL(TablePayrollEntries), Row{}, nil)
	assert.ErrorIs(t, err, ErrReadOnly)

	err = remote.do(context.Background(), http.MethodPost, remote.baseURL+"/api/v1/sync/nope", Row{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown table")
}

func TestRemoteTableSyncReplacesCache(t *testing.T) {
	remote := NewRemote("http://127.0.0.1:0", "", zerolog.Nop())
	remote.replaceCache(TableEmployees, []Row{{"id": "stale"}})

	events, cleanup := remote.Subscribe()
	defer cleanup()

	payload, err := json.Marshal(Event{
		Type:  EventTableSync,
		Table: TableEmployees,
		Rows:  []Row{{"id": "e1"}, {"id": "e2"}},
	})
	require.NoError(t, err)
	remote.handlePayload(string(payload))

	rows, ok := remote.cached(TableEmployees)
	require.True(t, ok)
	require.Len(t, rows, 2)
	assert.Equal(t, "e1", rows[0]["id"])

	// the event is re-broadcast to local subscribers
	require.Len(t, events, 1)
	evt := <-events
	assert.Equal(t, EventTableSync, evt.Type)
	assert.Equal(t, TableEmployees, evt.Table)
}

func TestRemoteListeners(t *testing.T) {
	remote := NewRemote("http://127.0.0.1:0", "", zerolog.Nop())

	changes := make(chan Change, 1)
	stopChange := remote.OnDataChange(func(c Change) { changes <- c })
	defer stopChange()

	synced := make(chan []Row, 1)
	stopSync := remote.OnTableSync(TableEmployees, func(rows []Row) { synced <- rows })
	defer stopSync()

	remote.hub.Broadcast(Event{
		Type:   EventChange,
		Change: Change{Table: TableEmployees, Action: ActionUpdate, ID: "e1"},
	})
	remote.hub.Broadcast(Event{
		Type:  EventTableSync,
		Table: TableBranches, // wrong table, sync listener must skip it
		Rows:  []Row{{"id": "b1"}},
	})
	remote.hub.Broadcast(Event{
		Type:  EventTableSync,
		Table: TableEmployees,
		Rows:  []Row{{"id": "e1"}},
	})

	change := <-changes
	assert.Equal(t, ActionUpdate, change.Action)
	assert.Equal(t, "e1", change.ID)

	rows := <-synced
	require.Len(t, rows, 1)
	assert.Equal(t, "e1", rows[0]["id"])
}

func TestRemoteQueryForwardsStatement(t *testing.T) {
	remote, _ := newTestRemote(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/sync/query", r.URL.Path)
		var req queryRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.SQL, "SELECT")
		assert.Equal(t, []any{"2026"}, req.Params)
		json.NewEncoder(w).Encode(rowsEnvelope{Rows: []Row{{"total": "100"}}})
	}))

	rows, err := remote.Query(context.Background(), "SELECT sum(total_net) AS total FROM payroll_periods WHERE year = $1", []any{"2026"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "100", rows[0]["total"])
}
