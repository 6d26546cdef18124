package sync

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

const (
	probeInterval    = 15 * time.Second
	reconnectBackoff = 5 * time.Second
)

type rowsEnvelope struct {
	Rows []Row `json:"rows"`
}

type queryRequest struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

type errorEnvelope struct {
	Error string `json:"error"`
}

// Remote is the client-role store. Reads serve the local cache and fall
// through to the server when the cache is cold; writes always go to the
// server and fail with ErrOffline when it is unreachable. The cache is
// only ever replaced wholesale, from a full-table sync or an explicit
// refresh.
type Remote struct {
	baseURL string
	token   string
	client  *http.Client
	stream  *http.Client // no timeout, the push stream is long-lived
	hub     *Hub
	log     zerolog.Logger

	online atomic.Bool

	mu    gosync.RWMutex
	cache map[Table][]Row
}

func NewRemote(baseURL, token string, log zerolog.Logger) *Remote {
	return &Remote{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
		stream:  &http.Client{},
		hub:     NewHub(),
		cache:   map[Table][]Row{},
		log:     log,
	}
}

// Online reports whether the last probe or request reached the server.
func (r *Remote) Online() bool {
	return r.online.Load()
}

// Subscribe exposes the client-side event stream, so local consumers
// see the same change and table_sync events a server-role instance
// would emit.
func (r *Remote) Subscribe() (chan Event, func()) {
	return r.hub.Subscribe()
}

// OnDataChange invokes the listener for every change notification until
// the returned stop function is called.
func (r *Remote) OnDataChange(listener func(Change)) func() {
	events, cancel := r.hub.Subscribe()
	go func() {
		for event := range events {
			if event.Type == EventChange {
				listener(event.Change)
			}
		}
	}()
	return cancel
}

// OnTableSync invokes the listener with the authoritative row set each
// time the given table is replaced.
func (r *Remote) OnTableSync(table Table, listener func([]Row)) func() {
	events, cancel := r.hub.Subscribe()
	go func() {
		for event := range events {
			if event.Type == EventTableSync && event.Table == table {
				listener(event.Rows)
			}
		}
	}()
	return cancel
}

// Run keeps the push stream and the liveness probe going until ctx is
// cancelled. Each successful (re)connect starts with a full refresh of
// every table, so a client recovers from any missed events.
func (r *Remote) Run(ctx context.Context) {
	go r.probeLoop(ctx)
	for {
		if err := r.consumeStream(ctx); err != nil && ctx.Err() == nil {
			r.log.Warn().Err(err).Msg("push stream dropped, reconnecting")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectBackoff):
		}
	}
}

func (r *Remote) probeLoop(ctx context.Context) {
	ticker := time.NewTicker(probeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			was := r.online.Load()
			now := Ping(ctx, r.client, r.baseURL)
			r.online.Store(now)
			if was != now {
				r.log.Info().Bool("online", now).Msg("server reachability changed")
			}
		}
	}
}

func (r *Remote) consumeStream(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.baseURL+"/api/v1/sync/stream", nil)
	if err != nil {
		return err
	}
	r.authorize(req)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := r.stream.Do(req)
	if err != nil {
		r.online.Store(false)
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream returned %s", resp.Status)
	}

	r.online.Store(true)
	if err := r.RefreshAll(ctx); err != nil {
		r.log.Warn().Err(err).Msg("initial refresh failed")
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var data strings.Builder
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "data:"):
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		case line == "":
			if data.Len() > 0 {
				r.handlePayload(data.String())
				data.Reset()
			}
		}
	}
	return scanner.Err()
}

func (r *Remote) handlePayload(payload string) {
	var evt Event
	if err := json.Unmarshal([]byte(payload), &evt); err != nil {
		r.log.Warn().Err(err).Msg("undecodable stream event")
		return
	}
	if evt.Type == EventTableSync && evt.Table.Valid() {
		r.replaceCache(evt.Table, evt.Rows)
	}
	r.hub.Broadcast(evt)
}

// RefreshAll replaces every cached table from the server.
func (r *Remote) RefreshAll(ctx context.Context) error {
	for _, table := range AllTables() {
		rows, err := r.fetchAll(ctx, table)
		if err != nil {
			return fmt.Errorf("refresh %s: %w", table, err)
		}
		r.replaceCache(table, rows)
	}
	return nil
}

func (r *Remote) replaceCache(table Table, rows []Row) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rows == nil {
		rows = []Row{}
	}
	r.cache[table] = rows
}

func (r *Remote) cached(table Table) ([]Row, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows, ok := r.cache[table]
	return rows, ok
}

func (r *Remote) GetAll(ctx context.Context, table Table) ([]Row, error) {
	if !table.Valid() {
		return nil, ErrUnknownTable
	}
	if rows, ok := r.cached(table); ok {
		return rows, nil
	}
	rows, err := r.fetchAll(ctx, table)
	if err != nil {
		return nil, err
	}
	r.replaceCache(table, rows)
	return rows, nil
}

func (r *Remote) GetByID(ctx context.Context, table Table, id string) (Row, error) {
	if !table.Valid() {
		return nil, ErrUnknownTable
	}
	if rows, ok := r.cached(table); ok {
		for _, row := range rows {
			if rowID, _ := row["id"].(string); rowID == id {
				return row, nil
			}
		}
		return nil, ErrNotFound
	}
	var row Row
	if err := r.do(ctx, http.MethodGet, r.tableURL(table)+"/"+id, nil, &row); err != nil {
		return nil, err
	}
	return row, nil
}

func (r *Remote) Insert(ctx context.Context, table Table, row Row) error {
	if !r.Online() {
		return ErrOffline
	}
	return r.do(ctx, http.MethodPost, r.tableURL(table), row, nil)
}

func (r *Remote) Update(ctx context.Context, table Table, id string, patch Row) error {
	if !r.Online() {
		return ErrOffline
	}
	return r.do(ctx, http.MethodPatch, r.tableURL(table)+"/"+id, patch, nil)
}

func (r *Remote) Delete(ctx context.Context, table Table, id string) error {
	if !r.Online() {
		return ErrOffline
	}
	return r.do(ctx, http.MethodDelete, r.tableURL(table)+"/"+id, nil, nil)
}

func (r *Remote) Query(ctx context.Context, sql string, params []any) ([]Row, error) {
	var env rowsEnvelope
	err := r.do(ctx, http.MethodPost, r.baseURL+"/api/v1/sync/query", queryRequest{SQL: sql, Params: params}, &env)
	if err != nil {
		return nil, err
	}
	return env.Rows, nil
}

func (r *Remote) fetchAll(ctx context.Context, table Table) ([]Row, error) {
	var env rowsEnvelope
	if err := r.do(ctx, http.MethodGet, r.tableURL(table), nil, &env); err != nil {
		return nil, err
	}
	return env.Rows, nil
}

func (r *Remote) tableURL(table Table) string {
	return r.baseURL + "/api/v1/sync/" + string(table)
}

func (r *Remote) authorize(req *http.Request) {
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}
}

func (r *Remote) do(ctx context.Context, method, url string, body, out any) error {
	var buf *bytes.Buffer
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		buf = bytes.NewBuffer(payload)
	} else {
		buf = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, buf)
	if err != nil {
		return err
	}
	r.authorize(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		r.online.Store(false)
		return ErrOffline
	}
	defer resp.Body.Close()
	r.online.Store(true)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusForbidden:
		return ErrReadOnly
	case resp.StatusCode >= 400:
		var env errorEnvelope
		if json.NewDecoder(resp.Body).Decode(&env) == nil && env.Error != "" {
			return fmt.Errorf("server rejected %s %s: %s", method, url, env.Error)
		}
		return fmt.Errorf("server rejected %s %s: %s", method, url, resp.Status)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
