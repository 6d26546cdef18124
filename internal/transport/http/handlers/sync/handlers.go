package synchandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"folha/internal/sync"
)

// Handler exposes the generic replication surface. It is wired against
// the local authoritative store on the server and against the remote
// proxy on a client, so the UI talks to the same API in both roles.
type Handler struct {
	Store     sync.Store
	Subscribe func() (chan sync.Event, func())
	Log       zerolog.Logger
}

func NewHandler(store sync.Store, subscribe func() (chan sync.Event, func()), log zerolog.Logger) *Handler {
	return &Handler{Store: store, Subscribe: subscribe, Log: log}
}

type rowsResponse struct {
	Rows []sync.Row `json:"rows"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type queryPayload struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/sync", func(r chi.Router) {
		r.Get("/stream", h.handleStream)
		r.Post("/query", h.handleQuery)
		r.Get("/{table}", h.handleGetAll)
		r.Post("/{table}", h.handleInsert)
		r.Get("/{table}/{id}", h.handleGetByID)
		r.Patch("/{table}/{id}", h.handleUpdate)
		r.Delete("/{table}/{id}", h.handleDelete)
	})
}

func (h *Handler) handleGetAll(w http.ResponseWriter, r *http.Request) {
	rows, err := h.Store.GetAll(r.Context(), sync.Table(chi.URLParam(r, "table")))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsResponse{Rows: rows})
}

func (h *Handler) handleGetByID(w http.ResponseWriter, r *http.Request) {
	row, err := h.Store.GetByID(r.Context(), sync.Table(chi.URLParam(r, "table")), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, row)
}

func (h *Handler) handleInsert(w http.ResponseWriter, r *http.Request) {
	var row sync.Row
	if err := json.NewDecoder(r.Body).Decode(&row); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid row payload"})
		return
	}
	if err := h.Store.Insert(r.Context(), sync.Table(chi.URLParam(r, "table")), row); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var patch sync.Row
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid row payload"})
		return
	}
	if err := h.Store.Update(r.Context(), sync.Table(chi.URLParam(r, "table")), chi.URLParam(r, "id"), patch); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Delete(r.Context(), sync.Table(chi.URLParam(r, "table")), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	var payload queryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid query payload"})
		return
	}
	if !strings.HasPrefix(strings.ToUpper(strings.TrimSpace(payload.SQL)), "SELECT") {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "only SELECT statements are allowed"})
		return
	}

	rows, err := h.Store.Query(r.Context(), payload.SQL, payload.Params)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rowsResponse{Rows: rows})
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	events, cleanup := h.Subscribe()
	defer cleanup()

	fmt.Fprint(w, "event: connected\ndata: {\"status\":\"connected\"}\n\n")
	flusher.Flush()

	keepalive := time.NewTicker(30 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case evt, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(evt)
			if err != nil {
				h.Log.Warn().Err(err).Msg("event marshal failed")
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, data)
			flusher.Flush()

		case <-keepalive.C:
			fmt.Fprintf(w, "event: ping\ndata: {\"timestamp\":%d}\n\n", time.Now().Unix())
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sync.ErrUnknownTable):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown table"})
	case errors.Is(err, sync.ErrReadOnly):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: "table is read-only"})
	case errors.Is(err, sync.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "row not found"})
	case errors.Is(err, sync.ErrOffline):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "server unreachable"})
	default:
		h.Log.Error().Err(err).Msg("sync operation failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "operation failed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
