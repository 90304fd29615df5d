// vidstore/internal/api/handler.go

// Package api exposes the content store over HTTP: listing by original
// name, ranged streaming, deletion and the static player assets.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strconv"

	"vidstore/internal/core/domain"
	"vidstore/internal/core/ports"
	"vidstore/internal/streaming"
)

// Streamer writes a stored file, or a byte range of it, to w.
type Streamer interface {
	Serve(w http.ResponseWriter, req *http.Request, id domain.ContentID, downloadName string) error
}

type Handler struct {
	store     ports.ContentStore
	ledger    ports.Ledger
	cache     ports.StreamCache
	streamer  Streamer
	publicDir string
	logger    *slog.Logger
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewHandler(store ports.ContentStore, ledger ports.Ledger, cache ports.StreamCache, streamer Streamer, publicDir string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:     store,
		ledger:    ledger,
		cache:     cache,
		streamer:  streamer,
		publicDir: publicDir,
		logger:    logger,
	}
}

// Routes returns the HTTP handler for every route, wrapped in request
// logging.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /vids", h.handleList)
	mux.HandleFunc("GET /vids/{name}", h.handleStream)
	mux.HandleFunc("DELETE /vids/{name}", h.handleDelete)
	if h.publicDir != "" {
		mux.Handle("GET /", http.FileServer(http.Dir(h.publicDir)))
	}
	return withRequestLog(mux, h.logger)
}

// handleList returns the original names of every stored file. Files with
// no ledger record are listed under their content id.
func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	live, err := h.store.List()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	entries, err := h.ledger.Entries()
	if err != nil {
		h.fail(w, r, err)
		return
	}
	names := make(map[domain.ContentID]string, len(entries))
	for _, e := range entries {
		if _, ok := names[e.ContentID]; !ok {
			names[e.ContentID] = e.OriginalName
		}
	}

	list := make([]string, 0, len(live))
	for _, id := range slices.Sorted(maps.Keys(live)) {
		if name, ok := names[id]; ok {
			list = append(list, name)
			continue
		}
		list = append(list, string(id))
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	id, err := h.ledger.LookupIDByName(name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "Video not found", http.StatusNotFound)
			return
		}
		h.fail(w, r, err)
		return
	}

	downloadName := ""
	if r.URL.Query().Get("download") == "1" {
		downloadName = name
	}

	if err := h.streamer.Serve(w, r, id, downloadName); err != nil {
		var rangeErr *streaming.RangeError
		if errors.As(err, &rangeErr) {
			w.Header().Set("Content-Range", "bytes */"+strconv.FormatInt(rangeErr.Size, 10))
			http.Error(w, "Requested range not satisfiable", http.StatusRequestedRangeNotSatisfiable)
			return
		}
		if errors.Is(err, domain.ErrNotFound) {
			http.Error(w, "File not found", http.StatusNotFound)
			return
		}
		h.fail(w, r, err)
	}
}

// handleDelete removes the stored file, drops its cached buffer and
// compacts the ledger against what is left on disk.
func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	id, err := h.ledger.LookupIDByName(name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, deleteResponse{Message: "Video not found"})
			return
		}
		h.logger.Error("ledger lookup failed", "name", name, "error", err)
		writeJSON(w, http.StatusInternalServerError, deleteResponse{Message: "Delete failed"})
		return
	}

	if err := h.store.Delete(id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, deleteResponse{Message: "File not found"})
			return
		}
		h.logger.Error("delete failed", "content_id", id, "error", err)
		writeJSON(w, http.StatusInternalServerError, deleteResponse{Message: "Delete failed"})
		return
	}
	h.cache.Remove(h.store.Path(id))

	// The file is gone either way; a failed compaction leaves a stale
	// record that the next compaction drops.
	if live, err := h.store.List(); err != nil {
		h.logger.Warn("ledger compaction skipped", "error", err)
	} else if err := h.ledger.Compact(live); err != nil {
		h.logger.Warn("ledger compaction failed", "error", err)
	}

	h.logger.Info("video deleted", "name", name, "content_id", id)
	writeJSON(w, http.StatusOK, deleteResponse{Success: true, Message: "File deleted"})
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(value)
}
