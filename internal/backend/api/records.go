package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kamal-hamza/assetctl/internal/backend/store"
	"github.com/kamal-hamza/assetctl/internal/core/domain"
)

// RecordsHandler serves one record collection.
type RecordsHandler struct {
	Store   *store.Store
	Type    domain.RecordType
	Metrics *Metrics
}

type updateRequest struct {
	ID    string            `json:"id"`
	After map[string]string `json:"After"`
}

type deleteRequest struct {
	ID string `json:"id"`
}

type itemResponse struct {
	Message string        `json:"message"`
	Item    domain.Record `json:"item"`
}

// List handles GET /api/<type>s?locations=a,b or locations=ALL.
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	locations := store.ParseLocations(r.URL.Query().Get("locations"))
	records, err := h.Store.ListRecords(r.Context(), h.Type, locations)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, records)
}

// Add handles POST /api/<type>s/add.
func (h *RecordsHandler) Add(w http.ResponseWriter, r *http.Request) {
	var payload map[string]string
	if err := decodeJSON(r, &payload); err != nil {
		jsonMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.Store.AddRecord(r.Context(), h.Type, operatorName(r), payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.changed(store.ActionAdd)
	jsonResponse(w, http.StatusCreated, itemResponse{
		Message: h.Type.Label() + " added successfully",
		Item:    rec,
	})
}

// Update handles POST /api/<type>s/update.
func (h *RecordsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" {
		jsonMessage(w, http.StatusBadRequest, "id is required")
		return
	}

	rec, err := h.Store.UpdateRecord(r.Context(), h.Type, operatorName(r), req.ID, req.After)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.changed("update")
	jsonResponse(w, http.StatusOK, itemResponse{
		Message: h.Type.Label() + " updated successfully",
		Item:    rec,
	})
}

// Delete handles POST /api/<type>s/delete.
func (h *RecordsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ID == "" {
		jsonMessage(w, http.StatusBadRequest, "id is required")
		return
	}

	if err := h.Store.DeleteRecord(r.Context(), h.Type, operatorName(r), req.ID); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.changed(store.ActionDelete)
	jsonMessage(w, http.StatusOK, h.Type.Label()+" deleted successfully")
}

// Logs handles GET /api/<type>s/logs?id=...
func (h *RecordsHandler) Logs(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Store.ListLogs(r.Context(), h.Type, r.URL.Query().Get("id"))
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if entries == nil {
		entries = []store.LogEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}

func (h *RecordsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var inputErr *store.InputError
	switch {
	case errors.As(err, &inputErr):
		jsonMessage(w, http.StatusBadRequest, inputErr.Message)
	case store.IsNotFound(err):
		jsonMessage(w, http.StatusNotFound, h.Type.Label()+" not found")
	default:
		h.internalError(w, r, err)
	}
}

func (h *RecordsHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("record request failed",
		"type", h.Type,
		"error", err,
		"request_id", RequestID(r.Context()),
	)
	jsonMessage(w, http.StatusInternalServerError, "Error: "+err.Error())
}

func (h *RecordsHandler) changed(action string) {
	if h.Metrics != nil {
		h.Metrics.recordChange(string(h.Type), action)
	}
}

func operatorName(r *http.Request) string {
	if user := CurrentUser(r.Context()); user != nil {
		return user.UserName
	}
	return ""
}
