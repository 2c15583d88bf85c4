package api

import (
	"net/http"

	"github.com/kamal-hamza/assetctl/internal/backend/store"
)

// LocationsHandler serves areas and parks.
type LocationsHandler struct {
	Store *store.Store
}

// Areas handles GET /api/areas.
func (h *LocationsHandler) Areas(w http.ResponseWriter, r *http.Request) {
	areas, err := h.Store.ListAreas(r.Context())
	if err != nil {
		jsonMessage(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, areas)
}

// Parks handles GET /api/parks.
func (h *LocationsHandler) Parks(w http.ResponseWriter, r *http.Request) {
	parks, err := h.Store.ListParks(r.Context())
	if err != nil {
		jsonMessage(w, http.StatusInternalServerError, "Error: "+err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, parks)
}
