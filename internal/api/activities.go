// ABOUTME: HTTP handlers for activity records
// ABOUTME: Authenticated callers see and create their own records; anonymous callers see all

package api

import (
	"net/http"
	"strconv"

	"github.com/Vladimir-28/FitLife/internal/activity"
	"github.com/Vladimir-28/FitLife/internal/auth"
	"github.com/Vladimir-28/FitLife/internal/store"
)

// maxFITUpload bounds POST /activities/import bodies.
const maxFITUpload = 10 << 20

// ActivityResponse is the JSON shape of an activity.
type ActivityResponse struct {
	ID         int64   `json:"id"`
	Day        string  `json:"day"`
	Steps      int     `json:"steps"`
	DistanceKm float64 `json:"distanceKm"`
	ActiveTime string  `json:"activeTime"`
	UserID     *int64  `json:"userId"`
}

// ActivityRequest is the JSON body for POST /activities and PUT /activities/{id}.
// Absent fields stay nil.
type ActivityRequest struct {
	Day        *string  `json:"day"`
	Steps      *int     `json:"steps"`
	DistanceKm *float64 `json:"distanceKm"`
	ActiveTime *string  `json:"activeTime"`
}

func (req ActivityRequest) fields() activity.Fields {
	return activity.Fields{
		Day:        req.Day,
		Steps:      req.Steps,
		DistanceKm: req.DistanceKm,
		ActiveTime: req.ActiveTime,
	}
}

func toActivityResponse(a *store.Activity) ActivityResponse {
	return ActivityResponse{
		ID:         a.ID,
		Day:        a.Day,
		Steps:      a.Steps,
		DistanceKm: a.DistanceKm,
		ActiveTime: a.ActiveTime,
		UserID:     a.UserID,
	}
}

func toActivityResponses(list []*store.Activity) []ActivityResponse {
	out := make([]ActivityResponse, 0, len(list))
	for _, a := range list {
		out = append(out, toActivityResponse(a))
	}
	return out
}

// owner returns the authenticated user id, or nil for anonymous requests.
func owner(r *http.Request) *int64 {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return nil
	}
	return &id
}

// activityID parses {id}. Non-numeric ids are treated as not found.
func activityID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// handleListActivities handles GET /activities.
func (h *Handler) handleListActivities(w http.ResponseWriter, r *http.Request) {
	list, err := h.activities.List(r.Context(), owner(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityResponses(list))
}

// handleCreateActivity handles POST /activities.
func (h *Handler) handleCreateActivity(w http.ResponseWriter, r *http.Request) {
	var req ActivityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	a, err := h.activities.Create(r.Context(), req.fields(), owner(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toActivityResponse(a))
}

// handleImportActivities handles POST /activities/import with a raw FIT file body.
func (h *Handler) handleImportActivities(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxFITUpload)
	created, err := h.activities.Import(r.Context(), body, owner(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toActivityResponses(created))
}

// handleUpdateActivity handles PUT /activities/{id}.
func (h *Handler) handleUpdateActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := activityID(r)
	if !ok {
		sendJSONError(w, http.StatusNotFound, activity.MsgNotFound)
		return
	}

	// A missing id answers 404 whatever the body holds.
	if _, err := h.activities.Get(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}

	var req ActivityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	a, err := h.activities.Update(r.Context(), id, req.fields())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toActivityResponse(a))
}

// handleDeleteActivity handles DELETE /activities/{id}.
func (h *Handler) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	id, ok := activityID(r)
	if !ok {
		sendJSONError(w, http.StatusNotFound, activity.MsgNotFound)
		return
	}

	if err := h.activities.Delete(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Actividad eliminada correctamente"})
}
