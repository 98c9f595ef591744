package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ukydev/service-center/internal/models"
)

// AssignedRequests lists requests assigned to the calling mechanic
func (h *WorkflowHandler) AssignedRequests(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListAssignedRequests(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{"assigned_requests": views})
}

// UpdateRequestStatus sets the status of an assigned request. The status is
// read from the query string, or from a JSON body when the query has none.
func (h *WorkflowHandler) UpdateRequestStatus(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		var in models.StatusInput
		if err := decodeJSON(r, &in); err != nil {
			writeError(w, r, err)
			return
		}
		status = in.Status
	}
	if err := h.svc.MechanicUpdateStatus(r.Context(), principal(r), chi.URLParam(r, "request_id"), status); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{"message": "Service request status updated"})
}

// MarkComplete completes an assigned request
func (h *WorkflowHandler) MarkComplete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.MarkComplete(r.Context(), principal(r), chi.URLParam(r, "request_id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{"message": "Service request marked as completed"})
}

// SubmitUpdate records a progress note for admin verification
func (h *WorkflowHandler) SubmitUpdate(w http.ResponseWriter, r *http.Request) {
	var in models.UpdateInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.SubmitUpdate(r.Context(), principal(r), chi.URLParam(r, "request_id"), in.Update); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{"message": "Update submitted for admin verification"})
}

// RecordInventory appends an inventory usage line to an assigned request
func (h *WorkflowHandler) RecordInventory(w http.ResponseWriter, r *http.Request) {
	var in models.InventoryInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	usage, err := h.svc.RecordInventory(r.Context(), principal(r), chi.URLParam(r, "request_id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{
		"message":   "Inventory usage recorded successfully",
		"inventory": usage,
	})
}
