package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ukydev/service-center/internal/models"
)

// AllServiceRequests lists every open request
func (h *WorkflowHandler) AllServiceRequests(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListAllRequests(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{"service_requests": views})
}

// UpdateServiceStatus overrides a request's status
func (h *WorkflowHandler) UpdateServiceStatus(w http.ResponseWriter, r *http.Request) {
	var in models.StatusInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.AdminSetStatus(r.Context(), principal(r), chi.URLParam(r, "request_id"), in.Status); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{"message": "Service request status updated"})
}

// VerifyUpdate accepts or rejects a mechanic's progress note
func (h *WorkflowHandler) VerifyUpdate(w http.ResponseWriter, r *http.Request) {
	var in models.VerifyInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.svc.VerifyUpdate(r.Context(), principal(r), chi.URLParam(r, "request_id"), in.Verified); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{"message": "Update verification completed"})
}

// GenerateBill attaches a bill to a request
func (h *WorkflowHandler) GenerateBill(w http.ResponseWriter, r *http.Request) {
	var in models.BillInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	bill, err := h.svc.GenerateBill(r.Context(), principal(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{
		"message": "Bill generated successfully",
		"bill":    bill,
	})
}

// AllTransactions lists every completed payment
func (h *WorkflowHandler) AllTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.svc.ListAllTransactions(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{"completed_transactions": txs})
}
