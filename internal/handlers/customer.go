package handlers

import (
	"net/http"

	"github.com/ukydev/service-center/internal/models"
	"github.com/ukydev/service-center/internal/service"
)

// WorkflowHandler exposes the service request workflow over HTTP
type WorkflowHandler struct {
	svc *service.Service
}

// NewWorkflowHandler creates a workflow handler
func NewWorkflowHandler(svc *service.Service) *WorkflowHandler {
	return &WorkflowHandler{svc: svc}
}

// ScheduleService creates a service request for the calling customer
func (h *WorkflowHandler) ScheduleService(w http.ResponseWriter, r *http.Request) {
	var in models.ServiceRequestInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	view, err := h.svc.CreateRequest(r.Context(), principal(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, message{
		"message":         "Service request submitted successfully",
		"service_request": view,
	})
}

// CustomerServiceRequests lists the caller's open requests
func (h *WorkflowHandler) CustomerServiceRequests(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ListOwnRequests(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{"service_requests": views})
}

// InitiatePayment pays the bill of one of the caller's requests
func (h *WorkflowHandler) InitiatePayment(w http.ResponseWriter, r *http.Request) {
	var in models.PaymentInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	tx, err := h.svc.InitiatePayment(r.Context(), principal(r), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{
		"message":     "Payment completed successfully",
		"transaction": tx,
	})
}

// CustomerTransactions lists the caller's completed payments
func (h *WorkflowHandler) CustomerTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.svc.ListOwnTransactions(r.Context(), principal(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, message{"completed_transactions": txs})
}
