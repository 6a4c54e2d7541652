/**
 * @description
 * This file contains the HTTP handlers for the escrow-service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the appropriate
 * methods on the application service, and writing the HTTP response. They act as the
 * bridge between the web layer and the business logic layer.
 *
 * @dependencies
 * - encoding/json, log, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - internal/app, internal/domain, internal/ledger, internal/store: Service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/paylock/escrow-service/internal/app"
	"github.com/paylock/escrow-service/internal/domain"
	"github.com/paylock/escrow-service/internal/ledger"
	"github.com/paylock/escrow-service/internal/store"
)

// TransferHandlers holds the application service that handlers will use.
type TransferHandlers struct {
	service *app.Service
}

// NewTransferHandlers creates a new instance of TransferHandlers.
func NewTransferHandlers(service *app.Service) *TransferHandlers {
	return &TransferHandlers{service: service}
}

// transferResponse is the JSON shape returned for a single transfer record.
type transferResponse struct {
	TransferID      int64     `json:"transfer_id"`
	Sender          string    `json:"sender"`
	Recipient       string    `json:"recipient"`
	Amount          int64     `json:"amount"`
	Fee             int64     `json:"fee"`
	Status          string    `json:"status"`
	CreatedAtHeight int64     `json:"created_at_height"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func buildTransferResponse(transfer *domain.Transfer) transferResponse {
	return transferResponse{
		TransferID:      transfer.ID,
		Sender:          transfer.Sender,
		Recipient:       transfer.Recipient,
		Amount:          transfer.Amount,
		Fee:             transfer.Fee,
		Status:          string(transfer.Status),
		CreatedAtHeight: transfer.CreatedAtHeight,
		CreatedAt:       transfer.CreatedAt,
		UpdatedAt:       transfer.UpdatedAt,
	}
}

// CreateTransferHandler handles requests to escrow funds toward a recipient.
func (h *TransferHandlers) CreateTransferHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := GetCallerPrincipal(r.Context())
	if !ok {
		http.Error(w, "Could not get caller principal from context", http.StatusInternalServerError)
		return
	}

	var req domain.CreateTransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("level=warn component=api endpoint=create_transfer outcome=reject reason=invalid_json err=%v", err)
		http.Error(w, fmt.Sprintf("Invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	transfer, err := h.service.CreateTransfer(r.Context(), caller, req)
	if err != nil {
		log.Printf("level=warn component=api endpoint=create_transfer outcome=failed sender=%s err=%v", caller, err)
		h.writeServiceError(w, err)
		return
	}

	log.Printf("level=info component=api endpoint=create_transfer outcome=accepted transfer_id=%d sender=%s recipient=%s amount=%d fee=%d",
		transfer.ID, caller, transfer.Recipient, transfer.Amount, transfer.Fee)
	h.writeJSON(w, http.StatusCreated, buildTransferResponse(transfer))
}

// ConfirmTransferHandler handles the recipient's claim on an escrowed transfer.
func (h *TransferHandlers) ConfirmTransferHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := GetCallerPrincipal(r.Context())
	if !ok {
		http.Error(w, "Could not get caller principal from context", http.StatusInternalServerError)
		return
	}
	id, ok := h.parseTransferID(w, r)
	if !ok {
		return
	}

	transfer, err := h.service.ConfirmTransfer(r.Context(), caller, id)
	if err != nil {
		log.Printf("level=warn component=api endpoint=confirm_transfer outcome=failed transfer_id=%d caller=%s err=%v", id, caller, err)
		h.writeServiceError(w, err)
		return
	}

	log.Printf("level=info component=api endpoint=confirm_transfer outcome=confirmed transfer_id=%d recipient=%s", id, caller)
	h.writeJSON(w, http.StatusOK, buildTransferResponse(transfer))
}

// CancelTransferHandler handles the sender's cancellation of a pending transfer.
func (h *TransferHandlers) CancelTransferHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := GetCallerPrincipal(r.Context())
	if !ok {
		http.Error(w, "Could not get caller principal from context", http.StatusInternalServerError)
		return
	}
	id, ok := h.parseTransferID(w, r)
	if !ok {
		return
	}

	transfer, err := h.service.CancelTransfer(r.Context(), caller, id)
	if err != nil {
		log.Printf("level=warn component=api endpoint=cancel_transfer outcome=failed transfer_id=%d caller=%s err=%v", id, caller, err)
		h.writeServiceError(w, err)
		return
	}

	log.Printf("level=info component=api endpoint=cancel_transfer outcome=cancelled transfer_id=%d sender=%s", id, caller)
	h.writeJSON(w, http.StatusOK, buildTransferResponse(transfer))
}

// GetTransferHandler returns a single transfer visible to the caller.
func (h *TransferHandlers) GetTransferHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := GetCallerPrincipal(r.Context())
	if !ok {
		http.Error(w, "Could not get caller principal from context", http.StatusInternalServerError)
		return
	}
	id, ok := h.parseTransferID(w, r)
	if !ok {
		return
	}

	transfer, err := h.service.GetTransfer(r.Context(), caller, id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, buildTransferResponse(transfer))
}

// ListTransfersHandler returns every transfer the caller participates in.
func (h *TransferHandlers) ListTransfersHandler(w http.ResponseWriter, r *http.Request) {
	caller, ok := GetCallerPrincipal(r.Context())
	if !ok {
		http.Error(w, "Could not get caller principal from context", http.StatusInternalServerError)
		return
	}

	transfers, err := h.service.ListTransfers(r.Context(), caller)
	if err != nil {
		log.Printf("level=error component=api endpoint=list_transfers caller=%s err=%v", caller, err)
		h.writeError(w, http.StatusInternalServerError, "Unable to list transfers")
		return
	}

	responses := make([]transferResponse, 0, len(transfers))
	for i := range transfers {
		responses = append(responses, buildTransferResponse(&transfers[i]))
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"transfers": responses})
}

func (h *TransferHandlers) parseTransferID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "Invalid transfer id")
		return 0, false
	}
	return id, true
}

// writeServiceError maps the service's error taxonomy onto HTTP status codes:
// authorization 403, not-found 404, state 409, timing 409, funds 402,
// validation 400, rate limiting 429.
func (h *TransferHandlers) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrTransferNotFound):
		h.writeError(w, http.StatusNotFound, "Transfer not found")
	case errors.Is(err, app.ErrNotSender), errors.Is(err, app.ErrNotRecipient):
		h.writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, store.ErrTransferSettled):
		h.writeError(w, http.StatusConflict, "Transfer has already been settled")
	case errors.Is(err, app.ErrCoolingPeriodActive):
		h.writeError(w, http.StatusConflict, "Cooling period has not elapsed yet")
	case errors.Is(err, ledger.ErrInsufficientFunds):
		h.writeError(w, http.StatusPaymentRequired, "Insufficient funds")
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidRecipient):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrConfirmRateLimited):
		h.writeError(w, http.StatusTooManyRequests, "Too many confirmation attempts, slow down")
	default:
		h.writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// writeJSON is a helper for writing JSON responses.
func (h *TransferHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *TransferHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
