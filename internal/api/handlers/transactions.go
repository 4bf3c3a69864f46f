package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/baharkarakas/wallet-ledger/internal/api/httpx"
	"github.com/baharkarakas/wallet-ledger/internal/services"
)

type TransactionHandler struct {
	Txns *services.TransactionService
}

func NewTransactionHandler(ts *services.TransactionService) *TransactionHandler {
	return &TransactionHandler{Txns: ts}
}

func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.Txns.List(r.Context(), actor(r), services.ListQuery{
		UserID:    q.Get("userId"),
		Type:      q.Get("type"),
		Status:    q.Get("status"),
		Method:    q.Get("method"),
		Class:     q.Get("class"),
		Search:    q.Get("search"),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
		SortBy:    q.Get("sortBy"),
		Order:     q.Get("order"),
		Page:      queryInt(r, "page"),
		Limit:     queryInt(r, "limit"),
		Cursor:    q.Get("cursor"),
	})
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

func (h *TransactionHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	page, err := h.Txns.ListByUser(r.Context(), actor(r), chi.URLParam(r, "id"), queryInt(r, "page"), queryInt(r, "limit"))
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateInput
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	req.IdempotencyKey = r.Header.Get("Idempotency-Key")
	tx, replayed, err := h.Txns.Create(r.Context(), actor(r), req)
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	status := http.StatusCreated
	if replayed {
		w.Header().Set("Idempotent-Replayed", "true")
		status = http.StatusOK
	}
	httpx.WriteData(w, status, tx)
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	tx, err := h.Txns.Get(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, tx)
}

func (h *TransactionHandler) GetByReference(w http.ResponseWriter, r *http.Request) {
	tx, err := h.Txns.GetByReference(r.Context(), actor(r), chi.URLParam(r, "ref"))
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, tx)
}

func (h *TransactionHandler) History(w http.ResponseWriter, r *http.Request) {
	logs, err := h.Txns.History(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, logs)
}

func (h *TransactionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	tx, err := h.Txns.Approve(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, tx)
}

type rejectReq struct {
	Reason string `json:"reason"`
}

func (h *TransactionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req rejectReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	tx, err := h.Txns.Reject(r.Context(), actor(r), chi.URLParam(r, "id"), req.Reason)
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, tx)
}

type completeReq struct {
	TransactionID string `json:"transactionId"`
}

// Complete accepts an empty body for cash and deposits.
func (h *TransactionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req completeReq
	if r.ContentLength != 0 {
		if err := httpx.Decode(r, &req); err != nil {
			httpx.WriteServiceError(w, r, err)
			return
		}
	}
	tx, err := h.Txns.Complete(r.Context(), actor(r), chi.URLParam(r, "id"), req.TransactionID)
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, tx)
}

func (h *TransactionHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	tx, err := h.Txns.Confirm(r.Context(), actor(r), chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, tx)
}
