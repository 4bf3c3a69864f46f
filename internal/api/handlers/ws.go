package handlers

import (
	"net/http"

	"github.com/baharkarakas/wallet-ledger/internal/notify"
)

type WSHandler struct {
	Hub *notify.Hub
}

func NewWSHandler(h *notify.Hub) *WSHandler { return &WSHandler{Hub: h} }

// Serve streams status changes of the caller's own transactions.
func (h *WSHandler) Serve(w http.ResponseWriter, r *http.Request) {
	h.Hub.Serve(w, r, actor(r).UserID)
}
