package handlers

import (
	"net/http"

	"github.com/baharkarakas/wallet-ledger/internal/api/httpx"
	"github.com/baharkarakas/wallet-ledger/internal/services"
)

type WalletHandler struct {
	Wallet *services.WalletService
}

func NewWalletHandler(ws *services.WalletService) *WalletHandler {
	return &WalletHandler{Wallet: ws}
}

func (h *WalletHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.Wallet.Stats(r.Context(), actor(r), r.URL.Query().Get("userId"))
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, st)
}
