// Package handlers adapts HTTP requests onto the services.
package handlers

import (
	"net/http"
	"strconv"

	"github.com/baharkarakas/wallet-ledger/internal/lifecycle"
	"github.com/baharkarakas/wallet-ledger/internal/middleware"
)

func actor(r *http.Request) lifecycle.Actor {
	return middleware.FromCtx(r.Context()).Actor()
}

// queryInt reads a non-negative integer parameter; anything else yields 0
// and the service default applies.
func queryInt(r *http.Request, key string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
