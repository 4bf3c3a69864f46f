package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/baharkarakas/wallet-ledger/internal/api/httpx"
	"github.com/baharkarakas/wallet-ledger/internal/models"
	"github.com/baharkarakas/wallet-ledger/internal/services"
)

type ReportHandler struct {
	Reports *services.ReportService
	Loc     *time.Location
}

func NewReportHandler(rs *services.ReportService, loc *time.Location) *ReportHandler {
	return &ReportHandler{Reports: rs, Loc: loc}
}

// day parses an inclusive YYYY-MM-DD bound. end=true moves it to the
// start of the following day.
func (h *ReportHandler) day(r *http.Request, key string, end bool) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return time.Time{}, nil
	}
	d, err := time.ParseInLocation("2006-01-02", v, h.Loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s: expected YYYY-MM-DD", models.ErrValidation, key)
	}
	if end {
		d = d.AddDate(0, 0, 1)
	}
	return d, nil
}

func (h *ReportHandler) Summary(w http.ResponseWriter, r *http.Request) {
	from, err := h.day(r, "startDate", false)
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	to, err := h.day(r, "endDate", true)
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	sum, err := h.Reports.Summary(r.Context(), actor(r), from, to)
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, sum)
}

func (h *ReportHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	year, month, err := h.Reports.Month(queryInt(r, "year"), queryInt(r, "month"))
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	rep, err := h.Reports.Weekly(r.Context(), actor(r), year, month)
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, rep)
}

func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	year, month, err := h.Reports.Month(queryInt(r, "year"), queryInt(r, "month"))
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	rep, err := h.Reports.Monthly(r.Context(), actor(r), year, month)
	if err != nil {
		httpx.WriteServiceError(w, r, err)
		return
	}
	httpx.WriteData(w, http.StatusOK, rep)
}
