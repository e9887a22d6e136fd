package httpapi

import (
	"net/http"

	"storefront-be/internal/reporting"
	"storefront-be/internal/transport"
)

type reportHandler struct {
	reports reporting.Service
}

func reportRange(r *http.Request) (reporting.Range, error) {
	start, err := queryDate(r, "startDate", false)
	if err != nil {
		return reporting.Range{}, err
	}
	end, err := queryDate(r, "endDate", true)
	if err != nil {
		return reporting.Range{}, err
	}
	return reporting.Range{Start: start, End: end}, nil
}

func (h *reportHandler) sales(w http.ResponseWriter, r *http.Request) {
	rg, err := reportRange(r)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	rep, err := h.reports.Sales(r.Context(), actorFrom(r), rg)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, rep)
}

func (h *reportHandler) inventory(w http.ResponseWriter, r *http.Request) {
	lines, err := h.reports.Inventory(r.Context(), actorFrom(r))
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, lines)
}

func (h *reportHandler) lowStock(w http.ResponseWriter, r *http.Request) {
	lines, err := h.reports.LowStock(r.Context(), actorFrom(r))
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, lines)
}

func (h *reportHandler) products(w http.ResponseWriter, r *http.Request) {
	rg, err := reportRange(r)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	out, err := h.reports.ProductPerformance(r.Context(), actorFrom(r), rg)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, out)
}

func (h *reportHandler) users(w http.ResponseWriter, r *http.Request) {
	rg, err := reportRange(r)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	out, err := h.reports.UserActivity(r.Context(), actorFrom(r), rg)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, out)
}

func (h *reportHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	rg, err := reportRange(r)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	d, err := h.reports.Dashboard(r.Context(), actorFrom(r), rg)
	if err != nil {
		transport.WriteError(r.Context(), w, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, d)
}
