package handler

import (
	"net/http"
	"strconv"

	"github.com/yndnr/toptube-go/internal/core/domain"
)

// LatestSnapshot handles GET /api/snapshots/latest?region=R.
func (h *Handler) LatestSnapshot(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")

	snap, err := h.resolver.ResolveLatest(r.Context(), region)
	if err != nil {
		h.handleServiceError(w, r, OpLatest, err, ReasonRegionRequired, domain.NormalizeRegion(region))
		return
	}

	h.observe(OpLatest, "")
	h.writeJSON(w, r, h.snapshotCache, snap)
}

// SnapshotByDate handles GET /api/snapshots/{region}/{date}.
func (h *Handler) SnapshotByDate(w http.ResponseWriter, r *http.Request) {
	region := r.PathValue("region")
	date := r.PathValue("date")

	snap, err := h.resolver.ResolveByDate(r.Context(), region, date)
	if err != nil {
		h.handleServiceError(w, r, OpByDate, err, ReasonRegionAndDateRequired, domain.NormalizeRegion(region))
		return
	}

	h.observe(OpByDate, "")
	h.writeJSON(w, r, h.snapshotCache, snap)
}

// History handles GET /api/snapshots?region=R&limit=N.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	region := domain.NormalizeRegion(q.Get("region"))
	if region == "" {
		h.handleServiceError(w, r, OpHistory,
			domain.ErrInvalidInput.WithDetails("region is required"), ReasonRegionRequired, "")
		return
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.handleServiceError(w, r, OpHistory,
				domain.ErrInvalidInput.WithDetails("limit must be an integer"), ReasonInvalidLimit, region)
			return
		}
		limit = n
	}

	list, err := h.history.ListHistory(r.Context(), region, limit)
	if err != nil {
		h.handleServiceError(w, r, OpHistory, err, ReasonInvalidLimit, region)
		return
	}

	h.observe(OpHistory, "")
	h.writeJSON(w, r, h.listCache, HistoryResponse{Region: region, List: list})
}

// Regions handles GET /api/regions.
func (h *Handler) Regions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.regions.ListRegions(r.Context())
	if err != nil {
		h.handleServiceError(w, r, OpRegions, err, "", "")
		return
	}

	h.observe(OpRegions, "")
	h.writeJSON(w, r, h.listCache, RegionsResponse{Regions: regions})
}
