package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/yndnr/toptube-go/internal/core/domain"
	"github.com/yndnr/toptube-go/internal/telemetry/logger"
	"github.com/yndnr/toptube-go/internal/telemetry/metric"
)

// Operation labels for resolution metrics.
const (
	OpLatest  = "latest"
	OpByDate  = "by_date"
	OpHistory = "history"
	OpRegions = "regions"
)

// Error reasons reported in details.reason.
const (
	ReasonRegionRequired        = "region_required"
	ReasonRegionAndDateRequired = "region_and_date_required"
	ReasonInvalidLimit          = "invalid_limit"
	ReasonNoLatestForRegion     = "no_latest_for_region"
	ReasonSnapshotNotFound      = "snapshot_not_found"
	ReasonLatestMissingDate     = "latest_missing_date"
	ReasonSnapshotMalformed     = "snapshot_malformed"
	ReasonStoreUnavailable      = "store_unavailable"
	ReasonNotFound              = "not_found"
	ReasonRateLimited           = "rate_limited"
	ReasonInternal              = "internal_error"
)

// StatusClientClosedRequest is recorded when the client disconnects
// before the response is ready. Nothing reaches the client.
const StatusClientClosedRequest = 499

const (
	defaultCacheMaxAge   = 5 * time.Minute
	staleWhileRevalidate = 60
)

// SnapshotResolver resolves a region to a stored snapshot.
type SnapshotResolver interface {
	ResolveLatest(ctx context.Context, region string) (*domain.Snapshot, error)
	ResolveByDate(ctx context.Context, region, date string) (*domain.Snapshot, error)
}

// RegionLister lists regions that have a latest pointer.
type RegionLister interface {
	ListRegions(ctx context.Context) ([]string, error)
}

// HistoryLister lists recent snapshots of a region.
type HistoryLister interface {
	ListHistory(ctx context.Context, region string, limit int) ([]domain.HistoryEntry, error)
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config wires a Handler to its services.
type Config struct {
	Resolver SnapshotResolver
	Regions  RegionLister
	History  HistoryLister
	Store    Pinger

	// Metrics is optional.
	Metrics *metric.Registry

	ServiceName string
	Version     string

	// CacheMaxAge sets max-age on cacheable responses. Zero means 5m.
	CacheMaxAge time.Duration
}

// Handler serves the read API.
type Handler struct {
	resolver SnapshotResolver
	regions  RegionLister
	history  HistoryLister
	store    Pinger
	metrics  *metric.Registry

	service string
	version string

	listCache     string
	snapshotCache string
}

// New creates a Handler.
func New(cfg Config) *Handler {
	maxAge := cfg.CacheMaxAge
	if maxAge <= 0 {
		maxAge = defaultCacheMaxAge
	}
	secs := int(maxAge / time.Second)

	return &Handler{
		resolver:      cfg.Resolver,
		regions:       cfg.Regions,
		history:       cfg.History,
		store:         cfg.Store,
		metrics:       cfg.Metrics,
		service:       cfg.ServiceName,
		version:       cfg.Version,
		listCache:     fmt.Sprintf("public, max-age=%d", secs),
		snapshotCache: fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d", secs, staleWhileRevalidate),
	}
}

// NotFound answers requests that match no route.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusNotFound, domain.ErrRouteNotFound.Code, domain.ErrRouteNotFound.Message,
		map[string]string{"reason": ReasonNotFound})
}

// writeJSON writes a bare JSON body with a strong ETag. A matching
// If-None-Match yields 304 with no body.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, cacheControl string, data any) {
	body, err := json.Marshal(data)
	if err != nil {
		logger.L(r.Context()).Error("failed to encode response", "error", err)
		WriteError(w, r, http.StatusInternalServerError, domain.ErrInternalServer.Code, domain.ErrInternalServer.Message,
			map[string]string{"reason": ReasonInternal})
		return
	}
	body = append(body, '\n')

	tag := ETag(body)
	hdr := w.Header()
	hdr.Set("Cache-Control", cacheControl)
	hdr.Set("ETag", tag)

	if MatchesETag(r.Header.Get("If-None-Match"), tag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	hdr.Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		logger.L(r.Context()).Debug("failed to write response", "error", err)
	}
}

// writeStatus writes an uncached JSON body.
func writeStatus(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.L(r.Context()).Debug("failed to write response", "error", err)
	}
}

// WriteError writes the error envelope. Middleware uses it for failures
// raised before a handler runs.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]string) {
	requestID := logger.RequestIDFromContext(r.Context())
	if requestID == "" {
		requestID = w.Header().Get("X-Request-ID")
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Error-Code", code)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(NewErrorResponse(requestID, code, message, details))
}

// errorMapping is the transport view of one domain error code.
type errorMapping struct {
	status int
	reason string
}

var errorMappings = map[string]errorMapping{
	domain.ErrInvalidInput.Code:              {http.StatusBadRequest, ""},
	domain.ErrNoLatestPointer.Code:           {http.StatusNotFound, ReasonNoLatestForRegion},
	domain.ErrSnapshotDocumentMissing.Code:   {http.StatusNotFound, ReasonSnapshotNotFound},
	domain.ErrLatestPointerMissingDate.Code:  {http.StatusInternalServerError, ReasonLatestMissingDate},
	domain.ErrSnapshotDocumentMalformed.Code: {http.StatusInternalServerError, ReasonSnapshotMalformed},
	domain.ErrStoreUnavailable.Code:          {http.StatusServiceUnavailable, ReasonStoreUnavailable},
	domain.ErrRouteNotFound.Code:             {http.StatusNotFound, ReasonNotFound},
	domain.ErrRateLimited.Code:               {http.StatusTooManyRequests, ReasonRateLimited},
}

// handleServiceError converts a service error to the error envelope.
// invalidReason is the reason reported for ErrInvalidInput, which
// depends on the route.
func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, op string, err error, invalidReason, region string) {
	if errors.Is(err, context.Canceled) && r.Context().Err() != nil {
		logger.L(r.Context()).Debug("client went away", "operation", op)
		h.observe(op, metric.OutcomeCanceled)
		w.WriteHeader(StatusClientClosedRequest)
		return
	}

	var de *domain.DomainError
	if !errors.As(err, &de) {
		logger.L(r.Context()).Error("internal error", "operation", op, "error", err)
		h.observe(op, domain.ErrInternalServer.Code)
		WriteError(w, r, http.StatusInternalServerError, domain.ErrInternalServer.Code, domain.ErrInternalServer.Message,
			map[string]string{"reason": ReasonInternal})
		return
	}
	h.observe(op, de.Code)

	m, ok := errorMappings[de.Code]
	if !ok {
		m = errorMapping{http.StatusInternalServerError, ReasonInternal}
	}
	details := map[string]string{"reason": m.reason}
	message := de.Message

	switch de.Code {
	case domain.ErrInvalidInput.Code:
		details["reason"] = invalidReason
		if de.Details != "" {
			message = de.Details
		}
	case domain.ErrSnapshotDocumentMissing.Code, domain.ErrSnapshotDocumentMalformed.Code:
		details["doc_id"] = de.Details
	case domain.ErrNoLatestPointer.Code, domain.ErrLatestPointerMissingDate.Code:
		details["region"] = region
	}

	if m.status >= http.StatusInternalServerError {
		logger.L(r.Context()).Error("snapshot request failed",
			"operation", op,
			"code", de.Code,
			"error", err,
		)
	}

	WriteError(w, r, m.status, de.Code, message, details)
}

func (h *Handler) observe(op, code string) {
	if h.metrics != nil {
		h.metrics.ObserveResolution(op, code)
	}
}
