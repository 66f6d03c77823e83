package handler

import (
	"time"

	"github.com/yndnr/toptube-go/internal/core/domain"
)

// ErrorResponse is the error envelope returned by every failing route.
type ErrorResponse struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	RequestID string            `json:"request_id"`
	Timestamp int64             `json:"timestamp"`
	Details   map[string]string `json:"details,omitempty"`
}

// NewErrorResponse creates an error response.
func NewErrorResponse(requestID, code, message string, details map[string]string) *ErrorResponse {
	return &ErrorResponse{
		Code:      code,
		Message:   message,
		RequestID: requestID,
		Timestamp: time.Now().UnixMilli(),
		Details:   details,
	}
}

// RegionsResponse is the response body for GET /api/regions.
type RegionsResponse struct {
	Regions []string `json:"regions"`
}

// HistoryResponse is the response body for GET /api/snapshots.
type HistoryResponse struct {
	Region string                `json:"region"`
	List   []domain.HistoryEntry `json:"list"`
}

// APIHealthResponse is the response body for GET /api/health.
type APIHealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Time    string `json:"time"`
	Version string `json:"version"`
}

// StatusResponse is the response body for GET /health and GET /ready.
type StatusResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}
