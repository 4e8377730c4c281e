package ipc

import "orderbell/internal/api"

// StartRequest asks the daemon to start polling.
type StartRequest struct{}

// StartResponse reports whether the daemon started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest asks the daemon to stop polling.
type StopRequest struct{}

// StopResponse acknowledges a stop request.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest asks for daemon status.
type StatusRequest struct{}

// StatusResponse wraps daemon status.
type StatusResponse struct {
	Status api.DaemonStatus `json:"status"`
}

// ResetRequest clears the new-orders counter. Session also forgets known orders.
type ResetRequest struct {
	Session bool `json:"session"`
}

// ResetResponse reports the outcome of a reset.
type ResetResponse = api.ResetResponse

// VisibilityRequest reports the operator surface visibility.
type VisibilityRequest = api.VisibilityRequest

// VisibilityResponse reports the visibility after the change.
type VisibilityResponse = api.VisibilityResponse

// TestNotificationRequest triggers the fixed test alert.
type TestNotificationRequest struct{}

// TestNotificationResponse reports the outcome of a test alert.
type TestNotificationResponse = api.TestNotificationResponse

// AudioRequest asks for an audio preload or test playback.
type AudioRequest struct{}

// AudioResponse reports bell player state.
type AudioResponse = api.AudioResponse

// HistoryRequest lists recorded alerts.
type HistoryRequest struct {
	Limit int `json:"limit"`
}

// HistoryResponse wraps recorded alerts.
type HistoryResponse = api.HistoryResponse

// OrdersRequest reads the last order snapshot.
type OrdersRequest struct {
	Filter string `json:"filter"`
}

// OrdersResponse wraps the order snapshot.
type OrdersResponse = api.OrderListResponse

// SetOrderStatusRequest updates an order on the backend.
type SetOrderStatusRequest struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// SetOrderStatusResponse returns the updated order.
type SetOrderStatusResponse struct {
	Order api.Order `json:"order"`
}

// ToastsRequest lists active toasts.
type ToastsRequest struct{}

// ToastsResponse wraps active toasts.
type ToastsResponse = api.ToastListResponse
