package v1

// HealthResponse represents the health check response
type HealthResponse struct {
	Status string `json:"status" example:"healthy"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status string `json:"status" example:"ready"`
}

// SyncAcceptedResponse is returned when a manual run has been started
type SyncAcceptedResponse struct {
	Status string `json:"status" example:"accepted"`
	Target string `json:"target" example:"eshop"`
}
