package httpx

// HTTPError represents a standard error in JSON.
// swagger:model
type HTTPError struct {
	// Error message
	// example: not found
	Error string `json:"error"`
	// example: quantity must be between 1 and 99
	Message string `json:"message,omitempty"`
}
