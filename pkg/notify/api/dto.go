package api

import "github.com/wordwise/wordwise/pkg/events"

// CreateListenerRequest is the request body for registering a listener.
type CreateListenerRequest struct {
	Name        string             `json:"name"`
	URL         string             `json:"url"`
	Events      []events.EventType `json:"events"`
	Description string             `json:"description,omitempty"`
}

// UpdateListenerRequest is the request body for changing a listener.
// Absent fields are left unchanged.
type UpdateListenerRequest struct {
	Name        *string             `json:"name,omitempty"`
	URL         *string             `json:"url,omitempty"`
	Events      *[]events.EventType `json:"events,omitempty"`
	Enabled     *bool               `json:"enabled,omitempty"`
	Description *string             `json:"description,omitempty"`
}

// ListenerResponse is the API view of a listener.
type ListenerResponse struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	URL          string             `json:"url"`
	Secret       string             `json:"secret,omitempty"` // only on create and rotate
	Events       []events.EventType `json:"events"`
	Enabled      bool               `json:"enabled"`
	Description  string             `json:"description,omitempty"`
	CircuitState string             `json:"circuit_state"`
	CreatedAt    string             `json:"created_at"`
	ModifiedAt   string             `json:"modified_at"`
}

// DeliveryResponse is the API view of a delivery attempt.
type DeliveryResponse struct {
	ID         string `json:"id"`
	EventID    string `json:"event_id"`
	EventType  string `json:"event_type"`
	Attempt    int    `json:"attempt"`
	Status     string `json:"status"`
	StatusCode int    `json:"status_code"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	CreatedAt  string `json:"created_at"`
}

// DeadLetterResponse is the API view of a dead letter.
type DeadLetterResponse struct {
	ID        string `json:"id"`
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	LastError string `json:"last_error"`
	Attempts  int    `json:"attempts"`
	CreatedAt string `json:"created_at"`
}

// ErrorResponse is a standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
}
