package notify

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/pitabwire/frame/data"

	"github.com/wordwise/wordwise/pkg/events"
)

// Delivery statuses.
const (
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
)

// Listener is an external endpoint that receives signed copies of speech and
// script events, for example a learner progress tracker.
type Listener struct {
	data.BaseModel

	Name        string      `gorm:"type:varchar(255);not null"  json:"name"`
	URL         string      `gorm:"type:varchar(2048);not null" json:"url"`
	Secret      string      `gorm:"type:varchar(128);not null"  json:"-"`
	Events      EventFilter `gorm:"type:jsonb;default:'[]'"     json:"events"`
	Enabled     bool        `gorm:"default:true"                json:"enabled"`
	Description string      `gorm:"type:text"                   json:"description,omitempty"`
}

func (Listener) TableName() string { return "event_listeners" }

// EventFilter is the set of event types a listener wants. An empty filter
// matches every event.
type EventFilter []events.EventType

// Matches reports whether et passes the filter.
func (f EventFilter) Matches(et events.EventType) bool {
	return len(f) == 0 || slices.Contains(f, et)
}

func (f EventFilter) Value() (driver.Value, error) {
	if f == nil {
		return "[]", nil
	}
	b, err := json.Marshal(f)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (f *EventFilter) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*f = nil
		return nil
	case []byte:
		return json.Unmarshal(v, f)
	case string:
		return json.Unmarshal([]byte(v), f)
	default:
		return fmt.Errorf("event filter: unsupported column type %T", src)
	}
}

// Delivery records one POST of an event to a listener.
type Delivery struct {
	data.BaseModel

	ListenerID string `gorm:"type:varchar(50);not null;index:idx_delivery_listener" json:"listener_id"`
	EventID    string `gorm:"type:varchar(50);not null"                             json:"event_id"`
	EventType  string `gorm:"type:varchar(100);not null"                            json:"event_type"`
	Attempt    int    `gorm:"default:1"                                             json:"attempt"`
	Status     string `gorm:"type:varchar(20);not null"                             json:"status"`
	StatusCode int    `gorm:"default:0"                                             json:"status_code"`
	Error      string `gorm:"type:text"                                             json:"error,omitempty"`
	DurationMs int64  `gorm:"default:0"                                             json:"duration_ms"`
}

func (Delivery) TableName() string { return "listener_deliveries" }

// DeadLetter holds an event that exhausted its delivery attempts.
type DeadLetter struct {
	data.BaseModel

	ListenerID string `gorm:"type:varchar(50);not null;index:idx_dead_letter_listener" json:"listener_id"`
	EventID    string `gorm:"type:varchar(50);not null"                                json:"event_id"`
	EventType  string `gorm:"type:varchar(100);not null"                               json:"event_type"`
	Payload    string `gorm:"type:text;not null"                                       json:"payload"`
	LastError  string `gorm:"type:text"                                                json:"last_error"`
	Attempts   int    `gorm:"default:0"                                                json:"attempts"`
	Replayable bool   `gorm:"default:true"                                             json:"replayable"`
}

func (DeadLetter) TableName() string { return "listener_dead_letters" }
