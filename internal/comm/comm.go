package comm

import (
	"encoding/json"
	"time"

	"github.com/avvvet/checkin-services/internal/checkinsvc/models"
)

// event types published on the check-in topic
const (
	CheckinCreated  = "checkin-created"
	CheckinUpdated  = "checkin-updated"
	CheckinDeleted  = "checkin-deleted"
	CheckinsCleared = "checkins-cleared"
)

type Message struct {
	Type     string          `json:"type"` // e.g. "checkin-created"
	Data     json.RawMessage `json:"data"`
	Instance string          `json:"instance"` // publishing service instance
	SentAt   time.Time       `json:"sentAt"`
}

type CheckinEvent struct {
	Checkin *models.Checkin `json:"checkin,omitempty"`
	ID      string          `json:"id,omitempty"` // set for deletes
}
