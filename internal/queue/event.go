// Package queue carries background job messages over RabbitMQ.
package queue

import (
	"encoding/json"
	"time"
)

// JobMessage is published for every asynchronously dispatched job.  The
// worker decodes Payload according to Kind.
type JobMessage struct {
	ID          string          `json:"id"`
	Kind        string          `json:"kind"`
	UserID      uint64          `json:"user_id,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
	SubmittedAt time.Time       `json:"submitted_at"`
}
