package domain

import (
	"fmt"
	"time"
)

// UpdateEvent instructs the receiver to apply one rendered signature to one
// account. The account email doubles as ordering key on the channel and as
// idempotency key at the sinks, so redelivery of the same event converges on
// the same end state.
type UpdateEvent struct {
	ID          string    `json:"event_id,omitempty"`
	Email       string    `json:"employee_id"`
	Signature   string    `json:"signature"`
	GeneratedAt time.Time `json:"generated_at,omitempty"`
}

// Validate checks the fields the receiver cannot work without.
func (e UpdateEvent) Validate() error {
	if e.Email == "" {
		return fmt.Errorf("update event missing employee_id")
	}
	if e.Signature == "" {
		return fmt.Errorf("update event for %s missing signature", e.Email)
	}
	return nil
}
