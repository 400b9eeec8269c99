package pubsub

import (
	"encoding/json"
	"fmt"
	"time"

	"sigsync/internal/signature/domain"
)

// PushMessage is the JSON body Pub/Sub POSTs to a push endpoint. The data
// field arrives base64 encoded; encoding/json handles that for []byte.
type PushMessage struct {
	Message struct {
		Data        []byte            `json:"data"`
		MessageID   string            `json:"messageId"`
		PublishTime time.Time         `json:"publishTime"`
		Attributes  map[string]string `json:"attributes"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// DecodeUpdateEvent extracts and validates the update event carried by a
// push delivery.
func DecodeUpdateEvent(push PushMessage) (domain.UpdateEvent, error) {
	var event domain.UpdateEvent
	if len(push.Message.Data) == 0 {
		return event, fmt.Errorf("push message %s has no data", push.Message.MessageID)
	}
	if err := json.Unmarshal(push.Message.Data, &event); err != nil {
		return event, fmt.Errorf("unable to decode update event: %w", err)
	}
	if err := event.Validate(); err != nil {
		return event, err
	}
	return event, nil
}
