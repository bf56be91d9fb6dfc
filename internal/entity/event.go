package entity

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Routing keys of the events emitted by the service
const (
	EventFormSaved         = "form.saved"
	EventFormPublished     = "form.published"
	EventResponseSubmitted = "response.submitted"
)

type (
	// Event is the envelope sent over the message broker
	Event struct {
		ID        string    `json:"id"`
		Payload   []byte    `json:"payload"`
		Type      string    `json:"type"`
		Timestamp time.Time `json:"timestamp"`
	}

	// FormEvent is the payload of form.saved and form.published
	FormEvent struct {
		FormID  string     `json:"form_id"`
		OwnerID string     `json:"owner_id"`
		Status  FormStatus `json:"status"`
	}

	// ResponseEvent is the payload of response.submitted
	ResponseEvent struct {
		FormID     string `json:"form_id"`
		ResponseID string `json:"response_id"`
	}
)

func NewEvent(eventType string, payload []byte) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Payload:   payload,
		Type:      eventType,
		Timestamp: time.Now(),
	}
}

func (e *Event) Validate() error {
	if e.ID == "" {
		return errors.New("event_id is empty")
	}

	if e.Payload == nil {
		return errors.New("payload is nil")
	}

	if e.Type == "" {
		return errors.New("type is empty")
	}

	return nil
}
