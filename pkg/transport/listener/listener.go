// Package listener applies consumed domain events to the local cache
package listener

import (
	"context"
	"encoding/json"

	"github.com/Koyo-os/questionnaire-service/internal/entity"
	"github.com/Koyo-os/questionnaire-service/pkg/logger"
	"github.com/Koyo-os/questionnaire-service/pkg/metrics"
	"go.uber.org/zap"
)

// Invalidator drops cached state. Implemented by service.Service.
type Invalidator interface {
	InvalidateForm(ctx context.Context, formID string) error
	InvalidateResponses(ctx context.Context, formID string) error
}

type Listener struct {
	inputChan   <-chan entity.Event
	logger      *logger.Logger
	invalidator Invalidator
	metrics     *metrics.Metrics
}

func Init(inputChan <-chan entity.Event, logger *logger.Logger, invalidator Invalidator) *Listener {
	return &Listener{
		inputChan:   inputChan,
		logger:      logger,
		invalidator: invalidator,
	}
}

// SetMetrics counts consumed events on m
func (list *Listener) SetMetrics(m *metrics.Metrics) {
	list.metrics = m
}

// Listen handles events until ctx is done or the input channel is closed
func (list *Listener) Listen(ctx context.Context) error {
	for {
		select {
		case event, ok := <-list.inputChan:
			if !ok {
				list.logger.Info("event channel closed, stopping listener")
				return nil
			}
			list.handle(ctx, event)

		case <-ctx.Done():
			list.logger.Info("stopping listeners...")
			return nil
		}
	}
}

func (list *Listener) handle(ctx context.Context, event entity.Event) {
	list.metrics.EventConsumed(event.Type)

	switch event.Type {
	case entity.EventFormSaved, entity.EventFormPublished:
		var payload entity.FormEvent
		if !list.decode(event, &payload) {
			return
		}
		if err := list.invalidator.InvalidateForm(ctx, payload.FormID); err != nil {
			list.logger.Error("error invalidate form",
				zap.String("form_id", payload.FormID),
				zap.Error(err))
		}

	case entity.EventResponseSubmitted:
		var payload entity.ResponseEvent
		if !list.decode(event, &payload) {
			return
		}
		if err := list.invalidator.InvalidateResponses(ctx, payload.FormID); err != nil {
			list.logger.Error("error invalidate responses",
				zap.String("form_id", payload.FormID),
				zap.Error(err))
		}

	default:
		list.logger.Debug("ignoring event",
			zap.String("event_type", event.Type),
			zap.String("event_id", event.ID))
	}
}

func (list *Listener) decode(event entity.Event, out any) bool {
	if err := json.Unmarshal(event.Payload, out); err != nil {
		list.logger.Error("error unmarshal event payload",
			zap.String("event_type", event.Type),
			zap.String("event_id", event.ID),
			zap.Error(err))
		return false
	}
	return true
}
