package service

import (
	"context"

	"github.com/Koyo-os/questionnaire-service/internal/entity"
)

type (
	// Repository is implemented by every persistence backend
	Repository interface {
		ListForms(ctx context.Context, ownerID string) ([]entity.FormDefinition, error)
		GetForm(ctx context.Context, formID string) (entity.FormDefinition, error)
		SaveForm(ctx context.Context, form entity.FormDefinition) error
		AppendResponse(ctx context.Context, resp entity.Response) error
		ListResponses(ctx context.Context, formID string) ([]entity.Response, error)
	}

	Publisher interface {
		Publish(payload any, routingKey string) error
	}

	// Casher is a read-through cache. Misses are reported with found=false.
	Casher interface {
		GetForm(ctx context.Context, formID string) (form entity.FormDefinition, found bool, err error)
		SetForm(ctx context.Context, form entity.FormDefinition) error
		GetResponses(ctx context.Context, formID string) (responses []entity.Response, found bool, err error)
		SetResponses(ctx context.Context, formID string, responses []entity.Response) error
		InvalidateForm(ctx context.Context, formID string) error
		InvalidateResponses(ctx context.Context, formID string) error
	}
)

type nopCasher struct{}

func (nopCasher) GetForm(context.Context, string) (entity.FormDefinition, bool, error) {
	return entity.FormDefinition{}, false, nil
}
func (nopCasher) SetForm(context.Context, entity.FormDefinition) error { return nil }
func (nopCasher) GetResponses(context.Context, string) ([]entity.Response, bool, error) {
	return nil, false, nil
}
func (nopCasher) SetResponses(context.Context, string, []entity.Response) error { return nil }
func (nopCasher) InvalidateForm(context.Context, string) error                  { return nil }
func (nopCasher) InvalidateResponses(context.Context, string) error             { return nil }

type nopPublisher struct{}

func (nopPublisher) Publish(any, string) error { return nil }
