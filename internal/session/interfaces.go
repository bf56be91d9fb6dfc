package session

import (
	"context"

	"github.com/Koyo-os/questionnaire-service/internal/entity"
)

// Store persists forms and responses. Implemented by service.Service.
type Store interface {
	GetForms(ctx context.Context, ownerID string) ([]entity.FormDefinition, error)
	GetForm(ctx context.Context, ownerID, formID string) (entity.FormDefinition, error)
	GetPublicForm(ctx context.Context, formID string) (entity.FormDefinition, error)
	SaveForm(ctx context.Context, ownerID string, form entity.FormDefinition) error
	SubmitResponse(ctx context.Context, formID string, answers entity.Answers) (entity.Response, error)
	GetResponses(ctx context.Context, ownerID, formID string) ([]entity.Response, error)
}
