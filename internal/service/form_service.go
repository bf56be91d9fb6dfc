// Package service implements the form store used by the session controller on
// top of a repository, an optional cache and an optional event publisher.
package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Koyo-os/questionnaire-service/internal/entity"
	"github.com/Koyo-os/questionnaire-service/internal/results"
	"github.com/Koyo-os/questionnaire-service/pkg/logger"
	"github.com/Koyo-os/questionnaire-service/pkg/metrics"
	"github.com/Koyo-os/questionnaire-service/pkg/retrier"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrOwnerRequired is returned when a write carries no owner identity
var ErrOwnerRequired = errors.New("owner id is required")

type Service struct {
	casher    Casher
	repo      Repository
	publisher Publisher
	logger    *logger.Logger
	metrics   *metrics.Metrics

	cacheTimeout time.Duration
	cacheRetry   retrier.Opts
	now          func() time.Time

	writes *writeLog
}

// writeLog counts writes and remote invalidations per form id. A cache fill
// that overlaps one of them must not leave its value in the cache.
type writeLog struct {
	mu     sync.Mutex
	counts map[string]uint64
}

func (w *writeLog) current(formID string) uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.counts[formID]
}

func (w *writeLog) bump(formID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.counts[formID]++
}

// Init builds the service. A nil casher or publisher disables caching or events.
func Init(casher Casher, repo Repository, publisher Publisher, logger *logger.Logger, cacheTimeout time.Duration) *Service {
	if casher == nil {
		casher = nopCasher{}
	}
	if publisher == nil {
		publisher = nopPublisher{}
	}

	return &Service{
		casher:       casher,
		repo:         repo,
		publisher:    publisher,
		logger:       logger,
		cacheTimeout: cacheTimeout,
		cacheRetry:   retrier.Opts{Count: 2, Interval: 50 * time.Millisecond},
		now:          time.Now,
		writes:       &writeLog{counts: map[string]uint64{}},
	}
}

// SetMetrics enables instrumentation. Passing nil disables it.
func (s *Service) SetMetrics(m *metrics.Metrics) {
	s.metrics = m
}

// GetForms lists the forms owned by ownerID
func (s *Service) GetForms(ctx context.Context, ownerID string) ([]entity.FormDefinition, error) {
	start := time.Now()
	forms, err := s.repo.ListForms(ctx, ownerID)
	s.metrics.ObserveStore("list_forms", start, err)
	if err != nil {
		return nil, persistence("list forms", err)
	}
	return forms, nil
}

// GetForm returns a form only to its owner
func (s *Service) GetForm(ctx context.Context, ownerID, formID string) (entity.FormDefinition, error) {
	form, err := s.loadForm(ctx, formID)
	if err != nil {
		return entity.FormDefinition{}, err
	}
	if form.OwnerID != ownerID {
		return entity.FormDefinition{}, entity.ErrNotFound
	}
	return form, nil
}

// GetPublicForm returns a published form to anyone. Drafts are reported as missing.
func (s *Service) GetPublicForm(ctx context.Context, formID string) (entity.FormDefinition, error) {
	form, err := s.loadForm(ctx, formID)
	if err != nil {
		return entity.FormDefinition{}, err
	}
	if !form.IsPublished() {
		return entity.FormDefinition{}, entity.ErrNotFound
	}
	return form, nil
}

// SaveForm upserts the form for ownerID. A form id held by another owner is
// reported as missing rather than overwritten.
func (s *Service) SaveForm(ctx context.Context, ownerID string, form entity.FormDefinition) error {
	if strings.TrimSpace(ownerID) == "" {
		return ErrOwnerRequired
	}

	existing, err := s.repo.GetForm(ctx, form.ID)
	switch {
	case err == nil && existing.OwnerID != ownerID:
		return entity.ErrNotFound
	case err != nil && !errors.Is(err, entity.ErrNotFound):
		return persistence("load form", err)
	}

	form = form.Clone()
	form.OwnerID = ownerID
	if form.Status == "" {
		form.Status = entity.StatusDraft
	}

	start := time.Now()
	err = s.repo.SaveForm(ctx, form)
	s.metrics.ObserveStore("save_form", start, err)
	if err != nil {
		return persistence("save form", err)
	}

	s.writes.bump(form.ID)
	s.cache(ctx, "set form", form.ID, func(ctx context.Context) error {
		return s.casher.SetForm(ctx, form)
	})

	routingKey := entity.EventFormSaved
	if form.IsPublished() {
		routingKey = entity.EventFormPublished
	}
	s.publish(routingKey, entity.FormEvent{FormID: form.ID, OwnerID: ownerID, Status: form.Status})

	s.logger.Info("form saved",
		zap.String("form_id", form.ID),
		zap.String("status", string(form.Status)))

	return nil
}

// SubmitResponse validates and appends an anonymous response to a published form
func (s *Service) SubmitResponse(ctx context.Context, formID string, answers entity.Answers) (entity.Response, error) {
	form, err := s.GetPublicForm(ctx, formID)
	if err != nil {
		return entity.Response{}, err
	}

	if err := results.ValidateResponse(form, answers).Err(); err != nil {
		return entity.Response{}, err
	}

	resp := entity.Response{
		ID:          uuid.NewString(),
		FormID:      formID,
		SubmittedAt: s.now().UTC(),
		Answers:     answers.Clone(),
	}
	if resp.Answers == nil {
		resp.Answers = entity.Answers{}
	}

	start := time.Now()
	err = s.repo.AppendResponse(ctx, resp)
	s.metrics.ObserveStore("append_response", start, err)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return entity.Response{}, err
		}
		return entity.Response{}, persistence("append response", err)
	}
	s.metrics.ResponseSubmitted()

	s.writes.bump(formID)
	s.cache(ctx, "invalidate responses", formID, func(ctx context.Context) error {
		return s.casher.InvalidateResponses(ctx, formID)
	})
	s.publish(entity.EventResponseSubmitted, entity.ResponseEvent{FormID: formID, ResponseID: resp.ID})

	return resp, nil
}

// GetResponses returns the responses of a form to its owner, in submission order
func (s *Service) GetResponses(ctx context.Context, ownerID, formID string) ([]entity.Response, error) {
	if _, err := s.GetForm(ctx, ownerID, formID); err != nil {
		return nil, err
	}

	cached, found, err := s.readResponsesCache(ctx, formID)
	s.metrics.CacheLookup("responses", err == nil && found)
	if err == nil && found {
		return cached, nil
	}

	written := s.writes.current(formID)
	start := time.Now()
	list, err := s.repo.ListResponses(ctx, formID)
	s.metrics.ObserveStore("list_responses", start, err)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, err
		}
		return nil, persistence("list responses", err)
	}

	s.fill(ctx, "set responses", formID, written,
		func(ctx context.Context) error { return s.casher.SetResponses(ctx, formID, list) },
		func(ctx context.Context) error { return s.casher.InvalidateResponses(ctx, formID) })
	return list, nil
}

// InvalidateForm drops the cached form, called when another instance changed it
func (s *Service) InvalidateForm(ctx context.Context, formID string) error {
	s.writes.bump(formID)
	return s.casher.InvalidateForm(ctx, formID)
}

// InvalidateResponses drops the cached response list of a form
func (s *Service) InvalidateResponses(ctx context.Context, formID string) error {
	s.writes.bump(formID)
	return s.casher.InvalidateResponses(ctx, formID)
}

func (s *Service) loadForm(ctx context.Context, formID string) (entity.FormDefinition, error) {
	cctx, cancel := context.WithTimeout(ctx, s.cacheTimeout)
	form, found, err := s.casher.GetForm(cctx, formID)
	cancel()
	if err != nil {
		s.logger.Warn("error read form cache", zap.String("form_id", formID), zap.Error(err))
	}
	s.metrics.CacheLookup("form", err == nil && found)
	if err == nil && found {
		return form, nil
	}

	written := s.writes.current(formID)
	start := time.Now()
	form, err = s.repo.GetForm(ctx, formID)
	s.metrics.ObserveStore("get_form", start, err)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return entity.FormDefinition{}, err
		}
		return entity.FormDefinition{}, persistence("load form", err)
	}

	s.fill(ctx, "set form", formID, written,
		func(ctx context.Context) error { return s.casher.SetForm(ctx, form) },
		func(ctx context.Context) error { return s.casher.InvalidateForm(ctx, formID) })
	return form, nil
}

func (s *Service) readResponsesCache(ctx context.Context, formID string) ([]entity.Response, bool, error) {
	cctx, cancel := context.WithTimeout(ctx, s.cacheTimeout)
	defer cancel()

	list, found, err := s.casher.GetResponses(cctx, formID)
	if err != nil {
		s.logger.Warn("error read responses cache", zap.String("form_id", formID), zap.Error(err))
	}
	return list, found, err
}

// cache runs a best-effort cache write; failures are logged, never returned
func (s *Service) cache(ctx context.Context, op, formID string, fn func(context.Context) error) {
	cctx, cancel := context.WithTimeout(ctx, s.cacheTimeout)
	defer cancel()

	if err := retrier.Do(cctx, s.cacheRetry, func() error { return fn(cctx) }); err != nil {
		s.logger.Warn("cache operation failed",
			zap.String("op", op),
			zap.String("form_id", formID),
			zap.Error(err))
	}
}

// fill stores a value read from the repository while no write to formID
// happened since written. A write landing during the store makes fill drop
// the value again.
func (s *Service) fill(ctx context.Context, op, formID string, written uint64, set, invalidate func(context.Context) error) {
	if s.writes.current(formID) != written {
		s.logger.Debug("skip stale cache fill", zap.String("op", op), zap.String("form_id", formID))
		return
	}

	s.cache(ctx, op, formID, set)

	if s.writes.current(formID) != written {
		s.cache(ctx, "drop stale "+op, formID, invalidate)
	}
}

// publish emits an event after a successful write; failures are logged only
func (s *Service) publish(routingKey string, payload any) {
	err := s.publisher.Publish(payload, routingKey)
	s.metrics.EventPublished(routingKey, err)
	if err != nil {
		s.logger.Error("error publish event",
			zap.String("routing_key", routingKey),
			zap.Error(err))
	}
}

func persistence(op string, err error) error {
	return &entity.PersistenceError{Op: op, Err: err}
}
