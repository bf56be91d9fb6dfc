package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/Koyo-os/questionnaire-service/internal/entity"
	"github.com/Koyo-os/questionnaire-service/pkg/logger"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockChannel is a mock implementation of the amqp channel methods in use
type MockChannel struct {
	mock.Mock
}

func (m *MockChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	return m.Called(name, kind, durable).Error(0)
}

func (m *MockChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	return m.Called(exchange, key, msg).Error(0)
}

func (m *MockChannel) Close() error {
	return m.Called().Error(0)
}

func TestPublisher_Publish(t *testing.T) {
	ch := &MockChannel{}
	ch.On("ExchangeDeclare", "events", EXCHANGE_TYPE, true).Return(nil)

	var sent amqp.Publishing
	ch.On("PublishWithContext", "events", entity.EventFormPublished, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(2).(amqp.Publishing) }).
		Return(nil)

	p, err := newPublisher("events", logger.NewNop(), nil, ch)
	require.NoError(t, err)

	payload := entity.FormEvent{FormID: "f1", OwnerID: "alice", Status: entity.StatusPublished}
	require.NoError(t, p.Publish(payload, entity.EventFormPublished))

	var event entity.Event
	require.NoError(t, json.Unmarshal(sent.Body, &event))
	assert.NoError(t, event.Validate())
	assert.Equal(t, entity.EventFormPublished, event.Type)
	assert.Equal(t, event.ID, sent.MessageId)
	assert.Equal(t, "application/json", sent.ContentType)

	var decoded entity.FormEvent
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	assert.Equal(t, payload, decoded)

	ch.AssertExpectations(t)
}

func TestPublisher_PublishError(t *testing.T) {
	ch := &MockChannel{}
	ch.On("ExchangeDeclare", "events", EXCHANGE_TYPE, true).Return(nil)
	ch.On("PublishWithContext", "events", entity.EventResponseSubmitted, mock.Anything).
		Return(errors.New("channel closed"))

	p, err := newPublisher("events", logger.NewNop(), nil, ch)
	require.NoError(t, err)

	err = p.Publish(entity.ResponseEvent{FormID: "f1", ResponseID: "r1"}, entity.EventResponseSubmitted)
	assert.EqualError(t, err, "channel closed")
}

func TestPublisher_UnencodablePayload(t *testing.T) {
	ch := &MockChannel{}
	ch.On("ExchangeDeclare", "events", EXCHANGE_TYPE, true).Return(nil)

	p, err := newPublisher("events", logger.NewNop(), nil, ch)
	require.NoError(t, err)

	assert.Error(t, p.Publish(make(chan int), "form.saved"))
	ch.AssertNotCalled(t, "PublishWithContext", mock.Anything, mock.Anything, mock.Anything)
}

func TestPublisher_DeclareFailureClosesChannel(t *testing.T) {
	ch := &MockChannel{}
	ch.On("ExchangeDeclare", "events", EXCHANGE_TYPE, true).Return(errors.New("access refused"))
	ch.On("Close").Return(nil)

	_, err := newPublisher("events", logger.NewNop(), nil, ch)

	assert.Error(t, err)
	ch.AssertCalled(t, "Close")
}

func TestPublisher_CloseWithoutConnection(t *testing.T) {
	ch := &MockChannel{}
	ch.On("ExchangeDeclare", "events", EXCHANGE_TYPE, true).Return(nil)
	ch.On("Close").Return(nil)

	p, err := newPublisher("events", logger.NewNop(), nil, ch)
	require.NoError(t, err)

	assert.False(t, p.IsHealthy())
	assert.NoError(t, p.Close())
}
