package casher

import (
	"context"
	"testing"
	"time"

	"github.com/Koyo-os/questionnaire-service/internal/entity"
	"github.com/Koyo-os/questionnaire-service/pkg/logger"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCasher(t *testing.T, ttl time.Duration) (*Casher, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	c := Init(client, logger.NewNop(), ttl)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func sampleForm() entity.FormDefinition {
	return entity.FormDefinition{
		ID:      "f1",
		OwnerID: "alice",
		Title:   "Survey",
		Status:  entity.StatusPublished,
		Questions: []entity.Question{
			{ID: "q1", Title: "Pick", Type: entity.QuestionMultiChoice, Options: []entity.QuestionOption{{ID: "o1", Label: "A"}, {ID: "o2", Label: "B"}}},
			{ID: "q2", Title: "Say", Type: entity.QuestionText},
		},
	}
}

func TestCasher_Form(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCasher(t, time.Minute)

	_, found, err := c.GetForm(ctx, "f1")
	require.NoError(t, err)
	assert.False(t, found)

	form := sampleForm()
	require.NoError(t, c.SetForm(ctx, form))
	assert.True(t, mr.Exists("form:f1"))
	assert.Equal(t, time.Minute, mr.TTL("form:f1"))

	got, found, err := c.GetForm(ctx, "f1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, form, got)

	require.NoError(t, c.InvalidateForm(ctx, "f1"))
	_, found, _ = c.GetForm(ctx, "f1")
	assert.False(t, found)
}

func TestCasher_Responses(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCasher(t, 0)

	list := []entity.Response{
		{ID: "r1", FormID: "f1", SubmittedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Answers: entity.Answers{"q1": entity.Multi("A", "B")}},
		{ID: "r2", FormID: "f1", SubmittedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), Answers: entity.Answers{"q2": entity.Text("hi")}},
	}
	require.NoError(t, c.SetResponses(ctx, "f1", list))
	assert.Zero(t, mr.TTL("responses:f1"))

	got, found, err := c.GetResponses(ctx, "f1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, list, got)

	require.NoError(t, c.SetResponses(ctx, "empty", []entity.Response{}))
	got, found, err = c.GetResponses(ctx, "empty")
	require.NoError(t, err)
	assert.True(t, found)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	require.NoError(t, c.InvalidateResponses(ctx, "f1"))
	assert.False(t, mr.Exists("responses:f1"))
}

func TestCasher_CorruptEntryIsAMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := setupCasher(t, 0)

	require.NoError(t, mr.Set("form:f1", "{broken"))

	_, found, err := c.GetForm(ctx, "f1")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.False(t, mr.Exists("form:f1"))
}

func TestCasher_Health(t *testing.T) {
	c, mr := setupCasher(t, 0)

	assert.True(t, c.IsHealthy())
	mr.Close()
	assert.False(t, c.IsHealthy())
}

func TestDial(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client, err := Dial(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	assert.NoError(t, client.Close())

	_, err = Dial(context.Background(), "not a url")
	assert.Error(t, err)
}
