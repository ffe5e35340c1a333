package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var _ Publisher = (*NATSPublisher)(nil)
var _ Publisher = Noop{}

func TestNew(t *testing.T) {
	ev, err := New(TypeAskCompleted, AskCompleted{User: "ada@example.com", TogetherOK: true, Better: "A", Preferred: "together"})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, ev.ID)
	assert.Equal(t, TypeAskCompleted, ev.Type)
	assert.WithinDuration(t, time.Now(), ev.At, time.Minute)

	var got AskCompleted
	require.NoError(t, json.Unmarshal(ev.Payload, &got))
	assert.Equal(t, "A", got.Better)
	assert.Equal(t, "together", got.Preferred)
	assert.False(t, got.LlamaOK)
}

func TestNewRejectsUnencodablePayload(t *testing.T) {
	_, err := New(TypeAskCompleted, make(chan int))
	assert.Error(t, err)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "events.ask.completed", Subject(TypeAskCompleted))
}

func TestPublishWithRetry(t *testing.T) {
	ev := Event{ID: uuid.New(), Type: TypeAskCompleted}

	t.Run("succeeds after transient failure", func(t *testing.T) {
		p := new(MockPublisher)
		p.On("Publish", mock.Anything, ev).Return(errors.New("no responders")).Once()
		p.On("Publish", mock.Anything, ev).Return(nil).Once()

		require.NoError(t, PublishWithRetry(context.Background(), p, ev, 3, time.Millisecond))
		p.AssertExpectations(t)
	})

	t.Run("gives up after attempts", func(t *testing.T) {
		p := new(MockPublisher)
		p.On("Publish", mock.Anything, ev).Return(errors.New("connection closed")).Times(3)

		err := PublishWithRetry(context.Background(), p, ev, 3, time.Millisecond)
		assert.EqualError(t, err, "connection closed")
		p.AssertExpectations(t)
	})
}

func TestNoop(t *testing.T) {
	var n Noop
	assert.NoError(t, n.Publish(context.Background(), Event{}))
	assert.NoError(t, n.Close())
}
