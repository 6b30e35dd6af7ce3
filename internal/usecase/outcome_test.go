package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"calldrip/internal/entity"
)

type MockOutcomeStore struct {
	mock.Mock
}

func (m *MockOutcomeStore) FindConversation(ctx context.Context, conversationID string) (*entity.Conversation, *entity.Prospect, error) {
	args := m.Called(ctx, conversationID)
	var c *entity.Conversation
	var p *entity.Prospect
	if args.Get(0) != nil {
		c = args.Get(0).(*entity.Conversation)
	}
	if args.Get(1) != nil {
		p = args.Get(1).(*entity.Prospect)
	}
	return c, p, args.Error(2)
}

func (m *MockOutcomeStore) MarkStarted(ctx context.Context, conversationID string, at time.Time) error {
	args := m.Called(ctx, conversationID, at)
	return args.Error(0)
}

func (m *MockOutcomeStore) ApplyCompleted(ctx context.Context, out CompletedOutcome) error {
	args := m.Called(ctx, out)
	return args.Error(0)
}

func (m *MockOutcomeStore) ApplyFailed(ctx context.Context, out FailedOutcome) error {
	args := m.Called(ctx, out)
	return args.Error(0)
}

func (m *MockOutcomeStore) FindUserContact(ctx context.Context, userID string) (string, string, error) {
	args := m.Called(ctx, userID)
	return args.String(0), args.String(1), args.Error(2)
}

type MockDedupStore struct {
	mock.Mock
}

func (m *MockDedupStore) Seen(ctx context.Context, conversationID, eventType string) bool {
	args := m.Called(ctx, conversationID, eventType)
	return args.Bool(0)
}

func (m *MockDedupStore) Mark(ctx context.Context, conversationID, eventType string) {
	m.Called(ctx, conversationID, eventType)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendAppointmentBooked(to, userName, prospectName string, scheduledFor time.Time) error {
	args := m.Called(to, userName, prospectName, scheduledFor)
	return args.Error(0)
}

func liveConversation() (*entity.Conversation, *entity.Prospect) {
	conv := &entity.Conversation{
		ID:         "conv-1",
		ProspectID: "pros-1",
		UserID:     "user-1",
		Status:     entity.ConversationInProgress,
	}
	prospect := &entity.Prospect{
		ID:     "pros-1",
		UserID: "user-1",
		Name:   "Bob",
		Status: entity.ProspectInitial,
	}
	return conv, prospect
}

func completedEvent(outcomeType string) CallEvent {
	return CallEvent{
		ConversationID: "conv-1",
		EventType:      "call.completed",
		CallID:         "call-9",
		Timestamp:      "2025-06-02T12:00:00Z",
		Duration:       185,
		Transcript:     "hello ... bye",
		Outcome:        &CallOutcome{Type: outcomeType},
	}
}

func TestOutcomeAppointmentSet(t *testing.T) {
	conv, prospect := liveConversation()

	store := new(MockOutcomeStore)
	store.On("FindConversation", mock.Anything, "conv-1").Return(conv, prospect, nil)
	store.On("ApplyCompleted", mock.Anything, mock.MatchedBy(func(out CompletedOutcome) bool {
		return out.Result == entity.ResultPassed &&
			out.ProspectStatus == entity.ProspectBooked &&
			out.MinutesUsed == 4 && // ceil(185/60)
			out.Appointment != nil &&
			out.Appointment.ProspectID == "pros-1"
	})).Return(nil)

	ev := completedEvent("APPOINTMENT_SET")
	ev.Outcome.AppointmentTime = "2025-06-05T10:00:00Z"

	p := NewOutcomeProcessor(store, nil, nil)
	err := p.Process(context.Background(), ev)

	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestOutcomeCallbackRequested(t *testing.T) {
	conv, prospect := liveConversation()

	store := new(MockOutcomeStore)
	store.On("FindConversation", mock.Anything, "conv-1").Return(conv, prospect, nil)
	store.On("ApplyCompleted", mock.Anything, mock.MatchedBy(func(out CompletedOutcome) bool {
		return out.Result == entity.ResultRescheduled &&
			out.ProspectStatus == entity.ProspectRescheduled &&
			out.RescheduledFor != nil &&
			out.RescheduledFor.Equal(time.Date(2025, 6, 3, 9, 30, 0, 0, time.UTC)) &&
			out.Appointment == nil
	})).Return(nil)

	ev := completedEvent("CALLBACK_REQUESTED")
	ev.Outcome.CallbackTime = "2025-06-03T09:30:00Z"

	err := NewOutcomeProcessor(store, nil, nil).Process(context.Background(), ev)

	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestOutcomeMappingTable(t *testing.T) {
	cases := []struct {
		outcomeType  string
		wantResult   entity.CallResult
		wantProspect entity.ProspectStatus
	}{
		{"APPOINTMENT_SET", entity.ResultPassed, entity.ProspectBooked},
		{"CALLBACK_REQUESTED", entity.ResultRescheduled, entity.ProspectRescheduled},
		{"NOT_INTERESTED", entity.ResultFailed, entity.ProspectNotInterested},
		{"FAILED", entity.ResultFailed, entity.ProspectFailed},
		{"NO_RESPONSE", entity.ResultNotResponded, entity.ProspectNotResponded},
		{"SOMETHING_NEW", entity.ResultNotResponded, entity.ProspectNotResponded},
	}

	for _, tc := range cases {
		t.Run(tc.outcomeType, func(t *testing.T) {
			conv, prospect := liveConversation()

			store := new(MockOutcomeStore)
			store.On("FindConversation", mock.Anything, "conv-1").Return(conv, prospect, nil)
			store.On("ApplyCompleted", mock.Anything, mock.MatchedBy(func(out CompletedOutcome) bool {
				return out.Result == tc.wantResult && out.ProspectStatus == tc.wantProspect
			})).Return(nil)

			err := NewOutcomeProcessor(store, nil, nil).Process(context.Background(), completedEvent(tc.outcomeType))

			assert.NoError(t, err)
			store.AssertExpectations(t)
		})
	}
}

func TestOutcomeIncompletePayloadDropped(t *testing.T) {
	conv, prospect := liveConversation()

	store := new(MockOutcomeStore)
	store.On("FindConversation", mock.Anything, "conv-1").Return(conv, prospect, nil)

	ev := completedEvent("NO_RESPONSE")
	ev.Transcript = ""

	err := NewOutcomeProcessor(store, nil, nil).Process(context.Background(), ev)

	assert.NoError(t, err)
	store.AssertNotCalled(t, "ApplyCompleted", mock.Anything, mock.Anything)
}

func TestOutcomeZeroDurationDropped(t *testing.T) {
	conv, prospect := liveConversation()

	store := new(MockOutcomeStore)
	store.On("FindConversation", mock.Anything, "conv-1").Return(conv, prospect, nil)

	ev := completedEvent("NO_RESPONSE")
	ev.Duration = 0

	err := NewOutcomeProcessor(store, nil, nil).Process(context.Background(), ev)

	assert.NoError(t, err)
	store.AssertNotCalled(t, "ApplyCompleted", mock.Anything, mock.Anything)
}

func TestOutcomeUnknownConversationIsWarning(t *testing.T) {
	store := new(MockOutcomeStore)
	store.On("FindConversation", mock.Anything, "conv-1").Return(nil, nil, ErrConversationNotFound)

	err := NewOutcomeProcessor(store, nil, nil).Process(context.Background(), completedEvent("NO_RESPONSE"))

	assert.NoError(t, err)
	store.AssertNotCalled(t, "ApplyCompleted", mock.Anything, mock.Anything)
}

func TestOutcomeUnknownEventTypeIsNoOp(t *testing.T) {
	conv, prospect := liveConversation()

	store := new(MockOutcomeStore)
	store.On("FindConversation", mock.Anything, "conv-1").Return(conv, prospect, nil)

	err := NewOutcomeProcessor(store, nil, nil).Process(context.Background(), CallEvent{
		ConversationID: "conv-1",
		EventType:      "call.hold_music",
	})

	assert.NoError(t, err)
	store.AssertNotCalled(t, "MarkStarted", mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "ApplyCompleted", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "ApplyFailed", mock.Anything, mock.Anything)
}

func TestOutcomeDuplicateRejectedByDedup(t *testing.T) {
	store := new(MockOutcomeStore)
	dedup := new(MockDedupStore)
	dedup.On("Seen", mock.Anything, "conv-1", "call.completed").Return(true)

	err := NewOutcomeProcessor(store, dedup, nil).Process(context.Background(), completedEvent("NO_RESPONSE"))

	assert.NoError(t, err)
	store.AssertNotCalled(t, "FindConversation", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "ApplyCompleted", mock.Anything, mock.Anything)
}

func TestOutcomeDuplicateRejectedByTerminalGuard(t *testing.T) {
	// Dedup missed (Redis was down); the store's terminal guard still refuses
	// to re-apply, so minutes are never double-decremented.
	conv, prospect := liveConversation()
	conv.Status = entity.ConversationCompleted

	store := new(MockOutcomeStore)
	store.On("FindConversation", mock.Anything, "conv-1").Return(conv, prospect, nil)
	store.On("ApplyCompleted", mock.Anything, mock.Anything).Return(ErrAlreadyCompleted)

	dedup := new(MockDedupStore)
	dedup.On("Seen", mock.Anything, "conv-1", "call.completed").Return(false)

	err := NewOutcomeProcessor(store, dedup, nil).Process(context.Background(), completedEvent("NO_RESPONSE"))

	assert.NoError(t, err, "duplicate application is absorbed, not an error")
	dedup.AssertNotCalled(t, "Mark", mock.Anything, mock.Anything, mock.Anything)
}

func TestOutcomeMarksDedupAfterSuccess(t *testing.T) {
	conv, prospect := liveConversation()

	store := new(MockOutcomeStore)
	store.On("FindConversation", mock.Anything, "conv-1").Return(conv, prospect, nil)
	store.On("ApplyCompleted", mock.Anything, mock.Anything).Return(nil)

	dedup := new(MockDedupStore)
	dedup.On("Seen", mock.Anything, "conv-1", "call.completed").Return(false)
	dedup.On("Mark", mock.Anything, "conv-1", "call.completed").Return()

	err := NewOutcomeProcessor(store, dedup, nil).Process(context.Background(), completedEvent("NO_RESPONSE"))

	assert.NoError(t, err)
	dedup.AssertCalled(t, "Mark", mock.Anything, "conv-1", "call.completed")
}

func TestOutcomeCallStarted(t *testing.T) {
	conv, prospect := liveConversation()
	at := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	store := new(MockOutcomeStore)
	store.On("FindConversation", mock.Anything, "conv-1").Return(conv, prospect, nil)
	store.On("MarkStarted", mock.Anything, "conv-1", at).Return(nil)

	err := NewOutcomeProcessor(store, nil, nil).Process(context.Background(), CallEvent{
		ConversationID: "conv-1",
		EventType:      "call.started",
		Timestamp:      "2025-06-02T12:00:00Z",
	})

	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestOutcomeLateStartOnCompletedConversation(t *testing.T) {
	conv, prospect := liveConversation()
	conv.Status = entity.ConversationCompleted

	store := new(MockOutcomeStore)
	store.On("FindConversation", mock.Anything, "conv-1").Return(conv, prospect, nil)
	store.On("MarkStarted", mock.Anything, "conv-1", mock.Anything).Return(ErrAlreadyCompleted)

	err := NewOutcomeProcessor(store, nil, nil).Process(context.Background(), CallEvent{
		ConversationID: "conv-1",
		EventType:      "call.started",
		Timestamp:      "2025-06-02T12:00:00Z",
	})

	assert.NoError(t, err, "out-of-order start never reopens a finished call")
}

func TestOutcomeCallConnectedLogsOnly(t *testing.T) {
	conv, prospect := liveConversation()

	store := new(MockOutcomeStore)
	store.On("FindConversation", mock.Anything, "conv-1").Return(conv, prospect, nil)

	err := NewOutcomeProcessor(store, nil, nil).Process(context.Background(), CallEvent{
		ConversationID: "conv-1",
		EventType:      "call.connected",
	})

	assert.NoError(t, err)
	store.AssertNotCalled(t, "MarkStarted", mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "ApplyCompleted", mock.Anything, mock.Anything)
}

func TestOutcomeCallFailed(t *testing.T) {
	conv, prospect := liveConversation()
	at := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	store := new(MockOutcomeStore)
	store.On("FindConversation", mock.Anything, "conv-1").Return(conv, prospect, nil)
	store.On("ApplyFailed", mock.Anything, FailedOutcome{
		ConversationID: "conv-1",
		ProspectID:     "pros-1",
		EndAt:          at,
		Notes:          "Failed: no answer",
	}).Return(nil)

	err := NewOutcomeProcessor(store, nil, nil).Process(context.Background(), CallEvent{
		ConversationID: "conv-1",
		EventType:      "call.failed",
		Timestamp:      "2025-06-02T12:00:00Z",
		FailureReason:  "no answer",
	})

	assert.NoError(t, err)
	store.AssertExpectations(t)
}

func TestOutcomeAppointmentNotification(t *testing.T) {
	conv, prospect := liveConversation()

	store := new(MockOutcomeStore)
	store.On("FindConversation", mock.Anything, "conv-1").Return(conv, prospect, nil)
	store.On("ApplyCompleted", mock.Anything, mock.Anything).Return(nil)
	store.On("FindUserContact", mock.Anything, "user-1").Return("Alice", "alice@example.com", nil)

	when := time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC)
	notifier := new(MockNotifier)
	notifier.On("SendAppointmentBooked", "alice@example.com", "Alice", "Bob", when).Return(nil)

	ev := completedEvent("APPOINTMENT_SET")
	ev.Outcome.AppointmentTime = "2025-06-05T10:00:00Z"

	err := NewOutcomeProcessor(store, nil, notifier).Process(context.Background(), ev)

	assert.NoError(t, err)
	notifier.AssertExpectations(t)
}

func TestOutcomeUsedDateIsStartOfDay(t *testing.T) {
	conv, prospect := liveConversation()

	store := new(MockOutcomeStore)
	store.On("FindConversation", mock.Anything, "conv-1").Return(conv, prospect, nil)
	store.On("ApplyCompleted", mock.Anything, mock.MatchedBy(func(out CompletedOutcome) bool {
		return out.UsedDate.Equal(time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)) &&
			out.LastContacted.Equal(time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC))
	})).Return(nil)

	err := NewOutcomeProcessor(store, nil, nil).Process(context.Background(), completedEvent("NO_RESPONSE"))

	assert.NoError(t, err)
	store.AssertExpectations(t)
}
