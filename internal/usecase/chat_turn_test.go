package usecase

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/database"
)

const (
	rejectedReply = `{"message":"Sorry, we only take projects in Budapest.","lead":null,"rejected":true}`
	vipReply      = `{"message":"Thank you, we'll be in touch!","lead":{"name":"Anna Kovacs","email":"anna@example.com","phone":"+36301234567","address":"1121 Budapest","budget":"10M HUF","scope":"pool garden","priority":true},"rejected":false}`
	noPhoneReply  = `{"message":"What's your phone number?","lead":{"name":"Anna Kovacs","email":"anna@example.com","phone":"  ","address":"1121 Budapest","budget":"10M HUF","scope":"pool garden"},"rejected":false}`
)

type chatFixture struct {
	generator *MockGenerator
	notifier  *MockNotifier
	publisher *MockPublisher
	store     *database.JSONStore
	uc        *ChatTurnUseCase
}

func newChatFixture(t *testing.T) *chatFixture {
	t.Helper()

	gate, err := NewCompletenessGate(nil)
	require.NoError(t, err)

	f := &chatFixture{
		generator: new(MockGenerator),
		notifier:  new(MockNotifier),
		publisher: new(MockPublisher),
		store:     database.NewJSONStore(filepath.Join(t.TempDir(), "leads.json")),
	}
	scheduler := NewFollowUpScheduler(f.publisher, "s3cret", Campaign{OwnerName: "Balazs", OwnerPhone: "+36 30 635 8165"})
	f.uc = NewChatTurnUseCase(f.generator, gate, StoreSink{Repo: f.store}, f.notifier, scheduler)
	return f
}

// TestChatTurnRejectedLoggedOnceAcrossRetries - a retried rejected turn still leaves exactly one lead
func TestChatTurnRejectedLoggedOnceAcrossRetries(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	f.generator.On("Generate", mock.Anything, mock.Anything, "I'm in Debrecen").Return(rejectedReply, nil)

	input := ChatTurnInput{
		Message: "I'm in Debrecen",
		History: []Turn{{Role: "user", Parts: []TurnPart{{Text: "Hi"}}}},
	}

	for range 2 {
		out, err := f.uc.Execute(ctx, input)
		require.NoError(t, err)
		require.NotNil(t, out.RejectionLogged)
		assert.True(t, *out.RejectionLogged)
		assert.Nil(t, out.LeadSent)
		assert.Equal(t, "Sorry, we only take projects in Budapest.", out.Reply)
	}

	leads, err := f.store.List(ctx, entity.LeadFilter{})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, entity.TierUnqualified, leads[0].Tier)
	assert.Equal(t, entity.StatusRejected, leads[0].Status)

	f.notifier.AssertNotCalled(t, "NotifyLead", mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "PublishFollowUp", mock.Anything, mock.Anything, mock.Anything)
}

// TestChatTurnRetriedLeadNotifiesOnce - a stale leadAlreadySent flag does not mail the owner twice
func TestChatTurnRetriedLeadNotifiesOnce(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	f.generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(vipReply, nil)
	f.notifier.On("NotifyLead", mock.Anything, mock.Anything).Return(nil)
	f.publisher.On("PublishFollowUp", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	input := ChatTurnInput{Message: "anna@example.com", ConversationID: "conv-42"}

	for range 2 {
		out, err := f.uc.Execute(ctx, input)
		require.NoError(t, err)
		require.NotNil(t, out.LeadSent)
		assert.True(t, *out.LeadSent)
		assert.Equal(t, "Thank you, we'll be in touch!", out.Reply)
	}

	leads, err := f.store.List(ctx, entity.LeadFilter{})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "conv-42-lead", leads[0].ClientID)

	f.notifier.AssertNumberOfCalls(t, "NotifyLead", 1)
	f.publisher.AssertNumberOfCalls(t, "PublishFollowUp", 3)
}

// TestChatTurnDedupHitFromRemoteSink - an existing record reported by the sink skips mail and follow-ups
func TestChatTurnDedupHitFromRemoteSink(t *testing.T) {
	ctx := context.Background()
	gate, _ := NewCompletenessGate(nil)
	generator := new(MockGenerator)
	sink := new(MockSink)
	notifier := new(MockNotifier)
	publisher := new(MockPublisher)

	generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(vipReply, nil)
	sink.On("RecordLead", mock.Anything, mock.Anything).
		Return(entity.IngestResult{LeadID: 7, ClientID: "conv-9-lead", Created: false}, nil)

	uc := NewChatTurnUseCase(generator, gate, sink, notifier, NewFollowUpScheduler(publisher, "s3cret", Campaign{}))
	out, err := uc.Execute(ctx, ChatTurnInput{Message: "hi", ConversationID: "conv-9"})
	require.NoError(t, err)
	require.NotNil(t, out.LeadSent)
	assert.True(t, *out.LeadSent)
	require.Len(t, out.Effects, 1)
	assert.Equal(t, "record_lead", out.Effects[0].Name)

	notifier.AssertNotCalled(t, "NotifyLead", mock.Anything, mock.Anything)
	publisher.AssertNotCalled(t, "PublishFollowUp", mock.Anything, mock.Anything, mock.Anything)
}

func TestChatTurnRejectedAlreadyLogged(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	f.generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(rejectedReply, nil)

	out, err := f.uc.Execute(ctx, ChatTurnInput{Message: "still Debrecen", RejectedLogSent: true})
	require.NoError(t, err)
	assert.Nil(t, out.RejectionLogged)

	leads, _ := f.store.List(ctx, entity.LeadFilter{})
	assert.Empty(t, leads)
}

// TestChatTurnMissingPhoneHasNoSideEffects - the generator's claim is not enough
func TestChatTurnMissingPhoneHasNoSideEffects(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	f.generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(noPhoneReply, nil)

	out, err := f.uc.Execute(ctx, ChatTurnInput{Message: "anna@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "What's your phone number?", out.Reply)
	assert.Nil(t, out.LeadSent)
	assert.Empty(t, out.Effects)

	leads, _ := f.store.List(ctx, entity.LeadFilter{})
	assert.Empty(t, leads)
	f.notifier.AssertNotCalled(t, "NotifyLead", mock.Anything, mock.Anything)
	f.publisher.AssertNotCalled(t, "PublishFollowUp", mock.Anything, mock.Anything, mock.Anything)
}

// TestChatTurnCompleteVIPLead - one vip lead, one notification, three follow-ups
func TestChatTurnCompleteVIPLead(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	f.generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(vipReply, nil)
	f.notifier.On("NotifyLead", mock.Anything, mock.MatchedBy(func(n LeadNotification) bool {
		return n.Tier == entity.TierVIP && n.Candidate.Name == "Anna Kovacs"
	})).Return(nil).Once()

	f.publisher.On("PublishFollowUp", mock.Anything, mock.Anything, mock.Anything).Return(nil).Times(3)

	out, err := f.uc.Execute(ctx, ChatTurnInput{Message: "anna@example.com", ConversationID: "conv-42"})
	require.NoError(t, err)
	require.NotNil(t, out.LeadSent)
	assert.True(t, *out.LeadSent)
	assert.Equal(t, vipReply, out.RawResponse)

	leads, _ := f.store.List(ctx, entity.LeadFilter{})
	require.Len(t, leads, 1)
	assert.Equal(t, entity.TierVIP, leads[0].Tier)
	assert.Equal(t, entity.StatusPending, leads[0].Status)
	assert.Equal(t, "conv-42-lead", leads[0].ClientID)
	assert.Equal(t, "address:1121 Budapest", leads[0].LeadSourceDetail)
	assert.Equal(t, "10M HUF", leads[0].EstimatedValue)

	f.notifier.AssertNumberOfCalls(t, "NotifyLead", 1)
	f.publisher.AssertNumberOfCalls(t, "PublishFollowUp", 3)

	var jobs []entity.FollowUpJob
	var delays []time.Duration
	for _, call := range f.publisher.Calls {
		jobs = append(jobs, call.Arguments.Get(1).(entity.FollowUpJob))
		delays = append(delays, call.Arguments.Get(2).(time.Duration))
	}
	byNumber := map[int]time.Duration{}
	for i, job := range jobs {
		assert.Equal(t, entity.TierVIP, job.Tier)
		assert.Equal(t, "anna@example.com", job.Email)
		assert.Equal(t, "pool garden", job.ProjectType)
		assert.Equal(t, "s3cret", job.Secret)
		byNumber[job.FollowupNumber] = delays[i]
	}
	assert.Equal(t, map[int]time.Duration{
		1: 24 * time.Hour,
		2: 72 * time.Hour,
		3: 120 * time.Hour,
	}, byNumber)
}

func TestChatTurnLeadAlreadySent(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	f.generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(vipReply, nil)

	out, err := f.uc.Execute(ctx, ChatTurnInput{Message: "thanks", LeadAlreadySent: true})
	require.NoError(t, err)
	assert.Nil(t, out.LeadSent)

	leads, _ := f.store.List(ctx, entity.LeadFilter{})
	assert.Empty(t, leads)
	f.notifier.AssertNotCalled(t, "NotifyLead", mock.Anything, mock.Anything)
}

// TestChatTurnNotificationFailureKeepsReply - no follow-ups when the email did not go out
func TestChatTurnNotificationFailureKeepsReply(t *testing.T) {
	ctx := context.Background()
	f := newChatFixture(t)
	f.generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(vipReply, nil)
	f.notifier.On("NotifyLead", mock.Anything, mock.Anything).Return(errors.New("provider down"))

	out, err := f.uc.Execute(ctx, ChatTurnInput{Message: "anna@example.com"})
	require.NoError(t, err)
	require.NotNil(t, out.LeadSent)
	assert.False(t, *out.LeadSent)
	assert.Equal(t, "Thank you, we'll be in touch!", out.Reply)

	leads, _ := f.store.List(ctx, entity.LeadFilter{})
	assert.Len(t, leads, 1)
	f.publisher.AssertNotCalled(t, "PublishFollowUp", mock.Anything, mock.Anything, mock.Anything)
}

func TestChatTurnSinkFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	gate, _ := NewCompletenessGate(nil)
	generator := new(MockGenerator)
	sink := new(MockSink)
	notifier := new(MockNotifier)

	generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(vipReply, nil)
	sink.On("RecordLead", mock.Anything, mock.Anything).Return(entity.IngestResult{}, errors.New("dashboard timeout"))
	notifier.On("NotifyLead", mock.Anything, mock.Anything).Return(nil)

	uc := NewChatTurnUseCase(generator, gate, sink, notifier, nil)
	out, err := uc.Execute(ctx, ChatTurnInput{Message: "hi"})
	require.NoError(t, err)
	require.NotNil(t, out.LeadSent)
	assert.True(t, *out.LeadSent)

	require.Len(t, out.Effects, 2)
	assert.Equal(t, "record_lead", out.Effects[0].Name)
	assert.False(t, out.Effects[0].OK())
	assert.True(t, out.Effects[1].OK())
}

func TestChatTurnUnparsableReply(t *testing.T) {
	f := newChatFixture(t)
	f.generator.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("I am not JSON", nil)

	out, err := f.uc.Execute(context.Background(), ChatTurnInput{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, ApologyReply, out.Reply)
	assert.Equal(t, "I am not JSON", out.RawResponse)
	assert.True(t, out.ParseFailed)
}

func TestChatTurnErrors(t *testing.T) {
	f := newChatFixture(t)

	_, err := f.uc.Execute(context.Background(), ChatTurnInput{Message: "  "})
	assert.True(t, IsDomainError(err))

	f.generator.On("Generate", mock.Anything, mock.Anything, "hi").Return("", errors.New("quota exceeded"))
	_, err = f.uc.Execute(context.Background(), ChatTurnInput{Message: "hi"})
	assert.True(t, IsTechnicalError(err))
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestConversationKey(t *testing.T) {
	a := ChatTurnInput{Message: "hello", History: []Turn{{Role: "user", Parts: []TurnPart{{Text: "hi"}}}}}
	b := a
	b.Message = "hello!"

	assert.Equal(t, ConversationKey(a), ConversationKey(a))
	assert.NotEqual(t, ConversationKey(a), ConversationKey(b))

	a.ConversationID = " abc "
	assert.Equal(t, "abc", ConversationKey(a))
}
