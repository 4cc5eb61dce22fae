package usecase

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/leadflow/internal/entity"
)

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, history []Turn, message string) (string, error) {
	args := m.Called(ctx, history, message)
	return args.String(0), args.Error(1)
}

type MockSink struct {
	mock.Mock
}

func (m *MockSink) RecordLead(ctx context.Context, lead *entity.Lead) (entity.IngestResult, error) {
	args := m.Called(ctx, lead)
	return args.Get(0).(entity.IngestResult), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyLead(ctx context.Context, n LeadNotification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishFollowUp(ctx context.Context, job entity.FollowUpJob, delay time.Duration) error {
	args := m.Called(ctx, job, delay)
	return args.Error(0)
}

type MockFollowUpSender struct {
	mock.Mock
}

func (m *MockFollowUpSender) SendFollowUp(ctx context.Context, email FollowUpEmail) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

type MockLeadRepository struct {
	mock.Mock
}

func (m *MockLeadRepository) Ingest(ctx context.Context, lead *entity.Lead) (entity.IngestResult, error) {
	args := m.Called(ctx, lead)
	return args.Get(0).(entity.IngestResult), args.Error(1)
}

func (m *MockLeadRepository) List(ctx context.Context, filter entity.LeadFilter) ([]entity.Lead, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) FindByID(ctx context.Context, id int64) (*entity.Lead, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) Update(ctx context.Context, id int64, patch entity.LeadPatch) (*entity.Lead, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Lead), args.Error(1)
}

func (m *MockLeadRepository) RecordConversion(ctx context.Context, input entity.ConversionInput) (*entity.Conversion, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Conversion), args.Error(1)
}

func (m *MockLeadRepository) Snapshot(ctx context.Context) ([]entity.Lead, []entity.Conversion, error) {
	args := m.Called(ctx)
	var (
		leads       []entity.Lead
		conversions []entity.Conversion
	)
	if v := args.Get(0); v != nil {
		leads = v.([]entity.Lead)
	}
	if v := args.Get(1); v != nil {
		conversions = v.([]entity.Conversion)
	}
	return leads, conversions, args.Error(2)
}

func (m *MockLeadRepository) ListConversions(ctx context.Context, leadID int64) ([]entity.Conversion, error) {
	args := m.Called(ctx, leadID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Conversion), args.Error(1)
}
