package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type MockChatTurn struct {
	mock.Mock
}

func (m *MockChatTurn) Execute(ctx context.Context, input usecase.ChatTurnInput) (*usecase.ChatTurnOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ChatTurnOutput), args.Error(1)
}

type MockFollowUp struct {
	mock.Mock
}

func (m *MockFollowUp) Execute(ctx context.Context, job entity.FollowUpJob) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}
