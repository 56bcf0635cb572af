package usecase_test

import (
	"context"
	"errors"
	"testing"

	"campusshop/internal/domain/model"
	repo "campusshop/internal/repository"
	"campusshop/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type AuditRepoMock struct{ mock.Mock }

func (m *AuditRepoMock) Create(ctx context.Context, log model.AuditLog) error {
	panic("not used in AuditUsecase tests")
}

func (m *AuditRepoMock) List(ctx context.Context, q repo.AuditLogQuery) ([]model.AuditLog, int64, error) {
	args := m.Called(ctx, q)
	items, _ := args.Get(0).([]model.AuditLog)
	return items, args.Get(1).(int64), args.Error(2)
}

func TestAuditUsecase_ListAuditLogs(t *testing.T) {
	logs := new(AuditRepoMock)
	uc := usecase.NewAuditUsecase(logs)

	entry := model.TransactionStatusAudit("admin-1", txID1, model.TransactionStatusCommitted, model.TransactionStatusCanceled, testNow)
	logs.On("List", mock.Anything, repo.AuditLogQuery{Page: 2, Limit: 10, ActorID: "admin-1", Action: model.AuditTransactionStatus}).
		Return([]model.AuditLog{entry}, int64(11), nil)

	out, err := uc.ListAuditLogs(context.Background(), usecase.ListAuditLogsInput{
		Page:    2,
		Limit:   10,
		ActorID: " admin-1 ",
		Action:  "transaction.status",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(11), out.Total)
	require.Len(t, out.Items, 1)
	assert.Equal(t, txID1, out.Items[0].TargetID)
	assert.JSONEq(t, `{"status":"CANCELED"}`, out.Items[0].After)
	logs.AssertExpectations(t)
}

func TestAuditUsecase_ListAuditLogs_Validation(t *testing.T) {
	uc := usecase.NewAuditUsecase(new(AuditRepoMock))

	tests := []struct {
		name string
		in   usecase.ListAuditLogsInput
	}{
		{"page", usecase.ListAuditLogsInput{Page: 0, Limit: 10}},
		{"limit", usecase.ListAuditLogsInput{Page: 1, Limit: 201}},
		{"action", usecase.ListAuditLogsInput{Page: 1, Limit: 10, Action: "UPDATE_STOCK"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.ListAuditLogs(context.Background(), tt.in)
			assert.True(t, errors.Is(err, usecase.ErrValidation))
		})
	}
}

func TestAuditUsecase_ListAuditLogs_DBError(t *testing.T) {
	logs := new(AuditRepoMock)
	logs.On("List", mock.Anything, mock.Anything).Return(nil, int64(0), errors.New("conn reset"))

	_, err := usecase.NewAuditUsecase(logs).ListAuditLogs(context.Background(), usecase.ListAuditLogsInput{Page: 1, Limit: 10})
	assert.True(t, errors.Is(err, usecase.ErrPersistence))
}
