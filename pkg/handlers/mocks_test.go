package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/ekaya-inc/pcb-lookup/pkg/models"
	"github.com/ekaya-inc/pcb-lookup/pkg/services"
)

// mockLookupService is a testify mock of services.LookupService.
type mockLookupService struct {
	mock.Mock
}

var _ services.LookupService = (*mockLookupService)(nil)

func (m *mockLookupService) Lookup(ctx context.Context, serialNumber string) (*services.LookupResult, error) {
	args := m.Called(ctx, serialNumber)
	res, _ := args.Get(0).(*services.LookupResult)
	return res, args.Error(1)
}

func (m *mockLookupService) CheckSource(ctx context.Context) services.SourceHealth {
	return m.Called(ctx).Get(0).(services.SourceHealth)
}

func (m *mockLookupService) Stats(ctx context.Context) (*models.Stats, error) {
	args := m.Called(ctx)
	st, _ := args.Get(0).(*models.Stats)
	return st, args.Error(1)
}

func (m *mockLookupService) SourceName() string {
	return "mock"
}
