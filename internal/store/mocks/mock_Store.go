// Package mocks provides test doubles for the run ledger.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	model "github.com/sister-sbg/rfl-cli/internal/model"
	store "github.com/sister-sbg/rfl-cli/internal/store"
)

// MockStore is a mock type for the Store interface.
type MockStore struct {
	mock.Mock
}

// CreateRun provides a mock function with given fields: ctx, granule
func (_m *MockStore) CreateRun(ctx context.Context, granule model.Granule) (*model.Run, error) {
	ret := _m.Called(ctx, granule)

	if len(ret) == 0 {
		panic("no return value specified for CreateRun")
	}

	var r0 *model.Run
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, model.Granule) (*model.Run, error)); ok {
		return rf(ctx, granule)
	}
	if rf, ok := ret.Get(0).(func(context.Context, model.Granule) *model.Run); ok {
		r0 = rf(ctx, granule)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*model.Run)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, model.Granule) error); ok {
		r1 = rf(ctx, granule)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// UpdateRunStatus provides a mock function with given fields: ctx, runID, status
func (_m *MockStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	ret := _m.Called(ctx, runID, status)

	if len(ret) == 0 {
		panic("no return value specified for UpdateRunStatus")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string, model.RunStatus) error); ok {
		r0 = rf(ctx, runID, status)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// UpdateRunGranule provides a mock function with given fields: ctx, runID, granule
func (_m *MockStore) UpdateRunGranule(ctx context.Context, runID string, granule model.Granule) error {
	ret := _m.Called(ctx, runID, granule)

	if len(ret) == 0 {
		panic("no return value specified for UpdateRunGranule")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string, model.Granule) error); ok {
		r0 = rf(ctx, runID, granule)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// UpdateRunResult provides a mock function with given fields: ctx, runID, result
func (_m *MockStore) UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error {
	ret := _m.Called(ctx, runID, result)

	if len(ret) == 0 {
		panic("no return value specified for UpdateRunResult")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string, *model.RunResult) error); ok {
		r0 = rf(ctx, runID, result)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// FailRun provides a mock function with given fields: ctx, runID, result, errMsg
func (_m *MockStore) FailRun(ctx context.Context, runID string, result *model.RunResult, errMsg string) error {
	ret := _m.Called(ctx, runID, result, errMsg)

	if len(ret) == 0 {
		panic("no return value specified for FailRun")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string, *model.RunResult, string) error); ok {
		r0 = rf(ctx, runID, result, errMsg)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// GetRun provides a mock function with given fields: ctx, runID
func (_m *MockStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	ret := _m.Called(ctx, runID)

	if len(ret) == 0 {
		panic("no return value specified for GetRun")
	}

	var r0 *model.Run
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) (*model.Run, error)); ok {
		return rf(ctx, runID)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) *model.Run); ok {
		r0 = rf(ctx, runID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*model.Run)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, runID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// ListRuns provides a mock function with given fields: ctx, filter
func (_m *MockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error) {
	ret := _m.Called(ctx, filter)

	if len(ret) == 0 {
		panic("no return value specified for ListRuns")
	}

	var r0 []model.Run
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, store.RunFilter) ([]model.Run, error)); ok {
		return rf(ctx, filter)
	}
	if rf, ok := ret.Get(0).(func(context.Context, store.RunFilter) []model.Run); ok {
		r0 = rf(ctx, filter)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]model.Run)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, store.RunFilter) error); ok {
		r1 = rf(ctx, filter)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// CreatePhase provides a mock function with given fields: ctx, runID, name
func (_m *MockStore) CreatePhase(ctx context.Context, runID string, name string) (*model.RunPhase, error) {
	ret := _m.Called(ctx, runID, name)

	if len(ret) == 0 {
		panic("no return value specified for CreatePhase")
	}

	var r0 *model.RunPhase
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string) (*model.RunPhase, error)); ok {
		return rf(ctx, runID, name)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, string) *model.RunPhase); ok {
		r0 = rf(ctx, runID, name)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*model.RunPhase)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, string) error); ok {
		r1 = rf(ctx, runID, name)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// CompletePhase provides a mock function with given fields: ctx, phaseID, result
func (_m *MockStore) CompletePhase(ctx context.Context, phaseID string, result *model.PhaseResult) error {
	ret := _m.Called(ctx, phaseID, result)

	if len(ret) == 0 {
		panic("no return value specified for CompletePhase")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, string, *model.PhaseResult) error); ok {
		r0 = rf(ctx, phaseID, result)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// ListPhases provides a mock function with given fields: ctx, runID
func (_m *MockStore) ListPhases(ctx context.Context, runID string) ([]model.RunPhase, error) {
	ret := _m.Called(ctx, runID)

	if len(ret) == 0 {
		panic("no return value specified for ListPhases")
	}

	var r0 []model.RunPhase
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string) ([]model.RunPhase, error)); ok {
		return rf(ctx, runID)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string) []model.RunPhase); ok {
		r0 = rf(ctx, runID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]model.RunPhase)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, runID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Migrate provides a mock function with given fields: ctx
func (_m *MockStore) Migrate(ctx context.Context) error {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Migrate")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context) error); ok {
		r0 = rf(ctx)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// Close provides a mock function with no fields
func (_m *MockStore) Close() error {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Close")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func() error); ok {
		r0 = rf()
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewMockStore creates a new instance of MockStore.
func NewMockStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStore {
	mock := &MockStore{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}

var _ store.Store = (*MockStore)(nil)
