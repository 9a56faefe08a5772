// Package mocks provides test doubles for the correction runner.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	correction "github.com/sister-sbg/rfl-cli/internal/correction"
)

// MockRunner is a mock type for the Runner interface.
type MockRunner struct {
	mock.Mock
}

// Run provides a mock function with given fields: ctx, in, opts
func (_m *MockRunner) Run(ctx context.Context, in correction.Inputs, opts correction.Options) (correction.Result, error) {
	ret := _m.Called(ctx, in, opts)

	if len(ret) == 0 {
		panic("no return value specified for Run")
	}

	var r0 correction.Result
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, correction.Inputs, correction.Options) (correction.Result, error)); ok {
		return rf(ctx, in, opts)
	}
	if rf, ok := ret.Get(0).(func(context.Context, correction.Inputs, correction.Options) correction.Result); ok {
		r0 = rf(ctx, in, opts)
	} else {
		r0 = ret.Get(0).(correction.Result)
	}

	if rf, ok := ret.Get(1).(func(context.Context, correction.Inputs, correction.Options) error); ok {
		r1 = rf(ctx, in, opts)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockRunner creates a new instance of MockRunner.
func NewMockRunner(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockRunner {
	mock := &MockRunner{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
