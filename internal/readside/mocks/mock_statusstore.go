//	mockgen -source=internal/readside/readside.go -destination=internal/readside/mocks/mock_statusstore.go -package=mocks
//

// Package mocks is a generated GoMock package.
package mocks

import (
	context "context"
	reflect "reflect"

	domain "github.com/kiamesdavies/money-transfer/internal/domain"
	gomock "go.uber.org/mock/gomock"
)

// MockStatusStore is a mock of StatusStore interface.
type MockStatusStore struct {
	ctrl     *gomock.Controller
	recorder *MockStatusStoreMockRecorder
	isgomock struct{}
}

// MockStatusStoreMockRecorder is the mock recorder for MockStatusStore.
type MockStatusStoreMockRecorder struct {
	mock *MockStatusStore
}

// NewMockStatusStore creates a new mock instance.
func NewMockStatusStore(ctrl *gomock.Controller) *MockStatusStore {
	mock := &MockStatusStore{ctrl: ctrl}
	mock.recorder = &MockStatusStoreMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockStatusStore) EXPECT() *MockStatusStoreMockRecorder {
	return m.recorder
}

// FindTransactionsInStatus mocks base method.
func (m *MockStatusStore) FindTransactionsInStatus(ctx context.Context, statuses []domain.TransferStatus) ([]string, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "FindTransactionsInStatus", ctx, statuses)
	ret0, _ := ret[0].([]string)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// FindTransactionsInStatus indicates an expected call of FindTransactionsInStatus.
func (mr *MockStatusStoreMockRecorder) FindTransactionsInStatus(ctx, statuses any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "FindTransactionsInStatus", reflect.TypeOf((*MockStatusStore)(nil).FindTransactionsInStatus), ctx, statuses)
}

// SaveStatus mocks base method.
func (m *MockStatusStore) SaveStatus(ctx context.Context, event domain.TransferEvent) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "SaveStatus", ctx, event)
	ret0, _ := ret[0].(error)
	return ret0
}

// SaveStatus indicates an expected call of SaveStatus.
func (mr *MockStatusStoreMockRecorder) SaveStatus(ctx, event any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "SaveStatus", reflect.TypeOf((*MockStatusStore)(nil).SaveStatus), ctx, event)
}
