package ccs

import (
	"context"

	"github.com/sealane/confidential-shipment-backend/interfaces"
	"github.com/stretchr/testify/mock"
)

// MockService mocks the interfaces.ConfidentialCompute contract.
type MockService struct {
	mock.Mock
}

// SubmitExternal mocks the SubmitExternal method.
func (m *MockService) SubmitExternal(ctx context.Context, ciphertext, proof []byte, binding interfaces.ProofBinding) (interfaces.CipherHandle, error) {
	args := m.Called(ctx, ciphertext, proof, binding)
	return args.Get(0).(interfaces.CipherHandle), args.Error(1)
}

// EncryptTrusted mocks the EncryptTrusted method.
func (m *MockService) EncryptTrusted(ctx context.Context, value uint64) (interfaces.CipherHandle, error) {
	args := m.Called(ctx, value)
	return args.Get(0).(interfaces.CipherHandle), args.Error(1)
}

// CompareLE mocks the CompareLE method.
func (m *MockService) CompareLE(ctx context.Context, a, b interfaces.CipherHandle) (interfaces.CipherHandle, error) {
	args := m.Called(ctx, a, b)
	return args.Get(0).(interfaces.CipherHandle), args.Error(1)
}

// GrantUse mocks the GrantUse method.
func (m *MockService) GrantUse(ctx context.Context, h interfaces.CipherHandle, scope interfaces.ShipmentID) error {
	args := m.Called(ctx, h, scope)
	return args.Error(0)
}

// GrantView mocks the GrantView method.
func (m *MockService) GrantView(ctx context.Context, h interfaces.CipherHandle, viewer interfaces.PartyID) error {
	args := m.Called(ctx, h, viewer)
	return args.Error(0)
}

// MarkPublic mocks the MarkPublic method.
func (m *MockService) MarkPublic(ctx context.Context, h interfaces.CipherHandle) error {
	args := m.Called(ctx, h)
	return args.Error(0)
}

// TransportBytes mocks the TransportBytes method.
func (m *MockService) TransportBytes(h interfaces.CipherHandle) interfaces.TransportToken {
	args := m.Called(h)
	return args.Get(0).(interfaces.TransportToken)
}

// Decrypt mocks the Decrypt method.
func (m *MockService) Decrypt(ctx context.Context, h interfaces.CipherHandle, caller interfaces.PartyID) (uint64, error) {
	args := m.Called(ctx, h, caller)
	return args.Get(0).(uint64), args.Error(1)
}
