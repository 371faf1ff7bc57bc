package connection

import (
	"context"
	"errors"
)

type MockStream struct {
	ReadFunc  func(p []byte) (int, error)
	WriteFunc func(p []byte) (int, error)
	CloseFunc func() error
}

func (m *MockStream) Read(p []byte) (int, error) {
	if m.ReadFunc != nil {
		return m.ReadFunc(p)
	}
	return 0, errors.New("mock not implemented")
}

func (m *MockStream) Write(p []byte) (int, error) {
	if m.WriteFunc != nil {
		return m.WriteFunc(p)
	}
	return len(p), nil
}

func (m *MockStream) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

type MockStreamFactory struct {
	OpenFunc func(ctx context.Context, target Target) (Stream, error)
}

func (m *MockStreamFactory) Open(ctx context.Context, target Target) (Stream, error) {
	if m.OpenFunc != nil {
		return m.OpenFunc(ctx, target)
	}
	return nil, errors.New("mock not implemented")
}
