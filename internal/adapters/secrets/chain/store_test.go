package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/bnema/annoirc/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSecretStore struct {
	mock.Mock
}

func newMockSecretStore(t *testing.T) *mockSecretStore {
	m := &mockSecretStore{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockSecretStore) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func TestStoreGetUsesPrimaryWhenItSucceeds(t *testing.T) {
	t.Parallel()

	primary := newMockSecretStore(t)
	fallback := newMockSecretStore(t)
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)

	primary.On("Get", mock.Anything, "annoirc/twitter").Return("from-pass", nil).Once()

	value, err := store.Get(context.Background(), "annoirc/twitter")
	require.NoError(t, err)
	assert.Equal(t, "from-pass", value)
}

func TestStoreGetFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	primary := newMockSecretStore(t)
	fallback := newMockSecretStore(t)
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)

	primary.On("Get", mock.Anything, "annoirc/twitter").Return("", errors.New("pass unavailable")).Once()
	fallback.On("Get", mock.Anything, "annoirc/twitter").Return("from-file", nil).Once()

	value, err := store.Get(context.Background(), "annoirc/twitter")
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)
}

func TestStoreGetJoinsErrorsWhenEveryBackendFails(t *testing.T) {
	t.Parallel()

	primary := newMockSecretStore(t)
	fallback := newMockSecretStore(t)
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)

	primary.On("Get", mock.Anything, "annoirc/omdb").Return("", errors.New("pass failed")).Once()
	fallback.On("Get", mock.Anything, "annoirc/omdb").Return("", domain.ErrSecretNotFound).Once()

	_, err = store.Get(context.Background(), "annoirc/omdb")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSecretNotFound)
	assert.ErrorContains(t, err, "backend 1")
	assert.ErrorContains(t, err, "pass failed")
	assert.ErrorContains(t, err, "backend 2")
}

func TestStoreGetDoesNotFallbackOnCanceledContextError(t *testing.T) {
	t.Parallel()

	primary := newMockSecretStore(t)
	fallback := newMockSecretStore(t)
	store, err := NewStore(primary, fallback)
	require.NoError(t, err)

	primary.On("Get", mock.Anything, "annoirc/omdb").Return("", context.Canceled).Once()

	_, err = store.Get(context.Background(), "annoirc/omdb")
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewStoreRejectsMissingBackends(t *testing.T) {
	t.Parallel()

	_, err := NewStore()
	require.Error(t, err)

	_, err = NewStore(newMockSecretStore(t), nil)
	assert.ErrorContains(t, err, "secret store 1 is nil")
}
