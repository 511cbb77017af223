package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/webdesk/backend/internal/infrastructure/resilience"
)

func TestGuardedStoreOpensAfterFailures(t *testing.T) {
	inner := new(MockStore)
	inner.On("Save", mock.Anything, mock.Anything).Return(errors.New("disk full")).Twice()

	store := NewGuardedStore(inner, resilience.New("preferences", resilience.Settings{
		ReadyToTrip: func(c resilience.Counts) bool { return c.ConsecutiveFailures >= 2 },
		IsFailure:   func(err error) bool { return err != nil && !IsCanceled(err) },
	}))
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, NewPreferences()))
	assert.Error(t, store.Save(ctx, NewPreferences()))
	assert.Equal(t, resilience.StateOpen, store.State())

	err := store.Save(ctx, NewPreferences())
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	inner.AssertNumberOfCalls(t, "Save", 2)
}

func TestGuardedStoreLoadsThrough(t *testing.T) {
	inner := NewMemoryStore()
	store := NewGuardedStore(inner, resilience.New("preferences", resilience.Settings{}))

	require.NoError(t, store.Save(context.Background(), NewPreferences()))
	prefs, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, prefs)
	assert.Equal(t, 1, inner.Saves())
}

func TestIsCanceled(t *testing.T) {
	assert.True(t, IsCanceled(context.Canceled))
	assert.True(t, IsCanceled(context.DeadlineExceeded))
	assert.False(t, IsCanceled(errors.New("disk full")))
}
