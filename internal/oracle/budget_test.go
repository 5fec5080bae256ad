package oracle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBudgetAcquire_Ceiling(t *testing.T) {
	b := NewBudget(2, 100000)
	ctx := context.Background()

	require.NoError(t, b.Acquire(ctx))
	require.NoError(t, b.Acquire(ctx))
	assert.True(t, b.Exhausted())

	err := b.Acquire(ctx)
	assert.ErrorIs(t, err, ErrBudgetExhausted)
	assert.Equal(t, 2, b.Calls())
}

func TestBudgetAcquire_Unlimited(t *testing.T) {
	b := NewBudget(0, 100000)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Acquire(ctx))
	}
	assert.False(t, b.Exhausted())
	assert.Equal(t, 5, b.Calls())
}

func TestBudgetCost(t *testing.T) {
	b := NewBudget(10, 100000)
	b.AddCost(0.02)
	b.AddCost(0.03)
	assert.InDelta(t, 0.05, b.SpentUSD(), 1e-9)
}
