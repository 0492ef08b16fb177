package fulfillment

import (
	"testing"

	"github.com/digistore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestOrder(t *testing.T) *Order {
	order, err := NewOrder(uuid.New(), "")
	require.NoError(t, err)
	return order
}

func addTestItem(t *testing.T, order *Order, quantity int64, retail, net string) *OrderItem {
	item, err := order.AddItem(uuid.New(), quantity,
		decimal.RequireFromString(retail), decimal.RequireFromString(net))
	require.NoError(t, err)
	return item
}

func TestOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     OrderStatus
		to       OrderStatus
		canTrans bool
	}{
		{OrderStatusProcessing, OrderStatusConfirmed, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusDelivered, false},
		{OrderStatusProcessing, OrderStatusRefunded, false},
		{OrderStatusConfirmed, OrderStatusDelivered, true},
		{OrderStatusConfirmed, OrderStatusCancelled, true},
		{OrderStatusConfirmed, OrderStatusRefunded, true},
		{OrderStatusDelivered, OrderStatusRefunded, true},
		{OrderStatusDelivered, OrderStatusCancelled, true},
		{OrderStatusDelivered, OrderStatusConfirmed, false},
		{OrderStatusCancelled, OrderStatusProcessing, false},
		{OrderStatusRefunded, OrderStatusConfirmed, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestOrderStatus_ReversesStock(t *testing.T) {
	assert.True(t, OrderStatusCancelled.ReversesStock())
	assert.True(t, OrderStatusRefunded.ReversesStock())
	assert.False(t, OrderStatusConfirmed.ReversesStock())
	assert.False(t, OrderStatusDelivered.ReversesStock())
}

func TestNewOrder(t *testing.T) {
	t.Run("starts in PROCESSING", func(t *testing.T) {
		order := createTestOrder(t)

		assert.Equal(t, OrderStatusProcessing, order.Status)
		assert.True(t, decimal.Zero.Equal(order.Total))
	})

	t.Run("rejects empty user", func(t *testing.T) {
		_, err := NewOrder(uuid.Nil, "")
		assert.Error(t, err)
	})
}

func TestOrder_AddItem(t *testing.T) {
	t.Run("accumulates total from retail amounts", func(t *testing.T) {
		order := createTestOrder(t)
		addTestItem(t, order, 2, "19.99", "12.00")
		addTestItem(t, order, 1, "5.00", "2.50")

		// 2*19.99 + 5.00 = 44.98
		assert.True(t, decimal.RequireFromString("44.98").Equal(order.Total))
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		order := createTestOrder(t)

		_, err := order.AddItem(uuid.New(), 0, decimal.NewFromInt(1), decimal.NewFromInt(1))
		assert.Error(t, err)
	})
}

func TestOrder_TransitionStatus(t *testing.T) {
	t.Run("walks the happy path", func(t *testing.T) {
		order := createTestOrder(t)
		addTestItem(t, order, 1, "10", "5")

		require.NoError(t, order.TransitionStatus(OrderStatusConfirmed))
		require.NoError(t, order.TransitionStatus(OrderStatusDelivered))
		require.NoError(t, order.TransitionStatus(OrderStatusRefunded))

		assert.True(t, order.Status.IsTerminal())
	})

	t.Run("illegal transition leaves order unchanged", func(t *testing.T) {
		order := createTestOrder(t)

		err := order.TransitionStatus(OrderStatusDelivered)
		require.Error(t, err)

		var transErr *InvalidTransitionError
		require.ErrorAs(t, err, &transErr)
		assert.Equal(t, "PROCESSING", transErr.From)
		assert.Equal(t, "DELIVERED", transErr.To)
		assert.Equal(t, OrderStatusProcessing, order.Status)
	})
}

func TestOrder_Cancellation(t *testing.T) {
	t.Run("permitted from any non-terminal state", func(t *testing.T) {
		for _, status := range []OrderStatus{OrderStatusProcessing, OrderStatusConfirmed, OrderStatusDelivered} {
			order := createTestOrder(t)
			order.Status = status

			require.NoError(t, order.TransitionStatus(OrderStatusCancelled))
			assert.Equal(t, OrderStatusCancelled, order.Status)
			assert.NotNil(t, order.CancelledAt)
		}
	})

	t.Run("rejected from terminal states", func(t *testing.T) {
		order := createTestOrder(t)
		require.NoError(t, order.TransitionStatus(OrderStatusCancelled))

		err := order.TransitionStatus(OrderStatusCancelled)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}
