package imports

import (
	"errors"
	"testing"
	"time"

	"github.com/digistore/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestBatch(t *testing.T) *ImportBatch {
	batch, err := NewImportBatch(uuid.New(), uuid.New(), "PO-2026-001")
	require.NoError(t, err)
	return batch
}

func addTestItem(t *testing.T, batch *ImportBatch, quantity int64, netPrice string) *ImportBatchItem {
	price, err := decimal.NewFromString(netPrice)
	require.NoError(t, err)
	item, err := batch.AddItem(uuid.New(), uuid.New(), quantity, price)
	require.NoError(t, err)
	return item
}

func TestImportStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     ImportStatus
		to       ImportStatus
		canTrans bool
	}{
		{ImportStatusDraft, ImportStatusPending, true},
		{ImportStatusDraft, ImportStatusCancelled, true},
		{ImportStatusDraft, ImportStatusProcessing, false},
		{ImportStatusDraft, ImportStatusCompleted, false},
		{ImportStatusPending, ImportStatusProcessing, true},
		{ImportStatusPending, ImportStatusCancelled, true},
		{ImportStatusPending, ImportStatusCompleted, false},
		{ImportStatusProcessing, ImportStatusCompleted, true},
		{ImportStatusProcessing, ImportStatusCancelled, true},
		{ImportStatusProcessing, ImportStatusPending, false},
		{ImportStatusCompleted, ImportStatusCancelled, false},
		{ImportStatusCompleted, ImportStatusCompleted, false},
		{ImportStatusCancelled, ImportStatusPending, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestPaymentStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     PaymentStatus
		to       PaymentStatus
		canTrans bool
	}{
		{PaymentStatusPending, PaymentStatusPartiallyPaid, true},
		{PaymentStatusPending, PaymentStatusPaid, true},
		{PaymentStatusPending, PaymentStatusCancelled, true},
		{PaymentStatusPartiallyPaid, PaymentStatusPaid, true},
		{PaymentStatusPartiallyPaid, PaymentStatusCancelled, true},
		{PaymentStatusPartiallyPaid, PaymentStatusPending, false},
		{PaymentStatusPaid, PaymentStatusCancelled, false},
		{PaymentStatusPaid, PaymentStatusPending, false},
		{PaymentStatusCancelled, PaymentStatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestNewImportBatch(t *testing.T) {
	t.Run("starts in DRAFT with PENDING payment", func(t *testing.T) {
		batch := createTestBatch(t)

		assert.Equal(t, ImportStatusDraft, batch.ImportStatus)
		assert.Equal(t, PaymentStatusPending, batch.PaymentStatus)
		assert.True(t, decimal.Zero.Equal(batch.TotalAmount))
		assert.Empty(t, batch.Items)
	})

	t.Run("rejects empty supplier or user", func(t *testing.T) {
		_, err := NewImportBatch(uuid.Nil, uuid.New(), "")
		assert.Error(t, err)

		_, err = NewImportBatch(uuid.New(), uuid.Nil, "")
		assert.Error(t, err)
	})
}

func TestImportBatch_AddItem(t *testing.T) {
	t.Run("accumulates total from line amounts", func(t *testing.T) {
		batch := createTestBatch(t)
		addTestItem(t, batch, 3, "10.50")
		addTestItem(t, batch, 2, "4.25")

		// 3*10.50 + 2*4.25 = 40.00
		assert.True(t, decimal.RequireFromString("40.00").Equal(batch.TotalAmount))
		assert.Len(t, batch.Items, 2)
	})

	t.Run("rejects non-positive quantity", func(t *testing.T) {
		batch := createTestBatch(t)

		_, err := batch.AddItem(uuid.New(), uuid.New(), 0, decimal.NewFromInt(1))
		assert.Error(t, err)

		_, err = batch.AddItem(uuid.New(), uuid.New(), -2, decimal.NewFromInt(1))
		assert.Error(t, err)
	})

	t.Run("rejected outside DRAFT", func(t *testing.T) {
		batch := createTestBatch(t)
		addTestItem(t, batch, 1, "5")
		require.NoError(t, batch.TransitionImportStatus(ImportStatusPending))

		_, err := batch.AddItem(uuid.New(), uuid.New(), 1, decimal.NewFromInt(1))
		assert.Error(t, err)
	})
}

func TestImportBatch_TransitionImportStatus(t *testing.T) {
	t.Run("walks the full lifecycle", func(t *testing.T) {
		batch := createTestBatch(t)
		addTestItem(t, batch, 5, "9.99")

		require.NoError(t, batch.TransitionImportStatus(ImportStatusPending))
		require.NoError(t, batch.TransitionImportStatus(ImportStatusProcessing))
		require.NoError(t, batch.TransitionImportStatus(ImportStatusCompleted))

		assert.True(t, batch.IsCompleted())
		require.NotNil(t, batch.CompletedAt)
		assert.WithinDuration(t, time.Now(), *batch.CompletedAt, time.Minute)
	})

	t.Run("illegal transition leaves batch unchanged", func(t *testing.T) {
		batch := createTestBatch(t)
		addTestItem(t, batch, 1, "1")

		err := batch.TransitionImportStatus(ImportStatusCompleted)
		require.Error(t, err)

		var transErr *InvalidTransitionError
		require.ErrorAs(t, err, &transErr)
		assert.Equal(t, "DRAFT", transErr.From)
		assert.Equal(t, "COMPLETED", transErr.To)
		assert.Equal(t, ImportStatusDraft, batch.ImportStatus)
		assert.True(t, errors.Is(err, shared.ErrInvalidState))
	})

	t.Run("re-completing a completed batch is rejected", func(t *testing.T) {
		batch := createTestBatch(t)
		addTestItem(t, batch, 1, "1")
		require.NoError(t, batch.TransitionImportStatus(ImportStatusPending))
		require.NoError(t, batch.TransitionImportStatus(ImportStatusProcessing))
		require.NoError(t, batch.TransitionImportStatus(ImportStatusCompleted))

		err := batch.TransitionImportStatus(ImportStatusCompleted)
		assert.Error(t, err)
	})

	t.Run("cancellation is recorded from any non-terminal state", func(t *testing.T) {
		batch := createTestBatch(t)
		addTestItem(t, batch, 1, "1")
		require.NoError(t, batch.TransitionImportStatus(ImportStatusPending))

		require.NoError(t, batch.TransitionImportStatus(ImportStatusCancelled))
		assert.NotNil(t, batch.CancelledAt)

		err := batch.TransitionImportStatus(ImportStatusPending)
		assert.Error(t, err)
	})

	t.Run("cannot complete an empty batch", func(t *testing.T) {
		batch := createTestBatch(t)
		require.NoError(t, batch.TransitionImportStatus(ImportStatusPending))
		require.NoError(t, batch.TransitionImportStatus(ImportStatusProcessing))

		err := batch.TransitionImportStatus(ImportStatusCompleted)
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, "EMPTY_BATCH", domainErr.Code)
	})
}

func TestImportBatch_TransitionPaymentStatus(t *testing.T) {
	t.Run("payment axis moves independently of delivery", func(t *testing.T) {
		batch := createTestBatch(t)
		addTestItem(t, batch, 1, "1")
		require.NoError(t, batch.TransitionImportStatus(ImportStatusPending))
		require.NoError(t, batch.TransitionImportStatus(ImportStatusCancelled))

		// Delivery cancelled, settlement still moves.
		require.NoError(t, batch.TransitionPaymentStatus(PaymentStatusCancelled))
	})

	t.Run("PAID is terminal", func(t *testing.T) {
		batch := createTestBatch(t)
		require.NoError(t, batch.TransitionPaymentStatus(PaymentStatusPaid))

		err := batch.TransitionPaymentStatus(PaymentStatusCancelled)
		require.Error(t, err)

		var transErr *InvalidTransitionError
		assert.ErrorAs(t, err, &transErr)
	})
}

func TestImportBatchItem_SetWarranty(t *testing.T) {
	t.Run("stores period and explicit expiry", func(t *testing.T) {
		batch := createTestBatch(t)
		item := addTestItem(t, batch, 1, "10")

		days := 365
		expiry := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
		require.NoError(t, item.SetWarranty(&days, &expiry))

		assert.Equal(t, 365, *item.WarrantyPeriodDays)
		assert.True(t, expiry.Equal(*item.WarrantyExpiry))
	})

	t.Run("rejects non-positive period", func(t *testing.T) {
		batch := createTestBatch(t)
		item := addTestItem(t, batch, 1, "10")

		days := 0
		assert.Error(t, item.SetWarranty(&days, nil))
	})
}
