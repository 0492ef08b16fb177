package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	exposureapp "github.com/digistore/backend/internal/application/exposure"
	"github.com/digistore/backend/internal/domain/catalog"
	"github.com/digistore/backend/internal/domain/imports"
	"github.com/digistore/backend/internal/domain/ledger"
	"github.com/digistore/backend/internal/domain/shared"
	"github.com/digistore/backend/internal/domain/warranty"
	"github.com/digistore/backend/internal/infrastructure/auth"
	"github.com/digistore/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockVariantResolver is a mock implementation of catalog.VariantResolver
type MockVariantResolver struct {
	mock.Mock
}

func (m *MockVariantResolver) ResolveVariant(ctx context.Context, variantID uuid.UUID) (*catalog.Variant, error) {
	args := m.Called(ctx, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Variant), args.Error(1)
}

type exposureTestEnv struct {
	recordRepo *MockInventoryRecordRepository
	batchRepo  *MockImportBatchRepository
	resolver   *MockVariantResolver
	router     *gin.Engine
}

func setupExposureRouter(threshold int64) *exposureTestEnv {
	gin.SetMode(gin.TestMode)
	env := &exposureTestEnv{
		recordRepo: new(MockInventoryRecordRepository),
		batchRepo:  new(MockImportBatchRepository),
		resolver:   new(MockVariantResolver),
	}
	service := exposureapp.NewExposureService(env.recordRepo, env.batchRepo, env.resolver, threshold, nil)
	handler := NewExposureHandler(service)

	router := gin.New()
	rg := router.Group("/api/v1", authAs(uuid.New(), auth.RoleCustomer))
	handler.RegisterRoutes(rg)
	env.router = router
	return env
}

func newItemDetail(variantID uuid.UUID, quantity int64, status imports.ImportStatus, completedAt *time.Time, periodDays *int) imports.ImportBatchItemDetail {
	return imports.ImportBatchItemDetail{
		Item: imports.ImportBatchItem{
			ID:                 uuid.New(),
			ImportID:           uuid.New(),
			VariantID:          variantID,
			InventoryID:        uuid.New(),
			Quantity:           quantity,
			NetPrice:           decimal.NewFromFloat(7.50),
			WarrantyPeriodDays: periodDays,
		},
		SupplierID:   uuid.New(),
		Reference:    "INV-1",
		ImportStatus: status,
		CompletedAt:  completedAt,
	}
}

func TestExposureHandler_GetStockLevel(t *testing.T) {
	variantID := uuid.New()

	tests := []struct {
		name     string
		quantity int64
		level    string
	}{
		{"zero is out of stock", 0, "Out of Stock"},
		{"below threshold is low stock", 4, "Low Stock"},
		{"at threshold is in stock", 5, "In Stock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupExposureRouter(5)
			record, _ := ledger.NewInventoryRecord(variantID)
			record.Quantity = tt.quantity
			env.recordRepo.On("FindByVariantID", mock.Anything, variantID).Return(record, nil)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/storefront/variants/"+variantID.String()+"/stock-level", nil)
			env.router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			var resp dto.Response
			assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			data := resp.Data.(map[string]any)
			assert.Equal(t, tt.level, data["level"])
			assert.Equal(t, float64(tt.quantity), data["quantity"])
		})
	}

	t.Run("unknown variant is out of stock", func(t *testing.T) {
		env := setupExposureRouter(5)
		env.recordRepo.On("FindByVariantID", mock.Anything, variantID).Return(nil, shared.ErrNotFound)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/storefront/variants/"+variantID.String()+"/stock-level", nil)
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.Response
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]any)
		assert.Equal(t, "Out of Stock", data["level"])
	})
}

func TestExposureHandler_GetStockLevelBulk(t *testing.T) {
	stocked := uuid.New()
	missing := uuid.New()

	t.Run("classifies in request order", func(t *testing.T) {
		env := setupExposureRouter(5)
		record, _ := ledger.NewInventoryRecord(stocked)
		record.Quantity = 9
		env.recordRepo.On("FindByVariantIDs", mock.Anything, []uuid.UUID{stocked, missing}).
			Return([]ledger.InventoryRecord{*record}, nil)

		body, _ := json.Marshal(map[string]any{
			"variant_ids": []string{stocked.String(), missing.String()},
		})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/storefront/stock-levels", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.Response
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		levels := resp.Data.([]any)
		assert.Len(t, levels, 2)
		assert.Equal(t, "In Stock", levels[0].(map[string]any)["level"])
		assert.Equal(t, "Out of Stock", levels[1].(map[string]any)["level"])
	})

	t.Run("rejects empty id list", func(t *testing.T) {
		env := setupExposureRouter(5)

		body, _ := json.Marshal(map[string]any{"variant_ids": []string{}})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/storefront/stock-levels", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestExposureHandler_GetPendingImports(t *testing.T) {
	variantID := uuid.New()

	t.Run("lists incoming lines", func(t *testing.T) {
		env := setupExposureRouter(5)
		detail := newItemDetail(variantID, 25, imports.ImportStatusPending, nil, nil)
		env.batchRepo.On("FindItemsByVariant", mock.Anything, variantID,
			[]imports.ImportStatus{imports.ImportStatusPending, imports.ImportStatusProcessing}).
			Return([]imports.ImportBatchItemDetail{detail}, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/storefront/variants/"+variantID.String()+"/pending-imports", nil)
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.Response
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		pending := resp.Data.([]any)
		assert.Len(t, pending, 1)
		entry := pending[0].(map[string]any)
		assert.Equal(t, string(imports.ImportStatusPending), entry["import_status"])
		assert.Equal(t, float64(25), entry["quantity"])
	})
}

func TestExposureHandler_GetWarranty(t *testing.T) {
	variantID := uuid.New()

	t.Run("active warranty from latest completed purchase", func(t *testing.T) {
		env := setupExposureRouter(5)
		completed := time.Now().AddDate(0, 0, -30)
		period := 365
		detail := newItemDetail(variantID, 10, imports.ImportStatusCompleted, &completed, &period)
		env.batchRepo.On("FindItemsByVariant", mock.Anything, variantID,
			[]imports.ImportStatus{imports.ImportStatusCompleted}).
			Return([]imports.ImportBatchItemDetail{detail}, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/storefront/variants/"+variantID.String()+"/warranty", nil)
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.Response
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]any)
		result := data["result"].(map[string]any)
		assert.Equal(t, string(warranty.StatusActive), result["status"])
		assert.Greater(t, result["days_remaining"].(float64), float64(300))
	})

	t.Run("no completed purchases reports unknown", func(t *testing.T) {
		env := setupExposureRouter(5)
		env.batchRepo.On("FindItemsByVariant", mock.Anything, variantID, mock.Anything).
			Return([]imports.ImportBatchItemDetail{}, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/storefront/variants/"+variantID.String()+"/warranty", nil)
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.Response
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]any)
		result := data["result"].(map[string]any)
		assert.Equal(t, string(warranty.StatusUnknown), result["status"])
	})
}

func TestExposureHandler_GetHistory(t *testing.T) {
	variantID := uuid.New()

	t.Run("annotates entries and resolves variant", func(t *testing.T) {
		env := setupExposureRouter(5)
		completed := time.Now().AddDate(0, 0, -400)
		period := 365
		detail := newItemDetail(variantID, 10, imports.ImportStatusCompleted, &completed, &period)
		env.batchRepo.On("FindItemsByVariant", mock.Anything, variantID,
			[]imports.ImportStatus{imports.ImportStatusCompleted}).
			Return([]imports.ImportBatchItemDetail{detail}, nil)
		env.resolver.On("ResolveVariant", mock.Anything, variantID).
			Return(&catalog.Variant{ID: variantID, ProductID: uuid.New(), AttributeSummary: "Steam / Global"}, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/storefront/variants/"+variantID.String()+"/history", nil)
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.Response
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]any)
		variant := data["variant"].(map[string]any)
		assert.Equal(t, "Steam / Global", variant["attribute_summary"])
		entries := data["entries"].([]any)
		assert.Len(t, entries, 1)
		entryWarranty := entries[0].(map[string]any)["warranty"].(map[string]any)
		assert.Equal(t, string(warranty.StatusExpired), entryWarranty["status"])
	})

	t.Run("unresolvable variant leaves annotation empty", func(t *testing.T) {
		env := setupExposureRouter(5)
		env.batchRepo.On("FindItemsByVariant", mock.Anything, variantID, mock.Anything).
			Return([]imports.ImportBatchItemDetail{}, nil)
		env.resolver.On("ResolveVariant", mock.Anything, variantID).Return(nil, shared.ErrNotFound)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/storefront/variants/"+variantID.String()+"/history", nil)
		env.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.Response
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]any)
		assert.Nil(t, data["variant"])
		assert.Empty(t, data["entries"])
	})
}
