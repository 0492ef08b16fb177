package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	ledgerapp "github.com/digistore/backend/internal/application/ledger"
	"github.com/digistore/backend/internal/domain/audit"
	"github.com/digistore/backend/internal/domain/ledger"
	"github.com/digistore/backend/internal/domain/shared"
	"github.com/digistore/backend/internal/infrastructure/auth"
	"github.com/digistore/backend/internal/interfaces/http/dto"
	"github.com/digistore/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockInventoryRecordRepository is a mock implementation of ledger.InventoryRecordRepository
type MockInventoryRecordRepository struct {
	mock.Mock
}

func (m *MockInventoryRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.InventoryRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.InventoryRecord), args.Error(1)
}

func (m *MockInventoryRecordRepository) FindByVariantID(ctx context.Context, variantID uuid.UUID) (*ledger.InventoryRecord, error) {
	args := m.Called(ctx, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.InventoryRecord), args.Error(1)
}

func (m *MockInventoryRecordRepository) FindByVariantIDs(ctx context.Context, variantIDs []uuid.UUID) ([]ledger.InventoryRecord, error) {
	args := m.Called(ctx, variantIDs)
	return args.Get(0).([]ledger.InventoryRecord), args.Error(1)
}

func (m *MockInventoryRecordRepository) GetOrCreate(ctx context.Context, variantID uuid.UUID) (*ledger.InventoryRecord, error) {
	args := m.Called(ctx, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.InventoryRecord), args.Error(1)
}

func (m *MockInventoryRecordRepository) Save(ctx context.Context, record *ledger.InventoryRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockInventoryRecordRepository) SaveWithLock(ctx context.Context, record *ledger.InventoryRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockInventoryRecordRepository) FindAll(ctx context.Context, filter shared.Filter) ([]ledger.InventoryRecord, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]ledger.InventoryRecord), args.Error(1)
}

func (m *MockInventoryRecordRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockAuditEntryRepository is a mock implementation of audit.EntryRepository
type MockAuditEntryRepository struct {
	mock.Mock
}

func (m *MockAuditEntryRepository) Append(ctx context.Context, entry *audit.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockAuditEntryRepository) FindByEntity(ctx context.Context, entityType, entityID string, filter shared.Filter) ([]audit.Entry, error) {
	args := m.Called(ctx, entityType, entityID, filter)
	return args.Get(0).([]audit.Entry), args.Error(1)
}

func (m *MockAuditEntryRepository) FindAll(ctx context.Context, filter shared.Filter) ([]audit.Entry, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]audit.Entry), args.Error(1)
}

// authAs injects JWT context values the way the auth middleware would,
// so handlers and RequireAdmin see an authenticated request.
func authAs(userID uuid.UUID, role auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.JWTClaimsKey, &auth.Claims{
			UserID:   userID.String(),
			Username: "tester",
			Role:     role,
		})
		c.Set(middleware.JWTUserIDKey, userID.String())
		c.Next()
	}
}

func setupLedgerRouter(recordRepo *MockInventoryRecordRepository, auditRepo *MockAuditEntryRepository, role auth.Role, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	scope := &ledgerapp.NoOpTransactionScope{RecordRepo: recordRepo, AuditRepo: auditRepo}
	service := ledgerapp.NewLedgerService(recordRepo, scope, nil)
	handler := NewLedgerHandler(service)

	router := gin.New()
	rg := router.Group("/api/v1", authAs(userID, role))
	handler.RegisterRoutes(rg)
	return router
}

func newStockedRecord(t *testing.T, variantID uuid.UUID, quantity int64) *ledger.InventoryRecord {
	t.Helper()
	record, err := ledger.NewInventoryRecord(variantID)
	assert.NoError(t, err)
	record.Quantity = quantity
	return record
}

func TestLedgerHandler_GetQuantity(t *testing.T) {
	adminID := uuid.New()
	variantID := uuid.New()

	t.Run("returns quantity for known variant", func(t *testing.T) {
		recordRepo := new(MockInventoryRecordRepository)
		recordRepo.On("FindByVariantID", mock.Anything, variantID).
			Return(newStockedRecord(t, variantID, 7), nil)

		router := setupLedgerRouter(recordRepo, new(MockAuditEntryRepository), auth.RoleAdmin, adminID)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/variants/"+variantID.String()+"/quantity", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.Response
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		data := resp.Data.(map[string]any)
		assert.Equal(t, variantID.String(), data["variant_id"])
		assert.Equal(t, float64(7), data["quantity"])
		recordRepo.AssertExpectations(t)
	})

	t.Run("unknown variant reads as zero", func(t *testing.T) {
		recordRepo := new(MockInventoryRecordRepository)
		recordRepo.On("FindByVariantID", mock.Anything, variantID).Return(nil, shared.ErrNotFound)

		router := setupLedgerRouter(recordRepo, new(MockAuditEntryRepository), auth.RoleAdmin, adminID)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/variants/"+variantID.String()+"/quantity", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.Response
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]any)
		assert.Equal(t, float64(0), data["quantity"])
	})

	t.Run("rejects malformed variant id", func(t *testing.T) {
		router := setupLedgerRouter(new(MockInventoryRecordRepository), new(MockAuditEntryRepository), auth.RoleAdmin, adminID)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/variants/not-a-uuid/quantity", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLedgerHandler_GetRecord(t *testing.T) {
	adminID := uuid.New()
	variantID := uuid.New()

	t.Run("returns record", func(t *testing.T) {
		recordRepo := new(MockInventoryRecordRepository)
		recordRepo.On("FindByVariantID", mock.Anything, variantID).
			Return(newStockedRecord(t, variantID, 12), nil)

		router := setupLedgerRouter(recordRepo, new(MockAuditEntryRepository), auth.RoleAdmin, adminID)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/variants/"+variantID.String(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.Response
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]any)
		assert.Equal(t, variantID.String(), data["variant_id"])
		assert.Equal(t, float64(12), data["quantity"])
	})

	t.Run("missing record returns 404", func(t *testing.T) {
		recordRepo := new(MockInventoryRecordRepository)
		recordRepo.On("FindByVariantID", mock.Anything, variantID).Return(nil, shared.ErrNotFound)

		router := setupLedgerRouter(recordRepo, new(MockAuditEntryRepository), auth.RoleAdmin, adminID)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/variants/"+variantID.String(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestLedgerHandler_List(t *testing.T) {
	adminID := uuid.New()

	t.Run("returns paginated records", func(t *testing.T) {
		records := []ledger.InventoryRecord{
			*newStockedRecord(t, uuid.New(), 3),
			*newStockedRecord(t, uuid.New(), 0),
		}
		recordRepo := new(MockInventoryRecordRepository)
		recordRepo.On("FindAll", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
			return f.Page == 2 && f.PageSize == 5
		})).Return(records, nil)
		recordRepo.On("Count", mock.Anything, mock.Anything).Return(int64(12), nil)

		router := setupLedgerRouter(recordRepo, new(MockAuditEntryRepository), auth.RoleAdmin, adminID)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/records?page=2&page_size=5", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.Response
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.NotNil(t, resp.Meta)
		assert.Equal(t, int64(12), resp.Meta.Total)
		assert.Equal(t, 2, resp.Meta.Page)
		assert.Len(t, resp.Data.([]any), 2)
	})

	t.Run("passes stock filters through", func(t *testing.T) {
		recordRepo := new(MockInventoryRecordRepository)
		recordRepo.On("FindAll", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
			return f.Filters["out_of_stock"] == true
		})).Return([]ledger.InventoryRecord{}, nil)
		recordRepo.On("Count", mock.Anything, mock.Anything).Return(int64(0), nil)

		router := setupLedgerRouter(recordRepo, new(MockAuditEntryRepository), auth.RoleAdmin, adminID)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/records?out_of_stock=true", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		recordRepo.AssertExpectations(t)
	})

	t.Run("rejects invalid order direction", func(t *testing.T) {
		router := setupLedgerRouter(new(MockInventoryRecordRepository), new(MockAuditEntryRepository), auth.RoleAdmin, adminID)
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/records?order_dir=sideways", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLedgerHandler_AdjustInventory(t *testing.T) {
	adminID := uuid.New()
	variantID := uuid.New()

	adjustURL := "/api/v1/inventory/variants/" + variantID.String() + "/adjust"

	t.Run("applies absolute adjustment", func(t *testing.T) {
		recordRepo := new(MockInventoryRecordRepository)
		auditRepo := new(MockAuditEntryRepository)
		recordRepo.On("GetOrCreate", mock.Anything, variantID).
			Return(newStockedRecord(t, variantID, 4), nil)
		recordRepo.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil)
		auditRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

		router := setupLedgerRouter(recordRepo, auditRepo, auth.RoleAdmin, adminID)
		body, _ := json.Marshal(map[string]any{"new_quantity": 10, "reason": "stock count"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, adjustURL, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.Response
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]any)
		assert.Equal(t, float64(6), data["applied_delta"])
		record := data["record"].(map[string]any)
		assert.Equal(t, float64(10), record["quantity"])
		recordRepo.AssertExpectations(t)
		auditRepo.AssertExpectations(t)
	})

	t.Run("rejects missing reason", func(t *testing.T) {
		router := setupLedgerRouter(new(MockInventoryRecordRepository), new(MockAuditEntryRepository), auth.RoleAdmin, adminID)
		body, _ := json.Marshal(map[string]any{"delta": -2})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, adjustURL, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("negative delta clamps at zero", func(t *testing.T) {
		recordRepo := new(MockInventoryRecordRepository)
		auditRepo := new(MockAuditEntryRepository)
		recordRepo.On("GetOrCreate", mock.Anything, variantID).
			Return(newStockedRecord(t, variantID, 1), nil)
		recordRepo.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil)
		auditRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

		router := setupLedgerRouter(recordRepo, auditRepo, auth.RoleAdmin, adminID)
		body, _ := json.Marshal(map[string]any{"delta": -5, "reason": "oversold"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, adjustURL, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp dto.Response
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		data := resp.Data.(map[string]any)
		assert.Equal(t, float64(-1), data["applied_delta"])
		record := data["record"].(map[string]any)
		assert.Equal(t, float64(0), record["quantity"])
	})

	t.Run("customer role is forbidden", func(t *testing.T) {
		router := setupLedgerRouter(new(MockInventoryRecordRepository), new(MockAuditEntryRepository), auth.RoleCustomer, uuid.New())
		body, _ := json.Marshal(map[string]any{"delta": 1, "reason": "found one"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, adjustURL, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
	})
}
