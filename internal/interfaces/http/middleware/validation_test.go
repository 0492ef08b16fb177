package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/digistore/backend/internal/interfaces/http/dto"
)

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	assert.NotNil(t, v)
}

func TestHandleValidationError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	SetupValidator()

	type checkoutInput struct {
		VariantID string `json:"variant_id" binding:"required,uuid"`
		Quantity  int    `json:"quantity" binding:"required,gte=1"`
	}

	router := gin.New()
	router.POST("/orders", func(c *gin.Context) {
		var input checkoutInput
		if err := c.ShouldBindJSON(&input); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.NewSuccessResponse(input))
	})

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/orders", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("invalid payload yields field details", func(t *testing.T) {
		w := post(`{"variant_id": "not-a-uuid", "quantity": 0}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

		assert.False(t, resp.Success)
		require.NotNil(t, resp.Error)
		assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
		assert.Equal(t, "Request validation failed", resp.Error.Message)
		assert.Len(t, resp.Error.Details, 2)

		// field names come from the json tags, not the Go fields
		fields := make([]string, 0, len(resp.Error.Details))
		for _, d := range resp.Error.Details {
			fields = append(fields, d.Field)
		}
		assert.Contains(t, fields, "variant_id")
		assert.Contains(t, fields, "quantity")
	})

	t.Run("valid payload passes", func(t *testing.T) {
		w := post(`{"variant_id": "c6a7e1a2-97f5-4f0a-b9a4-3d7c25cf0a19", "quantity": 3}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("malformed JSON still answers 400", func(t *testing.T) {
		w := post(`{"variant_id": `)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetValidationMessage(t *testing.T) {
	type input struct {
		Required string `binding:"required"`
		Email    string `binding:"email"`
		Min      string `binding:"min=5"`
		Max      string `binding:"max=10"`
		Len      string `binding:"len=5"`
		UUID     string `binding:"uuid"`
		OneOf    string `binding:"oneof=RESERVED FULFILLED CANCELLED"`
		GTE      int    `binding:"gte=10"`
		URL      string `binding:"url"`
	}

	v := validator.New()
	v.SetTagName("binding")

	err := v.Struct(input{
		Email: "not-an-email",
		Min:   "ab",
		Max:   "far too long a value",
		Len:   "ab",
		UUID:  "nope",
		OneOf: "PENDING",
		GTE:   3,
		URL:   "nope",
	})
	require.Error(t, err)

	want := map[string]string{
		"Required": "This field is required",
		"Email":    "Invalid email format",
		"Min":      "Must be at least 5 characters",
		"Max":      "Must be at most 10 characters",
		"Len":      "Must be exactly 5 characters",
		"UUID":     "Invalid UUID format",
		"OneOf":    "Must be one of: RESERVED FULFILLED CANCELLED",
		"GTE":      "Must be greater than or equal to 10",
		"URL":      "Invalid URL format",
	}

	for _, e := range err.(validator.ValidationErrors) {
		expected, ok := want[e.StructField()]
		if !ok {
			continue
		}
		assert.Equal(t, expected, getValidationMessage(e), "field %s", e.StructField())
	}
}
