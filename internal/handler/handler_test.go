package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wickshop/ember/internal/domain"
)

func TestStatusFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"conflict", domain.Conflict("op", "taken"), http.StatusConflict},
		{"invalid", domain.Invalid("op", "bad"), http.StatusBadRequest},
		{"not found", domain.NotFound("op", "Order", "ord_1"), http.StatusNotFound},
		{"unauthorized", domain.Unauthorized("op", "no session"), http.StatusUnauthorized},
		{"forbidden", domain.Forbidden("op", "admins only"), http.StatusForbidden},
		{"payment", domain.Errorf(domain.EPAYMENT, "op", "declined"), http.StatusPaymentRequired},
		{"internal", domain.Internal(errors.New("boom"), "op", "oops"), http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
		{"validation", domain.NewValidationError("op", "email", "is required"), http.StatusBadRequest},
		{"echo error", echo.NewHTTPError(http.StatusTeapot, "short and stout"), http.StatusTeapot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.status, StatusFromError(tt.err))
		})
	}
}

func TestHTTPErrorHandler(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler(zerolog.Nop())

	t.Run("domain error envelope", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		e.HTTPErrorHandler(domain.NotFound("op", "Order", "ord_1"), c)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		var body ErrorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, domain.ENOTFOUND, body.Error.Code)
		assert.NotEmpty(t, body.Error.Message)
	})

	t.Run("internal detail stays out of the body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		e.HTTPErrorHandler(errors.New("pq: connection refused"), c)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})

	t.Run("validation fields are listed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		err := domain.NewValidationError("op", "email", "is required")
		e.HTTPErrorHandler(err, c)

		var body ErrorBody
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "is required", body.Error.Fields["email"])
	})
}

func TestValidator(t *testing.T) {
	v := NewValidator()

	type signupBody struct {
		Email    string `validate:"required,email"`
		Password string `validate:"required,min=8"`
	}

	t.Run("valid struct", func(t *testing.T) {
		assert.NoError(t, v.Validate(signupBody{Email: "jamie@example.com", Password: "hunter2hunter2"}))
	})

	t.Run("collects field errors", func(t *testing.T) {
		err := v.Validate(signupBody{Email: "not-an-email", Password: "short"})
		require.Error(t, err)
		fields := domain.GetValidationFields(err)
		assert.Equal(t, "must be a valid email address", fields["Email"])
		assert.Equal(t, "must be at least 8", fields["Password"])
	})
}

func TestPaging(t *testing.T) {
	e := echo.New()

	get := func(target string) echo.Context {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		return e.NewContext(req, httptest.NewRecorder())
	}

	tests := []struct {
		target  string
		page    int
		perPage int
	}{
		{"/x", 1, 20},
		{"/x?page=3&per_page=50", 3, 50},
		{"/x?page=0&per_page=0", 1, 20},
		{"/x?page=-2&per_page=1000", 1, 20},
		{"/x?page=abc&per_page=abc", 1, 20},
	}
	for _, tt := range tests {
		page, perPage := Paging(get(tt.target))
		assert.Equal(t, tt.page, page, tt.target)
		assert.Equal(t, tt.perPage, perPage, tt.target)
	}
}

func TestNewListResponse(t *testing.T) {
	tests := []struct {
		name    string
		total   int64
		perPage int
		pages   int64
	}{
		{"partial last page", 25, 12, 3},
		{"exact multiple", 24, 12, 2},
		{"single page", 5, 20, 1},
		{"empty", 0, 12, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := NewListResponse(nil, tt.total, 1, tt.perPage)
			assert.Equal(t, tt.pages, resp.TotalPages)
			assert.Equal(t, tt.total, resp.Total)
			assert.Equal(t, tt.perPage, resp.PerPage)
		})
	}
}
