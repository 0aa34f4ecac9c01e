// Package handler holds the pieces shared by every HTTP handler: the
// domain-error to HTTP mapping, the request validator, and small response
// helpers.
package handler

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/wickshop/ember/internal/domain"
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields,omitempty"`
	} `json:"error"`
}

// codeStatus maps domain error codes to HTTP statuses.
var codeStatus = map[string]int{
	domain.ECONFLICT:     http.StatusConflict,
	domain.EINVALID:      http.StatusBadRequest,
	domain.ENOTFOUND:     http.StatusNotFound,
	domain.EUNAUTHORIZED: http.StatusUnauthorized,
	domain.EFORBIDDEN:    http.StatusForbidden,
	domain.EPAYMENT:      http.StatusPaymentRequired,
	domain.EINTERNAL:     http.StatusInternalServerError,
}

// StatusFromError resolves the HTTP status for any error.
func StatusFromError(err error) int {
	if httpErr, ok := err.(*echo.HTTPError); ok {
		return httpErr.Code
	}
	if domain.IsValidationError(err) {
		return http.StatusBadRequest
	}
	if status, ok := codeStatus[domain.ErrorCode(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// HTTPErrorHandler is the central echo error handler. Internal detail never
// reaches the response body; it is logged here instead.
func HTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := StatusFromError(err)
		var body ErrorBody
		body.Error.Code = domain.ErrorCode(err)
		body.Error.Message = domain.ErrorMessage(err)
		body.Error.Fields = domain.GetValidationFields(err)

		if httpErr, ok := err.(*echo.HTTPError); ok {
			if msg, ok := httpErr.Message.(string); ok {
				body.Error.Message = msg
			}
			if status == http.StatusNotFound {
				body.Error.Code = domain.ENOTFOUND
			}
		}

		if status >= 500 {
			log.Error().Err(err).
				Str("op", domain.ErrorOp(err)).
				Str("path", c.Request().URL.Path).
				Msg("request failed")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

// Validator adapts go-playground/validator for echo's c.Validate.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates the request validator.
func NewValidator() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// Validate turns validator failures into field-level validation errors.
func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	invalid, ok := err.(validator.ValidationErrors)
	if !ok {
		return domain.WrapError(err, domain.EINVALID, "handler.Validate", "Invalid request payload")
	}
	var out error
	for _, fe := range invalid {
		out = domain.AddFieldError(out, fe.Field(), validationMessage(fe))
	}
	return out
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "is invalid"
	}
}

// BindAndValidate binds the request body into dest and validates it.
func BindAndValidate(c echo.Context, dest any) error {
	if err := c.Bind(dest); err != nil {
		return domain.WrapError(err, domain.EINVALID, "handler.Bind", "Invalid request payload")
	}
	return c.Validate(dest)
}

// Paging reads page and per_page query parameters with sane bounds.
func Paging(c echo.Context) (page, perPage int) {
	page = intQuery(c, "page", 1)
	perPage = intQuery(c, "per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}

func intQuery(c echo.Context, name string, fallback int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

// ListResponse is the paginated collection envelope.
type ListResponse struct {
	Items      any   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PerPage    int   `json:"perPage"`
	TotalPages int64 `json:"totalPages"`
}

// NewListResponse builds the envelope, deriving the page count from the
// total and the page size.
func NewListResponse(items any, total int64, page, perPage int) ListResponse {
	var pages int64
	if perPage > 0 {
		pages = (total + int64(perPage) - 1) / int64(perPage)
	}
	return ListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: pages,
	}
}
